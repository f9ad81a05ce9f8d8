package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/stroydoc/bom-tracker/internal/entity"
	"github.com/stroydoc/bom-tracker/internal/repository"
)

func ptr(s string) *string { return &s }
func f(v float64) *float64 { return &v }

func TestWriteWorkbook(t *testing.T) {
	facts := []FactRow{
		{
			BlockUID: "TBL-003-001",
			Source:   "rule_based",
			Fact: entity.MaterialFact{
				RawName:       "Бетон В25",
				CanonicalKey:  ptr("beton_v25"),
				Quantity:      f(1692.9),
				Unit:          ptr("м3"),
				SourceSnippet: ptr("Бетон В25 | 1692.9 м3"),
				Confidence:    0.95,
			},
		},
		{
			BlockUID: "TXT-001-002",
			Source:   "llm",
			Fact:     entity.MaterialFact{RawName: "Анкер", Confidence: 0.8},
		},
	}
	rollup := []repository.RollupRow{
		{CanonicalKey: "beton_v25", CanonicalName: "Бетон В25", Unit: ptr("м3"), TotalQuantity: f(1692.9), Items: 1},
	}

	data, err := WriteWorkbook("Проект 123/45-КЖ-Т1", facts, rollup)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	assert.ElementsMatch(t, []string{"Facts", "BOM"}, wb.GetSheetList())

	name, err := wb.GetCellValue("Facts", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Бетон В25", name)

	source, err := wb.GetCellValue("Facts", "B3")
	require.NoError(t, err)
	assert.Equal(t, "llm", source)

	key, err := wb.GetCellValue("BOM", "A2")
	require.NoError(t, err)
	assert.Equal(t, "beton_v25", key)

	total, err := wb.GetCellValue("BOM", "D2")
	require.NoError(t, err)
	assert.Equal(t, "1692.9", total)
}

func TestWriteWorkbookEmpty(t *testing.T) {
	data, err := WriteWorkbook("", nil, nil)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	header, err := wb.GetCellValue("Facts", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Block", header)
}
