package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stroydoc/bom-tracker/internal/entity"
)

func ptr(s string) *string { return &s }

func textBlock(tables ...entity.ParsedTable) entity.ParsedBlock {
	return entity.ParsedBlock{
		UID:      "TXT-001-001",
		Kind:     entity.BlockText,
		HasTable: len(tables) > 0,
		Tables:   tables,
	}
}

func TestExtractMaterialQtyTable(t *testing.T) {
	block := textBlock(entity.ParsedTable{
		Headers: []string{"Наименование", "Ед.изм.", "Кол-во", "Примечание"},
		Rows: [][]string{
			{"Бетон В25", "м3", "1 692,9", ""},
			{"Арматура А500С ГОСТ 34028-2016", "т", "202,6", "вязать"},
		},
	})

	facts := New(nil).ExtractBlock(block)
	require.Len(t, facts, 2)

	f := facts[0]
	assert.Equal(t, "Бетон В25", f.RawName)
	require.NotNil(t, f.Quantity)
	assert.InDelta(t, 1692.9, *f.Quantity, 1e-9)
	require.NotNil(t, f.Unit)
	assert.Equal(t, "м3", *f.Unit)
	require.NotNil(t, f.CanonicalKey)
	assert.Equal(t, "beton_v25", *f.CanonicalKey)
	assert.Equal(t, float32(0.95), f.Confidence)
	require.NotNil(t, f.SourceSnippet)
	assert.Equal(t, "Бетон В25 | 1692.9 м3", *f.SourceSnippet)

	g := facts[1]
	require.NotNil(t, g.GOST)
	assert.Equal(t, "ГОСТ 34028-2016", *g.GOST)
	require.NotNil(t, g.Note)
	assert.Equal(t, "вязать", *g.Note)
}

func TestExtractElementSpecForcesPieceUnit(t *testing.T) {
	block := textBlock(entity.ParsedTable{
		Headers: []string{"Марка", "Наименование", "Кол-во"},
		Rows: [][]string{
			{"Б-1", "Балка стальная", "4"},
		},
	})

	facts := New(nil).ExtractBlock(block)
	require.Len(t, facts, 1)
	f := facts[0]
	assert.Equal(t, "Балка стальная", f.RawName)
	require.NotNil(t, f.Unit)
	assert.Equal(t, "шт", *f.Unit)
	require.NotNil(t, f.Mark)
	assert.Equal(t, "Б-1", *f.Mark)
	assert.Equal(t, float32(0.9), f.Confidence)
}

func TestExtractSpecElementsDesignation(t *testing.T) {
	block := textBlock(entity.ParsedTable{
		Headers: []string{"Поз.", "Обозначение", "Наименование", "Кол."},
		Rows: [][]string{
			{"1", "Серия 1.038.1-1", "Перемычка 2ПБ 22-3", "14"},
		},
	})

	facts := New(nil).ExtractBlock(block)
	require.Len(t, facts, 1)
	f := facts[0]
	require.NotNil(t, f.Mark)
	assert.Equal(t, "1", *f.Mark)
	require.NotNil(t, f.Description)
	assert.Equal(t, "Серия 1.038.1-1", *f.Description)
	require.NotNil(t, f.Unit)
	assert.Equal(t, "шт", *f.Unit)
}

func TestExtractSkipsShortNames(t *testing.T) {
	block := textBlock(entity.ParsedTable{
		Headers: []string{"Наименование", "Ед.изм.", "Кол-во"},
		Rows: [][]string{
			{"К6", "", ""},
			{"", "м3", "5"},
		},
	})
	assert.Empty(t, New(nil).ExtractBlock(block))
}

func TestExtractSkipsSectionLabelRows(t *testing.T) {
	block := textBlock(entity.ParsedTable{
		Headers: []string{"Наименование", "Ед.изм.", "Кол-во"},
		Rows: [][]string{
			{"К6.1", "", ""},         // section label, filtered
			{"К6.1", "м3", "5"},      // same text with data is a real row
			{"Кирпич рядовой", "", ""}, // long multi-word names always pass
		},
	})

	facts := New(nil).ExtractBlock(block)
	require.Len(t, facts, 2)
	assert.Equal(t, "К6.1", facts[0].RawName)
	require.NotNil(t, facts[0].Quantity)
	assert.Equal(t, "Кирпич рядовой", facts[1].RawName)
	assert.Nil(t, facts[1].Quantity)
}

func TestExtractNoNameColumnYieldsNothing(t *testing.T) {
	// classifies as element_spec but carries no name/designation column
	block := textBlock(entity.ParsedTable{
		Headers: []string{"Марка", "Кол."},
		Rows:    [][]string{{"Б-1", "5"}},
	})
	assert.Empty(t, New(nil).ExtractBlock(block))
}

func TestExtractIgnoresNonRuleTables(t *testing.T) {
	block := textBlock(
		entity.ParsedTable{
			Headers: []string{"Изм.", "Подпись", "Дата"},
			Rows:    [][]string{{"1", "", "01.02.24"}},
		},
		entity.ParsedTable{
			Headers: []string{"Тип пола", "Данные элементов пола"},
			Rows:    [][]string{{"1", "Стяжка 50 мм"}},
		},
	)
	assert.Empty(t, New(nil).ExtractBlock(block))
}

func TestExtractIgnoresImageBlocks(t *testing.T) {
	block := entity.ParsedBlock{
		UID:  "IMG-001-001",
		Kind: entity.BlockImage,
		Tables: []entity.ParsedTable{{
			Headers: []string{"Наименование", "Кол-во"},
			Rows:    [][]string{{"Бетон В25", "5"}},
		}},
	}
	assert.Empty(t, New(nil).ExtractBlock(block))
}

func TestExtractDashQuantityMeansAbsent(t *testing.T) {
	block := textBlock(entity.ParsedTable{
		Headers: []string{"Наименование", "Ед.изм.", "Кол-во"},
		Rows:    [][]string{{"Грунтовка акриловая", "л", "-"}},
	})

	facts := New(nil).ExtractBlock(block)
	require.Len(t, facts, 1)
	assert.Nil(t, facts[0].Quantity)
	require.NotNil(t, facts[0].SourceSnippet)
	assert.Equal(t, "Грунтовка акриловая | л", *facts[0].SourceSnippet)
}

func TestFindGOST(t *testing.T) {
	assert.Equal(t, "ГОСТ 530-2012", findGOST("Кирпич ГОСТ 530-2012"))
	assert.Equal(t, "ГОСТ Р 52085-2003", findGOST("", "Опалубка ГОСТ Р 52085-2003"))
	assert.Equal(t, "GOST 8240-97", findGOST("Швеллер GOST 8240-97"))
	assert.Equal(t, "", findGOST("Бетон В25", "без стандарта"))
}
