package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTablesSeparatorRowSkipped(t *testing.T) {
	lines := strings.Split(`| Наименование | Кол-во |
|---|:---:|
| Бетон В25 | 202,6 |
| Арматура А500С | 12 |`, "\n")

	tables := extractTables(lines)
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"Наименование", "Кол-во"}, tables[0].Headers)
	require.Len(t, tables[0].Rows, 2)
	assert.Equal(t, []string{"Бетон В25", "202,6"}, tables[0].Rows[0])
}

func TestExtractTablesWithoutSeparatorRow(t *testing.T) {
	lines := []string{
		"| Наименование | Кол-во |",
		"| Бетон | 5 |",
	}
	tables := extractTables(lines)
	require.Len(t, tables, 1)
	require.Len(t, tables[0].Rows, 1)
	assert.Equal(t, []string{"Бетон", "5"}, tables[0].Rows[0])
}

func TestExtractTablesSinglePipeRowIsNoise(t *testing.T) {
	lines := []string{
		"текст",
		"| одинокая строка |",
		"текст",
	}
	assert.Empty(t, extractTables(lines))
}

func TestExtractTablesHeadingSetsSectionContext(t *testing.T) {
	lines := strings.Split(`#### Ведомость материалов
| Наименование | Кол-во |
| Бетон | 5 |

#### Спецификация элементов
| Марка | Кол. |
| Б-1 | 2 |`, "\n")

	tables := extractTables(lines)
	require.Len(t, tables, 2)
	require.NotNil(t, tables[0].Section)
	assert.Equal(t, "Ведомость материалов", *tables[0].Section)
	require.NotNil(t, tables[1].Section)
	assert.Equal(t, "Спецификация элементов", *tables[1].Section)
}

func TestExtractTablesHeadingSplitsAdjacentRuns(t *testing.T) {
	lines := strings.Split(`| A | B |
| 1 | 2 |
#### Раздел
| C | D |
| 3 | 4 |`, "\n")

	tables := extractTables(lines)
	require.Len(t, tables, 2)
	assert.Nil(t, tables[0].Section)
	require.NotNil(t, tables[1].Section)
	assert.Equal(t, "Раздел", *tables[1].Section)
}

func TestSplitRowTrimsCells(t *testing.T) {
	assert.Equal(t, []string{"Бетон В25", "м3", "202,6"}, splitRow("|  Бетон В25 | м3 |202,6 |"))
	assert.Equal(t, []string{"a", "b"}, splitRow("a | b"))
}
