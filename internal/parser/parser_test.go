package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stroydoc/bom-tracker/internal/entity"
)

const sampleDoc = `# Проект 123/45-АР-Т1
Сгенерировано: 2024-03-15 10:22
**Штамп:** Раздел АР

## СТРАНИЦА 1
**Лист:** 3
**Наименование листа:** План на отм. 0.000

### BLOCK [TEXT]: TXT-001-001
#### Ведомость потребности в материалах

| Наименование | Ед.изм. | Кол-во |
|---|---|---|
| Бетон В25 | м3 | 202,6 |

### BLOCK [IMAGE]: IMG-001-002
[Ошибка распознавания: фрагмент нечитаем]

## СТРАНИЦА 2

### BLOCK [TEXT]: TXT-002-001
Примечания к чертежу.
`

func TestParseDocumentStructure(t *testing.T) {
	doc := New(nil).Parse(sampleDoc)

	assert.Equal(t, "Проект 123/45-АР-Т1", doc.Title)
	require.NotNil(t, doc.DocCode)
	assert.Equal(t, "123/45-АР-Т1", *doc.DocCode)
	require.NotNil(t, doc.GeneratedAt)
	assert.Equal(t, "2024-03-15 10:22", *doc.GeneratedAt)
	require.NotNil(t, doc.Stamp)
	assert.Equal(t, "Раздел АР", *doc.Stamp)

	require.Len(t, doc.Pages, 2)
	p1 := doc.Pages[0]
	assert.Equal(t, 1, p1.Number)
	require.NotNil(t, p1.SheetLabel)
	assert.Equal(t, "3", *p1.SheetLabel)
	require.NotNil(t, p1.SheetName)
	assert.Equal(t, "План на отм. 0.000", *p1.SheetName)
	require.Len(t, p1.Blocks, 2)

	text := p1.Blocks[0]
	assert.Equal(t, "TXT-001-001", text.UID)
	assert.Equal(t, entity.BlockText, text.Kind)
	assert.True(t, text.HasTable)
	assert.False(t, text.HasError)
	require.NotNil(t, text.SectionTitle)
	assert.Equal(t, "Ведомость потребности в материалах", *text.SectionTitle)
	require.Len(t, text.Tables, 1)

	img := p1.Blocks[1]
	assert.Equal(t, entity.BlockImage, img.Kind)
	assert.True(t, img.HasError)
	require.NotNil(t, img.ErrorText)
	assert.Equal(t, "[Ошибка распознавания: фрагмент нечитаем]", *img.ErrorText)
	assert.Nil(t, img.Tables, "IMAGE blocks never get table extraction")

	assert.Equal(t, 3, doc.TotalBlocks)
	assert.Equal(t, 1, doc.ErrorBlocks)
}

func TestParseBlockAccountingInvariant(t *testing.T) {
	for _, text := range []string{"", sampleDoc, "plain text\nno markers"} {
		doc := New(nil).Parse(text)
		sum := 0
		for _, pg := range doc.Pages {
			sum += len(pg.Blocks)
		}
		assert.Equal(t, sum, doc.TotalBlocks)
		assert.LessOrEqual(t, doc.ErrorBlocks, doc.TotalBlocks)
	}
}

func TestParseEmptyInput(t *testing.T) {
	doc := New(nil).Parse("")

	require.Len(t, doc.Pages, 1)
	require.Len(t, doc.Pages[0].Blocks, 1)
	b := doc.Pages[0].Blocks[0]
	assert.Equal(t, FallbackBlockID, b.UID)
	assert.Equal(t, entity.BlockText, b.Kind)
	assert.Equal(t, 1, doc.TotalBlocks)
}

func TestParseFallbackKeepsWholeText(t *testing.T) {
	raw := "Ведомость\n\n| Наименование | Кол-во |\n| Бетон | 5 |\n"
	doc := New(nil).Parse(raw)

	require.Len(t, doc.Pages, 1)
	b := doc.Pages[0].Blocks[0]
	assert.Equal(t, FallbackBlockID, b.UID)
	assert.Equal(t, raw, b.Content, "fallback content is the untrimmed input")
	assert.True(t, b.HasTable)
	assert.Empty(t, b.Tables, "fallback never extracts tables")
}

func TestParseBlockBeforePageMarker(t *testing.T) {
	doc := New(nil).Parse("### BLOCK [TEXT]: TXT-000-001\nсодержимое\n")

	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 1, doc.Pages[0].Number)
	require.Len(t, doc.Pages[0].Blocks, 1)
	assert.Equal(t, "TXT-000-001", doc.Pages[0].Blocks[0].UID)
	assert.Equal(t, "содержимое", doc.Pages[0].Blocks[0].Content)
}

func TestParseDuplicatePageNumbersAccepted(t *testing.T) {
	doc := New(nil).Parse("## СТРАНИЦА 7\n### BLOCK [TEXT]: A1-B1-C1\nx\n## СТРАНИЦА 7\n### BLOCK [TEXT]: A1-B1-C2\ny\n")

	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 7, doc.Pages[0].Number)
	assert.Equal(t, 7, doc.Pages[1].Number)
}

func TestParseSectionTitleIsFirstHeading(t *testing.T) {
	doc := New(nil).Parse(`### BLOCK [TEXT]: TXT-001-001
#### Первый раздел
текст
#### Второй раздел
`)
	b := doc.Pages[0].Blocks[0]
	require.NotNil(t, b.SectionTitle)
	assert.Equal(t, "Первый раздел", *b.SectionTitle)
}

func TestParseErrorMarkerInsideTextBlock(t *testing.T) {
	doc := New(nil).Parse("### BLOCK [TEXT]: TXT-001-001\nдо\n[Ошибка OCR]\nпосле\n")
	b := doc.Pages[0].Blocks[0]
	assert.True(t, b.HasError)
	require.NotNil(t, b.ErrorText)
	assert.Equal(t, "[Ошибка OCR]", *b.ErrorText)
}
