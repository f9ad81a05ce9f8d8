package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stroydoc/bom-tracker/internal/entity"
	"github.com/stroydoc/bom-tracker/internal/llm"
)

type stubExtractor struct {
	t     *testing.T
	byUID map[string][]entity.MaterialFact
	calls []string
}

func (s *stubExtractor) ExtractItems(_ context.Context, req llm.BlockExtractRequest) ([]entity.MaterialFact, []byte, error) {
	s.calls = append(s.calls, req.BlockUID)
	facts, ok := s.byUID[req.BlockUID]
	if !ok {
		s.t.Fatalf("unexpected LLM call for block %s", req.BlockUID)
	}
	return facts, nil, nil
}

func ptr(s string) *string { return &s }

const materialDoc = `# Проект 123/45-КЖ-Т1

## СТРАНИЦА 3
**Лист:** 3

### BLOCK [TEXT]: TBL-003-001
#### Ведомость потребности в материалах

| Наименование | Ед.изм. | Кол-во |
|---|---|---|
| Бетон В25 | м3 | 1 692,9 |
`

func TestRunRuleOnlyDocumentSkipsLLM(t *testing.T) {
	stub := &stubExtractor{t: t, byUID: map[string][]entity.MaterialFact{}}
	p := NewProcessor(llm.NewGateway(stub, nil), nil)

	res := p.Run(context.Background(), materialDoc, nil)

	assert.Empty(t, stub.calls, "fully rule-extracted blocks never reach the LLM")
	assert.Equal(t, 1, res.Document.TotalBlocks)
	assert.Equal(t, 0, res.BlocksToLLM)
	assert.Equal(t, 1, res.RuleFacts)
	assert.Equal(t, 0, res.LLMFacts)

	require.Len(t, res.Blocks, 1)
	br := res.Blocks[0]
	assert.Equal(t, 3, br.PageNumber)
	assert.False(t, br.SentToLLM)
	require.Len(t, br.Merged, 1)

	f := br.Merged[0]
	assert.Equal(t, "Бетон В25", f.RawName)
	require.NotNil(t, f.Quantity)
	assert.InDelta(t, 1692.9, *f.Quantity, 1e-9)
	require.NotNil(t, f.Unit)
	assert.Equal(t, "м3", *f.Unit)
	assert.Equal(t, float32(0.95), f.Confidence)
}

const mixedDoc = `# Проект

## СТРАНИЦА 1

### BLOCK [TEXT]: TBL-001-001
| Наименование | Ед.изм. | Кол-во |
|---|---|---|
| Бетон В25 | м3 | 10 |

### BLOCK [TEXT]: TXT-001-002
Дополнительно уложить 24 шт анкеров по периметру.

### BLOCK [IMAGE]: IMG-001-003
[Ошибка распознавания]
`

func TestRunRoutesProseBlockAndMerges(t *testing.T) {
	stub := &stubExtractor{t: t, byUID: map[string][]entity.MaterialFact{
		"TXT-001-002": {
			{RawName: "Анкер", Quantity: f64(24), Unit: ptr("шт"), SourceSnippet: ptr("24 шт анкеров")},
		},
	}}
	p := NewProcessor(llm.NewGateway(stub, nil), nil)

	var progressCalls int
	res := p.Run(context.Background(), mixedDoc, func(c, total int) {
		progressCalls++
		assert.Equal(t, 1, total)
	})

	assert.Equal(t, []string{"TXT-001-002"}, stub.calls)
	assert.Equal(t, 1, progressCalls)
	assert.Equal(t, 1, res.BlocksToLLM)
	assert.Equal(t, 1, res.RuleFacts)
	assert.Equal(t, 1, res.LLMFacts)
	assert.Equal(t, 3, res.Document.TotalBlocks)

	require.Len(t, res.Blocks, 3)
	assert.False(t, res.Blocks[0].SentToLLM)
	assert.True(t, res.Blocks[1].SentToLLM)
	assert.False(t, res.Blocks[2].SentToLLM, "image blocks are never routed")

	require.Len(t, res.Blocks[1].Merged, 1)
	assert.Equal(t, "Анкер", res.Blocks[1].Merged[0].RawName)
}

func TestRunLLMDuplicateOfRuleFactNotCountedNovel(t *testing.T) {
	stub := &stubExtractor{t: t, byUID: map[string][]entity.MaterialFact{
		"TXT-001-002": {
			{RawName: "Анкер", Quantity: f64(24), Unit: ptr("шт"), SourceSnippet: ptr("q")},
			{RawName: "Анкер", Quantity: f64(24), Unit: ptr("шт"), SourceSnippet: ptr("q")},
		},
	}}
	p := NewProcessor(llm.NewGateway(stub, nil), nil)

	res := p.Run(context.Background(), mixedDoc, nil)
	assert.Equal(t, 1, res.LLMFacts, "intra-LLM duplicates collapse")
	require.Len(t, res.Blocks[1].Merged, 1)
}

func TestRunWithNilGateway(t *testing.T) {
	p := NewProcessor(nil, nil)
	res := p.Run(context.Background(), mixedDoc, nil)

	assert.Equal(t, 1, res.BlocksToLLM, "routing still recorded")
	assert.Equal(t, 0, res.LLMFacts)
	assert.True(t, res.Blocks[1].SentToLLM)
	assert.Empty(t, res.Blocks[1].LLMFacts)
}

func f64(v float64) *float64 { return &v }
