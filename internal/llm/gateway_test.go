package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stroydoc/bom-tracker/internal/entity"
)

type fakeExtractor struct {
	byUID map[string][]entity.MaterialFact
	fail  map[string]bool
	calls []string
}

func (f *fakeExtractor) ExtractItems(_ context.Context, req BlockExtractRequest) ([]entity.MaterialFact, []byte, error) {
	f.calls = append(f.calls, req.BlockUID)
	if f.fail[req.BlockUID] {
		return nil, nil, errors.New("boom")
	}
	return f.byUID[req.BlockUID], nil, nil
}

func ptr(s string) *string { return &s }

func req(uid string) BlockExtractRequest {
	return BlockExtractRequest{DocumentTitle: "Проект", PageNumber: 1, BlockUID: uid, Content: "..."}
}

func TestGatewayDropsUngroundedItems(t *testing.T) {
	fake := &fakeExtractor{byUID: map[string][]entity.MaterialFact{
		"B-1-1": {
			{RawName: "Бетон В25", SourceSnippet: ptr("Бетон В25 | 10 м3")},
			{RawName: "выдумка"},
			{RawName: "пустая цитата", SourceSnippet: ptr("   ")},
		},
	}}
	g := NewGateway(fake, nil)

	out := g.ExtractBlocks(context.Background(), []BlockExtractRequest{req("B-1-1")}, nil)
	require.Len(t, out["B-1-1"], 1)
	assert.Equal(t, "Бетон В25", out["B-1-1"][0].RawName)
}

func TestGatewayBackfillsDefaults(t *testing.T) {
	fake := &fakeExtractor{byUID: map[string][]entity.MaterialFact{
		"B-1-1": {
			{RawName: "Бетон В25", SourceSnippet: ptr("q")},
			{RawName: "Кирпич", CanonicalName: ptr("Кирпич рядовой"), SourceSnippet: ptr("q"), Confidence: 0.7},
		},
	}}
	g := NewGateway(fake, nil)

	out := g.ExtractBlocks(context.Background(), []BlockExtractRequest{req("B-1-1")}, nil)
	require.Len(t, out["B-1-1"], 2)

	first := out["B-1-1"][0]
	assert.Equal(t, entity.DefaultConfidence, first.Confidence)
	require.NotNil(t, first.CanonicalKey, "key backfilled from raw_name")
	assert.Equal(t, "beton_v25", *first.CanonicalKey)

	second := out["B-1-1"][1]
	assert.Equal(t, float32(0.7), second.Confidence)
	require.NotNil(t, second.CanonicalKey, "key backfilled from canonical_name when present")
	assert.Equal(t, "kirpich_ryadovoy", *second.CanonicalKey)
}

func TestGatewayIsolatesBlockFailures(t *testing.T) {
	fake := &fakeExtractor{
		byUID: map[string][]entity.MaterialFact{
			"B-1-1": {{RawName: "Бетон В25", SourceSnippet: ptr("q")}},
			"B-1-3": {{RawName: "Кирпич", SourceSnippet: ptr("q")}},
		},
		fail: map[string]bool{"B-1-2": true},
	}
	g := NewGateway(fake, nil)

	reqs := []BlockExtractRequest{req("B-1-1"), req("B-1-2"), req("B-1-3")}
	out := g.ExtractBlocks(context.Background(), reqs, nil)

	require.Len(t, out, 3, "failed blocks still get an entry")
	assert.Len(t, out["B-1-1"], 1)
	assert.Nil(t, out["B-1-2"])
	assert.Len(t, out["B-1-3"], 1)
	assert.Equal(t, []string{"B-1-1", "B-1-2", "B-1-3"}, fake.calls, "strictly sequential")
}

func TestGatewayProgressMonotonic(t *testing.T) {
	fake := &fakeExtractor{fail: map[string]bool{"B-1-2": true}}
	g := NewGateway(fake, nil)

	var completed []int
	total := -1
	g.ExtractBlocks(context.Background(),
		[]BlockExtractRequest{req("B-1-1"), req("B-1-2"), req("B-1-3")},
		func(c, tot int) {
			completed = append(completed, c)
			total = tot
		})

	assert.Equal(t, []int{1, 2, 3}, completed, "progress fires after every block, failures included")
	assert.Equal(t, 3, total)
}
