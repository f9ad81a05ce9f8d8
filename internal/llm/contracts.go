package llm

import (
	"context"

	"github.com/stroydoc/bom-tracker/internal/entity"
)

// BlockExtractRequest carries one block to the structured-extraction
// capability.
type BlockExtractRequest struct {
	DocumentTitle string
	PageNumber    int
	BlockUID      string
	Section       *string
	Content       string
}

// ItemsExtractor is the abstract capability the gateway depends on: send one
// block with the items schema, receive validated structured facts. The
// implementation owns the one-retry-with-backoff policy and the per-call
// timeout; every failure mode (transport, status, malformed content, schema
// validation) surfaces as a single uniform error.
type ItemsExtractor interface {
	ExtractItems(ctx context.Context, req BlockExtractRequest) ([]entity.MaterialFact, []byte /*rawJSON*/, error)
}
