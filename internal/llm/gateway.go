package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/stroydoc/bom-tracker/internal/canonical"
	"github.com/stroydoc/bom-tracker/internal/entity"
)

// ProgressFunc is invoked after each block resolves, success or failure, with
// strictly increasing completed counts.
type ProgressFunc func(completed, total int)

// Gateway orchestrates per-block extraction over the abstract capability.
// Blocks are processed strictly one at a time: outstanding external load is
// bounded to one call and progress reporting stays linear. One block's
// failure never aborts the batch.
type Gateway struct {
	extractor ItemsExtractor
	log       *slog.Logger
}

func NewGateway(extractor ItemsExtractor, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{extractor: extractor, log: log}
}

// ExtractBlocks runs the batch sequentially and returns facts keyed by block
// identifier; each entry is written exactly once. Failed blocks record zero
// items. Callers wanting early abort slice the batch before calling.
func (g *Gateway) ExtractBlocks(ctx context.Context, reqs []BlockExtractRequest, progress ProgressFunc) map[string][]entity.MaterialFact {
	start := time.Now()
	results := make(map[string][]entity.MaterialFact, len(reqs))
	for i, req := range reqs {
		items, _, err := g.extractor.ExtractItems(ctx, req)
		if err != nil {
			g.log.Warn("llm.gateway.block_failed",
				"block_uid", req.BlockUID,
				"page", req.PageNumber,
				"error", err,
			)
			results[req.BlockUID] = nil
		} else {
			results[req.BlockUID] = g.sanitize(req.BlockUID, items)
		}
		if progress != nil {
			progress(i+1, len(reqs))
		}
	}
	g.log.Info("llm.gateway.batch_done",
		"blocks", len(reqs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results
}

// sanitize enforces the grounding contract on model output: items without a
// source quote are dropped, missing confidences get the default, and the
// canonical key is backfilled from canonical_name, else raw_name.
func (g *Gateway) sanitize(blockUID string, items []entity.MaterialFact) []entity.MaterialFact {
	out := make([]entity.MaterialFact, 0, len(items))
	for _, it := range items {
		if it.SourceSnippet == nil || strings.TrimSpace(*it.SourceSnippet) == "" {
			g.log.Warn("llm.gateway.item_ungrounded",
				"block_uid", blockUID,
				"raw_name", it.RawName,
			)
			continue
		}
		if it.Confidence == 0 {
			it.Confidence = entity.DefaultConfidence
		}
		if it.CanonicalKey == nil || *it.CanonicalKey == "" {
			src := it.RawName
			if it.CanonicalName != nil && *it.CanonicalName != "" {
				src = *it.CanonicalName
			}
			key := canonical.Key(src)
			it.CanonicalKey = &key
		}
		out = append(out, it)
	}
	return out
}
