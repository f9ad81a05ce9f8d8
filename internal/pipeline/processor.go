// Package pipeline composes the pure computation of an extraction pass:
// parse → classify → rule-extract → route → LLM-extract → merge. It touches
// no external state besides the LLM capability behind the gateway; the
// persistence orchestration lives in internal/extraction.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/stroydoc/bom-tracker/internal/entity"
	"github.com/stroydoc/bom-tracker/internal/extract"
	"github.com/stroydoc/bom-tracker/internal/llm"
	"github.com/stroydoc/bom-tracker/internal/merge"
	"github.com/stroydoc/bom-tracker/internal/parser"
)

// BlockResult is the per-block output: both candidate sets plus their
// reconciled union, rule facts first.
type BlockResult struct {
	PageNumber int
	Block      entity.ParsedBlock
	SentToLLM  bool
	RuleFacts  []entity.MaterialFact
	LLMFacts   []entity.MaterialFact
	Merged     []entity.MaterialFact
}

// Result is one full extraction pass over a document.
type Result struct {
	Document    *entity.ParsedDocument
	Blocks      []BlockResult
	RuleFacts   int
	LLMFacts    int
	BlocksToLLM int
}

// Processor wires the pipeline stages. The gateway may be nil for rule-only
// runs (offline CLI use); routed blocks then simply record zero LLM facts.
type Processor struct {
	parser    *parser.Parser
	extractor *extract.Extractor
	gateway   *llm.Gateway
	log       *slog.Logger
}

func NewProcessor(gateway *llm.Gateway, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		parser:    parser.New(log),
		extractor: extract.New(log),
		gateway:   gateway,
		log:       log,
	}
}

// Run executes one pass over raw document text. It never fails: parsing is
// total and LLM failures are isolated per block inside the gateway.
func (p *Processor) Run(ctx context.Context, text string, progress llm.ProgressFunc) *Result {
	start := time.Now()
	doc := p.parser.Parse(text)

	res := &Result{Document: doc}
	var llmReqs []llm.BlockExtractRequest
	idxByUID := make(map[string]int)

	for _, pg := range doc.Pages {
		for _, block := range pg.Blocks {
			ruleFacts := p.extractor.ExtractBlock(block)
			br := BlockResult{
				PageNumber: pg.Number,
				Block:      block,
				RuleFacts:  ruleFacts,
			}
			if NeedsLLM(block, len(ruleFacts)) {
				br.SentToLLM = true
				llmReqs = append(llmReqs, llm.BlockExtractRequest{
					DocumentTitle: doc.Title,
					PageNumber:    pg.Number,
					BlockUID:      block.UID,
					Section:       block.SectionTitle,
					Content:       block.Content,
				})
			}
			idxByUID[block.UID] = len(res.Blocks)
			res.Blocks = append(res.Blocks, br)
		}
	}
	res.BlocksToLLM = len(llmReqs)
	p.log.Info("pipeline.rules.done",
		"pages", len(doc.Pages),
		"blocks", doc.TotalBlocks,
		"blocks_to_llm", res.BlocksToLLM,
	)

	if p.gateway != nil && len(llmReqs) > 0 {
		llmOut := p.gateway.ExtractBlocks(ctx, llmReqs, progress)
		for uid, facts := range llmOut {
			if i, ok := idxByUID[uid]; ok {
				res.Blocks[i].LLMFacts = facts
			}
		}
	}

	for i := range res.Blocks {
		br := &res.Blocks[i]
		br.Merged = merge.Merge(br.RuleFacts, br.LLMFacts)
		res.RuleFacts += len(br.RuleFacts)
		res.LLMFacts += len(merge.Novel(br.RuleFacts, br.LLMFacts))
	}
	p.log.Info("pipeline.done",
		"rule_facts", res.RuleFacts,
		"llm_facts", res.LLMFacts,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}
