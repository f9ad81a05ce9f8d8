// Package extraction is the side-effecting orchestration around the pure
// pipeline: run bookkeeping, clear-then-repopulate fact persistence, and the
// cross-pass dedup guarantee.
package extraction

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stroydoc/bom-tracker/constants"
	"github.com/stroydoc/bom-tracker/internal/common"
	"github.com/stroydoc/bom-tracker/internal/entity"
	"github.com/stroydoc/bom-tracker/internal/merge"
	"github.com/stroydoc/bom-tracker/internal/pipeline"
	"github.com/stroydoc/bom-tracker/internal/repository"
)

type Service struct {
	docs      repository.DocumentRepository
	facts     repository.FactRepository
	runs      repository.RunRepository
	processor *pipeline.Processor
	log       *slog.Logger
}

func NewService(
	docs repository.DocumentRepository,
	facts repository.FactRepository,
	runs repository.RunRepository,
	processor *pipeline.Processor,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{docs: docs, facts: facts, runs: runs, processor: processor, log: log}
}

// ExtractDocument re-extracts one document: runs the pipeline over its raw
// text, clears prior facts and repopulates them. Rule-based facts are saved
// first; LLM facts are re-checked against the saved rule-based key set before
// writing, so rule facts are never duplicated across the two save passes.
//
// A crash mid-run can leave partial facts; the writes are not wrapped in one
// atomic transaction. Persistence failures are fatal to the run: the run row
// flips to FAILED and the error propagates.
func (s *Service) ExtractDocument(ctx context.Context, docID uuid.UUID) (*entity.ExtractionRun, *pipeline.Result, error) {
	start := time.Now()

	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	run, err := s.runs.Start(ctx, docID)
	if err != nil {
		return nil, nil, err
	}

	progress := func(completed, total int) {
		s.log.Info("extraction.llm.progress",
			"run_id", run.ID,
			"completed", completed,
			"total", total,
		)
	}
	res := s.processor.Run(ctx, doc.RawText, progress)

	if _, err := s.facts.ClearForDocument(ctx, docID); err != nil {
		return run, res, s.fail(ctx, run.ID, err, "clear facts")
	}

	// pass 1: rule-based facts, collecting their dedup keys
	ruleKeys := make(map[string]struct{})
	ruleSaved := 0
	for _, br := range res.Blocks {
		if len(br.RuleFacts) == 0 {
			continue
		}
		if err := s.facts.InsertFacts(ctx, docID, br.Block.UID, constants.SourceRuleBased, br.RuleFacts); err != nil {
			return run, res, s.fail(ctx, run.ID, err, "save rule facts")
		}
		for _, f := range br.RuleFacts {
			ruleKeys[merge.Key(f)] = struct{}{}
		}
		ruleSaved += len(br.RuleFacts)
	}

	// pass 2: novel LLM facts, filtered against the saved rule-based set
	llmSaved := 0
	for _, br := range res.Blocks {
		novel := merge.Novel(br.RuleFacts, br.LLMFacts)
		keep := novel[:0]
		for _, f := range novel {
			if _, dup := ruleKeys[merge.Key(f)]; dup {
				continue
			}
			keep = append(keep, f)
		}
		if len(keep) == 0 {
			continue
		}
		if err := s.facts.InsertFacts(ctx, docID, br.Block.UID, constants.SourceLLM, keep); err != nil {
			return run, res, s.fail(ctx, run.ID, err, "save llm facts")
		}
		llmSaved += len(keep)
	}

	if err := s.runs.Finish(ctx, run.ID, ruleSaved, llmSaved, res.Document.TotalBlocks, res.BlocksToLLM); err != nil {
		return run, res, err
	}
	run.Status = string(constants.RunStatusSucceeded)
	run.RuleFacts = ruleSaved
	run.LLMFacts = llmSaved
	run.BlocksTotal = res.Document.TotalBlocks
	run.BlocksToLLM = res.BlocksToLLM

	s.log.Info("extraction.done",
		"run_id", run.ID,
		"document_id", docID,
		"rule_facts", ruleSaved,
		"llm_facts", llmSaved,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return run, res, nil
}

func (s *Service) fail(ctx context.Context, runID uuid.UUID, cause error, stage string) error {
	wrapped := common.WrapError(cause, stage)
	if ferr := s.runs.Fail(ctx, runID, wrapped.Error()); ferr != nil {
		s.log.Error("extraction.fail_update_failed", "run_id", runID, "error", ferr)
	}
	return wrapped
}
