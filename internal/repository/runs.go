package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stroydoc/bom-tracker/constants"
	"github.com/stroydoc/bom-tracker/internal/common"
	"github.com/stroydoc/bom-tracker/internal/entity"
)

type RunRepository interface {
	Start(ctx context.Context, docID uuid.UUID) (*entity.ExtractionRun, error)
	Finish(ctx context.Context, runID uuid.UUID, ruleFacts, llmFacts, blocksTotal, blocksToLLM int) error
	Fail(ctx context.Context, runID uuid.UUID, message string) error
	Get(ctx context.Context, runID uuid.UUID) (*entity.ExtractionRun, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log}
}

func (r *runRepo) Start(ctx context.Context, docID uuid.UUID) (*entity.ExtractionRun, error) {
	run := &entity.ExtractionRun{
		ID:         uuid.New(),
		DocumentID: docID,
		Status:     string(constants.RunStatusRunning),
		StartedAt:  time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extraction_runs (id, document_id, status, started_at)
		 VALUES ($1, $2, $3, $4)`,
		run.ID.String(), docID.String(), run.Status, run.StartedAt,
	)
	if err != nil {
		r.log.Error("extraction_run start failed", "document_id", docID, "error", err)
		return nil, common.WrapError(err, "start extraction run")
	}
	r.log.Info("extraction_run started", "run_id", run.ID, "document_id", docID)
	return run, nil
}

func (r *runRepo) Finish(ctx context.Context, runID uuid.UUID, ruleFacts, llmFacts, blocksTotal, blocksToLLM int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE extraction_runs
		 SET status = $1, rule_facts = $2, llm_facts = $3, blocks_total = $4,
		     blocks_to_llm = $5, finished_at = $6
		 WHERE id = $7`,
		string(constants.RunStatusSucceeded), ruleFacts, llmFacts, blocksTotal,
		blocksToLLM, time.Now().UTC(), runID.String(),
	)
	if err != nil {
		r.log.Error("extraction_run finish failed", "run_id", runID, "error", err)
		return common.WrapError(err, "finish extraction run")
	}
	r.log.Info("extraction_run finished",
		"run_id", runID,
		"rule_facts", ruleFacts,
		"llm_facts", llmFacts,
	)
	return nil
}

func (r *runRepo) Fail(ctx context.Context, runID uuid.UUID, message string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE extraction_runs
		 SET status = $1, error_message = $2, finished_at = $3
		 WHERE id = $4`,
		string(constants.RunStatusFailed), message, time.Now().UTC(), runID.String(),
	)
	if err != nil {
		r.log.Error("extraction_run fail-update failed", "run_id", runID, "error", err)
		return common.WrapError(err, "fail extraction run")
	}
	r.log.Warn("extraction_run failed", "run_id", runID, "error", message)
	return nil
}

func (r *runRepo) Get(ctx context.Context, runID uuid.UUID) (*entity.ExtractionRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, document_id, status, rule_facts, llm_facts, blocks_total,
		        blocks_to_llm, error_message, started_at, finished_at
		 FROM extraction_runs WHERE id = $1`,
		runID.String(),
	)
	var (
		run      entity.ExtractionRun
		rawID    string
		rawDocID string
		errMsg   sql.NullString
		finished sql.NullTime
	)
	err := row.Scan(&rawID, &rawDocID, &run.Status, &run.RuleFacts, &run.LLMFacts,
		&run.BlocksTotal, &run.BlocksToLLM, &errMsg, &run.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("RUN_NOT_FOUND", "extraction run does not exist", common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "query extraction run")
	}
	if run.ID, err = uuid.Parse(rawID); err != nil {
		return nil, common.WrapError(err, "parse run id")
	}
	if run.DocumentID, err = uuid.Parse(rawDocID); err != nil {
		return nil, common.WrapError(err, "parse run document id")
	}
	run.ErrorMessage = nsToPtr(errMsg)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
