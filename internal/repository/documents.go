package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stroydoc/bom-tracker/internal/common"
	"github.com/stroydoc/bom-tracker/internal/entity"
)

type DocumentRepository interface {
	// Create stores the raw text together with its parse result (pages and
	// blocks) in one transaction.
	Create(ctx context.Context, rawText string, parsed *entity.ParsedDocument) (*entity.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Document, error)
}

type documentRepo struct {
	db  *DB
	log *slog.Logger
}

func NewDocumentRepository(db *DB, log *slog.Logger) DocumentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &documentRepo{db: db, log: log}
}

func (r *documentRepo) Create(ctx context.Context, rawText string, parsed *entity.ParsedDocument) (*entity.Document, error) {
	id := uuid.New()
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.WrapError(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, doc_code, raw_text, total_blocks, error_blocks, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id.String(), parsed.Title, parsed.DocCode, rawText,
		parsed.TotalBlocks, parsed.ErrorBlocks, now,
	)
	if err != nil {
		r.log.Error("document create failed", "error", err)
		return nil, common.WrapError(err, "insert document")
	}

	for pi, pg := range parsed.Pages {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pages (document_id, ordinal, number, sheet_label, sheet_name)
			 VALUES ($1, $2, $3, $4, $5)`,
			id.String(), pi, pg.Number, pg.SheetLabel, pg.SheetName,
		)
		if err != nil {
			return nil, common.WrapError(err, "insert page")
		}
		for bi, b := range pg.Blocks {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO blocks (document_id, uid, page_ordinal, ordinal, kind, content,
				                     has_table, has_error, error_text, section_title)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				id.String(), b.UID, pi, bi, string(b.Kind), b.Content,
				boolToInt(b.HasTable), boolToInt(b.HasError), b.ErrorText, b.SectionTitle,
			)
			if err != nil {
				return nil, common.WrapError(err, "insert block")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, common.WrapError(err, "commit document")
	}
	r.log.Info("document created",
		"document_id", id,
		"title", parsed.Title,
		"pages", len(parsed.Pages),
		"blocks", parsed.TotalBlocks,
	)
	return &entity.Document{
		ID:          id,
		Title:       parsed.Title,
		DocCode:     parsed.DocCode,
		RawText:     rawText,
		TotalBlocks: parsed.TotalBlocks,
		ErrorBlocks: parsed.ErrorBlocks,
		CreatedAt:   now,
	}, nil
}

func (r *documentRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, doc_code, raw_text, total_blocks, error_blocks, created_at
		 FROM documents WHERE id = $1`,
		id.String(),
	)
	var (
		d       entity.Document
		rawID   string
		docCode sql.NullString
	)
	err := row.Scan(&rawID, &d.Title, &docCode, &d.RawText, &d.TotalBlocks, &d.ErrorBlocks, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("DOCUMENT_NOT_FOUND", "document does not exist", common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "query document")
	}
	if d.ID, err = uuid.Parse(rawID); err != nil {
		return nil, common.WrapError(err, "parse document id")
	}
	d.DocCode = nsToPtr(docCode)
	return &d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nsToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nfToPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
