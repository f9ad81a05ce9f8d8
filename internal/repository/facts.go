package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stroydoc/bom-tracker/constants"
	"github.com/stroydoc/bom-tracker/internal/common"
	"github.com/stroydoc/bom-tracker/internal/entity"
)

// RollupRow is one line of the BOM aggregation: facts grouped by canonical
// key and unit, quantities summed.
type RollupRow struct {
	CanonicalKey  string   `json:"canonical_key"`
	CanonicalName string   `json:"canonical_name"`
	Unit          *string  `json:"unit,omitempty"`
	TotalQuantity *float64 `json:"total_quantity,omitempty"`
	Items         int      `json:"items"`
}

type FactRepository interface {
	// ClearForDocument removes every fact of a document; re-extraction is
	// clear-then-repopulate at document granularity.
	ClearForDocument(ctx context.Context, docID uuid.UUID) (int64, error)
	InsertFacts(ctx context.Context, docID uuid.UUID, blockUID string, source constants.FactSource, facts []entity.MaterialFact) error
	ListByDocument(ctx context.Context, docID uuid.UUID) ([]*entity.StoredFact, error)
	// RollupByKey is the BOM aggregation query: group by canonical_key and
	// unit, sum quantities.
	RollupByKey(ctx context.Context, docID uuid.UUID) ([]RollupRow, error)
}

type factRepo struct {
	db  *DB
	log *slog.Logger
}

func NewFactRepository(db *DB, log *slog.Logger) FactRepository {
	if log == nil {
		log = slog.Default()
	}
	return &factRepo{db: db, log: log}
}

func (r *factRepo) ClearForDocument(ctx context.Context, docID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM material_facts WHERE document_id = $1`, docID.String())
	if err != nil {
		r.log.Error("facts clear failed", "document_id", docID, "error", err)
		return 0, common.WrapError(err, "clear facts")
	}
	n, _ := res.RowsAffected()
	r.log.Info("facts cleared", "document_id", docID, "deleted", n)
	return n, nil
}

func (r *factRepo) InsertFacts(ctx context.Context, docID uuid.UUID, blockUID string, source constants.FactSource, facts []entity.MaterialFact) error {
	if len(facts) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO material_facts
		   (id, document_id, block_uid, source, raw_name, canonical_name, canonical_key,
		    quantity, unit, mark, gost, description, note, source_snippet, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`)
	if err != nil {
		return common.WrapError(err, "prepare insert")
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, f := range facts {
		_, err = stmt.ExecContext(ctx,
			uuid.New().String(), docID.String(), blockUID, string(source),
			f.RawName, f.CanonicalName, f.CanonicalKey,
			f.Quantity, f.Unit, f.Mark, f.GOST, f.Description, f.Note,
			f.SourceSnippet, f.Confidence, now,
		)
		if err != nil {
			r.log.Error("fact insert failed",
				"document_id", docID,
				"block_uid", blockUID,
				"raw_name", f.RawName,
				"error", err,
			)
			return common.WrapError(err, "insert fact")
		}
	}
	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit facts")
	}
	r.log.Debug("facts inserted",
		"document_id", docID,
		"block_uid", blockUID,
		"source", string(source),
		"count", len(facts),
	)
	return nil
}

func (r *factRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]*entity.StoredFact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, document_id, block_uid, source, raw_name, canonical_name, canonical_key,
		        quantity, unit, mark, gost, description, note, source_snippet, confidence, created_at
		 FROM material_facts
		 WHERE document_id = $1
		 ORDER BY created_at, id`,
		docID.String(),
	)
	if err != nil {
		return nil, common.WrapError(err, "query facts")
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.StoredFact
	for rows.Next() {
		var (
			f          entity.StoredFact
			rawID      string
			rawDocID   string
			canonName  sql.NullString
			canonKey   sql.NullString
			quantity   sql.NullFloat64
			unit       sql.NullString
			mark       sql.NullString
			gost       sql.NullString
			descr      sql.NullString
			note       sql.NullString
			snippet    sql.NullString
			confidence float64
		)
		err := rows.Scan(&rawID, &rawDocID, &f.BlockUID, &f.Source, &f.RawName,
			&canonName, &canonKey, &quantity, &unit, &mark, &gost, &descr, &note,
			&snippet, &confidence, &f.CreatedAt)
		if err != nil {
			return nil, common.WrapError(err, "scan fact")
		}
		if f.ID, err = uuid.Parse(rawID); err != nil {
			return nil, common.WrapError(err, "parse fact id")
		}
		if f.DocumentID, err = uuid.Parse(rawDocID); err != nil {
			return nil, common.WrapError(err, "parse fact document id")
		}
		f.CanonicalName = nsToPtr(canonName)
		f.CanonicalKey = nsToPtr(canonKey)
		f.Quantity = nfToPtr(quantity)
		f.Unit = nsToPtr(unit)
		f.Mark = nsToPtr(mark)
		f.GOST = nsToPtr(gost)
		f.Description = nsToPtr(descr)
		f.Note = nsToPtr(note)
		f.SourceSnippet = nsToPtr(snippet)
		f.Confidence = float32(confidence)
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (r *factRepo) RollupByKey(ctx context.Context, docID uuid.UUID) ([]RollupRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT canonical_key, MIN(canonical_name), unit, SUM(quantity), COUNT(*)
		 FROM material_facts
		 WHERE document_id = $1 AND canonical_key IS NOT NULL
		 GROUP BY canonical_key, unit
		 ORDER BY canonical_key`,
		docID.String(),
	)
	if err != nil {
		return nil, common.WrapError(err, "query rollup")
	}
	defer func() { _ = rows.Close() }()

	var out []RollupRow
	for rows.Next() {
		var (
			row   RollupRow
			name  sql.NullString
			unit  sql.NullString
			total sql.NullFloat64
		)
		if err := rows.Scan(&row.CanonicalKey, &name, &unit, &total, &row.Items); err != nil {
			return nil, common.WrapError(err, "scan rollup row")
		}
		if name.Valid {
			row.CanonicalName = name.String
		}
		row.Unit = nsToPtr(unit)
		row.TotalQuantity = nfToPtr(total)
		out = append(out, row)
	}
	return out, rows.Err()
}
