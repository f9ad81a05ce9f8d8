package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Portable DDL: TEXT uuids and INTEGER flags are accepted by both postgres
// and sqlite. One statement per entry; pgx's extended protocol rejects
// multi-statement strings.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		doc_code TEXT,
		raw_text TEXT NOT NULL,
		total_blocks INTEGER NOT NULL DEFAULT 0,
		error_blocks INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		ordinal INTEGER NOT NULL,
		number INTEGER NOT NULL,
		sheet_label TEXT,
		sheet_name TEXT,
		PRIMARY KEY(document_id, ordinal)
	)`,
	`CREATE TABLE IF NOT EXISTS blocks (
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		uid TEXT NOT NULL,
		page_ordinal INTEGER NOT NULL,
		ordinal INTEGER NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		has_table INTEGER NOT NULL DEFAULT 0,
		has_error INTEGER NOT NULL DEFAULT 0,
		error_text TEXT,
		section_title TEXT,
		PRIMARY KEY(document_id, uid)
	)`,
	`CREATE TABLE IF NOT EXISTS material_facts (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		block_uid TEXT NOT NULL,
		source TEXT NOT NULL,
		raw_name TEXT NOT NULL,
		canonical_name TEXT,
		canonical_key TEXT,
		quantity DOUBLE PRECISION,
		unit TEXT,
		mark TEXT,
		gost TEXT,
		description TEXT,
		note TEXT,
		source_snippet TEXT,
		confidence REAL NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_material_facts_doc_key
		ON material_facts(document_id, canonical_key)`,
	`CREATE TABLE IF NOT EXISTS extraction_runs (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		status TEXT NOT NULL,
		rule_facts INTEGER NOT NULL DEFAULT 0,
		llm_facts INTEGER NOT NULL DEFAULT 0,
		blocks_total INTEGER NOT NULL DEFAULT 0,
		blocks_to_llm INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
