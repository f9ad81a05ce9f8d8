// Package export renders the reconciled fact ledger and its BOM rollup as an
// XLSX workbook.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/stroydoc/bom-tracker/internal/entity"
	"github.com/stroydoc/bom-tracker/internal/repository"
)

// Service is a small façade over the repositories that produces XLSX bytes.
type Service struct {
	docs   repository.DocumentRepository
	facts  repository.FactRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, facts repository.FactRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, facts: facts, logger: logger}
}

// ExportBOMXLSX returns a workbook with a fact sheet and a rollup sheet for
// the document.
func (s *Service) ExportBOMXLSX(ctx context.Context, docID uuid.UUID) ([]byte, error) {
	start := time.Now()

	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	stored, err := s.facts.ListByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	rollup, err := s.facts.RollupByKey(ctx, docID)
	if err != nil {
		return nil, err
	}

	facts := make([]FactRow, 0, len(stored))
	for _, f := range stored {
		facts = append(facts, FactRow{Fact: f.MaterialFact, BlockUID: f.BlockUID, Source: f.Source})
	}
	out, err := WriteWorkbook(doc.Title, facts, rollup)
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.bom.ok",
		"document_id", docID,
		"facts", len(facts),
		"rollup_rows", len(rollup),
		"bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// FactRow pairs a fact with its provenance for the fact sheet.
type FactRow struct {
	Fact     entity.MaterialFact
	BlockUID string
	Source   string
}

const (
	sheetFacts  = "Facts"
	sheetRollup = "BOM"
)

// WriteWorkbook builds the workbook in memory. It is repository-free so the
// one-shot CLI can feed it pipeline output directly.
func WriteWorkbook(title string, facts []FactRow, rollup []repository.RollupRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	f.SetSheetName(f.GetSheetName(0), sheetFacts)
	factHeader := []any{"Block", "Source", "Raw name", "Canonical key", "Quantity", "Unit", "Mark", "GOST", "Note", "Snippet", "Confidence"}
	if err := f.SetSheetRow(sheetFacts, "A1", &factHeader); err != nil {
		return nil, fmt.Errorf("write fact header: %w", err)
	}
	for i, row := range facts {
		cells := []any{
			row.BlockUID,
			row.Source,
			row.Fact.RawName,
			strOrEmpty(row.Fact.CanonicalKey),
			qtyOrEmpty(row.Fact.Quantity),
			strOrEmpty(row.Fact.Unit),
			strOrEmpty(row.Fact.Mark),
			strOrEmpty(row.Fact.GOST),
			strOrEmpty(row.Fact.Note),
			strOrEmpty(row.Fact.SourceSnippet),
			row.Fact.Confidence,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetFacts, cell, &cells); err != nil {
			return nil, fmt.Errorf("write fact row: %w", err)
		}
	}

	if _, err := f.NewSheet(sheetRollup); err != nil {
		return nil, fmt.Errorf("create rollup sheet: %w", err)
	}
	rollupHeader := []any{"Canonical key", "Name", "Unit", "Total quantity", "Line items"}
	if err := f.SetSheetRow(sheetRollup, "A1", &rollupHeader); err != nil {
		return nil, fmt.Errorf("write rollup header: %w", err)
	}
	for i, row := range rollup {
		cells := []any{
			row.CanonicalKey,
			row.CanonicalName,
			strOrEmpty(row.Unit),
			qtyOrEmpty(row.TotalQuantity),
			row.Items,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetRollup, cell, &cells); err != nil {
			return nil, fmt.Errorf("write rollup row: %w", err)
		}
	}
	if title != "" {
		// workbook metadata only; sheets stay layout-stable
		_ = f.SetDocProps(&excelize.DocProperties{Title: title})
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func qtyOrEmpty(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}
