// Package extract is the deterministic half of fact extraction: it maps
// classified table columns straight into material facts, leaving everything
// that needs contextual judgement to the LLM gateway.
package extract

import (
	"log/slog"
	"regexp"
	"unicode/utf8"

	"github.com/stroydoc/bom-tracker/constants"
	"github.com/stroydoc/bom-tracker/internal/canonical"
	"github.com/stroydoc/bom-tracker/internal/classify"
	"github.com/stroydoc/bom-tracker/internal/entity"
)

var (
	reGOST = regexp.MustCompile(`(?i)(ГОСТ|GOST)\s*(Р\s*)?[0-9.\-]+(\s*[-–]\s*[0-9]+)?`)
	// bare section labels like "K6" or "К6.1" that show up as rows
	reSectionLabel = regexp.MustCompile(`^[A-Za-zА-Яа-я0-9.]+$`)
)

const (
	confidenceMaterialQty float32 = 0.95
	confidencePieceCount  float32 = 0.9
	pieceUnit                     = "шт"
)

type Extractor struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{log: log}
}

// ExtractBlock returns the rule-based facts for one TEXT block. Only
// material_qty, element_spec and spec_elements tables are handled here; the
// other extractable categories route to the LLM instead.
func (e *Extractor) ExtractBlock(block entity.ParsedBlock) []entity.MaterialFact {
	if block.Kind != entity.BlockText {
		return nil
	}
	var facts []entity.MaterialFact
	for _, table := range block.Tables {
		cat := classify.Classify(table.Headers)
		if !cat.RuleExtractable() {
			continue
		}
		got := e.extractTable(table, cat)
		e.log.Debug("extract.table.done",
			"block_uid", block.UID,
			"category", string(cat),
			"rows", len(table.Rows),
			"facts", len(got),
		)
		facts = append(facts, got...)
	}
	return facts
}

func (e *Extractor) extractTable(t entity.ParsedTable, cat constants.TableCategory) []entity.MaterialFact {
	cols := discoverColumns(t.Headers, cat)
	if cols.name < 0 {
		// no anchor column, nothing trustworthy to extract
		return nil
	}
	var facts []entity.MaterialFact
	for _, row := range t.Rows {
		if f, ok := e.extractRow(row, cols, cat); ok {
			facts = append(facts, f)
		}
	}
	return facts
}

func (e *Extractor) extractRow(row []string, cols columns, cat constants.TableCategory) (entity.MaterialFact, bool) {
	name := cell(row, cols.name)
	if utf8.RuneCountInString(name) < 3 {
		// OCR noise
		return entity.MaterialFact{}, false
	}

	qty := ParseQuantity(cell(row, cols.qty))

	unit := ""
	if cat == constants.CategoryMaterialQty {
		unit = cell(row, cols.unit)
		// rows like "K6" / "K6.1" are section labels, not line items
		if qty == nil && unit == "" &&
			utf8.RuneCountInString(name) < 10 && reSectionLabel.MatchString(name) {
			return entity.MaterialFact{}, false
		}
	} else {
		// element and positional specs are always piece-counted
		unit = pieceUnit
	}

	designation := cell(row, cols.designation)
	note := cell(row, cols.note)

	f := entity.MaterialFact{RawName: name}

	canonName := name // no LLM-side normalization at this stage
	f.CanonicalName = &canonName
	key := canonical.Key(name)
	f.CanonicalKey = &key

	f.Quantity = qty
	if unit != "" {
		u := unit
		f.Unit = &u
	}
	if mark := cell(row, cols.mark); mark != "" {
		m := mark
		f.Mark = &m
	}
	if designation != "" {
		d := designation
		f.Description = &d
	}
	if note != "" {
		n := note
		f.Note = &n
	}
	if gost := findGOST(name, designation, note); gost != "" {
		g := gost
		f.GOST = &g
	}

	if cat == constants.CategoryMaterialQty {
		f.Confidence = confidenceMaterialQty
	} else {
		f.Confidence = confidencePieceCount
	}

	snippet := buildSnippet(name, qty, unit)
	f.SourceSnippet = &snippet
	return f, true
}

// findGOST scans the name plus designation/note text for a standard reference,
// first match wins.
func findGOST(parts ...string) string {
	for _, p := range parts {
		if m := reGOST.FindString(p); m != "" {
			return m
		}
	}
	return ""
}

// buildSnippet synthesizes the deterministic audit string
// "<name> | <qty> <unit>", omitting the qty/unit segment when both are
// absent. It is an audit trail, not a verbatim document quote.
func buildSnippet(name string, qty *float64, unit string) string {
	seg := ""
	if qty != nil {
		seg = FormatQuantity(*qty)
	}
	if unit != "" {
		if seg != "" {
			seg += " "
		}
		seg += unit
	}
	if seg == "" {
		return name
	}
	return name + " | " + seg
}
