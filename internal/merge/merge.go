// Package merge reconciles the rule-based and LLM fact sets for one block
// into a deduplicated ordered union and decides which LLM facts are novel.
package merge

import (
	"strings"

	"github.com/stroydoc/bom-tracker/internal/entity"
	"github.com/stroydoc/bom-tracker/internal/extract"
)

// Key builds the equality dedup key `name|qty|unit`: lower-cased trimmed raw
// name, the quantity in its shortest numeric string form (empty when absent),
// and the lower-cased trimmed unit. Facts differing only in canonical_name or
// name casing collide; facts differing in raw spelling or quantity do not.
func Key(f entity.MaterialFact) string {
	name := strings.ToLower(strings.TrimSpace(f.RawName))
	qty := ""
	if f.Quantity != nil {
		qty = extract.FormatQuantity(*f.Quantity)
	}
	unit := ""
	if f.Unit != nil {
		unit = strings.ToLower(strings.TrimSpace(*f.Unit))
	}
	return name + "|" + qty + "|" + unit
}

// Merge returns the deduplicated union for one block. Rule-based facts take
// precedence: they are listed first, and any LLM fact whose key duplicates an
// earlier fact is dropped. Equality only, no fuzzy matching. Absence of
// inputs yields an empty result; Merge never fails.
func Merge(rule, llm []entity.MaterialFact) []entity.MaterialFact {
	seen := make(map[string]struct{}, len(rule)+len(llm))
	out := appendUnseen(make([]entity.MaterialFact, 0, len(rule)+len(llm)), rule, seen)
	return appendUnseen(out, llm, seen)
}

// Novel returns only the LLM facts that survive the merge: those duplicating
// neither a rule-based fact nor an earlier LLM fact.
func Novel(rule, llm []entity.MaterialFact) []entity.MaterialFact {
	seen := make(map[string]struct{}, len(rule)+len(llm))
	appendUnseen(nil, rule, seen)
	return appendUnseen(make([]entity.MaterialFact, 0, len(llm)), llm, seen)
}

func appendUnseen(out, facts []entity.MaterialFact, seen map[string]struct{}) []entity.MaterialFact {
	for _, f := range facts {
		k := Key(f)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, f)
	}
	return out
}
