package pipeline

import (
	"regexp"

	"github.com/stroydoc/bom-tracker/internal/classify"
	"github.com/stroydoc/bom-tracker/internal/entity"
)

// A number (decimal comma or point allowed) followed by a known unit token.
// Longer tokens come first so alternation picks them over their prefixes.
var reQuantityUnit = regexp.MustCompile(`(?i)\d+(?:[.,]\d+)?\s*(компл|м\.п\.|м2|м3|шт|кг|т|л)`)

// NeedsLLM decides whether a TEXT block is additionally routed to the LLM
// gateway. Blocks with tables go when any table needs contextual judgement
// (extractable but not rule-extractable, unknown included) or when the rule
// extractor came up empty. Blocks without tables go only when their prose
// mentions a quantity-unit pair worth mining.
func NeedsLLM(block entity.ParsedBlock, ruleFactCount int) bool {
	if block.Kind != entity.BlockText {
		return false
	}
	if block.HasTable {
		for _, t := range block.Tables {
			cat := classify.Classify(t.Headers)
			if cat.IsExtractable() && !cat.RuleExtractable() {
				return true
			}
		}
		return ruleFactCount == 0
	}
	return reQuantityUnit.MatchString(block.Content)
}
