package llm

import (
	"fmt"
	"strings"
)

// BuildSystemPrompt composes the fixed extraction instruction: grounded
// extraction only, Russian numeric conventions, a small OCR correction list,
// and the items-array output contract.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a construction bill-of-materials extractor for Russian engineering documents.",
		"Return ONLY JSON that matches the provided JSON Schema: an object with a top-level 'items' array.",
		"Extract ONLY materials and elements explicitly present in the block text. Never invent, infer or hallucinate items.",
		"Every item MUST carry 'source_snippet': a short verbatim quote from the block proving the item is present. Items without it are discarded.",
		"Numbers use the Russian convention: comma is the decimal separator, spaces group thousands ('1 692,9' means 1692.9). Output 'quantity' as a plain JSON number.",
		"Empty cells and '-' mean the value is absent; omit the field.",
		"Normalize common OCR typos before output: 'Kиpпич'→'Кирпич' (Latin/Cyrillic letter confusion), 'м2'/'м²'→'м2', 'м.п'/'мп'→'м.п.', 'шт.'→'шт', 'O'→'0' inside numbers.",
		"Keep 'raw_name' as written in the document (after OCR correction); put a cleaned display form in 'canonical_name' when it differs.",
		"Include 'gost' when the text references a standard (ГОСТ/GOST number).",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages one block: page number, block identifier, optional
// section context, and the full block content.
func BuildUserPrompt(req BlockExtractRequest) string {
	var b strings.Builder
	if req.DocumentTitle != "" {
		fmt.Fprintf(&b, "Document: %s\n", req.DocumentTitle)
	}
	fmt.Fprintf(&b, "Page: %d\n", req.PageNumber)
	fmt.Fprintf(&b, "Block: %s\n", req.BlockUID)
	if req.Section != nil && *req.Section != "" {
		fmt.Fprintf(&b, "Section: %s\n", *req.Section)
	}
	b.WriteString("\nBlock content:\n")
	b.WriteString(req.Content)
	return b.String()
}
