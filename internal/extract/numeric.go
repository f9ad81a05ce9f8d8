package extract

import (
	"strconv"
	"strings"
)

// ParseQuantity parses a Russian-formatted quantity cell: whitespace groups
// thousands, the comma is the decimal separator. Empty cells and the "-"
// placeholder mean "no value", as does any non-numeric remainder.
//
//	"1 692,9" -> 1692.9
//	"202,6"   -> 202.6
//	"", "-"   -> nil
func ParseQuantity(s string) *float64 {
	t := strings.TrimSpace(s)
	if t == "" || t == "-" {
		return nil
	}
	// strip every internal whitespace run, NBSP included
	t = strings.Join(strings.Fields(t), "")
	t = strings.ReplaceAll(t, ",", ".")
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return nil
	}
	return &f
}

// FormatQuantity renders a quantity the way dedup keys and audit snippets
// expect: shortest exact decimal form.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
