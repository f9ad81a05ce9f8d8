package parser

import (
	"regexp"
	"strings"

	"github.com/stroydoc/bom-tracker/internal/entity"
)

// A separator row has cells made only of dashes, colons and spaces,
// e.g. `|---|:---:|`.
var reSeparatorCell = regexp.MustCompile(`^[-: ]+$`)

// extractTables lifts every contiguous run of pipe rows out of a block's
// lines. Headings seen along the way become the running section context, so a
// heading between two tables re-labels the second one. A run of a single pipe
// row is noise, not a table.
func extractTables(lines []string) []entity.ParsedTable {
	var (
		tables  []entity.ParsedTable
		section string
		run     []string
	)

	flush := func() {
		if len(run) >= 2 {
			tables = append(tables, buildTable(run, section))
		}
		run = nil
	}

	for _, line := range lines {
		if m := reHeading.FindStringSubmatch(line); m != nil {
			flush()
			if title := strings.TrimSpace(m[2]); title != "" {
				section = title
			}
			continue
		}
		if reTableRow.MatchString(line) {
			run = append(run, line)
			continue
		}
		flush()
	}
	flush()
	return tables
}

func buildTable(run []string, section string) entity.ParsedTable {
	t := entity.ParsedTable{Headers: splitRow(run[0])}
	if section != "" {
		s := section // snapshot at discovery time
		t.Section = &s
	}
	data := run[1:]
	if len(data) > 0 && isSeparatorRow(data[0]) {
		data = data[1:]
	}
	t.Rows = make([][]string, 0, len(data))
	for _, row := range data {
		t.Rows = append(t.Rows, splitRow(row))
	}
	return t
}

// splitRow strips one leading and one trailing pipe, then splits on the
// remaining pipes and trims each cell.
func splitRow(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	cells := strings.Split(s, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func isSeparatorRow(line string) bool {
	cells := splitRow(line)
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !reSeparatorCell.MatchString(c) {
			return false
		}
	}
	return true
}
