package extract

import (
	"strings"

	"github.com/stroydoc/bom-tracker/constants"
)

// columns holds the discovered header index per expected field, -1 when the
// table has no matching header. The name column is the anchor: without it the
// table yields nothing.
type columns struct {
	name        int
	qty         int
	unit        int
	mark        int
	designation int
	note        int
}

// Keyword variants per category, ordered: the first header containing any
// variant wins. Kept as data tables so shapes can be tested and extended
// without touching the row loop.
var columnKeywords = map[constants.TableCategory]struct {
	name, qty, unit, mark, designation, note []string
}{
	constants.CategoryMaterialQty: {
		name: []string{"наименование"},
		qty:  []string{"кол-во", "количество", "кол"},
		unit: []string{"ед", "изм"},
		mark: []string{"марка", "поз"},
		note: []string{"примеч"},
	},
	constants.CategoryElementSpec: {
		name:        []string{"наименование", "обозначение"},
		qty:         []string{"кол", "шт"},
		mark:        []string{"марка"},
		designation: []string{"обозначение"},
		note:        []string{"примеч"},
	},
	constants.CategorySpecElements: {
		name:        []string{"наименование"},
		qty:         []string{"кол"},
		mark:        []string{"поз"},
		designation: []string{"обозначение"},
		note:        []string{"примеч"},
	},
}

func discoverColumns(headers []string, cat constants.TableCategory) columns {
	kw := columnKeywords[cat]
	return columns{
		name:        findColumn(headers, kw.name),
		qty:         findColumn(headers, kw.qty),
		unit:        findColumn(headers, kw.unit),
		mark:        findColumn(headers, kw.mark),
		designation: findColumn(headers, kw.designation),
		note:        findColumn(headers, kw.note),
	}
}

// findColumn returns the index of the first header containing any of the
// variants, case-insensitively.
func findColumn(headers []string, variants []string) int {
	for i, h := range headers {
		low := strings.ToLower(h)
		for _, v := range variants {
			if strings.Contains(low, v) {
				return i
			}
		}
	}
	return -1
}

// cell safely fetches a trimmed cell; rows shorter than the header row are
// common in scanned tables.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
