// Package classify tags parsed tables with the engineering-schedule category
// their headers suggest.
//
// The rules are an ordered, first-match-wins precedence list. Several table
// shapes are ambiguous between categories (a positional spec matches both the
// narrow and the broad spec_elements rule), so the order below is part of the
// contract: reordering silently reclassifies real documents.
package classify

import (
	"strings"

	"github.com/stroydoc/bom-tracker/constants"
)

// rule is one precedence row: matched against lower-cased header cells in
// order, first hit wins.
type rule struct {
	category constants.TableCategory
	match    func(h headers) bool
}

var rules = []rule{
	// 1. change log: revision column next to signature/date columns
	{constants.CategoryChangeLog, func(h headers) bool {
		return h.any("изм") && h.any("подпись", "дата")
	}},
	// 2. room schedule: room number + area
	{constants.CategoryRoomSchedule, func(h headers) bool {
		return h.any("помещени") && h.any("площадь")
	}},
	// 3. material schedule with explicit unit column
	{constants.CategoryMaterialQty, func(h headers) bool {
		return h.any("наименование") && h.any("количество", "кол-во", "кол") && h.any("ед", "изм")
	}},
	// 4. material schedule without a unit column
	{constants.CategoryMaterialQty, func(h headers) bool {
		return h.any("наименование") && h.any("количество")
	}},
	// 5. positional specification
	{constants.CategorySpecElements, func(h headers) bool {
		return h.any("поз") && (h.any("обозначение") || h.any("наименование")) && h.any("кол")
	}},
	// 6. element specification, always piece-counted
	{constants.CategoryElementSpec, func(h headers) bool {
		return h.any("марка") && h.any("кол", "шт")
	}},
	// 7. floor type schedule
	{constants.CategoryFloorSpec, func(h headers) bool {
		return strings.Contains(h.joined, "тип пола") || (h.any("пол") && h.any("данные элементов"))
	}},
	// 8. roof covering schedule
	{constants.CategoryRoofSpec, func(h headers) bool {
		return strings.Contains(h.joined, "тип покрытия") || (h.any("покрыт") && h.any("данные элементов"))
	}},
	// 9. broader positional fallback, must stay after rule 5
	{constants.CategorySpecElements, func(h headers) bool {
		return h.any("поз") && (h.any("наименование") || h.any("назначение"))
	}},
}

// Classify derives the category from the header cells alone. It is a pure
// function; the result is recomputed per call and never stored on the table.
func Classify(headerCells []string) constants.TableCategory {
	h := newHeaders(headerCells)
	for _, r := range rules {
		if r.match(h) {
			return r.category
		}
	}
	return constants.CategoryUnknown
}

type headers struct {
	cells  []string
	joined string
}

func newHeaders(cells []string) headers {
	low := make([]string, 0, len(cells))
	for _, c := range cells {
		low = append(low, strings.ToLower(strings.TrimSpace(c)))
	}
	return headers{cells: low, joined: strings.Join(low, " ")}
}

// any reports whether any header cell contains any of the given substrings.
func (h headers) any(subs ...string) bool {
	for _, cell := range h.cells {
		for _, sub := range subs {
			if strings.Contains(cell, sub) {
				return true
			}
		}
	}
	return false
}
