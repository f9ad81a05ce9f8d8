package constants

// TableCategory tags an extracted table with the engineering-schedule type it
// most likely represents. Categories are recomputed per classification call
// and never stored on the table itself.
type TableCategory string

const (
	CategoryMaterialQty  TableCategory = "material_qty"  // ведомость потребности в материалах
	CategorySpecElements TableCategory = "spec_elements" // спецификация (поз./обозначение/наименование)
	CategoryElementSpec  TableCategory = "element_spec"  // спецификация элементов (марка/кол-во)
	CategoryFloorSpec    TableCategory = "floor_spec"    // экспликация полов
	CategoryRoofSpec     TableCategory = "roof_spec"     // состав покрытия
	CategoryRoomSchedule TableCategory = "room_schedule" // экспликация помещений
	CategoryChangeLog    TableCategory = "change_log"    // таблица регистрации изменений
	CategoryUnknown      TableCategory = "unknown"
)

// IsExtractable reports whether tables of this category may yield material
// facts at all. Change logs and room schedules are sentinel categories that
// carry no bill-of-materials content.
func (c TableCategory) IsExtractable() bool {
	return c != CategoryChangeLog && c != CategoryRoomSchedule
}

// RuleExtractable reports whether the deterministic column extractor handles
// this category. The remaining extractable categories (floor/roof specs,
// unknown) need contextual judgement and are routed to the LLM instead.
func (c TableCategory) RuleExtractable() bool {
	switch c {
	case CategoryMaterialQty, CategoryElementSpec, CategorySpecElements:
		return true
	}
	return false
}
