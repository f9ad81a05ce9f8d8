package entity

// BlockKind distinguishes the two block variants the markdown convention
// declares in its `### BLOCK [KIND]: UID` markers.
type BlockKind string

const (
	BlockText  BlockKind = "TEXT"
	BlockImage BlockKind = "IMAGE"
)

// ParsedDocument is the immutable result of one parse call: document-level
// metadata plus the ordered pages found in the source text.
type ParsedDocument struct {
	Title       string       `json:"title"`
	GeneratedAt *string      `json:"generated_at,omitempty"`
	Stamp       *string      `json:"stamp,omitempty"`
	DocCode     *string      `json:"doc_code,omitempty"`
	Pages       []ParsedPage `json:"pages"`
	TotalBlocks int          `json:"total_blocks"`
	ErrorBlocks int          `json:"error_blocks"`
}

// ParsedPage is one `## СТРАНИЦА N` section. A page may carry only sheet
// metadata and no blocks.
type ParsedPage struct {
	Number     int           `json:"number"`
	SheetLabel *string       `json:"sheet_label,omitempty"`
	SheetName  *string       `json:"sheet_name,omitempty"`
	Blocks     []ParsedBlock `json:"blocks"`
}

// ParsedBlock is a uniquely identified unit of page content between block
// markers.
//
// HasTable is true iff Tables is non-empty or a raw pipe-row pattern was seen
// in Content; HasError implies Content contains a bracketed error marker.
type ParsedBlock struct {
	UID          string        `json:"uid"`
	Kind         BlockKind     `json:"kind"`
	Content      string        `json:"content"`
	HasTable     bool          `json:"has_table"`
	HasError     bool          `json:"has_error"`
	ErrorText    *string       `json:"error_text,omitempty"`
	SectionTitle *string       `json:"section_title,omitempty"`
	Tables       []ParsedTable `json:"tables,omitempty"`
}

// ParsedTable is one pipe table lifted out of a block. Row cell counts are
// expected to match the header count but are not enforced.
type ParsedTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	// Section is the nearest heading seen above the table inside its block,
	// snapshotted at discovery time.
	Section *string `json:"section,omitempty"`
}
