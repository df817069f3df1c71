// Package table turns model replies into validated fixed-width row sets.
//
// The model is asked for plain CSV but often wraps it in a markdown fence,
// quotes multi-line cells, or drifts in width between rows. StripFencing and
// Parse normalize the text; Validate enforces that header width, declared
// column count and every row width agree.
package table

// Row is one data row. Its width must equal the owning table's column count.
type Row []string

// Data is the result of one accepted recognition for one image.
type Data struct {
	// Source identifies the originating image (usually its file name).
	Source string `json:"source" yaml:"source"`

	Headers     []string `json:"headers" yaml:"headers"`
	Rows        []Row    `json:"rows" yaml:"rows"`
	ColumnCount int      `json:"column_count" yaml:"column_count"`

	// Raw is the cleaned CSV text the rows were parsed from.
	Raw string `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// RowCount returns the number of data rows.
func (d *Data) RowCount() int {
	return len(d.Rows)
}
