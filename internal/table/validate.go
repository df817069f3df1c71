package table

// Validate checks that header width, declared column count and every row
// width agree. It reports the first violation only and has no side effects.
func Validate(d *Data) error {
	if len(d.Headers) == 0 {
		return ErrEmptyHeader
	}

	width := len(d.Headers)
	if d.ColumnCount != width {
		return &ColumnCountError{Headers: width, Declared: d.ColumnCount}
	}

	for i, row := range d.Rows {
		if len(row) != width {
			// Header is row 1, so the first data row is row 2.
			return &RowWidthError{Row: i + 2, Width: len(row), Want: width}
		}
	}
	return nil
}
