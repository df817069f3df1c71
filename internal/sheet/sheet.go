// Package sheet accumulates recognized rows into one styled xlsx workbook.
package sheet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/width"

	"github.com/jackzampolin/tabscan/internal/table"
)

const (
	DefaultSheetName    = "Data"
	DefaultSourceColumn = "Source Image"

	minColWidth  = 10.0
	maxCellWidth = 50.0
	maxColWidth  = 60.0
)

// Options configures a Writer.
type Options struct {
	SheetName    string
	SourceColumn string
}

// Writer appends rows to a single worksheet. A trailing column records the
// image each row came from. Writer is not safe for concurrent use; batches
// append sequentially.
type Writer struct {
	file    *excelize.File
	sheet   string
	headers []string // including the source column
	next    int      // next row number, 1-based
	widths  []float64

	headerStyle int
	cellStyle   int
}

// NewWriter creates a workbook whose header row is headers plus the source column.
func NewWriter(headers []string, opts Options) (*Writer, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("sheet requires at least one header")
	}
	if opts.SheetName == "" {
		opts.SheetName = DefaultSheetName
	}
	if opts.SourceColumn == "" {
		opts.SourceColumn = DefaultSourceColumn
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), opts.SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	w := &Writer{
		file:    f,
		sheet:   opts.SheetName,
		headers: append(append([]string(nil), headers...), opts.SourceColumn),
		next:    1,
	}
	w.widths = make([]float64, len(w.headers))

	if err := w.createStyles(); err != nil {
		f.Close()
		return nil, err
	}
	if err := w.writeRow(w.headers, w.headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) createStyles() error {
	border := []excelize.Border{
		{Type: "left", Color: "CCCCCC", Style: 1},
		{Type: "right", Color: "CCCCCC", Style: 1},
		{Type: "top", Color: "CCCCCC", Style: 1},
		{Type: "bottom", Color: "CCCCCC", Style: 1},
	}

	var err error
	w.headerStyle, err = w.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	w.cellStyle, err = w.file.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return fmt.Errorf("failed to create cell style: %w", err)
	}
	return nil
}

// Headers returns the header row including the source column.
func (w *Writer) Headers() []string {
	return append([]string(nil), w.headers...)
}

// DataRows returns the number of data rows written.
func (w *Writer) DataRows() int {
	return w.next - 2
}

// Append writes rows, each followed by source. Every row must have exactly
// one cell per header.
func (w *Writer) Append(rows []table.Row, source string) error {
	want := len(w.headers) - 1
	for i, row := range rows {
		if len(row) != want {
			return fmt.Errorf("row %d from %s has %d cells, sheet has %d columns", i+1, source, len(row), want)
		}
	}
	for _, row := range rows {
		cells := append(append([]string(nil), row...), source)
		if err := w.writeRow(cells, w.cellStyle); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeRow(cells []string, style int) error {
	start, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(cells), w.next)
	if err != nil {
		return err
	}

	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
		if cw := cellWidth(c); cw > w.widths[i] {
			w.widths[i] = cw
		}
	}
	if err := w.file.SetSheetRow(w.sheet, start, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.next, err)
	}
	if err := w.file.SetCellStyle(w.sheet, start, end, style); err != nil {
		return fmt.Errorf("failed to style row %d: %w", w.next, err)
	}
	w.next++
	return nil
}

// Save applies column widths and the frozen header, then writes path.
func (w *Writer) Save(path string) error {
	for i, cw := range w.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.file.SetColWidth(w.sheet, col, col, columnWidth(cw)); err != nil {
			return fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}

	if err := w.file.SetPanes(w.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Close releases the workbook.
func (w *Writer) Close() error {
	return w.file.Close()
}

// cellWidth estimates the display width of s in character units. East Asian
// wide and fullwidth runes count double.
func cellWidth(s string) float64 {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	w := float64(n) * 1.2
	if w > maxCellWidth {
		return maxCellWidth
	}
	return w
}

func columnWidth(content float64) float64 {
	w := content + 2
	if w < minColWidth {
		w = minColWidth
	}
	if w > maxColWidth {
		w = maxColWidth
	}
	return w
}
