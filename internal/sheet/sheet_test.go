package sheet

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/tabscan/internal/table"
)

func TestWriterSave(t *testing.T) {
	w, err := NewWriter([]string{"Name", "Qty"}, Options{})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	defer w.Close()

	if err := w.Append([]table.Row{{"bolt", "4"}, {"螺丝钉规格说明", "12"}}, "page-01.jpg"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := w.Append([]table.Row{{"nut", "7"}}, "page-02.jpg"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if w.DataRows() != 3 {
		t.Errorf("DataRows() = %d", w.DataRows())
	}

	path := filepath.Join(t.TempDir(), "out", "result.xlsx")
	if err := w.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	if name := f.GetSheetName(0); name != DefaultSheetName {
		t.Errorf("sheet name = %q", name)
	}
	rows, err := f.GetRows(DefaultSheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	want := [][]string{
		{"Name", "Qty", "Source Image"},
		{"bolt", "4", "page-01.jpg"},
		{"螺丝钉规格说明", "12", "page-01.jpg"},
		{"nut", "7", "page-02.jpg"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}

	panes, err := f.GetPanes(DefaultSheetName)
	if err != nil {
		t.Fatalf("GetPanes() error = %v", err)
	}
	if !panes.Freeze || panes.YSplit != 1 {
		t.Errorf("panes = %+v", panes)
	}

	// Seven wide runes count as 14 units: 14*1.2+2.
	wide, err := f.GetColWidth(DefaultSheetName, "A")
	if err != nil {
		t.Fatalf("GetColWidth() error = %v", err)
	}
	if wide < 18.7 || wide > 18.9 {
		t.Errorf("column A width = %v, want ~18.8", wide)
	}
	narrow, _ := f.GetColWidth(DefaultSheetName, "B")
	if narrow != minColWidth {
		t.Errorf("column B width = %v, want %v", narrow, minColWidth)
	}
}

func TestWriterOptions(t *testing.T) {
	w, err := NewWriter([]string{"A"}, Options{SheetName: "Ledger", SourceColumn: "File"})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	defer w.Close()

	if got := w.Headers(); !reflect.DeepEqual(got, []string{"A", "File"}) {
		t.Errorf("Headers() = %v", got)
	}
	if err := w.Append([]table.Row{{"1", "2"}}, "x.png"); err == nil {
		t.Error("row wider than sheet should fail")
	}
	if w.DataRows() != 0 {
		t.Error("rejected rows should not be written")
	}

	if _, err := NewWriter(nil, Options{}); err == nil {
		t.Error("no headers should fail")
	}
}

func TestCellWidth(t *testing.T) {
	tests := map[string]float64{
		"":    0,
		"abc": 3.6,
		"表格":  4.8,
		"ＡＢ":  4.8,
		"a表":  3.6,
	}
	for s, want := range tests {
		got := cellWidth(s)
		if got < want-0.001 || got > want+0.001 {
			t.Errorf("cellWidth(%q) = %v, want %v", s, got, want)
		}
	}
	if got := cellWidth(string(make([]rune, 100))); got != maxCellWidth {
		t.Errorf("long cell width = %v, want cap %v", got, maxCellWidth)
	}
}
