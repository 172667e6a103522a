package layout

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// rowOfHeight builds a single-column row whose estimated height equals
// lines*lineHeight for widths{100} and lineHeight 10.
func rowOfHeight(lines int) Row {
	return Row{Cell(strings.Repeat("x", lines*10))}
}

var (
	testWidths     = ColumnWidths{100}
	testLineHeight = 10.0
	testHeader     = Row{"Metric"}
)

func TestEstimateCellHeight(t *testing.T) {
	tests := []struct {
		name       string
		cell       Cell
		width      float64
		lineHeight float64
		want       float64
	}{
		{name: "empty_cell", cell: "", width: 100, lineHeight: 10, want: 0},
		{name: "one_line", cell: Cell(strings.Repeat("x", 10)), width: 100, lineHeight: 10, want: 10},
		{name: "partial_line_rounds_up", cell: Cell(strings.Repeat("x", 11)), width: 100, lineHeight: 10, want: 20},
		{name: "three_lines", cell: Cell(strings.Repeat("x", 30)), width: 100, lineHeight: 10, want: 30},
		{name: "narrow_column", cell: Cell(strings.Repeat("x", 10)), width: 25, lineHeight: 10, want: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateCellHeight(tt.cell, tt.width, tt.lineHeight)
			if got != tt.want {
				t.Errorf("EstimateCellHeight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEstimateRowHeight_MaxOverCells(t *testing.T) {
	widths := ColumnWidths{100, 100, 100}
	row := Row{
		Cell(strings.Repeat("a", 10)), // 1 line
		Cell(strings.Repeat("b", 35)), // 4 lines
		Cell(strings.Repeat("c", 20)), // 2 lines
	}

	got := EstimateRowHeight(row, widths, 10)
	if got != 40 {
		t.Errorf("EstimateRowHeight() = %v, want 40", got)
	}
}

func TestPaginate_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		rows    []Row
		widths  ColumnWidths
		wantErr error
	}{
		{
			name:    "empty_rows",
			rows:    nil,
			widths:  testWidths,
			wantErr: ErrNoRows,
		},
		{
			name:    "column_mismatch",
			rows:    []Row{{"a", "b"}},
			widths:  testWidths,
			wantErr: ErrColumnMismatch,
		},
		{
			name:    "zero_width",
			rows:    []Row{{"a"}},
			widths:  ColumnWidths{0},
			wantErr: ErrBadDimensions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := Paginate(testHeader, tt.rows, tt.widths, testLineHeight, 100)
			if pages != nil {
				t.Error("Expected no partial output on invalid input")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Paginate() error = %v, want %v", err, tt.wantErr)
			}

			var invalid *InvalidInputError
			if !errors.As(err, &invalid) {
				t.Errorf("Expected *InvalidInputError, got %T", err)
			}
		})
	}
}

func TestPaginate_SinglePage(t *testing.T) {
	rows := []Row{rowOfHeight(3), rowOfHeight(3), rowOfHeight(3)}

	pages, err := Paginate(testHeader, rows, testWidths, testLineHeight, 100)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}

	if len(pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(pages))
	}
	if len(pages[0].Rows) != 3 {
		t.Errorf("Expected 3 rows on page, got %d", len(pages[0].Rows))
	}
	if !reflect.DeepEqual(pages[0].Header, testHeader) {
		t.Errorf("Page header = %v, want %v", pages[0].Header, testHeader)
	}
}

// Five rows where rows 1-3 fit cumulatively but row 4 pushes the total over
// the maximum: expect [Page(rows 1-3), Page(rows 4-5)].
func TestPaginate_SplitOnOverflow(t *testing.T) {
	rows := []Row{
		rowOfHeight(3), // 30
		rowOfHeight(3), // 60
		rowOfHeight(3), // 90
		rowOfHeight(3), // 120 > 100 -> new page
		rowOfHeight(3),
	}

	pages, err := Paginate(testHeader, rows, testWidths, testLineHeight, 100)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if len(pages[0].Rows) != 3 {
		t.Errorf("Page 1 rows = %d, want 3", len(pages[0].Rows))
	}
	if len(pages[1].Rows) != 2 {
		t.Errorf("Page 2 rows = %d, want 2", len(pages[1].Rows))
	}
	if !reflect.DeepEqual(pages[1].Rows[0], rows[3]) {
		t.Error("Row 4 should start page 2")
	}
}

// A single row taller than the page maximum yields a one-page, one-row
// output: no infinite loop, no split, no drop.
func TestPaginate_OversizedRow(t *testing.T) {
	rows := []Row{rowOfHeight(20)} // 200 > 100

	pages, err := Paginate(testHeader, rows, testWidths, testLineHeight, 100)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}

	if len(pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(pages))
	}
	if len(pages[0].Rows) != 1 {
		t.Errorf("Expected 1 row, got %d", len(pages[0].Rows))
	}
}

func TestPaginate_OversizedRowMidStream(t *testing.T) {
	rows := []Row{
		rowOfHeight(3),  // page 1
		rowOfHeight(20), // overflows alone -> page 2, kept whole
		rowOfHeight(3),  // page 3
	}

	pages, err := Paginate(testHeader, rows, testWidths, testLineHeight, 100)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}

	if len(pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(pages))
	}
	if len(pages[1].Rows) != 1 || !reflect.DeepEqual(pages[1].Rows[0], rows[1]) {
		t.Error("Oversized row should occupy its own page")
	}
}

// Concatenated page rows must equal the input rows in order, with no
// duplicates or omissions, for any input.
func TestPaginate_NoLossNoReorder(t *testing.T) {
	rows := make([]Row, 0, 20)
	for i := 0; i < 20; i++ {
		rows = append(rows, rowOfHeight(i%5+1))
	}

	pages, err := Paginate(testHeader, rows, testWidths, testLineHeight, 70)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}

	var got []Row
	for _, page := range pages {
		got = append(got, page.Rows...)
	}

	if !reflect.DeepEqual(got, rows) {
		t.Error("Concatenated page rows differ from input rows")
	}
}

// Every page except a degenerate single-oversized-row page keeps its
// estimated height within the maximum.
func TestPaginate_HeightBound(t *testing.T) {
	rows := make([]Row, 0, 30)
	for i := 0; i < 30; i++ {
		rows = append(rows, rowOfHeight(i%7+1))
	}
	maxHeight := 90.0

	pages, err := Paginate(testHeader, rows, testWidths, testLineHeight, maxHeight)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}

	for i, page := range pages {
		var total float64
		for _, row := range page.Rows {
			total += EstimateRowHeight(row, testWidths, testLineHeight)
		}
		if total > maxHeight && len(page.Rows) > 1 {
			t.Errorf("Page %d height %v exceeds max %v with %d rows", i, total, maxHeight, len(page.Rows))
		}
	}
}

func TestPaginate_Idempotent(t *testing.T) {
	rows := []Row{rowOfHeight(2), rowOfHeight(5), rowOfHeight(1), rowOfHeight(9)}

	first, err := Paginate(testHeader, rows, testWidths, testLineHeight, 60)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	second, err := Paginate(testHeader, rows, testWidths, testLineHeight, 60)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Identical inputs should yield identical output")
	}
}

func TestPage_Table(t *testing.T) {
	page := Page{Header: testHeader, Rows: []Row{{"a"}, {"b"}}}

	table := page.Table()
	if len(table) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(table))
	}
	if !reflect.DeepEqual(table[0], testHeader) {
		t.Error("Header should be the first table row")
	}
}

func TestNumberCell(t *testing.T) {
	tests := []struct {
		in   float64
		want Cell
	}{
		{42, "42"},
		{3.5, "3.5"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := NumberCell(tt.in); got != tt.want {
			t.Errorf("NumberCell(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
