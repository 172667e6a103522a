package layout

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Common errors returned by Paginate.
var (
	// ErrNoRows indicates an empty data row set.
	ErrNoRows = errors.New("no data rows")

	// ErrColumnMismatch indicates a row whose column count differs from the widths.
	ErrColumnMismatch = errors.New("column count does not match column widths")

	// ErrBadDimensions indicates a non-positive width, line height or page height.
	ErrBadDimensions = errors.New("dimensions must be positive")
)

// InvalidInputError reports malformed pagination input. The caller must fix
// the input before retrying; Paginate produces no partial output on failure.
type InvalidInputError struct {
	// RowIndex is the offending data row, or -1 when the whole input is bad.
	RowIndex int
	Err      error
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	if e.RowIndex >= 0 {
		return fmt.Sprintf("invalid pagination input at row %d: %v", e.RowIndex, e.Err)
	}
	return fmt.Sprintf("invalid pagination input: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// Cell is a single table cell. Spreadsheet values arrive as strings or
// numbers; both are carried as their rendered text since only the text
// length matters for height estimation.
type Cell string

// NumberCell formats a numeric value as a cell.
func NumberCell(v float64) Cell {
	return Cell(strconv.FormatFloat(v, 'f', -1, 64))
}

// Row is an ordered sequence of cells, positionally indexed. Column meaning
// is determined by external configuration, not by the row itself.
type Row []Cell

// ColumnWidths holds one positive width per column, in points. Fixed for
// the lifetime of a pagination run.
type ColumnWidths []float64

// Page is one slide's worth of tabular content: the header row plus at
// least one data row.
type Page struct {
	Header Row
	Rows   []Row
}

// Table returns the page as a flat row sequence with the header prepended,
// the shape the slide renderer consumes.
func (p Page) Table() []Row {
	table := make([]Row, 0, len(p.Rows)+1)
	table = append(table, p.Header)
	return append(table, p.Rows...)
}

// EstimateCellHeight estimates the rendered height of a single wrapped cell.
// The formula reproduces the renderer's client-side approximation:
// ceil(textLen * lineHeight / columnWidth) * lineHeight.
func EstimateCellHeight(cell Cell, columnWidth, lineHeight float64) float64 {
	lines := math.Ceil(float64(len(cell)) * lineHeight / columnWidth)
	return lines * lineHeight
}

// EstimateRowHeight estimates a row's rendered height as the maximum of its
// cell heights. The row and widths must have the same column count.
func EstimateRowHeight(row Row, widths ColumnWidths, lineHeight float64) float64 {
	var max float64
	for col, cell := range row {
		if h := EstimateCellHeight(cell, widths[col], lineHeight); h > max {
			max = h
		}
	}
	return max
}

// Paginate partitions dataRows into pages whose estimated height does not
// exceed maxPageHeight, prepending header to every page.
//
// The scan is greedy: rows are packed onto the current page until the next
// row would push the estimated total over maxPageHeight, at which point the
// page is flushed and the row starts a new one. A row that alone exceeds
// maxPageHeight on a fresh page is kept as a one-row page (unavoidable
// overflow, never split, never dropped). The final page is flushed
// regardless of fill.
//
// lineHeight and maxPageHeight are in the same linear unit (points).
// Paginate is a pure function of its inputs.
func Paginate(header Row, dataRows []Row, widths ColumnWidths, lineHeight, maxPageHeight float64) ([]Page, error) {
	if len(dataRows) == 0 {
		return nil, &InvalidInputError{RowIndex: -1, Err: ErrNoRows}
	}
	if lineHeight <= 0 || maxPageHeight <= 0 {
		return nil, &InvalidInputError{RowIndex: -1, Err: ErrBadDimensions}
	}
	for _, w := range widths {
		if w <= 0 {
			return nil, &InvalidInputError{RowIndex: -1, Err: ErrBadDimensions}
		}
	}
	for i, row := range dataRows {
		if len(row) != len(widths) {
			return nil, &InvalidInputError{RowIndex: i, Err: ErrColumnMismatch}
		}
	}

	var pages []Page
	var current []Row
	var currentHeight float64

	for _, row := range dataRows {
		h := EstimateRowHeight(row, widths, lineHeight)

		if currentHeight+h > maxPageHeight && len(current) > 0 {
			pages = append(pages, Page{Header: header, Rows: current})
			current = []Row{row}
			currentHeight = h
			continue
		}

		// Either the row fits, or the page is empty and the row alone
		// overflows: keep it anyway so the scan always advances.
		current = append(current, row)
		currentHeight += h
	}

	pages = append(pages, Page{Header: header, Rows: current})
	return pages, nil
}
