package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/deckgen/deckgen/pkg/layout"
	"github.com/deckgen/deckgen/pkg/psi"
)

// ErrNoResults indicates an empty measurement batch; decks always carry at
// least one table row.
var ErrNoResults = errors.New("no measurement rows")

// LayoutConfig holds the slide geometry builders paginate tables with. All
// values are in points.
type LayoutConfig struct {
	// LineHeight is the rendered height of one wrapped text line.
	LineHeight float64 `yaml:"line_height" json:"line_height"`

	// MaxPageHeight is the table height budget per slide.
	MaxPageHeight float64 `yaml:"max_page_height" json:"max_page_height"`

	// LabelWidth is the column width for page labels.
	LabelWidth float64 `yaml:"label_width" json:"label_width"`

	// ValueWidth is the column width for numeric value columns.
	ValueWidth float64 `yaml:"value_width" json:"value_width"`

	// WideWidth is the column width for long text columns such as the
	// failed-check list.
	WideWidth float64 `yaml:"wide_width" json:"wide_width"`
}

// DefaultLayoutConfig returns the stock slide geometry.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		LineHeight:    14,
		MaxPageHeight: 360,
		LabelWidth:    140,
		ValueWidth:    70,
		WideWidth:     320,
	}
}

// Validate checks the geometry.
func (c LayoutConfig) Validate() error {
	if c.LineHeight <= 0 || c.MaxPageHeight <= 0 ||
		c.LabelWidth <= 0 || c.ValueWidth <= 0 || c.WideWidth <= 0 {
		return fmt.Errorf("layout config: %w", layout.ErrBadDimensions)
	}
	return nil
}

// Deck is the data backing one generated report: a title, headline metrics
// and a set of paginated tables. The presentation renderer consumes this
// structure as-is.
type Deck struct {
	Title       string    `json:"title"`
	Variant     string    `json:"variant"`
	GeneratedAt time.Time `json:"generated_at"`
	Metrics     []Metric  `json:"metrics"`
	Tables      []Table   `json:"tables"`
}

// Metric is one headline key/value pair shown on the deck's summary slide.
type Metric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Table is one logical table split across slides. Each page is a flat row
// sequence with the header prepended.
type Table struct {
	Title string         `json:"title"`
	Pages [][]layout.Row `json:"pages"`
}

// paginateTable runs the layout engine and flattens every page into the
// renderer shape.
func paginateTable(title string, header layout.Row, rows []layout.Row, widths layout.ColumnWidths, cfg LayoutConfig) (Table, error) {
	pages, err := layout.Paginate(header, rows, widths, cfg.LineHeight, cfg.MaxPageHeight)
	if err != nil {
		return Table{}, fmt.Errorf("paginate %q: %w", title, err)
	}

	flat := make([][]layout.Row, 0, len(pages))
	for _, page := range pages {
		flat = append(flat, page.Table())
	}
	return Table{Title: title, Pages: flat}, nil
}

// columnWidths builds a widths slice with a label column followed by
// uniform value columns.
func columnWidths(cfg LayoutConfig, valueColumns int) layout.ColumnWidths {
	widths := make(layout.ColumnWidths, 0, valueColumns+1)
	widths = append(widths, cfg.LabelWidth)
	for i := 0; i < valueColumns; i++ {
		widths = append(widths, cfg.ValueWidth)
	}
	return widths
}

// padRow extends a row with filler cells up to n columns. Error rows carry
// fewer meaningful cells than the table header.
func padRow(row layout.Row, n int) layout.Row {
	for len(row) < n {
		row = append(row, layout.Cell(psi.FieldFiller))
	}
	return row
}

// errorCell renders the failure message of an error-tagged row.
func errorCell(r psi.ResultRow) layout.Cell {
	return layout.Cell("ERROR: " + r.Err)
}

func countErrors(rows []psi.ResultRow) int {
	n := 0
	for _, r := range rows {
		if r.IsError() {
			n++
		}
	}
	return n
}
