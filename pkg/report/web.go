package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/deckgen/deckgen/pkg/layout"
	"github.com/deckgen/deckgen/pkg/psi"
)

func init() {
	Register("web", buildWebDeck)
}

// buildWebDeck produces the lab audit deck: category scores, lab metric
// values and failing checks per measured page.
func buildWebDeck(rows []psi.ResultRow, fieldMap psi.FieldMap, cfg LayoutConfig) (*Deck, error) {
	if len(rows) == 0 {
		return nil, ErrNoResults
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deck := &Deck{
		Title:       "Web Performance Audit",
		Variant:     "web",
		GeneratedAt: time.Now().UTC(),
		Metrics:     webMetrics(rows, fieldMap),
	}

	scores, err := webScoreTable(rows, fieldMap, cfg)
	if err != nil {
		return nil, err
	}
	lab, err := webLabTable(rows, fieldMap, cfg)
	if err != nil {
		return nil, err
	}
	checks, err := webFailedCheckTable(rows, cfg)
	if err != nil {
		return nil, err
	}

	deck.Tables = []Table{scores, lab, checks}
	return deck, nil
}

func webMetrics(rows []psi.ResultRow, fieldMap psi.FieldMap) []Metric {
	metrics := []Metric{
		{Name: "pages measured", Value: strconv.Itoa(len(rows))},
		{Name: "failed measurements", Value: strconv.Itoa(countErrors(rows))},
	}

	// Average of the first configured category, typically performance.
	if len(fieldMap.Categories) > 0 {
		var sum float64
		var n int
		for _, r := range rows {
			if r.IsError() || len(r.CategoryScores) == 0 {
				continue
			}
			sum += r.CategoryScores[0]
			n++
		}
		if n > 0 {
			metrics = append(metrics, Metric{
				Name:  fmt.Sprintf("average %s", fieldMap.Categories[0]),
				Value: strconv.FormatFloat(sum/float64(n), 'f', 1, 64),
			})
		}
	}

	return metrics
}

func webScoreTable(rows []psi.ResultRow, fieldMap psi.FieldMap, cfg LayoutConfig) (Table, error) {
	header := layout.Row{"Page", "Strategy"}
	for _, category := range fieldMap.Categories {
		header = append(header, layout.Cell(category))
	}

	data := make([]layout.Row, 0, len(rows))
	for _, r := range rows {
		row := layout.Row{layout.Cell(r.Label), layout.Cell(r.Strategy)}
		if r.IsError() {
			row = append(row, errorCell(r))
		} else {
			for _, score := range r.CategoryScores {
				row = append(row, layout.NumberCell(score))
			}
		}
		data = append(data, padRow(row, len(header)))
	}

	return paginateTable("Category Scores", header, data, columnWidths(cfg, len(header)-1), cfg)
}

func webLabTable(rows []psi.ResultRow, fieldMap psi.FieldMap, cfg LayoutConfig) (Table, error) {
	header := layout.Row{"Page", "Strategy"}
	for _, metric := range fieldMap.LabMetrics {
		header = append(header, layout.Cell(metric))
	}

	data := make([]layout.Row, 0, len(rows))
	for _, r := range rows {
		row := layout.Row{layout.Cell(r.Label), layout.Cell(r.Strategy)}
		if r.IsError() {
			row = append(row, errorCell(r))
		} else {
			for _, v := range r.LabValues {
				row = append(row, layout.NumberCell(v))
			}
		}
		data = append(data, padRow(row, len(header)))
	}

	return paginateTable("Lab Metrics", header, data, columnWidths(cfg, len(header)-1), cfg)
}

func webFailedCheckTable(rows []psi.ResultRow, cfg LayoutConfig) (Table, error) {
	header := layout.Row{"Page", "Failed Checks"}

	data := make([]layout.Row, 0, len(rows))
	for _, r := range rows {
		cell := layout.Cell(r.FailedChecks)
		if r.IsError() {
			cell = errorCell(r)
		}
		data = append(data, layout.Row{layout.Cell(r.Label), cell})
	}

	widths := layout.ColumnWidths{cfg.LabelWidth, cfg.WideWidth}
	return paginateTable("Failed Checks", header, data, widths, cfg)
}
