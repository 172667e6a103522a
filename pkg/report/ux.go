package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/deckgen/deckgen/pkg/layout"
	"github.com/deckgen/deckgen/pkg/psi"
)

func init() {
	Register("ux", buildUXDeck)
}

// buildUXDeck produces the real-user experience deck from CrUX field data.
// Pages without field data appear with filler cells so every measured page
// stays visible in the table.
func buildUXDeck(rows []psi.ResultRow, fieldMap psi.FieldMap, cfg LayoutConfig) (*Deck, error) {
	if len(rows) == 0 {
		return nil, ErrNoResults
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	withField := 0
	originFallbacks := 0
	for _, r := range rows {
		if r.CruxData {
			withField++
			if r.OriginFallback {
				originFallbacks++
			}
		}
	}

	deck := &Deck{
		Title:       "User Experience Audit",
		Variant:     "ux",
		GeneratedAt: time.Now().UTC(),
		Metrics: []Metric{
			{Name: "pages measured", Value: strconv.Itoa(len(rows))},
			{Name: "pages with field data", Value: strconv.Itoa(withField)},
			{Name: "origin fallbacks", Value: strconv.Itoa(originFallbacks)},
			{Name: "failed measurements", Value: strconv.Itoa(countErrors(rows))},
		},
	}

	table, err := uxFieldTable(rows, fieldMap, cfg)
	if err != nil {
		return nil, err
	}
	deck.Tables = []Table{table}
	return deck, nil
}

func uxFieldTable(rows []psi.ResultRow, fieldMap psi.FieldMap, cfg LayoutConfig) (Table, error) {
	header := layout.Row{"Page", "Strategy", "Source", "Overall"}
	for _, metric := range fieldMap.FieldMetrics {
		header = append(header, layout.Cell(metric))
	}

	data := make([]layout.Row, 0, len(rows))
	for _, r := range rows {
		row := layout.Row{layout.Cell(r.Label), layout.Cell(r.Strategy)}

		switch {
		case r.IsError():
			row = append(row, errorCell(r))
		case !r.CruxData:
			// No field data for this page; filler fills the rest.
		default:
			source := "page"
			if r.OriginFallback {
				source = "origin"
			}
			row = append(row, layout.Cell(source), layout.Cell(r.OverallCategory))
			for _, v := range r.FieldValues {
				row = append(row, fieldCell(v))
			}
		}

		data = append(data, padRow(row, len(header)))
	}

	return paginateTable("Field Data", header, data, columnWidths(cfg, len(header)-1), cfg)
}

// fieldCell renders one field-data value: a percentile number or the
// filler string for absent metrics.
func fieldCell(v any) layout.Cell {
	switch val := v.(type) {
	case float64:
		return layout.NumberCell(val)
	case string:
		return layout.Cell(val)
	default:
		return layout.Cell(fmt.Sprint(val))
	}
}
