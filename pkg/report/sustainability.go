package report

import (
	"math"
	"strconv"
	"time"

	"github.com/deckgen/deckgen/pkg/layout"
	"github.com/deckgen/deckgen/pkg/psi"
)

func init() {
	Register("sustainability", buildSustainabilityDeck)
}

// buildSustainabilityDeck produces the page-weight and emissions deck:
// transferred bytes per asset type and, when impact estimation ran, grams
// CO2 per page view.
func buildSustainabilityDeck(rows []psi.ResultRow, fieldMap psi.FieldMap, cfg LayoutConfig) (*Deck, error) {
	if len(rows) == 0 {
		return nil, ErrNoResults
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var totalBytes int64
	var co2Sum float64
	co2Count := 0
	for _, r := range rows {
		if r.IsError() {
			continue
		}
		totalBytes += r.TotalBytes
		if r.CO2Grams != nil {
			co2Sum += *r.CO2Grams
			co2Count++
		}
	}

	metrics := []Metric{
		{Name: "pages measured", Value: strconv.Itoa(len(rows))},
		{Name: "total transfer", Value: formatKB(totalBytes) + " KB"},
		{Name: "failed measurements", Value: strconv.Itoa(countErrors(rows))},
	}
	if co2Count > 0 {
		metrics = append(metrics, Metric{
			Name:  "average emission per view",
			Value: strconv.FormatFloat(co2Sum/float64(co2Count), 'f', 2, 64) + " g",
		})
	}

	deck := &Deck{
		Title:       "Sustainability Audit",
		Variant:     "sustainability",
		GeneratedAt: time.Now().UTC(),
		Metrics:     metrics,
	}

	weight, err := weightTable(rows, fieldMap, cfg)
	if err != nil {
		return nil, err
	}
	deck.Tables = []Table{weight}

	if co2Count > 0 {
		emissions, err := emissionTable(rows, cfg)
		if err != nil {
			return nil, err
		}
		deck.Tables = append(deck.Tables, emissions)
	}

	return deck, nil
}

func weightTable(rows []psi.ResultRow, fieldMap psi.FieldMap, cfg LayoutConfig) (Table, error) {
	header := layout.Row{"Page", "Total KB"}
	for _, assetType := range fieldMap.AssetTypes {
		header = append(header, layout.Cell(assetType))
	}

	data := make([]layout.Row, 0, len(rows))
	for _, r := range rows {
		row := layout.Row{layout.Cell(r.Label)}
		if r.IsError() {
			row = append(row, errorCell(r))
		} else {
			row = append(row, layout.Cell(formatKB(r.TotalBytes)))
			for _, assetType := range fieldMap.AssetTypes {
				if bytes, ok := r.AssetBytes[assetType]; ok {
					row = append(row, layout.Cell(formatKB(bytes)))
				} else {
					row = append(row, layout.Cell(psi.FieldFiller))
				}
			}
		}
		data = append(data, padRow(row, len(header)))
	}

	return paginateTable("Transfer Weight", header, data, columnWidths(cfg, len(header)-1), cfg)
}

func emissionTable(rows []psi.ResultRow, cfg LayoutConfig) (Table, error) {
	header := layout.Row{"Page", "CO2 g/view"}

	data := make([]layout.Row, 0, len(rows))
	for _, r := range rows {
		var cell layout.Cell
		switch {
		case r.IsError():
			cell = errorCell(r)
		case r.CO2Grams == nil:
			cell = layout.Cell(psi.FieldFiller)
		default:
			cell = layout.Cell(strconv.FormatFloat(*r.CO2Grams, 'f', 2, 64))
		}
		data = append(data, layout.Row{layout.Cell(r.Label), cell})
	}

	widths := layout.ColumnWidths{cfg.LabelWidth, cfg.ValueWidth}
	return paginateTable("Estimated Emissions", header, data, widths, cfg)
}

// formatKB renders transferred bytes as kilobytes with one decimal.
func formatKB(bytes int64) string {
	return strconv.FormatFloat(math.Round(float64(bytes)/1024*10)/10, 'f', 1, 64)
}
