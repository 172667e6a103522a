package psi

import (
	"errors"
	"fmt"
	"net/url"
)

// Strategy selects the simulated device profile for a measurement.
type Strategy string

const (
	// StrategyMobile measures with a simulated mobile device.
	StrategyMobile Strategy = "mobile"

	// StrategyDesktop measures with a simulated desktop device.
	StrategyDesktop Strategy = "desktop"
)

// ErrInvalidSpec indicates a malformed request spec. Unlike per-request
// failures this aborts the whole batch: the input itself is broken.
var ErrInvalidSpec = errors.New("invalid request spec")

// RequestSpec identifies one measurement request. Identical specs are not
// deduplicated; that is the caller's responsibility.
type RequestSpec struct {
	// URL is the page to measure.
	URL string `json:"url"`

	// Label is the human-readable name used in the generated report.
	Label string `json:"label"`

	// Strategy is the device profile, mobile or desktop.
	Strategy Strategy `json:"strategy"`
}

// Validate checks the spec fields.
func (s RequestSpec) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidSpec)
	}
	if _, err := url.ParseRequestURI(s.URL); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSpec, s.URL, err)
	}
	switch s.Strategy {
	case StrategyMobile, StrategyDesktop:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidSpec, s.Strategy)
	}
	return nil
}

// FieldMap defines which fields are extracted from a measurement response
// and the column order they occupy in the flattened row. It is read-only
// configuration and is passed explicitly, never held as package state.
type FieldMap struct {
	// Categories are lab category keys, scored 0..1 by the tool and
	// reported here multiplied by 100.
	Categories []string `yaml:"categories"`

	// LabMetrics are audit keys whose numericValue is extracted.
	LabMetrics []string `yaml:"lab_metrics"`

	// FieldMetrics are real-user (CrUX) metric keys whose percentile is
	// extracted when field data is present.
	FieldMetrics []string `yaml:"field_metrics"`

	// AssetTypes are resource-summary types whose transferred bytes are
	// extracted for the sustainability report.
	AssetTypes []string `yaml:"asset_types"`
}

// DefaultFieldMap returns the field map used by the stock report templates.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Categories: []string{
			"performance",
			"accessibility",
			"best-practices",
			"seo",
		},
		LabMetrics: []string{
			"first-contentful-paint",
			"largest-contentful-paint",
			"total-blocking-time",
			"cumulative-layout-shift",
			"speed-index",
			"interactive",
		},
		FieldMetrics: []string{
			"FIRST_CONTENTFUL_PAINT_MS",
			"LARGEST_CONTENTFUL_PAINT_MS",
			"INTERACTION_TO_NEXT_PAINT",
			"CUMULATIVE_LAYOUT_SHIFT_SCORE",
			"EXPERIMENTAL_TIME_TO_FIRST_BYTE",
		},
		AssetTypes: []string{
			"document",
			"script",
			"stylesheet",
			"image",
			"font",
			"media",
			"other",
		},
	}
}

// FieldFiller is the placeholder emitted for a field metric whose
// percentile is absent from an otherwise present field-data section.
const FieldFiller = "-"

// ResultRow is the flat outcome of one measurement. Either Err is set (the
// request or parse failed; no other field is meaningful) or the extracted
// fields are populated. Rows are created once and never mutated afterwards.
type ResultRow struct {
	Label    string   `json:"label"`
	URL      string   `json:"url"`
	Strategy Strategy `json:"strategy"`

	// Err carries the human-readable failure message for error-tagged
	// rows. Consumers must treat these distinctly from successful rows.
	Err string `json:"error,omitempty"`

	// Screenshot is the final-screenshot payload (base64 data URI).
	Screenshot string `json:"screenshot,omitempty"`

	// CruxData reports whether real-user field data was present.
	CruxData bool `json:"crux_data"`

	// OriginFallback is true when field data was approximated from the
	// whole origin because page-level data was insufficient.
	OriginFallback bool `json:"origin_fallback"`

	// OverallCategory is the overall field-data rating (e.g. "FAST").
	OverallCategory string `json:"overall_category,omitempty"`

	// FieldValues holds one value per FieldMap.FieldMetrics key: a
	// float64 percentile or the FieldFiller string. Empty when CruxData
	// is false.
	FieldValues []any `json:"field_values,omitempty"`

	// CategoryScores holds one score per FieldMap.Categories key, 0-100.
	CategoryScores []float64 `json:"category_scores,omitempty"`

	// LabValues holds one numeric value per FieldMap.LabMetrics key.
	LabValues []float64 `json:"lab_values,omitempty"`

	// FailedChecks is the comma-joined, sorted list of audit ids whose
	// score is present and below 1. A null score means "not applicable"
	// and is excluded.
	FailedChecks string `json:"failed_checks,omitempty"`

	// Version is the measurement tool version string.
	Version string `json:"version,omitempty"`

	// AssetBytes maps FieldMap.AssetTypes entries to transferred bytes.
	AssetBytes map[string]int64 `json:"asset_bytes,omitempty"`

	// TotalBytes is the total transferred byte weight of the page.
	TotalBytes int64 `json:"total_bytes,omitempty"`

	// CO2Grams is the estimated emission per page load. Nil when
	// environmental-impact reporting is disabled or the lookup failed.
	CO2Grams *float64 `json:"co2_grams,omitempty"`
}

// IsError reports whether the row is error-tagged.
func (r ResultRow) IsError() bool {
	return r.Err != ""
}

// Flatten returns the row as the ordered flat value sequence the
// presentation layer consumes: screenshot, optional field-data block
// (overall rating then percentiles), category scores, lab metric values,
// failed checks, version, and the emission estimate when present.
// Error-tagged rows flatten to an error marker plus the message.
func (r ResultRow) Flatten() []any {
	if r.IsError() {
		return []any{"ERROR", r.Err}
	}

	out := []any{r.Screenshot}

	if r.CruxData {
		out = append(out, r.OverallCategory)
		out = append(out, r.FieldValues...)
	}

	for _, score := range r.CategoryScores {
		out = append(out, score)
	}
	for _, v := range r.LabValues {
		out = append(out, v)
	}

	out = append(out, r.FailedChecks, r.Version)

	if r.CO2Grams != nil {
		out = append(out, *r.CO2Grams)
	}

	return out
}
