package psi

import (
	"encoding/json"
	"sort"
	"strings"
)

// Fixed extraction paths within the result document.
const (
	auditFinalScreenshot = "final-screenshot"
	auditResourceSummary = "resource-summary"
	auditTotalByteWeight = "total-byte-weight"

	// cruxLayoutShift percentiles are reported in hundredths and must be
	// divided by 100 before use. Documented API behavior, not a bug.
	cruxLayoutShift = "CUMULATIVE_LAYOUT_SHIFT_SCORE"
)

// ParseFailureMessage is the generic message carried by rows whose
// response body was not the expected shape.
const ParseFailureMessage = "failed to parse measurement response"

// responseDoc is the top-level measurement API response: either an error
// document or a result payload.
type responseDoc struct {
	Error             *apiErrorBody      `json:"error"`
	LighthouseResult  *lighthouseResult  `json:"lighthouseResult"`
	LoadingExperience *loadingExperience `json:"loadingExperience"`
}

type apiErrorBody struct {
	Message string `json:"message"`
}

type lighthouseResult struct {
	Categories        map[string]categoryResult `json:"categories"`
	Audits            map[string]auditResult    `json:"audits"`
	LighthouseVersion string                    `json:"lighthouseVersion"`
}

type categoryResult struct {
	Score *float64 `json:"score"`
}

type auditResult struct {
	Score        *float64      `json:"score"`
	NumericValue *float64      `json:"numericValue"`
	Details      *auditDetails `json:"details"`
}

type auditDetails struct {
	// Data is the screenshot payload for the final-screenshot audit.
	Data string `json:"data"`

	// Items carries per-resource-type rows for the resource-summary audit.
	Items []resourceSummaryItem `json:"items"`
}

type resourceSummaryItem struct {
	ResourceType string `json:"resourceType"`
	TransferSize int64  `json:"transferSize"`
}

// loadingExperience is the real-user (CrUX) section. It is optional per
// response; absence means no field data was available for the page.
type loadingExperience struct {
	Metrics         map[string]fieldMetric `json:"metrics"`
	OverallCategory string                 `json:"overall_category"`
	OriginFallback  bool                   `json:"origin_fallback"`
}

type fieldMetric struct {
	Percentile *float64 `json:"percentile"`
	Category   string   `json:"category"`
}

// errorRow builds an error-tagged row for a spec.
func errorRow(spec RequestSpec, message string) ResultRow {
	return ResultRow{
		Label:    spec.Label,
		URL:      spec.URL,
		Strategy: spec.Strategy,
		Err:      message,
	}
}

// extractRow maps one raw response document to a ResultRow. Malformed JSON
// and error-shaped documents yield error-tagged rows, never errors: a bad
// response must only ever fail its own row.
func extractRow(spec RequestSpec, body []byte, fieldMap FieldMap) ResultRow {
	var doc responseDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return errorRow(spec, ParseFailureMessage)
	}

	if doc.Error != nil && doc.LighthouseResult == nil {
		return errorRow(spec, doc.Error.Message)
	}
	if doc.LighthouseResult == nil {
		return errorRow(spec, ParseFailureMessage)
	}

	lh := doc.LighthouseResult
	row := ResultRow{
		Label:    spec.Label,
		URL:      spec.URL,
		Strategy: spec.Strategy,
		Version:  lh.LighthouseVersion,
	}

	// (1) screenshot payload
	if shot, ok := lh.Audits[auditFinalScreenshot]; ok && shot.Details != nil {
		row.Screenshot = shot.Details.Data
	}

	// (2) field-experience block, optional per response
	extractFieldData(&row, doc.LoadingExperience, fieldMap)

	// (3) category scores, x100
	row.CategoryScores = make([]float64, 0, len(fieldMap.Categories))
	for _, key := range fieldMap.Categories {
		var score float64
		if c, ok := lh.Categories[key]; ok && c.Score != nil {
			score = *c.Score * 100
		}
		row.CategoryScores = append(row.CategoryScores, score)
	}

	// (4) lab metric numeric values
	row.LabValues = make([]float64, 0, len(fieldMap.LabMetrics))
	for _, key := range fieldMap.LabMetrics {
		var v float64
		if a, ok := lh.Audits[key]; ok && a.NumericValue != nil {
			v = *a.NumericValue
		}
		row.LabValues = append(row.LabValues, v)
	}

	// (5) failed checks: score present and below 1. A null score means
	// "not applicable", not "failed", and is excluded.
	var failed []string
	for id, audit := range lh.Audits {
		if audit.Score != nil && *audit.Score < 1 {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)
	row.FailedChecks = strings.Join(failed, ",")

	// (6) transferred bytes for the sustainability path
	extractAssetBytes(&row, lh, fieldMap)

	return row
}

// extractFieldData fills the CrUX block of a row from the optional
// loadingExperience section.
func extractFieldData(row *ResultRow, le *loadingExperience, fieldMap FieldMap) {
	if le == nil || len(le.Metrics) == 0 {
		row.CruxData = false
		return
	}

	row.CruxData = true
	row.OverallCategory = le.OverallCategory
	row.OriginFallback = le.OriginFallback

	row.FieldValues = make([]any, 0, len(fieldMap.FieldMetrics))
	for _, key := range fieldMap.FieldMetrics {
		m, ok := le.Metrics[key]
		if !ok || m.Percentile == nil {
			row.FieldValues = append(row.FieldValues, FieldFiller)
			continue
		}

		v := *m.Percentile
		if key == cruxLayoutShift {
			v /= 100
		}
		row.FieldValues = append(row.FieldValues, v)
	}
}

// extractAssetBytes fills total and per-asset-type transferred bytes.
func extractAssetBytes(row *ResultRow, lh *lighthouseResult, fieldMap FieldMap) {
	if a, ok := lh.Audits[auditTotalByteWeight]; ok && a.NumericValue != nil {
		row.TotalBytes = int64(*a.NumericValue)
	}

	rs, ok := lh.Audits[auditResourceSummary]
	if !ok || rs.Details == nil || len(rs.Details.Items) == 0 {
		return
	}

	wanted := make(map[string]bool, len(fieldMap.AssetTypes))
	for _, t := range fieldMap.AssetTypes {
		wanted[t] = true
	}

	bytes := make(map[string]int64)
	for _, item := range rs.Details.Items {
		if item.ResourceType == "total" && row.TotalBytes == 0 {
			row.TotalBytes = item.TransferSize
			continue
		}
		if wanted[item.ResourceType] {
			bytes[item.ResourceType] = item.TransferSize
		}
	}
	if len(bytes) > 0 {
		row.AssetBytes = bytes
	}
}
