package testutil

import (
	"encoding/json"
	"fmt"
)

// DocOptions controls the shape of a generated measurement result document.
type DocOptions struct {
	Version          string
	PerformanceScore float64 // 0..1
	FCPMillis        float64
	TotalBytes       float64
	FailingAuditID   string // empty for none

	WithCrux        bool
	OriginFallback  bool
	CLSHundredths   float64 // raw CrUX layout-shift percentile (hundredths)
	OverallCategory string
}

// DefaultDocOptions returns a healthy, crux-less result document shape.
func DefaultDocOptions() DocOptions {
	return DocOptions{
		Version:          "11.0.0",
		PerformanceScore: 0.93,
		FCPMillis:        1200,
		TotalBytes:       2_500_000,
	}
}

// ResultDoc renders a measurement result document as JSON.
func ResultDoc(opts DocOptions) string {
	audits := map[string]any{
		"final-screenshot": map[string]any{
			"details": map[string]any{"data": "data:image/jpeg;base64,TESTSHOT"},
		},
		"first-contentful-paint": map[string]any{
			"score":        1.0,
			"numericValue": opts.FCPMillis,
		},
		"largest-contentful-paint": map[string]any{
			"score":        0.95,
			"numericValue": opts.FCPMillis * 2,
		},
		"total-byte-weight": map[string]any{
			"score":        1.0,
			"numericValue": opts.TotalBytes,
		},
		"resource-summary": map[string]any{
			"details": map[string]any{
				"items": []map[string]any{
					{"resourceType": "total", "transferSize": int64(opts.TotalBytes)},
					{"resourceType": "script", "transferSize": int64(opts.TotalBytes) / 2},
					{"resourceType": "image", "transferSize": int64(opts.TotalBytes) / 4},
				},
			},
		},
	}
	if opts.FailingAuditID != "" {
		audits[opts.FailingAuditID] = map[string]any{"score": 0.4}
	}

	doc := map[string]any{
		"lighthouseResult": map[string]any{
			"lighthouseVersion": opts.Version,
			"categories": map[string]any{
				"performance":    map[string]any{"score": opts.PerformanceScore},
				"accessibility":  map[string]any{"score": 0.88},
				"best-practices": map[string]any{"score": 1.0},
				"seo":            map[string]any{"score": 0.9},
			},
			"audits": audits,
		},
	}

	if opts.WithCrux {
		overall := opts.OverallCategory
		if overall == "" {
			overall = "FAST"
		}
		doc["loadingExperience"] = map[string]any{
			"overall_category": overall,
			"origin_fallback":  opts.OriginFallback,
			"metrics": map[string]any{
				"FIRST_CONTENTFUL_PAINT_MS": map[string]any{
					"percentile": 1400, "category": "FAST",
				},
				"CUMULATIVE_LAYOUT_SHIFT_SCORE": map[string]any{
					"percentile": opts.CLSHundredths, "category": "AVERAGE",
				},
			},
		}
	} else {
		// Present but empty: the API emits the section with no metrics
		// when no field data exists for the page.
		doc["loadingExperience"] = map[string]any{}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal result doc: %v", err))
	}
	return string(data)
}

// ErrorDoc renders a measurement API error document as JSON.
func ErrorDoc(message string) string {
	data, err := json.Marshal(map[string]any{
		"error": map[string]any{"message": message},
	})
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal error doc: %v", err))
	}
	return string(data)
}

// GreenhostHandlerBody renders a hosting-registry answer.
func GreenhostHandlerBody(green bool) string {
	return fmt.Sprintf(`{"green": %t}`, green)
}
