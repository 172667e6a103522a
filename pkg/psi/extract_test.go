package psi

import (
	"fmt"
	"testing"
)

var testSpec = RequestSpec{URL: "https://a.example", Label: "Home", Strategy: StrategyMobile}

// resultDoc builds a minimal result document with an optional
// loadingExperience section spliced in.
func resultDoc(loadingExperience string) []byte {
	doc := fmt.Sprintf(`{
		"lighthouseResult": {
			"lighthouseVersion": "11.0.0",
			"categories": {
				"performance": {"score": 0.93},
				"accessibility": {"score": 0.88},
				"best-practices": {"score": 1},
				"seo": {"score": 0.9}
			},
			"audits": {
				"final-screenshot": {"details": {"data": "data:image/jpeg;base64,SHOT"}},
				"first-contentful-paint": {"score": 1, "numericValue": 1200},
				"largest-contentful-paint": {"score": 0.95, "numericValue": 2400},
				"total-blocking-time": {"score": 1, "numericValue": 30},
				"cumulative-layout-shift": {"score": 1, "numericValue": 0.01},
				"speed-index": {"score": 0.9, "numericValue": 1800},
				"interactive": {"score": 1, "numericValue": 2600},
				"render-blocking-resources": {"score": 0.4},
				"uses-http2": {"score": null},
				"total-byte-weight": {"score": 1, "numericValue": 2500000},
				"resource-summary": {"details": {"items": [
					{"resourceType": "total", "transferSize": 2500000},
					{"resourceType": "script", "transferSize": 1200000},
					{"resourceType": "image", "transferSize": 800000},
					{"resourceType": "third-party", "transferSize": 400000}
				]}}
			}
		}%s
	}`, loadingExperience)
	return []byte(doc)
}

func TestExtractRow_Success(t *testing.T) {
	row := extractRow(testSpec, resultDoc(""), DefaultFieldMap())

	if row.IsError() {
		t.Fatalf("Unexpected error row: %s", row.Err)
	}
	if row.Screenshot != "data:image/jpeg;base64,SHOT" {
		t.Errorf("Screenshot = %q", row.Screenshot)
	}
	if row.Version != "11.0.0" {
		t.Errorf("Version = %q, want 11.0.0", row.Version)
	}

	wantScores := []float64{93, 88, 100, 90}
	for i, want := range wantScores {
		if row.CategoryScores[i] != want {
			t.Errorf("CategoryScores[%d] = %v, want %v", i, row.CategoryScores[i], want)
		}
	}

	wantLab := []float64{1200, 2400, 30, 0.01, 1800, 2600}
	for i, want := range wantLab {
		if row.LabValues[i] != want {
			t.Errorf("LabValues[%d] = %v, want %v", i, row.LabValues[i], want)
		}
	}
}

func TestExtractRow_FailedChecks(t *testing.T) {
	row := extractRow(testSpec, resultDoc(""), DefaultFieldMap())

	// largest-contentful-paint (0.95), render-blocking-resources (0.4)
	// and speed-index (0.9) score below 1; uses-http2 has a null score
	// and is "not applicable", never "failed".
	want := "largest-contentful-paint,render-blocking-resources,speed-index"
	if row.FailedChecks != want {
		t.Errorf("FailedChecks = %q, want %q", row.FailedChecks, want)
	}
}

func TestExtractRow_NoCruxData(t *testing.T) {
	tests := []struct {
		name string
		le   string
	}{
		{name: "section_absent", le: ""},
		{name: "section_empty", le: `, "loadingExperience": {}`},
		{name: "metrics_empty", le: `, "loadingExperience": {"metrics": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := extractRow(testSpec, resultDoc(tt.le), DefaultFieldMap())

			if row.IsError() {
				t.Fatalf("Unexpected error row: %s", row.Err)
			}
			if row.CruxData {
				t.Error("CruxData should be false without field metrics")
			}
			if len(row.FieldValues) != 0 {
				t.Errorf("FieldValues should be empty, got %v", row.FieldValues)
			}
		})
	}
}

func TestExtractRow_CruxData(t *testing.T) {
	le := `, "loadingExperience": {
		"overall_category": "AVERAGE",
		"origin_fallback": true,
		"metrics": {
			"FIRST_CONTENTFUL_PAINT_MS": {"percentile": 1400, "category": "FAST"},
			"CUMULATIVE_LAYOUT_SHIFT_SCORE": {"percentile": 1500, "category": "SLOW"}
		}
	}`

	row := extractRow(testSpec, resultDoc(le), DefaultFieldMap())

	if !row.CruxData {
		t.Fatal("CruxData should be true")
	}
	if !row.OriginFallback {
		t.Error("OriginFallback should be true")
	}
	if row.OverallCategory != "AVERAGE" {
		t.Errorf("OverallCategory = %q, want AVERAGE", row.OverallCategory)
	}

	fm := DefaultFieldMap()
	if len(row.FieldValues) != len(fm.FieldMetrics) {
		t.Fatalf("FieldValues length = %d, want %d", len(row.FieldValues), len(fm.FieldMetrics))
	}

	// Values follow the field map order; absent percentiles are filled.
	for i, key := range fm.FieldMetrics {
		switch key {
		case "FIRST_CONTENTFUL_PAINT_MS":
			if row.FieldValues[i] != 1400.0 {
				t.Errorf("FieldValues[%d] = %v, want 1400", i, row.FieldValues[i])
			}
		case "CUMULATIVE_LAYOUT_SHIFT_SCORE":
			// Stored as hundredths: raw 1500 must extract as 15.0.
			if row.FieldValues[i] != 15.0 {
				t.Errorf("FieldValues[%d] = %v, want 15.0", i, row.FieldValues[i])
			}
		default:
			if row.FieldValues[i] != FieldFiller {
				t.Errorf("FieldValues[%d] = %v, want filler", i, row.FieldValues[i])
			}
		}
	}
}

func TestExtractRow_ErrorDocument(t *testing.T) {
	body := []byte(`{"error": {"message": "Quota exceeded"}}`)

	row := extractRow(testSpec, body, DefaultFieldMap())

	if !row.IsError() {
		t.Fatal("Expected error-tagged row")
	}
	if row.Err != "Quota exceeded" {
		t.Errorf("Err = %q, want %q", row.Err, "Quota exceeded")
	}
	if row.Label != "Home" || row.URL != "https://a.example" {
		t.Error("Error rows must keep their spec identity")
	}
}

func TestExtractRow_MalformedJSON(t *testing.T) {
	row := extractRow(testSpec, []byte(`{"lighthouseResult": [broken`), DefaultFieldMap())

	if !row.IsError() {
		t.Fatal("Expected error-tagged row")
	}
	if row.Err != ParseFailureMessage {
		t.Errorf("Err = %q, want generic parse failure", row.Err)
	}
}

func TestExtractRow_UnexpectedShape(t *testing.T) {
	// Valid JSON, but neither an error document nor a result payload.
	row := extractRow(testSpec, []byte(`{"status": "ok"}`), DefaultFieldMap())

	if !row.IsError() || row.Err != ParseFailureMessage {
		t.Errorf("Expected generic parse failure, got %+v", row)
	}
}

func TestExtractRow_AssetBytes(t *testing.T) {
	row := extractRow(testSpec, resultDoc(""), DefaultFieldMap())

	if row.TotalBytes != 2500000 {
		t.Errorf("TotalBytes = %d, want 2500000", row.TotalBytes)
	}
	if row.AssetBytes["script"] != 1200000 {
		t.Errorf("AssetBytes[script] = %d, want 1200000", row.AssetBytes["script"])
	}
	if row.AssetBytes["image"] != 800000 {
		t.Errorf("AssetBytes[image] = %d, want 800000", row.AssetBytes["image"])
	}
	// third-party is not in the default asset-type list
	if _, ok := row.AssetBytes["third-party"]; ok {
		t.Error("Unlisted asset types must not be extracted")
	}
}
