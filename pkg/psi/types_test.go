package psi

import (
	"errors"
	"reflect"
	"testing"
)

func TestRequestSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    RequestSpec
		wantErr bool
	}{
		{
			name: "valid_mobile",
			spec: RequestSpec{URL: "https://a.example", Label: "Home", Strategy: StrategyMobile},
		},
		{
			name: "valid_desktop",
			spec: RequestSpec{URL: "https://a.example/pricing", Label: "Pricing", Strategy: StrategyDesktop},
		},
		{
			name:    "empty_url",
			spec:    RequestSpec{Label: "Home", Strategy: StrategyMobile},
			wantErr: true,
		},
		{
			name:    "unparseable_url",
			spec:    RequestSpec{URL: "://nope", Strategy: StrategyMobile},
			wantErr: true,
		},
		{
			name:    "unknown_strategy",
			spec:    RequestSpec{URL: "https://a.example", Strategy: "tablet"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("Validate() error should wrap ErrInvalidSpec, got %v", err)
			}
		})
	}
}

func TestResultRow_Flatten_Success(t *testing.T) {
	co2 := 1.5
	row := ResultRow{
		Label:           "Home",
		URL:             "https://a.example",
		Strategy:        StrategyMobile,
		Screenshot:      "data:image/jpeg;base64,SHOT",
		CruxData:        true,
		OverallCategory: "FAST",
		FieldValues:     []any{1400.0, FieldFiller},
		CategoryScores:  []float64{93, 88},
		LabValues:       []float64{1200, 2400},
		FailedChecks:    "render-blocking-resources,unused-css-rules",
		Version:         "11.0.0",
		CO2Grams:        &co2,
	}

	want := []any{
		"data:image/jpeg;base64,SHOT",
		"FAST",
		1400.0, FieldFiller,
		93.0, 88.0,
		1200.0, 2400.0,
		"render-blocking-resources,unused-css-rules",
		"11.0.0",
		1.5,
	}

	if got := row.Flatten(); !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

func TestResultRow_Flatten_NoCrux(t *testing.T) {
	row := ResultRow{
		Screenshot:     "shot",
		CruxData:       false,
		CategoryScores: []float64{93},
		LabValues:      []float64{1200},
		FailedChecks:   "",
		Version:        "11.0.0",
	}

	got := row.Flatten()

	// No field-experience values when crux data is absent.
	want := []any{"shot", 93.0, 1200.0, "", "11.0.0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

func TestResultRow_Flatten_Error(t *testing.T) {
	row := errorRow(RequestSpec{URL: "https://a.example", Label: "Home"}, "Quota exceeded")

	if !row.IsError() {
		t.Fatal("Expected error-tagged row")
	}

	want := []any{"ERROR", "Quota exceeded"}
	if got := row.Flatten(); !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

func TestDefaultFieldMap(t *testing.T) {
	fm := DefaultFieldMap()

	if len(fm.Categories) == 0 || len(fm.LabMetrics) == 0 || len(fm.FieldMetrics) == 0 || len(fm.AssetTypes) == 0 {
		t.Error("DefaultFieldMap() should populate all four key lists")
	}
}
