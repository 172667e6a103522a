// Package psi fetches and flattens page-speed measurements.
//
// One measurement request is built per (url, label, strategy) spec and the
// whole batch is fanned out over a bounded worker pool. Results come back
// as flat rows in input order: out[i] always corresponds to specs[i], and a
// failed request yields an error-tagged row instead of aborting the batch.
//
// Example usage:
//
//	client, _ := psi.New(psi.DefaultConfig(apiKey))
//	fetcher := psi.NewBatchFetcher(client, psi.DefaultBatchConfig(), nil)
//	rows, err := fetcher.FetchAll(ctx, specs, psi.DefaultFieldMap(), false)
//
// Extraction order within a row is fixed and driven by an explicit FieldMap
// so spreadsheet columns line up with slide-template placeholders: the
// final screenshot, optional real-user (CrUX) percentiles, lab category
// scores, lab metric values, the failed-check list and the tool version.
package psi
