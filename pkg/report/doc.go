// Package report turns measurement batches into deck data: per-variant
// builders compose metric summaries and paginated tables from result rows.
// Builders are looked up by name through a registry; the stock variants are
// "web", "ux" and "sustainability".
package report
