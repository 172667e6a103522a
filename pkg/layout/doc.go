// Package layout partitions table rows into bounded-height slide pages.
//
// A slide template has a fixed drawable area, so a table that does not fit
// is split across several slides, each repeating the header row. The split
// is greedy and single-pass: rows keep their input order, no row is split,
// duplicated or dropped.
//
// Example usage:
//
//	widths := layout.ColumnWidths{120, 80, 80}
//	pages, err := layout.Paginate(header, rows, widths, 14, 360)
//
// Row heights are estimated with the same wrapped-text approximation the
// slide renderer uses, so page breaks computed here match what the deck
// shows. A single row taller than the page maximum is emitted as a
// one-row page rather than being split.
package layout
