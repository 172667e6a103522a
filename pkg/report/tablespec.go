package report

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/deckgen/deckgen/pkg/layout"
)

// SortOrder selects the sort direction of a table spec.
type SortOrder string

const (
	// SortAsc sorts rows ascending by the sort column.
	SortAsc SortOrder = "asc"

	// SortDesc sorts rows descending by the sort column.
	SortDesc SortOrder = "desc"
)

// ErrBadColumn indicates a filter or sort column outside the row width.
var ErrBadColumn = errors.New("column index out of range")

// Filter keeps rows whose numeric value in Column is at least Min. Rows
// whose cell does not parse as a number cannot meet a numeric threshold and
// are dropped.
type Filter struct {
	Column int     `yaml:"column" json:"column"`
	Min    float64 `yaml:"min" json:"min"`
}

// Sort orders rows by the numeric value in Column. Non-numeric cells sort
// after all numeric ones; the sort is stable.
type Sort struct {
	Column int       `yaml:"column" json:"column"`
	Order  SortOrder `yaml:"order" json:"order"`
}

// TableSpec describes the row shaping applied to a table before
// pagination: an optional threshold filter, then an optional sort.
type TableSpec struct {
	Title  string  `yaml:"title" json:"title"`
	Filter *Filter `yaml:"filter,omitempty" json:"filter,omitempty"`
	Sort   *Sort   `yaml:"sort,omitempty" json:"sort,omitempty"`
}

// Apply shapes rows per the spec. The input slice is not modified.
func (s TableSpec) Apply(rows []layout.Row) ([]layout.Row, error) {
	out := make([]layout.Row, len(rows))
	copy(out, rows)

	if s.Filter != nil {
		filtered, err := s.Filter.apply(out)
		if err != nil {
			return nil, err
		}
		out = filtered
	}

	if s.Sort != nil {
		if err := s.Sort.apply(out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (f *Filter) apply(rows []layout.Row) ([]layout.Row, error) {
	kept := make([]layout.Row, 0, len(rows))
	for i, row := range rows {
		if f.Column < 0 || f.Column >= len(row) {
			return nil, fmt.Errorf("filter row %d: %w: column %d", i, ErrBadColumn, f.Column)
		}
		v, err := strconv.ParseFloat(string(row[f.Column]), 64)
		if err != nil {
			continue
		}
		if v >= f.Min {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func (s *Sort) apply(rows []layout.Row) error {
	switch s.Order {
	case SortAsc, SortDesc:
	default:
		return fmt.Errorf("unknown sort order %q", s.Order)
	}

	for i, row := range rows {
		if s.Column < 0 || s.Column >= len(row) {
			return fmt.Errorf("sort row %d: %w: column %d", i, ErrBadColumn, s.Column)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		vi, oki := parseCell(rows[i][s.Column])
		vj, okj := parseCell(rows[j][s.Column])

		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		if s.Order == SortDesc {
			return vi > vj
		}
		return vi < vj
	})
	return nil
}

func parseCell(c layout.Cell) (float64, bool) {
	v, err := strconv.ParseFloat(string(c), 64)
	return v, err == nil
}
