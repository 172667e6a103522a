package cache

import (
	"net/url"
	"strings"
)

// Key identifies one cached response.
type Key struct {
	// Service is the upstream service name (e.g. "psi", "greenhost").
	Service string

	// Target is the subject of the lookup: a page URL for measurements,
	// a hostname for green-hosting checks.
	Target string

	// Variant discriminates lookups of the same target (e.g. the
	// measurement strategy "mobile" or "desktop"). May be empty.
	Variant string
}

// String generates a deterministic cache key string.
// Format: deckgen:service:variant:escaped-target
//
// Example:
//
//	deckgen:psi:mobile:https%3A%2F%2Fexample.com%2F
func (k Key) String() string {
	parts := []string{"deckgen", k.Service}

	if k.Variant != "" {
		parts = append(parts, k.Variant)
	}

	// Escape the target so URLs with colons stay unambiguous.
	parts = append(parts, url.QueryEscape(k.Target))

	return strings.Join(parts, ":")
}
