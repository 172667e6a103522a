package report

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/deckgen/deckgen/pkg/psi"
)

// ErrUnknownBuilder indicates a report variant no builder is registered for.
var ErrUnknownBuilder = errors.New("unknown report builder")

// Builder produces deck data for one report variant from a measurement
// batch. The field map supplies column headers; the layout config drives
// table pagination.
type Builder func(rows []psi.ResultRow, fieldMap psi.FieldMap, cfg LayoutConfig) (*Deck, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Builder)
)

// Register adds a builder under the given variant name. Registering the
// same name twice panics; variants are wired once at init.
func Register(name string, b Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("report: builder %q registered twice", name))
	}
	registry[name] = b
}

// Resolve returns the builder registered under name.
func Resolve(name string) (Builder, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuilder, name)
	}
	return b, nil
}

// Variants returns the registered variant names, sorted.
func Variants() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
