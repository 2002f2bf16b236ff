package similarity

import (
	"log/slog"
	"sort"
	"sync"
)

// DefaultBackend is used when no backend is configured
const DefaultBackend = "levenshtein"

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Metric)

	// fallbackNotified records requested backends whose fallback was already logged
	fallbackNotified sync.Map
)

// Register makes a metric available under name. Backends register themselves
// from init; a backend compiled out of the binary is simply absent.
func Register(name string, factory func() Metric) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Available returns the registered backend names in sorted order
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Selection is the outcome of choosing a backend at startup
type Selection struct {
	Scorer    *FuzzyScorer
	Requested string
	Fallback  bool // Requested backend was unavailable and the sequence matcher is used instead
}

// Select returns a scorer for the named backend. When the backend is not
// available the built-in sequence matcher is used; this is reported once per
// requested name through logger, since score distributions differ slightly.
func Select(name string, logger *slog.Logger) Selection {
	if name == "" {
		name = DefaultBackend
	}

	registryMu.RLock()
	factory, ok := registry[name]
	fallback := registry[SequenceBackend]
	registryMu.RUnlock()

	if ok {
		return Selection{Scorer: NewFuzzyScorer(factory()), Requested: name}
	}

	if _, seen := fallbackNotified.LoadOrStore(name, true); !seen && logger != nil {
		logger.Warn("similarity backend unavailable, using fallback",
			"requested", name,
			"backend", SequenceBackend,
			"available", Available())
	}

	return Selection{
		Scorer:    NewFuzzyScorer(fallback()),
		Requested: name,
		Fallback:  true,
	}
}
