package rdk

import "github.com/pkg/errors"

// Ingestor is the interface for loading tabular data. Given a source
// identifier - a file path, a URL, a query, whatever the implementation
// resolves - it produces a Dataset. Implementations hold no mutable state
// and are safe for repeated and concurrent use.
//
// An identifier that does not resolve yields ErrSourceNotFound; a source
// that resolves but cannot be parsed as tabular data yields
// ErrMalformedSource. Both arrive wrapped with context.
type Ingestor interface {
	Ingest(source string) (*Dataset, error)
}

// IngestContext holds the currently selected Ingestor and delegates to it.
// It is not safe to call SetStrategy concurrently with Ingest; callers
// needing that must serialize externally or use one context per goroutine.
type IngestContext struct {
	strategy Ingestor
}

// NewIngestContext returns a context with the given starting strategy,
// which may be nil.
func NewIngestContext(strategy Ingestor) *IngestContext {
	return &IngestContext{strategy: strategy}
}

// SetStrategy replaces the current strategy. Pure reassignment, no other
// side effect.
func (c *IngestContext) SetStrategy(strategy Ingestor) {
	c.strategy = strategy
}

// Ingest delegates to the current strategy.
func (c *IngestContext) Ingest(source string) (*Dataset, error) {
	if c.strategy == nil {
		return nil, errors.Wrap(ErrNoStrategy, "ingest")
	}
	return c.strategy.Ingest(source)
}
