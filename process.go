package rdk

import "github.com/pkg/errors"

// Processor is the interface for deriving one dataset from another:
// grouped sums, projections, statistical summaries. Implementations are
// pure - they never modify the input dataset - and hold no mutable state,
// so they are safe for repeated and concurrent use.
type Processor interface {
	Process(d *Dataset) (*Dataset, error)
}

// ProcessorFunc can be wrapped around a function to make it implement the
// Processor interface. Similar to http.HandlerFunc.
type ProcessorFunc func(*Dataset) (*Dataset, error)

// Process implements Processor for ProcessorFunc.
func (f ProcessorFunc) Process(d *Dataset) (*Dataset, error) {
	return f(d)
}

// ProcessContext holds the currently selected Processor and delegates to
// it. Like IngestContext, it does not serialize SetStrategy against
// Process; that is the caller's job.
type ProcessContext struct {
	strategy Processor
}

// NewProcessContext returns a context with the given starting strategy,
// which may be nil.
func NewProcessContext(strategy Processor) *ProcessContext {
	return &ProcessContext{strategy: strategy}
}

// SetStrategy replaces the current strategy. Pure reassignment, no other
// side effect.
func (c *ProcessContext) SetStrategy(strategy Processor) {
	c.strategy = strategy
}

// Process delegates to the current strategy.
func (c *ProcessContext) Process(d *Dataset) (*Dataset, error) {
	if c.strategy == nil {
		return nil, errors.Wrap(ErrNoStrategy, "process")
	}
	return c.strategy.Process(d)
}
