package rdk

import (
	"sync"

	"github.com/pkg/errors"
)

// ViewSpec registers one named derived view: the strategy that computes it
// and the chart kind it is typically rendered with.
type ViewSpec struct {
	Name     string
	Chart    ChartKind
	Strategy Processor
}

// DefaultViews returns the standard view registry for the sales dataset.
func DefaultViews() []ViewSpec {
	return []ViewSpec{
		{Name: "sales-trend", Chart: ChartLine, Strategy: NewSalesTrend()},
		{Name: "profit-by-country", Chart: ChartBar, Strategy: NewProfitByCountry()},
		{Name: "product-performance", Chart: ChartStackedBar, Strategy: NewProductPerformance()},
		{Name: "discount-impact", Chart: ChartScatter, Strategy: NewDiscountImpact()},
		{Name: "country-sales", Chart: ChartPie, Strategy: NewCountrySales()},
		{Name: "correlation", Chart: ChartHeatmap, Strategy: NewCorrelation()},
		{Name: "monthly-sales", Chart: ChartBar, Strategy: NewMonthlySales()},
		{Name: "best-sellers", Chart: ChartBar, Strategy: NewBestSellers()},
	}
}

// SessionOption is a functional option to pass to NewSession.
type SessionOption func(*Session)

// WithViews replaces the default view registry.
func WithViews(specs ...ViewSpec) SessionOption {
	return func(s *Session) {
		s.specs = specs
	}
}

// Session owns the raw dataset and the named views derived from it,
// replacing process-wide globals. It is built once at startup: ingestion
// failing fails construction, while each view computes independently and
// records its own error so the rest stay usable. After construction the
// session is read-only and safe for concurrent use.
type Session struct {
	raw   *Dataset
	specs []ViewSpec
	views map[string]*Dataset
	errs  map[string]error
}

// NewSession ingests source with the given strategy and eagerly computes
// every registered view, one goroutine per view, joining before return.
func NewSession(ing Ingestor, source string, opts ...SessionOption) (*Session, error) {
	s := &Session{
		specs: DefaultViews(),
		views: make(map[string]*Dataset),
		errs:  make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	seen := make(map[string]bool, len(s.specs))
	for _, spec := range s.specs {
		if spec.Name == "" || spec.Strategy == nil {
			return nil, errors.Errorf("view %q needs a name and a strategy", spec.Name)
		}
		if seen[spec.Name] {
			return nil, errors.Errorf("view %q registered twice", spec.Name)
		}
		seen[spec.Name] = true
	}

	ic := NewIngestContext(ing)
	raw, err := ic.Ingest(source)
	if err != nil {
		return nil, errors.Wrap(err, "ingesting source")
	}
	s.raw = raw

	results := make([]*Dataset, len(s.specs))
	failures := make([]error, len(s.specs))
	wg := sync.WaitGroup{}
	for i, spec := range s.specs {
		wg.Add(1)
		go func(i int, spec ViewSpec) {
			defer wg.Done()
			pc := NewProcessContext(spec.Strategy)
			out, err := pc.Process(raw)
			if err != nil {
				failures[i] = errors.Wrapf(err, "computing view %s", spec.Name)
				return
			}
			results[i] = out
		}(i, spec)
	}
	wg.Wait()
	for i, spec := range s.specs {
		s.views[spec.Name] = results[i]
		s.errs[spec.Name] = failures[i]
	}
	return s, nil
}

// Raw returns the raw ingested dataset.
func (s *Session) Raw() *Dataset { return s.raw }

// Views returns the registered view specs in registration order.
func (s *Session) Views() []ViewSpec {
	out := make([]ViewSpec, len(s.specs))
	copy(out, s.specs)
	return out
}

// View returns the named precomputed view, or the error its computation
// recorded. Unregistered names yield ErrUnknownView.
func (s *Session) View(name string) (*Dataset, error) {
	if _, ok := s.views[name]; !ok {
		return nil, errors.Wrap(ErrUnknownView, name)
	}
	if err := s.errs[name]; err != nil {
		return nil, err
	}
	return s.views[name], nil
}

// Series applies the table state to the raw dataset and recomputes the
// line series for the selected columns over the displayed window. A nil
// state means the whole raw dataset.
func (s *Session) Series(state *TableState, selected []string) ([]Series, error) {
	window := s.raw
	if state != nil {
		var err error
		window, err = state.Apply(s.raw)
		if err != nil {
			return nil, errors.Wrap(err, "applying table state")
		}
	}
	return LineSeries(window, selected), nil
}
