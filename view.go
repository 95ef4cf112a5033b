package rdk

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ChartKind names the visual encoding a view is typically rendered with.
// Rendering itself happens outside this package; the kind is carried as
// metadata for whatever drives the display.
type ChartKind string

// The chart kinds the view boundary understands.
const (
	ChartLine       ChartKind = "line"
	ChartBar        ChartKind = "bar"
	ChartStackedBar ChartKind = "stacked-bar"
	ChartScatter    ChartKind = "scatter"
	ChartHeatmap    ChartKind = "heatmap"
	ChartPie        ChartKind = "pie"
)

// Series is one line of the dynamic chart: a column name and its values
// keyed by displayed row position, 0..len(Y)-1, on the shared x axis.
type Series struct {
	Name string
	Y    []float64
}

// LineSeries returns one Series per selected column whose type is numeric,
// read from d in row order. Selected columns that are absent or not
// numeric are silently excluded - the selection is UI state and may lag
// the data. An empty dataset or selection yields an empty result, not an
// error.
func LineSeries(d *Dataset, selected []string) []Series {
	var out []Series
	for _, name := range selected {
		col, ok := d.Column(name)
		if !ok || col.Type() != TypeFloat {
			continue
		}
		y := make([]float64, col.Len())
		copy(y, col.Floats())
		out = append(out, Series{Name: name, Y: y})
	}
	return out
}

// SortSpec orders one column.
type SortSpec struct {
	Column     string
	Descending bool
}

// Filter restricts rows by one column. Expr is a small per-column
// expression: numeric and temporal columns take an operator (= != < <= >
// >=) followed by an operand, with a bare operand meaning equality; string
// columns take "= x" or "!= x" for exact matches and anything else as a
// substring match. Rows whose cell is missing never match.
type Filter struct {
	Column string
	Expr   string
}

// TableState is the live table view: per-column filters, a multi-column
// sort, and pagination. Apply produces the window of rows currently
// displayed, which is what the dynamic chart recomputes from.
type TableState struct {
	Filters  []Filter
	Sort     []SortSpec
	Page     int
	PageSize int
	Layout   string
}

// NewTableState returns a state with no filters or sort, page size 10, and
// ISO date operands.
func NewTableState() *TableState {
	return &TableState{PageSize: 10, Layout: "2006-01-02"}
}

// Apply filters, sorts, and pages d, returning the displayed window as a
// new dataset. A filter or sort naming an unknown column is an error; a
// page past the end yields an empty window. PageSize <= 0 disables
// pagination.
func (ts *TableState) Apply(d *Dataset) (*Dataset, error) {
	idx := make([]int, d.NumRows())
	for i := range idx {
		idx[i] = i
	}
	for _, f := range ts.Filters {
		col, ok := d.Column(f.Column)
		if !ok {
			return nil, errors.Errorf("filtering unknown column %q", f.Column)
		}
		match, err := ts.matcher(col, f.Expr)
		if err != nil {
			return nil, errors.Wrapf(err, "filter on %q", f.Column)
		}
		kept := idx[:0]
		for _, r := range idx {
			if match(r) {
				kept = append(kept, r)
			}
		}
		idx = kept
	}
	if len(ts.Sort) > 0 {
		cols := make([]Column, len(ts.Sort))
		for i, s := range ts.Sort {
			col, ok := d.Column(s.Column)
			if !ok {
				return nil, errors.Errorf("sorting unknown column %q", s.Column)
			}
			cols[i] = col
		}
		sort.SliceStable(idx, func(a, b int) bool {
			for i, s := range ts.Sort {
				c := compareCells(cols[i], idx[a], idx[b], s.Descending)
				if c != 0 {
					return c < 0
				}
			}
			return false
		})
	}
	if ts.PageSize > 0 {
		page := ts.Page
		if page < 0 {
			page = 0
		}
		start := page * ts.PageSize
		if start > len(idx) {
			start = len(idx)
		}
		end := start + ts.PageSize
		if end > len(idx) {
			end = len(idx)
		}
		idx = idx[start:end]
	}
	return d.Window(idx)
}

// compareCells orders rows a and b by one column. Missing cells sort after
// present ones regardless of direction, so they collect at the bottom of
// the table either way.
func compareCells(col Column, a, b int, descending bool) int {
	am, bm := col.Missing(a), col.Missing(b)
	if am || bm {
		switch {
		case am && bm:
			return 0
		case am:
			return 1
		default:
			return -1
		}
	}
	var c int
	switch col.Type() {
	case TypeFloat:
		va, vb := col.Floats()[a], col.Floats()[b]
		switch {
		case va < vb:
			c = -1
		case va > vb:
			c = 1
		}
	case TypeString:
		c = strings.Compare(col.Strings()[a], col.Strings()[b])
	case TypeTime:
		ta, tb := col.Times()[a], col.Times()[b]
		switch {
		case ta.Before(tb):
			c = -1
		case ta.After(tb):
			c = 1
		}
	}
	if descending {
		c = -c
	}
	return c
}

// splitFilterExpr peels a leading comparison operator off expr. No
// operator means equality for numeric and temporal columns and substring
// match for strings.
func splitFilterExpr(expr string) (op, operand string) {
	expr = strings.TrimSpace(expr)
	for _, o := range []string{">=", "<=", "!=", "=", ">", "<"} {
		if strings.HasPrefix(expr, o) {
			return o, strings.TrimSpace(expr[len(o):])
		}
	}
	return "", expr
}

func (ts *TableState) matcher(col Column, expr string) (func(int) bool, error) {
	op, operand := splitFilterExpr(expr)
	switch col.Type() {
	case TypeFloat:
		p := CurrencyParser{}
		v, err := p.Parse(operand)
		if err != nil {
			return nil, errors.Wrapf(err, "numeric operand %q", operand)
		}
		want := v.(float64)
		vals := col.Floats()
		return func(i int) bool {
			if math.IsNaN(vals[i]) {
				return false
			}
			return compareOrdered(op, vals[i], want)
		}, nil
	case TypeTime:
		layout := ts.Layout
		if layout == "" {
			layout = "2006-01-02"
		}
		want, err := time.Parse(layout, operand)
		if err != nil {
			return nil, errors.Wrapf(err, "temporal operand %q", operand)
		}
		vals := col.Times()
		return func(i int) bool {
			t := vals[i]
			if t.IsZero() {
				return false
			}
			switch op {
			case ">":
				return t.After(want)
			case ">=":
				return !t.Before(want)
			case "<":
				return t.Before(want)
			case "<=":
				return !t.After(want)
			case "!=":
				return !t.Equal(want)
			default:
				return t.Equal(want)
			}
		}, nil
	default:
		vals := col.Strings()
		return func(i int) bool {
			s := vals[i]
			if s == "" {
				return false
			}
			switch op {
			case "=":
				return s == operand
			case "!=":
				return s != operand
			default:
				return strings.Contains(s, operand)
			}
		}, nil
	}
}

func compareOrdered(op string, got, want float64) bool {
	switch op {
	case ">":
		return got > want
	case ">=":
		return got >= want
	case "<":
		return got < want
	case "<=":
		return got <= want
	case "!=":
		return got != want
	default:
		return got == want
	}
}
