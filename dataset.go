package rdk

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Type is the scalar type of a Column.
type Type int

// The three scalar types a Column can hold.
const (
	TypeFloat Type = iota
	TypeString
	TypeTime
)

func (t Type) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeTime:
		return "time"
	}
	return "unknown"
}

// Column is a named sequence of scalar values of a single Type. Missing
// values are represented in-band: NaN for float columns, the empty string
// for string columns, and the zero time for time columns.
type Column struct {
	name    string
	typ     Type
	floats  []float64
	strings []string
	times   []time.Time
}

// NewFloatColumn returns a float column wrapping vals. The column takes
// ownership of the slice.
func NewFloatColumn(name string, vals []float64) Column {
	return Column{name: name, typ: TypeFloat, floats: vals}
}

// NewStringColumn returns a string column wrapping vals.
func NewStringColumn(name string, vals []string) Column {
	return Column{name: name, typ: TypeString, strings: vals}
}

// NewTimeColumn returns a time column wrapping vals.
func NewTimeColumn(name string, vals []time.Time) Column {
	return Column{name: name, typ: TypeTime, times: vals}
}

// Name returns the column name.
func (c Column) Name() string { return c.name }

// Type returns the column's scalar type.
func (c Column) Type() Type { return c.typ }

// Len returns the number of values in the column.
func (c Column) Len() int {
	switch c.typ {
	case TypeFloat:
		return len(c.floats)
	case TypeString:
		return len(c.strings)
	case TypeTime:
		return len(c.times)
	}
	return 0
}

// Floats returns the backing slice of a float column, nil otherwise.
// Callers must not modify the returned slice.
func (c Column) Floats() []float64 { return c.floats }

// Strings returns the backing slice of a string column, nil otherwise.
// Callers must not modify the returned slice.
func (c Column) Strings() []string { return c.strings }

// Times returns the backing slice of a time column, nil otherwise.
// Callers must not modify the returned slice.
func (c Column) Times() []time.Time { return c.times }

// Value returns the value at row i as a float64, string, or time.Time.
func (c Column) Value(i int) interface{} {
	switch c.typ {
	case TypeFloat:
		return c.floats[i]
	case TypeString:
		return c.strings[i]
	case TypeTime:
		return c.times[i]
	}
	return nil
}

// Missing reports whether the value at row i is the missing marker for the
// column's type.
func (c Column) Missing(i int) bool {
	switch c.typ {
	case TypeFloat:
		return math.IsNaN(c.floats[i])
	case TypeString:
		return c.strings[i] == ""
	case TypeTime:
		return c.times[i].IsZero()
	}
	return true
}

func (c Column) window(rows []int) Column {
	out := Column{name: c.name, typ: c.typ}
	switch c.typ {
	case TypeFloat:
		out.floats = make([]float64, len(rows))
		for i, r := range rows {
			out.floats[i] = c.floats[r]
		}
	case TypeString:
		out.strings = make([]string, len(rows))
		for i, r := range rows {
			out.strings[i] = c.strings[r]
		}
	case TypeTime:
		out.times = make([]time.Time, len(rows))
		for i, r := range rows {
			out.times[i] = c.times[r]
		}
	}
	return out
}

// Dataset is an in-memory table: an ordered sequence of named columns of
// equal length. Row order is significant and preserved unless a transform
// explicitly sorts or groups. Datasets are immutable once constructed;
// transforms produce new datasets rather than modifying their input.
type Dataset struct {
	cols   []Column
	byName map[string]int
}

// NewDataset builds a dataset from the given columns. It errors if the
// columns are not all the same length or if two share a name.
func NewDataset(cols ...Column) (*Dataset, error) {
	d := &Dataset{cols: cols, byName: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c.Name() == "" {
			return nil, errors.Errorf("column %d has no name", i)
		}
		if prev, ok := d.byName[c.Name()]; ok {
			return nil, errors.Errorf("duplicate column %q at %d and %d", c.Name(), prev, i)
		}
		d.byName[c.Name()] = i
		if c.Len() != cols[0].Len() {
			return nil, errors.Errorf("column %q has %d rows, want %d", c.Name(), c.Len(), cols[0].Len())
		}
	}
	return d, nil
}

// NumRows returns the row count. A dataset with no columns has zero rows.
func (d *Dataset) NumRows() int {
	if len(d.cols) == 0 {
		return 0
	}
	return d.cols[0].Len()
}

// NumCols returns the column count.
func (d *Dataset) NumCols() int { return len(d.cols) }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name()
	}
	return names
}

// Column returns the named column and whether it exists.
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Column{}, false
	}
	return d.cols[i], true
}

// ColumnAt returns the column at position i.
func (d *Dataset) ColumnAt(i int) Column { return d.cols[i] }

// Select returns a new dataset containing only the named columns, in the
// given order. The columns share their backing slices with the receiver. A
// name that doesn't exist yields a MissingColumnError.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]Column, len(names))
	for i, name := range names {
		c, ok := d.Column(name)
		if !ok {
			return nil, MissingColumnError{Column: name}
		}
		cols[i] = c
	}
	return NewDataset(cols...)
}

// Window returns a new dataset holding the given rows of the receiver, in
// the given order. Rows may repeat. An out of range index is an error.
func (d *Dataset) Window(rows []int) (*Dataset, error) {
	n := d.NumRows()
	for _, r := range rows {
		if r < 0 || r >= n {
			return nil, errors.Errorf("row %d out of range [0,%d)", r, n)
		}
	}
	cols := make([]Column, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c.window(rows)
	}
	return NewDataset(cols...)
}

// Concat appends the rows of the given datasets in order. All datasets
// must have identical column names and types in identical order.
func Concat(ds ...*Dataset) (*Dataset, error) {
	if len(ds) == 0 {
		return NewDataset()
	}
	first := ds[0]
	for _, d := range ds[1:] {
		if d.NumCols() != first.NumCols() {
			return nil, errors.Errorf("concat: %d columns vs %d", d.NumCols(), first.NumCols())
		}
		for i, c := range d.cols {
			f := first.cols[i]
			if c.Name() != f.Name() || c.Type() != f.Type() {
				return nil, errors.Errorf("concat: column %d is %s %s, want %s %s",
					i, c.Type(), c.Name(), f.Type(), f.Name())
			}
		}
	}
	cols := make([]Column, first.NumCols())
	for i := range cols {
		out := Column{name: first.cols[i].Name(), typ: first.cols[i].Type()}
		for _, d := range ds {
			c := d.cols[i]
			switch out.typ {
			case TypeFloat:
				out.floats = append(out.floats, c.floats...)
			case TypeString:
				out.strings = append(out.strings, c.strings...)
			case TypeTime:
				out.times = append(out.times, c.times...)
			}
		}
		cols[i] = out
	}
	return NewDataset(cols...)
}
