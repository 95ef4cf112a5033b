// Package sqldb ingests the result rows of a database query into a
// Dataset.
package sqldb

import (
	"database/sql"
	"math"
	"time"

	"github.com/pilosa/rdk"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Ingestor satisfies the rdk.Ingestor interface for SQL databases. The
// source is a query; each result row is one dataset row and the result
// columns name the dataset columns. Integer and float results read as
// numeric, native timestamps (and text under a known layout) as temporal,
// everything else as text. The Ingestor does not own the *sql.DB it is
// given and never closes it.
type Ingestor struct {
	db      *sql.DB
	layouts []string
}

// New creates an Ingestor reading from db.
func New(db *sql.DB, options ...Option) *Ingestor {
	ing := &Ingestor{
		db:      db,
		layouts: []string{"2006-01-02 15:04:05", "2006-01-02", time.RFC3339},
	}
	for _, opt := range options {
		opt(ing)
	}
	return ing
}

// Option is a functional option to pass to New.
type Option func(*Ingestor)

// WithLayouts returns an Option which replaces the date layouts tried
// when a text column might be temporal.
func WithLayouts(layouts ...string) Option {
	return func(ing *Ingestor) {
		ing.layouts = layouts
	}
}

// Ingest implements rdk.Ingestor. A query the database rejects reads as
// source-not-found; a result that won't scan as flat rows is malformed.
func (ing *Ingestor) Ingest(query string) (*rdk.Dataset, error) {
	rows, err := ing.db.Query(query)
	if err != nil {
		return nil, errors.Wrapf(rdk.ErrSourceNotFound, "querying: %v", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "reading result columns")
	}
	var data [][]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(names))
		ptrs := make([]interface{}, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrapf(rdk.ErrMalformedSource, "scanning row %d: %v", len(data)+1, err)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(rdk.ErrMalformedSource, "iterating rows: %v", err)
	}

	cols := make([]rdk.Column, len(names))
	for j, name := range names {
		col, err := ing.buildColumn(name, j, data)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	return rdk.NewDataset(cols...)
}

// buildColumn infers the column type from the driver values, NULLs
// becoming the type's missing marker.
func (ing *Ingestor) buildColumn(name string, j int, data [][]interface{}) (rdk.Column, error) {
	vals := make([]interface{}, len(data))
	for i, row := range data {
		v := row[j]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		vals[i] = v
	}
	if out, ok := floatVals(vals); ok {
		return rdk.NewFloatColumn(name, out), nil
	}
	if out, ok := ing.timeVals(vals); ok {
		return rdk.NewTimeColumn(name, out), nil
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return rdk.Column{}, errors.Wrapf(rdk.ErrMalformedSource, "value in %q: %v", name, err)
		}
		out[i] = s
	}
	return rdk.NewStringColumn(name, out), nil
}

func floatVals(vals []interface{}) ([]float64, bool) {
	out := make([]float64, len(vals))
	seen := false
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			out[i] = math.NaN()
		case int64:
			out[i] = float64(x)
			seen = true
		case float64:
			out[i] = x
			seen = true
		default:
			return nil, false
		}
	}
	return out, seen
}

func (ing *Ingestor) timeVals(vals []interface{}) ([]time.Time, bool) {
	out := make([]time.Time, len(vals))
	seen := false
	native := true
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
		case time.Time:
			out[i] = x
			seen = true
		default:
			native = false
		}
		if !native {
			break
		}
	}
	if native && seen {
		return out, true
	}
	for _, layout := range ing.layouts {
		out := make([]time.Time, len(vals))
		seen := false
		ok := true
		for i, v := range vals {
			if v == nil {
				continue
			}
			s, isStr := v.(string)
			if !isStr {
				return nil, false
			}
			t, err := time.Parse(layout, s)
			if err != nil {
				ok = false
				break
			}
			out[i] = t
			seen = true
		}
		if ok && seen {
			return out, true
		}
	}
	return nil, false
}
