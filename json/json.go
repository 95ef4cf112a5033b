// Package json ingests JSON records into a Dataset.
package json

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pilosa/rdk"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Ingestor satisfies the rdk.Ingestor interface for JSON data: either one
// array of flat objects or a stream of flat objects one after another
// (newline-delimited works). Each object is a row; the column set is the
// union of keys across all objects, ordered by name so repeated ingests of
// the same data agree. Values must be scalars - a nested object or array
// means the source is not tabular.
type Ingestor struct {
	layouts []string
}

// New creates an Ingestor for JSON records.
func New(options ...Option) *Ingestor {
	ing := &Ingestor{
		layouts: []string{time.RFC3339, "2006-01-02"},
	}
	for _, opt := range options {
		opt(ing)
	}
	return ing
}

// Option is a functional option to pass to New.
type Option func(*Ingestor)

// WithLayouts returns an Option which replaces the date layouts tried
// during temporal type inference on string values.
func WithLayouts(layouts ...string) Option {
	return func(ing *Ingestor) {
		ing.layouts = layouts
	}
}

// Ingest implements rdk.Ingestor. The source may be an HTTP URL or a
// local file path.
func (ing *Ingestor) Ingest(source string) (*rdk.Dataset, error) {
	content, err := open(source)
	if err != nil {
		return nil, err
	}
	defer content.Close()
	d, err := ing.Decode(content)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", source)
	}
	return d, nil
}

func open(source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http") {
		resp, err := http.Get(source)
		if err != nil {
			return nil, errors.Wrap(err, "getting via http")
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, errors.Wrapf(rdk.ErrSourceNotFound, "getting %s: %s", source, resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Errorf("getting %s: %s", source, resp.Status)
		}
		return resp.Body, nil
	}
	f, err := os.Open(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(rdk.ErrSourceNotFound, source)
		}
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

// Decode reads all records from r and builds the dataset.
func (ing *Ingestor) Decode(r io.Reader) (*rdk.Dataset, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool)
	for _, rec := range records {
		for k, v := range rec {
			switch v.(type) {
			case map[string]interface{}, []interface{}:
				return nil, errors.Wrapf(rdk.ErrMalformedSource, "nested value under %q", k)
			}
			keys[k] = true
		}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	cols := make([]rdk.Column, len(names))
	for j, name := range names {
		col, err := ing.buildColumn(name, records)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	return rdk.NewDataset(cols...)
}

func readRecords(r io.Reader) ([]map[string]interface{}, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading")
	}
	buf = bytes.TrimLeft(buf, " \t\r\n")
	if len(buf) == 0 {
		return nil, errors.Wrap(rdk.ErrMalformedSource, "empty input")
	}

	if buf[0] == '[' {
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		var records []map[string]interface{}
		if err := dec.Decode(&records); err != nil {
			return nil, errors.Wrapf(rdk.ErrMalformedSource, "decoding array: %v", err)
		}
		return records, nil
	}

	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var records []map[string]interface{}
	for {
		var rec map[string]interface{}
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(rdk.ErrMalformedSource, "decoding record %d: %v", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// buildColumn infers the column type across records. Absent keys and
// nulls become the type's missing marker.
func (ing *Ingestor) buildColumn(name string, records []map[string]interface{}) (rdk.Column, error) {
	if vals, ok := floatValues(name, records); ok {
		return rdk.NewFloatColumn(name, vals), nil
	}
	if vals, ok := ing.timeValues(name, records); ok {
		return rdk.NewTimeColumn(name, vals), nil
	}
	vals := make([]string, len(records))
	for i, rec := range records {
		v, ok := rec[name]
		if !ok || v == nil {
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return rdk.Column{}, errors.Wrapf(rdk.ErrMalformedSource, "value under %q: %v", name, err)
		}
		vals[i] = s
	}
	return rdk.NewStringColumn(name, vals), nil
}

func floatValues(name string, records []map[string]interface{}) ([]float64, bool) {
	vals := make([]float64, len(records))
	seen := false
	for i, rec := range records {
		v, ok := rec[name]
		if !ok || v == nil {
			vals[i] = math.NaN()
			continue
		}
		num, ok := v.(json.Number)
		if !ok {
			return nil, false
		}
		f, err := num.Float64()
		if err != nil {
			return nil, false
		}
		vals[i] = f
		seen = true
	}
	return vals, seen
}

func (ing *Ingestor) timeValues(name string, records []map[string]interface{}) ([]time.Time, bool) {
	for _, layout := range ing.layouts {
		vals := make([]time.Time, len(records))
		seen := false
		ok := true
		for i, rec := range records {
			v, present := rec[name]
			if !present || v == nil {
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
			vals[i] = t
			seen = true
		}
		if ok && seen {
			return vals, true
		}
	}
	return nil, false
}
