// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package csv ingests delimited text with a header row into a Dataset.
package csv

import (
	"bufio"
	encsv "encoding/csv"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pilosa/rdk"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Ingestor satisfies the rdk.Ingestor interface for delimited text. The
// first line names the columns; each following line is one row. Column
// types are inferred from the data: numeric when every non-empty cell
// parses as a number, temporal when every non-empty cell parses under one
// of the configured date layouts, text otherwise. Ingestor holds only
// configuration and is safe for concurrent use.
type Ingestor struct {
	comma    rune
	layouts  []string
	maxRows  int
	encoding encoding.Encoding
}

// New creates an Ingestor for delimited text. Behavior can be adjusted by
// using Options defined in this package. e.g.
//
// ing := csv.New(csv.WithComma(';'), csv.WithLayouts("02.01.2006"))
func New(options ...Option) *Ingestor {
	ing := &Ingestor{
		comma:   ',',
		layouts: []string{"01/02/2006", "2006-01-02"},
	}
	for _, opt := range options {
		opt(ing)
	}
	return ing
}

// Option is a functional option to pass to New.
type Option func(*Ingestor)

// WithComma returns an Option which sets the field delimiter.
func WithComma(c rune) Option {
	return func(ing *Ingestor) {
		ing.comma = c
	}
}

// WithLayouts returns an Option which replaces the date layouts tried
// during temporal type inference. A column is temporal only if a single
// layout parses every non-empty cell.
func WithLayouts(layouts ...string) Option {
	return func(ing *Ingestor) {
		ing.layouts = layouts
	}
}

// WithMaxRows returns an Option which caps the number of data rows read.
// Zero or negative means no cap.
func WithMaxRows(n int) Option {
	return func(ing *Ingestor) {
		ing.maxRows = n
	}
}

// WithEncoding returns an Option which sets the character encoding of the
// source. The default is UTF-8 as-is.
func WithEncoding(enc encoding.Encoding) Option {
	return func(ing *Ingestor) {
		ing.encoding = enc
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

// open turns a URL or file path into a ReadCloser.
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

// Decode reads one delimited-text table from r. Uneven field counts, an
// empty input, and bad headers all mean the source is malformed.
func (ing *Ingestor) Decode(r io.Reader) (*rdk.Dataset, error) {
	if ing.encoding != nil {
		r = transform.NewReader(r, ing.encoding.NewDecoder())
	}
	cr := encsv.NewReader(stripBOM(bufio.NewReader(r)))
	cr.Comma = ing.comma

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrap(rdk.ErrMalformedSource, "no header row")
	}
	if err != nil {
		return nil, errors.Wrapf(rdk.ErrMalformedSource, "reading header: %v", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := validateHeader(header); err != nil {
		return nil, errors.Wrapf(rdk.ErrMalformedSource, "%v", err)
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Covers uneven field counts and quoting errors.
			return nil, errors.Wrapf(rdk.ErrMalformedSource, "reading row %d: %v", len(rows)+1, err)
		}
		rows = append(rows, row)
		if ing.maxRows > 0 && len(rows) >= ing.maxRows {
			break
		}
	}

	cols := make([]rdk.Column, len(header))
	cells := make([]string, len(rows))
	for j, name := range header {
		for i, row := range rows {
			cells[i] = strings.TrimSpace(row[j])
		}
		cols[j] = ing.buildColumn(name, cells)
	}
	return rdk.NewDataset(cols...)
}

// validateHeader rejects headers with empty or duplicate column names.
func validateHeader(header []string) error {
	fields := make(map[string]int)
	for i, h := range header {
		if h == "" {
			return errors.Errorf("header contains empty name at %d: %v", i, header)
		}
		if pos, exists := fields[h]; exists {
			return errors.Errorf("%s appeared at both %d and %d in header", h, pos, i)
		}
		fields[h] = i
	}
	return nil
}

// buildColumn infers the column type and converts cells, empty cells
// becoming the type's missing marker.
func (ing *Ingestor) buildColumn(name string, cells []string) rdk.Column {
	if vals, ok := floatCells(cells); ok {
		return rdk.NewFloatColumn(name, vals)
	}
	if vals, ok := ing.timeCells(cells); ok {
		return rdk.NewTimeColumn(name, vals)
	}
	out := make([]string, len(cells))
	copy(out, cells)
	return rdk.NewStringColumn(name, out)
}

func floatCells(cells []string) ([]float64, bool) {
	p := rdk.FloatParser{}
	vals := make([]float64, len(cells))
	seen := false
	for i, c := range cells {
		if c == "" {
			vals[i] = math.NaN()
			continue
		}
		v, err := p.Parse(c)
		if err != nil {
			return nil, false
		}
		vals[i] = v.(float64)
		seen = true
	}
	return vals, seen
}

func (ing *Ingestor) timeCells(cells []string) ([]time.Time, bool) {
	for _, layout := range ing.layouts {
		p := rdk.TimeParser{Layout: layout}
		vals := make([]time.Time, len(cells))
		seen := false
		ok := true
		for i, c := range cells {
			if c == "" {
				continue
			}
			v, err := p.Parse(c)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v.(time.Time)
			seen = true
		}
		if ok && seen {
			return vals, true
		}
	}
	return nil, false
}

// stripBOM discards a UTF-8 byte order mark if the stream starts with
// one. Spreadsheet exports often carry it.
func stripBOM(br *bufio.Reader) io.Reader {
	head, err := br.Peek(3)
	if err == nil && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}
