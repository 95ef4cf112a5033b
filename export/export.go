// Package export renders datasets to portable formats: delimited text
// and JSON row objects. Both write to an io.Writer; the caller owns the
// destination.
package export

import (
	encsv "encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/pilosa/rdk"
	"github.com/pkg/errors"
)

// WriteCSV writes d to w as delimited text with a header row. Missing
// values write as empty cells.
func WriteCSV(w io.Writer, d *rdk.Dataset) error {
	cw := encsv.NewWriter(w)
	if err := cw.Write(d.Names()); err != nil {
		return errors.Wrap(err, "writing header")
	}
	row := make([]string, d.NumCols())
	for i := 0; i < d.NumRows(); i++ {
		for j := 0; j < d.NumCols(); j++ {
			row[j] = formatCell(d.ColumnAt(j), i)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing")
}

// WriteJSON writes d to w as an array of row objects. Missing values
// write as null, so the output round-trips through the json ingestor.
func WriteJSON(w io.Writer, d *rdk.Dataset) error {
	rows := make([]map[string]interface{}, d.NumRows())
	for i := range rows {
		row := make(map[string]interface{}, d.NumCols())
		for j := 0; j < d.NumCols(); j++ {
			col := d.ColumnAt(j)
			row[col.Name()] = jsonCell(col, i)
		}
		rows[i] = row
	}
	enc := json.NewEncoder(w)
	return errors.Wrap(enc.Encode(rows), "encoding")
}

func formatCell(col rdk.Column, i int) string {
	switch col.Type() {
	case rdk.TypeFloat:
		v := col.Floats()[i]
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case rdk.TypeTime:
		t := col.Times()[i]
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	default:
		return col.Strings()[i]
	}
}

func jsonCell(col rdk.Column, i int) interface{} {
	switch col.Type() {
	case rdk.TypeFloat:
		v := col.Floats()[i]
		if math.IsNaN(v) {
			return nil
		}
		return v
	case rdk.TypeTime:
		t := col.Times()[i]
		if t.IsZero() {
			return nil
		}
		return t.Format(time.RFC3339)
	default:
		return col.Strings()[i]
	}
}
