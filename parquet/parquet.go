// Package parquet ingests Apache Parquet files into a Dataset, and can
// write a Dataset back out for interchange with columnar tooling.
package parquet

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/pilosa/rdk"
	"github.com/pkg/errors"
)

// Ingestor satisfies the rdk.Ingestor interface for Parquet files. Integer
// and floating point columns read as numeric, timestamps and dates as
// temporal, strings and booleans as text. Nulls become the column type's
// missing marker. Nested and other exotic column types mean the file is
// not usable as a flat table.
type Ingestor struct{}

// New creates a Parquet Ingestor.
func New() *Ingestor {
	return &Ingestor{}
}

// Ingest implements rdk.Ingestor. The source is a local file path.
func (ing *Ingestor) Ingest(source string) (*rdk.Dataset, error) {
	f, err := os.Open(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(rdk.ErrSourceNotFound, source)
		}
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, errors.Wrapf(rdk.ErrMalformedSource, "reading %s: %v", source, err)
	}
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, errors.Wrapf(rdk.ErrMalformedSource, "reading %s: %v", source, err)
	}
	table, err := reader.ReadTable(context.Background())
	if err != nil {
		return nil, errors.Wrapf(rdk.ErrMalformedSource, "reading %s: %v", source, err)
	}
	defer table.Release()

	d, err := fromTable(table)
	if err != nil {
		return nil, errors.Wrapf(err, "converting %s", source)
	}
	return d, nil
}

// fromTable flattens an arrow table into a Dataset.
func fromTable(table arrow.Table) (*rdk.Dataset, error) {
	schema := table.Schema()
	nrows := int(table.NumRows())
	builders := make([]colBuilder, len(schema.Fields()))
	for i, field := range schema.Fields() {
		b, err := newColBuilder(field, nrows)
		if err != nil {
			return nil, err
		}
		builders[i] = b
	}

	tr := array.NewTableReader(table, table.NumRows())
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		n := int(rec.NumRows())
		for j, col := range rec.Columns() {
			if err := builders[j].append(col, n); err != nil {
				return nil, err
			}
		}
	}
	if err := tr.Err(); err != nil {
		return nil, errors.Wrapf(rdk.ErrMalformedSource, "iterating table: %v", err)
	}

	cols := make([]rdk.Column, len(builders))
	for i, b := range builders {
		cols[i] = b.column()
	}
	d, err := rdk.NewDataset(cols...)
	if err != nil {
		return nil, errors.Wrapf(rdk.ErrMalformedSource, "%v", err)
	}
	return d, nil
}

// colBuilder accumulates one output column across record batches.
type colBuilder struct {
	name    string
	typ     rdk.Type
	floats  []float64
	strings []string
	times   []time.Time
}

func newColBuilder(field arrow.Field, nrows int) (colBuilder, error) {
	b := colBuilder{name: field.Name}
	switch field.Type.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64:
		b.typ = rdk.TypeFloat
		b.floats = make([]float64, 0, nrows)
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		b.typ = rdk.TypeTime
		b.times = make([]time.Time, 0, nrows)
	case arrow.STRING, arrow.LARGE_STRING, arrow.BOOL:
		b.typ = rdk.TypeString
		b.strings = make([]string, 0, nrows)
	default:
		return b, errors.Wrapf(rdk.ErrMalformedSource, "column %q has unsupported type %s", field.Name, field.Type)
	}
	return b, nil
}

func (b *colBuilder) append(col arrow.Array, n int) error {
	for pos := 0; pos < n; pos++ {
		if col.IsNull(pos) {
			switch b.typ {
			case rdk.TypeFloat:
				b.floats = append(b.floats, math.NaN())
			case rdk.TypeTime:
				b.times = append(b.times, time.Time{})
			default:
				b.strings = append(b.strings, "")
			}
			continue
		}
		switch col.DataType().ID() {
		case arrow.INT8:
			b.floats = append(b.floats, float64(col.(*array.Int8).Value(pos)))
		case arrow.INT16:
			b.floats = append(b.floats, float64(col.(*array.Int16).Value(pos)))
		case arrow.INT32:
			b.floats = append(b.floats, float64(col.(*array.Int32).Value(pos)))
		case arrow.INT64:
			b.floats = append(b.floats, float64(col.(*array.Int64).Value(pos)))
		case arrow.UINT8:
			b.floats = append(b.floats, float64(col.(*array.Uint8).Value(pos)))
		case arrow.UINT16:
			b.floats = append(b.floats, float64(col.(*array.Uint16).Value(pos)))
		case arrow.UINT32:
			b.floats = append(b.floats, float64(col.(*array.Uint32).Value(pos)))
		case arrow.UINT64:
			b.floats = append(b.floats, float64(col.(*array.Uint64).Value(pos)))
		case arrow.FLOAT32:
			b.floats = append(b.floats, float64(col.(*array.Float32).Value(pos)))
		case arrow.FLOAT64:
			b.floats = append(b.floats, col.(*array.Float64).Value(pos))
		case arrow.TIMESTAMP:
			unit := col.DataType().(*arrow.TimestampType).Unit
			b.times = append(b.times, col.(*array.Timestamp).Value(pos).ToTime(unit))
		case arrow.DATE32:
			b.times = append(b.times, col.(*array.Date32).Value(pos).ToTime())
		case arrow.DATE64:
			b.times = append(b.times, col.(*array.Date64).Value(pos).ToTime())
		case arrow.STRING:
			b.strings = append(b.strings, col.(*array.String).Value(pos))
		case arrow.LARGE_STRING:
			b.strings = append(b.strings, col.(*array.LargeString).Value(pos))
		case arrow.BOOL:
			if col.(*array.Boolean).Value(pos) {
				b.strings = append(b.strings, "true")
			} else {
				b.strings = append(b.strings, "false")
			}
		default:
			return errors.Wrapf(rdk.ErrMalformedSource, "column %q has unsupported type %s", b.name, col.DataType())
		}
	}
	return nil
}

func (b *colBuilder) column() rdk.Column {
	switch b.typ {
	case rdk.TypeFloat:
		return rdk.NewFloatColumn(b.name, b.floats)
	case rdk.TypeTime:
		return rdk.NewTimeColumn(b.name, b.times)
	default:
		return rdk.NewStringColumn(b.name, b.strings)
	}
}

// WriteFile writes d to path as Snappy-compressed Parquet. Missing values
// become nulls.
func WriteFile(d *rdk.Dataset, path string) error {
	mem := memory.NewGoAllocator()
	fields := make([]arrow.Field, d.NumCols())
	arrays := make([]arrow.Array, d.NumCols())
	for i := 0; i < d.NumCols(); i++ {
		col := d.ColumnAt(i)
		switch col.Type() {
		case rdk.TypeFloat:
			fields[i] = arrow.Field{Name: col.Name(), Type: arrow.PrimitiveTypes.Float64, Nullable: true}
			bld := array.NewFloat64Builder(mem)
			for _, v := range col.Floats() {
				if math.IsNaN(v) {
					bld.AppendNull()
				} else {
					bld.Append(v)
				}
			}
			arrays[i] = bld.NewArray()
			bld.Release()
		case rdk.TypeTime:
			dtype := &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
			fields[i] = arrow.Field{Name: col.Name(), Type: dtype, Nullable: true}
			bld := array.NewTimestampBuilder(mem, dtype)
			for _, t := range col.Times() {
				if t.IsZero() {
					bld.AppendNull()
					continue
				}
				ts, err := arrow.TimestampFromTime(t, arrow.Microsecond)
				if err != nil {
					bld.Release()
					return errors.Wrapf(err, "converting %v", t)
				}
				bld.Append(ts)
			}
			arrays[i] = bld.NewArray()
			bld.Release()
		default:
			fields[i] = arrow.Field{Name: col.Name(), Type: arrow.BinaryTypes.String, Nullable: true}
			bld := array.NewStringBuilder(mem)
			for _, s := range col.Strings() {
				bld.Append(s)
			}
			arrays[i] = bld.NewArray()
			bld.Release()
		}
	}
	defer func() {
		for _, a := range arrays {
			a.Release()
		}
	}()

	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, arrays, int64(d.NumRows()))
	defer rec.Release()
	table := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer table.Release()

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	writer, err := pqarrow.NewFileWriter(schema, f, props, arrowProps)
	if err != nil {
		f.Close()
		return errors.Wrap(err, "creating parquet writer")
	}
	if err := writer.WriteTable(table, table.NumRows()); err != nil {
		writer.Close()
		return errors.Wrap(err, "writing table")
	}
	return errors.Wrap(writer.Close(), "closing writer")
}
