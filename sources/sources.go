// Package sources builds ingestors from configuration, so command shells
// can select one by name instead of wiring constructors themselves.
package sources

import (
	"database/sql"

	"github.com/pilosa/rdk"
	"github.com/pilosa/rdk/csv"
	"github.com/pilosa/rdk/fake"
	"github.com/pilosa/rdk/json"
	"github.com/pilosa/rdk/parquet"
	"github.com/pilosa/rdk/s3"
	"github.com/pilosa/rdk/sqldb"
	"github.com/pkg/errors"
)

// Options carries the knobs the ingestor kinds understand. Zero values
// mean each kind's default.
type Options struct {
	// Layout is the date layout for csv type inference.
	Layout string

	// Driver and DSN select the database for the sql kind. The driver
	// must be linked into the binary; the rdk command registers pgx and
	// sqlite.
	Driver string
	DSN    string

	// Region is the AWS region for the s3 kind. S3Format selects how s3
	// objects decode: csv (default) or json.
	Region   string
	S3Format string

	// Seed seeds the fake kind.
	Seed int64
}

// New builds the named ingestor kind: csv, json, parquet, sql, s3, or
// fake.
func New(kind string, opts Options) (rdk.Ingestor, error) {
	switch kind {
	case "csv":
		if opts.Layout != "" {
			return csv.New(csv.WithLayouts(opts.Layout)), nil
		}
		return csv.New(), nil
	case "json":
		return json.New(), nil
	case "parquet":
		return parquet.New(), nil
	case "sql":
		if opts.Driver == "" {
			return nil, errors.New("sql ingestor needs a driver")
		}
		db, err := sql.Open(opts.Driver, opts.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		return sqldb.New(db), nil
	case "s3":
		var dec s3.Decoder
		switch opts.S3Format {
		case "", "csv":
			dec = csv.New()
		case "json":
			dec = json.New()
		default:
			return nil, errors.Errorf("unknown s3 object format %q", opts.S3Format)
		}
		if opts.Region != "" {
			return s3.New(dec, s3.WithRegion(opts.Region)), nil
		}
		return s3.New(dec), nil
	case "fake":
		return fake.New(fake.WithSeed(opts.Seed)), nil
	}
	return nil, errors.Errorf("unknown ingestor kind %q", kind)
}
