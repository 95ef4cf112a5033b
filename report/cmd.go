// Package report is the one-shot runner: ingest a source, optionally
// compute one named view, and write the result as CSV or JSON.
package report

import (
	"io"
	"os"

	"github.com/pilosa/rdk"
	"github.com/pilosa/rdk/export"
	"github.com/pilosa/rdk/sources"
	"github.com/pkg/errors"
)

// Main contains the configuration for rendering one report.
type Main struct {
	Kind     string `help:"Ingestor to read the source with: csv, json, parquet, sql, s3, or fake."`
	Source   string `help:"Source identifier: file path, URL, query, bucket/prefix, or row count for fake."`
	View     string `help:"View to compute. Empty writes the raw dataset."`
	Format   string `help:"Output format: csv or json."`
	Output   string `help:"Output file path. Empty writes to stdout."`
	Layout   string `help:"Date layout for csv type inference."`
	Driver   string `help:"Database driver for the sql ingestor."`
	DSN      string `flag:"dsn" help:"Database connection string for the sql ingestor."`
	Region   string `help:"AWS region for the s3 ingestor."`
	S3Format string `help:"Object encoding for the s3 ingestor: csv or json."`
	Seed     int64  `help:"Random seed for the fake ingestor."`

	out io.Writer
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		Kind:   "csv",
		Format: "csv",
		out:    os.Stdout,
	}
}

// SetOutput redirects the rendered report, mainly for tests.
func (m *Main) SetOutput(w io.Writer) {
	m.out = w
}

// Run renders the report.
func (m *Main) Run() error {
	ing, err := sources.New(m.Kind, sources.Options{
		Layout:   m.Layout,
		Driver:   m.Driver,
		DSN:      m.DSN,
		Region:   m.Region,
		S3Format: m.S3Format,
		Seed:     m.Seed,
	})
	if err != nil {
		return errors.Wrap(err, "building ingestor")
	}
	ic := rdk.NewIngestContext(ing)
	d, err := ic.Ingest(m.Source)
	if err != nil {
		return errors.Wrap(err, "ingesting")
	}
	if m.View != "" {
		spec, ok := findView(m.View)
		if !ok {
			return errors.Wrap(rdk.ErrUnknownView, m.View)
		}
		pc := rdk.NewProcessContext(spec.Strategy)
		d, err = pc.Process(d)
		if err != nil {
			return errors.Wrapf(err, "computing view %s", m.View)
		}
	}

	out := m.out
	if out == nil {
		out = os.Stdout
	}
	if m.Output != "" {
		f, err := os.Create(m.Output)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer f.Close()
		out = f
	}
	switch m.Format {
	case "csv":
		return export.WriteCSV(out, d)
	case "json":
		return export.WriteJSON(out, d)
	}
	return errors.Errorf("unknown format %q", m.Format)
}

func findView(name string) (rdk.ViewSpec, bool) {
	for _, spec := range rdk.DefaultViews() {
		if spec.Name == name {
			return spec, true
		}
	}
	return rdk.ViewSpec{}, false
}
