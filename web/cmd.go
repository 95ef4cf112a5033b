package web

import (
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/pilosa/rdk"
	"github.com/pilosa/rdk/sources"
	"github.com/pkg/errors"
)

// Main contains the configuration for serving a session over HTTP.
type Main struct {
	Bind     string `help:"Address to serve HTTP on."`
	Kind     string `help:"Ingestor to read the source with: csv, json, parquet, sql, s3, or fake."`
	Source   string `help:"Source identifier: file path, URL, query, bucket/prefix, or row count for fake."`
	Layout   string `help:"Date layout for csv type inference."`
	Driver   string `help:"Database driver for the sql ingestor."`
	DSN      string `flag:"dsn" help:"Database connection string for the sql ingestor."`
	Region   string `help:"AWS region for the s3 ingestor."`
	S3Format string `help:"Object encoding for the s3 ingestor: csv or json."`
	Seed     int64  `help:"Random seed for the fake ingestor."`

	logOutput io.Writer
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		Bind:      ":8080",
		Kind:      "csv",
		logOutput: os.Stdout,
	}
}

// SetOutput redirects the request log, mainly for tests.
func (m *Main) SetOutput(w io.Writer) {
	m.logOutput = w
}

// Run ingests the source, computes every registered view, and serves
// until the listener fails.
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
	log.Printf("ingesting %s source %q", m.Kind, m.Source)
	session, err := rdk.NewSession(ing, m.Source)
	if err != nil {
		return errors.Wrap(err, "building session")
	}
	for _, spec := range session.Views() {
		if _, err := session.View(spec.Name); err != nil {
			log.Printf("view %s unavailable: %v", spec.Name, err)
		}
	}
	srv, err := NewServer(session)
	if err != nil {
		return errors.Wrap(err, "building server")
	}
	out := m.logOutput
	if out == nil {
		out = os.Stdout
	}
	log.Printf("serving on %s", m.Bind)
	return http.ListenAndServe(m.Bind, handlers.CombinedLoggingHandler(out, srv))
}
