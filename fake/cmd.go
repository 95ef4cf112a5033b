package fake

import (
	"io"
	"os"

	"github.com/pilosa/rdk/export"
	"github.com/pkg/errors"
)

// Main contains the configuration for writing a generated sample file.
type Main struct {
	Rows   int    `help:"Number of rows to generate."`
	Seed   int64  `help:"Random seed. The same seed gives the same file."`
	Plain  bool   `help:"Write money columns as plain numbers instead of currency text."`
	Format string `help:"Output format: csv or json."`
	Output string `help:"Output file path. Empty writes to stdout."`

	out io.Writer
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		Rows:   700,
		Format: "csv",
		out:    os.Stdout,
	}
}

// SetOutput redirects the generated data, mainly for tests.
func (m *Main) SetOutput(w io.Writer) {
	m.out = w
}

// Run generates the sample and writes it out.
func (m *Main) Run() error {
	opts := []Option{WithSeed(m.Seed), WithRows(m.Rows)}
	if m.Plain {
		opts = append(opts, WithPlainNumbers())
	}
	d, err := New(opts...).Ingest("")
	if err != nil {
		return errors.Wrap(err, "generating")
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
