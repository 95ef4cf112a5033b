package json_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pilosa/rdk"
	"github.com/pilosa/rdk/json"
	"github.com/pilosa/rdk/test"
)

func mustWriteFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestIngestArray(t *testing.T) {
	path := mustWriteFile(t, `[
  {"Country": "Canada", "Sales": 100, "Date": "2020-01-05"},
  {"Country": "France", "Sales": 50.5, "Date": "2020-02-01"}
]`)
	d, err := json.New().Ingest(path)
	test.ErrNil(t, err, "ingesting")

	// Columns come back in name order.
	test.MustBe(t, d.Names(), []string{"Country", "Date", "Sales"})
	test.MustBe(t, d.NumRows(), 2)

	sales, _ := d.Column("Sales")
	test.MustBe(t, sales.Type(), rdk.TypeFloat)
	test.FloatsNear(t, sales.Floats(), []float64{100, 50.5}, 0)

	date, _ := d.Column("Date")
	test.MustBe(t, date.Type(), rdk.TypeTime)
	if !date.Times()[0].Equal(time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("wrong date: %v", date.Times()[0])
	}
}

func TestIngestStream(t *testing.T) {
	path := mustWriteFile(t, `{"A": 1}
{"A": 2}
{"A": 3}
`)
	d, err := json.New().Ingest(path)
	test.ErrNil(t, err, "ingesting")
	test.MustBe(t, d.NumRows(), 3)
	a, _ := d.Column("A")
	test.FloatsNear(t, a.Floats(), []float64{1, 2, 3}, 0)
}

func TestIngestUnevenKeys(t *testing.T) {
	path := mustWriteFile(t, `[
  {"A": 1, "B": "x"},
  {"A": null},
  {"B": "y", "C": true}
]`)
	d, err := json.New().Ingest(path)
	test.ErrNil(t, err, "ingesting")

	test.MustBe(t, d.Names(), []string{"A", "B", "C"})
	a, _ := d.Column("A")
	test.MustBe(t, a.Type(), rdk.TypeFloat)
	if !math.IsNaN(a.Floats()[1]) || !math.IsNaN(a.Floats()[2]) {
		t.Fatalf("absent and null cells should be NaN: %v", a.Floats())
	}

	b, _ := d.Column("B")
	test.MustBe(t, b.Strings(), []string{"x", "", "y"})

	// Booleans read as text.
	c, _ := d.Column("C")
	test.MustBe(t, c.Strings(), []string{"", "", "true"})
}

func TestIngestMalformed(t *testing.T) {
	cases := map[string]string{
		"nested object": `[{"A": {"B": 1}}]`,
		"nested array":  `[{"A": [1, 2]}]`,
		"not objects":   `[1, 2]`,
		"truncated":     `{"A": 1`,
		"empty":         ``,
	}
	for name, content := range cases {
		path := mustWriteFile(t, content)
		_, err := json.New().Ingest(path)
		if !rdk.IsMalformedSource(err) {
			t.Fatalf("%s: expected malformed source, got %v", name, err)
		}
	}
}

func TestIngestNotFound(t *testing.T) {
	_, err := json.New().Ingest("/no/such/file.json")
	if !rdk.IsSourceNotFound(err) {
		t.Fatalf("expected source not found, got %v", err)
	}
}

func TestIngestMixedTypesAreText(t *testing.T) {
	path := mustWriteFile(t, `[{"V": 1}, {"V": "two"}]`)
	d, err := json.New().Ingest(path)
	test.ErrNil(t, err, "ingesting")
	v, _ := d.Column("V")
	test.MustBe(t, v.Type(), rdk.TypeString)
	test.MustBe(t, v.Strings(), []string{"1", "two"})
}

func TestDecode(t *testing.T) {
	d, err := json.New().Decode(strings.NewReader(`[{"TS": "2020-01-05T10:30:00Z"}]`))
	test.ErrNil(t, err, "decoding")
	ts, _ := d.Column("TS")
	test.MustBe(t, ts.Type(), rdk.TypeTime)
	if ts.Times()[0].Hour() != 10 {
		t.Fatalf("wrong hour: %v", ts.Times()[0])
	}
}

func TestIngestFeedsProcessors(t *testing.T) {
	path := mustWriteFile(t, `[
  {"Country": "Canada", "Profit": 10},
  {"Country": "Canada", "Profit": 5},
  {"Country": "France", "Profit": 7}
]`)
	d, err := json.New().Ingest(path)
	test.ErrNil(t, err, "ingesting")

	out, err := rdk.NewProfitByCountry().Process(d)
	test.ErrNil(t, err, "processing")
	countries, _ := out.Column("Country")
	profit, _ := out.Column("Profit")
	test.MustBe(t, countries.Strings(), []string{"Canada", "France"})
	test.FloatsNear(t, profit.Floats(), []float64{15, 7}, 1e-9)
}
