package csv_test

import (
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pilosa/rdk"
	"github.com/pilosa/rdk/csv"
	"github.com/pilosa/rdk/test"
	"golang.org/x/text/encoding/charmap"
)

func mustWriteFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestIngest(t *testing.T) {
	path := mustWriteFile(t, `Country,Units Sold,Gross Sales,Date
Canada,1618,"$32,370.00",01/01/2014
Germany,1321,"$26,420.00",06/01/2014
`)
	d, err := csv.New().Ingest(path)
	test.ErrNil(t, err, "ingesting")

	test.MustBe(t, d.Names(), []string{"Country", "Units Sold", "Gross Sales", "Date"})
	test.MustBe(t, d.NumRows(), 2)

	country, _ := d.Column("Country")
	test.MustBe(t, country.Type(), rdk.TypeString)

	units, _ := d.Column("Units Sold")
	test.MustBe(t, units.Type(), rdk.TypeFloat)
	test.FloatsNear(t, units.Floats(), []float64{1618, 1321}, 0)

	// Currency text is not plain numeric, so it stays text for the
	// processors to normalize.
	gross, _ := d.Column("Gross Sales")
	test.MustBe(t, gross.Type(), rdk.TypeString)
	test.MustBe(t, gross.Strings(), []string{"$32,370.00", "$26,420.00"})

	date, _ := d.Column("Date")
	test.MustBe(t, date.Type(), rdk.TypeTime)
	if !date.Times()[1].Equal(time.Date(2014, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("wrong date: %v", date.Times()[1])
	}
}

func TestIngestEmptyCells(t *testing.T) {
	path := mustWriteFile(t, `Sales,Date,Note
100,2020-01-15,a
,,
30,2020-02-10,b
`)
	d, err := csv.New().Ingest(path)
	test.ErrNil(t, err, "ingesting")

	sales, _ := d.Column("Sales")
	test.MustBe(t, sales.Type(), rdk.TypeFloat)
	if !math.IsNaN(sales.Floats()[1]) {
		t.Fatalf("empty numeric cell should be NaN, got %v", sales.Floats()[1])
	}

	date, _ := d.Column("Date")
	test.MustBe(t, date.Type(), rdk.TypeTime)
	if !date.Times()[1].IsZero() {
		t.Fatalf("empty temporal cell should be zero, got %v", date.Times()[1])
	}

	note, _ := d.Column("Note")
	test.MustBe(t, note.Strings(), []string{"a", "", "b"})
}

func TestIngestMixedColumnIsText(t *testing.T) {
	path := mustWriteFile(t, `V
1
two
3
`)
	d, err := csv.New().Ingest(path)
	test.ErrNil(t, err, "ingesting")
	v, _ := d.Column("V")
	test.MustBe(t, v.Type(), rdk.TypeString)
}

func TestIngestAllEmptyColumnIsText(t *testing.T) {
	path := mustWriteFile(t, `A,B
1,
2,
`)
	d, err := csv.New().Ingest(path)
	test.ErrNil(t, err, "ingesting")
	b, _ := d.Column("B")
	test.MustBe(t, b.Type(), rdk.TypeString)
}

func TestIngestNotFound(t *testing.T) {
	_, err := csv.New().Ingest("/no/such/file.csv")
	if !rdk.IsSourceNotFound(err) {
		t.Fatalf("expected source not found, got %v", err)
	}
}

func TestIngestMalformed(t *testing.T) {
	cases := map[string]string{
		"ragged":           "A,B\n1,2\n3\n",
		"duplicate header": "A,A\n1,2\n",
		"empty header":     "A,\n1,2\n",
		"empty input":      "",
	}
	for name, content := range cases {
		path := mustWriteFile(t, content)
		_, err := csv.New().Ingest(path)
		if !rdk.IsMalformedSource(err) {
			t.Fatalf("%s: expected malformed source, got %v", name, err)
		}
	}
}

func TestIngestHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("A,B\n1,x\n2,y\n"))
	}))
	defer srv.Close()

	d, err := csv.New().Ingest(srv.URL + "/data.csv")
	test.ErrNil(t, err, "ingesting over http")
	test.MustBe(t, d.NumRows(), 2)

	_, err = csv.New().Ingest(srv.URL + "/missing.csv")
	if !rdk.IsSourceNotFound(err) {
		t.Fatalf("expected source not found for 404, got %v", err)
	}
}

func TestIngestBOM(t *testing.T) {
	path := mustWriteFile(t, "\xEF\xBB\xBFA,B\n1,2\n")
	d, err := csv.New().Ingest(path)
	test.ErrNil(t, err, "ingesting")
	test.MustBe(t, d.Names(), []string{"A", "B"})
}

func TestIngestComma(t *testing.T) {
	path := mustWriteFile(t, "A;B\n1;2\n")
	d, err := csv.New(csv.WithComma(';')).Ingest(path)
	test.ErrNil(t, err, "ingesting")
	test.MustBe(t, d.Names(), []string{"A", "B"})
	a, _ := d.Column("A")
	test.MustBe(t, a.Type(), rdk.TypeFloat)
}

func TestIngestMaxRows(t *testing.T) {
	path := mustWriteFile(t, "A\n1\n2\n3\n4\n")
	d, err := csv.New(csv.WithMaxRows(2)).Ingest(path)
	test.ErrNil(t, err, "ingesting")
	test.MustBe(t, d.NumRows(), 2)
}

func TestIngestEncoding(t *testing.T) {
	// "Café" in Latin-1: the é is a single 0xE9 byte.
	path := mustWriteFile(t, "Name\nCaf\xE9\n")
	d, err := csv.New(csv.WithEncoding(charmap.Windows1252)).Ingest(path)
	test.ErrNil(t, err, "ingesting")
	name, _ := d.Column("Name")
	test.MustBe(t, name.Strings(), []string{"Café"})
}

func TestIngestLayouts(t *testing.T) {
	path := mustWriteFile(t, "D\n15.01.2020\n")
	d, err := csv.New(csv.WithLayouts("02.01.2006")).Ingest(path)
	test.ErrNil(t, err, "ingesting")
	col, _ := d.Column("D")
	test.MustBe(t, col.Type(), rdk.TypeTime)
	if !col.Times()[0].Equal(time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("wrong date: %v", col.Times()[0])
	}
}

func TestSalesTrendEndToEnd(t *testing.T) {
	path := mustWriteFile(t, `Date,Sales
2020-01-05,100
2020-01-20,50
2020-02-01,30
`)
	d, err := csv.New().Ingest(path)
	test.ErrNil(t, err, "ingesting")

	out, err := rdk.NewSalesTrend().Process(d)
	test.ErrNil(t, err, "processing")
	test.MustBe(t, out.NumRows(), 2)

	dates, _ := out.Column("Date")
	years, _ := out.Column("Year")
	months, _ := out.Column("Month")
	totals, _ := out.Column("TotalSales")
	if !dates.Times()[0].Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("wrong first bucket: %v", dates.Times()[0])
	}
	test.FloatsNear(t, years.Floats(), []float64{2020, 2020}, 0)
	test.FloatsNear(t, months.Floats(), []float64{1, 2}, 0)
	test.FloatsNear(t, totals.Floats(), []float64{150, 30}, 1e-9)
}

func TestMissingColumnIsolation(t *testing.T) {
	// No Sales column: views that need it fail, views that don't are fine.
	path := mustWriteFile(t, `Country,Profit,Date
Canada,100,2020-01-05
France,200,2020-02-01
`)
	s, err := rdk.NewSession(csv.New(), path)
	test.ErrNil(t, err, "building session")

	v, err := s.View("profit-by-country")
	test.ErrNil(t, err, "profit-by-country")
	test.MustBe(t, v.NumRows(), 2)

	_, err = s.View("sales-trend")
	if !rdk.IsMissingColumn(err) {
		t.Fatalf("expected missing column, got %v", err)
	}
}
