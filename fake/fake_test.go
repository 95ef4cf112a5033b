package fake_test

import (
	"testing"

	"github.com/pilosa/rdk"
	"github.com/pilosa/rdk/fake"
	"github.com/pilosa/rdk/test"
)

func TestIngest(t *testing.T) {
	d, err := fake.New(fake.WithRows(50)).Ingest("")
	test.ErrNil(t, err, "generating")

	test.MustBe(t, d.NumRows(), 50)
	test.MustBe(t, d.NumCols(), 16)

	units, _ := d.Column("Units Sold")
	test.MustBe(t, units.Type(), rdk.TypeFloat)

	// Money reads as spreadsheet-style text by default.
	sales, _ := d.Column("Sales")
	test.MustBe(t, sales.Type(), rdk.TypeString)
	if sales.Strings()[0][0] != '$' {
		t.Fatalf("expected currency text, got %q", sales.Strings()[0])
	}

	date, _ := d.Column("Date")
	test.MustBe(t, date.Type(), rdk.TypeTime)
}

func TestIngestRowCountSource(t *testing.T) {
	d, err := fake.New().Ingest("12")
	test.ErrNil(t, err, "generating")
	test.MustBe(t, d.NumRows(), 12)

	_, err = fake.New().Ingest("twelve")
	if !rdk.IsSourceNotFound(err) {
		t.Fatalf("expected source not found, got %v", err)
	}
}

func TestIngestDeterministic(t *testing.T) {
	a, err := fake.New(fake.WithSeed(42), fake.WithRows(20)).Ingest("")
	test.ErrNil(t, err, "first")
	b, err := fake.New(fake.WithSeed(42), fake.WithRows(20)).Ingest("")
	test.ErrNil(t, err, "second")

	ac, _ := a.Column("Country")
	bc, _ := b.Column("Country")
	test.MustBe(t, ac.Strings(), bc.Strings())

	as, _ := a.Column("Sales")
	bs, _ := b.Column("Sales")
	test.MustBe(t, as.Strings(), bs.Strings())
}

func TestIngestPlainNumbers(t *testing.T) {
	d, err := fake.New(fake.WithPlainNumbers(), fake.WithRows(10)).Ingest("")
	test.ErrNil(t, err, "generating")
	sales, _ := d.Column("Sales")
	test.MustBe(t, sales.Type(), rdk.TypeFloat)
}

func TestSessionOverFakeData(t *testing.T) {
	s, err := rdk.NewSession(fake.New(fake.WithSeed(1)), "200")
	test.ErrNil(t, err, "building session")

	// Every default view computes: the generated schema carries all the
	// columns the standard strategies need.
	for _, spec := range s.Views() {
		v, err := s.View(spec.Name)
		test.ErrNil(t, err, spec.Name)
		if v.NumRows() == 0 {
			t.Fatalf("view %s came back empty", spec.Name)
		}
	}

	// The correlation over generated data must be a proper matrix even
	// with currency text inputs.
	corr, err := s.View("correlation")
	test.ErrNil(t, err, "correlation")
	test.MustBe(t, corr.NumRows(), 7)
	gs, _ := corr.Column("Gross Sales")
	for _, v := range gs.Floats() {
		if v < -1 || v > 1 {
			t.Fatalf("correlation out of range: %v", v)
		}
	}
}
