// Package fake generates a plausible sales dataset for development and
// demos, so the rest of the system can run without a real export handy.
package fake

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/pilosa/rdk"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var segments = []string{"Government", "Midmarket", "Channel Partners", "Enterprise", "Small Business"}

var countries = []string{"Canada", "France", "Germany", "Mexico", "United States of America"}

var products = []string{"Carretera", "Montana", "Paseo", "Velo", "VTT", "Amarilla"}

// manufacturingPrice is fixed per product, as in a real catalog.
var manufacturingPrice = map[string]float64{
	"Carretera": 3, "Montana": 5, "Paseo": 10, "Velo": 120, "VTT": 250, "Amarilla": 260,
}

var salePrices = []float64{7, 12, 15, 20, 125, 300, 350}

var discountBands = []string{"None", "Low", "Medium", "High"}

// maxDiscount is the top of each band's discount rate.
var maxDiscount = map[string]float64{"None": 0, "Low": 0.05, "Medium": 0.10, "High": 0.15}

// Ingestor satisfies the rdk.Ingestor interface with generated data. The
// source is a row count, or empty for the default. Using the same seed
// gives the same rows on a given version of Go.
//
// Money columns come back as currency-formatted text like a spreadsheet
// export, which is what the processors' normalization expects to chew on;
// WithPlainNumbers turns that off.
type Ingestor struct {
	seed  int64
	rows  int
	plain bool
}

// New creates a fake Ingestor.
func New(options ...Option) *Ingestor {
	ing := &Ingestor{rows: 700}
	for _, opt := range options {
		opt(ing)
	}
	return ing
}

// Option is a functional option to pass to New.
type Option func(*Ingestor)

// WithSeed returns an Option which sets the random seed.
func WithSeed(seed int64) Option {
	return func(ing *Ingestor) {
		ing.seed = seed
	}
}

// WithRows returns an Option which sets the default row count.
func WithRows(n int) Option {
	return func(ing *Ingestor) {
		if n > 0 {
			ing.rows = n
		}
	}
}

// WithPlainNumbers returns an Option which makes money columns plain
// numeric instead of currency-formatted text.
func WithPlainNumbers() Option {
	return func(ing *Ingestor) {
		ing.plain = true
	}
}

// Ingest implements rdk.Ingestor.
func (ing *Ingestor) Ingest(source string) (*rdk.Dataset, error) {
	rows := ing.rows
	if source != "" {
		n, err := strconv.Atoi(source)
		if err != nil || n <= 0 {
			return nil, errors.Wrapf(rdk.ErrSourceNotFound, "source %q is not a row count", source)
		}
		rows = n
	}
	r := rand.New(rand.NewSource(ing.seed))
	printer := message.NewPrinter(language.English)

	segment := make([]string, rows)
	country := make([]string, rows)
	product := make([]string, rows)
	band := make([]string, rows)
	units := make([]float64, rows)
	mfgPrice := make([]float64, rows)
	salePrice := make([]float64, rows)
	gross := make([]float64, rows)
	discounts := make([]float64, rows)
	sales := make([]float64, rows)
	cogs := make([]float64, rows)
	profit := make([]float64, rows)
	dates := make([]time.Time, rows)
	monthNum := make([]float64, rows)
	monthName := make([]string, rows)
	years := make([]float64, rows)

	start := time.Date(2013, time.September, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		segment[i] = segments[r.Intn(len(segments))]
		country[i] = countries[r.Intn(len(countries))]
		product[i] = products[r.Intn(len(products))]
		band[i] = discountBands[r.Intn(len(discountBands))]
		units[i] = float64(r.Intn(8600)+400) / 2
		mfgPrice[i] = manufacturingPrice[product[i]]
		salePrice[i] = salePrices[r.Intn(len(salePrices))]

		gross[i] = units[i] * salePrice[i]
		discounts[i] = gross[i] * maxDiscount[band[i]] * r.Float64()
		sales[i] = gross[i] - discounts[i]
		cogs[i] = units[i] * salePrice[i] * (0.6 + 0.3*r.Float64())
		profit[i] = sales[i] - cogs[i]

		d := start.AddDate(0, r.Intn(16), 0)
		dates[i] = d
		monthNum[i] = float64(int(d.Month()))
		monthName[i] = d.Month().String()
		years[i] = float64(d.Year())
	}

	cols := []rdk.Column{
		rdk.NewStringColumn("Segment", segment),
		rdk.NewStringColumn("Country", country),
		rdk.NewStringColumn("Product", product),
		rdk.NewStringColumn("Discount Band", band),
		rdk.NewFloatColumn("Units Sold", units),
		rdk.NewFloatColumn("Manufacturing Price", mfgPrice),
		rdk.NewFloatColumn("Sale Price", salePrice),
		moneyColumn(printer, "Gross Sales", gross, ing.plain),
		moneyColumn(printer, "Discounts", discounts, ing.plain),
		moneyColumn(printer, "Sales", sales, ing.plain),
		moneyColumn(printer, "COGS", cogs, ing.plain),
		moneyColumn(printer, "Profit", profit, ing.plain),
		rdk.NewTimeColumn("Date", dates),
		rdk.NewFloatColumn("Month Number", monthNum),
		rdk.NewStringColumn("Month Name", monthName),
		rdk.NewFloatColumn("Year", years),
	}
	return rdk.NewDataset(cols...)
}

func moneyColumn(p *message.Printer, name string, vals []float64, plain bool) rdk.Column {
	if plain {
		return rdk.NewFloatColumn(name, vals)
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		if v < 0 {
			out[i] = p.Sprintf("$(%.2f)", -v)
		} else {
			out[i] = p.Sprintf("$%.2f", v)
		}
	}
	return rdk.NewStringColumn(name, out)
}
