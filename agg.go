package rdk

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// numericColumn returns the named column's values as floats. Float columns
// are copied as-is. String columns are normalized cell by cell with
// CurrencyParser so currency-formatted text still reads as numbers; a cell
// that won't parse becomes NaN rather than failing the whole transform.
// Time columns have no numeric reading and yield all NaN.
func numericColumn(d *Dataset, view, name string) ([]float64, error) {
	col, ok := d.Column(name)
	if !ok {
		return nil, MissingColumnError{Column: name, View: view}
	}
	out := make([]float64, col.Len())
	switch col.Type() {
	case TypeFloat:
		copy(out, col.Floats())
	case TypeString:
		p := CurrencyParser{}
		for i, s := range col.Strings() {
			v, err := p.Parse(s)
			if err != nil {
				out[i] = math.NaN()
				continue
			}
			out[i] = v.(float64)
		}
	case TypeTime:
		for i := range out {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// stringColumn returns the named column's values as strings for use as
// group keys. Float cells are formatted, NaN becoming the empty marker.
func stringColumn(d *Dataset, view, name string) ([]string, error) {
	col, ok := d.Column(name)
	if !ok {
		return nil, MissingColumnError{Column: name, View: view}
	}
	out := make([]string, col.Len())
	switch col.Type() {
	case TypeString:
		copy(out, col.Strings())
	case TypeFloat:
		for i, v := range col.Floats() {
			if math.IsNaN(v) {
				continue
			}
			out[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	case TypeTime:
		for i, t := range col.Times() {
			if t.IsZero() {
				continue
			}
			out[i] = t.Format("2006-01-02")
		}
	}
	return out, nil
}

// timeColumn returns the named column's values, which must be temporal.
func timeColumn(d *Dataset, view, name string) ([]time.Time, error) {
	col, ok := d.Column(name)
	if !ok {
		return nil, MissingColumnError{Column: name, View: view}
	}
	if col.Type() != TypeTime {
		return nil, errors.Errorf("%s: column %q is %s, want time", view, name, col.Type())
	}
	return col.Times(), nil
}

// groupSum sums each of the val slices grouped by key, returning the
// distinct keys in ascending order and the per-key sums in matching
// positions. NaN values contribute nothing to their group's sum.
func groupSum(keys []string, vals ...[]float64) ([]string, [][]float64) {
	sums := make(map[string][]float64, 16)
	order := make([]string, 0, 16)
	for i, k := range keys {
		acc, ok := sums[k]
		if !ok {
			acc = make([]float64, len(vals))
			sums[k] = acc
			order = append(order, k)
		}
		for j, v := range vals {
			if !math.IsNaN(v[i]) {
				acc[j] += v[i]
			}
		}
	}
	sort.Strings(order)
	out := make([][]float64, len(vals))
	for j := range out {
		out[j] = make([]float64, len(order))
		for i, k := range order {
			out[j][i] = sums[k][j]
		}
	}
	return order, out
}

// SalesTrend sums a sales column by year and month of a temporal column.
// The output has columns [Date, Year, Month, TotalSales] with Date the
// first of each month, ordered ascending by (Year, Month). Rows whose
// date is missing are left out of every group.
type SalesTrend struct {
	DateColumn  string
	SalesColumn string
}

// NewSalesTrend returns a SalesTrend over the standard column names.
func NewSalesTrend() *SalesTrend {
	return &SalesTrend{DateColumn: "Date", SalesColumn: "Sales"}
}

// Process implements Processor.
func (s *SalesTrend) Process(d *Dataset) (*Dataset, error) {
	dates, err := timeColumn(d, "sales trend", s.DateColumn)
	if err != nil {
		return nil, err
	}
	sales, err := numericColumn(d, "sales trend", s.SalesColumn)
	if err != nil {
		return nil, err
	}
	sums := make(map[int]float64, 24)
	order := make([]int, 0, 24)
	for i, t := range dates {
		if t.IsZero() {
			continue
		}
		key := t.Year()*100 + int(t.Month())
		if _, ok := sums[key]; !ok {
			sums[key] = 0
			order = append(order, key)
		}
		if !math.IsNaN(sales[i]) {
			sums[key] += sales[i]
		}
	}
	sort.Ints(order)
	n := len(order)
	outDates := make([]time.Time, n)
	years := make([]float64, n)
	months := make([]float64, n)
	totals := make([]float64, n)
	for i, key := range order {
		y, m := key/100, key%100
		outDates[i] = time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		years[i] = float64(y)
		months[i] = float64(m)
		totals[i] = sums[key]
	}
	return NewDataset(
		NewTimeColumn("Date", outDates),
		NewFloatColumn("Year", years),
		NewFloatColumn("Month", months),
		NewFloatColumn("TotalSales", totals),
	)
}

// ProfitByCountry sums a profit column per distinct country, countries
// ascending.
type ProfitByCountry struct {
	CountryColumn string
	ProfitColumn  string
}

// NewProfitByCountry returns a ProfitByCountry over the standard column
// names.
func NewProfitByCountry() *ProfitByCountry {
	return &ProfitByCountry{CountryColumn: "Country", ProfitColumn: "Profit"}
}

// Process implements Processor.
func (s *ProfitByCountry) Process(d *Dataset) (*Dataset, error) {
	countries, err := stringColumn(d, "profit by country", s.CountryColumn)
	if err != nil {
		return nil, err
	}
	profit, err := numericColumn(d, "profit by country", s.ProfitColumn)
	if err != nil {
		return nil, err
	}
	keys, sums := groupSum(countries, profit)
	return NewDataset(
		NewStringColumn(s.CountryColumn, keys),
		NewFloatColumn(s.ProfitColumn, sums[0]),
	)
}

// ProductPerformance sums sales and profit per distinct product, products
// ascending.
type ProductPerformance struct {
	ProductColumn string
	SalesColumn   string
	ProfitColumn  string
}

// NewProductPerformance returns a ProductPerformance over the standard
// column names.
func NewProductPerformance() *ProductPerformance {
	return &ProductPerformance{ProductColumn: "Product", SalesColumn: "Sales", ProfitColumn: "Profit"}
}

// Process implements Processor.
func (s *ProductPerformance) Process(d *Dataset) (*Dataset, error) {
	products, err := stringColumn(d, "product performance", s.ProductColumn)
	if err != nil {
		return nil, err
	}
	sales, err := numericColumn(d, "product performance", s.SalesColumn)
	if err != nil {
		return nil, err
	}
	profit, err := numericColumn(d, "product performance", s.ProfitColumn)
	if err != nil {
		return nil, err
	}
	keys, sums := groupSum(products, sales, profit)
	return NewDataset(
		NewStringColumn(s.ProductColumn, keys),
		NewFloatColumn(s.SalesColumn, sums[0]),
		NewFloatColumn(s.ProfitColumn, sums[1]),
	)
}

// DiscountImpact projects the discount band, sales, and profit columns
// unchanged and unaggregated. It is a column-selection strategy, not a
// groupby; downstream consumers plot the raw relationship.
type DiscountImpact struct {
	Columns []string
}

// NewDiscountImpact returns a DiscountImpact over the standard column
// names.
func NewDiscountImpact() *DiscountImpact {
	return &DiscountImpact{Columns: []string{"Discount Band", "Sales", "Profit"}}
}

// Process implements Processor.
func (s *DiscountImpact) Process(d *Dataset) (*Dataset, error) {
	out, err := d.Select(s.Columns...)
	if err != nil {
		if mce, ok := err.(MissingColumnError); ok {
			mce.View = "discount impact"
			return nil, mce
		}
		return nil, err
	}
	return out, nil
}

// CountrySales sums a sales column per distinct country, countries
// ascending.
type CountrySales struct {
	CountryColumn string
	SalesColumn   string
}

// NewCountrySales returns a CountrySales over the standard column names.
func NewCountrySales() *CountrySales {
	return &CountrySales{CountryColumn: "Country", SalesColumn: "Sales"}
}

// Process implements Processor.
func (s *CountrySales) Process(d *Dataset) (*Dataset, error) {
	countries, err := stringColumn(d, "country sales", s.CountryColumn)
	if err != nil {
		return nil, err
	}
	sales, err := numericColumn(d, "country sales", s.SalesColumn)
	if err != nil {
		return nil, err
	}
	keys, sums := groupSum(countries, sales)
	return NewDataset(
		NewStringColumn(s.CountryColumn, keys),
		NewFloatColumn(s.SalesColumn, sums[0]),
	)
}

// MonthlySales sums a sales column by calendar month of a temporal column,
// across years. Output columns [Month, MonthlySales], months ascending.
type MonthlySales struct {
	DateColumn  string
	SalesColumn string
}

// NewMonthlySales returns a MonthlySales over the standard column names.
func NewMonthlySales() *MonthlySales {
	return &MonthlySales{DateColumn: "Date", SalesColumn: "Sales"}
}

// Process implements Processor.
func (s *MonthlySales) Process(d *Dataset) (*Dataset, error) {
	dates, err := timeColumn(d, "monthly sales", s.DateColumn)
	if err != nil {
		return nil, err
	}
	sales, err := numericColumn(d, "monthly sales", s.SalesColumn)
	if err != nil {
		return nil, err
	}
	sums := make(map[int]float64, 12)
	order := make([]int, 0, 12)
	for i, t := range dates {
		if t.IsZero() {
			continue
		}
		m := int(t.Month())
		if _, ok := sums[m]; !ok {
			sums[m] = 0
			order = append(order, m)
		}
		if !math.IsNaN(sales[i]) {
			sums[m] += sales[i]
		}
	}
	sort.Ints(order)
	months := make([]float64, len(order))
	totals := make([]float64, len(order))
	for i, m := range order {
		months[i] = float64(m)
		totals[i] = sums[m]
	}
	return NewDataset(
		NewFloatColumn("Month", months),
		NewFloatColumn("MonthlySales", totals),
	)
}

// BestSellers sums units sold and sales per product and returns the top
// sellers ordered by units sold descending (products ascending on ties).
// TopN limits the output; zero or negative keeps every product.
type BestSellers struct {
	ProductColumn string
	UnitsColumn   string
	SalesColumn   string
	TopN          int
}

// NewBestSellers returns a BestSellers over the standard column names,
// keeping the top 5.
func NewBestSellers() *BestSellers {
	return &BestSellers{
		ProductColumn: "Product",
		UnitsColumn:   "Units Sold",
		SalesColumn:   "Sales",
		TopN:          5,
	}
}

// Process implements Processor.
func (s *BestSellers) Process(d *Dataset) (*Dataset, error) {
	products, err := stringColumn(d, "best sellers", s.ProductColumn)
	if err != nil {
		return nil, err
	}
	units, err := numericColumn(d, "best sellers", s.UnitsColumn)
	if err != nil {
		return nil, err
	}
	sales, err := numericColumn(d, "best sellers", s.SalesColumn)
	if err != nil {
		return nil, err
	}
	keys, sums := groupSum(products, units, sales)
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ua, ub := sums[0][idx[a]], sums[0][idx[b]]
		if ua != ub {
			return ua > ub
		}
		return keys[idx[a]] < keys[idx[b]]
	})
	if s.TopN > 0 && len(idx) > s.TopN {
		idx = idx[:s.TopN]
	}
	outKeys := make([]string, len(idx))
	outUnits := make([]float64, len(idx))
	outSales := make([]float64, len(idx))
	for i, j := range idx {
		outKeys[i] = keys[j]
		outUnits[i] = sums[0][j]
		outSales[i] = sums[1][j]
	}
	return NewDataset(
		NewStringColumn(s.ProductColumn, outKeys),
		NewFloatColumn(s.UnitsColumn, outUnits),
		NewFloatColumn(s.SalesColumn, outSales),
	)
}
