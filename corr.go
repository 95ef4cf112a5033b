package rdk

import "math"

// CorrelationColumns are the columns Correlation examines by default: the
// numeric measures of the sales dataset.
var CorrelationColumns = []string{
	"Units Sold",
	"Manufacturing Price",
	"Sale Price",
	"Gross Sales",
	"Discounts",
	"Sales",
	"Profit",
}

// Correlation computes the pairwise Pearson correlation matrix over a set
// of numeric-or-numeric-like columns. Cells holding currency-formatted
// text are normalized first; a cell that won't normalize becomes NaN and
// is simply left out of every pair involving its row (pairwise-complete
// observations). The output is square and symmetric with the configured
// column names both labelling the rows (a leading "Column" string column)
// and naming the value columns. A column with at least one valid value
// correlates 1.0 with itself; a pair with fewer than two complete rows, or
// with no variance, yields NaN.
type Correlation struct {
	Columns []string
}

// NewCorrelation returns a Correlation over CorrelationColumns.
func NewCorrelation() *Correlation {
	return &Correlation{Columns: CorrelationColumns}
}

// Process implements Processor.
func (s *Correlation) Process(d *Dataset) (*Dataset, error) {
	n := len(s.Columns)
	data := make([][]float64, n)
	for i, name := range s.Columns {
		vals, err := numericColumn(d, "correlation", name)
		if err != nil {
			return nil, err
		}
		data[i] = vals
	}
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		if countValid(data[i]) > 0 {
			matrix[i][i] = 1.0
		} else {
			matrix[i][i] = math.NaN()
		}
		for j := i + 1; j < n; j++ {
			r := pearson(data[i], data[j])
			matrix[i][j], matrix[j][i] = r, r
		}
	}
	cols := make([]Column, 0, n+1)
	labels := make([]string, n)
	copy(labels, s.Columns)
	cols = append(cols, NewStringColumn("Column", labels))
	for j, name := range s.Columns {
		vals := make([]float64, n)
		for i := 0; i < n; i++ {
			vals[i] = matrix[i][j]
		}
		cols = append(cols, NewFloatColumn(name, vals))
	}
	return NewDataset(cols...)
}

func countValid(x []float64) int {
	n := 0
	for _, v := range x {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// pearson computes the Pearson correlation of x and y over the rows where
// both are valid. The result is clamped to [-1, 1] to absorb floating
// point drift.
func pearson(x, y []float64) float64 {
	var n, sx, sy, sxx, syy, sxy float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		n++
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		syy += y[i] * y[i]
		sxy += x[i] * y[i]
	}
	if n < 2 {
		return math.NaN()
	}
	den := (n*sxx - sx*sx) * (n*syy - sy*sy)
	if den <= 0 {
		return math.NaN()
	}
	r := (n*sxy - sx*sy) / math.Sqrt(den)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}
