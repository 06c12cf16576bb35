package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/askcsv/internal/dataset"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Labels used as outer keys by the grouped statistics.
const (
	LabelMean     = "média"
	LabelMedian   = "mediana"
	LabelStdDev   = "desvio_padrão"
	LabelVariance = "variância"
	LabelMin      = "min"
	LabelMax      = "max"
)

// DTypes maps every column to its inferred type tag.
func DTypes(ds *dataset.Dataset) Result {
	m := make(Map, 0, len(ds.Columns()))
	for _, c := range ds.Columns() {
		m = append(m, Entry{Key: c.Name, Value: string(c.DType)})
	}
	return FlatMap(m)
}

// Range maps each numeric column to its {min, max}.
func Range(ds *dataset.Dataset) (Result, error) {
	cols, err := numeric(ds)
	if err != nil {
		return Result{}, err
	}
	m := make(Map, 0, len(cols))
	for _, c := range cols {
		vals := c.Values()
		m = append(m, Entry{Key: c.Name, Value: Map{
			{Key: LabelMin, Value: orNaN(stats.Min(vals))},
			{Key: LabelMax, Value: orNaN(stats.Max(vals))},
		}})
	}
	return NestedMap(m), nil
}

// CentralTendency returns the mean and median of each numeric column.
func CentralTendency(ds *dataset.Dataset) (Result, error) {
	cols, err := numeric(ds)
	if err != nil {
		return Result{}, err
	}
	mean := make(Map, 0, len(cols))
	median := make(Map, 0, len(cols))
	for _, c := range cols {
		vals := c.Values()
		mean = append(mean, Entry{Key: c.Name, Value: orNaN(stats.Mean(vals))})
		median = append(median, Entry{Key: c.Name, Value: orNaN(stats.Median(vals))})
	}
	return NestedMap(Map{{Key: LabelMean, Value: mean}, {Key: LabelMedian, Value: median}}), nil
}

// Variability returns the sample standard deviation and variance (n-1
// denominator) of each numeric column.
func Variability(ds *dataset.Dataset) (Result, error) {
	cols, err := numeric(ds)
	if err != nil {
		return Result{}, err
	}
	sd := make(Map, 0, len(cols))
	vr := make(Map, 0, len(cols))
	for _, c := range cols {
		vals := c.Values()
		if len(vals) < 2 {
			sd = append(sd, Entry{Key: c.Name, Value: math.NaN()})
			vr = append(vr, Entry{Key: c.Name, Value: math.NaN()})
			continue
		}
		sd = append(sd, Entry{Key: c.Name, Value: orNaN(stats.StandardDeviationSample(vals))})
		vr = append(vr, Entry{Key: c.Name, Value: orNaN(stats.SampleVariance(vals))})
	}
	return NestedMap(Map{{Key: LabelStdDev, Value: sd}, {Key: LabelVariance, Value: vr}}), nil
}

// Frequency counts category occurrences per categorical column, most
// frequent first. Ties keep first-seen order.
func Frequency(ds *dataset.Dataset) (Result, error) {
	cols := ds.CategoricalColumns()
	if len(cols) == 0 {
		return Result{}, ErrNoCategoricalColumns
	}
	m := make(Map, 0, len(cols))
	for _, c := range cols {
		counts := map[string]int{}
		var order []string
		for i, v := range c.Raw {
			if c.Missing(i) {
				continue
			}
			if _, ok := counts[v]; !ok {
				order = append(order, v)
			}
			counts[v]++
		}
		sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
		inner := make(Map, 0, len(order))
		for _, v := range order {
			inner = append(inner, Entry{Key: v, Value: counts[v]})
		}
		m = append(m, Entry{Key: c.Name, Value: inner})
	}
	return NestedMap(m), nil
}

// Outliers lists, per numeric column, the values strictly outside the
// Tukey fences Q1-1.5*IQR and Q3+1.5*IQR. Quartiles are computed over the
// column's non-missing values; values sitting on a fence are kept out of the list.
func Outliers(ds *dataset.Dataset) (Result, error) {
	cols, err := numeric(ds)
	if err != nil {
		return Result{}, err
	}
	m := make(Map, 0, len(cols))
	for _, c := range cols {
		m = append(m, Entry{Key: c.Name, Value: tukeyOutliers(c.Values())})
	}
	return ListMap(m), nil
}

// Fences returns the lower and upper Tukey fences of vals.
func Fences(vals []float64) (lo, hi float64) {
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}

func tukeyOutliers(vals []float64) []float64 {
	out := []float64{}
	if len(vals) == 0 {
		return out
	}
	lo, hi := Fences(vals)
	for _, v := range vals {
		if v < lo || v > hi {
			out = append(out, v)
		}
	}
	return out
}

// Correlation returns the pairwise Pearson matrix over numeric columns. Each
// pair uses the rows where both values are present; undefined coefficients
// stay NaN.
func Correlation(ds *dataset.Dataset) (Result, error) {
	cols, err := numeric(ds)
	if err != nil {
		return Result{}, err
	}
	m := make(Map, 0, len(cols))
	for _, a := range cols {
		inner := make(Map, 0, len(cols))
		for _, b := range cols {
			inner = append(inner, Entry{Key: b.Name, Value: pearson(a.Num, b.Num)})
		}
		m = append(m, Entry{Key: a.Name, Value: inner})
	}
	return NestedMap(m), nil
}

func pearson(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	// clamp float noise
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

func numeric(ds *dataset.Dataset) ([]*dataset.Column, error) {
	cols := ds.NumericColumns()
	if len(cols) == 0 {
		return nil, ErrNoNumericColumns
	}
	return cols, nil
}

// orNaN maps the empty-input error of the stats package to NaN.
func orNaN(v float64, err error) float64 {
	if err != nil {
		return math.NaN()
	}
	return v
}

// quantile uses linear interpolation between closest ranks on sorted input.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
