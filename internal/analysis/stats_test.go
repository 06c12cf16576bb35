package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/askcsv/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func people(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromRecords("people", []string{"age", "city"}, [][]string{
		{"20", "A"}, {"30", "A"}, {"40", "B"}, {"1000", "A"},
	})
	require.NoError(t, err)
	return ds
}

func nested(t *testing.T, r Result, outer, inner string) any {
	t.Helper()
	v, ok := r.Map.Get(outer)
	require.True(t, ok, "missing outer key %q", outer)
	m, ok := v.(Map)
	require.True(t, ok, "value under %q is %T", outer, v)
	got, ok := m.Get(inner)
	require.True(t, ok, "missing inner key %q", inner)
	return got
}

func TestDTypes(t *testing.T) {
	r := DTypes(people(t))
	assert.Equal(t, KindFlatMap, r.Kind)
	assert.Equal(t, Map{{Key: "age", Value: "int64"}, {Key: "city", Value: "object"}}, r.Map)
}

func TestRange(t *testing.T) {
	r, err := Range(people(t))
	require.NoError(t, err)
	assert.Equal(t, KindNestedMap, r.Kind)
	assert.Equal(t, []string{"age"}, r.Map.Keys())
	assert.Equal(t, 20.0, nested(t, r, "age", LabelMin))
	assert.Equal(t, 1000.0, nested(t, r, "age", LabelMax))
}

func TestCentralTendency(t *testing.T) {
	r, err := CentralTendency(people(t))
	require.NoError(t, err)
	assert.Equal(t, []string{LabelMean, LabelMedian}, r.Map.Keys())
	assert.InDelta(t, 272.5, nested(t, r, LabelMean, "age"), 1e-9)
	assert.InDelta(t, 35.0, nested(t, r, LabelMedian, "age"), 1e-9)
}

func TestVariabilityUsesSampleDenominator(t *testing.T) {
	ds, err := dataset.FromRecords("t", []string{"x"}, [][]string{{"2"}, {"4"}, {"4"}, {"4"}, {"5"}, {"5"}, {"7"}, {"9"}})
	require.NoError(t, err)
	r, err := Variability(ds)
	require.NoError(t, err)
	// sum of squared deviations is 32 over 8 values
	assert.InDelta(t, 32.0/7, nested(t, r, LabelVariance, "x"), 1e-9)
	assert.InDelta(t, math.Sqrt(32.0/7), nested(t, r, LabelStdDev, "x"), 1e-9)

	one, err := dataset.FromRecords("t", []string{"x"}, [][]string{{"2"}})
	require.NoError(t, err)
	r, err = Variability(one)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(nested(t, r, LabelStdDev, "x").(float64)))
}

func TestFrequencyOrder(t *testing.T) {
	r, err := Frequency(people(t))
	require.NoError(t, err)
	v, _ := r.Map.Get("city")
	assert.Equal(t, Map{{Key: "A", Value: 3}, {Key: "B", Value: 1}}, v)
}

func TestOutliersEndToEnd(t *testing.T) {
	r, err := Outliers(people(t))
	require.NoError(t, err)
	assert.Equal(t, KindListMap, r.Kind)
	v, _ := r.Map.Get("age")
	assert.Equal(t, []float64{1000}, v)

	lo, hi := Fences([]float64{20, 30, 40, 1000})
	assert.InDelta(t, -351.25, lo, 1e-9)
	assert.InDelta(t, 658.75, hi, 1e-9)
}

func TestOutliersBoundaryIsNotOutlier(t *testing.T) {
	// Q1=2, Q3=4, fences at -1 and 7
	ds, err := dataset.FromRecords("t", []string{"x", "y"}, [][]string{
		{"-1", "1"}, {"2", "2"}, {"3", "3"}, {"4", "4"}, {"7", "10"},
	})
	require.NoError(t, err)
	r, err := Outliers(ds)
	require.NoError(t, err)
	x, _ := r.Map.Get("x")
	assert.Equal(t, []float64{}, x)
	y, _ := r.Map.Get("y")
	assert.Equal(t, []float64{10}, y)
}

func TestOutliersIgnoreMissing(t *testing.T) {
	ds, err := dataset.FromRecords("t", []string{"x"}, [][]string{{"1"}, {""}, {"2"}, {"3"}, {"4"}, {"100"}})
	require.NoError(t, err)
	r, err := Outliers(ds)
	require.NoError(t, err)
	x, _ := r.Map.Get("x")
	assert.Equal(t, []float64{100}, x)
}

func TestCorrelation(t *testing.T) {
	ds, err := dataset.FromRecords("t", []string{"a", "b", "c"}, [][]string{
		{"1", "2", "5"}, {"2", "4", "5"}, {"3", "6", "5"}, {"4", "8", "5"},
	})
	require.NoError(t, err)
	r, err := Correlation(ds)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, nested(t, r, "a", "b"), 1e-12)
	assert.InDelta(t, 1.0, nested(t, r, "b", "b"), 1e-12)
	assert.True(t, math.IsNaN(nested(t, r, "a", "c").(float64)), "constant column has no defined correlation")
}

func TestNumericOnlyErrors(t *testing.T) {
	ds, err := dataset.FromRecords("t", []string{"city"}, [][]string{{"A"}, {"B"}})
	require.NoError(t, err)
	for name, op := range map[string]func(*dataset.Dataset) (Result, error){
		"range": Range, "central": CentralTendency, "variability": Variability,
		"outliers": Outliers, "correlation": Correlation,
	} {
		_, err := op(ds)
		assert.ErrorIs(t, err, ErrNoNumericColumns, name)
	}

	nums, err := dataset.FromRecords("t", []string{"x"}, [][]string{{"1"}})
	require.NoError(t, err)
	_, err = Frequency(nums)
	assert.ErrorIs(t, err, ErrNoCategoricalColumns)
}

func TestHeaderOnlyDatasetHasNoNumericColumns(t *testing.T) {
	ds, err := dataset.ReadCSV(strings.NewReader("age,city\n"), "empty", dataset.LoadOptions{})
	require.NoError(t, err)
	require.Zero(t, ds.NumRows())
	assert.Equal(t, Map{{Key: "age", Value: "object"}, {Key: "city", Value: "object"}}, DTypes(ds).Map)

	for name, op := range map[string]func(*dataset.Dataset) (Result, error){
		"range": Range, "central": CentralTendency, "variability": Variability,
		"outliers": Outliers, "correlation": Correlation,
	} {
		_, err := op(ds)
		assert.ErrorIs(t, err, ErrNoNumericColumns, name)
	}
	_, err = Cluster(ds, DefaultK)
	assert.ErrorIs(t, err, ErrNoNumericColumns)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestClusterInvariants(t *testing.T) {
	ds, err := dataset.FromRecords("t", []string{"x", "y", "label"}, [][]string{
		{"0", "0", "a"}, {"0", "1", "a"}, {"1", "0", "a"},
		{"10", "10", "b"}, {"10", "11", "b"}, {"11", "10", "b"},
		{"20", "0", "c"}, {"20", "1", "c"}, {"21", "0", "c"},
		{"", "5", "d"},
	})
	require.NoError(t, err)
	again := ds.Clone()

	r, err := Cluster(ds, 3)
	require.NoError(t, err)
	assert.Equal(t, KindFlatMap, r.Kind)

	col, ok := ds.Column(ClusterColumn)
	require.True(t, ok)
	assert.Equal(t, dataset.Object, col.DType)
	assert.Len(t, col.Raw, ds.NumRows())
	assert.Equal(t, "", col.Raw[9], "row with a missing value is not assigned")

	distinct := map[string]bool{}
	for i, v := range col.Raw[:9] {
		require.NotEmpty(t, v, "row %d", i)
		distinct[v] = true
	}
	assert.LessOrEqual(t, len(distinct), 3)

	total := 0
	for _, e := range r.Map {
		total += e.Value.(int)
	}
	assert.Equal(t, 9, total)

	r2, err := Cluster(again, 3)
	require.NoError(t, err)
	assert.Equal(t, r, r2, "seeding is deterministic")

	// a second run replaces the column rather than failing
	_, err = Cluster(ds, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "label", ClusterColumn}, ds.Header())
}

func TestClusterInsufficientData(t *testing.T) {
	ds, err := dataset.FromRecords("t", []string{"x"}, [][]string{{"1"}, {"2"}})
	require.NoError(t, err)
	_, err = Cluster(ds, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)

	txt, err := dataset.FromRecords("t", []string{"city"}, [][]string{{"A"}})
	require.NoError(t, err)
	_, err = Cluster(txt, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.ErrorIs(t, err, ErrNoNumericColumns)
}

func TestSuggestions(t *testing.T) {
	assert.Equal(t, []string{
		"Qual a média da coluna age?",
		"Quais os valores mais frequentes na coluna city?",
	}, Suggestions(people(t)))

	header := []string{"a", "b", "c", "d", "e", "f", "g"}
	row := []string{"1", "2", "3", "4", "5", "6", "7"}
	ds, err := dataset.FromRecords("wide", header, [][]string{row})
	require.NoError(t, err)
	assert.Len(t, Suggestions(ds), MaxSuggestions)
}
