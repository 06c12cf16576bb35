package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DType is the inferred scalar type of a column, named after the familiar
// dataframe dtype tags.
type DType string

const (
	Int64   DType = "int64"
	Float64 DType = "float64"
	Bool    DType = "bool"
	Object  DType = "object"
)

// IsNumeric reports whether statistics over numbers apply to the column.
func (d DType) IsNumeric() bool { return d == Int64 || d == Float64 }

// IsCategorical reports whether the column holds text categories.
func (d DType) IsCategorical() bool { return d == Object }

// Column is one named column. Raw keeps the cell text for every row ("" when
// missing); Num mirrors it for numeric columns with NaN marking missing cells.
type Column struct {
	Name  string
	DType DType
	Raw   []string
	Num   []float64
}

// Missing reports whether row i holds no value.
func (c *Column) Missing(i int) bool {
	if c.DType.IsNumeric() {
		return math.IsNaN(c.Num[i])
	}
	return c.Raw[i] == ""
}

// Values returns the non-missing numeric values in row order.
func (c *Column) Values() []float64 {
	out := make([]float64, 0, len(c.Num))
	for _, v := range c.Num {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is an in-memory table loaded once per session. The column set only
// changes through AppendColumn and the row count never changes.
type Dataset struct {
	Name string
	rows int
	cols []*Column
	// index by column name
	byName map[string]int
}

// ErrColumnExists is returned by AppendColumn when replace is false.
var ErrColumnExists = errors.New("column already exists")

// FromRecords builds a Dataset from a header and string rows, inferring a
// DType per column. Short rows are padded with missing cells.
func FromRecords(name string, header []string, rows [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, errors.New("dataset has no columns")
	}
	ds := &Dataset{Name: name, rows: len(rows), byName: make(map[string]int, len(header))}
	for j, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", j)
		}
		if _, dup := ds.byName[h]; dup {
			h = fmt.Sprintf("%s.%d", h, j)
		}
		raw := make([]string, len(rows))
		for i, r := range rows {
			if j < len(r) {
				raw[i] = normalizeCell(r[j])
			}
		}
		ds.byName[h] = len(ds.cols)
		ds.cols = append(ds.cols, inferColumn(h, raw))
	}
	return ds, nil
}

// naValues mirrors the usual missing-value markers found in exported CSVs.
var naValues = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "#n/a": {}, "-nan": {}, "<na>": {},
}

func normalizeCell(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if _, ok := naValues[strings.ToLower(s)]; ok {
		return ""
	}
	return s
}

func inferColumn(name string, raw []string) *Column {
	c := &Column{Name: name, Raw: raw}
	isInt, isFloat, isBool := true, true, true
	seen := 0
	for _, v := range raw {
		if v == "" {
			continue
		}
		seen++
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			switch strings.ToLower(v) {
			case "true", "false":
			default:
				isBool = false
			}
		}
	}
	switch {
	case len(raw) == 0:
		// no rows: nothing to infer from, so no statistic treats it as numeric
		c.DType = Object
		return c
	case seen == 0:
		// an all-missing column is numeric NaN
		c.DType = Float64
	case isBool:
		c.DType = Bool
		return c
	case isInt && !hasMissing(raw):
		c.DType = Int64
	case isFloat:
		c.DType = Float64
	default:
		c.DType = Object
		return c
	}
	c.Num = make([]float64, len(raw))
	for i, v := range raw {
		if v == "" {
			c.Num[i] = math.NaN()
			continue
		}
		f, _ := strconv.ParseFloat(v, 64)
		c.Num[i] = f
	}
	return c
}

// integer columns holding missing cells are float64
func hasMissing(raw []string) bool {
	for _, v := range raw {
		if v == "" {
			return true
		}
	}
	return false
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int { return d.rows }

// Columns returns the columns in table order.
func (d *Dataset) Columns() []*Column { return d.cols }

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return d.cols[i], true
}

// NumericColumns returns int64/float64 columns in table order.
func (d *Dataset) NumericColumns() []*Column {
	var out []*Column
	for _, c := range d.cols {
		if c.DType.IsNumeric() {
			out = append(out, c)
		}
	}
	return out
}

// CategoricalColumns returns object columns in table order.
func (d *Dataset) CategoricalColumns() []*Column {
	var out []*Column
	for _, c := range d.cols {
		if c.DType.IsCategorical() {
			out = append(out, c)
		}
	}
	return out
}

// AppendColumn adds a categorical column holding one value per row. With
// replace set, an existing column of the same name is overwritten in place.
func (d *Dataset) AppendColumn(name string, values []string, replace bool) error {
	if len(values) != d.rows {
		return fmt.Errorf("append column %q: got %d values for %d rows", name, len(values), d.rows)
	}
	col := &Column{Name: name, DType: Object, Raw: append([]string(nil), values...)}
	if i, ok := d.byName[name]; ok {
		if !replace {
			return fmt.Errorf("append column %q: %w", name, ErrColumnExists)
		}
		d.cols[i] = col
		return nil
	}
	d.byName[name] = len(d.cols)
	d.cols = append(d.cols, col)
	return nil
}

// Clone returns an independent deep copy, used to give each session its own
// mutable dataset.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Name: d.Name, rows: d.rows, byName: make(map[string]int, len(d.byName))}
	for i, c := range d.cols {
		cc := &Column{Name: c.Name, DType: c.DType, Raw: append([]string(nil), c.Raw...)}
		if c.Num != nil {
			cc.Num = append([]float64(nil), c.Num...)
		}
		out.cols = append(out.cols, cc)
		out.byName[c.Name] = i
	}
	return out
}

// Header returns the column names.
func (d *Dataset) Header() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Row returns the raw cells of row i.
func (d *Dataset) Row(i int) []string {
	out := make([]string, len(d.cols))
	for j, c := range d.cols {
		out[j] = c.Raw[i]
	}
	return out
}

// Head returns at most n rows.
func (d *Dataset) Head(n int) [][]string {
	if n > d.rows {
		n = d.rows
	}
	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, d.Row(i))
	}
	return out
}

// WriteCSV serializes the dataset as comma-delimited text with a header row
// and no index column.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < d.rows; i++ {
		if err := cw.Write(d.Row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV returns WriteCSV output as a string.
func (d *Dataset) CSV() (string, error) {
	var b strings.Builder
	if err := d.WriteCSV(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}
