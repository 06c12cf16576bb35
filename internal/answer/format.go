package answer

import (
	"strconv"

	"github.com/KaramelBytes/askcsv/internal/analysis"
)

// Format lays out any analysis result as a Table. It never fails: shapes
// that do not fit their tag fall back to one "key, text" row per entry.
// title labels scalar and text results; empty means DefaultTitle.
func Format(r analysis.Result, title string) *Table {
	if title == "" {
		title = DefaultTitle
	}
	var t *Table
	switch r.Kind {
	case analysis.KindScalar, analysis.KindText:
		return single(title, r.Value)
	case analysis.KindFlatMap:
		t = flat(r.Map)
	case analysis.KindNestedMap:
		t = nested(r.Map)
	case analysis.KindListMap:
		t = lists(r.Map)
	}
	if t == nil {
		t = fallback(r.Map)
	}
	t.Title = title
	return t
}

// FromText wraps a generated answer.
func FromText(text string) *Table {
	return &Table{Columns: []string{TextColumn}, Rows: [][]any{{text}}}
}

func single(title string, v any) *Table {
	return &Table{Title: title, Columns: []string{title}, Rows: [][]any{{v}}}
}

func flat(m analysis.Map) *Table {
	t := &Table{Columns: []string{LabelColumn, ValueColumn}, Rows: make([][]any, 0, len(m))}
	for _, e := range m {
		if !isScalar(e.Value) {
			return nil
		}
		t.Rows = append(t.Rows, []any{e.Key, e.Value})
	}
	return t
}

// nested puts one row per outer key and one column per inner key, in
// first-seen order. Inner keys absent from a row leave a nil cell.
func nested(m analysis.Map) *Table {
	var inner []string
	pos := map[string]int{}
	for _, e := range m {
		sub, ok := e.Value.(analysis.Map)
		if !ok {
			return nil
		}
		for _, ie := range sub {
			if !isScalar(ie.Value) {
				return nil
			}
			if _, seen := pos[ie.Key]; !seen {
				pos[ie.Key] = len(inner)
				inner = append(inner, ie.Key)
			}
		}
	}
	t := &Table{Columns: append([]string{LabelColumn}, inner...), Rows: make([][]any, 0, len(m))}
	for _, e := range m {
		row := make([]any, len(inner)+1)
		row[0] = e.Key
		for _, ie := range e.Value.(analysis.Map) {
			row[pos[ie.Key]+1] = ie.Value
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// lists turns equal-length sequences into positional columns "0".."n-1".
func lists(m analysis.Map) *Table {
	width := -1
	for _, e := range m {
		vals, ok := e.Value.([]float64)
		if !ok {
			return nil
		}
		if width >= 0 && len(vals) != width {
			return nil
		}
		width = len(vals)
	}
	if width < 0 {
		width = 0
	}
	cols := []string{LabelColumn}
	for i := 0; i < width; i++ {
		cols = append(cols, strconv.Itoa(i))
	}
	t := &Table{Columns: cols, Rows: make([][]any, 0, len(m))}
	for _, e := range m {
		row := []any{e.Key}
		for _, v := range e.Value.([]float64) {
			row = append(row, v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func fallback(m analysis.Map) *Table {
	t := &Table{Columns: []string{LabelColumn, ValueColumn}, Rows: make([][]any, 0, len(m))}
	for _, e := range m {
		t.Rows = append(t.Rows, []any{e.Key, ValueString(e.Value)})
	}
	return t
}

func isScalar(v any) bool {
	switch v.(type) {
	case analysis.Map, []float64, map[string]any, []any:
		return false
	}
	return true
}
