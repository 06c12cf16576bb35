package answer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/askcsv/internal/analysis"
)

// Column names shared by every formatted answer.
const (
	LabelColumn  = "Variável"
	ValueColumn  = "Valor"
	TextColumn   = "Resposta"
	DefaultTitle = "Resumo"
)

// Table is the single shape every answer takes before it is cached, shown or
// exported. Cells hold float64, int, string, bool or nil.
type Table struct {
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`
	Columns []string `json:"columns" yaml:"columns"`
	Rows    [][]any  `json:"rows" yaml:"rows"`
}

// Cell returns the value at row i, column name.
func (t *Table) Cell(i int, name string) (any, bool) {
	if i < 0 || i >= len(t.Rows) {
		return nil, false
	}
	for j, c := range t.Columns {
		if c == name {
			if j < len(t.Rows[i]) {
				return t.Rows[i][j], true
			}
			return nil, true
		}
	}
	return nil, false
}

// Records renders the table as text rows, header first, for delimited output.
// Missing and NaN cells become empty strings.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Columns...))
	for _, r := range t.Rows {
		rec := make([]string, len(t.Columns))
		for j := range rec {
			if j < len(r) {
				rec[j] = CellString(r[j])
			}
		}
		out = append(out, rec)
	}
	return out
}

// ToDict returns column -> row index -> value, the layout used by the
// history export.
func (t *Table) ToDict() map[string]map[string]any {
	out := make(map[string]map[string]any, len(t.Columns))
	for j, c := range t.Columns {
		col := make(map[string]any, len(t.Rows))
		for i, r := range t.Rows {
			var v any
			if j < len(r) {
				v = jsonSafe(r[j])
			}
			col[strconv.Itoa(i)] = v
		}
		out[c] = col
	}
	return out
}

// ChartColumns names the label and first value column a chart would plot.
// Only tables with a label column and at least one value column qualify.
func (t *Table) ChartColumns() (label, value string, ok bool) {
	if len(t.Columns) < 2 || t.Columns[0] != LabelColumn {
		return "", "", false
	}
	return t.Columns[0], t.Columns[1], true
}

// Markdown renders the table as a GitHub-style pipe table.
func (t *Table) Markdown() string {
	var b strings.Builder
	if len(t.Columns) == 0 {
		return ""
	}
	b.WriteString("| " + strings.Join(escapeAll(t.Columns), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Columns)) + "\n")
	for _, rec := range t.Records()[1:] {
		b.WriteString("| " + strings.Join(escapeAll(rec), " | ") + " |\n")
	}
	return b.String()
}

func escapeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		s = strings.ReplaceAll(s, "|", `\|`)
		out[i] = strings.ReplaceAll(s, "\n", " ")
	}
	return out
}

// MarshalJSON writes NaN and infinite cells as null.
func (t Table) MarshalJSON() ([]byte, error) {
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = make([]any, len(r))
		for j, v := range r {
			rows[i][j] = jsonSafe(v)
		}
	}
	type plain Table
	return json.Marshal(plain{Title: t.Title, Columns: t.Columns, Rows: rows})
}

func jsonSafe(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

// CellString formats a cell the way delimited exports expect.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return ValueString(v)
	}
}

// ValueString is the lossy text form used by the fallback layout.
func ValueString(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case float64:
		if math.IsNaN(x) {
			return "nan"
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = ValueString(f)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case analysis.Map:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = fmt.Sprintf("'%s': %s", e.Key, ValueString(e.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(x)
	}
}
