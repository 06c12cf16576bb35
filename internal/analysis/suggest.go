package analysis

import (
	"fmt"

	"github.com/KaramelBytes/askcsv/internal/dataset"
)

// MaxSuggestions caps the list returned by Suggestions.
const MaxSuggestions = 6

// Suggestions proposes starter questions that route to local statistics:
// one mean question per numeric column, then one frequency question per
// categorical column, capped at MaxSuggestions.
func Suggestions(ds *dataset.Dataset) []string {
	var out []string
	for _, c := range ds.NumericColumns() {
		out = append(out, fmt.Sprintf("Qual a média da coluna %s?", c.Name))
	}
	for _, c := range ds.CategoricalColumns() {
		out = append(out, fmt.Sprintf("Quais os valores mais frequentes na coluna %s?", c.Name))
	}
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}
