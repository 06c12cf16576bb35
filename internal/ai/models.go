package ai

import (
	"sort"

	"github.com/KaramelBytes/askcsv/internal/utils"
)

// Model metadata used to warn when a serialized dataset will not fit the
// backend's context window. Sizes are approximate.

type ModelInfo struct {
	Name          string
	ContextTokens int
}

var models = map[string]ModelInfo{
	"gemini-2.5-flash":                   {Name: "gemini-2.5-flash", ContextTokens: 1048576},
	"gemini-2.5-flash-lite":              {Name: "gemini-2.5-flash-lite", ContextTokens: 1048576},
	"gemini-2.5-pro":                     {Name: "gemini-2.5-pro", ContextTokens: 1048576},
	"mistralai/Mistral-7B-Instruct-v0.2": {Name: "mistralai/Mistral-7B-Instruct-v0.2", ContextTokens: 32768},
	"google/gemini-2.5-flash":            {Name: "google/gemini-2.5-flash", ContextTokens: 1048576},
	"openai/gpt-4o-mini":                 {Name: "openai/gpt-4o-mini", ContextTokens: 128000},
	"meta-llama/llama-3.1-8b-instruct":   {Name: "meta-llama/llama-3.1-8b-instruct", ContextTokens: 131072},
	"llama3:latest":                      {Name: "llama3:latest", ContextTokens: 8192},
	"llama3.1:8b-instruct":               {Name: "llama3.1:8b-instruct", ContextTokens: 8192},
	"mistral:7b-instruct":                {Name: "mistral:7b-instruct", ContextTokens: 8192},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// ExceedsContext estimates prompt tokens and reports whether they overflow
// the model's window. Unknown models never overflow.
func ExceedsContext(model, prompt string) (tokens, limit int, over bool) {
	tokens = utils.CountTokens(prompt)
	mi, ok := LookupModel(model)
	if !ok {
		return tokens, 0, false
	}
	return tokens, mi.ContextTokens, tokens > mi.ContextTokens
}

// Catalog returns the known models sorted by name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
