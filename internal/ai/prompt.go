package ai

import "fmt"

// DefaultLanguage is used when detection fails or yields an unsupported language.
const DefaultLanguage = "pt"

var promptTemplates = map[string]string{
	"pt": "Você é um analista de dados. Aqui está o CSV:\n\n%s\n\nPergunta: %s\nResponda em português de forma clara.",
	"en": "You are a data analyst. Here's the CSV:\n\n%s\n\nQuestion: %s\nRespond clearly in English.",
	"es": "Eres un analista de datos. Aquí está el CSV:\n\n%s\n\nPregunta: %s\nResponde claramente en español.",
}

// SupportsLanguage reports whether a prompt template exists for lang.
func SupportsLanguage(lang string) bool {
	_, ok := promptTemplates[lang]
	return ok
}

// BuildPrompt embeds the dataset CSV and the question in the template for
// lang, using the Portuguese template for anything unsupported.
func BuildPrompt(lang, csv, question string) string {
	tpl, ok := promptTemplates[lang]
	if !ok {
		tpl = promptTemplates[DefaultLanguage]
	}
	return fmt.Sprintf(tpl, csv, question)
}
