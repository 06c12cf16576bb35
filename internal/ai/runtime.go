package ai

import "context"

// Runtime is the interface implemented by generative backends (Gemini,
// Hugging Face, OpenRouter, Ollama). One call is one HTTP attempt.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderGemini      = "gemini"
	ProviderHuggingFace = "huggingface"
	ProviderOpenRouter  = "openrouter"
	ProviderOllama      = "ollama"
)
