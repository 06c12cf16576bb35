package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KaramelBytes/askcsv/internal/dataset"
)

// Backend is one slot of the fallback chain.
type Backend struct {
	Name    string
	Model   string
	Runtime Runtime
}

// Attempt records one call to a backend.
type Attempt struct {
	Backend string
	Text    string
	Err     error
	Elapsed time.Duration
}

// OK reports whether the attempt produced text.
func (a Attempt) OK() bool { return a.Err == nil }

// Outcome is a successful chain answer.
type Outcome struct {
	Text     string
	Backend  string
	Language string
	Attempts []Attempt
}

// ChainError is returned when every backend failed. It unwraps to each
// attempt's error.
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Backend, a.Err)
	}
	return "all generative backends failed: " + strings.Join(parts, "; ")
}

func (e *ChainError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// Chain answers free-text questions with a primary backend and falls back
// to the secondary once on any primary failure. Calls are sequential.
type Chain struct {
	Primary   Backend
	Secondary Backend
	// Detector picks the prompt language; nil uses TrigramDetector.
	Detector        LanguageDetector
	DefaultLanguage string
	MaxTokens       int
	Logger          *slog.Logger
}

// Configured reports whether both slots have a runtime.
func (c *Chain) Configured() bool {
	return c.Primary.Runtime != nil && c.Secondary.Runtime != nil
}

// Answer serializes ds as CSV, builds the localized prompt and runs the
// fallback sequence. The primary's text is trimmed; the secondary's is
// returned as generated.
func (c *Chain) Answer(ctx context.Context, question string, ds *dataset.Dataset) (*Outcome, error) {
	csv, err := ds.CSV()
	if err != nil {
		return nil, fmt.Errorf("serialize dataset: %w", err)
	}
	lang := DetectLanguage(c.Detector, question, c.DefaultLanguage)
	prompt := BuildPrompt(lang, csv, question)
	return c.Run(ctx, lang, prompt)
}

// Run submits an already built prompt through the chain.
func (c *Chain) Run(ctx context.Context, lang, prompt string) (*Outcome, error) {
	log := c.logger()
	out := &Outcome{Language: lang}
	for i, b := range []Backend{c.Primary, c.Secondary} {
		a := c.attempt(ctx, b, prompt, i == 0)
		out.Attempts = append(out.Attempts, a)
		if a.OK() {
			out.Text = a.Text
			out.Backend = a.Backend
			return out, nil
		}
		log.Warn("generative backend failed", "backend", a.Backend, "elapsed", a.Elapsed, "err", a.Err)
	}
	return nil, &ChainError{Attempts: out.Attempts}
}

func (c *Chain) attempt(ctx context.Context, b Backend, prompt string, trim bool) Attempt {
	a := Attempt{Backend: b.Name}
	if a.Backend == "" {
		a.Backend = "unnamed"
	}
	if b.Runtime == nil {
		a.Err = ErrNotConfigured
		return a
	}
	if tokens, limit, over := ExceedsContext(b.Model, prompt); over {
		c.logger().Warn("prompt exceeds model context", "backend", a.Backend, "model", b.Model, "tokens", tokens, "limit", limit)
	}
	start := time.Now()
	resp, err := b.Runtime.Generate(ctx, GenerateRequest{
		Model:     b.Model,
		Messages:  []Message{{Role: "user", Content: prompt}},
		MaxTokens: c.MaxTokens,
	})
	a.Elapsed = time.Since(start)
	if err != nil {
		a.Err = err
		return a
	}
	text := resp.Text()
	if trim {
		text = strings.TrimSpace(text)
	}
	if strings.TrimSpace(text) == "" {
		a.Err = ErrEmptyResponse
		return a
	}
	a.Text = text
	c.logger().Debug("generative answer", "backend", a.Backend, "request_id", resp.RequestID, "elapsed", a.Elapsed)
	return a
}

func (c *Chain) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// IsChainError reports whether err is a full chain failure.
func IsChainError(err error) bool {
	var ce *ChainError
	return errors.As(err, &ce)
}
