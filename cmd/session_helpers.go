package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/KaramelBytes/askcsv/internal/ai"
	"github.com/KaramelBytes/askcsv/internal/answer"
	cfgpkg "github.com/KaramelBytes/askcsv/internal/config"
	"github.com/KaramelBytes/askcsv/internal/dataset"
	"github.com/KaramelBytes/askcsv/internal/session"
)

func providerNames() []string { return ai.Providers() }

func knownProvider(name string) bool {
	for _, p := range ai.Providers() {
		if p == name {
			return true
		}
	}
	return false
}

// backendFor resolves one chain slot from the config. An unknown provider
// name is an error; a known one always yields a runtime.
func backendFor(provider string, c *cfgpkg.Global) (ai.Backend, error) {
	timeout := 60 * time.Second
	if c.HTTPTimeoutSec > 0 {
		timeout = time.Duration(c.HTTPTimeoutSec) * time.Second
	}
	name := strings.ToLower(strings.TrimSpace(provider))
	rc := ai.RuntimeConfig{HTTPTimeout: timeout}
	var model string
	switch name {
	case ai.ProviderGemini:
		rc.APIKey, rc.Endpoint, model = c.GeminiAPIKey, c.GeminiEndpoint, c.GeminiModel
	case ai.ProviderHuggingFace:
		rc.APIKey, rc.Endpoint, model = c.HFAPIToken, c.HFEndpoint, c.HFModel
	case ai.ProviderOpenRouter:
		rc.APIKey, model = c.OpenRouterAPIKey, c.OpenRouterModel
	case ai.ProviderOllama:
		rc.Endpoint, model = c.OllamaHost, c.OllamaModel
	}
	rt, ok := ai.GetRuntime(name, rc)
	if !ok {
		return ai.Backend{}, fmt.Errorf("provider not supported: %s", provider)
	}
	return ai.Backend{Name: name, Model: model, Runtime: rt}, nil
}

// buildChain wires the primary and secondary backends named in the config.
func buildChain(c *cfgpkg.Global) (*ai.Chain, error) {
	primary, err := backendFor(c.PrimaryProvider, c)
	if err != nil {
		return nil, fmt.Errorf("primary: %w", err)
	}
	secondary, err := backendFor(c.SecondaryProvider, c)
	if err != nil {
		return nil, fmt.Errorf("secondary: %w", err)
	}
	lang := c.DefaultLanguage
	if !ai.SupportsLanguage(lang) {
		lang = ai.DefaultLanguage
	}
	return &ai.Chain{
		Primary:         primary,
		Secondary:       secondary,
		Detector:        ai.TrigramDetector{},
		DefaultLanguage: lang,
		MaxTokens:       c.MaxTokens,
		Logger:          logger,
	}, nil
}

// loadDataset reads the dataset selected by flags or config.
func loadDataset(ctx context.Context, c *cfgpkg.Global) (*dataset.Dataset, error) {
	if flagSQLQuery != "" {
		if flagSQLDSN == "" {
			return nil, fmt.Errorf("--sql-dsn is required with --sql-query")
		}
		return dataset.LoadSQL(ctx, flagSQLDriver, flagSQLDSN, flagSQLQuery)
	}
	path := c.DefaultDataset
	if path == "" {
		return nil, fmt.Errorf("no dataset: pass --dataset or set default_dataset")
	}
	if flagMaxRows < 0 {
		return nil, fmt.Errorf("--max-rows must be >= 0, got %d", flagMaxRows)
	}
	opt := dataset.LoadOptions{Sheet: flagSheet, DecimalComma: flagDecimalComma, MaxRows: flagMaxRows}
	if flagDelimiter != "" {
		r, size := utf8.DecodeRuneInString(strings.ReplaceAll(flagDelimiter, `\t`, "\t"))
		if size == 0 {
			return nil, fmt.Errorf("invalid delimiter %q", flagDelimiter)
		}
		opt.Delimiter = r
	}
	ds, err := dataset.LoadFile(path, opt)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return ds, nil
}

// openSession loads config and dataset and starts a session. With offline
// set, no generative backend is wired and credentials are not checked.
func openSession(ctx context.Context, offline bool) (*session.Session, *cfgpkg.Global, error) {
	c, err := ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	model, err := modelFor(c, offline)
	if err != nil {
		return nil, nil, err
	}
	ds, err := loadDataset(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("dataset loaded", "name", ds.Name, "rows", ds.NumRows(), "columns", len(ds.Columns()))
	return session.New(ds, model, session.Options{ClusterK: c.ClusterK, Logger: logger}), c, nil
}

// modelFor returns the generative chain, or nil when offline. Missing
// credentials stop the command before any question is read.
func modelFor(c *cfgpkg.Global, offline bool) (session.Answerer, error) {
	if offline {
		return nil, nil
	}
	if err := c.CheckCredentials(); err != nil {
		return nil, fmt.Errorf("%w (or pass --offline for local statistics only)", err)
	}
	chain, err := buildChain(c)
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// printReply writes an answer the way the console shows it.
func printReply(w io.Writer, r *session.Reply) {
	switch r.Source {
	case session.SourceModel:
		fmt.Fprintf(w, "✓ %s (%s)\n", sourceLabel(r.Source), r.Backend)
	default:
		fmt.Fprintf(w, "✓ %s\n", sourceLabel(r.Source))
	}
	printTable(w, r.Answer)
}

func sourceLabel(src string) string {
	switch src {
	case session.SourceCache:
		return "Resposta em cache"
	case session.SourceAssistant:
		return "Resposta do assistente"
	}
	return "Resposta do modelo"
}

func printTable(w io.Writer, t *answer.Table) {
	if t == nil {
		return
	}
	if t.Title != "" {
		fmt.Fprintf(w, "\n%s\n\n", t.Title)
	}
	if len(t.Columns) == 1 && t.Columns[0] == answer.TextColumn && len(t.Rows) == 1 {
		fmt.Fprintln(w, answer.CellString(t.Rows[0][0]))
		return
	}
	fmt.Fprint(w, t.Markdown())
}

// stageMessage names the failing step for console output.
func stageMessage(err error) string {
	var se *session.StageError
	if errors.As(err, &se) {
		switch se.Stage {
		case session.StageAnalysis:
			return fmt.Sprintf("análise local falhou: %v", se.Err)
		case session.StageGenerative:
			return fmt.Sprintf("modelo generativo falhou: %v", se.Err)
		}
	}
	return err.Error()
}
