// Package export writes session history and answers to portable files.
// Writers report whether anything was written; an empty history or a
// missing answer writes nothing and is not an error.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/askcsv/internal/answer"
	"github.com/KaramelBytes/askcsv/internal/cache"
	"github.com/KaramelBytes/askcsv/internal/dataset"
	"github.com/KaramelBytes/askcsv/internal/utils"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"gopkg.in/yaml.v3"
)

// File names written by Dir.
const (
	HistoryJSONFile = "historico.json"
	HistoryYAMLFile = "historico.yaml"
	LastAnswerFile  = "ultima_resposta.csv"
	ReportMDFile    = "relatorio.md"
	ReportHTMLFile  = "relatorio.html"
)

// WriteHistoryJSON writes {question: {column: {row: value}}} keyed by the
// normalized question.
func WriteHistoryJSON(w io.Writer, entries []cache.Entry) (bool, error) {
	if len(entries) == 0 {
		return false, nil
	}
	out := make(map[string]map[string]map[string]any, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Answer.ToDict()
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return false, fmt.Errorf("encode history: %w", err)
	}
	return true, nil
}

// WriteHistoryYAML writes the entries in the order they were first asked.
func WriteHistoryYAML(w io.Writer, entries []cache.Entry) (bool, error) {
	if len(entries) == 0 {
		return false, nil
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return false, fmt.Errorf("encode history: %w", err)
	}
	if err := enc.Close(); err != nil {
		return false, fmt.Errorf("encode history: %w", err)
	}
	return true, nil
}

// WriteAnswerCSV writes one answer table, header first.
func WriteAnswerCSV(w io.Writer, t *answer.Table) (bool, error) {
	if t == nil {
		return false, nil
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return false, fmt.Errorf("write csv: %w", err)
	}
	return true, nil
}

// MarkdownReport renders the dataset preview followed by every question and
// its answer.
func MarkdownReport(ds *dataset.Dataset, entries []cache.Entry, generated time.Time) string {
	var b strings.Builder
	b.WriteString("# Relatório de Análise de Dados\n\n")
	fmt.Fprintf(&b, "Gerado em %s.\n\n", generated.Format("2006-01-02 15:04"))
	if ds != nil {
		fmt.Fprintf(&b, "## Conjunto de dados: %s\n\n", ds.Name)
		fmt.Fprintf(&b, "%d linhas, %d colunas.\n\n", ds.NumRows(), len(ds.Columns()))
		preview := &answer.Table{Columns: ds.Header()}
		for _, rec := range ds.Head(5) {
			row := make([]any, len(rec))
			for i, v := range rec {
				row[i] = v
			}
			preview.Rows = append(preview.Rows, row)
		}
		b.WriteString(preview.Markdown())
		b.WriteString("\n")
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "## %s\n\n", e.Question)
		b.WriteString(e.Answer.Markdown())
		b.WriteString("\n")
	}
	return b.String()
}

// HTMLReport renders a Markdown report as a standalone HTML page. Questions
// and cells are user data, so raw HTML in them is dropped and only safe link
// schemes are rendered.
func HTMLReport(md, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage | html.SkipHTML | html.Safelink,
	})
	return markdown.ToHTML([]byte(md), p, r)
}

// Source is what Dir needs from a session.
type Source interface {
	Dataset() *dataset.Dataset
	History() []cache.Entry
	LastAnswer() *answer.Table
}

// Dir writes every artifact into dir and returns the written paths. An empty
// history writes nothing.
func Dir(dir string, src Source, now time.Time) ([]string, error) {
	entries := src.History()
	if len(entries) == 0 {
		return nil, nil
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	var written []string
	save := func(name string, render func(io.Writer) (bool, error)) error {
		var buf bytes.Buffer
		ok, err := render(&buf)
		if err != nil || !ok {
			return err
		}
		p := filepath.Join(dir, name)
		if err := utils.SafeWriteFile(p, buf.Bytes()); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		written = append(written, p)
		return nil
	}
	md := MarkdownReport(src.Dataset(), entries, now)
	steps := []struct {
		name   string
		render func(io.Writer) (bool, error)
	}{
		{HistoryJSONFile, func(w io.Writer) (bool, error) { return WriteHistoryJSON(w, entries) }},
		{HistoryYAMLFile, func(w io.Writer) (bool, error) { return WriteHistoryYAML(w, entries) }},
		{LastAnswerFile, func(w io.Writer) (bool, error) { return WriteAnswerCSV(w, src.LastAnswer()) }},
		{ReportMDFile, func(w io.Writer) (bool, error) {
			_, err := io.WriteString(w, md)
			return true, err
		}},
		{ReportHTMLFile, func(w io.Writer) (bool, error) {
			_, err := w.Write(HTMLReport(md, "Relatório de Análise de Dados"))
			return true, err
		}},
	}
	for _, s := range steps {
		if err := save(s.name, s.render); err != nil {
			return written, err
		}
	}
	return written, nil
}
