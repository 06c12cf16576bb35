package export

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/askcsv/internal/answer"
	"github.com/KaramelBytes/askcsv/internal/cache"
	"github.com/KaramelBytes/askcsv/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type fakeSource struct {
	ds      *dataset.Dataset
	entries []cache.Entry
	last    *answer.Table
}

func (f fakeSource) Dataset() *dataset.Dataset { return f.ds }

func (f fakeSource) History() []cache.Entry { return f.entries }

func (f fakeSource) LastAnswer() *answer.Table { return f.last }

func oneEntry() []cache.Entry {
	tb := &answer.Table{
		Title:   "Medidas",
		Columns: []string{answer.LabelColumn, "age"},
		Rows:    [][]any{{"média", 272.5}, {"mediana", math.NaN()}},
	}
	return []cache.Entry{{Key: "qual a média?", Question: "Qual a média?", Answer: tb}}
}

func TestEmptyHistoryWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	ok, err := WriteHistoryJSON(&buf, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = WriteHistoryYAML(&buf, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = WriteAnswerCSV(&buf, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, buf.Len())

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := Dir(dir, fakeSource{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, paths)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "no directory is created for an empty history")
}

func TestWriteHistoryJSON(t *testing.T) {
	var buf bytes.Buffer
	ok, err := WriteHistoryJSON(&buf, oneEntry())
	require.NoError(t, err)
	assert.True(t, ok)

	var got map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Contains(t, got, "qual a média?")
	assert.Equal(t, 272.5, got["qual a média?"]["age"]["0"])
	assert.Nil(t, got["qual a média?"]["age"]["1"])
	assert.Equal(t, "mediana", got["qual a média?"][answer.LabelColumn]["1"])
}

func TestWriteHistoryYAML(t *testing.T) {
	var buf bytes.Buffer
	ok, err := WriteHistoryYAML(&buf, oneEntry())
	require.NoError(t, err)
	assert.True(t, ok)

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Qual a média?", got[0]["question"])
	assert.Contains(t, buf.String(), "272.5")
}

func TestWriteAnswerCSV(t *testing.T) {
	var buf bytes.Buffer
	ok, err := WriteAnswerCSV(&buf, oneEntry()[0].Answer)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Variável,age\nmédia,272.5\nmediana,\n", buf.String())
}

func TestDirWritesAllArtifacts(t *testing.T) {
	ds, err := dataset.FromRecords("people", []string{"age", "city"}, [][]string{{"20", "A"}, {"30", "B"}})
	require.NoError(t, err)
	entries := oneEntry()
	src := fakeSource{ds: ds, entries: entries, last: entries[0].Answer}

	dir := filepath.Join(t.TempDir(), "export")
	paths, err := Dir(dir, src, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, paths, 5)

	md, err := os.ReadFile(filepath.Join(dir, ReportMDFile))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Gerado em 2024-05-01 10:30.")
	assert.Contains(t, string(md), "## Qual a média?")
	assert.Contains(t, string(md), "| média | 272.5 |")
	assert.Contains(t, string(md), "| 20 | A |")

	page, err := os.ReadFile(filepath.Join(dir, ReportHTMLFile))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(page), "<table>"), "markdown tables render as HTML tables")
	assert.Contains(t, string(page), "<title>")

	csvOut, err := os.ReadFile(filepath.Join(dir, LastAnswerFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvOut), "Variável,age\n"))
}

func TestHTMLReportDropsRawMarkup(t *testing.T) {
	ds, err := dataset.FromRecords("x", []string{"note"}, [][]string{{"<script>alert(1)</script>"}})
	require.NoError(t, err)
	tb := &answer.Table{Columns: []string{answer.TextColumn}, Rows: [][]any{{"<b onmouseover=alert(3)>ok</b>"}}}
	entries := []cache.Entry{{Key: "k", Question: "<img src=x onerror=alert(2)>", Answer: tb}}

	page := string(HTMLReport(MarkdownReport(ds, entries, time.Now()), "t"))
	assert.NotContains(t, page, "<script")
	assert.NotContains(t, page, "<img")
	assert.NotContains(t, page, "onerror=")
	assert.NotContains(t, page, "onmouseover=")
	assert.Contains(t, page, "<table>")
}
