package router

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/askcsv/internal/analysis"
	"github.com/KaramelBytes/askcsv/internal/dataset"
)

// Intent names the analysis a question resolves to.
type Intent string

const (
	IntentDTypes      Intent = "dtypes"
	IntentRange       Intent = "range"
	IntentCentral     Intent = "central_tendency"
	IntentVariability Intent = "variability"
	IntentFrequency   Intent = "frequency"
	IntentOutliers    Intent = "outliers"
	IntentCorrelation Intent = "correlation"
	IntentClustering  Intent = "clustering"
	IntentGenerative  Intent = "generative"
)

// Sources reported with a decision.
const (
	SourceAssistant = "assistant"
	SourceModel     = "model"
)

// Group pairs an intent with the keywords that select it.
type Group struct {
	Intent   Intent
	Keywords []string
	Title    string
}

// groups are evaluated in order; the first keyword hit wins, so a question
// mentioning both "média" and "outlier" is a central tendency question.
var groups = []Group{
	{IntentDTypes, []string{"tipo de dado", "tipos de dados"}, "Tipos de dados"},
	{IntentRange, []string{"intervalo", "mínimo", "minimo", "min", "max", "maximo", "máximo"}, "Intervalo"},
	{IntentCentral, []string{"média", "mediana"}, "Medidas de tendência central"},
	{IntentVariability, []string{"desvio padrão", "desvio padrao", "variancia", "variância"}, "Variabilidade"},
	{IntentFrequency, []string{"frequente", "menos frequente"}, "Valores frequentes"},
	{IntentOutliers, []string{"outlier", "atipico", "valor atípico"}, "Outliers"},
	{IntentCorrelation, []string{"correlação", "correlacao", "relacionadas"}, "Correlação"},
	{IntentClustering, []string{"cluster", "agrupamento"}, "Agrupamentos"},
}

// Intents lists the local intents in priority order.
func Intents() []Intent {
	out := make([]Intent, len(groups))
	for i, g := range groups {
		out[i] = g.Intent
	}
	return out
}

// Classify matches the lower-cased question against the keyword groups by
// plain substring search. Unmatched questions are generative.
func Classify(question string) Intent {
	q := strings.ToLower(question)
	for _, g := range groups {
		for _, kw := range g.Keywords {
			if strings.Contains(q, kw) {
				return g.Intent
			}
		}
	}
	return IntentGenerative
}

// Title returns the display title for an intent's answer.
func Title(in Intent) string {
	for _, g := range groups {
		if g.Intent == in {
			return g.Title
		}
	}
	return ""
}

// Dispatch runs the statistic behind a local intent. k is the cluster count
// used by IntentClustering. Clustering appends a column to ds.
func Dispatch(in Intent, ds *dataset.Dataset, k int) (analysis.Result, error) {
	switch in {
	case IntentDTypes:
		return analysis.DTypes(ds), nil
	case IntentRange:
		return analysis.Range(ds)
	case IntentCentral:
		return analysis.CentralTendency(ds)
	case IntentVariability:
		return analysis.Variability(ds)
	case IntentFrequency:
		return analysis.Frequency(ds)
	case IntentOutliers:
		return analysis.Outliers(ds)
	case IntentCorrelation:
		return analysis.Correlation(ds)
	case IntentClustering:
		return analysis.Cluster(ds, k)
	}
	return analysis.Result{}, fmt.Errorf("intent %q has no local analysis", in)
}

// Decision is the outcome of routing one question.
type Decision struct {
	Intent Intent
	Source string
	Result analysis.Result
}

// Local reports whether the decision carries a computed result.
func (d Decision) Local() bool { return d.Source == SourceAssistant }

// Route classifies question and, for local intents, computes the result.
// A generative decision carries no result and never fails; the only errors
// come from the dispatched statistic.
func Route(question string, ds *dataset.Dataset, k int) (Decision, error) {
	in := Classify(question)
	if in == IntentGenerative {
		return Decision{Intent: in, Source: SourceModel}, nil
	}
	res, err := Dispatch(in, ds, k)
	if err != nil {
		return Decision{Intent: in, Source: SourceAssistant}, err
	}
	return Decision{Intent: in, Source: SourceAssistant, Result: res}, nil
}

// Parse maps a user supplied intent name to an Intent.
func Parse(name string) (Intent, error) {
	n := Intent(strings.ToLower(strings.TrimSpace(name)))
	for _, g := range groups {
		if g.Intent == n {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown intent %q (valid: %s)", name, joinIntents())
}

func joinIntents() string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = string(g.Intent)
	}
	return strings.Join(names, ", ")
}
