package router

import (
	"testing"

	"github.com/KaramelBytes/askcsv/internal/analysis"
	"github.com/KaramelBytes/askcsv/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := map[string]Intent{
		"Quais os tipos de dados?":               IntentDTypes,
		"qual o intervalo de cada coluna":        IntentRange,
		"Qual a MÉDIA da idade?":                 IntentCentral,
		"mostre o desvio padrão":                 IntentVariability,
		"valores mais frequentes":                IntentFrequency,
		"existe algum outlier?":                  IntentOutliers,
		"quais colunas estão relacionadas":       IntentCorrelation,
		"faça um agrupamento":                    IntentClustering,
		"resuma o dataset para mim":              IntentGenerative,
		"":                                       IntentGenerative,
		"média dos valores e também os outliers": IntentCentral,
	}
	for q, want := range cases {
		assert.Equal(t, want, Classify(q), q)
	}
}

func TestClassifySubstringImprecisionIsKept(t *testing.T) {
	// "min" inside an unrelated word still selects range
	assert.Equal(t, IntentRange, Classify("determine o resultado"))
}

func TestRoute(t *testing.T) {
	ds, err := dataset.FromRecords("people", []string{"age", "city"}, [][]string{
		{"20", "A"}, {"30", "A"}, {"40", "B"}, {"1000", "A"},
	})
	require.NoError(t, err)

	d, err := Route("qual a média da idade?", ds, 3)
	require.NoError(t, err)
	assert.Equal(t, IntentCentral, d.Intent)
	assert.Equal(t, SourceAssistant, d.Source)
	assert.True(t, d.Local())
	mean, _ := d.Result.Map.Get("média")
	age, _ := mean.(analysis.Map).Get("age")
	assert.InDelta(t, 272.5, age, 1e-9)

	d, err = Route("outliers na idade", ds, 3)
	require.NoError(t, err)
	assert.Equal(t, IntentOutliers, d.Intent)
	out, _ := d.Result.Map.Get("age")
	assert.Equal(t, []float64{1000}, out)

	d, err = Route("o que esse dataset mostra?", ds, 3)
	require.NoError(t, err)
	assert.Equal(t, IntentGenerative, d.Intent)
	assert.Equal(t, SourceModel, d.Source)
	assert.False(t, d.Local())
}

func TestRouteDataError(t *testing.T) {
	ds, err := dataset.FromRecords("t", []string{"city"}, [][]string{{"A"}})
	require.NoError(t, err)
	d, err := Route("qual a mediana?", ds, 3)
	assert.ErrorIs(t, err, analysis.ErrNoNumericColumns)
	assert.Equal(t, IntentCentral, d.Intent)
}

func TestParseAndTitle(t *testing.T) {
	in, err := Parse(" Outliers ")
	require.NoError(t, err)
	assert.Equal(t, IntentOutliers, in)
	_, err = Parse("generative")
	assert.Error(t, err)
	assert.Equal(t, "Outliers", Title(IntentOutliers))
	assert.Len(t, Intents(), 8)
	assert.Equal(t, IntentDTypes, Intents()[0])
}
