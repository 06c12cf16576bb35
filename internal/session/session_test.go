package session

import (
	"context"
	"errors"
	"testing"

	"github.com/KaramelBytes/askcsv/internal/ai"
	"github.com/KaramelBytes/askcsv/internal/analysis"
	"github.com/KaramelBytes/askcsv/internal/answer"
	"github.com/KaramelBytes/askcsv/internal/cache"
	"github.com/KaramelBytes/askcsv/internal/dataset"
	"github.com/KaramelBytes/askcsv/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAnswerer struct{ mock.Mock }

func (m *mockAnswerer) Answer(ctx context.Context, q string, ds *dataset.Dataset) (*ai.Outcome, error) {
	args := m.Called(ctx, q, ds)
	out, _ := args.Get(0).(*ai.Outcome)
	return out, args.Error(1)
}

func people(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromRecords("people", []string{"age", "city"}, [][]string{
		{"20", "A"}, {"30", "A"}, {"40", "B"}, {"1000", "A"},
	})
	require.NoError(t, err)
	return ds
}

func TestAskLocalThenCache(t *testing.T) {
	model := new(mockAnswerer)
	s := New(people(t), model, Options{})
	ctx := context.Background()

	r, err := s.Ask(ctx, "Qual a média da idade?")
	require.NoError(t, err)
	assert.Equal(t, router.IntentCentral, r.Intent)
	assert.Equal(t, SourceAssistant, r.Source)
	v, ok := r.Answer.Cell(0, "age")
	require.True(t, ok)
	assert.InDelta(t, 272.5, v, 1e-9)
	require.NotNil(t, r.Chart)
	assert.Equal(t, answer.LabelColumn, r.Chart.Label)

	again, err := s.Ask(ctx, "  QUAL A MÉDIA DA IDADE?")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, again.Source)
	assert.Same(t, r.Answer, again.Answer)
	assert.Len(t, s.History(), 1)
	model.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything, mock.Anything)
}

func TestAskGenerativeCachedAcrossCase(t *testing.T) {
	model := new(mockAnswerer)
	model.On("Answer", mock.Anything, "Resuma os dados", mock.Anything).
		Return(&ai.Outcome{Text: "São 4 pessoas.", Backend: ai.ProviderGemini}, nil).Once()
	s := New(people(t), model, Options{})

	r, err := s.Ask(context.Background(), "Resuma os dados")
	require.NoError(t, err)
	assert.Equal(t, SourceModel, r.Source)
	assert.Equal(t, router.IntentGenerative, r.Intent)
	assert.Equal(t, ai.ProviderGemini, r.Backend)
	assert.Equal(t, [][]any{{"São 4 pessoas."}}, r.Answer.Rows)
	assert.Nil(t, r.Chart)

	r2, err := s.Ask(context.Background(), "resuma os dados ")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, r2.Source)
	model.AssertNumberOfCalls(t, "Answer", 1)

	last, ok := s.Last()
	require.True(t, ok)
	assert.Same(t, r2, last)
}

func TestFailuresAreNotCached(t *testing.T) {
	model := new(mockAnswerer)
	boom := &ai.ChainError{Attempts: []ai.Attempt{{Backend: "p", Err: errors.New("down")}, {Backend: "s", Err: errors.New("down")}}}
	model.On("Answer", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom).Once()
	model.On("Answer", mock.Anything, mock.Anything, mock.Anything).Return(&ai.Outcome{Text: "ok", Backend: "s"}, nil).Once()
	s := New(people(t), model, Options{})

	_, err := s.Ask(context.Background(), "resuma")
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageGenerative, se.Stage)
	assert.True(t, ai.IsChainError(err))
	assert.Zero(t, len(s.History()))
	_, ok := s.Last()
	assert.False(t, ok)

	r, err := s.Ask(context.Background(), "resuma")
	require.NoError(t, err)
	assert.Equal(t, SourceModel, r.Source)
	model.AssertNumberOfCalls(t, "Answer", 2)
}

func TestAskFollowsRouteDecision(t *testing.T) {
	model := new(mockAnswerer)
	model.On("Answer", mock.Anything, mock.Anything, mock.Anything).
		Return(&ai.Outcome{Text: "ok", Backend: ai.ProviderHuggingFace}, nil)
	ds := people(t)
	s := New(ds, model, Options{})

	for _, q := range []string{"existem outliers?", "quais os tipos de dados?", "conte uma piada", "qual a correlação?"} {
		d, err := router.Route(cache.Key(q), ds, analysis.DefaultK)
		require.NoError(t, err, q)
		r, err := s.Ask(context.Background(), q)
		require.NoError(t, err, q)
		assert.Equal(t, d.Intent, r.Intent, q)
		assert.Equal(t, d.Source, r.Source, q)
		assert.Equal(t, !d.Local(), r.Backend != "", q)
	}
	model.AssertNumberOfCalls(t, "Answer", 1)
}

func TestDataErrorReportsStage(t *testing.T) {
	ds, err := dataset.FromRecords("t", []string{"city"}, [][]string{{"A"}})
	require.NoError(t, err)
	s := New(ds, nil, Options{})

	_, err = s.Ask(context.Background(), "qual a mediana?")
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageAnalysis, se.Stage)
	assert.ErrorIs(t, err, analysis.ErrNoNumericColumns)

	_, err = s.Ask(context.Background(), "conte uma história")
	assert.ErrorIs(t, err, ErrNoGenerativeBackend)
	_, err = s.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestClusteringMutatesOnlySessionCopy(t *testing.T) {
	ds := people(t)
	s := New(ds, nil, Options{ClusterK: 2})
	r, err := s.Ask(context.Background(), "faça um agrupamento")
	require.NoError(t, err)
	assert.Equal(t, router.IntentClustering, r.Intent)

	_, inSession := s.Dataset().Column(analysis.ClusterColumn)
	assert.True(t, inSession)
	_, inShared := ds.Column(analysis.ClusterColumn)
	assert.False(t, inShared)
}

func TestCloseAndIDs(t *testing.T) {
	a := New(people(t), nil, Options{})
	b := New(people(t), nil, Options{})
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.Suggestions(), 2)

	_, err := a.Ask(context.Background(), "tipos de dados")
	require.NoError(t, err)
	a.Close()
	assert.Empty(t, a.History())
	_, err = a.Ask(context.Background(), "tipos de dados")
	assert.ErrorIs(t, err, ErrClosed)
}
