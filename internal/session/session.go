package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KaramelBytes/askcsv/internal/ai"
	"github.com/KaramelBytes/askcsv/internal/analysis"
	"github.com/KaramelBytes/askcsv/internal/answer"
	"github.com/KaramelBytes/askcsv/internal/cache"
	"github.com/KaramelBytes/askcsv/internal/dataset"
	"github.com/KaramelBytes/askcsv/internal/router"
	"github.com/google/uuid"
)

// Reply sources.
const (
	SourceCache     = "cache"
	SourceAssistant = router.SourceAssistant
	SourceModel     = router.SourceModel
)

// Stages reported by StageError.
const (
	StageAnalysis   = "analysis"
	StageGenerative = "generative"
)

var (
	// ErrEmptyQuestion is returned for blank input.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrClosed is returned by Ask after Close.
	ErrClosed = errors.New("session closed")
	// ErrNoGenerativeBackend is returned when a question needs the model and
	// the session was created without one.
	ErrNoGenerativeBackend = errors.New("no generative backend configured")
)

// StageError names the step that failed while answering a question.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Answerer produces free-text answers; *ai.Chain implements it.
type Answerer interface {
	Answer(ctx context.Context, question string, ds *dataset.Dataset) (*ai.Outcome, error)
}

// Options tune a session.
type Options struct {
	// ClusterK is the group count for clustering questions (default 3).
	ClusterK int
	Logger   *slog.Logger
}

// Chart names the columns a UI would plot for an answer.
type Chart struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Reply is the result of one question.
type Reply struct {
	Question string        `json:"question"`
	Key      string        `json:"key"`
	Intent   router.Intent `json:"intent"`
	Source   string        `json:"source"`
	Backend  string        `json:"backend,omitempty"`
	Answer   *answer.Table `json:"answer"`
	Chart    *Chart        `json:"chart,omitempty"`
}

// Session owns one dataset copy, its answer cache and the last reply. It
// handles one question at a time; callers sharing a Session across
// goroutines must serialize Ask.
type Session struct {
	ID        string
	CreatedAt time.Time

	ds     *dataset.Dataset
	model  Answerer
	cache  *cache.Cache
	last   *Reply
	k      int
	log    *slog.Logger
	closed bool
}

// New starts a session over a private clone of ds. model may be nil when
// only local statistics are wanted.
func New(ds *dataset.Dataset, model Answerer, opts Options) *Session {
	if opts.ClusterK <= 0 {
		opts.ClusterK = analysis.DefaultK
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		ds:        ds.Clone(),
		model:     model,
		cache:     cache.New(),
		k:         opts.ClusterK,
		log:       log.With("session", id),
	}
}

// Dataset returns the session's dataset, including any derived columns.
func (s *Session) Dataset() *dataset.Dataset { return s.ds }

// Ask answers question from the cache, local statistics or the generative
// chain, in that order. Only successful answers are cached, so a failed
// question is attempted again next time.
func (s *Session) Ask(ctx context.Context, question string) (*Reply, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	key := cache.Key(question)
	if ans, ok := s.cache.Get(question); ok {
		s.log.Debug("cache hit", "key", key)
		r := &Reply{Question: question, Key: key, Intent: router.Classify(key), Source: SourceCache, Answer: ans, Chart: chartFor(ans)}
		s.last = r
		return r, nil
	}

	d, err := router.Route(key, s.ds, s.k)
	if err != nil {
		return nil, &StageError{Stage: StageAnalysis, Err: err}
	}
	r := &Reply{Question: question, Key: key, Intent: d.Intent, Source: d.Source}
	if d.Local() {
		r.Answer = answer.Format(d.Result, router.Title(d.Intent))
		r.Chart = chartFor(r.Answer)
	} else {
		if s.model == nil {
			return nil, &StageError{Stage: StageGenerative, Err: ErrNoGenerativeBackend}
		}
		out, err := s.model.Answer(ctx, question, s.ds)
		if err != nil {
			return nil, &StageError{Stage: StageGenerative, Err: err}
		}
		r.Backend = out.Backend
		r.Answer = answer.FromText(out.Text)
	}
	s.log.Debug("answered", "key", key, "intent", r.Intent, "source", r.Source)
	s.cache.Put(question, r.Answer)
	s.last = r
	return r, nil
}

func chartFor(t *answer.Table) *Chart {
	if label, value, ok := t.ChartColumns(); ok {
		return &Chart{Label: label, Value: value}
	}
	return nil
}

// History returns the cached answers in the order they were first asked.
func (s *Session) History() []cache.Entry { return s.cache.Entries() }

// Last returns the most recent successful reply.
func (s *Session) Last() (*Reply, bool) { return s.last, s.last != nil }

// LastAnswer returns the table of the most recent reply, or nil.
func (s *Session) LastAnswer() *answer.Table {
	if s.last == nil {
		return nil
	}
	return s.last.Answer
}

// Suggestions proposes starter questions for the session's dataset.
func (s *Session) Suggestions() []string { return analysis.Suggestions(s.ds) }

// Close drops the cached answers. Further calls to Ask fail.
func (s *Session) Close() {
	s.closed = true
	s.cache.Reset()
	s.last = nil
	s.log.Debug("session closed")
}
