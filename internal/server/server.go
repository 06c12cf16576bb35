// Package server exposes sessions over HTTP. Every session owns its own
// dataset copy and answers one request at a time.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/askcsv/internal/ai"
	"github.com/KaramelBytes/askcsv/internal/dataset"
	"github.com/KaramelBytes/askcsv/internal/export"
	"github.com/KaramelBytes/askcsv/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options configure a Server.
type Options struct {
	Session        session.Options
	AllowedOrigins []string
	Logger         *slog.Logger
}

type entry struct {
	mu sync.Mutex
	s  *session.Session
}

// Server holds the shared base dataset and the live sessions.
type Server struct {
	base  *dataset.Dataset
	model session.Answerer
	opts  Options
	log   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

// New creates a Server. model may be nil; generative questions then fail
// with 503.
func New(base *dataset.Dataset, model session.Answerer, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Session.Logger == nil {
		opts.Session.Logger = log
	}
	return &Server{base: base, model: model, opts: opts, log: log, sessions: map[string]*entry{}}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/ask", s.ask)
			r.Get("/history", s.history)
			r.Get("/export/last.csv", s.exportLast)
			r.Delete("/", s.deleteSession)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Len returns the number of live sessions.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rows": s.base.NumRows(), "sessions": s.Len()})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := session.New(s.base, s.model, s.opts.Session)
	s.mu.Lock()
	s.sessions[sess.ID] = &entry{s: sess}
	s.mu.Unlock()
	s.log.Info("session created", "session", sess.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"id": sess.ID, "suggestions": sess.Suggestions()})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	e, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "session not found", "")
	}
	return e, ok
}

type askRequest struct {
	Question string `json:"question"`
}

// maxAskBody caps the JSON body of a question request.
const maxAskBody = 64 << 10

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req askRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxAskBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}
	e.mu.Lock()
	reply, err := e.s.Ask(r.Context(), req.Question)
	e.mu.Unlock()
	if err != nil {
		status, stage := classify(err)
		s.log.Warn("question failed", "session", e.s.ID, "stage", stage, "err", err)
		writeError(w, status, err.Error(), stage)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	h := e.s.History()
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) exportLast(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	t := e.s.LastAnswer()
	e.mu.Unlock()
	if t == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.LastAnswerFile+`"`)
	if _, err := export.WriteAnswerCSV(w, t); err != nil {
		s.log.Error("write csv", "err", err)
	}
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.sessions, e.s.ID)
	s.mu.Unlock()
	e.mu.Lock()
	e.s.Close()
	e.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// classify maps a session error to an HTTP status and the failing stage.
func classify(err error) (int, string) {
	var se *session.StageError
	stage := ""
	if errors.As(err, &se) {
		stage = se.Stage
	}
	switch {
	case errors.Is(err, session.ErrEmptyQuestion):
		return http.StatusBadRequest, stage
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone, stage
	case errors.Is(err, session.ErrNoGenerativeBackend):
		return http.StatusServiceUnavailable, stage
	case ai.IsChainError(err):
		return http.StatusBadGateway, stage
	case stage == session.StageAnalysis:
		return http.StatusUnprocessableEntity, stage
	}
	return http.StatusInternalServerError, stage
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, stage string) {
	body := map[string]string{"error": strings.TrimSpace(msg)}
	if stage != "" {
		body["stage"] = stage
	}
	writeJSON(w, status, body)
}
