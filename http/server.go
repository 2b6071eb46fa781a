// Package http serves the document store over a read-only JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/repodocs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultShutdownTimeout bounds how long in-flight requests may run after
// the serving context is done.
const DefaultShutdownTimeout = 10 * time.Second

// MaxLimit caps the limit query parameter.
const MaxLimit = 1000

// Server exposes documents, search, repositories and sync runs.
type Server struct {
	Store repodocs.DocumentStore

	// Runs is optional; /runs answers 404 without it.
	Runs repodocs.RunService

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	Logger *slog.Logger
}

// NewServer creates a new Server.
func NewServer(store repodocs.DocumentStore, runs repodocs.RunService) *Server {
	return &Server{
		Store:  store,
		Runs:   runs,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/docs", s.handleDocs)
	r.Get("/search", s.handleSearch)
	r.Get("/repos", s.handleRepos)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleRuns)
		r.Get("/{id}", s.handleRun)
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, repodocs.Errorf(repodocs.ENOTFOUND, "no route for %s", r.URL.Path))
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return repodocs.WrapError(repodocs.EIO, err, "failed to listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.Logger.Info("server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func(begin time.Time) {
			s.Logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(begin),
			)
		}(time.Now())
		next.ServeHTTP(ww, r)
	})
}

type documentResponse struct {
	Repo    string `json:"repo"`
	Path    string `json:"path"`
	Content string `json:"content"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repodocs.DocumentFilter{
		Repo:    optional(q.Get("repo")),
		Path:    optional(q.Get("path")),
		Version: optional(q.Get("version")),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		s.writeError(w, r, err)
		return
	}

	docs, err := s.Store.FindDocuments(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse{Repo: d.Repo, Path: d.Path, Content: d.Content, Version: d.Version.String()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	results, err := s.Store.SearchDocuments(r.Context(), repodocs.SearchQuery{
		Query: q.Get("q"),
		Repo:  optional(q.Get("repo")),
		Limit: limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if results == nil {
		results = []*repodocs.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := s.Store.Repos(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if repos == nil {
		repos = []*repodocs.RepoSummary{}
	}
	writeJSON(w, http.StatusOK, repos)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		s.writeError(w, r, repodocs.Errorf(repodocs.ENOTFOUND, "run history not available"))
		return
	}
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if limit == 0 {
		limit = 20
	}

	runs, err := s.Runs.FindRuns(r.Context(), repodocs.RunFilter{Limit: limit})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*repodocs.SyncReport{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		s.writeError(w, r, repodocs.Errorf(repodocs.ENOTFOUND, "run history not available"))
		return
	}
	run, err := s.Runs.FindRunByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, repodocs.Errorf(repodocs.EINVALID, "invalid number %q", v)
	}
	return min(n, MaxLimit), nil
}

// errorStatus maps application error codes to HTTP status codes.
var errorStatus = map[string]int{
	repodocs.EINVALID:  http.StatusBadRequest,
	repodocs.ENOTFOUND: http.StatusNotFound,
	repodocs.ECONFIG:   http.StatusBadRequest,
	repodocs.EIO:       http.StatusServiceUnavailable,
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := repodocs.ErrorCode(err)
	status, ok := errorStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: code, Message: repodocs.ErrorMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
