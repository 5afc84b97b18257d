package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MimeLyc/yt-transcript-extractor/internal/config"
	"github.com/MimeLyc/yt-transcript-extractor/internal/jobs"
	"github.com/MimeLyc/yt-transcript-extractor/internal/service"
)

type runtimeSettingsStore interface {
	GetRuntimeSettings() (config.RuntimeSettings, error)
	UpdateRuntimeSettings(next config.RuntimeSettings) (config.RuntimeSettings, error)
}

type runtimeSettingsApplier func(next config.RuntimeSettings) error

type summarizer interface {
	Summarize(ctx context.Context, url string) (string, error)
}

type Server struct {
	sessions   *service.Sessions
	queue      *jobs.Queue
	summarizer summarizer
	auth       Authorizer

	settings runtimeSettingsStore
	apply    runtimeSettingsApplier

	sweepCron      func() string
	metricsHandler http.Handler
	streamInterval time.Duration

	uiEnabled   bool
	uiStaticDir string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

func WithAuthorizer(auth Authorizer) Option {
	return func(s *Server) {
		s.auth = auth
	}
}

func WithRuntimeSettingsStore(store runtimeSettingsStore) Option {
	return func(s *Server) {
		s.settings = store
	}
}

func WithRuntimeSettingsApplier(apply runtimeSettingsApplier) Option {
	return func(s *Server) {
		s.apply = apply
	}
}

// WithSweepSchedule reports the current session sweep expression on /healthz.
func WithSweepSchedule(expr func() string) Option {
	return func(s *Server) {
		s.sweepCron = expr
	}
}

func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

func WithStreamInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.streamInterval = d
		}
	}
}

func NewServer(sessions *service.Sessions, queue *jobs.Queue, summarizer summarizer, opts ...Option) *Server {
	s := &Server{
		sessions:       sessions,
		queue:          queue,
		summarizer:     summarizer,
		auth:           AllowAll{},
		metricsHandler: promhttp.Handler(),
		streamInterval: time.Second,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.api("POST /api/sessions", s.handleCreateSession)
	s.api("GET /api/sessions/{id}", s.handleGetSession)
	s.api("DELETE /api/sessions/{id}", s.handleResetSession)
	s.api("POST /api/sessions/{id}/extract", s.handleExtract)
	s.api("GET /api/sessions/{id}/stream", s.handleSessionStream)
	s.api("PUT /api/sessions/{id}/filters", s.handleUpdateFilters)
	s.api("GET /api/sessions/{id}/transcripts/{tid}/export", s.handleExport)
	s.api("POST /api/sessions/{id}/transcripts/{tid}/summary", s.handleSummary)
	s.api("GET /api/jobs", s.handleListJobs)
	s.api("GET /api/jobs/{id}", s.handleJobDetail)
	s.api("/api/settings", s.handleSettings)

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metricsHandler)
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) api(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, requireAuth(s.auth, h))
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" || strings.HasPrefix(r.URL.Path, "/api/") {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
