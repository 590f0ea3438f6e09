package api

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gemstone08/circle/internal/config"
	"github.com/gemstone08/circle/internal/db"
	"github.com/gemstone08/circle/internal/sink"
	"github.com/gemstone08/circle/internal/timeutil"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

//go:embed templates/*
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Notifier accepts attempt rows without blocking.
type Notifier interface {
	Notify(row sink.Row) bool
}

// AttemptLister reads back recorded attempts.
type AttemptLister interface {
	RecentAttempts(ctx context.Context, limit int) ([]db.Attempt, error)
}

// Server serves the tracing page and the scoring API.
type Server struct {
	cfg      *config.Config
	notifier Notifier
	attempts AttemptLister
	clock    timeutil.Clock
}

// NewServer returns a server scoring with cfg. notifier and attempts may be
// nil when no attempt log is configured.
func NewServer(cfg *config.Config, notifier Notifier, attempts AttemptLister) *Server {
	if cfg == nil {
		cfg = config.EmptyConfig()
	}
	return &Server{
		cfg:      cfg,
		notifier: notifier,
		attempts: attempts,
		clock:    timeutil.RealClock{},
	}
}

// SetClock replaces the clock used to timestamp attempts.
func (s *Server) SetClock(c timeutil.Clock) {
	s.clock = c
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the routes served by s.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/submit", s.handleSubmit)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/attempts", s.handleAttempts)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ TargetR int }{TargetR: int(s.cfg.GetTargetRadius())}
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Printf("failed to render index: %v", err)
	}
}
