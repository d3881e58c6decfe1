// Package server exposes the board as a small read-only JSON API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"PercentileBoard/internal/board"
	"PercentileBoard/internal/display"
	"PercentileBoard/internal/metrics"
	"PercentileBoard/internal/model"
)

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	Board   *board.Service
	Labeler *display.Labeler
	Metrics *metrics.Metrics
	Port    int
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	board   *board.Service
	labeler *display.Labeler
	metrics *metrics.Metrics
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     cfg.Log.With().Str("component", "server").Logger(),
		board:   cfg.Board,
		labeler: cfg.Labeler,
		metrics: cfg.Metrics,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/table", s.handleTable)
		r.Post("/refresh", s.handleRefresh)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// cellView is one rendered table cell. Value is nil for an absent cell.
type cellView struct {
	Window model.WindowSize `json:"window"`
	Value  *int             `json:"value"`
	Bucket model.Bucket     `json:"bucket,omitempty"`
	Color  string           `json:"color,omitempty"`
}

type rowView struct {
	Instrument model.Instrument `json:"instrument"`
	Label      string           `json:"label"`
	Date       string           `json:"date"`
	Cells      []cellView       `json:"cells"`
}

type tableView struct {
	ID        string             `json:"id"`
	TakenAt   time.Time          `json:"taken_at"`
	Windows   []model.WindowSize `json:"windows"`
	Rows      []rowView          `json:"rows"`
	Requested int                `json:"requested"`
	Failures  []model.Failure    `json:"failures"`
}

func (s *Server) view(snap *model.Snapshot) tableView {
	tv := tableView{
		ID:        snap.ID,
		TakenAt:   snap.TakenAt,
		Windows:   snap.Windows,
		Rows:      make([]rowView, 0, len(snap.Rows)),
		Requested: snap.Requested,
		Failures:  snap.Failures,
	}
	for _, row := range snap.Rows {
		rv := rowView{
			Instrument: row.Instrument,
			Label:      s.labeler.Label(row.Instrument),
			Date:       row.Date,
			Cells:      make([]cellView, 0, len(snap.Windows)),
		}
		for _, w := range snap.Windows {
			cell := cellView{Window: w}
			if v, ok := row.Value(w); ok {
				bucket := display.Classify(float64(v))
				cell.Value = &v
				cell.Bucket = bucket
				cell.Color = display.BucketColor(bucket)
			}
			rv.Cells = append(rv.Cells, cell)
		}
		tv.Rows = append(tv.Rows, rv)
	}
	return tv
}
