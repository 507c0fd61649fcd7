// Package dashboard serves the filter-and-rank page, its JSON API, and the
// per-model detail narratives.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/carscout/internal/dataset"
	"github.com/KaramelBytes/carscout/internal/filter"
	"github.com/KaramelBytes/carscout/internal/narrative"
)

// Describer produces the narrative for one model.
type Describer interface {
	Describe(ctx context.Context, s narrative.Subject) (*narrative.Narrative, error)
}

type Options struct {
	Data      *dataset.Data
	Describer Describer
	Logger    zerolog.Logger
	// DetailsPerMinute caps narrative requests across all sessions.
	// Zero or less leaves them unthrottled.
	DetailsPerMinute int
	// ModelName is shown next to narratives ("gpt-3.5-turbo on Civic").
	ModelName string
}

type Server struct {
	data      *dataset.Data
	describer Describer
	log       zerolog.Logger
	sessions  *sessionStore
	limiter   *rate.Limiter
	page      *template.Template
	modelName string
	segments  []string
	started   time.Time
}

func New(opts Options) (*Server, error) {
	if opts.Data == nil {
		return nil, errors.New("dashboard: reference data is required")
	}
	if opts.Describer == nil {
		return nil, errors.New("dashboard: narrative describer is required")
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if n := opts.DetailsPerMinute; n > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
	}
	page, err := parsePage()
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	segments := opts.Data.Segments()
	return &Server{
		data:      opts.Data,
		describer: opts.Describer,
		log:       opts.Logger.With().Str("component", "dashboard").Logger(),
		sessions:  newSessionStore(func() filter.State { return filter.Defaults(segments) }),
		limiter:   limiter,
		page:      page,
		modelName: opts.ModelName,
		segments:  segments,
		started:   time.Now(),
	}, nil
}

// Handler returns the routed, instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(recoverer(s.log))

	r.Get("/", s.handleIndex)
	r.Post("/filters", s.handleFilters)
	r.Post("/reset", s.handleReset)
	r.Post("/details", s.handleDetails)

	r.Route("/api", func(r chi.Router) {
		r.Get("/rank", s.handleAPIRank)
		r.Get("/meta", s.handleAPIMeta)
		r.Post("/details", s.handleAPIDetails)
	})
	r.Get("/healthz", s.handleHealth)

	return traced("carscout")(r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Narrative calls block for up to the completion timeout.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Int("listings", len(s.data.Listings)).Msg("dashboard listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.log.Info().Msg("shutdown signal received")
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
