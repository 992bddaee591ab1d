package api

import (
	"context"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"cyberguard/internal/advisor"
	"cyberguard/internal/monitor"
	"cyberguard/internal/scanner"
	"cyberguard/internal/scheduler"
)

// maxSweepInterval bounds how late an idle session may outlive its TTL.
const maxSweepInterval = time.Minute

type Option func(*Handler) error

// WithScanOptions configures the scanner of every new session.
func WithScanOptions(opts ...scanner.Option) Option {
	return func(h *Handler) error {
		h.surfaces.scanOpts = append(h.surfaces.scanOpts, opts...)
		return nil
	}
}

// WithSessionExpiry drops sessions idle for longer than ttl, checking on
// sched. A zero ttl keeps sessions until they are deleted.
func WithSessionExpiry(sched *scheduler.Scheduler, ttl time.Duration) Option {
	return func(h *Handler) error {
		if ttl <= 0 || sched == nil {
			return nil
		}
		every := ttl
		if every > maxSweepInterval {
			every = maxSweepInterval
		}
		return sched.Every(every, "session-sweep", func(context.Context) {
			h.surfaces.sweep(ttl)
		})
	}
}

// Handler serves the CyberGuard JSON API.
type Handler struct {
	surfaces       *surfaces
	monitor        *monitor.Simulator
	logger         zerolog.Logger
	originPatterns []string
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, adv *advisor.Advisor, mon *monitor.Simulator, allowedOrigins []string, opts ...Option) *chi.Mux {
	h := &Handler{
		surfaces:       newSurfaces(adv, logger),
		monitor:        mon,
		logger:         logger,
		originPatterns: originPatterns(allowedOrigins),
	}
	for _, o := range opts {
		if err := o(h); err != nil {
			logger.Error().Err(err).Msg("router option not applied")
		}
	}

	r := chi.NewRouter()
	r.Use(instrument)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/content", h.catalog)
		r.Get("/content/search", h.search)

		r.Post("/sessions", h.createSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Delete("/", h.deleteSession)
			r.Get("/messages", h.messages)
			r.Post("/messages", h.sendMessage)
			r.Get("/scan", h.lastScan)
			r.Post("/scan", h.scan)
		})

		r.Get("/monitor", h.monitorSnapshot)
		r.Get("/monitor/stream", h.monitorStream)
	})

	return r
}

// originPatterns converts CORS origins into websocket host patterns.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
