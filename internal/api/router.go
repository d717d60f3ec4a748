package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"frostmeter/internal/storage"
)

// CommandSink is what the API layer needs from the tracking engine: the
// ability to raise command flags the packet loop consumes. Implemented by the
// command listener; mocked in tests.
type CommandSink interface {
	RequestReset()
	RequestSave()
	RequestPauseToggle()
	RequestDetailsToggle()
	RequestBossOnly(enabled bool)
}

// EncounterStore is the read side of the saved-encounter repository used by
// the list/detail endpoints.
type EncounterStore interface {
	ListPreviews(limit, offset int) ([]storage.Preview, error)
	Get(id int64) (*storage.EncounterRecord, error)
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Commands: listener,
//	    Store:    repo,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Commands receives the external control signals (required)
	Commands CommandSink

	// Store serves saved encounters; nil disables the history endpoints
	Store EncounterStore

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default production origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	commands CommandSink
	store    EncounterStore
}

// NewRouter constructs the HTTP router with all middleware and routes. It
// opens no network listeners, which makes it safe to use in tests with
// httptest.NewServer. The only background work is the rate limiter's cleanup
// loop (skipped when a pre-built limiter is passed in).
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
			"app://localhost",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		commands: cfg.Commands,
		store:    cfg.Store,
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		// Saved encounter history
		r.Get("/encounters", h.handleListEncounters)
		r.Get("/encounters/{id}", h.handleGetEncounter)

		// Engine commands
		r.Post("/command/reset", h.handleReset)
		r.Post("/command/save", h.handleSave)
		r.Post("/command/pause", h.handlePause)
		r.Post("/command/boss-only", h.handleBossOnly)
		r.Post("/command/details", h.handleDetails)
	})

	return r
}
