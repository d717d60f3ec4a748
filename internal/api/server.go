package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server is the HTTP API server with WebSocket support. It hosts the command
// endpoints, the saved-encounter history, and the event hub the tracking loop
// publishes through.
type Server struct {
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
}

// NewServer creates a new API server with default production configuration.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(commands CommandSink, store EncounterStore, corsOrigins []string) *Server {
	s := &Server{
		wsHub: NewWebSocketHub(),
	}

	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)

	s.router = NewRouter(RouterConfig{
		Commands:    commands,
		Store:       store,
		RateLimiter: s.rateLimiter,
		CORSOrigins: corsOrigins,
	})

	// WebSocket route needs the hub instance, so it can't live in the pure
	// NewRouter factory.
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Hub returns the event hub; the tracking loop uses it as its emitter.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that starts goroutines or opens network listeners.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()

	log.Printf("🌐 API server starting on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
