package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// MaxBodyBytes caps request bodies; zero disables the limit.
	MaxBodyBytes int64
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   1 << 20,
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /submit", h.Submit)
	mux.HandleFunc("GET /api/state", h.State)
	mux.HandleFunc("POST /api/reset", h.Reset)
	mux.HandleFunc("GET /media/{id}", h.Media)
	mux.HandleFunc("GET /media/{id}/download", h.Download)
	mux.HandleFunc("GET /health", h.Health)

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
		BodyLimitMiddleware(cfg.MaxBodyBytes),
	)

	return chain(mux)
}
