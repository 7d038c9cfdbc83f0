package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"secondbrain/internal/platform/config"
)

// CORS wraps the router with the configured cross-origin policy.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           cfg.MaxAge,
	})
}
