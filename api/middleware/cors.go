package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/dmarrez/storefront-backend/pkg/config"
)

// CORS applies the storefront SPA origin policy. Credentials stay enabled so
// the buyer correlation cookie travels with cross-origin basket requests.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
