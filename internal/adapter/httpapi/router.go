package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bharadwajkrishnan/finai/internal/logger"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Options configures the router
type Options struct {
	// APIToken is the bearer token expected from clients; empty disables the check
	APIToken string

	// AllowedOrigins lists the browser origins allowed by CORS
	AllowedOrigins []string

	// Limiter throttles inbound requests; nil uses 10 req/s with a burst of 30
	Limiter *rate.Limiter
}

// NewRouter builds the HTTP API
func NewRouter(h *Handler, opts Options) http.Handler {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	r.Use(corsMiddleware(opts.AllowedOrigins))
	r.Use(rateLimitMiddleware(limiter))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/view", func(r chi.Router) {
		r.Use(authMiddleware(opts.APIToken))

		r.Get("/networth", h.GetNetWorth)
		r.Get("/members", h.GetMembers)
		r.Get("/filter", h.GetFilter)
		r.Put("/filter", h.SetFilter)
		r.Post("/refresh", h.Reload)
		r.Post("/refresh-prices", h.RefreshPrices)

		r.Get("/chat", h.GetChatHistory)
		r.Post("/chat", h.SendChat)
		r.Delete("/chat", h.ResetChat)

		r.Route("/{market}/{category}", func(r chi.Router) {
			r.Use(bucketMiddleware)

			r.Get("/", h.ListAssets)
			r.Post("/", h.CreateAsset)
			r.Put("/{id}", h.UpdateAsset)
			r.Delete("/{id}", h.DeleteAsset)
			r.Post("/move", h.MoveAsset)
			r.Post("/select", h.Select)
			r.Delete("/selected", h.DeleteSelected)
			r.Post("/import", h.ImportStatement)
		})
	})

	return r
}

// ContextualLoggerMiddleware attaches a logger carrying a request id to every request
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.FromContext(r.Context()).Warn("Rate limit exceeded", "path", r.URL.Path)
				sendJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func corsMiddleware(allowed []string) func(http.Handler) http.Handler {
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		origins[strings.TrimRight(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origins[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				logger.FromContext(r.Context()).Debug("Authorization header missing", "path", r.URL.Path)
				sendJSONError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}
			if strings.TrimPrefix(header, "Bearer ") != token {
				logger.FromContext(r.Context()).Warn("Invalid API token", "path", r.URL.Path)
				sendJSONError(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
