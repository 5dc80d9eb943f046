package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bharadwajkrishnan/finai/internal/domain"
	"github.com/bharadwajkrishnan/finai/internal/logger"
	"github.com/bharadwajkrishnan/finai/internal/usecase/tracker"
)

// loginPath is where clients send the user after a forced logout
const loginPath = "/login"

type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("Failed to encode response", "error", err)
	}
}

func sendJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps a use case error to an HTTP status and a user-facing message
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var rejected *domain.RejectedError
	msg := domain.UserMessage(err)

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: msg, Redirect: loginPath})
		return
	case errors.Is(err, domain.ErrBackendUnreachable):
		logger.FromContext(ctx).Warn("Backend unreachable", "error", err)
		sendJSONError(w, msg, http.StatusBadGateway)
	case errors.Is(err, domain.ErrNotFound):
		sendJSONError(w, msg, http.StatusNotFound)
	case errors.Is(err, domain.ErrCancelled):
		sendJSONError(w, msg, http.StatusConflict)
	case errors.Is(err, tracker.ErrNothingSelected):
		sendJSONError(w, "No assets selected.", http.StatusBadRequest)
	case errors.As(err, &rejected):
		status := rejected.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		sendJSONError(w, msg, status)
	default:
		logger.FromContext(ctx).Error("Request failed", "error", err)
		sendJSONError(w, msg, http.StatusInternalServerError)
	}
}

type bucketContextKey struct{}

// bucketMiddleware parses the market and category path parameters
func bucketMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, err := domain.ParseMarket(chi.URLParam(r, "market"))
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		c, err := domain.ParseCategory(chi.URLParam(r, "category"))
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctx := context.WithValue(r.Context(), bucketContextKey{}, domain.Key(c, m))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bucketFrom(r *http.Request) domain.BucketKey {
	key, _ := r.Context().Value(bucketContextKey{}).(domain.BucketKey)
	return key
}
