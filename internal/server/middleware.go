package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/match"
)

type ctxKey int

const ctxKeyMatch ctxKey = iota

func matchMiddleware(matches *match.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "matchID")
			m, err := matches.Get(id)
			if err != nil {
				writeError(w, http.StatusNotFound, "match not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyMatch, m)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// adminAuthMiddleware checks the bearer token against a bcrypt hash.
func adminAuthMiddleware(logger *slog.Logger, tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				logger.Warn("admin token rejected", "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func matchFrom(r *http.Request) *match.Match {
	return r.Context().Value(ctxKeyMatch).(*match.Match)
}
