package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/catalog"
)

func handleGetUnit(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := cat.Unit(chi.URLParam(r, "unitID"))
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unit not found")
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// handleGetSkill serves one skill template; clients resolve Unit.Skills through it.
func handleGetSkill(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := cat.Skill(chi.URLParam(r, "skillID"))
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "skill not found")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}
