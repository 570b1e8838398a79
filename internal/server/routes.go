package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/catalog"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/match"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/notify"
)

// Deps are the collaborators the HTTP surface is built on.
type Deps struct {
	Matches *match.Registry
	Events  *notify.Broker
	// Catalog serves /api/catalog; nil leaves the routes unmounted.
	Catalog *catalog.Catalog
	// Health serves /healthz; nil leaves the route unmounted.
	Health http.Handler
	// MatchSocket serves /ws/matches/{matchID}; nil leaves the route unmounted.
	MatchSocket http.Handler
	// AdminTokenHash is a bcrypt hash of the admin bearer token. Empty leaves
	// admin routes open.
	AdminTokenHash string
}

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Chess Fight API", "/openapi.json", "/docs"))
	if deps.Health != nil {
		r.Mount("/healthz", deps.Health)
	}
	if deps.MatchSocket != nil {
		r.Mount("/ws/matches", deps.MatchSocket)
	}

	if deps.Catalog != nil {
		r.Route("/api/catalog", func(r chi.Router) {
			r.Get("/units/{unitID}", handleGetUnit(deps.Catalog))
			r.Get("/skills/{skillID}", handleGetSkill(deps.Catalog))
		})
	}

	r.Route("/api/matches", func(r chi.Router) {
		r.Get("/", handleListMatches(deps.Matches))
		r.Post("/", handleCreateMatch(deps.Matches))

		r.Route("/{matchID}", func(r chi.Router) {
			r.Use(matchMiddleware(deps.Matches))
			r.Get("/", handleGetMatch())
			r.Post("/actions", handleSubmitAction())
			r.Get("/stream", handleEvents(deps.Events))

			r.Group(func(r chi.Router) {
				r.Use(adminAuthMiddleware(logger, deps.AdminTokenHash))
				r.Post("/events", handleForceEvent())
				r.Post("/transitions", handleRequestTransition())
				r.Post("/reset", handleReset())
				r.Put("/time-scale", handleSetTimeScale())
				r.Delete("/", handleDeleteMatch(deps.Matches))
			})
		})
	})
}
