package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/battle"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/catalog"
)

// HealthResponse documents the /healthz body: one entry per dependency.
type HealthResponse map[string]struct {
	Status string `json:"status" enum:"ok,error"`
}

type matchPath struct {
	MatchID string `path:"matchID"`
}

type unitPath struct {
	UnitID string `path:"unitID"`
}

type skillPath struct {
	SkillID string `path:"skillID"`
}

type adminRequest struct {
	matchPath
	Authorization string `header:"Authorization" description:"Bearer admin token, required when ADMIN_TOKEN_HASH is set."`
}

type submitActionRequest struct {
	matchPath
	battle.Action
}

type forceEventRequest struct {
	adminRequest
	ForceEventRequest
}

type transitionRequest struct {
	adminRequest
	TransitionRequest
}

type timeScaleRequest struct {
	adminRequest
	TimeScaleRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Chess Fight API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Battle orchestration backend: match lifecycle, action scheduling and player bookkeeping.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/matches/{matchID}
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws/matches/{matchID}")
	getWS.SetSummary("Match WebSocket")
	getWS.SetDescription("Upgrades to a WebSocket carrying {type, payload} commands for the match and pushing its events.")
	getWS.AddReqStructure(matchPath{})
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNotFound),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// GET /api/catalog/units/{unitID}
	getUnit, _ := r.NewOperationContext(http.MethodGet, "/api/catalog/units/{unitID}")
	getUnit.SetSummary("Get unit template")
	getUnit.AddReqStructure(unitPath{})
	getUnit.AddRespStructure(catalog.Unit{}, openapi.WithHTTPStatus(http.StatusOK))
	getUnit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getUnit)

	// GET /api/catalog/skills/{skillID}
	getSkill, _ := r.NewOperationContext(http.MethodGet, "/api/catalog/skills/{skillID}")
	getSkill.SetSummary("Get skill template")
	getSkill.AddReqStructure(skillPath{})
	getSkill.AddRespStructure(catalog.Skill{}, openapi.WithHTTPStatus(http.StatusOK))
	getSkill.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSkill)

	// GET /api/matches
	listMatches, _ := r.NewOperationContext(http.MethodGet, "/api/matches")
	listMatches.SetSummary("List matches")
	listMatches.SetDescription("Returns every live match ordered by creation time.")
	listMatches.AddRespStructure([]MatchResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listMatches)

	// POST /api/matches
	createMatch, _ := r.NewOperationContext(http.MethodPost, "/api/matches")
	createMatch.SetSummary("Create match")
	createMatch.SetDescription("Starts a new match in the Init phase and begins ticking it.")
	createMatch.AddRespStructure(MatchResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(createMatch)

	// GET /api/matches/{matchID}
	getMatch, _ := r.NewOperationContext(http.MethodGet, "/api/matches/{matchID}")
	getMatch.SetSummary("Get match")
	getMatch.SetDescription("Returns phase, history, durations, clock and queued actions.")
	getMatch.AddReqStructure(matchPath{})
	getMatch.AddRespStructure(MatchResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMatch)

	// POST /api/matches/{matchID}/actions
	postAction, _ := r.NewOperationContext(http.MethodPost, "/api/matches/{matchID}/actions")
	postAction.SetSummary("Submit action")
	postAction.SetDescription("Schedules an action on the match clock. Only accepted during Fighting.")
	postAction.AddReqStructure(submitActionRequest{})
	postAction.AddRespStructure(MatchResponse{}, openapi.WithHTTPStatus(http.StatusAccepted))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postAction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAction)

	// GET /api/matches/{matchID}/stream
	getStream, _ := r.NewOperationContext(http.MethodGet, "/api/matches/{matchID}/stream")
	getStream.SetSummary("SSE event stream")
	getStream.SetDescription("Server-Sent Events stream of phase changes, released actions and completed rounds.")
	getStream.AddReqStructure(matchPath{})
	getStream.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getStream)

	// POST /api/matches/{matchID}/events
	postEvent, _ := r.NewOperationContext(http.MethodPost, "/api/matches/{matchID}/events")
	postEvent.SetSummary("Force event")
	postEvent.SetDescription("Delivers WaitingTimedOut, BattleStart or BattleEnd to the match. Admin only.")
	postEvent.AddReqStructure(forceEventRequest{})
	postEvent.AddRespStructure(MatchResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postEvent)

	// POST /api/matches/{matchID}/transitions
	postTransition, _ := r.NewOperationContext(http.MethodPost, "/api/matches/{matchID}/transitions")
	postTransition.SetSummary("Request transition")
	postTransition.SetDescription("Moves the match to the next phase along a legal edge. Admin only.")
	postTransition.AddReqStructure(transitionRequest{})
	postTransition.AddRespStructure(MatchResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postTransition.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postTransition.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postTransition.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postTransition)

	// POST /api/matches/{matchID}/reset
	postReset, _ := r.NewOperationContext(http.MethodPost, "/api/matches/{matchID}/reset")
	postReset.SetSummary("Reset match")
	postReset.SetDescription("Forces the match back to Init with empty history, queue and durations. Admin only.")
	postReset.AddReqStructure(adminRequest{})
	postReset.AddRespStructure(MatchResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postReset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postReset)

	// PUT /api/matches/{matchID}/time-scale
	putScale, _ := r.NewOperationContext(http.MethodPut, "/api/matches/{matchID}/time-scale")
	putScale.SetSummary("Set time scale")
	putScale.SetDescription("Sets the match clock multiplier. 0 pauses combat. Admin only.")
	putScale.AddReqStructure(timeScaleRequest{})
	putScale.AddRespStructure(MatchResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	putScale.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(putScale)

	// DELETE /api/matches/{matchID}
	deleteMatch, _ := r.NewOperationContext(http.MethodDelete, "/api/matches/{matchID}")
	deleteMatch.SetSummary("Delete match")
	deleteMatch.SetDescription("Stops the match runner and forgets the match. Admin only.")
	deleteMatch.AddReqStructure(adminRequest{})
	deleteMatch.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	deleteMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(deleteMatch)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
