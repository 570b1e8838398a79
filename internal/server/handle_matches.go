package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/battle"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/gateway"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/match"
)

// MatchResponse describes one match and its current battle state.
type MatchResponse struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"createdAt"`
	State     gateway.BattleState `json:"state"`
}

// ForceEventRequest is the request body for POST /api/matches/{matchID}/events.
type ForceEventRequest struct {
	Event string `json:"event"`
}

// TransitionRequest is the request body for POST /api/matches/{matchID}/transitions.
type TransitionRequest struct {
	To string `json:"to"`
}

// TimeScaleRequest is the request body for PUT /api/matches/{matchID}/time-scale.
type TimeScaleRequest struct {
	Scale float64 `json:"scale"`
}

func newMatchResponse(m *match.Match) MatchResponse {
	return MatchResponse{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		State:     gateway.NewBattleState(m.Engine.Snapshot()),
	}
}

func handleCreateMatch(matches *match.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := matches.Create()
		if errors.Is(err, match.ErrClosed) {
			writeError(w, http.StatusServiceUnavailable, "server shutting down")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, newMatchResponse(m))
	}
}

func handleListMatches(matches *match.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := matches.List()
		out := make([]MatchResponse, 0, len(list))
		for _, m := range list {
			out = append(out, newMatchResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetMatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newMatchResponse(matchFrom(r)))
	}
}

func handleSubmitAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a battle.Action
		if err := readJSON(r, &a); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		m := matchFrom(r)
		if err := m.Engine.SubmitAction(a); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, newMatchResponse(m))
	}
}

func handleForceEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ForceEventRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		ev, err := battle.ParseEvent(req.Event)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: battle.CodeInvalidEventHandling})
			return
		}

		m := matchFrom(r)
		if err := m.Engine.ForceEvent(ev); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newMatchResponse(m))
	}
}

func handleRequestTransition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TransitionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		to, err := battle.ParsePhase(req.To)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: battle.CodeInvalidStateTransition})
			return
		}

		m := matchFrom(r)
		if err := m.Engine.RequestTransition(to); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newMatchResponse(m))
	}
}

func handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := matchFrom(r)
		m.Engine.Reset()
		writeJSON(w, http.StatusOK, newMatchResponse(m))
	}
}

func handleSetTimeScale() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimeScaleRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		m := matchFrom(r)
		m.Engine.SetTimeScale(req.Scale)
		writeJSON(w, http.StatusOK, newMatchResponse(m))
	}
}

func handleDeleteMatch(matches *match.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := matches.Remove(matchFrom(r).ID); err != nil {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
