// Package gateway translates client messages into engine and ledger calls.
// Every transport (WebSocket, tests) funnels through Adapter.Handle.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/battle"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/catalog"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/ledger"
)

// Request types accepted from clients.
const (
	TypeSubmitAction   = "SubmitAction"
	TypeForceEvent     = "ForceEvent"
	TypeReset          = "Reset"
	TypeGetBattleState = "GetBattleState"
	TypePing           = "Ping"
	TypeEcho           = "Echo"
	TypeBuyXP          = "BuyXP"
	TypeRefreshShop    = "RefreshShop"
	TypeGetGameState   = "GetGameState"
	TypeCreateGame     = "CreateGame"

	// Older clients send these in lower case.
	typePingLower = "ping"
	typeEchoLower = "echo"
)

// Response types sent to clients.
const (
	TypeSuccess           = "Success"
	TypeError             = "Error"
	TypeBattleState       = "BattleState"
	TypeBuyXPResult       = "BuyXPResult"
	TypeRefreshShopResult = "RefreshShopResult"
	TypeGameStateResult   = "GetGameStateResult"
	TypeEvent             = "Event"
)

// ShopSize is the number of offers drawn per shop refresh and for a new bench.
const ShopSize = 5

type Request struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Response struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ErrorPayload is the body of every Error response.
type ErrorPayload struct {
	Error string      `json:"error"`
	Code  battle.Code `json:"code,omitempty"`
}

func ErrorResponse(msg string) Response {
	return Response{Type: TypeError, Payload: ErrorPayload{Error: msg}}
}

// EngineErrorResponse reports an engine error with its stable code.
func EngineErrorResponse(err error) Response {
	return Response{Type: TypeError, Payload: ErrorPayload{Error: err.Error(), Code: battle.CodeOf(err)}}
}

func InvalidJSON() Response { return ErrorResponse("invalid json") }

func BinaryNotSupported() Response { return ErrorResponse("binary not supported") }

func ConnectionTimeout() Response { return ErrorResponse("connection timeout") }

func UnknownAction(t string) Response { return ErrorResponse("unknown action: " + t) }

// Engine is the subset of *battle.Engine the adapter drives.
type Engine interface {
	SubmitAction(a battle.Action) error
	ForceEvent(ev battle.Event) error
	Reset()
	Snapshot() battle.Snapshot
}

// Shop draws offers for shop refreshes and starting benches.
type Shop interface {
	DrawShop(n int) []catalog.ShopEntry
}

type Adapter struct {
	engine Engine
	ledger ledger.Ledger
	shop   Shop
	logger *slog.Logger
	tracer trace.Tracer
}

func NewAdapter(engine Engine, l ledger.Ledger, shop Shop, logger *slog.Logger) *Adapter {
	return &Adapter{
		engine: engine,
		ledger: l,
		shop:   shop,
		logger: logger,
		tracer: otel.Tracer("github.com/AI-Driven-Creators/Chess-fight-backend/internal/gateway"),
	}
}

// HandleText decodes one text frame and dispatches it.
func (a *Adapter) HandleText(ctx context.Context, data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return InvalidJSON()
	}
	return a.Handle(ctx, req)
}

// Handle dispatches req to its handler. Unknown types produce an Error response.
func (a *Adapter) Handle(ctx context.Context, req Request) Response {
	ctx, span := a.tracer.Start(ctx, "gateway."+req.Type,
		trace.WithAttributes(attribute.String("request.type", req.Type)))
	defer span.End()

	var resp Response
	switch req.Type {
	case TypeSubmitAction:
		resp = a.submitAction(req.Payload)
	case TypeForceEvent:
		resp = a.forceEvent(req.Payload)
	case TypeReset:
		a.engine.Reset()
		resp = Response{Type: TypeSuccess, Payload: map[string]any{"phase": battle.PhaseInit}}
	case TypeGetBattleState:
		resp = Response{Type: TypeBattleState, Payload: NewBattleState(a.engine.Snapshot())}
	case TypePing, typePingLower:
		resp = Response{Type: TypeSuccess, Payload: map[string]any{"status": "ok", "pong": true}}
	case TypeEcho, typeEchoLower:
		resp = a.echo(req.Payload)
	case TypeBuyXP:
		resp = a.buyXP(ctx, req.Payload)
	case TypeRefreshShop:
		resp = a.refreshShop(ctx, req.Payload)
	case TypeGetGameState:
		resp = a.gameState(ctx, req.Payload)
	case TypeCreateGame:
		resp = a.createGame(ctx, req.Payload)
	default:
		resp = UnknownAction(req.Type)
	}

	if resp.Type == TypeError {
		if p, ok := resp.Payload.(ErrorPayload); ok {
			span.SetStatus(codes.Error, p.Error)
		}
	}
	return resp
}

func (a *Adapter) submitAction(raw json.RawMessage) Response {
	var act battle.Action
	if err := json.Unmarshal(raw, &act); err != nil {
		return InvalidJSON()
	}
	if err := a.engine.SubmitAction(act); err != nil {
		return EngineErrorResponse(err)
	}
	return Response{Type: TypeSuccess, Payload: map[string]any{"accepted": true}}
}

func (a *Adapter) forceEvent(raw json.RawMessage) Response {
	var body struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return InvalidJSON()
	}
	ev, err := battle.ParseEvent(body.Event)
	if err != nil {
		return Response{Type: TypeError, Payload: ErrorPayload{Error: err.Error(), Code: battle.CodeInvalidEventHandling}}
	}
	if err := a.engine.ForceEvent(ev); err != nil {
		return EngineErrorResponse(err)
	}
	return Response{Type: TypeSuccess, Payload: map[string]any{"phase": a.engine.Snapshot().Phase}}
}

func (a *Adapter) echo(raw json.RawMessage) Response {
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return InvalidJSON()
		}
	}
	if body.Data == nil {
		body.Data = json.RawMessage("null")
	}
	return Response{Type: TypeSuccess, Payload: map[string]any{"status": "ok", "echo": body.Data}}
}

func parsePlayerID(raw json.RawMessage) (string, *Response) {
	if len(raw) == 0 {
		r := ErrorResponse("missing playerId")
		return "", &r
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		r := InvalidJSON()
		return "", &r
	}
	v, ok := body["playerId"]
	if !ok {
		r := ErrorResponse("missing playerId")
		return "", &r
	}
	var id string
	if err := json.Unmarshal(v, &id); err != nil {
		r := ErrorResponse("invalid playerId format")
		return "", &r
	}
	return id, nil
}

type failure struct {
	PlayerID string `json:"playerId"`
	Success  bool   `json:"success"`
	Reason   string `json:"reason"`
}

func (a *Adapter) ledgerFailure(typ, playerID string, err error) Response {
	if !errors.Is(err, ledger.ErrPlayerNotFound) && !errors.Is(err, ledger.ErrNotEnoughMoney) {
		a.logger.Error("ledger operation failed", "type", typ, "player_id", playerID, "error", err)
		return ErrorResponse("internal server error")
	}
	return Response{Type: typ, Payload: failure{PlayerID: playerID, Reason: err.Error()}}
}

func (a *Adapter) buyXP(ctx context.Context, raw json.RawMessage) Response {
	id, bad := parsePlayerID(raw)
	if bad != nil {
		return *bad
	}
	p, err := a.ledger.BuyXP(ctx, id)
	if err != nil {
		return a.ledgerFailure(TypeBuyXPResult, id, err)
	}
	return Response{Type: TypeBuyXPResult, Payload: struct {
		PlayerID string    `json:"playerId"`
		Success  bool      `json:"success"`
		Money    int       `json:"money"`
		XP       ledger.XP `json:"xp"`
	}{p.ID, true, p.Money, p.XP}}
}

func (a *Adapter) refreshShop(ctx context.Context, raw json.RawMessage) Response {
	id, bad := parsePlayerID(raw)
	if bad != nil {
		return *bad
	}
	p, err := a.ledger.RefreshShop(ctx, id)
	if err != nil {
		return a.ledgerFailure(TypeRefreshShopResult, id, err)
	}
	return Response{Type: TypeRefreshShopResult, Payload: struct {
		PlayerID string              `json:"playerId"`
		Success  bool                `json:"success"`
		Shop     []catalog.ShopEntry `json:"shop"`
		Money    int                 `json:"money"`
	}{p.ID, true, a.shop.DrawShop(ShopSize), p.Money}}
}

// createGame registers a fresh player with a random starting bench and
// echoes the client's seed back.
func (a *Adapter) createGame(ctx context.Context, raw json.RawMessage) Response {
	var body struct {
		Seed int64 `json:"seed"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return InvalidJSON()
		}
	}

	id := newPlayerID()
	if _, err := ledger.GetOrCreate(ctx, a.ledger, id, ledger.DefaultPlayerMoney, a.startingBench()); err != nil {
		a.logger.Error("creating player failed", "player_id", id, "error", err)
		return ErrorResponse("internal server error")
	}
	a.logger.Info("player created", "player_id", id, "seed", body.Seed)
	return Response{Type: TypeCreateGame, Payload: map[string]any{
		"playerId": id,
		"seed":     body.Seed,
	}}
}

// newPlayerID returns "p" followed by eight hex characters.
func newPlayerID() string {
	return "p" + uuid.NewString()[:8]
}

func (a *Adapter) startingBench() []ledger.BenchUnit {
	var bench []ledger.BenchUnit
	for _, e := range a.shop.DrawShop(ShopSize) {
		bench = append(bench, ledger.BenchUnit{Chess: e.Chess, Level: e.Level})
	}
	return bench
}

// GameState is the per-player view returned by GetGameState.
type GameState struct {
	PlayerID string             `json:"playerId"`
	Round    int                `json:"round"`
	Phase    battle.Phase       `json:"phase"`
	Money    int                `json:"money"`
	Level    int                `json:"level"`
	XP       ledger.XP          `json:"xp"`
	Bench    []ledger.BenchUnit `json:"bench"`
}

// gameState returns the player's state, creating the player with a random
// starting bench on first sight.
func (a *Adapter) gameState(ctx context.Context, raw json.RawMessage) Response {
	id, bad := parsePlayerID(raw)
	if bad != nil {
		return *bad
	}
	if id == "" {
		return ErrorResponse("missing playerId")
	}

	p, err := ledger.GetOrCreate(ctx, a.ledger, id, ledger.DefaultPlayerMoney, a.startingBench())
	if err != nil {
		a.logger.Error("loading game state failed", "player_id", id, "error", err)
		return ErrorResponse(fmt.Sprintf("loading player %q failed", id))
	}

	snap := a.engine.Snapshot()
	return Response{Type: TypeGameStateResult, Payload: map[string]any{
		"playerId": id,
		"gameState": GameState{
			PlayerID: p.ID,
			Round:    snap.Round,
			Phase:    snap.Phase,
			Money:    p.Money,
			Level:    p.Level(),
			XP:       p.XP,
			Bench:    p.Bench,
		},
	}}
}

// BattleState is the wire view of an engine snapshot. Durations are seconds.
type BattleState struct {
	Phase     battle.Phase       `json:"phase"`
	History   []battle.Phase     `json:"history"`
	Durations map[string]float64 `json:"durations"`
	Clock     float64            `json:"clock"`
	TimeScale float64            `json:"timeScale"`
	Pending   []battle.Action    `json:"pending"`
	Completed []battle.Action    `json:"completed"`
	Round     int                `json:"round"`
}

func NewBattleState(s battle.Snapshot) BattleState {
	durations := make(map[string]float64, len(s.Durations))
	for p, d := range s.Durations {
		durations[p.String()] = d.Seconds()
	}
	pending := s.Pending
	if pending == nil {
		pending = []battle.Action{}
	}
	completed := s.Completed
	if completed == nil {
		completed = []battle.Action{}
	}
	return BattleState{
		Phase:     s.Phase,
		History:   s.History,
		Durations: durations,
		Clock:     s.Clock,
		TimeScale: s.TimeScale,
		Pending:   pending,
		Completed: completed,
		Round:     s.Round,
	}
}
