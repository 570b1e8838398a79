package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/battle"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/catalog"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/gateway"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/ledger"
)

type fixture struct {
	engine  *battle.Engine
	ledger  *ledger.MemoryLedger
	adapter *gateway.Adapter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	e := battle.NewEngine()
	l := ledger.NewMemoryLedger()
	if err := ledger.SeedDefault(context.Background(), l); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fixture{engine: e, ledger: l, adapter: gateway.NewAdapter(e, l, cat, logger)}
}

// roundTrip sends raw through the adapter and decodes the JSON response.
func roundTrip(t *testing.T, a *gateway.Adapter, raw string) (string, map[string]any) {
	t.Helper()
	resp := a.HandleText(context.Background(), []byte(raw))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("encoding response: %v", err)
	}
	var out struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out.Type, out.Payload
}

func toFighting(t *testing.T, e *battle.Engine) {
	t.Helper()
	if err := e.RequestTransition(battle.PhaseWaiting); err != nil {
		t.Fatalf("to waiting: %v", err)
	}
	if err := e.ForceEvent(battle.EventWaitingTimedOut); err != nil {
		t.Fatalf("to fighting: %v", err)
	}
}

func TestErrorReplies(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"invalid json", `{"type":`, "invalid json"},
		{"unknown type", `{"type":"Teleport","payload":{}}`, "unknown action: Teleport"},
		{"missing player", `{"type":"BuyXP","payload":{}}`, "missing playerId"},
		{"no payload", `{"type":"RefreshShop"}`, "missing playerId"},
		{"bad player id", `{"type":"BuyXP","payload":{"playerId":7}}`, "invalid playerId format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, payload := roundTrip(t, f.adapter, tt.raw)
			if typ != gateway.TypeError {
				t.Fatalf("type = %q, want Error", typ)
			}
			if payload["error"] != tt.want {
				t.Errorf("error = %v, want %q", payload["error"], tt.want)
			}
		})
	}
}

func TestPingAndEcho(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		raw       string
		key, want any
	}{
		{`{"type":"Ping"}`, "pong", true},
		{`{"type":"ping"}`, "pong", true},
		{`{"type":"Echo","payload":{"data":"hola"}}`, "echo", "hola"},
		{`{"type":"echo","payload":{"data":"hola"}}`, "echo", "hola"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			typ, payload := roundTrip(t, f.adapter, tt.raw)
			if typ != gateway.TypeSuccess || payload[tt.key.(string)] != tt.want {
				t.Errorf("got %s %v", typ, payload)
			}
		})
	}
}

func TestCreateGame(t *testing.T) {
	f := newFixture(t)

	typ, payload := roundTrip(t, f.adapter, `{"type":"CreateGame","payload":{"seed":42}}`)
	if typ != gateway.TypeCreateGame {
		t.Fatalf("type = %s %v", typ, payload)
	}
	if payload["seed"] != 42.0 {
		t.Errorf("seed = %v, want 42", payload["seed"])
	}
	id, _ := payload["playerId"].(string)
	if len(id) != 9 || id[0] != 'p' {
		t.Fatalf("playerId = %q", id)
	}
	p, err := f.ledger.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("player not stored: %v", err)
	}
	if p.Money != ledger.DefaultPlayerMoney || len(p.Bench) != gateway.ShopSize {
		t.Errorf("player = %+v", p)
	}

	typ, payload = roundTrip(t, f.adapter, `{"type":"CreateGame"}`)
	if typ != gateway.TypeCreateGame || payload["seed"] != 0.0 {
		t.Errorf("no payload: %s %v", typ, payload)
	}
	if payload["playerId"] == id {
		t.Error("expected a new player id")
	}
}

func TestSubmitAction(t *testing.T) {
	f := newFixture(t)
	submit := `{"type":"SubmitAction","payload":{"kind":"Attack","unitId":"u1","executeAt":1}}`

	typ, payload := roundTrip(t, f.adapter, submit)
	if typ != gateway.TypeError || payload["code"] != string(battle.CodeInvalidStateTransition) {
		t.Errorf("outside fighting = %s %v, want INVALID_STATE_TRANSITION", typ, payload)
	}

	toFighting(t, f.engine)
	typ, payload = roundTrip(t, f.adapter, submit)
	if typ != gateway.TypeSuccess {
		t.Fatalf("in fighting = %s %v", typ, payload)
	}

	typ, payload = roundTrip(t, f.adapter, `{"type":"SubmitAction","payload":{"kind":"Attack","unitId":"","executeAt":1}}`)
	if typ != gateway.TypeError || payload["code"] != string(battle.CodeInvalidAction) {
		t.Errorf("empty unit = %s %v, want INVALID_ACTION", typ, payload)
	}

	if n := len(f.engine.Snapshot().Pending); n != 1 {
		t.Errorf("pending = %d, want 1", n)
	}
}

func TestForceEventAndReset(t *testing.T) {
	f := newFixture(t)

	typ, payload := roundTrip(t, f.adapter, `{"type":"ForceEvent","payload":{"event":"BattleStart"}}`)
	if typ != gateway.TypeError || payload["code"] != string(battle.CodeInvalidEventHandling) {
		t.Errorf("BattleStart = %s %v", typ, payload)
	}
	typ, payload = roundTrip(t, f.adapter, `{"type":"ForceEvent","payload":{"event":"Explode"}}`)
	if typ != gateway.TypeError || payload["code"] != string(battle.CodeInvalidEventHandling) {
		t.Errorf("unknown event = %s %v", typ, payload)
	}

	if err := f.engine.RequestTransition(battle.PhaseWaiting); err != nil {
		t.Fatal(err)
	}
	typ, payload = roundTrip(t, f.adapter, `{"type":"ForceEvent","payload":{"event":"WaitingTimedOut"}}`)
	if typ != gateway.TypeSuccess || payload["phase"] != "Fighting" {
		t.Errorf("WaitingTimedOut = %s %v", typ, payload)
	}

	typ, _ = roundTrip(t, f.adapter, `{"type":"Reset"}`)
	if typ != gateway.TypeSuccess {
		t.Errorf("reset type = %s", typ)
	}
	if got := f.engine.CurrentPhase(); got != battle.PhaseInit {
		t.Errorf("phase after reset = %s, want Init", got)
	}
}

func TestGetBattleState(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.Tick(0); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Tick(3 * time.Second); err != nil {
		t.Fatal(err)
	}
	if err := f.engine.ForceEvent(battle.EventWaitingTimedOut); err != nil {
		t.Fatal(err)
	}

	typ, payload := roundTrip(t, f.adapter, `{"type":"GetBattleState"}`)
	if typ != gateway.TypeBattleState {
		t.Fatalf("type = %s", typ)
	}
	if payload["phase"] != "Fighting" {
		t.Errorf("phase = %v", payload["phase"])
	}
	durations, _ := payload["durations"].(map[string]any)
	if durations["Waiting"] != 3.0 {
		t.Errorf("durations = %v, want Waiting=3", durations)
	}
	if h, _ := payload["history"].([]any); len(h) != 3 {
		t.Errorf("history = %v", payload["history"])
	}
}

func TestBuyXP(t *testing.T) {
	f := newFixture(t)

	typ, payload := roundTrip(t, f.adapter, `{"type":"BuyXP","payload":{"playerId":"p1"}}`)
	if typ != gateway.TypeBuyXPResult || payload["success"] != true {
		t.Fatalf("buy = %s %v", typ, payload)
	}
	if payload["money"] != 96.0 {
		t.Errorf("money = %v, want 96", payload["money"])
	}
	xp, _ := payload["xp"].(map[string]any)
	if xp["current"] != 1.0 || xp["required"] != 2.0 {
		t.Errorf("xp = %v", xp)
	}

	typ, payload = roundTrip(t, f.adapter, `{"type":"BuyXP","payload":{"playerId":"ghost"}}`)
	if typ != gateway.TypeBuyXPResult || payload["success"] != false || payload["reason"] != "player not found" {
		t.Errorf("ghost = %s %v", typ, payload)
	}
}

func TestRefreshShop(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ledger.Create(context.Background(), "broke", 1, nil); err != nil {
		t.Fatal(err)
	}

	typ, payload := roundTrip(t, f.adapter, `{"type":"RefreshShop","payload":{"playerId":"p1"}}`)
	if typ != gateway.TypeRefreshShopResult || payload["success"] != true {
		t.Fatalf("refresh = %s %v", typ, payload)
	}
	shop, _ := payload["shop"].([]any)
	if len(shop) != gateway.ShopSize {
		t.Errorf("shop size = %d, want %d", len(shop), gateway.ShopSize)
	}
	seen := map[any]bool{}
	for _, e := range shop {
		entry := e.(map[string]any)
		if seen[entry["chess"]] {
			t.Errorf("duplicate offer %v", entry["chess"])
		}
		seen[entry["chess"]] = true
		if entry["level"] != 1.0 {
			t.Errorf("offer level = %v, want 1", entry["level"])
		}
	}

	typ, payload = roundTrip(t, f.adapter, `{"type":"RefreshShop","payload":{"playerId":"broke"}}`)
	if typ != gateway.TypeRefreshShopResult || payload["success"] != false || payload["reason"] != "not enough money" {
		t.Errorf("broke = %s %v", typ, payload)
	}
}

func TestGetGameStateCreatesPlayer(t *testing.T) {
	f := newFixture(t)

	typ, payload := roundTrip(t, f.adapter, `{"type":"GetGameState","payload":{"playerId":"newbie"}}`)
	if typ != gateway.TypeGameStateResult {
		t.Fatalf("type = %s %v", typ, payload)
	}
	state, _ := payload["gameState"].(map[string]any)
	if state["money"] != float64(ledger.DefaultPlayerMoney) || state["level"] != 1.0 || state["round"] != 1.0 {
		t.Errorf("state = %v", state)
	}
	bench, _ := state["bench"].([]any)
	if len(bench) != gateway.ShopSize {
		t.Errorf("bench size = %d, want %d", len(bench), gateway.ShopSize)
	}

	// Second call returns the stored player rather than a new bench.
	p, err := f.ledger.Get(context.Background(), "newbie")
	if err != nil {
		t.Fatalf("player not stored: %v", err)
	}
	_, payload = roundTrip(t, f.adapter, `{"type":"GetGameState","payload":{"playerId":"newbie"}}`)
	state, _ = payload["gameState"].(map[string]any)
	bench, _ = state["bench"].([]any)
	for i, b := range bench {
		if b.(map[string]any)["chess"] != p.Bench[i].Chess {
			t.Errorf("bench[%d] changed between calls", i)
		}
	}
}
