// Package matchws serves the per-match WebSocket command channel.
package matchws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/gateway"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/ledger"
	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/match"
)

const (
	DefaultReadTimeout  = 30 * time.Second
	DefaultPingInterval = 10 * time.Second
)

// Matches looks up live matches.
type Matches interface {
	Get(id string) (*match.Match, error)
}

// Subscriber streams JSON-encoded match events.
type Subscriber interface {
	Subscribe(matchID string) chan []byte
	Unsubscribe(matchID string, ch chan []byte)
}

type Config struct {
	ReadTimeout  time.Duration
	PingInterval time.Duration
}

type Handler struct {
	matches Matches
	ledger  ledger.Ledger
	shop    gateway.Shop
	events  Subscriber
	cfg     Config
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, matches Matches, l ledger.Ledger, shop gateway.Shop, events Subscriber, cfg Config) *Handler {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	return &Handler{
		matches: matches,
		ledger:  l,
		shop:    shop,
		events:  events,
		cfg:     cfg,
		logger:  logger,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{matchID}", h.serve)
	return r
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	m, err := h.matches.Get(matchID)
	if errors.Is(err, match.ErrNotFound) {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("looking up match", "match_id", matchID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	logger := h.logger.With("match_id", matchID, "conn_id", uuid.NewString())
	logger.Info("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	adapter := gateway.NewAdapter(m.Engine, h.ledger, h.shop, logger)
	activity := make(chan struct{}, 1)

	go h.watchdog(ctx, cancel, conn, activity, logger)
	go h.forward(ctx, conn, matchID)

	for {
		typ, msg, err := conn.Read(ctx)
		if err != nil {
			logger.Debug("websocket read ended", "error", err)
			return
		}
		select {
		case activity <- struct{}{}:
		default:
		}

		var resp gateway.Response
		if typ == websocket.MessageBinary {
			resp = gateway.BinaryNotSupported()
		} else {
			resp = adapter.HandleText(ctx, msg)
		}
		if err := writeResponse(ctx, conn, resp); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}

// watchdog pings the peer and closes the connection once no message has
// arrived within the read timeout.
func (h *Handler) watchdog(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, activity <-chan struct{}, logger *slog.Logger) {
	idle := time.NewTimer(h.cfg.ReadTimeout)
	defer idle.Stop()
	ping := time.NewTicker(h.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-activity:
			idle.Reset(h.cfg.ReadTimeout)
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, h.cfg.PingInterval)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				logger.Debug("websocket ping failed", "error", err)
			}
		case <-idle.C:
			logger.Info("websocket idle timeout")
			wctx, wcancel := context.WithTimeout(context.Background(), time.Second)
			writeResponse(wctx, conn, gateway.ConnectionTimeout())
			wcancel()
			conn.Close(websocket.StatusPolicyViolation, "connection timeout")
			cancel()
			return
		}
	}
}

// forward pushes match notifications to the peer until ctx is done.
func (h *Handler) forward(ctx context.Context, conn *websocket.Conn, matchID string) {
	if h.events == nil {
		return
	}
	ch := h.events.Subscribe(matchID)
	defer h.events.Unsubscribe(matchID, ch)

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-ch:
			resp := gateway.Response{Type: gateway.TypeEvent, Payload: json.RawMessage(data)}
			if err := writeResponse(ctx, conn, resp); err != nil {
				return
			}
		}
	}
}

func writeResponse(ctx context.Context, conn *websocket.Conn, resp gateway.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		data = []byte(`{"type":"Error","payload":{"error":"internal server error"}}`)
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
