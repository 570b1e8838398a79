// Package notify delivers battle notifications to in-process subscribers and
// external channels.
package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/AI-Driven-Creators/Chess-fight-backend/internal/battle"
)

// Event is a battle notification tagged with the match it belongs to.
type Event struct {
	MatchID string `json:"matchId"`
	battle.Notification
}

func (e Event) Marshal() []byte {
	data, _ := json.Marshal(e)
	return data
}

// Publisher delivers match events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Fanout publishes every event to each of its publishers.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
