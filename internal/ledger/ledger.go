// Package ledger keeps per-player currency, experience and bench contents.
package ledger

import (
	"context"
	"errors"
	"math"
)

const (
	// XPCost is the money spent per BuyXP.
	XPCost = 4
	// ShopRefreshCost is the money spent per RefreshShop.
	ShopRefreshCost = 2

	DefaultPlayerID    = "p1"
	DefaultPlayerMoney = 100
	initialXPRequired  = 2
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")
	ErrNotEnoughMoney = errors.New("not enough money")
)

type XP struct {
	Current  int `json:"current"`
	Required int `json:"required"`
}

type BenchUnit struct {
	Chess string `json:"chess"`
	Level int    `json:"level"`
}

type Player struct {
	ID    string      `json:"id"`
	Money int         `json:"money"`
	XP    XP          `json:"xp"`
	Bench []BenchUnit `json:"bench"`
}

// Ledger is the player bookkeeping collaborator injected into the gateway.
type Ledger interface {
	Get(ctx context.Context, playerID string) (Player, error)
	Create(ctx context.Context, playerID string, money int, bench []BenchUnit) (Player, error)
	BuyXP(ctx context.Context, playerID string) (Player, error)
	RefreshShop(ctx context.Context, playerID string) (Player, error)
}

// NewPlayer returns a player with the starting experience curve.
func NewPlayer(id string, money int, bench []BenchUnit) Player {
	if bench == nil {
		bench = []BenchUnit{}
	}
	return Player{
		ID:    id,
		Money: money,
		XP:    XP{Current: 0, Required: initialXPRequired},
		Bench: bench,
	}
}

// buyXP charges XPCost and grants one experience point. Reaching the
// requirement levels up: current resets and required grows by half, rounded up.
func buyXP(p Player) (Player, error) {
	if p.Money < XPCost {
		return p, ErrNotEnoughMoney
	}
	p.Money -= XPCost
	p.XP.Current++
	if p.XP.Current >= p.XP.Required {
		p.XP.Current = 0
		p.XP.Required = int(math.Ceil(float64(p.XP.Required) * 1.5))
	}
	return p, nil
}

func refreshShop(p Player) (Player, error) {
	if p.Money < ShopRefreshCost {
		return p, ErrNotEnoughMoney
	}
	p.Money -= ShopRefreshCost
	return p, nil
}

// Level derives the player level from the experience requirement curve.
func (p Player) Level() int {
	level := 1
	for req := initialXPRequired; req < p.XP.Required; req = int(math.Ceil(float64(req) * 1.5)) {
		level++
	}
	return level
}

// GetOrCreate returns the player, creating it with money and bench when missing.
func GetOrCreate(ctx context.Context, l Ledger, playerID string, money int, bench []BenchUnit) (Player, error) {
	p, err := l.Get(ctx, playerID)
	if errors.Is(err, ErrPlayerNotFound) {
		p, err = l.Create(ctx, playerID, money, bench)
		if errors.Is(err, ErrPlayerExists) {
			return l.Get(ctx, playerID)
		}
	}
	return p, err
}

// SeedDefault creates the default player when it does not exist yet.
func SeedDefault(ctx context.Context, l Ledger) error {
	_, err := GetOrCreate(ctx, l, DefaultPlayerID, DefaultPlayerMoney, nil)
	return err
}
