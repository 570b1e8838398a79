package ledger

import (
	"context"
	"slices"
	"sync"
)

// MemoryLedger is an in-process Ledger used by tests and when no database is configured.
type MemoryLedger struct {
	mu      sync.Mutex
	players map[string]Player
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{players: make(map[string]Player)}
}

func (l *MemoryLedger) Get(_ context.Context, playerID string) (Player, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.players[playerID]
	if !ok {
		return Player{}, ErrPlayerNotFound
	}
	return clonePlayer(p), nil
}

func (l *MemoryLedger) Create(_ context.Context, playerID string, money int, bench []BenchUnit) (Player, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.players[playerID]; ok {
		return Player{}, ErrPlayerExists
	}
	p := NewPlayer(playerID, money, slices.Clone(bench))
	l.players[playerID] = p
	return clonePlayer(p), nil
}

func (l *MemoryLedger) BuyXP(_ context.Context, playerID string) (Player, error) {
	return l.update(playerID, buyXP)
}

func (l *MemoryLedger) RefreshShop(_ context.Context, playerID string) (Player, error) {
	return l.update(playerID, refreshShop)
}

func (l *MemoryLedger) update(playerID string, fn func(Player) (Player, error)) (Player, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.players[playerID]
	if !ok {
		return Player{}, ErrPlayerNotFound
	}
	p, err := fn(p)
	if err != nil {
		return Player{}, err
	}
	l.players[playerID] = p
	return clonePlayer(p), nil
}

func clonePlayer(p Player) Player {
	p.Bench = slices.Clone(p.Bench)
	if p.Bench == nil {
		p.Bench = []BenchUnit{}
	}
	return p
}
