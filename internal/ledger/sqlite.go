package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLiteLedger implements Ledger on the schema created by internal/migrations.
type SQLiteLedger struct {
	db *sql.DB
}

func NewSQLiteLedger(db *sql.DB) *SQLiteLedger {
	return &SQLiteLedger{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (l *SQLiteLedger) Get(ctx context.Context, playerID string) (Player, error) {
	return loadPlayer(ctx, l.db, playerID)
}

func (l *SQLiteLedger) Create(ctx context.Context, playerID string, money int, bench []BenchUnit) (Player, error) {
	p := NewPlayer(playerID, money, bench)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Player{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO players (id, money, xp_current, xp_required)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.Money, p.XP.Current, p.XP.Required)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return Player{}, ErrPlayerExists
		}
		return Player{}, fmt.Errorf("inserting player: %w", err)
	}

	for slot, u := range p.Bench {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bench_units (player_id, slot, chess, level)
			VALUES (?, ?, ?, ?)
		`, p.ID, slot, u.Chess, u.Level)
		if err != nil {
			return Player{}, fmt.Errorf("inserting bench unit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Player{}, fmt.Errorf("committing player: %w", err)
	}
	return p, nil
}

func (l *SQLiteLedger) BuyXP(ctx context.Context, playerID string) (Player, error) {
	return l.update(ctx, playerID, buyXP)
}

func (l *SQLiteLedger) RefreshShop(ctx context.Context, playerID string) (Player, error) {
	return l.update(ctx, playerID, refreshShop)
}

// update reads, applies fn and writes back inside one transaction.
func (l *SQLiteLedger) update(ctx context.Context, playerID string, fn func(Player) (Player, error)) (Player, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Player{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := loadPlayer(ctx, tx, playerID)
	if err != nil {
		return Player{}, err
	}
	p, err = fn(p)
	if err != nil {
		return Player{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE players
		SET money = ?, xp_current = ?, xp_required = ?,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`, p.Money, p.XP.Current, p.XP.Required, p.ID)
	if err != nil {
		return Player{}, fmt.Errorf("updating player: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Player{}, fmt.Errorf("committing player: %w", err)
	}
	return p, nil
}

func loadPlayer(ctx context.Context, q queryer, playerID string) (Player, error) {
	p := Player{ID: playerID, Bench: []BenchUnit{}}
	err := q.QueryRowContext(ctx, `
		SELECT money, xp_current, xp_required FROM players WHERE id = ?
	`, playerID).Scan(&p.Money, &p.XP.Current, &p.XP.Required)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, ErrPlayerNotFound
	}
	if err != nil {
		return Player{}, fmt.Errorf("loading player: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT chess, level FROM bench_units WHERE player_id = ? ORDER BY slot
	`, playerID)
	if err != nil {
		return Player{}, fmt.Errorf("loading bench: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u BenchUnit
		if err := rows.Scan(&u.Chess, &u.Level); err != nil {
			return Player{}, fmt.Errorf("scanning bench: %w", err)
		}
		p.Bench = append(p.Bench, u)
	}
	return p, rows.Err()
}
