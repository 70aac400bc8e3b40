package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned by write methods that target a row that does not
// exist. Read methods return (nil, nil) instead.
var ErrNotFound = errors.New("not found")

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx so the same store code
// runs inside or outside a transaction.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Store groups the chore and log stores over one database.
type Store struct {
	db     *sqlx.DB
	Chores *ChoreStore
	Logs   *LogStore
}

func New(db *sqlx.DB) *Store {
	return &Store{
		db:     db,
		Chores: &ChoreStore{q: db},
		Logs:   &LogStore{q: db},
	}
}

// Tx exposes the chore and log stores bound to a single transaction.
type Tx struct {
	Chores *ChoreStore
	Logs   *LogStore
}

// InTx runs fn inside a transaction. The transaction commits only if fn
// returns nil; any error (or panic) rolls it back.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{Chores: &ChoreStore{q: tx}, Logs: &LogStore{q: tx}}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
