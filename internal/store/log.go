package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/choremane/internal/model"
)

type LogStore struct {
	q queryer
}

// logRow is the stored shape of a log entry; details stay as JSON text until
// they are decoded into their typed variant.
type logRow struct {
	ID            int64     `db:"id"`
	ChoreID       *int64    `db:"chore_id"`
	DoneBy        *string   `db:"done_by"`
	DoneAt        time.Time `db:"done_at"`
	ActionType    string    `db:"action_type"`
	ActionDetails string    `db:"action_details"`
}

func (r logRow) entry() model.LogEntry {
	t := model.ActionType(r.ActionType)
	return model.LogEntry{
		ID:         r.ID,
		ChoreID:    r.ChoreID,
		DoneBy:     r.DoneBy,
		DoneAt:     r.DoneAt,
		ActionType: t,
		Details:    model.DecodeDetails(t, []byte(r.ActionDetails)),
	}
}

const logCols = `id, chore_id, done_by, done_at, action_type, action_details`

// Append stores e and returns its id. A zero DoneAt is stamped with the
// current time.
func (s *LogStore) Append(ctx context.Context, e model.LogEntry) (int64, error) {
	details, err := model.EncodeDetails(e.Details)
	if err != nil {
		return 0, err
	}
	if e.DoneAt.IsZero() {
		e.DoneAt = time.Now()
	}

	result, err := s.q.ExecContext(ctx,
		`INSERT INTO chore_logs (chore_id, done_by, done_at, action_type, action_details) VALUES (?, ?, ?, ?, ?)`,
		e.ChoreID, e.DoneBy, e.DoneAt.UTC(), string(e.ActionType), details,
	)
	if err != nil {
		return 0, fmt.Errorf("insert log entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *LogStore) Get(ctx context.Context, id int64) (*model.LogEntry, error) {
	var r logRow
	err := s.q.GetContext(ctx, &r, `SELECT `+logCols+` FROM chore_logs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get log entry: %w", err)
	}
	e := r.entry()
	return &e, nil
}

// ListVisible returns entries for system actions, shared chores, deleted
// chores and the requester's private chores, newest first.
func (s *LogStore) ListVisible(ctx context.Context, requester string) ([]model.LogEntry, error) {
	var rows []logRow
	err := s.q.SelectContext(ctx, &rows,
		`SELECT l.id, l.chore_id, l.done_by, l.done_at, l.action_type, l.action_details
		 FROM chore_logs l
		 LEFT JOIN chores c ON l.chore_id = c.id
		 WHERE c.id IS NULL OR c.is_private = 0 OR c.owner_email = ?
		 ORDER BY l.done_at DESC, l.id DESC`,
		requester,
	)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	return entries(rows), nil
}

// All returns every entry, newest first.
func (s *LogStore) All(ctx context.Context) ([]model.LogEntry, error) {
	var rows []logRow
	err := s.q.SelectContext(ctx, &rows, `SELECT `+logCols+` FROM chore_logs ORDER BY done_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all log entries: %w", err)
	}
	return entries(rows), nil
}

func entries(rows []logRow) []model.LogEntry {
	out := make([]model.LogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out
}
