package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/choremane/internal/model"
)

type ChoreStore struct {
	q queryer
}

const choreCols = `id, name, interval_days, due_date, done, done_by, last_done, archived, owner_email, is_private`

// visibleClause restricts rows to shared chores and the requester's own
// private chores. A private chore with a NULL owner never matches.
const visibleClause = `(is_private = 0 OR owner_email = ?)`

// ChoreFilter narrows List. Nil fields are not filtered on.
type ChoreFilter struct {
	Archived  *bool
	VisibleTo *string
	Limit     int
	Offset    int
}

// ChoreUpdate holds the user-editable fields of a chore.
type ChoreUpdate struct {
	Name         string
	IntervalDays int
	DueDate      model.Date
}

// Completion is the state written when a chore is marked done.
type Completion struct {
	DueDate  model.Date
	LastDone model.Date
	DoneBy   string
}

func (s *ChoreStore) Get(ctx context.Context, id int64) (*model.Chore, error) {
	var c model.Chore
	err := s.q.GetContext(ctx, &c, `SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return &c, nil
}

func (s *ChoreStore) List(ctx context.Context, f ChoreFilter) ([]model.Chore, error) {
	var (
		where []string
		args  []any
	)
	if f.Archived != nil {
		where = append(where, `archived = ?`)
		args = append(args, *f.Archived)
	}
	if f.VisibleTo != nil {
		where = append(where, visibleClause)
		args = append(args, *f.VisibleTo)
	}

	query := `SELECT ` + choreCols + ` FROM chores`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY due_date ASC, id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	chores := []model.Chore{}
	if err := s.q.SelectContext(ctx, &chores, query, args...); err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	return chores, nil
}

// ScheduleRows returns the raw schedule of every active chore with a positive
// interval visible to requester.
func (s *ChoreStore) ScheduleRows(ctx context.Context, requester string) ([]model.ScheduleRow, error) {
	rows := []model.ScheduleRow{}
	err := s.q.SelectContext(ctx, &rows,
		`SELECT CAST(due_date AS TEXT) AS due_date, interval_days FROM chores
		 WHERE archived = 0 AND interval_days > 0 AND `+visibleClause,
		requester,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedule rows: %w", err)
	}
	return rows, nil
}

// Insert stores c and returns its new id. c.ID is ignored unless nonzero, in
// which case the row keeps that id (used by import).
func (s *ChoreStore) Insert(ctx context.Context, c model.Chore) (int64, error) {
	var (
		result sql.Result
		err    error
	)
	if c.ID != 0 {
		result, err = s.q.ExecContext(ctx,
			`INSERT INTO chores (`+choreCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.IntervalDays, c.DueDate, c.Done, c.DoneBy, c.LastDone, c.Archived, c.OwnerEmail, c.IsPrivate,
		)
	} else {
		result, err = s.q.ExecContext(ctx,
			`INSERT INTO chores (name, interval_days, due_date, done, done_by, last_done, archived, owner_email, is_private)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Name, c.IntervalDays, c.DueDate, c.Done, c.DoneBy, c.LastDone, c.Archived, c.OwnerEmail, c.IsPrivate,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *ChoreStore) Update(ctx context.Context, id int64, u ChoreUpdate) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE chores SET name = ?, interval_days = ?, due_date = ? WHERE id = ?`,
		u.Name, u.IntervalDays, u.DueDate, id,
	)
	if err != nil {
		return fmt.Errorf("update chore: %w", err)
	}
	return expectRow(result, "update chore")
}

// Replace overwrites every stored field of c.ID with c. Used by import.
func (s *ChoreStore) Replace(ctx context.Context, c model.Chore) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE chores SET name = ?, interval_days = ?, due_date = ?, is_private = ?, owner_email = ?, last_done = ?
		 WHERE id = ?`,
		c.Name, c.IntervalDays, c.DueDate, c.IsPrivate, c.OwnerEmail, c.LastDone, c.ID,
	)
	if err != nil {
		return fmt.Errorf("replace chore: %w", err)
	}
	return expectRow(result, "replace chore")
}

func (s *ChoreStore) Delete(ctx context.Context, id int64) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return expectRow(result, "delete chore")
}

func (s *ChoreStore) SetArchived(ctx context.Context, id int64, archived bool) error {
	result, err := s.q.ExecContext(ctx, `UPDATE chores SET archived = ? WHERE id = ?`, archived, id)
	if err != nil {
		return fmt.Errorf("set archived: %w", err)
	}
	return expectRow(result, "set archived")
}

// ApplyCompletion marks a chore done unless it was already completed on
// c.LastDone. The check and the write are a single statement, so concurrent
// callers (including other server instances) cannot both succeed. It returns
// false when no row was changed.
func (s *ChoreStore) ApplyCompletion(ctx context.Context, id int64, c Completion) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE chores SET done = 1, done_by = ?, due_date = ?, last_done = ?
		 WHERE id = ? AND (last_done IS NULL OR last_done <> ?)`,
		c.DoneBy, c.DueDate, c.LastDone, id, c.LastDone,
	)
	if err != nil {
		return false, fmt.Errorf("apply completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// RevertCompletion clears the done state and restores the schedule that was
// in place before a completion.
func (s *ChoreStore) RevertCompletion(ctx context.Context, id int64, dueDate model.Date, lastDone *model.Date) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE chores SET done = 0, done_by = NULL, due_date = ?, last_done = ? WHERE id = ?`,
		dueDate, lastDone, id,
	)
	if err != nil {
		return fmt.Errorf("revert completion: %w", err)
	}
	return expectRow(result, "revert completion")
}

func expectRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
