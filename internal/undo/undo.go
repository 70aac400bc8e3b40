// Package undo reverses logged chore actions.
package undo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/choremane/internal/actionlog"
	"github.com/dukerupert/choremane/internal/chore"
	"github.com/dukerupert/choremane/internal/model"
	"github.com/dukerupert/choremane/internal/store"
)

var (
	ErrNotFound          = errors.New("log entry not found")
	ErrUnsupportedAction = errors.New("undo not supported for this action type")
)

// Result describes a successful undo.
type Result struct {
	LogID      int64            `json:"log_id"`
	ActionType model.ActionType `json:"action_type"`
	ChoreID    int64            `json:"chore_id"`
	UndoLogID  int64            `json:"undo_log_id"`
}

// Engine undoes created, updated, archived and marked_done entries. Every
// other action type, including undo itself, is rejected.
type Engine struct {
	store    *store.Store
	recorder *actionlog.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewEngine(st *store.Store, rec *actionlog.Recorder, logger *slog.Logger) *Engine {
	return &Engine{store: st, recorder: rec, logger: logger, now: time.Now}
}

// Undo reverses the entry logID on behalf of requester. The reversal and the
// undo log entry commit together or not at all.
func (e *Engine) Undo(ctx context.Context, logID int64, requester string) (Result, error) {
	var res Result
	err := e.store.InTx(ctx, func(tx *store.Tx) error {
		entry, err := tx.Logs.Get(ctx, logID)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("log %d: %w", logID, ErrNotFound)
		}

		choreID, err := e.reverse(ctx, tx, entry, requester)
		if err != nil {
			return err
		}

		var actor *string
		if requester != "" {
			actor = &requester
		}
		undoID, err := e.recorder.Record(ctx, tx.Logs, &choreID, actor, model.UndoDetails{
			ActionType: entry.ActionType,
			Undone:     true,
			LogID:      entry.ID,
		})
		if err != nil {
			return err
		}

		res = Result{LogID: entry.ID, ActionType: entry.ActionType, ChoreID: choreID, UndoLogID: undoID}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	e.logger.InfoContext(ctx, "action undone", "log_id", res.LogID, "action_type", res.ActionType, "chore_id", res.ChoreID)
	return res, nil
}

// reverse applies the inverse of entry and returns the affected chore id.
func (e *Engine) reverse(ctx context.Context, tx *store.Tx, entry *model.LogEntry, requester string) (int64, error) {
	switch d := entry.Details.(type) {
	case model.CreatedDetails:
		id := targetID(d.ID, entry.ChoreID)
		if err := e.guard(ctx, tx, id, requester); err != nil {
			return 0, err
		}
		return id, notFound(tx.Chores.Delete(ctx, id))

	case model.UpdatedDetails:
		id := targetID(d.PreviousState.ID, entry.ChoreID)
		if err := e.guard(ctx, tx, id, requester); err != nil {
			return 0, err
		}
		prev := d.PreviousState
		return id, notFound(tx.Chores.Update(ctx, id, store.ChoreUpdate{
			Name:         prev.Name,
			IntervalDays: prev.IntervalDays,
			DueDate:      prev.DueDate,
		}))

	case model.ArchivedDetails:
		id := targetID(d.ID, entry.ChoreID)
		if err := e.guard(ctx, tx, id, requester); err != nil {
			return 0, err
		}
		return id, notFound(tx.Chores.SetArchived(ctx, id, false))

	case model.MarkedDoneDetails:
		id := targetID(d.ChoreID, entry.ChoreID)
		if err := e.guard(ctx, tx, id, requester); err != nil {
			return 0, err
		}
		due := d.PreviousDueDate
		if due.IsZero() {
			due = model.DateOf(e.now())
		}
		return id, notFound(tx.Chores.RevertCompletion(ctx, id, due, d.PreviousLastDone))

	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAction, entry.ActionType)
	}
}

// guard makes a missing chore and a chore hidden from requester look the same.
func (e *Engine) guard(ctx context.Context, tx *store.Tx, id int64, requester string) error {
	c, err := tx.Chores.Get(ctx, id)
	if err != nil {
		return err
	}
	if c == nil || !chore.IsVisible(*c, requester) {
		return fmt.Errorf("chore %d: %w", id, chore.ErrNotFound)
	}
	return nil
}

func targetID(fromDetails int64, fromEntry *int64) int64 {
	if fromDetails != 0 || fromEntry == nil {
		return fromDetails
	}
	return *fromEntry
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return chore.ErrNotFound
	}
	return err
}
