// Package actionlog records every chore mutation so it can be listed,
// exported and, for some action types, undone.
package actionlog

import (
	"context"
	"log/slog"

	"github.com/dukerupert/choremane/internal/model"
	"github.com/dukerupert/choremane/internal/store"
)

// Recorder appends log entries inside the caller's transaction.
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// Record appends an entry of type d.Action() for choreID. System actions
// (import, export) with no chore are audit-only: they go to the application
// log and are not stored, and Record returns id 0.
func (r *Recorder) Record(ctx context.Context, logs *store.LogStore, choreID *int64, actor *string, d model.Details) (int64, error) {
	action := d.Action()
	if action.IsSystem() && choreID == nil {
		r.logger.InfoContext(ctx, "system action", "action_type", action, "done_by", deref(actor), "details", d)
		return 0, nil
	}

	id, err := logs.Append(ctx, model.LogEntry{
		ChoreID:    choreID,
		DoneBy:     actor,
		ActionType: action,
		Details:    d,
	})
	if err != nil {
		return 0, err
	}
	r.logger.DebugContext(ctx, "action logged", "log_id", id, "action_type", action, "chore_id", derefID(choreID))
	return id, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
