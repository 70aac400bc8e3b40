package chore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/choremane/internal/model"
	"github.com/dukerupert/choremane/internal/store"
)

// Snapshot is the document produced by Export and accepted by Import.
type Snapshot struct {
	ExportedAt time.Time        `json:"exported_at" yaml:"exported_at"`
	Chores     []model.Chore    `json:"chores" yaml:"chores"`
	Logs       []model.LogEntry `json:"logs" yaml:"logs"`
}

// ImportChore is one chore of an import document. ID is optional; when it
// names an existing chore that chore is overwritten.
type ImportChore struct {
	ID           *int64  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	IntervalDays int     `json:"interval_days" yaml:"interval_days"`
	DueDate      string  `json:"due_date" yaml:"due_date"`
	LastDone     *string `json:"last_done" yaml:"last_done"`
	IsPrivate    bool    `json:"is_private" yaml:"is_private"`
}

// ImportLog is one log entry of an import document. Details may arrive
// under either action_details or details, as an object or as a JSON string.
type ImportLog struct {
	ChoreID       *int64  `json:"chore_id" yaml:"chore_id"`
	DoneBy        *string `json:"done_by" yaml:"done_by"`
	DoneAt        string  `json:"done_at" yaml:"done_at"`
	ActionType    string  `json:"action_type" yaml:"action_type"`
	ActionDetails any     `json:"action_details" yaml:"action_details"`
	Details       any     `json:"details" yaml:"details"`
}

type ImportRequest struct {
	Chores []ImportChore `json:"chores" yaml:"chores"`
	Logs   []ImportLog   `json:"logs" yaml:"logs"`
}

type ImportResult struct {
	ImportedChores []model.ImportedChore `json:"imported_chores"`
	ImportedLogs   int                   `json:"imported_logs"`
}

// Export returns every chore requester can see, archived or not, together
// with the log entries requester can see.
func (s *Service) Export(ctx context.Context, requester string) (*Snapshot, error) {
	snap := &Snapshot{ExportedAt: s.now().UTC()}
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		chores, err := tx.Chores.List(ctx, store.ChoreFilter{VisibleTo: &requester})
		if err != nil {
			return err
		}
		logs, err := tx.Logs.ListVisible(ctx, requester)
		if err != nil {
			return err
		}
		snap.Chores, snap.Logs = chores, logs

		_, err = s.recorder.Record(ctx, tx.Logs, nil, actorOf(requester), model.ExportDetails{
			ChoreCount: len(chores),
			LogCount:   len(logs),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Import upserts the chores and appends the logs of req. Items that cannot
// be stored are logged and skipped; the rest commit together.
func (s *Service) Import(ctx context.Context, requester string, req ImportRequest) (*ImportResult, error) {
	if len(req.Chores) == 0 {
		return nil, ErrNothingToImport
	}

	res := &ImportResult{ImportedChores: []model.ImportedChore{}}
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		for i, ic := range req.Chores {
			imported, err := s.importChore(ctx, tx, requester, ic)
			if err != nil {
				s.logger.WarnContext(ctx, "skipping imported chore", "index", i, "name", ic.Name, "error", err)
				continue
			}
			res.ImportedChores = append(res.ImportedChores, imported)
		}

		for i, il := range req.Logs {
			if err := s.importLog(ctx, tx, requester, il); err != nil {
				s.logger.WarnContext(ctx, "skipping imported log", "index", i, "error", err)
				continue
			}
			res.ImportedLogs++
		}

		_, err := s.recorder.Record(ctx, tx.Logs, nil, actorOf(requester), model.ImportDetails{
			ImportedChores: res.ImportedChores,
			ImportedLogs:   res.ImportedLogs,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "import complete", "chores", len(res.ImportedChores), "logs", res.ImportedLogs)
	return res, nil
}

func (s *Service) importChore(ctx context.Context, tx *store.Tx, requester string, ic ImportChore) (model.ImportedChore, error) {
	due, err := model.ParseDate(ic.DueDate)
	if err != nil {
		return model.ImportedChore{}, fmt.Errorf("%w: due_date: %v", ErrValidation, err)
	}
	c, err := NewChore(strings.TrimSpace(ic.Name), ic.IntervalDays, due, ic.IsPrivate, requester)
	if err != nil {
		return model.ImportedChore{}, err
	}
	if ic.LastDone != nil && *ic.LastDone != "" {
		ld, err := model.ParseDate(*ic.LastDone)
		if err != nil {
			return model.ImportedChore{}, fmt.Errorf("%w: last_done: %v", ErrValidation, err)
		}
		c.LastDone = &ld
	}

	if ic.ID != nil {
		existing, err := tx.Chores.Get(ctx, *ic.ID)
		if err != nil {
			return model.ImportedChore{}, err
		}
		if existing != nil {
			if !IsVisible(*existing, requester) {
				return model.ImportedChore{}, fmt.Errorf("chore %d: %w", *ic.ID, ErrNotFound)
			}
			c.ID = *ic.ID
			if err := tx.Chores.Replace(ctx, c); err != nil {
				return model.ImportedChore{}, err
			}
			return model.ImportedChore{ID: c.ID, Status: "updated"}, nil
		}
	}

	id, err := tx.Chores.Insert(ctx, c)
	if err != nil {
		return model.ImportedChore{}, err
	}
	return model.ImportedChore{ID: id, Status: "created"}, nil
}

func (s *Service) importLog(ctx context.Context, tx *store.Tx, requester string, il ImportLog) error {
	action := model.ActionType(il.ActionType)
	if action == "" {
		action = model.ActionImported
	}

	doneAt := s.now()
	if il.DoneAt != "" {
		t, err := parseTimestamp(il.DoneAt)
		if err != nil {
			return fmt.Errorf("%w: done_at: %v", ErrValidation, err)
		}
		doneAt = t
	}

	doneBy := il.DoneBy
	if doneBy == nil || *doneBy == "" {
		doneBy = actorOf(requester)
	}

	raw, err := detailsJSON(il.ActionDetails, il.Details)
	if err != nil {
		return err
	}

	_, err = tx.Logs.Append(ctx, model.LogEntry{
		ChoreID:    il.ChoreID,
		DoneBy:     doneBy,
		DoneAt:     doneAt,
		ActionType: action,
		Details:    model.DecodeDetails(action, raw),
	})
	return err
}

// detailsJSON picks the first non-nil payload and returns it as JSON. A
// string payload is taken to be JSON text already.
func detailsJSON(candidates ...any) ([]byte, error) {
	for _, v := range candidates {
		switch v := v.(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
			if !json.Valid([]byte(v)) {
				return nil, fmt.Errorf("%w: action_details is not valid JSON", ErrValidation)
			}
			return []byte(v), nil
		default:
			b, err := json.Marshal(normalize(v))
			if err != nil {
				return nil, fmt.Errorf("%w: action_details: %v", ErrValidation, err)
			}
			return b, nil
		}
	}
	return []byte("{}"), nil
}

// normalize turns the map[any]any values some YAML documents decode to
// into map[string]any so they can be marshalled as JSON.
func normalize(v any) any {
	switch v := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case map[string]any:
		for k, val := range v {
			v[k] = normalize(val)
		}
		return v
	case []any:
		for i, val := range v {
			v[i] = normalize(val)
		}
		return v
	default:
		return v
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
