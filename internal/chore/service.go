package chore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/choremane/internal/actionlog"
	"github.com/dukerupert/choremane/internal/health"
	"github.com/dukerupert/choremane/internal/model"
	"github.com/dukerupert/choremane/internal/store"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// Service runs chore operations for one requester at a time. Each mutation
// reads, writes and logs inside a single store transaction.
type Service struct {
	store    *store.Store
	recorder *actionlog.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(st *store.Store, rec *actionlog.Recorder, logger *slog.Logger) *Service {
	return &Service{store: st, recorder: rec, logger: logger, now: time.Now}
}

func (s *Service) today() model.Date {
	return model.DateOf(s.now())
}

type CreateRequest struct {
	Name         string     `json:"name"`
	IntervalDays int        `json:"interval_days"`
	DueDate      model.Date `json:"due_date"`
	IsPrivate    bool       `json:"is_private"`
}

type UpdateRequest struct {
	Name         string     `json:"name"`
	IntervalDays int        `json:"interval_days"`
	DueDate      model.Date `json:"due_date"`
}

// DoneResult is returned by MarkDone.
type DoneResult struct {
	ChoreID    int64      `json:"chore_id"`
	NewDueDate model.Date `json:"new_due_date"`
	LastDone   model.Date `json:"last_done"`
	DoneBy     string     `json:"done_by"`
}

func (s *Service) Create(ctx context.Context, requester string, req CreateRequest) (*model.Chore, error) {
	c, err := NewChore(strings.TrimSpace(req.Name), req.IntervalDays, req.DueDate, req.IsPrivate, requester)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(tx *store.Tx) error {
		id, err := tx.Chores.Insert(ctx, c)
		if err != nil {
			return err
		}
		c.ID = id
		snapshot := c
		_, err = s.recorder.Record(ctx, tx.Logs, &id, actorOf(requester), model.CreatedDetails{ID: id, Chore: &snapshot})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "chore created", "chore_id", c.ID, "private", c.IsPrivate)
	return &c, nil
}

// List returns one page of the active chores visible to requester, soonest
// due first.
func (s *Service) List(ctx context.Context, requester string, page, limit int) ([]model.Chore, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	archived := false
	return s.store.Chores.List(ctx, store.ChoreFilter{
		Archived:  &archived,
		VisibleTo: &requester,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
}

func (s *Service) ListArchived(ctx context.Context, requester string) ([]model.Chore, error) {
	archived := true
	return s.store.Chores.List(ctx, store.ChoreFilter{Archived: &archived, VisibleTo: &requester})
}

func (s *Service) Get(ctx context.Context, requester string, id int64) (*model.Chore, error) {
	return visibleChore(ctx, s.store.Chores, id, requester)
}

func (s *Service) Update(ctx context.Context, requester string, id int64, req UpdateRequest) (*model.Chore, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateSchedule(name, req.IntervalDays, req.DueDate); err != nil {
		return nil, err
	}

	var updated model.Chore
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		prev, err := visibleChore(ctx, tx.Chores, id, requester)
		if err != nil {
			return err
		}
		if err := tx.Chores.Update(ctx, id, store.ChoreUpdate{Name: name, IntervalDays: req.IntervalDays, DueDate: req.DueDate}); err != nil {
			return notFound(err)
		}
		if _, err := s.recorder.Record(ctx, tx.Logs, &id, actorOf(requester), model.UpdatedDetails{PreviousState: *prev}); err != nil {
			return err
		}
		updated = *prev
		updated.Name, updated.IntervalDays, updated.DueDate = name, req.IntervalDays, req.DueDate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "chore updated", "chore_id", id)
	return &updated, nil
}

// MarkDone completes chore id on behalf of actor and reschedules it one
// interval from today.
func (s *Service) MarkDone(ctx context.Context, requester string, id int64, actor string) (*DoneResult, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, ErrActorRequired
	}
	today := s.today()

	var res DoneResult
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		c, err := visibleChore(ctx, tx.Chores, id, requester)
		if err != nil {
			return err
		}
		comp, err := MarkDone(*c, actor, today)
		if err != nil {
			return err
		}

		ok, err := tx.Chores.ApplyCompletion(ctx, id, store.Completion{
			DueDate:  comp.NewDueDate,
			LastDone: comp.LastDone,
			DoneBy:   comp.DoneBy,
		})
		if err != nil {
			return err
		}
		if !ok {
			// Another writer completed it between our read and write.
			return &AlreadyCompletedError{LastDone: today}
		}

		_, err = s.recorder.Record(ctx, tx.Logs, &id, &actor, model.MarkedDoneDetails{
			ChoreID:          id,
			NewDueDate:       comp.NewDueDate,
			PreviousDueDate:  comp.PreviousDueDate,
			PreviousLastDone: comp.PreviousLastDone,
		})
		if err != nil {
			return err
		}

		res = DoneResult{ChoreID: id, NewDueDate: comp.NewDueDate, LastDone: comp.LastDone, DoneBy: actor}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "chore marked done", "chore_id", id, "done_by", actor, "new_due_date", res.NewDueDate)
	return &res, nil
}

func (s *Service) Archive(ctx context.Context, requester string, id int64) error {
	return s.setArchived(ctx, requester, id, true)
}

func (s *Service) Unarchive(ctx context.Context, requester string, id int64) error {
	return s.setArchived(ctx, requester, id, false)
}

func (s *Service) setArchived(ctx context.Context, requester string, id int64, archived bool) error {
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		if _, err := visibleChore(ctx, tx.Chores, id, requester); err != nil {
			return err
		}
		if err := tx.Chores.SetArchived(ctx, id, archived); err != nil {
			return notFound(err)
		}
		var d model.Details = model.ArchivedDetails{ID: id}
		if !archived {
			d = model.UnarchivedDetails{ID: id}
		}
		_, err := s.recorder.Record(ctx, tx.Logs, &id, actorOf(requester), d)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "chore archive state changed", "chore_id", id, "archived", archived)
	return nil
}

// Counts buckets the requester's active chores by due date.
func (s *Service) Counts(ctx context.Context, requester string) (model.Counts, error) {
	archived := false
	chores, err := s.store.Chores.List(ctx, store.ChoreFilter{Archived: &archived, VisibleTo: &requester})
	if err != nil {
		return model.Counts{}, err
	}
	return CountBuckets(chores, s.today()), nil
}

// HealthScore returns the household score for the chores requester can see.
func (s *Service) HealthScore(ctx context.Context, requester string) (int, error) {
	rows, err := s.store.Chores.ScheduleRows(ctx, requester)
	if err != nil {
		return 0, err
	}
	return health.ScoreHousehold(health.FromRows(rows), s.now()), nil
}

// Logs returns the action log entries requester can see.
func (s *Service) Logs(ctx context.Context, requester string) ([]model.LogEntry, error) {
	return s.store.Logs.ListVisible(ctx, requester)
}

// visibleChore loads id and reports a chore hidden from requester as not
// found.
func visibleChore(ctx context.Context, cs *store.ChoreStore, id int64, requester string) (*model.Chore, error) {
	c, err := cs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || !IsVisible(*c, requester) {
		return nil, fmt.Errorf("chore %d: %w", id, ErrNotFound)
	}
	return c, nil
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func actorOf(requester string) *string {
	if requester == "" {
		return nil
	}
	return &requester
}
