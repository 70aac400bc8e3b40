package undo

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/choremane/internal/actionlog"
	"github.com/dukerupert/choremane/internal/chore"
	"github.com/dukerupert/choremane/internal/database"
	"github.com/dukerupert/choremane/internal/model"
	"github.com/dukerupert/choremane/internal/store"
)

const (
	alice = "alice@example.com"
	bob   = "bob@example.com"
)

var today = model.NewDate(2024, time.May, 10)

type fixture struct {
	store  *store.Store
	svc    *chore.Service
	engine *Engine
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(db)
	rec := actionlog.NewRecorder(logger)
	engine := NewEngine(st, rec, logger)
	engine.now = func() time.Time { return today.Midnight(time.UTC).Add(9 * time.Hour) }
	return fixture{store: st, svc: chore.NewService(st, rec, logger), engine: engine}
}

// latest returns the newest log entry of type t.
func latest(t *testing.T, f fixture, action model.ActionType) model.LogEntry {
	t.Helper()
	logs, err := f.store.Logs.All(context.Background())
	require.NoError(t, err)
	for _, e := range logs {
		if e.ActionType == action {
			return e
		}
	}
	t.Fatalf("no %s entry", action)
	return model.LogEntry{}
}

func countLogs(t *testing.T, f fixture) int {
	t.Helper()
	logs, err := f.store.Logs.All(context.Background())
	require.NoError(t, err)
	return len(logs)
}

func TestUndoCreated(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, alice, chore.CreateRequest{Name: "Dust", IntervalDays: 7, DueDate: today})
	require.NoError(t, err)
	entry := latest(t, f, model.ActionCreated)

	res, err := f.engine.Undo(ctx, entry.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, res.LogID)
	assert.Equal(t, model.ActionCreated, res.ActionType)
	assert.Equal(t, c.ID, res.ChoreID)

	got, err := f.store.Chores.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "undoing a creation deletes the chore")

	undo, err := f.store.Logs.Get(ctx, res.UndoLogID)
	require.NoError(t, err)
	require.NotNil(t, undo)
	assert.Equal(t, model.UndoDetails{ActionType: model.ActionCreated, Undone: true, LogID: entry.ID}, undo.Details)
	assert.Equal(t, alice, *undo.DoneBy)
}

func TestUndoMarkedDone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	due := today.AddDays(-2)
	c, err := f.svc.Create(ctx, alice, chore.CreateRequest{Name: "Dishes", IntervalDays: 3, DueDate: due})
	require.NoError(t, err)
	_, err = f.svc.MarkDone(ctx, alice, c.ID, "Alice")
	require.NoError(t, err)

	entry := latest(t, f, model.ActionMarkedDone)
	_, err = f.engine.Undo(ctx, entry.ID, alice)
	require.NoError(t, err)

	got, err := f.store.Chores.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Done)
	assert.Nil(t, got.DoneBy)
	assert.Nil(t, got.LastDone)
	assert.Equal(t, due.String(), got.DueDate.String())

	// Once reverted the chore can be completed again the same day.
	_, err = f.svc.MarkDone(ctx, bob, c.ID, "Bob")
	assert.NoError(t, err)
}

func TestUndoMarkedDoneWithoutPreviousDue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, alice, chore.CreateRequest{Name: "Trash", IntervalDays: 7, DueDate: today.AddDays(3)})
	require.NoError(t, err)
	id, err := f.store.Logs.Append(ctx, model.LogEntry{
		ChoreID:    &c.ID,
		ActionType: model.ActionMarkedDone,
		Details:    model.MarkedDoneDetails{ChoreID: c.ID},
	})
	require.NoError(t, err)

	_, err = f.engine.Undo(ctx, id, alice)
	require.NoError(t, err)

	got, err := f.store.Chores.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, today.String(), got.DueDate.String())
}

func TestUndoUpdated(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, alice, chore.CreateRequest{Name: "Mop", IntervalDays: 4, DueDate: today})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, alice, c.ID, chore.UpdateRequest{Name: "Mop floors", IntervalDays: 10, DueDate: today.AddDays(5)})
	require.NoError(t, err)

	_, err = f.engine.Undo(ctx, latest(t, f, model.ActionUpdated).ID, alice)
	require.NoError(t, err)

	got, err := f.store.Chores.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mop", got.Name)
	assert.Equal(t, 4, got.IntervalDays)
	assert.Equal(t, today.String(), got.DueDate.String())
}

func TestUndoArchived(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, alice, chore.CreateRequest{Name: "Gutters", IntervalDays: 90, DueDate: today})
	require.NoError(t, err)
	require.NoError(t, f.svc.Archive(ctx, alice, c.ID))

	_, err = f.engine.Undo(ctx, latest(t, f, model.ActionArchived).ID, alice)
	require.NoError(t, err)

	got, err := f.store.Chores.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Archived)
}

func TestUndoMissingEntry(t *testing.T) {
	f := setup(t)
	_, err := f.engine.Undo(context.Background(), 999, alice)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUndoUnsupportedAction(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, alice, chore.CreateRequest{Name: "Oven", IntervalDays: 30, DueDate: today})
	require.NoError(t, err)
	require.NoError(t, f.svc.Archive(ctx, alice, c.ID))
	require.NoError(t, f.svc.Unarchive(ctx, alice, c.ID))

	res, err := f.engine.Undo(ctx, latest(t, f, model.ActionArchived).ID, alice)
	require.NoError(t, err)

	tests := []struct {
		name string
		id   int64
	}{
		{"unarchived", latest(t, f, model.ActionUnarchived).ID},
		{"undo", res.UndoLogID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := countLogs(t, f)
			_, err := f.engine.Undo(ctx, tt.id, alice)
			assert.ErrorIs(t, err, ErrUnsupportedAction)
			assert.Equal(t, before, countLogs(t, f), "a rejected undo must not be logged")
		})
	}

	got, err := f.store.Chores.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Archived)
}

func TestUndoUnknownActionType(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, alice, chore.CreateRequest{Name: "Fridge", IntervalDays: 14, DueDate: today})
	require.NoError(t, err)

	// Details shaped like an archive entry must not make an unknown type undoable.
	raw := []byte(`{"id":` + strconv.FormatInt(c.ID, 10) + `}`)
	id, err := f.store.Logs.Append(ctx, model.LogEntry{
		ChoreID:    &c.ID,
		ActionType: "something_else",
		Details:    model.DecodeDetails("something_else", raw),
	})
	require.NoError(t, err)
	before := countLogs(t, f)

	_, err = f.engine.Undo(ctx, id, alice)
	require.ErrorIs(t, err, ErrUnsupportedAction)

	got, err := f.store.Chores.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got, "chore must survive")
	assert.Equal(t, "Fridge", got.Name)
	assert.Equal(t, 14, got.IntervalDays)
	assert.Equal(t, today.String(), got.DueDate.String())
	assert.False(t, got.Archived)

	assert.Equal(t, before, countLogs(t, f))
	logs, err := f.store.Logs.All(ctx)
	require.NoError(t, err)
	for _, e := range logs {
		assert.NotEqual(t, model.ActionUndo, e.ActionType, "no undo entry may be written")
	}
}

func TestUndoHiddenChore(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, alice, chore.CreateRequest{Name: "Diary", IntervalDays: 1, DueDate: today, IsPrivate: true})
	require.NoError(t, err)

	_, err = f.engine.Undo(ctx, latest(t, f, model.ActionCreated).ID, bob)
	assert.ErrorIs(t, err, chore.ErrNotFound)

	got, err := f.store.Chores.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestUndoDeletedChore(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, alice, chore.CreateRequest{Name: "Temp", IntervalDays: 1, DueDate: today})
	require.NoError(t, err)
	created := latest(t, f, model.ActionCreated)

	_, err = f.engine.Undo(ctx, created.ID, alice)
	require.NoError(t, err)

	_, err = f.engine.Undo(ctx, created.ID, alice)
	assert.ErrorIs(t, err, chore.ErrNotFound)
}
