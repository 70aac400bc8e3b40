package chore

import "github.com/dukerupert/choremane/internal/model"

// Completion is the outcome of marking a chore done, together with the
// schedule it replaces.
type Completion struct {
	NewDueDate       model.Date
	LastDone         model.Date
	DoneBy           string
	PreviousDueDate  model.Date
	PreviousLastDone *model.Date
}

// MarkDone computes the next due date for c completed by actor on today.
// A chore can be completed at most once per calendar day.
func MarkDone(c model.Chore, actor string, today model.Date) (Completion, error) {
	if actor == "" {
		return Completion{}, ErrActorRequired
	}
	if c.LastDone != nil && c.LastDone.Equal(today) {
		return Completion{}, &AlreadyCompletedError{LastDone: *c.LastDone}
	}
	return Completion{
		NewDueDate:       today.AddDays(c.IntervalDays),
		LastDone:         today,
		DoneBy:           actor,
		PreviousDueDate:  c.DueDate,
		PreviousLastDone: c.LastDone,
	}, nil
}

// Apply returns c with the completion applied.
func (comp Completion) Apply(c model.Chore) model.Chore {
	doneBy := comp.DoneBy
	lastDone := comp.LastDone
	c.Done = true
	c.DoneBy = &doneBy
	c.DueDate = comp.NewDueDate
	c.LastDone = &lastDone
	return c
}
