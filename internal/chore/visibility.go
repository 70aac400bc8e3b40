package chore

import "github.com/dukerupert/choremane/internal/model"

// IsVisible reports whether requester may see c. Shared chores are visible to
// everyone; private chores only to their owner. A private chore without an
// owner is visible to no one.
func IsVisible(c model.Chore, requester string) bool {
	if !c.IsPrivate {
		return true
	}
	return c.OwnerEmail != nil && *c.OwnerEmail == requester
}

// FilterVisible returns the chores in cs that requester may see.
func FilterVisible(cs []model.Chore, requester string) []model.Chore {
	out := make([]model.Chore, 0, len(cs))
	for _, c := range cs {
		if IsVisible(c, requester) {
			out = append(out, c)
		}
	}
	return out
}

// NewChore validates the fields of a chore about to be created by creator
// and fills in ownership. Private chores belong to their creator; shared
// chores have no owner.
func NewChore(name string, intervalDays int, dueDate model.Date, isPrivate bool, creator string) (model.Chore, error) {
	c := model.Chore{
		Name:         name,
		IntervalDays: intervalDays,
		DueDate:      dueDate,
		IsPrivate:    isPrivate,
	}
	if err := validateSchedule(name, intervalDays, dueDate); err != nil {
		return model.Chore{}, err
	}
	if isPrivate {
		if creator == "" {
			return model.Chore{}, ErrOwnerRequired
		}
		owner := creator
		c.OwnerEmail = &owner
	}
	return c, nil
}

func validateSchedule(name string, intervalDays int, dueDate model.Date) error {
	if name == "" {
		return ErrNameRequired
	}
	if intervalDays <= 0 {
		return ErrInvalidInterval
	}
	if dueDate.IsZero() {
		return ErrDueDateRequired
	}
	return nil
}
