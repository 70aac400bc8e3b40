package chore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/choremane/internal/model"
)

func strptr(s string) *string { return &s }

func TestIsVisible(t *testing.T) {
	shared := model.Chore{Name: "Trash"}
	mine := model.Chore{Name: "Journal", IsPrivate: true, OwnerEmail: strptr("me@example.com")}
	orphan := model.Chore{Name: "Lost", IsPrivate: true}

	assert.True(t, IsVisible(shared, "me@example.com"))
	assert.True(t, IsVisible(shared, ""))
	assert.True(t, IsVisible(mine, "me@example.com"))
	assert.False(t, IsVisible(mine, "you@example.com"))
	assert.False(t, IsVisible(mine, ""))
	assert.False(t, IsVisible(orphan, "me@example.com"))
	assert.False(t, IsVisible(orphan, ""))
}

func TestFilterVisible(t *testing.T) {
	cs := []model.Chore{
		{ID: 1},
		{ID: 2, IsPrivate: true, OwnerEmail: strptr("a@example.com")},
		{ID: 3, IsPrivate: true, OwnerEmail: strptr("b@example.com")},
	}
	got := FilterVisible(cs, "a@example.com")
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
}

func TestNewChore(t *testing.T) {
	due := model.NewDate(2024, 1, 1)

	c, err := NewChore("Dust", 7, due, false, "me@example.com")
	require.NoError(t, err)
	assert.Nil(t, c.OwnerEmail, "shared chores have no owner")

	c, err = NewChore("Diary", 1, due, true, "me@example.com")
	require.NoError(t, err)
	require.NotNil(t, c.OwnerEmail)
	assert.Equal(t, "me@example.com", *c.OwnerEmail)
	assert.True(t, c.IsPrivate)
}

func TestNewChoreValidation(t *testing.T) {
	due := model.NewDate(2024, 1, 1)
	tests := []struct {
		name     string
		chore    string
		interval int
		due      model.Date
		private  bool
		creator  string
		want     error
	}{
		{"empty name", "", 7, due, false, "me", ErrNameRequired},
		{"zero interval", "Dust", 0, due, false, "me", ErrInvalidInterval},
		{"negative interval", "Dust", -2, due, false, "me", ErrInvalidInterval},
		{"missing due date", "Dust", 7, model.Date{}, false, "me", ErrDueDateRequired},
		{"private without owner", "Diary", 1, due, true, "", ErrOwnerRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChore(tt.chore, tt.interval, tt.due, tt.private, tt.creator)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}
