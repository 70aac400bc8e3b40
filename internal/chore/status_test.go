package chore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/choremane/internal/model"
)

func TestBucketOf(t *testing.T) {
	today := model.NewDate(2024, 5, 10)
	tests := []struct {
		offset int
		want   Bucket
	}{
		{-30, BucketOverdue},
		{-1, BucketOverdue},
		{0, BucketToday},
		{1, BucketTomorrow},
		{2, BucketThisWeek},
		{7, BucketThisWeek},
		{8, BucketUpcoming},
		{90, BucketUpcoming},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketOf(today.AddDays(tt.offset), today), "offset %d", tt.offset)
	}
}

func TestCountBuckets(t *testing.T) {
	today := model.NewDate(2024, 5, 10)
	chores := []model.Chore{
		{DueDate: today.AddDays(-2)},
		{DueDate: today.AddDays(-1)},
		{DueDate: today},
		{DueDate: today.AddDays(1)},
		{DueDate: today.AddDays(3)},
		{DueDate: today.AddDays(20)},
		{DueDate: today, Archived: true},
	}

	got := CountBuckets(chores, today)
	assert.Equal(t, model.Counts{All: 6, Overdue: 2, Today: 1, Tomorrow: 1, ThisWeek: 1, Upcoming: 1}, got)
	assert.Equal(t, got.All, got.Overdue+got.Today+got.Tomorrow+got.ThisWeek+got.Upcoming)
}

func TestCountBucketsEmpty(t *testing.T) {
	assert.Equal(t, model.Counts{}, CountBuckets(nil, model.NewDate(2024, 1, 1)))
}
