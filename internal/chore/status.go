package chore

import "github.com/dukerupert/choremane/internal/model"

type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketToday    Bucket = "today"
	BucketTomorrow Bucket = "tomorrow"
	BucketThisWeek Bucket = "thisWeek"
	BucketUpcoming Bucket = "upcoming"
)

// BucketOf places a due date relative to today. "This week" is the range
// after tomorrow up to and including today+7.
func BucketOf(due, today model.Date) Bucket {
	tomorrow := today.AddDays(1)
	nextWeek := today.AddDays(7)

	switch {
	case due.Before(today):
		return BucketOverdue
	case due.Equal(today):
		return BucketToday
	case due.Equal(tomorrow):
		return BucketTomorrow
	case !due.After(nextWeek):
		return BucketThisWeek
	default:
		return BucketUpcoming
	}
}

// CountBuckets tallies active chores by bucket.
func CountBuckets(chores []model.Chore, today model.Date) model.Counts {
	var counts model.Counts
	for _, c := range chores {
		if c.Archived {
			continue
		}
		counts.All++
		switch BucketOf(c.DueDate, today) {
		case BucketOverdue:
			counts.Overdue++
		case BucketToday:
			counts.Today++
		case BucketTomorrow:
			counts.Tomorrow++
		case BucketThisWeek:
			counts.ThisWeek++
		case BucketUpcoming:
			counts.Upcoming++
		}
	}
	return counts
}
