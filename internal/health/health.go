// Package health scores how closely a household keeps up with its chores.
//
// A chore is fresh (100) until half its interval has elapsed, then decays
// linearly to 80 at its due date, then decays from 80 to 0 over one further
// interval of lateness.
package health

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dukerupert/choremane/internal/model"
)

const msPerDay = 86_400_000

// Input is the schedule of one active chore. DueDate is raw text so that a
// malformed row can be skipped instead of failing the whole score.
type Input struct {
	DueDate      string
	IntervalDays int
}

// ScoreChore returns the 0-100 freshness score of a chore due at due with
// the given interval, as of now. intervalDays must be positive. The
// difference is taken between wall-clock readings, so a daylight saving
// shift inside the window does not gain or lose an hour.
func ScoreChore(due time.Time, intervalDays int, now time.Time) float64 {
	intervalMs := float64(intervalDays) * msPerDay
	diffMs := float64(wallClock(now).Sub(wallClock(due))) / float64(time.Millisecond)

	if diffMs > 0 {
		overdueRatio := diffMs / intervalMs
		return math.Max(0, 80-overdueRatio*80)
	}

	timeUntilDue := -diffMs
	fraction := 1 - timeUntilDue/intervalMs
	fraction = math.Max(0, math.Min(1, fraction))

	if fraction <= 0.5 {
		return 100
	}
	return 100 + (fraction-0.5)*-40
}

// ScoreHousehold averages ScoreChore over every scoreable input and rounds
// half to even. Inputs with a non-positive interval or an unparsable due date
// are left out; with nothing left the household scores 100.
func ScoreHousehold(inputs []Input, now time.Time) int {
	var (
		total float64
		n     int
	)
	for _, in := range inputs {
		if in.IntervalDays <= 0 {
			continue
		}
		due, err := parseDue(in.DueDate, now.Location())
		if err != nil {
			continue
		}
		total += ScoreChore(due, in.IntervalDays, now)
		n++
	}
	if n == 0 {
		return 100
	}
	return int(math.RoundToEven(total / float64(n)))
}

// wallClock drops t's zone, keeping the reading on its clock face.
func wallClock(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	return time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), time.UTC)
}

// parseDue reads a bare date as midnight in loc and a zone-less timestamp as
// a reading in loc. Timestamps that carry their own offset are rejected.
func parseDue(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse due date %q", s)
}

// FromRows adapts stored schedule rows to scorer inputs.
func FromRows(rows []model.ScheduleRow) []Input {
	inputs := make([]Input, 0, len(rows))
	for _, r := range rows {
		inputs = append(inputs, Input{DueDate: r.DueDate, IntervalDays: r.IntervalDays})
	}
	return inputs
}
