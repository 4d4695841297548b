// Package schedule decides where a showtime sits relative to the current
// instant and groups showtime lists into the buckets shown on the listing
// page.  Every function here is pure: the caller supplies "now" and the
// list, nothing is read from the clock or logged.
package schedule

import (
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// Status is the temporal classification of one showtime.
type Status string

const (
	StatusUpcoming   Status = "upcoming"
	StatusInProgress Status = "in-progress"
	StatusEnded      Status = "ended"
	StatusNotToday   Status = "not-today"
)

// Classify returns the status of s at now.  Dates are compared in
// now.Location().  A screening on any other day is StatusNotToday, as is
// a record whose date or clock fields cannot be parsed.  Both ends of the
// screening are inclusive for StatusInProgress.
func Classify(now time.Time, s model.Showtime) Status {
	loc := now.Location()
	day, err := s.Day(loc)
	if err != nil || !sameDay(day, now) {
		return StatusNotToday
	}
	start, err := s.StartAt(loc)
	if err != nil {
		return StatusNotToday
	}
	end, err := s.EndAt(loc)
	if err != nil {
		return StatusNotToday
	}
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.After(end):
		return StatusEnded
	default:
		return StatusInProgress
	}
}

// Bookable reports whether tickets may still be bought for s.
func Bookable(now time.Time, s model.Showtime) bool {
	if s.SoldOut {
		return false
	}
	st := Classify(now, s)
	return st == StatusUpcoming || st == StatusNotToday
}

// midnight returns the start of t's calendar day plus offset days in t's
// location.  time.Date normalizes the day overflow across months.
func midnight(t time.Time, offset int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dateKey formats the calendar day of t the way showtime records store it.
func dateKey(t time.Time) string {
	return t.Format(model.DateLayout)
}
