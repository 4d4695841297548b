package schedule

import (
	"sort"
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// maxFeatured caps the number of banner slots on the listing page.
const maxFeatured = 3

// DayGroup is the set of showtimes screening on one calendar day.
type DayGroup struct {
	Date      time.Time
	Showtimes []model.Showtime
}

// Today returns the records screening on now's calendar day, ordered by
// ascending start time.  Equal start times keep their input order.
func Today(now time.Time, list []model.Showtime) []model.Showtime {
	return byStartTime(onDate(list, dateKey(now)))
}

// Tomorrow returns the records screening the day after now, at most one
// per film.  The survivor for a film is its earliest screening.
func Tomorrow(now time.Time, list []model.Showtime) []model.Showtime {
	return firstPerFilm(byStartTime(onDate(list, dateKey(midnight(now, 1)))))
}

// OtherShowtimes returns the other screenings of ref's film that start
// strictly after now, earliest first.  ref itself is never included.
func OtherShowtimes(now time.Time, ref model.Showtime, list []model.Showtime) []model.Showtime {
	type timed struct {
		s     model.Showtime
		start time.Time
	}
	var hits []timed
	for _, s := range list {
		if s.ID == ref.ID || s.FilmExternalID != ref.FilmExternalID {
			continue
		}
		start, err := s.StartAt(now.Location())
		if err != nil || !start.After(now) {
			continue
		}
		hits = append(hits, timed{s: s, start: start})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start.Before(hits[j].start) })
	out := make([]model.Showtime, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.s)
	}
	return out
}

// ThisWeek returns list unchanged when fullWeek is set.  Otherwise it
// keeps the records dated from the day after tomorrow up to and including
// the Sunday that closes now's Monday-based week.  Today and tomorrow are
// left out because they have their own buckets.  The window is empty on
// Saturdays and Sundays.
func ThisWeek(now time.Time, list []model.Showtime, fullWeek bool) []model.Showtime {
	if fullWeek {
		return list
	}
	from := midnight(now, 2)
	to := weekStart(now).AddDate(0, 0, 6)
	var out []model.Showtime
	for _, s := range list {
		day, err := s.Day(now.Location())
		if err != nil {
			continue
		}
		if !day.Before(from) && !day.After(to) {
			out = append(out, s)
		}
	}
	return out
}

// WeekDays returns the seven days of now's week, starting with the most
// recent Monday on or before now.
func WeekDays(now time.Time) []time.Time {
	monday := weekStart(now)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = time.Date(monday.Year(), monday.Month(), monday.Day()+i, 0, 0, 0, 0, now.Location())
	}
	return days
}

// Calendar groups list by the days returned by WeekDays.  Every day is
// present, possibly with no showtimes, and each day is ordered by start
// time.
func Calendar(now time.Time, list []model.Showtime) []DayGroup {
	days := WeekDays(now)
	out := make([]DayGroup, 0, len(days))
	for _, d := range days {
		out = append(out, DayGroup{Date: d, Showtimes: byStartTime(onDate(list, dateKey(d)))})
	}
	return out
}

// Featured picks the banner screenings: today's records that have not
// started yet, one per film, earliest first, at most three.
func Featured(now time.Time, list []model.Showtime) []model.Showtime {
	var upcoming []model.Showtime
	for _, s := range list {
		if Classify(now, s) == StatusUpcoming {
			upcoming = append(upcoming, s)
		}
	}
	out := firstPerFilm(byStartTime(upcoming))
	if len(out) > maxFeatured {
		out = out[:maxFeatured]
	}
	return out
}

// FirstUpcoming returns the first record, in list order, whose start is
// at or after now.  When every record has started it falls back to the
// first record.  ok is false only for an empty list.
func FirstUpcoming(now time.Time, list []model.Showtime) (s model.Showtime, ok bool) {
	if len(list) == 0 {
		return model.Showtime{}, false
	}
	for _, rec := range list {
		start, err := rec.StartAt(now.Location())
		if err != nil {
			continue
		}
		if !start.Before(now) {
			return rec, true
		}
	}
	return list[0], true
}

// weekStart is midnight of the Monday on or before now.
func weekStart(now time.Time) time.Time {
	sinceMonday := (int(now.Weekday()) + 6) % 7
	return midnight(now, -sinceMonday)
}

func onDate(list []model.Showtime, date string) []model.Showtime {
	var out []model.Showtime
	for _, s := range list {
		if s.ScreeningDate == date {
			out = append(out, s)
		}
	}
	return out
}

// byStartTime sorts a copy of list by the zero-padded HH:MM start time.
func byStartTime(list []model.Showtime) []model.Showtime {
	out := make([]model.Showtime, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// firstPerFilm keeps the first record seen for each film.
func firstPerFilm(list []model.Showtime) []model.Showtime {
	seen := make(map[string]struct{}, len(list))
	var out []model.Showtime
	for _, s := range list {
		if _, dup := seen[s.FilmExternalID]; dup {
			continue
		}
		seen[s.FilmExternalID] = struct{}{}
		out = append(out, s)
	}
	return out
}
