// Package importer turns uploaded showtime sheets into validated
// model.Showtime values.  JSON, CSV and XLSX uploads are accepted; column
// headers may use the API field names or the venue's legacy sheet
// headers.
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// Problem is one validation failure.  Row is 1-based over data rows and 0
// for single-record submissions.
type Problem struct {
	Row     int    `json:"row,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Row > 0 {
		return fmt.Sprintf("row %d: %s %s", p.Row, p.Field, p.Message)
	}
	return p.Field + " " + p.Message
}

// ValidationError collects every problem found in a submission.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return "invalid showtimes: " + strings.Join(parts, "; ")
}

var dateLayouts = []string{model.DateLayout, "02/01/2006", "2/1/2006", "01-02-06", "2006/01/02"}

var clockLayouts = []string{model.ClockLayout, "15:04:05", "3:04 PM", "3:04:05 PM", "15.04"}

// Clean trims and normalizes s in place and reports what is missing or
// malformed.  Dates become YYYY-MM-DD and clock times HH:MM.  It returns
// nil when s can be stored.
func Clean(s *model.Showtime) []Problem {
	s.ScreeningDate = strings.TrimSpace(s.ScreeningDate)
	s.FilmExternalID = strings.TrimSpace(s.FilmExternalID)
	s.StartTime = strings.TrimSpace(s.StartTime)
	s.EndTime = strings.TrimSpace(s.EndTime)
	s.Language = strings.TrimSpace(s.Language)
	s.BookingReference = strings.TrimSpace(s.BookingReference)
	s.Title = strings.TrimSpace(s.Title)
	s.SubtitleLanguage = optional(s.SubtitleLanguage)
	s.Annotation = optional(s.Annotation)

	var probs []Problem
	bad := func(field, msg string) { probs = append(probs, Problem{Field: field, Message: msg}) }

	if s.ScreeningDate == "" {
		bad("screening_date", "is required")
	} else if d, ok := parseWith(dateLayouts, s.ScreeningDate); ok {
		s.ScreeningDate = d.Format(model.DateLayout)
	} else {
		bad("screening_date", "must be YYYY-MM-DD")
	}

	if s.FilmExternalID == "" {
		bad("film_external_id", "is required")
	} else if _, err := strconv.ParseUint(s.FilmExternalID, 10, 64); err != nil {
		bad("film_external_id", "must be numeric")
	}

	startOK, endOK := true, true
	for _, c := range []struct {
		field string
		val   *string
		ok    *bool
	}{{"start_time", &s.StartTime, &startOK}, {"end_time", &s.EndTime, &endOK}} {
		if *c.val == "" {
			bad(c.field, "is required")
			*c.ok = false
			continue
		}
		t, ok := parseWith(clockLayouts, *c.val)
		if !ok {
			bad(c.field, "must be HH:MM")
			*c.ok = false
			continue
		}
		*c.val = t.Format(model.ClockLayout)
	}
	if startOK && endOK && s.StartTime >= s.EndTime {
		bad("end_time", "must be after start_time")
	}

	if s.Language == "" {
		bad("language", "is required")
	}
	if s.BookingReference == "" {
		bad("booking_reference", "is required")
	}
	if s.Title == "" {
		bad("title", "is required")
	}
	return probs
}

func parseWith(layouts []string, v string) (time.Time, bool) {
	for _, l := range layouts {
		if t, err := time.Parse(l, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func optional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
