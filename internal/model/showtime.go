package model

import (
	"strings"
	"time"
)

// Layouts used for the date and clock fields of a showtime.  Both are
// zero-padded so that lexicographic order equals chronological order.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Showtime represents one scheduled screening of a film at the venue.
// Many showtimes may share a FilmExternalID when a film is screened
// more than once.  This struct corresponds to a row in the
// `showtimes` table.
//
// Fields:
//  ID               – primary key identifier.
//  ScreeningDate    – calendar day of the screening (YYYY-MM-DD).
//  FilmExternalID   – film key in the external metadata provider.
//  StartTime        – local start clock time (HH:MM).
//  EndTime          – local end clock time (HH:MM), after StartTime.
//  Language         – spoken language label.
//  SubtitleLanguage – subtitle label; nil or empty means no subtitles.
//  BookingReference – ticketing event id used to build the purchase URL.
//  SoldOut          – whether the screening is sold out.
//  Title            – display title, used when no logo is available.
//  Annotation       – optional operator note (e.g. "Director Q&A").
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Showtime struct {
	ID               uint64    `json:"id"`
	ScreeningDate    string    `json:"screening_date"`
	FilmExternalID   string    `json:"film_external_id"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	Language         string    `json:"language"`
	SubtitleLanguage *string   `json:"subtitle_language,omitempty"`
	BookingReference string    `json:"booking_reference"`
	SoldOut          bool      `json:"sold_out"`
	Title            string    `json:"title"`
	Annotation       *string   `json:"annotation,omitempty"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}

// Day returns midnight of the screening date in loc.
func (s Showtime) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s.ScreeningDate, loc)
}

// StartAt combines the screening date with the start time in loc.
func (s Showtime) StartAt(loc *time.Location) (time.Time, error) {
	return combine(s.ScreeningDate, s.StartTime, loc)
}

// EndAt combines the screening date with the end time in loc.
func (s Showtime) EndAt(loc *time.Location) (time.Time, error) {
	return combine(s.ScreeningDate, s.EndTime, loc)
}

// HasSubtitles reports whether a non-blank subtitle language is set.
func (s Showtime) HasSubtitles() bool {
	return s.SubtitleLanguage != nil && strings.TrimSpace(*s.SubtitleLanguage) != ""
}

func combine(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, loc)
}
