package model

// MediaCandidate is one localized image offered by the metadata provider
// for a film (a logo or a backdrop).  Language is nil for
// language-neutral images.  Score is the provider's vote average; a
// higher score is better.
type MediaCandidate struct {
	FilePath string  `json:"file_path"`
	Language *string `json:"iso_639_1"`
	Score    float64 `json:"vote_average"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// Backdrops holds the backdrop chosen for each page slot.
type Backdrops struct {
	Hero   string `json:"hero"`
	Banner string `json:"banner"`
	Review string `json:"review"`
}

// CastMember is a credited actor.
type CastMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
}

// CrewMember is a credited crew member.
type CrewMember struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

// FilmDetails is the merged metadata for one film as returned by the
// metadata provider.  It is never persisted; it lives for the
// duration of a page build.
type FilmDetails struct {
	ExternalID        string           `json:"external_id"`
	Title             string           `json:"title"`
	OriginalLanguage  string           `json:"original_language"`
	MetadataLanguage  string           `json:"metadata_language"`
	PosterPath        string           `json:"poster_path"`
	BackdropPath      string           `json:"backdrop_path"`
	Overview          string           `json:"overview"`
	LocalizedOverview string           `json:"localized_overview,omitempty"`
	Runtime           int              `json:"runtime"`
	ReleaseDate       string           `json:"release_date"`
	IMDbID            string           `json:"imdb_id,omitempty"`
	Cast              []CastMember     `json:"cast"`
	Crew              []CrewMember     `json:"crew"`
	Logos             []MediaCandidate `json:"logos"`
	Backdrops         []MediaCandidate `json:"backdrops"`
}

// ReleaseYear returns the four-digit year of ReleaseDate or "" when the
// date is missing or too short.
func (d FilmDetails) ReleaseYear() string {
	if len(d.ReleaseDate) < 4 {
		return ""
	}
	return d.ReleaseDate[:4]
}

// Director returns the first crew member whose job is "Director".
func (d FilmDetails) Director() (CrewMember, bool) {
	for _, c := range d.Crew {
		if c.Job == "Director" {
			return c, true
		}
	}
	return CrewMember{}, false
}

// TopCast returns at most n cast members in billing order.
func (d FilmDetails) TopCast(n int) []CastMember {
	if n < 0 {
		n = 0
	}
	if len(d.Cast) < n {
		n = len(d.Cast)
	}
	return d.Cast[:n]
}
