package model

// Film bundles the metadata resolved for one FilmExternalID during a page
// build.  Details is nil when the provider call for this film failed; the
// showtime is then rendered from its record fields only.
type Film struct {
	Details   *FilmDetails    `json:"details,omitempty"`
	Logo      string          `json:"logo,omitempty"`
	Poster    string          `json:"poster,omitempty"`
	Backdrops Backdrops       `json:"backdrops"`
	Reviews   []CuratedReview `json:"reviews,omitempty"`
}

// ShowtimeCard is a showtime record decorated for display.
type ShowtimeCard struct {
	Showtime
	Status    string `json:"status"`
	Bookable  bool   `json:"bookable"`
	TicketURL string `json:"ticket_url,omitempty"`
	Logo      string `json:"logo,omitempty"`
	Poster    string `json:"poster,omitempty"`
}

// Hero is the large header slot of the listing page.
type Hero struct {
	Card     ShowtimeCard `json:"showtime"`
	Backdrop string       `json:"backdrop,omitempty"`
	Overview string       `json:"overview,omitempty"`
	Pinned   bool         `json:"pinned"`
}

// Banner is one featured-film slot for a screening later today.
type Banner struct {
	Card     ShowtimeCard `json:"showtime"`
	Backdrop string       `json:"backdrop"`
	Overview string       `json:"overview,omitempty"`
}

// CriticPick pairs a film screening tomorrow with its best curated review.
type CriticPick struct {
	Card     ShowtimeCard  `json:"showtime"`
	Review   CuratedReview `json:"review"`
	Backdrop string        `json:"backdrop,omitempty"`
}

// CalendarDay is one day of the weekly calendar view.
type CalendarDay struct {
	Date      string         `json:"date"`
	Weekday   string         `json:"weekday"`
	Showtimes []ShowtimeCard `json:"showtimes"`
}

// HomePage is the full listing page model served to the public client.
type HomePage struct {
	GeneratedAt string         `json:"generated_at"`
	Hero        *Hero          `json:"hero,omitempty"`
	Today       []ShowtimeCard `json:"today"`
	Featured    []Banner       `json:"featured"`
	Tomorrow    []ShowtimeCard `json:"tomorrow"`
	Critics     []CriticPick   `json:"critics"`
	Week        []ShowtimeCard `json:"week"`
	Calendar    []CalendarDay  `json:"calendar"`
}

// ShowtimeDetail is the per-showtime view with full film metadata.
type ShowtimeDetail struct {
	Card     ShowtimeCard   `json:"showtime"`
	Film     Film           `json:"film"`
	Director string         `json:"director,omitempty"`
	Cast     []CastMember   `json:"cast"`
	Awards   Awards         `json:"awards"`
	Ratings  RatingBundle   `json:"ratings"`
	Others   []ShowtimeCard `json:"other_showtimes"`
}
