package model

// OMDbRating is one entry of the provider's heterogeneous ratings list.
type OMDbRating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// OMDbPayload is the subset of the awards/ratings provider response the
// service consumes.  Response is "False" and Error is set when the
// provider reports a business error such as "Movie not found!".
type OMDbPayload struct {
	Title      string       `json:"Title"`
	Year       string       `json:"Year"`
	Awards     string       `json:"Awards"`
	Metascore  string       `json:"Metascore"`
	IMDbRating string       `json:"imdbRating"`
	IMDbVotes  string       `json:"imdbVotes"`
	IMDbID     string       `json:"imdbID"`
	Ratings    []OMDbRating `json:"Ratings"`
	Response   string       `json:"Response"`
	Error      string       `json:"Error"`
}

// IMDbScore is the IMDb part of a RatingBundle.
type IMDbScore struct {
	Rating *string `json:"rating"`
	Votes  *string `json:"votes"`
}

// RatingBundle is the normalized set of third-party ratings for a film.
// Each source is nil when the provider has no data for it.  Error is only
// set when every lookup failed.
type RatingBundle struct {
	IMDb           IMDbScore `json:"imdb"`
	RottenTomatoes *string   `json:"rotten_tomatoes"`
	Metacritic     *string   `json:"metacritic"`
	Error          string    `json:"error,omitempty"`
}

// HasAny reports whether at least one source carries a value.
func (b RatingBundle) HasAny() bool {
	return b.IMDb.Rating != nil || b.RottenTomatoes != nil || b.Metacritic != nil
}
