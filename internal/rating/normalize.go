// Package rating folds the awards/ratings provider payload into one
// RatingBundle.
package rating

import (
	"strings"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// notAvailable is the provider's literal for a missing value.
const notAvailable = "N/A"

const (
	sourceRottenTomatoes = "Rotten Tomatoes"
	sourceMetacritic     = "Metacritic"
)

// Normalize extracts the IMDb score and votes, the Rotten Tomatoes
// percentage and the Metacritic score from p.  A source the payload does
// not carry is left nil; Normalize never fails on partial data.
func Normalize(p model.OMDbPayload) model.RatingBundle {
	b := model.RatingBundle{
		IMDb: model.IMDbScore{
			Rating: present(p.IMDbRating),
			Votes:  present(p.IMDbVotes),
		},
	}
	if v, ok := find(p.Ratings, sourceRottenTomatoes); ok {
		b.RottenTomatoes = present(v)
	}
	if v, ok := find(p.Ratings, sourceMetacritic); ok {
		score, _, _ := strings.Cut(v, "/")
		b.Metacritic = present(strings.TrimSpace(score))
	}
	if b.Metacritic == nil {
		b.Metacritic = present(p.Metascore)
	}
	return b
}

// Unavailable returns an empty bundle carrying msg for display.
func Unavailable(msg string) model.RatingBundle {
	return model.RatingBundle{Error: msg}
}

func find(ratings []model.OMDbRating, source string) (string, bool) {
	for _, r := range ratings {
		if r.Source == source {
			return r.Value, true
		}
	}
	return "", false
}

// present returns nil for empty and "N/A" values.
func present(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" || v == notAvailable {
		return nil
	}
	return &v
}
