package rating

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

func TestNormalizeNotAvailable(t *testing.T) {
	b := Normalize(model.OMDbPayload{
		IMDbRating: "N/A",
		Ratings:    []model.OMDbRating{{Source: "Rotten Tomatoes", Value: "N/A"}},
		Metascore:  "71",
	})
	assert.Nil(t, b.IMDb.Rating)
	assert.Nil(t, b.IMDb.Votes)
	assert.Nil(t, b.RottenTomatoes)
	require.NotNil(t, b.Metacritic)
	assert.Equal(t, "71", *b.Metacritic)
	assert.Empty(t, b.Error)
}

func TestNormalizeFullPayload(t *testing.T) {
	raw := `{
		"Title": "Oppenheimer",
		"imdbRating": "8.3",
		"imdbVotes": "812,345",
		"Metascore": "88",
		"Ratings": [
			{"Source": "Internet Movie Database", "Value": "8.3/10"},
			{"Source": "Rotten Tomatoes", "Value": "93%"},
			{"Source": "Metacritic", "Value": "90/100"}
		],
		"Response": "True"
	}`
	var p model.OMDbPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	b := Normalize(p)
	require.True(t, b.HasAny())
	assert.Equal(t, "8.3", *b.IMDb.Rating)
	assert.Equal(t, "812,345", *b.IMDb.Votes)
	assert.Equal(t, "93%", *b.RottenTomatoes)
	assert.Equal(t, "90", *b.Metacritic)
}

func TestNormalizeEmptyPayload(t *testing.T) {
	b := Normalize(model.OMDbPayload{Metascore: "N/A"})
	assert.False(t, b.HasAny())
	assert.Nil(t, b.Metacritic)
}

func TestUnavailable(t *testing.T) {
	b := Unavailable("Movie not found!")
	assert.False(t, b.HasAny())
	assert.Equal(t, "Movie not found!", b.Error)
}
