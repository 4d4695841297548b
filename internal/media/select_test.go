package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

func lang(s string) *string { return &s }

func TestSelectLogoEnglishBeatsHigherScore(t *testing.T) {
	got, ok := SelectLogo([]model.MediaCandidate{
		{Language: lang("it"), Score: 9, FilePath: "a.png"},
		{Language: lang("en"), Score: 5, FilePath: "b.png"},
	}, "it")
	require.True(t, ok)
	assert.Equal(t, "b.png", got.FilePath)
}

func TestSelectLogoTiers(t *testing.T) {
	cases := []struct {
		name       string
		candidates []model.MediaCandidate
		original   string
		want       string
	}{
		{
			name: "best english",
			candidates: []model.MediaCandidate{
				{Language: lang("en"), Score: 2, FilePath: "/en-low.png"},
				{Language: lang("en"), Score: 7, FilePath: "/en-high.png"},
			},
			original: "fr",
			want:     "/en-high.png",
		},
		{
			name: "original language when no english",
			candidates: []model.MediaCandidate{
				{Language: nil, Score: 9, FilePath: "/neutral.png"},
				{Language: lang("fr"), Score: 1, FilePath: "/fr.png"},
				{Language: lang("de"), Score: 10, FilePath: "/de.png"},
			},
			original: "fr",
			want:     "/fr.png",
		},
		{
			name: "neutral when no english or original",
			candidates: []model.MediaCandidate{
				{Language: lang("de"), Score: 10, FilePath: "/de.png"},
				{Language: nil, Score: 3, FilePath: "/neutral.png"},
			},
			original: "fr",
			want:     "/neutral.png",
		},
		{
			name: "global best otherwise",
			candidates: []model.MediaCandidate{
				{Language: lang("de"), Score: 4, FilePath: "/de.png"},
				{Language: lang("es"), Score: 8, FilePath: "/es.png"},
			},
			original: "fr",
			want:     "/es.png",
		},
		{
			name: "png extension is case insensitive and svg is ignored",
			candidates: []model.MediaCandidate{
				{Language: lang("en"), Score: 9, FilePath: "/en.svg"},
				{Language: lang("en"), Score: 1, FilePath: "/en.PNG"},
			},
			original: "en",
			want:     "/en.PNG",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SelectLogo(tc.candidates, tc.original)
			require.True(t, ok)
			assert.Equal(t, tc.want, got.FilePath)
		})
	}
}

func TestSelectLogoNone(t *testing.T) {
	_, ok := SelectLogo([]model.MediaCandidate{{Language: lang("en"), FilePath: "/a.svg"}}, "en")
	assert.False(t, ok)
	_, ok = SelectLogo(nil, "en")
	assert.False(t, ok)
}

func TestSelectBackdropsSingleCandidateFillsEverySlot(t *testing.T) {
	got, ok := SelectBackdrops([]model.MediaCandidate{{FilePath: "/only.jpg", Score: 3}})
	require.True(t, ok)
	assert.Equal(t, model.Backdrops{Hero: "/only.jpg", Banner: "/only.jpg", Review: "/only.jpg"}, got)
}

func TestSelectBackdropsRanksNeutralAndDedups(t *testing.T) {
	got, ok := SelectBackdrops([]model.MediaCandidate{
		{FilePath: "/b.jpg", Score: 5},
		{FilePath: "/en.jpg", Score: 10, Language: lang("en")},
		{FilePath: "/a.jpg", Score: 8},
		{FilePath: "/a.jpg", Score: 6},
		{FilePath: "/c.jpg", Score: 1},
	})
	require.True(t, ok)
	assert.Equal(t, model.Backdrops{Hero: "/a.jpg", Banner: "/b.jpg", Review: "/c.jpg"}, got)
}

func TestSelectBackdropsTwoDistinct(t *testing.T) {
	got, ok := SelectBackdrops([]model.MediaCandidate{
		{FilePath: "/x.jpg", Score: 1},
		{FilePath: "/y.jpg", Score: 2},
	})
	require.True(t, ok)
	assert.Equal(t, model.Backdrops{Hero: "/y.jpg", Banner: "/x.jpg", Review: "/y.jpg"}, got)
}

func TestSelectBackdropsNone(t *testing.T) {
	_, ok := SelectBackdrops([]model.MediaCandidate{{FilePath: "/en.jpg", Language: lang("en")}})
	assert.False(t, ok)
}

func TestBlankLanguageCountsAsNeutral(t *testing.T) {
	logo, ok := SelectLogo([]model.MediaCandidate{
		{Language: lang("de"), Score: 9, FilePath: "/de.png"},
		{Language: lang(""), Score: 2, FilePath: "/blank.png"},
	}, "fr")
	require.True(t, ok)
	assert.Equal(t, "/blank.png", logo.FilePath)

	b, ok := SelectBackdrops([]model.MediaCandidate{
		{FilePath: "/blank.jpg", Score: 3, Language: lang(" ")},
		{FilePath: "/nil.jpg", Score: 5},
		{FilePath: "/en.jpg", Score: 9, Language: lang("en")},
	})
	require.True(t, ok)
	assert.Equal(t, model.Backdrops{Hero: "/nil.jpg", Banner: "/blank.jpg", Review: "/nil.jpg"}, b)
}

func TestImageURLs(t *testing.T) {
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/p.jpg", PosterURL("/p.jpg"))
	assert.Equal(t, "https://image.tmdb.org/t/p/original/b.jpg", BackdropURL("b.jpg"))
	assert.Equal(t, "https://image.tmdb.org/t/p/original/l.png", LogoURL("/l.png"))
	assert.Equal(t, "", PosterURL(""))
}
