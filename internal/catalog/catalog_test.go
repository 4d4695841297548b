package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/repository"
	"github.com/iliyamo/cinema-showtimes/internal/retry"
)

var venue = time.FixedZone("CET", 3600)

// Wednesday 21 October 2026, 18:00 at the venue.
var now = time.Date(2026, 10, 21, 18, 0, 0, 0, venue)

type fakeStore struct {
	mu       sync.Mutex
	list     []model.Showtime
	failures int
	calls    int
}

func (f *fakeStore) ListOrdered(context.Context) ([]model.Showtime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection refused")
	}
	return f.list, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uint64) (*model.Showtime, error) {
	for _, s := range f.list {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, repository.ErrShowtimeNotFound
}

type fakeMeta struct {
	details map[string]*model.FilmDetails
	reviews map[string][]model.Review
	gate    map[string]chan struct{}
}

func (f *fakeMeta) Details(_ context.Context, id string) (*model.FilmDetails, error) {
	if g, ok := f.gate[id]; ok {
		<-g
	}
	d, ok := f.details[id]
	if !ok {
		return nil, errors.New("provider: not found")
	}
	return d, nil
}

func (f *fakeMeta) Reviews(_ context.Context, id string) ([]model.Review, error) {
	return f.reviews[id], nil
}

type fakeRatings struct {
	mu      sync.Mutex
	imdbIDs []string
	titles  []string
}

func (f *fakeRatings) Awards(_ context.Context, imdbID string) model.Awards {
	s := "Won 1 Oscar."
	return model.Awards{Summary: &s}
}

func (f *fakeRatings) Ratings(_ context.Context, imdbID, title, year string) model.RatingBundle {
	f.mu.Lock()
	f.imdbIDs = append(f.imdbIDs, imdbID)
	f.titles = append(f.titles, title+"/"+year)
	f.mu.Unlock()
	r := "8.1"
	return model.RatingBundle{IMDb: model.IMDbScore{Rating: &r}}
}

func lang(s string) *string { return &s }
func score(v float64) *float64 { return &v }

func show(id uint64, film, date, start, end string) model.Showtime {
	return model.Showtime{
		ID: id, FilmExternalID: film, ScreeningDate: date, StartTime: start, EndTime: end,
		Title: "Film " + film, BookingReference: "ref" + film, Language: "English",
	}
}

func details(id, imdb string) *model.FilmDetails {
	return &model.FilmDetails{
		ExternalID:       id,
		Title:            "Title " + id,
		OriginalLanguage: "en",
		ReleaseDate:      "2024-03-01",
		IMDbID:           imdb,
		Overview:         "Overview " + id,
		PosterPath:       "/poster-" + id + ".jpg",
		Logos:            []model.MediaCandidate{{FilePath: "/logo-" + id + ".png", Language: lang("en"), Score: 5}},
		Backdrops: []model.MediaCandidate{
			{FilePath: "/bd1-" + id + ".jpg", Score: 9},
			{FilePath: "/bd2-" + id + ".jpg", Score: 8},
		},
		Crew: []model.CrewMember{{Name: "Writer", Job: "Screenplay"}, {Name: "Jane Director", Job: "Director"}},
		Cast: []model.CastMember{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}, {Name: "E"}, {Name: "F"}},
	}
}

const criticBody = "Variety calls it a bold and luminous drama that lingers long after the final frame fades out. " +
	"A superb lead performance anchors every single scene of this film."

func fixture() (*fakeStore, *fakeMeta, *fakeRatings) {
	// Catalog order: date, then start time.
	store := &fakeStore{list: []model.Showtime{
		show(1, "a", "2026-10-21", "16:00", "18:30"),
		show(3, "b", "2026-10-21", "19:00", "21:00"),
		show(2, "a", "2026-10-21", "20:00", "22:00"),
		show(4, "c", "2026-10-21", "21:00", "23:00"),
		show(7, "a", "2026-10-22", "17:00", "19:00"),
		show(6, "b", "2026-10-22", "18:00", "20:00"),
		show(5, "b", "2026-10-22", "21:00", "23:00"),
		show(8, "a", "2026-10-24", "17:00", "19:00"),
	}}
	meta := &fakeMeta{
		details: map[string]*model.FilmDetails{"a": details("a", "tt-a"), "b": details("b", "tt-b")},
		reviews: map[string][]model.Review{
			"b": {{ID: "rv", Author: "Variety", Content: criticBody, Rating: score(9)}},
		},
	}
	return store, meta, &fakeRatings{}
}

func newService(store Store, meta Metadata, ratings Ratings) *Service {
	return NewService(store, meta, ratings, Options{
		Location:   venue,
		TicketBase: "https://pretix.eu/vestri/npkez",
		Now:        func() time.Time { return now },
		Retry:      retry.Policy{Attempts: 3, Base: time.Millisecond},
		Log:        zerolog.Nop(),
	})
}

func cardIDs(cards []model.ShowtimeCard) []uint64 {
	out := make([]uint64, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestTicketURL(t *testing.T) {
	assert.Equal(t, "https://pretix.eu/vestri/npkez/abc", TicketURL("https://pretix.eu/vestri/npkez/", "abc"))
	assert.Equal(t, "https://pretix.eu/vestri/npkez/abc", TicketURL("https://pretix.eu/vestri/npkez", " abc "))
	assert.Equal(t, "", TicketURL("https://pretix.eu/vestri/npkez/", ""))
}

func TestLoadRetriesThenSucceeds(t *testing.T) {
	store, meta, ratings := fixture()
	store.failures = 2
	list, err := newService(store, meta, ratings).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 8)
	assert.Equal(t, 3, store.calls)
}

func TestLoadUnavailableAfterRetries(t *testing.T) {
	store, meta, ratings := fixture()
	store.failures = 10
	_, err := newService(store, meta, ratings).Load(context.Background())
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Equal(t, 3, store.calls)
}

func TestEnrichSkipsFilmsWithoutMetadata(t *testing.T) {
	store, meta, ratings := fixture()
	films := newService(store, meta, ratings).Enrich(context.Background(), store.list)
	require.Len(t, films, 2)
	assert.Contains(t, films, "a")
	assert.NotContains(t, films, "c")

	b := films["b"]
	assert.Equal(t, "https://image.tmdb.org/t/p/original/logo-b.png", b.Logo)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/poster-b.jpg", b.Poster)
	assert.Equal(t, "https://image.tmdb.org/t/p/original/bd1-b.jpg", b.Backdrops.Hero)
	assert.Equal(t, "https://image.tmdb.org/t/p/original/bd2-b.jpg", b.Backdrops.Banner)
	assert.Equal(t, "https://image.tmdb.org/t/p/original/bd1-b.jpg", b.Backdrops.Review)
	require.Len(t, b.Reviews, 1)
	assert.Equal(t, "Variety", b.Reviews[0].Publication)
}

func TestHomePage(t *testing.T) {
	store, meta, ratings := fixture()
	page, err := newService(store, meta, ratings).HomePage(context.Background())
	require.NoError(t, err)

	require.NotNil(t, page.Hero)
	assert.Equal(t, uint64(3), page.Hero.Card.ID)
	assert.False(t, page.Hero.Pinned)
	assert.Equal(t, "Overview b", page.Hero.Overview)

	assert.Equal(t, []uint64{1, 3, 2, 4}, cardIDs(page.Today))
	assert.Equal(t, "in-progress", page.Today[0].Status)
	assert.False(t, page.Today[0].Bookable)
	assert.Equal(t, "https://pretix.eu/vestri/npkez/refb", page.Today[1].TicketURL)

	// Film c has no metadata and gets no banner.
	require.Len(t, page.Featured, 2)
	assert.Equal(t, uint64(3), page.Featured[0].Card.ID)
	assert.Equal(t, uint64(2), page.Featured[1].Card.ID)
	assert.Equal(t, "https://image.tmdb.org/t/p/original/bd2-a.jpg", page.Featured[1].Backdrop)

	assert.Equal(t, []uint64{7, 6}, cardIDs(page.Tomorrow))

	require.Len(t, page.Critics, 1)
	assert.Equal(t, uint64(6), page.Critics[0].Card.ID)
	assert.Equal(t, "Variety", page.Critics[0].Review.Publication)

	assert.Len(t, page.Week, 8)
	require.Len(t, page.Calendar, 7)
	assert.Equal(t, "2026-10-19", page.Calendar[0].Date)
	assert.Equal(t, "Monday", page.Calendar[0].Weekday)
	assert.Equal(t, []uint64{1, 3, 2, 4}, cardIDs(page.Calendar[2].Showtimes))
}

func TestHomePageUsesCommittedPin(t *testing.T) {
	store, meta, ratings := fixture()
	svc := newService(store, meta, ratings)
	_, done := svc.PinFeatured("a")
	require.True(t, <-done)

	page, err := svc.HomePage(context.Background())
	require.NoError(t, err)
	require.NotNil(t, page.Hero)
	assert.True(t, page.Hero.Pinned)
	assert.Equal(t, uint64(2), page.Hero.Card.ID)
}

func TestSelectionDropsStaleCommit(t *testing.T) {
	var sel Selection
	first := sel.Begin("a")
	second := sel.Begin("b")

	assert.False(t, sel.Commit(first, model.Film{Logo: "a"}))
	_, _, ok := sel.Current()
	assert.False(t, ok)
	pending, ok := sel.Pending()
	assert.True(t, ok)
	assert.Equal(t, "b", pending)

	assert.True(t, sel.Commit(second, model.Film{Logo: "b"}))
	id, film, ok := sel.Current()
	require.True(t, ok)
	assert.Equal(t, "b", id)
	assert.Equal(t, "b", film.Logo)

	sel.Clear()
	assert.False(t, sel.Commit(second, model.Film{}))
	_, _, ok = sel.Current()
	assert.False(t, ok)
}

func TestPinFeaturedNewerPinWins(t *testing.T) {
	store, meta, ratings := fixture()
	gate := make(chan struct{})
	meta.gate = map[string]chan struct{}{"a": gate}
	svc := newService(store, meta, ratings)

	_, slow := svc.PinFeatured("a")
	_, fast := svc.PinFeatured("b")
	require.True(t, <-fast)
	close(gate)
	assert.False(t, <-slow)

	id, _, ok := svc.Selection().Current()
	require.True(t, ok)
	assert.Equal(t, "b", id)
}

func TestPinFeaturedFailedFetchIsNotPending(t *testing.T) {
	store, meta, ratings := fixture()
	svc := newService(store, meta, ratings)

	_, done := svc.PinFeatured("missing")
	assert.False(t, <-done)

	sel := svc.Selection()
	_, pending := sel.Pending()
	assert.False(t, pending)
	id, failed := sel.Failed()
	assert.True(t, failed)
	assert.Equal(t, "missing", id)

	sel.Begin("a")
	_, failed = sel.Failed()
	assert.False(t, failed)
}

func TestSelectionFailIgnoresStaleTicket(t *testing.T) {
	var sel Selection
	first := sel.Begin("a")
	sel.Begin("b")

	assert.False(t, sel.Fail(first))
	pending, ok := sel.Pending()
	assert.True(t, ok)
	assert.Equal(t, "b", pending)
	_, failed := sel.Failed()
	assert.False(t, failed)
}

func TestShowtimeDetail(t *testing.T) {
	store, meta, ratings := fixture()
	d, err := newService(store, meta, ratings).ShowtimeDetail(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), d.Card.ID)
	assert.True(t, d.Card.Bookable)
	assert.Equal(t, "Jane Director", d.Director)
	assert.Len(t, d.Cast, 5)
	require.NotNil(t, d.Awards.Summary)
	require.NotNil(t, d.Ratings.IMDb.Rating)
	assert.Equal(t, []string{"tt-a"}, ratings.imdbIDs)
	assert.Equal(t, []string{"Title a/2024"}, ratings.titles)
	assert.Equal(t, []uint64{7, 8}, cardIDs(d.Others))
}

func TestShowtimeDetailWithoutMetadata(t *testing.T) {
	store, meta, ratings := fixture()
	d, err := newService(store, meta, ratings).ShowtimeDetail(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, d.Film.Details)
	assert.Empty(t, d.Cast)
	assert.Equal(t, []string{"Film c/"}, ratings.titles)
}

func TestShowtimeDetailNotFound(t *testing.T) {
	store, meta, ratings := fixture()
	_, err := newService(store, meta, ratings).ShowtimeDetail(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrShowtimeNotFound)
}
