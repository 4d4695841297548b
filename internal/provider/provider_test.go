package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtimes/internal/retry"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok
}

func (m *memCache) Set(_ context.Context, key string, body []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = body
	return nil
}

func testOptions(cache Cache) Options {
	return Options{
		HTTP:     &http.Client{Timeout: 2 * time.Second},
		Limiter:  NewLimiter(1000),
		Cache:    cache,
		CacheTTL: time.Minute,
		Retry:    retry.Policy{Attempts: 3, Base: time.Millisecond},
		Log:      zerolog.Nop(),
	}
}

func tmdbServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		lang := r.URL.Query().Get("language")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/movie/101":
			if lang == "it" {
				_, _ = w.Write([]byte(`{"id":101,"title":"La grande bellezza","overview":"Roma.","poster_path":"/it.jpg"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":101,"title":"The Great Beauty","original_language":"it","runtime":141,"release_date":"2013-05-21","imdb_id":"tt2358891","poster_path":"/p.jpg","backdrop_path":"/b.jpg","overview":"Rome."}`))
		case "/movie/101/images":
			assert.Equal(t, "it,null,en", r.URL.Query().Get("include_image_language"))
			_, _ = w.Write([]byte(`{"logos":[{"file_path":"/l.png","iso_639_1":"it","vote_average":5.2}],"backdrops":[{"file_path":"/n.jpg","iso_639_1":null,"vote_average":5.4}]}`))
		case "/movie/101/credits":
			_, _ = w.Write([]byte(`{"cast":[{"id":1,"name":"Toni Servillo","character":"Jep"}],"crew":[{"id":2,"name":"Paolo Sorrentino","job":"Director"}]}`))
		case "/movie/101/translations":
			http.Error(w, "boom", http.StatusBadRequest)
		case "/movie/101/reviews":
			assert.Equal(t, "en-US", lang)
			_, _ = w.Write([]byte(`{"results":[{"id":"r1","author":"Variety","author_details":{"rating":8},"content":"x","created_at":"2023-07-20T12:34:56.789Z","url":"https://variety.com/r"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestPreferredLanguage(t *testing.T) {
	assert.Equal(t, "it", PreferredLanguage("it"))
	assert.Equal(t, "en", PreferredLanguage("ja"))
	assert.Equal(t, "en", PreferredLanguage("fr"))
	assert.Equal(t, "en", PreferredLanguage(""))
}

func TestTMDBDetailsMergesLocalizedRecord(t *testing.T) {
	srv := tmdbServer(t, nil)
	defer srv.Close()
	tm := NewTMDB("key", srv.URL, testOptions(nil))

	d, err := tm.Details(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, "it", d.MetadataLanguage)
	assert.Equal(t, "La grande bellezza", d.Title)
	assert.Equal(t, "/it.jpg", d.PosterPath)
	assert.Equal(t, "/b.jpg", d.BackdropPath)
	assert.Equal(t, "tt2358891", d.IMDbID)
	assert.Equal(t, "2013", d.ReleaseYear())
	require.Len(t, d.Logos, 1)
	require.Len(t, d.Backdrops, 1)
	assert.Nil(t, d.Backdrops[0].Language)
	dir, ok := d.Director()
	require.True(t, ok)
	assert.Equal(t, "Paolo Sorrentino", dir.Name)
	assert.Empty(t, d.LocalizedOverview)
}

func TestTMDBNotFound(t *testing.T) {
	srv := tmdbServer(t, nil)
	defer srv.Close()
	tm := NewTMDB("key", srv.URL, testOptions(nil))
	_, err := tm.Details(context.Background(), "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTMDBReviewsUsesCache(t *testing.T) {
	var hits int32
	srv := tmdbServer(t, &hits)
	defer srv.Close()
	tm := NewTMDB("key", srv.URL, testOptions(newMemCache()))

	for i := 0; i < 2; i++ {
		rs, err := tm.Reviews(context.Background(), "101")
		require.NoError(t, err)
		require.Len(t, rs, 1)
		assert.Equal(t, "Variety", rs[0].Author)
		require.NotNil(t, rs[0].Rating)
		assert.Equal(t, 8.0, *rs[0].Rating)
		assert.Equal(t, 2023, rs[0].CreatedAt.Year())
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()
	tm := NewTMDB("key", srv.URL, testOptions(nil))
	rs, err := tm.Reviews(context.Background(), "5")
	require.NoError(t, err)
	assert.Empty(t, rs)
	assert.Equal(t, int32(3), hits)
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()
	tm := NewTMDB("key", srv.URL, testOptions(nil))
	_, err := tm.Reviews(context.Background(), "5")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, int32(1), hits)
}

func omdbServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "okey", q.Get("apikey"))
		switch {
		case q.Get("i") == "tt1":
			_, _ = w.Write([]byte(`{"Response":"True","Awards":"Won 7 Oscars.","imdbRating":"8.3","imdbVotes":"800,000","Metascore":"88","Ratings":[{"Source":"Rotten Tomatoes","Value":"93%"}]}`))
		case q.Get("i") != "":
			_, _ = w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
		case q.Get("t") == "Dune" && q.Get("y") == "2021":
			_, _ = w.Write([]byte(`{"Response":"True","Awards":"N/A","imdbRating":"8.0","imdbVotes":"N/A","Metascore":"74","Ratings":[]}`))
		default:
			_, _ = w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
		}
	}))
}

func TestOMDbRatingsByID(t *testing.T) {
	srv := omdbServer(t)
	defer srv.Close()
	om := NewOMDb("okey", srv.URL, testOptions(nil))

	b := om.Ratings(context.Background(), "tt1", "Oppenheimer", "2023")
	assert.Empty(t, b.Error)
	assert.Equal(t, "8.3", *b.IMDb.Rating)
	assert.Equal(t, "93%", *b.RottenTomatoes)
	assert.Equal(t, "88", *b.Metacritic)

	a := om.Awards(context.Background(), "tt1")
	require.NotNil(t, a.Summary)
	assert.Equal(t, "Won 7 Oscars.", *a.Summary)
}

func TestOMDbRatingsFallsBackToTitle(t *testing.T) {
	srv := omdbServer(t)
	defer srv.Close()
	om := NewOMDb("okey", srv.URL, testOptions(nil))

	b := om.Ratings(context.Background(), "tt-bad", "Dune", "2021")
	assert.Empty(t, b.Error)
	assert.Equal(t, "8.0", *b.IMDb.Rating)
	assert.Nil(t, b.IMDb.Votes)
	assert.Equal(t, "74", *b.Metacritic)
}

func TestOMDbRatingsAllFail(t *testing.T) {
	srv := omdbServer(t)
	defer srv.Close()
	om := NewOMDb("okey", srv.URL, testOptions(nil))

	b := om.Ratings(context.Background(), "", "Nope", "")
	assert.False(t, b.HasAny())
	assert.Equal(t, "Movie not found!", b.Error)

	a := om.Awards(context.Background(), "tt-bad")
	assert.Nil(t, a.Summary)
	assert.Equal(t, "Incorrect IMDb ID.", a.Error)
}
