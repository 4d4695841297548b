// Package catalog builds the public page models: it loads the showtime
// catalog, fetches metadata once per film and lays the result out with
// the schedule, media and review rules.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-showtimes/internal/media"
	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/retry"
	"github.com/iliyamo/cinema-showtimes/internal/review"
	"github.com/iliyamo/cinema-showtimes/internal/schedule"
)

// ErrCatalogUnavailable means the catalog store could not be read even
// after retrying.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Store is the read side of the catalog store.
type Store interface {
	ListOrdered(ctx context.Context) ([]model.Showtime, error)
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
}

// Metadata resolves film details and raw reviews by external film id.
type Metadata interface {
	Details(ctx context.Context, filmID string) (*model.FilmDetails, error)
	Reviews(ctx context.Context, filmID string) ([]model.Review, error)
}

// Ratings resolves awards and ratings.  Neither call fails; problems are
// reported inside the returned value.
type Ratings interface {
	Awards(ctx context.Context, imdbID string) model.Awards
	Ratings(ctx context.Context, imdbID, title, year string) model.RatingBundle
}

// Options tunes a Service.
type Options struct {
	Location   *time.Location
	TicketBase string
	Now        func() time.Time
	Retry      retry.Policy
	Log        zerolog.Logger
}

// Service assembles page models.  It is safe for concurrent use.
type Service struct {
	store      Store
	meta       Metadata
	ratings    Ratings
	loc        *time.Location
	ticketBase string
	clock      func() time.Time
	retry      retry.Policy
	log        zerolog.Logger
	selection  *Selection
}

// NewService wires a Service.  A zero Options uses UTC, the wall clock
// and the default retry policy.
func NewService(store Store, meta Metadata, ratings Ratings, o Options) *Service {
	s := &Service{
		store:      store,
		meta:       meta,
		ratings:    ratings,
		loc:        o.Location,
		ticketBase: o.TicketBase,
		clock:      o.Now,
		retry:      o.Retry,
		log:        o.Log,
		selection:  &Selection{},
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.retry.Attempts == 0 {
		s.retry = retry.Default
	}
	return s
}

// Now returns the current instant in the venue's location.
func (s *Service) Now() time.Time {
	return s.clock().In(s.loc)
}

// Selection exposes the featured-film pin.
func (s *Service) Selection() *Selection {
	return s.selection
}

// Load reads the ordered catalog, retrying transient failures.
func (s *Service) Load(ctx context.Context) ([]model.Showtime, error) {
	var list []model.Showtime
	attempt := 0
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		attempt++
		var err error
		list, err = s.store.ListOrdered(ctx)
		if err != nil {
			s.log.Warn().Err(err).Int("attempt", attempt).Msg("catalog load failed")
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return list, nil
}

// Enrich fetches metadata and reviews once per distinct film in list.
// Films are fetched concurrently, each into its own slot.  A film whose
// details cannot be fetched is absent from the result.
func (s *Service) Enrich(ctx context.Context, list []model.Showtime) map[string]model.Film {
	var ids []string
	seen := map[string]struct{}{}
	for _, sh := range list {
		if _, ok := seen[sh.FilmExternalID]; ok || sh.FilmExternalID == "" {
			continue
		}
		seen[sh.FilmExternalID] = struct{}{}
		ids = append(ids, sh.FilmExternalID)
	}

	slots := make([]*model.Film, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			slots[i] = s.fetchFilm(ctx, id)
		}(i, id)
	}
	wg.Wait()

	films := make(map[string]model.Film, len(ids))
	for i, id := range ids {
		if slots[i] != nil {
			films[id] = *slots[i]
		}
	}
	return films
}

// fetchFilm returns nil when the film's details are unavailable.  Missing
// reviews only leave the review list empty.
func (s *Service) fetchFilm(ctx context.Context, filmID string) *model.Film {
	d, err := s.meta.Details(ctx, filmID)
	if err != nil {
		s.log.Warn().Err(err).Str("film", filmID).Msg("film metadata unavailable")
		return nil
	}
	raw, err := s.meta.Reviews(ctx, filmID)
	if err != nil {
		s.log.Warn().Err(err).Str("film", filmID).Msg("film reviews unavailable")
	}
	f := buildFilm(d, review.Curate(raw))
	return &f
}

// buildFilm applies the media rules to d.  When no language-neutral
// backdrop exists every slot falls back to the film's default backdrop.
func buildFilm(d *model.FilmDetails, reviews []model.CuratedReview) model.Film {
	f := model.Film{Details: d, Reviews: reviews, Poster: media.PosterURL(d.PosterPath)}
	if logo, ok := media.SelectLogo(d.Logos, d.OriginalLanguage); ok {
		f.Logo = media.LogoURL(logo.FilePath)
	}
	if b, ok := media.SelectBackdrops(d.Backdrops); ok {
		f.Backdrops = model.Backdrops{
			Hero:   media.BackdropURL(b.Hero),
			Banner: media.BackdropURL(b.Banner),
			Review: media.BackdropURL(b.Review),
		}
	} else if d.BackdropPath != "" {
		u := media.BackdropURL(d.BackdropPath)
		f.Backdrops = model.Backdrops{Hero: u, Banner: u, Review: u}
	}
	return f
}

// card decorates one showtime for display.
func (s *Service) card(now time.Time, sh model.Showtime, films map[string]model.Film) model.ShowtimeCard {
	c := model.ShowtimeCard{
		Showtime:  sh,
		Status:    string(schedule.Classify(now, sh)),
		Bookable:  schedule.Bookable(now, sh),
		TicketURL: TicketURL(s.ticketBase, sh.BookingReference),
	}
	if f, ok := films[sh.FilmExternalID]; ok {
		c.Logo = f.Logo
		c.Poster = f.Poster
	}
	return c
}

func (s *Service) cards(now time.Time, list []model.Showtime, films map[string]model.Film) []model.ShowtimeCard {
	out := make([]model.ShowtimeCard, 0, len(list))
	for _, sh := range list {
		out = append(out, s.card(now, sh, films))
	}
	return out
}

// Cards decorates list for the raw listing endpoint.
func (s *Service) Cards(list []model.Showtime) []model.ShowtimeCard {
	return s.cards(s.Now(), list, nil)
}

func overview(f model.Film) string {
	if f.Details == nil {
		return ""
	}
	if f.Details.LocalizedOverview != "" {
		return f.Details.LocalizedOverview
	}
	return f.Details.Overview
}
