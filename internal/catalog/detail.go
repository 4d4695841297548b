package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/repository"
	"github.com/iliyamo/cinema-showtimes/internal/retry"
	"github.com/iliyamo/cinema-showtimes/internal/review"
	"github.com/iliyamo/cinema-showtimes/internal/schedule"
)

const topCast = 5

// ShowtimeDetail builds the view for one showtime: the record, its film's
// metadata, awards and ratings, and the film's other upcoming
// screenings.  repository.ErrShowtimeNotFound is returned unwrapped.
func (s *Service) ShowtimeDetail(ctx context.Context, id uint64) (*model.ShowtimeDetail, error) {
	var rec *model.Showtime
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		var err error
		rec, err = s.store.GetByID(ctx, id)
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
	if errors.Is(err, repository.ErrShowtimeNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Join(ErrCatalogUnavailable, err)
	}

	list, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.Now()

	out := &model.ShowtimeDetail{Cast: []model.CastMember{}}
	var films map[string]model.Film
	title, year, imdbID := rec.Title, "", ""

	d, err := s.meta.Details(ctx, rec.FilmExternalID)
	if err != nil {
		s.log.Warn().Err(err).Str("film", rec.FilmExternalID).Msg("film metadata unavailable")
	} else {
		raw, rerr := s.meta.Reviews(ctx, rec.FilmExternalID)
		if rerr != nil {
			s.log.Warn().Err(rerr).Str("film", rec.FilmExternalID).Msg("film reviews unavailable")
		}
		out.Film = buildFilm(d, review.Curate(raw))
		films = map[string]model.Film{rec.FilmExternalID: out.Film}
		if dir, ok := d.Director(); ok {
			out.Director = dir.Name
		}
		out.Cast = d.TopCast(topCast)
		title, year, imdbID = firstNonEmpty(d.Title, rec.Title), d.ReleaseYear(), d.IMDbID
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		out.Awards = s.ratings.Awards(ctx, imdbID)
	}()
	go func() {
		defer wg.Done()
		out.Ratings = s.ratings.Ratings(ctx, imdbID, title, year)
	}()
	wg.Wait()

	out.Card = s.card(now, *rec, films)
	out.Others = s.cards(now, schedule.OtherShowtimes(now, *rec, list), films)
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
