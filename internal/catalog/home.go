package catalog

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/schedule"
)

const maxCritics = 3

// HomePage builds the listing page.  It fails only when the catalog
// cannot be loaded; missing metadata degrades single films.
func (s *Service) HomePage(ctx context.Context) (*model.HomePage, error) {
	list, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	films := s.Enrich(ctx, list)

	page := &model.HomePage{
		GeneratedAt: now.Format(time.RFC3339),
		Hero:        s.hero(now, list, films),
		Today:       s.cards(now, schedule.Today(now, list), films),
		Featured:    []model.Banner{},
		Tomorrow:    s.cards(now, schedule.Tomorrow(now, list), films),
		Critics:     []model.CriticPick{},
		Week:        s.cards(now, schedule.ThisWeek(now, list, true), films),
		Calendar:    s.calendar(now, list, films),
	}

	for _, sh := range schedule.Featured(now, list) {
		f, ok := films[sh.FilmExternalID]
		if !ok {
			continue
		}
		page.Featured = append(page.Featured, model.Banner{
			Card:     s.card(now, sh, films),
			Backdrop: f.Backdrops.Banner,
			Overview: overview(f),
		})
	}

	for _, sh := range schedule.Tomorrow(now, list) {
		f, ok := films[sh.FilmExternalID]
		if !ok || len(f.Reviews) == 0 {
			continue
		}
		page.Critics = append(page.Critics, model.CriticPick{
			Card:     s.card(now, sh, films),
			Review:   f.Reviews[0],
			Backdrop: f.Backdrops.Review,
		})
		if len(page.Critics) == maxCritics {
			break
		}
	}
	return page, nil
}

// hero prefers a committed featured-film pin that still has a screening
// in the catalog.  Otherwise it takes the first screening that has not
// started yet.
func (s *Service) hero(now time.Time, list []model.Showtime, films map[string]model.Film) *model.Hero {
	if filmID, pinned, ok := s.selection.Current(); ok {
		var same []model.Showtime
		for _, sh := range list {
			if sh.FilmExternalID == filmID {
				same = append(same, sh)
			}
		}
		if sh, ok := schedule.FirstUpcoming(now, same); ok {
			return &model.Hero{
				Card:     s.card(now, sh, map[string]model.Film{filmID: pinned}),
				Backdrop: pinned.Backdrops.Hero,
				Overview: overview(pinned),
				Pinned:   true,
			}
		}
	}

	sh, ok := schedule.FirstUpcoming(now, list)
	if !ok {
		return nil
	}
	f := films[sh.FilmExternalID]
	return &model.Hero{
		Card:     s.card(now, sh, films),
		Backdrop: f.Backdrops.Hero,
		Overview: overview(f),
	}
}

func (s *Service) calendar(now time.Time, list []model.Showtime, films map[string]model.Film) []model.CalendarDay {
	groups := schedule.Calendar(now, list)
	out := make([]model.CalendarDay, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.CalendarDay{
			Date:      g.Date.Format(model.DateLayout),
			Weekday:   g.Date.Weekday().String(),
			Showtimes: s.cards(now, g.Showtimes, films),
		})
	}
	return out
}

// Calendar builds the weekly calendar on its own.
func (s *Service) Calendar(ctx context.Context) ([]model.CalendarDay, error) {
	list, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	return s.calendar(now, list, s.Enrich(ctx, list)), nil
}
