package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// pinTimeout bounds the background metadata fetch for a pin.
const pinTimeout = 30 * time.Second

// Ticket identifies one selection request.
type Ticket struct {
	FilmID string
	gen    uint64
}

// Selection holds the film currently featured in the hero slot.  Every
// Begin supersedes earlier requests, so a slow fetch for an older film
// can never overwrite a newer choice.
type Selection struct {
	mu     sync.Mutex
	gen    uint64
	filmID string
	film   *model.Film
	failed bool
}

// Begin makes filmID the film of interest and returns the ticket its
// result must be committed with.
func (s *Selection) Begin(filmID string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.filmID = filmID
	s.film = nil
	s.failed = false
	return Ticket{FilmID: filmID, gen: s.gen}
}

// Commit stores f for t if t is still the latest request.  It reports
// whether f was stored.
func (s *Selection) Commit(t Ticket, f model.Film) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.gen != s.gen || t.FilmID != s.filmID {
		return false
	}
	s.film = &f
	return true
}

// Fail marks the request of t as failed if t is still the latest
// request.  The film id stays visible through Failed until the next Begin
// or Clear.
func (s *Selection) Fail(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.gen != s.gen || t.FilmID != s.filmID || s.film != nil {
		return false
	}
	s.failed = true
	return true
}

// Clear drops the selection and invalidates outstanding tickets.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.filmID = ""
	s.film = nil
	s.failed = false
}

// Current returns the committed film.  ok is false while nothing is
// selected or the latest request has not completed.
func (s *Selection) Current() (filmID string, film model.Film, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.film == nil {
		return "", model.Film{}, false
	}
	return s.filmID, *s.film, true
}

// Pending returns the film id of an uncommitted request, if any.
func (s *Selection) Pending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filmID, s.filmID != "" && s.film == nil && !s.failed
}

// Failed returns the film id of the latest request if its metadata
// fetch failed.
func (s *Selection) Failed() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filmID, s.failed
}

// PinFeatured selects filmID for the hero slot and fetches its metadata
// in the background.  The returned channel yields whether the result was
// committed; it is false when the fetch failed or a newer pin won.
func (s *Service) PinFeatured(filmID string) (Ticket, <-chan bool) {
	t := s.selection.Begin(filmID)
	done := make(chan bool, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pinTimeout)
		defer cancel()
		f := s.fetchFilm(ctx, filmID)
		if f == nil {
			s.selection.Fail(t)
			done <- false
			return
		}
		ok := s.selection.Commit(t, *f)
		if !ok {
			s.log.Debug().Str("film", filmID).Msg("stale featured pin dropped")
		}
		done <- ok
	}()
	return t, done
}
