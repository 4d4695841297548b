// Package jobs runs scheduled maintenance on the showtime catalog.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Purger removes showtimes that have already ended.
type Purger interface {
	DeletePast(ctx context.Context, now time.Time) (int64, error)
}

// Notifier announces catalog changes.
type Notifier interface {
	CatalogChanged(ctx context.Context, reason string, affected int64)
}

// Janitor deletes ended showtimes on a cron schedule.
type Janitor struct {
	store  Purger
	notify Notifier
	loc    *time.Location
	now    func() time.Time
	log    zerolog.Logger
}

// NewJanitor returns a Janitor evaluating "now" in loc.
func NewJanitor(store Purger, notify Notifier, loc *time.Location, log zerolog.Logger) *Janitor {
	if loc == nil {
		loc = time.UTC
	}
	return &Janitor{store: store, notify: notify, loc: loc, now: time.Now, log: log}
}

// Run purges once and reports how many rows went.  A change event is
// published only when something was deleted.
func (j *Janitor) Run(ctx context.Context) (int64, error) {
	n, err := j.store.DeletePast(ctx, j.now().In(j.loc))
	if err != nil {
		return 0, fmt.Errorf("purge past showtimes: %w", err)
	}
	if n > 0 && j.notify != nil {
		j.notify.CatalogChanged(ctx, "janitor", n)
	}
	return n, nil
}

// Start schedules Run with spec (standard cron syntax or descriptors such
// as "@every 15m") and starts the scheduler.  Stop the returned cron to
// end it.  An empty spec leaves the janitor off and returns a nil cron;
// past showtimes are then removed only through the admin API.
func (j *Janitor) Start(spec string) (*cron.Cron, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	c := cron.New(cron.WithLocation(j.loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := j.Run(ctx)
		if err != nil {
			j.log.Error().Err(err).Msg("janitor run failed")
			return
		}
		j.log.Info().Int64("deleted", n).Msg("janitor run")
	})
	if err != nil {
		return nil, fmt.Errorf("janitor schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
