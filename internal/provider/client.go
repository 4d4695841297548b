// Package provider talks to the external film metadata, reviews and
// ratings services.  Every outbound call waits on a shared rate limiter,
// is retried on transient failures and has its body cached in Redis.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/iliyamo/cinema-showtimes/internal/retry"
)

// maxBody caps how much of a provider response is read.
const maxBody = 4 << 20

var (
	// ErrNotFound is returned when the provider has no such film.
	ErrNotFound = errors.New("provider: not found")
	// ErrProvider wraps a business error reported inside a 200 response.
	ErrProvider = errors.New("provider: error response")
)

// StatusError is a non-2xx HTTP answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider: status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Options configures the HTTP core shared by the adapters.
type Options struct {
	HTTP     *http.Client
	Limiter  *rate.Limiter
	Cache    Cache
	CacheTTL time.Duration
	Retry    retry.Policy
	Log      zerolog.Logger
}

// NewLimiter returns a limiter allowing perSecond requests with a burst of
// the same size.
func NewLimiter(perSecond float64) *rate.Limiter {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

type client struct {
	http    *http.Client
	limiter *rate.Limiter
	cache   Cache
	ttl     time.Duration
	retry   retry.Policy
	log     zerolog.Logger
}

func newClient(o Options) *client {
	c := &client{
		http:    o.HTTP,
		limiter: o.Limiter,
		cache:   o.Cache,
		ttl:     o.CacheTTL,
		retry:   o.Retry,
		log:     o.Log,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 10 * time.Second}
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if c.cache == nil {
		c.cache = noCache{}
	}
	if c.retry.Attempts == 0 {
		c.retry = retry.Default
	}
	return c
}

// getJSON decodes the response of GET url into out.  A cached body under
// key is used when present; a fresh 200 body is stored under key.
func (c *client) getJSON(ctx context.Context, key, url string, out any) error {
	if body, ok := c.cache.Get(ctx, key); ok {
		if err := json.Unmarshal(body, out); err == nil {
			c.log.Debug().Str("key", key).Msg("provider cache hit")
			return nil
		}
	}

	var body []byte
	attempt := 0
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		attempt++
		b, err := c.fetch(ctx, url)
		if err != nil {
			var se *StatusError
			switch {
			case errors.Is(err, ErrNotFound):
				return retry.Permanent(err)
			case errors.As(err, &se) && !se.Retryable():
				return retry.Permanent(err)
			case ctx.Err() != nil:
				return retry.Permanent(err)
			}
			c.log.Warn().Err(err).Str("key", key).Int("attempt", attempt).Msg("provider request failed")
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	if err := c.cache.Set(ctx, key, body, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("provider cache write failed")
	}
	return nil
}

func (c *client) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: msg}
	}
	return body, nil
}
