package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/rating"
)

// OMDb is the awards and ratings provider.  Its answers never fail the
// caller: problems end up in the Error field of the returned value.
type OMDb struct {
	c       *client
	apiKey  string
	baseURL string
}

// NewOMDb builds an OMDb adapter rooted at baseURL.
func NewOMDb(apiKey, baseURL string, o Options) *OMDb {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &OMDb{c: newClient(o), apiKey: apiKey, baseURL: baseURL}
}

func (o *OMDb) lookup(ctx context.Context, key string, q url.Values) (model.OMDbPayload, error) {
	q.Set("apikey", o.apiKey)
	var p model.OMDbPayload
	if err := o.c.getJSON(ctx, key, o.baseURL+"?"+q.Encode(), &p); err != nil {
		return p, err
	}
	if strings.EqualFold(p.Response, "False") {
		msg := p.Error
		if msg == "" {
			msg = "unknown error"
		}
		return p, fmt.Errorf("%w: %s", ErrProvider, msg)
	}
	return p, nil
}

func (o *OMDb) byID(ctx context.Context, imdbID string) (model.OMDbPayload, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return model.OMDbPayload{}, fmt.Errorf("%w: missing IMDb id", ErrProvider)
	}
	return o.lookup(ctx, "omdb:id:"+imdbID, url.Values{"i": {imdbID}})
}

func (o *OMDb) byTitle(ctx context.Context, title, year string) (model.OMDbPayload, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.OMDbPayload{}, fmt.Errorf("%w: missing title", ErrProvider)
	}
	q := url.Values{"t": {title}}
	if year != "" {
		q.Set("y", year)
	}
	return o.lookup(ctx, "omdb:title:"+strings.ToLower(title)+":"+year, q)
}

// Awards returns the free-text awards summary for imdbID.
func (o *OMDb) Awards(ctx context.Context, imdbID string) model.Awards {
	p, err := o.byID(ctx, imdbID)
	if err != nil {
		o.c.log.Debug().Err(err).Str("imdb_id", imdbID).Msg("awards unavailable")
		return model.Awards{Error: displayError(err)}
	}
	a := strings.TrimSpace(p.Awards)
	if a == "" || a == "N/A" {
		return model.Awards{}
	}
	return model.Awards{Summary: &a}
}

// Ratings looks the film up by imdbID and, when that fails, by title and
// optional year.  When both fail the bundle is empty with Error set.
func (o *OMDb) Ratings(ctx context.Context, imdbID, title, year string) model.RatingBundle {
	p, err := o.byID(ctx, imdbID)
	if err == nil {
		return rating.Normalize(p)
	}
	o.c.log.Debug().Err(err).Str("imdb_id", imdbID).Str("title", title).Msg("ratings by id failed, trying title")
	p, err = o.byTitle(ctx, title, year)
	if err != nil {
		o.c.log.Warn().Err(err).Str("title", title).Str("year", year).Msg("ratings unavailable")
		return rating.Unavailable(displayError(err))
	}
	return rating.Normalize(p)
}

// displayError strips the package prefix for end users.
func displayError(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, "provider: error response: "); i >= 0 {
		return msg[i+len("provider: error response: "):]
	}
	return "service unavailable"
}
