package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// TMDB is the metadata and reviews provider.
type TMDB struct {
	c       *client
	apiKey  string
	baseURL string
}

// NewTMDB builds a TMDB adapter rooted at baseURL.
func NewTMDB(apiKey, baseURL string, o Options) *TMDB {
	return &TMDB{c: newClient(o), apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/")}
}

// PreferredLanguage is the language metadata is requested in: Italian
// for Italian films, English for everything else.
func PreferredLanguage(originalLanguage string) string {
	if originalLanguage == "it" {
		return "it"
	}
	return "en"
}

type tmdbMovie struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	OriginalLanguage string `json:"original_language"`
	PosterPath       string `json:"poster_path"`
	BackdropPath     string `json:"backdrop_path"`
	Overview         string `json:"overview"`
	Runtime          int    `json:"runtime"`
	ReleaseDate      string `json:"release_date"`
	IMDbID           string `json:"imdb_id"`
}

type tmdbImages struct {
	Logos     []model.MediaCandidate `json:"logos"`
	Backdrops []model.MediaCandidate `json:"backdrops"`
}

type tmdbCredits struct {
	Cast []model.CastMember `json:"cast"`
	Crew []model.CrewMember `json:"crew"`
}

type tmdbTranslations struct {
	Translations []struct {
		Language string `json:"iso_639_1"`
		Data     struct {
			Overview string `json:"overview"`
		} `json:"data"`
	} `json:"translations"`
}

type tmdbReviews struct {
	Results []struct {
		ID            string `json:"id"`
		Author        string `json:"author"`
		AuthorDetails struct {
			Rating *float64 `json:"rating"`
		} `json:"author_details"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
		URL       string    `json:"url"`
	} `json:"results"`
}

func (t *TMDB) url(path string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", t.apiKey)
	return t.baseURL + path + "?" + q.Encode()
}

// Details fetches the merged metadata for one film.  The untranslated
// record decides the preferred language, then the localized record is
// fetched along with images, credits and translations.  Only the two
// movie records are required; a failed images, credits or translations
// call leaves that part empty.
func (t *TMDB) Details(ctx context.Context, filmID string) (*model.FilmDetails, error) {
	filmID = url.PathEscape(strings.TrimSpace(filmID))
	if filmID == "" {
		return nil, ErrNotFound
	}
	var base tmdbMovie
	if err := t.c.getJSON(ctx, "tmdb:movie:"+filmID+":", t.url("/movie/"+filmID, nil), &base); err != nil {
		return nil, fmt.Errorf("tmdb movie %s: %w", filmID, err)
	}
	lang := PreferredLanguage(base.OriginalLanguage)

	var (
		wg       sync.WaitGroup
		local    tmdbMovie
		localErr error
		images   tmdbImages
		credits  tmdbCredits
		trans    tmdbTranslations
	)
	fetch := func(kind, path string, q url.Values, out any, errOut *error) {
		defer wg.Done()
		key := fmt.Sprintf("tmdb:%s:%s:%s", kind, filmID, lang)
		if err := t.c.getJSON(ctx, key, t.url(path, q), out); err != nil {
			if errOut != nil {
				*errOut = err
				return
			}
			t.c.log.Warn().Err(err).Str("film", filmID).Str("kind", kind).Msg("partial metadata")
		}
	}
	wg.Add(4)
	go fetch("details", "/movie/"+filmID, url.Values{"language": {lang}}, &local, &localErr)
	go fetch("images", "/movie/"+filmID+"/images", url.Values{"include_image_language": {lang + ",null,en"}}, &images, nil)
	go fetch("credits", "/movie/"+filmID+"/credits", url.Values{"language": {lang}}, &credits, nil)
	go fetch("translations", "/movie/"+filmID+"/translations", nil, &trans, nil)
	wg.Wait()
	if localErr != nil {
		return nil, fmt.Errorf("tmdb details %s: %w", filmID, localErr)
	}

	d := &model.FilmDetails{
		ExternalID:       filmID,
		Title:            firstNonEmpty(local.Title, base.Title),
		OriginalLanguage: base.OriginalLanguage,
		MetadataLanguage: lang,
		PosterPath:       firstNonEmpty(local.PosterPath, base.PosterPath),
		BackdropPath:     firstNonEmpty(local.BackdropPath, base.BackdropPath),
		Overview:         firstNonEmpty(local.Overview, base.Overview),
		Runtime:          base.Runtime,
		ReleaseDate:      base.ReleaseDate,
		IMDbID:           base.IMDbID,
		Cast:             credits.Cast,
		Crew:             credits.Crew,
		Logos:            images.Logos,
		Backdrops:        images.Backdrops,
	}
	for _, tr := range trans.Translations {
		if tr.Language == lang && tr.Data.Overview != "" {
			d.LocalizedOverview = tr.Data.Overview
			break
		}
	}
	return d, nil
}

// Reviews returns the raw English reviews for one film.
func (t *TMDB) Reviews(ctx context.Context, filmID string) ([]model.Review, error) {
	filmID = url.PathEscape(strings.TrimSpace(filmID))
	if filmID == "" {
		return nil, ErrNotFound
	}
	var page tmdbReviews
	key := "tmdb:reviews:" + filmID + ":en-US"
	if err := t.c.getJSON(ctx, key, t.url("/movie/"+filmID+"/reviews", url.Values{"language": {"en-US"}}), &page); err != nil {
		return nil, fmt.Errorf("tmdb reviews %s: %w", filmID, err)
	}
	out := make([]model.Review, 0, len(page.Results))
	for _, r := range page.Results {
		out = append(out, model.Review{
			ID:        r.ID,
			Author:    r.Author,
			Content:   r.Content,
			Rating:    r.AuthorDetails.Rating,
			URL:       r.URL,
			CreatedAt: r.CreatedAt,
		})
	}
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
