// Package review narrows raw provider reviews down to a short list of
// critic quotes from recognized publications.
package review

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

const (
	minRating         = 7.0
	minContentLen     = 100
	minSentenceLen    = 40
	maxSentences      = 2
	maxCuratedReviews = 3
)

type publication struct {
	name     string
	variants []string
}

// publications is scanned in order; the first entry with a matching
// variant names the review.  Variants are lowercase substrings.
var publications = []publication{
	{"The Guardian", []string{"guardian", "the guardian", "theguardian.com"}},
	{"The New York Times", []string{"nyt", "new york times", "nytimes.com"}},
	{"Time Magazine", []string{"time", "time magazine", "time.com"}},
	{"Rolling Stone", []string{"rolling stone", "rollingstone", "rollingstone.com"}},
	{"The Telegraph", []string{"telegraph", "the telegraph", "telegraph.co.uk"}},
	{"Los Angeles Times", []string{"la times", "los angeles times", "latimes.com"}},
	{"The Washington Post", []string{"washington post", "washingtonpost", "wapo"}},
	{"Entertainment Weekly", []string{"ew", "entertainment weekly", "ew.com"}},
	{"The Atlantic", []string{"atlantic", "the atlantic", "theatlantic.com"}},
	{"BBC", []string{"bbc", "bbc.com", "bbc.co.uk"}},
	{"Empire", []string{"empire", "empire magazine", "empireonline"}},
	{"Variety", []string{"variety", "variety.com"}},
	{"IndieWire", []string{"indiewire", "indie wire", "indiewire.com"}},
	{"The Hollywood Reporter", []string{"thr", "hollywood reporter", "hollywoodreporter"}},
	{"Screen International", []string{"screen", "screen international", "screendaily"}},
}

var (
	bracketed    = regexp.MustCompile(`\[.*?\]`)
	parenthetic  = regexp.MustCompile(`\(.*?\)`)
	rawURL       = regexp.MustCompile(`http\S+`)
	bareScheme   = regexp.MustCompile(`\bhttp\S*$`)
	whitespace   = regexp.MustCompile(`\s+`)
	sentenceStop = regexp.MustCompile(`[.!?]+`)
)

// Curate filters, trims and ranks raw reviews and returns at most three,
// each from a different publication.  A review survives the filter only
// with a rating of at least 7, a body of at least 100 characters and a
// recognized publication.  Ranking is by rating, then by recency.  The
// diversity walk keeps the first review seen for each publication.
func Curate(raw []model.Review) []model.CuratedReview {
	var kept []model.CuratedReview
	for _, r := range raw {
		if r.Rating == nil || *r.Rating < minRating {
			continue
		}
		if utf8.RuneCountInString(r.Content) < minContentLen {
			continue
		}
		pub, ok := MatchPublication(r)
		if !ok {
			continue
		}
		content := Trim(r.Content)
		if content == "" {
			continue
		}
		r.Content = content
		kept = append(kept, model.CuratedReview{Review: r, Publication: pub})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		ri, rj := *kept[i].Rating, *kept[j].Rating
		if ri != rj {
			return ri > rj
		}
		return kept[i].CreatedAt.After(kept[j].CreatedAt)
	})

	seen := make(map[string]struct{}, maxCuratedReviews)
	out := make([]model.CuratedReview, 0, maxCuratedReviews)
	for _, c := range kept {
		if _, dup := seen[c.Publication]; dup {
			continue
		}
		seen[c.Publication] = struct{}{}
		out = append(out, c)
		if len(out) == maxCuratedReviews {
			break
		}
	}
	return out
}

// MatchPublication returns the canonical name of the first publication
// whose variant appears in the author, body or URL of r.
func MatchPublication(r model.Review) (string, bool) {
	author := strings.ToLower(r.Author)
	content := strings.ToLower(r.Content)
	url := strings.ToLower(r.URL)
	for _, p := range publications {
		for _, v := range p.variants {
			if strings.Contains(author, v) || strings.Contains(content, v) || strings.Contains(url, v) {
				return p.name, true
			}
		}
	}
	return "", false
}

// Trim strips bracketed and parenthetical asides and raw URLs, then
// keeps the first two sentences of at least 40 characters, joined with
// ". " and terminated by a period.  It returns "" when no sentence
// qualifies.  Trim(Trim(s)) == Trim(s).
func Trim(content string) string {
	out := trimOnce(content)
	for {
		next := trimOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func trimOnce(content string) string {
	content = bracketed.ReplaceAllString(content, "")
	content = parenthetic.ReplaceAllString(content, "")
	content = rawURL.ReplaceAllString(content, "")
	content = strings.TrimSpace(whitespace.ReplaceAllString(content, " "))

	var keep []string
	for _, s := range sentenceStop.Split(content, -1) {
		// a trailing bare "http" would turn into a URL once the period is added
		s = strings.TrimSpace(bareScheme.ReplaceAllString(strings.TrimSpace(s), ""))
		if utf8.RuneCountInString(s) < minSentenceLen {
			continue
		}
		keep = append(keep, s)
		if len(keep) == maxSentences {
			break
		}
	}
	if len(keep) == 0 {
		return ""
	}
	return strings.Join(keep, ". ") + "."
}
