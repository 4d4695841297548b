// Package media picks the images that represent a film on the listing
// page out of the provider's localized candidates.
package media

import (
	"path"
	"sort"
	"strings"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// english is the language tag that always wins logo selection.
const english = "en"

// SelectLogo returns the best PNG logo.  Candidates are grouped in tiers
// (English, then originalLanguage, then language-neutral, then anything
// else) and the highest scored candidate of the first non-empty tier is
// returned.  ok is false when no PNG candidate exists.
func SelectLogo(candidates []model.MediaCandidate, originalLanguage string) (model.MediaCandidate, bool) {
	var png []model.MediaCandidate
	for _, c := range candidates {
		if strings.EqualFold(path.Ext(c.FilePath), ".png") {
			png = append(png, c)
		}
	}
	if len(png) == 0 {
		return model.MediaCandidate{}, false
	}

	tiers := []func(model.MediaCandidate) bool{
		func(c model.MediaCandidate) bool { return c.Language != nil && *c.Language == english },
		func(c model.MediaCandidate) bool {
			return c.Language != nil && originalLanguage != "" && *c.Language == originalLanguage
		},
		func(c model.MediaCandidate) bool { return neutral(c) },
	}
	for _, in := range tiers {
		if best, ok := highest(png, in); ok {
			return best, true
		}
	}
	best, _ := highest(png, func(model.MediaCandidate) bool { return true })
	return best, true
}

// SelectBackdrops assigns language-neutral backdrops to the hero, banner
// and review slots by descending score.  Banner and review fall back to
// the top backdrop when fewer than two or three distinct paths exist.
// ok is false when no neutral backdrop exists.
func SelectBackdrops(candidates []model.MediaCandidate) (model.Backdrops, bool) {
	var pool []model.MediaCandidate
	for _, c := range candidates {
		if neutral(c) && c.FilePath != "" {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return model.Backdrops{}, false
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Score > pool[j].Score })

	seen := make(map[string]struct{}, len(pool))
	ranked := make([]string, 0, len(pool))
	for _, c := range pool {
		if _, dup := seen[c.FilePath]; dup {
			continue
		}
		seen[c.FilePath] = struct{}{}
		ranked = append(ranked, c.FilePath)
	}

	rank := func(i int) string {
		if i < len(ranked) {
			return ranked[i]
		}
		return ranked[0]
	}
	return model.Backdrops{Hero: rank(0), Banner: rank(1), Review: rank(2)}, true
}

// neutral reports whether c carries no language tag.  Providers send
// both null and "" for untagged images.
func neutral(c model.MediaCandidate) bool {
	return c.Language == nil || strings.TrimSpace(*c.Language) == ""
}

// highest returns the first candidate with the top score among those
// accepted by keep.
func highest(candidates []model.MediaCandidate, keep func(model.MediaCandidate) bool) (model.MediaCandidate, bool) {
	var (
		best  model.MediaCandidate
		found bool
	)
	for _, c := range candidates {
		if !keep(c) {
			continue
		}
		if !found || c.Score > best.Score {
			best, found = c, true
		}
	}
	return best, found
}
