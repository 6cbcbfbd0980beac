package profile

import (
	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
)

// BackfillKeys are the attributes a supplementary scrape may fill in.
var BackfillKeys = []string{
	domprofile.AttrDebut,
	domprofile.AttrBirthplace,
	domprofile.AttrSign,
	domprofile.AttrBloodType,
	domprofile.AttrShoeSize,
	domprofile.AttrHairLength,
	domprofile.AttrHairColor,
	domprofile.AttrTwitter,
	domprofile.AttrCup,
	domprofile.AttrHeight,
	domprofile.AttrBust,
	domprofile.AttrWaist,
	domprofile.AttrHip,
}

// BackfillStats summarizes a backfill run.
type BackfillStats struct {
	ProfilesUpdated int
	FieldsFilled    int
	ScrapeEntries   int
	Skipped         int // scrape entries with no slug or an unknown slug
}

// Backfill fills base's invalid backfill keys from incoming. Valid existing values
// are never replaced. Returns the number of fields filled.
func Backfill(base *domprofile.Profile, incoming *domprofile.Profile) int {
	filled := 0
	for _, key := range BackfillKeys {
		if domprofile.IsValidValue(base.Attr(key)) {
			continue
		}
		raw := incoming.Attr(key)
		if !domprofile.IsValidValue(raw) {
			continue
		}
		v := domprofile.CleanValue(raw)
		if v == "" {
			continue
		}
		base.SetAttr(key, v)
		filled++
	}
	return filled
}

// BackfillAll applies every scrape entry to the store profile sharing its slug.
// The store slice is modified in place.
func BackfillAll(store []domprofile.Profile, scrape []domprofile.Profile) BackfillStats {
	idx := make(map[string]int, len(store))
	for i := range store {
		if slug := domprofile.NormalizeSlug(store[i].Slug); slug != "" {
			idx[slug] = i
		}
	}

	stats := BackfillStats{ScrapeEntries: len(scrape)}
	updated := make(map[int]struct{})
	for i := range scrape {
		slug := domprofile.NormalizeSlug(scrape[i].Slug)
		pos, ok := idx[slug]
		if slug == "" || !ok {
			stats.Skipped++
			continue
		}
		if n := Backfill(&store[pos], &scrape[i]); n > 0 {
			stats.FieldsFilled += n
			updated[pos] = struct{}{}
		}
	}
	stats.ProfilesUpdated = len(updated)
	return stats
}
