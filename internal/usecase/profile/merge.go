// Package profile reconciles partial entity records into canonical profiles
// and serves them by name on the query path.
package profile

import (
	"cmp"
	"encoding/json"
	"maps"
	"slices"

	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
)

// Merge groups partial records by slug and folds them in input order.
// A later partial overwrites a field only when its value is valid, so newer
// sources win without blanking data an older source already supplied.
// Partials without a slug are skipped. Output is sorted by name, then slug.
func Merge(partials ...domprofile.Profile) []domprofile.Profile {
	bySlug := make(map[string]*domprofile.Profile, len(partials))
	for i := range partials {
		in := &partials[i]
		slug := domprofile.NormalizeSlug(in.Slug)
		if slug == "" {
			continue
		}
		cur, ok := bySlug[slug]
		if !ok {
			c := in.Clone()
			c.Slug = slug
			bySlug[slug] = &c
			continue
		}
		overlay(cur, in)
	}

	out := make([]domprofile.Profile, 0, len(bySlug))
	for _, p := range bySlug {
		out = append(out, *p)
	}
	SortByName(out)
	return out
}

// SortByName orders profiles by display name, then slug.
func SortByName(ps []domprofile.Profile) {
	slices.SortFunc(ps, func(a, b domprofile.Profile) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Slug, b.Slug)
	})
}

func overlay(dst, src *domprofile.Profile) {
	setIfValid(&dst.Name, src.Name)
	setIfValid(&dst.NativeName, src.NativeName)
	setIfValid(&dst.SourceID, src.SourceID)
	setIfValid(&dst.Link, src.Link)
	setIfValid(&dst.Avatar, src.Avatar)

	for _, k := range slices.Sorted(maps.Keys(src.Attributes)) {
		if v := src.Attributes[k]; domprofile.IsValidValue(v) {
			dst.SetAttr(k, v)
		}
	}
	if len(src.Extra) > 0 {
		if dst.Extra == nil {
			dst.Extra = make(map[string]json.RawMessage, len(src.Extra))
		}
		maps.Copy(dst.Extra, src.Extra)
	}
	if src.Biography != nil {
		b := src.Biography.Clone()
		dst.Biography = &b
	}
}

func setIfValid(dst *string, v string) {
	if domprofile.IsValidValue(v) {
		*dst = v
	}
}
