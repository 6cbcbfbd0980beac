package profile

import (
	"github.com/kailas-cloud/reelsearch/internal/domain/entity"
	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
)

// Index is an immutable name and slug lookup over canonical profiles.
// Safe for concurrent reads.
type Index struct {
	bySlug map[string]*domprofile.Profile
	byName map[string]*domprofile.Profile
}

// NewIndex builds an index. Biographies are normalized once at build time.
// When several profiles share a normalized name the lowest slug wins.
func NewIndex(profiles []domprofile.Profile) *Index {
	idx := &Index{
		bySlug: make(map[string]*domprofile.Profile, len(profiles)),
		byName: make(map[string]*domprofile.Profile, len(profiles)*2),
	}
	for i := range profiles {
		slug := domprofile.NormalizeSlug(profiles[i].Slug)
		if slug == "" {
			continue
		}
		p := profiles[i].Clone()
		p.Slug = slug
		domprofile.NormalizeBiography(&p)
		if prev, ok := idx.bySlug[p.Slug]; ok {
			// duplicate slug: fold it in as a later partial
			overlay(prev, &p)
			continue
		}
		idx.bySlug[p.Slug] = &p
	}
	for _, p := range idx.bySlug {
		idx.addName(p.Name, p)
		idx.addName(p.NativeName, p)
	}
	return idx
}

func (idx *Index) addName(name string, p *domprofile.Profile) {
	key := entity.Fold(name)
	if key == "" {
		return
	}
	if cur, ok := idx.byName[key]; ok && cur.Slug <= p.Slug {
		return
	}
	idx.byName[key] = p
}

// Resolve finds the canonical profile for a display or native name.
func (idx *Index) Resolve(name string) (domprofile.Profile, bool) {
	if idx == nil {
		return domprofile.Profile{}, false
	}
	p, ok := idx.byName[entity.Fold(name)]
	if !ok {
		return domprofile.Profile{}, false
	}
	return p.Clone(), true
}

// Get returns a profile by slug.
func (idx *Index) Get(slug string) (domprofile.Profile, bool) {
	if idx == nil {
		return domprofile.Profile{}, false
	}
	p, ok := idx.bySlug[domprofile.NormalizeSlug(slug)]
	if !ok {
		return domprofile.Profile{}, false
	}
	return p.Clone(), true
}

// Len returns the number of profiles.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.bySlug)
}

// Names returns the display names of all profiles, for deriving a dictionary.
func (idx *Index) Names() []string {
	if idx == nil {
		return nil
	}
	names := make([]string, 0, len(idx.bySlug))
	for _, p := range idx.bySlug {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names
}
