package profilestore

import (
	"context"
	"errors"

	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
)

// Loader reads profile records from one backing store.
type Loader interface {
	LoadProfiles(ctx context.Context) ([]domprofile.Profile, error)
}

// Source chains the persistent store and downloaded batches into one partial
// sequence: store records first, then batch partials, so newer batch data wins
// during merge.
type Source struct {
	loaders []Loader
}

// NewSource combines loaders in precedence order, lowest first. Nil loaders are ignored.
func NewSource(loaders ...Loader) *Source {
	s := &Source{}
	for _, l := range loaders {
		if l != nil && !isNilLoader(l) {
			s.loaders = append(s.loaders, l)
		}
	}
	return s
}

// LoadProfiles concatenates every loader's records. Any loader failure fails the load.
func (s *Source) LoadProfiles(ctx context.Context) ([]domprofile.Profile, error) {
	var out []domprofile.Profile
	var errs []error
	for _, l := range s.loaders {
		ps, err := l.LoadProfiles(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, ps...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func isNilLoader(l Loader) bool {
	switch v := l.(type) {
	case *JSONFile:
		return v == nil
	case *BatchReader:
		return v == nil
	case *Badger:
		return v == nil
	}
	return false
}
