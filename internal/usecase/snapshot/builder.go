package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reelsearch/internal/domain/entity"
	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
	"github.com/kailas-cloud/reelsearch/internal/usecase/profile"
)

// Source names reported in Snapshot.Degraded.
const (
	SourceDictionary = "dictionary"
	SourceProfiles   = "profiles"
)

// DictionaryLoader reads the entity dictionary.
type DictionaryLoader interface {
	LoadDictionary(ctx context.Context) (*entity.Dictionary, error)
}

// ProfileLoader reads partial or canonical profile records.
type ProfileLoader interface {
	LoadProfiles(ctx context.Context) ([]domprofile.Profile, error)
}

// Builder assembles snapshots from the configured sources.
type Builder struct {
	dict     DictionaryLoader
	profiles ProfileLoader
	logger   *zap.Logger
	now      func() time.Time
}

// NewBuilder creates a builder. Either loader may be nil. Without a dictionary
// loader the dictionary is derived from profile display names.
func NewBuilder(dict DictionaryLoader, profiles ProfileLoader, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{dict: dict, profiles: profiles, logger: logger, now: time.Now}
}

// Build loads every source. A failing source degrades to empty data: the returned
// snapshot is always usable, and err joins the per-source failures.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{LoadedAt: b.now()}
	var errs []error

	var partials []domprofile.Profile
	if b.profiles != nil {
		ps, err := b.profiles.LoadProfiles(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", SourceProfiles, err))
			snap.Degraded = append(snap.Degraded, SourceProfiles)
			b.logger.Error("profile store load failed, serving without profiles", zap.Error(err))
		} else {
			partials = ps
		}
	}
	snap.Profiles = profile.NewIndex(profile.Merge(partials...))

	switch {
	case b.dict != nil:
		d, err := b.dict.LoadDictionary(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", SourceDictionary, err))
			snap.Degraded = append(snap.Degraded, SourceDictionary)
			b.logger.Error("dictionary load failed, serving without entity extraction", zap.Error(err))
			d = entity.New(nil)
		}
		snap.Dictionary = d
	default:
		snap.Dictionary = entity.New(snap.Profiles.Names())
	}

	b.logger.Info("entity snapshot built",
		zap.Int("dictionary_entries", snap.Dictionary.Len()),
		zap.Int("profiles", snap.Profiles.Len()),
		zap.Strings("degraded", snap.Degraded),
	)
	return snap, errors.Join(errs...)
}
