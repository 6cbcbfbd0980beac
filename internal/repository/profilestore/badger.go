package profilestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
)

const profileKeyPrefix = "profile:"

// Badger is the persistent profile store kept in a badger database,
// one JSON document per slug under "profile:<slug>".
type Badger struct {
	db     *badger.DB
	logger *zap.Logger
}

// zapBadgerLogger adapts zap to badger.Logger.
type zapBadgerLogger struct {
	s *zap.SugaredLogger
}

var _ badger.Logger = (*zapBadgerLogger)(nil)

func (l *zapBadgerLogger) Errorf(msg string, args ...any)   { l.s.Errorf(msg, args...) }
func (l *zapBadgerLogger) Warningf(msg string, args ...any) { l.s.Warnf(msg, args...) }
func (l *zapBadgerLogger) Infof(msg string, args ...any)    { l.s.Debugf(msg, args...) }
func (l *zapBadgerLogger) Debugf(msg string, args ...any)   { l.s.Debugf(msg, args...) }

// OpenBadger opens (creating if needed) the database directory at path.
// An empty path opens an in-memory database.
func OpenBadger(path string, logger *zap.Logger) (*Badger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger dir %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &zapBadgerLogger{s: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", path, err)
	}
	return &Badger{db: db, logger: logger}, nil
}

// Close releases the database.
func (b *Badger) Close() error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	return nil
}

// LoadProfiles reads every stored profile in slug order.
func (b *Badger) LoadProfiles(ctx context.Context) ([]domprofile.Profile, error) {
	var out []domprofile.Profile
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profileKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var p domprofile.Profile
				if err := json.Unmarshal(val, &p); err != nil {
					return fmt.Errorf("decode %s: %w", item.Key(), err)
				}
				out = append(out, p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return out, nil
}

// SaveProfiles replaces the stored set with ps. Profiles without a slug are skipped.
func (b *Badger) SaveProfiles(ctx context.Context, ps []domprofile.Profile) error {
	if err := b.db.DropPrefix([]byte(profileKeyPrefix)); err != nil {
		return fmt.Errorf("drop profiles: %w", err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	written := 0
	for i := range ps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ps[i].Slug == "" {
			continue
		}
		val, err := json.Marshal(ps[i])
		if err != nil {
			return fmt.Errorf("encode %s: %w", ps[i].Slug, err)
		}
		if err := wb.Set([]byte(profileKeyPrefix+ps[i].Slug), val); err != nil {
			return fmt.Errorf("write %s: %w", ps[i].Slug, err)
		}
		written++
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush profiles: %w", err)
	}
	b.logger.Info("Saved profiles to badger", zap.Int("profiles", written))
	return nil
}
