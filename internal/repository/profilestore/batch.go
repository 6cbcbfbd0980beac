package profilestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
)

// BatchReader loads downloaded batch files matching a glob in parallel.
type BatchReader struct {
	glob    string
	workers int
	logger  *zap.Logger
}

// NewBatchReader creates a reader. workers <= 0 uses half the CPUs.
func NewBatchReader(glob string, workers int, logger *zap.Logger) *BatchReader {
	if workers <= 0 {
		workers = max(runtime.NumCPU()/2, 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchReader{glob: glob, workers: workers, logger: logger}
}

// BatchFiles returns the matching files in name order.
func (b *BatchReader) BatchFiles() ([]string, error) {
	if b.glob == "" {
		return nil, nil
	}
	files, err := filepath.Glob(b.glob)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", b.glob, err)
	}
	slices.Sort(files)
	return files, nil
}

// LoadProfiles returns the partials of every batch file, concatenated in file
// name order so later batches merge over earlier ones. Unreadable or malformed
// files are logged and skipped.
func (b *BatchReader) LoadProfiles(ctx context.Context) ([]domprofile.Profile, error) {
	files, err := b.BatchFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(min(b.workers, len(files)))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	perFile := make([][]domprofile.Profile, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			ps, err := readBatchFile(file)
			if err != nil {
				b.logger.Warn("Skipping batch file", zap.String("file", file), zap.Error(err))
				return
			}
			perFile[i] = ps
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit %s: %w", file, submitErr)
		}
	}
	wg.Wait()

	var out []domprofile.Profile
	for _, ps := range perFile {
		out = append(out, ps...)
	}
	b.logger.Info("Loaded batch files", zap.Int("files", len(files)), zap.Int("partials", len(out)))
	return out, nil
}

func readBatchFile(path string) ([]domprofile.Profile, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	ps, err := decodeProfileList(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ps, nil
}
