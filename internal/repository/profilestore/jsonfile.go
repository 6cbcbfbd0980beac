// Package profilestore persists canonical profiles and reads raw partial sources:
// the JSON profile database, downloaded batch files, JSON-lines scrapes and an
// optional badger store.
package profilestore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/reelsearch/internal/domain/entity"
	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
	"github.com/kailas-cloud/reelsearch/internal/usecase/profile"
)

// batchWrapperKey is the key some batch exports wrap their item list in.
const batchWrapperKey = "casts"

// JSONFile is the persistent profile database stored as a JSON array.
type JSONFile struct {
	path string
}

// NewJSONFile creates a store backed by path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the database file path.
func (f *JSONFile) Path() string { return f.path }

// LoadProfiles reads every profile. A missing file is an empty database.
func (f *JSONFile) LoadProfiles(_ context.Context) ([]domprofile.Profile, error) {
	data, err := os.ReadFile(filepath.Clean(f.path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &entity.LoadError{Source: f.path, Err: err}
	}
	ps, err := decodeProfileList(data)
	if err != nil {
		return nil, &entity.LoadError{Source: f.path, Err: err}
	}
	return ps, nil
}

// SaveProfiles writes profiles sorted by name through a temp file and rename,
// so readers and watchers never see a partial file.
func (f *JSONFile) SaveProfiles(_ context.Context, ps []domprofile.Profile) error {
	sorted := make([]domprofile.Profile, len(ps))
	copy(sorted, ps)
	profile.SortByName(sorted)
	return writeJSONAtomic(f.path, sorted)
}

// Backup copies the database to "<path>.bak". A missing database is not an error.
func (f *JSONFile) Backup() (string, error) {
	backup := f.path + ".bak"
	src, err := os.Open(filepath.Clean(f.path))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.path, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(filepath.Clean(backup))
	if err != nil {
		return "", fmt.Errorf("create %s: %w", backup, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("copy to %s: %w", backup, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", backup, err)
	}
	return backup, nil
}

// LoadJSONLines reads a scrape file with one profile object per line. Blank
// lines are skipped; a malformed line is an error carrying its line number.
func LoadJSONLines(path string) ([]domprofile.Profile, error) {
	fh, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = fh.Close() }()

	var out []domprofile.Profile
	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var p domprofile.Profile
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, nil
}

// decodeProfileList accepts a JSON array of profiles or an object wrapping one
// under "casts". Items that are not objects are skipped.
func decodeProfileList(data []byte) ([]domprofile.Profile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var items []json.RawMessage
	if trimmed[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, err //nolint:wrapcheck // wrapped by caller with the file path
		}
		inner, ok := wrapper[batchWrapperKey]
		if !ok {
			return nil, fmt.Errorf("object without %q list", batchWrapperKey)
		}
		trimmed = inner
	}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller with the file path
	}

	out := make([]domprofile.Profile, 0, len(items))
	for _, raw := range items {
		if b := bytes.TrimSpace(raw); len(b) == 0 || b[0] != '{' {
			continue
		}
		var p domprofile.Profile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err //nolint:wrapcheck // wrapped by caller with the file path
		}
		out = append(out, p)
	}
	return out, nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
