// Package entitydict loads the entity dictionary from a JSON file.
package entitydict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/reelsearch/internal/domain/entity"
)

var errUnsupportedShape = errors.New("expected an array of names or an object of name to aliases")

// Load reads a dictionary file: either a JSON array of display names or an object
// mapping display names to alias lists. Failures are returned as *entity.LoadError.
func Load(path string) (*entity.Dictionary, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, &entity.LoadError{Source: path, Err: err}
	}
	d, err := Parse(data)
	if err != nil {
		return nil, &entity.LoadError{Source: path, Err: err}
	}
	return d, nil
}

// Parse decodes dictionary JSON.
func Parse(data []byte) (*entity.Dictionary, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errUnsupportedShape
	}

	switch trimmed[0] {
	case '[':
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return nil, err //nolint:wrapcheck // wrapped into LoadError by Load
		}
		return entity.New(names), nil
	case '{':
		var aliases map[string][]string
		if err := json.Unmarshal(trimmed, &aliases); err != nil {
			return nil, err //nolint:wrapcheck // wrapped into LoadError by Load
		}
		return entity.NewWithAliases(aliases), nil
	}
	return nil, errUnsupportedShape
}

// Save writes display names as a JSON array.
func Save(path string, d *entity.Dictionary) error {
	data, err := json.MarshalIndent(d.DisplayNames(), "", "  ")
	if err != nil {
		return &entity.LoadError{Source: path, Err: err}
	}
	if err := os.WriteFile(filepath.Clean(path), append(data, '\n'), 0o600); err != nil {
		return &entity.LoadError{Source: path, Err: err}
	}
	return nil
}

// File is a dictionary source bound to a path.
type File struct {
	path string
}

// NewFile creates a dictionary source for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// LoadDictionary reads the file on every call so reloads pick up edits.
func (f *File) LoadDictionary(_ context.Context) (*entity.Dictionary, error) {
	return Load(f.path)
}
