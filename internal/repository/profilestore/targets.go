package profilestore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
)

// BatchLimit caps the number of slugs in one download request.
const BatchLimit = 500

// LoadTargets reads the master list of slugs to collect. The file is either a JSON
// array of slugs (strings or objects with "slug") or plain text, one slug per line.
func LoadTargets(path string) ([]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		out := make([]string, 0, len(items))
		for _, raw := range items {
			var s string
			if json.Unmarshal(raw, &s) == nil {
				out = appendSlug(out, s)
				continue
			}
			var obj struct {
				Slug string `json:"slug"`
			}
			if json.Unmarshal(raw, &obj) == nil {
				out = appendSlug(out, obj.Slug)
			}
		}
		return out, nil
	}

	var out []string
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	for sc.Scan() {
		out = appendSlug(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, nil
}

// NextRequest returns up to limit target slugs missing from the collected
// profiles, in target order, and the total number missing.
func NextRequest(targets []string, collected []domprofile.Profile, limit int) ([]string, int) {
	if limit <= 0 {
		limit = BatchLimit
	}
	have := make(map[string]struct{}, len(collected))
	for i := range collected {
		have[domprofile.NormalizeSlug(collected[i].Slug)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(targets))
	var missing []string
	for _, slug := range targets {
		if _, ok := have[slug]; ok {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		missing = append(missing, slug)
	}
	return missing[:min(limit, len(missing))], len(missing)
}

// WriteRequest stores a request slice as a JSON array of slugs.
func WriteRequest(path string, slugs []string) error {
	if slugs == nil {
		slugs = []string{}
	}
	return writeJSONAtomic(path, slugs)
}

func appendSlug(out []string, s string) []string {
	if s = domprofile.NormalizeSlug(s); s != "" {
		return append(out, s)
	}
	return out
}
