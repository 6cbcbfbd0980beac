package catalog

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	domcat "github.com/kailas-cloud/reelsearch/internal/domain/catalog"
)

const releaseDateLayout = "2006-01-02"

// toRecord converts flat hash fields into a Record. Unparseable dates and
// durations are treated as unknown; a malformed vector is an error.
func toRecord(f map[string]string) (domcat.Record, error) {
	rec := domcat.Record{
		ID:          f[FieldID],
		Title:       f[FieldTitle],
		NativeTitle: f[FieldNativeTitle],
		ImageURL:    f[FieldImageURL],
		EntityNames: splitEntities(f[FieldEntities]),
	}

	if d := strings.TrimSpace(f[FieldReleaseDate]); d != "" {
		if t, err := time.Parse(releaseDateLayout, d); err == nil {
			rec.ReleaseDate = t
		}
	}
	if d := strings.TrimSpace(f[FieldDuration]); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			rec.DurationMinutes = n
		}
	}
	if v, ok := f[FieldVector]; ok && v != "" {
		vec, err := bytesToVector([]byte(v))
		if err != nil {
			return domcat.Record{}, err
		}
		rec.Embedding = vec
	}
	return rec, nil
}

// splitEntities reads the comma-separated TAG field.
func splitEntities(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// bytesToVector decodes a little-endian FLOAT32 blob.
func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
