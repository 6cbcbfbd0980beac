package profilestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/reelsearch/internal/domain/entity"
	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestJSONFile_LoadMissingIsEmpty(t *testing.T) {
	f := NewJSONFile(filepath.Join(t.TempDir(), "absent.json"))
	ps, err := f.LoadProfiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestJSONFile_LoadArrayAndWrapper(t *testing.T) {
	dir := t.TempDir()
	arr := writeFile(t, dir, "a.json", `[{"slug":"a","name":"Ann"}, "junk", {"slug":"b","name":"Bea","cup":"C"}]`)
	wrapped := writeFile(t, dir, "b.json", `{"casts":[{"slug":"c","name":"Cy"}]}`)

	ps, err := NewJSONFile(arr).LoadProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "C", ps[1].Attr(domprofile.AttrCup))

	ps, err = NewJSONFile(wrapped).LoadProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "c", ps[0].Slug)
}

func TestJSONFile_LoadMalformedIsLoadError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{not json`)

	_, err := NewJSONFile(path).LoadProfiles(context.Background())
	require.Error(t, err)
	var le *entity.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.Source)
}

func TestJSONFile_SaveSortsAndRoundTrips(t *testing.T) {
	f := NewJSONFile(filepath.Join(t.TempDir(), "db.json"))
	in := []domprofile.Profile{
		{Slug: "z", Name: "Zoe"},
		{Slug: "a", Name: "Amy", Attributes: map[string]string{"height": "160"}},
	}
	require.NoError(t, f.SaveProfiles(context.Background(), in))

	out, err := f.LoadProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Amy", out[0].Name)
	assert.Equal(t, "Zoe", out[1].Name)
	assert.Equal(t, "160", out[0].Attr(domprofile.AttrHeight))
	// input order untouched
	assert.Equal(t, "z", in[0].Slug)
}

func TestJSONFile_Backup(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "db.json", `[{"slug":"a"}]`)

	backup, err := NewJSONFile(path).Backup()
	require.NoError(t, err)
	assert.Equal(t, path+".bak", backup)
	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"slug":"a"}]`, string(data))

	backup, err = NewJSONFile(filepath.Join(dir, "none.json")).Backup()
	require.NoError(t, err)
	assert.Empty(t, backup)
}

func TestLoadJSONLines(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "scrape.jsonl", "{\"slug\":\"a\",\"cup\":\"D\"}\n\n{\"slug\":\"b\"}\n")
	bad := writeFile(t, dir, "bad.jsonl", "{\"slug\":\"a\"}\n{oops\n")

	ps, err := LoadJSONLines(good)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "D", ps[0].Attr(domprofile.AttrCup))

	_, err = LoadJSONLines(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.jsonl:2")
}
