package profilestore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchReader_FileOrderPreserved(t *testing.T) {
	dir := t.TempDir()
	for i := 9; i >= 0; i-- {
		writeFile(t, dir, fmt.Sprintf("batch_%02d.json", i),
			fmt.Sprintf(`[{"slug":"s%d","name":"N%d"}]`, i, i))
	}
	writeFile(t, dir, "batch_99.json", `{broken`)

	r := NewBatchReader(filepath.Join(dir, "batch_*.json"), 4, nil)
	ps, err := r.LoadProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 10)
	for i, p := range ps {
		assert.Equal(t, fmt.Sprintf("s%d", i), p.Slug)
	}
}

func TestBatchReader_NoGlob(t *testing.T) {
	ps, err := NewBatchReader("", 0, nil).LoadProfiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestBatchReader_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "batch_1.json", `[{"slug":"a"}]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBatchReader(filepath.Join(dir, "*.json"), 1, nil).LoadProfiles(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
