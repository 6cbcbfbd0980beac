package snapshot

import (
	"context"

	"github.com/kailas-cloud/reelsearch/internal/domain/entity"
	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
)

type mockDictLoader struct {
	loadFn func(ctx context.Context) (*entity.Dictionary, error)
}

func (m *mockDictLoader) LoadDictionary(ctx context.Context) (*entity.Dictionary, error) {
	return m.loadFn(ctx)
}

type mockProfileLoader struct {
	loadFn func(ctx context.Context) ([]domprofile.Profile, error)
}

func (m *mockProfileLoader) LoadProfiles(ctx context.Context) ([]domprofile.Profile, error) {
	return m.loadFn(ctx)
}

type mockRebuilder struct {
	buildFn func(ctx context.Context) (*Snapshot, error)
	calls   int
}

func (m *mockRebuilder) Build(ctx context.Context) (*Snapshot, error) {
	m.calls++
	return m.buildFn(ctx)
}
