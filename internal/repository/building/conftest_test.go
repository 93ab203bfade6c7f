package building

import (
	"bytes"
	"context"
	"path"
	"sort"
	"sync"
	"testing"

	"github.com/kailas-cloud/campusnav/internal/db"
	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/geo"
)

// mockStore is a map-backed store; fn fields override individual calls.
type mockStore struct {
	mu   sync.Mutex
	data map[string][]byte

	setNXFn func(ctx context.Context, key string, value []byte) (bool, error)
	casFn   func(ctx context.Context, key string, prev, next []byte) (bool, error)
	scanFn  func(ctx context.Context, pattern string) ([]string, error)
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) GetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := m.Get(ctx, k)
		if err == nil {
			out[i] = v
		}
	}
	return out, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

func (m *mockStore) CompareAndSwap(ctx context.Context, key string, prev, next []byte) (bool, error) {
	if m.casFn != nil {
		return m.casFn(ctx, key, prev, next)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data[key]
	if !ok || !bytes.Equal(cur, prev) {
		return false, nil
	}
	m.data[key] = next
	return true, nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func newBuilding(t *testing.T, id, name string, createdAt int64) dombuilding.Building {
	t.Helper()
	b, err := dombuilding.New(dombuilding.Attributes{
		ID:          id,
		Name:        name,
		Coordinates: geo.Point{Latitude: 6.5, Longitude: 3.3},
		Keywords:    []string{"k"},
		Entrances:   []dombuilding.Entrance{{Name: "Main", Coordinates: geo.Point{Latitude: 6.5, Longitude: 3.3}, Accessible: true}},
		Metadata:    map[string]any{"floors": float64(2)},
	})
	if err != nil {
		t.Fatalf("new building: %v", err)
	}
	return b.WithTimestamps(1, createdAt, createdAt)
}
