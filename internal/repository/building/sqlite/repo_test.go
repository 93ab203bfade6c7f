package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/campusnav/internal/domain"
	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/geo"
)

func openMemory(t *testing.T) *Repo {
	t.Helper()
	r, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func newBuilding(t *testing.T, id, name string, createdAt int64) dombuilding.Building {
	t.Helper()
	b, err := dombuilding.New(dombuilding.Attributes{
		ID:          id,
		Name:        name,
		Category:    "Academic",
		Coordinates: geo.Point{Latitude: 6.5, Longitude: 3.3},
		Keywords:    []string{"books"},
		Floors:      []dombuilding.Floor{{Number: "G", HasElevator: true}},
	})
	require.NoError(t, err)
	return b.WithTimestamps(1, createdAt, createdAt)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestCreateGet(t *testing.T) {
	r := openMemory(t)
	ctx := context.Background()
	b := newBuilding(t, "lib", "Central Library", 5)

	require.NoError(t, r.Create(ctx, &b))
	require.NoError(t, r.Ping(ctx))

	got, err := r.Get(ctx, "lib")
	require.NoError(t, err)
	assert.Equal(t, "Central Library", got.Name())
	assert.Equal(t, "Academic", got.Category())
	assert.Equal(t, int64(5), got.CreatedAt())
	require.Len(t, got.Floors(), 1)
	assert.True(t, got.Floors()[0].HasElevator)

	bySlug, err := r.GetBySlug(ctx, "central-library")
	require.NoError(t, err)
	assert.Equal(t, "lib", bySlug.ID())
}

func TestCreate_Duplicates(t *testing.T) {
	r := openMemory(t)
	ctx := context.Background()
	b := newBuilding(t, "lib", "Central Library", 1)
	require.NoError(t, r.Create(ctx, &b))

	sameID := newBuilding(t, "lib", "Elsewhere", 2)
	assert.ErrorIs(t, r.Create(ctx, &sameID), domain.ErrAlreadyExists)

	sameSlug := newBuilding(t, "lib2", "Central Library", 2)
	assert.ErrorIs(t, r.Create(ctx, &sameSlug), domain.ErrAlreadyExists)
}

func TestGet_NotFound(t *testing.T) {
	r := openMemory(t)
	_, err := r.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrBuildingNotFound)
	_, err = r.GetBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrBuildingNotFound)
}

func TestList_Ordered(t *testing.T) {
	r := openMemory(t)
	ctx := context.Background()
	c := newBuilding(t, "c", "Gamma", 30)
	b := newBuilding(t, "b", "Beta", 10)
	a := newBuilding(t, "a", "Alpha", 10)
	for _, x := range []*dombuilding.Building{&c, &b, &a} {
		require.NoError(t, r.Create(ctx, x))
	}

	list, err := r.List(ctx)
	require.NoError(t, err)
	ids := make([]string, len(list))
	for i := range list {
		ids[i] = list[i].ID()
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestUpdate(t *testing.T) {
	r := openMemory(t)
	ctx := context.Background()
	a := newBuilding(t, "a", "Alpha", 1)
	b := newBuilding(t, "b", "Beta", 1)
	require.NoError(t, r.Create(ctx, &a))
	require.NoError(t, r.Create(ctx, &b))

	renamed := newBuilding(t, "a", "Aleph", 1)
	renamed = renamed.WithTimestamps(2, 1, 9)
	require.NoError(t, r.Update(ctx, &renamed, &a))

	got, err := r.GetBySlug(ctx, "aleph")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Revision())

	clash := newBuilding(t, "a", "Beta", 1)
	assert.ErrorIs(t, r.Update(ctx, &clash, &renamed), domain.ErrAlreadyExists)

	ghost := newBuilding(t, "ghost", "Ghost", 1)
	assert.ErrorIs(t, r.Update(ctx, &ghost, &ghost), domain.ErrBuildingNotFound)
}

func TestUpdate_StaleRevision(t *testing.T) {
	r := openMemory(t)
	ctx := context.Background()
	a := newBuilding(t, "a", "Alpha", 1)
	require.NoError(t, r.Create(ctx, &a))

	first := a.WithTimestamps(2, 1, 5)
	require.NoError(t, r.Update(ctx, &first, &a))

	// Second writer read revision 1 as well.
	second := newBuilding(t, "a", "Aleph", 1)
	second = second.WithTimestamps(2, 1, 6)
	err := r.Update(ctx, &second, &a)
	var rce *domain.RevisionConflictError
	require.ErrorAs(t, err, &rce)
	assert.Equal(t, 2, rce.CurrentRevision)

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name())
}

func TestDelete(t *testing.T) {
	r := openMemory(t)
	ctx := context.Background()
	a := newBuilding(t, "a", "Alpha", 1)
	b := newBuilding(t, "b", "Beta", 1)
	require.NoError(t, r.Create(ctx, &a))
	require.NoError(t, r.Create(ctx, &b))

	require.NoError(t, r.Delete(ctx, "a"))
	assert.ErrorIs(t, r.Delete(ctx, "a"), domain.ErrBuildingNotFound)

	n, err := r.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
