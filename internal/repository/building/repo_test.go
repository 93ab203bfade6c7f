package building

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/campusnav/internal/domain"
)

func TestCreateGet(t *testing.T) {
	ms := newMockStore()
	r := New(ms, "cn:")
	ctx := context.Background()
	b := newBuilding(t, "lib", "Central Library", 100)

	if err := r.Create(ctx, &b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := ms.data["cn:building:lib"]; !ok {
		t.Error("record key missing")
	}
	if string(ms.data["cn:building-slug:central-library"]) != "lib" {
		t.Error("slug index missing")
	}

	got, err := r.Get(ctx, "lib")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name() != "Central Library" || got.Slug() != "central-library" {
		t.Errorf("got %q %q", got.Name(), got.Slug())
	}
	if got.CreatedAt() != 100 || got.Revision() != 1 {
		t.Errorf("timestamps = %d %d", got.CreatedAt(), got.Revision())
	}
	if len(got.Entrances()) != 1 || !got.Entrances()[0].Accessible {
		t.Errorf("entrances = %+v", got.Entrances())
	}
	if got.Metadata()["floors"] != float64(2) {
		t.Errorf("metadata = %v", got.Metadata())
	}

	bySlug, err := r.GetBySlug(ctx, "central-library")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if bySlug.ID() != "lib" {
		t.Errorf("GetBySlug id = %q", bySlug.ID())
	}
}

func TestCreate_DuplicateID(t *testing.T) {
	r := New(newMockStore(), "")
	ctx := context.Background()
	b := newBuilding(t, "lib", "Central Library", 1)
	if err := r.Create(ctx, &b); err != nil {
		t.Fatal(err)
	}
	other := newBuilding(t, "lib", "Other Name", 2)
	if err := r.Create(ctx, &other); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestCreate_DuplicateSlugRollsBack(t *testing.T) {
	ms := newMockStore()
	r := New(ms, "")
	ctx := context.Background()
	b := newBuilding(t, "lib", "Central Library", 1)
	if err := r.Create(ctx, &b); err != nil {
		t.Fatal(err)
	}
	clash := newBuilding(t, "lib2", "Central Library", 2)
	if err := r.Create(ctx, &clash); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	if _, ok := ms.data["building:lib2"]; ok {
		t.Error("record not rolled back")
	}
}

func TestCreate_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.setNXFn = func(context.Context, string, []byte) (bool, error) { return false, errors.New("boom") }
	r := New(ms, "")
	b := newBuilding(t, "lib", "Central Library", 1)
	err := r.Create(context.Background(), &b)
	if err == nil || errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("err = %v, want store error", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	r := New(newMockStore(), "")
	if _, err := r.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrBuildingNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := r.GetBySlug(context.Background(), "nope"); !errors.Is(err, domain.ErrBuildingNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestList_Ordered(t *testing.T) {
	r := New(newMockStore(), "cn:")
	ctx := context.Background()
	for _, b := range []struct {
		id, name string
		at       int64
	}{
		{"c", "Gamma", 30},
		{"b", "Beta", 10},
		{"a", "Alpha", 10},
	} {
		bb := newBuilding(t, b.id, b.name, b.at)
		if err := r.Create(ctx, &bb); err != nil {
			t.Fatal(err)
		}
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(list) != len(want) {
		t.Fatalf("len = %d", len(list))
	}
	for i := range want {
		if list[i].ID() != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, list[i].ID(), want[i])
		}
	}
}

func TestList_ScanError(t *testing.T) {
	ms := newMockStore()
	ms.scanFn = func(context.Context, string) ([]string, error) { return nil, errors.New("down") }
	if _, err := New(ms, "").List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestUpdate_SlugChange(t *testing.T) {
	ms := newMockStore()
	r := New(ms, "")
	ctx := context.Background()
	b := newBuilding(t, "lib", "Central Library", 1)
	if err := r.Create(ctx, &b); err != nil {
		t.Fatal(err)
	}

	renamed := newBuilding(t, "lib", "Main Library", 1)
	renamed = renamed.WithTimestamps(2, 1, 2)
	if err := r.Update(ctx, &renamed, &b); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, ok := ms.data["building-slug:central-library"]; ok {
		t.Error("old slug not released")
	}
	got, err := r.GetBySlug(ctx, "main-library")
	if err != nil || got.Name() != "Main Library" {
		t.Fatalf("GetBySlug = %v, %v", got.Name(), err)
	}
}

func TestUpdate_SlugTaken(t *testing.T) {
	r := New(newMockStore(), "")
	ctx := context.Background()
	a := newBuilding(t, "a", "Alpha", 1)
	b := newBuilding(t, "b", "Beta", 1)
	_ = r.Create(ctx, &a)
	_ = r.Create(ctx, &b)

	clash := newBuilding(t, "b", "Alpha", 1)
	if err := r.Update(ctx, &clash, &b); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("err = %v", err)
	}
	got, _ := r.Get(ctx, "b")
	if got.Name() != "Beta" {
		t.Error("record overwritten despite slug clash")
	}
}

func TestUpdate_StaleRevision(t *testing.T) {
	ms := newMockStore()
	r := New(ms, "")
	ctx := context.Background()
	b := newBuilding(t, "lib", "Central Library", 1)
	_ = r.Create(ctx, &b)

	// Someone else already moved the record to revision 2.
	v2 := b.WithTimestamps(2, 1, 5)
	if err := r.Update(ctx, &v2, &b); err != nil {
		t.Fatal(err)
	}

	stale := newBuilding(t, "lib", "Main Library", 1)
	stale = stale.WithTimestamps(2, 1, 6)
	err := r.Update(ctx, &stale, &b)
	var rce *domain.RevisionConflictError
	if !errors.As(err, &rce) || rce.CurrentRevision != 2 {
		t.Fatalf("err = %v, want revision conflict at 2", err)
	}
	if _, ok := ms.data["building-slug:main-library"]; ok {
		t.Error("slug reserved by a rejected update")
	}
	got, _ := r.Get(ctx, "lib")
	if got.Name() != "Central Library" {
		t.Errorf("name = %q", got.Name())
	}
}

func TestUpdate_LostRace(t *testing.T) {
	ms := newMockStore()
	r := New(ms, "")
	ctx := context.Background()
	b := newBuilding(t, "lib", "Central Library", 1)
	_ = r.Create(ctx, &b)

	// A concurrent writer lands between the read and the swap.
	ms.casFn = func(_ context.Context, key string, _, _ []byte) (bool, error) {
		winner := b.WithTimestamps(3, 1, 9)
		data, err := Encode(&winner)
		if err != nil {
			return false, err
		}
		ms.mu.Lock()
		ms.data[key] = data
		ms.mu.Unlock()
		return false, nil
	}

	next := newBuilding(t, "lib", "Main Library", 1)
	next = next.WithTimestamps(2, 1, 2)
	err := r.Update(ctx, &next, &b)
	var rce *domain.RevisionConflictError
	if !errors.As(err, &rce) || rce.CurrentRevision != 3 {
		t.Fatalf("err = %v, want revision conflict at 3", err)
	}
	if _, ok := ms.data["building-slug:main-library"]; ok {
		t.Error("new slug not released after lost race")
	}
	if string(ms.data["building-slug:central-library"]) != "lib" {
		t.Error("old slug dropped")
	}
}

func TestUpdate_Missing(t *testing.T) {
	r := New(newMockStore(), "")
	ghost := newBuilding(t, "ghost", "Ghost Hall", 1)
	if err := r.Update(context.Background(), &ghost, &ghost); !errors.Is(err, domain.ErrBuildingNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestList_DuplicateScanKeys(t *testing.T) {
	ms := newMockStore()
	r := New(ms, "")
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		bb := newBuilding(t, id, "Hall "+id, 1)
		if err := r.Create(ctx, &bb); err != nil {
			t.Fatal(err)
		}
	}
	ms.scanFn = func(context.Context, string) ([]string, error) {
		return []string{"building:b", "building:a", "building:b", "building:a"}, nil
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
}

func TestDelete(t *testing.T) {
	ms := newMockStore()
	r := New(ms, "")
	ctx := context.Background()
	b := newBuilding(t, "lib", "Central Library", 1)
	_ = r.Create(ctx, &b)

	if err := r.Delete(ctx, "lib"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(ms.data) != 0 {
		t.Errorf("leftover keys: %v", ms.data)
	}
	if err := r.Delete(ctx, "lib"); !errors.Is(err, domain.ErrBuildingNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestDeleteAll(t *testing.T) {
	ms := newMockStore()
	r := New(ms, "cn:")
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		b := newBuilding(t, id, "Name "+id, 1)
		_ = r.Create(ctx, &b)
	}
	ms.data["other:key"] = []byte("keep")

	n, err := r.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
	if len(ms.data) != 1 {
		t.Errorf("data = %v, want only other:key", ms.data)
	}
}
