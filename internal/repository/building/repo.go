package building

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/kailas-cloud/campusnav/internal/db"
	"github.com/kailas-cloud/campusnav/internal/domain"
	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
)

// store is the consumer interface for buildings (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	CompareAndSwap(ctx context.Context, key string, prev, next []byte) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/building.Repository on a key-value store.
// Records live under {prefix}building:{id}; {prefix}building-slug:{slug} maps slugs to ids.
type Repo struct {
	store  store
	prefix string
}

// New creates a building repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Create stores a new building, reserving its id and slug.
func (r *Repo) Create(ctx context.Context, b *dombuilding.Building) error {
	data, err := Encode(b)
	if err != nil {
		return err
	}

	key := r.key(b.ID())
	ok, err := r.store.SetNX(ctx, key, data)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("building %q: %w", b.ID(), domain.ErrAlreadyExists)
	}

	if err := r.reserveSlug(ctx, b.Slug(), b.ID()); err != nil {
		if delErr := r.store.Del(ctx, key); delErr != nil {
			return errors.Join(err, fmt.Errorf("rollback %s: %w", key, delErr))
		}
		return err
	}
	return nil
}

// Get returns a building by ID.
func (r *Repo) Get(ctx context.Context, id string) (dombuilding.Building, error) {
	key := r.key(id)
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dombuilding.Building{}, domain.ErrBuildingNotFound
		}
		return dombuilding.Building{}, fmt.Errorf("get %s: %w", key, err)
	}
	return Decode(data)
}

// GetBySlug resolves the slug index and returns the building.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (dombuilding.Building, error) {
	key := r.slugKey(slug)
	id, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dombuilding.Building{}, domain.ErrBuildingNotFound
		}
		return dombuilding.Building{}, fmt.Errorf("get %s: %w", key, err)
	}
	return r.Get(ctx, string(id))
}

// List returns every building ordered by creation time, then id.
func (r *Repo) List(ctx context.Context) ([]dombuilding.Building, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"building:*")
	if err != nil {
		return nil, fmt.Errorf("scan buildings: %w", err)
	}
	// SCAN may return a key more than once.
	slices.Sort(keys)
	keys = slices.Compact(keys)

	values, err := r.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load buildings: %w", err)
	}

	out := make([]dombuilding.Building, 0, len(values))
	for i, data := range values {
		// Deleted between SCAN and GET.
		if data == nil {
			continue
		}
		b, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b dombuilding.Building) int {
		return cmp.Or(cmp.Compare(a.CreatedAt(), b.CreatedAt()), cmp.Compare(a.ID(), b.ID()))
	})
	return out, nil
}

// Update replaces prev with b. The write is a compare-and-swap against the
// stored bytes, so a record changed since prev was read fails with a
// domain.RevisionConflictError instead of being overwritten. A slug change
// reserves the new slug first and releases the old one after the swap.
func (r *Repo) Update(ctx context.Context, b, prev *dombuilding.Building) error {
	data, err := Encode(b)
	if err != nil {
		return err
	}

	key := r.key(b.ID())
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrBuildingNotFound
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	stored, err := Decode(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	if stored.Revision() != prev.Revision() {
		return domain.NewRevisionConflict(stored.Revision())
	}

	slugChanged := stored.Slug() != b.Slug()
	if slugChanged {
		if err := r.reserveSlug(ctx, b.Slug(), b.ID()); err != nil {
			return err
		}
	}

	swapped, err := r.store.CompareAndSwap(ctx, key, raw, data)
	switch {
	case err != nil:
		err = fmt.Errorf("swap %s: %w", key, err)
	case !swapped:
		err = r.lostRace(ctx, b.ID())
	}
	if err != nil {
		if slugChanged {
			if delErr := r.store.Del(ctx, r.slugKey(b.Slug())); delErr != nil {
				return errors.Join(err, fmt.Errorf("release slug %s: %w", b.Slug(), delErr))
			}
		}
		return err
	}

	if slugChanged {
		if err := r.store.Del(ctx, r.slugKey(stored.Slug())); err != nil {
			return fmt.Errorf("release slug %s: %w", stored.Slug(), err)
		}
	}
	return nil
}

// lostRace reports why a swap on id did not apply.
func (r *Repo) lostRace(ctx context.Context, id string) error {
	cur, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return domain.NewRevisionConflict(cur.Revision())
}

// Delete removes a building and its slug mapping.
func (r *Repo) Delete(ctx context.Context, id string) error {
	b, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, r.key(id), r.slugKey(b.Slug())); err != nil {
		return fmt.Errorf("delete building %s: %w", id, err)
	}
	return nil
}

// DeleteAll removes every building and slug mapping, returning the number of buildings removed.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"building:*")
	if err != nil {
		return 0, fmt.Errorf("scan buildings: %w", err)
	}
	slugs, err := r.store.Scan(ctx, r.prefix+"building-slug:*")
	if err != nil {
		return 0, fmt.Errorf("scan slugs: %w", err)
	}
	if err := r.store.Del(ctx, append(keys, slugs...)...); err != nil {
		return 0, fmt.Errorf("delete buildings: %w", err)
	}
	return len(keys), nil
}

func (r *Repo) reserveSlug(ctx context.Context, slug, id string) error {
	key := r.slugKey(slug)
	ok, err := r.store.SetNX(ctx, key, []byte(id))
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("slug %q: %w", slug, domain.ErrAlreadyExists)
	}
	return nil
}

func (r *Repo) key(id string) string      { return r.prefix + "building:" + id }
func (r *Repo) slugKey(slug string) string { return r.prefix + "building-slug:" + slug }
