package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/campusnav/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds embedded store parameters.
type Config struct {
	// Path is the data directory; ignored when InMemory is set.
	Path     string
	InMemory bool
}

// Store implements db.Store on an embedded BadgerDB.
type Store struct {
	db *badger.DB
}

// zapAdapter adapts zap to the badger.Logger interface.
type zapAdapter struct {
	log *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, args ...any)   { a.log.Errorf(strings.TrimSpace(msg), args...) }
func (a *zapAdapter) Warningf(msg string, args ...any) { a.log.Warnf(strings.TrimSpace(msg), args...) }
func (a *zapAdapter) Infof(msg string, args ...any)    { a.log.Debugf(strings.TrimSpace(msg), args...) }
func (a *zapAdapter) Debugf(msg string, args ...any)   { a.log.Debugf(strings.TrimSpace(msg), args...) }

// Open opens (creating if needed) a Badger database.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = &zapAdapter{log: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: bdb}, nil
}

// Ping reports an error once the database is closed.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: errors.New("database closed")}
	}
	return nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() {
	if s.db.IsClosed() {
		return
	}
	_ = s.db.Close()
}

// WaitForReady returns immediately: an opened embedded store is ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// GetMulti reads several keys in one read transaction; missing keys yield nil entries.
func (s *Store) GetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]byte, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("key %s: %w", key, err)
			}
			if out[i], err = item.ValueCopy(nil); err != nil {
				return fmt.Errorf("key %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetNX stores a value only if the key is absent. Concurrent writers to the
// same key surface as badger.ErrConflict.
func (s *Store) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	created := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		created = true
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return false, &db.Error{Op: db.OpSet, Err: err}
	}
	return created, nil
}

// Del deletes keys; absent keys are ignored.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// CompareAndSwap sets key to next inside one transaction if it still holds prev.
// A concurrent commit to the same key counts as a lost race.
func (s *Store) CompareAndSwap(ctx context.Context, key string, prev, next []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	swapped := false
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		cur, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if !bytes.Equal(cur, prev) {
			return nil
		}
		swapped = true
		return txn.Set([]byte(key), next)
	})
	switch {
	case errors.Is(err, badger.ErrConflict):
		return false, nil
	case err != nil:
		return false, &db.Error{Op: db.OpCAS, Err: err}
	}
	return swapped, nil
}

// Scan returns keys matching a glob pattern (path.Match syntax), iterating
// only the literal prefix of the pattern.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	prefix := pattern
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		prefix = pattern[:i]
	}

	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if ok, _ := path.Match(pattern, key); ok {
				keys = append(keys, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}
