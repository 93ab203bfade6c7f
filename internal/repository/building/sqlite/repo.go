// Package sqlite stores buildings in a single SQLite table, one JSON document per row.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/kailas-cloud/campusnav/internal/domain"
	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	repobuilding "github.com/kailas-cloud/campusnav/internal/repository/building"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS buildings (
		id         TEXT PRIMARY KEY,
		slug       TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		category   TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		data       TEXT NOT NULL,
		revision   INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_buildings_created ON buildings(created_at, id)`,
}

// Repo implements usecase/building.Repository on SQLite.
type Repo struct {
	db *sqlx.DB
}

// Open connects to the database at dsn (a file path or ":memory:") and applies the schema.
func Open(ctx context.Context, dsn string) (*Repo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	conn, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	// One connection: SQLite serializes writers anyway and ":memory:" is per-connection.
	conn.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Repo{db: conn}, nil
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (r *Repo) Close() {
	_ = r.db.Close()
}

// Create inserts a building; id or slug collisions map to domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, b *dombuilding.Building) error {
	data, err := repobuilding.Encode(b)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO buildings (id, slug, name, category, department, data, revision, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID(), b.Slug(), b.Name(), b.Category(), b.Department(), string(data),
		b.Revision(), b.CreatedAt(), b.UpdatedAt(),
	)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("building %q: %w", b.ID(), domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert building %s: %w", b.ID(), err)
	}
	return nil
}

// Get returns a building by ID.
func (r *Repo) Get(ctx context.Context, id string) (dombuilding.Building, error) {
	return r.getOne(ctx, `SELECT data FROM buildings WHERE id = ?`, id)
}

// GetBySlug returns a building by slug.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (dombuilding.Building, error) {
	return r.getOne(ctx, `SELECT data FROM buildings WHERE slug = ?`, slug)
}

// List returns every building ordered by creation time, then id.
func (r *Repo) List(ctx context.Context) ([]dombuilding.Building, error) {
	var rows []string
	if err := r.db.SelectContext(ctx, &rows, `SELECT data FROM buildings ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("select buildings: %w", err)
	}
	out := make([]dombuilding.Building, 0, len(rows))
	for _, data := range rows {
		b, err := repobuilding.Decode([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Update replaces prev with b only while the row still carries prev's revision.
// The UNIQUE constraint guards slug changes.
func (r *Repo) Update(ctx context.Context, b, prev *dombuilding.Building) error {
	data, err := repobuilding.Encode(b)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE buildings
		 SET slug = ?, name = ?, category = ?, department = ?, data = ?, revision = ?, updated_at = ?
		 WHERE id = ? AND revision = ?`,
		b.Slug(), b.Name(), b.Category(), b.Department(), string(data), b.Revision(), b.UpdatedAt(),
		b.ID(), prev.Revision(),
	)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("slug %q: %w", b.Slug(), domain.ErrAlreadyExists)
		}
		return fmt.Errorf("update building %s: %w", b.ID(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var current int
	if err := r.db.GetContext(ctx, &current, `SELECT revision FROM buildings WHERE id = ?`, b.ID()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrBuildingNotFound
		}
		return fmt.Errorf("select revision: %w", err)
	}
	return domain.NewRevisionConflict(current)
}

// Delete removes a building.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM buildings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete building %s: %w", id, err)
	}
	return expectOne(res)
}

// DeleteAll removes every building.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM buildings`)
	if err != nil {
		return 0, fmt.Errorf("delete buildings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (r *Repo) getOne(ctx context.Context, query, arg string) (dombuilding.Building, error) {
	var data string
	if err := r.db.GetContext(ctx, &data, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dombuilding.Building{}, domain.ErrBuildingNotFound
		}
		return dombuilding.Building{}, fmt.Errorf("select building: %w", err)
	}
	return repobuilding.Decode([]byte(data))
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrBuildingNotFound
	}
	return nil
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}
