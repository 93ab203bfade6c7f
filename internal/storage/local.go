package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalConfig configures filesystem storage.
type LocalConfig struct {
	Dir     string
	BaseURL string // URL prefix the files are served under, e.g. "/images"
}

// Local stores objects under a directory and serves them over HTTP.
type Local struct {
	basePath string
	baseURL  string
}

// NewLocal creates the base directory if needed.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("local storage: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir: %w", err)
	}
	abs, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	return &Local{basePath: abs, baseURL: strings.TrimSuffix(cfg.BaseURL, "/")}, nil
}

// fullPath maps a key into basePath; keys escaping it collapse to basePath.
func (s *Local) fullPath(key string) string {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) || filepath.IsAbs(clean) {
		clean = ""
	}
	return filepath.Join(s.basePath, clean)
}

// Write stores content atomically via a temp file and rename.
func (s *Local) Write(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	path := s.fullPath(key)
	if path == s.basePath {
		return fmt.Errorf("invalid key %q", key)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	ok = true
	return nil
}

// DeletePrefix removes a directory prefix, or files in its parent whose names
// start with the last key segment.
func (s *Local) DeletePrefix(_ context.Context, prefix string) error {
	path := s.fullPath(prefix)
	if path == s.basePath {
		return fmt.Errorf("refusing to delete storage root")
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("remove dir: %w", err)
		}
		return nil
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("stat prefix: %w", err)
	}

	dir, base := filepath.Dir(path), filepath.Base(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), base) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// URL joins the base URL and key.
func (s *Local) URL(key string) string {
	return s.baseURL + "/" + strings.TrimPrefix(key, "/")
}

// HealthCheck verifies the base directory is still present.
func (s *Local) HealthCheck(_ context.Context) error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return fmt.Errorf("stat base dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.basePath)
	}
	return nil
}

// Handler serves stored files; mount it under BaseURL with http.StripPrefix.
func (s *Local) Handler() http.Handler {
	return http.FileServer(http.Dir(s.basePath))
}
