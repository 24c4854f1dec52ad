// Package file persists records as one JSON document per key inside a
// state directory, so independent processes on the same machine share
// them. Writes go through a temp file and rename to stay whole-record
// atomic. The backend has no change-notification channel; cross-process
// visibility relies on the caller's polling fallback.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/batuhanyalcin/storefront/internal/keyval"
	"github.com/google/uuid"
)

type Store struct {
	dir    string
	origin string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir, origin: uuid.NewString()}, nil
}

func (s *Store) Origin() string { return s.origin }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, keyval.ErrNotFound
		}
		return nil, fmt.Errorf("read record %q: %w", key, err)
	}
	return b, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	dst := s.path(key)

	tmp, err := os.CreateTemp(s.dir, filename(key)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write record %q: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write record %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write record %q: %w", key, err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write record %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, filename(key)+".json")
}

func filename(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
