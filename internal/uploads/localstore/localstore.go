package localstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kgellert/hodatay-groups/internal/uploads"
	uploadsdomain "github.com/kgellert/hodatay-groups/internal/uploads/domain"
)

// FilesPath is the route prefix the files handler is mounted on.
const FilesPath = "/files/"

// Store keeps blobs in a directory tree and hands out URLs served by the
// files handler.
type Store struct {
	root    string
	baseURL string
}

func New(root, baseURL string) (*Store, error) {
	const op = "uploads.localstore.New"

	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("%s: root is required", op)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Store) Put(ctx context.Context, r io.Reader, _ int64, contentType string) (string, error) {
	const op = "uploads.localstore.Put"

	if err := ctx.Err(); err != nil {
		return "", err
	}

	key, err := uploadsdomain.GenerateKey(contentType)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "put-*")
	if err != nil {
		return "", fmt.Errorf("%s: create temp: %w", op, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		cleanup()
		return "", fmt.Errorf("%s: copy: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("%s: close: %w", op, err)
	}

	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%s: mkdir: %w", op, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%s: rename: %w", op, err)
	}

	return key, nil
}

func (s *Store) URL(_ context.Context, key string) (string, error) {
	if err := uploadsdomain.ValidateKey(key); err != nil {
		return "", err
	}

	if _, err := os.Stat(s.path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("uploads.localstore.URL: %w", err)
	}

	return s.baseURL + FilesPath + key, nil
}

func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	if err := uploadsdomain.ValidateKey(key); err != nil {
		return nil, "", err
	}

	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", uploads.ErrBlobNotFound
		}
		return nil, "", fmt.Errorf("uploads.localstore.Open: %w", err)
	}

	return f, uploadsdomain.ContentTypeForKey(key), nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if err := uploadsdomain.ValidateKey(key); err != nil {
		return err
	}

	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("uploads.localstore.Delete: %w", err)
	}

	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}
