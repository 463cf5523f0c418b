package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBlobStore keeps chunk blobs as plain files under a root directory.
// Paths are relative and validated so a stored path can never escape the
// root.
type FileBlobStore struct {
	root string
}

func NewFileBlobStore(root string) (*FileBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &FileBlobStore{root: root}, nil
}

func (f *FileBlobStore) Put(_ context.Context, path string, data []byte) error {
	full, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", path, err)
	}
	return nil
}

func (f *FileBlobStore) Get(_ context.Context, path string) ([]byte, error) {
	full, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}

// DeletePrefix removes every blob under the given directory prefix.
// Deleting a prefix that was never written is not an error.
func (f *FileBlobStore) DeletePrefix(_ context.Context, prefix string) error {
	full, err := f.resolve(prefix)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("failed to delete blobs under %s: %w", prefix, err)
	}
	return nil
}

func (f *FileBlobStore) resolve(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return filepath.Join(f.root, clean), nil
}
