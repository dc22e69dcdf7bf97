package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore keeps artifacts in a directory. On hosted runners action.yml
// stages that directory with actions/upload-artifact and
// actions/download-artifact; self-hosted runners may share it directly.
type LocalStore struct {
	root string
}

// NewLocalStore creates a store under root/<runID>
func NewLocalStore(root, runID string) *LocalStore {
	return &LocalStore{root: filepath.Join(root, runID)}
}

// Upload copies files into the artifact folder, replacing a previous upload
func (s *LocalStore) Upload(ctx context.Context, name string, files []string) error {
	dest := filepath.Join(s.root, name)
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to reset artifact %s: %w", name, err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create artifact %s: %w", name, err)
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := copyFile(f, filepath.Join(dest, filepath.Base(f))); err != nil {
			return fmt.Errorf("failed to upload %s to artifact %s: %w", f, name, err)
		}
	}
	return nil
}

// Download copies the artifact folder to dir/name
func (s *LocalStore) Download(ctx context.Context, name, dir string) (string, error) {
	src := filepath.Join(s.root, name)
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", err
	}

	dest := filepath.Join(dir, name)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := copyFile(filepath.Join(src, entry.Name()), filepath.Join(dest, entry.Name())); err != nil {
			return "", fmt.Errorf("failed to download %s from artifact %s: %w", entry.Name(), name, err)
		}
	}
	return dest, nil
}
