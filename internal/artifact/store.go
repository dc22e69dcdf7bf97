// Package artifact moves report files between the jobs of a workflow run.
package artifact

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no artifact with the requested name exists
var ErrNotFound = errors.New("artifact not found")

// Store uploads and downloads named artifacts scoped to one workflow run
type Store interface {
	// Upload bundles files under name. Files are stored by base name.
	Upload(ctx context.Context, name string, files []string) error
	// Download retrieves name into the folder <dir>/<name> and returns that folder.
	Download(ctx context.Context, name, dir string) (string, error)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
