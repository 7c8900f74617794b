package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyToTemp downloads key into a temporary file and returns its path.
// The caller removes the file with the returned cleanup func.
func CopyToTemp(ctx context.Context, s Store, key string) (path string, cleanup func(), err error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	f, err := os.CreateTemp("", "upload-*"+filepath.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("temp file: %w", err)
	}
	cleanup = func() { _ = os.Remove(f.Name()) }

	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("copy %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}
