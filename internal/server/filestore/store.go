// Package filestore keeps uploaded client files in S3-compatible object
// storage (MinIO in development).
package filestore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the object storage used for document files.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// NewKey builds a unique storage key for a client's upload, keeping the
// original extension so the parser can pick an extraction strategy.
func NewKey(clientID int64, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("clients/%d/%d/%02d/%02d/%v%s", clientID, now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}
