package filestorage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// DefaultSignedURLTTL is the validity window of certificate download links
const DefaultSignedURLTTL = time.Hour

// ObjectStore defines the operations on the certificates bucket
type ObjectStore interface {
	// Put stores body under key
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// SignedURL returns a time-limited download URL for key
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ObjectKey builds the storage path of a certificate:
// {student_id}/{application_id}-{unix_millis}.{ext}
func ObjectKey(studentID, applicationID uuid.UUID, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%s-%d.%s", studentID, applicationID, at.UnixMilli(), ext)
}
