package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yigit/internportal/internal/pkg/logger"
)

// ErrInvalidSignature is returned for a tampered, expired or mismatched download token
var ErrInvalidSignature = errors.New("invalid or expired signature")

// LocalStorage handles saving files to the local filesystem.
// Signed URLs point back at this server's /storage route.
type LocalStorage struct {
	basePath   string // root directory, one subdirectory per bucket
	bucket     string
	baseURL    string // public URL of this server
	signingKey []byte
}

type downloadClaims struct {
	Key string `json:"key"`
	jwt.RegisteredClaims
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(basePath, bucket, baseURL, signingKey string) (*LocalStorage, error) {
	root := filepath.Join(basePath, bucket)
	if err := os.MkdirAll(root, 0o755); err != nil {
		logger.Error().Err(err).Str("path", root).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", root, err)
	}
	logger.Info().Str("path", root).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath:   basePath,
		bucket:     bucket,
		baseURL:    strings.TrimRight(baseURL, "/"),
		signingKey: []byte(signingKey),
	}, nil
}

// Put writes the object to disk
func (ls *LocalStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	dstPath, err := ls.GetFullPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create subdirectory")
		return fmt.Errorf("failed to create subdirectory: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, body); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		// Attempt to remove the partially created file
		_ = os.Remove(dstPath)
		return fmt.Errorf("failed to save file content: %w", err)
	}

	logger.Debug().Str("key", key).Msg("File saved successfully")
	return nil
}

// Delete removes a file from the storage filesystem.
// Returns nil if deletion is successful or if the file doesn't exist.
func (ls *LocalStorage) Delete(_ context.Context, key string) error {
	physicalPath, err := ls.GetFullPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(physicalPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Debug().Str("key", key).Msg("File deleted successfully")
	return nil
}

// SignedURL issues a download link carrying an HS256 token bound to key
func (ls *LocalStorage) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if _, err := ls.GetFullPath(key); err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}

	now := time.Now()
	claims := downloadClaims{
		Key: key,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ls.bucket,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ls.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign download token: %w", err)
	}

	return fmt.Sprintf("%s/storage/%s/%s?token=%s", ls.baseURL, ls.bucket, escapeKey(key), url.QueryEscape(token)), nil
}

// VerifyToken checks a download token against the requested key
func (ls *LocalStorage) VerifyToken(key, token string) error {
	claims := &downloadClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ls.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidSignature
	}
	if claims.Key != key || claims.Subject != ls.bucket {
		return ErrInvalidSignature
	}
	return nil
}

// Bucket returns the bucket name served by this store
func (ls *LocalStorage) Bucket() string {
	return ls.bucket
}

// GetFullPath returns the full filesystem path for a key, refusing keys that
// would escape the bucket directory.
func (ls *LocalStorage) GetFullPath(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(ls.basePath, ls.bucket, clean), nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
