package filestorage

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/yigit/internportal/internal/pkg/apperrors"
)

// Accepted certificate media types
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeJPEG = "image/jpeg"
)

// DefaultMaxUploadBytes is the certificate size limit (10 MiB)
const DefaultMaxUploadBytes int64 = 10 << 20

var extensions = map[string]string{
	MediaTypePDF:  "pdf",
	MediaTypeJPEG: "jpg",
}

// Upload is a certificate file read into memory for validation
type Upload struct {
	Filename    string
	ContentType string // as declared by the client
	Data        []byte
}

// ValidateUpload checks size and media type and returns the canonical media
// type and key extension. The declared type, when present, must agree with
// the sniffed content.
func ValidateUpload(u Upload, maxBytes int64) (mediaType, ext string, err error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if len(u.Data) == 0 {
		return "", "", apperrors.NewValidationError("file", "certificate file is required")
	}
	if int64(len(u.Data)) > maxBytes {
		return "", "", fmt.Errorf("%w: %d bytes exceeds the %d byte limit", apperrors.ErrFileTooLarge, len(u.Data), maxBytes)
	}

	detected := mimetype.Detect(u.Data)
	switch {
	case detected.Is(MediaTypePDF):
		mediaType = MediaTypePDF
	case detected.Is(MediaTypeJPEG):
		mediaType = MediaTypeJPEG
	default:
		return "", "", fmt.Errorf("%w: %s, only PDF and JPEG are accepted", apperrors.ErrInvalidMediaType, detected.String())
	}

	if declared := normalizeMediaType(u.ContentType); declared != "" && declared != "application/octet-stream" && declared != mediaType {
		return "", "", fmt.Errorf("%w: declared %s but content is %s", apperrors.ErrInvalidMediaType, declared, mediaType)
	}

	return mediaType, extensions[mediaType], nil
}

func normalizeMediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	if mt == "image/jpg" || mt == "image/pjpeg" {
		return MediaTypeJPEG
	}
	return mt
}
