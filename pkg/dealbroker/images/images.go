// Package images stores listing pictures and returns their public URLs.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

// MaxSize caps a single upload.
const MaxSize = 10 << 20

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/avif": ".avif",
	"image/gif":  ".gif",
}

// Uploader persists an image and returns the URL clients should store as
// the listing's image_url.
type Uploader interface {
	Upload(ctx context.Context, kind dal.Kind, contentType string, body io.ReadSeeker) (string, error)
}

// Allowed reports whether contentType is an accepted image type.
func Allowed(contentType string) bool {
	_, ok := allowedTypes[normalizeType(contentType)]
	return ok
}

// ObjectKey names a stored image "<collection>/<uuid>.<ext>". The extension
// is derived from contentType only; client filenames are never used.
func ObjectKey(kind dal.Kind, contentType string) (string, error) {
	ext, ok := allowedTypes[normalizeType(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}
	return path.Join(kind.Collection(), strings.ReplaceAll(uuid.NewString(), "-", "")+ext), nil
}

// Sniff reports the content type of r from its first bytes and rewinds it.
// The type a client declares is not consulted.
func Sniff(r io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read image: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind image: %w", err)
	}
	head := buf[:n]
	// ISO BMFF brand; not every Go release sniffs AVIF
	if len(head) >= 12 && bytes.Equal(head[4:12], []byte("ftypavif")) {
		return "image/avif", nil
	}
	return http.DetectContentType(head), nil
}

func normalizeType(contentType string) string {
	t, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(t))
}

func uploadErr(key string, err error) error {
	return fmt.Errorf("upload %s: %w", key, err)
}
