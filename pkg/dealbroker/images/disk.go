package images

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

// DiskUploader writes images below Dir; the server exposes Dir under
// URLPrefix.
type DiskUploader struct {
	Dir       string
	URLPrefix string
}

func NewDiskUploader(dir, urlPrefix string) *DiskUploader {
	return &DiskUploader{Dir: dir, URLPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

func (u *DiskUploader) Upload(ctx context.Context, kind dal.Kind, contentType string, body io.ReadSeeker) (string, error) {
	key, err := ObjectKey(kind, contentType)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", uploadErr(key, err)
	}
	dst := filepath.Join(u.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", uploadErr(key, err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", uploadErr(key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dst)
		return "", uploadErr(key, err)
	}
	if err := f.Close(); err != nil {
		return "", uploadErr(key, err)
	}
	return u.URLPrefix + "/" + key, nil
}
