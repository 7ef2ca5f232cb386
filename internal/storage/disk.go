// Package storage keeps uploaded images on local disk and serves them back
// under /uploads.
package storage

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"backend-milestomemories/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const URLPrefix = "/uploads/"

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

var errFileType = apperr.Validation("Invalid file type. Only JPEG, PNG, GIF, and WebP are allowed.")

type Disk struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewDisk creates dir if needed. Files larger than maxMB megabytes are
// refused.
func NewDisk(dir string, maxMB int) (*Disk, error) {
	if maxMB <= 0 {
		maxMB = 5
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &Disk{dir: dir, maxBytes: int64(maxMB) << 20, now: time.Now}, nil
}

func (d *Disk) MaxBytes() int64 {
	return d.maxBytes
}

// Check rejects files by declared type and size before anything is written.
func (d *Disk) Check(fh *multipart.FileHeader) error {
	if _, ok := allowedTypes[fh.Header.Get(fiber.HeaderContentType)]; !ok {
		return errFileType
	}
	if fh.Size > d.maxBytes {
		return apperr.Validation(fmt.Sprintf("File too large. Maximum size is %dMB.", d.maxBytes>>20))
	}
	return nil
}

// Save stores the upload under a unique name and returns its public URL.
func (d *Disk) Save(c *fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	if err := d.Check(fh); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d-%s%s", d.now().UnixMilli(), uuid.NewString(), strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveFile(fh, filepath.Join(d.dir, name)); err != nil {
		return "", apperr.Internal("Failed to save upload", err)
	}
	return URLPrefix + name, nil
}

// Remove deletes the file behind a URL returned by Save. Unknown URLs and
// missing files are ignored.
func (d *Disk) Remove(url string) {
	if !strings.HasPrefix(url, URLPrefix) {
		return
	}
	name := filepath.Base(url)
	if name == "." || name == "/" || name == ".." {
		return
	}
	if err := os.Remove(filepath.Join(d.dir, name)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("file", name).Msg("storage: remove failed")
	}
}

// Mount serves stored files at /uploads.
func (d *Disk) Mount(r fiber.Router) {
	r.Static(strings.TrimSuffix(URLPrefix, "/"), d.dir)
}
