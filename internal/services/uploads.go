package services

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"wedmarket/internal/domain"
	applog "wedmarket/internal/log"
	"wedmarket/internal/retry"
	"wedmarket/internal/storage"
)

// MaxUploadBytes caps a single image.
const MaxUploadBytes = 10 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload is one image file received from a client.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Validate checks size and sniffed type, and fills ContentType from the bytes
// when the client sent none.
func (u *Upload) Validate() error {
	if len(u.Data) == 0 {
		return fmt.Errorf("%s: empty file: %w", u.Name, domain.ErrInvalidInput)
	}
	if len(u.Data) > MaxUploadBytes {
		return fmt.Errorf("%s: larger than 10MB: %w", u.Name, domain.ErrInvalidInput)
	}
	sniffed := http.DetectContentType(u.Data)
	if _, ok := allowedImageTypes[sniffed]; !ok {
		return fmt.Errorf("%s: type %s not allowed: %w", u.Name, sniffed, domain.ErrInvalidInput)
	}
	u.ContentType = sniffed
	return nil
}

func (u Upload) ext() string {
	if e := strings.ToLower(path.Ext(u.Name)); e != "" && len(e) <= 5 {
		return e
	}
	if e, ok := allowedImageTypes[u.ContentType]; ok {
		return e
	}
	return ".bin"
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// safeName keeps original file names usable as object path segments.
func safeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "image"
	}
	if len(name) > 80 {
		name = name[len(name)-80:]
	}
	return name
}

func shortRand() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] }

// uploadAll stores files under the names produced by name, retrying each per
// policy. Files that still fail are logged and skipped.
func uploadAll(ctx context.Context, store storage.ObjectStore, policy retry.Policy, files []Upload, name func(i int, f Upload) string) []domain.ImageRef {
	var out []domain.ImageRef
	for i, f := range files {
		p := name(i, f)
		err := retry.Do(ctx, policy, func(ctx context.Context) error {
			return store.Upload(ctx, p, f.Data, f.ContentType)
		})
		if err != nil {
			applog.Warn(nil, "storage.upload.fail", err, map[string]any{"path": p, "name": f.Name})
			continue
		}
		out = append(out, domain.ImageRef{URL: store.PublicURL(p), Path: p, OriginalName: f.Name})
	}
	return out
}

// removeObjects deletes each path with retries and returns the ones that
// could not be removed. Failures are logged, never returned as errors.
func removeObjects(ctx context.Context, store storage.ObjectStore, policy retry.Policy, action string, paths []string) []string {
	var failed []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := retry.Do(ctx, policy, func(ctx context.Context) error { return store.Remove(ctx, p) })
		if err != nil {
			applog.Warn(nil, action, err, map[string]any{"path": p})
			failed = append(failed, p)
		}
	}
	return failed
}
