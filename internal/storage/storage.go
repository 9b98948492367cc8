// Package storage is the object store holding product images. Each store
// instance is bound to one bucket.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

var (
	// ErrCopyUnsupported is returned by backends without server-side copy.
	ErrCopyUnsupported = errors.New("storage: copy unsupported")
	ErrObjectNotFound  = errors.New("storage: object not found")
)

type Object struct {
	Path        string
	Size        int64
	ContentType string
}

type ObjectStore interface {
	Bucket() string
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	// Copy duplicates src to dst inside the bucket. Callers must be ready for
	// ErrCopyUnsupported.
	Copy(ctx context.Context, src, dst string) error
	Download(ctx context.Context, path string) ([]byte, string, error)
	Remove(ctx context.Context, paths ...string) error
	PublicURL(path string) string
	// List returns objects directly under folder whose name contains filter.
	List(ctx context.Context, folder, filter string) ([]Object, error)
}

// Exists looks the object up through List.
func Exists(ctx context.Context, s ObjectStore, p string) (bool, error) {
	dir, name := path.Split(p)
	objs, err := s.List(ctx, strings.TrimSuffix(dir, "/"), name)
	if err != nil {
		return false, err
	}
	for _, o := range objs {
		if o.Path == p {
			return true, nil
		}
	}
	return false, nil
}

// PathFromURL recovers the object path from a public URL issued by s, or
// from any URL containing "/<bucket>/". It returns "" when neither matches.
func PathFromURL(s ObjectStore, url string) string {
	if base := s.PublicURL(""); base != "" && strings.HasPrefix(url, base) {
		return strings.TrimPrefix(url[len(base):], "/")
	}
	marker := "/" + s.Bucket() + "/"
	if i := strings.Index(url, marker); i >= 0 {
		p := url[i+len(marker):]
		if j := strings.IndexAny(p, "?#"); j >= 0 {
			p = p[:j]
		}
		return p
	}
	return ""
}

// cleanPath rejects absolute and parent-relative object paths.
func cleanPath(p string) (string, error) {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" || strings.Contains(p, "..") || strings.ContainsRune(p, 0) {
		return "", errors.New("storage: invalid path")
	}
	return p, nil
}

type timed struct {
	ObjectStore
	d time.Duration
}

// WithTimeout bounds every remote call of s by d.
func WithTimeout(s ObjectStore, d time.Duration) ObjectStore {
	if d <= 0 {
		return s
	}
	return &timed{ObjectStore: s, d: d}
}

func (t *timed) Upload(ctx context.Context, p string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.ObjectStore.Upload(ctx, p, data, contentType)
}

func (t *timed) Copy(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.ObjectStore.Copy(ctx, src, dst)
}

func (t *timed) Download(ctx context.Context, p string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.ObjectStore.Download(ctx, p)
}

func (t *timed) Remove(ctx context.Context, paths ...string) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.ObjectStore.Remove(ctx, paths...)
}

func (t *timed) List(ctx context.Context, folder, filter string) ([]Object, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.ObjectStore.List(ctx, folder, filter)
}
