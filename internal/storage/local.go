package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore keeps objects under Root/<bucket>. The HTTP server exposes Root
// at BaseURL, so public URLs are BaseURL/<bucket>/<path>.
type LocalStore struct {
	root    string
	bucket  string
	baseURL string
}

func NewLocalStore(root, bucket, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(root, bucket), 0o755); err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	return &LocalStore{root: root, bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStore) Bucket() string { return s.bucket }

func (s *LocalStore) file(p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, s.bucket, filepath.FromSlash(clean)), nil
}

func (s *LocalStore) Upload(ctx context.Context, p string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := s.file(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f), 0o755); err != nil {
		return fmt.Errorf("local upload %s: %w", p, err)
	}
	if err := os.WriteFile(f, data, 0o644); err != nil {
		return fmt.Errorf("local upload %s: %w", p, err)
	}
	return nil
}

func (s *LocalStore) Copy(ctx context.Context, src, dst string) error {
	data, ct, err := s.Download(ctx, src)
	if err != nil {
		return err
	}
	return s.Upload(ctx, dst, data, ct)
}

func (s *LocalStore) Download(ctx context.Context, p string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	f, err := s.file(p)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(f)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("local download %s: %w", p, ErrObjectNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("local download %s: %w", p, err)
	}
	ct := mime.TypeByExtension(path.Ext(p))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return data, ct, nil
}

// Remove deletes every path it can and reports the failures together.
// Missing files are not failures.
func (s *LocalStore) Remove(ctx context.Context, paths ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var errs []error
	for _, p := range paths {
		f, err := s.file(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("local remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (s *LocalStore) PublicURL(p string) string {
	return s.baseURL + "/" + s.bucket + "/" + strings.TrimPrefix(p, "/")
}

func (s *LocalStore) List(ctx context.Context, folder, filter string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, s.bucket)
	if folder != "" {
		clean, err := cleanPath(folder)
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(dir, filepath.FromSlash(clean))
		folder = clean
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("local list %s: %w", folder, err)
	}
	var out []Object
	for _, e := range entries {
		if e.IsDir() || (filter != "" && !strings.Contains(e.Name(), filter)) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Object{
			Path:        path.Join(folder, e.Name()),
			Size:        info.Size(),
			ContentType: mime.TypeByExtension(path.Ext(e.Name())),
		})
	}
	return out, nil
}
