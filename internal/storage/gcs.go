package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore implements ObjectStore on Google Cloud Storage.
type GCSStore struct {
	client  *gcs.Client
	bucket  string
	baseURL string
}

// GCSStoreConfig holds configuration for GCSStore.
type GCSStoreConfig struct {
	Bucket        string
	PublicBaseURL string
}

// NewGCSStore uses application default credentials.
func NewGCSStore(ctx context.Context, cfg GCSStoreConfig) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		base = "https://storage.googleapis.com/" + cfg.Bucket
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, baseURL: base}, nil
}

func (s *GCSStore) Bucket() string { return s.bucket }

func (s *GCSStore) object(p string) (*gcs.ObjectHandle, error) {
	key, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	return s.client.Bucket(s.bucket).Object(key), nil
}

func (s *GCSStore) Upload(ctx context.Context, p string, data []byte, contentType string) error {
	obj, err := s.object(p)
	if err != nil {
		return err
	}
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close failed: %w", err)
	}
	return nil
}

func (s *GCSStore) Copy(ctx context.Context, src, dst string) error {
	from, err := s.object(src)
	if err != nil {
		return err
	}
	to, err := s.object(dst)
	if err != nil {
		return err
	}
	if _, err := to.CopierFrom(from).Run(ctx); err != nil {
		return fmt.Errorf("gcs copy failed: %w", err)
	}
	return nil
}

func (s *GCSStore) Download(ctx context.Context, p string) ([]byte, string, error) {
	obj, err := s.object(p)
	if err != nil {
		return nil, "", err
	}
	reader, err := obj.NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, "", fmt.Errorf("gcs get %s: %w", p, ErrObjectNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("gcs get failed: %w", err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("gcs read failed: %w", err)
	}
	return data, reader.Attrs.ContentType, nil
}

func (s *GCSStore) Remove(ctx context.Context, paths ...string) error {
	var errs []error
	for _, p := range paths {
		obj, err := s.object(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := obj.Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("gcs delete failed for %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (s *GCSStore) PublicURL(p string) string {
	return s.baseURL + "/" + strings.TrimPrefix(p, "/")
}

func (s *GCSStore) List(ctx context.Context, folder, filter string) ([]Object, error) {
	prefix := ""
	if folder != "" {
		clean, err := cleanPath(folder)
		if err != nil {
			return nil, err
		}
		prefix = clean + "/"
	}
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{Prefix: prefix, Delimiter: "/"})
	var out []Object
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list failed: %w", err)
		}
		if attrs.Name == "" { // synthetic prefix entry
			continue
		}
		if filter != "" && !strings.Contains(strings.TrimPrefix(attrs.Name, prefix), filter) {
			continue
		}
		out = append(out, Object{Path: attrs.Name, Size: attrs.Size, ContentType: attrs.ContentType})
	}
	return out, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
