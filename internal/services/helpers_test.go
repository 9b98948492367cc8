package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"wedmarket/internal/domain"
	"wedmarket/internal/repos"
	"wedmarket/internal/retry"
	"wedmarket/internal/services"
	"wedmarket/internal/storage"
)

// minimal PNG header; enough for content sniffing
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

var (
	fast    = retry.Policy{Attempts: 3}
	errDown = errors.New("backend unavailable")
)

func memdb(t *testing.T) *repos.DB {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func localStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	s, err := storage.NewLocalStore(t.TempDir(), "product-images", "http://localhost/media")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newCatalog(prods services.ProductStore, store storage.ObjectStore) *services.CatalogService {
	c := services.NewCatalogService(prods, store)
	c.Transfer = fast
	c.RowDelete = fast
	return c
}

// flakyStore fails selected object store calls.
type flakyStore struct {
	storage.ObjectStore

	mu            sync.Mutex
	copyErr       error
	downloadFails int // remaining failures; -1 fails forever
	uploadErr     error
	removeErr     error
	downloads     int
	removed       []string
}

func (f *flakyStore) Copy(ctx context.Context, src, dst string) error {
	if f.copyErr != nil {
		return f.copyErr
	}
	return f.ObjectStore.Copy(ctx, src, dst)
}

func (f *flakyStore) Download(ctx context.Context, p string) ([]byte, string, error) {
	f.mu.Lock()
	f.downloads++
	fail := f.downloadFails != 0
	if f.downloadFails > 0 {
		f.downloadFails--
	}
	f.mu.Unlock()
	if fail {
		return nil, "", errDown
	}
	return f.ObjectStore.Download(ctx, p)
}

func (f *flakyStore) Upload(ctx context.Context, p string, data []byte, ct string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	return f.ObjectStore.Upload(ctx, p, data, ct)
}

func (f *flakyStore) Remove(ctx context.Context, paths ...string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.mu.Lock()
	f.removed = append(f.removed, paths...)
	f.mu.Unlock()
	return f.ObjectStore.Remove(ctx, paths...)
}

// stubbornSubmissions acknowledges deletes without performing them.
type stubbornSubmissions struct {
	services.SubmissionStore
	deletes int
}

func (s *stubbornSubmissions) Delete(context.Context, string) error {
	s.deletes++
	return nil
}

// faultyProducts injects product store failures.
type faultyProducts struct {
	services.ProductStore

	insertErr  error
	deleteNoop bool
	softErr    error
	listFail   domain.Partition
}

func (f *faultyProducts) Insert(ctx context.Context, p domain.Partition, prod *domain.Product) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.ProductStore.Insert(ctx, p, prod)
}

func (f *faultyProducts) Delete(ctx context.Context, p domain.Partition, id string) error {
	if f.deleteNoop {
		return nil
	}
	return f.ProductStore.Delete(ctx, p, id)
}

func (f *faultyProducts) SoftDelete(ctx context.Context, p domain.Partition, id string) error {
	if f.softErr != nil {
		return f.softErr
	}
	return f.ProductStore.SoftDelete(ctx, p, id)
}

func (f *faultyProducts) List(ctx context.Context, p domain.Partition, limit int) ([]domain.Product, error) {
	if p == f.listFail {
		return nil, errDown
	}
	return f.ProductStore.List(ctx, p, limit)
}
