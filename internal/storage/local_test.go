package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) (*LocalStore, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewLocalStore(root, "product-images", "http://localhost:8080/media/")
	require.NoError(t, err)
	return s, root
}

func TestLocalStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t)

	require.NoError(t, s.Upload(ctx, "Product_requests/a.jpg", []byte("jpeg"), "image/jpeg"))
	data, ct, err := s.Download(ctx, "Product_requests/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.Equal(t, "image/jpeg", ct)

	require.NoError(t, s.Copy(ctx, "Product_requests/a.jpg", "products_cake/product_cake_1_0_a.jpg"))
	ok, err := Exists(ctx, s, "products_cake/product_cake_1_0_a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	objs, err := s.List(ctx, "Product_requests", "a.")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "Product_requests/a.jpg", objs[0].Path)
	assert.Equal(t, int64(4), objs[0].Size)

	require.NoError(t, s.Remove(ctx, "Product_requests/a.jpg", "Product_requests/missing.jpg"))
	ok, err = Exists(ctx, s, "Product_requests/a.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.Download(ctx, "Product_requests/a.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	objs, err = s.List(ctx, "never_created", "")
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestLocalStoreStaysInsideBucket(t *testing.T) {
	ctx := context.Background()
	s, root := newLocal(t)

	require.NoError(t, s.Upload(ctx, "../../escape.txt", []byte("x"), "text/plain"))
	_, err := os.Stat(filepath.Join(root, "product-images", "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(root), "escape.txt"))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, s.Upload(ctx, "bad\x00name", []byte("x"), ""))
	assert.Error(t, s.Upload(ctx, "", []byte("x"), ""))
}

func TestPathFromURL(t *testing.T) {
	s, _ := newLocal(t)

	url := s.PublicURL("products_mirr/x.png")
	assert.Equal(t, "http://localhost:8080/media/product-images/products_mirr/x.png", url)
	assert.Equal(t, "products_mirr/x.png", PathFromURL(s, url))

	// foreign host, same bucket marker
	assert.Equal(t, "Product_requests/y.jpg",
		PathFromURL(s, "https://cdn.example.com/storage/v1/object/public/product-images/Product_requests/y.jpg?token=1"))
	assert.Equal(t, "", PathFromURL(s, "https://elsewhere.example.com/img.jpg"))
}

func TestWithTimeoutPassesThrough(t *testing.T) {
	s, _ := newLocal(t)
	assert.Same(t, ObjectStore(s), WithTimeout(s, 0))

	w := WithTimeout(s, 1<<30)
	ctx := context.Background()
	require.NoError(t, w.Upload(ctx, "f/a.txt", []byte("hi"), "text/plain"))
	ok, err := Exists(ctx, w, "f/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}
