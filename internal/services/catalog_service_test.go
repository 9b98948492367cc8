package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedmarket/internal/domain"
	"wedmarket/internal/repos"
	"wedmarket/internal/services"
	"wedmarket/internal/storage"
)

func newCatalogFixture(t *testing.T) (*services.CatalogService, *faultyProducts, *flakyStore) {
	t.Helper()
	prods := &faultyProducts{ProductStore: repos.NewProductRepo(memdb(t))}
	store := &flakyStore{ObjectStore: localStore(t)}
	return newCatalog(prods, store), prods, store
}

func TestCatalogAddFindSearch(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newCatalogFixture(t)

	clock := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	cake, err := svc.AddProduct(ctx, "cake", services.ProductInput{Title: "Lemon cake", Price: 40},
		[]services.Upload{{Name: "lemon.png", ContentType: "image/png", Data: pngBytes}})
	require.NoError(t, err)
	require.Len(t, cake.ImageURLs, 1)
	p := storage.PathFromURL(store, cake.PrimaryImage())
	assert.Regexp(t, `^products_cake/cake_product_\d+_[0-9a-f]{8}\.png$`, p)

	mirror, err := svc.AddProduct(ctx, "Mirror", services.ProductInput{Description: "Lemon-yellow frame", Colors: []string{"gold"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryMirr, mirror.Category)
	assert.Equal(t, "Lemon-yellow frame", mirror.Title, "description stands in for a missing title")
	assert.Nil(t, mirror.Colors)

	got, part, err := svc.GetProduct(ctx, mirror.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryMirr.Partition(), part)
	assert.Equal(t, mirror.ID, got.ID)

	_, _, err = svc.GetProduct(ctx, mirror.ID, "cake")
	assert.NoError(t, err, "a wrong category hint still finds the product")

	_, _, err = svc.GetProduct(ctx, "missing", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	hits := svc.Search(ctx, "lemon")
	assert.Len(t, hits, 2)
	assert.Len(t, svc.Search(ctx, "  "), 2, "blank query lists everything")
	assert.Empty(t, svc.Search(ctx, "tulip"))

	byCat, err := svc.ListByCategory(ctx, "cake")
	require.NoError(t, err)
	assert.Len(t, byCat, 1)
}

func TestCatalogAddRejectsEmptyAndUnstorable(t *testing.T) {
	ctx := context.Background()
	svc, prods, store := newCatalogFixture(t)

	_, err := svc.AddProduct(ctx, "cake", services.ProductInput{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	store.uploadErr = errDown
	_, err = svc.AddProduct(ctx, "cake", services.ProductInput{Title: "x"},
		[]services.Upload{{Name: "a.png", Data: pngBytes}})
	assert.ErrorIs(t, err, domain.ErrUploadFailed)

	store.uploadErr = nil
	prods.insertErr = errDown
	_, err = svc.AddProduct(ctx, "cake", services.ProductInput{Title: "x"},
		[]services.Upload{{Name: "a.png", Data: pngBytes}})
	assert.ErrorIs(t, err, domain.ErrCreateFailed)
	objs, lerr := store.List(ctx, "products_cake", "")
	require.NoError(t, lerr)
	assert.Empty(t, objs, "uploaded images are removed when the insert fails")
}

func TestCatalogListAllSkipsFailingPartition(t *testing.T) {
	ctx := context.Background()
	svc, prods, _ := newCatalogFixture(t)

	for i, c := range []string{"cake", "koshat", "invitations"} {
		require.NoError(t, prods.Insert(ctx, domain.Category(c).Partition(), &domain.Product{
			Title:     c,
			Category:  domain.Category(c),
			CreatedAt: domain.FormatTime(time.Date(2026, 1, 1, i, 0, 0, 0, time.UTC)),
		}))
	}
	prods.listFail = domain.CategoryKoshat.Partition()

	all := svc.ListAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "invitations", all[0].Title, "newest first across partitions")
	assert.Equal(t, "cake", all[1].Title)
}

func TestCatalogUpdateSwapsImages(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newCatalogFixture(t)

	prod, err := svc.AddProduct(ctx, "flowerbouquets", services.ProductInput{Title: "Tulips", Colors: []string{"red"}},
		[]services.Upload{{Name: "a.png", Data: pngBytes}, {Name: "b.png", Data: pngBytes}})
	require.NoError(t, err)
	require.Len(t, prod.ImageURLs, 2)
	drop := prod.ImageURLs[0]

	upd, err := svc.UpdateProduct(ctx, prod.ID, "flowerbouquets",
		services.ProductInput{Title: "Red tulips", Colors: []string{"red", "white"}},
		[]services.Upload{{Name: "c.png", Data: pngBytes}}, []string{drop})
	require.NoError(t, err)
	assert.Equal(t, "Red tulips", upd.Title)
	assert.Equal(t, domain.StringList{"red", "white"}, upd.Colors)
	require.Len(t, upd.ImageURLs, 2)
	assert.Equal(t, prod.ImageURLs[1], upd.ImageURLs[0])
	assert.NotContains(t, upd.ImageURLs, drop)

	ok, err := storage.Exists(ctx, store, storage.PathFromURL(store, drop))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalogDeleteHardThenSoft(t *testing.T) {
	ctx := context.Background()
	svc, prods, store := newCatalogFixture(t)

	hard, err := svc.AddProduct(ctx, "cake", services.ProductInput{Title: "hard"},
		[]services.Upload{{Name: "a.png", Data: pngBytes}})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, hard.ID, "cake"))
	exists, err := prods.Exists(ctx, domain.CategoryCake.Partition(), hard.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	ok, err := storage.Exists(ctx, store, storage.PathFromURL(store, hard.PrimaryImage()))
	require.NoError(t, err)
	assert.False(t, ok, "images go with the product")

	soft, err := svc.AddProduct(ctx, "cake", services.ProductInput{Title: "soft"}, nil)
	require.NoError(t, err)
	prods.deleteNoop = true
	require.NoError(t, svc.DeleteProduct(ctx, soft.ID, ""))

	exists, err = prods.Exists(ctx, domain.CategoryCake.Partition(), soft.ID)
	require.NoError(t, err)
	assert.True(t, exists, "the row survives, hidden")
	_, _, err = svc.GetProduct(ctx, soft.ID, "cake")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogDeleteFailsWhenSoftDeleteFails(t *testing.T) {
	ctx := context.Background()
	svc, prods, _ := newCatalogFixture(t)

	prod, err := svc.AddProduct(ctx, "koshat", services.ProductInput{Title: "arch"}, nil)
	require.NoError(t, err)
	prods.deleteNoop = true
	prods.softErr = errDown

	err = svc.DeleteProduct(ctx, prod.ID, "koshat")
	assert.ErrorIs(t, err, domain.ErrDeleteFailed)
	assert.ErrorIs(t, err, errDown)
}

func TestCatalogCategoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newCatalogFixture(t)

	for _, c := range domain.Categories {
		t.Run(string(c), func(t *testing.T) {
			added, err := svc.AddProduct(ctx, string(c), services.ProductInput{Title: "Sample " + string(c)}, nil)
			require.NoError(t, err)
			assert.Equal(t, c, added.Category)
			assert.Equal(t, domain.Partition("products_"+string(c)), svc.ResolveTable(string(c)))

			listed, err := svc.ListByCategory(ctx, string(c))
			require.NoError(t, err)
			require.Len(t, listed, 1, "each category reads only its own partition")
			assert.Equal(t, added.ID, listed[0].ID)
			assert.Equal(t, c, listed[0].Category)
		})
	}
}
