package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedmarket/internal/domain"
	"wedmarket/internal/repos"
	"wedmarket/internal/services"
	"wedmarket/internal/storage"
)

type moderationFixture struct {
	db    *repos.DB
	store *flakyStore
	prods *faultyProducts
	subs  *repos.SubmissionRepo
	svc   *services.ModerationService
}

func newModeration(t *testing.T) *moderationFixture {
	t.Helper()
	db := memdb(t)
	store := &flakyStore{ObjectStore: localStore(t)}
	prods := &faultyProducts{ProductStore: repos.NewProductRepo(db)}
	subs := repos.NewSubmissionRepo(db)
	svc := services.NewModerationService(subs, newCatalog(prods, store), store, "/Product_requests/")
	svc.Transfer = fast
	svc.RowDelete = fast
	return &moderationFixture{db: db, store: store, prods: prods, subs: subs, svc: svc}
}

func (f *moderationFixture) submit(t *testing.T, category string, images int) domain.Submission {
	t.Helper()
	var files []services.Upload
	for i := 0; i < images; i++ {
		files = append(files, services.Upload{Name: "photo.png", ContentType: "image/png", Data: pngBytes})
	}
	sub, err := f.svc.Submit(context.Background(), services.SubmissionInput{
		ProductInput: services.ProductInput{
			Title:     "Peony bouquet",
			Price:     35,
			Colors:    []string{"pink"},
			Instagram: "https://instagram.com/bloom.shop/",
		},
		Category: category,
	}, files)
	require.NoError(t, err)
	return sub
}

func TestSubmitQueuesPendingRequest(t *testing.T) {
	f := newModeration(t)
	sub := f.submit(t, "flowerbouquets", 2)

	assert.Equal(t, domain.StatusPending, sub.Status)
	assert.Equal(t, "bloom.shop", sub.Instagram)
	require.Len(t, sub.ImageURLs, 2)
	for _, img := range sub.ImageURLs {
		assert.True(t, strings.HasPrefix(img.Path, "Product_requests/product_request_"), img.Path)
		assert.Equal(t, "photo.png", img.OriginalName)
		ok, err := storage.Exists(context.Background(), f.store, img.Path)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	st, err := f.svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Pending)
}

func TestSubmitFailsWhenNoUploadLands(t *testing.T) {
	f := newModeration(t)
	f.store.uploadErr = errDown

	_, err := f.svc.Submit(context.Background(), services.SubmissionInput{
		ProductInput: services.ProductInput{Title: "x"}, Category: "cake",
	}, []services.Upload{{Name: "a.png", Data: pngBytes}})
	assert.ErrorIs(t, err, domain.ErrUploadFailed)

	subs, err := f.svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestApproveRelocatesImagesAndDeletesRequest(t *testing.T) {
	ctx := context.Background()
	f := newModeration(t)
	sub := f.submit(t, "flowerbouquets", 2)

	prod, err := f.svc.Approve(ctx, sub.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryFlowerBouquets, prod.Category)
	assert.Equal(t, domain.StringList{"pink"}, prod.Colors)
	require.Len(t, prod.ImageURLs, 2)
	for _, u := range prod.ImageURLs {
		p := storage.PathFromURL(f.store, u)
		assert.True(t, strings.HasPrefix(p, "products_flowerbouquets/product_flowerbouquets_"), p)
		ok, err := storage.Exists(ctx, f.store, p)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	for _, img := range sub.ImageURLs {
		ok, err := storage.Exists(ctx, f.store, img.Path)
		require.NoError(t, err)
		assert.False(t, ok, "submission image %s should be gone", img.Path)
	}

	got, err := f.prods.Get(ctx, domain.CategoryFlowerBouquets.Partition(), prod.ID)
	require.NoError(t, err)
	assert.Equal(t, "Peony bouquet", got.Title)

	exists, err := f.subs.Exists(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestApproveKeepsTemporaryURLWhenImageCannotMove(t *testing.T) {
	ctx := context.Background()
	f := newModeration(t)
	sub := f.submit(t, "cake", 1)

	f.store.copyErr = storage.ErrCopyUnsupported
	f.store.downloadFails = -1

	prod, err := f.svc.Approve(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, f.store.downloads)
	assert.Equal(t, domain.StringList{sub.ImageURLs[0].URL}, prod.ImageURLs)
	assert.Nil(t, prod.Colors, "cake partition has no colors")

	// the only copy of the image is still referenced, so it stays
	ok, err := storage.Exists(ctx, f.store, sub.ImageURLs[0].Path)
	require.NoError(t, err)
	assert.True(t, ok)

	exists, err := f.subs.Exists(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestApproveFallsBackToDownloadAndUpload(t *testing.T) {
	ctx := context.Background()
	f := newModeration(t)
	sub := f.submit(t, "mirror", 1)

	f.store.copyErr = storage.ErrCopyUnsupported
	f.store.downloadFails = 2

	prod, err := f.svc.Approve(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryMirr, prod.Category)
	require.Len(t, prod.ImageURLs, 1)
	assert.Contains(t, prod.ImageURLs[0], "/products_mirr/")
}

func TestApproveUnknownCategoryGoesToDefaultPartition(t *testing.T) {
	f := newModeration(t)
	sub := f.submit(t, "balloons", 0)

	prod, err := f.svc.Approve(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryOther, prod.Category)
	assert.Empty(t, prod.ImageURLs)
}

func TestApproveInsertFailureLeavesRequestIntact(t *testing.T) {
	ctx := context.Background()
	f := newModeration(t)
	sub := f.submit(t, "cake", 1)
	f.prods.insertErr = errDown

	_, err := f.svc.Approve(ctx, sub.ID)
	assert.ErrorIs(t, err, domain.ErrCreateFailed)

	got, err := f.subs.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ImageURLs, got.ImageURLs)
	ok, err := storage.Exists(ctx, f.store, sub.ImageURLs[0].Path)
	require.NoError(t, err)
	assert.True(t, ok, "submission image must survive a failed approval")

	objs, err := f.store.List(ctx, "products_cake", "")
	require.NoError(t, err)
	assert.Empty(t, objs, "relocated copies are cleaned up")

	cakes, err := f.prods.List(ctx, domain.CategoryCake.Partition(), 0)
	require.NoError(t, err)
	assert.Empty(t, cakes)
}

func TestApproveTwiceReportsNotFound(t *testing.T) {
	f := newModeration(t)
	sub := f.submit(t, "koshat", 0)

	_, err := f.svc.Approve(context.Background(), sub.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), sub.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApproveReportsUndeletedRequest(t *testing.T) {
	ctx := context.Background()
	f := newModeration(t)
	sub := f.submit(t, "invitations", 0)
	stubborn := &stubbornSubmissions{SubmissionStore: f.subs}
	f.svc.Submissions = stubborn

	prod, err := f.svc.Approve(ctx, sub.ID)
	assert.ErrorIs(t, err, domain.ErrProductCreatedRequestNotDeleted)
	assert.Equal(t, "product_created_request_not_deleted", domain.KindOf(err))
	require.NotEmpty(t, prod.ID)
	assert.Equal(t, 3, stubborn.deletes)

	_, err = f.prods.Get(ctx, domain.CategoryInvitations.Partition(), prod.ID)
	assert.NoError(t, err, "the product stays live")
}

func TestRejectSucceedsDespiteStorageErrors(t *testing.T) {
	ctx := context.Background()
	f := newModeration(t)
	sub := f.submit(t, "cake", 2)
	f.store.removeErr = errDown

	require.NoError(t, f.svc.Reject(ctx, sub.ID, "blurry photos"))
	exists, err := f.subs.Exists(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, f.svc.Reject(ctx, sub.ID, ""), domain.ErrNotFound)
}

func TestRejectRemovesImages(t *testing.T) {
	ctx := context.Background()
	f := newModeration(t)
	sub := f.submit(t, "cake", 1)

	require.NoError(t, f.svc.Reject(ctx, sub.ID, ""))
	assert.Equal(t, []string{sub.ImageURLs[0].Path}, f.store.removed)
}

func TestRejectFailsWhenRowSurvives(t *testing.T) {
	f := newModeration(t)
	sub := f.submit(t, "cake", 0)
	f.svc.Submissions = &stubbornSubmissions{SubmissionStore: f.subs}

	err := f.svc.Reject(context.Background(), sub.ID, "")
	assert.ErrorIs(t, err, domain.ErrDeleteFailed)
}
