package services

import (
	"context"
	"time"

	"wedmarket/internal/domain"
	"wedmarket/internal/repos"
)

// ProductStore is the partitioned product table store.
type ProductStore interface {
	List(ctx context.Context, p domain.Partition, limit int) ([]domain.Product, error)
	Search(ctx context.Context, p domain.Partition, q string) ([]domain.Product, error)
	Get(ctx context.Context, p domain.Partition, id string) (domain.Product, error)
	Exists(ctx context.Context, p domain.Partition, id string) (bool, error)
	Insert(ctx context.Context, p domain.Partition, prod *domain.Product) error
	Update(ctx context.Context, p domain.Partition, prod *domain.Product) error
	Delete(ctx context.Context, p domain.Partition, id string) error
	SoftDelete(ctx context.Context, p domain.Partition, id string) error
}

type AdStore interface {
	List(ctx context.Context, f repos.AdFilter) ([]domain.Advertisement, error)
	Get(ctx context.Context, id string) (domain.Advertisement, error)
	Expired(ctx context.Context, now time.Time) ([]domain.Advertisement, error)
	EndingBetween(ctx context.Context, from, to time.Time) ([]domain.Advertisement, error)
	Insert(ctx context.Context, ad *domain.Advertisement) error
	Update(ctx context.Context, ad *domain.Advertisement) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	IncrementImpressions(ctx context.Context, ids ...string) error
	IncrementClicks(ctx context.Context, id string) error
}

type SubmissionStore interface {
	List(ctx context.Context, status domain.SubmissionStatus) ([]domain.Submission, error)
	Get(ctx context.Context, id string) (domain.Submission, error)
	Exists(ctx context.Context, id string) (bool, error)
	Insert(ctx context.Context, s *domain.Submission) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (domain.SubmissionStats, error)
}

type FavoritesStore interface {
	Add(ctx context.Context, userKey, productID string, category domain.Category) error
	Remove(ctx context.Context, userKey, productID string) error
	Has(ctx context.Context, userKey, productID string) (bool, error)
	List(ctx context.Context, userKey string) ([]domain.Favorite, error)
}

var (
	_ ProductStore    = (*repos.ProductRepo)(nil)
	_ AdStore         = (*repos.AdRepo)(nil)
	_ SubmissionStore = (*repos.SubmissionRepo)(nil)
	_ FavoritesStore  = (*repos.FavoritesRepo)(nil)
)
