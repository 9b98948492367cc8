package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"wedmarket/internal/domain"
	applog "wedmarket/internal/log"
	"wedmarket/internal/retry"
	"wedmarket/internal/storage"
	"wedmarket/internal/validate"
)

// ProductInput carries the client-editable product fields.
type ProductInput struct {
	Title       string
	Description string
	Price       float64
	Subcategory []string
	Governorate string
	Cities      []string
	WhatsApp    string
	Facebook    string
	Instagram   string
	Colors      []string
}

type CatalogService struct {
	Products ProductStore
	Store    storage.ObjectStore

	Transfer  retry.Policy
	RowDelete retry.Policy
	Now       func() time.Time
}

func NewCatalogService(prods ProductStore, store storage.ObjectStore) *CatalogService {
	return &CatalogService{
		Products:  prods,
		Store:     store,
		Transfer:  retry.Transfer,
		RowDelete: retry.RowDelete,
		Now:       time.Now,
	}
}

// ResolveTable maps a category to its partition. Unknown values go to the
// default partition with a warning.
func (s *CatalogService) ResolveTable(category string) domain.Partition {
	p, ok := domain.PartitionFor(category)
	if !ok {
		applog.Warn(nil, "catalog.partition.unresolvable", domain.ErrPartitionUnresolvable,
			map[string]any{"category": category, "fallback": string(p)})
	}
	return p
}

// ListByCategory reads one partition, newest first.
func (s *CatalogService) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.Products.List(ctx, s.ResolveTable(category), 0)
}

// ListAll reads every partition in parallel. A failing partition is logged
// and contributes nothing.
func (s *CatalogService) ListAll(ctx context.Context) []domain.Product {
	return s.fanOut(ctx, func(ctx context.Context, p domain.Partition) ([]domain.Product, error) {
		return s.Products.List(ctx, p, 0)
	})
}

// Search matches title, description or category case-insensitively across
// all partitions. An empty query lists everything.
func (s *CatalogService) Search(ctx context.Context, q string) []domain.Product {
	q = strings.TrimSpace(q)
	if q == "" {
		return s.ListAll(ctx)
	}
	return s.fanOut(ctx, func(ctx context.Context, p domain.Partition) ([]domain.Product, error) {
		return s.Products.Search(ctx, p, q)
	})
}

func (s *CatalogService) fanOut(ctx context.Context, read func(context.Context, domain.Partition) ([]domain.Product, error)) []domain.Product {
	parts := domain.Partitions()
	results := make([][]domain.Product, len(parts))
	var g errgroup.Group
	for i, p := range parts {
		g.Go(func() error {
			rows, err := read(ctx, p)
			if err != nil {
				applog.Warn(nil, "catalog.partition.read.fail", err, map[string]any{"partition": string(p)})
				return nil
			}
			results[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	out := []domain.Product{}
	for _, rows := range results {
		out = append(out, rows...)
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(ps []domain.Product) {
	slices.SortStableFunc(ps, func(a, b domain.Product) int {
		return strings.Compare(b.CreatedAt, a.CreatedAt)
	})
}

// GetProduct finds a product by id. With a category it looks in that
// partition first; otherwise, or when it is not there, every partition is
// searched.
func (s *CatalogService) GetProduct(ctx context.Context, id, category string) (domain.Product, domain.Partition, error) {
	tried := domain.Partition("")
	if strings.TrimSpace(category) != "" {
		p := s.ResolveTable(category)
		prod, err := s.Products.Get(ctx, p, id)
		if err == nil {
			return prod, p, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, "", err
		}
		tried = p
	}
	for _, p := range domain.Partitions() {
		if p == tried {
			continue
		}
		prod, err := s.Products.Get(ctx, p, id)
		if err == nil {
			return prod, p, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			applog.Warn(nil, "catalog.partition.read.fail", err, map[string]any{"partition": string(p), "id": id})
		}
	}
	return domain.Product{}, "", fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
}

func (s *CatalogService) productName(p domain.Partition, f Upload) string {
	return fmt.Sprintf("%s/%s_product_%d_%s%s", p, p.Category(), s.Now().UnixMilli(), shortRand(), f.ext())
}

func (in ProductInput) apply(prod *domain.Product, p domain.Partition) {
	prod.Title = strings.TrimSpace(in.Title)
	prod.Description = strings.TrimSpace(in.Description)
	if prod.Title == "" {
		prod.Title = prod.Description
	}
	prod.Price = max(in.Price, 0)
	prod.Subcategory = domain.StringList(in.Subcategory)
	prod.Governorate = strings.TrimSpace(in.Governorate)
	prod.Cities = domain.StringList(in.Cities)
	prod.WhatsApp = strings.TrimSpace(in.WhatsApp)
	prod.Facebook = strings.TrimSpace(in.Facebook)
	prod.Instagram = validate.Instagram(in.Instagram)
	prod.Colors = nil
	if p.HasColors() {
		prod.Colors = domain.StringList(in.Colors)
	}
}

// AddProduct uploads the images to the partition folder, then inserts the
// row. If files were supplied and none could be stored nothing is inserted.
func (s *CatalogService) AddProduct(ctx context.Context, category string, in ProductInput, files []Upload) (domain.Product, error) {
	if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Description) == "" {
		return domain.Product{}, fmt.Errorf("title or description required: %w", domain.ErrInvalidInput)
	}
	p := s.ResolveTable(category)

	refs := uploadAll(ctx, s.Store, s.Transfer, files, func(_ int, f Upload) string { return s.productName(p, f) })
	if len(files) > 0 && len(refs) == 0 {
		return domain.Product{}, fmt.Errorf("add product: %d files: %w", len(files), domain.ErrUploadFailed)
	}

	prod := domain.Product{Category: p.Category()}
	in.apply(&prod, p)
	for _, r := range refs {
		prod.ImageURLs = append(prod.ImageURLs, r.URL)
	}

	if err := s.Products.Insert(ctx, p, &prod); err != nil {
		removeObjects(ctx, s.Store, s.Transfer, "catalog.add.cleanup.fail", refPaths(refs))
		applog.Error(nil, "catalog.add.fail", err, map[string]any{"partition": string(p)})
		return domain.Product{}, fmt.Errorf("add product: %w: %w", domain.ErrCreateFailed, err)
	}
	applog.Info(nil, "catalog.add", map[string]any{"id": prod.ID, "partition": string(p), "images": len(refs)})
	return prod, nil
}

// UpdateProduct replaces the editable fields, drops the images listed in
// removeURLs and appends new uploads.
func (s *CatalogService) UpdateProduct(ctx context.Context, id, category string, in ProductInput, files []Upload, removeURLs []string) (domain.Product, error) {
	prod, p, err := s.GetProduct(ctx, id, category)
	if err != nil {
		return domain.Product{}, err
	}
	refs := uploadAll(ctx, s.Store, s.Transfer, files, func(_ int, f Upload) string { return s.productName(p, f) })
	if len(files) > 0 && len(refs) == 0 {
		return domain.Product{}, fmt.Errorf("update product %s: %w", id, domain.ErrUploadFailed)
	}

	drop := map[string]bool{}
	for _, u := range removeURLs {
		drop[u] = true
	}
	var kept domain.StringList
	var dropped []string
	for _, u := range prod.ImageURLs {
		if drop[u] {
			dropped = append(dropped, storage.PathFromURL(s.Store, u))
			continue
		}
		kept = append(kept, u)
	}
	in.apply(&prod, p)
	prod.ImageURLs = kept
	for _, r := range refs {
		prod.ImageURLs = append(prod.ImageURLs, r.URL)
	}

	if err := s.Products.Update(ctx, p, &prod); err != nil {
		removeObjects(ctx, s.Store, s.Transfer, "catalog.update.cleanup.fail", refPaths(refs))
		return domain.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	removeObjects(ctx, s.Store, s.Transfer, "catalog.update.image.remove.fail", dropped)
	applog.Info(nil, "catalog.update", map[string]any{"id": id, "partition": string(p), "added": len(refs), "removed": len(dropped)})
	return prod, nil
}

// DeleteProduct removes a product and its images. When the row cannot be
// confirmed gone it is soft-deleted instead; only if that fails too is an
// error returned.
func (s *CatalogService) DeleteProduct(ctx context.Context, id, category string) error {
	prod, p, err := s.GetProduct(ctx, id, category)
	if err != nil {
		return err
	}

	var paths []string
	for _, u := range prod.ImageURLs {
		paths = append(paths, storage.PathFromURL(s.Store, u))
	}
	removeObjects(ctx, s.Store, s.Transfer, "catalog.delete.image.fail", paths)

	err = retry.DeleteVerified(ctx, s.RowDelete,
		func(ctx context.Context) error { return s.Products.Delete(ctx, p, id) },
		func(ctx context.Context) (bool, error) { return s.Products.Exists(ctx, p, id) },
	)
	if err == nil {
		applog.Info(nil, "catalog.delete", map[string]any{"id": id, "partition": string(p)})
		return nil
	}

	applog.Warn(nil, "catalog.delete.hard.fail", err, map[string]any{"id": id, "partition": string(p)})
	if serr := s.Products.SoftDelete(ctx, p, id); serr != nil {
		applog.Error(nil, "catalog.delete.fail", serr, map[string]any{"id": id, "partition": string(p)})
		return fmt.Errorf("delete product %s: %w", id, errors.Join(err, serr))
	}
	applog.Info(nil, "catalog.delete.soft", map[string]any{"id": id, "partition": string(p)})
	return nil
}

func refPaths(refs []domain.ImageRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Path)
	}
	return out
}
