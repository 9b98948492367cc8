package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wedmarket/internal/cache"
	"wedmarket/internal/domain"
	applog "wedmarket/internal/log"
)

// FavoritesChanged is published with the visitor key after every mutation.
const FavoritesChanged = "favorites.changed"

// FavoritesService keeps one authoritative favorites table and a read-through
// cache of each visitor's resolved list.
type FavoritesService struct {
	Favorites FavoritesStore
	Catalog   *CatalogService
	Cache     cache.Cache
	TTL       time.Duration
}

func NewFavoritesService(favs FavoritesStore, catalog *CatalogService, c cache.Cache, ttl time.Duration) *FavoritesService {
	return &FavoritesService{Favorites: favs, Catalog: catalog, Cache: c, TTL: ttl}
}

func favoritesKey(userKey string) string { return "favorites:" + userKey }

// List returns the visitor's saved products, most recent first. Favorites
// whose product no longer exists are skipped.
func (s *FavoritesService) List(ctx context.Context, userKey string) ([]domain.Product, error) {
	key := favoritesKey(userKey)
	if b, ok, err := s.Cache.Get(ctx, key); err != nil {
		applog.Warn(nil, "favorites.cache.get.fail", err, nil)
	} else if ok {
		var out []domain.Product
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
	}

	favs, err := s.Favorites.List(ctx, userKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(favs))
	for _, f := range favs {
		prod, err := s.Catalog.Products.Get(ctx, f.Category.Partition(), f.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, prod)
	}

	if b, err := json.Marshal(out); err == nil {
		if err := s.Cache.Set(ctx, key, b, s.TTL); err != nil {
			applog.Warn(nil, "favorites.cache.set.fail", err, nil)
		}
	}
	return out, nil
}

// Add saves a product; category may be empty, in which case the product is
// looked up across partitions.
func (s *FavoritesService) Add(ctx context.Context, userKey, productID, category string) error {
	prod, _, err := s.Catalog.GetProduct(ctx, productID, category)
	if err != nil {
		return err
	}
	if err := s.Favorites.Add(ctx, userKey, prod.ID, prod.Category); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	s.changed(ctx, userKey)
	return nil
}

func (s *FavoritesService) Remove(ctx context.Context, userKey, productID string) error {
	if err := s.Favorites.Remove(ctx, userKey, productID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	s.changed(ctx, userKey)
	return nil
}

// Toggle flips a product's saved state and reports the new state.
func (s *FavoritesService) Toggle(ctx context.Context, userKey, productID, category string) (bool, error) {
	has, err := s.Favorites.Has(ctx, userKey, productID)
	if err != nil {
		return false, err
	}
	if has {
		return false, s.Remove(ctx, userKey, productID)
	}
	return true, s.Add(ctx, userKey, productID, category)
}

func (s *FavoritesService) IsFavorite(ctx context.Context, userKey, productID string) (bool, error) {
	return s.Favorites.Has(ctx, userKey, productID)
}

func (s *FavoritesService) changed(ctx context.Context, userKey string) {
	s.OnChanged([]byte(userKey))
	if err := s.Cache.Publish(ctx, FavoritesChanged, []byte(userKey)); err != nil {
		applog.Warn(nil, "favorites.publish.fail", err, nil)
	}
}

// OnChanged drops the cached list named by a favorites.changed message.
func (s *FavoritesService) OnChanged(msg []byte) {
	if err := s.Cache.Delete(context.Background(), favoritesKey(string(msg))); err != nil {
		applog.Warn(nil, "favorites.cache.delete.fail", err, nil)
	}
}
