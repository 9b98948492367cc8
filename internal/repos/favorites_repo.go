package repos

import (
	"context"
	"time"

	"wedmarket/internal/domain"
)

type FavoritesRepo struct{ db *DB }

func NewFavoritesRepo(db *DB) *FavoritesRepo { return &FavoritesRepo{db: db} }

func (r *FavoritesRepo) Add(ctx context.Context, userKey, productID string, category domain.Category) error {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO favorites(user_key, product_id, category, created_at)
	  VALUES(?, ?, ?, ?)
	  ON CONFLICT(user_key, product_id) DO NOTHING
	`), userKey, productID, string(category), domain.FormatTime(time.Now()))
	return mapErr("insert favorite", err)
}

func (r *FavoritesRepo) Remove(ctx context.Context, userKey, productID string) error {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM favorites WHERE user_key=? AND product_id=?`), userKey, productID)
	return mapErr("delete favorite", err)
}

func (r *FavoritesRepo) Has(ctx context.Context, userKey, productID string) (bool, error) {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM favorites WHERE user_key=? AND product_id=?`), userKey, productID)
	return n > 0, mapErr("count favorite", err)
}

// List returns a visitor's favorites, most recently saved first.
func (r *FavoritesRepo) List(ctx context.Context, userKey string) ([]domain.Favorite, error) {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	out := []domain.Favorite{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT user_key, product_id, category, created_at
	  FROM favorites
	  WHERE user_key = ?
	  ORDER BY created_at DESC
	`), userKey)
	return out, mapErr("select favorites", err)
}
