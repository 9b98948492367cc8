package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wedmarket/internal/domain"
)

type AdRepo struct{ db *DB }

func NewAdRepo(db *DB) *AdRepo { return &AdRepo{db: db} }

const adCols = `id, title, description, image_url, link_url, ad_type, position, category_section,
    priority, is_active, start_date, end_date, product_id, product_category,
    impressions_count, clicks_count, budget, spent, created_at, updated_at`

// AdFilter narrows ad listings; zero fields match everything.
type AdFilter struct {
	Type            domain.AdType
	Position        domain.Position
	CategorySection string
	ProductCategory string
	ActiveOnly      bool
	// Limit <= 0 means no limit.
	Limit int
}

// List orders by priority descending, oldest first among equals, so a
// long-running ad is not bumped by a newer one of the same priority. The
// end_date check is left to callers, which compare against their own clock.
func (r *AdRepo) List(ctx context.Context, f AdFilter) ([]domain.Advertisement, error) {
	where := `1=1`
	args := []any{}
	if f.Type != "" {
		where += ` AND ad_type = ?`
		args = append(args, string(f.Type))
	}
	if f.Position != "" {
		where += ` AND position = ?`
		args = append(args, string(f.Position))
	}
	if f.CategorySection != "" {
		where += ` AND category_section = ?`
		args = append(args, f.CategorySection)
	}
	if f.ProductCategory != "" {
		where += ` AND product_category = ?`
		args = append(args, f.ProductCategory)
	}
	if f.ActiveOnly {
		where += ` AND is_active = ?`
		args = append(args, true)
	}
	q := `SELECT ` + adCols + ` FROM advertisements WHERE ` + where + `
  ORDER BY priority DESC, created_at ASC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	out := []domain.Advertisement{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...)
	return out, mapErr("select advertisements", err)
}

func (r *AdRepo) Get(ctx context.Context, id string) (domain.Advertisement, error) {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	var out domain.Advertisement
	err := r.db.GetContext(ctx, &out, r.db.Rebind(`SELECT `+adCols+` FROM advertisements WHERE id = ?`), id)
	return out, mapErr("get advertisement", err)
}

// Expired returns still-active ads whose end_date has passed.
func (r *AdRepo) Expired(ctx context.Context, now time.Time) ([]domain.Advertisement, error) {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	out := []domain.Advertisement{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`SELECT `+adCols+` FROM advertisements
  WHERE end_date IS NOT NULL AND end_date < ? AND is_active = ?`), domain.FormatTime(now), true)
	return out, mapErr("select expired advertisements", err)
}

// EndingBetween returns active ads whose end_date falls in [from, to).
func (r *AdRepo) EndingBetween(ctx context.Context, from, to time.Time) ([]domain.Advertisement, error) {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	out := []domain.Advertisement{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`SELECT `+adCols+` FROM advertisements
  WHERE end_date IS NOT NULL AND end_date >= ? AND end_date < ? AND is_active = ?
  ORDER BY end_date ASC`), domain.FormatTime(from), domain.FormatTime(to), true)
	return out, mapErr("select expiring advertisements", err)
}

func (r *AdRepo) Insert(ctx context.Context, ad *domain.Advertisement) error {
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}
	now := domain.FormatTime(time.Now())
	if ad.CreatedAt == "" {
		ad.CreatedAt = now
	}
	if ad.UpdatedAt == "" {
		ad.UpdatedAt = ad.CreatedAt
	}
	if ad.StartDate == "" {
		ad.StartDate = ad.CreatedAt
	}
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO advertisements(`+adCols+`)
  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		ad.ID, ad.Title, ad.Description, ad.ImageURL, ad.LinkURL, string(ad.AdType), string(ad.Position),
		nullable(ad.CategorySection), ad.Priority, ad.IsActive, ad.StartDate, nullable(ad.EndDate), nullable(ad.ProductID),
		nullable(ad.ProductCategory), ad.ImpressionsCount, ad.ClicksCount, ad.Budget, ad.Spent, ad.CreatedAt, ad.UpdatedAt)
	return mapErr("insert advertisement", err)
}

// Update rewrites everything but the counters and created_at.
func (r *AdRepo) Update(ctx context.Context, ad *domain.Advertisement) error {
	ad.UpdatedAt = domain.FormatTime(time.Now())
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE advertisements SET
    title=?, description=?, image_url=?, link_url=?, ad_type=?, position=?, category_section=?,
    priority=?, is_active=?, start_date=?, end_date=?, product_id=?, product_category=?,
    budget=?, spent=?, updated_at=?
  WHERE id=?`),
		ad.Title, ad.Description, ad.ImageURL, ad.LinkURL, string(ad.AdType), string(ad.Position), nullable(ad.CategorySection),
		ad.Priority, ad.IsActive, ad.StartDate, nullable(ad.EndDate), nullable(ad.ProductID), nullable(ad.ProductCategory),
		ad.Budget, ad.Spent, ad.UpdatedAt, ad.ID)
	if err != nil {
		return mapErr("update advertisement", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update advertisement %s: %w", ad.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *AdRepo) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE advertisements SET is_active=?, updated_at=? WHERE id=?`),
		active, domain.FormatTime(time.Now()), id)
	if err != nil {
		return mapErr("set advertisement status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set advertisement status %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *AdRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM advertisements WHERE id=?`), id)
	return mapErr("delete advertisement", err)
}

// IncrementImpressions adds one impression to each id in a single statement.
func (r *AdRepo) IncrementImpressions(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`UPDATE advertisements SET impressions_count = impressions_count + 1 WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	_, err = r.db.ExecContext(ctx, r.db.Rebind(q), args...)
	return mapErr("record impressions", err)
}

func (r *AdRepo) IncrementClicks(ctx context.Context, id string) error {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE advertisements SET clicks_count = clicks_count + 1 WHERE id=?`), id)
	if err != nil {
		return mapErr("record click", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record click %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
