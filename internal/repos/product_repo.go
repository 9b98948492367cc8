package repos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wedmarket/internal/domain"
)

// ProductRepo reads and writes the category partitions. The partition name is
// interpolated into SQL, so every method checks it against the fixed set.
type ProductRepo struct{ db *DB }

func NewProductRepo(db *DB) *ProductRepo { return &ProductRepo{db: db} }

func productCols(p domain.Partition) string {
	colors := `'[]' AS colors`
	if p.HasColors() {
		colors = `colors`
	}
	return `id, title, description, price, category, subcategory, governorate, cities,
    whatsapp, facebook, instagram, image_urls, ` + colors + `, status, created_at, updated_at`
}

func checkPartition(p domain.Partition) error {
	if !p.Valid() {
		return fmt.Errorf("partition %q: %w", p, domain.ErrInvalidInput)
	}
	return nil
}

// List returns live rows newest first. limit <= 0 means no limit.
func (r *ProductRepo) List(ctx context.Context, p domain.Partition, limit int) ([]domain.Product, error) {
	if err := checkPartition(p); err != nil {
		return nil, err
	}
	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	q := `SELECT ` + productCols(p) + ` FROM ` + string(p) + `
  WHERE deleted_at IS NULL
  ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...)
	return out, mapErr("select "+string(p), err)
}

// Search matches q case-insensitively against title, description and category.
func (r *ProductRepo) Search(ctx context.Context, p domain.Partition, q string) ([]domain.Product, error) {
	if err := checkPartition(p); err != nil {
		return nil, err
	}
	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	like := "%" + escapeLike(strings.ToLower(q)) + "%"
	query := `SELECT ` + productCols(p) + ` FROM ` + string(p) + `
  WHERE deleted_at IS NULL
    AND (LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\')
  ORDER BY created_at DESC`
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), like, like, like)
	return out, mapErr("search "+string(p), err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *ProductRepo) Get(ctx context.Context, p domain.Partition, id string) (domain.Product, error) {
	var out domain.Product
	if err := checkPartition(p); err != nil {
		return out, err
	}
	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	err := r.db.GetContext(ctx, &out, r.db.Rebind(`SELECT `+productCols(p)+` FROM `+string(p)+`
  WHERE id = ? AND deleted_at IS NULL`), id)
	return out, mapErr("get "+string(p), err)
}

// Exists reports whether the row is physically present, soft-deleted or not.
func (r *ProductRepo) Exists(ctx context.Context, p domain.Partition, id string) (bool, error) {
	if err := checkPartition(p); err != nil {
		return false, err
	}
	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM `+string(p)+` WHERE id = ?`), id)
	if err != nil {
		return false, mapErr("exists "+string(p), err)
	}
	return n > 0, nil
}

// Insert stores prod, filling id, status and timestamps when unset. The
// category must be the partition's own.
func (r *ProductRepo) Insert(ctx context.Context, p domain.Partition, prod *domain.Product) error {
	if err := checkPartition(p); err != nil {
		return err
	}
	if prod.Category != p.Category() {
		return fmt.Errorf("category %q in %s: %w", prod.Category, p, domain.ErrInvalidInput)
	}
	if prod.ID == "" {
		prod.ID = uuid.NewString()
	}
	now := domain.FormatTime(time.Now())
	if prod.CreatedAt == "" {
		prod.CreatedAt = now
	}
	if prod.UpdatedAt == "" {
		prod.UpdatedAt = prod.CreatedAt
	}
	if prod.Status == "" {
		prod.Status = domain.ProductStatusActive
	}
	if !p.HasColors() {
		prod.Colors = nil
	}

	cols := `id, title, description, price, category, subcategory, governorate, cities,
    whatsapp, facebook, instagram, image_urls, status, created_at, updated_at`
	marks := `?,?,?,?,?,?,?,?,?,?,?,?,?,?,?`
	args := []any{prod.ID, prod.Title, prod.Description, prod.Price, string(prod.Category), prod.Subcategory,
		prod.Governorate, prod.Cities, prod.WhatsApp, prod.Facebook, prod.Instagram, prod.ImageURLs,
		prod.Status, prod.CreatedAt, prod.UpdatedAt}
	if p.HasColors() {
		cols += `, colors`
		marks += `,?`
		args = append(args, prod.Colors)
	}

	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO `+string(p)+`(`+cols+`) VALUES(`+marks+`)`), args...)
	return mapErr("insert "+string(p), err)
}

// Update rewrites the mutable fields of a live row.
func (r *ProductRepo) Update(ctx context.Context, p domain.Partition, prod *domain.Product) error {
	if err := checkPartition(p); err != nil {
		return err
	}
	prod.UpdatedAt = domain.FormatTime(time.Now())
	set := `title=?, description=?, price=?, subcategory=?, governorate=?, cities=?,
    whatsapp=?, facebook=?, instagram=?, image_urls=?, updated_at=?`
	args := []any{prod.Title, prod.Description, prod.Price, prod.Subcategory, prod.Governorate, prod.Cities,
		prod.WhatsApp, prod.Facebook, prod.Instagram, prod.ImageURLs, prod.UpdatedAt}
	if p.HasColors() {
		set += `, colors=?`
		args = append(args, prod.Colors)
	}
	args = append(args, prod.ID)

	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE `+string(p)+` SET `+set+` WHERE id=? AND deleted_at IS NULL`), args...)
	if err != nil {
		return mapErr("update "+string(p), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update %s %s: %w", p, prod.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes the row. Deleting a missing row is not an error; callers
// verify with Exists.
func (r *ProductRepo) Delete(ctx context.Context, p domain.Partition, id string) error {
	if err := checkPartition(p); err != nil {
		return err
	}
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM `+string(p)+` WHERE id=?`), id)
	return mapErr("delete "+string(p), err)
}

// SoftDelete hides the row from every read without removing it.
func (r *ProductRepo) SoftDelete(ctx context.Context, p domain.Partition, id string) error {
	if err := checkPartition(p); err != nil {
		return err
	}
	now := domain.FormatTime(time.Now())
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE `+string(p)+`
  SET deleted_at=?, status=?, updated_at=? WHERE id=?`), now, domain.ProductStatusDeleted, now, id)
	if err != nil {
		return mapErr("soft delete "+string(p), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("soft delete %s %s: %w", p, id, domain.ErrNotFound)
	}
	return nil
}
