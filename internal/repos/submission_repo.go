package repos

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wedmarket/internal/domain"
)

// SubmissionRepo stores pending product requests.
type SubmissionRepo struct{ db *DB }

func NewSubmissionRepo(db *DB) *SubmissionRepo { return &SubmissionRepo{db: db} }

const submissionCols = `id, title, description, price, category, subcategory, governorate, cities,
    whatsapp, facebook, instagram, colors, image_urls, status, rejection_reason, created_at, updated_at`

// List returns submissions newest first, optionally filtered by status.
func (r *SubmissionRepo) List(ctx context.Context, status domain.SubmissionStatus) ([]domain.Submission, error) {
	q := `SELECT ` + submissionCols + ` FROM product_requests`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY created_at DESC`

	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	out := []domain.Submission{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...)
	return out, mapErr("select product_requests", err)
}

func (r *SubmissionRepo) Get(ctx context.Context, id string) (domain.Submission, error) {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	var out domain.Submission
	err := r.db.GetContext(ctx, &out, r.db.Rebind(`SELECT `+submissionCols+` FROM product_requests WHERE id = ?`), id)
	return out, mapErr("get product_request", err)
}

func (r *SubmissionRepo) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM product_requests WHERE id = ?`), id); err != nil {
		return false, mapErr("exists product_request", err)
	}
	return n > 0, nil
}

func (r *SubmissionRepo) Insert(ctx context.Context, s *domain.Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = domain.StatusPending
	}
	now := domain.FormatTime(time.Now())
	if s.CreatedAt == "" {
		s.CreatedAt = now
	}
	s.UpdatedAt = s.CreatedAt

	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO product_requests(`+submissionCols+`)
  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		s.ID, s.Title, s.Description, s.Price, s.Category, s.Subcategory, s.Governorate, s.Cities,
		s.WhatsApp, s.Facebook, s.Instagram, s.Colors, s.ImageURLs, string(s.Status), s.RejectionReason,
		s.CreatedAt, s.UpdatedAt)
	return mapErr("insert product_request", err)
}

// Delete removes the row; a missing row is not an error.
func (r *SubmissionRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM product_requests WHERE id = ?`), id)
	return mapErr("delete product_request", err)
}

func (r *SubmissionRepo) Stats(ctx context.Context) (domain.SubmissionStats, error) {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS n FROM product_requests GROUP BY status`); err != nil {
		return domain.SubmissionStats{}, mapErr("count product_requests", err)
	}
	var st domain.SubmissionStats
	for _, row := range rows {
		st.Total += row.N
		switch domain.SubmissionStatus(row.Status) {
		case domain.StatusPending:
			st.Pending = row.N
		case domain.StatusApproved:
			st.Approved = row.N
		case domain.StatusRejected:
			st.Rejected = row.N
		}
	}
	return st, nil
}
