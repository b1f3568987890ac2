package repos

import (
	"stitchkart/internal/domain"

	"github.com/jmoiron/sqlx"
)

// QuotaRepo persists per-source, per-month call counters for paid
// external APIs. Rows are created lazily on the first call of a month and
// never deleted; the month rollover is the implicit reset.
type QuotaRepo struct{ db *sqlx.DB }

func NewQuotaRepo(db *sqlx.DB) *QuotaRepo { return &QuotaRepo{db: db} }

// Usage returns the recorded call count for (source, monthKey). A missing
// row reads as zero.
func (r *QuotaRepo) Usage(source, monthKey string) (int, error) {
	var n int
	err := r.db.Get(&n, `
		SELECT COALESCE(
		  (SELECT request_count FROM api_quota WHERE source_name = ? AND month_key = ?), 0)
	`, source, monthKey)
	return n, err
}

// TryAcquire atomically claims one call slot if usage is still below
// limit, returning whether the slot was granted. The check and the
// increment are a single statement, so concurrent callers cannot both
// slip past the ceiling.
func (r *QuotaRepo) TryAcquire(source, monthKey string, limit int, at string) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	res, err := r.db.Exec(`
		INSERT INTO api_quota(source_name, month_key, request_count, last_request_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(source_name, month_key) DO UPDATE
		SET request_count = request_count + 1, last_request_at = excluded.last_request_at
		WHERE api_quota.request_count < ?
	`, source, monthKey, at, limit)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Records lists all quota rows for one month (admin view).
func (r *QuotaRepo) Records(monthKey string) ([]domain.QuotaRecord, error) {
	var out []domain.QuotaRecord
	err := r.db.Select(&out, `
		SELECT source_name, month_key, request_count, COALESCE(last_request_at,'') AS last_request_at
		FROM api_quota
		WHERE month_key = ?
		ORDER BY source_name
	`, monthKey)
	return out, err
}
