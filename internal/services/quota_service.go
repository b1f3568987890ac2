package services

import (
	"time"

	"stitchkart/internal/domain"
	"stitchkart/internal/repos"
)

// DefaultMonthlyLimit is the call ceiling per external source per month.
const DefaultMonthlyLimit = 100

// QuotaService gates calls to paid external APIs against a monthly
// ceiling. Reads fail closed: if the counter cannot be read, the source
// is reported as exhausted rather than silently unlimited.
type QuotaService struct {
	Repo  *repos.QuotaRepo
	Limit int
}

func NewQuotaService(repo *repos.QuotaRepo, limit int) *QuotaService {
	if limit <= 0 {
		limit = DefaultMonthlyLimit
	}
	return &QuotaService{Repo: repo, Limit: limit}
}

// MonthKey derives the quota bucket for a point in time, in the tracker's
// local clock. No timezone negotiation is performed.
func MonthKey(t time.Time) string { return t.Format("2006-01") }

// Usage returns the recorded call count for the source this month.
// Storage errors read as the full limit (fail closed).
func (s *QuotaService) Usage(source string, now time.Time) int {
	n, err := s.Repo.Usage(source, MonthKey(now))
	if err != nil {
		return s.Limit
	}
	return n
}

// CanCall reports whether at least one call slot remains. Read-only; the
// resolver uses Acquire, which claims the slot atomically.
func (s *QuotaService) CanCall(source string, now time.Time) bool {
	return s.Usage(source, now) < s.Limit
}

// Acquire claims one call slot for the source, atomically checking and
// incrementing in a single statement. Returns false when the ceiling is
// reached or the counter is unreachable.
func (s *QuotaService) Acquire(source string, now time.Time) bool {
	ok, err := s.Repo.TryAcquire(source, MonthKey(now), s.Limit, now.UTC().Format(time.RFC3339))
	if err != nil {
		return false
	}
	return ok
}

// MonthRecords lists this month's counters for the admin view.
func (s *QuotaService) MonthRecords(now time.Time) ([]domain.QuotaRecord, error) {
	return s.Repo.Records(MonthKey(now))
}
