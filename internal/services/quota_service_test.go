package services_test

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"stitchkart/internal/repos"
	"stitchkart/internal/services"
)

func quotaDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	schema := `
	CREATE TABLE api_quota(
	  source_name TEXT NOT NULL, month_key TEXT NOT NULL,
	  request_count INTEGER NOT NULL DEFAULT 0, last_request_at TEXT,
	  PRIMARY KEY(source_name, month_key)
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestQuota_CeilingIsHard(t *testing.T) {
	svc := services.NewQuotaService(repos.NewQuotaRepo(quotaDB(t)), 3)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if !svc.Acquire("rapidapi", now) {
			t.Fatalf("acquire %d should succeed", i+1)
		}
	}
	if svc.Acquire("rapidapi", now) {
		t.Fatal("acquire past the ceiling must fail")
	}
	if got := svc.Usage("rapidapi", now); got != 3 {
		t.Fatalf("usage = %d, want 3", got)
	}
	if svc.CanCall("rapidapi", now) {
		t.Fatal("CanCall must be false at the ceiling")
	}
}

func TestQuota_UsageMonotonicWithinMonth(t *testing.T) {
	svc := services.NewQuotaService(repos.NewQuotaRepo(quotaDB(t)), 10)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	prev := svc.Usage("rapidapi", now)
	for i := 0; i < 5; i++ {
		svc.Acquire("rapidapi", now)
		cur := svc.Usage("rapidapi", now)
		if cur < prev {
			t.Fatalf("usage decreased: %d -> %d", prev, cur)
		}
		prev = cur
	}
}

func TestQuota_MonthRollover(t *testing.T) {
	svc := services.NewQuotaService(repos.NewQuotaRepo(quotaDB(t)), 2)
	aug := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	sep := time.Date(2026, 9, 1, 1, 0, 0, 0, time.UTC)

	svc.Acquire("rapidapi", aug)
	svc.Acquire("rapidapi", aug)
	if svc.Acquire("rapidapi", aug) {
		t.Fatal("august is exhausted")
	}
	if got := svc.Usage("rapidapi", sep); got != 0 {
		t.Fatalf("new month should start at 0, got %d", got)
	}
	if !svc.Acquire("rapidapi", sep) {
		t.Fatal("new month should grant calls again")
	}
}

func TestQuota_SourcesIndependent(t *testing.T) {
	svc := services.NewQuotaService(repos.NewQuotaRepo(quotaDB(t)), 1)
	now := time.Now()

	if !svc.Acquire("vendor-a", now) {
		t.Fatal("first acquire for vendor-a")
	}
	if !svc.Acquire("vendor-b", now) {
		t.Fatal("vendor-b has its own counter")
	}
	if svc.Acquire("vendor-a", now) {
		t.Fatal("vendor-a is exhausted")
	}
}

func TestQuota_FailsClosedWhenStorageGone(t *testing.T) {
	db := quotaDB(t)
	svc := services.NewQuotaService(repos.NewQuotaRepo(db), 5)
	db.Close()

	now := time.Now()
	if svc.CanCall("rapidapi", now) {
		t.Fatal("unreachable storage must read as exhausted, not unlimited")
	}
	if svc.Acquire("rapidapi", now) {
		t.Fatal("acquire must fail when storage is unreachable")
	}
}
