package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"stitchkart/internal/domain"
	"stitchkart/internal/repos"
	"stitchkart/internal/search"
	"stitchkart/internal/services"
	"stitchkart/internal/staticdata"
)

func pipelineDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	schema := `
	CREATE TABLE products(
	  id TEXT NOT NULL, source TEXT NOT NULL DEFAULT 'cache',
	  title TEXT NOT NULL, description TEXT DEFAULT '',
	  category TEXT NOT NULL, gender TEXT NOT NULL DEFAULT 'unisex',
	  color TEXT DEFAULT '', price NUMERIC NOT NULL,
	  rating NUMERIC NOT NULL DEFAULT 4.0,
	  image_url TEXT DEFAULT '', product_url TEXT DEFAULT '',
	  content_hash TEXT DEFAULT '', created_at TEXT DEFAULT CURRENT_TIMESTAMP,
	  PRIMARY KEY(id, source)
	);
	CREATE TABLE api_quota(
	  source_name TEXT NOT NULL, month_key TEXT NOT NULL,
	  request_count INTEGER NOT NULL DEFAULT 0, last_request_at TEXT,
	  PRIMARY KEY(source_name, month_key)
	);
	CREATE TABLE conversation_messages(
	  id TEXT PRIMARY KEY, session_id TEXT NOT NULL,
	  role TEXT NOT NULL, content TEXT NOT NULL,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

func seedProduct(t *testing.T, db *sqlx.DB, id, title, category, gender, color string, price float64) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO products(id,title,category,gender,color,price,content_hash)
		VALUES (?,?,?,?,?,?,?)`, id, title, category, gender, color, price, "hash-"+id)
	if err != nil {
		t.Fatal(err)
	}
}

func newResolver(t *testing.T, db *sqlx.DB, vendor services.Fetcher, limit int) *services.ResolverService {
	t.Helper()
	static, err := staticdata.Load()
	if err != nil {
		t.Fatal(err)
	}
	products := repos.NewProductRepo(db)
	quota := services.NewQuotaService(repos.NewQuotaRepo(db), limit)
	return services.NewResolverService(products, quota, vendor, static, "rapidapi")
}

type stubFetcher struct {
	recs  []domain.ProductRecord
	err   error
	calls int
}

func (s *stubFetcher) Search(_ context.Context, _, _ string) ([]domain.ProductRecord, error) {
	s.calls++
	return s.recs, s.err
}

func TestResolve_ShirtDoesNotMatchTshirt(t *testing.T) {
	db := pipelineDB(t)
	seedProduct(t, db, "p1", "Blue Slim Fit Shirt", "Shirts", "men", "blue", 799)
	seedProduct(t, db, "p2", "Blue Graphic T-shirt", "T-shirts", "men", "blue", 599)
	r := newResolver(t, db, nil, 10)

	res, err := r.Resolve(context.Background(), "blue shirts for men under 1000", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tier != domain.TierCache {
		t.Fatalf("tier = %q, want cache", res.Tier)
	}
	if len(res.Results) != 1 || res.Results[0].ID != "p1" {
		t.Fatalf("want only the 799 shirt, got %+v", res.Results)
	}
	if res.FiltersApplied.Category != "Shirts" || res.FiltersApplied.Gender != "men" ||
		res.FiltersApplied.Color != "blue" || res.FiltersApplied.MaxPrice != 1000 {
		t.Fatalf("filters = %+v", res.FiltersApplied)
	}
}

func TestResolve_BroadQueryReturnsCachePage(t *testing.T) {
	db := pipelineDB(t)
	seedProduct(t, db, "p1", "Blue Slim Fit Shirt", "Shirts", "men", "blue", 799)
	seedProduct(t, db, "p2", "Red Midi Dress", "Dresses", "women", "red", 1899)
	seedProduct(t, db, "p3", "Olive Cargo Trousers", "Trousers", "men", "green", 1399)
	r := newResolver(t, db, nil, 10)

	res, err := r.Resolve(context.Background(), "show me some products", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tier != domain.TierCache || len(res.Results) != 3 {
		t.Fatalf("tier=%q len=%d, want cache page of 3", res.Tier, len(res.Results))
	}
}

func TestResolve_VendorWritebackThenCacheHit(t *testing.T) {
	db := pipelineDB(t)
	vendor := &stubFetcher{recs: []domain.ProductRecord{{
		ID: "v1", Source: "rapidapi", Title: "Banarasi Silk Saree",
		Category: "Sarees", Gender: "women", Price: 1499, Rating: 4.2,
		ContentHash: "vh1",
	}}}
	r := newResolver(t, db, vendor, 5)

	res, err := r.Resolve(context.Background(), "sarees under 2000", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tier != domain.TierExternal {
		t.Fatalf("tier = %q, want external", res.Tier)
	}
	if len(res.Results) != 1 || res.Results[0].ID != "v1" {
		t.Fatalf("got %+v", res.Results)
	}
	if got := r.Quota.Usage("rapidapi", time.Now()); got != 1 {
		t.Fatalf("usage = %d, want 1", got)
	}

	// The write-back makes the second resolution a cache hit: no second
	// vendor call, no second quota slot.
	res, err = r.Resolve(context.Background(), "sarees under 2000", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tier != domain.TierCache || len(res.Results) != 1 {
		t.Fatalf("second resolve: tier=%q len=%d", res.Tier, len(res.Results))
	}
	if vendor.calls != 1 {
		t.Fatalf("vendor called %d times, want 1", vendor.calls)
	}
	if got := r.Quota.Usage("rapidapi", time.Now()); got != 1 {
		t.Fatalf("usage after cache hit = %d, want 1", got)
	}
}

func TestResolve_QuotaExhaustedSkipsVendor(t *testing.T) {
	db := pipelineDB(t)
	vendor := &stubFetcher{recs: []domain.ProductRecord{{
		ID: "v1", Source: "rapidapi", Title: "Banarasi Silk Saree",
		Category: "Sarees", Gender: "women", Price: 450, ContentHash: "vh1",
	}}}
	r := newResolver(t, db, vendor, 1)
	if !r.Quota.Acquire("rapidapi", time.Now()) {
		t.Fatal("setup: could not burn the only slot")
	}

	res, err := r.Resolve(context.Background(), "sarees under 500", nil)
	if err != nil {
		t.Fatal(err)
	}
	if vendor.calls != 0 {
		t.Fatal("vendor must not be called with no quota left")
	}
	if res.Tier != domain.TierStatic || len(res.Results) == 0 {
		t.Fatalf("tier=%q len=%d, want non-empty static", res.Tier, len(res.Results))
	}
}

func TestResolve_VendorFailureStillConsumesSlot(t *testing.T) {
	db := pipelineDB(t)
	vendor := &stubFetcher{err: context.DeadlineExceeded}
	r := newResolver(t, db, vendor, 5)

	res, err := r.Resolve(context.Background(), "sarees under 500", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tier != domain.TierStatic {
		t.Fatalf("tier = %q, want static after vendor failure", res.Tier)
	}
	if got := r.Quota.Usage("rapidapi", time.Now()); got != 1 {
		t.Fatalf("usage = %d, want 1: the slot is spent on the attempt", got)
	}
}

func TestResolve_WidensPriceBeforeStatic(t *testing.T) {
	db := pipelineDB(t)
	seedProduct(t, db, "p1", "Linen Shirt", "Shirts", "men", "white", 1500)
	r := newResolver(t, db, nil, 10)

	res, err := r.Resolve(context.Background(), "shirts under 1000", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tier != domain.TierCache {
		t.Fatalf("tier = %q, want cache via widening", res.Tier)
	}
	if len(res.Results) != 1 || res.Results[0].Price != 1500 {
		t.Fatalf("widening should surface the 1500 shirt, got %+v", res.Results)
	}
}

func TestResolve_StorageFailureFallsToStatic(t *testing.T) {
	db := pipelineDB(t)
	r := newResolver(t, db, nil, 10)
	db.Close()

	res, err := r.Resolve(context.Background(), "red dresses", nil)
	if err != nil {
		t.Fatalf("resolution must never error: %v", err)
	}
	if res.Tier != domain.TierStatic || len(res.Results) == 0 {
		t.Fatalf("tier=%q len=%d, want non-empty static", res.Tier, len(res.Results))
	}
}

func TestResolve_ExplicitFilterWinsOverParsed(t *testing.T) {
	db := pipelineDB(t)
	seedProduct(t, db, "p1", "Blue Slim Fit Shirt", "Shirts", "men", "blue", 799)
	seedProduct(t, db, "p2", "White Oxford Shirt", "Shirts", "men", "white", 899)
	r := newResolver(t, db, nil, 10)

	res, err := r.Resolve(context.Background(), "blue shirts", &search.Filter{Color: "white"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Results) != 1 || res.Results[0].ID != "p2" {
		t.Fatalf("explicit color must override parsed color, got %+v", res.Results)
	}
}

func TestResolveFilter_StructuredArgs(t *testing.T) {
	db := pipelineDB(t)
	seedProduct(t, db, "p1", "Red Midi Dress", "Dresses", "women", "red", 1899)
	seedProduct(t, db, "p2", "Red Maxi Dress", "Dresses", "women", "red", 2499)
	r := newResolver(t, db, nil, 10)

	res := r.ResolveFilter(context.Background(), search.Filter{Category: "Dresses", MaxPrice: 2000})
	if res.Tier != domain.TierCache || len(res.Results) != 1 || res.Results[0].ID != "p1" {
		t.Fatalf("tier=%q results=%+v", res.Tier, res.Results)
	}
}
