package services

import (
	"context"
	"time"

	applog "stitchkart/internal/log"

	"stitchkart/internal/domain"
	"stitchkart/internal/query"
	"stitchkart/internal/repos"
	"stitchkart/internal/search"
	"stitchkart/internal/staticdata"
)

// Fetcher is the outbound marketplace search call.
type Fetcher interface {
	Search(ctx context.Context, q, category string) ([]domain.ProductRecord, error)
}

// ResolverService answers "give me products matching this request" by
// walking the tiers: catalog first, external vendor while quota lasts,
// bundled static dataset as the unconditional last resort. It never
// errors for "no results".
type ResolverService struct {
	Products *repos.ProductRepo
	Quota    *QuotaService
	Vendor   Fetcher // nil disables the external tier
	Static   *staticdata.Catalog
	Source   string // quota bucket / record source for the vendor
	PageSize int
	Now      func() time.Time
}

func NewResolverService(products *repos.ProductRepo, quota *QuotaService, vendor Fetcher, static *staticdata.Catalog, source string) *ResolverService {
	return &ResolverService{
		Products: products,
		Quota:    quota,
		Vendor:   vendor,
		Static:   static,
		Source:   source,
		PageSize: 24,
		Now:      time.Now,
	}
}

// Resolve parses rawText, overlays any explicit filter args, and walks
// the fallback chain. The only error it can return is a storage failure
// that survived all the way through the static tier, which cannot happen
// with the bundled dataset present.
func (s *ResolverService) Resolve(ctx context.Context, rawText string, explicit *search.Filter) (domain.Resolution, error) {
	parsed := query.Parse(rawText)
	f := search.FromParsed(parsed)
	if explicit != nil {
		f = f.Merge(*explicit)
	}
	return s.resolve(ctx, parsed, f, rawText), nil
}

// ResolveFilter runs the chain for an already-built filter (API callers
// passing structured args without free text).
func (s *ResolverService) ResolveFilter(ctx context.Context, f search.Filter) domain.Resolution {
	parsed := domain.ParsedQuery{
		Intent:   domain.IntentSearch,
		Category: f.Category,
		Color:    f.Color,
		Gender:   f.Gender,
		MaxPrice: f.MaxPrice,
	}
	return s.resolve(ctx, parsed, f, f.Category)
}

func (s *ResolverService) resolve(ctx context.Context, parsed domain.ParsedQuery, f search.Filter, queryText string) domain.Resolution {
	res := domain.Resolution{FiltersApplied: parsed, Results: []domain.ProductRecord{}}

	// Broad queries skip straight to "return what we have": a deliberate
	// UX shortcut, not a bug.
	if f.Broad() {
		page, err := s.Products.ListPage(s.PageSize)
		if err == nil && len(page) > 0 {
			res.Results, res.Tier = page, domain.TierCache
			return res
		}
		if err != nil {
			applog.Warn("resolver.cache.page_failed", err, nil)
		}
		return s.staticTier(res, f.Category)
	}

	// Tier 1: fully filtered catalog lookup.
	found, err := s.Products.Search(f, s.PageSize, 0)
	if err != nil {
		applog.Warn("resolver.cache.search_failed", err, nil)
		return s.staticTier(res, f.Category)
	}
	if len(found) > 0 {
		res.Results, res.Tier = found, domain.TierCache
		return res
	}

	// Tier 2: external fetch, gated by an atomic quota acquire. The slot
	// is consumed whether or not the vendor answers; that keeps the
	// ceiling hard under concurrency.
	if s.Vendor != nil && s.Quota.Acquire(s.Source, s.Now()) {
		term := queryText
		if term == "" {
			term = f.Category
		}
		fetched, ferr := s.Vendor.Search(ctx, term, f.Category)
		if ferr != nil {
			// Vendor failure is identical to an empty result set.
			applog.Warn("resolver.vendor.fetch_failed", ferr, nil)
		}
		if len(fetched) > 0 {
			for _, rec := range fetched {
				if uerr := s.Products.Upsert(rec); uerr != nil {
					applog.Warn("resolver.writeback.skip", uerr, map[string]any{"id": rec.ID})
				}
			}
			if again, rerr := s.Products.Search(f, s.PageSize, 0); rerr == nil && len(again) > 0 {
				res.Results, res.Tier = again, domain.TierExternal
				return res
			}
		}
	}

	// Tier 3: widen before giving up — drop the price ceiling, then keep
	// only the category.
	if f.MaxPrice > 0 {
		if wider, werr := s.Products.Search(f.WithoutPrice(), s.PageSize, 0); werr == nil && len(wider) > 0 {
			res.Results, res.Tier = wider, domain.TierCache
			return res
		}
	}
	if f.Category != "" {
		if wider, werr := s.Products.Search(f.CategoryOnly(), s.PageSize, 0); werr == nil && len(wider) > 0 {
			res.Results, res.Tier = wider, domain.TierCache
			return res
		}
	}

	return s.staticTier(res, f.Category)
}

func (s *ResolverService) staticTier(res domain.Resolution, category string) domain.Resolution {
	res.Tier = domain.TierStatic
	if s.Static != nil {
		res.Results = s.Static.Filter(category, s.PageSize)
	}
	return res
}
