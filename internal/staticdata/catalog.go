// Package staticdata bundles the offline product dataset used as the
// last fallback tier. It is loaded once at process start and read-only
// thereafter.
package staticdata

import (
	_ "embed"
	"encoding/json"
	"strings"

	"stitchkart/internal/domain"
)

//go:embed products.json
var rawProducts []byte

type Catalog struct {
	records []domain.ProductRecord
}

// Load parses the bundled dataset.
func Load() (*Catalog, error) {
	var recs []domain.ProductRecord
	if err := json.Unmarshal(rawProducts, &recs); err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].Source = "static"
	}
	return &Catalog{records: recs}, nil
}

// Filter returns up to limit records, loosely filtered by category when
// one is given (substring match; an unmatched category falls back to the
// whole set rather than returning nothing).
func (c *Catalog) Filter(category string, limit int) []domain.ProductRecord {
	if limit <= 0 || limit > len(c.records) {
		limit = len(c.records)
	}
	cat := strings.ToLower(strings.TrimSpace(category))
	if cat != "" {
		var out []domain.ProductRecord
		for _, r := range c.records {
			if strings.Contains(strings.ToLower(r.Category), cat) || strings.Contains(cat, strings.ToLower(r.Category)) {
				out = append(out, r)
				if len(out) == limit {
					break
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	out := make([]domain.ProductRecord, limit)
	copy(out, c.records[:limit])
	return out
}

// Len reports the dataset size.
func (c *Catalog) Len() int { return len(c.records) }
