package repos

import (
	"stitchkart/internal/domain"
	"stitchkart/internal/search"

	"github.com/jmoiron/sqlx"
)

// ProductRepo is the CacheStore: read/search/upsert access to the durable
// product catalog.
type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `
  id, source, title, COALESCE(description,'') AS description, category,
  gender, COALESCE(color,'') AS color, price, rating,
  COALESCE(image_url,'') AS image_url, COALESCE(product_url,'') AS product_url,
  COALESCE(content_hash,'') AS content_hash, COALESCE(created_at,'') AS created_at`

// Search applies the matcher's predicate against the catalog.
func (r *ProductRepo) Search(f search.Filter, limit, offset int) ([]domain.ProductRecord, error) {
	where, args := f.Predicate()
	sql := `SELECT` + productColumns + `
  FROM products
  WHERE ` + where + `
  ORDER BY rating DESC, created_at DESC
  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.ProductRecord
	err := r.db.Select(&out, sql, args...)
	return out, err
}

// ListPage returns the unfiltered catalog page used for broad queries.
func (r *ProductRepo) ListPage(limit int) ([]domain.ProductRecord, error) {
	var out []domain.ProductRecord
	err := r.db.Select(&out, `SELECT`+productColumns+`
  FROM products
  ORDER BY rating DESC, created_at DESC
  LIMIT ?`, limit)
	return out, err
}

// Upsert writes a newly fetched record back into the catalog. Duplicate
// (id, source) pairs are ignored, never surfaced as constraint failures:
// concurrent resolutions may write back the same record.
func (r *ProductRepo) Upsert(p domain.ProductRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO products(id, source, title, description, category, gender, color,
		                     price, rating, image_url, product_url, content_hash)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id, source) DO NOTHING
	`, p.ID, p.Source, p.Title, p.Description, p.Category, p.Gender, p.Color,
		p.Price, p.Rating, p.ImageURL, p.ProductURL, p.ContentHash)
	return err
}

// HasContentHash reports whether a record with this de-dup key is already
// in the catalog.
func (r *ProductRepo) HasContentHash(hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM products WHERE content_hash = ?`, hash); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get fetches one record by id, any source.
func (r *ProductRepo) Get(id string) (domain.ProductRecord, error) {
	var p domain.ProductRecord
	err := r.db.Get(&p, `SELECT`+productColumns+` FROM products WHERE id = ? LIMIT 1`, id)
	return p, err
}
