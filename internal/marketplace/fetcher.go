// Package marketplace is the client for the paid third-party search API.
// The vendor's response schema is not contractually fixed, so the client
// probes several plausible envelope shapes and per-field key spellings.
package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stitchkart/internal/domain"
	"stitchkart/internal/normalize"
)

// ErrVendorUnavailable marks an HTTP failure or timeout from the vendor.
// Callers treat it exactly like an empty result set.
var ErrVendorUnavailable = errors.New("marketplace: vendor unavailable")

// HashIndex answers whether a de-dup key is already in the catalog.
type HashIndex interface {
	HasContentHash(hash string) (bool, error)
}

type Client struct {
	BaseURL    string
	APIKey     string
	APIHost    string
	SourceName string
	HTTP       *http.Client
	Hashes     HashIndex // may be nil
	RetryWait  time.Duration

	// test hook; defaults to time.Sleep
	sleep func(time.Duration)
}

func NewClient(baseURL, apiKey, apiHost, sourceName string, timeout time.Duration, hashes HashIndex) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		APIHost:    apiHost,
		SourceName: sourceName,
		HTTP:       &http.Client{Timeout: timeout},
		Hashes:     hashes,
		RetryWait:  2 * time.Second,
		sleep:      time.Sleep,
	}
}

// Per-attribute key spellings in probe order; vendors disagree on names.
var (
	idKeys     = []string{"id", "product_id", "productId", "asin", "sku"}
	titleKeys  = []string{"title", "name", "product_name", "product_title"}
	priceKeys  = []string{"price", "current_price", "selling_price", "sale_price", "mrp"}
	imageKeys  = []string{"image", "image_url", "imageUrl", "thumbnail", "img", "main_image"}
	ratingKeys = []string{"rating", "stars", "average_rating", "product_star_rating"}
	descKeys   = []string{"description", "desc", "short_description", "about"}
	urlKeys    = []string{"url", "product_url", "link", "product_link"}
	brandKeys  = []string{"brand", "brand_name", "seller", "manufacturer"}
)

// Search issues one GET against the vendor search endpoint and returns
// normalized, de-duplicated clothing records. The caller must already
// hold a quota slot. A non-429 HTTP failure yields an empty slice and
// ErrVendorUnavailable; malformed items are skipped one by one.
func (c *Client) Search(ctx context.Context, query, category string) ([]domain.ProductRecord, error) {
	body, err := c.get(ctx, query, category)
	if err != nil {
		return nil, err
	}

	items := probeEnvelope(body)
	if len(items) == 0 {
		return nil, nil
	}

	seen := map[string]bool{}
	var out []domain.ProductRecord
	for _, item := range items {
		rec, ok := c.normalizeItem(item)
		if !ok {
			continue
		}
		if seen[rec.ContentHash] {
			continue
		}
		if c.Hashes != nil {
			if dup, err := c.Hashes.HasContentHash(rec.ContentHash); err == nil && dup {
				continue
			}
		}
		seen[rec.ContentHash] = true
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, query, category string) ([]byte, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVendorUnavailable, err)
	}
	q := u.Query()
	q.Set("q", query)
	if category != "" {
		q.Set("category", category)
	}
	u.RawQuery = q.Encode()

	retried := false
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVendorUnavailable, err)
		}
		req.Header.Set("X-RapidAPI-Key", c.APIKey)
		req.Header.Set("X-RapidAPI-Host", c.APIHost)

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVendorUnavailable, err)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVendorUnavailable, err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests && !retried:
			retried = true
			c.sleep(c.RetryWait)
			continue
		default:
			return nil, fmt.Errorf("%w: status %d", ErrVendorUnavailable, resp.StatusCode)
		}
	}
}

// probeEnvelope tries, in order, the list keys vendors wrap results in,
// plus one level of nesting under each, and returns the first non-empty
// list found.
func probeEnvelope(body []byte) []map[string]any {
	var root map[string]any
	if err := json.Unmarshal(body, &root); err != nil {
		// Some vendors return a bare array.
		var arr []map[string]any
		if err := json.Unmarshal(body, &arr); err == nil {
			return arr
		}
		return nil
	}

	listKeys := []string{"products", "results", "items", "data"}
	if items := listAt(root, listKeys); items != nil {
		return items
	}
	// One level of nesting: data.products, results.items, ...
	for _, outer := range listKeys {
		if inner, ok := root[outer].(map[string]any); ok {
			if items := listAt(inner, listKeys); items != nil {
				return items
			}
		}
	}
	return nil
}

func listAt(node map[string]any, keys []string) []map[string]any {
	for _, k := range keys {
		raw, ok := node[k].([]any)
		if !ok || len(raw) == 0 {
			continue
		}
		var items []map[string]any
		for _, el := range raw {
			if m, ok := el.(map[string]any); ok {
				items = append(items, m)
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return nil
}

// normalizeItem maps one raw vendor item onto the canonical record shape.
// Items without a usable title, and non-clothing items, are dropped.
func (c *Client) normalizeItem(item map[string]any) (domain.ProductRecord, bool) {
	title := firstString(item, titleKeys)
	if title == "" {
		return domain.ProductRecord{}, false
	}
	desc := firstString(item, descKeys)
	if !normalize.IsClothingItem(title, desc) {
		return domain.ProductRecord{}, false
	}

	price := normalize.Price(firstValue(item, priceKeys))
	brand := firstString(item, brandKeys)
	hash := normalize.ContentHash(title, price, brand)

	id := firstString(item, idKeys)
	if id == "" {
		id = hash
	}

	return domain.ProductRecord{
		ID:          id,
		Source:      c.SourceName,
		Title:       title,
		Description: desc,
		Category:    firstString(item, []string{"category", "category_name", "product_category"}),
		Gender:      normalize.DetectGender(title, desc),
		Color:       normalize.DetectColor(title, desc),
		Price:       price,
		Rating:      normalize.Rating(firstValue(item, ratingKeys)),
		ImageURL:    firstString(item, imageKeys),
		ProductURL:  firstString(item, urlKeys),
		ContentHash: hash,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}, true
}

// firstValue returns the first present value among the candidate keys.
func firstValue(item map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := item[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstString is firstValue restricted to non-empty strings (numbers are
// stringified, since some vendors send numeric ids).
func firstString(item map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := item[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
