// Package search builds the SQL predicates applied to the product catalog.
package search

import (
	"strings"

	"stitchkart/internal/domain"
)

// Categories whose names collide as substrings of one another must match
// exactly: "Shirts" would otherwise swallow every "T-shirts" row and
// "Bottom Wear" every "Women's Bottomwear" row. Everything else matches
// by substring. Inherited from the stored data, do not "clean up".
var exactCategories = map[string]bool{
	"shirts":      true,
	"bottom wear": true,
	"tops":        true,
}

// Labels that mean "show everything"; a filter carrying one of these (or
// no category at all) is a broad query.
var genericCategories = map[string]bool{
	"":           true,
	"all":        true,
	"everything": true,
	"anything":   true,
	"clothes":    true,
	"clothing":   true,
	"products":   true,
}

// Filter is the predicate set applied against the catalog. Zero values
// mean "no constraint"; MaxPrice 0 means no ceiling.
type Filter struct {
	Category string
	Color    string
	Gender   string
	MaxPrice float64
}

// FromParsed lifts a ParsedQuery into a Filter.
func FromParsed(q domain.ParsedQuery) Filter {
	return Filter{Category: q.Category, Color: q.Color, Gender: q.Gender, MaxPrice: q.MaxPrice}
}

// Merge overlays non-zero explicit filter args over f. Explicit arguments
// from the API win over values parsed out of free text.
func (f Filter) Merge(explicit Filter) Filter {
	if explicit.Category != "" {
		f.Category = explicit.Category
	}
	if explicit.Color != "" {
		f.Color = explicit.Color
	}
	if explicit.Gender != "" {
		f.Gender = explicit.Gender
	}
	if explicit.MaxPrice > 0 {
		f.MaxPrice = explicit.MaxPrice
	}
	return f
}

// Broad reports whether the filter is effectively "show everything".
func (f Filter) Broad() bool {
	return genericCategories[strings.ToLower(strings.TrimSpace(f.Category))] &&
		f.Color == "" && f.Gender == "" && f.MaxPrice == 0
}

// Empty reports whether no constraint is set at all.
func (f Filter) Empty() bool {
	return f.Category == "" && f.Color == "" && f.Gender == "" && f.MaxPrice == 0
}

// WithoutPrice drops the price ceiling (first widening step).
func (f Filter) WithoutPrice() Filter {
	f.MaxPrice = 0
	return f
}

// CategoryOnly keeps only the category (second widening step).
func (f Filter) CategoryOnly() Filter {
	return Filter{Category: f.Category}
}

// Predicate renders the filter as a WHERE fragment plus bind args for the
// products table. An unconstrained filter renders as a tautology.
func (f Filter) Predicate() (string, []any) {
	var conds []string
	var args []any

	if cat := strings.TrimSpace(f.Category); cat != "" && !genericCategories[strings.ToLower(cat)] {
		lc := strings.ToLower(cat)
		switch {
		case exactCategories[lc]:
			conds = append(conds, "LOWER(category) = ?")
			args = append(args, lc)
		case strings.ContainsAny(lc, "'’"):
			// Stored rows carry either the typographic right single quote
			// or the ASCII apostrophe; match both forms.
			a, b := apostropheForms(lc)
			conds = append(conds, "(LOWER(category) LIKE ? OR LOWER(category) LIKE ?)")
			args = append(args, "%"+a+"%", "%"+b+"%")
		default:
			conds = append(conds, "LOWER(category) LIKE ?")
			args = append(args, "%"+lc+"%")
		}
	}
	if f.Color != "" {
		conds = append(conds, "LOWER(color) = ?")
		args = append(args, strings.ToLower(f.Color))
	}
	if f.Gender != "" {
		conds = append(conds, "LOWER(gender) = ?")
		args = append(args, strings.ToLower(f.Gender))
	}
	if f.MaxPrice > 0 {
		conds = append(conds, "price <= ?")
		args = append(args, f.MaxPrice)
	}
	if len(conds) == 0 {
		return "1=1", nil
	}
	return strings.Join(conds, " AND "), args
}

func apostropheForms(s string) (ascii, typographic string) {
	ascii = strings.ReplaceAll(s, "’", "'")
	typographic = strings.ReplaceAll(ascii, "'", "’")
	return ascii, typographic
}
