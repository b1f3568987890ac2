// Package query turns free-text shopping requests into structured filters.
// Extraction is deterministic: fixed tables scanned in fixed order, first
// match wins at every step.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"stitchkart/internal/domain"
	"stitchkart/internal/normalize"
)

// Support keywords short-circuit everything else: a message about an order
// or a policy never gets product filters extracted from it.
var supportKeywords = []string{
	"shipping", "delivery", "return", "refund", "exchange", "cancel",
	"payment", "track", "order status", "policy", "complaint", "contact",
	"warranty", "replace", "invoice",
}

var greetingPhrases = []string{
	"hi", "hello", "hey", "yo", "namaste", "good morning", "good afternoon",
	"good evening", "greetings",
}

var searchKeywords = []string{
	"show", "find", "search", "looking for", "want", "need", "buy", "shop",
	"browse", "suggest", "recommend", "under", "price", "cheap", "budget",
}

// Combined gender+category phrases, checked before the per-category table.
// A hit sets the category directly; the gender field is still filled by the
// independent gender scan over the raw text.
var combinedPhrases = []struct {
	phrase   string
	category string
}{
	{"mens t-shirt", "T-shirts"},
	{"men's t-shirt", "T-shirts"},
	{"mens tshirt", "T-shirts"},
	{"womens t-shirt", "T-shirts"},
	{"mens shirt", "Shirts"},
	{"men's shirt", "Shirts"},
	{"mens jeans", "Jeans"},
	{"men's jeans", "Jeans"},
	{"womens dress", "Dresses"},
	{"women's dress", "Dresses"},
	{"ladies dress", "Dresses"},
	{"womens kurti", "Kurtas"},
	{"women's kurti", "Kurtas"},
	{"womens top", "Tops"},
	{"women's top", "Tops"},
	{"womens saree", "Sarees"},
	{"women's saree", "Sarees"},
	{"kids wear", "Kids Wear"},
	{"boys t-shirt", "T-shirts"},
	{"girls dress", "Dresses"},
}

// Canonical category -> surface-form variants. Order matters: T-shirts
// sits above Shirts and Women's Bottomwear above Bottom Wear so the more
// specific label wins the substring scan.
var categoryTable = []struct {
	category string
	variants []string
}{
	{"T-shirts", []string{"t-shirt", "t shirt", "tshirt", "tee"}},
	{"Shirts", []string{"shirt"}},
	{"Dresses", []string{"dress", "gown", "frock"}},
	{"Jeans", []string{"jeans", "denim"}},
	{"Kurtas", []string{"kurta", "kurti"}},
	{"Sarees", []string{"saree", "sari"}},
	{"Women's Bottomwear", []string{"women's bottomwear", "womens bottomwear", "leggings", "palazzo"}},
	{"Bottom Wear", []string{"bottom wear", "bottomwear", "bottoms"}},
	{"Trousers", []string{"trouser", "pants", "chinos"}},
	{"Jackets", []string{"jacket", "hoodie", "sweatshirt", "blazer", "sweater", "coat"}},
	{"Shorts", []string{"shorts"}},
	{"Skirts", []string{"skirt"}},
	{"Ethnic Wear", []string{"lehenga", "ethnic", "dupatta"}},
	{"Kids Wear", []string{"kids wear", "kidswear"}},
	{"Tops", []string{"top", "blouse"}},
	{"Footwear", []string{"shoes", "shoe", "sneaker", "sandal", "footwear", "heels"}},
}

var genderTable = []struct {
	gender   string
	variants []string
}{
	{"women", []string{"women", "womens", "woman", "ladies", "female", "for her"}},
	{"men", []string{"men", "mens", "man", "male", "for him", "gents"}},
	{"kids", []string{"kids", "kid", "boys", "girls", "children"}},
}

// Explicit price-ceiling phrases, tried in order; the bare-number fallback
// below only fires when none of these match.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`under\s*(?:rs\.?|₹)?\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`below\s*(?:rs\.?|₹)?\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`up\s*to\s*(?:rs\.?|₹)?\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`within\s*(?:rs\.?|₹)?\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`less\s+than\s*(?:rs\.?|₹)?\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`budget\s*(?:of|is)?\s*(?:rs\.?|₹)?\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`₹\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`rs\.?\s*([0-9][0-9,]*)`),
	regexp.MustCompile(`([0-9][0-9,]*)\s*rupees`),
}

// Bare 3-5 digit numbers are accepted as a ceiling only inside this band.
// Known false-positive risk: an id or style code in the band will be read
// as a price.
var bareNumber = regexp.MustCompile(`\b([0-9]{3,5})\b`)

const (
	bareNumberMin = 100
	bareNumberMax = 50000
)

// Parse extracts a ParsedQuery from arbitrary user text.
func Parse(text string) domain.ParsedQuery {
	t := strings.ToLower(strings.TrimSpace(text))
	q := domain.ParsedQuery{Intent: classifyIntent(t)}
	if q.Intent == domain.IntentSupport || q.Intent == domain.IntentGreeting {
		return q
	}
	q.Category = extractCategory(t)
	q.Color = normalize.DetectColor(t, "")
	q.Gender = extractGender(t)
	q.MaxPrice = extractMaxPrice(t)
	return q
}

func classifyIntent(t string) domain.Intent {
	for _, k := range supportKeywords {
		if strings.Contains(t, k) {
			return domain.IntentSupport
		}
	}
	if isGreeting(t) {
		return domain.IntentGreeting
	}
	for _, k := range searchKeywords {
		if strings.Contains(t, k) {
			return domain.IntentSearch
		}
	}
	// Naming a category, color or gender is enough to count as a search.
	if extractCategory(t) != "" || normalize.DetectColor(t, "") != "" || extractGender(t) != "" {
		return domain.IntentSearch
	}
	return domain.IntentHelp
}

// Greetings are short: at most three tokens. Single-word greetings must
// match a whole token, not a substring ("shirt" contains "hi").
func isGreeting(t string) bool {
	toks := strings.Fields(t)
	if len(toks) == 0 || len(toks) > 3 {
		return false
	}
	for _, g := range greetingPhrases {
		if strings.Contains(g, " ") {
			if strings.Contains(t, g) {
				return true
			}
			continue
		}
		for _, tok := range toks {
			if strings.Trim(tok, "!.,?") == g {
				return true
			}
		}
	}
	return false
}

func extractCategory(t string) string {
	for _, cp := range combinedPhrases {
		if strings.Contains(t, cp.phrase) {
			return cp.category
		}
	}
	for _, row := range categoryTable {
		for _, v := range row.variants {
			if strings.Contains(t, v) {
				return row.category
			}
		}
	}
	return ""
}

func extractGender(t string) string {
	for _, row := range genderTable {
		for _, v := range row.variants {
			if strings.Contains(t, v) {
				return row.gender
			}
		}
	}
	return ""
}

func extractMaxPrice(t string) float64 {
	for _, re := range pricePatterns {
		if m := re.FindStringSubmatch(t); m != nil {
			if v := parseAmount(m[1]); v > 0 {
				return v
			}
		}
	}
	if m := bareNumber.FindStringSubmatch(t); m != nil {
		if v := parseAmount(m[1]); v >= bareNumberMin && v <= bareNumberMax {
			return v
		}
	}
	return 0
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
