// Package normalize coerces the inconsistent payload shapes of external
// marketplaces into canonical ProductRecord fields. Every function is
// total: malformed input produces a best-effort default, never a panic.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

// Price band considered plausible for a single clothing item (in rupees).
// Values scaled outside it are assumed mis-scaled upstream. This is a
// documented lossy heuristic, not a guarantee of fidelity to the source.
const (
	priceScaleLow  = 5.0
	priceScaleHigh = 100000.0
	priceBandMin   = 20.0
	priceBandMax   = 50000.0
	priceSubMin    = 499
	priceSubMax    = 2999
)

var nonPriceChars = regexp.MustCompile(`[^0-9.]`)

// Price converts a raw vendor price (number, currency-prefixed string, or
// {value, currency} object) into a canonical positive decimal.
func Price(raw any) float64 {
	return PriceWith(nil, raw)
}

// PriceWith is Price with an injectable randomness source, so callers that
// need deterministic behavior (tests) can seed it. A nil rng uses the
// global source.
func PriceWith(rng *rand.Rand, raw any) float64 {
	v, ok := toFloat(raw)
	if !ok || v <= 0 {
		return substitute(rng)
	}
	// Sub-5 prices are assumed mis-scaled by a factor of ten.
	if v < priceScaleLow {
		v *= 10
	}
	// Six-digit-plus prices come from vendors quoting paise or bundles.
	if v > priceScaleHigh {
		if v > priceScaleHigh*5 {
			v /= 100
		} else {
			v /= 10
		}
	}
	if v < priceBandMin || v > priceBandMax {
		return substitute(rng)
	}
	return round2(v)
}

// Rating coerces a raw rating into [1.0, 5.0], defaulting to 4.0.
func Rating(raw any) float64 {
	v, ok := toFloat(raw)
	if !ok || v <= 0 {
		return 4.0
	}
	if v < 1.0 {
		v = 1.0
	}
	if v > 5.0 {
		v = 5.0
	}
	return round2(v)
}

func substitute(rng *rand.Rand) float64 {
	if rng != nil {
		return float64(priceSubMin + rng.Intn(priceSubMax-priceSubMin))
	}
	return float64(priceSubMin + rand.Intn(priceSubMax-priceSubMin))
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// toFloat accepts the shapes vendors actually send: numbers, numeric
// strings with currency symbols, json.Number, and {value: ...} objects.
func toFloat(raw any) (float64, bool) {
	switch t := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		v, err := t.Float64()
		return v, err == nil
	case string:
		s := nonPriceChars.ReplaceAllString(t, "")
		// "Rs. 45" leaves a leading dot behind after stripping.
		s = strings.TrimLeft(s, ".")
		if s == "" {
			return 0, false
		}
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	case map[string]any:
		for _, k := range []string{"value", "amount", "current", "raw"} {
			if inner, ok := t[k]; ok {
				if v, ok := toFloat(inner); ok {
					return v, true
				}
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// Keyword sets checked in fixed precedence order; the first set with a hit
// wins, so a title naming both women and men resolves to women. That is
// the tie-break rule, not a bug.
var genderSets = []struct {
	label string
	words []string
}{
	{"women", []string{"women", "woman", "womens", "ladies", "lady", "female", "her "}},
	{"men", []string{"men", "man", "mens", "male", "gentleman", "gents"}},
	{"kids", []string{"kids", "kid", "boys", "girls", "children", "child", "toddler", "infant"}},
}

// DetectGender classifies a product as women/men/kids/unisex from its
// title and description.
func DetectGender(title, description string) string {
	text := strings.ToLower(title + " " + description)
	for _, set := range genderSets {
		for _, w := range set.words {
			if strings.Contains(text, w) {
				return set.label
			}
		}
	}
	return "unisex"
}

var colorTable = []struct {
	label    string
	variants []string
}{
	{"black", []string{"black"}},
	{"white", []string{"white", "ivory", "off-white"}},
	{"red", []string{"red", "crimson", "scarlet"}},
	{"blue", []string{"navy", "blue"}},
	{"green", []string{"green", "olive"}},
	{"yellow", []string{"yellow", "mustard"}},
	{"pink", []string{"pink", "rose"}},
	{"purple", []string{"purple", "violet", "lavender"}},
	{"orange", []string{"orange"}},
	{"grey", []string{"grey", "gray", "charcoal"}},
	{"brown", []string{"brown", "tan", "khaki"}},
	{"beige", []string{"beige", "cream"}},
	{"maroon", []string{"maroon", "burgundy", "wine"}},
}

// DetectColor returns the canonical color named in the text, or "" when
// none is recognized. Table order decides ties.
func DetectColor(title, description string) string {
	text := strings.ToLower(title + " " + description)
	for _, c := range colorTable {
		for _, v := range c.variants {
			if strings.Contains(text, v) {
				return c.label
			}
		}
	}
	return ""
}

// Marketplace search results mix apparel with everything else the vendor
// sells. An excluded keyword anywhere disqualifies the item even if an
// apparel keyword is also present.
var clothingExclude = []string{
	"phone", "mobile", "laptop", "tablet", "headphone", "earbud", "charger",
	"camera", "television", " tv ", "speaker", "smartwatch", "console",
	"sofa", "furniture", "cookware", "utensil", "mug", "lamp", "curtain",
	"mattress", "detergent", "shampoo", "perfume", "chocolate", "coffee",
	"snack", "grocery", "vitamin", "book", "toy car", "puzzle",
}

var clothingInclude = []string{
	"t-shirt", "tshirt", "shirt", "jeans", "denim", "dress", "gown", "kurta",
	"kurti", "saree", "sari", "lehenga", "trouser", "pant", "chino", "jacket",
	"hoodie", "sweatshirt", "sweater", "blazer", "coat", "top", "blouse",
	"skirt", "shorts", "leggings", "palazzo", "dupatta", "nightwear",
	"innerwear", "apparel", "clothing", "wear", "fashion", "outfit",
}

// IsClothingItem reports whether a fetched item belongs in the catalog.
func IsClothingItem(title, description string) bool {
	text := " " + strings.ToLower(title+" "+description) + " "
	for _, w := range clothingExclude {
		if strings.Contains(text, w) {
			return false
		}
	}
	for _, w := range clothingInclude {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

var nonTitleChars = regexp.MustCompile(`[^a-z0-9 ]+`)
var multiSpace = regexp.MustCompile(`\s+`)

// ContentHash builds a stable de-duplication key from title, price and
// brand. Punctuation and casing differences in the title do not change it.
func ContentHash(title string, price float64, brand string) string {
	t := strings.ToLower(title)
	t = nonTitleChars.ReplaceAllString(t, "")
	t = multiSpace.ReplaceAllString(strings.TrimSpace(t), " ")
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%.2f|%s", t, price, strings.ToLower(strings.TrimSpace(brand)))))
	return hex.EncodeToString(sum[:])[:16]
}
