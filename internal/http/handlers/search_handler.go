package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"stitchkart/internal/log"
	"stitchkart/internal/search"
	"stitchkart/internal/services"
	"stitchkart/internal/validate"
)

type SearchHandler struct {
	Resolver *services.ResolverService
}

// Search resolves products from free text (?q=) plus optional explicit
// filter args. Per the error policy, a search request never answers 5xx:
// the resolver degrades through its tiers instead.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := strings.TrimSpace(c.Query("q"))
	q := ""
	if rawQ != "" {
		var ok bool
		if q, ok = validate.Message(rawQ); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a valid query"})
		}
	}

	var explicit search.Filter
	for _, p := range []struct {
		name string
		dst  *string
	}{
		{"category", &explicit.Category},
		{"color", &explicit.Color},
		{"gender", &explicit.Gender},
	} {
		raw := strings.TrimSpace(c.Query(p.name))
		if raw == "" {
			continue
		}
		v, ok := validate.Label(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": p.name})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + p.name})
		}
		*p.dst = v
	}
	maxPrice, ok := validate.Price(c.Query("maxPrice"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid maxPrice"})
	}
	explicit.MaxPrice = maxPrice

	res, err := h.Resolver.Resolve(c.Context(), q, &explicit)
	if err != nil {
		// Storage died even for the static tier; the one case allowed out.
		log.Error(c, "search.error", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "catalog unavailable"})
	}

	log.Info(c, "search.resolved", map[string]any{"tier": res.Tier, "count": len(res.Results)})
	return c.JSON(res)
}
