package responder

import (
	"context"
	"fmt"
	"strings"
)

// Template is the default responder: deterministic prose built from the
// result set, no external calls.
type Template struct {
	// MaxListed bounds how many items get named in the reply.
	MaxListed int
}

func NewTemplate() *Template { return &Template{MaxListed: 5} }

func (t *Template) Reply(_ context.Context, req Request) (string, error) {
	if len(req.Results) == 0 {
		return "Sorry, I couldn't find any products matching that. Try a different category or a higher budget.", nil
	}

	var b strings.Builder
	subject := "options"
	if req.Filters.Category != "" {
		subject = req.Filters.Category
	}
	fmt.Fprintf(&b, "Here are %d %s I found", len(req.Results), strings.ToLower(subject))
	if req.Filters.MaxPrice > 0 {
		fmt.Fprintf(&b, " under ₹%.0f", req.Filters.MaxPrice)
	}
	b.WriteString(":\n")

	max := t.MaxListed
	if max <= 0 {
		max = 5
	}
	for i, p := range req.Results {
		if i == max {
			fmt.Fprintf(&b, "…and %d more.\n", len(req.Results)-max)
			break
		}
		fmt.Fprintf(&b, "• %s — ₹%.0f (%.1f★)\n", p.Title, p.Price, p.Rating)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
