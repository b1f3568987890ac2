// Package responder turns a resolved product set into prose for the chat
// surface. Implementations are pluggable; every one must tolerate an
// empty result list gracefully.
package responder

import (
	"context"
	"fmt"

	"stitchkart/internal/domain"
)

type Request struct {
	RawText string
	Filters domain.ParsedQuery
	Results []domain.ProductRecord
}

type Responder interface {
	Reply(ctx context.Context, req Request) (string, error)
}

// Fallback is the minimal prose used when a responder fails outright.
func Fallback(results []domain.ProductRecord) string {
	if len(results) == 0 {
		return "Sorry, I couldn't find any products matching that. Try a different category or a higher budget."
	}
	return fmt.Sprintf("I found %d options for you — take a look!", len(results))
}
