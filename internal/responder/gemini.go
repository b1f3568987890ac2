package responder

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini generates the reply with a Gemini model, falling back to the
// template responder whenever the API call fails. The model only ever
// sees products the resolver already selected; it never picks products
// itself.
type Gemini struct {
	client   *genai.Client
	model    string
	fallback Responder
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{client: client, model: model, fallback: NewTemplate()}, nil
}

func (g *Gemini) Reply(ctx context.Context, req Request) (string, error) {
	prompt := buildPrompt(req)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return g.fallback.Reply(ctx, req)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return g.fallback.Reply(ctx, req)
	}
	return text, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are a friendly shopping assistant for a clothing store. ")
	b.WriteString("Answer the customer in 2-3 short sentences, mentioning only the products listed below. ")
	b.WriteString("If the list is empty, apologise briefly and suggest widening the search. Prices are in rupees.\n\n")
	fmt.Fprintf(&b, "Customer message: %s\n\nProducts:\n", req.RawText)
	for _, p := range req.Results {
		fmt.Fprintf(&b, "- %s | ₹%.0f | rating %.1f | %s\n", p.Title, p.Price, p.Rating, p.Category)
	}
	return b.String()
}
