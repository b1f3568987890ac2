package services

import (
	"context"

	"stitchkart/internal/domain"
	applog "stitchkart/internal/log"
	"stitchkart/internal/query"
	"stitchkart/internal/repos"
	"stitchkart/internal/responder"
)

// ChatService drives one chat turn: classify and parse the message,
// resolve products when it is a search, hand the candidates to the
// responder for prose, and record both turns in the session history.
type ChatService struct {
	Resolver *ResolverService
	Reply    responder.Responder
	History  repos.ConversationStore // may be nil
}

func NewChatService(resolver *ResolverService, reply responder.Responder, history repos.ConversationStore) *ChatService {
	return &ChatService{Resolver: resolver, Reply: reply, History: history}
}

type ChatResult struct {
	Reply    string                 `json:"reply"`
	Intent   domain.Intent          `json:"intent"`
	Tier     domain.Tier            `json:"tier,omitempty"`
	Filters  domain.ParsedQuery     `json:"filtersApplied"`
	Products []domain.ProductRecord `json:"products"`
}

const supportReply = "For shipping, returns, cancellations or payment issues, please email support@stitchkart.test or call 1800-000-111 (9am-6pm IST). I can also help you browse our collection."

const greetingReply = "Hi! I can help you find clothing — try something like \"red kurtis under 1500\" or \"mens jackets\"."

const helpReply = "I can search our catalog for you. Tell me a category, color, gender or budget — for example \"blue shirts for men under 1000\"."

// Handle processes one user message for a session. Only search intents
// touch the resolver; support, greeting and help answer from canned text.
func (s *ChatService) Handle(ctx context.Context, sessionID, message string) (ChatResult, error) {
	s.remember(ctx, sessionID, "user", message)

	parsed := query.Parse(message)
	out := ChatResult{Intent: parsed.Intent, Filters: parsed, Products: []domain.ProductRecord{}}

	switch parsed.Intent {
	case domain.IntentSupport:
		out.Reply = supportReply
	case domain.IntentGreeting:
		out.Reply = greetingReply
	case domain.IntentHelp:
		out.Reply = helpReply
	default:
		resolution, err := s.Resolver.Resolve(ctx, message, nil)
		if err != nil {
			return out, err
		}
		out.Tier = resolution.Tier
		out.Products = resolution.Results
		text, rerr := s.Reply.Reply(ctx, responder.Request{
			RawText: message,
			Filters: parsed,
			Results: resolution.Results,
		})
		if rerr != nil {
			applog.Warn("chat.responder.failed", rerr, nil)
			text = responder.Fallback(resolution.Results)
		}
		out.Reply = text
	}

	s.remember(ctx, sessionID, "assistant", out.Reply)
	return out, nil
}

// remember appends a turn best-effort; a history failure never fails the
// chat itself.
func (s *ChatService) remember(ctx context.Context, sessionID, role, content string) {
	if s.History == nil || sessionID == "" {
		return
	}
	if err := s.History.Append(ctx, sessionID, role, content); err != nil {
		applog.Warn("chat.history.append_failed", err, map[string]any{"session": sessionID})
	}
}
