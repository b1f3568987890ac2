package handlers

import (
	"github.com/gofiber/fiber/v2"

	"stitchkart/internal/log"
	"stitchkart/internal/services"
	"stitchkart/internal/validate"
)

type ChatHandler struct {
	Chat *services.ChatService
}

// Page serves the chat UI.
func (h *ChatHandler) Page(c *fiber.Ctx) error {
	return render(c, "chat", fiber.Map{})
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Message handles one chat turn. Search failures never surface as 5xx:
// the worst the caller sees is an apologetic reply with no products.
func (h *ChatHandler) Message(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	msg, ok := validate.Message(req.Message)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "message"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a message"})
	}

	// API clients may carry their own session id; browser sessions ride
	// the sid cookie.
	sid, ok := validate.SessionID(req.SessionID)
	if !ok {
		sid = ensureSID(c)
	}
	result, err := h.Chat.Handle(c.Context(), sid, msg)
	if err != nil {
		log.Error(c, "chat.handle.error", err, nil)
		return c.JSON(fiber.Map{
			"reply":    "Sorry, I couldn't find any products right now. Please try again.",
			"intent":   "search",
			"products": []any{},
		})
	}

	log.Info(c, "chat.turn", map[string]any{
		"intent": result.Intent, "tier": result.Tier, "count": len(result.Products),
	})
	return c.JSON(result)
}
