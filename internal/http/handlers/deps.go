package handlers

import (
	"stitchkart/internal/services"
)

// Deps groups the route handlers. Services are constructed and injected
// by the process entry point; nothing here owns a lifecycle.
type Deps struct {
	ChatHandler   *ChatHandler
	SearchHandler *SearchHandler
	AdminHandler  *AdminHandler
	AuthHandler   *AuthHandler
}

func NewDeps(chat *services.ChatService, resolver *services.ResolverService, quota *services.QuotaService, auth *services.AuthService) *Deps {
	return &Deps{
		ChatHandler:   &ChatHandler{Chat: chat},
		SearchHandler: &SearchHandler{Resolver: resolver},
		AdminHandler:  &AdminHandler{Quota: quota},
		AuthHandler:   &AuthHandler{Auth: auth},
	}
}
