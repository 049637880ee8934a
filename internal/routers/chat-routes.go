package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/handlers"
	chat_handler "github.com/eudesrpj/salva-plantao-app-sub001/internal/handlers/chat-handler"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/middleware"
	chat_service "github.com/eudesrpj/salva-plantao-app-sub001/internal/use-case/chat-case"
	"github.com/eudesrpj/salva-plantao-app-sub001/state"
)

func ChatRouter(r chi.Router, appState *state.AppState, chatService chat_service.ChatServiceContract) {
	chatHandler := chat_handler.NewChatHandler(appState, chatService)
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.JWTAuthWithAutoRefresh(appState.JwtSecret.Private, appState.JwtSecret.Public, appState.Redis))

		protected.Post("/api/v1/chat/rooms/state/{stateCode}/join", handlers.WrapHandler(chatHandler.JoinStateRoom))
		protected.Post("/api/v1/chat/direct/{userId}", handlers.WrapHandler(chatHandler.StartDirectConversation))
		protected.Post("/api/v1/chat/rooms/{roomId}/messages", handlers.WrapHandler(chatHandler.SendMessage))
		protected.Get("/api/v1/chat/rooms/{roomId}/messages", handlers.WrapHandler(chatHandler.ListMessages))
		protected.Get("/api/v1/chat/contacts", handlers.WrapHandler(chatHandler.ListContacts))
		protected.Post("/api/v1/chat/guard/check", handlers.WrapHandler(chatHandler.GuardCheck))
		protected.Post("/api/v1/maintenance/sweep", handlers.WrapHandler(chatHandler.SweepNow))
	})
}
