package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/handlers"
	hub_handler "github.com/eudesrpj/salva-plantao-app-sub001/internal/handlers/hub-handler"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/websocket"
	"github.com/eudesrpj/salva-plantao-app-sub001/state"
)

func HubRouter(r chi.Router, appState *state.AppState, wsHub *websocket.Hub, wsHandler *websocket.WebSocketHandler) {
	hubHandler := hub_handler.NewHubHandler(wsHub)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", hubHandler.HandleHealth)
		r.Get("/stats", handlers.WrapHandler(hubHandler.HandleGetStats))

		// live subscription; auth happens inside the ws handler because
		// handshakes cannot use the refresh flow
		r.Get("/ws", wsHandler.ServeHTTP)

		r.Route("/rooms/{roomId}", func(r chi.Router) {
			r.Get("/stats", handlers.WrapHandler(hubHandler.HandleGetRoomStats))
		})
	})
}
