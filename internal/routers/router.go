package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/middleware"
	chat_service "github.com/eudesrpj/salva-plantao-app-sub001/internal/use-case/chat-case"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/websocket"
	"github.com/eudesrpj/salva-plantao-app-sub001/state"
)

func NewRouter(appState *state.AppState, wsHub *websocket.Hub, wsHandler *websocket.WebSocketHandler, chatService chat_service.ChatServiceContract) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestId)
	r.Use(middleware.GetDeviceFingerprint)
	ChatRouter(r, appState, chatService)
	HubRouter(r, appState, wsHub, wsHandler)
	return r
}
