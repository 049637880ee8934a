package chat_handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/dtos/chat_dto"
	app_error "github.com/eudesrpj/salva-plantao-app-sub001/internal/errors"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/guard"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/handlers"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/middleware"
	chat_service "github.com/eudesrpj/salva-plantao-app-sub001/internal/use-case/chat-case"
	"github.com/eudesrpj/salva-plantao-app-sub001/state"
)

var stateCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

type ChatHandler struct {
	State    *state.AppState
	Validate *validator.Validate
	Service  chat_service.ChatServiceContract
}

func NewChatHandler(appState *state.AppState, service chat_service.ChatServiceContract) *ChatHandler {
	return &ChatHandler{
		State:    appState,
		Validate: validator.New(),
		Service:  service,
	}
}

func userIDFromCtx(r *http.Request) (string, *app_error.AppError) {
	userID, ok := r.Context().Value(middleware.UserClaimsKey).(string)
	if !ok || userID == "" {
		return "", app_error.Unauthorized("user id is not found in context")
	}
	return userID, nil
}

func requestIDFromCtx(r *http.Request) string {
	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		return "unknown"
	}
	return reqID
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.SendMessageRequest
	defer r.Body.Close()

	roomID := chi.URLParam(r, "roomId")

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.InvalidArgument("Invalid JSON", "body")
	}

	if err := h.Validate.Struct(req); err != nil {
		return app_error.InvalidArgument(fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	userID, appErr := userIDFromCtx(r)
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.SendMessage(r.Context(), roomID, userID, req)
	if appErr != nil {
		return appErr
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("message sent successfully", *resp, requestIDFromCtx(r)))

	return nil
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return app_error.InvalidArgument("as_of must be unix seconds", "as_of")
		}
		asOf = time.Unix(secs, 0).UTC()
	}

	userID, appErr := userIDFromCtx(r)
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.ListMessages(r.Context(), roomID, userID, asOf)
	if appErr != nil {
		return appErr
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("messages fetched successfully", *resp, requestIDFromCtx(r)))

	return nil
}

// GuardCheck gives clients fast feedback while the user is typing. The
// verdict returned here is advisory; the send path recomputes it.
func (h *ChatHandler) GuardCheck(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.GuardCheckRequest
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.InvalidArgument("Invalid JSON", "body")
	}

	if err := h.Validate.Struct(req); err != nil {
		return app_error.InvalidArgument(fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	verdict := guard.Check(req.Body)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("guard verdict", verdict, requestIDFromCtx(r)))

	return nil
}

func (h *ChatHandler) JoinStateRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	stateCode := chi.URLParam(r, "stateCode")
	if !stateCodeRe.MatchString(stateCode) {
		return app_error.InvalidArgument("state code must be a two-letter UF", "stateCode")
	}

	userID, appErr := userIDFromCtx(r)
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.JoinStateRoom(r.Context(), userID, stateCode)
	if appErr != nil {
		return appErr
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("joined state room", *resp, requestIDFromCtx(r)))

	return nil
}

func (h *ChatHandler) StartDirectConversation(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	otherUserID := chi.URLParam(r, "userId")
	if otherUserID == "" {
		return app_error.InvalidArgument("user id is required", "userId")
	}

	userID, appErr := userIDFromCtx(r)
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.StartDirectConversation(r.Context(), userID, otherUserID)
	if appErr != nil {
		return appErr
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("direct conversation ready", *resp, requestIDFromCtx(r)))

	return nil
}

func (h *ChatHandler) ListContacts(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := userIDFromCtx(r)
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.ListContacts(r.Context(), userID)
	if appErr != nil {
		return appErr
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("contacts fetched successfully", *resp, requestIDFromCtx(r)))

	return nil
}

// SweepNow triggers an expiry sweep outside the scheduler's cadence.
func (h *ChatHandler) SweepNow(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	deleted, appErr := h.Service.SweepExpired(r.Context())
	if appErr != nil {
		return appErr
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("sweep completed", chat_dto.SweepResponse{Deleted: deleted}, requestIDFromCtx(r)))

	return nil
}
