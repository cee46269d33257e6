package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adpilot/adpilot/internal/auth"
	"github.com/adpilot/adpilot/internal/handler/dto"
	"github.com/adpilot/adpilot/internal/service"
)

// ChatHandler handles HTTP requests for the assistant.
type ChatHandler struct {
	svc    *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(svc *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		svc:    svc,
		logger: logger,
	}
}

// Send handles POST /api/v1/chat.
// An absent conversation_id starts a new conversation.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	var req dto.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	resp, err := h.svc.SendMessage(r.Context(), user, req.ConversationID, req.Message)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("chat_turn",
		"conversation_id", resp.ConversationID,
		"tool_calls", len(resp.ToolCalls),
	)

	writeJSON(w, http.StatusOK, dto.ChatResponse{
		ConversationID: resp.ConversationID,
		Reply:          resp.Reply,
	})
}

// ListConversations handles GET /api/v1/conversations.
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	conversations, err := h.svc.ListConversations(r.Context(), user.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConversationListResponse{Data: conversations})
}

// GetTranscript handles GET /api/v1/conversations/{id}.
func (h *ChatHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Conversation ID is required")
		return
	}

	conversation, messages, err := h.svc.GetTranscript(r.Context(), id, user.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TranscriptResponse{
		Conversation: conversation,
		Messages:     messages,
	})
}
