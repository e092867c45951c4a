package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"spandi-backend/internal/conversation"
	"spandi-backend/internal/middleware"
	"spandi-backend/internal/models"
	"spandi-backend/internal/services"
)

type chatService interface {
	Start(ctx context.Context) (*services.Session, error)
	Get(ctx context.Context, sessionID string) (*conversation.Conversation, error)
	Send(ctx context.Context, sessionID, text string) (*conversation.Conversation, error)
	Reset(ctx context.Context, sessionID string) (*conversation.Conversation, error)
}

type ChatHandler struct {
	chatService chatService
}

func NewChatHandler(chatService chatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// StartSession POST /api/v1/sessions
func (h *ChatHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatService.Start(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.SessionResponse{
		SessionID:    session.ID,
		Token:        session.Token,
		Conversation: session.Conversation,
	})
}

// GetConversation GET /api/v1/conversation
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.chatService.Get(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ConversationResponse{Conversation: conv})
}

// SendMessage POST /api/v1/conversation/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	conv, err := h.chatService.Send(r.Context(), middleware.GetSessionID(r.Context()), req.Text)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ConversationResponse{Conversation: conv})
}

// ResetConversation DELETE /api/v1/conversation
func (h *ChatHandler) ResetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.chatService.Reset(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ConversationResponse{Conversation: conv})
}
