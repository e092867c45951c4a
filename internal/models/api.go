package models

import "spandi-backend/internal/conversation"

type SendMessageRequest struct {
	Text string `json:"text"`
}

type SessionResponse struct {
	SessionID    string                     `json:"session_id"`
	Token        string                     `json:"token"`
	Conversation *conversation.Conversation `json:"conversation"`
}

type ConversationResponse struct {
	Conversation *conversation.Conversation `json:"conversation"`
}

// ReadingResponse wraps a single-shot flow result with its rendered text.
type ReadingResponse struct {
	Result interface{} `json:"result"`
	Text   string      `json:"text"`
}

type StatusResponse struct {
	Ready    bool   `json:"ready"`
	Provider string `json:"provider,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
