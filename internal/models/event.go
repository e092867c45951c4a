package models

import (
	"time"

	"spandi-backend/internal/conversation"
)

// WebSocket event types
const (
	EventMessagePending    = "message.pending"
	EventMessageSettled    = "message.settled"
	EventMessageRolledBack = "message.rolled_back"
	EventConversationReset = "conversation.reset"
)

type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload"`
	At        time.Time   `json:"at"`
}

type MessageEvent struct {
	Message conversation.Message `json:"message"`
}

type RollbackEvent struct {
	MessageID string `json:"message_id"`
	Composer  string `json:"composer"`
	ErrorKind string `json:"error_kind"`
}

type ResetEvent struct {
	Conversation *conversation.Conversation `json:"conversation"`
}

func NewEvent(eventType, sessionID string, payload interface{}) Event {
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		At:        time.Now().UTC(),
	}
}
