// Package conversation holds the per-session chat state: an ordered message
// list plus a single pending-send slot.
//
// A send moves through composing → sent (pending) → settled | rolled_back.
// Submit appends the user message optimistically and clears the composer;
// Settle appends the assistant reply; Rollback removes the user message and
// puts its text back into the composer.
package conversation

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyInput = errors.New("message is empty")
	ErrBusy       = errors.New("a message is already being answered")
	ErrNotFound   = errors.New("conversation not found")
	ErrNotPending = errors.New("message is not pending")
)

const Greeting = "Namaskaram! Njan Spandi Bot. Enthu venamenkilum choyicho... But be careful what you wish for, because life is like a Kerala road, full of surprises and potholes."

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is immutable once appended.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Pending is the in-flight send. Text is the composer content at submit
// time, restored verbatim on rollback.
type Pending struct {
	MessageID   string    `json:"message_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	Composer  string    `json:"composer"`
	Pending   *Pending  `json:"pending,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New starts a conversation with the assistant greeting.
func New(id string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID: id,
		Messages: []Message{{
			ID:        uuid.NewString(),
			Role:      RoleAssistant,
			Text:      Greeting,
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Submit appends text as a user message and marks it pending. Blank text
// and a busy slot are rejected without touching the conversation.
func (c *Conversation) Submit(text string) (Pending, error) {
	if strings.TrimSpace(text) == "" {
		return Pending{}, ErrEmptyInput
	}
	if c.Pending != nil {
		return Pending{}, ErrBusy
	}

	now := time.Now().UTC()
	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      text,
		CreatedAt: now,
	}
	p := Pending{MessageID: msg.ID, Text: text, SubmittedAt: now}

	c.Messages = append(c.Messages, msg)
	c.Composer = ""
	c.Pending = &p
	c.UpdatedAt = now
	return p, nil
}

// Settle appends the assistant reply for the pending send.
func (c *Conversation) Settle(pendingID, reply string) (Message, error) {
	if c.Pending == nil || c.Pending.MessageID != pendingID {
		return Message{}, ErrNotPending
	}

	now := time.Now().UTC()
	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Text:      reply,
		CreatedAt: now,
	}
	c.Messages = append(c.Messages, msg)
	c.Pending = nil
	c.UpdatedAt = now
	return msg, nil
}

// Rollback reverts the pending send and restores its text to the composer.
func (c *Conversation) Rollback(pendingID string) error {
	if c.Pending == nil || c.Pending.MessageID != pendingID {
		return ErrNotPending
	}

	c.Messages = RollbackMessages(c.Messages, *c.Pending)
	c.Composer = c.Pending.Text
	c.Pending = nil
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// ReleaseStale rolls back a pending send submitted more than maxAge before
// now. Its owner is gone: a settle or rollback that failed, or a replica
// that died mid-flight. It reports whether a send was released.
func (c *Conversation) ReleaseStale(now time.Time, maxAge time.Duration) bool {
	if c.Pending == nil || now.Sub(c.Pending.SubmittedAt) <= maxAge {
		return false
	}
	return c.Rollback(c.Pending.MessageID) == nil
}

// RollbackMessages returns messages without the pending user message. The
// input slice is not modified.
func RollbackMessages(messages []Message, p Pending) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.ID == p.MessageID {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Reset drops every message except a fresh greeting. A pending send blocks it.
func (c *Conversation) Reset() error {
	if c.Pending != nil {
		return ErrBusy
	}
	fresh := New(c.ID)
	c.Messages = fresh.Messages
	c.Composer = ""
	c.UpdatedAt = fresh.UpdatedAt
	return nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.Messages = append([]Message(nil), c.Messages...)
	if c.Pending != nil {
		p := *c.Pending
		cp.Pending = &p
	}
	return &cp
}
