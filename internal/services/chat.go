package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spandi-backend/internal/conversation"
	"spandi-backend/internal/flows"
	"spandi-backend/internal/models"
)

// EventPublisher delivers conversation events to a session's sockets.
type EventPublisher interface {
	Publish(ctx context.Context, sessionID string, event models.Event) error
}

type TokenIssuer interface {
	GenerateToken(sessionID string) (string, error)
}

type Session struct {
	ID           string
	Token        string
	Conversation *conversation.Conversation
}

// staleMargin is added to the flow timeout before a pending send with no
// live owner is rolled back.
const staleMargin = 30 * time.Second

type ChatService struct {
	store   conversation.Store
	chat    flows.Runner[flows.ChatInput, flows.ChatReply]
	events  EventPublisher
	tokens  TokenIssuer
	timeout time.Duration
	logger  *zap.Logger
}

// NewChatService wires the conversation store to the merged chat flow. A nil
// chat runner means no provider is configured and every send fails with
// NotConfiguredError.
func NewChatService(
	store conversation.Store,
	chat flows.Runner[flows.ChatInput, flows.ChatReply],
	events EventPublisher,
	tokens TokenIssuer,
	timeout time.Duration,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		store:   store,
		chat:    chat,
		events:  events,
		tokens:  tokens,
		timeout: timeout,
		logger:  logger,
	}
}

// Start opens a new page session with a greeting-only conversation.
func (s *ChatService) Start(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	conv := conversation.New(id)
	if err := s.store.Create(ctx, conv); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(id)
	if err != nil {
		if derr := s.store.Delete(ctx, id); derr != nil {
			s.logger.Warn("session cleanup failed", zap.String("session_id", id), zap.Error(derr))
		}
		return nil, err
	}

	s.logger.Debug("session started", zap.String("session_id", id))
	return &Session{ID: id, Token: token, Conversation: conv}, nil
}

func (s *ChatService) Get(ctx context.Context, sessionID string) (*conversation.Conversation, error) {
	conv, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, translate(err)
	}
	return conv, nil
}

// Send submits text optimistically, runs the merged flow and either
// settles the reply or rolls the send back. On failure the returned
// conversation is the rolled-back state and the error is an *AIError
// carrying the restored composer text.
func (s *ChatService) Send(ctx context.Context, sessionID, text string) (*conversation.Conversation, error) {
	if s.chat == nil {
		return nil, &NotConfiguredError{}
	}

	var (
		pending conversation.Pending
		stale   *conversation.Pending
	)
	conv, err := s.store.Update(ctx, sessionID, func(c *conversation.Conversation) error {
		stale = s.releaseStale(c)
		p, err := c.Submit(text)
		pending = p
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	s.publishReleased(ctx, sessionID, stale)
	s.publish(ctx, sessionID, models.EventMessagePending, models.MessageEvent{Message: conv.Messages[len(conv.Messages)-1]})

	flowCtx, cancel := context.WithTimeout(ctx, s.timeout)
	reply, runErr := s.chat.Run(flowCtx, flows.ChatInput{Question: pending.Text})
	cancel()

	// The pending slot must be released even if the client went away.
	ctx = context.WithoutCancel(ctx)

	if runErr != nil {
		kind := flows.Kind(runErr)
		s.logger.Warn("chat send failed",
			zap.String("session_id", sessionID),
			zap.String("kind", kind),
			zap.Error(runErr),
		)

		conv, err := s.store.Update(ctx, sessionID, func(c *conversation.Conversation) error {
			return c.Rollback(pending.MessageID)
		})
		if err != nil {
			s.logger.Error("chat rollback failed", zap.String("session_id", sessionID), zap.Error(err))
			return nil, translate(err)
		}
		s.publish(ctx, sessionID, models.EventMessageRolledBack, models.RollbackEvent{
			MessageID: pending.MessageID,
			Composer:  conv.Composer,
			ErrorKind: kind,
		})
		return conv, &AIError{Kind: kind, Composer: conv.Composer, Err: runErr}
	}

	var settled conversation.Message
	conv, err = s.store.Update(ctx, sessionID, func(c *conversation.Conversation) error {
		m, err := c.Settle(pending.MessageID, reply.Render())
		settled = m
		return err
	})
	if err != nil {
		s.logger.Error("chat settle failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, translate(err)
	}
	s.publish(ctx, sessionID, models.EventMessageSettled, models.MessageEvent{Message: settled})
	return conv, nil
}

// Reset clears the conversation back to the greeting.
func (s *ChatService) Reset(ctx context.Context, sessionID string) (*conversation.Conversation, error) {
	var stale *conversation.Pending
	conv, err := s.store.Update(ctx, sessionID, func(c *conversation.Conversation) error {
		stale = s.releaseStale(c)
		return c.Reset()
	})
	if err != nil {
		return nil, translate(err)
	}
	s.publishReleased(ctx, sessionID, stale)
	s.publish(ctx, sessionID, models.EventConversationReset, models.ResetEvent{Conversation: conv})
	return conv, nil
}

// releaseStale frees a pending slot whose settle or rollback never landed.
// It returns the released send, or nil.
func (s *ChatService) releaseStale(c *conversation.Conversation) *conversation.Pending {
	if c.Pending == nil {
		return nil
	}
	p := *c.Pending
	if !c.ReleaseStale(time.Now().UTC(), s.timeout+staleMargin) {
		return nil
	}
	return &p
}

func (s *ChatService) publishReleased(ctx context.Context, sessionID string, p *conversation.Pending) {
	if p == nil {
		return
	}
	s.logger.Warn("stale pending send rolled back",
		zap.String("session_id", sessionID),
		zap.String("message_id", p.MessageID),
		zap.Time("submitted_at", p.SubmittedAt),
	)
	s.publish(ctx, sessionID, models.EventMessageRolledBack, models.RollbackEvent{
		MessageID: p.MessageID,
		Composer:  p.Text,
		ErrorKind: "stale",
	})
}

func (s *ChatService) publish(ctx context.Context, sessionID, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, sessionID, models.NewEvent(eventType, sessionID, payload)); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("session_id", sessionID),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
