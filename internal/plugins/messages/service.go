package messages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/events"
	"github.com/qualis-hq/backoffice/internal/sanitize"
)

// Service is the business logic for messages.
type Service interface {
	Send(ctx context.Context, senderID string, req SendRequest) (*Message, error)
	Inbox(ctx context.Context, userID string) ([]Message, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type service struct {
	repo     Repository
	recorder events.Recorder
	nowFn    func() time.Time
}

// NewService creates the message service.
func NewService(repo Repository, recorder events.Recorder) Service {
	if recorder == nil {
		recorder = events.NopRecorder{}
	}
	return &service{
		repo:     repo,
		recorder: recorder,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Send(ctx context.Context, senderID string, req SendRequest) (*Message, error) {
	m := &Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: strings.TrimSpace(req.RecipientID),
		Subject:     sanitize.Text(req.Subject),
		Body:        strings.TrimSpace(sanitize.HTML(req.Body)),
		CreatedAt:   s.nowFn(),
	}
	if m.Subject == "" {
		return nil, apperror.NewBadRequest("subject is required")
	}
	if m.Body == "" {
		return nil, apperror.NewBadRequest("body is required")
	}
	if m.RecipientID == "" {
		return nil, apperror.NewBadRequest("recipientId is required")
	}

	ok, err := s.repo.UserExists(ctx, m.RecipientID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking recipient: %w", err))
	}
	if !ok {
		return nil, apperror.NewNotFound("recipient not found")
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("sending message: %w", err))
	}

	slog.Info("message sent",
		slog.String("message_id", m.ID),
		slog.String("sender_id", senderID),
	)
	s.recorder.Record(ctx, senderID, events.KindMessageSent, m.ID,
		map[string]any{"recipient_id": m.RecipientID})
	return m, nil
}

func (s *service) Inbox(ctx context.Context, userID string) ([]Message, error) {
	list, err := s.repo.Inbox(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing inbox: %w", err))
	}
	return list, nil
}

func (s *service) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, userID, id, s.nowFn()); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("marking message read: %w", err))
	}
	return nil
}
