package pendingusers

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
	"github.com/qualis-hq/backoffice/internal/status"
)

// Service is the business logic for sign-up requests.
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*PendingUser, error)
	List(ctx context.Context, statusFilter string) ([]PendingUser, error)

	// SetStatus moves a request to any valid status on behalf of adminID.
	SetStatus(ctx context.Context, adminID, id, to string) (status.PendingUser, error)
}

type service struct {
	repo     Repository
	recorder events.Recorder
	nowFn    func() time.Time
}

// NewService creates the pending-user service.
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

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*PendingUser, error) {
	now := s.nowFn()
	p := &PendingUser{
		ID:        uuid.NewString(),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Company:   sanitize.Text(req.Company),
		Status:    status.PendingUserPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.FirstName == "" || p.LastName == "" {
		return nil, apperror.NewBadRequest("first and last name are required")
	}
	if !strings.Contains(p.Email, "@") {
		return nil, apperror.NewBadRequest("a valid email is required")
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating pending user: %w", err))
	}

	slog.Info("sign-up request received", slog.String("pending_user_id", p.ID))
	return p, nil
}

func (s *service) List(ctx context.Context, statusFilter string) ([]PendingUser, error) {
	var filter status.PendingUser
	if strings.TrimSpace(statusFilter) != "" {
		parsed, err := status.ParsePendingUser(statusFilter)
		if err != nil {
			return nil, err
		}
		filter = parsed
	}
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing pending users: %w", err))
	}
	return list, nil
}

func (s *service) SetStatus(ctx context.Context, adminID, id, to string) (status.PendingUser, error) {
	target, err := status.ParsePendingUser(to)
	if err != nil {
		return "", err
	}

	from, err := s.repo.UpdateStatus(ctx, id, target)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", err
		}
		return "", apperror.NewInternal(fmt.Errorf("updating pending user status: %w", err))
	}

	if from != target {
		slog.Info("pending user status changed",
			slog.String("admin_id", adminID),
			slog.String("pending_user_id", id),
			slog.String("from", string(from)),
			slog.String("to", string(target)),
		)
		s.recorder.Record(ctx, adminID, events.KindPendingUserStatusChanged, id,
			map[string]any{"from": string(from), "to": string(target)})
	}
	return target, nil
}
