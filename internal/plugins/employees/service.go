package employees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/database"
	"github.com/qualis-hq/backoffice/internal/events"
	"github.com/qualis-hq/backoffice/internal/metrics"
	"github.com/qualis-hq/backoffice/internal/username"
)

// Service is the business logic for employees.
type Service interface {
	Create(ctx context.Context, userID string, req CreateRequest) (*Employee, error)
	List(ctx context.Context, userID string) ([]Employee, error)
	Delete(ctx context.Context, userID, id string) error

	// GetOwned returns an employee only if userID owns it.
	GetOwned(ctx context.Context, userID, id string) (*Employee, error)
}

type service struct {
	repo     Repository
	recorder events.Recorder
	metrics  *metrics.Collector
	nowFn    func() time.Time
}

// NewService creates the employee service.
func NewService(repo Repository, recorder events.Recorder, collector *metrics.Collector) Service {
	if recorder == nil {
		recorder = events.NopRecorder{}
	}
	return &service{
		repo:     repo,
		recorder: recorder,
		metrics:  collector,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, userID string, req CreateRequest) (*Employee, error) {
	e := &Employee{
		ID:        uuid.NewString(),
		UserID:    userID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		CreatedAt: s.nowFn(),
	}
	if e.Email != "" && !strings.Contains(e.Email, "@") {
		return nil, apperror.NewBadRequest("email is not valid")
	}

	exists := func(ctx context.Context, candidate string) (bool, error) {
		s.metrics.RecordUsernameProbe("employees")
		return s.repo.UsernameExists(ctx, candidate)
	}
	isDuplicate := func(err error) bool {
		if database.IsDuplicateKeyOn(err, idxUsername) {
			s.metrics.RecordAllocationConflict("username")
			return true
		}
		return false
	}

	_, err := username.CreateWithRetry(ctx, e.FirstName, e.LastName, exists,
		func(ctx context.Context, name string) error {
			e.Username = name
			return s.repo.Create(ctx, e)
		},
		isDuplicate,
	)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating employee: %w", err))
	}

	slog.Info("employee created",
		slog.String("user_id", userID),
		slog.String("employee_id", e.ID),
		slog.String("username", e.Username),
	)
	s.recorder.Record(ctx, userID, events.KindEmployeeCreated, e.ID,
		map[string]any{"username": e.Username})

	return e, nil
}

func (s *service) List(ctx context.Context, userID string) ([]Employee, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing employees: %w", err))
	}
	return list, nil
}

func (s *service) GetOwned(ctx context.Context, userID, id string) (*Employee, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding employee: %w", err))
	}
	if e.UserID != userID {
		return nil, apperror.NewNotFound("employee not found")
	}
	return e, nil
}

func (s *service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting employee: %w", err))
	}
	slog.Info("employee deleted", slog.String("user_id", userID), slog.String("employee_id", id))
	return nil
}
