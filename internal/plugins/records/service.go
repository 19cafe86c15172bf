package records

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
	"github.com/qualis-hq/backoffice/internal/sanitize"
	"github.com/qualis-hq/backoffice/internal/sequence"
)

// Service is the business logic for folders and processes.
type Service interface {
	CreateFolder(ctx context.Context, userID string, req CreateFolderRequest) (*Folder, error)
	ListFolders(ctx context.Context, userID, sleeve string) ([]Folder, error)
	DeleteFolder(ctx context.Context, userID, id string) error

	CreateProcess(ctx context.Context, userID string, req CreateProcessRequest) (*Process, error)
	ListProcesses(ctx context.Context, userID, sleeve string) ([]Process, error)
}

type service struct {
	repo     Repository
	recorder events.Recorder
	metrics  *metrics.Collector
	nowFn    func() time.Time
}

// NewService creates the records service.
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

// collisionCounter counts requested numbers that were already taken.
type collisionCounter struct {
	sequence.Store
	metrics *metrics.Collector
}

func (c collisionCounter) NumberExists(ctx context.Context, scope sequence.Scope, number int) (bool, error) {
	taken, err := c.Store.NumberExists(ctx, scope, number)
	if err == nil && taken {
		c.metrics.RecordSequenceCollision(string(scope.Category))
	}
	return taken, err
}

// numberRequest validates the common create fields. A zero number asks for
// 1, which lands after the current maximum when 1 is taken.
func numberRequest(sleeve string, number int, name string) (sequence.Category, int, string, error) {
	category, err := sequence.ParseCategory(sleeve)
	if err != nil {
		return "", 0, "", err
	}
	if number == 0 {
		number = 1
	}
	name = sanitize.Text(name)
	if name == "" {
		return "", 0, "", apperror.NewBadRequest("name is required")
	}
	return category, number, name, nil
}

func (s *service) duplicateOn(index string) func(error) bool {
	return func(err error) bool {
		if database.IsDuplicateKeyOn(err, index) {
			s.metrics.RecordAllocationConflict("sequence")
			return true
		}
		return false
	}
}

func internalUnlessApp(err error, op string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", op, err))
}

func (s *service) CreateFolder(ctx context.Context, userID string, req CreateFolderRequest) (*Folder, error) {
	category, requested, name, err := numberRequest(req.Sleeve, req.Number, req.Name)
	if err != nil {
		return nil, err
	}

	f := &Folder{
		ID:        uuid.NewString(),
		UserID:    userID,
		Sleeve:    category,
		Name:      name,
		CreatedAt: s.nowFn(),
	}
	scope := sequence.Scope{OwnerID: userID, Category: category}

	_, err = sequence.CreateWithRetry(ctx, scope, requested,
		collisionCounter{Store: s.repo.Folders(), metrics: s.metrics},
		func(ctx context.Context, number int) error {
			f.Number = number
			return s.repo.CreateFolder(ctx, f)
		},
		s.duplicateOn(idxFolderNumber),
	)
	if err != nil {
		return nil, internalUnlessApp(err, "creating folder")
	}

	slog.Info("folder created",
		slog.String("user_id", userID),
		slog.String("sleeve", string(category)),
		slog.Int("requested", requested),
		slog.Int("number", f.Number),
	)
	s.recorder.Record(ctx, userID, events.KindFolderCreated, f.ID,
		map[string]any{"sleeve": string(category), "number": f.Number, "requested": requested})

	return f, nil
}

func (s *service) ListFolders(ctx context.Context, userID, sleeve string) ([]Folder, error) {
	category, err := sequence.ParseCategory(sleeve)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListFolders(ctx, userID, category)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing folders: %w", err))
	}
	return list, nil
}

func (s *service) DeleteFolder(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteFolder(ctx, userID, id); err != nil {
		return internalUnlessApp(err, "deleting folder")
	}
	slog.Info("folder deleted", slog.String("user_id", userID), slog.String("folder_id", id))
	return nil
}

func (s *service) CreateProcess(ctx context.Context, userID string, req CreateProcessRequest) (*Process, error) {
	category, requested, name, err := numberRequest(req.Sleeve, req.Number, req.Name)
	if err != nil {
		return nil, err
	}

	p := &Process{
		ID:        uuid.NewString(),
		UserID:    userID,
		Sleeve:    category,
		Name:      name,
		CreatedAt: s.nowFn(),
	}

	if id := strings.TrimSpace(req.FolderID); id != "" {
		folder, err := s.repo.FindFolder(ctx, id)
		if err != nil {
			return nil, internalUnlessApp(err, "finding folder")
		}
		if folder.UserID != userID {
			return nil, apperror.NewNotFound("folder not found")
		}
		p.FolderID = &folder.ID
	}

	scope := sequence.Scope{OwnerID: userID, Category: category}
	_, err = sequence.CreateWithRetry(ctx, scope, requested,
		collisionCounter{Store: s.repo.Processes(), metrics: s.metrics},
		func(ctx context.Context, number int) error {
			p.Number = number
			return s.repo.CreateProcess(ctx, p)
		},
		s.duplicateOn(idxProcessNumber),
	)
	if err != nil {
		return nil, internalUnlessApp(err, "creating process")
	}

	slog.Info("process created",
		slog.String("user_id", userID),
		slog.String("sleeve", string(category)),
		slog.Int("number", p.Number),
	)
	s.recorder.Record(ctx, userID, events.KindProcessCreated, p.ID,
		map[string]any{"sleeve": string(category), "number": p.Number, "requested": requested})

	return p, nil
}

func (s *service) ListProcesses(ctx context.Context, userID, sleeve string) ([]Process, error) {
	category, err := sequence.ParseCategory(sleeve)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListProcesses(ctx, userID, category)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing processes: %w", err))
	}
	return list, nil
}
