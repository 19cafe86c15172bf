package documents

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

// Service is the business logic for documents.
type Service interface {
	Create(ctx context.Context, userID string, req CreateRequest) (*Document, error)
	List(ctx context.Context, userID, statusFilter string) ([]Document, error)

	// SetStatus moves a document to any valid status. Moving to the current
	// status is accepted and changes nothing.
	SetStatus(ctx context.Context, userID, id, to string) (status.Document, error)
}

type service struct {
	repo     Repository
	recorder events.Recorder
	nowFn    func() time.Time
}

// NewService creates the document service.
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

func (s *service) Create(ctx context.Context, userID string, req CreateRequest) (*Document, error) {
	title := sanitize.Text(req.Title)
	if title == "" {
		return nil, apperror.NewBadRequest("title is required")
	}

	st := status.DocumentDraft
	if strings.TrimSpace(req.Status) != "" {
		parsed, err := status.ParseDocument(req.Status)
		if err != nil {
			return nil, err
		}
		st = parsed
	}

	now := s.nowFn()
	d := &Document{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: sanitize.HTML(req.Description),
		Status:      st,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if id := strings.TrimSpace(req.FolderID); id != "" {
		owned, err := s.repo.FolderOwned(ctx, userID, id)
		if err != nil {
			return nil, apperror.NewInternal(err)
		}
		if !owned {
			return nil, apperror.NewNotFound("folder not found")
		}
		d.FolderID = &id
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating document: %w", err))
	}

	slog.Info("document created",
		slog.String("user_id", userID),
		slog.String("document_id", d.ID),
		slog.String("status", string(d.Status)),
	)
	return d, nil
}

func (s *service) List(ctx context.Context, userID, statusFilter string) ([]Document, error) {
	var filter status.Document
	if strings.TrimSpace(statusFilter) != "" {
		parsed, err := status.ParseDocument(statusFilter)
		if err != nil {
			return nil, err
		}
		filter = parsed
	}

	list, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing documents: %w", err))
	}
	return list, nil
}

func (s *service) SetStatus(ctx context.Context, userID, id, to string) (status.Document, error) {
	target, err := status.ParseDocument(to)
	if err != nil {
		return "", err
	}

	from, err := s.repo.UpdateStatus(ctx, userID, id, target)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", err
		}
		return "", apperror.NewInternal(fmt.Errorf("updating document status: %w", err))
	}

	if from != target {
		slog.Info("document status changed",
			slog.String("document_id", id),
			slog.String("from", string(from)),
			slog.String("to", string(target)),
		)
		s.recorder.Record(ctx, userID, events.KindDocumentStatusChanged, id,
			map[string]any{"from": string(from), "to": string(target)})
	}
	return target, nil
}
