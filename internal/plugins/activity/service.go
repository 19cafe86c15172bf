package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/events"
)

// perPage is the number of entries per feed page.
const perPage = 50

// Service records activity and serves the feed. It satisfies
// events.Recorder so feature plugins depend only on that interface.
type Service interface {
	events.Recorder

	// Feed returns one page of the user's activity, newest first. Pages are
	// 1-indexed; values below 1 are clamped.
	Feed(ctx context.Context, userID string, page int) (*Page, error)
}

type service struct {
	repo      Repository
	publisher events.Publisher
	nowFn     func() time.Time
}

// NewService creates the activity service. publisher may be nil when no
// broker is configured.
func NewService(repo Repository, publisher events.Publisher) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// Record stores the entry, then publishes it. Neither failure reaches the
// caller.
func (s *service) Record(ctx context.Context, userID, kind, subjectID string, details map[string]any) {
	if userID == "" || kind == "" {
		slog.Warn("dropping activity without user or kind",
			slog.String("user_id", userID),
			slog.String("kind", kind),
		)
		return
	}

	entry := &Entry{
		UserID:    userID,
		Kind:      kind,
		SubjectID: subjectID,
		Details:   details,
		CreatedAt: s.nowFn(),
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		slog.Error("failed to write activity entry",
			slog.String("user_id", userID),
			slog.String("kind", kind),
			slog.Any("error", err),
		)
		return
	}

	msg := events.Message{
		ID:         entry.ID,
		Kind:       entry.Kind,
		UserID:     entry.UserID,
		SubjectID:  entry.SubjectID,
		Details:    entry.Details,
		OccurredAt: entry.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		slog.Warn("failed to publish activity",
			slog.Int64("event_id", entry.ID),
			slog.String("kind", kind),
			slog.Any("error", err),
		)
	}
}

func (s *service) Feed(ctx context.Context, userID string, page int) (*Page, error) {
	if userID == "" {
		return nil, apperror.NewBadRequest("user ID is required")
	}
	if page < 1 {
		page = 1
	}

	entries, total, err := s.repo.ListByUser(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing activity: %w", err))
	}

	return &Page{Entries: entries, Total: total, Page: page, PerPage: perPage}, nil
}
