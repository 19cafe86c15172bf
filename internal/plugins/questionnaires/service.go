package questionnaires

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/database"
	"github.com/qualis-hq/backoffice/internal/events"
	"github.com/qualis-hq/backoffice/internal/plugins/employees"
	"github.com/qualis-hq/backoffice/internal/sanitize"
	"github.com/qualis-hq/backoffice/internal/status"
)

// EmployeeLookup resolves an employee the caller owns.
type EmployeeLookup interface {
	GetOwned(ctx context.Context, userID, id string) (*employees.Employee, error)
}

// Service is the business logic for questionnaires and their recipients.
type Service interface {
	Create(ctx context.Context, userID string, req CreateRequest) (*Questionnaire, error)
	List(ctx context.Context, userID string) ([]Questionnaire, error)

	// Send creates a recipient for every listed employee. Employees who
	// already received the questionnaire are skipped.
	Send(ctx context.Context, userID, questionnaireID string, req SendRequest) ([]Recipient, error)
	Recipients(ctx context.Context, userID, questionnaireID string) ([]Recipient, error)

	// View returns the recipient's copy and marks it viewed on first open.
	View(ctx context.Context, recipientID string) (*RecipientView, error)

	// Submit records answers once. The answer keys must match the
	// questionnaire's declared fields exactly.
	Submit(ctx context.Context, recipientID string, req SubmitRequest) (*RecipientView, error)
}

type service struct {
	repo      Repository
	employees EmployeeLookup
	recorder  events.Recorder
	nowFn     func() time.Time
}

// NewService creates the questionnaire service.
func NewService(repo Repository, employees EmployeeLookup, recorder events.Recorder) Service {
	if recorder == nil {
		recorder = events.NopRecorder{}
	}
	return &service{
		repo:      repo,
		employees: employees,
		recorder:  recorder,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, userID string, req CreateRequest) (*Questionnaire, error) {
	title := sanitize.Text(req.Title)
	if title == "" {
		return nil, apperror.NewBadRequest("title is required")
	}

	fields := make([]string, 0, len(req.Fields))
	seen := make(map[string]bool, len(req.Fields))
	for _, f := range req.Fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, apperror.NewBadRequest("field names must not be empty")
		}
		if seen[f] {
			return nil, apperror.NewBadRequest(fmt.Sprintf("duplicate field %q", f))
		}
		seen[f] = true
		fields = append(fields, f)
	}

	q := &Questionnaire{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Fields:    fields,
		CreatedAt: s.nowFn(),
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating questionnaire: %w", err))
	}
	return q, nil
}

func (s *service) List(ctx context.Context, userID string) ([]Questionnaire, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing questionnaires: %w", err))
	}
	return list, nil
}

func (s *service) owned(ctx context.Context, userID, id string) (*Questionnaire, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding questionnaire: %w", err))
	}
	if q.UserID != userID {
		return nil, apperror.NewNotFound("questionnaire not found")
	}
	return q, nil
}

func (s *service) Send(ctx context.Context, userID, questionnaireID string, req SendRequest) ([]Recipient, error) {
	q, err := s.owned(ctx, userID, questionnaireID)
	if err != nil {
		return nil, err
	}
	if len(req.EmployeeIDs) == 0 {
		return nil, apperror.NewBadRequest("at least one employee is required")
	}

	// Resolve every employee before inserting so a bad ID sends nothing.
	for _, id := range req.EmployeeIDs {
		if _, err := s.employees.GetOwned(ctx, userID, id); err != nil {
			return nil, err
		}
	}

	sent := []Recipient{}
	for _, employeeID := range req.EmployeeIDs {
		r := Recipient{
			ID:              uuid.NewString(),
			QuestionnaireID: q.ID,
			EmployeeID:      employeeID,
			Status:          status.RecipientSent,
			SentAt:          s.nowFn(),
		}
		if err := s.repo.AddRecipient(ctx, &r); err != nil {
			if database.IsDuplicateKeyOn(err, idxRecipient) {
				continue
			}
			return nil, apperror.NewInternal(fmt.Errorf("adding recipient: %w", err))
		}
		s.recorder.Record(ctx, userID, events.KindQuestionnaireSent, r.ID,
			map[string]any{"questionnaire_id": q.ID, "employee_id": employeeID})
		sent = append(sent, r)
	}

	slog.Info("questionnaire sent",
		slog.String("questionnaire_id", q.ID),
		slog.Int("recipients", len(sent)),
	)
	return sent, nil
}

func (s *service) Recipients(ctx context.Context, userID, questionnaireID string) ([]Recipient, error) {
	if _, err := s.owned(ctx, userID, questionnaireID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListRecipients(ctx, questionnaireID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing recipients: %w", err))
	}
	return list, nil
}

func (s *service) View(ctx context.Context, recipientID string) (*RecipientView, error) {
	var changed bool
	v, err := s.repo.UpdateRecipient(ctx, recipientID, func(v *RecipientView) (bool, error) {
		var next status.Recipient
		next, changed = v.Status.AfterView()
		if !changed {
			return false, nil
		}
		now := s.nowFn()
		v.Status = next
		v.ViewedAt = &now
		return true, nil
	})
	if err != nil {
		return nil, internalUnlessApp(err, "viewing questionnaire")
	}

	if changed {
		s.recorder.Record(ctx, v.OwnerID, events.KindQuestionnaireViewed, v.ID,
			map[string]any{"questionnaire_id": v.QuestionnaireID, "employee_id": v.EmployeeID})
	}
	return v, nil
}

func (s *service) Submit(ctx context.Context, recipientID string, req SubmitRequest) (*RecipientView, error) {
	if req.Answers == nil {
		req.Answers = map[string]any{}
	}

	v, err := s.repo.UpdateRecipient(ctx, recipientID, func(v *RecipientView) (bool, error) {
		if err := v.Status.CanSubmit(); err != nil {
			return false, err
		}
		if err := status.ValidateAnswers(v.Fields, req.Answers); err != nil {
			return false, err
		}
		now := s.nowFn()
		v.Status = status.RecipientSubmitted
		v.Answers = req.Answers
		v.SubmittedAt = &now
		return true, nil
	})
	if err != nil {
		return nil, internalUnlessApp(err, "submitting questionnaire")
	}

	slog.Info("questionnaire submitted",
		slog.String("questionnaire_id", v.QuestionnaireID),
		slog.String("recipient_id", v.ID),
	)
	s.recorder.Record(ctx, v.OwnerID, events.KindQuestionnaireSubmitted, v.ID,
		map[string]any{"questionnaire_id": v.QuestionnaireID, "employee_id": v.EmployeeID})
	return v, nil
}

func internalUnlessApp(err error, op string) error {
	if apperror.CodeOf(err) < 500 {
		return err
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", op, err))
}
