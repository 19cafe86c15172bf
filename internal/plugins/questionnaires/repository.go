package questionnaires

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/database"
	"github.com/qualis-hq/backoffice/internal/status"
)

// idxRecipient is the UNIQUE (questionnaire_id, employee_id) index.
const idxRecipient = "uq_recipient"

// Repository defines the data access contract for questionnaires.
type Repository interface {
	Create(ctx context.Context, q *Questionnaire) error
	FindByID(ctx context.Context, id string) (*Questionnaire, error)
	ListByUser(ctx context.Context, userID string) ([]Questionnaire, error)

	AddRecipient(ctx context.Context, r *Recipient) error
	ListRecipients(ctx context.Context, questionnaireID string) ([]Recipient, error)

	// UpdateRecipient locks the recipient row and hands it to fn. When fn
	// returns true the row's status, answers and timestamps are written back
	// in the same transaction. Errors from fn abort the transaction.
	UpdateRecipient(ctx context.Context, id string, fn func(v *RecipientView) (bool, error)) (*RecipientView, error)
}

type repository struct {
	db *sql.DB
}

// NewRepository creates a new questionnaire repository.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, q *Questionnaire) error {
	fields, err := json.Marshal(q.Fields)
	if err != nil {
		return fmt.Errorf("encoding fields: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO questionnaires (id, user_id, title, fields, created_at) VALUES (?, ?, ?, ?, ?)`,
		q.ID, q.UserID, q.Title, fields, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting questionnaire: %w", err)
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Questionnaire, error) {
	var q Questionnaire
	var fields []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, fields, created_at FROM questionnaires WHERE id = ?`, id,
	).Scan(&q.ID, &q.UserID, &q.Title, &fields, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("questionnaire not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying questionnaire: %w", err)
	}
	if q.Fields, err = decodeFields(fields); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Questionnaire, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, fields, created_at FROM questionnaires
		 WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing questionnaires: %w", err)
	}
	defer rows.Close()

	out := []Questionnaire{}
	for rows.Next() {
		var q Questionnaire
		var fields []byte
		if err := rows.Scan(&q.ID, &q.UserID, &q.Title, &fields, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning questionnaire: %w", err)
		}
		if q.Fields, err = decodeFields(fields); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *repository) AddRecipient(ctx context.Context, rc *Recipient) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO questionnaire_recipients (id, questionnaire_id, employee_id, status, sent_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rc.ID, rc.QuestionnaireID, rc.EmployeeID, string(rc.Status), rc.SentAt)
	if err != nil {
		return fmt.Errorf("inserting recipient: %w", err)
	}
	return nil
}

const recipientColumns = `r.id, r.questionnaire_id, r.employee_id, r.status, r.answers,
		r.sent_at, r.viewed_at, r.submitted_at`

func (r *repository) ListRecipients(ctx context.Context, questionnaireID string) ([]Recipient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recipientColumns+` FROM questionnaire_recipients r
		 WHERE r.questionnaire_id = ? ORDER BY r.sent_at`, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("listing recipients: %w", err)
	}
	defer rows.Close()

	out := []Recipient{}
	for rows.Next() {
		var rc Recipient
		if err := scanRecipient(rows, &rc); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (r *repository) UpdateRecipient(ctx context.Context, id string, fn func(v *RecipientView) (bool, error)) (*RecipientView, error) {
	var v RecipientView
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		var fields []byte
		var st string
		var answers []byte
		var viewedAt, submittedAt sql.NullTime
		err := tx.QueryRowContext(ctx,
			`SELECT `+recipientColumns+`, q.user_id, q.title, q.fields
			 FROM questionnaire_recipients r
			 JOIN questionnaires q ON q.id = r.questionnaire_id
			 WHERE r.id = ? FOR UPDATE`, id,
		).Scan(&v.ID, &v.QuestionnaireID, &v.EmployeeID, &st, &answers,
			&v.SentAt, &viewedAt, &submittedAt, &v.OwnerID, &v.Title, &fields)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NewNotFound("questionnaire not found")
		}
		if err != nil {
			return fmt.Errorf("locking recipient: %w", err)
		}
		v.Status = status.Recipient(st)
		v.ViewedAt = timePtr(viewedAt)
		v.SubmittedAt = timePtr(submittedAt)
		if v.Answers, err = decodeAnswers(answers); err != nil {
			return err
		}
		if v.Fields, err = decodeFields(fields); err != nil {
			return err
		}

		write, err := fn(&v)
		if err != nil || !write {
			return err
		}

		var encoded []byte
		if v.Answers != nil {
			if encoded, err = json.Marshal(v.Answers); err != nil {
				return apperror.NewBadRequest("answers must be JSON-encodable")
			}
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE questionnaire_recipients
			 SET status = ?, answers = ?, viewed_at = ?, submitted_at = ? WHERE id = ?`,
			string(v.Status), encoded, v.ViewedAt, v.SubmittedAt, v.ID)
		if err != nil {
			return fmt.Errorf("updating recipient: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipient(row scanner, rc *Recipient) error {
	var st string
	var answers []byte
	var viewedAt, submittedAt sql.NullTime
	if err := row.Scan(&rc.ID, &rc.QuestionnaireID, &rc.EmployeeID, &st, &answers,
		&rc.SentAt, &viewedAt, &submittedAt); err != nil {
		return fmt.Errorf("scanning recipient: %w", err)
	}
	rc.Status = status.Recipient(st)
	rc.ViewedAt = timePtr(viewedAt)
	rc.SubmittedAt = timePtr(submittedAt)
	var err error
	rc.Answers, err = decodeAnswers(answers)
	return err
}

func decodeFields(raw []byte) ([]string, error) {
	fields := []string{}
	if len(raw) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decoding questionnaire fields: %w", err)
	}
	return fields, nil
}

func decodeAnswers(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var answers map[string]any
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decoding answers: %w", err)
	}
	return answers, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
