package questionnaires

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/status"
)

var lockColumns = []string{
	"id", "questionnaire_id", "employee_id", "status", "answers",
	"sent_at", "viewed_at", "submitted_at", "user_id", "title", "fields",
}

func TestRepository_UpdateRecipientWrites(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	sentAt := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	submittedAt := sentAt.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE r.id = ? FOR UPDATE`)).
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows(lockColumns).
			AddRow("r-1", "q-1", "emp-1", "sent", nil, sentAt, nil, nil, "u-1", "Annual review", []byte(`["scope"]`)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE questionnaire_recipients`)).
		WithArgs("submitted", []byte(`{"scope":"all"}`), nil, &submittedAt, "r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	v, err := NewRepository(db).UpdateRecipient(context.Background(), "r-1", func(v *RecipientView) (bool, error) {
		if len(v.Fields) != 1 || v.Fields[0] != "scope" || v.OwnerID != "u-1" {
			t.Errorf("unexpected locked view %+v", v)
		}
		v.Status = status.RecipientSubmitted
		v.Answers = map[string]any{"scope": "all"}
		v.SubmittedAt = &submittedAt
		return true, nil
	})
	if err != nil {
		t.Fatalf("UpdateRecipient: %v", err)
	}
	if v.Status != status.RecipientSubmitted {
		t.Errorf("expected submitted, got %s", v.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRepository_UpdateRecipientCallbackErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WillReturnRows(sqlmock.NewRows(lockColumns).
			AddRow("r-1", "q-1", "emp-1", "submitted", []byte(`{"scope":"x"}`), time.Now(), nil, time.Now(), "u-1", "t", []byte(`["scope"]`)))
	mock.ExpectRollback()

	_, err = NewRepository(db).UpdateRecipient(context.Background(), "r-1", func(v *RecipientView) (bool, error) {
		return false, v.Status.CanSubmit()
	})
	if !apperror.IsConflict(err) {
		t.Errorf("expected Conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRepository_UpdateRecipientMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err = NewRepository(db).UpdateRecipient(context.Background(), "nope", func(*RecipientView) (bool, error) {
		t.Error("callback must not run for a missing recipient")
		return false, nil
	})
	if !apperror.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestRepository_FindByIDDecodesFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM questionnaires WHERE id = ?`)).
		WithArgs("q-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "fields", "created_at"}).
			AddRow("q-1", "u-1", "Annual review", []byte(`["scope","owner"]`), time.Now()))

	q, err := NewRepository(db).FindByID(context.Background(), "q-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(q.Fields) != 2 || q.Fields[1] != "owner" {
		t.Errorf("unexpected fields %v", q.Fields)
	}
}
