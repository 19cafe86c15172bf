package documents

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/status"
)

func TestRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM documents WHERE id = ? AND user_id = ? FOR UPDATE`)).
		WithArgs("doc-1", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE documents SET status = ? WHERE id = ?`)).
		WithArgs("approved", "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	from, err := NewRepository(db).UpdateStatus(context.Background(), "u-1", "doc-1", status.DocumentApproved)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if from != status.DocumentDraft {
		t.Errorf("expected previous status draft, got %s", from)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRepository_UpdateStatusNotOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM documents`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err = NewRepository(db).UpdateStatus(context.Background(), "u-2", "doc-1", status.DocumentApproved)
	if !apperror.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestRepository_ListByUserFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM documents WHERE user_id = \? AND status = \? ORDER BY created_at DESC`).
		WithArgs("u-1", "approved").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "folder_id", "title", "description", "status", "created_at", "updated_at"}))

	list, err := NewRepository(db).ListByUser(context.Background(), "u-1", status.DocumentApproved)
	if err != nil {
		t.Fatal(err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil list, got %v", list)
	}
}
