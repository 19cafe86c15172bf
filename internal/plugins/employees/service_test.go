package employees

import (
	"context"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// memRepo is an in-memory Repository enforcing the unique username index.
type memRepo struct {
	rows      map[string]Employee
	createErr error
}

func newMemRepo() *memRepo { return &memRepo{rows: map[string]Employee{}} }

func (m *memRepo) Create(_ context.Context, e *Employee) error {
	if err := m.createErr; err != nil {
		m.createErr = nil
		return err
	}
	for _, other := range m.rows {
		if other.Username == e.Username {
			return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key '" + idxUsername + "'"}
		}
	}
	m.rows[e.ID] = *e
	return nil
}

func (m *memRepo) FindByID(_ context.Context, id string) (*Employee, error) {
	e, ok := m.rows[id]
	if !ok {
		return nil, apperror.NewNotFound("employee not found")
	}
	return &e, nil
}

func (m *memRepo) ListByUser(_ context.Context, userID string) ([]Employee, error) {
	var out []Employee
	for _, e := range m.rows {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, userID, id string) error {
	e, ok := m.rows[id]
	if !ok || e.UserID != userID {
		return apperror.NewNotFound("employee not found")
	}
	delete(m.rows, id)
	return nil
}

func (m *memRepo) UsernameExists(_ context.Context, name string) (bool, error) {
	for _, e := range m.rows {
		if e.Username == name {
			return true, nil
		}
	}
	return false, nil
}

func TestCreate_AllocatesUsernames(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	want := []string{"jane.doe", "jane.doe-1", "jane.doe-2"}
	for i, w := range want {
		e, err := svc.Create(ctx, "owner-1", CreateRequest{FirstName: " Jane ", LastName: "Doe"})
		require.NoError(t, err, "employee %d", i)
		assert.Equal(t, w, e.Username)
	}
}

func TestCreate_UsernamesAreGlobalAcrossOwners(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner-1", CreateRequest{FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	e, err := svc.Create(ctx, "owner-2", CreateRequest{FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe-1", e.Username, "the employees table is one username space")
}

func TestCreate_RetriesAfterRace(t *testing.T) {
	repo := newMemRepo()
	repo.createErr = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'jane.doe' for key 'uq_employees_username'"}
	svc := NewService(repo, nil, nil)

	e, err := svc.Create(context.Background(), "owner-1", CreateRequest{FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe", e.Username)
	assert.Len(t, repo.rows, 1)
}

func TestCreate_InvalidEmail(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	_, err := svc.Create(context.Background(), "owner-1", CreateRequest{FirstName: "A", LastName: "B", Email: "nope"})
	assert.Equal(t, 400, apperror.CodeOf(err))
}

func TestGetOwned(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	e, err := svc.Create(ctx, "owner-1", CreateRequest{FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)

	got, err := svc.GetOwned(ctx, "owner-1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = svc.GetOwned(ctx, "owner-2", e.ID)
	assert.True(t, apperror.IsNotFound(err), "another owner's employee is invisible")
}

func TestDelete(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	e, _ := svc.Create(ctx, "owner-1", CreateRequest{FirstName: "Jane", LastName: "Doe"})

	assert.True(t, apperror.IsNotFound(svc.Delete(ctx, "owner-2", e.ID)))
	require.NoError(t, svc.Delete(ctx, "owner-1", e.ID))
	assert.Empty(t, repo.rows)
}
