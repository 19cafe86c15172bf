package questionnaires

import (
	"context"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/plugins/employees"
	"github.com/qualis-hq/backoffice/internal/status"
)

type memRepo struct {
	questionnaires map[string]*Questionnaire
	recipients     map[string]*Recipient
}

func newMemRepo() *memRepo {
	return &memRepo{questionnaires: map[string]*Questionnaire{}, recipients: map[string]*Recipient{}}
}

func (m *memRepo) Create(_ context.Context, q *Questionnaire) error {
	cp := *q
	m.questionnaires[q.ID] = &cp
	return nil
}

func (m *memRepo) FindByID(_ context.Context, id string) (*Questionnaire, error) {
	q, ok := m.questionnaires[id]
	if !ok {
		return nil, apperror.NewNotFound("questionnaire not found")
	}
	cp := *q
	return &cp, nil
}

func (m *memRepo) ListByUser(_ context.Context, userID string) ([]Questionnaire, error) {
	var out []Questionnaire
	for _, q := range m.questionnaires {
		if q.UserID == userID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (m *memRepo) AddRecipient(_ context.Context, r *Recipient) error {
	for _, existing := range m.recipients {
		if existing.QuestionnaireID == r.QuestionnaireID && existing.EmployeeID == r.EmployeeID {
			return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'uq_recipient'"}
		}
	}
	cp := *r
	m.recipients[r.ID] = &cp
	return nil
}

func (m *memRepo) ListRecipients(_ context.Context, questionnaireID string) ([]Recipient, error) {
	var out []Recipient
	for _, r := range m.recipients {
		if r.QuestionnaireID == questionnaireID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateRecipient(_ context.Context, id string, fn func(v *RecipientView) (bool, error)) (*RecipientView, error) {
	r, ok := m.recipients[id]
	if !ok {
		return nil, apperror.NewNotFound("questionnaire not found")
	}
	q := m.questionnaires[r.QuestionnaireID]
	v := &RecipientView{Recipient: *r, OwnerID: q.UserID, Title: q.Title, Fields: q.Fields}
	write, err := fn(v)
	if err != nil {
		return nil, err
	}
	if write {
		*r = v.Recipient
	}
	return v, nil
}

// staff owns employees by ID.
type staff map[string]string

func (s staff) GetOwned(_ context.Context, userID, id string) (*employees.Employee, error) {
	if s[id] != userID {
		return nil, apperror.NewNotFound("employee not found")
	}
	return &employees.Employee{ID: id, UserID: userID}, nil
}

type kindRecorder struct{ kinds []string }

func (r *kindRecorder) Record(_ context.Context, _, kind, _ string, _ map[string]any) {
	r.kinds = append(r.kinds, kind)
}

func setup(t *testing.T) (Service, *memRepo, *kindRecorder, *Questionnaire) {
	t.Helper()
	repo := newMemRepo()
	rec := &kindRecorder{}
	svc := NewService(repo, staff{"emp-1": "u-1", "emp-2": "u-1", "emp-x": "u-2"}, rec)

	q, err := svc.Create(context.Background(), "u-1", CreateRequest{
		Title:  "Annual review",
		Fields: []string{"scope", " owner "},
	})
	require.NoError(t, err)
	return svc, repo, rec, q
}

func TestCreate_Fields(t *testing.T) {
	svc, _, _, q := setup(t)
	assert.Equal(t, []string{"scope", "owner"}, q.Fields)

	_, err := svc.Create(context.Background(), "u-1", CreateRequest{Title: "x", Fields: []string{"a", "a"}})
	assert.Equal(t, 400, apperror.CodeOf(err))

	_, err = svc.Create(context.Background(), "u-1", CreateRequest{Title: "x", Fields: []string{" "}})
	assert.Equal(t, 400, apperror.CodeOf(err))

	_, err = svc.Create(context.Background(), "u-1", CreateRequest{Title: "<b></b>"})
	assert.Equal(t, 400, apperror.CodeOf(err))
}

func TestSend(t *testing.T) {
	svc, _, rec, q := setup(t)
	ctx := context.Background()

	sent, err := svc.Send(ctx, "u-1", q.ID, SendRequest{EmployeeIDs: []string{"emp-1", "emp-2"}})
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Equal(t, status.RecipientSent, sent[0].Status)

	// Resending skips employees who already have a copy.
	sent, err = svc.Send(ctx, "u-1", q.ID, SendRequest{EmployeeIDs: []string{"emp-1"}})
	require.NoError(t, err)
	assert.Empty(t, sent)
	assert.Len(t, rec.kinds, 2)

	_, err = svc.Send(ctx, "u-1", q.ID, SendRequest{EmployeeIDs: []string{"emp-x"}})
	assert.True(t, apperror.IsNotFound(err), "another customer's employee")

	_, err = svc.Send(ctx, "u-2", q.ID, SendRequest{EmployeeIDs: []string{"emp-x"}})
	assert.True(t, apperror.IsNotFound(err), "another customer's questionnaire")

	_, err = svc.Send(ctx, "u-1", q.ID, SendRequest{})
	assert.Equal(t, 400, apperror.CodeOf(err))
}

func TestViewThenSubmit(t *testing.T) {
	svc, _, rec, q := setup(t)
	ctx := context.Background()

	sent, err := svc.Send(ctx, "u-1", q.ID, SendRequest{EmployeeIDs: []string{"emp-1"}})
	require.NoError(t, err)
	id := sent[0].ID

	v, err := svc.View(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, status.RecipientViewed, v.Status)
	assert.NotNil(t, v.ViewedAt)
	assert.Equal(t, "Annual review", v.Title)

	// A second view changes nothing and is not recorded again.
	_, err = svc.View(ctx, id)
	require.NoError(t, err)

	v, err = svc.Submit(ctx, id, SubmitRequest{Answers: map[string]any{"scope": "all sites", "owner": "Jane"}})
	require.NoError(t, err)
	assert.Equal(t, status.RecipientSubmitted, v.Status)
	assert.NotNil(t, v.SubmittedAt)

	// Viewing after submission never regresses the status.
	v, err = svc.View(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, status.RecipientSubmitted, v.Status)

	_, err = svc.Submit(ctx, id, SubmitRequest{Answers: map[string]any{"scope": "x", "owner": "y"}})
	assert.True(t, apperror.IsConflict(err))

	assert.Equal(t, []string{
		"questionnaire.sent", "questionnaire.viewed", "questionnaire.submitted",
	}, rec.kinds)
}

func TestSubmit_WithoutView(t *testing.T) {
	svc, _, _, q := setup(t)
	ctx := context.Background()

	sent, err := svc.Send(ctx, "u-1", q.ID, SendRequest{EmployeeIDs: []string{"emp-2"}})
	require.NoError(t, err)

	v, err := svc.Submit(ctx, sent[0].ID, SubmitRequest{Answers: map[string]any{"scope": 1, "owner": nil}})
	require.NoError(t, err)
	assert.Equal(t, status.RecipientSubmitted, v.Status)
}

func TestSubmit_KeySetMismatch(t *testing.T) {
	svc, repo, _, q := setup(t)
	ctx := context.Background()

	sent, err := svc.Send(ctx, "u-1", q.ID, SendRequest{EmployeeIDs: []string{"emp-1"}})
	require.NoError(t, err)
	id := sent[0].ID

	_, err = svc.Submit(ctx, id, SubmitRequest{Answers: map[string]any{"scope": "x"}})
	assert.Equal(t, 400, apperror.CodeOf(err))
	assert.Contains(t, apperror.SafeMessage(err), "missing: owner")

	_, err = svc.Submit(ctx, id, SubmitRequest{Answers: map[string]any{"scope": "x", "owner": "y", "extra": true}})
	assert.Contains(t, apperror.SafeMessage(err), "unexpected: extra")

	assert.Equal(t, status.RecipientSent, repo.recipients[id].Status, "rejected submission leaves the row untouched")
	assert.Nil(t, repo.recipients[id].Answers)
}

func TestView_Unknown(t *testing.T) {
	svc, _, _, _ := setup(t)
	_, err := svc.View(context.Background(), "missing")
	assert.True(t, apperror.IsNotFound(err))
}

func TestRecipients_OwnerOnly(t *testing.T) {
	svc, _, _, q := setup(t)
	ctx := context.Background()
	_, err := svc.Send(ctx, "u-1", q.ID, SendRequest{EmployeeIDs: []string{"emp-1"}})
	require.NoError(t, err)

	list, err := svc.Recipients(ctx, "u-1", q.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Recipients(ctx, "u-2", q.ID)
	assert.True(t, apperror.IsNotFound(err))
}
