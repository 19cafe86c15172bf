package sequence

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// memStore is an in-memory Store keyed by scope.
type memStore struct {
	rows map[Scope]map[int]bool
}

func newMemStore() *memStore { return &memStore{rows: map[Scope]map[int]bool{}} }

func (m *memStore) add(s Scope, numbers ...int) {
	if m.rows[s] == nil {
		m.rows[s] = map[int]bool{}
	}
	for _, n := range numbers {
		m.rows[s][n] = true
	}
}

func (m *memStore) NumberExists(_ context.Context, s Scope, n int) (bool, error) {
	return m.rows[s][n], nil
}

func (m *memStore) MaxNumber(_ context.Context, s Scope) (int, bool, error) {
	best, ok := 0, false
	for n := range m.rows[s] {
		if !ok || n > best {
			best, ok = n, true
		}
	}
	return best, ok, nil
}

var (
	ownerA = "0b6a4c1e-5d1f-4c57-9a44-3f0f6f1d2a01"
	ownerB = "7c1d9e2f-8a3b-4e6c-b5d4-1a2b3c4d5e6f"
)

func TestNext_NoCollision(t *testing.T) {
	got, err := Next(context.Background(), Scope{ownerA, SystemQuality}, 1, newMemStore())
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestNext_KeepsRequestedWhenFree(t *testing.T) {
	store := newMemStore()
	store.add(Scope{ownerA, SystemQuality}, 1, 2)

	got, err := Next(context.Background(), Scope{ownerA, SystemQuality}, 7, store)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestNext_CollisionAppendsAfterMax(t *testing.T) {
	store := newMemStore()
	store.add(Scope{ownerA, SystemQuality}, 1, 2)

	got, err := Next(context.Background(), Scope{ownerA, SystemQuality}, 1, store)
	require.NoError(t, err)
	assert.Equal(t, 3, got, "collision jumps to max+1, not the next gap")
}

func TestNext_NeverBackfills(t *testing.T) {
	store := newMemStore()
	store.add(Scope{ownerA, Record}, 1, 3) // 2 was deleted

	got, err := Next(context.Background(), Scope{ownerA, Record}, 1, store)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestNext_ScopeIsolation(t *testing.T) {
	store := newMemStore()
	store.add(Scope{ownerA, SystemQuality}, 1, 2, 3)

	got, err := Next(context.Background(), Scope{ownerA, Record}, 1, store)
	require.NoError(t, err)
	assert.Equal(t, 1, got, "other sleeve of the same owner")

	got, err = Next(context.Background(), Scope{ownerB, SystemQuality}, 1, store)
	require.NoError(t, err)
	assert.Equal(t, 1, got, "same sleeve of another owner")
}

// emptyMaxStore reports a collision but no rows for the max query.
type emptyMaxStore struct{}

func (emptyMaxStore) NumberExists(context.Context, Scope, int) (bool, error) { return true, nil }
func (emptyMaxStore) MaxNumber(context.Context, Scope) (int, bool, error)    { return 0, false, nil }

func TestNext_EmptyMaxFallsBackToOne(t *testing.T) {
	got, err := Next(context.Background(), Scope{ownerA, Record}, 5, emptyMaxStore{})
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestNext_RejectsNonPositive(t *testing.T) {
	_, err := Next(context.Background(), Scope{ownerA, Record}, 0, newMemStore())
	assert.Equal(t, http.StatusBadRequest, apperror.CodeOf(err))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("system-quality")
	require.NoError(t, err)
	assert.Equal(t, SystemQuality, c)

	_, err = ParseCategory("archive")
	assert.Equal(t, http.StatusBadRequest, apperror.CodeOf(err))
}

var errDup = errors.New("duplicate")

func TestCreateWithRetry_RecomputesAfterRace(t *testing.T) {
	store := newMemStore()
	scope := Scope{ownerA, SystemQuality}
	store.add(scope, 1)

	attempts := 0
	insert := func(_ context.Context, n int) error {
		attempts++
		if attempts == 1 {
			// A concurrent request claimed 2 between Next and the insert.
			store.add(scope, n)
			return errDup
		}
		store.add(scope, n)
		return nil
	}

	got, err := CreateWithRetry(context.Background(), scope, 1, store, insert,
		func(err error) bool { return errors.Is(err, errDup) })
	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, 2, attempts)
}

func TestCreateWithRetry_Exhausted(t *testing.T) {
	store := newMemStore()
	_, err := CreateWithRetry(context.Background(), Scope{ownerA, Record}, 1, store,
		func(context.Context, int) error { return errDup },
		func(err error) bool { return errors.Is(err, errDup) })
	assert.True(t, apperror.IsConflict(err))
}
