// Package sequence assigns per-owner record numbers to folders and processes.
//
// Numbers are unique within a Scope (owner plus sleeve) only. A requested
// number is kept when it is free; otherwise the record is appended after the
// current maximum. Gaps left by deletions are never backfilled.
package sequence

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// Category is the sleeve a record is filed under.
type Category string

const (
	SystemQuality Category = "system-quality"
	Record        Category = "record"
)

// Categories lists every sleeve, in the order of the sleeve ENUM column.
var Categories = []Category{SystemQuality, Record}

// ParseCategory validates a raw sleeve name.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.TrimSpace(raw))
	if !slices.Contains(Categories, c) {
		return "", apperror.NewBadRequest(fmt.Sprintf("invalid sleeve %q; allowed: system-quality, record", raw))
	}
	return c, nil
}

// Scope is the partition a number must be unique in.
type Scope struct {
	OwnerID  string
	Category Category
}

// Store is the lookup a numbered table exposes to the allocator.
type Store interface {
	// NumberExists reports whether number is already used in scope.
	NumberExists(ctx context.Context, scope Scope, number int) (bool, error)

	// MaxNumber returns the highest number in scope. ok is false when the
	// scope holds no rows.
	MaxNumber(ctx context.Context, scope Scope) (max int, ok bool, err error)
}

// MaxInsertRetries bounds CreateWithRetry.
const MaxInsertRetries = 5

// Next returns the number a new record in scope should take.
func Next(ctx context.Context, scope Scope, requested int, store Store) (int, error) {
	if requested < 1 {
		return 0, apperror.NewBadRequest("number must be a positive integer")
	}

	taken, err := store.NumberExists(ctx, scope, requested)
	if err != nil {
		return 0, fmt.Errorf("checking number %d: %w", requested, err)
	}
	if !taken {
		return requested, nil
	}

	highest, ok, err := store.MaxNumber(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("reading max number: %w", err)
	}
	if !ok {
		return 1, nil
	}
	return highest + 1, nil
}

// CreateWithRetry runs Next and passes the result to insert. When the insert
// loses a race on the (owner, sleeve, number) unique index the number is
// recomputed; the requested number is not retried because it is known taken.
func CreateWithRetry(
	ctx context.Context,
	scope Scope,
	requested int,
	store Store,
	insert func(ctx context.Context, number int) error,
	isDuplicate func(error) bool,
) (int, error) {
	for attempt := 0; attempt <= MaxInsertRetries; attempt++ {
		number, err := Next(ctx, scope, requested, store)
		if err != nil {
			return 0, err
		}

		err = insert(ctx, number)
		if err == nil {
			return number, nil
		}
		if !isDuplicate(err) {
			return 0, err
		}
		requested = number
	}

	return 0, apperror.NewConflict("record number is being claimed concurrently, please retry")
}
