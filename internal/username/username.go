// Package username derives collision-free usernames from a person's name.
//
// A username is "first.last" in lower case. When that is taken the allocator
// probes "first.last-1", "first.last-2", ... against the caller's lookup and
// returns the first free candidate. Each account table (users, employees,
// admin_users) is its own namespace; the lookup decides which one is checked.
//
// The probe is a check-then-act sequence, so two concurrent requests can pick
// the same candidate. The UNIQUE index on the username column is the real
// guard: CreateWithRetry re-runs allocation when the insert trips it.
package username

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

const (
	// MaxAttempts bounds the suffix search. Exhausting it returns Conflict.
	MaxAttempts = 10000

	// MaxInsertRetries is how many times CreateWithRetry re-allocates after
	// the insert fails on the unique index.
	MaxInsertRetries = 5
)

// ExistsFunc reports whether a candidate is already taken in one table.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// InsertFunc persists a record under the allocated username. It must return
// an error satisfying the isDuplicate predicate given to CreateWithRetry when
// the username is already taken.
type InsertFunc func(ctx context.Context, username string) error

// lower folds with Unicode rules and no language-specific tailoring, so "É"
// becomes "é" and accents are kept.
var lower = cases.Lower(language.Und)

// Base returns the unsuffixed candidate for a name. Empty parts are kept, so
// Base("", "") is ".".
func Base(firstName, lastName string) string {
	return lower.String(firstName) + "." + lower.String(lastName)
}

// Allocate returns the first free username for the given name.
func Allocate(ctx context.Context, firstName, lastName string, exists ExistsFunc) (string, error) {
	base := Base(firstName, lastName)

	taken, err := exists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("checking username %q: %w", base, err)
	}
	if !taken {
		return base, nil
	}

	for suffix := 1; suffix <= MaxAttempts; suffix++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := base + "-" + strconv.Itoa(suffix)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking username %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", apperror.NewConflict(fmt.Sprintf("no free username for %q after %d attempts", base, MaxAttempts))
}

// CreateWithRetry allocates a username and hands it to insert. If the insert
// fails because another request claimed the same username first, allocation
// runs again. Any other insert error is returned unchanged.
func CreateWithRetry(
	ctx context.Context,
	firstName, lastName string,
	exists ExistsFunc,
	insert InsertFunc,
	isDuplicate func(error) bool,
) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxInsertRetries; attempt++ {
		name, err := Allocate(ctx, firstName, lastName, exists)
		if err != nil {
			return "", err
		}

		err = insert(ctx, name)
		if err == nil {
			return name, nil
		}
		if !isDuplicate(err) {
			return "", err
		}
		lastErr = err
	}

	return "", apperror.NewConflict("username is being claimed concurrently, please retry").
		WithInternal(errors.Join(ErrRetriesExhausted, lastErr))
}

// ErrRetriesExhausted is wrapped into the Conflict returned by
// CreateWithRetry when every insert attempt lost a race.
var ErrRetriesExhausted = errors.New("username insert retries exhausted")
