// Package status defines the enumerated status families used by the API and
// the rules for moving between them.
//
// Document and pending-user statuses may be set to any valid value. Recipient
// status only moves forward: sent -> viewed -> submitted, with submission also
// allowed straight from sent.
package status

import (
	"fmt"
	"slices"
	"strings"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// Recipient is the status of a questionnaire recipient.
type Recipient string

const (
	RecipientSent      Recipient = "sent"
	RecipientViewed    Recipient = "viewed"
	RecipientSubmitted Recipient = "submitted"
)

// Document is the review status of a document.
type Document string

const (
	DocumentNone          Document = "none"
	DocumentDraft         Document = "draft"
	DocumentPendingReview Document = "pendingReview"
	DocumentUnderReview   Document = "underReview"
	DocumentApproved      Document = "approved"
	DocumentRejected      Document = "rejected"
	DocumentArchived      Document = "archived"
)

// PendingUser is the review status of a sign-up request.
type PendingUser string

const (
	PendingUserPending  PendingUser = "pending"
	PendingUserInReview PendingUser = "inReview"
	PendingUserAccepted PendingUser = "accepted"
	PendingUserRejected PendingUser = "rejected"
)

// Ordered value lists. They must match the ENUM columns in db/migrations.
var (
	RecipientValues   = []Recipient{RecipientSent, RecipientViewed, RecipientSubmitted}
	DocumentValues    = []Document{DocumentNone, DocumentDraft, DocumentPendingReview, DocumentUnderReview, DocumentApproved, DocumentRejected, DocumentArchived}
	PendingUserValues = []PendingUser{PendingUserPending, PendingUserInReview, PendingUserAccepted, PendingUserRejected}
)

// ParseDocument validates a raw document status. Values are case-sensitive
// because they are stored verbatim in the ENUM column.
func ParseDocument(raw string) (Document, error) {
	s := Document(strings.TrimSpace(raw))
	if !slices.Contains(DocumentValues, s) {
		return "", invalid("document", raw, DocumentValues)
	}
	return s, nil
}

// ParsePendingUser validates a raw pending-user status.
func ParsePendingUser(raw string) (PendingUser, error) {
	s := PendingUser(strings.TrimSpace(raw))
	if !slices.Contains(PendingUserValues, s) {
		return "", invalid("pending user", raw, PendingUserValues)
	}
	return s, nil
}

// ParseRecipient validates a raw recipient status.
func ParseRecipient(raw string) (Recipient, error) {
	s := Recipient(strings.TrimSpace(raw))
	if !slices.Contains(RecipientValues, s) {
		return "", invalid("recipient", raw, RecipientValues)
	}
	return s, nil
}

// AfterView returns the status a recipient moves to when they open the
// questionnaire. Only sent moves; viewed and submitted are left untouched so
// a late read never regresses a submission.
func (r Recipient) AfterView() (next Recipient, changed bool) {
	if r == RecipientSent {
		return RecipientViewed, true
	}
	return r, false
}

// CanSubmit reports whether answers may be recorded from this status.
// Submitting without viewing first is allowed.
func (r Recipient) CanSubmit() error {
	switch r {
	case RecipientSent, RecipientViewed:
		return nil
	case RecipientSubmitted:
		return apperror.NewConflict("questionnaire already submitted")
	default:
		return invalid("recipient", string(r), RecipientValues)
	}
}

func invalid[T ~string](family, raw string, allowed []T) *apperror.AppError {
	names := make([]string, len(allowed))
	for i, v := range allowed {
		names[i] = string(v)
	}
	return apperror.NewBadRequest(fmt.Sprintf("invalid %s status %q; allowed: %s",
		family, raw, strings.Join(names, ", ")))
}
