// Package pendingusers handles sign-up requests from prospective customers
// and their review by admins.
package pendingusers

import (
	"time"

	"github.com/qualis-hq/backoffice/internal/status"
)

// PendingUser is a sign-up request awaiting review.
type PendingUser struct {
	ID        string             `json:"id"`
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	Email     string             `json:"email"`
	Company   string             `json:"company,omitempty"`
	Status    status.PendingUser `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// SubmitRequest is the body of POST /pending-users.
type SubmitRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Company   string `json:"company"`
}

// StatusRequest is the body of PUT /admin/pending-users/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
}
