// Package documents manages a customer's quality documents and their review
// status.
package documents

import (
	"time"

	"github.com/qualis-hq/backoffice/internal/status"
)

// Document is a titled piece of quality documentation.
type Document struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	FolderID    *string         `json:"folderId,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      status.Document `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CreateRequest is the body of POST /documents. Description may carry basic
// HTML; it is sanitized before storage. Status defaults to draft.
type CreateRequest struct {
	FolderID    string `json:"folderId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// StatusRequest is the body of PUT /documents/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
}
