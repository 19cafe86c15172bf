// Package records manages the numbered folders and processes of a customer
// account. Both are filed under a sleeve and numbered per (owner, sleeve)
// by the sequence allocator.
package records

import (
	"time"

	"github.com/qualis-hq/backoffice/internal/sequence"
)

// Folder is a numbered binder in one sleeve.
type Folder struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Sleeve    sequence.Category `json:"sleeve"`
	Number    int               `json:"number"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Process is a numbered procedure, optionally filed in a folder.
type Process struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	FolderID  *string           `json:"folderId,omitempty"`
	Sleeve    sequence.Category `json:"sleeve"`
	Number    int               `json:"number"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"createdAt"`
}

// CreateFolderRequest is the body of POST /folders. Number is the number the
// caller would like; zero means "next free".
type CreateFolderRequest struct {
	Sleeve string `json:"sleeve"`
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// CreateProcessRequest is the body of POST /processes.
type CreateProcessRequest struct {
	Sleeve   string `json:"sleeve"`
	Number   int    `json:"number"`
	Name     string `json:"name"`
	FolderID string `json:"folderId"`
}
