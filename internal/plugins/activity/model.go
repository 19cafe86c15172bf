// Package activity records what accounts did and serves it back as a feed.
// Every state change the feature plugins report through events.Recorder is
// stored as an Entry in the events table and forwarded to the broker.
//
// Recording is an observation only: a failed write is logged and the
// caller's operation still succeeds.
package activity

import "time"

// Entry is one recorded action. Details holds kind-specific metadata such as
// the old and new values of a status change.
type Entry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"userId"`
	Kind      string         `json:"kind"`
	SubjectID string         `json:"subjectId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Page is one page of a caller's feed.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"perPage"`
}
