// Package questionnaires lets customers send questionnaires to their
// employees and collect the answers.
//
// Employees do not hold accounts. A recipient ID is an unguessable UUID that
// works as a link: opening it marks the questionnaire viewed and submitting to
// it records the answers once.
package questionnaires

import (
	"time"

	"github.com/qualis-hq/backoffice/internal/status"
)

// Questionnaire declares the answer keys its recipients must fill in.
type Questionnaire struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Fields    []string  `json:"fields"`
	CreatedAt time.Time `json:"createdAt"`
}

// Recipient is one employee's copy of a questionnaire.
type Recipient struct {
	ID              string           `json:"id"`
	QuestionnaireID string           `json:"questionnaireId"`
	EmployeeID      string           `json:"employeeId"`
	Status          status.Recipient `json:"status"`
	Answers         map[string]any   `json:"answers,omitempty"`
	SentAt          time.Time        `json:"sentAt"`
	ViewedAt        *time.Time       `json:"viewedAt,omitempty"`
	SubmittedAt     *time.Time       `json:"submittedAt,omitempty"`
}

// RecipientView is what the recipient link returns: their copy plus the
// questionnaire it belongs to.
type RecipientView struct {
	Recipient
	OwnerID string   `json:"-"`
	Title   string   `json:"title"`
	Fields  []string `json:"fields"`
}

// CreateRequest is the body of POST /questionnaires.
type CreateRequest struct {
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

// SendRequest is the body of POST /questionnaires/:id/recipients.
type SendRequest struct {
	EmployeeIDs []string `json:"employeeIds"`
}

// SubmitRequest is the body of POST /recipients/:id/submit.
type SubmitRequest struct {
	Answers map[string]any `json:"answers"`
}
