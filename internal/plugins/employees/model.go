// Package employees manages the staff records a customer account keeps.
// Employees do not log in; they receive questionnaires. Each gets a username
// from the same allocator as accounts, in its own namespace.
package employees

import "time"

// Employee belongs to the customer account that created it.
type Employee struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest is the body of POST /employees.
type CreateRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}
