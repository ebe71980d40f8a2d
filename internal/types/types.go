// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles —
// handlers, service, storage, and utils can all import types without
// depending on each other.
package types

import "time"

// StudentRecord is a student row as stored in PostgreSQL and as it
// appears on the wire.
//
// Struct tags:
//
//  1. json:"..." — controls how the field appears when encoded to JSON
//     (snake_case names match REST API conventions).
//
//  2. Age is a pointer because the column is nullable: a student with
//     no recorded age serializes as "age": null rather than 0.
//
// ID, CreatedAt, and UpdatedAt are output-only: the store generates
// them, and incoming payloads that include them are ignored.
type StudentRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       *int      `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateStudentRequest is the POST /students payload.
//
// validate:"..." rules are checked by the go-playground/validator
// package before the request reaches the service layer:
//
//   - name:  required, non-empty
//   - email: required, syntactically valid
//   - age:   optional, but if supplied must fall in (0,150)
type CreateStudentRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Age   *int   `json:"age"   validate:"omitempty,gt=0,lt=150"`
}

// UpdateStudentRequest is the PUT /students/{id} payload.
//
// Every field is a pointer so the handler can tell "field omitted"
// (nil — leave it unchanged) apart from "field supplied" (non-nil —
// overwrite). Only supplied fields are applied; the store refreshes
// updated_at on every mutation.
type UpdateStudentRequest struct {
	Name  *string `json:"name"  validate:"omitempty,min=1"`
	Email *string `json:"email" validate:"omitempty,email"`
	Age   *int    `json:"age"   validate:"omitempty,gt=0,lt=150"`
}
