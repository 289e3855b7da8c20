package entity

import (
	"sort"
	"strings"
	"time"

	"github.com/oksasatya/go-ddd-notes/pkg/validation"
)

// Field names reported by Note validation.
const (
	NoteFieldTitle   = "title"
	NoteFieldContent = "content"
	NoteFieldUser    = "user_id"
)

// Note is a titled piece of content owned by a User.
// UserID is a plain reference; an empty UserID means the note has no user.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title" validate:"present"`
	Content   string    `json:"content" validate:"present"`
	UserID    string    `json:"user_id" validate:"present"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the required fields and reports every violation at once.
// It performs no I/O.
func (n *Note) Validate() ValidationResult {
	if n == nil {
		return ValidationResult{Violations: map[string]string{
			NoteFieldTitle:   "is required",
			NoteFieldContent: "is required",
			NoteFieldUser:    "is required",
		}}
	}
	return ValidationResult{Violations: validation.Struct(n)}
}

// ValidationResult is the outcome of Note.Validate.
type ValidationResult struct {
	Violations map[string]string
}

func (r ValidationResult) Valid() bool { return len(r.Violations) == 0 }

// Has reports whether field failed validation.
func (r ValidationResult) Has(field string) bool {
	_, ok := r.Violations[field]
	return ok
}

// Err returns nil for a valid result and an *InvalidNoteError otherwise.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return &InvalidNoteError{Fields: r.Violations}
}

// InvalidNoteError is returned when a note fails validation.
type InvalidNoteError struct {
	Fields map[string]string
}

func (e *InvalidNoteError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid note: " + strings.Join(parts, ", ")
}

// Has reports whether field is among the failed fields.
func (e *InvalidNoteError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}
