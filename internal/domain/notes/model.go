package notes

import (
	"time"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// Note priorities. Urgent notes created today feed the critical-patient
// statistic.
const (
	PriorityRoutine = "routine"
	PriorityUrgent  = "urgent"
)

// Note maps to the patient_notes table.
type Note struct {
	ID        int       `json:"id"`
	PatientID int       `json:"patient_id"`
	AuthorID  int       `json:"author_id"`
	NoteType  string    `json:"note_type,omitempty"`
	Priority  string    `json:"priority"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
	IsLocked  bool      `json:"is_locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest is the payload for writing a note.
type CreateRequest struct {
	NoteType string `json:"note_type"`
	Priority string `json:"priority"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// validationError carries a field message shown to the client verbatim while
// still matching ErrInvalid for status mapping.
type validationError string

func (e validationError) Error() string { return string(e) }
func (e validationError) Unwrap() error { return ErrInvalid }

func (r CreateRequest) Validate() error {
	if r.Content == "" {
		return validationError("Content is required")
	}
	if r.Priority != "" && r.Priority != PriorityRoutine && r.Priority != PriorityUrgent {
		return validationError("priority must be routine or urgent")
	}
	return nil
}

// UpdateRequest carries the new content together with the version the caller
// read; a stale version is rejected with a conflict.
type UpdateRequest struct {
	Content  string `json:"content"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Version  int    `json:"version"`
}

func (r UpdateRequest) Validate() error {
	if r.Content == "" {
		return validationError("Content is required")
	}
	if r.Version < 1 {
		return validationError("version is required")
	}
	return nil
}

func fromRow(r sqlbridge.Row) *Note {
	return &Note{
		ID:        r.Int("id"),
		PatientID: r.Int("patient_id"),
		AuthorID:  r.Int("author_id"),
		NoteType:  r.String("note_type"),
		Priority:  r.String("priority"),
		Title:     r.String("title"),
		Content:   r.String("content"),
		Version:   r.Int("version"),
		IsLocked:  r.Bool("is_locked"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}
}
