package models

import "time"

// SessionState represents the staging state of an edit session
type SessionState string

const (
	SessionStateIdle    SessionState = "idle"
	SessionStateStaging SessionState = "staging"
)

// SessionSnapshot is a read-only copy of an edit session's state
type SessionSnapshot struct {
	ID           string         `json:"id"`
	ModuleID     int            `json:"moduleId"`
	State        SessionState   `json:"state"`
	Items        []Item         `json:"items"`
	Questions    []QuizQuestion `json:"questions"`
	EditingIndex *int           `json:"editingIndex,omitempty"`
	LastUsed     time.Time      `json:"lastUsed"`
}
