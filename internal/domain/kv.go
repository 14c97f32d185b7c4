package domain

import "time"

// Ephemeral records held in the key-value store. Each is independently
// time-boxed; absence means expired or never set, which is never an error.

// PasswordResetRecord is stored under the SHA-256 of the raw reset token.
type PasswordResetRecord struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

// RestoreRecord is stored under the SHA-256 of the raw restore token and
// reactivates a soft-deleted account within the deletion window.
type RestoreRecord struct {
	UserID      string    `json:"user_id"`
	DeleteAfter time.Time `json:"delete_after"`
}

// DeletionRecord marks a soft-deleted account for the hard-delete sweep.
type DeletionRecord struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DeletedAt   time.Time `json:"deleted_at"`
	DeleteAfter time.Time `json:"delete_after"`
}
