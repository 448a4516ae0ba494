package jobs

import "time"

// WelcomeEmailPayload is queued at signup.
type WelcomeEmailPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	URL    string `json:"url"`
}

// PasswordChangedPayload is queued after a reset or an update of the password.
type PasswordChangedPayload struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ChangedAt time.Time `json:"changedAt"`
}
