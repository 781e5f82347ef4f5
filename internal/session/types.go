package session

import "time"

// CreateRequest defines payload for creating a new session.
type CreateRequest struct {
	UserName string `json:"user_name"`
}

// CreateResponse returns created session metadata.
type CreateResponse struct {
	SessionID       string    `json:"session_id"`
	UserName        string    `json:"user_name,omitempty"`
	Status          Status    `json:"status"`
	Greeting        string    `json:"greeting,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	LastActivityAt  time.Time `json:"last_activity_at"`
	InactivityTTLMS int64     `json:"inactivity_ttl_ms"`
}
