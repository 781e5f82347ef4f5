// Package userlog keeps an audit log of confirmed user names. Every time a
// user confirms their name, one row is appended; the admin listing returns
// rows newest first.
package userlog

import (
	"context"
	"time"
)

type Entry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	SessionID string    `json:"session_id"`
}

type Store interface {
	Record(ctx context.Context, name, sessionID string) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}
