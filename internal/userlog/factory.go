package userlog

import (
	"context"
	"strings"
)

// NewStore creates a postgres-backed log when configured, otherwise SQLite.
func NewStore(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresStore(ctx, databaseURL)
	}
	return NewSQLiteStore(sqlitePath)
}
