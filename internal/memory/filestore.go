package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one JSON document per session under a directory.
type FileStore struct {
	dir             string
	defaultTimezone string
}

func NewFileStore(dir, defaultTimezone string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("memory dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	return &FileStore{dir: dir, defaultTimezone: defaultTimezone}, nil
}

func (s *FileStore) Load(_ context.Context, sessionID string) (*Record, error) {
	path, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewRecord(sessionID, s.defaultTimezone), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read memory file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode memory file: %w", err)
	}
	// The file name is authoritative for the session key.
	rec.SessionID = sessionID
	if strings.TrimSpace(rec.Timezone) == "" {
		rec.Timezone = s.defaultTimezone
	}
	return &rec, nil
}

func (s *FileStore) Save(_ context.Context, rec *Record) error {
	path, err := s.path(rec.SessionID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+rec.SessionID+"-*")
	if err != nil {
		return fmt.Errorf("create temp memory file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write memory file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close memory file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace memory file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, "/\\.") {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(s.dir, sessionID+".json"), nil
}
