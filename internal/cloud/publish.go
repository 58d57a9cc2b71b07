// Package cloud publishes exported clips to remote storage.
package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
)

// Publisher copies a finished clip somewhere shareable and returns its URL.
type Publisher interface {
	Publish(ctx context.Context, localPath, key string) (string, error)
	Enabled() bool
}

// PublishError is a failed upload.
type PublishError struct {
	StatusCode int
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("publish failed: HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("publish failed: %v", e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// IsRetryable returns true for server errors (5xx) and network errors.
// Client errors (4xx) are considered permanent.
func (e *PublishError) IsRetryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// ObjectKey builds the remote key of a clip: prefix/mediaID/file.
func ObjectKey(prefix, mediaID, localPath string) string {
	parts := []string{}
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	if mediaID != "" {
		parts = append(parts, mediaID)
	}
	parts = append(parts, filepath.Base(localPath))
	return path.Join(parts...)
}

// StubPublisher keeps clips local. Publish reports the file URL.
type StubPublisher struct {
	logger *slog.Logger
}

func NewStubPublisher(logger *slog.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (s *StubPublisher) Publish(ctx context.Context, localPath, key string) (string, error) {
	s.logger.Debug("publish stub: clip stays local", "path", localPath, "key", key)
	return "file://" + filepath.ToSlash(localPath), nil
}

func (s *StubPublisher) Enabled() bool { return false }
