package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Service records and queries console events.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an activity service over repo.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Append validates and stores entry, stamping it if it has no time.
func (s *Service) Append(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || !entry.ActivityType.Valid() || strings.TrimSpace(entry.Summary) == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("appending %s event: %w", entry.ActivityType, err)
	}
	return nil
}

// Record appends an event with details encoded as JSON. Failures are logged
// and dropped; the console keeps working when the audit store does not.
func (s *Service) Record(ctx context.Context, sessionID string, typ ActivityType, summary string, details any) {
	entry := &ActivityEntry{SessionID: sessionID, ActivityType: typ, Summary: summary}
	if details != nil {
		if data, err := json.Marshal(details); err == nil {
			entry.Details = string(data)
		}
	}
	if err := s.Append(ctx, entry); err != nil {
		s.logger.Warn("activity not recorded", "type", typ, "session_id", sessionID, "error", err)
	}
}

// Recent returns events matching q, newest first, with the limit clamped
// to [1, MaxLimit].
func (s *Service) Recent(ctx context.Context, q Query) ([]ActivityEntry, error) {
	for _, t := range q.Types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
		}
	}
	entries, err := s.repo.Recent(ctx, q.normalized())
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	if entries == nil {
		entries = []ActivityEntry{}
	}
	return entries, nil
}
