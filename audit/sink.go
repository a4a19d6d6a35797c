// Package audit records authentication and authorization events.
//
// Recording is best effort: a Recorder hands events to a Sink from a
// background goroutine, drops them when its queue is full, and never
// reports a failure to the request that produced the event.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a single audit record.
type Event struct {
	ID       uuid.UUID `json:"id"`
	Time     time.Time `json:"time"`
	Event    string    `json:"event"`
	Action   string    `json:"action"`
	Identity string    `json:"uid"`
	Reason   string    `json:"reason,omitempty"`
	Remote   string    `json:"remote,omitempty"`
}

// Event names.
const (
	EventAuthSuccess = "auth_success"
	EventAuthFailure = "auth_failure"
	EventNoRoot      = "no_root"
	EventRootFailure = "root_failure"
)

// Sink stores audit events. Implementations may be slow or fail; the
// Recorder isolates callers from both.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// NopSink discards every event. It is the default when no audit backend is configured.
type NopSink struct{}

func (NopSink) Record(context.Context, Event) error { return nil }

// LogSink writes events to a structured logger.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default().
func NewLogSink(logger *slog.Logger, level slog.Level) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger, level: level}
}

func (s *LogSink) Record(ctx context.Context, e Event) error {
	s.logger.LogAttrs(ctx, s.level, "audit",
		slog.String("event", e.Event),
		slog.String("action", e.Action),
		slog.String("uid", e.Identity),
		slog.String("reason", e.Reason),
		slog.String("remote", e.Remote),
		slog.String("id", e.ID.String()),
	)
	return nil
}

// Repo persists audit events.
type Repo interface {
	Insert(ctx context.Context, e Event) error
}

// RepoSink stores events through a Repo.
type RepoSink struct {
	repo Repo
}

func NewRepoSink(repo Repo) *RepoSink {
	return &RepoSink{repo: repo}
}

func (s *RepoSink) Record(ctx context.Context, e Event) error {
	return s.repo.Insert(ctx, e)
}

// MemorySink keeps events in memory (development/testing use).
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Record(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of the stored events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// DefaultListLimit is used when a ListQuery has no limit.
const DefaultListLimit = 100

// ListQuery filters stored events, newest first. Zero fields match everything.
type ListQuery struct {
	Identity string
	Event    string
	Limit    int
}

// Store is a Repo that can read events back.
type Store interface {
	Repo
	List(ctx context.Context, q ListQuery) ([]Event, error)
}
