package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

// LogSink writes every event to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Publish implements EventSink.
func (s *LogSink) Publish(ctx context.Context, events []domain.Event) {
	for _, e := range events {
		attrs := []any{
			"event_id", e.ID,
			"topic", string(e.Topic),
			"time", e.Time,
		}
		if e.OrgID != "" {
			attrs = append(attrs, "org", string(e.OrgID))
		}
		if e.ProposalID != nil {
			attrs = append(attrs, "proposal_id", *e.ProposalID)
		}
		s.logger.InfoContext(ctx, "governance event", attrs...)
	}
}

// MemorySink keeps the most recent events in a ring buffer.
type MemorySink struct {
	mu   sync.Mutex
	buf  []domain.Event
	next int
	full bool
}

// NewMemorySink creates a MemorySink holding up to size events.
func NewMemorySink(size int) *MemorySink {
	if size <= 0 {
		size = 1024
	}
	return &MemorySink{buf: make([]domain.Event, size)}
}

// Publish implements EventSink.
func (s *MemorySink) Publish(_ context.Context, events []domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		s.buf[s.next] = e
		s.next = (s.next + 1) % len(s.buf)
		if s.next == 0 {
			s.full = true
		}
	}
}

// Recent returns up to limit events, oldest first, optionally filtered by
// organization. A limit of 0 returns everything retained.
func (s *MemorySink) Recent(org domain.Address, limit int) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ordered []domain.Event
	if s.full {
		ordered = append(ordered, s.buf[s.next:]...)
	}
	ordered = append(ordered, s.buf[:s.next]...)

	out := make([]domain.Event, 0, len(ordered))
	for _, e := range ordered {
		if org == "" || e.OrgID == org {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// MultiSink fans events out to several sinks in order.
type MultiSink []EventSink

// Publish implements EventSink.
func (m MultiSink) Publish(ctx context.Context, events []domain.Event) {
	for _, s := range m {
		s.Publish(ctx, events)
	}
}
