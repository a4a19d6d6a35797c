package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultQueueSize    = 1024
	DefaultWriteTimeout = 2 * time.Second
)

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	QueueSize    int
	WriteTimeout time.Duration // upper bound for a single Sink.Record call
}

// Recorder delivers events to a Sink asynchronously. Record never blocks
// and never fails; events that do not fit in the queue are dropped.
type Recorder struct {
	sink         Sink
	queue        chan Event
	writeTimeout time.Duration
	done         chan struct{}
	dropped      atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts a Recorder writing to sink. A nil sink records nothing.
func NewRecorder(sink Sink, cfg RecorderConfig) *Recorder {
	if sink == nil {
		sink = NopSink{}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	r := &Recorder{
		sink:         sink,
		queue:        make(chan Event, cfg.QueueSize),
		writeTimeout: cfg.WriteTimeout,
		done:         make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues an event, filling in ID and Time when unset.
func (r *Recorder) Record(ctx context.Context, e Event) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}

	select {
	case r.queue <- e:
	default:
		r.dropped.Add(1)
		slog.DebugContext(ctx, "audit queue full, event dropped", "event", e.Event, "uid", e.Identity)
	}
}

// Dropped returns the number of events discarded so far.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Close stops accepting events and waits for queued ones to be written,
// or for ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close audit recorder: %w", ctx.Err())
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.queue {
		r.write(e)
	}
}

func (r *Recorder) write(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			slog.Error("audit sink panicked", "panic", p, "event", e.Event)
		}
	}()

	if err := r.sink.Record(ctx, e); err != nil {
		slog.Warn("audit sink failed", "err", err, "event", e.Event, "uid", e.Identity)
	}
}
