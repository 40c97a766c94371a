package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-reminders/internal/services"
)

const defaultSendTimeout = 30 * time.Second

// Queue hands completions to a single background worker so that request
// paths never wait on delivery. When the buffer is full new completions are
// dropped.
type Queue struct {
	logger  zerolog.Logger
	next    services.Notifier
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan services.Completion
	done   chan struct{}
}

func NewQueue(logger zerolog.Logger, next services.Notifier, size int, timeout time.Duration) *Queue {
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	q := &Queue{
		logger:  logger,
		next:    next,
		timeout: timeout,
		jobs:    make(chan services.Completion, size),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for completion := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		q.next.NotifyCompletion(ctx, completion)
		cancel()
	}
}

func (q *Queue) NotifyCompletion(_ context.Context, completion services.Completion) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn().
			Str("reminder_id", completion.ReminderID).
			Msg("notification queue closed, dropping completion")
		return
	}

	select {
	case q.jobs <- completion:
	default:
		q.logger.Warn().
			Str("reminder_id", completion.ReminderID).
			Msg("notification queue full, dropping completion")
	}
}

// Close stops accepting completions and waits for queued ones to be
// delivered or for ctx to end.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
