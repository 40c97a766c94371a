// Package board keeps a client-side copy of an owner's reminders in sync
// with the server. One goroutine owns the collection; the per-second tick,
// the background sync and user actions all reach it through a command
// channel and merge by reminder ID.
package board

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-reminders/internal/models"
	"github.com/adanyl0v/go-reminders/internal/timer"
	"github.com/adanyl0v/go-reminders/pkg/client"
)

const (
	DefaultTickInterval = time.Second
	DefaultSyncInterval = 10 * time.Second

	eventBuffer = 64
)

var (
	ErrStopped     = errors.New("board stopped")
	ErrInvalidMove = errors.New("invalid move")
)

// API is the part of the reminders client the board calls.
type API interface {
	ListReminders(ctx context.Context, sort string) ([]client.Reminder, error)
	CreateReminder(ctx context.Context, req client.CreateReminderRequest) (*client.Reminder, error)
	Act(ctx context.Context, id string, req client.ActionRequest) (*client.Reminder, error)
	DeleteReminder(ctx context.Context, id string) error
	Sync(ctx context.Context) (*client.SyncResult, error)
	Reorder(ctx context.Context, updates []client.OrderUpdate) (*client.ReorderResult, error)
}

// Event reports a reminder that reached zero, seen either by the local
// tick or by a server sync, whichever came first.
type Event struct {
	ID       string
	Title    string
	Category string
}

type Config struct {
	TickInterval time.Duration
	SyncInterval time.Duration
	SortMode     timer.SortMode
	// Now defaults to time.Now.
	Now func() time.Time
}

type state struct {
	reminders []models.Reminder
	mode      timer.SortMode
}

func (s *state) index(id string) int {
	for i := range s.reminders {
		if s.reminders[i].ID == id {
			return i
		}
	}
	return -1
}

type Board struct {
	logger zerolog.Logger
	api    API
	cfg    Config

	cmds    chan func(*state)
	events  chan Event
	stopped chan struct{}
}

func New(logger zerolog.Logger, api API, cfg Config) *Board {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultSyncInterval
	}
	if cfg.SortMode == "" {
		cfg.SortMode = timer.DefaultSortMode
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Board{
		logger:  logger,
		api:     api,
		cfg:     cfg,
		cmds:    make(chan func(*state)),
		events:  make(chan Event, eventBuffer),
		stopped: make(chan struct{}),
	}
}

// Events delivers completion events. Events are dropped when nobody reads
// them fast enough.
func (b *Board) Events() <-chan Event {
	return b.events
}

// Run owns the reminder collection until ctx is done. Every other method
// needs Run to be running.
func (b *Board) Run(ctx context.Context) {
	defer close(b.stopped)

	st := &state{mode: b.cfg.SortMode}
	tick := time.NewTicker(b.cfg.TickInterval)
	defer tick.Stop()
	sync := time.NewTicker(b.cfg.SyncInterval)
	defer sync.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-b.cmds:
			cmd(st)
		case <-tick.C:
			b.tick(st)
		case <-sync.C:
			go func() {
				err := b.SyncNow(ctx)
				if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrStopped) {
					b.logger.Warn().
						Err(err).
						Msg("background sync failed")
				}
			}()
		}
	}
}

// do runs fn on the owner goroutine and waits for it.
func (b *Board) do(ctx context.Context, fn func(*state)) error {
	done := make(chan struct{})
	cmd := func(st *state) {
		defer close(done)
		fn(st)
	}

	select {
	case b.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-b.stopped:
		return ErrStopped
	}
	<-done
	return nil
}

func (b *Board) emit(r *models.Reminder) {
	event := Event{ID: r.ID, Title: r.DisplayTitle(), Category: r.Category}
	select {
	case b.events <- event:
	default:
		b.logger.Warn().
			Str("reminder_id", r.ID).
			Msg("event buffer full, dropping completion event")
	}
}

func (b *Board) tick(st *state) {
	now := timer.Millis(b.cfg.Now())
	for i := range st.reminders {
		next, crossed := timer.Reconcile(st.reminders[i], now)
		st.reminders[i] = next
		if crossed {
			b.emit(&st.reminders[i])
		}
	}
}

// Tick re-derives remaining times locally without calling the server.
func (b *Board) Tick() error {
	return b.do(context.Background(), b.tick)
}

// Load replaces the collection with the server's reminders.
func (b *Board) Load(ctx context.Context) error {
	list, err := b.api.ListReminders(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list reminders: %w", err)
	}

	reminders := make([]models.Reminder, len(list))
	for i := range list {
		reminders[i] = fromAPI(&list[i])
	}
	return b.do(ctx, func(st *state) {
		st.reminders = reminders
		b.tick(st)
	})
}

// SyncNow asks the server to reconcile and merges the authoritative
// remaining times and completions by ID.
func (b *Board) SyncNow(ctx context.Context) error {
	result, err := b.api.Sync(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync reminders: %w", err)
	}

	return b.do(ctx, func(st *state) {
		for _, u := range result.Updated {
			i := st.index(u.ID)
			if i < 0 || st.reminders[i].IsCompleted {
				continue
			}
			st.reminders[i].RemainingSeconds = u.RemainingSeconds
		}
		for _, c := range result.Completed {
			i := st.index(c.ID)
			if i < 0 {
				continue
			}
			r := &st.reminders[i]
			if r.IsCompleted {
				continue
			}
			r.IsCompleted = true
			r.IsActive = false
			r.RemainingSeconds = 0
			b.emit(r)
		}
	})
}

// Create creates a reminder on the server and adds the result locally.
func (b *Board) Create(ctx context.Context, req client.CreateReminderRequest) (*models.Reminder, error) {
	created, err := b.api.CreateReminder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	r := fromAPI(created)
	err = b.do(ctx, func(st *state) {
		if i := st.index(r.ID); i >= 0 {
			st.reminders[i] = r
			return
		}
		st.reminders = append(st.reminders, r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Act applies an action on the server and then replaces the local record
// with the returned one, emitting an event if that completed it. A reminder
// the server no longer knows is removed locally and the action is treated
// as done.
func (b *Board) Act(ctx context.Context, id string, req client.ActionRequest) error {
	updated, err := b.api.Act(ctx, id, req)
	if err != nil {
		if client.IsStatus(err, http.StatusNotFound) {
			b.logger.Warn().
				Str("reminder_id", id).
				Str("action", req.Action).
				Msg("reminder is gone, dropping it")
			return b.remove(ctx, id)
		}
		return fmt.Errorf("failed to apply %s: %w", req.Action, err)
	}

	r := fromAPI(updated)
	return b.do(ctx, func(st *state) {
		i := st.index(id)
		if i < 0 {
			return
		}
		wasCompleted := st.reminders[i].IsCompleted
		st.reminders[i] = r
		if r.IsCompleted && !wasCompleted {
			b.emit(&st.reminders[i])
		}
	})
}

// Delete deletes a reminder on the server and locally.
func (b *Board) Delete(ctx context.Context, id string) error {
	err := b.api.DeleteReminder(ctx, id)
	if err != nil && !client.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return b.remove(ctx, id)
}

func (b *Board) remove(ctx context.Context, id string) error {
	return b.do(ctx, func(st *state) {
		if i := st.index(id); i >= 0 {
			st.reminders = append(st.reminders[:i], st.reminders[i+1:]...)
		}
	})
}

// SetSortMode changes how Snapshot orders reminders.
func (b *Board) SetSortMode(mode timer.SortMode) error {
	return b.do(context.Background(), func(st *state) {
		st.mode = mode
	})
}

// Snapshot returns the reminders in display order and the current sort mode.
func (b *Board) Snapshot() ([]models.Reminder, timer.SortMode, error) {
	var (
		ordered []models.Reminder
		mode    timer.SortMode
	)
	err := b.do(context.Background(), func(st *state) {
		ordered = timer.Arrange(st.reminders, st.mode).Ordered()
		mode = st.mode
	})
	return ordered, mode, err
}
