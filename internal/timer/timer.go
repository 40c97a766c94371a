// Package timer holds the reminder lifecycle: creation, user transitions,
// reconciliation against the wall clock and the ordering policy used to
// present an owner's reminders. Everything here is pure; callers supply
// "now" as epoch milliseconds and persist the results themselves.
package timer

import (
	"errors"
	"time"

	"github.com/adanyl0v/go-reminders/internal/models"
)

var (
	ErrInvalidAction   = errors.New("invalid action")
	ErrInvalidPatch    = errors.New("invalid update fields")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidCategory = errors.New("category is required")
	ErrInvalidUpgrade  = errors.New("invalid upgrade type")
	ErrInvalidSortMode = errors.New("invalid sort mode")
	ErrCompleted       = errors.New("reminder is completed")
)

type Phase int

const (
	PhaseActive Phase = iota
	PhasePaused
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhasePaused:
		return "paused"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// PhaseOf classifies r. Completion wins over the active flag.
func PhaseOf(r *models.Reminder) Phase {
	switch {
	case r.IsCompleted:
		return PhaseCompleted
	case r.IsActive:
		return PhaseActive
	default:
		return PhasePaused
	}
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// remainingUntil returns whole seconds left between from and to, never negative.
func remainingUntil(to, from int64) int64 {
	diff := to - from
	if diff <= 0 {
		return 0
	}
	return diff / 1000
}
