package timer

import (
	"strings"

	"github.com/adanyl0v/go-reminders/internal/models"
)

// Result is the outcome of Apply.
type Result struct {
	Reminder models.Reminder
	// Completed is set when the transition moved the reminder into the
	// completed phase. It is the trigger for the completion notification.
	Completed bool
}

// Apply computes the next state of r under action a at now. r is taken by
// value and never modified in place.
func Apply(r models.Reminder, a Action, now int64) (Result, error) {
	switch a.Kind {
	case ActionToggle:
		return toggle(r, now)
	case ActionPostpone:
		return Result{Reminder: postpone(r, now)}, nil
	case ActionComplete:
		return complete(r), nil
	case ActionPin:
		r.Pinned = true
		return Result{Reminder: r}, nil
	case ActionUnpin:
		r.Pinned = false
		return Result{Reminder: r}, nil
	case ActionUpdate:
		return Result{Reminder: update(r, a.Patch)}, nil
	default:
		return Result{}, ErrInvalidAction
	}
}

func toggle(r models.Reminder, now int64) (Result, error) {
	switch PhaseOf(&r) {
	case PhaseCompleted:
		return Result{}, ErrCompleted
	case PhaseActive:
		r.RemainingSeconds = remainingUntil(r.EndTime, now)
		r.IsActive = false
		pausedAt := now
		r.PausedAt = &pausedAt
	default:
		r.IsActive = true
		r.EndTime = now + r.RemainingSeconds*1000
		r.PausedAt = nil
	}
	return Result{Reminder: r}, nil
}

func postpone(r models.Reminder, now int64) models.Reminder {
	r.RemainingSeconds = r.TotalSeconds
	r.IsCompleted = false
	r.IsActive = true
	r.EndTime = now + r.TotalSeconds*1000
	r.PausedAt = nil
	return r
}

// complete leaves PausedAt untouched; completion takes precedence over it.
func complete(r models.Reminder) Result {
	if r.IsCompleted {
		return Result{Reminder: r}
	}
	r.IsCompleted = true
	r.IsActive = false
	r.RemainingSeconds = 0
	return Result{Reminder: r, Completed: true}
}

func update(r models.Reminder, p Patch) models.Reminder {
	if p.Title != nil {
		if title := strings.TrimSpace(*p.Title); title != "" {
			r.Title = &title
		} else {
			r.Title = nil
		}
	}
	if p.Category != nil {
		r.Category = strings.TrimSpace(*p.Category)
	}
	if p.UpgradeType != nil {
		r.UpgradeType = *p.UpgradeType
	}
	return r
}
