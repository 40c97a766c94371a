package timer

import "github.com/adanyl0v/go-reminders/internal/models"

// Reconcile re-derives the remaining time of r at now. An active reminder
// whose end time has passed becomes completed and the second return value
// reports it; this is the only transition that happens without a user
// action. A paused reminder is never completed here, its remaining time is
// frozen at EndTime - PausedAt.
func Reconcile(r models.Reminder, now int64) (models.Reminder, bool) {
	switch {
	case r.IsCompleted:
		return r, false
	case r.IsActive && r.EndTime > 0:
		remaining := remainingUntil(r.EndTime, now)
		if remaining <= 0 {
			res := complete(r)
			return res.Reminder, res.Completed
		}
		r.RemainingSeconds = remaining
		return r, false
	case !r.IsActive && r.PausedAt != nil && r.EndTime > 0:
		r.RemainingSeconds = remainingUntil(r.EndTime, *r.PausedAt)
		return r, false
	default:
		return r, false
	}
}
