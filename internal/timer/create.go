package timer

import (
	"fmt"
	"strings"

	"github.com/adanyl0v/go-reminders/internal/models"
)

// MaxTotalSeconds caps a reminder's duration at one year.
const MaxTotalSeconds int64 = 365 * 24 * 3600

type NewReminderParams struct {
	UserID      string
	Title       string
	Category    string
	UpgradeType string
	Hours       int64
	Minutes     int64
	Seconds     int64
	Order       int
}

// NewReminder builds the initial state of a reminder created at now. The
// reminder starts active with its full duration remaining. ID is left for
// the caller to assign.
func NewReminder(params NewReminderParams, now int64) (models.Reminder, error) {
	if params.Hours < 0 || params.Minutes < 0 || params.Seconds < 0 {
		return models.Reminder{}, fmt.Errorf("%w: negative component", ErrInvalidDuration)
	}
	if params.Hours > MaxTotalSeconds/3600 || params.Minutes > MaxTotalSeconds/60 || params.Seconds > MaxTotalSeconds {
		return models.Reminder{}, fmt.Errorf("%w: longer than %d seconds", ErrInvalidDuration, MaxTotalSeconds)
	}
	total := params.Hours*3600 + params.Minutes*60 + params.Seconds
	if total <= 0 {
		return models.Reminder{}, fmt.Errorf("%w: must be positive", ErrInvalidDuration)
	}
	if total > MaxTotalSeconds {
		return models.Reminder{}, fmt.Errorf("%w: longer than %d seconds", ErrInvalidDuration, MaxTotalSeconds)
	}

	category := strings.TrimSpace(params.Category)
	if category == "" {
		return models.Reminder{}, ErrInvalidCategory
	}
	if !models.IsValidUpgradeType(params.UpgradeType) {
		return models.Reminder{}, fmt.Errorf("%w: %q", ErrInvalidUpgrade, params.UpgradeType)
	}

	r := models.Reminder{
		UserID:           params.UserID,
		Category:         category,
		UpgradeType:      params.UpgradeType,
		TotalSeconds:     total,
		RemainingSeconds: total,
		IsActive:         true,
		CreatedAt:        now,
		EndTime:          now + total*1000,
		Order:            params.Order,
	}
	if title := strings.TrimSpace(params.Title); title != "" {
		r.Title = &title
	}
	return r, nil
}
