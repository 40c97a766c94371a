package models

const (
	UpgradeBuilding = "building"
	UpgradeLab      = "lab"
	UpgradePet      = "pet"
)

// Reminder is a single countdown timer owned by a user.
//
// All timestamps are epoch milliseconds. EndTime is meaningful only while
// the reminder is active; while paused it keeps the value it had when the
// pause happened, so that EndTime - PausedAt is the frozen remaining time.
type Reminder struct {
	ID               string
	UserID           string
	Title            *string
	Category         string
	UpgradeType      string
	TotalSeconds     int64
	RemainingSeconds int64
	IsActive         bool
	IsCompleted      bool
	CreatedAt        int64
	EndTime          int64
	PausedAt         *int64
	Pinned           bool
	Order            int
}

// DisplayTitle returns the title, falling back to the category.
func (r *Reminder) DisplayTitle() string {
	if r.Title != nil && *r.Title != "" {
		return *r.Title
	}
	return r.Category
}

func IsValidUpgradeType(s string) bool {
	switch s {
	case UpgradeBuilding, UpgradeLab, UpgradePet:
		return true
	default:
		return false
	}
}
