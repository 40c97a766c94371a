package timer_test

import (
	"github.com/adanyl0v/go-reminders/internal/models"
)

const t0 int64 = 1_700_000_000_000

func ptr[T any](v T) *T {
	return &v
}

func activeReminder(total int64, createdAt int64) models.Reminder {
	return models.Reminder{
		ID:               "r1",
		UserID:           "u1",
		Category:         "cooking",
		UpgradeType:      models.UpgradeBuilding,
		TotalSeconds:     total,
		RemainingSeconds: total,
		IsActive:         true,
		CreatedAt:        createdAt,
		EndTime:          createdAt + total*1000,
	}
}
