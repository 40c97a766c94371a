package board

import (
	"github.com/adanyl0v/go-reminders/internal/models"
	"github.com/adanyl0v/go-reminders/pkg/client"
)

func fromAPI(r *client.Reminder) models.Reminder {
	return models.Reminder{
		ID:               r.ID,
		Title:            r.Title,
		Category:         r.Category,
		UpgradeType:      r.UpgradeType,
		TotalSeconds:     r.TotalSeconds,
		RemainingSeconds: r.RemainingSeconds,
		IsActive:         r.IsActive,
		IsCompleted:      r.IsCompleted,
		CreatedAt:        r.CreatedAt,
		EndTime:          r.EndTime,
		PausedAt:         r.PausedAt,
		Pinned:           r.Pinned,
		Order:            r.Order,
	}
}
