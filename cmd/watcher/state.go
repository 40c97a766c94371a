package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/natefinch/atomic"

	"github.com/adanyl0v/go-reminders/internal/models"
	"github.com/adanyl0v/go-reminders/internal/timer"
)

type stateReminder struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Category         string `json:"category"`
	UpgradeType      string `json:"upgradeType"`
	Phase            string `json:"phase"`
	RemainingSeconds int64  `json:"remainingSeconds"`
	Pinned           bool   `json:"pinned"`
	Order            int    `json:"order"`
}

type stateFile struct {
	SavedAt   time.Time       `json:"savedAt"`
	SortMode  string          `json:"sortMode"`
	Reminders []stateReminder `json:"reminders"`
}

func newStateFile(list []models.Reminder, mode timer.SortMode, now time.Time) stateFile {
	s := stateFile{
		SavedAt:   now.UTC(),
		SortMode:  string(mode),
		Reminders: make([]stateReminder, len(list)),
	}
	for i := range list {
		r := &list[i]
		s.Reminders[i] = stateReminder{
			ID:               r.ID,
			Title:            r.DisplayTitle(),
			Category:         r.Category,
			UpgradeType:      r.UpgradeType,
			Phase:            timer.PhaseOf(r).String(),
			RemainingSeconds: r.RemainingSeconds,
			Pinned:           r.Pinned,
			Order:            r.Order,
		}
	}
	return s
}

// writeState replaces path atomically so readers never see a partial file.
func writeState(path string, s stateFile) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(append(data, '\n'))); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}
