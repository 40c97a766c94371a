package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-reminders/internal/models"
	"github.com/adanyl0v/go-reminders/internal/timer"
)

type reminderServiceImpl struct {
	logger   zerolog.Logger
	store    ReminderStore
	users    UserService
	notifier Notifier
	now      func() time.Time
}

func NewReminderService(
	logger zerolog.Logger,
	store ReminderStore,
	users UserService,
	notifier Notifier,
	now func() time.Time,
) ReminderService {
	if now == nil {
		now = time.Now
	}
	return &reminderServiceImpl{
		logger:   logger,
		store:    store,
		users:    users,
		notifier: notifier,
		now:      now,
	}
}

func (s *reminderServiceImpl) CreateReminder(ctx context.Context, params CreateReminderParams) (*models.Reminder, error) {
	order, err := s.store.NextOrder(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	reminder, err := timer.NewReminder(timer.NewReminderParams{
		UserID:      params.UserID,
		Title:       params.Title,
		Category:    params.Category,
		UpgradeType: params.UpgradeType,
		Hours:       params.Hours,
		Minutes:     params.Minutes,
		Seconds:     params.Seconds,
		Order:       order,
	}, timer.Millis(s.now()))
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("user_id", params.UserID).
			Msg("rejected reminder")
		return nil, err
	}

	reminderUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate reminder uuid")
		return nil, err
	}
	reminder.ID = reminderUUID.String()

	err = s.store.Insert(ctx, &reminder)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("reminder_id", reminder.ID).
		Str("user_id", reminder.UserID).
		Int64("total_seconds", reminder.TotalSeconds).
		Msg("created reminder")
	return &reminder, nil
}

func (s *reminderServiceImpl) GetReminder(ctx context.Context, params ReminderParams) (*models.Reminder, error) {
	if !isValidID(params.ID) {
		return nil, ErrReminderNotFound
	}
	return s.store.Get(ctx, params.UserID, params.ID)
}

func (s *reminderServiceImpl) GetReminders(ctx context.Context, userID string) ([]*models.Reminder, error) {
	reminders, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(reminders)).
		Str("user_id", userID).
		Msg("fetched reminders")
	return reminders, nil
}

func (s *reminderServiceImpl) ApplyAction(ctx context.Context, params ApplyActionParams) (*models.Reminder, error) {
	if !isValidID(params.ID) {
		return nil, ErrReminderNotFound
	}

	current, err := s.store.Get(ctx, params.UserID, params.ID)
	if err != nil {
		return nil, err
	}

	result, err := timer.Apply(*current, params.Action, timer.Millis(s.now()))
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("reminder_id", params.ID).
			Str("action", string(params.Action.Kind)).
			Msg("rejected transition")
		return nil, err
	}

	var updated *models.Reminder
	if result.Completed {
		updated, _, err = s.complete(ctx, params.UserID, params.ID)
	} else {
		updated = &result.Reminder
		err = s.store.Save(ctx, updated)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("reminder_id", params.ID).
		Str("user_id", params.UserID).
		Str("action", string(params.Action.Kind)).
		Msg("applied action")
	return updated, nil
}

func (s *reminderServiceImpl) DeleteReminder(ctx context.Context, params ReminderParams) error {
	if !isValidID(params.ID) {
		return ErrReminderNotFound
	}

	err := s.store.Delete(ctx, params.UserID, params.ID)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("reminder_id", params.ID).
		Str("user_id", params.UserID).
		Msg("deleted reminder")
	return nil
}

func (s *reminderServiceImpl) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	reminders, err := s.store.ListIncomplete(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := timer.Millis(s.now())
	result := &SyncResult{
		Updated:   []RemainingUpdate{},
		Completed: []CompletedReminder{},
	}
	for _, current := range reminders {
		next, crossed := timer.Reconcile(*current, now)
		switch {
		case crossed:
			completed, transitioned, err := s.complete(ctx, userID, current.ID)
			if errors.Is(err, ErrReminderNotFound) {
				continue
			} else if err != nil {
				return nil, err
			}
			if transitioned {
				result.Completed = append(result.Completed, CompletedReminder{
					ID:       completed.ID,
					Title:    completed.Title,
					Category: completed.Category,
				})
			}
		case next.IsActive:
			err = s.store.SetRemaining(ctx, userID, next.ID, next.RemainingSeconds)
			if err != nil {
				return nil, err
			}
			result.Updated = append(result.Updated, RemainingUpdate{
				ID:               next.ID,
				RemainingSeconds: next.RemainingSeconds,
			})
		case next.RemainingSeconds != current.RemainingSeconds:
			err = s.store.SetRemaining(ctx, userID, next.ID, next.RemainingSeconds)
			if err != nil {
				return nil, err
			}
		}
	}

	s.logger.Debug().
		Str("user_id", userID).
		Int("updated", len(result.Updated)).
		Int("completed", len(result.Completed)).
		Msg("synced reminders")
	return result, nil
}

// complete persists the completion and notifies the owner if this call was
// the one that completed the reminder.
func (s *reminderServiceImpl) complete(ctx context.Context, userID, id string) (*models.Reminder, bool, error) {
	reminder, transitioned, err := s.store.MarkCompleted(ctx, userID, id)
	if err != nil {
		return nil, false, err
	}
	if !transitioned {
		s.logger.Debug().
			Str("reminder_id", id).
			Msg("reminder already completed")
		return reminder, false, nil
	}

	s.logger.Info().
		Str("reminder_id", id).
		Str("user_id", userID).
		Msg("completed reminder")
	s.notify(ctx, reminder)
	return reminder, true, nil
}

func (s *reminderServiceImpl) notify(ctx context.Context, reminder *models.Reminder) {
	user, err := s.users.GetUserByID(ctx, reminder.UserID)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("reminder_id", reminder.ID).
			Msg("skipping completion notification")
		return
	}

	title := ""
	if reminder.Title != nil {
		title = *reminder.Title
	}
	s.notifier.NotifyCompletion(ctx, Completion{
		ReminderID: reminder.ID,
		Email:      user.Email,
		Title:      title,
		Category:   reminder.Category,
	})
}

func (s *reminderServiceImpl) Reorder(ctx context.Context, userID string, updates []timer.OrderUpdate) (*ReorderResult, error) {
	result := &ReorderResult{Failed: []string{}}
	for _, update := range updates {
		if !isValidID(update.ID) {
			result.Failed = append(result.Failed, update.ID)
			continue
		}

		err := s.store.SetOrder(ctx, userID, update.ID, update.Order)
		if errors.Is(err, ErrReminderNotFound) {
			result.Failed = append(result.Failed, update.ID)
			continue
		} else if err != nil {
			return result, err
		}
		result.Applied++
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("applied", result.Applied).
		Int("failed", len(result.Failed)).
		Msg("reordered reminders")
	return result, nil
}

func (s *reminderServiceImpl) SweepAll(ctx context.Context) (int, error) {
	owners, err := s.store.ListOwnersWithActive(ctx)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return completed, err
		}

		result, err := s.Sync(ctx, owner)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_id", owner).
				Msg("failed to sync owner")
			continue
		}
		completed += len(result.Completed)
	}

	s.logger.Debug().
		Int("owners", len(owners)).
		Int("completed", completed).
		Msg("swept reminders")
	return completed, nil
}

func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
