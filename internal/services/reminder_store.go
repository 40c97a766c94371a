package services

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-reminders/internal/models"
)

type reminderStoreImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewReminderStore(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) ReminderStore {
	return &reminderStoreImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

const reminderColumns = `id,
       user_id,
       title,
       category,
       upgrade_type,
       total_seconds,
       remaining_seconds,
       is_active,
       is_completed,
       created_at,
       end_time,
       paused_at,
       pinned,
       sort_order`

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	r := new(models.Reminder)
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.Category,
		&r.UpgradeType,
		&r.TotalSeconds,
		&r.RemainingSeconds,
		&r.IsActive,
		&r.IsCompleted,
		&r.CreatedAt,
		&r.EndTime,
		&r.PausedAt,
		&r.Pinned,
		&r.Order,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// isNotFound treats a malformed uuid the same way as a missing row, since
// ids come straight from the request path.
func isNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}

func (s *reminderStoreImpl) Insert(ctx context.Context, r *models.Reminder) error {
	const insertReminderQuery = `
INSERT INTO reminders (id,
                       user_id,
                       title,
                       category,
                       upgrade_type,
                       total_seconds,
                       remaining_seconds,
                       is_active,
                       is_completed,
                       created_at,
                       end_time,
                       paused_at,
                       pinned,
                       sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`
	_, err := s.pgPool.Exec(
		ctx,
		insertReminderQuery,
		r.ID,
		r.UserID,
		r.Title,
		r.Category,
		r.UpgradeType,
		r.TotalSeconds,
		r.RemainingSeconds,
		r.IsActive,
		r.IsCompleted,
		r.CreatedAt,
		r.EndTime,
		r.PausedAt,
		r.Pinned,
		r.Order,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", r.UserID).
			Msg("failed to insert reminder")
		return err
	}
	s.logger.Debug().
		Str("reminder_id", r.ID).
		Msg("inserted reminder")
	return nil
}

func (s *reminderStoreImpl) Get(ctx context.Context, userID, id string) (*models.Reminder, error) {
	const selectReminderQuery = `
SELECT ` + reminderColumns + `
FROM reminders
WHERE id = $1 AND user_id = $2
`
	r, err := scanReminder(s.pgPool.QueryRow(ctx, selectReminderQuery, id, userID))
	if err != nil {
		if isNotFound(err) {
			s.logger.Debug().
				Str("reminder_id", id).
				Str("user_id", userID).
				Msg("reminder not found")
			return nil, ErrReminderNotFound
		}

		s.logger.Error().
			Err(err).
			Str("reminder_id", id).
			Msg("failed to select reminder")
		return nil, err
	}
	return r, nil
}

func (s *reminderStoreImpl) ListByUser(ctx context.Context, userID string) ([]*models.Reminder, error) {
	const selectRemindersQuery = `
SELECT ` + reminderColumns + `
FROM reminders
WHERE user_id = $1
ORDER BY pinned DESC, sort_order ASC, created_at DESC
`
	return s.list(ctx, selectRemindersQuery, userID)
}

func (s *reminderStoreImpl) ListIncomplete(ctx context.Context, userID string) ([]*models.Reminder, error) {
	const selectIncompleteQuery = `
SELECT ` + reminderColumns + `
FROM reminders
WHERE user_id = $1 AND is_completed = FALSE
`
	return s.list(ctx, selectIncompleteQuery, userID)
}

func (s *reminderStoreImpl) list(ctx context.Context, query, userID string) ([]*models.Reminder, error) {
	rows, err := s.pgPool.Query(ctx, query, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select reminders")
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan reminder")
			return nil, err
		}
		reminders = append(reminders, r)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(reminders)).
		Str("user_id", userID).
		Msg("selected reminders")
	return reminders, nil
}

func (s *reminderStoreImpl) ListOwnersWithActive(ctx context.Context) ([]string, error) {
	const selectOwnersQuery = `
SELECT DISTINCT user_id
FROM reminders
WHERE is_active = TRUE AND is_completed = FALSE
`
	rows, err := s.pgPool.Query(ctx, selectOwnersQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select reminder owners")
		return nil, err
	}

	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to collect reminder owners")
		return nil, err
	}
	return owners, nil
}

func (s *reminderStoreImpl) NextOrder(ctx context.Context, userID string) (int, error) {
	const selectNextOrderQuery = `
SELECT COALESCE(MAX(sort_order) + 1, 0)
FROM reminders
WHERE user_id = $1
`
	var next int
	err := s.pgPool.QueryRow(ctx, selectNextOrderQuery, userID).Scan(&next)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select next order")
		return 0, err
	}
	return next, nil
}

func (s *reminderStoreImpl) Save(ctx context.Context, r *models.Reminder) error {
	const updateReminderQuery = `
UPDATE reminders
SET title = $1,
    category = $2,
    upgrade_type = $3,
    total_seconds = $4,
    remaining_seconds = $5,
    is_active = $6,
    is_completed = $7,
    end_time = $8,
    paused_at = $9,
    pinned = $10,
    sort_order = $11,
    updated_at = now()
WHERE id = $12 AND user_id = $13
`
	tag, err := s.pgPool.Exec(
		ctx,
		updateReminderQuery,
		r.Title,
		r.Category,
		r.UpgradeType,
		r.TotalSeconds,
		r.RemainingSeconds,
		r.IsActive,
		r.IsCompleted,
		r.EndTime,
		r.PausedAt,
		r.Pinned,
		r.Order,
		r.ID,
		r.UserID,
	)
	if err != nil {
		if isNotFound(err) {
			return ErrReminderNotFound
		}

		s.logger.Error().
			Err(err).
			Str("reminder_id", r.ID).
			Msg("failed to update reminder")
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReminderNotFound
	}
	s.logger.Debug().
		Str("reminder_id", r.ID).
		Msg("updated reminder")
	return nil
}

func (s *reminderStoreImpl) MarkCompleted(ctx context.Context, userID, id string) (*models.Reminder, bool, error) {
	const completeReminderQuery = `
UPDATE reminders
SET is_completed = TRUE,
    is_active = FALSE,
    remaining_seconds = 0,
    updated_at = now()
WHERE id = $1 AND user_id = $2 AND is_completed = FALSE
RETURNING ` + reminderColumns

	r, err := scanReminder(s.pgPool.QueryRow(ctx, completeReminderQuery, id, userID))
	if err == nil {
		s.logger.Debug().
			Str("reminder_id", id).
			Msg("completed reminder")
		return r, true, nil
	}
	if !isNotFound(err) {
		s.logger.Error().
			Err(err).
			Str("reminder_id", id).
			Msg("failed to complete reminder")
		return nil, false, err
	}

	// Either someone else completed it first or it doesn't exist.
	r, err = s.Get(ctx, userID, id)
	if err != nil {
		return nil, false, err
	}
	return r, false, nil
}

func (s *reminderStoreImpl) SetRemaining(ctx context.Context, userID, id string, remaining int64) error {
	const updateRemainingQuery = `
UPDATE reminders
SET remaining_seconds = $1,
    updated_at = now()
WHERE id = $2 AND user_id = $3 AND is_completed = FALSE
`
	_, err := s.pgPool.Exec(ctx, updateRemainingQuery, remaining, id, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("reminder_id", id).
			Msg("failed to update remaining seconds")
		return err
	}
	return nil
}

func (s *reminderStoreImpl) SetOrder(ctx context.Context, userID, id string, order int) error {
	const updateOrderQuery = `
UPDATE reminders
SET sort_order = $1,
    updated_at = now()
WHERE id = $2 AND user_id = $3
`
	tag, err := s.pgPool.Exec(ctx, updateOrderQuery, order, id, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrReminderNotFound
		}

		s.logger.Error().
			Err(err).
			Str("reminder_id", id).
			Msg("failed to update reminder order")
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func (s *reminderStoreImpl) Delete(ctx context.Context, userID, id string) error {
	const deleteReminderQuery = `
DELETE FROM reminders
WHERE id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(ctx, deleteReminderQuery, id, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrReminderNotFound
		}

		s.logger.Error().
			Err(err).
			Str("reminder_id", id).
			Msg("failed to delete reminder")
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReminderNotFound
	}
	s.logger.Debug().
		Str("reminder_id", id).
		Msg("deleted reminder")
	return nil
}
