package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-reminders/internal/models"
)

type sessionServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewSessionService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) SessionService {
	return &sessionServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *sessionServiceImpl) GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	if !isValidID(sessionID) {
		return nil, ErrSessionNotFound
	}

	const selectSessionByIDQuery = `
SELECT user_id, fingerprint, refresh_token,
       expires_at, created_at, updated_at
FROM sessions WHERE id = $1
`
	session := &models.Session{ID: sessionID}
	err := s.pgPool.QueryRow(ctx, selectSessionByIDQuery, sessionID).Scan(
		&session.UserID,
		&session.Fingerprint,
		&session.RefreshToken,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			s.logger.Warn().
				Str("session_id", sessionID).
				Msg("session not found")
			return nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to select session")
		return nil, err
	}

	s.logger.Debug().
		Str("session_id", sessionID).
		Str("user_id", session.UserID).
		Time("expires_at", session.ExpiresAt).
		Msg("selected session")
	return session, nil
}

func (s *sessionServiceImpl) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	const deleteExpiredSessionsQuery = `DELETE FROM sessions WHERE expires_at < $1`
	tag, err := s.pgPool.Exec(ctx, deleteExpiredSessionsQuery, now)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete expired sessions")
		return 0, err
	}

	deleted := tag.RowsAffected()
	if deleted > 0 {
		s.logger.Info().
			Int64("count", deleted).
			Msg("deleted expired sessions")
	}
	return deleted, nil
}
