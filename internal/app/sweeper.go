package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-reminders/internal/config"
	"github.com/adanyl0v/go-reminders/internal/services"
)

// sweeper periodically completes overdue reminders of every user, so that
// completion emails go out even when no client is connected, and prunes
// expired sessions.
type sweeper struct {
	logger    zerolog.Logger
	reminders services.ReminderService
	sessions  services.SessionService
	interval  time.Duration
	now       func() time.Time
}

func (s *sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *sweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	completed, err := s.reminders.SweepAll(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to sweep reminders")
	} else if completed > 0 {
		s.logger.Info().
			Int("count", completed).
			Msg("swept reminders")
	}

	_, err = s.sessions.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to prune sessions")
	}
}

// StartSweeper launches the background sweep and returns a function that
// stops it. It does nothing when the interval is zero.
func StartSweeper() (stop func()) {
	interval := config.Global().Sync.SweepInterval
	if interval <= 0 {
		globalLogger.Info().Msg("background sweep disabled")
		return func() {}
	}

	s := &sweeper{
		logger:    globalLogger,
		reminders: globalReminderService,
		sessions:  globalSessionService,
		interval:  interval,
		now:       time.Now,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.run(ctx)
	}()
	globalLogger.Info().
		Dur("interval", interval).
		Msg("started background sweep")

	return func() {
		cancel()
		<-done
		globalLogger.Info().Msg("stopped background sweep")
	}
}
