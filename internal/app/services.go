package app

import (
	"context"
	"time"

	"github.com/adanyl0v/go-reminders/internal/config"
	"github.com/adanyl0v/go-reminders/internal/notify"
	"github.com/adanyl0v/go-reminders/internal/services"
)

var (
	globalNotifyQueue     *notify.Queue
	globalAuthService     services.AuthService
	globalSessionService  services.SessionService
	globalReminderService services.ReminderService
)

// MustInitServices wires the services on top of the postgres pool. It must
// run after MustConnectPostgres.
func MustInitServices() {
	cfg := config.Global()

	mailer, err := notify.New(globalLogger, notify.MailConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Timeout:  cfg.Mail.Timeout,
	})
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to init mail notifier")
		panic(err)
	}
	globalNotifyQueue = notify.NewQueue(globalLogger, mailer, cfg.Mail.QueueSize, cfg.Mail.Timeout*2)

	users := services.NewUserService(globalLogger, globalPostgresPool)
	globalSessionService = services.NewSessionService(globalLogger, globalPostgresPool)
	globalAuthService = services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		cfg.JWT.Issuer,
		[]byte(cfg.JWT.SigningKey),
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		time.Now,
	)
	globalReminderService = services.NewReminderService(
		globalLogger,
		services.NewReminderStore(globalLogger, globalPostgresPool),
		users,
		globalNotifyQueue,
		time.Now,
	)
	globalLogger.Info().Msg("initialized services")
}

// CloseServices drains pending notifications.
func CloseServices() {
	ctx, cancel := context.WithTimeout(context.Background(), config.Global().Mail.Timeout*2)
	defer cancel()

	err := globalNotifyQueue.Close(ctx)
	if err != nil {
		globalLogger.Warn().
			Err(err).
			Msg("failed to drain notification queue")
		return
	}
	globalLogger.Info().Msg("closed services")
}
