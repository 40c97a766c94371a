package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/go-reminders/internal/config"
)

func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTP.Port).
		Bool("mail_enabled", cfg.Mail.Host != "").
		Dur("sweep_interval", cfg.Sync.SweepInterval).
		Msg("read env")

	config.SetGlobal(cfg)
}
