// Command watcher logs in to the reminders API, keeps a live board of the
// account's reminders and logs completions as they happen. The arranged
// board is written to a state file after every sync. One-shot commands
// (ls, add, act, rm, move, sort) change the board and save it once.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/adanyl0v/go-reminders/internal/board"
	"github.com/adanyl0v/go-reminders/internal/timer"
	"github.com/adanyl0v/go-reminders/pkg/client"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.DateTime}).
		With().
		Timestamp().
		Logger()

	cfg, rest, err := loadConfig(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		logger.Error().Err(err).Msg("invalid configuration")
		return 2
	}

	var (
		cmd     *command
		cmdArgs []string
	)
	if len(rest) > 0 && rest[0] != "watch" {
		cmd, err = findCommand(rest[0])
		if err != nil {
			logger.Error().Err(err).Msg("invalid command")
			return 2
		}
		cmdArgs, err = cmd.parse(rest[1:])
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Usage: watcher %s\n\n%s\n", cmd.Usage, cmd.Short)
			if cmd.Flags.HasFlags() {
				fmt.Fprintf(stderr, "\nFlags:\n%s", cmd.Flags.FlagUsages())
			}
			return 0
		} else if err != nil {
			logger.Error().Err(err).Str("command", cmd.Name()).Msg("invalid command")
			return 2
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cmd == nil {
		err = watch(ctx, logger, cfg)
	} else {
		err = runCommand(ctx, logger, cfg, cmd, cmdArgs, stdout)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("watcher stopped")
		return 1
	}
	return 0
}

func login(ctx context.Context, api *client.Client, cfg config) error {
	if cfg.Register {
		_, err := api.Register(ctx, cfg.Email, cfg.Password)
		if err == nil || !client.IsStatus(err, http.StatusConflict) {
			return err
		}
	}
	_, err := api.Login(ctx, cfg.Email, cfg.Password)
	return err
}

func connect(ctx context.Context, logger zerolog.Logger, cfg config) (*client.Client, error) {
	api, err := client.New(cfg.Server)
	if err != nil {
		return nil, err
	}
	if err := login(ctx, api, cfg); err != nil {
		return nil, err
	}
	logger.Info().
		Str("server", cfg.Server).
		Str("email", cfg.Email).
		Msg("logged in")
	return api, nil
}

func newBoard(logger zerolog.Logger, api board.API, cfg config) *board.Board {
	return board.New(logger, api, board.Config{
		TickInterval: time.Duration(cfg.Tick),
		SyncInterval: time.Duration(cfg.Sync),
		SortMode:     timer.SortMode(cfg.Sort),
	})
}

func watch(ctx context.Context, logger zerolog.Logger, cfg config) error {
	api, err := connect(ctx, logger, cfg)
	if err != nil {
		return err
	}

	b := newBoard(logger, api, cfg)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go b.Run(runCtx)

	if err := b.Load(ctx); err != nil {
		return err
	}
	save(logger, b, cfg.StateFile)

	ticker := time.NewTicker(time.Duration(cfg.Sync))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-b.Events():
			logCompletion(logger, e)
			save(logger, b, cfg.StateFile)
		case <-ticker.C:
			save(logger, b, cfg.StateFile)
		}
	}
}

func runCommand(ctx context.Context, logger zerolog.Logger, cfg config, cmd *command, args []string, out io.Writer) error {
	api, err := connect(ctx, logger, cfg)
	if err != nil {
		return err
	}
	return execCommand(ctx, logger, api, cfg, cmd, args, out)
}

// execCommand loads a board, runs cmd on it and saves the result.
func execCommand(
	ctx context.Context,
	logger zerolog.Logger,
	api board.API,
	cfg config,
	cmd *command,
	args []string,
	out io.Writer,
) error {
	b := newBoard(logger, api, cfg)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go b.Run(runCtx)

	if err := b.Load(ctx); err != nil {
		return err
	}
	if err := cmd.Exec(ctx, b, out, args); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}

	logPending(logger, b)
	save(logger, b, cfg.StateFile)
	return nil
}

// logPending logs completions the command itself caused, such as a
// manual complete.
func logPending(logger zerolog.Logger, b *board.Board) {
	for {
		select {
		case e := <-b.Events():
			logCompletion(logger, e)
		default:
			return
		}
	}
}

func logCompletion(logger zerolog.Logger, e board.Event) {
	logger.Info().
		Str("reminder_id", e.ID).
		Str("title", e.Title).
		Str("category", e.Category).
		Msg("reminder completed")
}

func save(logger zerolog.Logger, b *board.Board, path string) {
	list, mode, err := b.Snapshot()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to snapshot board")
		return
	}
	err = writeState(path, newStateFile(list, mode, time.Now()))
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to save state")
		return
	}
	logger.Debug().
		Int("count", len(list)).
		Str("path", path).
		Msg("saved state")
}
