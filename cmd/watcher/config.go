package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"

	"github.com/adanyl0v/go-reminders/internal/timer"
)

var errMissingCredentials = errors.New("email and password are required")

// config is read from an optional JSONC file and then overridden by the
// flags that were set explicitly.
type config struct {
	Server    string   `json:"server"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Register  bool     `json:"register"`
	StateFile string   `json:"state_file"`
	Sort      string   `json:"sort"`
	Tick      duration `json:"tick"`
	Sync      duration `json:"sync"`
}

// duration accepts "10s"-style strings in the config file.
type duration time.Duration

func (d *duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

func defaultConfig() config {
	return config{
		Server:    "http://localhost:8080",
		StateFile: "reminders.json",
		Sort:      string(timer.DefaultSortMode),
		Tick:      duration(time.Second),
		Sync:      duration(10 * time.Second),
	}
}

func parseConfigFile(data []byte, cfg *config) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}
	if err := json.Unmarshal(standardized, cfg); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// loadConfig parses the global flags up to the first positional argument
// and returns the remaining args: a command name and its own args.
func loadConfig(args []string) (config, []string, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("watcher", flag.ContinueOnError)
	fs.SetInterspersed(false)
	configPath := fs.StringP("config", "c", "", "path to a JSONC config file")
	server := fs.String("server", cfg.Server, "API base URL")
	email := fs.StringP("email", "e", "", "account email")
	password := fs.StringP("password", "p", "", "account password (or REMINDERS_PASSWORD)")
	register := fs.Bool("register", false, "register the account before logging in")
	stateFile := fs.String("state", cfg.StateFile, "file the arranged reminders are written to")
	sort := fs.String("sort", cfg.Sort, "sort mode: remaining-asc|remaining-desc|time-asc|time-desc|created-asc|created-desc|manual")
	tick := fs.Duration("tick", time.Duration(cfg.Tick), "local countdown interval")
	sync := fs.Duration("sync", time.Duration(cfg.Sync), "server sync interval")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintln(out, "Usage: watcher [flags] [command]")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintf(out, "  %-40s %s\n", "watch", "Keep the board live and log completions (default)")
		for _, c := range commands() {
			fmt.Fprintf(out, "  %-40s %s\n", c.Usage, c.Short)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Flags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return config{}, nil, err
	}

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return config{}, nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := parseConfigFile(data, &cfg); err != nil {
			return config{}, nil, fmt.Errorf("config %s: %w", *configPath, err)
		}
	}

	if fs.Changed("server") {
		cfg.Server = *server
	}
	if fs.Changed("email") {
		cfg.Email = *email
	}
	if fs.Changed("password") {
		cfg.Password = *password
	}
	if fs.Changed("register") {
		cfg.Register = *register
	}
	if fs.Changed("state") {
		cfg.StateFile = *stateFile
	}
	if fs.Changed("sort") {
		cfg.Sort = *sort
	}
	if fs.Changed("tick") {
		cfg.Tick = duration(*tick)
	}
	if fs.Changed("sync") {
		cfg.Sync = duration(*sync)
	}
	if cfg.Password == "" {
		cfg.Password = os.Getenv("REMINDERS_PASSWORD")
	}

	if cfg.Email == "" || cfg.Password == "" {
		return config{}, nil, errMissingCredentials
	}
	if _, err := timer.ParseSortMode(cfg.Sort); err != nil {
		return config{}, nil, err
	}
	return cfg, fs.Args(), nil
}
