package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/adanyl0v/go-reminders/internal/board"
	"github.com/adanyl0v/go-reminders/internal/models"
	"github.com/adanyl0v/go-reminders/internal/timer"
	"github.com/adanyl0v/go-reminders/pkg/client"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errMissingArgs    = errors.New("missing arguments")
)

// command is a one-shot operation run against a loaded board. Usage starts
// with the command name and Args is the number of positional args Exec
// expects. The arranged board is saved to the state file after Exec succeeds.
type command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Args  int
	Exec  func(ctx context.Context, b *board.Board, out io.Writer, args []string) error
}

func (c *command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

func commands() []*command {
	return []*command{
		lsCmd(),
		addCmd(),
		actCmd(),
		rmCmd(),
		moveCmd(),
		sortCmd(),
	}
}

func findCommand(name string) (*command, error) {
	for _, c := range commands() {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errUnknownCommand, name)
}

// parse parses the command's own flags and returns the positional args.
func (c *command) parse(args []string) ([]string, error) {
	c.Flags.SetOutput(io.Discard)
	if err := c.Flags.Parse(args); err != nil {
		return nil, err
	}
	rest := c.Flags.Args()
	if len(rest) < c.Args {
		return nil, fmt.Errorf("%w: usage: watcher %s", errMissingArgs, c.Usage)
	}
	return rest, nil
}

func lsCmd() *command {
	return &command{
		Flags: flag.NewFlagSet("ls", flag.ContinueOnError),
		Usage: "ls",
		Short: "List reminders in display order",
		Exec: func(_ context.Context, b *board.Board, out io.Writer, _ []string) error {
			return printBoard(b, out)
		},
	}
}

func addCmd() *command {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	title := fs.StringP("title", "t", "", "reminder title")
	category := fs.String("category", "", "reminder category")
	upgrade := fs.String("upgrade", models.UpgradeBuilding, "upgrade type: building|lab|pet")
	hours := fs.Int64("hours", 0, "hours")
	minutes := fs.Int64("minutes", 0, "minutes")
	seconds := fs.Int64("seconds", 0, "seconds")

	return &command{
		Flags: fs,
		Usage: "add --category <name> [--hours n] [--minutes n] [--seconds n] [flags]",
		Short: "Create a reminder",
		Exec: func(ctx context.Context, b *board.Board, out io.Writer, _ []string) error {
			req := client.CreateReminderRequest{
				Category:    *category,
				UpgradeType: *upgrade,
				Hours:       *hours,
				Minutes:     *minutes,
				Seconds:     *seconds,
			}
			if fs.Changed("title") {
				req.Title = title
			}
			r, err := b.Create(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "created", r.ID)
			return nil
		},
	}
}

func actCmd() *command {
	fs := flag.NewFlagSet("act", flag.ContinueOnError)
	title := fs.StringP("title", "t", "", "new title (update only)")
	category := fs.String("category", "", "new category (update only)")
	upgrade := fs.String("upgrade", "", "new upgrade type (update only)")

	return &command{
		Flags: fs,
		Usage: "act <id> <toggle|postpone|complete|pin|unpin|update> [flags]",
		Short: "Apply an action to a reminder",
		Args:  2,
		Exec: func(ctx context.Context, b *board.Board, out io.Writer, args []string) error {
			id, kind := args[0], args[1]

			var patch timer.Patch
			if fs.Changed("title") {
				patch.Title = title
			}
			if fs.Changed("category") {
				patch.Category = category
			}
			if fs.Changed("upgrade") {
				patch.UpgradeType = upgrade
			}
			if _, err := timer.NewAction(kind, patch); err != nil {
				return err
			}

			err := b.Act(ctx, id, client.ActionRequest{
				Action:      kind,
				Title:       patch.Title,
				Category:    patch.Category,
				UpgradeType: patch.UpgradeType,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, kind, id)
			return nil
		},
	}
}

func rmCmd() *command {
	return &command{
		Flags: flag.NewFlagSet("rm", flag.ContinueOnError),
		Usage: "rm <id>",
		Short: "Delete a reminder",
		Args:  1,
		Exec: func(ctx context.Context, b *board.Board, out io.Writer, args []string) error {
			if err := b.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(out, "deleted", args[0])
			return nil
		},
	}
}

func moveCmd() *command {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	pinned := fs.Bool("pinned", false, "move within the pinned group")

	return &command{
		Flags: fs,
		Usage: "move [--pinned] <from> <to>",
		Short: "Move a reminder within its group (switches to manual order)",
		Args:  2,
		Exec: func(ctx context.Context, b *board.Board, out io.Writer, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", args[0], err)
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", args[1], err)
			}
			if err := b.Move(ctx, *pinned, from, to); err != nil {
				return err
			}
			return printBoard(b, out)
		},
	}
}

func sortCmd() *command {
	return &command{
		Flags: flag.NewFlagSet("sort", flag.ContinueOnError),
		Usage: "sort <mode>",
		Short: "List reminders in another sort mode",
		Args:  1,
		Exec: func(_ context.Context, b *board.Board, out io.Writer, args []string) error {
			mode, err := timer.ParseSortMode(args[0])
			if err != nil {
				return err
			}
			if err := b.SetSortMode(mode); err != nil {
				return err
			}
			return printBoard(b, out)
		},
	}
}

func printBoard(b *board.Board, out io.Writer) error {
	list, mode, err := b.Snapshot()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# %s\n", mode)
	for i := range list {
		r := &list[i]
		pin := " "
		if r.Pinned {
			pin = "*"
		}
		remaining := time.Duration(r.RemainingSeconds) * time.Second
		fmt.Fprintf(out, "%s %s\t%-9s\t%s\t%s\n", pin, r.ID, timer.PhaseOf(r), remaining, r.DisplayTitle())
	}
	return nil
}
