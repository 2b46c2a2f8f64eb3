// Package cli implements the portal command line: sign in to either namespace,
// inspect the stored session and browse the backend with it.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/volunteerhub/portal/internal/app"
	"github.com/volunteerhub/portal/internal/shared"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// PortalCLI dispatches commands against a bootstrapped runtime.
type PortalCLI struct {
	runtime *app.Runtime
	config  *app.Config
	logger  *slog.Logger
}

// NewPortalCLI constructs a new CLI instance.
func NewPortalCLI(rt *app.Runtime, cfg *app.Config, logger *slog.Logger) *PortalCLI {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortalCLI{runtime: rt, config: cfg, logger: logger}
}

// Options carries the global flags and output streams of one invocation.
type Options struct {
	Admin  bool
	JSON   bool
	Stdout io.Writer
	Stderr io.Writer
}

type command struct {
	summary string
	run     func(c *PortalCLI, ctx context.Context, opts Options, args []string) int
}

var commands = map[string]command{
	"login":           {"sign in: login --role volunteer|npo --username NAME --password PASS", (*PortalCLI).login},
	"register":        {"create an account: register --role volunteer|npo --username NAME --password PASS [--email E]", (*PortalCLI).register},
	"logout":          {"clear the stored session", (*PortalCLI).logout},
	"whoami":          {"print the stored session", (*PortalCLI).whoami},
	"check-username":  {"check-username NAME: ask whether a username is free", (*PortalCLI).checkUsername},
	"activities":      {"list activities: activities [--search TEXT] [--status S] [--page N]", (*PortalCLI).activities},
	"notifications":   {"list notifications: notifications [--read ID | --read-all]", (*PortalCLI).notifications},
	"categories":      {"list activity categories", (*PortalCLI).categories},
	"create-activity": {"publish an activity (npo): create-activity --title T --category ID --location L --start TIME --end TIME --max N", (*PortalCLI).createActivity},
	"participants":    {"applicants of an activity (npo): participants --activity ID | --approve ID | --reject ID --reason TEXT", (*PortalCLI).participants},
	"serve":           {"run the portal and console web server", (*PortalCLI).serve},
}

// Run parses the global flags in args, then runs the named command.
func (c *PortalCLI) Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := Options{Stdout: stdout, Stderr: stderr}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	fs := flag.NewFlagSet("portal", flag.ContinueOnError)
	fs.SetOutput(opts.Stderr)
	fs.BoolVar(&opts.Admin, "admin", false, "use the administrator session")
	fs.BoolVar(&opts.JSON, "json", false, "print machine readable output")
	fs.Usage = func() { usage(opts.Stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	rest := fs.Args()
	if len(rest) == 0 {
		usage(opts.Stderr, fs)
		return ExitUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		_, _ = fmt.Fprintf(opts.Stderr, "portal: unknown command %q\n", rest[0])
		usage(opts.Stderr, fs)
		return ExitUsage
	}
	return cmd.run(c, ctx, opts, rest[1:])
}

func usage(out io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprintln(out, "usage: portal [--admin] [--json] <command> [flags]")
	_, _ = fmt.Fprintln(out, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(out, "  %-16s %s\n", name, commands[name].summary)
	}
	_, _ = fmt.Fprintln(out, "\nglobal flags:")
	fs.PrintDefaults()
}

// fail prints err with any field errors and returns ExitError.
func fail(opts Options, cmd string, err error) int {
	apiErr, ok := shared.AsError(err)
	if !ok {
		_, _ = fmt.Fprintf(opts.Stderr, "%s: %v\n", cmd, err)
		return ExitError
	}
	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Kind.String()
	}
	if apiErr.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, apiErr.StatusCode)
	}
	_, _ = fmt.Fprintf(opts.Stderr, "%s: %s\n", cmd, msg)
	for _, line := range apiErr.FieldMessages() {
		_, _ = fmt.Fprintf(opts.Stderr, "  %s\n", line)
	}
	return ExitError
}

func usageError(opts Options, cmd, format string, args ...any) int {
	_, _ = fmt.Fprintf(opts.Stderr, "%s: %s\n", cmd, fmt.Sprintf(format, args...))
	return ExitUsage
}

// parseFlags parses command flags; ok is false when the caller should return code.
func parseFlags(opts Options, fs *flag.FlagSet, args []string) (code int, ok bool) {
	fs.SetOutput(opts.Stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK, false
		}
		return ExitUsage, false
	}
	return ExitOK, true
}
