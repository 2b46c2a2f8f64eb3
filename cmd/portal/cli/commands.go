package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/volunteerhub/portal/internal/apiclient"
	"github.com/volunteerhub/portal/internal/app"
	"github.com/volunteerhub/portal/internal/auth"
)

type sessionSummary struct {
	LoggedIn        bool            `json:"logged_in"`
	Namespace       string          `json:"namespace"`
	Principal       *auth.Principal `json:"principal,omitempty"`
	AccessExpiresAt *time.Time      `json:"access_expires_at,omitempty"`
}

func (c *PortalCLI) frontend(opts Options) app.Frontend {
	return c.runtime.Frontend(opts.Admin)
}

// roleFor resolves --role against the selected namespace. The console only
// signs in administrators, the portal defaults to volunteers.
func roleFor(opts Options, raw string) (auth.Role, error) {
	if strings.TrimSpace(raw) == "" {
		if opts.Admin {
			return auth.RoleAdmin, nil
		}
		return auth.RoleVolunteer, nil
	}
	return auth.ParseRole(raw)
}

func writeJSON(opts Options, v any) int {
	enc := json.NewEncoder(opts.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "portal: encode output: %v\n", err)
		return ExitError
	}
	return ExitOK
}

func (c *PortalCLI) login(ctx context.Context, opts Options, args []string) int {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	roleRaw := fs.String("role", "", "volunteer or npo (admin with --admin)")
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	if code, ok := parseFlags(opts, fs, args); !ok {
		return code
	}
	role, err := roleFor(opts, *roleRaw)
	if err != nil {
		return usageError(opts, "login", "--role: %v", err)
	}

	principal, err := c.frontend(opts).Service.Login(ctx, role, auth.Credentials{
		Username: strings.TrimSpace(*username),
		Password: *password,
	})
	if err != nil {
		return fail(opts, "login", err)
	}
	if opts.JSON {
		return writeJSON(opts, principal)
	}
	_, _ = fmt.Fprintf(opts.Stdout, "signed in as %s (%s)\n", principal.Username, principal.Role.Slug())
	return ExitOK
}

func (c *PortalCLI) register(ctx context.Context, opts Options, args []string) int {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	roleRaw := fs.String("role", "", "volunteer or npo")
	var reg auth.Registration
	fs.StringVar(&reg.Username, "username", "", "account username")
	fs.StringVar(&reg.Password, "password", "", "account password")
	fs.StringVar(&reg.Email, "email", "", "contact email")
	fs.StringVar(&reg.FirstName, "first-name", "", "first name")
	fs.StringVar(&reg.LastName, "last-name", "", "last name")
	if code, ok := parseFlags(opts, fs, args); !ok {
		return code
	}
	if opts.Admin {
		return usageError(opts, "register", "administrator accounts cannot be registered")
	}
	role, err := roleFor(opts, *roleRaw)
	if err != nil {
		return usageError(opts, "register", "--role: %v", err)
	}
	reg.Username = strings.TrimSpace(reg.Username)

	principal, signedIn, err := c.frontend(opts).Service.Register(ctx, role, reg)
	if err != nil {
		return fail(opts, "register", err)
	}
	if opts.JSON {
		return writeJSON(opts, map[string]any{"principal": principal, "signed_in": signedIn})
	}
	if signedIn {
		_, _ = fmt.Fprintf(opts.Stdout, "registered and signed in as %s (%s)\n", principal.Username, principal.Role.Slug())
	} else {
		_, _ = fmt.Fprintf(opts.Stdout, "registered %s, sign in to continue\n", principal.Username)
	}
	return ExitOK
}

func (c *PortalCLI) logout(ctx context.Context, opts Options, args []string) int {
	if len(args) > 0 {
		return usageError(opts, "logout", "unexpected arguments %v", args)
	}
	if err := c.frontend(opts).Service.Logout(ctx); err != nil {
		return fail(opts, "logout", err)
	}
	_, _ = fmt.Fprintln(opts.Stdout, "signed out")
	return ExitOK
}

func (c *PortalCLI) whoami(ctx context.Context, opts Options, args []string) int {
	if len(args) > 0 {
		return usageError(opts, "whoami", "unexpected arguments %v", args)
	}
	store := c.frontend(opts).Store
	state := store.Restore(ctx)
	summary := sessionSummary{LoggedIn: state.LoggedIn, Namespace: string(store.Namespace())}
	if state.LoggedIn {
		summary.Principal = state.Principal
		if exp, ok := state.Tokens.AccessExpiry(); ok {
			summary.AccessExpiresAt = &exp
		}
	}
	if opts.JSON {
		return writeJSON(opts, summary)
	}
	if !state.LoggedIn {
		_, _ = fmt.Fprintf(opts.Stdout, "%s: not signed in\n", summary.Namespace)
		return ExitOK
	}
	p := state.Principal
	_, _ = fmt.Fprintf(opts.Stdout, "%s: %s (%s), id %d\n", summary.Namespace, p.DisplayName(), p.Role.Slug(), p.ID)
	if summary.AccessExpiresAt != nil {
		_, _ = fmt.Fprintf(opts.Stdout, "access token expires %s\n", summary.AccessExpiresAt.Format(time.RFC3339))
	}
	return ExitOK
}

func (c *PortalCLI) checkUsername(ctx context.Context, opts Options, args []string) int {
	if len(args) != 1 {
		return usageError(opts, "check-username", "expected exactly one username")
	}
	result, err := c.frontend(opts).Service.CheckUsername(ctx, args[0])
	if err != nil {
		return fail(opts, "check-username", err)
	}
	if opts.JSON {
		return writeJSON(opts, result)
	}
	state := "taken"
	if result.Available {
		state = "available"
	}
	_, _ = fmt.Fprintf(opts.Stdout, "%s is %s\n", result.Username, state)
	return ExitOK
}

func (c *PortalCLI) activities(ctx context.Context, opts Options, args []string) int {
	fs := flag.NewFlagSet("activities", flag.ContinueOnError)
	var filter apiclient.ActivityFilter
	fs.StringVar(&filter.Search, "search", "", "full text search")
	fs.StringVar(&filter.Status, "status", "", "activity status")
	fs.StringVar(&filter.ApprovalStatus, "approval", "", "approval status")
	fs.IntVar(&filter.Page, "page", 0, "page number")
	if code, ok := parseFlags(opts, fs, args); !ok {
		return code
	}

	page, err := c.frontend(opts).Client.ListActivities(ctx, filter)
	if err != nil {
		return fail(opts, "activities", err)
	}
	if opts.JSON {
		return writeJSON(opts, page)
	}
	tw := tabwriter.NewWriter(opts.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tAPPROVAL\tPARTICIPANTS")
	for _, a := range page.Results {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d/%d\n", a.ID, a.Title, a.Status, a.ApprovalStatus, a.CurrentParticipants, a.MaxParticipants)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(opts.Stdout, "%d of %d activities\n", len(page.Results), page.Count)
	return ExitOK
}

func (c *PortalCLI) notifications(ctx context.Context, opts Options, args []string) int {
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	readID := fs.String("read", "", "mark one notification as read")
	readAll := fs.Bool("read-all", false, "mark every notification as read")
	if code, ok := parseFlags(opts, fs, args); !ok {
		return code
	}
	client := c.frontend(opts).Client

	switch {
	case *readAll:
		if err := client.MarkAllNotificationsRead(ctx); err != nil {
			return fail(opts, "notifications", err)
		}
		_, _ = fmt.Fprintln(opts.Stdout, "all notifications marked as read")
		return ExitOK
	case *readID != "":
		id, err := strconv.ParseInt(*readID, 10, 64)
		if err != nil || id <= 0 {
			return usageError(opts, "notifications", "--read must be a positive id")
		}
		if err := client.MarkNotificationRead(ctx, id); err != nil {
			return fail(opts, "notifications", err)
		}
		_, _ = fmt.Fprintf(opts.Stdout, "notification %d marked as read\n", id)
		return ExitOK
	}

	list, err := client.ListNotifications(ctx)
	if err != nil {
		return fail(opts, "notifications", err)
	}
	if opts.JSON {
		return writeJSON(opts, list)
	}
	unread := 0
	for _, n := range list {
		marker := " "
		if !n.IsRead {
			marker = "*"
			unread++
		}
		_, _ = fmt.Fprintf(opts.Stdout, "%s %d %s\n", marker, n.ID, n.Title)
	}
	_, _ = fmt.Fprintf(opts.Stdout, "%d unread\n", unread)
	return ExitOK
}

func (c *PortalCLI) serve(ctx context.Context, opts Options, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", c.config.AppAddr, "listen address")
	if code, ok := parseFlags(opts, fs, args); !ok {
		return code
	}
	cfg := *c.config
	cfg.AppAddr = *addr

	portal, console := app.NewHandlers(c.runtime, &cfg, c.logger)
	router := app.NewRouter(app.RouterParams{
		Logger:  c.logger,
		Config:  &cfg,
		Portal:  portal,
		Console: console,
		Metrics: c.runtime.Metrics,
	})
	if err := app.Serve(ctx, &cfg, router, c.logger); err != nil {
		return fail(opts, "serve", err)
	}
	return ExitOK
}
