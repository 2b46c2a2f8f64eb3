package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/volunteerhub/portal/internal/apiclient"
	"github.com/volunteerhub/portal/internal/auth"
	"github.com/volunteerhub/portal/internal/shared"
)

// organizer fails unless the stored session belongs to an organization.
func (c *PortalCLI) organizer(ctx context.Context, opts Options, cmd string) bool {
	if c.frontend(opts).Store.Restore(ctx).HasRole(auth.RoleOrganizer) {
		return true
	}
	fail(opts, cmd, shared.RoleMismatchError("sign in with an npo account first"))
	return false
}

func (c *PortalCLI) categories(ctx context.Context, opts Options, args []string) int {
	if len(args) > 0 {
		return usageError(opts, "categories", "unexpected arguments %v", args)
	}
	list, err := c.frontend(opts).Client.ListCategories(ctx)
	if err != nil {
		return fail(opts, "categories", err)
	}
	if opts.JSON {
		return writeJSON(opts, list)
	}
	for _, cat := range list {
		_, _ = fmt.Fprintf(opts.Stdout, "%d %s\n", cat.ID, cat.Name)
	}
	return ExitOK
}

func (c *PortalCLI) createActivity(ctx context.Context, opts Options, args []string) int {
	fs := flag.NewFlagSet("create-activity", flag.ContinueOnError)
	var activity apiclient.NewActivity
	fs.StringVar(&activity.Title, "title", "", "activity title")
	fs.StringVar(&activity.Description, "description", "", "activity description")
	fs.Int64Var(&activity.Category, "category", 0, "category id")
	fs.StringVar(&activity.Location, "location", "", "where it takes place")
	fs.IntVar(&activity.MaxParticipants, "max", 0, "maximum participants")
	start := fs.String("start", "", "start time, RFC 3339")
	end := fs.String("end", "", "end time, RFC 3339")
	if code, ok := parseFlags(opts, fs, args); !ok {
		return code
	}
	for _, f := range []struct {
		name   string
		raw    string
		target **time.Time
	}{{"--start", *start, &activity.StartDate}, {"--end", *end, &activity.EndDate}} {
		if f.raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, f.raw)
		if err != nil {
			return usageError(opts, "create-activity", "%s must be an RFC 3339 time", f.name)
		}
		*f.target = &parsed
	}
	activity.Title = strings.TrimSpace(activity.Title)
	activity.Location = strings.TrimSpace(activity.Location)
	if err := activity.Validate(auth.NewValidator()); err != nil {
		return fail(opts, "create-activity", err)
	}
	if !c.organizer(ctx, opts, "create-activity") {
		return ExitError
	}

	created, err := c.frontend(opts).Client.CreateActivity(ctx, activity)
	if err != nil {
		return fail(opts, "create-activity", err)
	}
	if opts.JSON {
		return writeJSON(opts, created)
	}
	_, _ = fmt.Fprintf(opts.Stdout, "activity %d submitted for review (%s)\n", created.ID, created.ApprovalStatus)
	return ExitOK
}

func (c *PortalCLI) participants(ctx context.Context, opts Options, args []string) int {
	fs := flag.NewFlagSet("participants", flag.ContinueOnError)
	activityID := fs.Int64("activity", 0, "list the applicants of this activity")
	approve := fs.Int64("approve", 0, "approve one application")
	reject := fs.Int64("reject", 0, "reject one application")
	reason := fs.String("reason", "", "why the application is rejected")
	notes := fs.String("notes", "", "notes for the applicant")
	if code, ok := parseFlags(opts, fs, args); !ok {
		return code
	}
	set := 0
	for _, v := range []int64{*activityID, *approve, *reject} {
		if v < 0 {
			return usageError(opts, "participants", "ids must be positive")
		}
		if v > 0 {
			set++
		}
	}
	if set != 1 {
		return usageError(opts, "participants", "pass exactly one of --activity, --approve or --reject")
	}
	if !c.organizer(ctx, opts, "participants") {
		return ExitError
	}
	client := c.frontend(opts).Client

	if *activityID > 0 {
		list, err := client.ListParticipants(ctx, *activityID)
		if err != nil {
			return fail(opts, "participants", err)
		}
		if opts.JSON {
			return writeJSON(opts, list)
		}
		tw := tabwriter.NewWriter(opts.Stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tAPPLICANT\tSTATUS")
		for _, p := range list {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.UserName, p.Status)
		}
		_ = tw.Flush()
		return ExitOK
	}

	id, decision := *approve, apiclient.ParticipantDecision{Status: "approved", OrganizerNotes: *notes}
	if *reject > 0 {
		id, decision = *reject, apiclient.ParticipantDecision{Status: "rejected", RejectionReason: *reason, OrganizerNotes: *notes}
	}
	if err := decision.Validate(); err != nil {
		return fail(opts, "participants", err)
	}
	updated, err := client.DecideParticipant(ctx, id, decision)
	if err != nil {
		return fail(opts, "participants", err)
	}
	if opts.JSON {
		return writeJSON(opts, updated)
	}
	_, _ = fmt.Fprintf(opts.Stdout, "application %d %s\n", updated.ID, updated.Status)
	return ExitOK
}
