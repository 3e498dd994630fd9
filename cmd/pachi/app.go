package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/fjsui0423-max/pachi-money/internal/api"
	"github.com/fjsui0423-max/pachi-money/internal/client"
	"github.com/fjsui0423-max/pachi-money/internal/config"
	"github.com/fjsui0423-max/pachi-money/internal/invite"
	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/report"
)

var outputFormat = flag.String("format", "term", "Output format: term, markdown or html")

var errSignedOut = errors.New("not signed in; run 'pachi login' first")

// openRemote connects to the configured server with the stored session.
func openRemote() (*client.Remote, error) {
	return client.New(config.LoadClient())
}

// signedIn opens the remote and fails when there is no session.
func signedIn() (*client.Remote, error) {
	r, err := openRemote()
	if err != nil {
		return nil, err
	}
	if r.Session() == nil {
		return nil, errSignedOut
	}
	return r, nil
}

// fail prints err and returns the matching exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func usageError(f *flag.FlagSet, format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	f.Usage()
	return subcommands.ExitUsageError
}

// printMarkdown renders a markdown document in the selected format.
func printMarkdown(doc string) {
	switch strings.ToLower(*outputFormat) {
	case "markdown", "md":
		fmt.Print(doc)
		return
	case "html":
		out, err := report.HTML(doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		fmt.Print(out)
		return
	}

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(doc)
		return
	}
	out, err := r.Render(doc)
	if err != nil {
		fmt.Print(doc)
		return
	}
	fmt.Print(out)
}

// resolveHousehold finds a household by ID or name, or the default one
// when ref is empty.
func resolveHousehold(ctx context.Context, r *client.Remote, ref string) (*api.Household, error) {
	if ref == "" {
		return r.DefaultHousehold(ctx)
	}
	households, err := r.Households.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range households {
		if households[i].ID == ref {
			return &households[i], nil
		}
	}
	for i := range households {
		if households[i].Name == ref {
			return &households[i], nil
		}
	}
	return nil, fmt.Errorf("no household %q", ref)
}

// memberNames maps user IDs to display names in a household.
func memberNames(ctx context.Context, r *client.Remote, householdID string) (map[string]string, error) {
	members, err := r.Households.Members(ctx, householdID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.DisplayName
	}
	return names, nil
}

// memberID resolves a member flag given as user ID or display name.
func memberID(names map[string]string, ref string) (string, error) {
	if _, ok := names[ref]; ok {
		return ref, nil
	}
	for id, name := range names {
		if name == ref {
			return id, nil
		}
	}
	return "", fmt.Errorf("no member %q", ref)
}

func toModel(e api.Entry) models.Entry {
	return models.Entry{
		ID:          e.ID,
		HouseholdID: e.HouseholdID,
		UserID:      e.UserID,
		Date:        e.Date,
		Venue:       e.Venue,
		Instrument:  e.Instrument,
		Stake:       e.Stake,
		Payout:      e.Payout,
		Note:        e.Note,
		CreatedAt:   e.CreatedAt,
	}
}

func toModels(entries []api.Entry) []models.Entry {
	out := make([]models.Entry, len(entries))
	for i, e := range entries {
		out[i] = toModel(e)
	}
	return out
}

// reportInvite prints the reconciler outcome in plain words.
func reportInvite(o invite.Outcome) {
	name := ""
	if o.Group != nil {
		name = o.Group.Name
	}
	switch o.Status {
	case invite.StatusPending:
		fmt.Printf("Invitation to %q saved. Log in or register to join.\n", name)
	case invite.StatusResolved:
		fmt.Printf("You are a member of %q.\n", name)
	case invite.StatusInvalid:
		fmt.Println("The invitation is no longer valid.")
	case invite.StatusError:
		fmt.Fprintf(os.Stderr, "Could not process the invitation, it will be retried: %v\n", o.Err)
	}
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
