package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/fjsui0423-max/pachi-money/internal/invite"
	"github.com/fjsui0423-max/pachi-money/internal/report"
)

type inviteCmd struct {
	discard bool
}

func (*inviteCmd) Name() string     { return "invite" }
func (*inviteCmd) Synopsis() string { return "accept an invitation link" }
func (*inviteCmd) Usage() string {
	return `pachi invite [-discard] [<token|url>]

  Opens an invitation. Signed out, the invitation is saved and accepted
  on the next login or register. Without an argument a saved invitation
  is retried.
`
}

func (c *inviteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.discard, "discard", false, "Drop the saved invitation")
}

func (c *inviteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		return usageError(f, "invite takes at most one token or link")
	}
	r, err := openRemote()
	if err != nil {
		return fail(err)
	}
	rec := r.Reconciler()

	if c.discard {
		if err := rec.Discard(); err != nil {
			return fail(err)
		}
		fmt.Println("Saved invitation dropped.")
		return subcommands.ExitSuccess
	}

	var o invite.Outcome
	if f.NArg() == 1 {
		o = rec.Open(ctx, invite.TokenFromURL(f.Arg(0)), r.UserID())
	} else {
		o = rec.Resume(ctx, r.UserID())
		if o.Status == invite.StatusNone {
			fmt.Println("No saved invitation.")
		}
	}
	reportInvite(o)
	if o.Status == invite.StatusError || o.Status == invite.StatusInvalid {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type shareCmd struct {
	household string
	rotate    bool
}

func (*shareCmd) Name() string     { return "share" }
func (*shareCmd) Synopsis() string { return "print the invitation link of a household" }
func (*shareCmd) Usage() string {
	return `pachi share [-household <id|name>] [-rotate]

  Prints the invitation link. -rotate issues a new token, which
  invalidates links shared before.
`
}

func (c *shareCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.household, "household", "", "Household ID or name (defaults to the default household)")
	f.BoolVar(&c.rotate, "rotate", false, "Issue a new invitation token")
}

func (c *shareCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := resolveHousehold(ctx, r, c.household)
	if err != nil {
		return fail(err)
	}
	token := h.InviteToken
	if c.rotate {
		res, err := r.Households.RotateInvite(ctx, h.ID)
		if err != nil {
			return fail(err)
		}
		if res.URL != "" {
			fmt.Println(res.URL)
			return subcommands.ExitSuccess
		}
		token = res.Token
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}

type householdsCmd struct{}

func (*householdsCmd) Name() string     { return "households" }
func (*householdsCmd) Synopsis() string { return "list your households" }
func (*householdsCmd) Usage() string {
	return `pachi households

  Lists your households. The default one is marked with *.
`
}

func (*householdsCmd) SetFlags(*flag.FlagSet) {}

func (*householdsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	households, err := r.Households.List(ctx)
	if err != nil {
		return fail(err)
	}
	rows := make([]report.Household, len(households))
	for i, h := range households {
		rows[i] = report.Household{ID: h.ID, Name: h.Name, Role: h.Role, IsDefault: h.IsDefault}
	}
	printMarkdown(report.Households(rows))
	return subcommands.ExitSuccess
}

type createHouseholdCmd struct{}

func (*createHouseholdCmd) Name() string     { return "create-household" }
func (*createHouseholdCmd) Synopsis() string { return "create a household you own" }
func (*createHouseholdCmd) Usage() string {
	return `pachi create-household <name>
`
}

func (*createHouseholdCmd) SetFlags(*flag.FlagSet) {}

func (*createHouseholdCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "create-household takes exactly one name")
	}
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := r.Households.Create(ctx, f.Arg(0))
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Created %q (%s).\n", h.Name, h.ID)
	return subcommands.ExitSuccess
}

type renameHouseholdCmd struct {
	household string
}

func (*renameHouseholdCmd) Name() string     { return "rename-household" }
func (*renameHouseholdCmd) Synopsis() string { return "rename a household" }
func (*renameHouseholdCmd) Usage() string {
	return `pachi rename-household [-household <id|name>] <new name>
`
}

func (c *renameHouseholdCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.household, "household", "", "Household ID or name (defaults to the default household)")
}

func (c *renameHouseholdCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "rename-household takes exactly one name")
	}
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := resolveHousehold(ctx, r, c.household)
	if err != nil {
		return fail(err)
	}
	renamed, err := r.Households.Rename(ctx, h.ID, f.Arg(0))
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Renamed to %q.\n", renamed.Name)
	return subcommands.ExitSuccess
}

type restrictCmd struct {
	household string
	off       bool
}

func (*restrictCmd) Name() string     { return "restrict" }
func (*restrictCmd) Synopsis() string { return "let only the owner rename a household" }
func (*restrictCmd) Usage() string {
	return `pachi restrict [-household <id|name>] [-off]
`
}

func (c *restrictCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.household, "household", "", "Household ID or name (defaults to the default household)")
	f.BoolVar(&c.off, "off", false, "Allow every member to rename again")
}

func (c *restrictCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := resolveHousehold(ctx, r, c.household)
	if err != nil {
		return fail(err)
	}
	if _, err := r.Households.SetEditRestricted(ctx, h.ID, !c.off); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type deleteHouseholdCmd struct{}

func (*deleteHouseholdCmd) Name() string     { return "delete-household" }
func (*deleteHouseholdCmd) Synopsis() string { return "delete a household you own" }
func (*deleteHouseholdCmd) Usage() string {
	return `pachi delete-household <id|name>

  Deletes the household. Every other member's entries move to a new
  household of their own.
`
}

func (*deleteHouseholdCmd) SetFlags(*flag.FlagSet) {}

func (*deleteHouseholdCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "delete-household takes exactly one household")
	}
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := resolveHousehold(ctx, r, f.Arg(0))
	if err != nil {
		return fail(err)
	}
	res, err := r.Households.Delete(ctx, h.ID)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Deleted %q.\n", h.Name)
	for _, rel := range res.Relocations {
		fmt.Printf("  %d entries of %s moved to %s\n", rel.Moved, rel.UserID, rel.HouseholdID)
	}
	return subcommands.ExitSuccess
}

type leaveCmd struct{}

func (*leaveCmd) Name() string     { return "leave" }
func (*leaveCmd) Synopsis() string { return "leave a household" }
func (*leaveCmd) Usage() string {
	return `pachi leave <id|name>

  Leaves a household you do not own.
`
}

func (*leaveCmd) SetFlags(*flag.FlagSet) {}

func (*leaveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "leave takes exactly one household")
	}
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := resolveHousehold(ctx, r, f.Arg(0))
	if err != nil {
		return fail(err)
	}
	if err := r.Households.Leave(ctx, h.ID); err != nil {
		return fail(err)
	}
	fmt.Printf("Left %q.\n", h.Name)
	return subcommands.ExitSuccess
}

type useCmd struct{}

func (*useCmd) Name() string     { return "use" }
func (*useCmd) Synopsis() string { return "make a household the default" }
func (*useCmd) Usage() string {
	return `pachi use <id|name>
`
}

func (*useCmd) SetFlags(*flag.FlagSet) {}

func (*useCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "use takes exactly one household")
	}
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := resolveHousehold(ctx, r, f.Arg(0))
	if err != nil {
		return fail(err)
	}
	if err := r.Households.SetDefault(ctx, h.ID); err != nil {
		return fail(err)
	}
	fmt.Printf("Now using %q.\n", h.Name)
	return subcommands.ExitSuccess
}

type membersCmd struct {
	household string
}

func (*membersCmd) Name() string     { return "members" }
func (*membersCmd) Synopsis() string { return "list the members of a household" }
func (*membersCmd) Usage() string {
	return `pachi members [-household <id|name>]
`
}

func (c *membersCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.household, "household", "", "Household ID or name (defaults to the default household)")
}

func (c *membersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := resolveHousehold(ctx, r, c.household)
	if err != nil {
		return fail(err)
	}
	members, err := r.Households.Members(ctx, h.ID)
	if err != nil {
		return fail(err)
	}
	for _, m := range members {
		fmt.Printf("%-8s %-20s %s\n", m.Role, m.DisplayName, m.UserID)
	}
	return subcommands.ExitSuccess
}
