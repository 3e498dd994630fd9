package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/fjsui0423-max/pachi-money/internal/api"
	"github.com/fjsui0423-max/pachi-money/internal/ledger"
	"github.com/fjsui0423-max/pachi-money/internal/report"
)

type entriesCmd struct {
	household string
	window    string
	members   stringList
	category  string
	sort      string
}

func (*entriesCmd) Name() string     { return "entries" }
func (*entriesCmd) Synopsis() string { return "list ledger entries with their total" }
func (*entriesCmd) Usage() string {
	return `pachi entries [-household <id|name>] [-w all|2024|2024-01] [-member <name>]... [-category venue=<label>] [-sort <key>]

  Lists entries of the selected members (everyone by default) in a
  window, the current month by default. Sort keys: date-desc, date-asc,
  balance-desc, balance-asc, venue, instrument.
`
}

func (c *entriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.household, "household", "", "Household ID or name (defaults to the default household)")
	f.StringVar(&c.window, "w", ledger.MonthOf(time.Now()).String(), "Window: all, a year or a year-month")
	f.Var(&c.members, "member", "Member name or user ID; repeat to select several")
	f.StringVar(&c.category, "category", "", "Filter on a label, venue=<label> or instrument=<label>")
	f.StringVar(&c.sort, "sort", "", "Sort key")
}

func (c *entriesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req := &api.ListEntriesRequest{Window: c.window, Sort: c.sort, AllMembers: len(c.members) == 0}
	if c.category != "" {
		kind, value, ok := strings.Cut(c.category, "=")
		if !ok {
			return usageError(f, "category must look like venue=<label>")
		}
		req.Category = &api.Category{Kind: kind, Value: value}
	}

	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := resolveHousehold(ctx, r, c.household)
	if err != nil {
		return fail(err)
	}
	req.HouseholdID = h.ID
	names, err := memberNames(ctx, r, h.ID)
	if err != nil {
		return fail(err)
	}
	for _, m := range c.members {
		id, err := memberID(names, m)
		if err != nil {
			return fail(err)
		}
		req.Members = append(req.Members, id)
	}

	res, err := r.Entries.List(ctx, req)
	if err != nil {
		return fail(err)
	}
	total, err := decimal.NewFromString(res.Total)
	if err != nil {
		return fail(fmt.Errorf("bad total %q: %w", res.Total, err))
	}
	printMarkdown(report.Entries(fmt.Sprintf("%s (%s)", h.Name, c.window), toModels(res.Entries), total, names))
	return subcommands.ExitSuccess
}

// entryFlags are the editable fields shared by add and edit.
type entryFlags struct {
	date       string
	venue      string
	instrument string
	stake      int64
	payout     int64
	note       string
}

func (e *entryFlags) set(f *flag.FlagSet) {
	f.StringVar(&e.date, "d", time.Now().Format("2006-01-02"), "Date of the session")
	f.StringVar(&e.venue, "venue", "", "Venue label")
	f.StringVar(&e.instrument, "instrument", "", "Instrument label")
	f.Int64Var(&e.stake, "stake", 0, "Amount put in")
	f.Int64Var(&e.payout, "payout", 0, "Amount taken out")
	f.StringVar(&e.note, "note", "", "Free-text memo")
}

func (e *entryFlags) input() api.EntryInput {
	return api.EntryInput{
		Date:       e.date,
		Venue:      e.venue,
		Instrument: e.instrument,
		Stake:      e.stake,
		Payout:     e.payout,
		Note:       e.note,
	}
}

type addCmd struct {
	household string
	entry     entryFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a session" }
func (*addCmd) Usage() string {
	return `pachi add [-household <id|name>] [-d <date>] [-venue <label>] [-instrument <label>] -stake <n> -payout <n> [-note <text>]
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.household, "household", "", "Household ID or name (defaults to the default household)")
	c.entry.set(f)
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := resolveHousehold(ctx, r, c.household)
	if err != nil {
		return fail(err)
	}
	e, err := r.Entries.Create(ctx, h.ID, c.entry.input())
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Recorded %s on %s (%s).\n", report.Amount(e.Balance), e.Date, e.ID)
	return subcommands.ExitSuccess
}

type editCmd struct {
	entry entryFlags
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "replace the fields of one of your entries" }
func (*editCmd) Usage() string {
	return `pachi edit [-d <date>] [-venue <label>] [-instrument <label>] -stake <n> -payout <n> [-note <text>] <entry id>

  Every field is replaced; omitted flags take their defaults.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) { c.entry.set(f) }

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "edit takes exactly one entry ID")
	}
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	e, err := r.Entries.Update(ctx, f.Arg(0), c.entry.input())
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Updated %s: %s on %s.\n", e.ID, report.Amount(e.Balance), e.Date)
	return subcommands.ExitSuccess
}

type removeCmd struct{}

func (*removeCmd) Name() string     { return "rm" }
func (*removeCmd) Synopsis() string { return "delete one of your entries" }
func (*removeCmd) Usage() string {
	return `pachi rm <entry id>...
`
}

func (*removeCmd) SetFlags(*flag.FlagSet) {}

func (*removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usageError(f, "rm needs at least one entry ID")
	}
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	for _, id := range f.Args() {
		if err := r.Entries.Delete(ctx, id); err != nil {
			return fail(err)
		}
	}
	return subcommands.ExitSuccess
}

type labelsCmd struct {
	household string
	kind      string
	add       string
}

func (*labelsCmd) Name() string     { return "labels" }
func (*labelsCmd) Synopsis() string { return "list or register venue and instrument labels" }
func (*labelsCmd) Usage() string {
	return `pachi labels [-household <id|name>] [-kind venue|instrument] [-add <label>]

  Lists label suggestions: the registry first, then labels recently used
  on entries.
`
}

func (c *labelsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.household, "household", "", "Household ID or name (defaults to the default household)")
	f.StringVar(&c.kind, "kind", "venue", "Label kind: venue or instrument")
	f.StringVar(&c.add, "add", "", "Register a label instead of listing")
}

func (c *labelsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := resolveHousehold(ctx, r, c.household)
	if err != nil {
		return fail(err)
	}
	if c.add != "" {
		if err := r.Entries.AddLabel(ctx, h.ID, c.kind, c.add); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}
	res, err := r.Entries.Labels(ctx, h.ID, c.kind)
	if err != nil {
		return fail(err)
	}
	for _, s := range res.Suggestions {
		fmt.Println(s)
	}
	return subcommands.ExitSuccess
}
