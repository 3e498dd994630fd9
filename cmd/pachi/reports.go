package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/fjsui0423-max/pachi-money/internal/api"
	"github.com/fjsui0423-max/pachi-money/internal/calculator"
	"github.com/fjsui0423-max/pachi-money/internal/ledger"
	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/report"
)

// selection picks the household and members a report covers.
type selection struct {
	household string
	members   stringList
}

func (s *selection) set(f *flag.FlagSet) {
	f.StringVar(&s.household, "household", "", "Household ID or name (defaults to the default household)")
	f.Var(&s.members, "member", "Member name or user ID; repeat to select several (default everyone)")
}

// fetch lists the selected entries of a window.
func (s *selection) fetch(ctx context.Context, window string) ([]models.Entry, error) {
	entries, _, err := s.fetchNamed(ctx, window)
	return entries, err
}

// fetchNamed is fetch that also returns the household's member names.
func (s *selection) fetchNamed(ctx context.Context, window string) ([]models.Entry, map[string]string, error) {
	r, err := signedIn()
	if err != nil {
		return nil, nil, err
	}
	h, err := resolveHousehold(ctx, r, s.household)
	if err != nil {
		return nil, nil, err
	}
	names, err := memberNames(ctx, r, h.ID)
	if err != nil {
		return nil, nil, err
	}
	req := &api.ListEntriesRequest{HouseholdID: h.ID, Window: window, AllMembers: len(s.members) == 0}
	for _, m := range s.members {
		id, err := memberID(names, m)
		if err != nil {
			return nil, nil, err
		}
		req.Members = append(req.Members, id)
	}
	res, err := r.Entries.List(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return toModels(res.Entries), names, nil
}

type historyCmd struct {
	selection
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "lifetime, yearly and monthly totals" }
func (*historyCmd) Usage() string {
	return `pachi history [-household <id|name>] [-member <name>]...
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) { c.selection.set(f) }

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entries, err := c.fetch(ctx, "all")
	if err != nil {
		return fail(err)
	}
	printMarkdown(report.History(calculator.History(entries)))
	return subcommands.ExitSuccess
}

type analysisCmd struct {
	selection
}

func (*analysisCmd) Name() string     { return "analysis" }
func (*analysisCmd) Synopsis() string { return "twelve-month trend, trajectory and leaderboards" }
func (*analysisCmd) Usage() string {
	return `pachi analysis [-household <id|name>] [-member <name>]...
`
}

func (c *analysisCmd) SetFlags(f *flag.FlagSet) { c.selection.set(f) }

func (c *analysisCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entries, err := c.fetch(ctx, "all")
	if err != nil {
		return fail(err)
	}
	printMarkdown(report.Analysis(calculator.Analysis(entries, time.Now())))
	return subcommands.ExitSuccess
}

type rankingCmd struct {
	selection
	kind   string
	window string
}

func (*rankingCmd) Name() string     { return "ranking" }
func (*rankingCmd) Synopsis() string { return "rank venues or instruments by result" }
func (*rankingCmd) Usage() string {
	return `pachi ranking [-kind venue|instrument] [-w all|2024|2024-01] [-household <id|name>] [-member <name>]...
`
}

func (c *rankingCmd) SetFlags(f *flag.FlagSet) {
	c.selection.set(f)
	f.StringVar(&c.kind, "kind", "venue", "Label kind: venue or instrument")
	f.StringVar(&c.window, "w", "all", "Window: all, a year or a year-month")
}

func (c *rankingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind := models.LabelKind(c.kind)
	if !kind.Valid() {
		return usageError(f, "unknown label kind %q", c.kind)
	}
	entries, err := c.fetch(ctx, c.window)
	if err != nil {
		return fail(err)
	}
	printMarkdown(report.Ranking(kind, calculator.Rank(entries, kind)))
	return subcommands.ExitSuccess
}

type calendarCmd struct {
	selection
	month string
}

func (*calendarCmd) Name() string     { return "calendar" }
func (*calendarCmd) Synopsis() string { return "daily totals of one month" }
func (*calendarCmd) Usage() string {
	return `pachi calendar [-m 2024-01] [-household <id|name>] [-member <name>]...
`
}

func (c *calendarCmd) SetFlags(f *flag.FlagSet) {
	c.selection.set(f)
	f.StringVar(&c.month, "m", ledger.MonthOf(time.Now()).String(), "Month to show")
}

func (c *calendarCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	w, err := ledger.ParseWindow(c.month)
	if err != nil || w.Kind != ledger.KindMonth {
		return usageError(f, "month must look like 2024-01")
	}
	entries, err := c.fetch(ctx, w.String())
	if err != nil {
		return fail(err)
	}
	printMarkdown(report.Calendar(w.Year, w.Month, calculator.Calendar(entries, w.Year, w.Month)))
	if len(entries) == 0 {
		fmt.Println("No sessions this month.")
	}
	return subcommands.ExitSuccess
}

type standingsCmd struct {
	selection
	window string
}

func (*standingsCmd) Name() string     { return "standings" }
func (*standingsCmd) Synopsis() string { return "compare members by net result" }
func (*standingsCmd) Usage() string {
	return `pachi standings [-w all|2024|2024-01] [-household <id|name>] [-member <name>]...
`
}

func (c *standingsCmd) SetFlags(f *flag.FlagSet) {
	c.selection.set(f)
	f.StringVar(&c.window, "w", "all", "Window: all, a year or a year-month")
}

func (c *standingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entries, names, err := c.fetchNamed(ctx, c.window)
	if err != nil {
		return fail(err)
	}
	printMarkdown(report.Standings(calculator.MemberBalances(entries), names))
	return subcommands.ExitSuccess
}
