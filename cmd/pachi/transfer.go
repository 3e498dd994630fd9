package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/fjsui0423-max/pachi-money/internal/api"
	"github.com/fjsui0423-max/pachi-money/internal/transfer"
)

type importCmd struct {
	household string
	strict    bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import entries from a JSONL export" }
func (*importCmd) Usage() string {
	return `pachi import [-household <id|name>] [-strict] <file.jsonl>

  Imports one entry per line. Rows whose stored balance disagrees with
  payout - stake are imported with the computed balance, or skipped
  with -strict.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.household, "household", "", "Household ID or name (defaults to the default household)")
	f.BoolVar(&c.strict, "strict", false, "Skip rows whose balance does not match")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "import takes exactly one file")
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		return fail(err)
	}
	defer file.Close()
	batch, err := transfer.DecodeRows(file)
	if err != nil {
		return fail(err)
	}

	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	h, err := resolveHousehold(ctx, r, c.household)
	if err != nil {
		return fail(err)
	}
	if len(batch.Invalid) > 0 {
		fmt.Fprintf(os.Stderr, "Skipping unreadable lines %v\n", batch.Invalid)
	}
	res, err := r.Entries.Import(ctx, &api.ImportRequest{HouseholdID: h.ID, Rows: batch.Rows, RejectMismatches: c.strict, InvalidLines: batch.Invalid})
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Imported %d entries into %q, skipped %d, %d balance mismatches.\n", res.Inserted, h.Name, res.Skipped, res.Mismatches)
	return subcommands.ExitSuccess
}

type copyCmd struct {
	window string
}

func (*copyCmd) Name() string     { return "copy" }
func (*copyCmd) Synopsis() string { return "copy your entries between households" }
func (*copyCmd) Usage() string {
	return `pachi copy [-w all|2024|2024-01] <from> <to>

  Copies your own entries of a window from one household to another.
  Copies are added; nothing in the target is replaced.
`
}

func (c *copyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.window, "w", "all", "Window: all, a year or a year-month")
}

func (c *copyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usageError(f, "copy takes a source and a target household")
	}
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	from, err := resolveHousehold(ctx, r, f.Arg(0))
	if err != nil {
		return fail(err)
	}
	to, err := resolveHousehold(ctx, r, f.Arg(1))
	if err != nil {
		return fail(err)
	}
	res, err := r.Entries.Copy(ctx, &api.CopyRequest{FromHouseholdID: from.ID, ToHouseholdID: to.ID, Window: c.window})
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Copied %d entries (%s) from %q to %q.\n", res.Copied, res.Window, from.Name, to.Name)
	fmt.Println("Running the same copy again adds the entries a second time.")
	return subcommands.ExitSuccess
}
