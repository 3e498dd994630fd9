// Command pachi is the terminal client of a Pachi-Money server.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/fjsui0423-max/pachi-money/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	logging.Setup()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// register adds every pachi command, grouped the way help lists them.
func register(c *subcommands.Commander) {
	c.Register(&registerCmd{}, "account")
	c.Register(&loginCmd{}, "account")
	c.Register(&logoutCmd{}, "account")
	c.Register(&whoamiCmd{}, "account")

	c.Register(&inviteCmd{}, "households")
	c.Register(&shareCmd{}, "households")
	c.Register(&householdsCmd{}, "households")
	c.Register(&createHouseholdCmd{}, "households")
	c.Register(&renameHouseholdCmd{}, "households")
	c.Register(&restrictCmd{}, "households")
	c.Register(&deleteHouseholdCmd{}, "households")
	c.Register(&leaveCmd{}, "households")
	c.Register(&useCmd{}, "households")
	c.Register(&membersCmd{}, "households")

	c.Register(&entriesCmd{}, "entries")
	c.Register(&addCmd{}, "entries")
	c.Register(&editCmd{}, "entries")
	c.Register(&removeCmd{}, "entries")
	c.Register(&labelsCmd{}, "entries")
	c.Register(&importCmd{}, "entries")
	c.Register(&copyCmd{}, "entries")

	c.Register(&historyCmd{}, "reports")
	c.Register(&analysisCmd{}, "reports")
	c.Register(&rankingCmd{}, "reports")
	c.Register(&calendarCmd{}, "reports")
	c.Register(&standingsCmd{}, "reports")
}
