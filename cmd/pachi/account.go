package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/fjsui0423-max/pachi-money/internal/api"
	"github.com/fjsui0423-max/pachi-money/internal/client"
)

// readPassword takes the password from PACHI_PASSWORD or the first line
// of stdin.
func readPassword() (string, error) {
	if p := os.Getenv("PACHI_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// startSession stores the session and finishes a held invitation.
func startSession(ctx context.Context, r *client.Remote, s *api.Session) error {
	if err := r.SignIn(s); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s.\n", s.User.DisplayName)
	o := r.Reconciler().Resume(ctx, r.UserID())
	reportInvite(o)
	return nil
}

type registerCmd struct {
	name string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create an account and sign in" }
func (*registerCmd) Usage() string {
	return `pachi register [-name <display name>] <email>

  Creates an account. The password is read from PACHI_PASSWORD or stdin.
  A pending invitation is accepted right after sign-up.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Display name (defaults to the email's local part)")
}

func (c *registerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "register takes exactly one email")
	}
	password, err := readPassword()
	if err != nil {
		return fail(err)
	}
	r, err := openRemote()
	if err != nil {
		return fail(err)
	}
	session, err := r.Auth.Register(ctx, &api.RegisterRequest{Email: f.Arg(0), DisplayName: c.name, Password: password})
	if err != nil {
		return fail(err)
	}
	if err := startSession(ctx, r, session); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type loginCmd struct{}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "sign in to the server" }
func (*loginCmd) Usage() string {
	return `pachi login <email>

  Signs in. The password is read from PACHI_PASSWORD or stdin.
`
}

func (*loginCmd) SetFlags(*flag.FlagSet) {}

func (*loginCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "login takes exactly one email")
	}
	password, err := readPassword()
	if err != nil {
		return fail(err)
	}
	r, err := openRemote()
	if err != nil {
		return fail(err)
	}
	session, err := r.Auth.Login(ctx, &api.LoginRequest{Email: f.Arg(0), Password: password})
	if err != nil {
		return fail(err)
	}
	if err := startSession(ctx, r, session); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type logoutCmd struct{}

func (*logoutCmd) Name() string     { return "logout" }
func (*logoutCmd) Synopsis() string { return "forget the stored session" }
func (*logoutCmd) Usage() string {
	return `pachi logout

  Removes the stored session. A saved invitation is kept.
`
}

func (*logoutCmd) SetFlags(*flag.FlagSet) {}

func (*logoutCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := openRemote()
	if err != nil {
		return fail(err)
	}
	if err := r.SignOut(); err != nil {
		return fail(err)
	}
	fmt.Println("Signed out.")
	return subcommands.ExitSuccess
}

type whoamiCmd struct{}

func (*whoamiCmd) Name() string     { return "whoami" }
func (*whoamiCmd) Synopsis() string { return "show the signed-in account" }
func (*whoamiCmd) Usage() string {
	return `pachi whoami
`
}

func (*whoamiCmd) SetFlags(*flag.FlagSet) {}

func (*whoamiCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := signedIn()
	if err != nil {
		return fail(err)
	}
	me, err := r.Auth.Me(ctx)
	if err != nil {
		return fail(err)
	}
	state, _ := r.Reconciler().State(r.UserID())
	fmt.Printf("%s <%s>\nuser id: %s\ninvite state: %s\n", me.User.DisplayName, me.User.Email, me.User.ID, state)
	return subcommands.ExitSuccess
}
