// Package invite turns an invite token into a household membership.
//
// The token is persisted the moment a link is opened and survives until
// the membership exists or the token is found to be invalid, so a user can
// open a link anonymously, sign up, and still join afterwards.
//
//	Anonymous+NoToken --Open--> Anonymous+TokenHeld --login--> Authenticated+TokenHeld --Resume--> Resolved
//
// Creating a membership that already exists counts as success, which makes
// Resume safe to call on every authenticated start.
package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/storage"
	"github.com/fjsui0423-max/pachi-money/pkg/logging"
)

// ErrNoSession is returned by directories that need an authenticated user.
var ErrNoSession = errors.New("not signed in")

// Status is the reconciliation status reported to the user.
type Status string

const (
	// StatusNone means no token is held and nothing happened.
	StatusNone Status = "none"
	// StatusPending means the token is valid and waits for authentication.
	StatusPending Status = "pending"
	// StatusResolved means the membership exists.
	StatusResolved Status = "resolved"
	// StatusInvalid means the token matched no household and was discarded.
	StatusInvalid Status = "invalid"
	// StatusError means a transient failure; the token is kept for a retry.
	StatusError Status = "error"
)

// State is the position in the reconciliation state machine.
type State int

const (
	AnonymousNoToken State = iota
	AnonymousTokenHeld
	AuthenticatedNoToken
	AuthenticatedTokenHeld
	Resolved
)

func (s State) String() string {
	switch s {
	case AnonymousNoToken:
		return "anonymous"
	case AnonymousTokenHeld:
		return "anonymous+token"
	case AuthenticatedNoToken:
		return "authenticated"
	case AuthenticatedTokenHeld:
		return "authenticated+token"
	case Resolved:
		return "resolved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Directory is the remote side the reconciler talks to.
type Directory interface {
	// LookupGroupByToken returns storage.ErrNotFound for unknown tokens.
	LookupGroupByToken(ctx context.Context, token string) (*models.GroupSummary, error)
	// CreateMembership returns storage.ErrDuplicate when the pair exists.
	CreateMembership(ctx context.Context, groupID, userID string, role models.Role) error
}

// Outcome is the result of one reconciliation step.
type Outcome struct {
	Status Status
	State  State
	// Group is set once the token has been resolved to a household.
	Group *models.GroupSummary
	// Err carries the cause of StatusError and StatusInvalid.
	Err error
}

// Observer is told about every outcome, e.g. to count them.
type Observer func(Status)

// Reconciler drives the invite state machine for one client.
type Reconciler struct {
	dir      Directory
	pending  Pending
	observer Observer
	logger   *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithObserver registers a callback invoked with every outcome's status.
func WithObserver(o Observer) Option {
	return func(r *Reconciler) { r.observer = o }
}

// New creates a Reconciler.
func New(dir Directory, pending Pending, opts ...Option) *Reconciler {
	r := &Reconciler{dir: dir, pending: pending, logger: logging.Component("invite")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open handles visiting an invite link. The token is persisted before
// anything else. An empty userID means the visitor is anonymous: the
// household is looked up but no membership is attempted.
func (r *Reconciler) Open(ctx context.Context, token, userID string) Outcome {
	token = strings.TrimSpace(token)
	if token == "" {
		return r.done(Outcome{Status: StatusInvalid, State: stateFor(userID, false), Err: fmt.Errorf("empty invite token: %w", storage.ErrNotFound)})
	}
	if err := r.pending.Set(token); err != nil {
		return r.done(Outcome{Status: StatusError, State: stateFor(userID, false), Err: err})
	}
	return r.reconcile(ctx, token, userID)
}

// Resume finishes a held invite after authentication. Without a held
// token it reports StatusNone.
func (r *Reconciler) Resume(ctx context.Context, userID string) Outcome {
	token, ok, err := r.pending.Get()
	if err != nil {
		return r.done(Outcome{Status: StatusError, State: stateFor(userID, false), Err: err})
	}
	if !ok {
		return Outcome{Status: StatusNone, State: stateFor(userID, false)}
	}
	return r.reconcile(ctx, token, userID)
}

// State reports the current state for userID ("" when anonymous).
func (r *Reconciler) State(userID string) (State, error) {
	_, held, err := r.pending.Get()
	if err != nil {
		return 0, err
	}
	return stateFor(userID, held), nil
}

// Discard drops a held token without resolving it.
func (r *Reconciler) Discard() error {
	return r.pending.Clear()
}

func (r *Reconciler) reconcile(ctx context.Context, token, userID string) Outcome {
	group, err := r.dir.LookupGroupByToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		if clearErr := r.pending.Clear(); clearErr != nil {
			r.logger.Warn("failed to discard invalid invite token", "error", clearErr)
		}
		r.logger.Info("invite token rejected", "user_id", userID)
		return r.done(Outcome{Status: StatusInvalid, State: stateFor(userID, false), Err: err})
	}
	if err != nil {
		r.logger.Warn("invite lookup failed", "user_id", userID, "error", err)
		return r.done(Outcome{Status: StatusError, State: stateFor(userID, true), Err: fmt.Errorf("lookup invite: %w", err)})
	}

	if userID == "" {
		return r.done(Outcome{Status: StatusPending, State: AnonymousTokenHeld, Group: group})
	}

	err = r.dir.CreateMembership(ctx, group.ID, userID, models.RoleMember)
	switch {
	case err == nil:
		r.logger.Info("joined household", "group_id", group.ID, "user_id", userID)
	case errors.Is(err, storage.ErrDuplicate):
		r.logger.Debug("already a member", "group_id", group.ID, "user_id", userID)
	default:
		r.logger.Warn("join failed", "group_id", group.ID, "user_id", userID, "error", err)
		return r.done(Outcome{Status: StatusError, State: AuthenticatedTokenHeld, Group: group, Err: fmt.Errorf("join household: %w", err)})
	}

	if err := r.pending.Clear(); err != nil {
		// The membership exists; a retry will hit the duplicate path.
		r.logger.Warn("failed to clear pending invite", "error", err)
	}
	return r.done(Outcome{Status: StatusResolved, State: Resolved, Group: group})
}

func (r *Reconciler) done(o Outcome) Outcome {
	if r.observer != nil {
		r.observer(o.Status)
	}
	return o
}

func stateFor(userID string, held bool) State {
	switch {
	case userID == "" && held:
		return AnonymousTokenHeld
	case userID == "":
		return AnonymousNoToken
	case held:
		return AuthenticatedTokenHeld
	}
	return AuthenticatedNoToken
}

// URL builds the shareable link for a token.
func URL(base, token string) string {
	return strings.TrimRight(base, "/") + "/invite/" + token
}

// TokenFromURL extracts the token from an invite link, or returns the
// input unchanged when it is already a bare token.
func TokenFromURL(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "/invite/"); i >= 0 {
		s = s[i+len("/invite/"):]
	}
	if i := strings.IndexAny(s, "?#/"); i >= 0 {
		s = s[:i]
	}
	return s
}
