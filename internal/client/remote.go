package client

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/fjsui0423-max/pachi-money/internal/api"
	"github.com/fjsui0423-max/pachi-money/internal/config"
	"github.com/fjsui0423-max/pachi-money/internal/invite"
)

// Remote bundles the typed clients of one server and the local session.
type Remote struct {
	Auth       *api.AuthClient
	Households *api.HouseholdClient
	Entries    *api.EntryClient

	Sessions *SessionFile
	Pending  *invite.FilePending

	mu      sync.RWMutex
	session *Session
}

// New creates a Remote for cfg and loads the stored session, if any.
func New(cfg *config.Client) (*Remote, error) {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: 30 * time.Second})
}

// NewWithHTTPClient is New with a caller-supplied HTTP client.
func NewWithHTTPClient(cfg *config.Client, httpClient connect.HTTPClient) (*Remote, error) {
	r := &Remote{
		Sessions: NewSessionFile(filepath.Join(cfg.Home, "session.json")),
		Pending:  invite.NewFilePending(filepath.Join(cfg.Home, "pending_invite")),
	}
	session, err := r.Sessions.Load()
	if err != nil {
		return nil, err
	}
	r.session = session

	opt := connect.WithInterceptors(r.bearer())
	r.Auth = api.NewAuthClient(httpClient, cfg.Server, opt)
	r.Households = api.NewHouseholdClient(httpClient, cfg.Server, opt)
	r.Entries = api.NewEntryClient(httpClient, cfg.Server, opt)
	return r, nil
}

// bearer attaches the current session token to every call.
func (r *Remote) bearer() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if s := r.Session(); s != nil {
				req.Header().Set("Authorization", "Bearer "+s.Token)
			}
			return next(ctx, req)
		}
	}
}

// Session returns the active session, or nil when signed out.
func (r *Remote) Session() *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session
}

// UserID returns the signed-in user, or "" when anonymous.
func (r *Remote) UserID() string {
	if s := r.Session(); s != nil {
		return s.UserID
	}
	return ""
}

// SignIn stores and activates a session.
func (r *Remote) SignIn(s *api.Session) error {
	session := SessionFromAPI(s)
	if err := r.Sessions.Save(session); err != nil {
		return err
	}
	r.mu.Lock()
	r.session = session
	r.mu.Unlock()
	return nil
}

// SignOut forgets the session. A held invite token is kept.
func (r *Remote) SignOut() error {
	r.mu.Lock()
	r.session = nil
	r.mu.Unlock()
	return r.Sessions.Clear()
}

// Reconciler returns an invite reconciler talking to this server and
// persisting tokens under the client home.
func (r *Remote) Reconciler(opts ...invite.Option) *invite.Reconciler {
	return invite.New(NewDirectory(r), r.Pending, opts...)
}

// DefaultHousehold returns the household the user opens first.
func (r *Remote) DefaultHousehold(ctx context.Context) (*api.Household, error) {
	households, err := r.Households.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(households) == 0 {
		return nil, ErrNoHousehold
	}
	for i := range households {
		if households[i].IsDefault {
			return &households[i], nil
		}
	}
	return &households[0], nil
}
