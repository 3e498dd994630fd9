package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"connectrpc.com/connect"

	"github.com/fjsui0423-max/pachi-money/internal/invite"
	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/storage"
)

// ErrNoHousehold is returned when the user belongs to no household.
var ErrNoHousehold = errors.New("no household yet; create one or open an invite")

// Directory resolves invites against the server. Memberships can only be
// created through a token, so CreateMembership uses the token of the
// last lookup for that household.
type Directory struct {
	remote *Remote

	mu     sync.Mutex
	tokens map[string]string
}

var _ invite.Directory = (*Directory)(nil)

// NewDirectory creates a Directory over remote.
func NewDirectory(remote *Remote) *Directory {
	return &Directory{remote: remote, tokens: make(map[string]string)}
}

// storageError turns connect codes back into storage sentinels.
func storageError(err error) error {
	switch connect.CodeOf(err) {
	case connect.CodeNotFound:
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	case connect.CodeAlreadyExists:
		return fmt.Errorf("%w: %v", storage.ErrDuplicate, err)
	case connect.CodeUnauthenticated:
		return fmt.Errorf("%w: %v", invite.ErrNoSession, err)
	}
	return err
}

func (d *Directory) LookupGroupByToken(ctx context.Context, token string) (*models.GroupSummary, error) {
	group, err := d.remote.Households.LookupInvite(ctx, token)
	if err != nil {
		return nil, storageError(err)
	}
	d.mu.Lock()
	d.tokens[group.ID] = token
	d.mu.Unlock()
	return &models.GroupSummary{ID: group.ID, Name: group.Name}, nil
}

func (d *Directory) CreateMembership(ctx context.Context, groupID, userID string, role models.Role) error {
	session := d.remote.Session()
	if session == nil || session.UserID != userID {
		return invite.ErrNoSession
	}
	if role != models.RoleMember {
		return fmt.Errorf("invites grant the member role, not %q", role)
	}

	d.mu.Lock()
	token, ok := d.tokens[groupID]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("household %s was not looked up: %w", groupID, storage.ErrNotFound)
	}

	resp, err := d.remote.Households.Join(ctx, token)
	if err != nil {
		return storageError(err)
	}
	if !resp.Joined {
		return storage.ErrDuplicate
	}
	return nil
}
