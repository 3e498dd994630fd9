// Package household implements the lifecycle of households: creation with
// an owner membership, renaming, leaving, invite rotation and deletion
// with relocation of the other members' history.
package household

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fjsui0423-max/pachi-money/internal/metrics"
	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/storage"
	"github.com/fjsui0423-max/pachi-money/pkg/logging"
)

var (
	ErrNotOwner         = errors.New("only the owner can do this")
	ErrOwnerCannotLeave = errors.New("the owner cannot leave; delete the household instead")
	ErrEditRestricted   = errors.New("editing is restricted to the owner")
	ErrNotMember        = errors.New("not a member of this household")
	ErrInvalidName      = errors.New("household name is required")
	ErrNameTooLong      = errors.New("household name is too long")
)

// MaxNameLength bounds household names in runes.
const MaxNameLength = 50

// Store is the persistence the manager needs.
type Store interface {
	storage.HouseholdStore
	storage.MembershipStore
	ReassignEntries(ctx context.Context, fromHouseholdID, authorID, toHouseholdID string) (int64, error)
	EntryAuthors(ctx context.Context, householdID string) ([]string, error)
}

// Manager applies household operations on behalf of an acting user.
type Manager struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewManager creates a Manager. m may be nil.
func NewManager(store Store, m *metrics.Metrics) *Manager {
	return &Manager{store: store, metrics: m, logger: logging.Component("household")}
}

// Relocation records where one member's history went when a household
// was deleted.
type Relocation struct {
	UserID      string
	HouseholdID string
	Moved       int64
	Reused      bool
	// Former marks an author who had already left the household.
	Former      bool
}

// DeleteResult describes a completed deletion.
type DeleteResult struct {
	HouseholdID string
	Relocations []Relocation
}

// ValidateName trims and checks a household name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if len([]rune(name)) > MaxNameLength {
		return "", fmt.Errorf("%w: at most %d characters", ErrNameTooLong, MaxNameLength)
	}
	return name, nil
}

// Create makes a household owned by ownerID. The owner membership is
// written atomically with the household.
func (m *Manager) Create(ctx context.Context, ownerID, name string) (*models.Household, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	h := &models.Household{
		ID:          uuid.New().String(),
		Name:        name,
		OwnerID:     ownerID,
		InviteToken: uuid.NewString(),
	}
	if err := m.store.CreateHousehold(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to create household: %w", err)
	}
	m.logger.Info("household created", "group_id", h.ID, "user_id", ownerID)
	return h, nil
}

// Authorize loads the household and checks that userID is a member.
func (m *Manager) Authorize(ctx context.Context, userID, householdID string) (*models.Household, *models.Membership, error) {
	h, err := m.store.GetHousehold(ctx, householdID)
	if err != nil {
		return nil, nil, err
	}
	membership, err := m.store.GetMembership(ctx, householdID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrNotMember
	}
	if err != nil {
		return nil, nil, err
	}
	return h, membership, nil
}

func (m *Manager) requireOwner(ctx context.Context, userID, householdID string) (*models.Household, error) {
	h, err := m.store.GetHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if !h.IsOwner(userID) {
		return nil, ErrNotOwner
	}
	return h, nil
}

// Rename changes the display name. Non-owners may rename unless the
// household is edit-restricted.
func (m *Manager) Rename(ctx context.Context, userID, householdID, name string) (*models.Household, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	h, _, err := m.Authorize(ctx, userID, householdID)
	if err != nil {
		return nil, err
	}
	if h.EditRestricted && !h.IsOwner(userID) {
		return nil, ErrEditRestricted
	}
	h.Name = name
	if err := m.store.UpdateHousehold(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to rename household: %w", err)
	}
	return h, nil
}

// SetEditRestricted toggles whether non-owners may rename. Owner only.
func (m *Manager) SetEditRestricted(ctx context.Context, userID, householdID string, restricted bool) (*models.Household, error) {
	h, err := m.requireOwner(ctx, userID, householdID)
	if err != nil {
		return nil, err
	}
	h.EditRestricted = restricted
	if err := m.store.UpdateHousehold(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to update household: %w", err)
	}
	return h, nil
}

// RotateInvite replaces the invite token; links with the old token stop
// resolving. Owner only.
func (m *Manager) RotateInvite(ctx context.Context, userID, householdID string) (*models.Household, error) {
	h, err := m.requireOwner(ctx, userID, householdID)
	if err != nil {
		return nil, err
	}
	h.InviteToken = uuid.NewString()
	if err := m.store.UpdateHousehold(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to rotate invite: %w", err)
	}
	m.logger.Info("invite rotated", "group_id", h.ID)
	return h, nil
}

// Leave removes userID's membership. Owners must delete instead. The
// member's entries stay in the household until it is deleted, at which
// point they move to a replacement household the former member owns.
func (m *Manager) Leave(ctx context.Context, userID, householdID string) error {
	h, membership, err := m.Authorize(ctx, userID, householdID)
	if err != nil {
		return err
	}
	if h.IsOwner(userID) {
		return ErrOwnerCannotLeave
	}
	if err := m.store.DeleteMembership(ctx, householdID, userID); err != nil {
		return fmt.Errorf("failed to leave household: %w", err)
	}
	if membership.IsDefault {
		m.promoteDefault(ctx, userID)
	}
	m.logger.Info("left household", "group_id", householdID, "user_id", userID)
	return nil
}

// Join adds userID as a member of the household behind token. Joining a
// household one already belongs to is not an error; joined reports
// whether a membership was created.
func (m *Manager) Join(ctx context.Context, userID, token string) (group *models.GroupSummary, joined bool, err error) {
	group, err = m.store.LookupHouseholdByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, false, err
	}
	err = m.store.CreateMembership(ctx, group.ID, userID, models.RoleMember)
	switch {
	case err == nil:
		m.logger.Info("joined household", "group_id", group.ID, "user_id", userID)
		return group, true, nil
	case errors.Is(err, storage.ErrDuplicate):
		return group, false, nil
	}
	return nil, false, fmt.Errorf("failed to join household: %w", err)
}

// SetDefault makes householdID the household userID opens first.
func (m *Manager) SetDefault(ctx context.Context, userID, householdID string) error {
	if _, _, err := m.Authorize(ctx, userID, householdID); err != nil {
		return err
	}
	return m.store.SetDefaultHousehold(ctx, userID, householdID)
}

// ListForUser returns userID's households, default first.
func (m *Manager) ListForUser(ctx context.Context, userID string) ([]*models.Household, error) {
	return m.store.ListHouseholdsForUser(ctx, userID)
}

// Members lists the members of a household userID belongs to.
func (m *Manager) Members(ctx context.Context, userID, householdID string) ([]*models.Membership, error) {
	if _, _, err := m.Authorize(ctx, userID, householdID); err != nil {
		return nil, err
	}
	return m.store.ListMembers(ctx, householdID)
}

// Delete removes a household. Every other member first gets a replacement
// household they own, holding the entries they authored. Former members
// whose entries are still in the household get one as well, so no one's
// history is lost. Authors are processed one at a time; a failure stops
// the deletion and leaves the original in place, and a retry reuses
// replacements already created, so no entry is ever moved twice.
func (m *Manager) Delete(ctx context.Context, userID, householdID string) (*DeleteResult, error) {
	origin, err := m.requireOwner(ctx, userID, householdID)
	if err != nil {
		return nil, err
	}

	members, err := m.store.ListMembers(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	result := &DeleteResult{HouseholdID: householdID}
	var ownerWasDefault bool
	for _, member := range members {
		if member.UserID == origin.OwnerID {
			ownerWasDefault = member.IsDefault
			continue
		}
		rel, err := m.relocate(ctx, origin, member)
		if err != nil {
			return result, fmt.Errorf("failed to relocate member %s: %w", member.UserID, err)
		}
		result.Relocations = append(result.Relocations, rel)
	}

	authors, err := m.store.EntryAuthors(ctx, householdID)
	if err != nil {
		return result, fmt.Errorf("failed to list entry authors: %w", err)
	}
	current := make(map[string]bool, len(members))
	for _, member := range members {
		current[member.UserID] = true
	}
	for _, author := range authors {
		if current[author] || author == origin.OwnerID {
			continue
		}
		rel, err := m.relocate(ctx, origin, &models.Membership{HouseholdID: householdID, UserID: author})
		if err != nil {
			return result, fmt.Errorf("failed to relocate former member %s: %w", author, err)
		}
		rel.Former = true
		result.Relocations = append(result.Relocations, rel)
	}

	if err := m.store.DeleteHousehold(ctx, householdID); err != nil {
		return result, fmt.Errorf("failed to delete household: %w", err)
	}
	if ownerWasDefault {
		m.promoteDefault(ctx, origin.OwnerID)
	}

	m.logger.Info("household deleted",
		"group_id", householdID,
		"user_id", userID,
		"relocated_members", len(result.Relocations),
	)
	return result, nil
}

func (m *Manager) relocate(ctx context.Context, origin *models.Household, member *models.Membership) (Relocation, error) {
	rel := Relocation{UserID: member.UserID}

	target, err := m.store.FindRelocation(ctx, origin.ID, member.UserID)
	switch {
	case err == nil:
		rel.Reused = true
	case errors.Is(err, storage.ErrNotFound):
		target = &models.Household{
			ID:            uuid.New().String(),
			Name:          origin.Name,
			OwnerID:       member.UserID,
			InviteToken:   uuid.NewString(),
			RelocatedFrom: origin.ID,
		}
		if err := m.store.CreateHousehold(ctx, target); err != nil {
			return rel, fmt.Errorf("create replacement: %w", err)
		}
	default:
		return rel, fmt.Errorf("find replacement: %w", err)
	}
	rel.HouseholdID = target.ID

	moved, err := m.store.ReassignEntries(ctx, origin.ID, member.UserID, target.ID)
	if err != nil {
		return rel, fmt.Errorf("move entries: %w", err)
	}
	rel.Moved = moved

	// CreateHousehold already adds the owner; this covers replacements
	// whose membership was removed between attempts.
	if err := m.store.CreateMembership(ctx, target.ID, member.UserID, models.RoleOwner); err != nil && !errors.Is(err, storage.ErrDuplicate) {
		return rel, fmt.Errorf("join replacement: %w", err)
	}

	if member.IsDefault {
		if err := m.store.SetDefaultHousehold(ctx, member.UserID, target.ID); err != nil {
			return rel, fmt.Errorf("move default: %w", err)
		}
	}

	m.metrics.Relocated()
	m.logger.Info("member relocated",
		"group_id", origin.ID,
		"user_id", member.UserID,
		"target_id", target.ID,
		"moved", moved,
		"reused", rel.Reused,
	)
	return rel, nil
}

// promoteDefault gives userID a default household again after losing one.
func (m *Manager) promoteDefault(ctx context.Context, userID string) {
	memberships, err := m.store.ListMemberships(ctx, userID)
	if err != nil || len(memberships) == 0 {
		return
	}
	for _, ms := range memberships {
		if ms.IsDefault {
			return
		}
	}
	if err := m.store.SetDefaultHousehold(ctx, userID, memberships[0].HouseholdID); err != nil {
		m.logger.Warn("failed to promote default household", "user_id", userID, "error", err)
	}
}
