package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/fjsui0423-max/pachi-money/internal/api"
	"github.com/fjsui0423-max/pachi-money/internal/auth"
	"github.com/fjsui0423-max/pachi-money/internal/cache"
	"github.com/fjsui0423-max/pachi-money/internal/household"
	"github.com/fjsui0423-max/pachi-money/internal/invite"
	"github.com/fjsui0423-max/pachi-money/internal/middleware"
	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/notify"
	"github.com/fjsui0423-max/pachi-money/internal/storage"
	"github.com/fjsui0423-max/pachi-money/pkg/logging"
)

// HouseholdService implements api.HouseholdServiceHandler.
type HouseholdService struct {
	store      storage.Store
	households *household.Manager
	entries    *cache.EntryCache
	notifier   *notify.Notifier
	publicURL  string
	logger     *slog.Logger
}

var _ api.HouseholdServiceHandler = (*HouseholdService)(nil)

// NewHouseholdService creates a HouseholdService. publicURL is the base
// of invite links.
func NewHouseholdService(store storage.Store, households *household.Manager, entries *cache.EntryCache, notifier *notify.Notifier, publicURL string) *HouseholdService {
	return &HouseholdService{
		store:      store,
		households: households,
		entries:    entries,
		notifier:   notifier,
		publicURL:  publicURL,
		logger:     logging.Component("household-service"),
	}
}

func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

func toAPIHousehold(h *models.Household, m *models.Membership) api.Household {
	out := api.Household{
		ID:             h.ID,
		Name:           h.Name,
		OwnerID:        h.OwnerID,
		InviteToken:    h.InviteToken,
		EditRestricted: h.EditRestricted,
		RelocatedFrom:  h.RelocatedFrom,
		CreatedAt:      h.CreatedAt,
	}
	if m != nil {
		out.Role = string(m.Role)
		out.IsDefault = m.IsDefault
	}
	return out
}

func (s *HouseholdService) household(ctx context.Context, userID string, h *models.Household) (*connect.Response[api.HouseholdResponse], error) {
	m, err := s.store.GetMembership(ctx, h.ID, userID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.HouseholdResponse{Household: toAPIHousehold(h, m)}), nil
}

// Create creates a household owned by the caller.
func (s *HouseholdService) Create(ctx context.Context, req *connect.Request[api.CreateHouseholdRequest]) (*connect.Response[api.HouseholdResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	h, err := s.households.Create(ctx, userID, req.Msg.Name)
	if err != nil {
		s.logger.Warn("Create failed", "user_id", userID, "error", err)
		return nil, connectError(err)
	}
	s.notifier.Changed(ctx, h.ID, notify.ChangeHousehold, userID)
	return s.household(ctx, userID, h)
}

// List returns the caller's households, default first.
func (s *HouseholdService) List(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListHouseholdsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	households, err := s.households.ListForUser(ctx, userID)
	if err != nil {
		return nil, connectError(err)
	}
	memberships, err := s.store.ListMemberships(ctx, userID)
	if err != nil {
		return nil, connectError(err)
	}
	byHousehold := make(map[string]*models.Membership, len(memberships))
	for _, m := range memberships {
		byHousehold[m.HouseholdID] = m
	}

	out := make([]api.Household, 0, len(households))
	for _, h := range households {
		out = append(out, toAPIHousehold(h, byHousehold[h.ID]))
	}
	return connect.NewResponse(&api.ListHouseholdsResponse{Households: out}), nil
}

// Rename renames a household, honoring the edit restriction.
func (s *HouseholdService) Rename(ctx context.Context, req *connect.Request[api.RenameHouseholdRequest]) (*connect.Response[api.HouseholdResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	h, err := s.households.Rename(ctx, userID, req.Msg.HouseholdID, req.Msg.Name)
	if err != nil {
		return nil, connectError(err)
	}
	s.notifier.Changed(ctx, h.ID, notify.ChangeHousehold, userID)
	return s.household(ctx, userID, h)
}

// SetEditRestricted toggles the edit restriction. Owner only.
func (s *HouseholdService) SetEditRestricted(ctx context.Context, req *connect.Request[api.SetEditRestrictedRequest]) (*connect.Response[api.HouseholdResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	h, err := s.households.SetEditRestricted(ctx, userID, req.Msg.HouseholdID, req.Msg.Restricted)
	if err != nil {
		return nil, connectError(err)
	}
	s.notifier.Changed(ctx, h.ID, notify.ChangeHousehold, userID)
	return s.household(ctx, userID, h)
}

// Delete deletes a household after relocating the other members' entries.
func (s *HouseholdService) Delete(ctx context.Context, req *connect.Request[api.HouseholdRef]) (*connect.Response[api.DeleteHouseholdResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.households.Delete(ctx, userID, req.Msg.HouseholdID)
	if result != nil {
		// Relocations may have happened even when the deletion failed.
		for _, rel := range result.Relocations {
			s.entries.Invalidate(rel.HouseholdID)
			s.notifier.Changed(ctx, rel.HouseholdID, notify.ChangeEntries, userID)
		}
		s.entries.Invalidate(req.Msg.HouseholdID)
	}
	if err != nil {
		s.logger.Error("Delete failed", "group_id", req.Msg.HouseholdID, "error", err)
		return nil, connectError(err)
	}
	s.notifier.Changed(ctx, req.Msg.HouseholdID, notify.ChangeHousehold, userID)

	resp := &api.DeleteHouseholdResponse{Relocations: make([]api.Relocation, 0, len(result.Relocations))}
	for _, rel := range result.Relocations {
		resp.Relocations = append(resp.Relocations, api.Relocation{
			UserID:      rel.UserID,
			HouseholdID: rel.HouseholdID,
			Moved:       rel.Moved,
			Reused:      rel.Reused,
			Former:      rel.Former,
		})
	}
	return connect.NewResponse(resp), nil
}

// Leave removes the caller from a household.
func (s *HouseholdService) Leave(ctx context.Context, req *connect.Request[api.HouseholdRef]) (*connect.Response[api.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.households.Leave(ctx, userID, req.Msg.HouseholdID); err != nil {
		return nil, connectError(err)
	}
	s.entries.Invalidate(req.Msg.HouseholdID)
	s.notifier.Changed(ctx, req.Msg.HouseholdID, notify.ChangeMembership, userID)
	return connect.NewResponse(&api.Empty{}), nil
}

// SetDefault makes a household the caller's default.
func (s *HouseholdService) SetDefault(ctx context.Context, req *connect.Request[api.HouseholdRef]) (*connect.Response[api.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.households.SetDefault(ctx, userID, req.Msg.HouseholdID); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.Empty{}), nil
}

// RotateInvite replaces the invite token. Owner only.
func (s *HouseholdService) RotateInvite(ctx context.Context, req *connect.Request[api.HouseholdRef]) (*connect.Response[api.RotateInviteResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	h, err := s.households.RotateInvite(ctx, userID, req.Msg.HouseholdID)
	if err != nil {
		return nil, connectError(err)
	}
	resp := &api.RotateInviteResponse{Token: h.InviteToken}
	if s.publicURL != "" {
		resp.URL = invite.URL(s.publicURL, h.InviteToken)
	}
	return connect.NewResponse(resp), nil
}

// Members lists a household's members, owner first.
func (s *HouseholdService) Members(ctx context.Context, req *connect.Request[api.HouseholdRef]) (*connect.Response[api.MembersResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.households.Members(ctx, userID, req.Msg.HouseholdID)
	if err != nil {
		return nil, connectError(err)
	}
	out := make([]api.Member, 0, len(members))
	for _, m := range members {
		out = append(out, api.Member{UserID: m.UserID, DisplayName: m.DisplayName, Role: string(m.Role)})
	}
	return connect.NewResponse(&api.MembersResponse{Members: out}), nil
}

// LookupInvite resolves an invite token. It needs no session.
func (s *HouseholdService) LookupInvite(ctx context.Context, req *connect.Request[api.InviteRequest]) (*connect.Response[api.LookupInviteResponse], error) {
	group, err := s.store.LookupHouseholdByToken(ctx, req.Msg.Token)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.LookupInviteResponse{
		Group: api.GroupSummary{ID: group.ID, Name: group.Name},
	}), nil
}

// Join adds the caller to the household behind an invite token. Joining
// twice succeeds with Joined unset.
func (s *HouseholdService) Join(ctx context.Context, req *connect.Request[api.InviteRequest]) (*connect.Response[api.JoinResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	group, joined, err := s.households.Join(ctx, userID, req.Msg.Token)
	if err != nil {
		return nil, connectError(err)
	}
	if joined {
		s.entries.Invalidate(group.ID)
		s.notifier.Changed(ctx, group.ID, notify.ChangeMembership, userID)
	}
	return connect.NewResponse(&api.JoinResponse{
		Group:  api.GroupSummary{ID: group.ID, Name: group.Name},
		Joined: joined,
	}), nil
}
