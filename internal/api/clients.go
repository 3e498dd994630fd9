package api

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{WithCodec()}, opts...)
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], msg *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// AuthClient calls AuthService.
type AuthClient struct {
	register *connect.Client[RegisterRequest, Session]
	login    *connect.Client[LoginRequest, Session]
	me       *connect.Client[Empty, MeResponse]
}

// NewAuthClient creates a client for the server at baseURL.
func NewAuthClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthClient {
	baseURL = strings.TrimRight(baseURL, "/")
	o := clientOptions(opts)
	return &AuthClient{
		register: connect.NewClient[RegisterRequest, Session](httpClient, baseURL+AuthRegisterProcedure, o...),
		login:    connect.NewClient[LoginRequest, Session](httpClient, baseURL+AuthLoginProcedure, o...),
		me:       connect.NewClient[Empty, MeResponse](httpClient, baseURL+AuthMeProcedure, o...),
	}
}

func (c *AuthClient) Register(ctx context.Context, req *RegisterRequest) (*Session, error) {
	return call(ctx, c.register, req)
}

func (c *AuthClient) Login(ctx context.Context, req *LoginRequest) (*Session, error) {
	return call(ctx, c.login, req)
}

func (c *AuthClient) Me(ctx context.Context) (*MeResponse, error) {
	return call(ctx, c.me, &Empty{})
}

// HouseholdClient calls HouseholdService.
type HouseholdClient struct {
	create            *connect.Client[CreateHouseholdRequest, HouseholdResponse]
	list              *connect.Client[Empty, ListHouseholdsResponse]
	rename            *connect.Client[RenameHouseholdRequest, HouseholdResponse]
	setEditRestricted *connect.Client[SetEditRestrictedRequest, HouseholdResponse]
	delete            *connect.Client[HouseholdRef, DeleteHouseholdResponse]
	leave             *connect.Client[HouseholdRef, Empty]
	setDefault        *connect.Client[HouseholdRef, Empty]
	rotateInvite      *connect.Client[HouseholdRef, RotateInviteResponse]
	members           *connect.Client[HouseholdRef, MembersResponse]
	lookupInvite      *connect.Client[InviteRequest, LookupInviteResponse]
	join              *connect.Client[InviteRequest, JoinResponse]
}

// NewHouseholdClient creates a client for the server at baseURL.
func NewHouseholdClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *HouseholdClient {
	baseURL = strings.TrimRight(baseURL, "/")
	o := clientOptions(opts)
	return &HouseholdClient{
		create:            connect.NewClient[CreateHouseholdRequest, HouseholdResponse](httpClient, baseURL+HouseholdCreateProcedure, o...),
		list:              connect.NewClient[Empty, ListHouseholdsResponse](httpClient, baseURL+HouseholdListProcedure, o...),
		rename:            connect.NewClient[RenameHouseholdRequest, HouseholdResponse](httpClient, baseURL+HouseholdRenameProcedure, o...),
		setEditRestricted: connect.NewClient[SetEditRestrictedRequest, HouseholdResponse](httpClient, baseURL+HouseholdSetEditRestrictedProcedure, o...),
		delete:            connect.NewClient[HouseholdRef, DeleteHouseholdResponse](httpClient, baseURL+HouseholdDeleteProcedure, o...),
		leave:             connect.NewClient[HouseholdRef, Empty](httpClient, baseURL+HouseholdLeaveProcedure, o...),
		setDefault:        connect.NewClient[HouseholdRef, Empty](httpClient, baseURL+HouseholdSetDefaultProcedure, o...),
		rotateInvite:      connect.NewClient[HouseholdRef, RotateInviteResponse](httpClient, baseURL+HouseholdRotateInviteProcedure, o...),
		members:           connect.NewClient[HouseholdRef, MembersResponse](httpClient, baseURL+HouseholdMembersProcedure, o...),
		lookupInvite:      connect.NewClient[InviteRequest, LookupInviteResponse](httpClient, baseURL+HouseholdLookupInviteProcedure, o...),
		join:              connect.NewClient[InviteRequest, JoinResponse](httpClient, baseURL+HouseholdJoinProcedure, o...),
	}
}

func (c *HouseholdClient) Create(ctx context.Context, name string) (*Household, error) {
	resp, err := call(ctx, c.create, &CreateHouseholdRequest{Name: name})
	if err != nil {
		return nil, err
	}
	return &resp.Household, nil
}

func (c *HouseholdClient) List(ctx context.Context) ([]Household, error) {
	resp, err := call(ctx, c.list, &Empty{})
	if err != nil {
		return nil, err
	}
	return resp.Households, nil
}

func (c *HouseholdClient) Rename(ctx context.Context, householdID, name string) (*Household, error) {
	resp, err := call(ctx, c.rename, &RenameHouseholdRequest{HouseholdID: householdID, Name: name})
	if err != nil {
		return nil, err
	}
	return &resp.Household, nil
}

func (c *HouseholdClient) SetEditRestricted(ctx context.Context, householdID string, restricted bool) (*Household, error) {
	resp, err := call(ctx, c.setEditRestricted, &SetEditRestrictedRequest{HouseholdID: householdID, Restricted: restricted})
	if err != nil {
		return nil, err
	}
	return &resp.Household, nil
}

func (c *HouseholdClient) Delete(ctx context.Context, householdID string) (*DeleteHouseholdResponse, error) {
	return call(ctx, c.delete, &HouseholdRef{HouseholdID: householdID})
}

func (c *HouseholdClient) Leave(ctx context.Context, householdID string) error {
	_, err := call(ctx, c.leave, &HouseholdRef{HouseholdID: householdID})
	return err
}

func (c *HouseholdClient) SetDefault(ctx context.Context, householdID string) error {
	_, err := call(ctx, c.setDefault, &HouseholdRef{HouseholdID: householdID})
	return err
}

func (c *HouseholdClient) RotateInvite(ctx context.Context, householdID string) (*RotateInviteResponse, error) {
	return call(ctx, c.rotateInvite, &HouseholdRef{HouseholdID: householdID})
}

func (c *HouseholdClient) Members(ctx context.Context, householdID string) ([]Member, error) {
	resp, err := call(ctx, c.members, &HouseholdRef{HouseholdID: householdID})
	if err != nil {
		return nil, err
	}
	return resp.Members, nil
}

func (c *HouseholdClient) LookupInvite(ctx context.Context, token string) (*GroupSummary, error) {
	resp, err := call(ctx, c.lookupInvite, &InviteRequest{Token: token})
	if err != nil {
		return nil, err
	}
	return &resp.Group, nil
}

func (c *HouseholdClient) Join(ctx context.Context, token string) (*JoinResponse, error) {
	return call(ctx, c.join, &InviteRequest{Token: token})
}

// EntryClient calls EntryService.
type EntryClient struct {
	list     *connect.Client[ListEntriesRequest, ListEntriesResponse]
	create   *connect.Client[CreateEntryRequest, EntryResponse]
	update   *connect.Client[UpdateEntryRequest, EntryResponse]
	delete   *connect.Client[EntryRef, Empty]
	importer *connect.Client[ImportRequest, ImportResponse]
	copy     *connect.Client[CopyRequest, CopyResponse]
	labels   *connect.Client[LabelsRequest, LabelsResponse]
	addLabel *connect.Client[AddLabelRequest, Empty]
}

// NewEntryClient creates a client for the server at baseURL.
func NewEntryClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *EntryClient {
	baseURL = strings.TrimRight(baseURL, "/")
	o := clientOptions(opts)
	return &EntryClient{
		list:     connect.NewClient[ListEntriesRequest, ListEntriesResponse](httpClient, baseURL+EntryListProcedure, o...),
		create:   connect.NewClient[CreateEntryRequest, EntryResponse](httpClient, baseURL+EntryCreateProcedure, o...),
		update:   connect.NewClient[UpdateEntryRequest, EntryResponse](httpClient, baseURL+EntryUpdateProcedure, o...),
		delete:   connect.NewClient[EntryRef, Empty](httpClient, baseURL+EntryDeleteProcedure, o...),
		importer: connect.NewClient[ImportRequest, ImportResponse](httpClient, baseURL+EntryImportProcedure, o...),
		copy:     connect.NewClient[CopyRequest, CopyResponse](httpClient, baseURL+EntryCopyProcedure, o...),
		labels:   connect.NewClient[LabelsRequest, LabelsResponse](httpClient, baseURL+EntryLabelsProcedure, o...),
		addLabel: connect.NewClient[AddLabelRequest, Empty](httpClient, baseURL+EntryAddLabelProcedure, o...),
	}
}

func (c *EntryClient) List(ctx context.Context, req *ListEntriesRequest) (*ListEntriesResponse, error) {
	return call(ctx, c.list, req)
}

func (c *EntryClient) Create(ctx context.Context, householdID string, in EntryInput) (*Entry, error) {
	resp, err := call(ctx, c.create, &CreateEntryRequest{HouseholdID: householdID, Entry: in})
	if err != nil {
		return nil, err
	}
	return &resp.Entry, nil
}

func (c *EntryClient) Update(ctx context.Context, entryID string, in EntryInput) (*Entry, error) {
	resp, err := call(ctx, c.update, &UpdateEntryRequest{EntryID: entryID, Entry: in})
	if err != nil {
		return nil, err
	}
	return &resp.Entry, nil
}

func (c *EntryClient) Delete(ctx context.Context, entryID string) error {
	_, err := call(ctx, c.delete, &EntryRef{EntryID: entryID})
	return err
}

func (c *EntryClient) Import(ctx context.Context, req *ImportRequest) (*ImportResponse, error) {
	return call(ctx, c.importer, req)
}

func (c *EntryClient) Copy(ctx context.Context, req *CopyRequest) (*CopyResponse, error) {
	return call(ctx, c.copy, req)
}

func (c *EntryClient) Labels(ctx context.Context, householdID, kind string) (*LabelsResponse, error) {
	return call(ctx, c.labels, &LabelsRequest{HouseholdID: householdID, Kind: kind})
}

func (c *EntryClient) AddLabel(ctx context.Context, householdID, kind, name string) error {
	_, err := call(ctx, c.addLabel, &AddLabelRequest{HouseholdID: householdID, Kind: kind, Name: name})
	return err
}
