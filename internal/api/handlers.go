package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// AuthServiceHandler serves account calls.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[Session], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[Session], error)
	Me(context.Context, *connect.Request[Empty]) (*connect.Response[MeResponse], error)
}

// HouseholdServiceHandler serves household lifecycle and invite calls.
type HouseholdServiceHandler interface {
	Create(context.Context, *connect.Request[CreateHouseholdRequest]) (*connect.Response[HouseholdResponse], error)
	List(context.Context, *connect.Request[Empty]) (*connect.Response[ListHouseholdsResponse], error)
	Rename(context.Context, *connect.Request[RenameHouseholdRequest]) (*connect.Response[HouseholdResponse], error)
	SetEditRestricted(context.Context, *connect.Request[SetEditRestrictedRequest]) (*connect.Response[HouseholdResponse], error)
	Delete(context.Context, *connect.Request[HouseholdRef]) (*connect.Response[DeleteHouseholdResponse], error)
	Leave(context.Context, *connect.Request[HouseholdRef]) (*connect.Response[Empty], error)
	SetDefault(context.Context, *connect.Request[HouseholdRef]) (*connect.Response[Empty], error)
	RotateInvite(context.Context, *connect.Request[HouseholdRef]) (*connect.Response[RotateInviteResponse], error)
	Members(context.Context, *connect.Request[HouseholdRef]) (*connect.Response[MembersResponse], error)
	LookupInvite(context.Context, *connect.Request[InviteRequest]) (*connect.Response[LookupInviteResponse], error)
	Join(context.Context, *connect.Request[InviteRequest]) (*connect.Response[JoinResponse], error)
}

// EntryServiceHandler serves ledger calls.
type EntryServiceHandler interface {
	List(context.Context, *connect.Request[ListEntriesRequest]) (*connect.Response[ListEntriesResponse], error)
	Create(context.Context, *connect.Request[CreateEntryRequest]) (*connect.Response[EntryResponse], error)
	Update(context.Context, *connect.Request[UpdateEntryRequest]) (*connect.Response[EntryResponse], error)
	Delete(context.Context, *connect.Request[EntryRef]) (*connect.Response[Empty], error)
	Import(context.Context, *connect.Request[ImportRequest]) (*connect.Response[ImportResponse], error)
	Copy(context.Context, *connect.Request[CopyRequest]) (*connect.Response[CopyResponse], error)
	Labels(context.Context, *connect.Request[LabelsRequest]) (*connect.Response[LabelsResponse], error)
	AddLabel(context.Context, *connect.Request[AddLabelRequest]) (*connect.Response[Empty], error)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{WithCodec()}, opts...)
}

func serviceMux(name string, handlers map[string]http.Handler) (string, http.Handler) {
	mux := http.NewServeMux()
	for procedure, h := range handlers {
		mux.Handle(procedure, h)
	}
	return "/" + name + "/", mux
}

// NewAuthServiceHandler builds the HTTP handler for svc and the path
// prefix to mount it on.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	return serviceMux(AuthServiceName, map[string]http.Handler{
		AuthRegisterProcedure: connect.NewUnaryHandler(AuthRegisterProcedure, svc.Register, o...),
		AuthLoginProcedure:    connect.NewUnaryHandler(AuthLoginProcedure, svc.Login, o...),
		AuthMeProcedure:       connect.NewUnaryHandler(AuthMeProcedure, svc.Me, o...),
	})
}

// NewHouseholdServiceHandler builds the HTTP handler for svc.
func NewHouseholdServiceHandler(svc HouseholdServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	return serviceMux(HouseholdServiceName, map[string]http.Handler{
		HouseholdCreateProcedure:            connect.NewUnaryHandler(HouseholdCreateProcedure, svc.Create, o...),
		HouseholdListProcedure:              connect.NewUnaryHandler(HouseholdListProcedure, svc.List, o...),
		HouseholdRenameProcedure:            connect.NewUnaryHandler(HouseholdRenameProcedure, svc.Rename, o...),
		HouseholdSetEditRestrictedProcedure: connect.NewUnaryHandler(HouseholdSetEditRestrictedProcedure, svc.SetEditRestricted, o...),
		HouseholdDeleteProcedure:            connect.NewUnaryHandler(HouseholdDeleteProcedure, svc.Delete, o...),
		HouseholdLeaveProcedure:             connect.NewUnaryHandler(HouseholdLeaveProcedure, svc.Leave, o...),
		HouseholdSetDefaultProcedure:        connect.NewUnaryHandler(HouseholdSetDefaultProcedure, svc.SetDefault, o...),
		HouseholdRotateInviteProcedure:      connect.NewUnaryHandler(HouseholdRotateInviteProcedure, svc.RotateInvite, o...),
		HouseholdMembersProcedure:           connect.NewUnaryHandler(HouseholdMembersProcedure, svc.Members, o...),
		HouseholdLookupInviteProcedure:      connect.NewUnaryHandler(HouseholdLookupInviteProcedure, svc.LookupInvite, o...),
		HouseholdJoinProcedure:              connect.NewUnaryHandler(HouseholdJoinProcedure, svc.Join, o...),
	})
}

// NewEntryServiceHandler builds the HTTP handler for svc.
func NewEntryServiceHandler(svc EntryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	return serviceMux(EntryServiceName, map[string]http.Handler{
		EntryListProcedure:     connect.NewUnaryHandler(EntryListProcedure, svc.List, o...),
		EntryCreateProcedure:   connect.NewUnaryHandler(EntryCreateProcedure, svc.Create, o...),
		EntryUpdateProcedure:   connect.NewUnaryHandler(EntryUpdateProcedure, svc.Update, o...),
		EntryDeleteProcedure:   connect.NewUnaryHandler(EntryDeleteProcedure, svc.Delete, o...),
		EntryImportProcedure:   connect.NewUnaryHandler(EntryImportProcedure, svc.Import, o...),
		EntryCopyProcedure:     connect.NewUnaryHandler(EntryCopyProcedure, svc.Copy, o...),
		EntryLabelsProcedure:   connect.NewUnaryHandler(EntryLabelsProcedure, svc.Labels, o...),
		EntryAddLabelProcedure: connect.NewUnaryHandler(EntryAddLabelProcedure, svc.AddLabel, o...),
	})
}
