// Package api defines the RPC surface shared by the server and the CLI:
// procedure names, request and response messages, the JSON codec and
// typed clients.
package api

import "github.com/fjsui0423-max/pachi-money/internal/transfer"

const (
	AuthServiceName      = "pachi.v1.AuthService"
	HouseholdServiceName = "pachi.v1.HouseholdService"
	EntryServiceName     = "pachi.v1.EntryService"
)

const (
	AuthRegisterProcedure = "/pachi.v1.AuthService/Register"
	AuthLoginProcedure    = "/pachi.v1.AuthService/Login"
	AuthMeProcedure       = "/pachi.v1.AuthService/Me"

	HouseholdCreateProcedure            = "/pachi.v1.HouseholdService/Create"
	HouseholdListProcedure              = "/pachi.v1.HouseholdService/List"
	HouseholdRenameProcedure            = "/pachi.v1.HouseholdService/Rename"
	HouseholdSetEditRestrictedProcedure = "/pachi.v1.HouseholdService/SetEditRestricted"
	HouseholdDeleteProcedure            = "/pachi.v1.HouseholdService/Delete"
	HouseholdLeaveProcedure             = "/pachi.v1.HouseholdService/Leave"
	HouseholdSetDefaultProcedure        = "/pachi.v1.HouseholdService/SetDefault"
	HouseholdRotateInviteProcedure      = "/pachi.v1.HouseholdService/RotateInvite"
	HouseholdMembersProcedure           = "/pachi.v1.HouseholdService/Members"
	HouseholdLookupInviteProcedure      = "/pachi.v1.HouseholdService/LookupInvite"
	HouseholdJoinProcedure              = "/pachi.v1.HouseholdService/Join"

	EntryListProcedure     = "/pachi.v1.EntryService/List"
	EntryCreateProcedure   = "/pachi.v1.EntryService/Create"
	EntryUpdateProcedure   = "/pachi.v1.EntryService/Update"
	EntryDeleteProcedure   = "/pachi.v1.EntryService/Delete"
	EntryImportProcedure   = "/pachi.v1.EntryService/Import"
	EntryCopyProcedure     = "/pachi.v1.EntryService/Copy"
	EntryLabelsProcedure   = "/pachi.v1.EntryService/Labels"
	EntryAddLabelProcedure = "/pachi.v1.EntryService/AddLabel"
)

// PublicProcedures can be called without a session.
var PublicProcedures = []string{
	AuthRegisterProcedure,
	AuthLoginProcedure,
	HouseholdLookupInviteProcedure,
}

// Empty is the message of calls with nothing to say.
type Empty struct{}

// User is an account as seen by clients. The password hash never leaves
// the server.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned by Register and Login.
type Session struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type MeResponse struct {
	User User `json:"user"`
}

// Household is a household together with the caller's membership in it.
type Household struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OwnerID        string `json:"owner_id"`
	InviteToken    string `json:"invite_token,omitempty"`
	EditRestricted bool   `json:"edit_restricted"`
	RelocatedFrom  string `json:"relocated_from,omitempty"`
	Role           string `json:"role,omitempty"`
	IsDefault      bool   `json:"is_default"`
	CreatedAt      int64  `json:"created_at"`
}

// GroupSummary is the public face of a household behind an invite token.
type GroupSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type HouseholdRef struct {
	HouseholdID string `json:"household_id"`
}

type CreateHouseholdRequest struct {
	Name string `json:"name"`
}

type HouseholdResponse struct {
	Household Household `json:"household"`
}

type ListHouseholdsResponse struct {
	Households []Household `json:"households"`
}

type RenameHouseholdRequest struct {
	HouseholdID string `json:"household_id"`
	Name        string `json:"name"`
}

type SetEditRestrictedRequest struct {
	HouseholdID string `json:"household_id"`
	Restricted  bool   `json:"restricted"`
}

// Relocation tells where a member's history went on deletion.
type Relocation struct {
	UserID      string `json:"user_id"`
	HouseholdID string `json:"household_id"`
	Moved       int64  `json:"moved"`
	Reused      bool   `json:"reused"`
	// Former is set for authors who had left before the deletion.
	Former      bool   `json:"former,omitempty"`
}

type DeleteHouseholdResponse struct {
	Relocations []Relocation `json:"relocations"`
}

type RotateInviteResponse struct {
	Token string `json:"token"`
	URL   string `json:"url,omitempty"`
}

type Member struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type MembersResponse struct {
	Members []Member `json:"members"`
}

type InviteRequest struct {
	Token string `json:"token"`
}

type LookupInviteResponse struct {
	Group GroupSummary `json:"group"`
}

type JoinResponse struct {
	Group  GroupSummary `json:"group"`
	Joined bool         `json:"joined"`
}

// Entry is a stored ledger entry. Balance and Outcome are derived.
type Entry struct {
	ID          string `json:"id"`
	HouseholdID string `json:"household_id"`
	UserID      string `json:"user_id"`
	Date        string `json:"date"`
	Venue       string `json:"venue,omitempty"`
	Instrument  string `json:"instrument,omitempty"`
	Stake       int64  `json:"stake"`
	Payout      int64  `json:"payout"`
	Balance     int64  `json:"balance"`
	Outcome     string `json:"outcome"`
	Note        string `json:"note,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// EntryInput carries the editable fields of an entry.
type EntryInput struct {
	Date       string `json:"date"`
	Venue      string `json:"venue,omitempty"`
	Instrument string `json:"instrument,omitempty"`
	Stake      int64  `json:"stake"`
	Payout     int64  `json:"payout"`
	Note       string `json:"note,omitempty"`
}

// Category restricts a listing to one label value.
type Category struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// ListEntriesRequest selects entries. AllMembers wins over Members; an
// empty Members list with AllMembers unset selects nothing.
type ListEntriesRequest struct {
	HouseholdID string    `json:"household_id"`
	Window      string    `json:"window,omitempty"`
	AllMembers  bool      `json:"all_members,omitempty"`
	Members     []string  `json:"members,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Sort        string    `json:"sort,omitempty"`
}

type ListEntriesResponse struct {
	Entries []Entry `json:"entries"`
	// Total is the exact decimal sum of the listed balances.
	Total string `json:"total"`
}

type CreateEntryRequest struct {
	HouseholdID string     `json:"household_id"`
	Entry       EntryInput `json:"entry"`
}

type UpdateEntryRequest struct {
	EntryID string     `json:"entry_id"`
	Entry   EntryInput `json:"entry"`
}

type EntryRef struct {
	EntryID string `json:"entry_id"`
}

type EntryResponse struct {
	Entry Entry `json:"entry"`
}

type ImportRequest struct {
	HouseholdID      string         `json:"household_id"`
	Rows             []transfer.Row `json:"rows"`
	RejectMismatches bool           `json:"reject_mismatches,omitempty"`
	// InvalidLines are source lines the client could not read; they are
	// reported back as skipped.
	InvalidLines     []int          `json:"invalid_lines,omitempty"`
}

type ImportResponse struct {
	Inserted   int `json:"inserted"`
	Skipped    int `json:"skipped"`
	Mismatches int `json:"mismatches"`
}

type CopyRequest struct {
	FromHouseholdID string `json:"from_household_id"`
	ToHouseholdID   string `json:"to_household_id"`
	Window          string `json:"window,omitempty"`
}

type CopyResponse struct {
	Copied int    `json:"copied"`
	Window string `json:"window"`
}

type LabelsRequest struct {
	HouseholdID string `json:"household_id"`
	Kind        string `json:"kind"`
}

type LabelsResponse struct {
	Registry    []string `json:"registry"`
	Suggestions []string `json:"suggestions"`
}

type AddLabelRequest struct {
	HouseholdID string `json:"household_id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
}
