package models

// Role is the role a user holds inside a household.
type Role string

const (
	// RoleOwner is held by the creator; owners delete rather than leave.
	RoleOwner Role = "owner"
	// RoleMember is held by everyone who joined through an invite.
	RoleMember Role = "member"
)

// Household is a named group sharing one ledger.
type Household struct {
	// ID is the unique identifier for the household (UUID format).
	ID string

	// Name is the display name (e.g., "Weekend crew").
	Name string

	// OwnerID is the user who created the household.
	OwnerID string

	// InviteToken is the opaque token embedded in invite links.
	// It stays stable until the owner rotates it.
	InviteToken string

	// EditRestricted bars non-owners from renaming the household.
	EditRestricted bool

	// RelocatedFrom is set on households created while their origin was
	// being deleted; it names the origin household.
	RelocatedFrom string

	// CreatedAt is the Unix timestamp when the household was created.
	CreatedAt int64
}

// IsOwner reports whether userID owns the household.
func (h *Household) IsOwner(userID string) bool {
	return h != nil && userID != "" && h.OwnerID == userID
}

// Summary returns the public view of the household exposed by invite lookups.
func (h *Household) Summary() GroupSummary {
	return GroupSummary{ID: h.ID, Name: h.Name}
}

// GroupSummary is what an invite token resolves to.
type GroupSummary struct {
	ID   string
	Name string
}

// Membership links a user to a household. There is at most one per pair.
type Membership struct {
	HouseholdID string
	UserID      string
	Role        Role

	// IsDefault marks the household opened first for this user.
	// Exactly one membership per user carries it.
	IsDefault bool

	// DisplayName is filled by listing queries for presentation.
	DisplayName string

	CreatedAt int64
}
