// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/fjsui0423-max/pachi-money/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken,
	// e.g. a second membership for the same (household, user) pair.
	ErrDuplicate = errors.New("already exists")
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// HouseholdStore persists households.
type HouseholdStore interface {
	// CreateHousehold stores the household together with the owner
	// membership in one transaction. ID, InviteToken and CreatedAt are
	// generated when empty.
	CreateHousehold(ctx context.Context, household *models.Household) error

	GetHousehold(ctx context.Context, householdID string) (*models.Household, error)

	// LookupHouseholdByToken resolves an invite token.
	// Returns ErrNotFound for unknown tokens.
	LookupHouseholdByToken(ctx context.Context, token string) (*models.GroupSummary, error)

	// UpdateHousehold rewrites name, edit restriction and invite token.
	UpdateHousehold(ctx context.Context, household *models.Household) error

	// DeleteHousehold removes the household; memberships, entries and
	// labels cascade.
	DeleteHousehold(ctx context.Context, householdID string) error

	ListHouseholdsForUser(ctx context.Context, userID string) ([]*models.Household, error)

	// FindRelocation returns the household created for ownerID while
	// originID was being deleted, or ErrNotFound.
	FindRelocation(ctx context.Context, originID, ownerID string) (*models.Household, error)
}

// MembershipStore persists (household, user) pairs.
type MembershipStore interface {
	// CreateMembership returns ErrDuplicate when the pair already exists.
	CreateMembership(ctx context.Context, householdID, userID string, role models.Role) error
	DeleteMembership(ctx context.Context, householdID, userID string) error
	GetMembership(ctx context.Context, householdID, userID string) (*models.Membership, error)
	ListMembers(ctx context.Context, householdID string) ([]*models.Membership, error)
	ListMemberships(ctx context.Context, userID string) ([]*models.Membership, error)

	// SetDefaultHousehold moves the user's default flag to householdID.
	SetDefaultHousehold(ctx context.Context, userID, householdID string) error
}

// EntryStore persists ledger entries.
type EntryStore interface {
	// FetchEntries returns the full snapshot of a household's entries.
	FetchEntries(ctx context.Context, householdID string) ([]models.Entry, error)
	GetEntry(ctx context.Context, entryID string) (*models.Entry, error)

	// InsertEntries stores all drafts in one transaction, minting new IDs.
	InsertEntries(ctx context.Context, drafts []models.EntryDraft) ([]models.Entry, error)

	// UpdateEntry rewrites every mutable field of the entry.
	UpdateEntry(ctx context.Context, entry *models.Entry) error
	DeleteEntry(ctx context.Context, entryID string) error

	// ReassignEntries moves the entries authored by authorID from one
	// household to another and reports how many moved.
	ReassignEntries(ctx context.Context, fromHouseholdID, authorID, toHouseholdID string) (int64, error)

	// EntryAuthors lists the distinct authors of a household's entries,
	// former members included, ordered by user ID.
	EntryAuthors(ctx context.Context, householdID string) ([]string, error)

	// RecentLabels returns distinct non-empty labels of the most recent
	// entries (by date, newest first), looking at no more than limit entries.
	RecentLabels(ctx context.Context, householdID string, kind models.LabelKind, limit int) ([]string, error)
}

// LabelStore persists the label registry.
type LabelStore interface {
	// AddLabel is idempotent per (household, kind, name).
	AddLabel(ctx context.Context, householdID string, kind models.LabelKind, name string) error
	ListLabels(ctx context.Context, householdID string, kind models.LabelKind) ([]models.Label, error)
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	HouseholdStore
	MembershipStore
	EntryStore
	LabelStore

	// Close releases any resources held by the store.
	Close() error
}
