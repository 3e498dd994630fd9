package household

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/storage"
	"github.com/fjsui0423-max/pachi-money/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createUsers(t *testing.T, store *sqlite.SQLiteStore, names ...string) []*models.User {
	t.Helper()
	var users []*models.User
	for _, name := range names {
		u := models.NewUser(name+"@example.com", name, "hash")
		if err := store.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		users = append(users, u)
	}
	return users
}

func addEntries(t *testing.T, store *sqlite.SQLiteStore, householdID, userID string, n int) {
	t.Helper()
	drafts := make([]models.EntryDraft, n)
	for i := range drafts {
		drafts[i] = models.EntryDraft{HouseholdID: householdID, UserID: userID, Date: "2024-01-05", Stake: 1000}
	}
	if _, err := store.InsertEntries(context.Background(), drafts); err != nil {
		t.Fatalf("InsertEntries failed: %v", err)
	}
}

// failingStore fails DeleteHousehold a set number of times.
type failingStore struct {
	*sqlite.SQLiteStore
	deleteFailures int
}

func (s *failingStore) DeleteHousehold(ctx context.Context, householdID string) error {
	if s.deleteFailures > 0 {
		s.deleteFailures--
		return errors.New("store unavailable")
	}
	return s.SQLiteStore.DeleteHousehold(ctx, householdID)
}

func TestCreate(t *testing.T) {
	store := newTestStore(t)
	users := createUsers(t, store, "alice")
	m := NewManager(store, nil)
	ctx := context.Background()

	h, err := m.Create(ctx, users[0].ID, "  Weekend crew  ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if h.Name != "Weekend crew" || h.InviteToken == "" {
		t.Errorf("unexpected household: %+v", h)
	}

	members, err := m.Members(ctx, users[0].ID, h.ID)
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(members) != 1 || members[0].Role != models.RoleOwner {
		t.Errorf("expected one owner membership, got %+v", members)
	}

	if _, err := m.Create(ctx, users[0].ID, "   "); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestDeleteRelocatesMembers(t *testing.T) {
	store := newTestStore(t)
	users := createUsers(t, store, "alice", "bob")
	alice, bob := users[0], users[1]
	m := NewManager(store, nil)
	ctx := context.Background()

	h, err := m.Create(ctx, alice.ID, "Weekend crew")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.CreateMembership(ctx, h.ID, bob.ID, models.RoleMember); err != nil {
		t.Fatalf("CreateMembership failed: %v", err)
	}
	addEntries(t, store, h.ID, bob.ID, 3)
	addEntries(t, store, h.ID, alice.ID, 2)

	if _, err := m.Delete(ctx, bob.ID, h.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner delete: expected ErrNotOwner, got %v", err)
	}

	res, err := m.Delete(ctx, alice.ID, h.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(res.Relocations) != 1 || res.Relocations[0].Moved != 3 {
		t.Fatalf("unexpected relocations: %+v", res.Relocations)
	}

	if _, err := store.GetHousehold(ctx, h.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("original household should be gone, got %v", err)
	}

	households, err := m.ListForUser(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(households) != 1 {
		t.Fatalf("bob should own exactly one household, got %d", len(households))
	}
	replacement := households[0]
	if replacement.OwnerID != bob.ID || replacement.Name != "Weekend crew" {
		t.Errorf("unexpected replacement: %+v", replacement)
	}

	entries, err := store.FetchEntries(ctx, replacement.ID)
	if err != nil {
		t.Fatalf("FetchEntries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("replacement holds %d entries, want 3", len(entries))
	}
	for _, e := range entries {
		if e.UserID != bob.ID {
			t.Errorf("entry %s authored by %s, want bob", e.ID, e.UserID)
		}
	}

	membership, err := store.GetMembership(ctx, replacement.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetMembership failed: %v", err)
	}
	if membership.Role != models.RoleOwner || !membership.IsDefault {
		t.Errorf("unexpected membership: %+v", membership)
	}
}

func TestDeleteRelocatesFormerMembers(t *testing.T) {
	store := newTestStore(t)
	users := createUsers(t, store, "alice", "bob")
	alice, bob := users[0], users[1]
	m := NewManager(store, nil)
	ctx := context.Background()

	h, err := m.Create(ctx, alice.ID, "Weekend crew")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.CreateMembership(ctx, h.ID, bob.ID, models.RoleMember); err != nil {
		t.Fatalf("CreateMembership failed: %v", err)
	}
	addEntries(t, store, h.ID, bob.ID, 2)
	if err := m.Leave(ctx, bob.ID, h.ID); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	res, err := m.Delete(ctx, alice.ID, h.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(res.Relocations) != 1 {
		t.Fatalf("unexpected relocations: %+v", res.Relocations)
	}
	rel := res.Relocations[0]
	if rel.UserID != bob.ID || rel.Moved != 2 || !rel.Former {
		t.Errorf("unexpected relocation: %+v", rel)
	}

	entries, err := store.FetchEntries(ctx, rel.HouseholdID)
	if err != nil {
		t.Fatalf("FetchEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("replacement holds %d entries, want 2", len(entries))
	}
	membership, err := store.GetMembership(ctx, rel.HouseholdID, bob.ID)
	if err != nil {
		t.Fatalf("GetMembership failed: %v", err)
	}
	if membership.Role != models.RoleOwner || !membership.IsDefault {
		t.Errorf("unexpected membership: %+v", membership)
	}
}

func TestDeleteRetryIsIdempotent(t *testing.T) {
	base := newTestStore(t)
	store := &failingStore{SQLiteStore: base, deleteFailures: 1}
	users := createUsers(t, base, "alice", "bob", "carol")
	alice, bob, carol := users[0], users[1], users[2]
	m := NewManager(store, nil)
	ctx := context.Background()

	h, _ := m.Create(ctx, alice.ID, "Crew")
	for _, u := range []*models.User{bob, carol} {
		if err := base.CreateMembership(ctx, h.ID, u.ID, models.RoleMember); err != nil {
			t.Fatalf("CreateMembership failed: %v", err)
		}
	}
	addEntries(t, base, h.ID, bob.ID, 3)
	addEntries(t, base, h.ID, carol.ID, 1)

	if _, err := m.Delete(ctx, alice.ID, h.ID); err == nil {
		t.Fatal("expected the first delete to fail")
	}

	res, err := m.Delete(ctx, alice.ID, h.ID)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	for _, rel := range res.Relocations {
		if !rel.Reused || rel.Moved != 0 {
			t.Errorf("retry should reuse replacements without moving entries: %+v", rel)
		}
	}

	for user, want := range map[*models.User]int{bob: 3, carol: 1} {
		households, err := m.ListForUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("ListForUser failed: %v", err)
		}
		if len(households) != 1 {
			t.Fatalf("%s has %d households, want 1", user.DisplayName, len(households))
		}
		entries, _ := base.FetchEntries(ctx, households[0].ID)
		if len(entries) != want {
			t.Errorf("%s has %d entries, want %d", user.DisplayName, len(entries), want)
		}
	}
}

func TestLeave(t *testing.T) {
	store := newTestStore(t)
	users := createUsers(t, store, "alice", "bob")
	alice, bob := users[0], users[1]
	m := NewManager(store, nil)
	ctx := context.Background()

	first, _ := m.Create(ctx, bob.ID, "Bob's own")
	h, _ := m.Create(ctx, alice.ID, "Crew")
	store.CreateMembership(ctx, h.ID, bob.ID, models.RoleMember)
	if err := m.SetDefault(ctx, bob.ID, h.ID); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}

	if err := m.Leave(ctx, alice.ID, h.ID); !errors.Is(err, ErrOwnerCannotLeave) {
		t.Errorf("owner leave: expected ErrOwnerCannotLeave, got %v", err)
	}
	if err := m.Leave(ctx, bob.ID, h.ID); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if err := m.Leave(ctx, bob.ID, h.ID); !errors.Is(err, ErrNotMember) {
		t.Errorf("second leave: expected ErrNotMember, got %v", err)
	}

	ms, err := store.GetMembership(ctx, first.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetMembership failed: %v", err)
	}
	if !ms.IsDefault {
		t.Error("leaving the default household should promote another one")
	}
}

func TestRenameAndRestriction(t *testing.T) {
	store := newTestStore(t)
	users := createUsers(t, store, "alice", "bob", "mallory")
	alice, bob, mallory := users[0], users[1], users[2]
	m := NewManager(store, nil)
	ctx := context.Background()

	h, _ := m.Create(ctx, alice.ID, "Crew")
	store.CreateMembership(ctx, h.ID, bob.ID, models.RoleMember)

	if _, err := m.Rename(ctx, bob.ID, h.ID, "Bob's crew"); err != nil {
		t.Fatalf("member rename failed: %v", err)
	}
	if _, err := m.Rename(ctx, mallory.ID, h.ID, "Pwned"); !errors.Is(err, ErrNotMember) {
		t.Errorf("outsider rename: expected ErrNotMember, got %v", err)
	}
	if _, err := m.SetEditRestricted(ctx, bob.ID, h.ID, true); !errors.Is(err, ErrNotOwner) {
		t.Errorf("member restrict: expected ErrNotOwner, got %v", err)
	}
	if _, err := m.SetEditRestricted(ctx, alice.ID, h.ID, true); err != nil {
		t.Fatalf("SetEditRestricted failed: %v", err)
	}
	if _, err := m.Rename(ctx, bob.ID, h.ID, "Again"); !errors.Is(err, ErrEditRestricted) {
		t.Errorf("restricted rename: expected ErrEditRestricted, got %v", err)
	}
	renamed, err := m.Rename(ctx, alice.ID, h.ID, "Owners only")
	if err != nil {
		t.Fatalf("owner rename failed: %v", err)
	}
	if renamed.Name != "Owners only" || !renamed.EditRestricted {
		t.Errorf("unexpected household: %+v", renamed)
	}
}

func TestRotateInvite(t *testing.T) {
	store := newTestStore(t)
	users := createUsers(t, store, "alice")
	m := NewManager(store, nil)
	ctx := context.Background()

	h, _ := m.Create(ctx, users[0].ID, "Crew")
	old := h.InviteToken

	rotated, err := m.RotateInvite(ctx, users[0].ID, h.ID)
	if err != nil {
		t.Fatalf("RotateInvite failed: %v", err)
	}
	if rotated.InviteToken == old {
		t.Error("token did not change")
	}
	if _, err := store.LookupHouseholdByToken(ctx, old); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("old token should stop resolving, got %v", err)
	}
	if s, err := store.LookupHouseholdByToken(ctx, rotated.InviteToken); err != nil || s.ID != h.ID {
		t.Errorf("new token lookup = %+v, %v", s, err)
	}
}

func TestValidateName(t *testing.T) {
	long := ""
	for i := 0; i < MaxNameLength+1; i++ {
		long += "あ"
	}
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Crew", "Crew", false},
		{" 家族 ", "家族", false},
		{"", "", true},
		{long, "", true},
	}
	for _, tt := range tests {
		got, err := ValidateName(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ValidateName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoin(t *testing.T) {
	store := newTestStore(t)
	users := createUsers(t, store, "owner", "guest")
	ctx := context.Background()
	mgr := NewManager(store, nil)

	h, err := mgr.Create(ctx, users[0].ID, "Weekend crew")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	group, joined, err := mgr.Join(ctx, users[1].ID, " "+h.InviteToken+" ")
	if err != nil || !joined || group.ID != h.ID {
		t.Fatalf("Join = %v, %v, %v", group, joined, err)
	}

	group, joined, err = mgr.Join(ctx, users[1].ID, h.InviteToken)
	if err != nil || joined || group.ID != h.ID {
		t.Errorf("second Join = %v, %v, %v; want existing membership", group, joined, err)
	}

	members, err := store.ListMembers(ctx, h.ID)
	if err != nil || len(members) != 2 {
		t.Errorf("expected 2 members, got %d (%v)", len(members), err)
	}

	if _, _, err := mgr.Join(ctx, users[1].ID, "no-such-token"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
