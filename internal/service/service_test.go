package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/fjsui0423-max/pachi-money/internal/api"
	"github.com/fjsui0423-max/pachi-money/internal/auth"
	"github.com/fjsui0423-max/pachi-money/internal/cache"
	"github.com/fjsui0423-max/pachi-money/internal/household"
	"github.com/fjsui0423-max/pachi-money/internal/middleware"
	"github.com/fjsui0423-max/pachi-money/internal/notify"
	"github.com/fjsui0423-max/pachi-money/internal/storage/sqlite"
	"github.com/fjsui0423-max/pachi-money/internal/transfer"
)

type testServer struct {
	url      string
	store    *sqlite.SQLiteStore
	entries  *cache.EntryCache
	notifier *notify.Notifier
}

// setupTestServer wires every service the way the server binary does,
// minus metrics and AMQP.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret-key-for-services", time.Hour)
	entries := cache.NewEntryCache(store.FetchEntries, 16, time.Minute, nil)
	notifier := notify.NewNotifier(nil)
	notifier.OnChange(func(ctx context.Context, msg *notify.LedgerChanged) error {
		entries.Invalidate(msg.HouseholdID)
		return nil
	})
	households := household.NewManager(store, nil)
	xfer := transfer.NewService(store, nil)

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager, api.PublicProcedures...),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(
		NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store), interceptors))
	mux.Handle(api.NewHouseholdServiceHandler(
		NewHouseholdService(store, households, entries, notifier, "https://pachi.example"), interceptors))
	mux.Handle(api.NewEntryServiceHandler(
		NewEntryService(store, households, xfer, entries, notifier), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{url: server.URL, store: store, entries: entries, notifier: notifier}
}

type testClient struct {
	auth       *api.AuthClient
	households *api.HouseholdClient
	entries    *api.EntryClient
	session    *api.Session
}

func (s *testServer) client(token string) *testClient {
	bearer := connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token != "" {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	})
	opt := connect.WithInterceptors(bearer)
	return &testClient{
		auth:       api.NewAuthClient(http.DefaultClient, s.url, opt),
		households: api.NewHouseholdClient(http.DefaultClient, s.url, opt),
		entries:    api.NewEntryClient(http.DefaultClient, s.url, opt),
	}
}

func (s *testServer) register(t *testing.T, name string) *testClient {
	t.Helper()
	session, err := s.client("").auth.Register(context.Background(), &api.RegisterRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "password123",
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", name, err)
	}
	c := s.client(session.Token)
	c.session = session
	return c
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil error", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected %v, got %v (%v)", want, got, err)
	}
}

func TestAuthFlow(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	alice := s.register(t, "alice")
	if alice.session.Token == "" || alice.session.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("unexpected session: %+v", alice.session)
	}

	me, err := alice.auth.Me(ctx)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if me.User.ID != alice.session.User.ID || me.User.DisplayName != "alice" {
		t.Errorf("unexpected user: %+v", me.User)
	}

	anon := s.client("")
	_, err = anon.auth.Register(ctx, &api.RegisterRequest{Email: "alice@example.com", Password: "password123"})
	assertCode(t, err, connect.CodeAlreadyExists)

	_, err = anon.auth.Register(ctx, &api.RegisterRequest{Email: "bob@example.com", Password: "short"})
	assertCode(t, err, connect.CodeInvalidArgument)

	session, err := anon.auth.Login(ctx, &api.LoginRequest{Email: "alice@example.com", Password: "password123"})
	if err != nil || session.User.ID != alice.session.User.ID {
		t.Fatalf("Login = %v, %v", session, err)
	}

	_, err = anon.auth.Login(ctx, &api.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = anon.auth.Me(ctx)
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = s.client("garbage").households.List(ctx)
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestHouseholdLifecycle(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	owner := s.register(t, "owner")
	guest := s.register(t, "guest")

	h, err := owner.households.Create(ctx, "Weekend crew")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if h.Role != "owner" || !h.IsDefault || h.InviteToken == "" {
		t.Errorf("unexpected household: %+v", h)
	}

	_, err = owner.households.Create(ctx, "   ")
	assertCode(t, err, connect.CodeInvalidArgument)

	// Invite lookup works without a session.
	group, err := s.client("").households.LookupInvite(ctx, h.InviteToken)
	if err != nil || group.ID != h.ID || group.Name != "Weekend crew" {
		t.Fatalf("LookupInvite = %v, %v", group, err)
	}
	_, err = s.client("").households.LookupInvite(ctx, "no-such-token")
	assertCode(t, err, connect.CodeNotFound)

	_, err = s.client("").households.Join(ctx, h.InviteToken)
	assertCode(t, err, connect.CodeUnauthenticated)

	gen := s.entries.Generation(h.ID)
	joined, err := guest.households.Join(ctx, h.InviteToken)
	if err != nil || !joined.Joined {
		t.Fatalf("Join = %v, %v", joined, err)
	}
	if s.entries.Generation(h.ID) != gen+1 {
		t.Error("join did not invalidate the cache")
	}
	again, err := guest.households.Join(ctx, h.InviteToken)
	if err != nil || again.Joined {
		t.Fatalf("second Join = %v, %v", again, err)
	}

	members, err := guest.households.Members(ctx, h.ID)
	if err != nil || len(members) != 2 || members[0].Role != "owner" {
		t.Fatalf("Members = %v, %v", members, err)
	}

	if _, err := guest.households.Rename(ctx, h.ID, "Renamed by guest"); err != nil {
		t.Errorf("unrestricted rename failed: %v", err)
	}
	_, err = guest.households.SetEditRestricted(ctx, h.ID, true)
	assertCode(t, err, connect.CodePermissionDenied)
	if _, err := owner.households.SetEditRestricted(ctx, h.ID, true); err != nil {
		t.Fatalf("SetEditRestricted failed: %v", err)
	}
	_, err = guest.households.Rename(ctx, h.ID, "Again")
	assertCode(t, err, connect.CodePermissionDenied)

	rotated, err := owner.households.RotateInvite(ctx, h.ID)
	if err != nil {
		t.Fatalf("RotateInvite failed: %v", err)
	}
	if rotated.Token == h.InviteToken || rotated.URL != "https://pachi.example/invite/"+rotated.Token {
		t.Errorf("unexpected rotation: %+v", rotated)
	}
	_, err = s.client("").households.LookupInvite(ctx, h.InviteToken)
	assertCode(t, err, connect.CodeNotFound)

	err = owner.households.Leave(ctx, h.ID)
	assertCode(t, err, connect.CodeFailedPrecondition)
	if err := guest.households.Leave(ctx, h.ID); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if s.entries.Generation(h.ID) != gen+2 {
		t.Error("leave did not invalidate the cache")
	}
	_, err = guest.households.Members(ctx, h.ID)
	assertCode(t, err, connect.CodePermissionDenied)
}

func TestDeleteRelocatesGuestEntries(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	owner := s.register(t, "owner")
	guest := s.register(t, "guest")

	h, _ := owner.households.Create(ctx, "Shared")
	if _, err := guest.households.Join(ctx, h.InviteToken); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	for _, c := range []*testClient{owner, guest, guest} {
		if _, err := c.entries.Create(ctx, h.ID, api.EntryInput{Date: "2024-01-05", Stake: 1000, Payout: 3000}); err != nil {
			t.Fatalf("Create entry failed: %v", err)
		}
	}

	_, err := guest.households.Delete(ctx, h.ID)
	assertCode(t, err, connect.CodePermissionDenied)

	resp, err := owner.households.Delete(ctx, h.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(resp.Relocations) != 1 || resp.Relocations[0].Moved != 2 {
		t.Fatalf("unexpected relocations: %+v", resp.Relocations)
	}

	list, err := guest.households.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("guest households = %v, %v", list, err)
	}
	if list[0].Name != "Shared" || list[0].Role != "owner" || list[0].RelocatedFrom != h.ID || !list[0].IsDefault {
		t.Errorf("unexpected replacement: %+v", list[0])
	}

	moved, err := guest.entries.List(ctx, &api.ListEntriesRequest{HouseholdID: list[0].ID, AllMembers: true})
	if err != nil || len(moved.Entries) != 2 || moved.Total != "4000" {
		t.Errorf("moved entries = %+v, %v", moved, err)
	}
}

func TestEntryQueries(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	h, _ := alice.households.Create(ctx, "Ledger")
	bob.households.Join(ctx, h.InviteToken)

	inputs := []struct {
		c  *testClient
		in api.EntryInput
	}{
		{alice, api.EntryInput{Date: "2024-01-05", Venue: "Maruhan", Stake: 10000, Payout: 25000}},
		{alice, api.EntryInput{Date: "2024/01/20", Venue: "Dynam", Stake: 8000, Payout: 0}},
		{bob, api.EntryInput{Date: "2024-02-01", Venue: "Maruhan", Stake: 5000, Payout: 5000}},
		{bob, api.EntryInput{Date: "2023-12-31", Venue: "Dynam", Stake: 3000, Payout: 1000}},
	}
	for _, tc := range inputs {
		if _, err := tc.c.entries.Create(ctx, h.ID, tc.in); err != nil {
			t.Fatalf("Create entry failed: %v", err)
		}
	}

	tests := []struct {
		name      string
		req       api.ListEntriesRequest
		wantCount int
		wantTotal string
	}{
		{"all", api.ListEntriesRequest{AllMembers: true}, 4, "5000"},
		{"january", api.ListEntriesRequest{AllMembers: true, Window: "2024-01"}, 2, "7000"},
		{"year 2024", api.ListEntriesRequest{AllMembers: true, Window: "2024"}, 3, "7000"},
		{"bob only", api.ListEntriesRequest{Members: []string{bob.session.User.ID}}, 2, "-2000"},
		{"empty selection", api.ListEntriesRequest{}, 0, "0"},
		{"venue", api.ListEntriesRequest{AllMembers: true, Category: &api.Category{Kind: "venue", Value: "Dynam"}}, 2, "-10000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.HouseholdID = h.ID
			resp, err := alice.entries.List(ctx, &req)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(resp.Entries) != tt.wantCount || resp.Total != tt.wantTotal {
				t.Errorf("got %d entries totalling %s, want %d totalling %s",
					len(resp.Entries), resp.Total, tt.wantCount, tt.wantTotal)
			}
		})
	}

	resp, _ := alice.entries.List(ctx, &api.ListEntriesRequest{HouseholdID: h.ID, AllMembers: true})
	if resp.Entries[0].Date != "2024-02-01" || resp.Entries[len(resp.Entries)-1].Date != "2023-12-31" {
		t.Errorf("default sort is not newest first: %+v", resp.Entries)
	}
	if resp.Entries[1].Date != "2024-01-20" {
		t.Errorf("date not normalized: %q", resp.Entries[1].Date)
	}

	_, err := alice.entries.List(ctx, &api.ListEntriesRequest{HouseholdID: h.ID, Window: "2024-13"})
	assertCode(t, err, connect.CodeInvalidArgument)
	_, err = alice.entries.List(ctx, &api.ListEntriesRequest{HouseholdID: h.ID, Sort: "random"})
	assertCode(t, err, connect.CodeInvalidArgument)

	outsider := s.register(t, "outsider")
	_, err = outsider.entries.List(ctx, &api.ListEntriesRequest{HouseholdID: h.ID, AllMembers: true})
	assertCode(t, err, connect.CodePermissionDenied)
}

func TestEntryAuthorOnly(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	h, _ := alice.households.Create(ctx, "Ledger")
	bob.households.Join(ctx, h.InviteToken)

	e, err := alice.entries.Create(ctx, h.ID, api.EntryInput{Date: "2024-01-05", Stake: 1000, Payout: 500})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if e.Balance != -500 || e.Outcome != "loss" {
		t.Errorf("unexpected derived fields: %+v", e)
	}

	_, err = alice.entries.Create(ctx, h.ID, api.EntryInput{Date: "someday"})
	assertCode(t, err, connect.CodeInvalidArgument)
	_, err = alice.entries.Create(ctx, h.ID, api.EntryInput{Date: "2024-01-05", Stake: -1})
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = bob.entries.Update(ctx, e.ID, api.EntryInput{Date: "2024-01-05", Stake: 1, Payout: 2})
	assertCode(t, err, connect.CodePermissionDenied)
	err = bob.entries.Delete(ctx, e.ID)
	assertCode(t, err, connect.CodePermissionDenied)

	updated, err := alice.entries.Update(ctx, e.ID, api.EntryInput{Date: "2024-01-06", Stake: 1000, Payout: 4000, Note: "comeback"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Balance != 3000 || updated.Outcome != "gain" || updated.Note != "comeback" {
		t.Errorf("unexpected update: %+v", updated)
	}

	// The cached snapshot must reflect the update.
	list, _ := bob.entries.List(ctx, &api.ListEntriesRequest{HouseholdID: h.ID, AllMembers: true})
	if len(list.Entries) != 1 || list.Entries[0].Balance != 3000 {
		t.Errorf("stale listing: %+v", list.Entries)
	}

	if err := alice.entries.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	err = alice.entries.Delete(ctx, e.ID)
	assertCode(t, err, connect.CodeNotFound)

	list, _ = bob.entries.List(ctx, &api.ListEntriesRequest{HouseholdID: h.ID, AllMembers: true})
	if len(list.Entries) != 0 {
		t.Errorf("deleted entry still listed: %+v", list.Entries)
	}
}

func TestImportAndCopy(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	alice := s.register(t, "alice")

	src, _ := alice.households.Create(ctx, "Source")
	dst, _ := alice.households.Create(ctx, "Destination")

	imported, err := alice.entries.Import(ctx, &api.ImportRequest{
		HouseholdID: src.ID,
		Rows: []transfer.Row{
			{Date: "2024/01/05", Venue: "Maruhan", Stake: "10,000", Payout: "25,000", Balance: "15000"},
			{Date: "2024-02-10", Stake: "5000", Payout: "1000", Balance: "999"},
			{Date: "", Stake: "100"},
		},
		InvalidLines: []int{4},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if imported.Inserted != 2 || imported.Skipped != 2 || imported.Mismatches != 1 {
		t.Errorf("unexpected import result: %+v", imported)
	}

	copied, err := alice.entries.Copy(ctx, &api.CopyRequest{FromHouseholdID: src.ID, ToHouseholdID: dst.ID, Window: "2024-01"})
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if copied.Copied != 1 || copied.Window != "2024-01" {
		t.Errorf("unexpected copy result: %+v", copied)
	}

	list, _ := alice.entries.List(ctx, &api.ListEntriesRequest{HouseholdID: dst.ID, AllMembers: true})
	if len(list.Entries) != 1 || list.Total != "15000" {
		t.Errorf("destination = %+v", list)
	}

	_, err = alice.entries.Copy(ctx, &api.CopyRequest{FromHouseholdID: src.ID, ToHouseholdID: src.ID})
	assertCode(t, err, connect.CodeInvalidArgument)

	bob := s.register(t, "bob")
	_, err = bob.entries.Import(ctx, &api.ImportRequest{HouseholdID: src.ID})
	assertCode(t, err, connect.CodePermissionDenied)
}

func TestLabels(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	h, _ := alice.households.Create(ctx, "Ledger")

	for _, name := range []string{"Maruhan", "Maruhan", "Dynam"} {
		if err := alice.entries.AddLabel(ctx, h.ID, "venue", name); err != nil {
			t.Fatalf("AddLabel failed: %v", err)
		}
	}
	alice.entries.Create(ctx, h.ID, api.EntryInput{Date: "2024-01-05", Venue: "Espace"})
	alice.entries.Create(ctx, h.ID, api.EntryInput{Date: "2024-01-06", Venue: "Dynam"})

	labels, err := alice.entries.Labels(ctx, h.ID, "venue")
	if err != nil {
		t.Fatalf("Labels failed: %v", err)
	}
	if len(labels.Registry) != 2 {
		t.Errorf("registry = %v", labels.Registry)
	}
	if len(labels.Suggestions) != 3 || labels.Suggestions[2] != "Espace" {
		t.Errorf("suggestions = %v", labels.Suggestions)
	}

	err = alice.entries.AddLabel(ctx, h.ID, "color", "red")
	assertCode(t, err, connect.CodeInvalidArgument)
	err = alice.entries.AddLabel(ctx, h.ID, "venue", "  ")
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestMutationsAreAnnounced(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	alice := s.register(t, "alice")

	var (
		mu  sync.Mutex
		got []notify.Change
	)
	s.notifier.OnChange(func(ctx context.Context, msg *notify.LedgerChanged) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg.Change)
		return nil
	})

	h, _ := alice.households.Create(ctx, "Ledger")
	before := s.entries.Generation(h.ID)
	if _, err := alice.entries.Create(ctx, h.ID, api.EntryInput{Date: "2024-01-05"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if s.entries.Generation(h.ID) <= before {
		t.Error("entry creation did not invalidate the cache")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != notify.ChangeHousehold || got[1] != notify.ChangeEntries {
		t.Errorf("announced changes = %v", got)
	}
}

func TestConnectErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{household.ErrNotOwner, connect.CodePermissionDenied},
		{household.ErrOwnerCannotLeave, connect.CodeFailedPrecondition},
		{auth.ErrEmailExists, connect.CodeAlreadyExists},
		{transfer.ErrSameHousehold, connect.CodeInvalidArgument},
		{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{errors.New("disk on fire"), connect.CodeInternal},
		{connect.NewError(connect.CodeUnavailable, errors.New("x")), connect.CodeUnavailable},
	}
	for _, tt := range tests {
		if got := connect.CodeOf(connectError(tt.err)); got != tt.want {
			t.Errorf("connectError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
