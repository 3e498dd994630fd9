package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/fjsui0423-max/pachi-money/internal/api"
	"github.com/fjsui0423-max/pachi-money/internal/cache"
	"github.com/fjsui0423-max/pachi-money/internal/household"
	"github.com/fjsui0423-max/pachi-money/internal/ledger"
	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/notify"
	"github.com/fjsui0423-max/pachi-money/internal/storage"
	"github.com/fjsui0423-max/pachi-money/internal/transfer"
	"github.com/fjsui0423-max/pachi-money/pkg/logging"
)

// RecentLabelDepth is how many recent entries feed label suggestions.
const RecentLabelDepth = 50

// EntryService implements api.EntryServiceHandler.
type EntryService struct {
	store      storage.Store
	households *household.Manager
	transfer   *transfer.Service
	entries    *cache.EntryCache
	notifier   *notify.Notifier
	logger     *slog.Logger
}

var _ api.EntryServiceHandler = (*EntryService)(nil)

// NewEntryService creates an EntryService. Reads go through entries;
// every write invalidates it and announces the change.
func NewEntryService(store storage.Store, households *household.Manager, xfer *transfer.Service, entries *cache.EntryCache, notifier *notify.Notifier) *EntryService {
	return &EntryService{
		store:      store,
		households: households,
		transfer:   xfer,
		entries:    entries,
		notifier:   notifier,
		logger:     logging.Component("entry-service"),
	}
}

func toAPIEntry(e models.Entry) api.Entry {
	return api.Entry{
		ID:          e.ID,
		HouseholdID: e.HouseholdID,
		UserID:      e.UserID,
		Date:        e.Date,
		Venue:       e.Venue,
		Instrument:  e.Instrument,
		Stake:       e.Stake,
		Payout:      e.Payout,
		Balance:     e.Balance(),
		Outcome:     string(e.Outcome()),
		Note:        e.Note,
		CreatedAt:   e.CreatedAt,
	}
}

func parseKind(s string) (models.LabelKind, error) {
	kind := models.LabelKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.Valid() {
		return "", invalidArgument(fmt.Errorf("unknown label kind %q", s))
	}
	return kind, nil
}

// validateInput normalizes the editable fields of an entry.
func validateInput(in api.EntryInput) (api.EntryInput, error) {
	date, ok := transfer.NormalizeDate(in.Date)
	if !ok {
		return in, invalidArgument(fmt.Errorf("invalid date %q", in.Date))
	}
	if in.Stake < 0 || in.Payout < 0 {
		return in, invalidArgument(errors.New("stake and payout must not be negative"))
	}
	in.Date = date
	in.Venue = strings.TrimSpace(in.Venue)
	in.Instrument = strings.TrimSpace(in.Instrument)
	in.Note = strings.TrimSpace(in.Note)
	return in, nil
}

func (s *EntryService) changed(ctx context.Context, householdID, userID string) {
	s.entries.Invalidate(householdID)
	s.notifier.Changed(ctx, householdID, notify.ChangeEntries, userID)
}

// List runs a ledger query over the household's snapshot.
func (s *EntryService) List(ctx context.Context, req *connect.Request[api.ListEntriesRequest]) (*connect.Response[api.ListEntriesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	window, err := ledger.ParseWindow(msg.Window)
	if err != nil {
		return nil, invalidArgument(err)
	}
	sortKey, err := ledger.ParseSortKey(msg.Sort)
	if err != nil {
		return nil, invalidArgument(err)
	}
	var category *ledger.CategoryFilter
	if msg.Category != nil {
		kind, err := parseKind(msg.Category.Kind)
		if err != nil {
			return nil, err
		}
		category = &ledger.CategoryFilter{Kind: kind, Value: msg.Category.Value}
	}

	if _, _, err := s.households.Authorize(ctx, userID, msg.HouseholdID); err != nil {
		return nil, connectError(err)
	}

	members := ledger.NewMembers(msg.Members...)
	if msg.AllMembers {
		all, err := s.store.ListMembers(ctx, msg.HouseholdID)
		if err != nil {
			return nil, connectError(err)
		}
		members = ledger.NewMembers()
		for _, m := range all {
			members[m.UserID] = struct{}{}
		}
	}

	snapshot, err := s.entries.Get(ctx, msg.HouseholdID)
	if err != nil {
		s.logger.Error("Failed to load entries", "group_id", msg.HouseholdID, "error", err)
		return nil, connectError(err)
	}

	result := ledger.Query{Members: members, Window: window, Category: category, Sort: sortKey}.Run(snapshot)
	out := make([]api.Entry, 0, len(result.Entries))
	for _, e := range result.Entries {
		out = append(out, toAPIEntry(e))
	}
	return connect.NewResponse(&api.ListEntriesResponse{Entries: out, Total: result.Total.String()}), nil
}

// Create records a new entry authored by the caller.
func (s *EntryService) Create(ctx context.Context, req *connect.Request[api.CreateEntryRequest]) (*connect.Response[api.EntryResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	in, err := validateInput(req.Msg.Entry)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.households.Authorize(ctx, userID, req.Msg.HouseholdID); err != nil {
		return nil, connectError(err)
	}

	inserted, err := s.store.InsertEntries(ctx, []models.EntryDraft{{
		HouseholdID: req.Msg.HouseholdID,
		UserID:      userID,
		Date:        in.Date,
		Venue:       in.Venue,
		Instrument:  in.Instrument,
		Stake:       in.Stake,
		Payout:      in.Payout,
		Note:        in.Note,
	}})
	if err != nil {
		s.logger.Error("Create entry failed", "group_id", req.Msg.HouseholdID, "error", err)
		return nil, connectError(err)
	}
	s.changed(ctx, req.Msg.HouseholdID, userID)

	s.logger.Info("Entry created", "group_id", req.Msg.HouseholdID, "entry_id", inserted[0].ID)
	return connect.NewResponse(&api.EntryResponse{Entry: toAPIEntry(inserted[0])}), nil
}

// authoredEntry loads an entry the caller wrote in a household they still
// belong to.
func (s *EntryService) authoredEntry(ctx context.Context, userID, entryID string) (*models.Entry, error) {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.households.Authorize(ctx, userID, entry.HouseholdID); err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, errNotAuthor
	}
	return entry, nil
}

// Update rewrites an entry. Author only.
func (s *EntryService) Update(ctx context.Context, req *connect.Request[api.UpdateEntryRequest]) (*connect.Response[api.EntryResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	in, err := validateInput(req.Msg.Entry)
	if err != nil {
		return nil, err
	}

	entry, err := s.authoredEntry(ctx, userID, req.Msg.EntryID)
	if err != nil {
		return nil, connectError(err)
	}
	entry.Date = in.Date
	entry.Venue = in.Venue
	entry.Instrument = in.Instrument
	entry.Stake = in.Stake
	entry.Payout = in.Payout
	entry.Note = in.Note

	if err := s.store.UpdateEntry(ctx, entry); err != nil {
		return nil, connectError(err)
	}
	s.changed(ctx, entry.HouseholdID, userID)
	return connect.NewResponse(&api.EntryResponse{Entry: toAPIEntry(*entry)}), nil
}

// Delete removes an entry. Author only.
func (s *EntryService) Delete(ctx context.Context, req *connect.Request[api.EntryRef]) (*connect.Response[api.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.authoredEntry(ctx, userID, req.Msg.EntryID)
	if err != nil {
		return nil, connectError(err)
	}
	if err := s.store.DeleteEntry(ctx, entry.ID); err != nil {
		return nil, connectError(err)
	}
	s.changed(ctx, entry.HouseholdID, userID)
	return connect.NewResponse(&api.Empty{}), nil
}

// Import inserts external rows attributed to the caller.
func (s *EntryService) Import(ctx context.Context, req *connect.Request[api.ImportRequest]) (*connect.Response[api.ImportResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	policy := transfer.Policy{RejectMismatches: req.Msg.RejectMismatches}
	batch := transfer.Batch{Rows: req.Msg.Rows, Invalid: req.Msg.InvalidLines}
	result, err := s.transfer.Import(ctx, userID, req.Msg.HouseholdID, batch, policy)
	if err != nil {
		return nil, connectError(err)
	}
	if result.Inserted > 0 {
		s.changed(ctx, req.Msg.HouseholdID, userID)
	}
	return connect.NewResponse(&api.ImportResponse{
		Inserted:   result.Inserted,
		Skipped:    result.Skipped,
		Mismatches: result.Mismatches,
	}), nil
}

// Copy replicates the entries of one household into another.
func (s *EntryService) Copy(ctx context.Context, req *connect.Request[api.CopyRequest]) (*connect.Response[api.CopyResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	window, err := ledger.ParseWindow(req.Msg.Window)
	if err != nil {
		return nil, invalidArgument(err)
	}

	result, err := s.transfer.Replicate(ctx, userID, req.Msg.FromHouseholdID, req.Msg.ToHouseholdID, window)
	if err != nil {
		return nil, connectError(err)
	}
	if result.Copied > 0 {
		s.changed(ctx, req.Msg.ToHouseholdID, userID)
	}
	return connect.NewResponse(&api.CopyResponse{Copied: result.Copied, Window: result.Window.String()}), nil
}

// Labels returns the registry and the suggestion list for one kind.
// Suggestions put registry labels first, then labels of recent entries.
func (s *EntryService) Labels(ctx context.Context, req *connect.Request[api.LabelsRequest]) (*connect.Response[api.LabelsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := parseKind(req.Msg.Kind)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.households.Authorize(ctx, userID, req.Msg.HouseholdID); err != nil {
		return nil, connectError(err)
	}

	labels, err := s.store.ListLabels(ctx, req.Msg.HouseholdID, kind)
	if err != nil {
		return nil, connectError(err)
	}
	recent, err := s.store.RecentLabels(ctx, req.Msg.HouseholdID, kind, RecentLabelDepth)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &api.LabelsResponse{Registry: make([]string, 0, len(labels))}
	seen := make(map[string]bool, len(labels)+len(recent))
	for _, l := range labels {
		resp.Registry = append(resp.Registry, l.Name)
		if !seen[l.Name] {
			seen[l.Name] = true
			resp.Suggestions = append(resp.Suggestions, l.Name)
		}
	}
	for _, name := range recent {
		if !seen[name] {
			seen[name] = true
			resp.Suggestions = append(resp.Suggestions, name)
		}
	}
	return connect.NewResponse(resp), nil
}

// AddLabel registers a label for suggestions.
func (s *EntryService) AddLabel(ctx context.Context, req *connect.Request[api.AddLabelRequest]) (*connect.Response[api.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := parseKind(req.Msg.Kind)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument(errors.New("label name is required"))
	}
	if _, _, err := s.households.Authorize(ctx, userID, req.Msg.HouseholdID); err != nil {
		return nil, connectError(err)
	}

	if err := s.store.AddLabel(ctx, req.Msg.HouseholdID, kind, name); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.Empty{}), nil
}
