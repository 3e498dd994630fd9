package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjsui0423-max/pachi-money/internal/household"
	"github.com/fjsui0423-max/pachi-money/internal/ledger"
	"github.com/fjsui0423-max/pachi-money/internal/metrics"
	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/storage"
	"github.com/fjsui0423-max/pachi-money/pkg/logging"
)

// ErrSameHousehold is returned when source and destination of a copy match.
var ErrSameHousehold = errors.New("source and destination household are the same")

// Store is the persistence transfer needs.
type Store interface {
	GetMembership(ctx context.Context, householdID, userID string) (*models.Membership, error)
	FetchEntries(ctx context.Context, householdID string) ([]models.Entry, error)
	InsertEntries(ctx context.Context, drafts []models.EntryDraft) ([]models.Entry, error)
}

// Service imports rows and replicates entries. Both only ever insert.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService creates a Service. m may be nil.
func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{store: store, metrics: m, logger: logging.Component("transfer")}
}

// ImportResult reports what an import did.
type ImportResult struct {
	Inserted   int
	Skipped    int
	Mismatches int
}

// ReplicateResult reports what a copy did. Copies are additive: running
// the same copy twice inserts the rows twice.
type ReplicateResult struct {
	Copied int
	Window ledger.Window
}

func (s *Service) requireMember(ctx context.Context, householdID, userID string) error {
	_, err := s.store.GetMembership(ctx, householdID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return household.ErrNotMember
	}
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	return nil
}

// Import normalizes the batch and inserts it into householdID, attributed
// to userID. Unreadable lines of the batch count as skipped. Existing
// entries are never matched or updated.
func (s *Service) Import(ctx context.Context, userID, householdID string, batch Batch, policy Policy) (*ImportResult, error) {
	if err := s.requireMember(ctx, householdID, userID); err != nil {
		return nil, err
	}

	n := Normalize(batch.Rows, policy)
	if len(batch.Invalid) > 0 {
		n.Skipped += len(batch.Invalid)
		s.logger.Warn("unreadable import lines skipped",
			"group_id", householdID,
			"user_id", userID,
			"lines", batch.Invalid,
		)
	}
	if n.Mismatches > 0 {
		s.logger.Warn("imported balances disagree with payout - stake; using computed values",
			"group_id", householdID,
			"user_id", userID,
			"rows", n.MismatchLines,
			"rejected", policy.RejectMismatches,
		)
	}

	inserted, err := s.store.InsertEntries(ctx, n.Drafts(householdID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to insert imported entries: %w", err)
	}

	s.metrics.Imported(len(inserted), n.Skipped, n.Mismatches)
	s.logger.Info("rows imported",
		"group_id", householdID,
		"user_id", userID,
		"inserted", len(inserted),
		"skipped", n.Skipped,
	)
	return &ImportResult{Inserted: len(inserted), Skipped: n.Skipped, Mismatches: n.Mismatches}, nil
}

// Replicate copies the entries of fromID dated inside w into toID. The
// copies get new IDs and userID as author. userID must belong to both
// households.
func (s *Service) Replicate(ctx context.Context, userID, fromID, toID string, w ledger.Window) (*ReplicateResult, error) {
	if fromID == toID {
		return nil, ErrSameHousehold
	}
	if err := s.requireMember(ctx, fromID, userID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, toID, userID); err != nil {
		return nil, err
	}

	entries, err := s.store.FetchEntries(ctx, fromID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source entries: %w", err)
	}

	var drafts []models.EntryDraft
	for _, e := range entries {
		if !w.Contains(e.Date) {
			continue
		}
		d := e.Draft()
		d.HouseholdID = toID
		d.UserID = userID
		drafts = append(drafts, d)
	}

	inserted, err := s.store.InsertEntries(ctx, drafts)
	if err != nil {
		return nil, fmt.Errorf("failed to insert copies: %w", err)
	}

	s.metrics.Replicated(len(inserted))
	s.logger.Info("entries copied",
		"from_id", fromID,
		"group_id", toID,
		"user_id", userID,
		"window", w.String(),
		"copied", len(inserted),
	)
	return &ReplicateResult{Copied: len(inserted), Window: w}, nil
}
