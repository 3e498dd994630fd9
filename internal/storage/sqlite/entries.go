package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/storage"
)

const entryColumns = `id, household_id, user_id, date, venue, instrument, stake, payout, note, created_at`

func scanEntry(row rowScanner) (models.Entry, error) {
	var e models.Entry
	var note sql.NullString
	if err := row.Scan(&e.ID, &e.HouseholdID, &e.UserID, &e.Date, &e.Venue, &e.Instrument,
		&e.Stake, &e.Payout, &note, &e.CreatedAt); err != nil {
		return models.Entry{}, err
	}
	e.Note = note.String
	return e, nil
}

// FetchEntries returns every entry of the household in insertion order.
// Ordering for presentation is decided by the ledger package.
func (s *SQLiteStore) FetchEntries(ctx context.Context, householdID string) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE household_id = ? ORDER BY created_at ASC, rowid ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

// GetEntry retrieves an entry by ID.
func (s *SQLiteStore) GetEntry(ctx context.Context, entryID string) (*models.Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, entryID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("entry %s: %w", entryID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return &e, nil
}

// InsertEntries stores all drafts in a single transaction.
// Every draft gets a new ID; nothing existing is updated.
func (s *SQLiteStore) InsertEntries(ctx context.Context, drafts []models.EntryDraft) ([]models.Entry, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (id, household_id, user_id, date, venue, instrument, stake, payout, balance, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	entries := make([]models.Entry, 0, len(drafts))
	for _, d := range drafts {
		e := models.Entry{
			ID:          uuid.New().String(),
			HouseholdID: d.HouseholdID,
			UserID:      d.UserID,
			Date:        d.Date,
			Venue:       d.Venue,
			Instrument:  d.Instrument,
			Stake:       d.Stake,
			Payout:      d.Payout,
			Note:        d.Note,
			CreatedAt:   now,
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.HouseholdID, e.UserID, e.Date, e.Venue, e.Instrument,
			e.Stake, e.Payout, e.Balance(), nullable(e.Note), e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to insert entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entries, nil
}

// UpdateEntry rewrites the full record. Household, author and creation time are kept.
func (s *SQLiteStore) UpdateEntry(ctx context.Context, e *models.Entry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET date = ?, venue = ?, instrument = ?, stake = ?, payout = ?, balance = ?, note = ?
		 WHERE id = ?`,
		e.Date, e.Venue, e.Instrument, e.Stake, e.Payout, e.Balance(), nullable(e.Note), e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s: %w", e.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteEntry removes an entry by ID.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, entryID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s: %w", entryID, storage.ErrNotFound)
	}
	return nil
}

// ReassignEntries moves one author's entries between households.
// Running it twice moves nothing the second time.
func (s *SQLiteStore) ReassignEntries(ctx context.Context, fromHouseholdID, authorID, toHouseholdID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET household_id = ? WHERE household_id = ? AND user_id = ?`,
		toHouseholdID, fromHouseholdID, authorID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reassigned entries: %w", err)
	}
	return n, nil
}

// EntryAuthors lists the distinct authors of a household's entries.
func (s *SQLiteStore) EntryAuthors(ctx context.Context, householdID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM entries WHERE household_id = ? ORDER BY user_id`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entry authors: %w", err)
	}
	defer rows.Close()

	var authors []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan entry author: %w", err)
		}
		authors = append(authors, id)
	}
	return authors, rows.Err()
}

// RecentLabels returns distinct labels from the newest entries.
func (s *SQLiteStore) RecentLabels(ctx context.Context, householdID string, kind models.LabelKind, limit int) ([]string, error) {
	column := "venue"
	if kind == models.LabelInstrument {
		column = "instrument"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+column+` FROM entries WHERE household_id = ? ORDER BY date DESC, created_at DESC LIMIT ?`,
		householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent labels: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var labels []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		labels = append(labels, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate labels: %w", err)
	}
	return labels, nil
}
