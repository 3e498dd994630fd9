package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/storage"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertMembership adds the pair; the user's first membership becomes the default.
func insertMembership(ctx context.Context, db execer, householdID, userID string, role models.Role, createdAt int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO household_members (household_id, user_id, role, is_default, created_at)
		VALUES (?, ?, ?, (SELECT COUNT(*) = 0 FROM household_members WHERE user_id = ? AND is_default = 1), ?)`,
		householdID, userID, string(role), userID, createdAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("membership %s/%s: %w", householdID, userID, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// CreateMembership adds a user to a household.
// A second attempt for the same pair fails with storage.ErrDuplicate.
func (s *SQLiteStore) CreateMembership(ctx context.Context, householdID, userID string, role models.Role) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM households WHERE id = ?`, householdID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("household %s: %w", householdID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check household existence: %w", err)
	}
	return insertMembership(ctx, s.db, householdID, userID, role, time.Now().Unix())
}

// DeleteMembership removes a user from a household.
func (s *SQLiteStore) DeleteMembership(ctx context.Context, householdID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`, householdID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("membership %s/%s: %w", householdID, userID, storage.ErrNotFound)
	}
	return nil
}

const membershipQuery = `
	SELECT m.household_id, m.user_id, m.role, m.is_default, m.created_at, COALESCE(u.display_name, '')
	FROM household_members m
	LEFT JOIN users u ON u.id = m.user_id`

func scanMembership(row rowScanner) (*models.Membership, error) {
	m := &models.Membership{}
	var role string
	var isDefault int
	if err := row.Scan(&m.HouseholdID, &m.UserID, &role, &isDefault, &m.CreatedAt, &m.DisplayName); err != nil {
		return nil, err
	}
	m.Role = models.Role(role)
	m.IsDefault = isDefault != 0
	return m, nil
}

// GetMembership returns the membership of one user in one household.
func (s *SQLiteStore) GetMembership(ctx context.Context, householdID, userID string) (*models.Membership, error) {
	m, err := scanMembership(s.db.QueryRowContext(ctx,
		membershipQuery+` WHERE m.household_id = ? AND m.user_id = ?`, householdID, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("membership %s/%s: %w", householdID, userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// ListMembers returns the household's members, owner first.
func (s *SQLiteStore) ListMembers(ctx context.Context, householdID string) ([]*models.Membership, error) {
	return s.listMemberships(ctx,
		membershipQuery+` WHERE m.household_id = ? ORDER BY m.role = 'owner' DESC, m.created_at ASC, m.user_id ASC`,
		householdID)
}

// ListMemberships returns every membership held by the user.
func (s *SQLiteStore) ListMemberships(ctx context.Context, userID string) ([]*models.Membership, error) {
	return s.listMemberships(ctx,
		membershipQuery+` WHERE m.user_id = ? ORDER BY m.is_default DESC, m.created_at ASC`,
		userID)
}

func (s *SQLiteStore) listMemberships(ctx context.Context, query string, arg string) ([]*models.Membership, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return memberships, nil
}

// SetDefaultHousehold moves the user's default flag to householdID.
func (s *SQLiteStore) SetDefaultHousehold(ctx context.Context, userID, householdID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE household_members SET is_default = 0 WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear default household: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE household_members SET is_default = 1 WHERE user_id = ? AND household_id = ?`, userID, householdID)
	if err != nil {
		return fmt.Errorf("failed to set default household: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("membership %s/%s: %w", householdID, userID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
