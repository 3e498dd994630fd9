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

const householdColumns = `id, name, owner_id, invite_token, is_edit_restricted, relocated_from, created_at`

func scanHousehold(row rowScanner) (*models.Household, error) {
	h := &models.Household{}
	var restricted int
	var relocated sql.NullString
	if err := row.Scan(&h.ID, &h.Name, &h.OwnerID, &h.InviteToken, &restricted, &relocated, &h.CreatedAt); err != nil {
		return nil, err
	}
	h.EditRestricted = restricted != 0
	h.RelocatedFrom = relocated.String
	return h, nil
}

// NewInviteToken mints an opaque invite token.
func NewInviteToken() string {
	return uuid.NewString()
}

// CreateHousehold persists a household and its owner membership atomically.
// The owner's first household becomes their default.
func (s *SQLiteStore) CreateHousehold(ctx context.Context, h *models.Household) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.InviteToken == "" {
		h.InviteToken = NewInviteToken()
	}
	if h.CreatedAt == 0 {
		h.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO households (`+householdColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.OwnerID, h.InviteToken, boolToInt(h.EditRestricted), nullable(h.RelocatedFrom), h.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("household %s: %w", h.ID, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert household: %w", err)
	}

	if err := insertMembership(ctx, tx, h.ID, h.OwnerID, models.RoleOwner, h.CreatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetHousehold retrieves a household by ID.
func (s *SQLiteStore) GetHousehold(ctx context.Context, householdID string) (*models.Household, error) {
	h, err := scanHousehold(s.db.QueryRowContext(ctx,
		`SELECT `+householdColumns+` FROM households WHERE id = ?`, householdID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("household %s: %w", householdID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	return h, nil
}

// LookupHouseholdByToken resolves an invite token to the household's public summary.
func (s *SQLiteStore) LookupHouseholdByToken(ctx context.Context, token string) (*models.GroupSummary, error) {
	if token == "" {
		return nil, fmt.Errorf("empty invite token: %w", storage.ErrNotFound)
	}
	summary := &models.GroupSummary{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM households WHERE invite_token = ?`, token,
	).Scan(&summary.ID, &summary.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invite token: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite token: %w", err)
	}
	return summary, nil
}

// UpdateHousehold rewrites the mutable household fields.
func (s *SQLiteStore) UpdateHousehold(ctx context.Context, h *models.Household) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE households SET name = ?, is_edit_restricted = ?, invite_token = ? WHERE id = ?`,
		h.Name, boolToInt(h.EditRestricted), h.InviteToken, h.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("invite token: %w", storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update household: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("household %s: %w", h.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteHousehold removes a household; members, entries and labels cascade.
func (s *SQLiteStore) DeleteHousehold(ctx context.Context, householdID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM households WHERE id = ?`, householdID)
	if err != nil {
		return fmt.Errorf("failed to delete household: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("household %s: %w", householdID, storage.ErrNotFound)
	}
	return nil
}

// ListHouseholdsForUser returns every household the user belongs to,
// default household first, then by creation time.
func (s *SQLiteStore) ListHouseholdsForUser(ctx context.Context, userID string) ([]*models.Household, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.name, h.owner_id, h.invite_token, h.is_edit_restricted, h.relocated_from, h.created_at
		FROM households h
		JOIN household_members m ON m.household_id = h.id
		WHERE m.user_id = ?
		ORDER BY m.is_default DESC, h.created_at ASC, h.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list households: %w", err)
	}
	defer rows.Close()

	var households []*models.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan household: %w", err)
		}
		households = append(households, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate households: %w", err)
	}
	return households, nil
}

// FindRelocation returns the replacement household created for ownerID out of originID.
func (s *SQLiteStore) FindRelocation(ctx context.Context, originID, ownerID string) (*models.Household, error) {
	h, err := scanHousehold(s.db.QueryRowContext(ctx,
		`SELECT `+householdColumns+` FROM households WHERE relocated_from = ? AND owner_id = ?
		 ORDER BY created_at ASC LIMIT 1`,
		originID, ownerID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("relocation of %s for %s: %w", originID, ownerID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find relocation: %w", err)
	}
	return h, nil
}
