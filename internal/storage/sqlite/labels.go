package sqlite

import (
	"context"
	"fmt"

	"github.com/fjsui0423-max/pachi-money/internal/models"
)

// AddLabel registers a label; registering it twice is a no-op.
func (s *SQLiteStore) AddLabel(ctx context.Context, householdID string, kind models.LabelKind, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO labels (household_id, kind, name) VALUES (?, ?, ?)
		 ON CONFLICT (household_id, kind, name) DO NOTHING`,
		householdID, string(kind), name,
	)
	if err != nil {
		return fmt.Errorf("failed to add label: %w", err)
	}
	return nil
}

// ListLabels returns the registry for one kind, sorted by name.
func (s *SQLiteStore) ListLabels(ctx context.Context, householdID string, kind models.LabelKind) ([]models.Label, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, household_id, kind, name FROM labels WHERE household_id = ? AND kind = ? ORDER BY name ASC`,
		householdID, string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	var labels []models.Label
	for rows.Next() {
		var l models.Label
		var k string
		if err := rows.Scan(&l.ID, &l.HouseholdID, &k, &l.Name); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		l.Kind = models.LabelKind(k)
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate labels: %w", err)
	}
	return labels, nil
}
