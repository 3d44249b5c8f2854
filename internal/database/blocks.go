package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"radiantbloom/internal/models"
)

func (db *DB) CreateAvailabilityBlock(ctx context.Context, block *models.AvailabilityBlock) error {
	if block.Kind != models.BlockKindShift &&
		block.Kind != models.BlockKindBreak &&
		block.Kind != models.BlockKindAway {
		return fmt.Errorf("invalid block kind %q", block.Kind)
	}

	query := `INSERT INTO availability_blocks (staff_id, kind, starts_at, ends_at, notes) VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		block.StaffID, block.Kind, block.StartsAt.UTC(), block.EndsAt.UTC(), block.Notes)
	if err != nil {
		return fmt.Errorf("failed to create availability block: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	block.ID = id
	return nil
}

// ListBusyBlocks returns the break/away blocks of the given staff
// members overlapping [from, to). Shift blocks are excluded: the
// generator works from the global business window.
func (db *DB) ListBusyBlocks(ctx context.Context, staffIDs []int64, from, to time.Time) ([]models.AvailabilityBlock, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT id, staff_id, kind, starts_at, ends_at, COALESCE(notes, '')
              FROM availability_blocks
              WHERE staff_id IN (%s)
              AND kind IN (?, ?)
              AND starts_at < ? AND ends_at > ?`, placeholders(len(staffIDs)))

	args := make([]interface{}, 0, len(staffIDs)+4)
	for _, id := range staffIDs {
		args = append(args, id)
	}
	args = append(args, models.BlockKindBreak, models.BlockKindAway, to.UTC(), from.UTC())

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list busy blocks: %w", err)
	}
	defer rows.Close()

	var blocks []models.AvailabilityBlock
	for rows.Next() {
		var b models.AvailabilityBlock
		if err := rows.Scan(&b.ID, &b.StaffID, &b.Kind, &b.StartsAt, &b.EndsAt, &b.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan availability block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
