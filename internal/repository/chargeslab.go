package repository

import (
	"context"
	"fmt"

	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/google/uuid"
)

const chargeSlabColumns = `id, min_amount_paise, max_amount_paise, charge_paise, transfer_mode, is_active, created_at`

func scanChargeSlab(row interface{ Scan(...any) error }) (*models.ChargeSlab, error) {
	slab := &models.ChargeSlab{}
	err := row.Scan(
		&slab.ID, &slab.MinAmountPaise, &slab.MaxAmountPaise, &slab.ChargePaise,
		&slab.TransferMode, &slab.IsActive, &slab.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return slab, nil
}

// FindChargeSlab returns the active slab of the given transfer mode whose
// range covers the amount.
func (q *Queries) FindChargeSlab(ctx context.Context, transferMode string, amountPaise int64) (*models.ChargeSlab, error) {
	query := `SELECT ` + chargeSlabColumns + ` FROM charge_slabs
		WHERE transfer_mode = $1 AND is_active AND min_amount_paise <= $2 AND max_amount_paise >= $2
		LIMIT 1`
	return scanChargeSlab(q.db.QueryRow(ctx, query, transferMode, amountPaise))
}

func (q *Queries) InsertChargeSlab(ctx context.Context, slab *models.ChargeSlab) error {
	query := `INSERT INTO charge_slabs
		(id, min_amount_paise, max_amount_paise, charge_paise, transfer_mode, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query,
		slab.ID, slab.MinAmountPaise, slab.MaxAmountPaise, slab.ChargePaise,
		slab.TransferMode, slab.IsActive,
	).Scan(&slab.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert charge slab: %w", err)
	}
	return nil
}

func (q *Queries) DeactivateChargeSlab(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE charge_slabs SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("deactivate charge slab: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListActiveChargeSlabs returns all active slabs of a transfer mode ordered
// by range start, used for overlap validation at slab-write time.
func (q *Queries) ListActiveChargeSlabs(ctx context.Context, transferMode string) ([]models.ChargeSlab, error) {
	query := `SELECT ` + chargeSlabColumns + ` FROM charge_slabs
		WHERE transfer_mode = $1 AND is_active
		ORDER BY min_amount_paise ASC`
	rows, err := q.db.Query(ctx, query, transferMode)
	if err != nil {
		return nil, fmt.Errorf("list active charge slabs: %w", err)
	}
	defer rows.Close()

	var out []models.ChargeSlab
	for rows.Next() {
		slab, err := scanChargeSlab(rows)
		if err != nil {
			return nil, fmt.Errorf("scan charge slab: %w", err)
		}
		out = append(out, *slab)
	}
	return out, rows.Err()
}
