package repository

import (
	"context"
	"fmt"

	"github.com/finovo/recharge-wallet/internal/models"
)

const operatorColumns = `id, operator_code, name, transaction_type, processing_mode,
	auto_approve_paise, requires_approval, min_amount_paise, max_amount_paise,
	status_endpoint, field_map_version, field_map, is_active, created_at, updated_at`

func scanOperator(row interface{ Scan(...any) error }) (*models.OperatorConfig, error) {
	op := &models.OperatorConfig{}
	err := row.Scan(
		&op.ID, &op.OperatorCode, &op.Name, &op.TransactionType, &op.ProcessingMode,
		&op.AutoApprovePaise, &op.RequiresApproval, &op.MinAmountPaise, &op.MaxAmountPaise,
		&op.StatusEndpoint, &op.FieldMapVersion, &op.FieldMap, &op.IsActive,
		&op.CreatedAt, &op.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (q *Queries) GetOperatorByCode(ctx context.Context, code string) (*models.OperatorConfig, error) {
	query := `SELECT ` + operatorColumns + ` FROM operator_configs WHERE operator_code = $1`
	return scanOperator(q.db.QueryRow(ctx, query, code))
}

func (q *Queries) InsertOperatorConfig(ctx context.Context, op *models.OperatorConfig) error {
	query := `INSERT INTO operator_configs
		(id, operator_code, name, transaction_type, processing_mode, auto_approve_paise,
		 requires_approval, min_amount_paise, max_amount_paise, status_endpoint,
		 field_map_version, field_map, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := q.db.QueryRow(ctx, query,
		op.ID, op.OperatorCode, op.Name, op.TransactionType, op.ProcessingMode,
		op.AutoApprovePaise, op.RequiresApproval, op.MinAmountPaise, op.MaxAmountPaise,
		op.StatusEndpoint, op.FieldMapVersion, op.FieldMap, op.IsActive,
	).Scan(&op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert operator config: %w", err)
	}
	return nil
}

type UpdateOperatorConfigParams struct {
	OperatorCode     string
	ProcessingMode   string
	AutoApprovePaise int64
	RequiresApproval bool
	MinAmountPaise   int64
	MaxAmountPaise   int64
	IsActive         bool
}

func (q *Queries) UpdateOperatorConfig(ctx context.Context, arg UpdateOperatorConfigParams) (int64, error) {
	query := `UPDATE operator_configs
		SET processing_mode = $2, auto_approve_paise = $3, requires_approval = $4,
		    min_amount_paise = $5, max_amount_paise = $6, is_active = $7, updated_at = NOW()
		WHERE operator_code = $1`
	tag, err := q.db.Exec(ctx, query,
		arg.OperatorCode, arg.ProcessingMode, arg.AutoApprovePaise, arg.RequiresApproval,
		arg.MinAmountPaise, arg.MaxAmountPaise, arg.IsActive,
	)
	if err != nil {
		return 0, fmt.Errorf("update operator config: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListOperatorConfigs(ctx context.Context) ([]models.OperatorConfig, error) {
	query := `SELECT ` + operatorColumns + ` FROM operator_configs ORDER BY operator_code ASC`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list operator configs: %w", err)
	}
	defer rows.Close()

	var out []models.OperatorConfig
	for rows.Next() {
		op, err := scanOperator(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operator config: %w", err)
		}
		out = append(out, *op)
	}
	return out, rows.Err()
}
