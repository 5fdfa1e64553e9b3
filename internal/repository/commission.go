package repository

import (
	"context"
	"fmt"

	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/google/uuid"
)

const commissionRuleColumns = `id, scope, scheme_id, user_id, operator_code, transaction_type,
	commission_type, value, min_commission, max_commission, is_active, created_at`

func scanCommissionRule(row interface{ Scan(...any) error }) (*models.CommissionRule, error) {
	rule := &models.CommissionRule{}
	err := row.Scan(
		&rule.ID, &rule.Scope, &rule.SchemeID, &rule.UserID, &rule.OperatorCode,
		&rule.TransactionType, &rule.CommissionType, &rule.Value,
		&rule.MinCommission, &rule.MaxCommission, &rule.IsActive, &rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// GetUserCommissionRule returns the active user-scoped rule for the exact
// (user, operator, transaction type) triple.
func (q *Queries) GetUserCommissionRule(ctx context.Context, userID uuid.UUID, operatorCode, txType string) (*models.CommissionRule, error) {
	query := `SELECT ` + commissionRuleColumns + ` FROM commission_rules
		WHERE scope = 'user' AND user_id = $1 AND operator_code = $2 AND transaction_type = $3 AND is_active
		LIMIT 1`
	return scanCommissionRule(q.db.QueryRow(ctx, query, userID, operatorCode, txType))
}

// GetDefaultSchemeCommissionRule returns the matching entry of the currently
// active default scheme.
func (q *Queries) GetDefaultSchemeCommissionRule(ctx context.Context, operatorCode, txType string) (*models.CommissionRule, error) {
	query := `SELECT ` + commissionRuleColumns + ` FROM commission_rules r
		WHERE r.scope = 'scheme'
		  AND r.operator_code = $1 AND r.transaction_type = $2 AND r.is_active
		  AND r.scheme_id = (SELECT id FROM commission_schemes WHERE is_default AND is_active LIMIT 1)
		LIMIT 1`
	return scanCommissionRule(q.db.QueryRow(ctx, query, operatorCode, txType))
}

// GetGlobalCommissionRule returns the global fallback rate table entry.
func (q *Queries) GetGlobalCommissionRule(ctx context.Context, operatorCode, txType string) (*models.CommissionRule, error) {
	query := `SELECT ` + commissionRuleColumns + ` FROM commission_rules
		WHERE scope = 'global' AND operator_code = $1 AND transaction_type = $2 AND is_active
		LIMIT 1`
	return scanCommissionRule(q.db.QueryRow(ctx, query, operatorCode, txType))
}

type InsertCommissionRuleParams struct {
	ID              uuid.UUID
	Scope           string
	SchemeID        *uuid.UUID
	UserID          *uuid.UUID
	OperatorCode    string
	TransactionType string
	CommissionType  string
	Value           string
	MinCommission   *string
	MaxCommission   *string
	IsActive        bool
}

func (q *Queries) InsertCommissionRule(ctx context.Context, arg InsertCommissionRuleParams) (*models.CommissionRule, error) {
	query := `INSERT INTO commission_rules
		(id, scope, scheme_id, user_id, operator_code, transaction_type, commission_type,
		 value, min_commission, max_commission, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING ` + commissionRuleColumns
	rule, err := scanCommissionRule(q.db.QueryRow(ctx, query,
		arg.ID, arg.Scope, arg.SchemeID, arg.UserID, arg.OperatorCode, arg.TransactionType,
		arg.CommissionType, arg.Value, arg.MinCommission, arg.MaxCommission, arg.IsActive,
	))
	if err != nil {
		return nil, fmt.Errorf("insert commission rule: %w", err)
	}
	return rule, nil
}

// DeactivateUserCommissionRules retires previous user-scoped rules so at
// most one active rule exists per (user, operator, transaction type).
func (q *Queries) DeactivateUserCommissionRules(ctx context.Context, userID uuid.UUID, operatorCode, txType string) error {
	query := `UPDATE commission_rules SET is_active = FALSE
		WHERE scope = 'user' AND user_id = $1 AND operator_code = $2 AND transaction_type = $3 AND is_active`
	if _, err := q.db.Exec(ctx, query, userID, operatorCode, txType); err != nil {
		return fmt.Errorf("deactivate user commission rules: %w", err)
	}
	return nil
}

func (q *Queries) InsertCommissionScheme(ctx context.Context, scheme *models.CommissionScheme) error {
	query := `INSERT INTO commission_schemes (id, name, is_default, is_active, created_at)
		VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, scheme.ID, scheme.Name, scheme.IsDefault, scheme.IsActive).
		Scan(&scheme.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert commission scheme: %w", err)
	}
	return nil
}

// ClearDefaultScheme unflags any current default so the invariant of at most
// one active default scheme holds across SetDefault writes.
func (q *Queries) ClearDefaultScheme(ctx context.Context) error {
	if _, err := q.db.Exec(ctx, `UPDATE commission_schemes SET is_default = FALSE WHERE is_default`); err != nil {
		return fmt.Errorf("clear default scheme: %w", err)
	}
	return nil
}

func (q *Queries) SetDefaultScheme(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE commission_schemes SET is_default = TRUE, is_active = TRUE WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("set default scheme: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListCommissionRules(ctx context.Context, limit, offset int32) ([]models.CommissionRule, error) {
	query := `SELECT ` + commissionRuleColumns + ` FROM commission_rules
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := q.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list commission rules: %w", err)
	}
	defer rows.Close()

	var out []models.CommissionRule
	for rows.Next() {
		rule, err := scanCommissionRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commission rule: %w", err)
		}
		out = append(out, *rule)
	}
	return out, rows.Err()
}
