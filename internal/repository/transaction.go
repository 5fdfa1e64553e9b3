package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/google/uuid"
)

const transactionColumns = `id, wallet_id, type, operator_code, amount_paise, transfer_mode,
	status, commission_paise, charge_paise, external_ref, approved_by, approval_notes,
	approval_date, reference_id, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	tx := &models.Transaction{}
	err := row.Scan(
		&tx.ID, &tx.WalletID, &tx.Type, &tx.OperatorCode, &tx.AmountPaise, &tx.TransferMode,
		&tx.Status, &tx.CommissionPaise, &tx.ChargePaise, &tx.ExternalRef, &tx.ApprovedBy,
		&tx.ApprovalNotes, &tx.ApprovalDate, &tx.ReferenceID, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

type CreateTransactionParams struct {
	ID              uuid.UUID
	WalletID        uuid.UUID
	Type            string
	OperatorCode    string
	AmountPaise     int64
	TransferMode    *string
	Status          string
	CommissionPaise int64
	ChargePaise     int64
	ExternalRef     *string
	ReferenceID     string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (*models.Transaction, error) {
	query := `INSERT INTO transactions
		(id, wallet_id, type, operator_code, amount_paise, transfer_mode, status,
		 commission_paise, charge_paise, external_ref, reference_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING ` + transactionColumns
	row := q.db.QueryRow(ctx, query,
		arg.ID, arg.WalletID, arg.Type, arg.OperatorCode, arg.AmountPaise, arg.TransferMode,
		arg.Status, arg.CommissionPaise, arg.ChargePaise, arg.ExternalRef, arg.ReferenceID,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

func (q *Queries) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(q.db.QueryRow(ctx, query, id))
}

// GetTransactionForUpdate locks the row for the duration of the enclosing
// transaction so a transition and its ledger side effect apply as one unit.
func (q *Queries) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	return scanTransaction(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetTransactionByReference(ctx context.Context, referenceID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference_id = $1`
	return scanTransaction(q.db.QueryRow(ctx, query, referenceID))
}

func (q *Queries) GetTransactionByExternalRef(ctx context.Context, externalRef string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE external_ref = $1`
	return scanTransaction(q.db.QueryRow(ctx, query, externalRef))
}

type UpdateTransactionStatusParams struct {
	ID            uuid.UUID
	Status        string
	ApprovedBy    *uuid.UUID
	ApprovalNotes *string
	ApprovalDate  *time.Time
}

func (q *Queries) UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (int64, error) {
	query := `UPDATE transactions
		SET status = $2,
		    approved_by = COALESCE($3, approved_by),
		    approval_notes = COALESCE($4, approval_notes),
		    approval_date = COALESCE($5, approval_date),
		    updated_at = NOW()
		WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, arg.ID, arg.Status, arg.ApprovedBy, arg.ApprovalNotes, arg.ApprovalDate)
	if err != nil {
		return 0, fmt.Errorf("update transaction status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SetTransactionExternalRef records the provider reference once the provider
// accepts the transaction. It is set once and never overwritten.
func (q *Queries) SetTransactionExternalRef(ctx context.Context, id uuid.UUID, externalRef string) (int64, error) {
	query := `UPDATE transactions
		SET external_ref = $2, updated_at = NOW()
		WHERE id = $1 AND external_ref IS NULL`
	tag, err := q.db.Exec(ctx, query, id, externalRef)
	if err != nil {
		return 0, fmt.Errorf("set transaction external ref: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListTransactionsByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int32) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions by wallet: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}

func (q *Queries) ListTransactionsByStatus(ctx context.Context, status string, limit, offset int32) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions by status: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}

func (q *Queries) CountTransactionsByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions by status: %w", err)
	}
	return count, nil
}

// GetUnresolvedProviderTransactions returns pending transactions that the
// provider has accepted (external_ref set) and that have been quiescent
// since before cutoff, oldest first, capped to limit.
func (q *Queries) GetUnresolvedProviderTransactions(ctx context.Context, cutoff time.Time, limit int32) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE status = 'pending' AND external_ref IS NOT NULL AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2`
	rows, err := q.db.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("get unresolved provider transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}
