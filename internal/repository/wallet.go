package repository

import (
	"context"
	"fmt"

	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/google/uuid"
)

func (q *Queries) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, balance_paise, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW()) RETURNING created_at, updated_at`
	err := q.db.QueryRow(ctx, query, wallet.ID, wallet.UserID, wallet.BalancePaise).
		Scan(&wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}
	return nil
}

func (q *Queries) GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	query := `SELECT id, user_id, balance_paise, created_at, updated_at FROM wallets WHERE id = $1`
	err := q.db.QueryRow(ctx, query, id).
		Scan(&wallet.ID, &wallet.UserID, &wallet.BalancePaise, &wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (q *Queries) GetWalletByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	query := `SELECT id, user_id, balance_paise, created_at, updated_at FROM wallets WHERE user_id = $1`
	err := q.db.QueryRow(ctx, query, userID).
		Scan(&wallet.ID, &wallet.UserID, &wallet.BalancePaise, &wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// DebitWallet decrements the balance only if it stays non-negative, in a
// single statement. Returns the number of affected rows: zero means the
// balance was too low or the wallet does not exist.
func (q *Queries) DebitWallet(ctx context.Context, id uuid.UUID, amountPaise int64) (int64, error) {
	query := `UPDATE wallets
		SET balance_paise = balance_paise - $2, updated_at = NOW()
		WHERE id = $1 AND balance_paise >= $2`
	tag, err := q.db.Exec(ctx, query, id, amountPaise)
	if err != nil {
		return 0, fmt.Errorf("debit wallet: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CreditWallet increments the balance. Zero affected rows means the wallet
// does not exist.
func (q *Queries) CreditWallet(ctx context.Context, id uuid.UUID, amountPaise int64) (int64, error) {
	query := `UPDATE wallets
		SET balance_paise = balance_paise + $2, updated_at = NOW()
		WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, id, amountPaise)
	if err != nil {
		return 0, fmt.Errorf("credit wallet: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) GetWalletBalance(ctx context.Context, id uuid.UUID) (int64, error) {
	var balance int64
	err := q.db.QueryRow(ctx, `SELECT balance_paise FROM wallets WHERE id = $1`, id).Scan(&balance)
	if err != nil {
		return 0, err
	}
	return balance, nil
}
