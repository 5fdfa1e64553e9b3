package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/finovo/recharge-wallet/internal/observability"
	"github.com/finovo/recharge-wallet/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletService is the ledger: the only component allowed to mutate wallet
// balances, and only through single-statement conditional updates.
type WalletService struct {
	store QueryStore
}

func NewWalletService(store QueryStore) *WalletService {
	return &WalletService{store: store}
}

// debitWallet applies an atomic conditional decrement through q. The check
// and the write are one statement; there is no read-then-write window for
// concurrent debits to exploit.
func debitWallet(ctx context.Context, q *repository.Queries, walletID uuid.UUID, amountPaise int64) error {
	if amountPaise <= 0 {
		return fmt.Errorf("invalid debit amount: %d", amountPaise)
	}
	rows, err := q.DebitWallet(ctx, walletID, amountPaise)
	if err != nil {
		observability.IncrementLedgerOp("debit", "error")
		return err
	}
	if rows == 1 {
		observability.IncrementLedgerOp("debit", "ok")
		return nil
	}

	// Zero rows: either the balance was too low or the wallet is missing.
	if _, err := q.GetWalletBalance(ctx, walletID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			observability.IncrementLedgerOp("debit", "wallet_not_found")
			return models.ErrWalletNotFound
		}
		return fmt.Errorf("load wallet after failed debit: %w", err)
	}
	observability.IncrementLedgerOp("debit", "insufficient_balance")
	return models.ErrInsufficientBalance
}

// creditWallet applies an atomic increment through q.
func creditWallet(ctx context.Context, q *repository.Queries, walletID uuid.UUID, amountPaise int64) error {
	if amountPaise <= 0 {
		return fmt.Errorf("invalid credit amount: %d", amountPaise)
	}
	rows, err := q.CreditWallet(ctx, walletID, amountPaise)
	if err != nil {
		observability.IncrementLedgerOp("credit", "error")
		return err
	}
	if rows == 0 {
		observability.IncrementLedgerOp("credit", "wallet_not_found")
		return models.ErrWalletNotFound
	}
	observability.IncrementLedgerOp("credit", "ok")
	return nil
}

// Debit atomically decrements the wallet balance, failing with
// ErrInsufficientBalance when the balance cannot cover the amount.
func (s *WalletService) Debit(ctx context.Context, walletID uuid.UUID, amountPaise int64) error {
	return debitWallet(ctx, s.store.Queries(), walletID, amountPaise)
}

// Credit atomically increments the wallet balance.
func (s *WalletService) Credit(ctx context.Context, walletID uuid.UUID, amountPaise int64) error {
	return creditWallet(ctx, s.store.Queries(), walletID, amountPaise)
}

// Balance returns the current balance in paise.
func (s *WalletService) Balance(ctx context.Context, walletID uuid.UUID) (int64, error) {
	balance, err := s.store.Queries().GetWalletBalance(ctx, walletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrWalletNotFound
		}
		return 0, fmt.Errorf("get wallet balance: %w", err)
	}
	return balance, nil
}

// CreateWallet provisions a wallet for a user. Balances start at zero unless
// seeded explicitly (tests, migrations).
func (s *WalletService) CreateWallet(ctx context.Context, userID uuid.UUID, openingPaise int64) (*models.Wallet, error) {
	if openingPaise < 0 {
		return nil, fmt.Errorf("opening balance must be non-negative")
	}
	wallet := &models.Wallet{
		ID:           uuid.New(),
		UserID:       userID,
		BalancePaise: openingPaise,
	}
	if err := s.store.Queries().CreateWallet(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

// GetWallet returns the wallet row.
func (s *WalletService) GetWallet(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.store.Queries().GetWallet(ctx, walletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return wallet, nil
}
