package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/finovo/recharge-wallet/internal/domain"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/finovo/recharge-wallet/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TopupService funds wallets from a payment collector. A topup is the
// credit-leg counterpart of a recharge: the transaction is recorded pending
// with no ledger movement, and the wallet is credited only when the
// collector's signed webhook confirms payment.
type TopupService struct {
	store   QueryStore
	audit   *AuditService
	hmacKey []byte

	// skipSignature disables webhook verification. Local development only.
	skipSignature bool
}

func NewTopupService(store QueryStore, audit *AuditService, hmacKey string, skipSignature bool) *TopupService {
	return &TopupService{
		store:         store,
		audit:         audit,
		hmacKey:       []byte(hmacKey),
		skipSignature: skipSignature,
	}
}

var (
	ErrInvalidSignature = errors.New("webhook signature mismatch")
	ErrTopupMismatch    = errors.New("topup confirmation does not match the recorded transaction")
)

const topupOperatorCode = "wallet-topup"

// Initiate records a pending topup. Nothing moves on the ledger until the
// collector confirms.
func (s *TopupService) Initiate(ctx context.Context, walletID uuid.UUID, amountPaise int64) (*models.Transaction, error) {
	if amountPaise <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amountPaise)
	}
	if _, err := s.store.Queries().GetWallet(ctx, walletID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	var tx *models.Transaction
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		var err error
		tx, err = qtx.CreateTransaction(ctx, repository.CreateTransactionParams{
			ID:           uuid.New(),
			WalletID:     walletID,
			Type:         domain.TxTypeWalletTopup,
			OperatorCode: topupOperatorCode,
			AmountPaise:  amountPaise,
			Status:       domain.TxStatusPending,
			ReferenceID:  uuid.NewString(),
		})
		if err != nil {
			return err
		}
		return s.audit.Write(ctx, qtx, "transaction", tx.ID, nil, "topup-initiated", "", domain.TxStatusPending, nil)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// VerifySignature checks the hex-encoded HMAC-SHA256 of the raw webhook
// body against the shared key.
func (s *TopupService) VerifySignature(body []byte, signature string) error {
	if s.skipSignature {
		return nil
	}
	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

type TopupConfirmation struct {
	ReferenceID string `json:"reference_id"`
	ExternalRef string `json:"external_ref"`
	AmountPaise int64  `json:"amount_paise"`
	Status      string `json:"status"` // success | failed
}

// Confirm settles a pending topup from a verified webhook. Success credits
// the wallet and approves the transaction as one unit; failure just marks
// it failed. Replays of a settled topup change nothing.
func (s *TopupService) Confirm(ctx context.Context, conf TopupConfirmation) (*models.Transaction, error) {
	tx, err := s.store.Queries().GetTransactionByReference(ctx, conf.ReferenceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get topup by reference: %w", err)
	}
	if tx.Type != domain.TxTypeWalletTopup || tx.AmountPaise != conf.AmountPaise {
		return nil, ErrTopupMismatch
	}

	var nextState string
	switch conf.Status {
	case domain.GatewayStatusSuccess:
		nextState = domain.TxStatusApproved
	case domain.GatewayStatusFailed:
		nextState = domain.TxStatusFailed
	default:
		return nil, fmt.Errorf("unknown topup status %q", conf.Status)
	}

	err = s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		locked, err := qtx.GetTransactionForUpdate(ctx, tx.ID)
		if err != nil {
			return fmt.Errorf("get topup for update: %w", err)
		}
		if normalizeState(locked.Status) == nextState {
			return models.ErrAlreadyProcessed
		}
		if normalizeState(locked.Status) != domain.TxStatusPending {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, locked.Status, nextState)
		}

		// Topups carry no creation-time debit, so the credit happens here
		// rather than through the lifecycle effect table.
		if nextState == domain.TxStatusApproved {
			if err := creditWallet(ctx, qtx, locked.WalletID, locked.AmountPaise); err != nil {
				return fmt.Errorf("credit wallet for topup: %w", err)
			}
		}
		if conf.ExternalRef != "" {
			if _, err := qtx.SetTransactionExternalRef(ctx, locked.ID, conf.ExternalRef); err != nil {
				return err
			}
		}
		rows, err := qtx.UpdateTransactionStatus(ctx, repository.UpdateTransactionStatusParams{
			ID:     locked.ID,
			Status: nextState,
		})
		if err != nil {
			return fmt.Errorf("update topup status: %w", err)
		}
		if err := requireExactlyOne(rows, "update topup status"); err != nil {
			return err
		}
		return s.audit.Write(ctx, qtx, "transaction", locked.ID, nil, "topup-"+conf.Status, domain.TxStatusPending, nextState, nil)
	})
	if err != nil && !errors.Is(err, models.ErrAlreadyProcessed) {
		return nil, err
	}
	return s.store.Queries().GetTransaction(ctx, tx.ID)
}
