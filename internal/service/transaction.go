package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finovo/recharge-wallet/internal/domain"
	"github.com/finovo/recharge-wallet/internal/gateway"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/finovo/recharge-wallet/internal/observability"
	"github.com/finovo/recharge-wallet/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TransactionService owns the transaction lifecycle: creation with the
// initial wallet debit, admin approval decisions, and provider status
// mapping. Every state change goes through the lifecycle table so ledger
// side effects stay consistent with the recorded state.
type TransactionService struct {
	store       QueryStore
	commissions *CommissionService
	charges     *ChargeSlabService
	operators   *OperatorService
	audit       *AuditService
	gw          gateway.Gateway

	// initiateTimeout bounds the synchronous provider call made after a
	// transaction commits.
	initiateTimeout time.Duration
}

func NewTransactionService(
	store QueryStore,
	commissions *CommissionService,
	charges *ChargeSlabService,
	operators *OperatorService,
	audit *AuditService,
	gw gateway.Gateway,
	initiateTimeout time.Duration,
) *TransactionService {
	if initiateTimeout <= 0 {
		initiateTimeout = 15 * time.Second
	}
	return &TransactionService{
		store:           store,
		commissions:     commissions,
		charges:         charges,
		operators:       operators,
		audit:           audit,
		gw:              gw,
		initiateTimeout: initiateTimeout,
	}
}

type CreateTransactionRequest struct {
	UserID       uuid.UUID
	WalletID     uuid.UUID
	Type         string
	OperatorCode string
	AmountPaise  int64
	TransferMode string
	ReferenceID  string
}

// Create runs the full creation sequence: validate against the operator
// config, annotate commission and charge, debit the wallet and insert the
// transaction in one database transaction, then for api-mode operators hand
// the transaction to the provider. The debit happens exactly once; if it
// fails, no transaction record exists.
func (s *TransactionService) Create(ctx context.Context, req CreateTransactionRequest) (*models.Transaction, error) {
	if !domain.ValidTxType(req.Type) {
		return nil, fmt.Errorf("unknown transaction type %q", req.Type)
	}
	if req.AmountPaise <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.AmountPaise)
	}
	var transferMode *string
	if domain.IsTransferType(req.Type) {
		if !domain.ValidTransferMode(req.TransferMode) {
			return nil, fmt.Errorf("transfer transactions require a transfer mode, got %q", req.TransferMode)
		}
		transferMode = &req.TransferMode
	}

	op, err := s.operators.GetOperator(ctx, req.OperatorCode)
	if err != nil {
		return nil, err
	}
	if !op.IsActive {
		return nil, models.ErrOperatorInactive
	}
	if op.TransactionType != req.Type {
		return nil, fmt.Errorf("operator %s does not serve %s transactions", op.OperatorCode, req.Type)
	}
	if req.AmountPaise < op.MinAmountPaise || req.AmountPaise > op.MaxAmountPaise {
		return nil, fmt.Errorf("amount %d outside operator range [%d, %d]",
			req.AmountPaise, op.MinAmountPaise, op.MaxAmountPaise)
	}

	// A replayed reference returns the original row untouched.
	referenceID := req.ReferenceID
	if referenceID == "" {
		referenceID = uuid.NewString()
	} else {
		existing, err := s.store.Queries().GetTransactionByReference(ctx, referenceID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("check reference %q: %w", referenceID, err)
		}
	}

	commissionPaise, err := s.commissions.Resolve(ctx, req.UserID, req.OperatorCode, req.Type, req.AmountPaise)
	if err != nil {
		return nil, fmt.Errorf("resolve commission: %w", err)
	}
	var chargePaise int64
	if transferMode != nil {
		chargePaise, err = s.charges.FindCharge(ctx, req.AmountPaise, *transferMode)
		if err != nil {
			return nil, err
		}
	}

	initialStatus := initialTransactionStatus(op, req.AmountPaise)

	var tx *models.Transaction
	err = s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		if err := debitWallet(ctx, qtx, req.WalletID, req.AmountPaise); err != nil {
			return err
		}
		var err error
		tx, err = qtx.CreateTransaction(ctx, repository.CreateTransactionParams{
			ID:              uuid.New(),
			WalletID:        req.WalletID,
			Type:            req.Type,
			OperatorCode:    req.OperatorCode,
			AmountPaise:     req.AmountPaise,
			TransferMode:    transferMode,
			Status:          initialStatus,
			CommissionPaise: commissionPaise,
			ChargePaise:     chargePaise,
			ReferenceID:     referenceID,
		})
		if err != nil {
			return err
		}
		return s.audit.Write(ctx, qtx, "transaction", tx.ID, nil, "created", "", initialStatus, nil)
	})
	if err != nil {
		return nil, err
	}

	if op.ProcessingMode == domain.ProcessingModeAPI {
		return s.initiateWithProvider(ctx, tx)
	}
	return tx, nil
}

// initialTransactionStatus applies the creation rule: api-mode operators
// start pending and settle via the provider; manual operators auto-approve
// up to the configured limit and queue for review above it.
func initialTransactionStatus(op *models.OperatorConfig, amountPaise int64) string {
	if op.ProcessingMode == domain.ProcessingModeAPI {
		return domain.TxStatusPending
	}
	if !op.RequiresApproval || amountPaise <= op.AutoApprovePaise {
		return domain.TxStatusApproved
	}
	return domain.TxStatusAwaitingApproval
}

// initiateWithProvider registers a committed pending transaction with the
// provider. A hard failure moves the transaction to failed, refunding the
// wallet; a synchronous success settles it immediately. Transient provider
// statuses leave it pending for the status poller.
func (s *TransactionService) initiateWithProvider(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.initiateTimeout)
	defer cancel()

	mode := ""
	if tx.TransferMode != nil {
		mode = *tx.TransferMode
	}
	result, err := s.gw.Initiate(callCtx, gateway.InitiateRequest{
		TransactionID: tx.ID.String(),
		OperatorCode:  tx.OperatorCode,
		Type:          tx.Type,
		AmountPaise:   tx.AmountPaise,
		TransferMode:  mode,
		ReferenceID:   tx.ReferenceID,
	})
	if err != nil {
		zap.L().Warn("provider initiation failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("operator_code", tx.OperatorCode),
			zap.Error(err))
		if ferr := s.failTransaction(ctx, tx.ID, "provider initiation failed"); ferr != nil {
			return nil, fmt.Errorf("mark transaction failed after initiation error: %w", ferr)
		}
		return s.Get(ctx, tx.ID)
	}

	if result.ExternalRef != "" {
		if _, err := s.store.Queries().SetTransactionExternalRef(ctx, tx.ID, result.ExternalRef); err != nil {
			return nil, err
		}
	}

	switch result.Status {
	case domain.GatewayStatusSuccess:
		err = s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
			return transitionTransactionState(ctx, qtx, s.audit, transitionRequest{
				transactionID: tx.ID,
				nextState:     domain.TxStatusApproved,
				action:        "provider-settled",
			})
		})
		if err != nil && !errors.Is(err, models.ErrAlreadyProcessed) {
			return nil, err
		}
	case domain.GatewayStatusFailed:
		if err := s.failTransaction(ctx, tx.ID, "provider declined"); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, tx.ID)
}

func (s *TransactionService) failTransaction(ctx context.Context, id uuid.UUID, reason string) error {
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		return transitionTransactionState(ctx, qtx, s.audit, transitionRequest{
			transactionID: id,
			nextState:     domain.TxStatusFailed,
			action:        "provider-failed",
			notes:         textParam(reason),
		})
	})
	if errors.Is(err, models.ErrAlreadyProcessed) {
		return nil
	}
	return err
}

// Approve settles an awaiting or previously rejected transaction. Approving
// from rejected re-debits the wallet; re-approving an approved transaction
// is a no-op reported as ErrAlreadyProcessed.
func (s *TransactionService) Approve(ctx context.Context, id uuid.UUID, actorID uuid.UUID, notes string) (*models.Transaction, error) {
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		return transitionTransactionState(ctx, qtx, s.audit, transitionRequest{
			transactionID: id,
			nextState:     domain.TxStatusApproved,
			actorID:       &actorID,
			action:        "approved",
			notes:         textParam(notes),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Reject declines a transaction and refunds the wallet. Rejecting an
// already approved transaction reverses its debit.
func (s *TransactionService) Reject(ctx context.Context, id uuid.UUID, actorID uuid.UUID, notes string) (*models.Transaction, error) {
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		return transitionTransactionState(ctx, qtx, s.audit, transitionRequest{
			transactionID: id,
			nextState:     domain.TxStatusRejected,
			actorID:       &actorID,
			action:        "rejected",
			notes:         textParam(notes),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ApplyProviderStatus maps a provider-reported status onto the lifecycle.
// Success settles the transaction; failure refunds it. Transient statuses
// and repeats of the recorded state change nothing.
func (s *TransactionService) ApplyProviderStatus(ctx context.Context, id uuid.UUID, providerStatus string) error {
	var nextState string
	switch providerStatus {
	case domain.GatewayStatusSuccess:
		nextState = domain.TxStatusApproved
	case domain.GatewayStatusFailed:
		tx, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		// A settled transaction reported failed afterwards is reversed;
		// an unsettled one simply fails.
		if normalizeState(tx.Status) == domain.TxStatusApproved {
			nextState = domain.TxStatusRejected
		} else {
			nextState = domain.TxStatusFailed
		}
	case domain.GatewayStatusPending, domain.GatewayStatusProcessing:
		return nil
	default:
		return fmt.Errorf("unknown provider status %q", providerStatus)
	}

	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		return transitionTransactionState(ctx, qtx, s.audit, transitionRequest{
			transactionID: id,
			nextState:     nextState,
			action:        "provider-status",
			notes:         textParam("provider reported " + providerStatus),
		})
	})
	if errors.Is(err, models.ErrAlreadyProcessed) {
		return nil
	}
	return err
}

// Get returns a transaction by id.
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, err := s.store.Queries().GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// GetByReference returns a transaction by its client reference.
func (s *TransactionService) GetByReference(ctx context.Context, referenceID string) (*models.Transaction, error) {
	tx, err := s.store.Queries().GetTransactionByReference(ctx, referenceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction by reference: %w", err)
	}
	return tx, nil
}

// List returns a wallet's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, walletID uuid.UUID, limit, offset int32) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Queries().ListTransactionsByWallet(ctx, walletID, limit, offset)
}

// ListAwaitingApproval returns the manual review queue, oldest first, and
// refreshes the queue-size gauge.
func (s *TransactionService) ListAwaitingApproval(ctx context.Context, limit, offset int32) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	txs, err := s.store.Queries().ListTransactionsByStatus(ctx, domain.TxStatusAwaitingApproval, limit, offset)
	if err != nil {
		return nil, err
	}
	if count, err := s.store.Queries().CountTransactionsByStatus(ctx, domain.TxStatusAwaitingApproval); err == nil {
		observability.SetApprovalQueueSize(count)
	}
	return txs, nil
}

// UnresolvedProviderTransactions returns pending provider-held transactions
// quiescent since before cutoff, for the status poller.
func (s *TransactionService) UnresolvedProviderTransactions(ctx context.Context, cutoff time.Time, limit int32) ([]models.Transaction, error) {
	return s.store.Queries().GetUnresolvedProviderTransactions(ctx, cutoff, limit)
}
