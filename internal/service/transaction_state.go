package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finovo/recharge-wallet/internal/domain"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/finovo/recharge-wallet/internal/observability"
	"github.com/finovo/recharge-wallet/internal/repository"
	"github.com/google/uuid"
)

// transactionTransitions is the full lifecycle table. Any (from, to) pair
// not listed is rejected with ErrInvalidTransition.
var transactionTransitions = map[string]map[string]struct{}{
	domain.TxStatusPending: {
		domain.TxStatusApproved: {},
		domain.TxStatusFailed:   {},
	},
	domain.TxStatusAwaitingApproval: {
		domain.TxStatusApproved: {},
		domain.TxStatusRejected: {},
	},
	domain.TxStatusApproved: {
		domain.TxStatusRejected: {},
	},
	domain.TxStatusRejected: {
		domain.TxStatusApproved: {},
	},
	domain.TxStatusFailed: {},
}

type ledgerEffect int

const (
	effectNone ledgerEffect = iota
	effectCredit
	effectDebit
)

func normalizeState(state string) string {
	return strings.ToLower(strings.TrimSpace(state))
}

func canTransition(current, next string) bool {
	current = normalizeState(current)
	next = normalizeState(next)
	nextStates, ok := transactionTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}

// transitionEffect returns the compensating ledger side effect of an edge.
// The wallet is debited exactly once per period spent approved-equivalent and
// credited exactly once per period spent rejected/failed after a debit.
func transitionEffect(current, next string) ledgerEffect {
	current = normalizeState(current)
	next = normalizeState(next)
	switch {
	case next == domain.TxStatusRejected:
		return effectCredit
	case current == domain.TxStatusPending && next == domain.TxStatusFailed:
		return effectCredit
	case current == domain.TxStatusRejected && next == domain.TxStatusApproved:
		return effectDebit
	default:
		return effectNone
	}
}

type transitionRequest struct {
	transactionID uuid.UUID
	nextState     string
	actorID       *uuid.UUID
	action        string
	notes         *string
	metadata      []byte
}

// transitionTransactionState applies one edge of the lifecycle table and its
// ledger side effect as a single unit of work. It must run inside a database
// transaction: either the status write and the ledger call both commit, or
// neither does. Re-applying the current state is reported as
// ErrAlreadyProcessed and performs zero ledger mutations.
func transitionTransactionState(ctx context.Context, qtx *repository.Queries, audit *AuditService, req transitionRequest) error {
	tx, err := qtx.GetTransactionForUpdate(ctx, req.transactionID)
	if err != nil {
		return fmt.Errorf("get transaction for update: %w", err)
	}

	currentState := normalizeState(tx.Status)
	nextState := normalizeState(req.nextState)

	if currentState == nextState {
		return models.ErrAlreadyProcessed
	}
	if !canTransition(currentState, nextState) {
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, currentState, nextState)
	}

	switch transitionEffect(currentState, nextState) {
	case effectCredit:
		if err := creditWallet(ctx, qtx, tx.WalletID, tx.AmountPaise); err != nil {
			return fmt.Errorf("refund wallet for transition %s -> %s: %w", currentState, nextState, err)
		}
	case effectDebit:
		if err := debitWallet(ctx, qtx, tx.WalletID, tx.AmountPaise); err != nil {
			return fmt.Errorf("re-debit wallet for transition %s -> %s: %w", currentState, nextState, err)
		}
	}

	params := repository.UpdateTransactionStatusParams{
		ID:            req.transactionID,
		Status:        nextState,
		ApprovedBy:    req.actorID,
		ApprovalNotes: req.notes,
	}
	if req.actorID != nil {
		now := time.Now().UTC()
		params.ApprovalDate = &now
	}
	rows, err := qtx.UpdateTransactionStatus(ctx, params)
	if err != nil {
		return fmt.Errorf("update transaction state: %w", err)
	}
	if err := requireExactlyOne(rows, "update transaction state"); err != nil {
		return err
	}

	if err := audit.Write(ctx, qtx, "transaction", req.transactionID, req.actorID, req.action, currentState, nextState, req.metadata); err != nil {
		return err
	}

	observability.IncrementTransition(currentState, nextState)
	return nil
}
