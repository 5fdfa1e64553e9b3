package models

import "errors"

var (
	// ErrInsufficientBalance means a debit precondition failed. It blocks
	// transaction creation and re-approval debits.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrWalletNotFound means a debit/credit target does not exist.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInvalidTransition means the requested status change is not in the
	// transition table. Callers must not retry it.
	ErrInvalidTransition = errors.New("invalid transaction state transition")

	// ErrAlreadyProcessed signals a duplicate terminal action; the ledger
	// was not touched again.
	ErrAlreadyProcessed = errors.New("transaction already processed")

	// ErrNoApplicableSlab means no active charge slab covers the amount.
	ErrNoApplicableSlab = errors.New("no applicable charge slab")

	// ErrSlabOverlap means a slab write would intersect an existing active
	// slab of the same transfer mode.
	ErrSlabOverlap = errors.New("charge slab range overlaps an existing slab")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrOperatorNotFound    = errors.New("operator not found")
	ErrOperatorInactive    = errors.New("operator is inactive")
)
