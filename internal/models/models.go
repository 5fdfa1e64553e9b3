package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Wallet holds a user's stored-value balance in paise. Balance is mutated
// only through the ledger's atomic debit/credit statements.
type Wallet struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	BalancePaise int64     `json:"balance_paise"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Transaction is one recharge/transfer/bill-payment request and its
// resolution history. Amount is immutable after creation; the row is never
// deleted.
type Transaction struct {
	ID              uuid.UUID  `json:"id"`
	WalletID        uuid.UUID  `json:"wallet_id"`
	Type            string     `json:"type"`
	OperatorCode    string     `json:"operator_code"`
	AmountPaise     int64      `json:"amount_paise"`
	TransferMode    *string    `json:"transfer_mode,omitempty"`
	Status          string     `json:"status"`
	CommissionPaise int64      `json:"commission_paise"`
	ChargePaise     int64      `json:"charge_paise"`
	ExternalRef     *string    `json:"external_ref,omitempty"`
	ApprovedBy      *uuid.UUID `json:"approved_by,omitempty"`
	ApprovalNotes   *string    `json:"approval_notes,omitempty"`
	ApprovalDate    *time.Time `json:"approval_date,omitempty"`
	ReferenceID     string     `json:"reference_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CommissionScheme groups scheme-scoped commission rules. At most one scheme
// is flagged default among active schemes.
type CommissionScheme struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CommissionRule resolves the margin owed for a transaction. Scope is
// global, scheme (via SchemeID) or user (via UserID). Value is a percentage
// or a fixed rupee amount depending on CommissionType; Min/MaxCommission
// clamp the computed result when set.
type CommissionRule struct {
	ID              uuid.UUID  `json:"id"`
	Scope           string     `json:"scope"`
	SchemeID        *uuid.UUID `json:"scheme_id,omitempty"`
	UserID          *uuid.UUID `json:"user_id,omitempty"`
	OperatorCode    string     `json:"operator_code"`
	TransactionType string     `json:"transaction_type"`
	CommissionType  string     `json:"commission_type"`
	Value           string     `json:"value"`
	MinCommission   *string    `json:"min_commission,omitempty"`
	MaxCommission   *string    `json:"max_commission,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ChargeSlab is a tiered flat fee keyed by amount range and transfer mode.
// Active slabs of one transfer mode must not overlap.
type ChargeSlab struct {
	ID             uuid.UUID `json:"id"`
	MinAmountPaise int64     `json:"min_amount_paise"`
	MaxAmountPaise int64     `json:"max_amount_paise"`
	ChargePaise    int64     `json:"charge_paise"`
	TransferMode   string    `json:"transfer_mode"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// OperatorConfig selects manual versus api fulfillment per operator and
// bounds the accepted amount range. Provider settings are explicit and
// validated at startup; nothing is probed or guessed at request time.
type OperatorConfig struct {
	ID                uuid.UUID `json:"id"`
	OperatorCode      string    `json:"operator_code"`
	Name              string    `json:"name"`
	TransactionType   string    `json:"transaction_type"`
	ProcessingMode    string    `json:"processing_mode"`
	AutoApprovePaise  int64     `json:"auto_approve_paise"`
	RequiresApproval  bool      `json:"requires_approval"`
	MinAmountPaise    int64     `json:"min_amount_paise"`
	MaxAmountPaise    int64     `json:"max_amount_paise"`
	StatusEndpoint    string    `json:"status_endpoint"`
	FieldMapVersion   int       `json:"field_map_version"`
	FieldMap          []byte    `json:"field_map,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
