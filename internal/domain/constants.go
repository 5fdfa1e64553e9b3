package domain

const (
	TxTypeMobileRecharge = "mobile-recharge"
	TxTypeDTHRecharge    = "dth-recharge"
	TxTypeBillPayment    = "bill-payment"
	TxTypeMoneyTransfer  = "money-transfer"
	TxTypeWalletTopup    = "wallet-topup"

	TxStatusPending          = "pending"
	TxStatusAwaitingApproval = "awaiting_approval"
	TxStatusApproved         = "approved"
	TxStatusRejected         = "rejected"
	TxStatusFailed           = "failed"

	TransferModeIMPS = "IMPS"
	TransferModeNEFT = "NEFT"

	ProcessingModeManual = "manual"
	ProcessingModeAPI    = "api"

	CommissionTypePercentage = "percentage"
	CommissionTypeFixed      = "fixed"

	CommissionScopeGlobal = "global"
	CommissionScopeScheme = "scheme"
	CommissionScopeUser   = "user"

	// Gateway-side statuses reported by providers.
	GatewayStatusPending    = "pending"
	GatewayStatusProcessing = "processing"
	GatewayStatusSuccess    = "success"
	GatewayStatusFailed     = "failed"
)

// IsTransferType reports whether the transaction type settles over a bank
// transfer rail and therefore carries a charge slab fee.
func IsTransferType(txType string) bool {
	return txType == TxTypeMoneyTransfer
}

// ValidTxType reports whether t is a known transaction type.
func ValidTxType(t string) bool {
	switch t {
	case TxTypeMobileRecharge, TxTypeDTHRecharge, TxTypeBillPayment, TxTypeMoneyTransfer, TxTypeWalletTopup:
		return true
	}
	return false
}

// ValidTransferMode reports whether m is a supported transfer rail.
func ValidTransferMode(m string) bool {
	return m == TransferModeIMPS || m == TransferModeNEFT
}
