package gateway

import "context"

// InitiateRequest carries the fields a provider needs to execute a
// transaction. Wire-level details (signing, field names) live behind the
// implementation.
type InitiateRequest struct {
	TransactionID string
	OperatorCode  string
	Type          string
	AmountPaise   int64
	TransferMode  string
	ReferenceID   string
}

// InitiateResult is the provider's synchronous answer to Initiate.
type InitiateResult struct {
	ExternalRef string
	Status      string // pending | processing | success | failed
}

// StatusResult is the provider's answer to a status query.
type StatusResult struct {
	Status string // pending | processing | success | failed
}

// Gateway is the payment provider adapter consumed by the state machine and
// the status poller.
type Gateway interface {
	// Initiate registers a transaction with the provider and returns its
	// external reference and initial status.
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error)

	// CheckStatus queries the provider for the current status of a
	// previously initiated transaction.
	CheckStatus(ctx context.Context, externalRef string) (StatusResult, error)
}
