package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/finovo/recharge-wallet/internal/domain"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/finovo/recharge-wallet/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTopupService(store *repository.Store) *TopupService {
	return NewTopupService(store, NewAuditService(store), "topup-test-key", false)
}

func signBody(key string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	svc := NewTopupService(nil, nil, "topup-test-key", false)
	body := []byte(`{"reference_id":"abc","amount_paise":5000,"status":"success"}`)

	require.NoError(t, svc.VerifySignature(body, signBody("topup-test-key", body)))
	require.ErrorIs(t, svc.VerifySignature(body, signBody("wrong-key", body)), ErrInvalidSignature)
	require.ErrorIs(t, svc.VerifySignature(body, "not-hex"), ErrInvalidSignature)

	relaxed := NewTopupService(nil, nil, "topup-test-key", true)
	require.NoError(t, relaxed.VerifySignature(body, ""), "verification disabled")
}

func TestTopupInitiateLeavesBalanceUntouched(t *testing.T) {
	store := newTestStore(t)
	svc := newTopupService(store)
	ctx := context.Background()

	wallet := createTestWallet(t, store, 10_000)

	tx, err := svc.Initiate(ctx, wallet.ID, 50_000)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
	assert.Equal(t, domain.TxTypeWalletTopup, tx.Type)
	assert.EqualValues(t, 10_000, walletBalance(t, store, wallet.ID))
}

func TestTopupInitiateValidation(t *testing.T) {
	store := newTestStore(t)
	svc := newTopupService(store)
	ctx := context.Background()

	_, err := svc.Initiate(ctx, uuid.New(), 50_000)
	require.ErrorIs(t, err, models.ErrWalletNotFound)

	wallet := createTestWallet(t, store, 0)
	_, err = svc.Initiate(ctx, wallet.ID, 0)
	require.Error(t, err)
}

func TestTopupConfirmSuccessCreditsOnce(t *testing.T) {
	store := newTestStore(t)
	svc := newTopupService(store)
	ctx := context.Background()

	wallet := createTestWallet(t, store, 10_000)
	tx, err := svc.Initiate(ctx, wallet.ID, 50_000)
	require.NoError(t, err)

	conf := TopupConfirmation{
		ReferenceID: tx.ReferenceID,
		ExternalRef: "PSP-123",
		AmountPaise: 50_000,
		Status:      domain.GatewayStatusSuccess,
	}
	settled, err := svc.Confirm(ctx, conf)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusApproved, settled.Status)
	require.NotNil(t, settled.ExternalRef)
	assert.Equal(t, "PSP-123", *settled.ExternalRef)
	assert.EqualValues(t, 60_000, walletBalance(t, store, wallet.ID))

	// Webhook replay settles nothing a second time.
	settled, err = svc.Confirm(ctx, conf)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusApproved, settled.Status)
	assert.EqualValues(t, 60_000, walletBalance(t, store, wallet.ID))
}

func TestTopupConfirmFailure(t *testing.T) {
	store := newTestStore(t)
	svc := newTopupService(store)
	ctx := context.Background()

	wallet := createTestWallet(t, store, 10_000)
	tx, err := svc.Initiate(ctx, wallet.ID, 50_000)
	require.NoError(t, err)

	settled, err := svc.Confirm(ctx, TopupConfirmation{
		ReferenceID: tx.ReferenceID,
		AmountPaise: 50_000,
		Status:      domain.GatewayStatusFailed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusFailed, settled.Status)
	assert.EqualValues(t, 10_000, walletBalance(t, store, wallet.ID))

	// A success report after the failure is an invalid transition, not a
	// late credit.
	_, err = svc.Confirm(ctx, TopupConfirmation{
		ReferenceID: tx.ReferenceID,
		AmountPaise: 50_000,
		Status:      domain.GatewayStatusSuccess,
	})
	require.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.EqualValues(t, 10_000, walletBalance(t, store, wallet.ID))
}

func TestTopupConfirmMismatch(t *testing.T) {
	store := newTestStore(t)
	svc := newTopupService(store)
	ctx := context.Background()

	wallet := createTestWallet(t, store, 0)
	tx, err := svc.Initiate(ctx, wallet.ID, 50_000)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, TopupConfirmation{
		ReferenceID: tx.ReferenceID,
		AmountPaise: 99_000,
		Status:      domain.GatewayStatusSuccess,
	})
	require.ErrorIs(t, err, ErrTopupMismatch)

	_, err = svc.Confirm(ctx, TopupConfirmation{
		ReferenceID: uuid.NewString(),
		AmountPaise: 50_000,
		Status:      domain.GatewayStatusSuccess,
	})
	require.ErrorIs(t, err, models.ErrTransactionNotFound)
}
