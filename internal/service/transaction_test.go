package service

import (
	"context"
	"errors"
	"testing"

	"github.com/finovo/recharge-wallet/internal/domain"
	"github.com/finovo/recharge-wallet/internal/gateway"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/finovo/recharge-wallet/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGateway returns canned responses so lifecycle tests are deterministic.
type stubGateway struct {
	initiateResult gateway.InitiateResult
	initiateErr    error
	statusResult   gateway.StatusResult
	statusErr      error
	initiateCalls  int
}

func (s *stubGateway) Initiate(ctx context.Context, req gateway.InitiateRequest) (gateway.InitiateResult, error) {
	s.initiateCalls++
	return s.initiateResult, s.initiateErr
}

func (s *stubGateway) CheckStatus(ctx context.Context, externalRef string) (gateway.StatusResult, error) {
	return s.statusResult, s.statusErr
}

func newTransactionService(store *repository.Store, gw gateway.Gateway) *TransactionService {
	audit := NewAuditService(store)
	return NewTransactionService(
		store,
		NewCommissionService(store),
		NewChargeSlabService(store),
		NewOperatorService(store),
		audit,
		gw,
		0,
	)
}

func TestCreateManualQueuesForApproval(t *testing.T) {
	store := newTestStore(t)
	svc := newTransactionService(store, &stubGateway{})
	wallet := createTestWallet(t, store, 50_000)
	op := createTestOperator(t, store)

	tx, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusAwaitingApproval, tx.Status)
	assert.EqualValues(t, 30_000, walletBalance(t, store, wallet.ID))
}

func TestCreateManualAutoApproves(t *testing.T) {
	store := newTestStore(t)
	svc := newTransactionService(store, &stubGateway{})
	wallet := createTestWallet(t, store, 50_000)
	op := createTestOperator(t, store, func(o *models.OperatorConfig) {
		o.AutoApprovePaise = 25_000
	})

	tx, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusApproved, tx.Status)
	assert.EqualValues(t, 30_000, walletBalance(t, store, wallet.ID))
}

func TestCreateInsufficientBalanceLeavesNoRecord(t *testing.T) {
	store := newTestStore(t)
	svc := newTransactionService(store, &stubGateway{})
	wallet := createTestWallet(t, store, 5_000)
	op := createTestOperator(t, store)

	_, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
	})
	require.ErrorIs(t, err, models.ErrInsufficientBalance)
	assert.EqualValues(t, 5_000, walletBalance(t, store, wallet.ID))

	txs, err := store.Queries().ListTransactionsByWallet(context.Background(), wallet.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCreateReplaysExistingReference(t *testing.T) {
	store := newTestStore(t)
	svc := newTransactionService(store, &stubGateway{})
	wallet := createTestWallet(t, store, 50_000)
	op := createTestOperator(t, store)

	req := CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
		ReferenceID:  "client-ref-1",
	}
	first, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// The wallet is debited exactly once.
	assert.EqualValues(t, 30_000, walletBalance(t, store, wallet.ID))
}

func TestCreateAPIModeSettlesOnSynchronousSuccess(t *testing.T) {
	store := newTestStore(t)
	gw := &stubGateway{initiateResult: gateway.InitiateResult{
		ExternalRef: "EXT-123",
		Status:      domain.GatewayStatusSuccess,
	}}
	svc := newTransactionService(store, gw)
	wallet := createTestWallet(t, store, 50_000)
	op := createTestOperator(t, store, func(o *models.OperatorConfig) {
		o.ProcessingMode = domain.ProcessingModeAPI
	})

	tx, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, gw.initiateCalls)
	assert.Equal(t, domain.TxStatusApproved, tx.Status)
	require.NotNil(t, tx.ExternalRef)
	assert.Equal(t, "EXT-123", *tx.ExternalRef)
	assert.EqualValues(t, 30_000, walletBalance(t, store, wallet.ID))
}

func TestCreateAPIModeRefundsOnInitiateError(t *testing.T) {
	store := newTestStore(t)
	gw := &stubGateway{initiateErr: errors.New("provider unreachable")}
	svc := newTransactionService(store, gw)
	wallet := createTestWallet(t, store, 50_000)
	op := createTestOperator(t, store, func(o *models.OperatorConfig) {
		o.ProcessingMode = domain.ProcessingModeAPI
	})

	tx, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusFailed, tx.Status)
	assert.EqualValues(t, 50_000, walletBalance(t, store, wallet.ID))
}

func TestCreateAPIModeStaysPendingOnTransientStatus(t *testing.T) {
	store := newTestStore(t)
	gw := &stubGateway{initiateResult: gateway.InitiateResult{
		ExternalRef: "EXT-456",
		Status:      domain.GatewayStatusProcessing,
	}}
	svc := newTransactionService(store, gw)
	wallet := createTestWallet(t, store, 50_000)
	op := createTestOperator(t, store, func(o *models.OperatorConfig) {
		o.ProcessingMode = domain.ProcessingModeAPI
	})

	tx, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
	assert.EqualValues(t, 30_000, walletBalance(t, store, wallet.ID))
}

func TestRejectRefundsAndReApproveReDebits(t *testing.T) {
	store := newTestStore(t)
	svc := newTransactionService(store, &stubGateway{})
	wallet := createTestWallet(t, store, 50_000)
	op := createTestOperator(t, store)
	admin := uuid.New()

	tx, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
	})
	require.NoError(t, err)
	require.Equal(t, domain.TxStatusAwaitingApproval, tx.Status)
	require.EqualValues(t, 30_000, walletBalance(t, store, wallet.ID))

	rejected, err := svc.Reject(context.Background(), tx.ID, admin, "suspicious")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusRejected, rejected.Status)
	assert.EqualValues(t, 50_000, walletBalance(t, store, wallet.ID))
	require.NotNil(t, rejected.ApprovedBy)
	assert.Equal(t, admin, *rejected.ApprovedBy)

	// Overturning a rejection takes the money again.
	approved, err := svc.Approve(context.Background(), tx.ID, admin, "verified after review")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusApproved, approved.Status)
	assert.EqualValues(t, 30_000, walletBalance(t, store, wallet.ID))
}

func TestApproveTwiceIsNoOp(t *testing.T) {
	store := newTestStore(t)
	svc := newTransactionService(store, &stubGateway{})
	wallet := createTestWallet(t, store, 50_000)
	op := createTestOperator(t, store)
	admin := uuid.New()

	tx, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), tx.ID, admin, "")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), tx.ID, admin, "")
	require.ErrorIs(t, err, models.ErrAlreadyProcessed)
	assert.EqualValues(t, 30_000, walletBalance(t, store, wallet.ID))
}

func TestApproveFromFailedIsRejected(t *testing.T) {
	store := newTestStore(t)
	gw := &stubGateway{initiateErr: errors.New("provider down")}
	svc := newTransactionService(store, gw)
	wallet := createTestWallet(t, store, 50_000)
	op := createTestOperator(t, store, func(o *models.OperatorConfig) {
		o.ProcessingMode = domain.ProcessingModeAPI
	})

	tx, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
	})
	require.NoError(t, err)
	require.Equal(t, domain.TxStatusFailed, tx.Status)

	// failed is terminal.
	_, err = svc.Approve(context.Background(), tx.ID, uuid.New(), "")
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestApplyProviderStatus(t *testing.T) {
	store := newTestStore(t)
	gw := &stubGateway{initiateResult: gateway.InitiateResult{
		ExternalRef: "EXT-789",
		Status:      domain.GatewayStatusPending,
	}}
	svc := newTransactionService(store, gw)
	wallet := createTestWallet(t, store, 50_000)
	op := createTestOperator(t, store, func(o *models.OperatorConfig) {
		o.ProcessingMode = domain.ProcessingModeAPI
	})

	tx, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
	})
	require.NoError(t, err)
	require.Equal(t, domain.TxStatusPending, tx.Status)

	// Transient statuses change nothing.
	require.NoError(t, svc.ApplyProviderStatus(context.Background(), tx.ID, domain.GatewayStatusProcessing))
	got, err := svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, got.Status)

	// Success settles without a second debit.
	require.NoError(t, svc.ApplyProviderStatus(context.Background(), tx.ID, domain.GatewayStatusSuccess))
	got, err = svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusApproved, got.Status)
	assert.EqualValues(t, 30_000, walletBalance(t, store, wallet.ID))

	// A late failure report reverses the settlement.
	require.NoError(t, svc.ApplyProviderStatus(context.Background(), tx.ID, domain.GatewayStatusFailed))
	got, err = svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusRejected, got.Status)
	assert.EqualValues(t, 50_000, walletBalance(t, store, wallet.ID))

	// Replaying the same report is a no-op.
	require.NoError(t, svc.ApplyProviderStatus(context.Background(), tx.ID, domain.GatewayStatusFailed))
	assert.EqualValues(t, 50_000, walletBalance(t, store, wallet.ID))
}

func TestCreateTransferAnnotatesCharge(t *testing.T) {
	store := newTestStore(t)
	svc := newTransactionService(store, &stubGateway{})
	wallet := createTestWallet(t, store, 500_000)
	op := createTestOperator(t, store, func(o *models.OperatorConfig) {
		o.TransactionType = domain.TxTypeMoneyTransfer
		o.MaxAmountPaise = 5_000_00
	})

	slabs := NewChargeSlabService(store)
	_, err := slabs.CreateSlab(context.Background(), CreateChargeSlabRequest{
		MinAmountPaise: 10_000,
		MaxAmountPaise: 100_000,
		ChargePaise:    1_000,
		TransferMode:   domain.TransferModeIMPS,
	})
	require.NoError(t, err)

	tx, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMoneyTransfer,
		OperatorCode: op.OperatorCode,
		AmountPaise:  50_000,
		TransferMode: domain.TransferModeIMPS,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, tx.ChargePaise)
	require.NotNil(t, tx.TransferMode)
	assert.Equal(t, domain.TransferModeIMPS, *tx.TransferMode)

	// Only the principal moves on the ledger; commission and charge are
	// annotations.
	assert.EqualValues(t, 450_000, walletBalance(t, store, wallet.ID))
}

func TestCreateTransferWithoutSlabFails(t *testing.T) {
	store := newTestStore(t)
	svc := newTransactionService(store, &stubGateway{})
	wallet := createTestWallet(t, store, 500_000)
	op := createTestOperator(t, store, func(o *models.OperatorConfig) {
		o.TransactionType = domain.TxTypeMoneyTransfer
		o.MaxAmountPaise = 5_000_00
	})

	_, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMoneyTransfer,
		OperatorCode: op.OperatorCode,
		AmountPaise:  50_000,
		TransferMode: domain.TransferModeNEFT,
	})
	require.ErrorIs(t, err, models.ErrNoApplicableSlab)
	assert.EqualValues(t, 500_000, walletBalance(t, store, wallet.ID))
}

func TestCreateRejectsAmountOutsideOperatorRange(t *testing.T) {
	store := newTestStore(t)
	svc := newTransactionService(store, &stubGateway{})
	wallet := createTestWallet(t, store, 500_000)
	op := createTestOperator(t, store, func(o *models.OperatorConfig) {
		o.MinAmountPaise = 10_000
		o.MaxAmountPaise = 100_000
	})

	_, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  5_000,
	})
	require.Error(t, err)
	assert.EqualValues(t, 500_000, walletBalance(t, store, wallet.ID))
}

func TestCreateInactiveOperator(t *testing.T) {
	store := newTestStore(t)
	svc := newTransactionService(store, &stubGateway{})
	wallet := createTestWallet(t, store, 500_000)
	op := createTestOperator(t, store, func(o *models.OperatorConfig) {
		o.IsActive = false
	})

	_, err := svc.Create(context.Background(), CreateTransactionRequest{
		UserID:       wallet.UserID,
		WalletID:     wallet.ID,
		Type:         domain.TxTypeMobileRecharge,
		OperatorCode: op.OperatorCode,
		AmountPaise:  20_000,
	})
	require.ErrorIs(t, err, models.ErrOperatorInactive)
}
