package service

import (
	"context"
	"testing"

	"github.com/finovo/recharge-wallet/internal/domain"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestComputeCommissionPercentageWithClamp(t *testing.T) {
	rule := &models.CommissionRule{
		CommissionType: domain.CommissionTypePercentage,
		Value:          "5",
		MinCommission:  strPtr("10"),
		MaxCommission:  strPtr("100"),
	}

	cases := []struct {
		name        string
		amountPaise int64
		wantPaise   int64
	}{
		{"clamped to max", 5_000_00, 100_00}, // 5% of 5000 = 250, max 100
		{"clamped to min", 50_00, 10_00},     // 5% of 50 = 2.50, min 10
		{"within bounds", 1_000_00, 50_00},   // 5% of 1000 = 50
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := computeCommission(rule, tc.amountPaise)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPaise, got)
		})
	}
}

func TestComputeCommissionFixed(t *testing.T) {
	rule := &models.CommissionRule{
		CommissionType: domain.CommissionTypeFixed,
		Value:          "12.50",
	}
	got, err := computeCommission(rule, 99_999_00)
	require.NoError(t, err)
	assert.EqualValues(t, 12_50, got)
}

func TestComputeCommissionRoundsHalfUp(t *testing.T) {
	// 0.125% of 100 rupees is 0.125, which rounds half-up to 0.13.
	rule := &models.CommissionRule{
		CommissionType: domain.CommissionTypePercentage,
		Value:          "0.125",
	}
	got, err := computeCommission(rule, 100_00)
	require.NoError(t, err)
	assert.EqualValues(t, 13, got)
}

func TestComputeCommissionNegativeClampsToZero(t *testing.T) {
	rule := &models.CommissionRule{
		CommissionType: domain.CommissionTypeFixed,
		Value:          "-5",
	}
	got, err := computeCommission(rule, 100_00)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got)
}

func TestComputeCommissionInvalidValue(t *testing.T) {
	rule := &models.CommissionRule{
		CommissionType: domain.CommissionTypePercentage,
		Value:          "five percent",
	}
	_, err := computeCommission(rule, 100_00)
	require.Error(t, err)
}

func TestResolveScopePrecedence(t *testing.T) {
	store := newTestStore(t)
	svc := NewCommissionService(store)
	ctx := context.Background()
	userID := createTestWallet(t, store, 0).UserID
	const operator = "AIRTEL"

	// Global fallback: 1%.
	_, err := svc.CreateRule(ctx, CreateCommissionRuleRequest{
		Scope:           domain.CommissionScopeGlobal,
		OperatorCode:    operator,
		TransactionType: domain.TxTypeMobileRecharge,
		CommissionType:  domain.CommissionTypePercentage,
		Value:           "1",
	})
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, userID, operator, domain.TxTypeMobileRecharge, 1_000_00)
	require.NoError(t, err)
	assert.EqualValues(t, 10_00, got)

	// Default scheme entry beats the global table: 2%.
	scheme, err := svc.CreateScheme(ctx, "silver", true)
	require.NoError(t, err)
	_, err = svc.CreateRule(ctx, CreateCommissionRuleRequest{
		Scope:           domain.CommissionScopeScheme,
		SchemeID:        &scheme.ID,
		OperatorCode:    operator,
		TransactionType: domain.TxTypeMobileRecharge,
		CommissionType:  domain.CommissionTypePercentage,
		Value:           "2",
	})
	require.NoError(t, err)

	got, err = svc.Resolve(ctx, userID, operator, domain.TxTypeMobileRecharge, 1_000_00)
	require.NoError(t, err)
	assert.EqualValues(t, 20_00, got)

	// A user override beats both: fixed 5.
	_, err = svc.CreateRule(ctx, CreateCommissionRuleRequest{
		Scope:           domain.CommissionScopeUser,
		UserID:          &userID,
		OperatorCode:    operator,
		TransactionType: domain.TxTypeMobileRecharge,
		CommissionType:  domain.CommissionTypeFixed,
		Value:           "5",
	})
	require.NoError(t, err)

	got, err = svc.Resolve(ctx, userID, operator, domain.TxTypeMobileRecharge, 1_000_00)
	require.NoError(t, err)
	assert.EqualValues(t, 5_00, got)
}

func TestResolveWithoutRulesYieldsZero(t *testing.T) {
	store := newTestStore(t)
	svc := NewCommissionService(store)

	got, err := svc.Resolve(context.Background(), createTestWallet(t, store, 0).UserID,
		"UNKNOWN", domain.TxTypeBillPayment, 1_000_00)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got)
}

func TestCreateUserRuleRetiresPreviousRule(t *testing.T) {
	store := newTestStore(t)
	svc := NewCommissionService(store)
	ctx := context.Background()
	userID := createTestWallet(t, store, 0).UserID

	mk := func(value string) {
		_, err := svc.CreateRule(ctx, CreateCommissionRuleRequest{
			Scope:           domain.CommissionScopeUser,
			UserID:          &userID,
			OperatorCode:    "JIO",
			TransactionType: domain.TxTypeMobileRecharge,
			CommissionType:  domain.CommissionTypeFixed,
			Value:           value,
		})
		require.NoError(t, err)
	}
	mk("3")
	mk("7")

	got, err := svc.Resolve(ctx, userID, "JIO", domain.TxTypeMobileRecharge, 1_000_00)
	require.NoError(t, err)
	assert.EqualValues(t, 7_00, got)
}

func TestCreateSchemeReplacesDefault(t *testing.T) {
	store := newTestStore(t)
	svc := NewCommissionService(store)
	ctx := context.Background()

	first, err := svc.CreateScheme(ctx, "old-default", true)
	require.NoError(t, err)
	_, err = svc.CreateScheme(ctx, "new-default", true)
	require.NoError(t, err)

	// A rule on the replaced scheme no longer resolves.
	_, err = svc.CreateRule(ctx, CreateCommissionRuleRequest{
		Scope:           domain.CommissionScopeScheme,
		SchemeID:        &first.ID,
		OperatorCode:    "VI",
		TransactionType: domain.TxTypeMobileRecharge,
		CommissionType:  domain.CommissionTypeFixed,
		Value:           "9",
	})
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, createTestWallet(t, store, 0).UserID,
		"VI", domain.TxTypeMobileRecharge, 1_000_00)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got)
}
