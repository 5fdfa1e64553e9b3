package service

import (
	"testing"

	"github.com/finovo/recharge-wallet/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{domain.TxStatusPending, domain.TxStatusApproved, true},
		{domain.TxStatusPending, domain.TxStatusFailed, true},
		{domain.TxStatusPending, domain.TxStatusRejected, false},
		{domain.TxStatusAwaitingApproval, domain.TxStatusApproved, true},
		{domain.TxStatusAwaitingApproval, domain.TxStatusRejected, true},
		{domain.TxStatusAwaitingApproval, domain.TxStatusFailed, false},
		{domain.TxStatusApproved, domain.TxStatusRejected, true},
		{domain.TxStatusApproved, domain.TxStatusFailed, false},
		{domain.TxStatusRejected, domain.TxStatusApproved, true},
		{domain.TxStatusRejected, domain.TxStatusFailed, false},
		{domain.TxStatusFailed, domain.TxStatusApproved, false},
		{domain.TxStatusFailed, domain.TxStatusRejected, false},
		{"nonsense", domain.TxStatusApproved, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, canTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCanTransitionIsCaseInsensitive(t *testing.T) {
	assert.True(t, canTransition("Awaiting_Approval", "APPROVED"))
	assert.True(t, canTransition(" approved ", "rejected"))
}

func TestTransitionEffect(t *testing.T) {
	cases := []struct {
		from, to string
		want     ledgerEffect
	}{
		{domain.TxStatusAwaitingApproval, domain.TxStatusApproved, effectNone},
		{domain.TxStatusPending, domain.TxStatusApproved, effectNone},
		{domain.TxStatusAwaitingApproval, domain.TxStatusRejected, effectCredit},
		{domain.TxStatusApproved, domain.TxStatusRejected, effectCredit},
		{domain.TxStatusPending, domain.TxStatusFailed, effectCredit},
		{domain.TxStatusRejected, domain.TxStatusApproved, effectDebit},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, transitionEffect(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
