package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoney_ToDecimal(t *testing.T) {
	m := NewMoney(10_550) // 105.50 INR
	assert.Equal(t, "105.5", m.ToDecimal().String())
}

func TestFromRupees(t *testing.T) {
	d := decimal.NewFromFloat(105.50)
	assert.Equal(t, int64(10_550), FromRupees(d).Paise)
}

func TestFromRupees_RoundsHalfUp(t *testing.T) {
	// 10.005 rounds up to 10.01
	d := decimal.NewFromFloat(10.005)
	assert.Equal(t, int64(1_001), FromRupees(d).Paise)

	// 10.004 rounds down to 10.00
	d = decimal.NewFromFloat(10.004)
	assert.Equal(t, int64(1_000), FromRupees(d).Paise)
}

func TestRoundRupees(t *testing.T) {
	assert.Equal(t, "12.35", RoundRupees(decimal.NewFromFloat(12.345)).StringFixed(2))
	assert.Equal(t, "12.34", RoundRupees(decimal.NewFromFloat(12.344)).StringFixed(2))
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "INR 200.00", NewMoney(20_000).String())
}
