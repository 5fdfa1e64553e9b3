package service

import (
	"context"
	"testing"

	"github.com/finovo/recharge-wallet/internal/domain"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlapsAny(t *testing.T) {
	slabs := []models.ChargeSlab{
		{MinAmountPaise: 10_000, MaxAmountPaise: 100_000},
		{MinAmountPaise: 100_100, MaxAmountPaise: 500_000},
	}

	assert.True(t, overlapsAny(slabs, 50_000, 60_000), "fully inside")
	assert.True(t, overlapsAny(slabs, 90_000, 150_000), "spanning two slabs")
	assert.True(t, overlapsAny(slabs, 100_000, 100_000), "touching an inclusive bound")
	assert.False(t, overlapsAny(slabs, 100_001, 100_099), "inside the gap")
	assert.False(t, overlapsAny(slabs, 500_001, 900_000), "above all slabs")
	assert.False(t, overlapsAny(nil, 0, 1), "no slabs")
}

func TestFindSlab(t *testing.T) {
	slabs := []models.ChargeSlab{
		{MinAmountPaise: 10_000, MaxAmountPaise: 100_000, ChargePaise: 1_000, IsActive: true},
		{MinAmountPaise: 100_100, MaxAmountPaise: 500_000, ChargePaise: 2_500, IsActive: true},
		{MinAmountPaise: 500_100, MaxAmountPaise: 900_000, ChargePaise: 5_000, IsActive: false},
	}

	slab, ok := findSlab(slabs, 50_000)
	require.True(t, ok)
	assert.EqualValues(t, 1_000, slab.ChargePaise)

	slab, ok = findSlab(slabs, 100_100)
	require.True(t, ok)
	assert.EqualValues(t, 2_500, slab.ChargePaise)

	_, ok = findSlab(slabs, 100_050)
	assert.False(t, ok, "gap between slabs")

	_, ok = findSlab(slabs, 600_000)
	assert.False(t, ok, "inactive slab does not match")
}

func TestFindChargeTiers(t *testing.T) {
	store := newTestStore(t)
	svc := NewChargeSlabService(store)
	ctx := context.Background()

	mk := func(min, max, charge int64, mode string) {
		_, err := svc.CreateSlab(ctx, CreateChargeSlabRequest{
			MinAmountPaise: min,
			MaxAmountPaise: max,
			ChargePaise:    charge,
			TransferMode:   mode,
		})
		require.NoError(t, err)
	}
	mk(10_000, 100_000, 1_000, domain.TransferModeIMPS)
	mk(100_100, 500_000, 2_500, domain.TransferModeIMPS)
	mk(10_000, 500_000, 500, domain.TransferModeNEFT)

	charge, err := svc.FindCharge(ctx, 50_000, domain.TransferModeIMPS)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, charge)

	charge, err = svc.FindCharge(ctx, 250_000, domain.TransferModeIMPS)
	require.NoError(t, err)
	assert.EqualValues(t, 2_500, charge)

	// The same amount under a different mode hits that mode's slab.
	charge, err = svc.FindCharge(ctx, 250_000, domain.TransferModeNEFT)
	require.NoError(t, err)
	assert.EqualValues(t, 500, charge)

	// Amounts in a gap or outside every slab miss explicitly.
	_, err = svc.FindCharge(ctx, 100_050, domain.TransferModeIMPS)
	require.ErrorIs(t, err, models.ErrNoApplicableSlab)
	_, err = svc.FindCharge(ctx, 900_000, domain.TransferModeIMPS)
	require.ErrorIs(t, err, models.ErrNoApplicableSlab)
}

func TestCreateSlabRejectsOverlap(t *testing.T) {
	store := newTestStore(t)
	svc := NewChargeSlabService(store)
	ctx := context.Background()

	_, err := svc.CreateSlab(ctx, CreateChargeSlabRequest{
		MinAmountPaise: 10_000,
		MaxAmountPaise: 100_000,
		ChargePaise:    1_000,
		TransferMode:   domain.TransferModeIMPS,
	})
	require.NoError(t, err)

	_, err = svc.CreateSlab(ctx, CreateChargeSlabRequest{
		MinAmountPaise: 90_000,
		MaxAmountPaise: 200_000,
		ChargePaise:    2_000,
		TransferMode:   domain.TransferModeIMPS,
	})
	require.ErrorIs(t, err, models.ErrSlabOverlap)

	// The same range under the other transfer mode is fine.
	_, err = svc.CreateSlab(ctx, CreateChargeSlabRequest{
		MinAmountPaise: 90_000,
		MaxAmountPaise: 200_000,
		ChargePaise:    2_000,
		TransferMode:   domain.TransferModeNEFT,
	})
	require.NoError(t, err)
}

func TestDeactivateSlabOpensGap(t *testing.T) {
	store := newTestStore(t)
	svc := NewChargeSlabService(store)
	ctx := context.Background()

	slab, err := svc.CreateSlab(ctx, CreateChargeSlabRequest{
		MinAmountPaise: 10_000,
		MaxAmountPaise: 100_000,
		ChargePaise:    1_000,
		TransferMode:   domain.TransferModeIMPS,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateSlab(ctx, slab.ID))

	_, err = svc.FindCharge(ctx, 50_000, domain.TransferModeIMPS)
	require.ErrorIs(t, err, models.ErrNoApplicableSlab)
}

func TestCreateSlabValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewChargeSlabService(store)
	ctx := context.Background()

	_, err := svc.CreateSlab(ctx, CreateChargeSlabRequest{
		MinAmountPaise: 100, MaxAmountPaise: 50, ChargePaise: 10, TransferMode: domain.TransferModeIMPS,
	})
	require.Error(t, err, "inverted range")

	_, err = svc.CreateSlab(ctx, CreateChargeSlabRequest{
		MinAmountPaise: 100, MaxAmountPaise: 500, ChargePaise: -1, TransferMode: domain.TransferModeIMPS,
	})
	require.Error(t, err, "negative charge")

	_, err = svc.CreateSlab(ctx, CreateChargeSlabRequest{
		MinAmountPaise: 100, MaxAmountPaise: 500, ChargePaise: 10, TransferMode: "RTGS",
	})
	require.Error(t, err, "unknown transfer mode")
}
