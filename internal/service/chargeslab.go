package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/finovo/recharge-wallet/internal/domain"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/finovo/recharge-wallet/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ChargeSlabService resolves the tiered flat fee for transfer transactions
// and guards slab writes against overlapping ranges.
type ChargeSlabService struct {
	store QueryStore
}

func NewChargeSlabService(store QueryStore) *ChargeSlabService {
	return &ChargeSlabService{store: store}
}

// FindCharge returns the charge in paise for the active slab covering the
// amount. A miss fails explicitly; callers decide whether that blocks the
// transaction.
func (s *ChargeSlabService) FindCharge(ctx context.Context, amountPaise int64, transferMode string) (int64, error) {
	if !domain.ValidTransferMode(transferMode) {
		return 0, fmt.Errorf("unknown transfer mode %q", transferMode)
	}
	slab, err := s.store.Queries().FindChargeSlab(ctx, transferMode, amountPaise)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrNoApplicableSlab
		}
		return 0, fmt.Errorf("find charge slab: %w", err)
	}
	return slab.ChargePaise, nil
}

type CreateChargeSlabRequest struct {
	MinAmountPaise int64
	MaxAmountPaise int64
	ChargePaise    int64
	TransferMode   string
}

// CreateSlab validates and stores a charge slab. A range intersecting an
// existing active slab of the same transfer mode is rejected, keeping
// FindCharge unambiguous.
func (s *ChargeSlabService) CreateSlab(ctx context.Context, req CreateChargeSlabRequest) (*models.ChargeSlab, error) {
	if !domain.ValidTransferMode(req.TransferMode) {
		return nil, fmt.Errorf("unknown transfer mode %q", req.TransferMode)
	}
	if req.MinAmountPaise < 0 || req.MaxAmountPaise < req.MinAmountPaise {
		return nil, fmt.Errorf("invalid slab range [%d, %d]", req.MinAmountPaise, req.MaxAmountPaise)
	}
	if req.ChargePaise < 0 {
		return nil, fmt.Errorf("invalid slab charge %d", req.ChargePaise)
	}

	slab := &models.ChargeSlab{
		ID:             uuid.New(),
		MinAmountPaise: req.MinAmountPaise,
		MaxAmountPaise: req.MaxAmountPaise,
		ChargePaise:    req.ChargePaise,
		TransferMode:   req.TransferMode,
		IsActive:       true,
	}
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		existing, err := qtx.ListActiveChargeSlabs(ctx, req.TransferMode)
		if err != nil {
			return err
		}
		if overlapsAny(existing, req.MinAmountPaise, req.MaxAmountPaise) {
			return models.ErrSlabOverlap
		}
		return qtx.InsertChargeSlab(ctx, slab)
	})
	if err != nil {
		return nil, err
	}
	return slab, nil
}

// DeactivateSlab retires a slab; its range becomes a lookup gap.
func (s *ChargeSlabService) DeactivateSlab(ctx context.Context, id uuid.UUID) error {
	rows, err := s.store.Queries().DeactivateChargeSlab(ctx, id)
	if err != nil {
		return err
	}
	return requireExactlyOne(rows, "deactivate charge slab")
}

// ListSlabs returns the active slabs of a transfer mode ordered by range.
func (s *ChargeSlabService) ListSlabs(ctx context.Context, transferMode string) ([]models.ChargeSlab, error) {
	if !domain.ValidTransferMode(transferMode) {
		return nil, fmt.Errorf("unknown transfer mode %q", transferMode)
	}
	return s.store.Queries().ListActiveChargeSlabs(ctx, transferMode)
}

// overlapsAny reports whether [minPaise, maxPaise] intersects any slab.
// Ranges are inclusive on both ends.
func overlapsAny(slabs []models.ChargeSlab, minPaise, maxPaise int64) bool {
	for _, slab := range slabs {
		if minPaise <= slab.MaxAmountPaise && maxPaise >= slab.MinAmountPaise {
			return true
		}
	}
	return false
}

// findSlab scans slabs for one covering the amount, mirroring the SQL lookup
// for in-memory use.
func findSlab(slabs []models.ChargeSlab, amountPaise int64) (*models.ChargeSlab, bool) {
	for i := range slabs {
		if slabs[i].IsActive && slabs[i].MinAmountPaise <= amountPaise && amountPaise <= slabs[i].MaxAmountPaise {
			return &slabs[i], true
		}
	}
	return nil, false
}
