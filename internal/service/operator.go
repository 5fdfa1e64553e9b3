package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/finovo/recharge-wallet/internal/domain"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/finovo/recharge-wallet/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OperatorService manages per-operator processing configuration. Provider
// settings are explicit: a configured status endpoint and a versioned field
// map, validated when written and at startup. Nothing is probed or guessed
// per request.
type OperatorService struct {
	store QueryStore
}

func NewOperatorService(store QueryStore) *OperatorService {
	return &OperatorService{store: store}
}

// GetOperator returns the config for a code, failing when missing.
func (s *OperatorService) GetOperator(ctx context.Context, code string) (*models.OperatorConfig, error) {
	op, err := s.store.Queries().GetOperatorByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOperatorNotFound
		}
		return nil, fmt.Errorf("get operator %q: %w", code, err)
	}
	return op, nil
}

type CreateOperatorRequest struct {
	OperatorCode     string
	Name             string
	TransactionType  string
	ProcessingMode   string
	AutoApprovePaise int64
	RequiresApproval bool
	MinAmountPaise   int64
	MaxAmountPaise   int64
	StatusEndpoint   string
	FieldMapVersion  int
	FieldMap         map[string]string
}

// CreateOperator validates and stores an operator config.
func (s *OperatorService) CreateOperator(ctx context.Context, req CreateOperatorRequest) (*models.OperatorConfig, error) {
	if req.OperatorCode == "" {
		return nil, errors.New("operator_code is required")
	}
	if !domain.ValidTxType(req.TransactionType) {
		return nil, fmt.Errorf("unknown transaction type %q", req.TransactionType)
	}
	switch req.ProcessingMode {
	case domain.ProcessingModeManual, domain.ProcessingModeAPI:
	default:
		return nil, fmt.Errorf("unknown processing mode %q", req.ProcessingMode)
	}
	if req.MinAmountPaise < 0 || req.MaxAmountPaise < req.MinAmountPaise {
		return nil, fmt.Errorf("invalid amount range [%d, %d]", req.MinAmountPaise, req.MaxAmountPaise)
	}

	op := &models.OperatorConfig{
		ID:               uuid.New(),
		OperatorCode:     req.OperatorCode,
		Name:             req.Name,
		TransactionType:  req.TransactionType,
		ProcessingMode:   req.ProcessingMode,
		AutoApprovePaise: req.AutoApprovePaise,
		RequiresApproval: req.RequiresApproval,
		MinAmountPaise:   req.MinAmountPaise,
		MaxAmountPaise:   req.MaxAmountPaise,
		StatusEndpoint:   req.StatusEndpoint,
		FieldMapVersion:  req.FieldMapVersion,
		IsActive:         true,
	}
	if req.FieldMap != nil {
		raw, err := json.Marshal(req.FieldMap)
		if err != nil {
			return nil, fmt.Errorf("encode field map: %w", err)
		}
		op.FieldMap = raw
	}
	if err := validateProviderProfile(op); err != nil {
		return nil, err
	}
	if err := s.store.Queries().InsertOperatorConfig(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// UpdateOperator adjusts the processing settings of an existing operator.
func (s *OperatorService) UpdateOperator(ctx context.Context, req CreateOperatorRequest) error {
	switch req.ProcessingMode {
	case domain.ProcessingModeManual, domain.ProcessingModeAPI:
	default:
		return fmt.Errorf("unknown processing mode %q", req.ProcessingMode)
	}
	rows, err := s.store.Queries().UpdateOperatorConfig(ctx, repository.UpdateOperatorConfigParams{
		OperatorCode:     req.OperatorCode,
		ProcessingMode:   req.ProcessingMode,
		AutoApprovePaise: req.AutoApprovePaise,
		RequiresApproval: req.RequiresApproval,
		MinAmountPaise:   req.MinAmountPaise,
		MaxAmountPaise:   req.MaxAmountPaise,
		IsActive:         true,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrOperatorNotFound
	}
	return nil
}

// ListOperators returns every operator config.
func (s *OperatorService) ListOperators(ctx context.Context) ([]models.OperatorConfig, error) {
	return s.store.Queries().ListOperatorConfigs(ctx)
}

// ValidateProviderProfiles checks every api-mode operator at startup so a
// misconfigured endpoint or field map fails fast rather than at poll time.
func (s *OperatorService) ValidateProviderProfiles(ctx context.Context) error {
	ops, err := s.store.Queries().ListOperatorConfigs(ctx)
	if err != nil {
		return err
	}
	for i := range ops {
		if !ops[i].IsActive || ops[i].ProcessingMode != domain.ProcessingModeAPI {
			continue
		}
		if err := validateProviderProfile(&ops[i]); err != nil {
			return fmt.Errorf("operator %s: %w", ops[i].OperatorCode, err)
		}
	}
	return nil
}

func validateProviderProfile(op *models.OperatorConfig) error {
	if op.ProcessingMode != domain.ProcessingModeAPI {
		return nil
	}
	if op.StatusEndpoint == "" {
		return errors.New("api-mode operator requires a status endpoint")
	}
	parsed, err := url.Parse(op.StatusEndpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid status endpoint %q", op.StatusEndpoint)
	}
	if op.FieldMapVersion <= 0 {
		return errors.New("api-mode operator requires a versioned field map")
	}
	if len(op.FieldMap) > 0 {
		var m map[string]string
		if err := json.Unmarshal(op.FieldMap, &m); err != nil {
			return fmt.Errorf("invalid field map: %w", err)
		}
	}
	return nil
}
