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
	"github.com/shopspring/decimal"
)

// CommissionService resolves and computes the margin attributed to a
// transaction for settlement and reporting. It never touches the wallet.
type CommissionService struct {
	store QueryStore
}

var errRuleNotFound = errors.New("no commission rule matched")

func NewCommissionService(store QueryStore) *CommissionService {
	return &CommissionService{store: store}
}

// Resolve walks the scopes in order (user rule, then default scheme entry,
// then global rate table) and computes the commission in paise from the
// first match. Exhausting all scopes yields zero, not an error.
func (s *CommissionService) Resolve(ctx context.Context, userID uuid.UUID, operatorCode, txType string, amountPaise int64) (int64, error) {
	rule, err := s.resolveRule(ctx, userID, operatorCode, txType)
	if err != nil {
		if errors.Is(err, errRuleNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return computeCommission(rule, amountPaise)
}

func (s *CommissionService) resolveRule(ctx context.Context, userID uuid.UUID, operatorCode, txType string) (*models.CommissionRule, error) {
	queries := s.store.Queries()

	rule, err := queries.GetUserCommissionRule(ctx, userID, operatorCode, txType)
	if err == nil {
		return rule, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("resolve user commission rule: %w", err)
	}

	rule, err = queries.GetDefaultSchemeCommissionRule(ctx, operatorCode, txType)
	if err == nil {
		return rule, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("resolve scheme commission rule: %w", err)
	}

	rule, err = queries.GetGlobalCommissionRule(ctx, operatorCode, txType)
	if err == nil {
		return rule, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("resolve global commission rule: %w", err)
	}

	return nil, errRuleNotFound
}

// computeCommission evaluates a rule against an amount. Percentage rules are
// amount*value/100, fixed rules are the value itself; the result is clamped
// into [min, max] when those bounds are set and rounded half-up to two
// decimal places.
func computeCommission(rule *models.CommissionRule, amountPaise int64) (int64, error) {
	value, err := decimal.NewFromString(rule.Value)
	if err != nil {
		return 0, fmt.Errorf("invalid commission value %q: %w", rule.Value, err)
	}

	amount := domain.NewMoney(amountPaise).ToDecimal()
	var commission decimal.Decimal
	switch rule.CommissionType {
	case domain.CommissionTypePercentage:
		commission = amount.Mul(value).Div(decimal.NewFromInt(100))
	case domain.CommissionTypeFixed:
		commission = value
	default:
		return 0, fmt.Errorf("unknown commission type %q", rule.CommissionType)
	}

	if rule.MinCommission != nil {
		minC, err := decimal.NewFromString(*rule.MinCommission)
		if err != nil {
			return 0, fmt.Errorf("invalid min commission %q: %w", *rule.MinCommission, err)
		}
		if commission.LessThan(minC) {
			commission = minC
		}
	}
	if rule.MaxCommission != nil {
		maxC, err := decimal.NewFromString(*rule.MaxCommission)
		if err != nil {
			return 0, fmt.Errorf("invalid max commission %q: %w", *rule.MaxCommission, err)
		}
		if commission.GreaterThan(maxC) {
			commission = maxC
		}
	}

	if commission.IsNegative() {
		commission = decimal.Zero
	}
	return domain.FromRupees(commission).Paise, nil
}

// CreateScheme registers a commission scheme. Setting it default clears any
// previous default in the same transaction.
func (s *CommissionService) CreateScheme(ctx context.Context, name string, isDefault bool) (*models.CommissionScheme, error) {
	scheme := &models.CommissionScheme{
		ID:        uuid.New(),
		Name:      name,
		IsDefault: isDefault,
		IsActive:  true,
	}
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		if isDefault {
			if err := qtx.ClearDefaultScheme(ctx); err != nil {
				return err
			}
		}
		return qtx.InsertCommissionScheme(ctx, scheme)
	})
	if err != nil {
		return nil, err
	}
	return scheme, nil
}

type CreateCommissionRuleRequest struct {
	Scope           string
	SchemeID        *uuid.UUID
	UserID          *uuid.UUID
	OperatorCode    string
	TransactionType string
	CommissionType  string
	Value           string
	MinCommission   *string
	MaxCommission   *string
}

// CreateRule validates and stores a commission rule. User-scoped writes
// retire the previous active rule for the same triple so at most one stays
// active.
func (s *CommissionService) CreateRule(ctx context.Context, req CreateCommissionRuleRequest) (*models.CommissionRule, error) {
	switch req.Scope {
	case domain.CommissionScopeGlobal, domain.CommissionScopeScheme, domain.CommissionScopeUser:
	default:
		return nil, fmt.Errorf("unknown commission scope %q", req.Scope)
	}
	switch req.CommissionType {
	case domain.CommissionTypePercentage, domain.CommissionTypeFixed:
	default:
		return nil, fmt.Errorf("unknown commission type %q", req.CommissionType)
	}
	if req.Scope == domain.CommissionScopeScheme && req.SchemeID == nil {
		return nil, errors.New("scheme_id is required for scheme-scoped rules")
	}
	if req.Scope == domain.CommissionScopeUser && req.UserID == nil {
		return nil, errors.New("user_id is required for user-scoped rules")
	}
	if _, err := decimal.NewFromString(req.Value); err != nil {
		return nil, fmt.Errorf("invalid commission value %q: %w", req.Value, err)
	}

	var rule *models.CommissionRule
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		if req.Scope == domain.CommissionScopeUser {
			if err := qtx.DeactivateUserCommissionRules(ctx, *req.UserID, req.OperatorCode, req.TransactionType); err != nil {
				return err
			}
		}
		var err error
		rule, err = qtx.InsertCommissionRule(ctx, repository.InsertCommissionRuleParams{
			ID:              uuid.New(),
			Scope:           req.Scope,
			SchemeID:        req.SchemeID,
			UserID:          req.UserID,
			OperatorCode:    req.OperatorCode,
			TransactionType: req.TransactionType,
			CommissionType:  req.CommissionType,
			Value:           req.Value,
			MinCommission:   req.MinCommission,
			MaxCommission:   req.MaxCommission,
			IsActive:        true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// ListRules returns stored rules, newest first.
func (s *CommissionService) ListRules(ctx context.Context, limit, offset int32) ([]models.CommissionRule, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Queries().ListCommissionRules(ctx, limit, offset)
}
