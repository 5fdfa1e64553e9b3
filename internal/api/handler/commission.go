package handler

import (
	"net/http"

	"github.com/finovo/recharge-wallet/internal/service"
	"github.com/google/uuid"
)

// CommissionHandler serves the admin commission configuration surface.
type CommissionHandler struct {
	commissions *service.CommissionService
}

func NewCommissionHandler(commissions *service.CommissionService) *CommissionHandler {
	return &CommissionHandler{commissions: commissions}
}

type createSchemeRequest struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// CreateScheme handles POST /v1/admin/commission/schemes.
func (h *CommissionHandler) CreateScheme(w http.ResponseWriter, r *http.Request) {
	var req createSchemeRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	if req.Name == "" {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-scheme", "name is required")
		return
	}
	scheme, err := h.commissions.CreateScheme(r.Context(), req.Name, req.IsDefault)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, scheme)
}

type createRuleRequest struct {
	Scope           string  `json:"scope"`
	SchemeID        *string `json:"scheme_id,omitempty"`
	UserID          *string `json:"user_id,omitempty"`
	OperatorCode    string  `json:"operator_code"`
	TransactionType string  `json:"transaction_type"`
	CommissionType  string  `json:"commission_type"`
	Value           string  `json:"value"`
	MinCommission   *string `json:"min_commission,omitempty"`
	MaxCommission   *string `json:"max_commission,omitempty"`
}

// CreateRule handles POST /v1/admin/commission/rules.
func (h *CommissionHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}

	svcReq := service.CreateCommissionRuleRequest{
		Scope:           req.Scope,
		OperatorCode:    req.OperatorCode,
		TransactionType: req.TransactionType,
		CommissionType:  req.CommissionType,
		Value:           req.Value,
		MinCommission:   req.MinCommission,
		MaxCommission:   req.MaxCommission,
	}
	if req.SchemeID != nil {
		id, err := uuid.Parse(*req.SchemeID)
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-scheme-id", "scheme_id must be a UUID")
			return
		}
		svcReq.SchemeID = &id
	}
	if req.UserID != nil {
		id, err := uuid.Parse(*req.UserID)
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "user_id must be a UUID")
			return
		}
		svcReq.UserID = &id
	}

	rule, err := h.commissions.CreateRule(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, rule)
}

// ListRules handles GET /v1/admin/commission/rules.
func (h *CommissionHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.commissions.ListRules(r.Context(),
		queryInt32(r, "limit", 50), queryInt32(r, "offset", 0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})
}
