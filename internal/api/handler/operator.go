package handler

import (
	"net/http"

	"github.com/finovo/recharge-wallet/internal/service"
	"github.com/go-chi/chi/v5"
)

// OperatorHandler serves the admin operator configuration surface.
type OperatorHandler struct {
	operators *service.OperatorService
}

func NewOperatorHandler(operators *service.OperatorService) *OperatorHandler {
	return &OperatorHandler{operators: operators}
}

type operatorRequest struct {
	OperatorCode     string            `json:"operator_code"`
	Name             string            `json:"name"`
	TransactionType  string            `json:"transaction_type"`
	ProcessingMode   string            `json:"processing_mode"`
	AutoApprovePaise int64             `json:"auto_approve_paise"`
	RequiresApproval bool              `json:"requires_approval"`
	MinAmountPaise   int64             `json:"min_amount_paise"`
	MaxAmountPaise   int64             `json:"max_amount_paise"`
	StatusEndpoint   string            `json:"status_endpoint,omitempty"`
	FieldMapVersion  int               `json:"field_map_version,omitempty"`
	FieldMap         map[string]string `json:"field_map,omitempty"`
}

func (req operatorRequest) toService() service.CreateOperatorRequest {
	return service.CreateOperatorRequest{
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
		FieldMap:         req.FieldMap,
	}
}

// Create handles POST /v1/admin/operators.
func (h *OperatorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req operatorRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	op, err := h.operators.CreateOperator(r.Context(), req.toService())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, op)
}

// Update handles PUT /v1/admin/operators/{code}.
func (h *OperatorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req operatorRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	req.OperatorCode = chi.URLParam(r, "code")
	if err := h.operators.UpdateOperator(r.Context(), req.toService()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	op, err := h.operators.GetOperator(r.Context(), req.OperatorCode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, op)
}

// List handles GET /v1/admin/operators.
func (h *OperatorHandler) List(w http.ResponseWriter, r *http.Request) {
	ops, err := h.operators.ListOperators(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"operators": ops})
}

// Get handles GET /v1/operators/{code}.
func (h *OperatorHandler) Get(w http.ResponseWriter, r *http.Request) {
	op, err := h.operators.GetOperator(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, op)
}
