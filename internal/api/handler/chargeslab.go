package handler

import (
	"net/http"

	"github.com/finovo/recharge-wallet/internal/service"
)

// ChargeSlabHandler serves the admin charge slab surface.
type ChargeSlabHandler struct {
	slabs *service.ChargeSlabService
}

func NewChargeSlabHandler(slabs *service.ChargeSlabService) *ChargeSlabHandler {
	return &ChargeSlabHandler{slabs: slabs}
}

type createSlabRequest struct {
	MinAmountPaise int64  `json:"min_amount_paise"`
	MaxAmountPaise int64  `json:"max_amount_paise"`
	ChargePaise    int64  `json:"charge_paise"`
	TransferMode   string `json:"transfer_mode"`
}

// Create handles POST /v1/admin/charge-slabs.
func (h *ChargeSlabHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSlabRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	slab, err := h.slabs.CreateSlab(r.Context(), service.CreateChargeSlabRequest{
		MinAmountPaise: req.MinAmountPaise,
		MaxAmountPaise: req.MaxAmountPaise,
		ChargePaise:    req.ChargePaise,
		TransferMode:   req.TransferMode,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, slab)
}

// List handles GET /v1/admin/charge-slabs?transfer_mode=IMPS.
func (h *ChargeSlabHandler) List(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("transfer_mode")
	slabs, err := h.slabs.ListSlabs(r.Context(), mode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"slabs": slabs})
}

// Deactivate handles DELETE /v1/admin/charge-slabs/{id}.
func (h *ChargeSlabHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-slab-id", "slab id must be a UUID")
		return
	}
	if err := h.slabs.DeactivateSlab(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
