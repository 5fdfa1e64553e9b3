package handler

import (
	"net/http"

	"github.com/finovo/recharge-wallet/internal/service"
	"github.com/google/uuid"
)

// WalletHandler serves wallet provisioning, balance and topup initiation.
type WalletHandler struct {
	wallets *service.WalletService
	topups  *service.TopupService
}

func NewWalletHandler(wallets *service.WalletService, topups *service.TopupService) *WalletHandler {
	return &WalletHandler{wallets: wallets, topups: topups}
}

type createWalletRequest struct {
	UserID       string `json:"user_id"`
	OpeningPaise int64  `json:"opening_paise"`
}

// CreateWallet handles POST /v1/wallets.
func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "user_id must be a UUID")
		return
	}
	wallet, err := h.wallets.CreateWallet(r.Context(), userID, req.OpeningPaise)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, wallet)
}

// GetWallet handles GET /v1/wallets/{id}.
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-wallet-id", "wallet id must be a UUID")
		return
	}
	wallet, err := h.wallets.GetWallet(r.Context(), walletID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}

// GetBalance handles GET /v1/wallets/{id}/balance.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-wallet-id", "wallet id must be a UUID")
		return
	}
	balance, err := h.wallets.Balance(r.Context(), walletID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"wallet_id":     walletID,
		"balance_paise": balance,
	})
}

type initiateTopupRequest struct {
	AmountPaise int64 `json:"amount_paise"`
}

// InitiateTopup handles POST /v1/wallets/{id}/topups.
func (h *WalletHandler) InitiateTopup(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-wallet-id", "wallet id must be a UUID")
		return
	}
	var req initiateTopupRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	if req.AmountPaise <= 0 {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", "amount_paise must be positive")
		return
	}
	tx, err := h.topups.Initiate(r.Context(), walletID, req.AmountPaise)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, tx)
}
