package handler

import (
	"net/http"

	"github.com/finovo/recharge-wallet/internal/service"
	"github.com/google/uuid"
)

// TransactionHandler serves transaction creation, lookup and the admin
// approval queue.
type TransactionHandler struct {
	transactions *service.TransactionService
}

func NewTransactionHandler(transactions *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

type createTransactionRequest struct {
	WalletID     string `json:"wallet_id"`
	Type         string `json:"type"`
	OperatorCode string `json:"operator_code"`
	AmountPaise  int64  `json:"amount_paise"`
	TransferMode string `json:"transfer_mode,omitempty"`
	ReferenceID  string `json:"reference_id,omitempty"`
}

// Create handles POST /v1/transactions.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", err.Error())
		return
	}
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
		return
	}
	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-wallet-id", "wallet_id must be a UUID")
		return
	}
	tx, err := h.transactions.Create(r.Context(), service.CreateTransactionRequest{
		UserID:       actorID,
		WalletID:     walletID,
		Type:         req.Type,
		OperatorCode: req.OperatorCode,
		AmountPaise:  req.AmountPaise,
		TransferMode: req.TransferMode,
		ReferenceID:  req.ReferenceID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, tx)
}

// Get handles GET /v1/transactions/{id}.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-transaction-id", "transaction id must be a UUID")
		return
	}
	tx, err := h.transactions.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, tx)
}

// ListByWallet handles GET /v1/wallets/{id}/transactions.
func (h *TransactionHandler) ListByWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-wallet-id", "wallet id must be a UUID")
		return
	}
	txs, err := h.transactions.List(r.Context(), walletID,
		queryInt32(r, "limit", 50), queryInt32(r, "offset", 0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

// ListAwaitingApproval handles GET /v1/admin/transactions/awaiting-approval.
func (h *TransactionHandler) ListAwaitingApproval(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactions.ListAwaitingApproval(r.Context(),
		queryInt32(r, "limit", 50), queryInt32(r, "offset", 0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

type approvalRequest struct {
	Notes string `json:"notes,omitempty"`
}

// Approve handles POST /v1/admin/transactions/{id}/approve.
func (h *TransactionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// Reject handles POST /v1/admin/transactions/{id}/reject.
func (h *TransactionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *TransactionHandler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-token-claims", err.Error())
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-transaction-id", "transaction id must be a UUID")
		return
	}
	var req approvalRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-body", err.Error())
			return
		}
	}

	var tx interface{}
	if approve {
		tx, err = h.transactions.Approve(r.Context(), id, actorID, req.Notes)
	} else {
		tx, err = h.transactions.Reject(r.Context(), id, actorID, req.Notes)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, tx)
}
