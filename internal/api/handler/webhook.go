package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/finovo/recharge-wallet/internal/service"
	"go.uber.org/zap"
)

// WebhookHandler receives signed callbacks from the topup collector.
type WebhookHandler struct {
	topups *service.TopupService
}

func NewWebhookHandler(topups *service.TopupService) *WebhookHandler {
	return &WebhookHandler{topups: topups}
}

// HandleTopupWebhook handles POST /v1/webhooks/topup. The HMAC signature is
// computed over the raw body, so the body is verified before parsing.
func (h *WebhookHandler) HandleTopupWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Failed to read request body")
		return
	}

	if err := h.topups.VerifySignature(body, r.Header.Get("X-Webhook-Signature")); err != nil {
		zap.L().Warn("topup webhook signature rejected", zap.Error(err))
		RespondError(w, r, http.StatusUnauthorized, "webhook/invalid-signature", "Invalid signature")
		return
	}

	var conf service.TopupConfirmation
	if err := json.Unmarshal(body, &conf); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid webhook payload")
		return
	}

	tx, err := h.topups.Confirm(r.Context(), conf)
	if err != nil {
		if errors.Is(err, service.ErrTopupMismatch) {
			RespondError(w, r, http.StatusUnprocessableEntity, "webhook/topup-mismatch", err.Error())
			return
		}
		zap.L().Error("process topup webhook failed", zap.Error(err))
		writeServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, tx)
}
