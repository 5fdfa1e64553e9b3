package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/finovo/recharge-wallet/internal/api/middleware"
	"github.com/finovo/recharge-wallet/internal/api/problem"
	"github.com/finovo/recharge-wallet/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes an RFC 7807 error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

func queryInt32(r *http.Request, name string, fallback int32) int32 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}

func requestActor(r *http.Request) (uuid.UUID, bool, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, false, errors.New("missing user in auth context")
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, false, errors.New("invalid user_id in auth context")
	}
	return actorID, middleware.UserRoleFromContext(r.Context()) == "admin", nil
}

// writeServiceError maps domain sentinels to HTTP problem responses, falling
// back to database constraint mapping and then HTTP 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInsufficientBalance):
		RespondError(w, r, http.StatusUnprocessableEntity, "wallet/insufficient-balance", "wallet balance cannot cover this transaction")
	case errors.Is(err, models.ErrWalletNotFound):
		RespondError(w, r, http.StatusNotFound, "wallet/not-found", "wallet not found")
	case errors.Is(err, models.ErrTransactionNotFound):
		RespondError(w, r, http.StatusNotFound, "transaction/not-found", "transaction not found")
	case errors.Is(err, models.ErrOperatorNotFound):
		RespondError(w, r, http.StatusNotFound, "operator/not-found", "operator not found")
	case errors.Is(err, models.ErrOperatorInactive):
		RespondError(w, r, http.StatusUnprocessableEntity, "operator/inactive", "operator is not accepting transactions")
	case errors.Is(err, models.ErrAlreadyProcessed):
		RespondError(w, r, http.StatusConflict, "transaction/already-processed", "transaction is already in the requested state")
	case errors.Is(err, models.ErrInvalidTransition):
		RespondError(w, r, http.StatusConflict, "transaction/invalid-transition", err.Error())
	case errors.Is(err, models.ErrNoApplicableSlab):
		RespondError(w, r, http.StatusUnprocessableEntity, "charge-slab/no-applicable-slab", "no charge slab covers this amount")
	case errors.Is(err, models.ErrSlabOverlap):
		RespondError(w, r, http.StatusConflict, "charge-slab/overlap", "slab range overlaps an existing active slab")
	default:
		if status, problemType, message, ok := mapDBError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "unexpected server error")
	}
}

func mapDBError(err error) (status int, problemType, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", "", false
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		return http.StatusConflict, "db/unique-violation", "resource already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, "db/foreign-key-violation", "invalid reference", true
	case "23514": // check_violation
		return http.StatusBadRequest, "db/check-violation", "request violates data constraints", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, "db/not-null-violation", "missing required field", true
	default:
		return 0, "", "", false
	}
}
