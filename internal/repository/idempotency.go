package repository

import (
	"context"
)

type IdempotencyKeyRow struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	InProgress     bool
}

const idempotencyColumns = `idempotency_key, request_hash, method, path,
	COALESCE(response_status, 0), COALESCE(response_body, ''::bytea),
	COALESCE(content_type, ''), in_progress`

func scanIdempotencyKey(row interface{ Scan(...any) error }) (IdempotencyKeyRow, error) {
	var rec IdempotencyKeyRow
	err := row.Scan(
		&rec.IdempotencyKey, &rec.RequestHash, &rec.Method, &rec.Path,
		&rec.ResponseStatus, &rec.ResponseBody, &rec.ContentType, &rec.InProgress,
	)
	return rec, err
}

func (q *Queries) GetIdempotencyKey(ctx context.Context, key string) (IdempotencyKeyRow, error) {
	query := `SELECT ` + idempotencyColumns + ` FROM idempotency_keys WHERE idempotency_key = $1`
	return scanIdempotencyKey(q.db.QueryRow(ctx, query, key))
}

type ReserveIdempotencyKeyParams struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
}

// ReserveIdempotencyKey claims a key for the in-flight request. A conflicting
// insert returns no rows, signalling another request holds the key.
func (q *Queries) ReserveIdempotencyKey(ctx context.Context, arg ReserveIdempotencyKeyParams) (IdempotencyKeyRow, error) {
	query := `INSERT INTO idempotency_keys (idempotency_key, request_hash, method, path, in_progress, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING ` + idempotencyColumns
	return scanIdempotencyKey(q.db.QueryRow(ctx, query, arg.IdempotencyKey, arg.RequestHash, arg.Method, arg.Path))
}

type FinalizeIdempotencyKeyParams struct {
	IdempotencyKey string
	RequestHash    string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
}

func (q *Queries) FinalizeIdempotencyKey(ctx context.Context, arg FinalizeIdempotencyKeyParams) (IdempotencyKeyRow, error) {
	query := `UPDATE idempotency_keys
		SET response_status = $3, response_body = $4, content_type = $5, in_progress = FALSE
		WHERE idempotency_key = $1 AND request_hash = $2
		RETURNING ` + idempotencyColumns
	rec, err := scanIdempotencyKey(q.db.QueryRow(ctx, query,
		arg.IdempotencyKey, arg.RequestHash, arg.ResponseStatus, arg.ResponseBody, arg.ContentType,
	))
	if err != nil {
		return rec, err
	}
	return rec, nil
}
