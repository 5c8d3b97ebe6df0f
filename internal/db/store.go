// Package db is the Postgres implementation of the store contracts. Every
// multi-step write runs in one READ COMMITTED transaction; races are settled
// by row locks, conditional updates and unique indexes.
package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/emotionalcenter/amistapp/internal/apperr"
)

type Store struct {
	db *sql.DB
}

func New(database *sql.DB) *Store { return &Store{db: database} }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// queryer: общее у *sql.DB и *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx выполняет fn в транзакции; при ошибке всё откатывается.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperr.Store(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Store(op, err)
	}
	return nil
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// pgCode достаёт SQLSTATE и имя ограничения из ошибки любого из драйверов.
func pgCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}

// mapErr переводит нарушения ограничений в доменные ошибки; остальное
// считается недоступностью хранилища.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	code, constraint := pgCode(err)
	switch {
	case code == uniqueViolation && constraint == "point_movements_request_id_key":
		return apperr.Wrap(op, apperr.ErrDuplicateRequest, err)
	case code == uniqueViolation && constraint == "reward_claims_one_pending":
		return apperr.Wrap(op, apperr.ErrDuplicatePending, err)
	case code == uniqueViolation && constraint == "emotion_entries_pkey":
		return apperr.Wrap(op, apperr.ErrAlreadyLoggedToday, err)
	case code == uniqueViolation:
		return apperr.Wrap(op, apperr.ErrInvalidInput, err)
	case code == foreignKeyViolation && (constraint == "reports_student_id_fkey" || constraint == "reward_claims_student_id_fkey" || constraint == "emotion_entries_student_id_fkey"):
		return apperr.Wrap(op, apperr.ErrUnknownStudent, err)
	case code == foreignKeyViolation:
		return apperr.Wrap(op, apperr.ErrUnknownAccount, err)
	case code == checkViolation && constraint == "accounts_balance_check":
		return apperr.Wrap(op, apperr.ErrInsufficientBalance, err)
	case code == checkViolation && constraint == "rewards_stock_check":
		return apperr.Wrap(op, apperr.ErrOutOfStock, err)
	case code == checkViolation:
		return apperr.Wrap(op, apperr.ErrInvalidInput, err)
	}
	return apperr.Store(op, err)
}

// notFound: sql.ErrNoRows -> kind, остальное через mapErr.
func notFound(op string, err error, kind error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.E(op, kind)
	}
	return mapErr(op, err)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func nullUUID(p *uuid.UUID) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
