package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

const movementCols = `id, from_id, to_id, amount, kind, reason, request_id, created_at`

func scanMovement(r rowScanner) (models.Movement, error) {
	var (
		m        models.Movement
		from, to uuid.NullUUID
		reqID    sql.NullString
	)
	if err := r.Scan(&m.ID, &from, &to, &m.Amount, &m.Kind, &m.Reason, &reqID, &m.CreatedAt); err != nil {
		return models.Movement{}, err
	}
	m.From = uuidPtr(from)
	m.To = uuidPtr(to)
	m.RequestID = strPtr(reqID)
	return m, nil
}

func (s *Store) ApplyMovement(ctx context.Context, in models.MovementInput) (models.Movement, error) {
	var m models.Movement
	err := s.inTx(ctx, "db.ApplyMovement", func(tx *sql.Tx) error {
		var err error
		m, err = applyTx(ctx, tx, in)
		return err
	})
	return m, err
}

// applyTx: блокирует стороны, проверяет заморозку и баланс, меняет балансы
// и пишет строку журнала. Всё в рамках tx вызывающего.
func applyTx(ctx context.Context, tx *sql.Tx, in models.MovementInput) (models.Movement, error) {
	const op = "db.ApplyMovement"
	if in.Amount <= 0 {
		return models.Movement{}, apperr.E(op, apperr.ErrInvalidAmount)
	}
	if in.From == nil && in.To == nil {
		return models.Movement{}, apperr.New(op, apperr.ErrInvalidInput, "movement needs at least one account")
	}

	var ids []uuid.UUID
	if in.From != nil {
		ids = append(ids, *in.From)
	}
	if in.To != nil {
		ids = append(ids, *in.To)
	}
	locked, err := lockAccounts(ctx, tx, ids)
	if err != nil {
		return models.Movement{}, mapErr(op, err)
	}
	for _, id := range ids {
		a, ok := locked[id]
		if !ok {
			return models.Movement{}, apperr.E(op, apperr.ErrUnknownAccount)
		}
		if a.Frozen {
			return models.Movement{}, apperr.E(op, apperr.ErrAccountFrozen)
		}
	}
	if in.From != nil && locked[*in.From].Balance < in.Amount {
		return models.Movement{}, apperr.E(op, apperr.ErrInsufficientBalance)
	}

	if in.From != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE accounts SET balance = balance - $2 WHERE id = $1 AND balance >= $2
		`, *in.From, in.Amount)
		if err != nil {
			return models.Movement{}, mapErr(op, err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return models.Movement{}, apperr.E(op, apperr.ErrInsufficientBalance)
		}
	}
	if in.To != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = balance + $2 WHERE id = $1`, *in.To, in.Amount); err != nil {
			return models.Movement{}, mapErr(op, err)
		}
	}

	m := models.Movement{
		ID:        uuid.New(),
		From:      in.From,
		To:        in.To,
		Amount:    in.Amount,
		Kind:      in.Kind,
		Reason:    in.Reason,
		RequestID: in.RequestIDPtr(),
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO point_movements (id, from_id, to_id, amount, kind, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, m.ID, nullUUID(m.From), nullUUID(m.To), m.Amount, m.Kind, m.Reason, nullString(m.RequestID)).Scan(&m.CreatedAt)
	if err != nil {
		return models.Movement{}, mapErr(op, err)
	}
	return m, nil
}

// ListMovements: новые сверху; limit <= 0 без ограничения.
func (s *Store) ListMovements(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Movement, error) {
	const op = "db.ListMovements"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movementCols+`
		FROM point_movements
		WHERE from_id = $1 OR to_id = $1
		ORDER BY seq DESC
		LIMIT NULLIF($2::int, 0)
	`, accountID, max(limit, 0))
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []models.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, m)
	}
	return out, mapErr(op, rows.Err())
}

// Reconcile сравнивает balance с initial_balance + приход - расход по журналу.
func (s *Store) Reconcile(ctx context.Context, accountID *uuid.UUID) ([]models.Reconciliation, error) {
	const op = "db.Reconcile"
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.balance,
		       (a.initial_balance
		        + COALESCE((SELECT SUM(m.amount) FROM point_movements m WHERE m.to_id = a.id), 0)
		        - COALESCE((SELECT SUM(m.amount) FROM point_movements m WHERE m.from_id = a.id), 0))::bigint
		FROM accounts a
		WHERE $1::uuid IS NULL OR a.id = $1::uuid
		ORDER BY a.id
	`, nullUUID(accountID))
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []models.Reconciliation
	for rows.Next() {
		var r models.Reconciliation
		if err := rows.Scan(&r.AccountID, &r.Balance, &r.Expected); err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(op, err)
	}
	if accountID != nil && len(out) == 0 {
		return nil, apperr.E(op, apperr.ErrUnknownAccount)
	}
	return out, nil
}
