package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

const claimCols = `id, reward_id, student_id, teacher_id, points_spent, status, decided_by, movement_id, created_at, updated_at`

func scanClaim(r rowScanner) (models.RewardClaim, error) {
	var (
		c                 models.RewardClaim
		decided, movement uuid.NullUUID
	)
	if err := r.Scan(&c.ID, &c.RewardID, &c.StudentID, &c.TeacherID, &c.PointsSpent, &c.Status, &decided, &movement, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.RewardClaim{}, err
	}
	c.DecidedBy = uuidPtr(decided)
	c.MovementID = uuidPtr(movement)
	return c, nil
}

// CreateClaim: вторая pending-заявка на ту же награду упирается в частичный
// уникальный индекс. Строка награды держится FOR SHARE до коммита, так что
// DeleteReward либо видит новую заявку, либо успевает удалить награду раньше.
func (s *Store) CreateClaim(ctx context.Context, c models.RewardClaim) (models.RewardClaim, error) {
	const op = "db.CreateClaim"
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `
			SELECT 1 FROM rewards WHERE id = $1 AND deleted_at IS NULL FOR SHARE
		`, c.RewardID).Scan(&one)
		if err != nil {
			return notFound(op, err, apperr.ErrUnknownReward)
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO reward_claims (id, reward_id, student_id, teacher_id, points_spent, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`, c.ID, c.RewardID, c.StudentID, c.TeacherID, c.PointsSpent, c.Status).Scan(&c.CreatedAt, &c.UpdatedAt)
		return mapErr(op, err)
	})
	if err != nil {
		return models.RewardClaim{}, err
	}
	return c, nil
}

func (s *Store) GetClaim(ctx context.Context, id uuid.UUID) (models.RewardClaim, error) {
	return getClaim(ctx, s.db, id, false)
}

func getClaim(ctx context.Context, q queryer, id uuid.UUID, lock bool) (models.RewardClaim, error) {
	query := `SELECT ` + claimCols + ` FROM reward_claims WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	c, err := scanClaim(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return models.RewardClaim{}, notFound("db.GetClaim", err, apperr.ErrUnknownClaim)
	}
	return c, nil
}

func (s *Store) ListClaims(ctx context.Context, f models.ClaimFilter) ([]models.RewardClaim, error) {
	const op = "db.ListClaims"
	q := `SELECT ` + claimCols + ` FROM reward_claims WHERE true`
	var args []any
	idx := 1
	if f.StudentID != nil {
		q += fmt.Sprintf(" AND student_id = $%d", idx)
		args = append(args, *f.StudentID)
		idx++
	}
	if f.TeacherID != nil {
		q += fmt.Sprintf(" AND teacher_id = $%d", idx)
		args = append(args, *f.TeacherID)
		idx++
	}
	if f.Status != nil {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, *f.Status)
	}
	q += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []models.RewardClaim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, c)
	}
	return out, mapErr(op, rows.Err())
}

// TransitionClaim: условный UPDATE по текущему статусу. Проигравший гонку
// получает InvalidTransition.
func (s *Store) TransitionClaim(ctx context.Context, id uuid.UUID, from []models.ClaimStatus, to models.ClaimStatus, decidedBy *uuid.UUID) (models.RewardClaim, error) {
	const op = "db.TransitionClaim"
	allowed := make([]string, len(from))
	for i, st := range from {
		allowed[i] = string(st)
	}
	c, err := scanClaim(s.db.QueryRowContext(ctx, `
		UPDATE reward_claims
		SET status = $2, decided_by = $3, updated_at = now()
		WHERE id = $1 AND status = ANY($4::text[])
		RETURNING `+claimCols, id, to, nullUUID(decidedBy), pq.Array(allowed)))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.RewardClaim{}, mapErr(op, err)
	}
	cur, err := s.GetClaim(ctx, id)
	if err != nil {
		return models.RewardClaim{}, err
	}
	return models.RewardClaim{}, apperr.New(op, apperr.ErrInvalidTransition, "%s -> %s", cur.Status, to)
}

// DeliverClaim: блокировка заявки, -1 со склада, списание баллов и
// approved -> delivered одной транзакцией.
func (s *Store) DeliverClaim(ctx context.Context, id uuid.UUID, decidedBy uuid.UUID, reason string) (models.RewardClaim, models.Movement, error) {
	const op = "db.DeliverClaim"
	var (
		claim models.RewardClaim
		mv    models.Movement
	)
	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		c, err := getClaim(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if c.Status != models.ClaimApproved {
			return apperr.New(op, apperr.ErrInvalidTransition, "%s -> delivered", c.Status)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE rewards SET stock = stock - 1
			WHERE id = $1 AND (stock IS NULL OR stock > 0)
		`, c.RewardID)
		if err != nil {
			return mapErr(op, err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return apperr.E(op, apperr.ErrOutOfStock)
		}

		student := c.StudentID
		mv, err = applyTx(ctx, tx, models.MovementInput{
			From:   &student,
			Amount: c.PointsSpent,
			Kind:   models.KindRedemption,
			Reason: reason,
		})
		if err != nil {
			return err
		}

		claim, err = scanClaim(tx.QueryRowContext(ctx, `
			UPDATE reward_claims
			SET status = 'delivered', decided_by = $2, movement_id = $3, updated_at = now()
			WHERE id = $1
			RETURNING `+claimCols, id, decidedBy, mv.ID))
		return mapErr(op, err)
	})
	if err != nil {
		return models.RewardClaim{}, models.Movement{}, err
	}
	return claim, mv, nil
}
