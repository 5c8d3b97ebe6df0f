package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

const rewardCols = `id, teacher_id, title, description, cost_points, stock, active, created_at`

func scanReward(r rowScanner) (models.Reward, error) {
	var (
		rw    models.Reward
		stock sql.NullInt64
	)
	if err := r.Scan(&rw.ID, &rw.TeacherID, &rw.Title, &rw.Description, &rw.CostPoints, &stock, &rw.Active, &rw.CreatedAt); err != nil {
		return models.Reward{}, err
	}
	if stock.Valid {
		v := stock.Int64
		rw.Stock = &v
	}
	return rw, nil
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

// CreateReward вставляет награду только для существующего учителя.
func (s *Store) CreateReward(ctx context.Context, r models.Reward) (models.Reward, error) {
	const op = "db.CreateReward"
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO rewards (id, teacher_id, title, description, cost_points, stock, active)
		SELECT $1, a.id, $3, $4, $5, $6, $7
		FROM accounts a
		WHERE a.id = $2 AND a.role = 'teacher'
		RETURNING created_at
	`, r.ID, r.TeacherID, r.Title, r.Description, r.CostPoints, nullInt64(r.Stock), r.Active).Scan(&r.CreatedAt)
	if err != nil {
		return models.Reward{}, notFound(op, err, apperr.ErrUnknownAccount)
	}
	return r, nil
}

func (s *Store) GetReward(ctx context.Context, id uuid.UUID) (models.Reward, error) {
	r, err := scanReward(s.db.QueryRowContext(ctx, `
		SELECT `+rewardCols+` FROM rewards WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if err != nil {
		return models.Reward{}, notFound("db.GetReward", err, apperr.ErrUnknownReward)
	}
	return r, nil
}

func (s *Store) ListRewards(ctx context.Context, teacherID uuid.UUID, activeOnly bool) ([]models.Reward, error) {
	const op = "db.ListRewards"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+rewardCols+`
		FROM rewards
		WHERE teacher_id = $1 AND deleted_at IS NULL AND (active OR NOT $2)
		ORDER BY created_at, id
	`, teacherID, activeOnly)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []models.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, r)
	}
	return out, mapErr(op, rows.Err())
}

func (s *Store) SetRewardActive(ctx context.Context, id uuid.UUID, active bool) (models.Reward, error) {
	r, err := scanReward(s.db.QueryRowContext(ctx, `
		UPDATE rewards SET active = $2
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+rewardCols, id, active))
	if err != nil {
		return models.Reward{}, notFound("db.SetRewardActive", err, apperr.ErrUnknownReward)
	}
	return r, nil
}

// DeleteReward: мягкое удаление; запрещено, пока есть незавершённые заявки.
func (s *Store) DeleteReward(ctx context.Context, id uuid.UUID) error {
	const op = "db.DeleteReward"
	return s.inTx(ctx, op, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `
			SELECT 1 FROM rewards WHERE id = $1 AND deleted_at IS NULL FOR UPDATE
		`, id).Scan(&one)
		if err != nil {
			return notFound(op, err, apperr.ErrUnknownReward)
		}
		var open bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM reward_claims
				WHERE reward_id = $1 AND status IN ('pending', 'approved')
			)
		`, id).Scan(&open)
		if err != nil {
			return mapErr(op, err)
		}
		if open {
			return apperr.E(op, apperr.ErrRewardInUse)
		}
		_, err = tx.ExecContext(ctx, `UPDATE rewards SET deleted_at = now(), active = false WHERE id = $1`, id)
		return mapErr(op, err)
	})
}
