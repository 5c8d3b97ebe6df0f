package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

const accountCols = `id, role, teacher_id, name, balance, initial_balance, frozen, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (models.Account, error) {
	var (
		a       models.Account
		teacher uuid.NullUUID
	)
	if err := r.Scan(&a.ID, &a.Role, &teacher, &a.Name, &a.Balance, &a.InitialBalance, &a.Frozen, &a.CreatedAt); err != nil {
		return models.Account{}, err
	}
	a.TeacherID = uuidPtr(teacher)
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	const op = "db.CreateAccount"
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, role, teacher_id, name, balance, initial_balance, frozen)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, a.ID, a.Role, nullUUID(a.TeacherID), a.Name, a.Balance, a.InitialBalance, a.Frozen).Scan(&a.CreatedAt)
	if err != nil {
		return models.Account{}, mapErr(op, err)
	}
	return a, nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return models.Account{}, notFound("db.GetAccount", err, apperr.ErrUnknownAccount)
	}
	return a, nil
}

func (s *Store) ListStudents(ctx context.Context, teacherID uuid.UUID) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountCols+`
		FROM accounts
		WHERE role = 'student' AND teacher_id = $1
		ORDER BY name, id
	`, teacherID)
	if err != nil {
		return nil, mapErr("db.ListStudents", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapErr("db.ListStudents", err)
		}
		out = append(out, a)
	}
	return out, mapErr("db.ListStudents", rows.Err())
}

// SetFrozen: пачкой по списку id.
func (s *Store) SetFrozen(ctx context.Context, ids []uuid.UUID, frozen bool) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET frozen = $2 WHERE id = ANY($1::uuid[])
	`, pq.Array(uuidStrings(ids)), frozen)
	return mapErr("db.SetFrozen", err)
}

// lockAccounts берёт FOR UPDATE в порядке id, чтобы встречные переводы не
// взаимоблокировались.
func lockAccounts(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) (map[uuid.UUID]models.Account, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+accountCols+`
		FROM accounts
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE
	`, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]models.Account, len(ids))
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}
