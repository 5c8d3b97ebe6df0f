package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

// UpsertAction: по уникальному name, id сохраняется при повторном сиде.
func (s *Store) UpsertAction(ctx context.Context, a models.Action) (models.Action, error) {
	const op = "db.UpsertAction"
	if a.Points <= 0 {
		return models.Action{}, apperr.E(op, apperr.ErrInvalidAmount)
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO actions_catalog (id, name, description, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description, points = EXCLUDED.points
		RETURNING id
	`, a.ID, a.Name, a.Description, a.Points).Scan(&a.ID)
	if err != nil {
		return models.Action{}, mapErr(op, err)
	}
	return a, nil
}

func (s *Store) GetAction(ctx context.Context, id uuid.UUID) (models.Action, error) {
	var a models.Action
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, points FROM actions_catalog WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.Description, &a.Points)
	if err != nil {
		return models.Action{}, notFound("db.GetAction", err, apperr.ErrUnknownAction)
	}
	return a, nil
}

func (s *Store) ListActions(ctx context.Context) ([]models.Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, points FROM actions_catalog ORDER BY points DESC, name
	`)
	if err != nil {
		return nil, mapErr("db.ListActions", err)
	}
	defer rows.Close()

	var out []models.Action
	for rows.Next() {
		var a models.Action
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Points); err != nil {
			return nil, mapErr("db.ListActions", err)
		}
		out = append(out, a)
	}
	return out, mapErr("db.ListActions", rows.Err())
}
