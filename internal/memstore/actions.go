package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

// UpsertAction: по имени, как ON CONFLICT (name) в Postgres.
func (s *Store) UpsertAction(_ context.Context, a models.Action) (models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Points <= 0 {
		return models.Action{}, apperr.E("memstore.UpsertAction", apperr.ErrInvalidAmount)
	}
	for id, cur := range s.actions {
		if cur.Name == a.Name {
			a.ID = id
			s.actions[id] = a
			return a, nil
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.actions[a.ID] = a
	return a, nil
}

func (s *Store) GetAction(_ context.Context, id uuid.UUID) (models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[id]
	if !ok {
		return models.Action{}, apperr.E("memstore.GetAction", apperr.ErrUnknownAction)
	}
	return a, nil
}

func (s *Store) ListActions(_ context.Context) ([]models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Action, 0, len(s.actions))
	for _, a := range s.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
