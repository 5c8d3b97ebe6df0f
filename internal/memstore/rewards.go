package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func (r *rewardRow) snapshot() models.Reward {
	out := r.Reward
	out.Stock = cloneInt64(r.Stock)
	return out
}

func (s *Store) CreateReward(_ context.Context, r models.Reward) (models.Reward, error) {
	const op = "memstore.CreateReward"
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.accounts[r.TeacherID]
	if !ok || t.Role != models.Teacher {
		return models.Reward{}, apperr.E(op, apperr.ErrUnknownAccount)
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = s.stamp()
	row := &rewardRow{Reward: r}
	row.Stock = cloneInt64(r.Stock)
	s.rewards[r.ID] = row
	s.rewardOrder = append(s.rewardOrder, r.ID)
	return row.snapshot(), nil
}

func (s *Store) rewardLocked(id uuid.UUID) (*rewardRow, error) {
	r, ok := s.rewards[id]
	if !ok || r.deleted {
		return nil, apperr.E("memstore.GetReward", apperr.ErrUnknownReward)
	}
	return r, nil
}

func (s *Store) GetReward(_ context.Context, id uuid.UUID) (models.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.rewardLocked(id)
	if err != nil {
		return models.Reward{}, err
	}
	return r.snapshot(), nil
}

func (s *Store) ListRewards(_ context.Context, teacherID uuid.UUID, activeOnly bool) ([]models.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reward
	for _, id := range s.rewardOrder {
		r := s.rewards[id]
		if r.deleted || r.TeacherID != teacherID || (activeOnly && !r.Active) {
			continue
		}
		out = append(out, r.snapshot())
	}
	return out, nil
}

func (s *Store) SetRewardActive(_ context.Context, id uuid.UUID, active bool) (models.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.rewardLocked(id)
	if err != nil {
		return models.Reward{}, err
	}
	r.Active = active
	return r.snapshot(), nil
}

func (s *Store) DeleteReward(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.rewardLocked(id)
	if err != nil {
		return err
	}
	for _, c := range s.claims {
		if c.RewardID == id && !c.Status.Terminal() {
			return apperr.E("memstore.DeleteReward", apperr.ErrRewardInUse)
		}
	}
	r.deleted = true
	return nil
}
