package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func (s *Store) CreateClaim(_ context.Context, c models.RewardClaim) (models.RewardClaim, error) {
	const op = "memstore.CreateClaim"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.rewardLocked(c.RewardID); err != nil {
		return models.RewardClaim{}, err
	}
	if _, ok := s.accounts[c.StudentID]; !ok {
		return models.RewardClaim{}, apperr.E(op, apperr.ErrUnknownStudent)
	}
	if c.Status == models.ClaimPending {
		for _, cur := range s.claims {
			if cur.StudentID == c.StudentID && cur.RewardID == c.RewardID && cur.Status == models.ClaimPending {
				return models.RewardClaim{}, apperr.E(op, apperr.ErrDuplicatePending)
			}
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = s.stamp()
	c.UpdatedAt = c.CreatedAt
	cp := c
	s.claims[c.ID] = &cp
	s.claimOrder = append(s.claimOrder, c.ID)
	return c, nil
}

func (s *Store) GetClaim(_ context.Context, id uuid.UUID) (models.RewardClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[id]
	if !ok {
		return models.RewardClaim{}, apperr.E("memstore.GetClaim", apperr.ErrUnknownClaim)
	}
	return *c, nil
}

func (s *Store) ListClaims(_ context.Context, f models.ClaimFilter) ([]models.RewardClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RewardClaim
	for i := len(s.claimOrder) - 1; i >= 0; i-- {
		c := s.claims[s.claimOrder[i]]
		if f.StudentID != nil && c.StudentID != *f.StudentID {
			continue
		}
		if f.TeacherID != nil && c.TeacherID != *f.TeacherID {
			continue
		}
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *Store) TransitionClaim(_ context.Context, id uuid.UUID, from []models.ClaimStatus, to models.ClaimStatus, decidedBy *uuid.UUID) (models.RewardClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[id]
	if !ok {
		return models.RewardClaim{}, apperr.E("memstore.TransitionClaim", apperr.ErrUnknownClaim)
	}
	if !statusIn(c.Status, from) {
		return models.RewardClaim{}, apperr.New("memstore.TransitionClaim", apperr.ErrInvalidTransition, "%s -> %s", c.Status, to)
	}
	c.Status = to
	c.DecidedBy = cloneUUID(decidedBy)
	c.UpdatedAt = s.stamp()
	return *c, nil
}

// DeliverClaim: approved -> delivered, списание pointsSpent и -1 со склада.
// Все проверки до мутаций.
func (s *Store) DeliverClaim(_ context.Context, id uuid.UUID, decidedBy uuid.UUID, reason string) (models.RewardClaim, models.Movement, error) {
	const op = "memstore.DeliverClaim"
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.claims[id]
	if !ok {
		return models.RewardClaim{}, models.Movement{}, apperr.E(op, apperr.ErrUnknownClaim)
	}
	if c.Status != models.ClaimApproved {
		return models.RewardClaim{}, models.Movement{}, apperr.New(op, apperr.ErrInvalidTransition, "%s -> delivered", c.Status)
	}
	r, ok := s.rewards[c.RewardID]
	if !ok {
		return models.RewardClaim{}, models.Movement{}, apperr.E(op, apperr.ErrUnknownReward)
	}
	if r.Stock != nil && *r.Stock <= 0 {
		return models.RewardClaim{}, models.Movement{}, apperr.E(op, apperr.ErrOutOfStock)
	}
	student := c.StudentID
	m, err := s.applyLocked(models.MovementInput{
		From:   &student,
		Amount: c.PointsSpent,
		Kind:   models.KindRedemption,
		Reason: reason,
	})
	if err != nil {
		return models.RewardClaim{}, models.Movement{}, err
	}
	if r.Stock != nil {
		*r.Stock--
	}
	c.Status = models.ClaimDelivered
	c.DecidedBy = &decidedBy
	c.MovementID = &m.ID
	c.UpdatedAt = m.CreatedAt
	return *c, m, nil
}

func statusIn(s models.ClaimStatus, set []models.ClaimStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}
