package redemption

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/ctxutil"
	"github.com/emotionalcenter/amistapp/internal/models"
)

type NewReward struct {
	Title       string
	Description string
	CostPoints  int64
	// nil: без ограничения
	Stock *int64
}

func (m *Machine) CreateReward(ctx context.Context, teacherID uuid.UUID, in NewReward) (models.Reward, error) {
	const op = "redemption.CreateReward"
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.Reward{}, m.fail(ctx, op, apperr.New(op, apperr.ErrInvalidInput, "title is required"))
	}
	if in.CostPoints <= 0 {
		return models.Reward{}, m.fail(ctx, op, apperr.E(op, apperr.ErrInvalidAmount))
	}
	if in.Stock != nil && *in.Stock < 0 {
		return models.Reward{}, m.fail(ctx, op, apperr.New(op, apperr.ErrInvalidInput, "stock must be >= 0"))
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	t, err := m.store.GetAccount(ctx, teacherID)
	if err != nil || t.Role != models.Teacher {
		return models.Reward{}, m.fail(ctx, op, apperr.New(op, apperr.ErrForbidden, "only teachers own rewards"))
	}
	r, err := m.store.CreateReward(ctx, models.Reward{
		ID:          uuid.New(),
		TeacherID:   teacherID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		CostPoints:  in.CostPoints,
		Stock:       in.Stock,
		Active:      true,
	})
	if err != nil {
		return models.Reward{}, m.fail(ctx, op, err)
	}
	return r, nil
}

func (m *Machine) SetRewardActive(ctx context.Context, teacherID, rewardID uuid.UUID, active bool) (models.Reward, error) {
	const op = "redemption.SetRewardActive"
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if err := m.owned(ctx, op, teacherID, rewardID); err != nil {
		return models.Reward{}, m.fail(ctx, op, err)
	}
	r, err := m.store.SetRewardActive(ctx, rewardID, active)
	if err != nil {
		return models.Reward{}, m.fail(ctx, op, err)
	}
	return r, nil
}

// DeleteReward: только без незакрытых заявок; история заявок сохраняется.
func (m *Machine) DeleteReward(ctx context.Context, teacherID, rewardID uuid.UUID) error {
	const op = "redemption.DeleteReward"
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if err := m.owned(ctx, op, teacherID, rewardID); err != nil {
		return m.fail(ctx, op, err)
	}
	if err := m.store.DeleteReward(ctx, rewardID); err != nil {
		return m.fail(ctx, op, err)
	}
	return nil
}

func (m *Machine) ListRewards(ctx context.Context, teacherID uuid.UUID, activeOnly bool) ([]models.Reward, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return m.store.ListRewards(ctx, teacherID, activeOnly)
}

// RewardsFor: активные награды учителя этого ученика.
func (m *Machine) RewardsFor(ctx context.Context, studentID uuid.UUID) ([]models.Reward, error) {
	const op = "redemption.RewardsFor"
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	s, err := m.student(ctx, op, studentID)
	if err != nil {
		return nil, err
	}
	return m.store.ListRewards(ctx, *s.TeacherID, true)
}

func (m *Machine) owned(ctx context.Context, op string, teacherID, rewardID uuid.UUID) error {
	r, err := m.store.GetReward(ctx, rewardID)
	if err != nil {
		return err
	}
	if r.TeacherID != teacherID {
		return apperr.New(op, apperr.ErrForbidden, "reward belongs to another teacher")
	}
	return nil
}
