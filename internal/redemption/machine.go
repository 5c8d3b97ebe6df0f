// Package redemption runs the reward claim state machine:
//
//	pending -> approved -> delivered
//	pending -> rejected
//	pending | approved -> cancelled
//
// Points are debited at delivery only; request and approval never move points.
package redemption

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/ctxutil"
	"github.com/emotionalcenter/amistapp/internal/metrics"
	"github.com/emotionalcenter/amistapp/internal/models"
	"github.com/emotionalcenter/amistapp/internal/observability"
)

type Store interface {
	GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error)

	CreateReward(ctx context.Context, r models.Reward) (models.Reward, error)
	GetReward(ctx context.Context, id uuid.UUID) (models.Reward, error)
	ListRewards(ctx context.Context, teacherID uuid.UUID, activeOnly bool) ([]models.Reward, error)
	SetRewardActive(ctx context.Context, id uuid.UUID, active bool) (models.Reward, error)
	DeleteReward(ctx context.Context, id uuid.UUID) error

	CreateClaim(ctx context.Context, c models.RewardClaim) (models.RewardClaim, error)
	GetClaim(ctx context.Context, id uuid.UUID) (models.RewardClaim, error)
	ListClaims(ctx context.Context, f models.ClaimFilter) ([]models.RewardClaim, error)
	TransitionClaim(ctx context.Context, id uuid.UUID, from []models.ClaimStatus, to models.ClaimStatus, decidedBy *uuid.UUID) (models.RewardClaim, error)
	DeliverClaim(ctx context.Context, id uuid.UUID, decidedBy uuid.UUID, reason string) (models.RewardClaim, models.Movement, error)
}

type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// transitions[to]: допустимые исходные состояния.
var transitions = map[models.ClaimStatus][]models.ClaimStatus{
	models.ClaimApproved:  {models.ClaimPending},
	models.ClaimRejected:  {models.ClaimPending},
	models.ClaimDelivered: {models.ClaimApproved},
	models.ClaimCancelled: {models.ClaimPending, models.ClaimApproved},
}

// CanTransition reports whether from -> to is a legal claim transition.
func CanTransition(from, to models.ClaimStatus) bool {
	for _, s := range transitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

type Machine struct {
	store    Store
	notifier Notifier
	log      *zap.Logger
}

func New(store Store, n Notifier, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{store: store, notifier: n, log: log.Named("redemption")}
}

// Request создаёт pending-заявку. Баллы не списываются, но баланс и склад
// проверяются уже сейчас.
func (m *Machine) Request(ctx context.Context, studentID, rewardID uuid.UUID) (models.RewardClaim, error) {
	const op = "redemption.Request"
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	student, err := m.student(ctx, op, studentID)
	if err != nil {
		return models.RewardClaim{}, m.fail(ctx, op, err)
	}
	reward, err := m.store.GetReward(ctx, rewardID)
	if err != nil {
		return models.RewardClaim{}, m.fail(ctx, op, err)
	}
	if !reward.Active || reward.TeacherID != *student.TeacherID {
		return models.RewardClaim{}, m.fail(ctx, op, apperr.New(op, apperr.ErrUnknownReward, "reward not available to this student"))
	}
	if student.Balance < reward.CostPoints {
		return models.RewardClaim{}, m.fail(ctx, op, apperr.New(op, apperr.ErrInsufficientPoints, "balance %d < cost %d", student.Balance, reward.CostPoints))
	}
	if !reward.InStock() {
		return models.RewardClaim{}, m.fail(ctx, op, apperr.E(op, apperr.ErrOutOfStock))
	}

	claim, err := m.store.CreateClaim(ctx, models.RewardClaim{
		ID:          uuid.New(),
		RewardID:    reward.ID,
		StudentID:   student.ID,
		TeacherID:   reward.TeacherID,
		PointsSpent: reward.CostPoints,
		Status:      models.ClaimPending,
	})
	if err != nil {
		return models.RewardClaim{}, m.fail(ctx, op, err)
	}
	metrics.ClaimTransitions.WithLabelValues(string(models.ClaimPending)).Inc()
	m.notifier.Notify(ctx, models.Notification{
		RecipientID: reward.TeacherID,
		Message:     fmt.Sprintf("%s solicitó \"%s\"", student.Name, reward.Title),
		Metadata:    claimMeta(claim),
	})
	return claim, nil
}

func (m *Machine) Approve(ctx context.Context, teacherID, claimID uuid.UUID) (models.RewardClaim, error) {
	return m.decide(ctx, "redemption.Approve", teacherID, claimID, models.ClaimApproved, "Tu solicitud fue aprobada")
}

func (m *Machine) Reject(ctx context.Context, teacherID, claimID uuid.UUID) (models.RewardClaim, error) {
	return m.decide(ctx, "redemption.Reject", teacherID, claimID, models.ClaimRejected, "Tu solicitud fue rechazada")
}

func (m *Machine) decide(ctx context.Context, op string, teacherID, claimID uuid.UUID, to models.ClaimStatus, msg string) (models.RewardClaim, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	claim, err := m.store.GetClaim(ctx, claimID)
	if err != nil {
		return models.RewardClaim{}, m.fail(ctx, op, err)
	}
	if claim.TeacherID != teacherID {
		return models.RewardClaim{}, m.fail(ctx, op, apperr.New(op, apperr.ErrForbidden, "claim belongs to another teacher"))
	}
	claim, err = m.transition(ctx, op, claim, to, teacherID)
	if err != nil {
		return models.RewardClaim{}, m.fail(ctx, op, err)
	}
	m.notifier.Notify(ctx, models.Notification{RecipientID: claim.StudentID, Message: msg, Metadata: claimMeta(claim)})
	return claim, nil
}

// Deliver списывает pointsSpent, уменьшает склад и закрывает заявку одной
// транзакцией. Баланс перепроверяется: с момента одобрения он мог уменьшиться.
func (m *Machine) Deliver(ctx context.Context, teacherID, claimID uuid.UUID) (models.RewardClaim, error) {
	const op = "redemption.Deliver"
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	claim, err := m.store.GetClaim(ctx, claimID)
	if err != nil {
		return models.RewardClaim{}, m.fail(ctx, op, err)
	}
	if claim.TeacherID != teacherID {
		return models.RewardClaim{}, m.fail(ctx, op, apperr.New(op, apperr.ErrForbidden, "claim belongs to another teacher"))
	}
	if !CanTransition(claim.Status, models.ClaimDelivered) {
		return models.RewardClaim{}, m.fail(ctx, op, apperr.New(op, apperr.ErrInvalidTransition, "%s -> delivered", claim.Status))
	}
	reward, err := m.store.GetReward(ctx, claim.RewardID)
	title := "reward"
	if err == nil {
		title = reward.Title
	}

	claim, mv, err := m.store.DeliverClaim(ctx, claimID, teacherID, "redeemed: "+title)
	if err != nil {
		return models.RewardClaim{}, m.fail(ctx, op, apperr.Remap(err, apperr.ErrInsufficientBalance, apperr.ErrInsufficientPoints))
	}
	metrics.ClaimTransitions.WithLabelValues(string(models.ClaimDelivered)).Inc()
	metrics.ObserveMovement(string(mv.Kind), mv.Amount)
	m.log.Info("reward delivered",
		zap.String("claim", claim.ID.String()),
		zap.String("student", claim.StudentID.String()),
		zap.Int64("points", claim.PointsSpent),
	)
	meta := claimMeta(claim)
	meta["movement_id"] = mv.ID.String()
	m.notifier.Notify(ctx, models.Notification{
		RecipientID: claim.StudentID,
		Message:     fmt.Sprintf("Recibiste \"%s\" (-%d puntos)", title, claim.PointsSpent),
		Metadata:    meta,
	})
	return claim, nil
}

// Cancel: учитель-владелец или сам ученик, из pending или approved.
func (m *Machine) Cancel(ctx context.Context, actorID, claimID uuid.UUID) (models.RewardClaim, error) {
	const op = "redemption.Cancel"
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	claim, err := m.store.GetClaim(ctx, claimID)
	if err != nil {
		return models.RewardClaim{}, m.fail(ctx, op, err)
	}
	if actorID != claim.TeacherID && actorID != claim.StudentID {
		return models.RewardClaim{}, m.fail(ctx, op, apperr.New(op, apperr.ErrForbidden, "only the student or the teacher may cancel"))
	}
	claim, err = m.transition(ctx, op, claim, models.ClaimCancelled, actorID)
	if err != nil {
		return models.RewardClaim{}, m.fail(ctx, op, err)
	}
	// уведомляем другую сторону
	recipient := claim.TeacherID
	if actorID == claim.TeacherID {
		recipient = claim.StudentID
	}
	m.notifier.Notify(ctx, models.Notification{RecipientID: recipient, Message: "La solicitud fue cancelada", Metadata: claimMeta(claim)})
	return claim, nil
}

func (m *Machine) transition(ctx context.Context, op string, claim models.RewardClaim, to models.ClaimStatus, actor uuid.UUID) (models.RewardClaim, error) {
	if !CanTransition(claim.Status, to) {
		return models.RewardClaim{}, apperr.New(op, apperr.ErrInvalidTransition, "%s -> %s", claim.Status, to)
	}
	// условный UPDATE: конкурентный переход проиграет с InvalidTransition
	out, err := m.store.TransitionClaim(ctx, claim.ID, transitions[to], to, &actor)
	if err != nil {
		return models.RewardClaim{}, err
	}
	metrics.ClaimTransitions.WithLabelValues(string(to)).Inc()
	m.log.Info("claim transition",
		zap.String("claim", claim.ID.String()),
		zap.String("from", string(claim.Status)),
		zap.String("to", string(to)),
	)
	return out, nil
}

func (m *Machine) ListClaims(ctx context.Context, f models.ClaimFilter) ([]models.RewardClaim, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return m.store.ListClaims(ctx, f)
}

func (m *Machine) Claim(ctx context.Context, id uuid.UUID) (models.RewardClaim, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return m.store.GetClaim(ctx, id)
}

func (m *Machine) student(ctx context.Context, op string, id uuid.UUID) (models.Account, error) {
	a, err := m.store.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrUnknownAccount) {
			return models.Account{}, apperr.Wrap(op, apperr.ErrUnknownStudent, err)
		}
		return models.Account{}, err
	}
	if a.Role != models.Student || a.TeacherID == nil {
		return models.Account{}, apperr.New(op, apperr.ErrUnknownStudent, "account %s is not a student", id)
	}
	return a, nil
}

func (m *Machine) fail(ctx context.Context, op string, err error) error {
	return observability.Failed(ctx, m.log, op, err)
}

func claimMeta(c models.RewardClaim) map[string]string {
	return map[string]string{
		"kind":      "claim",
		"claim_id":  c.ID.String(),
		"reward_id": c.RewardID.String(),
		"status":    string(c.Status),
		"points":    strconv.FormatInt(c.PointsSpent, 10),
	}
}
