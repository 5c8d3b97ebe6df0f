// Package award moves points from a teacher's budget (or a student's own
// balance) to a student, once per request id.
package award

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/ledger"
	"github.com/emotionalcenter/amistapp/internal/models"
	"github.com/emotionalcenter/amistapp/internal/observability"
)

type Ledger interface {
	Account(ctx context.Context, id uuid.UUID) (models.Account, error)
	Transfer(ctx context.Context, from, to uuid.UUID, amount int64, reason string, opts ...ledger.Option) (models.Movement, error)
}

type Catalog interface {
	GetAction(ctx context.Context, id uuid.UUID) (models.Action, error)
	ListActions(ctx context.Context) ([]models.Action, error)
}

type Guard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type Engine struct {
	ledger   Ledger
	catalog  Catalog
	guard    Guard
	notifier Notifier
	window   time.Duration
	log      *zap.Logger
}

func New(l Ledger, c Catalog, g Guard, n Notifier, window time.Duration, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &Engine{ledger: l, catalog: c, guard: g, notifier: n, window: window, log: log.Named("award")}
}

type AwardRequest struct {
	TeacherID uuid.UUID
	StudentID uuid.UUID
	ActionID  uuid.UUID
	// пусто: сгенерируем
	RequestID string
}

type PeerAwardRequest struct {
	FromStudentID uuid.UUID
	ToStudentID   uuid.UUID
	// ActionID или Points: действие из каталога имеет приоритет
	ActionID  *uuid.UUID
	Points    int64
	Reason    string
	RequestID string
}

type Result struct {
	Movement  models.Movement `json:"movement"`
	RequestID string          `json:"request_id"`
}

func (e *Engine) Actions(ctx context.Context) ([]models.Action, error) {
	return e.catalog.ListActions(ctx)
}

func (e *Engine) Award(ctx context.Context, req AwardRequest) (Result, error) {
	const op = "award.Award"

	teacher, err := e.ledger.Account(ctx, req.TeacherID)
	if err != nil && !errors.Is(err, apperr.ErrUnknownAccount) {
		return Result{}, e.fail(ctx, op, err)
	}
	if err != nil || teacher.Role != models.Teacher {
		return Result{}, e.fail(ctx, op, apperr.New(op, apperr.ErrForbidden, "only teachers award from a budget"))
	}
	student, err := e.student(ctx, op, req.StudentID)
	if err != nil {
		return Result{}, e.fail(ctx, op, err)
	}
	if !student.IsStudentOf(teacher.ID) {
		return Result{}, e.fail(ctx, op, apperr.New(op, apperr.ErrUnrelatedAccounts, "student is not in this teacher's class"))
	}
	action, err := e.catalog.GetAction(ctx, req.ActionID)
	if err != nil {
		return Result{}, e.fail(ctx, op, err)
	}
	if teacher.Balance < action.Points {
		return Result{}, e.fail(ctx, op, apperr.New(op, apperr.ErrInsufficientBudget, "budget %d < %d", teacher.Balance, action.Points))
	}

	res, err := e.transfer(ctx, op, teacher.ID, student.ID, action.Points, action.Name, models.KindAward, req.RequestID)
	if err != nil {
		return Result{}, e.fail(ctx, op, apperr.Remap(err, apperr.ErrInsufficientBalance, apperr.ErrInsufficientBudget))
	}

	e.notifier.Notify(ctx, models.Notification{
		RecipientID: student.ID,
		Message:     fmt.Sprintf("%s te dio %d puntos: %s", teacher.Name, action.Points, action.Name),
		Metadata:    movementMeta(res.Movement, "award"),
	})
	return res, nil
}

func (e *Engine) PeerAward(ctx context.Context, req PeerAwardRequest) (Result, error) {
	const op = "award.PeerAward"

	if req.FromStudentID == req.ToStudentID {
		return Result{}, e.fail(ctx, op, apperr.New(op, apperr.ErrUnrelatedAccounts, "cannot award yourself"))
	}
	from, err := e.student(ctx, op, req.FromStudentID)
	if err != nil {
		return Result{}, e.fail(ctx, op, err)
	}
	to, err := e.student(ctx, op, req.ToStudentID)
	if err != nil {
		return Result{}, e.fail(ctx, op, err)
	}
	if from.TeacherID == nil || to.TeacherID == nil || *from.TeacherID != *to.TeacherID {
		return Result{}, e.fail(ctx, op, apperr.New(op, apperr.ErrUnrelatedAccounts, "students are in different classes"))
	}

	points, reason := req.Points, req.Reason
	if req.ActionID != nil {
		action, err := e.catalog.GetAction(ctx, *req.ActionID)
		if err != nil {
			return Result{}, e.fail(ctx, op, err)
		}
		points = action.Points
		if reason == "" {
			reason = action.Name
		}
	}
	if points <= 0 {
		return Result{}, e.fail(ctx, op, apperr.E(op, apperr.ErrInvalidAmount))
	}
	if from.Balance < points {
		return Result{}, e.fail(ctx, op, apperr.New(op, apperr.ErrInsufficientBalance, "balance %d < %d", from.Balance, points))
	}
	if reason == "" {
		reason = "peer award"
	}

	res, err := e.transfer(ctx, op, from.ID, to.ID, points, reason, models.KindPeerAward, req.RequestID)
	if err != nil {
		return Result{}, e.fail(ctx, op, err)
	}

	meta := movementMeta(res.Movement, "peer_award")
	e.notifier.Notify(ctx, models.Notification{
		RecipientID: to.ID,
		Message:     fmt.Sprintf("%s te regaló %d puntos", from.Name, points),
		Metadata:    meta,
	})
	e.notifier.Notify(ctx, models.Notification{
		RecipientID: from.ID,
		Message:     fmt.Sprintf("Regalaste %d puntos a %s", points, to.Name),
		Metadata:    meta,
	})
	return res, nil
}

// transfer держит ключ идемпотентности на время окна. Если перевод не прошёл,
// ключ освобождается, чтобы честный повтор мог пройти.
func (e *Engine) transfer(ctx context.Context, op string, from, to uuid.UUID, amount int64, reason string, kind models.MovementKind, requestID string) (Result, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	key := ScopedRequestID(kind, from, requestID)

	acquired, err := e.guard.Acquire(ctx, key, e.window)
	if err != nil {
		// уникальный request_id в журнале всё равно не даст задвоить
		e.log.Warn("idempotency guard unavailable", zap.String("op", op), zap.Error(err))
		acquired = true
	}
	if !acquired {
		return Result{}, apperr.New(op, apperr.ErrDuplicateRequest, "request %s already processed", requestID)
	}

	m, err := e.ledger.Transfer(ctx, from, to, amount, reason, ledger.WithKind(kind), ledger.WithRequestID(key))
	if err != nil {
		if !errors.Is(err, apperr.ErrDuplicateRequest) {
			if rerr := e.guard.Release(context.WithoutCancel(ctx), key); rerr != nil {
				e.log.Warn("idempotency release failed", zap.String("key", key), zap.Error(rerr))
			}
		}
		return Result{}, err
	}
	e.log.Info("points awarded",
		zap.String("kind", string(kind)),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int64("amount", amount),
		zap.String("request_id", requestID),
	)
	return Result{Movement: m, RequestID: requestID}, nil
}

// ScopedRequestID: клиентский id уникален только в пределах вида начисления
// и отправителя. Префикс вида не даёт клиенту попасть в служебные ключи
// (streak_bonus:...).
func ScopedRequestID(kind models.MovementKind, from uuid.UUID, requestID string) string {
	return string(kind) + ":" + from.String() + ":" + requestID
}

func (e *Engine) student(ctx context.Context, op string, id uuid.UUID) (models.Account, error) {
	a, err := e.ledger.Account(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrUnknownAccount) {
			return models.Account{}, apperr.Wrap(op, apperr.ErrUnknownStudent, err)
		}
		return models.Account{}, err
	}
	if a.Role != models.Student {
		return models.Account{}, apperr.New(op, apperr.ErrUnknownStudent, "account %s is not a student", id)
	}
	return a, nil
}

func (e *Engine) fail(ctx context.Context, op string, err error) error {
	return observability.Failed(ctx, e.log, op, err)
}

func movementMeta(m models.Movement, kind string) map[string]string {
	return map[string]string{
		"kind":        kind,
		"movement_id": m.ID.String(),
		"amount":      strconv.FormatInt(m.Amount, 10),
	}
}
