// Package ledger is the only way balances change. Every successful mutation
// appends exactly one movement; the store applies the balance deltas and the
// journal row in one transaction.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/ctxutil"
	"github.com/emotionalcenter/amistapp/internal/metrics"
	"github.com/emotionalcenter/amistapp/internal/models"
	"github.com/emotionalcenter/amistapp/internal/observability"
)

type Store interface {
	CreateAccount(ctx context.Context, a models.Account) (models.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error)
	ListStudents(ctx context.Context, teacherID uuid.UUID) ([]models.Account, error)
	ApplyMovement(ctx context.Context, in models.MovementInput) (models.Movement, error)
	ListMovements(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Movement, error)
	Reconcile(ctx context.Context, accountID *uuid.UUID) ([]models.Reconciliation, error)
	SetFrozen(ctx context.Context, ids []uuid.UUID, frozen bool) error
}

type Ledger struct {
	store Store
	log   *zap.Logger
}

func New(store Store, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, log: log.Named("ledger")}
}

type Option func(*models.MovementInput)

func WithKind(k models.MovementKind) Option {
	return func(in *models.MovementInput) { in.Kind = k }
}

// WithRequestID привязывает движение к id запроса; повтор id отклоняется
// уникальным индексом с DuplicateRequest.
func WithRequestID(id string) Option {
	return func(in *models.MovementInput) { in.RequestID = id }
}

type NewAccount struct {
	Role           models.Role
	TeacherID      *uuid.UUID
	Name           string
	InitialBalance int64
}

func (l *Ledger) OpenAccount(ctx context.Context, in NewAccount) (models.Account, error) {
	const op = "ledger.OpenAccount"
	if !in.Role.Valid() {
		return models.Account{}, apperr.New(op, apperr.ErrInvalidInput, "unknown role %q", in.Role)
	}
	if in.InitialBalance < 0 {
		return models.Account{}, apperr.E(op, apperr.ErrInvalidAmount)
	}
	if (in.Role == models.Student) != (in.TeacherID != nil) {
		return models.Account{}, apperr.New(op, apperr.ErrInvalidInput, "students need a teacher, teachers must not have one")
	}
	if in.TeacherID != nil {
		t, err := l.Account(ctx, *in.TeacherID)
		if err != nil {
			return models.Account{}, err
		}
		if t.Role != models.Teacher {
			return models.Account{}, apperr.New(op, apperr.ErrInvalidInput, "teacher_id is not a teacher")
		}
	}

	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	a, err := l.store.CreateAccount(ctx, models.Account{
		ID:             uuid.New(),
		Role:           in.Role,
		TeacherID:      in.TeacherID,
		Name:           in.Name,
		Balance:        in.InitialBalance,
		InitialBalance: in.InitialBalance,
	})
	if err != nil {
		return models.Account{}, observability.Failed(ctx, l.log, op, err)
	}
	l.log.Info("account opened", zap.String("account", a.ID.String()), zap.String("role", string(a.Role)))
	return a, nil
}

func (l *Ledger) Account(ctx context.Context, id uuid.UUID) (models.Account, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return l.store.GetAccount(ctx, id)
}

// Students: ученики учителя с балансами, по имени.
func (l *Ledger) Students(ctx context.Context, teacherID uuid.UUID) ([]models.Account, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return l.store.ListStudents(ctx, teacherID)
}

func (l *Ledger) Transfer(ctx context.Context, from, to uuid.UUID, amount int64, reason string, opts ...Option) (models.Movement, error) {
	const op = "ledger.Transfer"
	if from == to {
		return models.Movement{}, apperr.New(op, apperr.ErrInvalidInput, "cannot transfer to the same account")
	}
	return l.apply(ctx, op, models.MovementInput{From: &from, To: &to, Amount: amount, Reason: reason, Kind: models.KindTransfer}, opts)
}

func (l *Ledger) Credit(ctx context.Context, account uuid.UUID, amount int64, reason string, opts ...Option) (models.Movement, error) {
	return l.apply(ctx, "ledger.Credit", models.MovementInput{To: &account, Amount: amount, Reason: reason, Kind: models.KindCredit}, opts)
}

func (l *Ledger) Debit(ctx context.Context, account uuid.UUID, amount int64, reason string, opts ...Option) (models.Movement, error) {
	return l.apply(ctx, "ledger.Debit", models.MovementInput{From: &account, Amount: amount, Reason: reason, Kind: models.KindDebit}, opts)
}

// Replenish пополняет бюджет учителя.
func (l *Ledger) Replenish(ctx context.Context, teacherID uuid.UUID, amount int64, reason string) (models.Movement, error) {
	const op = "ledger.Replenish"
	t, err := l.Account(ctx, teacherID)
	if err != nil {
		return models.Movement{}, observability.Failed(ctx, l.log, op, err)
	}
	if t.Role != models.Teacher {
		return models.Movement{}, observability.Failed(ctx, l.log, op, apperr.New(op, apperr.ErrInvalidInput, "only teacher budgets can be replenished"))
	}
	if reason == "" {
		reason = "budget replenish"
	}
	return l.apply(ctx, op, models.MovementInput{To: &teacherID, Amount: amount, Reason: reason, Kind: models.KindReplenish}, nil)
}

func (l *Ledger) apply(ctx context.Context, op string, in models.MovementInput, opts []Option) (models.Movement, error) {
	for _, o := range opts {
		o(&in)
	}
	if in.Amount <= 0 {
		return models.Movement{}, observability.Failed(ctx, l.log, op, apperr.E(op, apperr.ErrInvalidAmount))
	}

	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	m, err := l.store.ApplyMovement(ctx, in)
	if err != nil {
		return models.Movement{}, observability.Failed(ctx, l.log, op, err)
	}
	metrics.ObserveMovement(string(m.Kind), m.Amount)
	l.log.Debug("movement applied",
		zap.String("movement", m.ID.String()),
		zap.String("kind", string(m.Kind)),
		zap.Int64("amount", m.Amount),
	)
	return m, nil
}

// Movements: история счёта, новые сверху.
func (l *Ledger) Movements(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if _, err := l.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return l.store.ListMovements(ctx, accountID, limit)
}

// Reconcile сверяет баланс с журналом. nil: все счета.
func (l *Ledger) Reconcile(ctx context.Context, accountID *uuid.UUID) ([]models.Reconciliation, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	out, err := l.store.Reconcile(ctx, accountID)
	if err != nil {
		return nil, observability.Failed(ctx, l.log, "ledger.Reconcile", err)
	}
	return out, nil
}

// FreezeInconsistent замораживает счета, чей баланс не сходится с журналом.
// Возвращает только расхождения.
func (l *Ledger) FreezeInconsistent(ctx context.Context) ([]models.Reconciliation, error) {
	all, err := l.Reconcile(ctx, nil)
	if err != nil {
		return nil, err
	}
	var bad []models.Reconciliation
	var ids []uuid.UUID
	for _, r := range all {
		if r.Consistent() {
			continue
		}
		bad = append(bad, r)
		ids = append(ids, r.AccountID)
		l.log.Error("ledger mismatch, freezing account",
			zap.String("account", r.AccountID.String()),
			zap.Int64("balance", r.Balance),
			zap.Int64("expected", r.Expected),
		)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if err := l.store.SetFrozen(ctx, ids, true); err != nil {
		return bad, observability.Failed(ctx, l.log, "ledger.FreezeInconsistent", err)
	}
	observability.CaptureErr(fmt.Errorf("ledger: %d accounts frozen after reconciliation", len(ids)))
	return bad, nil
}

func (l *Ledger) Freeze(ctx context.Context, id uuid.UUID) error {
	return l.setFrozen(ctx, id, true)
}

// Unfreeze: ручное восстановление после сверки.
func (l *Ledger) Unfreeze(ctx context.Context, id uuid.UUID) error {
	return l.setFrozen(ctx, id, false)
}

func (l *Ledger) setFrozen(ctx context.Context, id uuid.UUID, frozen bool) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if _, err := l.store.GetAccount(ctx, id); err != nil {
		return err
	}
	if err := l.store.SetFrozen(ctx, []uuid.UUID{id}, frozen); err != nil {
		return observability.Failed(ctx, l.log, "ledger.SetFrozen", err)
	}
	l.log.Warn("account frozen flag changed", zap.String("account", id.String()), zap.Bool("frozen", frozen))
	return nil
}
