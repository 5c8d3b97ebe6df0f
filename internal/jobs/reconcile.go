package jobs

import (
	"context"

	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/models"
)

type Reconciler interface {
	FreezeInconsistent(ctx context.Context) ([]models.Reconciliation, error)
}

// Reconcile сверяет балансы с журналом и замораживает расхождения.
// Разморозка только руками через pointsctl unfreeze.
func Reconcile(l Reconciler, log *zap.Logger) Job {
	return func(ctx context.Context) error {
		bad, err := l.FreezeInconsistent(ctx)
		if err != nil {
			return err
		}
		if len(bad) > 0 {
			frozenAccounts.Add(float64(len(bad)))
			log.Warn("reconcile froze accounts", zap.Int("count", len(bad)))
		}
		return nil
	}
}
