package observability

import (
	"context"

	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/logging"
	"github.com/emotionalcenter/amistapp/internal/metrics"
)

// Failed логирует ошибку операции и возвращает её без изменений.
// Бизнес-отказы идут в Info и счётчик rejections, остальное в Error и Sentry.
func Failed(ctx context.Context, log *zap.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	l := logging.For(ctx, log)
	if isBusiness(err) {
		code := apperr.Code(err)
		metrics.ObserveRejection(op, code)
		l.Info("rejected", zap.String("op", op), zap.String("code", code), zap.Error(err))
		return err
	}
	l.Error("failed", zap.String("op", op), zap.Error(err))
	CaptureCtx(ctx, err)
	return err
}
