package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/ctxutil"
)

func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr шлёт только неожиданные ошибки: бизнес-отказы (нехватка баллов,
// неверный переход и т.п.) в Sentry не попадают.
func CaptureErr(err error) {
	if err == nil || isBusiness(err) {
		return
	}
	sentry.CaptureException(err)
}

// CaptureCtx: то же, но с hub из запроса и пользователем из контекста.
func CaptureCtx(ctx context.Context, err error) {
	if err == nil || isBusiness(err) {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if a, ok := ctxutil.ActorFrom(ctx); ok {
			scope.SetUser(sentry.User{ID: a.ID.String()})
			scope.SetTag("role", string(a.Role))
		}
		if op, ok := ctxutil.Op(ctx); ok {
			scope.SetTag("op", op)
		}
		hub.CaptureException(err)
	})
}

// Middleware ставит hub в контекст запроса и ловит паники.
func Middleware() func(http.Handler) http.Handler {
	h := sentryhttp.New(sentryhttp.Options{Repanic: true})
	return h.Handle
}

func isBusiness(err error) bool {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return false
	}
	return !apperr.IsRetryable(err)
}
