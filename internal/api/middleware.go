package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/ctxutil"
	"github.com/emotionalcenter/amistapp/internal/logging"
	"github.com/emotionalcenter/amistapp/internal/metrics"
)

// accessLog пишет одну строку на запрос и метрики по шаблону маршрута.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := ctxutil.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		d := time.Since(start)
		metrics.ObserveHTTP(route, status, d)

		lvl := zap.InfoLevel
		if status >= 500 {
			lvl = zap.WarnLevel
		}
		logging.For(ctx, s.Log).Check(lvl, "http").Write(
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", d),
		)
	})
}
