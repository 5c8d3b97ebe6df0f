// Package api is the HTTP JSON surface. Every route under /v1 requires a
// bearer token; the verified subject becomes the actor passed to the
// services, so handlers never trust ids from the body for "who".
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/award"
	"github.com/emotionalcenter/amistapp/internal/ledger"
	"github.com/emotionalcenter/amistapp/internal/metrics"
	"github.com/emotionalcenter/amistapp/internal/models"
	"github.com/emotionalcenter/amistapp/internal/notify"
	"github.com/emotionalcenter/amistapp/internal/observability"
	"github.com/emotionalcenter/amistapp/internal/redemption"
	"github.com/emotionalcenter/amistapp/internal/report"
	"github.com/emotionalcenter/amistapp/internal/streak"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Ledger     *ledger.Ledger
	Award      *award.Engine
	Streak     *streak.Tracker
	Redemption *redemption.Machine
	Reports    *report.Workflow
	Inbox      *notify.Inbox
	DB         Pinger
	Log        *zap.Logger
	JWTSecret  []byte
	Location   *time.Location
	// Now: часы для "сегодня", по умолчанию time.Now
	Now func() time.Time
}

type Server struct {
	Deps
	validate *validator.Validate
}

func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	d.Log = d.Log.Named("api")
	return &Server{Deps: d, validate: newValidator()}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.Middleware())
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/me", s.handleMe)
		r.Get("/accounts/{id}", s.handleAccount)
		r.Get("/accounts/{id}/movements", s.handleMovements)
		r.Get("/accounts/{id}/statement.xlsx", s.handleStatement)
		r.Get("/actions", s.handleActions)
		r.Get("/notifications", s.handleNotifications)
		r.Post("/notifications/{id}/read", s.handleNotificationRead)
		r.Get("/rewards", s.handleListRewards)
		r.Get("/claims", s.handleListClaims)
		r.Post("/claims/{id}/cancel", s.claimHandler((*redemption.Machine).Cancel))
		r.Get("/reports", s.handleListReports)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(models.Teacher))
			r.Get("/students", s.handleStudents)
			r.Post("/students", s.handleOpenStudent)
			r.Get("/students.xlsx", s.handleRoster)
			r.Get("/students/{id}/emotions", s.handleStudentEmotions)
			r.Post("/awards", s.handleAward)
			r.Post("/rewards", s.handleCreateReward)
			r.Patch("/rewards/{id}", s.handleSetRewardActive)
			r.Delete("/rewards/{id}", s.handleDeleteReward)
			r.Post("/claims/{id}/approve", s.claimHandler((*redemption.Machine).Approve))
			r.Post("/claims/{id}/reject", s.claimHandler((*redemption.Machine).Reject))
			r.Post("/claims/{id}/deliver", s.claimHandler((*redemption.Machine).Deliver))
			r.Post("/reports/{id}/respond", s.handleRespondReport)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(models.Student))
			r.Get("/classmates", s.handleClassmates)
			r.Post("/peer-awards", s.handlePeerAward)
			r.Post("/emotions", s.handleLogEmotion)
			r.Get("/emotions", s.handleEmotionHistory)
			r.Get("/streak", s.handleStreak)
			r.Post("/claims", s.handleRequestClaim)
			r.Post("/reports", s.handleSubmitReport)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		_, _ = w.Write([]byte("ok"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := s.DB.Ping(ctx); err != nil {
		http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	metrics.ObserveDBPing(time.Since(t0))
	_, _ = w.Write([]byte("ok"))
}

type HTTPServer struct {
	srv  *http.Server
	done chan struct{}
}

// Start слушает addr в фоне и гасит сервер при отмене ctx.
func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) *HTTPServer {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	hs := &HTTPServer{srv: srv, done: make(chan struct{})}

	go func() {
		log.Info("http listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
		}
	}()

	go func() {
		defer close(hs.done)
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return hs
}

// Done закрывается после Shutdown.
func (h *HTTPServer) Done() <-chan struct{} { return h.done }
