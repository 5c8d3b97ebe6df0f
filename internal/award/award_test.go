package award_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/award"
	"github.com/emotionalcenter/amistapp/internal/idempotency"
	"github.com/emotionalcenter/amistapp/internal/ledger"
	"github.com/emotionalcenter/amistapp/internal/memstore"
	"github.com/emotionalcenter/amistapp/internal/models"
)

type recorder struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *recorder) Notify(_ context.Context, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recorder) to(id uuid.UUID) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.sent {
		if n.RecipientID == id {
			out = append(out, n)
		}
	}
	return out
}

// openGuard всегда пускает: проверяем второй рубеж, уникальный request_id.
type openGuard struct{}

func (openGuard) Acquire(context.Context, string, time.Duration) (bool, error) { return true, nil }
func (openGuard) Release(context.Context, string) error                         { return nil }

type env struct {
	ledger  *ledger.Ledger
	engine  *award.Engine
	notes   *recorder
	teacher models.Account
	ana     models.Account
	beto    models.Account
	outside models.Account
	helped  models.Action
}

func setup(t *testing.T, budget int64, guard award.Guard) env {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	l := ledger.New(st, nil)

	teacher, err := l.OpenAccount(ctx, ledger.NewAccount{Role: models.Teacher, Name: "Profe", InitialBalance: budget})
	if err != nil {
		t.Fatal(err)
	}
	other, _ := l.OpenAccount(ctx, ledger.NewAccount{Role: models.Teacher, Name: "Otra", InitialBalance: budget})
	ana, _ := l.OpenAccount(ctx, ledger.NewAccount{Role: models.Student, TeacherID: &teacher.ID, Name: "Ana", InitialBalance: 20})
	beto, _ := l.OpenAccount(ctx, ledger.NewAccount{Role: models.Student, TeacherID: &teacher.ID, Name: "Beto"})
	outside, _ := l.OpenAccount(ctx, ledger.NewAccount{Role: models.Student, TeacherID: &other.ID, Name: "Carla"})

	helped, err := st.UpsertAction(ctx, models.Action{Name: "helped a classmate", Points: 50})
	if err != nil {
		t.Fatal(err)
	}
	if guard == nil {
		guard = idempotency.NewMemory()
	}
	notes := &recorder{}
	return env{
		ledger:  l,
		engine:  award.New(l, st, guard, notes, time.Minute, nil),
		notes:   notes,
		teacher: teacher,
		ana:     ana,
		beto:    beto,
		outside: outside,
		helped:  helped,
	}
}

func balance(t *testing.T, e env, id uuid.UUID) int64 {
	t.Helper()
	a, err := e.ledger.Account(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return a.Balance
}

func TestAward_TeacherBudgetToStudent(t *testing.T) {
	e := setup(t, 1000, nil)

	res, err := e.engine.Award(context.Background(), award.AwardRequest{
		TeacherID: e.teacher.ID, StudentID: e.beto.ID, ActionID: e.helped.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.RequestID == "" {
		t.Fatal("request id must be generated")
	}
	if got := balance(t, e, e.teacher.ID); got != 950 {
		t.Fatalf("teacher budget = %d, want 950", got)
	}
	if got := balance(t, e, e.beto.ID); got != 50 {
		t.Fatalf("student balance = %d, want 50", got)
	}
	hist, _ := e.ledger.Movements(context.Background(), e.beto.ID, 10)
	if len(hist) != 1 || hist[0].Kind != models.KindAward || hist[0].Reason != "helped a classmate" {
		t.Fatalf("movements = %+v", hist)
	}
	if n := e.notes.to(e.beto.ID); len(n) != 1 || n[0].Metadata["movement_id"] != res.Movement.ID.String() {
		t.Fatalf("notifications = %+v", n)
	}
}

func TestAward_Rejections(t *testing.T) {
	e := setup(t, 40, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  award.AwardRequest
		want error
	}{
		{"unknown action", award.AwardRequest{TeacherID: e.teacher.ID, StudentID: e.beto.ID, ActionID: uuid.New()}, apperr.ErrUnknownAction},
		{"unknown student", award.AwardRequest{TeacherID: e.teacher.ID, StudentID: uuid.New(), ActionID: e.helped.ID}, apperr.ErrUnknownStudent},
		{"teacher as student", award.AwardRequest{TeacherID: e.teacher.ID, StudentID: e.teacher.ID, ActionID: e.helped.ID}, apperr.ErrUnknownStudent},
		{"other class", award.AwardRequest{TeacherID: e.teacher.ID, StudentID: e.outside.ID, ActionID: e.helped.ID}, apperr.ErrUnrelatedAccounts},
		{"student as giver", award.AwardRequest{TeacherID: e.ana.ID, StudentID: e.beto.ID, ActionID: e.helped.ID}, apperr.ErrForbidden},
		{"budget", award.AwardRequest{TeacherID: e.teacher.ID, StudentID: e.beto.ID, ActionID: e.helped.ID}, apperr.ErrInsufficientBudget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.engine.Award(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
	if got := balance(t, e, e.teacher.ID); got != 40 {
		t.Fatalf("teacher budget changed to %d", got)
	}
	if len(e.notes.sent) != 0 {
		t.Fatalf("rejections must not notify: %+v", e.notes.sent)
	}
}

func TestAward_DuplicateRequestRejected(t *testing.T) {
	e := setup(t, 1000, nil)
	ctx := context.Background()
	req := award.AwardRequest{TeacherID: e.teacher.ID, StudentID: e.beto.ID, ActionID: e.helped.ID, RequestID: "retry-1"}

	if _, err := e.engine.Award(ctx, req); err != nil {
		t.Fatal(err)
	}
	if _, err := e.engine.Award(ctx, req); !errors.Is(err, apperr.ErrDuplicateRequest) {
		t.Fatalf("want DuplicateRequest, got %v", err)
	}
	if got := balance(t, e, e.beto.ID); got != 50 {
		t.Fatalf("student credited twice: %d", got)
	}
}

func TestAward_DuplicateCaughtByJournalWhenGuardForgets(t *testing.T) {
	e := setup(t, 1000, openGuard{})
	ctx := context.Background()
	req := award.AwardRequest{TeacherID: e.teacher.ID, StudentID: e.beto.ID, ActionID: e.helped.ID, RequestID: "retry-2"}

	if _, err := e.engine.Award(ctx, req); err != nil {
		t.Fatal(err)
	}
	if _, err := e.engine.Award(ctx, req); !errors.Is(err, apperr.ErrDuplicateRequest) {
		t.Fatalf("want DuplicateRequest, got %v", err)
	}
	if got := balance(t, e, e.teacher.ID); got != 950 {
		t.Fatalf("teacher debited twice: %d", got)
	}
}

func TestAward_FailedAttemptCanBeRetried(t *testing.T) {
	e := setup(t, 10, nil)
	ctx := context.Background()
	req := award.AwardRequest{TeacherID: e.teacher.ID, StudentID: e.beto.ID, ActionID: e.helped.ID, RequestID: "after-topup"}

	if _, err := e.engine.Award(ctx, req); !errors.Is(err, apperr.ErrInsufficientBudget) {
		t.Fatalf("want InsufficientBudget, got %v", err)
	}
	if _, err := e.ledger.Replenish(ctx, e.teacher.ID, 100, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := e.engine.Award(ctx, req); err != nil {
		t.Fatalf("retry after top-up: %v", err)
	}
}

func TestAward_ConcurrentSameRequestCreditsOnce(t *testing.T) {
	e := setup(t, 1000, nil)
	ctx := context.Background()
	req := award.AwardRequest{TeacherID: e.teacher.ID, StudentID: e.beto.ID, ActionID: e.helped.ID, RequestID: "burst"}

	wg := sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.engine.Award(ctx, req)
		}()
	}
	wg.Wait()
	if got := balance(t, e, e.beto.ID); got != 50 {
		t.Fatalf("balance = %d, want 50", got)
	}
}

func TestPeerAward(t *testing.T) {
	e := setup(t, 1000, nil)
	ctx := context.Background()

	res, err := e.engine.PeerAward(ctx, award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.beto.ID, Points: 15})
	if err != nil {
		t.Fatal(err)
	}
	if res.Movement.Kind != models.KindPeerAward {
		t.Fatalf("kind = %s", res.Movement.Kind)
	}
	if balance(t, e, e.ana.ID) != 5 || balance(t, e, e.beto.ID) != 15 {
		t.Fatalf("balances ana=%d beto=%d", balance(t, e, e.ana.ID), balance(t, e, e.beto.ID))
	}
	if len(e.notes.to(e.ana.ID)) != 1 || len(e.notes.to(e.beto.ID)) != 1 {
		t.Fatalf("both sides must be notified: %+v", e.notes.sent)
	}
}

func TestPeerAward_Rejections(t *testing.T) {
	e := setup(t, 1000, nil)
	ctx := context.Background()
	missing := uuid.New()

	tests := []struct {
		name string
		req  award.PeerAwardRequest
		want error
	}{
		{"self", award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.ana.ID, Points: 1}, apperr.ErrUnrelatedAccounts},
		{"other class", award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.outside.ID, Points: 1}, apperr.ErrUnrelatedAccounts},
		{"to teacher", award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.teacher.ID, Points: 1}, apperr.ErrUnknownStudent},
		{"zero", award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.beto.ID}, apperr.ErrInvalidAmount},
		{"negative", award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.beto.ID, Points: -3}, apperr.ErrInvalidAmount},
		{"over balance", award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.beto.ID, Points: 21}, apperr.ErrInsufficientBalance},
		{"action over balance", award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.beto.ID, ActionID: &e.helped.ID}, apperr.ErrInsufficientBalance},
		{"unknown action", award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.beto.ID, ActionID: &missing}, apperr.ErrUnknownAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.engine.PeerAward(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
	if balance(t, e, e.ana.ID) != 20 {
		t.Fatal("rejected peer awards must not move points")
	}
}

func TestPeerAward_ExactBalanceReachesZero(t *testing.T) {
	e := setup(t, 1000, nil)
	if _, err := e.engine.PeerAward(context.Background(), award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.beto.ID, Points: 20}); err != nil {
		t.Fatal(err)
	}
	if got := balance(t, e, e.ana.ID); got != 0 {
		t.Fatalf("balance = %d", got)
	}
}

func TestAward_RequestIDScopedBySender(t *testing.T) {
	e := setup(t, 1000, openGuard{})
	ctx := context.Background()

	if _, err := e.engine.PeerAward(ctx, award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.beto.ID, Points: 1, RequestID: "r-1"}); err != nil {
		t.Fatal(err)
	}
	res, err := e.engine.Award(ctx, award.AwardRequest{TeacherID: e.teacher.ID, StudentID: e.beto.ID, ActionID: e.helped.ID, RequestID: "r-1"})
	if err != nil {
		t.Fatalf("same id from another sender: %v", err)
	}
	if res.RequestID != "r-1" {
		t.Fatalf("request id = %q", res.RequestID)
	}
	if res.Movement.RequestID == nil || *res.Movement.RequestID != award.ScopedRequestID(models.KindAward, e.teacher.ID, "r-1") {
		t.Fatalf("stored request id = %v", res.Movement.RequestID)
	}
	// тот же отправитель с тем же id: дубль
	_, err = e.engine.PeerAward(ctx, award.PeerAwardRequest{FromStudentID: e.ana.ID, ToStudentID: e.beto.ID, Points: 1, RequestID: "r-1"})
	if !errors.Is(err, apperr.ErrDuplicateRequest) {
		t.Fatalf("want DuplicateRequest, got %v", err)
	}
	if got := balance(t, e, e.beto.ID); got != 51 {
		t.Fatalf("balance = %d, want 51", got)
	}
}
