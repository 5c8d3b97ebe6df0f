package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emotionalcenter/amistapp/internal/api"
	"github.com/emotionalcenter/amistapp/internal/app"
	"github.com/emotionalcenter/amistapp/internal/config"
	"github.com/emotionalcenter/amistapp/internal/idempotency"
	"github.com/emotionalcenter/amistapp/internal/ledger"
	"github.com/emotionalcenter/amistapp/internal/memstore"
	"github.com/emotionalcenter/amistapp/internal/models"
)

var secret = []byte("test-secret")

type fixture struct {
	h       http.Handler
	store   *memstore.Store
	teacher models.Account
	other   models.Account
	ana     models.Account
	beto    models.Account
	helped  models.Action
	big     models.Action
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{IdempotencyTTL: time.Minute, StreakBonusEvery: 3, StreakBonusPoints: 5}
	store := memstore.New()
	a := app.Build(cfg, store, idempotency.NewMemory(), nil)

	var f fixture
	f.store = store
	var err error
	f.teacher, err = a.Ledger.OpenAccount(ctx, ledger.NewAccount{Role: models.Teacher, Name: "Prof. Rivera", InitialBalance: 100})
	require.NoError(t, err)
	f.other, err = a.Ledger.OpenAccount(ctx, ledger.NewAccount{Role: models.Teacher, Name: "Prof. Soto", InitialBalance: 100})
	require.NoError(t, err)
	f.ana, err = a.Ledger.OpenAccount(ctx, ledger.NewAccount{Role: models.Student, TeacherID: &f.teacher.ID, Name: "Ana"})
	require.NoError(t, err)
	f.beto, err = a.Ledger.OpenAccount(ctx, ledger.NewAccount{Role: models.Student, TeacherID: &f.teacher.ID, Name: "Beto"})
	require.NoError(t, err)
	f.helped, err = store.UpsertAction(ctx, models.Action{Name: "Ayudar a un compañero", Points: 30})
	require.NoError(t, err)
	f.big, err = store.UpsertAction(ctx, models.Action{Name: "Proyecto del año", Points: 500})
	require.NoError(t, err)

	f.h = api.New(api.Deps{
		Ledger:     a.Ledger,
		Award:      a.Award,
		Streak:     a.Streak,
		Redemption: a.Redemption,
		Reports:    a.Reports,
		Inbox:      a.Inbox,
		DB:         store,
		JWTSecret:  secret,
	}).Handler()
	return f
}

func token(t *testing.T, acc models.Account) string {
	t.Helper()
	return sign(t, acc.ID.String(), string(acc.Role), time.Now().Add(time.Hour))
}

func sign(t *testing.T, sub, role string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, api.Claims{
		AppRole: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)
	return s
}

func (f fixture) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type apiError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
}

func requireCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	assert.Equal(t, code, decode[apiError](t, rec).Error.Code)
}

func (f fixture) balance(t *testing.T, acc models.Account) int64 {
	t.Helper()
	a, err := f.store.GetAccount(context.Background(), acc.ID)
	require.NoError(t, err)
	return a.Balance
}

func TestAuth(t *testing.T) {
	f := setup(t)

	requireCode(t, f.do(t, http.MethodGet, "/v1/me", "", nil), http.StatusUnauthorized, "unauthorized")
	requireCode(t, f.do(t, http.MethodGet, "/v1/me", "garbage", nil), http.StatusUnauthorized, "unauthorized")

	expired := sign(t, f.ana.ID.String(), "student", time.Now().Add(-time.Hour))
	requireCode(t, f.do(t, http.MethodGet, "/v1/me", expired, nil), http.StatusUnauthorized, "unauthorized")

	badRole := sign(t, f.ana.ID.String(), "admin", time.Now().Add(time.Hour))
	requireCode(t, f.do(t, http.MethodGet, "/v1/me", badRole, nil), http.StatusUnauthorized, "unauthorized")

	rec := f.do(t, http.MethodGet, "/v1/me", token(t, f.ana), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, f.ana.ID, decode[models.Account](t, rec).ID)

	// ученик не может начислять из бюджета
	rec = f.do(t, http.MethodPost, "/v1/awards", token(t, f.ana), map[string]any{"student_id": f.beto.ID, "action_id": f.helped.ID})
	requireCode(t, rec, http.StatusForbidden, "forbidden")
	// а учитель не пишет эмоции
	rec = f.do(t, http.MethodPost, "/v1/emotions", token(t, f.teacher), map[string]any{"emotion": "feliz"})
	requireCode(t, rec, http.StatusForbidden, "forbidden")
}

func TestHealthz(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAward(t *testing.T) {
	f := setup(t)
	tok := token(t, f.teacher)

	body := map[string]any{"student_id": f.ana.ID, "action_id": f.helped.ID, "request_id": "req-1"}
	rec := f.do(t, http.MethodPost, "/v1/awards", tok, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[struct {
		Movement  models.Movement `json:"movement"`
		RequestID string          `json:"request_id"`
	}](t, rec)
	assert.Equal(t, int64(30), res.Movement.Amount)
	assert.Equal(t, "req-1", res.RequestID)
	assert.Equal(t, int64(30), f.balance(t, f.ana))
	assert.Equal(t, int64(70), f.balance(t, f.teacher))

	t.Run("duplicate request", func(t *testing.T) {
		requireCode(t, f.do(t, http.MethodPost, "/v1/awards", tok, body), http.StatusConflict, "duplicate_request")
		assert.Equal(t, int64(30), f.balance(t, f.ana))
	})
	t.Run("budget", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/awards", tok, map[string]any{"student_id": f.ana.ID, "action_id": f.big.ID})
		requireCode(t, rec, http.StatusConflict, "insufficient_budget")
	})
	t.Run("other class", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/awards", token(t, f.other), map[string]any{"student_id": f.ana.ID, "action_id": f.helped.ID})
		requireCode(t, rec, http.StatusUnprocessableEntity, "unrelated_accounts")
	})
	t.Run("unknown action", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/awards", tok, map[string]any{"student_id": f.ana.ID, "action_id": uuid.New()})
		requireCode(t, rec, http.StatusNotFound, "unknown_action")
	})
	t.Run("validation", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/awards", tok, map[string]any{"action_id": f.helped.ID})
		requireCode(t, rec, http.StatusBadRequest, "invalid_input")
		rec = f.do(t, http.MethodPost, "/v1/awards", tok, map[string]any{"student_id": f.ana.ID, "action_id": f.helped.ID, "extra": 1})
		requireCode(t, rec, http.StatusBadRequest, "invalid_input")
	})

	rec = f.do(t, http.MethodGet, "/v1/accounts/"+f.ana.ID.String()+"/movements", token(t, f.ana), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mv := decode[struct {
		Movements []models.Movement `json:"movements"`
	}](t, rec)
	require.Len(t, mv.Movements, 1)
	assert.Equal(t, models.KindAward, mv.Movements[0].Kind)
}

func TestPeerAward(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodPost, "/v1/awards", token(t, f.teacher), map[string]any{"student_id": f.ana.ID, "action_id": f.helped.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	tok := token(t, f.ana)
	rec = f.do(t, http.MethodPost, "/v1/peer-awards", tok, map[string]any{"to_student_id": f.beto.ID, "points": 0})
	requireCode(t, rec, http.StatusBadRequest, "invalid_amount")

	rec = f.do(t, http.MethodPost, "/v1/peer-awards", tok, map[string]any{"to_student_id": f.beto.ID, "points": 31})
	requireCode(t, rec, http.StatusConflict, "insufficient_balance")

	rec = f.do(t, http.MethodPost, "/v1/peer-awards", tok, map[string]any{"to_student_id": f.ana.ID, "points": 1})
	requireCode(t, rec, http.StatusUnprocessableEntity, "unrelated_accounts")

	rec = f.do(t, http.MethodPost, "/v1/peer-awards", tok, map[string]any{"to_student_id": f.beto.ID, "points": 10, "reason": "gracias"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(20), f.balance(t, f.ana))
	assert.Equal(t, int64(10), f.balance(t, f.beto))
}

func TestEmotions(t *testing.T) {
	f := setup(t)
	tok := token(t, f.ana)

	rec := f.do(t, http.MethodPost, "/v1/emotions", tok, map[string]any{"emotion": "asombrado"})
	requireCode(t, rec, http.StatusBadRequest, "invalid_emotion")

	rec = f.do(t, http.MethodPost, "/v1/emotions", tok, map[string]any{"emotion": "Feliz", "note": "buen día"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[struct {
		Entry        models.EmotionEntry `json:"entry"`
		StreakCount  int                 `json:"streak_count"`
		BonusAwarded bool                `json:"bonus_awarded"`
	}](t, rec)
	assert.Equal(t, models.Feliz, res.Entry.Emotion)
	assert.Equal(t, 1, res.StreakCount)
	assert.False(t, res.BonusAwarded)

	rec = f.do(t, http.MethodPost, "/v1/emotions", tok, map[string]any{"emotion": "triste"})
	requireCode(t, rec, http.StatusConflict, "already_logged_today")

	rec = f.do(t, http.MethodGet, "/v1/streak", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[map[string]int](t, rec)
	assert.Equal(t, 1, st["current"])
	assert.Equal(t, 1, st["longest"])

	rec = f.do(t, http.MethodGet, "/v1/students/"+f.ana.ID.String()+"/emotions", token(t, f.teacher), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[struct {
		Entries []models.EmotionEntry `json:"entries"`
	}](t, rec)
	assert.Len(t, hist.Entries, 1)

	rec = f.do(t, http.MethodGet, "/v1/students/"+f.ana.ID.String()+"/emotions", token(t, f.other), nil)
	requireCode(t, rec, http.StatusForbidden, "forbidden")
}

func TestClaimLifecycle(t *testing.T) {
	f := setup(t)
	teacher, ana := token(t, f.teacher), token(t, f.ana)
	rec := f.do(t, http.MethodPost, "/v1/awards", teacher, map[string]any{"student_id": f.ana.ID, "action_id": f.helped.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/rewards", teacher, map[string]any{"title": "Sticker", "cost_points": 20, "stock": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reward := decode[models.Reward](t, rec)

	rec = f.do(t, http.MethodGet, "/v1/rewards", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Rewards []models.Reward `json:"rewards"`
	}](t, rec).Rewards, 1)

	rec = f.do(t, http.MethodPost, "/v1/claims", ana, map[string]any{"reward_id": reward.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	claim := decode[models.RewardClaim](t, rec)
	assert.Equal(t, models.ClaimPending, claim.Status)
	// баллы списываются только при выдаче
	assert.Equal(t, int64(30), f.balance(t, f.ana))

	rec = f.do(t, http.MethodPost, "/v1/claims", ana, map[string]any{"reward_id": reward.ID})
	requireCode(t, rec, http.StatusConflict, "duplicate_pending")

	path := "/v1/claims/" + claim.ID.String()
	requireCode(t, f.do(t, http.MethodPost, path+"/deliver", teacher, nil), http.StatusConflict, "invalid_transition")
	requireCode(t, f.do(t, http.MethodPost, path+"/approve", token(t, f.other), nil), http.StatusForbidden, "forbidden")
	requireCode(t, f.do(t, http.MethodPost, path+"/approve", ana, nil), http.StatusForbidden, "forbidden")

	rec = f.do(t, http.MethodPost, path+"/approve", teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.ClaimApproved, decode[models.RewardClaim](t, rec).Status)

	rec = f.do(t, http.MethodDelete, "/v1/rewards/"+reward.ID.String(), teacher, nil)
	requireCode(t, rec, http.StatusConflict, "reward_in_use")

	rec = f.do(t, http.MethodPost, path+"/deliver", teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	delivered := decode[models.RewardClaim](t, rec)
	assert.Equal(t, models.ClaimDelivered, delivered.Status)
	require.NotNil(t, delivered.MovementID)
	assert.Equal(t, int64(10), f.balance(t, f.ana))

	requireCode(t, f.do(t, http.MethodPost, path+"/cancel", ana, nil), http.StatusConflict, "invalid_transition")

	rec = f.do(t, http.MethodGet, "/v1/claims?status=delivered", teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Claims []models.RewardClaim `json:"claims"`
	}](t, rec).Claims, 1)
	requireCode(t, f.do(t, http.MethodGet, "/v1/claims?status=lost", teacher, nil), http.StatusBadRequest, "invalid_input")

	rec = f.do(t, http.MethodDelete, "/v1/rewards/"+reward.ID.String(), teacher, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCancelByStudent(t *testing.T) {
	f := setup(t)
	teacher, ana := token(t, f.teacher), token(t, f.ana)
	requireCode(t, f.do(t, http.MethodPost, "/v1/rewards", teacher, map[string]any{"title": "Libro", "cost_points": 0}),
		http.StatusBadRequest, "invalid_amount")
	rec := f.do(t, http.MethodPost, "/v1/rewards", teacher, map[string]any{"title": "Libro", "cost_points": 50})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reward := decode[models.Reward](t, rec)

	// 0 баллов при цене 50
	requireCode(t, f.do(t, http.MethodPost, "/v1/claims", ana, map[string]any{"reward_id": reward.ID}),
		http.StatusConflict, "insufficient_points")
	rec = f.do(t, http.MethodPost, "/v1/awards", teacher, map[string]any{"student_id": f.ana.ID, "action_id": f.helped.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(t, http.MethodPost, "/v1/awards", teacher, map[string]any{"student_id": f.ana.ID, "action_id": f.helped.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/claims", ana, map[string]any{"reward_id": reward.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	claim := decode[models.RewardClaim](t, rec)

	requireCode(t, f.do(t, http.MethodPost, "/v1/claims/"+claim.ID.String()+"/cancel", token(t, f.beto), nil), http.StatusForbidden, "forbidden")
	rec = f.do(t, http.MethodPost, "/v1/claims/"+claim.ID.String()+"/cancel", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.ClaimCancelled, decode[models.RewardClaim](t, rec).Status)
}

func TestReports(t *testing.T) {
	f := setup(t)
	teacher, ana := token(t, f.teacher), token(t, f.ana)

	requireCode(t, f.do(t, http.MethodPost, "/v1/reports", ana, map[string]any{"body": "   "}), http.StatusBadRequest, "invalid_input")

	rec := f.do(t, http.MethodPost, "/v1/reports", ana, map[string]any{"body": "Me molestan en el recreo"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rep := decode[models.Report](t, rec)
	assert.Equal(t, f.teacher.ID, rep.TeacherID)
	assert.Equal(t, models.ReportPending, rep.Status)

	rec = f.do(t, http.MethodPost, "/v1/reports", ana, map[string]any{"body": "hola", "teacher_id": f.other.ID})
	requireCode(t, rec, http.StatusUnprocessableEntity, "unrelated_accounts")

	path := "/v1/reports/" + rep.ID.String() + "/respond"
	requireCode(t, f.do(t, http.MethodPost, path, teacher, map[string]any{"status": "responded"}), http.StatusBadRequest, "invalid_input")
	requireCode(t, f.do(t, http.MethodPost, path, teacher, map[string]any{"status": "pending"}), http.StatusBadRequest, "invalid_input")
	requireCode(t, f.do(t, http.MethodPost, path, token(t, f.other), map[string]any{"status": "rejected"}), http.StatusForbidden, "forbidden")

	rec = f.do(t, http.MethodPost, path, teacher, map[string]any{"status": "rejected"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.ReportRejected, decode[models.Report](t, rec).Status)

	rec = f.do(t, http.MethodPost, path, teacher, map[string]any{"status": "responded", "message": "Hablemos mañana"})
	requireCode(t, rec, http.StatusConflict, "invalid_transition")

	rec = f.do(t, http.MethodGet, "/v1/reports?status=rejected", teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Reports []models.Report `json:"reports"`
	}](t, rec).Reports, 1)

	rec = f.do(t, http.MethodGet, "/v1/reports", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Reports []models.Report `json:"reports"`
	}](t, rec).Reports, 1)
}

func TestNotifications(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodPost, "/v1/awards", token(t, f.teacher), map[string]any{"student_id": f.ana.ID, "action_id": f.helped.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	ana := token(t, f.ana)
	type list struct {
		Notifications []models.Notification `json:"notifications"`
	}
	rec = f.do(t, http.MethodGet, "/v1/notifications?unread=true", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unread := decode[list](t, rec).Notifications
	require.Len(t, unread, 1)
	assert.Contains(t, unread[0].Message, "30 puntos")

	// чужое уведомление не найти
	requireCode(t, f.do(t, http.MethodPost, "/v1/notifications/"+unread[0].ID.String()+"/read", token(t, f.beto), nil),
		http.StatusNotFound, "unknown_notification")

	rec = f.do(t, http.MethodPost, "/v1/notifications/"+unread[0].ID.String()+"/read", ana, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/notifications?unread=true", ana, nil)
	assert.Empty(t, decode[list](t, rec).Notifications)
	rec = f.do(t, http.MethodGet, "/v1/notifications", ana, nil)
	assert.Len(t, decode[list](t, rec).Notifications, 1)

	requireCode(t, f.do(t, http.MethodGet, "/v1/notifications?limit=abc", ana, nil), http.StatusBadRequest, "invalid_input")
}

func TestAccountsAndExports(t *testing.T) {
	f := setup(t)
	teacher := token(t, f.teacher)

	requireCode(t, f.do(t, http.MethodGet, "/v1/accounts/"+f.beto.ID.String(), token(t, f.ana), nil), http.StatusForbidden, "forbidden")
	requireCode(t, f.do(t, http.MethodGet, "/v1/accounts/"+uuid.NewString(), teacher, nil), http.StatusNotFound, "unknown_account")
	requireCode(t, f.do(t, http.MethodGet, "/v1/accounts/not-a-uuid", teacher, nil), http.StatusBadRequest, "invalid_input")

	rec := f.do(t, http.MethodGet, "/v1/accounts/"+f.beto.ID.String(), teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/students", teacher, map[string]any{"name": "Carla"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	carla := decode[models.Account](t, rec)
	require.NotNil(t, carla.TeacherID)
	assert.Equal(t, f.teacher.ID, *carla.TeacherID)

	rec = f.do(t, http.MethodGet, "/v1/students", teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Students []models.Account `json:"students"`
	}](t, rec).Students, 3)

	for _, path := range []string{"/v1/accounts/" + f.ana.ID.String() + "/statement.xlsx", "/v1/students.xlsx"} {
		rec = f.do(t, http.MethodGet, path, teacher, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
		// zip-сигнатура xlsx
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), path)
	}
}

func TestClassmates(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodPost, "/v1/students", token(t, f.other), map[string]any{"name": "Carla"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	requireCode(t, f.do(t, http.MethodGet, "/v1/classmates", token(t, f.teacher), nil), http.StatusForbidden, "forbidden")

	rec = f.do(t, http.MethodGet, "/v1/classmates", token(t, f.ana), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[struct {
		Classmates []map[string]any `json:"classmates"`
	}](t, rec).Classmates
	require.Len(t, list, 1)
	assert.Equal(t, f.beto.ID.String(), list[0]["id"])
	assert.Equal(t, "Beto", list[0]["name"])
	assert.NotContains(t, list[0], "balance")
}
