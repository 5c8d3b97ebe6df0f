// Package streak records one emotion per student per calendar day and keeps
// the consecutive-day streak, crediting a bonus on milestone days.
package streak

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/ctxutil"
	"github.com/emotionalcenter/amistapp/internal/metrics"
	"github.com/emotionalcenter/amistapp/internal/models"
	"github.com/emotionalcenter/amistapp/internal/observability"
)

const BonusReason = "streak bonus"

type Store interface {
	GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error)
	LastEmotion(ctx context.Context, studentID uuid.UUID) (*models.EmotionEntry, error)
	// InsertEmotion пишет запись и бонус (если не nil) атомарно.
	InsertEmotion(ctx context.Context, e models.EmotionEntry, bonus *models.MovementInput) (models.EmotionEntry, *models.Movement, error)
	ListEmotions(ctx context.Context, studentID uuid.UUID, since time.Time) ([]models.EmotionEntry, error)
	LongestStreak(ctx context.Context, studentID uuid.UUID) (int, error)
}

type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type Config struct {
	// BonusEvery <= 0 отключает бонус
	BonusEvery  int
	BonusPoints int64
	Location    *time.Location
}

type Tracker struct {
	store    Store
	notifier Notifier
	cfg      Config
	log      *zap.Logger
}

func New(store Store, n Notifier, cfg Config, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Tracker{store: store, notifier: n, cfg: cfg, log: log.Named("streak")}
}

type Result struct {
	Entry        models.EmotionEntry `json:"entry"`
	StreakCount  int                 `json:"streak_count"`
	BonusAwarded bool                `json:"bonus_awarded"`
	Bonus        *models.Movement    `json:"bonus,omitempty"`
}

// Day: календарный день момента t в зоне loc, как полночь UTC.
func Day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Next считает серию для записи в день today по предыдущей записи.
func Next(prev *models.EmotionEntry, today time.Time) (int, error) {
	if prev == nil {
		return 1, nil
	}
	switch {
	case prev.Day.Equal(today):
		return 0, apperr.E("streak.Next", apperr.ErrAlreadyLoggedToday)
	case prev.Day.After(today):
		return 0, apperr.New("streak.Next", apperr.ErrInvalidInput, "day %s precedes last entry %s", today.Format(time.DateOnly), prev.Day.Format(time.DateOnly))
	case prev.Day.AddDate(0, 0, 1).Equal(today):
		return prev.StreakCount + 1, nil
	default:
		return 1, nil
	}
}

func (t *Tracker) LogEmotion(ctx context.Context, studentID uuid.UUID, emotion models.Emotion, note string, today time.Time) (Result, error) {
	const op = "streak.LogEmotion"

	emotion = models.Emotion(strings.ToLower(strings.TrimSpace(string(emotion))))
	if !emotion.Valid() {
		return Result{}, t.fail(ctx, op, apperr.New(op, apperr.ErrInvalidEmotion, "unknown emotion %q", emotion))
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	acc, err := t.store.GetAccount(ctx, studentID)
	if err != nil && !errors.Is(err, apperr.ErrUnknownAccount) {
		return Result{}, t.fail(ctx, op, err)
	}
	if err != nil || acc.Role != models.Student {
		return Result{}, t.fail(ctx, op, apperr.E(op, apperr.ErrUnknownStudent))
	}

	day := Day(today, t.cfg.Location)
	prev, err := t.store.LastEmotion(ctx, studentID)
	if err != nil {
		return Result{}, t.fail(ctx, op, err)
	}
	count, err := Next(prev, day)
	if err != nil {
		return Result{}, t.fail(ctx, op, err)
	}

	entry := models.EmotionEntry{StudentID: studentID, Day: day, Emotion: emotion, StreakCount: count}
	if note = strings.TrimSpace(note); note != "" {
		entry.Note = &note
	}
	var bonus *models.MovementInput
	if t.milestone(count) {
		bonus = &models.MovementInput{
			To:     &studentID,
			Amount: t.cfg.BonusPoints,
			Kind:   models.KindStreakBonus,
			Reason: BonusReason,
			// один бонус на ученика и день даже при гонке
			RequestID: string(models.KindStreakBonus) + ":" + studentID.String() + ":" + day.Format(time.DateOnly),
		}
	}

	saved, mv, err := t.store.InsertEmotion(ctx, entry, bonus)
	if err != nil {
		return Result{}, t.fail(ctx, op, err)
	}
	metrics.EmotionsLogged.Inc()
	res := Result{Entry: saved, StreakCount: saved.StreakCount, BonusAwarded: mv != nil, Bonus: mv}
	if mv != nil {
		metrics.ObserveMovement(string(mv.Kind), mv.Amount)
		t.notifier.Notify(ctx, models.Notification{
			RecipientID: studentID,
			Message:     fmt.Sprintf("¡Racha de %d días! Ganaste %d puntos", count, mv.Amount),
			Metadata: map[string]string{
				"kind":        "streak_bonus",
				"streak":      strconv.Itoa(count),
				"movement_id": mv.ID.String(),
			},
		})
	}
	t.log.Info("emotion logged",
		zap.String("student", studentID.String()),
		zap.String("day", day.Format(time.DateOnly)),
		zap.Int("streak", count),
		zap.Bool("bonus", mv != nil),
	)
	return res, nil
}

func (t *Tracker) milestone(count int) bool {
	return t.cfg.BonusEvery > 0 && t.cfg.BonusPoints > 0 && count%t.cfg.BonusEvery == 0
}

// History: записи за последние days дней включая today, новые сверху.
func (t *Tracker) History(ctx context.Context, studentID uuid.UUID, today time.Time, days int) ([]models.EmotionEntry, error) {
	if days <= 0 {
		days = 30
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	since := Day(today, t.cfg.Location).AddDate(0, 0, -(days - 1))
	return t.store.ListEmotions(ctx, studentID, since)
}

// Current возвращает действующую серию: последняя запись сегодня или вчера, иначе 0.
func (t *Tracker) Current(ctx context.Context, studentID uuid.UUID, today time.Time) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	prev, err := t.store.LastEmotion(ctx, studentID)
	if err != nil || prev == nil {
		return 0, err
	}
	day := Day(today, t.cfg.Location)
	if prev.Day.Equal(day) || prev.Day.AddDate(0, 0, 1).Equal(day) {
		return prev.StreakCount, nil
	}
	return 0, nil
}

func (t *Tracker) Longest(ctx context.Context, studentID uuid.UUID) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return t.store.LongestStreak(ctx, studentID)
}

func (t *Tracker) fail(ctx context.Context, op string, err error) error {
	return observability.Failed(ctx, t.log, op, err)
}
