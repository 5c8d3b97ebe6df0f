package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func (s *Store) LastEmotion(_ context.Context, studentID uuid.UUID) (*models.EmotionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	xs := s.emotions[studentID]
	if len(xs) == 0 {
		return nil, nil
	}
	e := xs[len(xs)-1]
	e.Note = cloneString(e.Note)
	return &e, nil
}

// InsertEmotion пишет запись и, если передан bonus, применяет его в той же
// критической секции.
func (s *Store) InsertEmotion(_ context.Context, e models.EmotionEntry, bonus *models.MovementInput) (models.EmotionEntry, *models.Movement, error) {
	const op = "memstore.InsertEmotion"
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[e.StudentID]; !ok || a.Role != models.Student {
		return models.EmotionEntry{}, nil, apperr.E(op, apperr.ErrUnknownStudent)
	}
	for _, cur := range s.emotions[e.StudentID] {
		if cur.Day.Equal(e.Day) {
			return models.EmotionEntry{}, nil, apperr.E(op, apperr.ErrAlreadyLoggedToday)
		}
	}
	var mv *models.Movement
	if bonus != nil {
		m, err := s.applyLocked(*bonus)
		if err != nil {
			return models.EmotionEntry{}, nil, err
		}
		mv = &m
	}
	e.CreatedAt = s.stamp()
	e.Note = cloneString(e.Note)
	xs := append(s.emotions[e.StudentID], e)
	sort.Slice(xs, func(i, j int) bool { return xs[i].Day.Before(xs[j].Day) })
	s.emotions[e.StudentID] = xs
	return e, mv, nil
}

// ListEmotions: записи начиная с since, новые сверху.
func (s *Store) ListEmotions(_ context.Context, studentID uuid.UUID, since time.Time) ([]models.EmotionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	xs := s.emotions[studentID]
	var out []models.EmotionEntry
	for i := len(xs) - 1; i >= 0; i-- {
		if xs[i].Day.Before(since) {
			break
		}
		e := xs[i]
		e.Note = cloneString(e.Note)
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) LongestStreak(_ context.Context, studentID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best := 0
	for _, e := range s.emotions[studentID] {
		if e.StreakCount > best {
			best = e.StreakCount
		}
	}
	return best, nil
}
