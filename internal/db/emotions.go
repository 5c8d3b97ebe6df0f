package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

const emotionCols = `student_id, day, emotion, note, streak_count, created_at`

const dayLayout = "2006-01-02"

func scanEmotion(r rowScanner) (models.EmotionEntry, error) {
	var (
		e    models.EmotionEntry
		note sql.NullString
	)
	if err := r.Scan(&e.StudentID, &e.Day, &e.Emotion, &note, &e.StreakCount, &e.CreatedAt); err != nil {
		return models.EmotionEntry{}, err
	}
	// DATE приходит с разной зоной от разных драйверов
	y, m, d := e.Day.Date()
	e.Day = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	e.Note = strPtr(note)
	return e, nil
}

func (s *Store) LastEmotion(ctx context.Context, studentID uuid.UUID) (*models.EmotionEntry, error) {
	e, err := scanEmotion(s.db.QueryRowContext(ctx, `
		SELECT `+emotionCols+` FROM emotion_entries
		WHERE student_id = $1
		ORDER BY day DESC
		LIMIT 1
	`, studentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr("db.LastEmotion", err)
	}
	return &e, nil
}

// InsertEmotion пишет запись дня и бонус за серию в одной транзакции.
// Повтор за тот же день упирается в первичный ключ (student_id, day).
func (s *Store) InsertEmotion(ctx context.Context, e models.EmotionEntry, bonus *models.MovementInput) (models.EmotionEntry, *models.Movement, error) {
	const op = "db.InsertEmotion"
	var mv *models.Movement
	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		var role models.Role
		err := tx.QueryRowContext(ctx, `SELECT role FROM accounts WHERE id = $1`, e.StudentID).Scan(&role)
		if err != nil {
			return notFound(op, err, apperr.ErrUnknownStudent)
		}
		if role != models.Student {
			return apperr.E(op, apperr.ErrUnknownStudent)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO emotion_entries (student_id, day, emotion, note, streak_count)
			VALUES ($1, $2::date, $3, $4, $5)
			RETURNING created_at
		`, e.StudentID, e.Day.Format(dayLayout), e.Emotion, nullString(e.Note), e.StreakCount).Scan(&e.CreatedAt)
		if err != nil {
			return mapErr(op, err)
		}

		if bonus != nil {
			m, err := applyTx(ctx, tx, *bonus)
			if err != nil {
				return err
			}
			mv = &m
		}
		return nil
	})
	if err != nil {
		return models.EmotionEntry{}, nil, err
	}
	return e, mv, nil
}

func (s *Store) ListEmotions(ctx context.Context, studentID uuid.UUID, since time.Time) ([]models.EmotionEntry, error) {
	const op = "db.ListEmotions"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+emotionCols+` FROM emotion_entries
		WHERE student_id = $1 AND day >= $2::date
		ORDER BY day DESC
	`, studentID, since.Format(dayLayout))
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []models.EmotionEntry
	for rows.Next() {
		e, err := scanEmotion(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, e)
	}
	return out, mapErr(op, rows.Err())
}

func (s *Store) LongestStreak(ctx context.Context, studentID uuid.UUID) (int, error) {
	var best int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(streak_count), 0) FROM emotion_entries WHERE student_id = $1
	`, studentID).Scan(&best)
	return best, mapErr("db.LongestStreak", err)
}
