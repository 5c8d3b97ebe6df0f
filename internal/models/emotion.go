package models

import (
	"time"

	"github.com/google/uuid"
)

type Emotion string

const (
	Feliz      Emotion = "feliz"
	Triste     Emotion = "triste"
	Enojado    Emotion = "enojado"
	Ansioso    Emotion = "ansioso"
	Agradecido Emotion = "agradecido"
)

var Emotions = []Emotion{Feliz, Triste, Enojado, Ansioso, Agradecido}

func (e Emotion) Valid() bool {
	for _, x := range Emotions {
		if x == e {
			return true
		}
	}
	return false
}

// EmotionEntry: одна запись в день на ученика. Day хранится как полночь UTC.
type EmotionEntry struct {
	StudentID   uuid.UUID `json:"student_id"`
	Day         time.Time `json:"day"`
	Emotion     Emotion   `json:"emotion"`
	Note        *string   `json:"note,omitempty"`
	StreakCount int       `json:"streak_count"`
	CreatedAt   time.Time `json:"created_at"`
}
