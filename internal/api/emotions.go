package api

import (
	"net/http"

	"github.com/emotionalcenter/amistapp/internal/models"
)

type logEmotionRequest struct {
	Emotion models.Emotion `json:"emotion" validate:"required"`
	Note    string         `json:"note" validate:"max=500"`
}

func (s *Server) handleLogEmotion(w http.ResponseWriter, r *http.Request) {
	var req logEmotionRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Streak.LogEmotion(r.Context(), actor(r).ID, req.Emotion, req.Note, s.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleEmotionHistory(w http.ResponseWriter, r *http.Request) {
	days, ok := s.queryInt(w, r, "days", 30, 366)
	if !ok {
		return
	}
	list, err := s.Streak.History(r.Context(), actor(r).ID, s.Now(), days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": list})
}

// handleStudentEmotions: учитель смотрит историю своего ученика.
func (s *Server) handleStudentEmotions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	days, ok := s.queryInt(w, r, "days", 30, 366)
	if !ok {
		return
	}
	if _, err := s.visible(r.Context(), actor(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.Streak.History(r.Context(), id, s.Now(), days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": list})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	id := actor(r).ID
	cur, err := s.Streak.Current(r.Context(), id, s.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	best, err := s.Streak.Longest(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"current": cur, "longest": best})
}
