package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/award"
)

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	list, err := s.Award.Actions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": list})
}

type awardRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	ActionID  uuid.UUID `json:"action_id" validate:"required"`
	RequestID string    `json:"request_id" validate:"omitempty,max=128"`
}

func (s *Server) handleAward(w http.ResponseWriter, r *http.Request) {
	var req awardRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Award.Award(r.Context(), award.AwardRequest{
		TeacherID: actor(r).ID,
		StudentID: req.StudentID,
		ActionID:  req.ActionID,
		RequestID: req.RequestID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type peerAwardRequest struct {
	ToStudentID uuid.UUID  `json:"to_student_id" validate:"required"`
	ActionID    *uuid.UUID `json:"action_id"`
	Points      int64      `json:"points"`
	Reason      string     `json:"reason" validate:"max=280"`
	RequestID   string     `json:"request_id" validate:"omitempty,max=128"`
}

func (s *Server) handlePeerAward(w http.ResponseWriter, r *http.Request) {
	var req peerAwardRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Award.PeerAward(r.Context(), award.PeerAwardRequest{
		FromStudentID: actor(r).ID,
		ToStudentID:   req.ToStudentID,
		ActionID:      req.ActionID,
		Points:        req.Points,
		Reason:        req.Reason,
		RequestID:     req.RequestID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
