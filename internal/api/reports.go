package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

type submitReportRequest struct {
	// пусто: учитель ученика
	TeacherID uuid.UUID `json:"teacher_id"`
	Body      string    `json:"body" validate:"required"`
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	var req submitReportRequest
	if !s.decode(w, r, &req) {
		return
	}
	rep, err := s.Reports.Submit(r.Context(), actor(r).ID, req.TeacherID, req.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

type respondReportRequest struct {
	Status  models.ReportStatus `json:"status" validate:"required,oneof=responded rejected"`
	Message string              `json:"message" validate:"max=2000"`
}

func (s *Server) handleRespondReport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req respondReportRequest
	if !s.decode(w, r, &req) {
		return
	}
	rep, err := s.Reports.Respond(r.Context(), actor(r).ID, id, req.Status, req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	var (
		list []models.Report
		err  error
	)
	if a.Role == models.Student {
		list, err = s.Reports.ListForStudent(r.Context(), a.ID)
	} else {
		var status *models.ReportStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			st := models.ReportStatus(raw)
			switch st {
			case models.ReportPending, models.ReportResponded, models.ReportRejected:
			default:
				s.writeError(w, r, apperr.New("api.ListReports", apperr.ErrInvalidInput, "unknown status %q", raw))
				return
			}
			status = &st
		}
		list, err = s.Reports.ListForTeacher(r.Context(), a.ID, status)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": list})
}
