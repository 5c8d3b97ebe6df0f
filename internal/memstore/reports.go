package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func snapshotReport(p *models.Report) models.Report {
	out := *p
	out.ResponseMessage = cloneString(p.ResponseMessage)
	if p.RespondedAt != nil {
		t := *p.RespondedAt
		out.RespondedAt = &t
	}
	return out
}

func (s *Store) CreateReport(_ context.Context, rep models.Report) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[rep.StudentID]; !ok {
		return models.Report{}, apperr.E("memstore.CreateReport", apperr.ErrUnknownStudent)
	}
	if _, ok := s.accounts[rep.TeacherID]; !ok {
		return models.Report{}, apperr.E("memstore.CreateReport", apperr.ErrUnknownAccount)
	}
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	rep.CreatedAt = s.stamp()
	cp := rep
	s.reports[rep.ID] = &cp
	s.reportOrder = append(s.reportOrder, rep.ID)
	return snapshotReport(&cp), nil
}

func (s *Store) GetReport(_ context.Context, id uuid.UUID) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.reports[id]
	if !ok {
		return models.Report{}, apperr.E("memstore.GetReport", apperr.ErrUnknownReport)
	}
	return snapshotReport(p), nil
}

// RespondReport: только из pending.
func (s *Store) RespondReport(_ context.Context, id uuid.UUID, status models.ReportStatus, message *string) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.reports[id]
	if !ok {
		return models.Report{}, apperr.E("memstore.RespondReport", apperr.ErrUnknownReport)
	}
	if p.Status != models.ReportPending {
		return models.Report{}, apperr.New("memstore.RespondReport", apperr.ErrInvalidTransition, "%s -> %s", p.Status, status)
	}
	now := s.stamp()
	p.Status = status
	p.ResponseMessage = cloneString(message)
	p.RespondedAt = &now
	return snapshotReport(p), nil
}

func (s *Store) ListReports(_ context.Context, f models.ReportFilter) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Report
	for i := len(s.reportOrder) - 1; i >= 0; i-- {
		p := s.reports[s.reportOrder[i]]
		if f.StudentID != nil && p.StudentID != *f.StudentID {
			continue
		}
		if f.TeacherID != nil && p.TeacherID != *f.TeacherID {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		out = append(out, snapshotReport(p))
	}
	return out, nil
}
