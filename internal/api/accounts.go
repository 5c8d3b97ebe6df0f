package api

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/ctxutil"
	"github.com/emotionalcenter/amistapp/internal/export"
	"github.com/emotionalcenter/amistapp/internal/ledger"
	"github.com/emotionalcenter/amistapp/internal/models"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// visible: свой счёт или счёт своего ученика.
func (s *Server) visible(ctx context.Context, a ctxutil.Actor, id uuid.UUID) (models.Account, error) {
	acc, err := s.Ledger.Account(ctx, id)
	if err != nil {
		return models.Account{}, err
	}
	if acc.ID == a.ID || (a.Role == models.Teacher && acc.IsStudentOf(a.ID)) {
		return acc, nil
	}
	return models.Account{}, apperr.New("api.visible", apperr.ErrForbidden, "account is not yours")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acc, err := s.Ledger.Account(r.Context(), actor(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	acc, err := s.visible(r.Context(), actor(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	limit, ok := s.queryInt(w, r, "limit", 50, 500)
	if !ok {
		return
	}
	if _, err := s.visible(r.Context(), actor(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.Ledger.Movements(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"movements": list})
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.visible(r.Context(), actor(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	wb, acc, err := export.Statement(r.Context(), s.Ledger, id, 1000, s.Location)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer wb.Close()
	s.sendWorkbook(w, wb, export.StatementFilename(acc.Name, s.Now().In(s.Location)))
}

func (s *Server) sendWorkbook(w http.ResponseWriter, wb *export.Workbook, filename string) {
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_ = wb.Write(w)
}

func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	list, err := s.Ledger.Students(r.Context(), actor(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"students": list})
}

type classmate struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// handleClassmates: кому ученик может подарить баллы. Без балансов и без
// самого ученика.
func (s *Server) handleClassmates(w http.ResponseWriter, r *http.Request) {
	me, err := s.Ledger.Account(r.Context(), actor(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := []classmate{}
	if me.TeacherID != nil {
		list, err := s.Ledger.Students(r.Context(), *me.TeacherID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		for _, a := range list {
			if a.ID != me.ID {
				out = append(out, classmate{ID: a.ID, Name: a.Name})
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"classmates": out})
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	teacher, err := s.Ledger.Account(r.Context(), a.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.Ledger.Students(r.Context(), a.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wb, err := export.Roster(list)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer wb.Close()
	s.sendWorkbook(w, wb, export.RosterFilename(teacher.Name, s.Now().In(s.Location)))
}

type openStudentRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// handleOpenStudent: учитель регистрирует ученика в своём классе.
func (s *Server) handleOpenStudent(w http.ResponseWriter, r *http.Request) {
	var req openStudentRequest
	if !s.decode(w, r, &req) {
		return
	}
	teacherID := actor(r).ID
	acc, err := s.Ledger.OpenAccount(r.Context(), ledger.NewAccount{
		Role:      models.Student,
		TeacherID: &teacherID,
		Name:      strings.TrimSpace(req.Name),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}
