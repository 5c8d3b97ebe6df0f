package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
	"github.com/emotionalcenter/amistapp/internal/redemption"
)

type createRewardRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
	CostPoints  int64  `json:"cost_points"`
	Stock       *int64 `json:"stock" validate:"omitempty,gte=0"`
}

func (s *Server) handleCreateReward(w http.ResponseWriter, r *http.Request) {
	var req createRewardRequest
	if !s.decode(w, r, &req) {
		return
	}
	rw, err := s.Redemption.CreateReward(r.Context(), actor(r).ID, redemption.NewReward{
		Title:       req.Title,
		Description: req.Description,
		CostPoints:  req.CostPoints,
		Stock:       req.Stock,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rw)
}

// handleListRewards отдаёт учителю свои награды (active=true фильтрует), ученику
// активные награды его учителя.
func (s *Server) handleListRewards(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	var (
		list []models.Reward
		err  error
	)
	if a.Role == models.Teacher {
		list, err = s.Redemption.ListRewards(r.Context(), a.ID, r.URL.Query().Get("active") == "true")
	} else {
		list, err = s.Redemption.RewardsFor(r.Context(), a.ID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rewards": list})
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (s *Server) handleSetRewardActive(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req setActiveRequest
	if !s.decode(w, r, &req) {
		return
	}
	rw, err := s.Redemption.SetRewardActive(r.Context(), actor(r).ID, id, *req.Active)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rw)
}

func (s *Server) handleDeleteReward(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Redemption.DeleteReward(r.Context(), actor(r).ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type requestClaimRequest struct {
	RewardID uuid.UUID `json:"reward_id" validate:"required"`
}

func (s *Server) handleRequestClaim(w http.ResponseWriter, r *http.Request) {
	var req requestClaimRequest
	if !s.decode(w, r, &req) {
		return
	}
	c, err := s.Redemption.Request(r.Context(), actor(r).ID, req.RewardID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	f := models.ClaimFilter{}
	if a.Role == models.Teacher {
		f.TeacherID = &a.ID
	} else {
		f.StudentID = &a.ID
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := models.ClaimStatus(raw)
		if !st.Valid() {
			s.writeError(w, r, apperr.New("api.ListClaims", apperr.ErrInvalidInput, "unknown status %q", raw))
			return
		}
		f.Status = &st
	}
	list, err := s.Redemption.ListClaims(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claims": list})
}

// claimAction это метод-выражение Machine: Approve, Reject, Deliver, Cancel.
type claimAction func(m *redemption.Machine, ctx context.Context, actorID, claimID uuid.UUID) (models.RewardClaim, error)

func (s *Server) claimHandler(do claimAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		c, err := do(s.Redemption, r.Context(), actor(r).ID, id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
