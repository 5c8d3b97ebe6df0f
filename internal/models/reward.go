package models

import (
	"time"

	"github.com/google/uuid"
)

type Reward struct {
	ID          uuid.UUID `json:"id"`
	TeacherID   uuid.UUID `json:"teacher_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CostPoints  int64     `json:"cost_points"`
	// nil: без ограничения
	Stock     *int64    `json:"stock,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func (r Reward) InStock() bool { return r.Stock == nil || *r.Stock > 0 }

type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "pending"
	ClaimApproved  ClaimStatus = "approved"
	ClaimRejected  ClaimStatus = "rejected"
	ClaimDelivered ClaimStatus = "delivered"
	ClaimCancelled ClaimStatus = "cancelled"
)

func (s ClaimStatus) Terminal() bool {
	return s == ClaimRejected || s == ClaimDelivered || s == ClaimCancelled
}

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimPending, ClaimApproved, ClaimRejected, ClaimDelivered, ClaimCancelled:
		return true
	}
	return false
}

type RewardClaim struct {
	ID          uuid.UUID   `json:"id"`
	RewardID    uuid.UUID   `json:"reward_id"`
	StudentID   uuid.UUID   `json:"student_id"`
	TeacherID   uuid.UUID   `json:"teacher_id"`
	PointsSpent int64       `json:"points_spent"`
	Status      ClaimStatus `json:"status"`
	DecidedBy   *uuid.UUID  `json:"decided_by,omitempty"`
	MovementID  *uuid.UUID  `json:"movement_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ClaimFilter: пустые поля не фильтруют.
type ClaimFilter struct {
	StudentID *uuid.UUID
	TeacherID *uuid.UUID
	Status    *ClaimStatus
}
