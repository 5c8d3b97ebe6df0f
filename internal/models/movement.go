package models

import (
	"time"

	"github.com/google/uuid"
)

type MovementKind string

const (
	KindAward       MovementKind = "award"
	KindPeerAward   MovementKind = "peer_award"
	KindStreakBonus MovementKind = "streak_bonus"
	KindRedemption  MovementKind = "redemption"
	KindCredit      MovementKind = "credit"
	KindDebit       MovementKind = "debit"
	KindReplenish   MovementKind = "replenish"
	KindTransfer    MovementKind = "transfer"
)

// Movement: неизменяемая запись журнала. Хотя бы одна сторона задана.
type Movement struct {
	ID        uuid.UUID    `json:"id"`
	From      *uuid.UUID   `json:"from,omitempty"`
	To        *uuid.UUID   `json:"to,omitempty"`
	Amount    int64        `json:"amount"`
	Kind      MovementKind `json:"kind"`
	Reason    string       `json:"reason"`
	RequestID *string      `json:"request_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// MovementInput describes a movement to be applied atomically by a store:
// debit From (if set), credit To (if set), append the journal row.
type MovementInput struct {
	From      *uuid.UUID
	To        *uuid.UUID
	Amount    int64
	Kind      MovementKind
	Reason    string
	RequestID string
}

func (in MovementInput) RequestIDPtr() *string {
	if in.RequestID == "" {
		return nil
	}
	s := in.RequestID
	return &s
}
