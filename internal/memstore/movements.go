package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func (s *Store) ApplyMovement(_ context.Context, in models.MovementInput) (models.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(in)
}

// applyLocked проверяет всё до первой мутации, поэтому отказ не оставляет
// частичного состояния.
func (s *Store) applyLocked(in models.MovementInput) (models.Movement, error) {
	const op = "memstore.ApplyMovement"
	if in.Amount <= 0 {
		return models.Movement{}, apperr.E(op, apperr.ErrInvalidAmount)
	}
	if in.From == nil && in.To == nil {
		return models.Movement{}, apperr.New(op, apperr.ErrInvalidInput, "movement needs at least one account")
	}
	var from, to *models.Account
	if in.From != nil {
		a, ok := s.accounts[*in.From]
		if !ok {
			return models.Movement{}, apperr.E(op, apperr.ErrUnknownAccount)
		}
		if a.Frozen {
			return models.Movement{}, apperr.E(op, apperr.ErrAccountFrozen)
		}
		if a.Balance < in.Amount {
			return models.Movement{}, apperr.E(op, apperr.ErrInsufficientBalance)
		}
		from = a
	}
	if in.To != nil {
		a, ok := s.accounts[*in.To]
		if !ok {
			return models.Movement{}, apperr.E(op, apperr.ErrUnknownAccount)
		}
		if a.Frozen {
			return models.Movement{}, apperr.E(op, apperr.ErrAccountFrozen)
		}
		to = a
	}
	if in.RequestID != "" {
		if _, dup := s.requestIDs[in.RequestID]; dup {
			return models.Movement{}, apperr.E(op, apperr.ErrDuplicateRequest)
		}
		s.requestIDs[in.RequestID] = struct{}{}
	}

	if from != nil {
		from.Balance -= in.Amount
	}
	if to != nil {
		to.Balance += in.Amount
	}
	m := models.Movement{
		ID:        uuid.New(),
		From:      cloneUUID(in.From),
		To:        cloneUUID(in.To),
		Amount:    in.Amount,
		Kind:      in.Kind,
		Reason:    in.Reason,
		RequestID: in.RequestIDPtr(),
		CreatedAt: s.stamp(),
	}
	s.movements = append(s.movements, m)
	return m, nil
}

func (s *Store) ListMovements(_ context.Context, accountID uuid.UUID, limit int) ([]models.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Movement
	for i := len(s.movements) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		m := s.movements[i]
		if (m.From != nil && *m.From == accountID) || (m.To != nil && *m.To == accountID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) Reconcile(_ context.Context, accountID *uuid.UUID) ([]models.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expected := make(map[uuid.UUID]int64, len(s.accounts))
	for id, a := range s.accounts {
		expected[id] = a.InitialBalance
	}
	for _, m := range s.movements {
		if m.From != nil {
			expected[*m.From] -= m.Amount
		}
		if m.To != nil {
			expected[*m.To] += m.Amount
		}
	}
	var out []models.Reconciliation
	for id, a := range s.accounts {
		if accountID != nil && *accountID != id {
			continue
		}
		out = append(out, models.Reconciliation{AccountID: id, Balance: a.Balance, Expected: expected[id]})
	}
	if accountID != nil && len(out) == 0 {
		return nil, apperr.E("memstore.Reconcile", apperr.ErrUnknownAccount)
	}
	return out, nil
}
