package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func (s *Store) CreateAccount(_ context.Context, a models.Account) (models.Account, error) {
	const op = "memstore.CreateAccount"
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if _, ok := s.accounts[a.ID]; ok {
		return models.Account{}, apperr.New(op, apperr.ErrInvalidInput, "account %s already exists", a.ID)
	}
	if a.Balance < 0 || a.InitialBalance < 0 {
		return models.Account{}, apperr.E(op, apperr.ErrInvalidAmount)
	}
	if a.TeacherID != nil {
		if _, ok := s.accounts[*a.TeacherID]; !ok {
			return models.Account{}, apperr.E(op, apperr.ErrUnknownAccount)
		}
	}
	a.CreatedAt = s.stamp()
	cp := a
	s.accounts[a.ID] = &cp
	return a, nil
}

func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return models.Account{}, apperr.E("memstore.GetAccount", apperr.ErrUnknownAccount)
	}
	return *a, nil
}

func (s *Store) ListStudents(_ context.Context, teacherID uuid.UUID) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Account
	for _, a := range s.accounts {
		if a.IsStudentOf(teacherID) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) SetFrozen(_ context.Context, ids []uuid.UUID, frozen bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok {
			a.Frozen = frozen
		}
	}
	return nil
}

// Corrupt напрямую меняет баланс в обход журнала. Только для тестов сверки.
func (s *Store) Corrupt(id uuid.UUID, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		a.Balance += delta
	}
}
