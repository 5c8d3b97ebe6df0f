// Package memstore is an in-process implementation of every store contract,
// used in dev mode (no DATABASE_URL) and by the service tests. One mutex
// serialises all writes, which gives the same atomicity the Postgres store
// gets from transactions and unique indexes.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/models"
)

type rewardRow struct {
	models.Reward
	deleted bool
}

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	accounts   map[uuid.UUID]*models.Account
	movements  []models.Movement
	requestIDs map[string]struct{}

	actions map[uuid.UUID]models.Action

	rewards     map[uuid.UUID]*rewardRow
	rewardOrder []uuid.UUID
	claims      map[uuid.UUID]*models.RewardClaim
	claimOrder  []uuid.UUID

	emotions map[uuid.UUID][]models.EmotionEntry

	reports     map[uuid.UUID]*models.Report
	reportOrder []uuid.UUID

	notifications []*models.Notification
}

func New() *Store {
	return &Store{
		now:        time.Now,
		accounts:   make(map[uuid.UUID]*models.Account),
		requestIDs: make(map[string]struct{}),
		actions:    make(map[uuid.UUID]models.Action),
		rewards:    make(map[uuid.UUID]*rewardRow),
		claims:     make(map[uuid.UUID]*models.RewardClaim),
		emotions:   make(map[uuid.UUID][]models.EmotionEntry),
		reports:    make(map[uuid.UUID]*models.Report),
	}
}

// SetClock подменяет часы; для тестов.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Ping всегда успешен; нужен для /healthz.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) stamp() time.Time { return s.now().UTC() }

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUUID(p *uuid.UUID) *uuid.UUID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
