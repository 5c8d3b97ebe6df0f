package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func (s *Store) InsertNotification(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[n.RecipientID]; !ok {
		return apperr.E("memstore.InsertNotification", apperr.ErrUnknownAccount)
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.stamp()
	}
	md := make(map[string]string, len(n.Metadata))
	for k, v := range n.Metadata {
		md[k] = v
	}
	n.Metadata = md
	s.notifications = append(s.notifications, &n)
	return nil
}

func (s *Store) ListNotifications(_ context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for i := len(s.notifications) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		n := s.notifications[i]
		if n.RecipientID != recipientID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, recipientID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			return nil
		}
	}
	return apperr.E("memstore.MarkNotificationRead", apperr.ErrUnknownNotification)
}
