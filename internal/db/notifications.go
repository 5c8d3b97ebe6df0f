package db

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/apperr"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func (s *Store) InsertNotification(ctx context.Context, n models.Notification) error {
	const op = "db.InsertNotification"
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Metadata == nil {
		n.Metadata = map[string]string{}
	}
	md, err := json.Marshal(n.Metadata)
	if err != nil {
		return apperr.Wrap(op, apperr.ErrInvalidInput, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, message, metadata)
		VALUES ($1, $2, $3, $4::jsonb)
	`, n.ID, n.RecipientID, n.Message, string(md))
	return mapErr(op, err)
}

func (s *Store) ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	const op = "db.ListNotifications"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient_id, message, metadata, read, created_at
		FROM notifications
		WHERE recipient_id = $1 AND (NOT read OR NOT $2)
		ORDER BY seq DESC
		LIMIT NULLIF($3::int, 0)
	`, recipientID, unreadOnly, max(limit, 0))
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var (
			n  models.Notification
			md []byte
		)
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &md, &n.Read, &n.CreatedAt); err != nil {
			return nil, mapErr(op, err)
		}
		if len(md) > 0 {
			if err := json.Unmarshal(md, &n.Metadata); err != nil {
				return nil, apperr.Store(op, err)
			}
		}
		out = append(out, n)
	}
	return out, mapErr(op, rows.Err())
}

func (s *Store) MarkNotificationRead(ctx context.Context, recipientID, id uuid.UUID) error {
	const op = "db.MarkNotificationRead"
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read = true WHERE id = $1 AND recipient_id = $2
	`, id, recipientID)
	if err != nil {
		return mapErr(op, err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return apperr.E(op, apperr.ErrUnknownNotification)
	}
	return nil
}
