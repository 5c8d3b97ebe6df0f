package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/emotionalcenter/amistapp/internal/ctxutil"
	"github.com/emotionalcenter/amistapp/internal/models"
)

// Inbox: чтение своих уведомлений.
type Inbox struct{ store InboxStore }

func NewInbox(store InboxStore) *Inbox { return &Inbox{store: store} }

func (i *Inbox) List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return i.store.ListNotifications(ctx, recipientID, unreadOnly, limit)
}

func (i *Inbox) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return i.store.MarkNotificationRead(ctx, recipientID, id)
}
