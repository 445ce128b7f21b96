package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/classkit/api/internal/domain"
)

// NotificationRepo provides typed Postgres operations for the notifications
// table. Rows here are authoritative; the cache list is a projection.
type NotificationRepo struct {
	db *sqlx.DB
}

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Insert creates the durable notification and returns it with its assigned
// id and timestamp. This is the durability gate of the fan-out.
func (r *NotificationRepo) Insert(ctx context.Context, userID int64, typ string, referenceID int64) (*domain.Notification, error) {
	n := &domain.Notification{
		UserID:      userID,
		Type:        typ,
		ReferenceID: referenceID,
	}
	const q = `
		INSERT INTO notifications (user_id, type, reference_id, is_read)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id, timestamp`
	if err := r.db.QueryRowxContext(ctx, q, userID, typ, referenceID).Scan(&n.ID, &n.Timestamp); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

// MarkRead flips the read flag. A no-op when the row is absent, already
// read, or owned by another user; callers rely on that for idempotence.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, notificationID int64) error {
	const q = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, q, notificationID, userID)
	return err
}

// MarkAllRead bulk-flips every unread notification for the user.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int64) error {
	const q = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`
	_, err := r.db.ExecContext(ctx, q, userID)
	return err
}
