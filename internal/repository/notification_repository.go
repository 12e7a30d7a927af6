package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/journal-editorial-api/internal/models"
)

// NotificationRepository stores in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, recipient_id, type, subject, message, related_manuscript_id, related_review_id, is_read, created_at) VALUES (:id, :recipient_id, :type, :subject, :message, :related_manuscript_id, :related_review_id, :is_read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByRecipient returns a page of a user's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int, error) {
	where := "WHERE recipient_id = $1"
	if unreadOnly {
		where += " AND is_read = FALSE"
	}
	page, pageSize = normalizePage(page, pageSize)
	listQuery := fmt.Sprintf("SELECT id, recipient_id, type, subject, message, related_manuscript_id, related_review_id, is_read, created_at FROM notifications %s ORDER BY created_at DESC LIMIT %d OFFSET %d", where, pageSize, (page-1)*pageSize)

	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, listQuery, recipientID); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notifications "+where, recipientID); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return items, total, nil
}

// MarkRead flags a notification as read when it belongs to recipientID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireAffected(res)
}
