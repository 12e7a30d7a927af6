package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/journal-editorial-api/internal/dto"
	"github.com/noah-isme/journal-editorial-api/internal/models"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
	"github.com/noah-isme/journal-editorial-api/pkg/jobs"
)

// JobKindEmail tags outbound notification emails on the job queue.
const JobKindEmail = "notification.email"

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

type mailSender interface {
	Send(to []string, subject, body string) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService records in-app notifications and, when a mailer is configured,
// hands an email copy to the background queue.
type NotificationService struct {
	store   notificationStore
	users   userDirectory
	mailer  mailSender
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotificationService wires the notifier. mailer may be nil to disable email.
func NewNotificationService(store notificationStore, users userDirectory, mailer mailSender, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		store:   store,
		users:   users,
		mailer:  mailer,
		metrics: metrics,
		logger:  logger,
		now:     systemNow,
	}
}

// AttachQueue sets the queue used for email delivery. The queue's handler is
// DeliverEmail, so the two are built in that order.
func (s *NotificationService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Notify implements Notifier. The in-app record is written synchronously; email is
// best effort.
func (s *NotificationService) Notify(ctx context.Context, notice Notice) error {
	if notice.RecipientID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "notification recipient is required")
	}
	n := &models.Notification{
		RecipientID: notice.RecipientID,
		Type:        notice.Type,
		Subject:     notice.Subject,
		Message:     notice.Message,
		CreatedAt:   s.now(),
	}
	if notice.ManuscriptID != "" {
		n.RelatedManuscriptID = strPtr(notice.ManuscriptID)
	}
	if notice.ReviewID != "" {
		n.RelatedReviewID = strPtr(notice.ReviewID)
	}
	err := s.store.Create(ctx, n)
	s.metrics.RecordNotification("in_app", err)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrExternalFailure, "failed to record notification")
	}

	if s.mailer == nil || s.queue == nil {
		return nil
	}
	job := jobs.Job{ID: n.ID, Kind: JobKindEmail, Payload: notice, Enqueued: s.now()}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordNotification("email", err)
		s.logger.Warn("email notification not queued", zap.String("notification_id", n.ID), zap.Error(err))
	}
	return nil
}

// DeliverEmail is the queue handler for JobKindEmail jobs.
func (s *NotificationService) DeliverEmail(ctx context.Context, job jobs.Job) error {
	notice, ok := job.Payload.(Notice)
	if !ok {
		s.logger.Error("unexpected email job payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	if s.mailer == nil {
		return nil
	}
	user, err := s.users.FindByID(ctx, notice.RecipientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("email recipient vanished", zap.String("recipient_id", notice.RecipientID))
			return nil
		}
		return fmt.Errorf("load recipient: %w", err)
	}
	if user.Email == "" || !user.Active {
		return nil
	}
	err = s.mailer.Send([]string{user.Email}, notice.Subject, notice.Message)
	s.metrics.RecordNotification("email", err)
	if err != nil {
		return fmt.Errorf("send email to %s: %w", user.ID, err)
	}
	return nil
}

// ListForUser pages the caller's notifications.
func (s *NotificationService) ListForUser(ctx context.Context, query dto.NotificationQuery, actor *models.JWTClaims) ([]models.Notification, *models.Pagination, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	items, total, err := s.store.ListByRecipient(ctx, actor.UserID, query.UnreadOnly, query.Page, query.PageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to list notifications")
	}
	page, size := query.Page, query.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.store.MarkRead(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal, "failed to update notification")
	}
	return nil
}
