package models

import "time"

// NotificationType classifies workflow notifications.
type NotificationType string

const (
	NotificationSubmissionReceived NotificationType = "SUBMISSION_RECEIVED"
	NotificationEditorAssigned     NotificationType = "EDITOR_ASSIGNED"
	NotificationReviewInvitation   NotificationType = "REVIEW_INVITATION"
	NotificationReviewResponse     NotificationType = "REVIEW_RESPONSE"
	NotificationReviewSubmitted    NotificationType = "REVIEW_SUBMITTED"
	NotificationReviewReminder     NotificationType = "REVIEW_REMINDER"
	NotificationDecision           NotificationType = "DECISION"
	NotificationRevisionSubmitted  NotificationType = "REVISION_SUBMITTED"
	NotificationPublished          NotificationType = "PUBLISHED"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID                  string           `db:"id" json:"id"`
	RecipientID         string           `db:"recipient_id" json:"recipientId"`
	Type                NotificationType `db:"type" json:"type"`
	Subject             string           `db:"subject" json:"subject"`
	Message             string           `db:"message" json:"message"`
	RelatedManuscriptID *string          `db:"related_manuscript_id" json:"relatedManuscriptId,omitempty"`
	RelatedReviewID     *string          `db:"related_review_id" json:"relatedReviewId,omitempty"`
	IsRead              bool             `db:"is_read" json:"isRead"`
	CreatedAt           time.Time        `db:"created_at" json:"createdAt"`
}
