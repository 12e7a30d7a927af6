package models

import (
	"database/sql/driver"
	"time"
)

// ReviewStatus captures the reviewer invitation lifecycle.
type ReviewStatus string

const (
	ReviewStatusPendingInvitation ReviewStatus = "PENDING_INVITATION"
	ReviewStatusInvitationSent    ReviewStatus = "INVITATION_SENT"
	ReviewStatusAccepted          ReviewStatus = "ACCEPTED"
	ReviewStatusDeclined          ReviewStatus = "DECLINED"
	ReviewStatusInProgress        ReviewStatus = "IN_PROGRESS"
	ReviewStatusCompleted         ReviewStatus = "COMPLETED"
)

// Recommendation is the reviewer's verdict on completion.
type Recommendation string

const (
	RecommendationAccept         Recommendation = "ACCEPT"
	RecommendationMinorRevisions Recommendation = "MINOR_REVISIONS"
	RecommendationMajorRevisions Recommendation = "MAJOR_REVISIONS"
	RecommendationReject         Recommendation = "REJECT"
)

// Valid reports whether r is a known recommendation.
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendationAccept, RecommendationMinorRevisions, RecommendationMajorRevisions, RecommendationReject:
		return true
	}
	return false
}

// InvitationResponse records the reviewer's answer. Responded is set once and never cleared.
type InvitationResponse struct {
	Responded     bool       `json:"responded"`
	Accepted      bool       `json:"accepted"`
	RespondedAt   *time.Time `json:"respondedAt,omitempty"`
	DeclineReason *string    `json:"declineReason,omitempty"`
}

// Value implements driver.Valuer.
func (r InvitationResponse) Value() (driver.Value, error) {
	return jsonValue("invitation response", r)
}

// Scan implements sql.Scanner.
func (r *InvitationResponse) Scan(value interface{}) error {
	*r = InvitationResponse{}
	return scanJSON("invitation response", value, r)
}

// TimeList is a JSONB encoded list of timestamps.
type TimeList []time.Time

// Value implements driver.Valuer.
func (l TimeList) Value() (driver.Value, error) {
	if l == nil {
		l = TimeList{}
	}
	return jsonValue("time list", []time.Time(l))
}

// Scan implements sql.Scanner.
func (l *TimeList) Scan(value interface{}) error {
	*l = TimeList{}
	return scanJSON("time list", value, (*[]time.Time)(l))
}

// Review is one reviewer's assignment on one manuscript.
type Review struct {
	ID                   string             `db:"id" json:"id"`
	ManuscriptID         string             `db:"manuscript_id" json:"manuscriptId"`
	ReviewerID           string             `db:"reviewer_id" json:"reviewerId"`
	AssignedBy           string             `db:"assigned_by" json:"assignedBy"`
	Status               ReviewStatus       `db:"status" json:"status"`
	InvitedAt            time.Time          `db:"invited_at" json:"invitedAt"`
	Response             InvitationResponse `db:"invitation_response" json:"invitationResponse"`
	DueDate              time.Time          `db:"due_date" json:"dueDate"`
	Round                int                `db:"round" json:"round"`
	Recommendation       *Recommendation    `db:"recommendation" json:"recommendation,omitempty"`
	ConfidentialComments *string            `db:"confidential_comments" json:"confidentialComments,omitempty"`
	AuthorComments       *string            `db:"author_comments" json:"authorComments,omitempty"`
	CompletedAt          *time.Time         `db:"completed_at" json:"completedAt,omitempty"`
	Reminders            TimeList           `db:"reminders" json:"reminders"`
	CreatedAt            time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time          `db:"updated_at" json:"updatedAt"`
}

// AuthorView strips editor-only content.
func (r Review) AuthorView() Review {
	r.ConfidentialComments = nil
	r.ReviewerID = ""
	r.AssignedBy = ""
	return r
}

// Overdue reports whether an open review is past its due date.
func (r *Review) Overdue(now time.Time) bool {
	switch r.Status {
	case ReviewStatusCompleted, ReviewStatusDeclined:
		return false
	}
	return now.After(r.DueDate)
}
