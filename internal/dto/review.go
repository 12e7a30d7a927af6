package dto

import (
	"time"

	"github.com/noah-isme/journal-editorial-api/internal/models"
)

// AssignReviewersRequest invites reviewers to a manuscript.
type AssignReviewersRequest struct {
	ReviewerIDs []string   `json:"reviewerIds" validate:"required,dive,required"`
	DueDate     *time.Time `json:"dueDate"`
}

// AssignReviewersResult reports created reviews and skipped duplicates.
type AssignReviewersResult struct {
	Created []models.Review `json:"created"`
	Skipped []string        `json:"skipped"`
}

// RespondInvitationRequest accepts or declines a review invitation.
type RespondInvitationRequest struct {
	Accept        *bool  `json:"accept" validate:"required"`
	DeclineReason string `json:"declineReason"`
}

// SubmitReviewRequest completes a review.
type SubmitReviewRequest struct {
	Recommendation       models.Recommendation `json:"recommendation" validate:"required,oneof=ACCEPT MINOR_REVISIONS MAJOR_REVISIONS REJECT"`
	ConfidentialComments string                `json:"confidentialComments"`
	AuthorComments       string                `json:"authorComments" validate:"required"`
}
