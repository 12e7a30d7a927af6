package dto

import (
	"time"

	"github.com/noah-isme/journal-editorial-api/internal/models"
)

// CreateManuscriptRequest is the submission metadata; files travel as multipart parts.
type CreateManuscriptRequest struct {
	Title    string          `json:"title" validate:"required,max=500"`
	Abstract string          `json:"abstract" validate:"required"`
	Keywords []string        `json:"keywords" validate:"dive,required"`
	Authors  []models.Author `json:"authors" validate:"required,min=1,dive"`
}

// AssignEditorRequest names the handling editor.
type AssignEditorRequest struct {
	EditorID string `json:"editorId" validate:"required"`
}

// DecisionRequest records an editorial decision.
type DecisionRequest struct {
	Decision models.DecisionKind `json:"decision" validate:"required,oneof=ACCEPT REJECT REVISIONS_REQUIRED"`
	Comment  string              `json:"comment"`
}

// SubmitRevisionRequest carries resubmission notes; files travel as multipart parts.
type SubmitRevisionRequest struct {
	Notes string `json:"notes"`
}

// ManuscriptQuery mirrors supported listing filters.
type ManuscriptQuery struct {
	Status        []models.ManuscriptStatus
	DepositStatus models.DepositStatus
	Page          int
	PageSize      int
}

// CompareRevisionsQuery selects the two versions to diff.
type CompareRevisionsQuery struct {
	From int `form:"from" validate:"required,min=1"`
	To   int `form:"to" validate:"required,gtfield=From"`
}

// FileDownloadURL is returned when a signed download link is issued.
type FileDownloadURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
