package dto

// CreateIssueRequest opens a new issue.
type CreateIssueRequest struct {
	Volume      int    `json:"volume" validate:"required,min=1"`
	Number      int    `json:"number" validate:"required,min=1"`
	Year        int    `json:"year" validate:"required,min=1900"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// AddIssueManuscriptRequest places an accepted manuscript in an issue.
type AddIssueManuscriptRequest struct {
	ManuscriptID string `json:"manuscriptId" validate:"required"`
	PageStart    int    `json:"pageStart" validate:"required,min=1"`
	PageEnd      int    `json:"pageEnd" validate:"required,gtefield=PageStart"`
}

// IssueQuery mirrors supported issue listing filters.
type IssueQuery struct {
	Year      int   `form:"year"`
	Published *bool `form:"published"`
	Page      int   `form:"page"`
	PageSize  int   `form:"page_size"`
}
