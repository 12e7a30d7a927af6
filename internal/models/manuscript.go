package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ManuscriptStatus captures the editorial lifecycle states.
type ManuscriptStatus string

const (
	ManuscriptStatusSubmitted         ManuscriptStatus = "SUBMITTED"
	ManuscriptStatusUnderReview       ManuscriptStatus = "UNDER_REVIEW"
	ManuscriptStatusRevisionsRequired ManuscriptStatus = "REVISIONS_REQUIRED"
	ManuscriptStatusRevisedSubmitted  ManuscriptStatus = "REVISED_SUBMITTED"
	ManuscriptStatusAccepted          ManuscriptStatus = "ACCEPTED"
	ManuscriptStatusRejected          ManuscriptStatus = "REJECTED"
	ManuscriptStatusPublished         ManuscriptStatus = "PUBLISHED"
)

// Terminal reports whether no further transition may leave the status.
func (s ManuscriptStatus) Terminal() bool {
	return s == ManuscriptStatusRejected || s == ManuscriptStatusPublished
}

// Valid reports whether s is a known status.
func (s ManuscriptStatus) Valid() bool {
	switch s {
	case ManuscriptStatusSubmitted, ManuscriptStatusUnderReview, ManuscriptStatusRevisionsRequired,
		ManuscriptStatusRevisedSubmitted, ManuscriptStatusAccepted, ManuscriptStatusRejected,
		ManuscriptStatusPublished:
		return true
	}
	return false
}

// DecisionKind enumerates editorial decisions.
type DecisionKind string

const (
	DecisionAccept            DecisionKind = "ACCEPT"
	DecisionReject            DecisionKind = "REJECT"
	DecisionRevisionsRequired DecisionKind = "REVISIONS_REQUIRED"
)

// ResultingStatus maps a decision onto the manuscript status it produces.
func (d DecisionKind) ResultingStatus() (ManuscriptStatus, bool) {
	switch d {
	case DecisionAccept:
		return ManuscriptStatusAccepted, true
	case DecisionReject:
		return ManuscriptStatusRejected, true
	case DecisionRevisionsRequired:
		return ManuscriptStatusRevisionsRequired, true
	}
	return "", false
}

// EditorDecision is the latest decision rendered on a manuscript.
type EditorDecision struct {
	Decision  DecisionKind `json:"decision"`
	Comment   string       `json:"comment"`
	DecidedAt time.Time    `json:"decidedAt"`
	DecidedBy string       `json:"decidedBy"`
}

// Value implements driver.Valuer.
func (d EditorDecision) Value() (driver.Value, error) {
	return jsonValue("editor decision", d)
}

// Scan implements sql.Scanner.
func (d *EditorDecision) Scan(value interface{}) error {
	return scanJSON("editor decision", value, d)
}

// Author is one entry of the ordered author list.
type Author struct {
	Name          string  `json:"name" validate:"required"`
	Email         string  `json:"email,omitempty" validate:"omitempty,email"`
	Affiliation   string  `json:"affiliation"`
	ORCID         *string `json:"orcid,omitempty"`
	Corresponding bool    `json:"corresponding"`
}

// Authors is a JSONB encoded author list.
type Authors []Author

// Value implements driver.Valuer.
func (a Authors) Value() (driver.Value, error) {
	if a == nil {
		a = Authors{}
	}
	return jsonValue("authors", []Author(a))
}

// Scan implements sql.Scanner.
func (a *Authors) Scan(value interface{}) error {
	*a = Authors{}
	return scanJSON("authors", value, (*[]Author)(a))
}

// Names returns author names in order.
func (a Authors) Names() []string {
	names := make([]string, len(a))
	for i, author := range a {
		names[i] = author.Name
	}
	return names
}

// ManuscriptFile references a stored binary file.
type ManuscriptFile struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	StoredPath   string    `json:"storedPath"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// ManuscriptFiles is a JSONB encoded file set.
type ManuscriptFiles []ManuscriptFile

// Value implements driver.Valuer.
func (f ManuscriptFiles) Value() (driver.Value, error) {
	if f == nil {
		f = ManuscriptFiles{}
	}
	return jsonValue("manuscript files", []ManuscriptFile(f))
}

// Scan implements sql.Scanner.
func (f *ManuscriptFiles) Scan(value interface{}) error {
	*f = ManuscriptFiles{}
	return scanJSON("manuscript files", value, (*[]ManuscriptFile)(f))
}

// Manuscript is the aggregate driven through the editorial workflow.
type Manuscript struct {
	ID             string           `db:"id" json:"id"`
	Title          string           `db:"title" json:"title"`
	Abstract       string           `db:"abstract" json:"abstract"`
	Keywords       StringList       `db:"keywords" json:"keywords"`
	Authors        Authors          `db:"authors" json:"authors"`
	Status         ManuscriptStatus `db:"status" json:"status"`
	CurrentVersion int              `db:"current_version" json:"currentVersion"`
	SubmittedBy    string           `db:"submitted_by" json:"submittedBy"`
	EditorID       *string          `db:"editor_id" json:"editorId,omitempty"`
	Decision       *EditorDecision  `db:"editor_decision" json:"editorDecision,omitempty"`
	IssueID        *string          `db:"issue_id" json:"issueId,omitempty"`
	DOI            *string          `db:"doi" json:"doi,omitempty"`
	PublicURL      *string          `db:"public_url" json:"publicUrl,omitempty"`
	PublishedAt    *time.Time       `db:"published_at" json:"publishedDate,omitempty"`
	Files          ManuscriptFiles  `db:"files" json:"files"`
	Revisions      Revisions        `db:"revisions" json:"revisions"`
	Timeline       Timeline         `db:"timeline" json:"timeline"`
	Deposit        DepositState     `db:"doi_deposit" json:"doiDeposit"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updatedAt"`
}

// FormatManuscriptID renders PREFIX-YYYY-NNNNN.
func FormatManuscriptID(prefix string, year, sequence int) string {
	return fmt.Sprintf("%s-%04d-%05d", prefix, year, sequence)
}

// HasDOI reports whether an identifier has been bound.
func (m *Manuscript) HasDOI() bool {
	return m != nil && m.DOI != nil && *m.DOI != ""
}

// FilesForVersion returns the file set of a version; version 1 is the original submission.
func (m *Manuscript) FilesForVersion(version int) (ManuscriptFiles, bool) {
	if version == 1 {
		return m.Files, true
	}
	rev, ok := m.Revisions.Find(version)
	if !ok {
		return nil, false
	}
	return rev.Files, true
}

// AllFiles lists every stored file referenced by the manuscript, including revision
// bundles and response documents.
func (m *Manuscript) AllFiles() ManuscriptFiles {
	all := make(ManuscriptFiles, 0, len(m.Files))
	all = append(all, m.Files...)
	for _, rev := range m.Revisions {
		all = append(all, rev.Files...)
		if rev.ResponseDocument != nil {
			all = append(all, *rev.ResponseDocument)
		}
	}
	return all
}

// FindFile locates a stored file by id across every version.
func (m *Manuscript) FindFile(fileID string) (ManuscriptFile, bool) {
	for _, f := range m.AllFiles() {
		if f.ID == fileID {
			return f, true
		}
	}
	return ManuscriptFile{}, false
}

// CorrespondingAuthor returns the author flagged as corresponding, if any.
func (m *Manuscript) CorrespondingAuthor() (Author, bool) {
	for _, a := range m.Authors {
		if a.Corresponding {
			return a, true
		}
	}
	return Author{}, false
}

// ManuscriptFilter constrains listing queries. VisibleTo limits results to manuscripts
// the user submitted or reviews.
type ManuscriptFilter struct {
	Status        []ManuscriptStatus
	SubmittedBy   string
	EditorID      string
	VisibleTo     string
	DepositStatus DepositStatus
	Page          int
	PageSize      int
}

// ManuscriptStatusCount aggregates manuscripts by status.
type ManuscriptStatusCount struct {
	Status ManuscriptStatus `db:"status" json:"status"`
	Count  int              `db:"count" json:"count"`
}
