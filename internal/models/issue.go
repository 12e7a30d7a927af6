package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// IssueEntry places a manuscript inside an issue with its page range.
type IssueEntry struct {
	ManuscriptID string `json:"manuscriptId"`
	PageStart    int    `json:"pageStart"`
	PageEnd      int    `json:"pageEnd"`
}

// IssueEntries is a JSONB encoded, ordered entry list.
type IssueEntries []IssueEntry

// Value implements driver.Valuer.
func (e IssueEntries) Value() (driver.Value, error) {
	if e == nil {
		e = IssueEntries{}
	}
	return jsonValue("issue entries", []IssueEntry(e))
}

// Scan implements sql.Scanner.
func (e *IssueEntries) Scan(value interface{}) error {
	*e = IssueEntries{}
	return scanJSON("issue entries", value, (*[]IssueEntry)(e))
}

// Contains reports whether manuscriptID is already an entry.
func (e IssueEntries) Contains(manuscriptID string) bool {
	for _, entry := range e {
		if entry.ManuscriptID == manuscriptID {
			return true
		}
	}
	return false
}

// ManuscriptIDs lists member manuscripts in order.
func (e IssueEntries) ManuscriptIDs() []string {
	ids := make([]string, len(e))
	for i, entry := range e {
		ids[i] = entry.ManuscriptID
	}
	return ids
}

// Issue groups accepted manuscripts under a volume and number. Once published it is immutable.
type Issue struct {
	ID          string       `db:"id" json:"id"`
	Volume      int          `db:"volume" json:"volume"`
	Number      int          `db:"number" json:"number"`
	Year        int          `db:"year" json:"year"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Manuscripts IssueEntries `db:"manuscripts" json:"manuscripts"`
	IsPublished bool         `db:"is_published" json:"isPublished"`
	PublishedAt *time.Time   `db:"published_at" json:"publishedAt,omitempty"`
	CreatedBy   string       `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}

// Label renders "Vol. X, No. Y (YYYY)".
func (i *Issue) Label() string {
	return fmt.Sprintf("Vol. %d, No. %d (%d)", i.Volume, i.Number, i.Year)
}

// IssueFilter narrows issue listings.
type IssueFilter struct {
	Year      int
	Published *bool
	Page      int
	PageSize  int
}

// TableOfContentsEntry is one published article line.
type TableOfContentsEntry struct {
	ManuscriptID string   `json:"manuscriptId"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	PageStart    int      `json:"pageStart"`
	PageEnd      int      `json:"pageEnd"`
	DOI          string   `json:"doi,omitempty"`
	PublicURL    string   `json:"publicUrl,omitempty"`
}

// TableOfContents renders an issue for readers.
type TableOfContents struct {
	IssueID     string                 `json:"issueId"`
	Label       string                 `json:"label"`
	Title       string                 `json:"title"`
	IsPublished bool                   `json:"isPublished"`
	PublishedAt *time.Time             `json:"publishedAt,omitempty"`
	Entries     []TableOfContentsEntry `json:"entries"`
}

// IssuePublication is returned by a publish call.
type IssuePublication struct {
	Issue      *Issue          `json:"issue"`
	DOIResults []DepositResult `json:"doiResults"`
}

// ExportFormat selects a table of contents rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)
