package models

import (
	"database/sql/driver"
	"time"
)

// Revision is an immutable resubmission snapshot.
type Revision struct {
	Version          int             `json:"version"`
	Files            ManuscriptFiles `json:"files"`
	ResponseDocument *ManuscriptFile `json:"responseDocument,omitempty"`
	SubmittedBy      string          `json:"submittedBy"`
	SubmittedAt      time.Time       `json:"submittedAt"`
	Notes            string          `json:"notes,omitempty"`
}

// Revisions is the append-only revision ledger.
type Revisions []Revision

// Find returns the revision carrying version.
func (r Revisions) Find(version int) (Revision, bool) {
	for _, rev := range r {
		if rev.Version == version {
			return rev, true
		}
	}
	return Revision{}, false
}

// Value implements driver.Valuer.
func (r Revisions) Value() (driver.Value, error) {
	if r == nil {
		r = Revisions{}
	}
	return jsonValue("revisions", []Revision(r))
}

// Scan implements sql.Scanner.
func (r *Revisions) Scan(value interface{}) error {
	*r = Revisions{}
	return scanJSON("revisions", value, (*[]Revision)(r))
}

// AppendRevision records a resubmission and bumps CurrentVersion so that
// CurrentVersion == 1 + len(Revisions) keeps holding.
func (m *Manuscript) AppendRevision(files ManuscriptFiles, response *ManuscriptFile, submittedBy, notes string, at time.Time) Revision {
	rev := Revision{
		Version:          m.CurrentVersion + 1,
		Files:            append(ManuscriptFiles(nil), files...),
		ResponseDocument: response,
		SubmittedBy:      submittedBy,
		SubmittedAt:      at,
		Notes:            notes,
	}
	m.Revisions = append(m.Revisions, rev)
	m.CurrentVersion = rev.Version
	return rev
}

// FileModification pairs the two sides of a changed file.
type FileModification struct {
	Name     string         `json:"name"`
	Previous ManuscriptFile `json:"previous"`
	Current  ManuscriptFile `json:"current"`
}

// RevisionComparison classifies files between two versions.
type RevisionComparison struct {
	ManuscriptID string             `json:"manuscriptId"`
	FromVersion  int                `json:"fromVersion"`
	ToVersion    int                `json:"toVersion"`
	Added        []ManuscriptFile   `json:"added"`
	Removed      []ManuscriptFile   `json:"removed"`
	Modified     []FileModification `json:"modified"`
}

// CompareFileSets matches files by original name. A name may repeat within a set, so
// files sharing a name pair up as a multiset: identical files (same size and upload
// time) pair first and are reported nowhere, the rest pair in order as modifications.
func CompareFileSets(earlier, later ManuscriptFiles) (added, removed []ManuscriptFile, modified []FileModification) {
	added = []ManuscriptFile{}
	removed = []ManuscriptFile{}
	modified = []FileModification{}

	byName := make(map[string][]int, len(earlier))
	for i, f := range earlier {
		byName[f.OriginalName] = append(byName[f.OriginalName], i)
	}
	taken := make([]bool, len(earlier))
	partner := make([]int, len(later))
	claim := func(j int, match func(ManuscriptFile) bool) {
		for _, i := range byName[later[j].OriginalName] {
			if !taken[i] && match(earlier[i]) {
				taken[i] = true
				partner[j] = i
				return
			}
		}
	}

	for j := range later {
		partner[j] = -1
		claim(j, func(prev ManuscriptFile) bool { return sameFile(prev, later[j]) })
	}
	for j, f := range later {
		if partner[j] >= 0 {
			continue
		}
		claim(j, func(ManuscriptFile) bool { return true })
		if partner[j] < 0 {
			added = append(added, f)
			continue
		}
		modified = append(modified, FileModification{Name: f.OriginalName, Previous: earlier[partner[j]], Current: f})
	}
	for i, f := range earlier {
		if !taken[i] {
			removed = append(removed, f)
		}
	}
	return added, removed, modified
}

func sameFile(a, b ManuscriptFile) bool {
	return a.SizeBytes == b.SizeBytes && a.UploadedAt.Equal(b.UploadedAt)
}
