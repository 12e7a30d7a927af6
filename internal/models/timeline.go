package models

import (
	"database/sql/driver"
	"time"
)

// Timeline events recorded against a manuscript.
const (
	EventSubmitted         = "SUBMITTED"
	EventEditorAssigned    = "EDITOR_ASSIGNED"
	EventReviewersAssigned = "REVIEWERS_ASSIGNED"
	EventReviewAccepted    = "REVIEW_ACCEPTED"
	EventReviewDeclined    = "REVIEW_DECLINED"
	EventReviewCompleted   = "REVIEW_COMPLETED"
	EventDecisionRecorded  = "DECISION_RECORDED"
	EventRevisionSubmitted = "REVISION_SUBMITTED"
	EventDOIDepositAttempt = "DOI_DEPOSIT_ATTEMPTED"
	EventDOIAssigned       = "DOI_ASSIGNED"
	EventAddedToIssue      = "ADDED_TO_ISSUE"
	EventRemovedFromIssue  = "REMOVED_FROM_ISSUE"
	EventPublished         = "PUBLISHED"
)

// TimelineEntry is one audit record on a manuscript.
type TimelineEntry struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Detail    string    `json:"detail,omitempty"`
}

// Timeline is append-only; entries keep insertion order.
type Timeline []TimelineEntry

// Append adds an entry at the end of the timeline.
func (t *Timeline) Append(event, actor, detail string, at time.Time) {
	*t = append(*t, TimelineEntry{Event: event, Timestamp: at, Actor: actor, Detail: detail})
}

// Last returns the most recent entry, if any.
func (t Timeline) Last() (TimelineEntry, bool) {
	if len(t) == 0 {
		return TimelineEntry{}, false
	}
	return t[len(t)-1], true
}

// Value implements driver.Valuer.
func (t Timeline) Value() (driver.Value, error) {
	if t == nil {
		t = Timeline{}
	}
	return jsonValue("timeline", []TimelineEntry(t))
}

// Scan implements sql.Scanner.
func (t *Timeline) Scan(value interface{}) error {
	*t = Timeline{}
	return scanJSON("timeline", value, (*[]TimelineEntry)(t))
}
