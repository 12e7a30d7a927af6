package models

import (
	"database/sql/driver"
	"time"
)

// DepositStatus tracks external identifier registration.
type DepositStatus string

const (
	DepositStatusNotAssigned DepositStatus = "not_assigned"
	DepositStatusPending     DepositStatus = "pending"
	DepositStatusProcessing  DepositStatus = "processing"
	DepositStatusSuccess     DepositStatus = "success"
	DepositStatusFailed      DepositStatus = "failed"
)

// DepositSource labels what triggered an attempt.
type DepositSource string

const (
	DepositSourceDeposit   DepositSource = "deposit"
	DepositSourceRetry     DepositSource = "retry"
	DepositSourceBulkRetry DepositSource = "bulk_retry"
	DepositSourceManual    DepositSource = "manual"
	DepositSourceIssue     DepositSource = "issue_publication"
)

// DepositAttempt is one entry of the deposit history.
type DepositAttempt struct {
	Attempt     int           `json:"attempt"`
	AttemptedAt time.Time     `json:"attemptedAt"`
	Status      DepositStatus `json:"status"`
	Source      DepositSource `json:"source"`
	Error       string        `json:"error,omitempty"`
	Response    string        `json:"response,omitempty"`
}

// DepositState is embedded in a manuscript. Attempts always equals len(History).
type DepositState struct {
	Status        DepositStatus    `json:"depositStatus"`
	Attempts      int              `json:"depositAttempts"`
	LastAttemptAt *time.Time       `json:"lastDepositAttempt,omitempty"`
	StartedAt     *time.Time       `json:"processingSince,omitempty"`
	History       []DepositAttempt `json:"depositHistory"`
}

// NewDepositState returns the initial state of a fresh manuscript.
func NewDepositState() DepositState {
	return DepositState{Status: DepositStatusNotAssigned, History: []DepositAttempt{}}
}

// CanAttempt reports whether a new automatic attempt may start.
func (d DepositState) CanAttempt() bool {
	switch d.Status {
	case DepositStatusNotAssigned, DepositStatusPending, DepositStatusFailed, "":
		return true
	}
	return false
}

// Begin marks an attempt as in flight.
func (d *DepositState) Begin(at time.Time) {
	d.Status = DepositStatusProcessing
	stamp := at
	d.StartedAt = &stamp
}

// Stalled reports an attempt left in processing for longer than after. Records written
// before StartedAt existed carry no stamp and count as stalled.
func (d DepositState) Stalled(now time.Time, after time.Duration) bool {
	if d.Status != DepositStatusProcessing {
		return false
	}
	return d.StartedAt == nil || now.Sub(*d.StartedAt) > after
}

// Retryable reports whether a retry may start: the last attempt failed or never finished.
func (d DepositState) Retryable(now time.Time, after time.Duration) bool {
	return d.Status == DepositStatusFailed || d.Stalled(now, after)
}

// Record closes an attempt. It is the only place the counter and history move, so both
// stay in lockstep.
func (d *DepositState) Record(at time.Time, source DepositSource, outcome error, response string) DepositAttempt {
	d.Attempts++
	d.StartedAt = nil
	stamp := at
	d.LastAttemptAt = &stamp
	entry := DepositAttempt{
		Attempt:     d.Attempts,
		AttemptedAt: at,
		Source:      source,
	}
	if outcome != nil {
		entry.Status = DepositStatusFailed
		entry.Error = outcome.Error()
	} else {
		entry.Status = DepositStatusSuccess
		entry.Response = response
	}
	d.Status = entry.Status
	d.History = append(d.History, entry)
	return entry
}

// Value implements driver.Valuer.
func (d DepositState) Value() (driver.Value, error) {
	if d.History == nil {
		d.History = []DepositAttempt{}
	}
	if d.Status == "" {
		d.Status = DepositStatusNotAssigned
	}
	return jsonValue("doi deposit", d)
}

// Scan implements sql.Scanner.
func (d *DepositState) Scan(value interface{}) error {
	*d = NewDepositState()
	return scanJSON("doi deposit", value, d)
}

// DepositResult reports one manuscript's outcome inside a batch.
type DepositResult struct {
	ManuscriptID string        `json:"manuscriptId"`
	Status       DepositStatus `json:"status"`
	DOI          string        `json:"doi,omitempty"`
	Error        string        `json:"error,omitempty"`
	Skipped      bool          `json:"skipped,omitempty"`
}

// BulkRetryResult tallies a bulk retry run.
type BulkRetryResult struct {
	Processed int             `json:"processed"`
	Success   int             `json:"success"`
	Failed    int             `json:"failed"`
	Results   []DepositResult `json:"results"`
}
