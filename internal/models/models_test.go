package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositStateRecordKeepsHistoryInLockstep(t *testing.T) {
	state := NewDepositState()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	state.Begin(at)
	require.Equal(t, DepositStatusProcessing, state.Status)
	failed := state.Record(at, DepositSourceDeposit, errors.New("registrar timeout"), "")
	require.Equal(t, 1, failed.Attempt)
	require.Equal(t, "registrar timeout", failed.Error)
	require.Equal(t, DepositStatusFailed, state.Status)
	require.True(t, state.CanAttempt())

	state.Begin(at)
	ok := state.Record(at.Add(time.Hour), DepositSourceRetry, nil, "10.5555/jnl-2026-00001")
	require.Equal(t, 2, ok.Attempt)
	require.Equal(t, DepositStatusSuccess, state.Status)
	require.False(t, state.CanAttempt())

	require.Equal(t, state.Attempts, len(state.History))
	require.Equal(t, at.Add(time.Hour), *state.LastAttemptAt)
}

func TestDepositStateScanNullKeepsInitialState(t *testing.T) {
	var state DepositState
	require.NoError(t, state.Scan(nil))
	assert.Equal(t, DepositStatusNotAssigned, state.Status)
	assert.Empty(t, state.History)

	require.NoError(t, state.Scan([]byte(`{"depositStatus":"failed","depositAttempts":1,"depositHistory":[{"attempt":1,"status":"failed","source":"deposit","error":"x"}]}`)))
	assert.Equal(t, DepositStatusFailed, state.Status)
	assert.Len(t, state.History, 1)
}

func TestAppendRevisionIncrementsVersion(t *testing.T) {
	m := &Manuscript{CurrentVersion: 1}
	at := time.Now().UTC()

	first := m.AppendRevision(ManuscriptFiles{{ID: "f2", OriginalName: "paper.pdf"}}, nil, "author-1", "fixed typos", at)
	second := m.AppendRevision(ManuscriptFiles{{ID: "f3", OriginalName: "paper.pdf"}}, nil, "author-1", "", at)

	assert.Equal(t, 2, first.Version)
	assert.Equal(t, 3, second.Version)
	assert.Equal(t, 3, m.CurrentVersion)
	assert.Equal(t, 1+len(m.Revisions), m.CurrentVersion)

	files, ok := m.FilesForVersion(3)
	require.True(t, ok)
	assert.Equal(t, "f3", files[0].ID)
	_, ok = m.FilesForVersion(4)
	assert.False(t, ok)
}

func TestCompareFileSets(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := ManuscriptFiles{
		{ID: "a", OriginalName: "main.pdf", SizeBytes: 100, UploadedAt: t0},
		{ID: "b", OriginalName: "figures.zip", SizeBytes: 500, UploadedAt: t0},
		{ID: "c", OriginalName: "cover.docx", SizeBytes: 10, UploadedAt: t0},
	}
	later := ManuscriptFiles{
		{ID: "d", OriginalName: "main.pdf", SizeBytes: 120, UploadedAt: t0.Add(time.Hour)},
		{ID: "c", OriginalName: "cover.docx", SizeBytes: 10, UploadedAt: t0},
		{ID: "e", OriginalName: "response.pdf", SizeBytes: 42, UploadedAt: t0.Add(time.Hour)},
	}

	added, removed, modified := CompareFileSets(earlier, later)
	require.Len(t, added, 1)
	assert.Equal(t, "response.pdf", added[0].OriginalName)
	require.Len(t, removed, 1)
	assert.Equal(t, "figures.zip", removed[0].OriginalName)
	require.Len(t, modified, 1)
	assert.Equal(t, "main.pdf", modified[0].Name)
	assert.Equal(t, "a", modified[0].Previous.ID)
	assert.Equal(t, "d", modified[0].Current.ID)
}

func TestCompareFileSetsRepeatedNames(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	small := ManuscriptFile{ID: "s", OriginalName: "figure.png", SizeBytes: 10, UploadedAt: t0}
	large := ManuscriptFile{ID: "l", OriginalName: "figure.png", SizeBytes: 20, UploadedAt: t0}

	added, removed, modified := CompareFileSets(ManuscriptFiles{small, large}, ManuscriptFiles{small})
	assert.Empty(t, added)
	assert.Empty(t, modified)
	require.Len(t, removed, 1)
	assert.Equal(t, "l", removed[0].ID)

	replaced := ManuscriptFile{ID: "r", OriginalName: "figure.png", SizeBytes: 30, UploadedAt: t0.Add(time.Hour)}
	extra := ManuscriptFile{ID: "x", OriginalName: "figure.png", SizeBytes: 40, UploadedAt: t0.Add(time.Hour)}
	added, removed, modified = CompareFileSets(ManuscriptFiles{small, large}, ManuscriptFiles{replaced, small, extra})
	assert.Empty(t, removed)
	require.Len(t, modified, 1)
	assert.Equal(t, "l", modified[0].Previous.ID)
	assert.Equal(t, "r", modified[0].Current.ID)
	require.Len(t, added, 1)
	assert.Equal(t, "x", added[0].ID)
}

func TestTimelineAppendPreservesOrder(t *testing.T) {
	var tl Timeline
	at := time.Now().UTC()
	tl.Append(EventSubmitted, "author-1", "", at)
	tl.Append(EventEditorAssigned, "admin-1", "editor-1", at)

	require.Len(t, tl, 2)
	last, ok := tl.Last()
	require.True(t, ok)
	assert.Equal(t, EventEditorAssigned, last.Event)
	assert.Equal(t, EventSubmitted, tl[0].Event)
}

func TestAuthorizationPredicates(t *testing.T) {
	editorID := "editor-1"
	m := &Manuscript{SubmittedBy: "author-1", EditorID: &editorID}

	editor := &JWTClaims{UserID: "editor-1", Roles: []UserRole{RoleEditor}}
	admin := &JWTClaims{UserID: "admin-1", Roles: []UserRole{RoleAdmin}}
	otherEditor := &JWTClaims{UserID: "editor-2", Roles: []UserRole{RoleEditor, RoleReviewer}}

	assert.True(t, HasAnyRole(otherEditor, RoleReviewer, RoleAdmin))
	assert.False(t, HasAnyRole(editor, RoleAdmin))
	assert.False(t, HasAnyRole(nil, RoleAdmin))
	assert.True(t, IsOwner(m, "author-1"))
	assert.False(t, IsOwner(m, "editor-1"))
	assert.True(t, CanDecide(m, editor))
	assert.True(t, CanDecide(m, admin))
	assert.False(t, CanDecide(m, otherEditor))
}

func TestDecisionResultingStatus(t *testing.T) {
	status, ok := DecisionRevisionsRequired.ResultingStatus()
	require.True(t, ok)
	assert.Equal(t, ManuscriptStatusRevisionsRequired, status)
	_, ok = DecisionKind("MAYBE").ResultingStatus()
	assert.False(t, ok)
	assert.Equal(t, "JNL-2026-00042", FormatManuscriptID("JNL", 2026, 42))
}

func TestDepositStateStalledProcessingIsRetryable(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	state := NewDepositState()
	state.Begin(at)

	assert.False(t, state.CanAttempt())
	assert.False(t, state.Retryable(at.Add(30*time.Second), time.Minute))
	assert.True(t, state.Retryable(at.Add(2*time.Minute), time.Minute))

	state.Record(at.Add(time.Second), DepositSourceDeposit, errors.New("boom"), "")
	assert.Nil(t, state.StartedAt)
	assert.False(t, state.Stalled(at.Add(time.Hour), time.Minute))
	assert.True(t, state.Retryable(at, time.Minute))

	legacy := DepositState{Status: DepositStatusProcessing}
	assert.True(t, legacy.Stalled(at, time.Hour))
}
