package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/journal-editorial-api/internal/dto"
	"github.com/noah-isme/journal-editorial-api/internal/models"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
)

type fileStore interface {
	Store(ctx context.Context, manuscriptID string, version int, uploads []FileUpload) (models.ManuscriptFiles, error)
	Open(file models.ManuscriptFile) (io.ReadCloser, error)
	Delete(file models.ManuscriptFile) error
	Discard(files ...models.ManuscriptFile)
	SignedURL(file models.ManuscriptFile) (string, time.Time, error)
}

// ManuscriptServiceConfig carries journal level settings.
type ManuscriptServiceConfig struct {
	IDPrefix      string
	PublicBaseURL string
}

// ManuscriptServiceOption customises a ManuscriptService.
type ManuscriptServiceOption func(*ManuscriptService)

// WithManuscriptClock overrides the time source.
func WithManuscriptClock(now func() time.Time) ManuscriptServiceOption {
	return func(s *ManuscriptService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithManuscriptMetrics records status transitions.
func WithManuscriptMetrics(metrics *MetricsService) ManuscriptServiceOption {
	return func(s *ManuscriptService) {
		s.metrics = metrics
	}
}

// ManuscriptService drives the top level editorial state machine:
// SUBMITTED -> UNDER_REVIEW -> {REVISIONS_REQUIRED <-> REVISED_SUBMITTED} -> {ACCEPTED, REJECTED}.
// Publication is handled by IssueService.
type ManuscriptService struct {
	manuscripts manuscriptStore
	reviews     reviewStore
	users       userDirectory
	files       fileStore
	notifier    Notifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ManuscriptServiceConfig
	now         func() time.Time
}

// NewManuscriptService wires the lifecycle service.
func NewManuscriptService(
	manuscripts manuscriptStore,
	reviews reviewStore,
	users userDirectory,
	files fileStore,
	notifier Notifier,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ManuscriptServiceConfig,
	opts ...ManuscriptServiceOption,
) *ManuscriptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "JNL"
	}
	svc := &ManuscriptService{
		manuscripts: manuscripts,
		reviews:     reviews,
		users:       users,
		files:       files,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         systemNow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create registers a new submission with its original file set as version 1.
func (s *ManuscriptService) Create(ctx context.Context, req dto.CreateManuscriptRequest, uploads []FileUpload, actor *models.JWTClaims) (*models.Manuscript, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !models.HasAnyRole(actor, models.RoleAuthor, models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only authors can submit manuscripts")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid manuscript payload")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Abstract) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title and abstract are required")
	}
	corresponding := 0
	for _, a := range req.Authors {
		if a.Corresponding {
			corresponding++
		}
	}
	if corresponding > 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at most one author may be marked corresponding")
	}
	if len(uploads) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one manuscript file is required")
	}

	now := s.now()
	seq, err := s.manuscripts.NextSequence(ctx, s.cfg.IDPrefix)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to allocate manuscript identifier")
	}
	id := models.FormatManuscriptID(s.cfg.IDPrefix, now.Year(), seq)

	files, err := s.files.Store(ctx, id, 1, uploads)
	if err != nil {
		return nil, err
	}

	m := &models.Manuscript{
		ID:             id,
		Title:          strings.TrimSpace(req.Title),
		Abstract:       strings.TrimSpace(req.Abstract),
		Keywords:       models.StringList(req.Keywords),
		Authors:        models.Authors(req.Authors),
		Status:         models.ManuscriptStatusSubmitted,
		CurrentVersion: 1,
		SubmittedBy:    actor.UserID,
		Files:          files,
		Revisions:      models.Revisions{},
		Timeline:       models.Timeline{},
		Deposit:        models.NewDepositState(),
		CreatedAt:      now,
	}
	m.Timeline.Append(models.EventSubmitted, actor.UserID, "", now)

	if err := s.manuscripts.Create(ctx, m); err != nil {
		s.files.Discard(files...)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to create manuscript")
	}
	s.metrics.RecordTransition("", m.Status)

	notifyAll(ctx, s.notifier, s.logger, Notice{
		RecipientID:  actor.UserID,
		Type:         models.NotificationSubmissionReceived,
		Subject:      fmt.Sprintf("Submission %s received", m.ID),
		Message:      fmt.Sprintf("Your manuscript %q was received and is awaiting editor assignment.", m.Title),
		ManuscriptID: m.ID,
	})
	return m, nil
}

// Get returns a manuscript the actor may see.
func (s *ManuscriptService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Manuscript, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	m, err := loadManuscript(ctx, s.manuscripts, id)
	if err != nil {
		return nil, err
	}
	ok, err := canReadManuscript(ctx, s.reviews, m, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "manuscript is not visible to this user")
	}
	return m, nil
}

// List pages manuscripts. Staff see everything, others only what they submitted or review.
func (s *ManuscriptService) List(ctx context.Context, query dto.ManuscriptQuery, actor *models.JWTClaims) ([]models.Manuscript, *models.Pagination, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	for _, st := range query.Status {
		if !st.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", st))
		}
	}
	filter := models.ManuscriptFilter{
		Status:        query.Status,
		DepositStatus: query.DepositStatus,
		Page:          query.Page,
		PageSize:      query.PageSize,
	}
	if !models.HasAnyRole(actor, models.RoleAdmin, models.RoleEditor) {
		filter.VisibleTo = actor.UserID
	}
	items, total, err := s.manuscripts.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to list manuscripts")
	}
	page, size := query.Page, query.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// AssignEditor hands a fresh submission to an editor and opens review.
func (s *ManuscriptService) AssignEditor(ctx context.Context, id string, req dto.AssignEditorRequest, actor *models.JWTClaims) (*models.Manuscript, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !models.IsAdmin(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators assign editors")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid editor assignment")
	}
	m, err := loadManuscript(ctx, s.manuscripts, id)
	if err != nil {
		return nil, err
	}
	if m.EditorID != nil && *m.EditorID != "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "manuscript already has an editor")
	}
	if m.Status != models.ManuscriptStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot assign an editor while %s", m.Status))
	}
	editor, err := s.users.FindByID(ctx, req.EditorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "editor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to load editor")
	}
	if !editor.Active || !editor.HasRole(models.RoleEditor) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not an active editor")
	}

	now := s.now()
	prev := m.Status
	m.EditorID = strPtr(editor.ID)
	m.Status = models.ManuscriptStatusUnderReview
	m.Timeline.Append(models.EventEditorAssigned, actor.UserID, editor.FullName, now)
	if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(prev, m.Status)

	notifyAll(ctx, s.notifier, s.logger, Notice{
		RecipientID:  editor.ID,
		Type:         models.NotificationEditorAssigned,
		Subject:      fmt.Sprintf("You are handling %s", m.ID),
		Message:      fmt.Sprintf("You have been assigned as editor of %q.", m.Title),
		ManuscriptID: m.ID,
	})
	return m, nil
}

// RecordDecision applies an editorial decision. A resubmission re-enters decision the
// same way a first-round review does.
func (s *ManuscriptService) RecordDecision(ctx context.Context, id string, req dto.DecisionRequest, actor *models.JWTClaims) (*models.Manuscript, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid decision payload")
	}
	next, ok := req.Decision.ResultingStatus()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown decision")
	}
	m, err := loadManuscript(ctx, s.manuscripts, id)
	if err != nil {
		return nil, err
	}
	if !models.CanDecide(m, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned editor can decide")
	}
	if m.Status != models.ManuscriptStatusUnderReview && m.Status != models.ManuscriptStatusRevisedSubmitted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot record a decision while %s", m.Status))
	}

	now := s.now()
	prev := m.Status
	m.Decision = &models.EditorDecision{
		Decision:  req.Decision,
		Comment:   req.Comment,
		DecidedAt: now,
		DecidedBy: actor.UserID,
	}
	m.Status = next
	m.Timeline.Append(models.EventDecisionRecorded, actor.UserID, string(req.Decision), now)
	if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(prev, m.Status)

	notifyAll(ctx, s.notifier, s.logger, Notice{
		RecipientID:  m.SubmittedBy,
		Type:         models.NotificationDecision,
		Subject:      fmt.Sprintf("Decision on %s", m.ID),
		Message:      fmt.Sprintf("Decision: %s\n\n%s", req.Decision, req.Comment),
		ManuscriptID: m.ID,
	})
	return m, nil
}

// SubmitRevision appends version currentVersion+1 to the ledger.
func (s *ManuscriptService) SubmitRevision(ctx context.Context, id string, req dto.SubmitRevisionRequest, uploads []FileUpload, response *FileUpload, actor *models.JWTClaims) (*models.Manuscript, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	m, err := loadManuscript(ctx, s.manuscripts, id)
	if err != nil {
		return nil, err
	}
	if !models.IsOwner(m, actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the submitting author can revise")
	}
	if m.Status != models.ManuscriptStatusRevisionsRequired {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("revisions are not requested (status %s)", m.Status))
	}
	if len(uploads) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one revised file is required")
	}

	version := m.CurrentVersion + 1
	files, err := s.files.Store(ctx, m.ID, version, uploads)
	if err != nil {
		return nil, err
	}
	stored := append(models.ManuscriptFiles(nil), files...)
	var responseDoc *models.ManuscriptFile
	if response != nil {
		doc, err := s.files.Store(ctx, m.ID, version, []FileUpload{*response})
		if err != nil {
			s.files.Discard(stored...)
			return nil, err
		}
		responseDoc = &doc[0]
		stored = append(stored, doc[0])
	}

	now := s.now()
	prev := m.Status
	rev := m.AppendRevision(files, responseDoc, actor.UserID, req.Notes, now)
	m.Status = models.ManuscriptStatusRevisedSubmitted
	m.Timeline.Append(models.EventRevisionSubmitted, actor.UserID, fmt.Sprintf("version %d", rev.Version), now)
	if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
		s.files.Discard(stored...)
		return nil, err
	}
	s.metrics.RecordTransition(prev, m.Status)

	if m.EditorID != nil {
		notifyAll(ctx, s.notifier, s.logger, Notice{
			RecipientID:  *m.EditorID,
			Type:         models.NotificationRevisionSubmitted,
			Subject:      fmt.Sprintf("Revision %d of %s", rev.Version, m.ID),
			Message:      fmt.Sprintf("The authors of %q submitted version %d.", m.Title, rev.Version),
			ManuscriptID: m.ID,
		})
	}
	return m, nil
}

// CompareRevisions diffs the file sets of two versions. Version 1 is the original submission.
func (s *ManuscriptService) CompareRevisions(ctx context.Context, id string, from, to int, actor *models.JWTClaims) (*models.RevisionComparison, error) {
	if from >= to {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from version must be lower than to version")
	}
	m, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	earlier, ok := m.FilesForVersion(from)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("version %d not found", from))
	}
	later, ok := m.FilesForVersion(to)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("version %d not found", to))
	}
	added, removed, modified := models.CompareFileSets(earlier, later)
	return &models.RevisionComparison{
		ManuscriptID: m.ID,
		FromVersion:  from,
		ToVersion:    to,
		Added:        added,
		Removed:      removed,
		Modified:     modified,
	}, nil
}

// Delete removes an unpublished manuscript with its reviews and stored files. Blob delete
// failures are logged and do not stop the deletion.
func (s *ManuscriptService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	m, err := loadManuscript(ctx, s.manuscripts, id)
	if err != nil {
		return err
	}
	if !models.IsOwner(m, actor.UserID) && !models.IsAdmin(actor) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the submitter or an administrator can delete")
	}
	if m.Status == models.ManuscriptStatusPublished {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "published manuscripts cannot be deleted")
	}

	removed, err := s.reviews.DeleteByManuscript(ctx, m.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal, "failed to delete reviews")
	}
	if err := s.manuscripts.Delete(ctx, m.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "manuscript not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal, "failed to delete manuscript")
	}
	failed := 0
	for _, f := range m.AllFiles() {
		if err := s.files.Delete(f); err != nil {
			failed++
			s.logger.Warn("failed to delete manuscript file", zap.String("manuscript_id", m.ID), zap.String("file_id", f.ID), zap.Error(err))
		}
	}
	s.logger.Info("manuscript deleted",
		zap.String("manuscript_id", m.ID),
		zap.String("actor", actor.UserID),
		zap.Int64("reviews_removed", removed),
		zap.Int("file_delete_failures", failed))
	return nil
}

// PublicURL derives the reader-facing link without touching the manuscript.
func (s *ManuscriptService) PublicURL(m *models.Manuscript) string {
	return publicURL(s.cfg.PublicBaseURL, m)
}

// DownloadFile opens a stored file of any version for streaming.
func (s *ManuscriptService) DownloadFile(ctx context.Context, id, fileID string, actor *models.JWTClaims) (io.ReadCloser, *models.ManuscriptFile, error) {
	m, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, nil, err
	}
	file, ok := m.FindFile(fileID)
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	rc, err := s.files.Open(file)
	if err != nil {
		return nil, nil, err
	}
	return rc, &file, nil
}

// FileDownloadURL issues a signed link for a stored file.
func (s *ManuscriptService) FileDownloadURL(ctx context.Context, id, fileID string, actor *models.JWTClaims) (*dto.FileDownloadURL, error) {
	m, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	file, ok := m.FindFile(fileID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	url, expiresAt, err := s.files.SignedURL(file)
	if err != nil {
		return nil, err
	}
	return &dto.FileDownloadURL{URL: url, ExpiresAt: expiresAt}, nil
}

// Timeline returns the audit log of a manuscript.
func (s *ManuscriptService) Timeline(ctx context.Context, id string, actor *models.JWTClaims) (models.Timeline, error) {
	m, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return m.Timeline, nil
}

// Stats counts manuscripts per status for staff dashboards.
func (s *ManuscriptService) Stats(ctx context.Context, actor *models.JWTClaims) ([]models.ManuscriptStatusCount, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !models.HasAnyRole(actor, models.RoleAdmin, models.RoleEditor) {
		return nil, appErrors.ErrForbidden
	}
	counts, err := s.manuscripts.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to count manuscripts")
	}
	return counts, nil
}
