package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/journal-editorial-api/internal/dto"
	"github.com/noah-isme/journal-editorial-api/internal/models"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
	"github.com/noah-isme/journal-editorial-api/pkg/export"
)

type issueStore interface {
	Create(ctx context.Context, issue *models.Issue) error
	GetByID(ctx context.Context, id string) (*models.Issue, error)
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error)
	ExistsVolumeNumber(ctx context.Context, volume, number int) (bool, error)
	Save(ctx context.Context, issue *models.Issue) error
}

type depositAttempter interface {
	Attempt(ctx context.Context, m *models.Manuscript, source models.DepositSource, actorID, issueLabel string) (models.DepositResult, error)
}

type issueCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Invalidate(ctx context.Context, keys ...string)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, doc export.Document) ([]byte, error)
}

// IssueServiceConfig carries publication settings.
type IssueServiceConfig struct {
	PublicBaseURL string
	CacheTTL      time.Duration
}

// IssueService groups accepted manuscripts and publishes them together.
//
// Membership changes and publication write the issue and each manuscript separately.
// A crash between those writes leaves the two sides disagreeing; nothing repairs it.
type IssueService struct {
	issues      issueStore
	manuscripts manuscriptStore
	deposits    depositAttempter
	cache       issueCache
	notifier    Notifier
	metrics     *MetricsService
	csv         csvRenderer
	pdf         pdfRenderer
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         IssueServiceConfig
	now         func() time.Time
}

// NewIssueService wires the issue workflow. cache may be nil.
func NewIssueService(
	issues issueStore,
	manuscripts manuscriptStore,
	deposits depositAttempter,
	cache issueCache,
	notifier Notifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg IssueServiceConfig,
) *IssueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		issues:      issues,
		manuscripts: manuscripts,
		deposits:    deposits,
		cache:       cache,
		notifier:    notifier,
		metrics:     metrics,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         systemNow,
	}
}

func tocCacheKey(issueID string) string {
	return "issue:toc:" + issueID
}

// Create opens an empty issue. Volume and number are unique together.
func (s *IssueService) Create(ctx context.Context, req dto.CreateIssueRequest, actor *models.JWTClaims) (*models.Issue, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid issue payload")
	}
	exists, err := s.issues.ExistsVolumeNumber(ctx, req.Volume, req.Number)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to check issue numbering")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("volume %d number %d already exists", req.Volume, req.Number))
	}
	issue := &models.Issue{
		Volume:      req.Volume,
		Number:      req.Number,
		Year:        req.Year,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Manuscripts: models.IssueEntries{},
		CreatedBy:   actor.UserID,
		CreatedAt:   s.now(),
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to create issue")
	}
	return issue, nil
}

// Get returns an issue. Unpublished issues are visible to staff only.
func (s *IssueService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Issue, error) {
	issue, err := s.loadIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if !issue.IsPublished && !isStaff(actor) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
	}
	return issue, nil
}

// List pages issues; readers only see published ones.
func (s *IssueService) List(ctx context.Context, query dto.IssueQuery, actor *models.JWTClaims) ([]models.Issue, *models.Pagination, error) {
	filter := models.IssueFilter{
		Year:      query.Year,
		Published: query.Published,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if !isStaff(actor) {
		published := true
		filter.Published = &published
	}
	items, total, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to list issues")
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

// AddManuscript places an accepted manuscript in an unpublished issue.
func (s *IssueService) AddManuscript(ctx context.Context, issueID string, req dto.AddIssueManuscriptRequest, actor *models.JWTClaims) (*models.Issue, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid issue entry")
	}
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.IsPublished {
		return nil, appErrors.ErrIssueLocked
	}
	m, err := loadManuscript(ctx, s.manuscripts, req.ManuscriptID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.ManuscriptStatusAccepted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("only accepted manuscripts can join an issue (status %s)", m.Status))
	}
	if issue.Manuscripts.Contains(m.ID) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "manuscript is already in this issue")
	}
	if m.IssueID != nil && *m.IssueID != "" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "manuscript already belongs to another issue")
	}
	for _, entry := range issue.Manuscripts {
		if req.PageStart <= entry.PageEnd && entry.PageStart <= req.PageEnd {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("pages %d-%d overlap %s", req.PageStart, req.PageEnd, entry.ManuscriptID))
		}
	}

	now := s.now()
	issue.Manuscripts = append(issue.Manuscripts, models.IssueEntry{
		ManuscriptID: m.ID,
		PageStart:    req.PageStart,
		PageEnd:      req.PageEnd,
	})
	if err := s.saveIssue(ctx, issue); err != nil {
		return nil, err
	}
	m.IssueID = strPtr(issue.ID)
	m.Timeline.Append(models.EventAddedToIssue, actor.UserID, issue.Label(), now)
	if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
		return nil, err
	}
	s.invalidate(ctx, issue.ID)
	return issue, nil
}

// RemoveManuscript takes a manuscript out of an unpublished issue.
func (s *IssueService) RemoveManuscript(ctx context.Context, issueID, manuscriptID string, actor *models.JWTClaims) (*models.Issue, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.IsPublished {
		return nil, appErrors.ErrIssueLocked
	}
	if !issue.Manuscripts.Contains(manuscriptID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "manuscript is not part of this issue")
	}

	kept := make(models.IssueEntries, 0, len(issue.Manuscripts)-1)
	for _, entry := range issue.Manuscripts {
		if entry.ManuscriptID != manuscriptID {
			kept = append(kept, entry)
		}
	}
	issue.Manuscripts = kept
	if err := s.saveIssue(ctx, issue); err != nil {
		return nil, err
	}
	s.invalidate(ctx, issue.ID)

	m, err := loadManuscript(ctx, s.manuscripts, manuscriptID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			s.logger.Warn("issue referenced a missing manuscript", zap.String("issue_id", issue.ID), zap.String("manuscript_id", manuscriptID))
			return issue, nil
		}
		return nil, err
	}
	if m.IssueID != nil && *m.IssueID == issue.ID {
		m.IssueID = nil
	}
	m.Timeline.Append(models.EventRemovedFromIssue, actor.UserID, issue.Label(), s.now())
	if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
		return nil, err
	}
	return issue, nil
}

// Publish publishes every accepted member, attempting a deposit for members without a
// DOI, and only then marks the issue published. Deposit failures are reported per
// manuscript and do not stop publication. Caller cancellation is ignored once the
// members are loaded.
func (s *IssueService) Publish(ctx context.Context, issueID string, actor *models.JWTClaims) (*models.IssuePublication, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.IsPublished {
		return nil, appErrors.ErrAlreadyPublished
	}
	if len(issue.Manuscripts) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "issue has no manuscripts")
	}
	members, err := s.manuscripts.ListByIDs(ctx, issue.Manuscripts.ManuscriptIDs())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to load issue manuscripts")
	}
	byID := make(map[string]*models.Manuscript, len(members))
	for i := range members {
		byID[members[i].ID] = &members[i]
	}

	// Members are written one at a time from here on, so caller cancellation is ignored.
	ctx = context.WithoutCancel(ctx)
	label := issue.Label()
	results := make([]models.DepositResult, 0, len(issue.Manuscripts))
	var notices []Notice
	for _, entry := range issue.Manuscripts {
		m, ok := byID[entry.ManuscriptID]
		if !ok {
			results = append(results, models.DepositResult{ManuscriptID: entry.ManuscriptID, Skipped: true, Error: "manuscript not found"})
			continue
		}
		if m.Status != models.ManuscriptStatusAccepted {
			results = append(results, models.DepositResult{ManuscriptID: m.ID, Status: m.Deposit.Status, Skipped: true, Error: fmt.Sprintf("manuscript is %s", m.Status)})
			continue
		}

		var res models.DepositResult
		if m.HasDOI() {
			res = models.DepositResult{ManuscriptID: m.ID, Status: m.Deposit.Status, DOI: *m.DOI}
		} else {
			res, err = s.deposits.Attempt(ctx, m, models.DepositSourceIssue, actor.UserID, label)
			if err != nil {
				return nil, err
			}
		}
		results = append(results, res)

		now := s.now()
		published := now
		m.PublicURL = strPtr(publicURL(s.cfg.PublicBaseURL, m))
		m.Status = models.ManuscriptStatusPublished
		m.PublishedAt = &published
		detail := "published in " + label
		if m.HasDOI() {
			detail += " with doi " + *m.DOI
		}
		m.Timeline.Append(models.EventPublished, actor.UserID, detail, now)
		if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
			return nil, err
		}
		s.metrics.RecordTransition(models.ManuscriptStatusAccepted, models.ManuscriptStatusPublished)
		notices = append(notices, Notice{
			RecipientID:  m.SubmittedBy,
			Type:         models.NotificationPublished,
			Subject:      fmt.Sprintf("%s has been published", m.ID),
			Message:      fmt.Sprintf("%q is published in %s: %s", m.Title, label, *m.PublicURL),
			ManuscriptID: m.ID,
		})
	}

	now := s.now()
	issue.IsPublished = true
	issue.PublishedAt = &now
	if err := s.saveIssue(ctx, issue); err != nil {
		return nil, err
	}
	s.invalidate(ctx, issue.ID)
	notifyAll(ctx, s.notifier, s.logger, notices...)

	s.logger.Info("issue published",
		zap.String("issue_id", issue.ID),
		zap.String("label", label),
		zap.Int("manuscripts", len(results)))
	return &models.IssuePublication{Issue: issue, DOIResults: results}, nil
}

// TableOfContents lists an issue's articles in entry order with their stored page ranges.
// Published tables are cached.
func (s *IssueService) TableOfContents(ctx context.Context, issueID string, actor *models.JWTClaims) (*models.TableOfContents, error) {
	var cached models.TableOfContents
	if s.cache != nil && s.cache.Get(ctx, tocCacheKey(issueID), &cached) {
		return &cached, nil
	}

	issue, err := s.Get(ctx, issueID, actor)
	if err != nil {
		return nil, err
	}
	members, err := s.manuscripts.ListByIDs(ctx, issue.Manuscripts.ManuscriptIDs())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to load issue manuscripts")
	}
	byID := make(map[string]models.Manuscript, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	toc := &models.TableOfContents{
		IssueID:     issue.ID,
		Label:       issue.Label(),
		Title:       issue.Title,
		IsPublished: issue.IsPublished,
		PublishedAt: issue.PublishedAt,
		Entries:     make([]models.TableOfContentsEntry, 0, len(issue.Manuscripts)),
	}
	for _, entry := range issue.Manuscripts {
		m, ok := byID[entry.ManuscriptID]
		if !ok {
			continue
		}
		line := models.TableOfContentsEntry{
			ManuscriptID: m.ID,
			Title:        m.Title,
			Authors:      m.Authors.Names(),
			PageStart:    entry.PageStart,
			PageEnd:      entry.PageEnd,
		}
		if m.HasDOI() {
			line.DOI = *m.DOI
		}
		if issue.IsPublished {
			line.PublicURL = publicURL(s.cfg.PublicBaseURL, &m)
		}
		toc.Entries = append(toc.Entries, line)
	}

	if issue.IsPublished && s.cache != nil {
		s.cache.Set(ctx, tocCacheKey(issue.ID), toc, s.cfg.CacheTTL)
	}
	return toc, nil
}

// ExportTableOfContents renders the table of contents as CSV or PDF.
func (s *IssueService) ExportTableOfContents(ctx context.Context, issueID string, format models.ExportFormat, actor *models.JWTClaims) ([]byte, string, string, error) {
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	toc, err := s.TableOfContents(ctx, issueID, actor)
	if err != nil {
		return nil, "", "", err
	}

	data := export.Dataset{Headers: []string{"Pages", "Title", "Authors", "DOI"}}
	for _, e := range toc.Entries {
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(e.PageStart) + "-" + strconv.Itoa(e.PageEnd),
			e.Title,
			strings.Join(e.Authors, "; "),
			e.DOI,
		})
	}

	base := fmt.Sprintf("toc-%s", strings.NewReplacer(" ", "-", ",", "", ".", "", "(", "", ")", "").Replace(strings.ToLower(toc.Label)))
	switch format {
	case models.ExportFormatPDF:
		out, err := s.pdf.Render(data, export.Document{
			Title:    toc.Title,
			Subtitle: toc.Label,
			Weights:  []float64{1, 5, 4, 3},
		})
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal, "failed to render pdf")
		}
		return out, "application/pdf", base + ".pdf", nil
	default:
		out, err := s.csv.Render(data)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal, "failed to render csv")
		}
		return out, "text/csv", base + ".csv", nil
	}
}

func (s *IssueService) requireStaff(actor *models.JWTClaims) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !isStaff(actor) {
		return appErrors.Clone(appErrors.ErrForbidden, "only editors manage issues")
	}
	return nil
}

func (s *IssueService) loadIssue(ctx context.Context, id string) (*models.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to load issue")
	}
	return issue, nil
}

func (s *IssueService) saveIssue(ctx context.Context, issue *models.Issue) error {
	if err := s.issues.Save(ctx, issue); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal, "failed to save issue")
	}
	return nil
}

func (s *IssueService) invalidate(ctx context.Context, issueID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, tocCacheKey(issueID))
	}
}

func isStaff(actor *models.JWTClaims) bool {
	return models.HasAnyRole(actor, models.RoleAdmin, models.RoleEditor)
}
