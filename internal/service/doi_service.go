package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/journal-editorial-api/internal/dto"
	"github.com/noah-isme/journal-editorial-api/internal/models"
	"github.com/noah-isme/journal-editorial-api/pkg/config"
	"github.com/noah-isme/journal-editorial-api/pkg/doi"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
)

const manualAssignmentResponse = "manual assignment"

// DOIServiceConfig tunes identifier deposit.
type DOIServiceConfig struct {
	PublicBaseURL  string
	BulkRetryLimit int
	// RegistrarTimeout bounds one registrar call.
	RegistrarTimeout time.Duration
	// StaleAfter is how long an attempt may sit in processing before it is retryable.
	StaleAfter time.Duration
}

// DOIService drives the deposit sub-state machine:
// not_assigned -> processing -> {success, failed}, failed -> processing.
// A processing state older than StaleAfter is treated like failed.
//
// Uniqueness is a read before the write with no lock, so two manuscripts saved at the
// same moment can still end up with the same identifier.
type DOIService struct {
	manuscripts manuscriptStore
	registrar   doi.Registrar
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         DOIServiceConfig
	now         func() time.Time
}

// NewDOIService wires the deposit workflow.
func NewDOIService(manuscripts manuscriptStore, registrar doi.Registrar, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg DOIServiceConfig) *DOIService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RegistrarTimeout <= 0 {
		cfg.RegistrarTimeout = 30 * time.Second
	}
	if cfg.StaleAfter <= cfg.RegistrarTimeout {
		cfg.StaleAfter = 2 * cfg.RegistrarTimeout
	}
	if cfg.BulkRetryLimit <= 0 || cfg.BulkRetryLimit > config.MaxBulkRetry {
		cfg.BulkRetryLimit = config.MaxBulkRetry
	}
	return &DOIService{
		manuscripts: manuscripts,
		registrar:   registrar,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         systemNow,
	}
}

// Deposit runs the first registrar attempt for an accepted or published manuscript.
// A registrar failure is committed to the history and returned as ExternalFailure.
func (s *DOIService) Deposit(ctx context.Context, id string, actor *models.JWTClaims) (*models.Manuscript, error) {
	m, err := s.loadForDeposit(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !m.Deposit.CanAttempt() && !m.Deposit.Stalled(s.now(), s.cfg.StaleAfter) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("deposit is %s", m.Deposit.Status))
	}
	return s.runSingle(ctx, m, models.DepositSourceDeposit, actor.UserID)
}

// Retry re-runs a failed deposit or one stuck in processing.
func (s *DOIService) Retry(ctx context.Context, id string, actor *models.JWTClaims) (*models.Manuscript, error) {
	m, err := s.loadForDeposit(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !m.Deposit.Retryable(s.now(), s.cfg.StaleAfter) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("only failed or stalled deposits can be retried (status %s)", m.Deposit.Status))
	}
	return s.runSingle(ctx, m, models.DepositSourceRetry, actor.UserID)
}

// BulkRetry retries a bounded batch of failed or stalled deposits one at a time. A failure
// on one manuscript never stops the rest, and the batch ignores caller cancellation once
// started.
func (s *DOIService) BulkRetry(ctx context.Context, actor *models.JWTClaims) (*models.BulkRetryResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !models.HasAnyRole(actor, models.RoleAdmin, models.RoleEditor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only editors can retry deposits")
	}
	batch, err := s.retryBatch(ctx)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	result := &models.BulkRetryResult{Results: make([]models.DepositResult, 0, len(batch))}
	for i := range batch {
		m := &batch[i]
		res, err := s.Attempt(ctx, m, models.DepositSourceBulkRetry, actor.UserID, "")
		if err != nil {
			s.logger.Error("bulk retry attempt not persisted", zap.String("manuscript_id", m.ID), zap.Error(err))
			res = models.DepositResult{ManuscriptID: m.ID, Status: models.DepositStatusFailed, Error: err.Error()}
		}
		result.Processed++
		if res.Status == models.DepositStatusSuccess {
			result.Success++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, res)
	}
	s.logger.Info("doi bulk retry finished",
		zap.String("actor", actor.UserID),
		zap.Int("processed", result.Processed),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed))
	return result, nil
}

// AssignManual binds an identifier supplied by an administrator. It counts as an attempt.
func (s *DOIService) AssignManual(ctx context.Context, id string, req dto.AssignDOIRequest, actor *models.JWTClaims) (*models.Manuscript, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !models.IsAdmin(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators assign identifiers manually")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid doi payload")
	}
	value := doi.Normalize(req.DOI)
	if !doi.Valid(value) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%q is not a valid doi", req.DOI))
	}
	m, err := loadManuscript(ctx, s.manuscripts, id)
	if err != nil {
		return nil, err
	}
	if !depositable(m.Status) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot assign a doi while %s", m.Status))
	}
	taken, err := s.manuscripts.ExistsDOI(ctx, value, m.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to check doi uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicateDOI, fmt.Sprintf("doi %s is already assigned to another manuscript", value))
	}

	now := s.now()
	m.Deposit.Record(now, models.DepositSourceManual, nil, manualAssignmentResponse)
	s.bind(m, value, actor.UserID, "manual: "+value, now)
	if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
		return nil, err
	}
	s.metrics.RecordDepositAttempt(models.DepositSourceManual, models.DepositStatusSuccess)
	return m, nil
}

// retryBatch fills the bulk limit with failed deposits first, then stalled ones.
func (s *DOIService) retryBatch(ctx context.Context) ([]models.Manuscript, error) {
	limit := s.cfg.BulkRetryLimit
	batch, err := s.manuscripts.ListByDepositStatus(ctx, models.DepositStatusFailed, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to list failed deposits")
	}
	if len(batch) >= limit {
		return batch, nil
	}
	processing, err := s.manuscripts.ListByDepositStatus(ctx, models.DepositStatusProcessing, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to list stalled deposits")
	}
	now := s.now()
	for _, m := range processing {
		if len(batch) >= limit {
			break
		}
		if m.Deposit.Stalled(now, s.cfg.StaleAfter) {
			batch = append(batch, m)
		}
	}
	return batch, nil
}

// Attempt runs one registrar call against m and persists both the in-flight marker and
// the outcome. The returned error only reports store failures; registrar failures are
// carried in the result. Once started, an attempt ignores caller cancellation so the
// outcome always lands in the history.
func (s *DOIService) Attempt(ctx context.Context, m *models.Manuscript, source models.DepositSource, actorID, issueLabel string) (models.DepositResult, error) {
	ctx = context.WithoutCancel(ctx)
	m.Deposit.Begin(s.now())
	if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
		return models.DepositResult{}, err
	}

	meta := doi.Metadata{
		ManuscriptID: m.ID,
		Title:        m.Title,
		Authors:      m.Authors.Names(),
		Abstract:     m.Abstract,
		URL:          publicURL(s.cfg.PublicBaseURL, m),
		IssueLabel:   issueLabel,
		Year:         s.now().Year(),
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.RegistrarTimeout)
	value, err := s.assign(callCtx, m.ID, meta)
	cancel()

	now := s.now()
	entry := m.Deposit.Record(now, source, err, value)
	detail := fmt.Sprintf("attempt %d (%s): %s", entry.Attempt, source, entry.Status)
	if err != nil {
		detail += ": " + entry.Error
	}
	m.Timeline.Append(models.EventDOIDepositAttempt, actorID, detail, now)
	if err == nil {
		s.bind(m, value, actorID, value, now)
	}
	if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
		return models.DepositResult{}, err
	}
	s.metrics.RecordDepositAttempt(source, entry.Status)

	result := models.DepositResult{ManuscriptID: m.ID, Status: entry.Status, Error: entry.Error}
	if entry.Status == models.DepositStatusSuccess {
		result.DOI = value
	} else {
		s.logger.Warn("doi deposit failed",
			zap.String("manuscript_id", m.ID),
			zap.String("source", string(source)),
			zap.Int("attempt", entry.Attempt),
			zap.String("error", entry.Error))
	}
	return result, nil
}

func (s *DOIService) assign(ctx context.Context, manuscriptID string, meta doi.Metadata) (string, error) {
	if s.registrar == nil {
		return "", fmt.Errorf("no identifier registrar configured")
	}
	raw, err := s.registrar.Assign(ctx, meta)
	if err != nil {
		return "", err
	}
	value := doi.Normalize(raw)
	if !doi.Valid(value) {
		return "", fmt.Errorf("registrar returned invalid doi %q", raw)
	}
	taken, err := s.manuscripts.ExistsDOI(ctx, value, manuscriptID)
	if err != nil {
		return "", fmt.Errorf("check doi uniqueness: %w", err)
	}
	if taken {
		return "", fmt.Errorf("doi %s is already assigned to another manuscript", value)
	}
	return value, nil
}

func (s *DOIService) bind(m *models.Manuscript, value, actorID, detail string, at time.Time) {
	m.DOI = strPtr(value)
	m.PublicURL = strPtr(publicURL(s.cfg.PublicBaseURL, m))
	m.Timeline.Append(models.EventDOIAssigned, actorID, detail, at)
}

func (s *DOIService) loadForDeposit(ctx context.Context, id string, actor *models.JWTClaims) (*models.Manuscript, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !models.HasAnyRole(actor, models.RoleAdmin, models.RoleEditor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only editors can deposit identifiers")
	}
	m, err := loadManuscript(ctx, s.manuscripts, id)
	if err != nil {
		return nil, err
	}
	if !depositable(m.Status) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot deposit a doi while %s", m.Status))
	}
	return m, nil
}

func (s *DOIService) runSingle(ctx context.Context, m *models.Manuscript, source models.DepositSource, actorID string) (*models.Manuscript, error) {
	res, err := s.Attempt(ctx, m, source, actorID, "")
	if err != nil {
		return nil, err
	}
	if res.Status == models.DepositStatusFailed {
		return m, appErrors.Wrap(errors.New(res.Error), appErrors.ErrExternalFailure, "doi deposit failed: "+res.Error)
	}
	return m, nil
}

func depositable(status models.ManuscriptStatus) bool {
	return status == models.ManuscriptStatusAccepted || status == models.ManuscriptStatusPublished
}
