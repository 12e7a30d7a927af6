package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/journal-editorial-api/internal/dto"
	"github.com/noah-isme/journal-editorial-api/internal/models"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
)

// ReviewServiceConfig controls invitation defaults.
type ReviewServiceConfig struct {
	DueDays      int
	MinReviewers int
}

// ReviewService runs the per reviewer invitation lifecycle:
// INVITATION_SENT -> {ACCEPTED -> IN_PROGRESS -> COMPLETED, DECLINED}.
type ReviewService struct {
	reviews     reviewStore
	manuscripts manuscriptStore
	users       userDirectory
	notifier    Notifier
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ReviewServiceConfig
	now         func() time.Time
}

// NewReviewService wires the review workflow.
func NewReviewService(
	reviews reviewStore,
	manuscripts manuscriptStore,
	users userDirectory,
	notifier Notifier,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ReviewServiceConfig,
) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DueDays <= 0 {
		cfg.DueDays = 14
	}
	if cfg.MinReviewers <= 0 {
		cfg.MinReviewers = 2
	}
	return &ReviewService{
		reviews:     reviews,
		manuscripts: manuscripts,
		users:       users,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         systemNow,
	}
}

// AssignReviewers invites a batch of reviewers. Pairs that already exist, including ones
// created concurrently, are skipped. When a create fails mid batch the reviews already
// created are still recorded and notified, and the partial result is returned with the error.
func (s *ReviewService) AssignReviewers(ctx context.Context, manuscriptID string, req dto.AssignReviewersRequest, actor *models.JWTClaims) (*dto.AssignReviewersResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid reviewer assignment")
	}
	m, err := loadManuscript(ctx, s.manuscripts, manuscriptID)
	if err != nil {
		return nil, err
	}
	if !models.CanDecide(m, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned editor can invite reviewers")
	}
	if m.Status != models.ManuscriptStatusUnderReview && m.Status != models.ManuscriptStatusRevisedSubmitted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot assign reviewers while %s", m.Status))
	}

	ids := distinct(req.ReviewerIDs)
	if len(ids) < s.cfg.MinReviewers {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at least %d distinct reviewers are required", s.cfg.MinReviewers))
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to load reviewers")
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("reviewer %s not found", id))
		}
		if !u.Active || !u.HasRole(models.RoleReviewer) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("user %s is not an active reviewer", id))
		}
		if id == m.SubmittedBy {
			return nil, appErrors.Clone(appErrors.ErrValidation, "the submitting author cannot review their own manuscript")
		}
	}

	now := s.now()
	due := now.AddDate(0, 0, s.cfg.DueDays)
	if req.DueDate != nil {
		if !req.DueDate.After(now) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "due date must be in the future")
		}
		due = req.DueDate.UTC()
	}

	result := &dto.AssignReviewersResult{Created: []models.Review{}, Skipped: []string{}}
	var createErr error
	for _, id := range ids {
		exists, err := s.reviews.Exists(ctx, m.ID, id)
		if err != nil {
			createErr = appErrors.Wrap(err, appErrors.ErrInternal, "failed to check existing reviews")
			break
		}
		if exists {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		review := &models.Review{
			ManuscriptID: m.ID,
			ReviewerID:   id,
			AssignedBy:   actor.UserID,
			Status:       models.ReviewStatusInvitationSent,
			InvitedAt:    now,
			DueDate:      due,
			Round:        m.CurrentVersion,
			Reminders:    models.TimeList{},
		}
		if err := s.reviews.Create(ctx, review); err != nil {
			if errors.Is(err, appErrors.ErrConflict) {
				// Lost a race with a concurrent assignment of the same reviewer.
				result.Skipped = append(result.Skipped, id)
				continue
			}
			createErr = appErrors.Wrap(err, appErrors.ErrInternal, "failed to create review")
			break
		}
		result.Created = append(result.Created, *review)
	}

	if len(result.Created) == 0 {
		if createErr != nil {
			return nil, createErr
		}
		return result, nil
	}

	names := make([]string, 0, len(result.Created))
	notices := make([]Notice, 0, len(result.Created))
	for _, r := range result.Created {
		names = append(names, byID[r.ReviewerID].FullName)
		notices = append(notices, Notice{
			RecipientID:  r.ReviewerID,
			Type:         models.NotificationReviewInvitation,
			Subject:      fmt.Sprintf("Invitation to review %s", m.ID),
			Message:      fmt.Sprintf("You are invited to review %q. Please respond before %s.", m.Title, r.DueDate.Format("2006-01-02")),
			ManuscriptID: m.ID,
			ReviewID:     r.ID,
		})
	}
	m.Timeline.Append(models.EventReviewersAssigned, actor.UserID, strings.Join(names, ", "), now)
	if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
		return nil, err
	}
	notifyAll(ctx, s.notifier, s.logger, notices...)
	if createErr != nil {
		s.logger.Warn("reviewer assignment stopped early",
			zap.String("manuscript_id", m.ID),
			zap.Int("created", len(result.Created)),
			zap.Error(createErr))
		return result, createErr
	}
	return result, nil
}

// Respond accepts or declines an invitation. The answer is final.
func (s *ReviewService) Respond(ctx context.Context, reviewID string, req dto.RespondInvitationRequest, actor *models.JWTClaims) (*models.Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid invitation response")
	}
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.ReviewerID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the invited reviewer can respond")
	}
	if review.Response.Responded {
		return nil, appErrors.ErrAlreadyResponded
	}
	if review.Status != models.ReviewStatusInvitationSent && review.Status != models.ReviewStatusPendingInvitation {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot respond while %s", review.Status))
	}
	m, err := loadManuscript(ctx, s.manuscripts, review.ManuscriptID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	respondedAt := now
	review.Response = models.InvitationResponse{
		Responded:   true,
		Accepted:    *req.Accept,
		RespondedAt: &respondedAt,
	}
	event, detail := models.EventReviewAccepted, actor.FullName
	if *req.Accept {
		// ACCEPTED is transient; work starts immediately.
		review.Status = models.ReviewStatusInProgress
	} else {
		review.Status = models.ReviewStatusDeclined
		event = models.EventReviewDeclined
		if reason := strings.TrimSpace(req.DeclineReason); reason != "" {
			review.Response.DeclineReason = strPtr(reason)
			detail = fmt.Sprintf("%s: %s", actor.FullName, reason)
		}
	}
	if err := s.saveReview(ctx, review); err != nil {
		return nil, err
	}

	m.Timeline.Append(event, actor.UserID, detail, now)
	if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
		return nil, err
	}

	verdict := "accepted"
	if !*req.Accept {
		verdict = "declined"
	}
	notifyAll(ctx, s.notifier, s.logger, Notice{
		RecipientID:  s.editorOf(m, review),
		Type:         models.NotificationReviewResponse,
		Subject:      fmt.Sprintf("Reviewer %s invitation for %s", verdict, m.ID),
		Message:      fmt.Sprintf("%s %s the invitation to review %q.", actor.FullName, verdict, m.Title),
		ManuscriptID: m.ID,
		ReviewID:     review.ID,
	})
	return review, nil
}

// Submit completes an in-progress review.
func (s *ReviewService) Submit(ctx context.Context, reviewID string, req dto.SubmitReviewRequest, actor *models.JWTClaims) (*models.Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.ReviewerID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned reviewer can submit")
	}
	if review.Status == models.ReviewStatusCompleted {
		return nil, appErrors.ErrAlreadyCompleted
	}
	if review.Status != models.ReviewStatusInProgress {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot submit a review while %s", review.Status))
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid review submission")
	}
	m, err := loadManuscript(ctx, s.manuscripts, review.ManuscriptID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	completedAt := now
	recommendation := req.Recommendation
	review.Recommendation = &recommendation
	review.AuthorComments = strPtr(req.AuthorComments)
	if req.ConfidentialComments != "" {
		review.ConfidentialComments = strPtr(req.ConfidentialComments)
	}
	review.CompletedAt = &completedAt
	review.Status = models.ReviewStatusCompleted
	if err := s.saveReview(ctx, review); err != nil {
		return nil, err
	}

	m.Timeline.Append(models.EventReviewCompleted, actor.UserID, string(recommendation), now)
	if err := saveManuscript(ctx, s.manuscripts, m); err != nil {
		return nil, err
	}

	notifyAll(ctx, s.notifier, s.logger, Notice{
		RecipientID:  s.editorOf(m, review),
		Type:         models.NotificationReviewSubmitted,
		Subject:      fmt.Sprintf("Review submitted for %s", m.ID),
		Message:      fmt.Sprintf("%s recommends %s for %q.", actor.FullName, recommendation, m.Title),
		ManuscriptID: m.ID,
		ReviewID:     review.ID,
	})
	return review, nil
}

// SendReminder nudges a reviewer. The reminder is stored before delivery; a delivery
// failure is reported but the timestamp stays.
func (s *ReviewService) SendReminder(ctx context.Context, reviewID string, actor *models.JWTClaims) (*models.Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	m, err := loadManuscript(ctx, s.manuscripts, review.ManuscriptID)
	if err != nil {
		return nil, err
	}
	if !models.CanDecide(m, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned editor can send reminders")
	}
	if review.Status == models.ReviewStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrAlreadyCompleted, "completed reviews need no reminder")
	}

	now := s.now()
	review.Reminders = append(review.Reminders, now)
	if err := s.saveReview(ctx, review); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		err := s.notifier.Notify(ctx, Notice{
			RecipientID:  review.ReviewerID,
			Type:         models.NotificationReviewReminder,
			Subject:      fmt.Sprintf("Reminder: review of %s", m.ID),
			Message:      fmt.Sprintf("Your review of %q is due on %s.", m.Title, review.DueDate.Format("2006-01-02")),
			ManuscriptID: m.ID,
			ReviewID:     review.ID,
		})
		if err != nil {
			return review, appErrors.Wrap(err, appErrors.ErrExternalFailure, "reminder recorded but notification failed")
		}
	}
	return review, nil
}

// Get returns one review to its reviewer or to staff.
func (s *ReviewService) Get(ctx context.Context, reviewID string, actor *models.JWTClaims) (*models.Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.ReviewerID == actor.UserID || models.HasAnyRole(actor, models.RoleAdmin, models.RoleEditor) {
		return review, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "review is not visible to this user")
}

// ListForManuscript returns reviews shaped for the caller: staff see everything, the
// submitter gets the author view and reviewers only their own assignment.
func (s *ReviewService) ListForManuscript(ctx context.Context, manuscriptID string, actor *models.JWTClaims) ([]models.Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	m, err := loadManuscript(ctx, s.manuscripts, manuscriptID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByManuscript(ctx, m.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to list reviews")
	}

	switch {
	case models.HasAnyRole(actor, models.RoleAdmin, models.RoleEditor):
		return reviews, nil
	case models.IsOwner(m, actor.UserID):
		out := make([]models.Review, 0, len(reviews))
		for _, r := range reviews {
			if r.Status == models.ReviewStatusCompleted {
				out = append(out, r.AuthorView())
			}
		}
		return out, nil
	}

	out := make([]models.Review, 0, 1)
	for _, r := range reviews {
		if r.ReviewerID == actor.UserID {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reviews are not visible to this user")
	}
	return out, nil
}

// ListForReviewer returns the caller's own assignments.
func (s *ReviewService) ListForReviewer(ctx context.Context, actor *models.JWTClaims) ([]models.Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByReviewer(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to list reviews")
	}
	return reviews, nil
}

func (s *ReviewService) loadReview(ctx context.Context, id string) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to load review")
	}
	return review, nil
}

func (s *ReviewService) saveReview(ctx context.Context, review *models.Review) error {
	if err := s.reviews.Save(ctx, review); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal, "failed to save review")
	}
	return nil
}

func (s *ReviewService) editorOf(m *models.Manuscript, review *models.Review) string {
	if m.EditorID != nil && *m.EditorID != "" {
		return *m.EditorID
	}
	return review.AssignedBy
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
