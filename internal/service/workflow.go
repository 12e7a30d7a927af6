package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/noah-isme/journal-editorial-api/internal/models"
	"github.com/noah-isme/journal-editorial-api/pkg/doi"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
)

// manuscriptStore is the record store for manuscripts. Save replaces the whole row and
// offers no compare-and-swap, so concurrent writers race under last-write-wins.
type manuscriptStore interface {
	NextSequence(ctx context.Context, prefix string) (int, error)
	Create(ctx context.Context, m *models.Manuscript) error
	GetByID(ctx context.Context, id string) (*models.Manuscript, error)
	List(ctx context.Context, filter models.ManuscriptFilter) ([]models.Manuscript, int, error)
	ListByDepositStatus(ctx context.Context, status models.DepositStatus, limit int) ([]models.Manuscript, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Manuscript, error)
	ExistsDOI(ctx context.Context, doi, excludeID string) (bool, error)
	Save(ctx context.Context, m *models.Manuscript) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) ([]models.ManuscriptStatusCount, error)
}

type reviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	ListByManuscript(ctx context.Context, manuscriptID string) ([]models.Review, error)
	ListByReviewer(ctx context.Context, reviewerID string) ([]models.Review, error)
	Exists(ctx context.Context, manuscriptID, reviewerID string) (bool, error)
	Save(ctx context.Context, review *models.Review) error
	DeleteByManuscript(ctx context.Context, manuscriptID string) (int64, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// Notice is one message for one recipient.
type Notice struct {
	RecipientID  string
	Type         models.NotificationType
	Subject      string
	Message      string
	ManuscriptID string
	ReviewID     string
}

// Notifier delivers workflow notices. Callers wait for Notify to return before treating a
// transition as done.
type Notifier interface {
	Notify(ctx context.Context, notice Notice) error
}

func loadManuscript(ctx context.Context, store manuscriptStore, id string) (*models.Manuscript, error) {
	m, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "manuscript not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to load manuscript")
	}
	return m, nil
}

func saveManuscript(ctx context.Context, store manuscriptStore, m *models.Manuscript) error {
	if err := store.Save(ctx, m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "manuscript not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal, "failed to save manuscript")
	}
	return nil
}

func requireActor(actor *models.JWTClaims) error {
	if actor == nil || actor.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	return nil
}

// canReadManuscript covers staff, the submitter and anyone holding a review on it.
func canReadManuscript(ctx context.Context, reviews reviewStore, m *models.Manuscript, actor *models.JWTClaims) (bool, error) {
	if models.HasAnyRole(actor, models.RoleAdmin, models.RoleEditor) || models.IsOwner(m, actor.UserID) {
		return true, nil
	}
	if reviews == nil || !models.HasAnyRole(actor, models.RoleReviewer) {
		return false, nil
	}
	ok, err := reviews.Exists(ctx, m.ID, actor.UserID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal, "failed to check review assignment")
	}
	return ok, nil
}

// publicURL prefers the DOI resolver link and falls back to the journal's article page.
// It only reads the manuscript.
func publicURL(baseURL string, m *models.Manuscript) string {
	if m.HasDOI() {
		return doi.ResolverURL(*m.DOI)
	}
	return strings.TrimRight(baseURL, "/") + "/articles/" + m.ID
}

// notifyAll fans notices out and waits for every delivery. Failures are logged and the
// count of failed notices is returned.
func notifyAll(ctx context.Context, notifier Notifier, logger *zap.Logger, notices ...Notice) int {
	if notifier == nil || len(notices) == 0 {
		return 0
	}
	errs := make([]error, len(notices))
	var wg conc.WaitGroup
	for i := range notices {
		i := i
		wg.Go(func() {
			errs[i] = notifier.Notify(ctx, notices[i])
		})
	}
	wg.Wait()

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			logger.Warn("notification failed",
				zap.String("recipient_id", notices[i].RecipientID),
				zap.String("type", string(notices[i].Type)),
				zap.String("manuscript_id", notices[i].ManuscriptID),
				zap.Error(err))
		}
	}
	return failed
}

func systemNow() time.Time {
	return time.Now().UTC()
}

func strPtr(v string) *string {
	return &v
}
