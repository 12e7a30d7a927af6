package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/journal-editorial-api/internal/models"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
)

const uniqueViolation = "23505"

const reviewColumns = `id, manuscript_id, reviewer_id, assigned_by, status, invited_at, invitation_response, due_date, round, recommendation, confidential_comments, author_comments, completed_at, reminders, created_at, updated_at`

// ReviewRepository persists review assignments.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. The (manuscript, reviewer) pair is unique in the schema and a
// violation is reported as appErrors.ErrConflict.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = review.CreatedAt
	const query = `INSERT INTO reviews (` + reviewColumns + `) VALUES (:id, :manuscript_id, :reviewer_id, :assigned_by, :status, :invited_at, :invitation_response, :due_date, :round, :recommendation, :confidential_comments, :author_comments, :completed_at, :reminders, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return appErrors.Wrap(err, appErrors.ErrConflict, "reviewer already assigned to manuscript")
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// GetByID loads a review. sql.ErrNoRows is returned unwrapped.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := r.db.GetContext(ctx, &review, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &review, nil
}

// ListByManuscript returns reviews of a manuscript in invitation order.
func (r *ReviewRepository) ListByManuscript(ctx context.Context, manuscriptID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, `SELECT `+reviewColumns+` FROM reviews WHERE manuscript_id = $1 ORDER BY invited_at ASC, id ASC`, manuscriptID); err != nil {
		return nil, fmt.Errorf("list reviews by manuscript: %w", err)
	}
	return reviews, nil
}

// ListByReviewer returns a reviewer's assignments, newest first.
func (r *ReviewRepository) ListByReviewer(ctx context.Context, reviewerID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, `SELECT `+reviewColumns+` FROM reviews WHERE reviewer_id = $1 ORDER BY invited_at DESC`, reviewerID); err != nil {
		return nil, fmt.Errorf("list reviews by reviewer: %w", err)
	}
	return reviews, nil
}

// Exists reports whether the reviewer is already assigned to the manuscript.
func (r *ReviewRepository) Exists(ctx context.Context, manuscriptID, reviewerID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM reviews WHERE manuscript_id = $1 AND reviewer_id = $2)`, manuscriptID, reviewerID); err != nil {
		return false, fmt.Errorf("check review pair: %w", err)
	}
	return exists, nil
}

// Save replaces the mutable columns of a review.
func (r *ReviewRepository) Save(ctx context.Context, review *models.Review) error {
	review.UpdatedAt = time.Now().UTC()
	const query = `UPDATE reviews SET status = :status, invitation_response = :invitation_response, due_date = :due_date, recommendation = :recommendation, confidential_comments = :confidential_comments, author_comments = :author_comments, completed_at = :completed_at, reminders = :reminders, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, review)
	if err != nil {
		return fmt.Errorf("save review: %w", err)
	}
	return requireAffected(res)
}

// DeleteByManuscript removes every review of a manuscript and returns how many went.
func (r *ReviewRepository) DeleteByManuscript(ctx context.Context, manuscriptID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE manuscript_id = $1`, manuscriptID)
	if err != nil {
		return 0, fmt.Errorf("delete reviews: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
