package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/journal-editorial-api/internal/models"
)

const issueColumns = `id, volume, number, year, title, description, manuscripts, is_published, published_at, created_by, created_at, updated_at`

// IssueRepository persists journal issues.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository constructs the repository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// Create inserts an issue.
func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now().UTC()
	}
	issue.UpdatedAt = issue.CreatedAt
	const query = `INSERT INTO issues (` + issueColumns + `) VALUES (:id, :volume, :number, :year, :title, :description, :manuscripts, :is_published, :published_at, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, issue); err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

// GetByID loads an issue. sql.ErrNoRows is returned unwrapped.
func (r *IssueRepository) GetByID(ctx context.Context, id string) (*models.Issue, error) {
	var issue models.Issue
	if err := r.db.GetContext(ctx, &issue, `SELECT `+issueColumns+` FROM issues WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return &issue, nil
}

// List returns a page of issues, newest volume first.
func (r *IssueRepository) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	var conditions []string
	var args []interface{}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.Published != nil {
		args = append(args, *filter.Published)
		conditions = append(conditions, fmt.Sprintf("is_published = $%d", len(args)))
	}
	where := "WHERE 1=1"
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s FROM issues %s ORDER BY volume DESC, number DESC LIMIT %d OFFSET %d", issueColumns, where, pageSize, (page-1)*pageSize)

	var issues []models.Issue
	if err := r.db.SelectContext(ctx, &issues, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list issues: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM issues "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}
	return issues, total, nil
}

// ExistsVolumeNumber reports whether the volume/number pair is taken.
func (r *IssueRepository) ExistsVolumeNumber(ctx context.Context, volume, number int) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM issues WHERE volume = $1 AND number = $2)`, volume, number); err != nil {
		return false, fmt.Errorf("check issue volume/number: %w", err)
	}
	return exists, nil
}

// Save replaces the mutable columns of an issue.
func (r *IssueRepository) Save(ctx context.Context, issue *models.Issue) error {
	issue.UpdatedAt = time.Now().UTC()
	const query = `UPDATE issues SET title = :title, description = :description, manuscripts = :manuscripts, is_published = :is_published, published_at = :published_at, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, issue)
	if err != nil {
		return fmt.Errorf("save issue: %w", err)
	}
	return requireAffected(res)
}
