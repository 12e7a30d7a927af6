package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/journal-editorial-api/internal/models"
)

const manuscriptColumns = `id, title, abstract, keywords, authors, status, current_version, submitted_by, editor_id, editor_decision, issue_id, doi, public_url, published_at, files, revisions, timeline, doi_deposit, created_at, updated_at`

// ManuscriptRepository persists manuscripts. Embedded documents (authors, files, revisions,
// timeline, deposit state, decision) travel as JSONB and every Save replaces the whole row.
type ManuscriptRepository struct {
	db *sqlx.DB
}

// NewManuscriptRepository constructs the repository.
func NewManuscriptRepository(db *sqlx.DB) *ManuscriptRepository {
	return &ManuscriptRepository{db: db}
}

// NextSequence bumps and returns the identifier counter for prefix. The counter only
// moves forward so deleted manuscripts never free their number.
func (r *ManuscriptRepository) NextSequence(ctx context.Context, prefix string) (int, error) {
	const query = `INSERT INTO manuscript_sequences (prefix, value) VALUES ($1, 1)
ON CONFLICT (prefix) DO UPDATE SET value = manuscript_sequences.value + 1
RETURNING value`
	var value int
	if err := r.db.GetContext(ctx, &value, query, prefix); err != nil {
		return 0, fmt.Errorf("next manuscript sequence: %w", err)
	}
	return value, nil
}

// Create inserts a new manuscript.
func (r *ManuscriptRepository) Create(ctx context.Context, m *models.Manuscript) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = m.CreatedAt
	const query = `INSERT INTO manuscripts (` + manuscriptColumns + `) VALUES (:id, :title, :abstract, :keywords, :authors, :status, :current_version, :submitted_by, :editor_id, :editor_decision, :issue_id, :doi, :public_url, :published_at, :files, :revisions, :timeline, :doi_deposit, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("create manuscript: %w", err)
	}
	return nil
}

// GetByID loads a manuscript. sql.ErrNoRows is returned unwrapped.
func (r *ManuscriptRepository) GetByID(ctx context.Context, id string) (*models.Manuscript, error) {
	query := `SELECT ` + manuscriptColumns + ` FROM manuscripts WHERE id = $1`
	var m models.Manuscript
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get manuscript: %w", err)
	}
	return &m, nil
}

// List returns one page of manuscripts and the total count for the filter.
func (r *ManuscriptRepository) List(ctx context.Context, filter models.ManuscriptFilter) ([]models.Manuscript, int, error) {
	var conditions []string
	var args []interface{}

	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.SubmittedBy != "" {
		args = append(args, filter.SubmittedBy)
		conditions = append(conditions, fmt.Sprintf("submitted_by = $%d", len(args)))
	}
	if filter.EditorID != "" {
		args = append(args, filter.EditorID)
		conditions = append(conditions, fmt.Sprintf("editor_id = $%d", len(args)))
	}
	if filter.VisibleTo != "" {
		args = append(args, filter.VisibleTo)
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(submitted_by = $%d OR id IN (SELECT manuscript_id FROM reviews WHERE reviewer_id = $%d))", n, n))
	}
	if filter.DepositStatus != "" {
		args = append(args, string(filter.DepositStatus))
		conditions = append(conditions, fmt.Sprintf("doi_deposit->>'depositStatus' = $%d", len(args)))
	}

	where := "WHERE 1=1"
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s FROM manuscripts %s ORDER BY created_at DESC LIMIT %d OFFSET %d", manuscriptColumns, where, pageSize, (page-1)*pageSize)

	var items []models.Manuscript
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list manuscripts: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM manuscripts "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count manuscripts: %w", err)
	}
	return items, total, nil
}

// ListByDepositStatus returns up to limit manuscripts in the given deposit state, oldest
// attempt first.
func (r *ManuscriptRepository) ListByDepositStatus(ctx context.Context, status models.DepositStatus, limit int) ([]models.Manuscript, error) {
	query := `SELECT ` + manuscriptColumns + ` FROM manuscripts WHERE doi_deposit->>'depositStatus' = $1 ORDER BY doi_deposit->>'lastDepositAttempt' ASC NULLS FIRST, id ASC LIMIT $2`
	var items []models.Manuscript
	if err := r.db.SelectContext(ctx, &items, query, string(status), limit); err != nil {
		return nil, fmt.Errorf("list manuscripts by deposit status: %w", err)
	}
	return items, nil
}

// ListByIDs loads the given manuscripts. Missing ids are silently absent from the result.
func (r *ManuscriptRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Manuscript, error) {
	if len(ids) == 0 {
		return []models.Manuscript{}, nil
	}
	query := `SELECT ` + manuscriptColumns + ` FROM manuscripts WHERE id = ANY($1)`
	var items []models.Manuscript
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list manuscripts by ids: %w", err)
	}
	return items, nil
}

// ExistsDOI reports whether another manuscript already carries doi (case-insensitive).
func (r *ManuscriptRepository) ExistsDOI(ctx context.Context, doi, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM manuscripts WHERE LOWER(doi) = LOWER($1) AND id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, doi, excludeID); err != nil {
		return false, fmt.Errorf("check doi uniqueness: %w", err)
	}
	return exists, nil
}

// Save replaces every mutable column of the row. Last write wins.
func (r *ManuscriptRepository) Save(ctx context.Context, m *models.Manuscript) error {
	m.UpdatedAt = time.Now().UTC()
	const query = `UPDATE manuscripts SET title = :title, abstract = :abstract, keywords = :keywords, authors = :authors, status = :status, current_version = :current_version, editor_id = :editor_id, editor_decision = :editor_decision, issue_id = :issue_id, doi = :doi, public_url = :public_url, published_at = :published_at, files = :files, revisions = :revisions, timeline = :timeline, doi_deposit = :doi_deposit, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, m)
	if err != nil {
		return fmt.Errorf("save manuscript: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the manuscript row.
func (r *ManuscriptRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM manuscripts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete manuscript: %w", err)
	}
	return requireAffected(res)
}

// CountByStatus aggregates manuscripts per status.
func (r *ManuscriptRepository) CountByStatus(ctx context.Context) ([]models.ManuscriptStatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM manuscripts GROUP BY status ORDER BY status`
	var counts []models.ManuscriptStatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count manuscripts by status: %w", err)
	}
	return counts, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
