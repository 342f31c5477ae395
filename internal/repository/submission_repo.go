package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/submission-ticker-api/internal/database"
	"github.com/submission-ticker-api/internal/models"
)

const baseColumns = "id, content, is_active, status, published_at, rejection_reason, created_at, updated_at"

const profileColumns = "full_name, email, location, category, rating, photo_url"

// submissionRepo is the concrete implementation of SubmissionRepository
type submissionRepo struct {
	db       *database.DB
	schema   SchemaEnsurer
	resource models.Resource
	table    string
	columns  string
}

// NewSubmissionRepo creates a repository for one resource table
func NewSubmissionRepo(db *database.DB, schema SchemaEnsurer, resource models.Resource) SubmissionRepository {
	columns := baseColumns
	if resource.HasProfile() {
		columns += ", " + profileColumns
	}
	return &submissionRepo{
		db:       db,
		schema:   schema,
		resource: resource,
		table:    resource.Table(),
		columns:  columns,
	}
}

func (r *submissionRepo) Resource() models.Resource {
	return r.resource
}

// List returns rows newest first. The approved list is the ticker feed:
// active rows only, latest publish first, capped at models.TickerLimit.
func (r *submissionRepo) List(ctx context.Context, status models.Status) ([]*models.Submission, error) {
	r.schema.Ensure(ctx, r.table)

	var (
		query string
		args  []interface{}
	)
	switch status {
	case "":
		query = fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC", r.columns, r.table)
	case models.StatusApproved:
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE status = $1 AND is_active
			ORDER BY published_at DESC NULLS LAST, created_at DESC
			LIMIT $2`, r.columns, r.table)
		args = []interface{}{status, models.TickerLimit}
	default:
		query = fmt.Sprintf("SELECT %s FROM %s WHERE status = $1 ORDER BY created_at DESC", r.columns, r.table)
		args = []interface{}{status}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", r.table, err)
	}
	defer rows.Close()

	subs := make([]*models.Submission, 0)
	for rows.Next() {
		sub, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// GetByID retrieves a submission by ID
func (r *submissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	r.schema.Ensure(ctx, r.table)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", r.columns, r.table)
	return r.queryOne(ctx, query, id)
}

// Create inserts a new submission; the caller sets id, status and timestamps
func (r *submissionRepo) Create(ctx context.Context, sub *models.Submission) error {
	r.schema.Ensure(ctx, r.table)

	columns := "id, content, is_active, status, created_at, updated_at"
	args := []interface{}{sub.ID, sub.Content, sub.IsActive, sub.Status, sub.CreatedAt, sub.UpdatedAt}
	if r.resource.HasProfile() {
		p := sub.Profile
		if p == nil {
			p = &models.Profile{}
		}
		columns += ", " + profileColumns
		args = append(args, p.FullName, p.Email, p.Location, p.Category, p.Rating, p.PhotoURL)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", r.table, columns, placeholders(len(args)))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", r.table, err)
	}
	return nil
}

// Update merges the supplied fields over the stored row.
// An empty request writes nothing and reports ErrNotFound.
func (r *submissionRepo) Update(ctx context.Context, id uuid.UUID, req models.UpdateRequest, at time.Time) (*models.Submission, error) {
	if req.IsEmpty() {
		return nil, ErrNotFound
	}
	r.schema.Ensure(ctx, r.table)

	query := fmt.Sprintf(`
		UPDATE %s
		SET content = COALESCE($2, content),
			is_active = COALESCE($3, is_active),
			updated_at = $4
		WHERE id = $1
		RETURNING %s`, r.table, r.columns)
	return r.queryOne(ctx, query, id, req.Content, req.IsActive, at)
}

// MarkApproved persists a transition into approved, refreshing published_at
func (r *submissionRepo) MarkApproved(ctx context.Context, id uuid.UUID, at time.Time) (*models.Submission, error) {
	r.schema.Ensure(ctx, r.table)

	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, published_at = $3, updated_at = $3
		WHERE id = $1
		RETURNING %s`, r.table, r.columns)
	return r.queryOne(ctx, query, id, models.StatusApproved, at)
}

// MarkRejected persists a transition into rejected. A nil reason clears any previous one.
func (r *submissionRepo) MarkRejected(ctx context.Context, id uuid.UUID, reason *string, at time.Time) (*models.Submission, error) {
	r.schema.Ensure(ctx, r.table)

	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, rejection_reason = $3, updated_at = $4
		WHERE id = $1
		RETURNING %s`, r.table, r.columns)
	return r.queryOne(ctx, query, id, models.StatusRejected, reason, at)
}

// Delete removes a submission and returns its id
func (r *submissionRepo) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	r.schema.Ensure(ctx, r.table)

	var deleted uuid.UUID
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1 RETURNING id", r.table)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("delete from %s: %w", r.table, err)
	}
	return deleted, nil
}

func (r *submissionRepo) queryOne(ctx context.Context, query string, args ...interface{}) (*models.Submission, error) {
	sub, err := r.scan(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table, err)
	}
	return sub, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *submissionRepo) scan(row scanner) (*models.Submission, error) {
	var (
		sub         models.Submission
		status      string
		publishedAt sql.NullTime
		reason      sql.NullString
	)
	dest := []interface{}{
		&sub.ID, &sub.Content, &sub.IsActive, &status,
		&publishedAt, &reason, &sub.CreatedAt, &sub.UpdatedAt,
	}

	var fullName string
	var email, location, category, photo sql.NullString
	var rating sql.NullInt64
	if r.resource.HasProfile() {
		dest = append(dest, &fullName, &email, &location, &category, &rating, &photo)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	sub.Resource = r.resource
	sub.Status = models.Status(status)
	if publishedAt.Valid {
		t := publishedAt.Time
		sub.PublishedAt = &t
	}
	sub.RejectionReason = nullString(reason)

	if r.resource.HasProfile() {
		sub.Profile = &models.Profile{
			FullName: fullName,
			Email:    nullString(email),
			Location: nullString(location),
			Category: nullString(category),
			PhotoURL: nullString(photo),
		}
		if rating.Valid {
			v := int(rating.Int64)
			sub.Profile.Rating = &v
		}
	}
	return &sub, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}
