// Package repository contains data access logic separated from HTTP handlers.
// This file implements the issue registry on the 'issues' table.  It owns
// the data shape and status transitions only; who may call what is decided
// by the access package before any of these methods run.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to classify driver errors

	"github.com/iliyamo/civic-issue-reporter/internal/model"
)

// IssueRepo encapsulates all database queries related to issues.  It
// depends on a sql.DB connection which should be configured elsewhere.
type IssueRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewIssueRepo constructs an IssueRepo with the provided DB handle.
func NewIssueRepo(db *sql.DB) *IssueRepo {
	return &IssueRepo{db: db}
}

const issueColumns = "id, title, description, location, photo, status, owner_id, created_at"

// Create inserts a fully populated issue.  The caller assigns ID, OwnerID,
// Status and CreatedAt; the row is written exactly as given.
func (r *IssueRepo) Create(ctx context.Context, is *model.Issue) error {
	const q = "INSERT INTO issues (" + issueColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, q,
		is.ID, is.Title, is.Description, is.Location, nullString(is.Photo),
		string(is.Status), is.OwnerID, is.CreatedAt)
	return err
}

// GetByID fetches an issue by its ID regardless of owner.  It returns
// ErrNotFound if no row is found.
func (r *IssueRepo) GetByID(ctx context.Context, id string) (*model.Issue, error) {
	const q = "SELECT " + issueColumns + " FROM issues WHERE id = ?"
	is, err := scanIssue(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return is, nil
}

// ListAll returns every issue, newest first.  Rows created in the same
// instant are ordered by id, which increases monotonically.
func (r *IssueRepo) ListAll(ctx context.Context) ([]*model.Issue, error) {
	const q = "SELECT " + issueColumns + " FROM issues ORDER BY created_at DESC, id DESC"
	return r.list(ctx, q)
}

// ListByOwner returns the issues created by ownerID, newest first.
func (r *IssueRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Issue, error) {
	const q = "SELECT " + issueColumns + " FROM issues WHERE owner_id = ? ORDER BY created_at DESC, id DESC"
	return r.list(ctx, q, ownerID)
}

func (r *IssueRepo) list(ctx context.Context, q string, args ...any) ([]*model.Issue, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Issue{}
	for rows.Next() {
		is, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, is)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus sets the status column and returns the row as stored.
// Setting the current value again succeeds.  MySQL reports zero affected
// rows for an unchanged value, so existence is established by reading the
// row back rather than from RowsAffected.
func (r *IssueRepo) UpdateStatus(ctx context.Context, id string, status model.IssueStatus) (*model.Issue, error) {
	if _, err := r.db.ExecContext(ctx, "UPDATE issues SET status = ? WHERE id = ?", string(status), id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// DeleteByID removes an issue.  It returns ErrNotFound when no row was
// deleted, which happens when a concurrent request removed it first.
func (r *IssueRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM issues WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(s rowScanner) (*model.Issue, error) {
	var (
		is     model.Issue
		photo  sql.NullString
		status string
	)
	if err := s.Scan(&is.ID, &is.Title, &is.Description, &is.Location, &photo,
		&status, &is.OwnerID, &is.CreatedAt); err != nil {
		return nil, err
	}
	if photo.Valid {
		p := photo.String
		is.Photo = &p
	}
	is.Status = model.IssueStatus(status)
	is.CreatedAt = is.CreatedAt.UTC()
	return &is, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
