package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/khrees2412/prospector/pkg/models"
)

// Resume operations

const resumeColumns = `id, content, filename, is_active, created_at, updated_at`

func scanResume(row interface{ Scan(...any) error }) (*models.Resume, error) {
	r := &models.Resume{}
	err := row.Scan(&r.ID, &r.Content, &r.Filename, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func InsertResume(ctx context.Context, q DBTX, resume *models.Resume) error {
	now := time.Now().UTC()
	resume.CreatedAt, resume.UpdatedAt = now, now
	query := `INSERT INTO resumes (content, filename, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, query, resume.Content, resume.Filename, resume.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("insert resume: %w", err)
	}
	id, _ := result.LastInsertId()
	resume.ID = id
	return nil
}

func GetResume(ctx context.Context, q DBTX, id int64) (*models.Resume, error) {
	row := q.QueryRowContext(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id=?`, id)
	r, err := scanResume(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resume %d: %w", id, ErrNotFound)
	}
	return r, err
}

func GetActiveResume(ctx context.Context, q DBTX) (*models.Resume, error) {
	row := q.QueryRowContext(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE is_active=1 LIMIT 1`)
	r, err := scanResume(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active resume: %w", ErrNotFound)
	}
	return r, err
}

func ListResumes(ctx context.Context, q DBTX) ([]*models.Resume, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+resumeColumns+` FROM resumes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resumes := []*models.Resume{}
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, r)
	}
	return resumes, rows.Err()
}

// SaveResume writes content and filename; the active flag is left to the activation functions
func SaveResume(ctx context.Context, q DBTX, resume *models.Resume) error {
	result, err := q.ExecContext(ctx, `UPDATE resumes SET content=?, filename=?, updated_at=? WHERE id=?`,
		resume.Content, resume.Filename, resume.UpdatedAt, resume.ID)
	if err != nil {
		return fmt.Errorf("update resume: %w", err)
	}
	return expectAffected(result, fmt.Sprintf("resume %d", resume.ID))
}

// DeactivateResume clears the active flag on one resume
func DeactivateResume(ctx context.Context, q DBTX, id int64, now time.Time) error {
	result, err := q.ExecContext(ctx, `UPDATE resumes SET is_active=0, updated_at=? WHERE id=?`, now, id)
	if err != nil {
		return err
	}
	return expectAffected(result, fmt.Sprintf("resume %d", id))
}

// DeactivateAllResumes clears the active flag on every resume
func DeactivateAllResumes(ctx context.Context, q DBTX, now time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE resumes SET is_active=0, updated_at=? WHERE is_active=1`, now)
	return err
}

// ActivateResume sets the active flag on one resume
func ActivateResume(ctx context.Context, q DBTX, id int64, now time.Time) error {
	result, err := q.ExecContext(ctx, `UPDATE resumes SET is_active=1, updated_at=? WHERE id=?`, now, id)
	if err != nil {
		return err
	}
	return expectAffected(result, fmt.Sprintf("resume %d", id))
}

func CountActiveResumes(ctx context.Context, q DBTX) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM resumes WHERE is_active=1`).Scan(&n)
	return n, err
}

func DeleteResume(ctx context.Context, q DBTX, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM resumes WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectAffected(result, fmt.Sprintf("resume %d", id))
}

// Job lead operations

const leadColumns = `id, company_name, role_name, job_posting, url, match_percentage, match_reasoning,
	is_promoted, promoted_to_application_id, created_at, updated_at`

// LeadListOptions narrows ListLeads
type LeadListOptions struct {
	SortByMatch bool
	Promoted    *bool
	Limit       int
	Offset      int
}

func scanLead(row interface{ Scan(...any) error }) (*models.JobLead, error) {
	l := &models.JobLead{}
	err := row.Scan(&l.ID, &l.CompanyName, &l.RoleName, &l.JobPosting, &l.URL, &l.MatchPercentage,
		&l.MatchReasoning, &l.IsPromoted, &l.PromotedToApplicationID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func InsertLead(ctx context.Context, q DBTX, lead *models.JobLead) error {
	now := time.Now().UTC()
	lead.CreatedAt, lead.UpdatedAt = now, now
	query := `INSERT INTO job_leads (company_name, role_name, job_posting, url, match_percentage,
			  match_reasoning, is_promoted, promoted_to_application_id, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, query, lead.CompanyName, lead.RoleName, lead.JobPosting, lead.URL,
		lead.MatchPercentage, lead.MatchReasoning, lead.IsPromoted, lead.PromotedToApplicationID, now, now)
	if err != nil {
		return fmt.Errorf("insert job lead: %w", err)
	}
	id, _ := result.LastInsertId()
	lead.ID = id
	return nil
}

func GetLead(ctx context.Context, q DBTX, id int64) (*models.JobLead, error) {
	row := q.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM job_leads WHERE id=?`, id)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job lead %d: %w", id, ErrNotFound)
	}
	return l, err
}

func ListLeads(ctx context.Context, q DBTX, opts LeadListOptions) ([]*models.JobLead, error) {
	query := `SELECT ` + leadColumns + ` FROM job_leads`
	args := []any{}
	if opts.Promoted != nil {
		query += ` WHERE is_promoted=?`
		args = append(args, *opts.Promoted)
	}
	if opts.SortByMatch {
		query += ` ORDER BY match_percentage IS NULL, match_percentage DESC, created_at DESC`
	} else {
		query += ` ORDER BY created_at DESC, id DESC`
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []*models.JobLead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// SaveLead writes the editable lead fields and the match result
func SaveLead(ctx context.Context, q DBTX, lead *models.JobLead) error {
	result, err := q.ExecContext(ctx,
		`UPDATE job_leads SET company_name=?, role_name=?, job_posting=?, url=?, match_percentage=?,
		 match_reasoning=?, updated_at=? WHERE id=?`,
		lead.CompanyName, lead.RoleName, lead.JobPosting, lead.URL, lead.MatchPercentage,
		lead.MatchReasoning, lead.UpdatedAt, lead.ID)
	if err != nil {
		return fmt.Errorf("update job lead: %w", err)
	}
	return expectAffected(result, fmt.Sprintf("job lead %d", lead.ID))
}

// UpdateLeadMatch stores a match analysis result on a lead
func UpdateLeadMatch(ctx context.Context, q DBTX, id int64, percentage float64, reasoning string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE job_leads SET match_percentage=?, match_reasoning=?, updated_at=? WHERE id=?`,
		percentage, reasoning, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(result, fmt.Sprintf("job lead %d", id))
}

// MarkLeadPromoted records the application a lead was promoted into.
// Only a lead that has not been promoted yet is updated.
func MarkLeadPromoted(ctx context.Context, q DBTX, id, applicationID int64, now time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE job_leads SET is_promoted=1, promoted_to_application_id=?, updated_at=? WHERE id=? AND is_promoted=0`,
		applicationID, now, id)
	if err != nil {
		return err
	}
	return expectAffected(result, fmt.Sprintf("unpromoted job lead %d", id))
}

// LeadStats summarizes the lead table
type LeadStats struct {
	Total        int      `json:"total"`
	Ranked       int      `json:"ranked"`
	Promoted     int      `json:"promoted"`
	AverageMatch *float64 `json:"average_match"`
}

func GetLeadStats(ctx context.Context, q DBTX) (*LeadStats, error) {
	st := &LeadStats{}
	var avg sql.NullFloat64
	err := q.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(match_percentage), COALESCE(SUM(is_promoted), 0),
		AVG(match_percentage) FROM job_leads`).Scan(&st.Total, &st.Ranked, &st.Promoted, &avg)
	if err != nil {
		return nil, fmt.Errorf("lead stats: %w", err)
	}
	if avg.Valid {
		st.AverageMatch = &avg.Float64
	}
	return st, nil
}

func DeleteLead(ctx context.Context, q DBTX, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM job_leads WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectAffected(result, fmt.Sprintf("job lead %d", id))
}

func expectAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
