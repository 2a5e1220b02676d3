package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/khrees2412/prospector/pkg/models"
)

// Application operations

const applicationColumns = `id, company_name, role_name, stage, stage_date, job_ad, cover_letter, notes,
	match_percentage, match_reasoning, additional_info, created_at, updated_at`

// ApplicationListOptions narrows ListApplications
type ApplicationListOptions struct {
	Stage  *models.Stage
	Limit  int
	Offset int
}

func scanApplication(row interface{ Scan(...any) error }) (*models.JobApplication, error) {
	a := &models.JobApplication{}
	var info sql.NullString
	err := row.Scan(&a.ID, &a.CompanyName, &a.RoleName, &a.Stage, &a.StageDate, &a.JobAd, &a.CoverLetter,
		&a.Notes, &a.MatchPercentage, &a.MatchReasoning, &info, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if info.Valid && info.String != "" {
		if err := json.Unmarshal([]byte(info.String), &a.AdditionalInfo); err != nil {
			return nil, fmt.Errorf("decode additional_info of application %d: %w", a.ID, err)
		}
	}
	return a, nil
}

func encodeInfo(info map[string]any) (any, error) {
	if info == nil {
		return nil, nil
	}
	b, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encode additional_info: %w", err)
	}
	return string(b), nil
}

// InsertApplication stores a new application. CreatedAt, UpdatedAt and StageDate
// must already be set by the caller so the seeded history can share the timestamp.
func InsertApplication(ctx context.Context, q DBTX, app *models.JobApplication) error {
	info, err := encodeInfo(app.AdditionalInfo)
	if err != nil {
		return err
	}
	query := `INSERT INTO job_applications (company_name, role_name, stage, stage_date, job_ad, cover_letter,
			  notes, match_percentage, match_reasoning, additional_info, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, query, app.CompanyName, app.RoleName, app.Stage, app.StageDate, app.JobAd,
		app.CoverLetter, app.Notes, app.MatchPercentage, app.MatchReasoning, info, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert job application: %w", err)
	}
	id, _ := result.LastInsertId()
	app.ID = id
	return nil
}

func GetApplication(ctx context.Context, q DBTX, id int64) (*models.JobApplication, error) {
	row := q.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM job_applications WHERE id=?`, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job application %d: %w", id, ErrNotFound)
	}
	return a, err
}

func ListApplications(ctx context.Context, q DBTX, opts ApplicationListOptions) ([]*models.JobApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM job_applications`
	args := []any{}
	if opts.Stage != nil {
		query += ` WHERE stage=?`
		args = append(args, *opts.Stage)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY stage_date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []*models.JobApplication{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// SaveApplication writes every mutable column of app
func SaveApplication(ctx context.Context, q DBTX, app *models.JobApplication) error {
	info, err := encodeInfo(app.AdditionalInfo)
	if err != nil {
		return err
	}
	query := `UPDATE job_applications SET company_name=?, role_name=?, stage=?, stage_date=?, job_ad=?,
			  cover_letter=?, notes=?, match_percentage=?, match_reasoning=?, additional_info=?, updated_at=?
			  WHERE id=?`
	result, err := q.ExecContext(ctx, query, app.CompanyName, app.RoleName, app.Stage, app.StageDate, app.JobAd,
		app.CoverLetter, app.Notes, app.MatchPercentage, app.MatchReasoning, info, app.UpdatedAt, app.ID)
	if err != nil {
		return fmt.Errorf("update job application: %w", err)
	}
	return expectAffected(result, fmt.Sprintf("job application %d", app.ID))
}

func DeleteApplication(ctx context.Context, q DBTX, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM job_applications WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectAffected(result, fmt.Sprintf("job application %d", id))
}

// StageCounts returns the number of applications per stage
func StageCounts(ctx context.Context, q DBTX) (map[models.Stage]int, error) {
	rows, err := q.QueryContext(ctx, `SELECT stage, COUNT(*) FROM job_applications GROUP BY stage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.Stage]int{}
	for rows.Next() {
		var stage models.Stage
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		counts[stage] = n
	}
	return counts, rows.Err()
}

// Stage history operations

func InsertStageHistory(ctx context.Context, q DBTX, entry *models.StageHistoryEntry) error {
	query := `INSERT INTO stage_history (job_application_id, previous_stage, new_stage, changed_at)
			  VALUES (?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, query, entry.ApplicationID, entry.PreviousStage, entry.NewStage, entry.ChangedAt)
	if err != nil {
		return fmt.Errorf("insert stage history: %w", err)
	}
	id, _ := result.LastInsertId()
	entry.ID = id
	return nil
}

// ListStageHistory returns the history of one application, oldest first
func ListStageHistory(ctx context.Context, q DBTX, applicationID int64) ([]*models.StageHistoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, job_application_id, previous_stage, new_stage, changed_at
		 FROM stage_history WHERE job_application_id=? ORDER BY changed_at ASC, id ASC`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*models.StageHistoryEntry{}
	for rows.Next() {
		e := &models.StageHistoryEntry{}
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.PreviousStage, &e.NewStage, &e.ChangedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LatestStageHistory returns the most recent entry of an application, or ErrNotFound if it has none
func LatestStageHistory(ctx context.Context, q DBTX, applicationID int64) (*models.StageHistoryEntry, error) {
	e := &models.StageHistoryEntry{}
	err := q.QueryRowContext(ctx,
		`SELECT id, job_application_id, previous_stage, new_stage, changed_at
		 FROM stage_history WHERE job_application_id=? ORDER BY changed_at DESC, id DESC LIMIT 1`, applicationID).
		Scan(&e.ID, &e.ApplicationID, &e.PreviousStage, &e.NewStage, &e.ChangedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stage history of application %d: %w", applicationID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}
