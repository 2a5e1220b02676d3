package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/khrees2412/prospector/internal/app"
	"github.com/khrees2412/prospector/internal/database"
	"github.com/khrees2412/prospector/pkg/models"
)

// Tracker owns job applications and their append-only stage history
type Tracker struct {
	store  *database.Store
	logger *slog.Logger
	now    func() time.Time
}

func New(store *database.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Seed writes the first history entry of a freshly inserted application.
// It runs on q so it shares the caller's transaction.
func (t *Tracker) Seed(ctx context.Context, q database.DBTX, application *models.JobApplication) error {
	entry := &models.StageHistoryEntry{
		ApplicationID: application.ID,
		NewStage:      application.Stage,
		ChangedAt:     application.CreatedAt,
	}
	return database.InsertStageHistory(ctx, q, entry)
}

// RecordTransition moves application to next and appends the matching history
// entry. Moving to the current stage is a no-op. The caller persists application.
func (t *Tracker) RecordTransition(ctx context.Context, q database.DBTX, application *models.JobApplication, next models.Stage) (bool, error) {
	if !next.Valid() {
		return false, fmt.Errorf("stage %d: %w", next, app.ErrInvalidArgument)
	}
	if next == application.Stage {
		return false, nil
	}

	latest, err := database.LatestStageHistory(ctx, q, application.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, fmt.Errorf("application %d has no stage history: %w", application.ID, app.ErrInvariantViolation)
		}
		return false, err
	}
	if latest.NewStage != application.Stage {
		return false, fmt.Errorf("application %d is %s but its history ends at %s: %w",
			application.ID, application.Stage, latest.NewStage, app.ErrInvariantViolation)
	}

	now := t.now()
	previous := application.Stage
	entry := &models.StageHistoryEntry{
		ApplicationID: application.ID,
		PreviousStage: &previous,
		NewStage:      next,
		ChangedAt:     now,
	}
	if err := database.InsertStageHistory(ctx, q, entry); err != nil {
		return false, err
	}

	application.Stage = next
	application.StageDate = now
	return true, nil
}

// Create inserts application and seeds its history in one transaction
func (t *Tracker) Create(ctx context.Context, application *models.JobApplication) error {
	if err := validate(application); err != nil {
		return err
	}
	if application.Stage == 0 {
		application.Stage = models.StageNotStarted
	}

	now := t.now()
	application.CreatedAt, application.UpdatedAt, application.StageDate = now, now, now

	err := t.store.WithTx(ctx, func(tx database.DBTX) error {
		if err := database.InsertApplication(ctx, tx, application); err != nil {
			return err
		}
		return t.Seed(ctx, tx, application)
	})
	if err != nil {
		return err
	}

	t.logger.InfoContext(ctx, "application created",
		slog.Int64("application_id", application.ID),
		slog.String("company", application.CompanyName),
		slog.String("stage", application.Stage.String()))
	return nil
}

// Update applies the non-nil fields of upd. A stage change is recorded in the
// history within the same transaction.
func (t *Tracker) Update(ctx context.Context, id int64, upd models.ApplicationUpdate) (*models.JobApplication, error) {
	var updated *models.JobApplication
	var changed bool
	var previous models.Stage

	err := t.store.WithTx(ctx, func(tx database.DBTX) error {
		application, err := database.GetApplication(ctx, tx, id)
		if err != nil {
			return err
		}
		previous = application.Stage

		applyUpdate(application, upd)
		if err := validate(application); err != nil {
			return err
		}
		if upd.Stage != nil {
			changed, err = t.RecordTransition(ctx, tx, application, *upd.Stage)
			if err != nil {
				return err
			}
		}

		application.UpdatedAt = t.now()
		if err := database.SaveApplication(ctx, tx, application); err != nil {
			return err
		}
		updated = application
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		t.logger.InfoContext(ctx, "application stage changed",
			slog.Int64("application_id", id),
			slog.String("from", previous.String()),
			slog.String("to", updated.Stage.String()))
	}
	return updated, nil
}

func (t *Tracker) Get(ctx context.Context, id int64) (*models.JobApplication, error) {
	return database.GetApplication(ctx, t.store.DB(), id)
}

func (t *Tracker) List(ctx context.Context, opts database.ApplicationListOptions) ([]*models.JobApplication, error) {
	return database.ListApplications(ctx, t.store.DB(), opts)
}

// Delete removes an application; its history goes with it
func (t *Tracker) Delete(ctx context.Context, id int64) error {
	if err := database.DeleteApplication(ctx, t.store.DB(), id); err != nil {
		return err
	}
	t.logger.InfoContext(ctx, "application deleted", slog.Int64("application_id", id))
	return nil
}

// History returns the stage history of an application, oldest first
func (t *Tracker) History(ctx context.Context, id int64) ([]*models.StageHistoryEntry, error) {
	q := t.store.DB()
	if _, err := database.GetApplication(ctx, q, id); err != nil {
		return nil, err
	}
	return database.ListStageHistory(ctx, q, id)
}

// StageCounts returns how many applications sit in each stage
func (t *Tracker) StageCounts(ctx context.Context) (map[models.Stage]int, error) {
	return database.StageCounts(ctx, t.store.DB())
}

func applyUpdate(a *models.JobApplication, upd models.ApplicationUpdate) {
	if upd.CompanyName != nil {
		a.CompanyName = *upd.CompanyName
	}
	if upd.RoleName != nil {
		a.RoleName = *upd.RoleName
	}
	if upd.JobAd != nil {
		a.JobAd = upd.JobAd
	}
	if upd.CoverLetter != nil {
		a.CoverLetter = upd.CoverLetter
	}
	if upd.Notes != nil {
		a.Notes = upd.Notes
	}
	if upd.MatchPercentage != nil {
		a.MatchPercentage = upd.MatchPercentage
	}
	if upd.MatchReasoning != nil {
		a.MatchReasoning = upd.MatchReasoning
	}
	if upd.AdditionalInfo != nil {
		a.AdditionalInfo = upd.AdditionalInfo
	}
}

func validate(a *models.JobApplication) error {
	if strings.TrimSpace(a.CompanyName) == "" {
		return fmt.Errorf("company name is required: %w", app.ErrInvalidArgument)
	}
	if strings.TrimSpace(a.RoleName) == "" {
		return fmt.Errorf("role name is required: %w", app.ErrInvalidArgument)
	}
	if a.Stage != 0 && !a.Stage.Valid() {
		return fmt.Errorf("stage %d: %w", a.Stage, app.ErrInvalidArgument)
	}
	if p := a.MatchPercentage; p != nil && (*p < 0 || *p > 100) {
		return fmt.Errorf("match percentage %v out of range 0-100: %w", *p, app.ErrInvalidArgument)
	}
	return nil
}
