package resume

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

// Registry keeps track of which resume is active. At most one resume is
// active at any time and only the registry flips the flag.
type Registry struct {
	store  *database.Store
	logger *slog.Logger
}

func NewRegistry(store *database.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, logger: logger}
}

// SetActive makes id the only active resume. An unknown id leaves the
// previously active resume in place.
func (r *Registry) SetActive(ctx context.Context, id int64) (*models.Resume, error) {
	var active *models.Resume
	err := r.store.WithTx(ctx, func(tx database.DBTX) error {
		if err := activate(ctx, tx, id, time.Now().UTC()); err != nil {
			return err
		}
		var err error
		active, err = database.GetResume(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "active resume changed", slog.Int64("resume_id", id))
	return active, nil
}

// CreateAsActive stores resume and makes it the active one
func (r *Registry) CreateAsActive(ctx context.Context, resume *models.Resume) error {
	if err := validate(resume); err != nil {
		return err
	}
	err := r.store.WithTx(ctx, func(tx database.DBTX) error {
		if err := database.DeactivateAllResumes(ctx, tx, time.Now().UTC()); err != nil {
			return err
		}
		resume.IsActive = true
		if err := database.InsertResume(ctx, tx, resume); err != nil {
			return err
		}
		return assertSingleActive(ctx, tx)
	})
	if err != nil {
		resume.IsActive = false
		return err
	}

	r.logger.InfoContext(ctx, "resume stored",
		slog.Int64("resume_id", resume.ID),
		slog.Bool("active", true))
	return nil
}

// Create stores resume without activating it
func (r *Registry) Create(ctx context.Context, resume *models.Resume) error {
	if err := validate(resume); err != nil {
		return err
	}
	resume.IsActive = false
	if err := database.InsertResume(ctx, r.store.DB(), resume); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "resume stored",
		slog.Int64("resume_id", resume.ID),
		slog.Bool("active", false))
	return nil
}

// Update applies upd to resume id in one transaction. IsActive true goes through
// the same deactivate-all sequence as SetActive; false just clears the flag.
func (r *Registry) Update(ctx context.Context, id int64, upd models.ResumeUpdate) (*models.Resume, error) {
	var resume *models.Resume
	err := r.store.WithTx(ctx, func(tx database.DBTX) error {
		var err error
		resume, err = database.GetResume(ctx, tx, id)
		if err != nil {
			return err
		}
		if upd.Content != nil {
			resume.Content = *upd.Content
		}
		if upd.Filename != nil {
			resume.Filename = models.StringPtr(*upd.Filename)
		}
		if err := validate(resume); err != nil {
			return err
		}

		now := time.Now().UTC()
		resume.UpdatedAt = now
		if err := database.SaveResume(ctx, tx, resume); err != nil {
			return err
		}

		switch {
		case upd.IsActive == nil:
		case *upd.IsActive:
			if err := activate(ctx, tx, id, now); err != nil {
				return err
			}
		case resume.IsActive:
			if err := database.DeactivateResume(ctx, tx, id, now); err != nil {
				return err
			}
		}
		resume, err = database.GetResume(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "resume updated",
		slog.Int64("resume_id", id),
		slog.Bool("active", resume.IsActive))
	return resume, nil
}

// GetActive returns the active resume or app.ErrNoActiveResume
func (r *Registry) GetActive(ctx context.Context) (*models.Resume, error) {
	resume, err := database.GetActiveResume(ctx, r.store.DB())
	if errors.Is(err, database.ErrNotFound) {
		return nil, app.ErrNoActiveResume
	}
	return resume, err
}

func (r *Registry) Get(ctx context.Context, id int64) (*models.Resume, error) {
	return database.GetResume(ctx, r.store.DB(), id)
}

func (r *Registry) List(ctx context.Context) ([]*models.Resume, error) {
	return database.ListResumes(ctx, r.store.DB())
}

// Delete removes a resume. Deleting the active one leaves no resume active.
func (r *Registry) Delete(ctx context.Context, id int64) error {
	if err := database.DeleteResume(ctx, r.store.DB(), id); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "resume deleted", slog.Int64("resume_id", id))
	return nil
}

// activate runs deactivate-all then activate inside tx and checks exactly one resume is active
func activate(ctx context.Context, tx database.DBTX, id int64, now time.Time) error {
	if err := database.DeactivateAllResumes(ctx, tx, now); err != nil {
		return err
	}
	if err := database.ActivateResume(ctx, tx, id, now); err != nil {
		return err
	}
	return assertSingleActive(ctx, tx)
}

func assertSingleActive(ctx context.Context, q database.DBTX) error {
	n, err := database.CountActiveResumes(ctx, q)
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%d active resumes after activation: %w", n, app.ErrInvariantViolation)
	}
	return nil
}

func validate(resume *models.Resume) error {
	if strings.TrimSpace(resume.Content) == "" {
		return fmt.Errorf("resume content is required: %w", app.ErrInvalidArgument)
	}
	return nil
}
