package promotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/khrees2412/prospector/internal/ai"
	"github.com/khrees2412/prospector/internal/app"
	"github.com/khrees2412/prospector/internal/database"
	"github.com/khrees2412/prospector/internal/tracker"
	"github.com/khrees2412/prospector/pkg/models"
)

// FieldExtractor pulls structured fields out of a posting
type FieldExtractor interface {
	ExtractFields(ctx context.Context, jobPosting string) (*ai.ExtractedFields, error)
}

// Result describes a completed promotion
type Result struct {
	Application *models.JobApplication `json:"application"`
	Lead        *models.JobLead        `json:"lead"`
	// ExtractionFailed is set when the application was built from lead data only
	ExtractionFailed bool `json:"extraction_failed"`
}

// Workflow turns a job lead into a tracked application
type Workflow struct {
	store     *database.Store
	tracker   *tracker.Tracker
	extractor FieldExtractor
	logger    *slog.Logger
	now       func() time.Time
}

func New(store *database.Store, tr *tracker.Tracker, extractor FieldExtractor, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		store:     store,
		tracker:   tr,
		extractor: extractor,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Promote creates an application from lead leadID and marks the lead promoted.
// A failed extraction is logged and the lead's own fields are used instead.
func (w *Workflow) Promote(ctx context.Context, leadID int64) (*Result, error) {
	lead, err := database.GetLead(ctx, w.store.DB(), leadID)
	if err != nil {
		return nil, err
	}
	if lead.IsPromoted {
		return nil, fmt.Errorf("job lead %d: %w", leadID, app.ErrAlreadyPromoted)
	}

	fields, err := w.extractor.ExtractFields(ctx, lead.JobPosting)
	extractionFailed := err != nil
	if err != nil {
		w.logger.WarnContext(ctx, "field extraction failed, promoting with lead data only",
			slog.Int64("lead_id", leadID),
			slog.Any("error", err))
		fields = nil
	}

	now := w.now()
	application := buildApplication(lead, fields, now)

	err = w.store.WithTx(ctx, func(tx database.DBTX) error {
		if err := database.InsertApplication(ctx, tx, application); err != nil {
			return err
		}
		if err := w.tracker.Seed(ctx, tx, application); err != nil {
			return err
		}
		err := database.MarkLeadPromoted(ctx, tx, lead.ID, application.ID, now)
		if errors.Is(err, database.ErrNotFound) {
			// promoted or deleted between the read and this transaction
			return fmt.Errorf("job lead %d: %w", leadID, app.ErrAlreadyPromoted)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	lead.IsPromoted = true
	lead.PromotedToApplicationID = &application.ID
	lead.UpdatedAt = now

	w.logger.InfoContext(ctx, "job lead promoted",
		slog.Int64("lead_id", leadID),
		slog.Int64("application_id", application.ID),
		slog.String("company", application.CompanyName),
		slog.Bool("extraction_failed", extractionFailed))

	return &Result{Application: application, Lead: lead, ExtractionFailed: extractionFailed}, nil
}

func buildApplication(lead *models.JobLead, fields *ai.ExtractedFields, now time.Time) *models.JobApplication {
	var extractedCompany, extractedRole string
	var info map[string]any
	if fields != nil {
		extractedCompany, extractedRole = fields.CompanyName, fields.RoleName
		if len(fields.AdditionalInfo) > 0 || fields.ExtractedContent != "" {
			info = make(map[string]any, len(fields.AdditionalInfo)+1)
			maps.Copy(info, fields.AdditionalInfo)
			if fields.ExtractedContent != "" {
				info["extracted_content"] = fields.ExtractedContent
			}
		}
	}

	jobAd := lead.JobPosting
	return &models.JobApplication{
		CompanyName:     merge(extractedCompany, models.Deref(lead.CompanyName)),
		RoleName:        merge(extractedRole, models.Deref(lead.RoleName)),
		Stage:           models.StageNotStarted,
		StageDate:       now,
		JobAd:           &jobAd,
		Notes:           models.StringPtr(fmt.Sprintf("Promoted from job lead #%d", lead.ID)),
		MatchPercentage: lead.MatchPercentage,
		MatchReasoning:  lead.MatchReasoning,
		AdditionalInfo:  info,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// merge prefers a usable extracted value, then the lead's value, then "Unknown"
func merge(extracted, fromLead string) string {
	if usable(extracted) {
		return strings.TrimSpace(extracted)
	}
	if strings.TrimSpace(fromLead) != "" {
		return strings.TrimSpace(fromLead)
	}
	return ai.Unknown
}

func usable(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.EqualFold(s, ai.Unknown)
}
