package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/khrees2412/prospector/internal/ai"
	"github.com/khrees2412/prospector/internal/app"
	"github.com/khrees2412/prospector/internal/database"
	"github.com/khrees2412/prospector/internal/resume"
	"github.com/khrees2412/prospector/pkg/models"
)

// MatchAnalyzer scores a posting against a resume
type MatchAnalyzer interface {
	AnalyzeMatch(ctx context.Context, jobPosting, resume string) (*ai.MatchResult, error)
}

// RankStatus says what happened to the ranking of a newly created lead
type RankStatus string

const (
	RankCreated RankStatus = "ranked"
	RankSkipped RankStatus = "skipped"
	RankFailed  RankStatus = "failed"
)

// CreateOutcome is returned by CreateLead. The lead is stored whatever the rank status.
type CreateOutcome struct {
	Lead       *models.JobLead `json:"lead"`
	RankStatus RankStatus      `json:"rank_status"`
	RankErr    error           `json:"-"`
}

// Batch statuses
const (
	BatchSuccess  = "success"
	BatchNotFound = "not_found"
	BatchError    = "error"
)

// BatchResult is the outcome for one lead of RankBatch
type BatchResult struct {
	LeadID          int64    `json:"lead_id"`
	Status          string   `json:"status"`
	MatchPercentage *float64 `json:"match_percentage,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Options bounds RankBatch
type Options struct {
	Concurrency       int
	RequestsPerSecond float64
}

// Ranker scores job leads against a resume and stores the result on the lead
type Ranker struct {
	store    *database.Store
	registry *resume.Registry
	analyzer MatchAnalyzer
	opts     Options
	logger   *slog.Logger
}

func New(store *database.Store, registry *resume.Registry, analyzer MatchAnalyzer, opts Options, logger *slog.Logger) *Ranker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{store: store, registry: registry, analyzer: analyzer, opts: opts, logger: logger}
}

// Rank analyzes lead leadID against resumeID, or the active resume when resumeID is nil
func (r *Ranker) Rank(ctx context.Context, leadID int64, resumeID *int64) (*models.JobLead, error) {
	lead, err := database.GetLead(ctx, r.store.DB(), leadID)
	if err != nil {
		return nil, err
	}
	res, err := r.resolveResume(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	return r.rankLead(ctx, lead, res)
}

// CreateLead stores lead and, when rank is set, analyzes it against the active resume.
// Ranking problems are reported in the outcome; only storage errors fail the call.
func (r *Ranker) CreateLead(ctx context.Context, lead *models.JobLead, rank bool) (*CreateOutcome, error) {
	if strings.TrimSpace(lead.JobPosting) == "" {
		return nil, fmt.Errorf("job posting is required: %w", app.ErrInvalidArgument)
	}
	lead.IsPromoted = false
	lead.PromotedToApplicationID = nil
	lead.MatchPercentage, lead.MatchReasoning = nil, nil

	if err := database.InsertLead(ctx, r.store.DB(), lead); err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "job lead created", slog.Int64("lead_id", lead.ID))

	out := &CreateOutcome{Lead: lead, RankStatus: RankSkipped}
	if !rank {
		return out, nil
	}

	active, err := r.registry.GetActive(ctx)
	if errors.Is(err, app.ErrNoActiveResume) {
		r.logger.InfoContext(ctx, "no active resume, lead left unranked", slog.Int64("lead_id", lead.ID))
		return out, nil
	}
	if err == nil {
		var ranked *models.JobLead
		if ranked, err = r.rankLead(ctx, lead, active); err == nil {
			out.Lead = ranked
			out.RankStatus = RankCreated
			return out, nil
		}
	}

	r.logger.WarnContext(ctx, "ranking new lead failed",
		slog.Int64("lead_id", lead.ID),
		slog.Any("error", err))
	out.RankStatus = RankFailed
	out.RankErr = err
	return out, nil
}

// RankBatch ranks leadIDs against the active resume with bounded concurrency and
// request rate. A failing lead never stops the others; results keep the input order.
func (r *Ranker) RankBatch(ctx context.Context, leadIDs []int64) ([]BatchResult, error) {
	active, err := r.registry.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if r.opts.RequestsPerSecond > 0 {
		limit = rate.Limit(r.opts.RequestsPerSecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	results := make([]BatchResult, len(leadIDs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, id := range leadIDs {
		g.Go(func() error {
			results[i] = r.rankOne(gCtx, limiter, id, active)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := 0
	for _, res := range results {
		if res.Status == BatchSuccess {
			ranked++
		}
	}
	r.logger.InfoContext(ctx, "batch ranking finished",
		slog.Int("requested", len(leadIDs)),
		slog.Int("ranked", ranked))

	return results, ctx.Err()
}

func (r *Ranker) rankOne(ctx context.Context, limiter *rate.Limiter, id int64, active *models.Resume) BatchResult {
	result := BatchResult{LeadID: id}

	lead, err := database.GetLead(ctx, r.store.DB(), id)
	if errors.Is(err, database.ErrNotFound) {
		result.Status = BatchNotFound
		return result
	}
	if err == nil {
		err = limiter.Wait(ctx)
	}
	if err == nil {
		lead, err = r.rankLead(ctx, lead, active)
	}
	if err != nil {
		r.logger.WarnContext(ctx, "ranking lead failed",
			slog.Int64("lead_id", id),
			slog.Any("error", err))
		result.Status = BatchError
		result.Error = err.Error()
		return result
	}

	result.Status = BatchSuccess
	result.MatchPercentage = lead.MatchPercentage
	return result
}

func (r *Ranker) rankLead(ctx context.Context, lead *models.JobLead, res *models.Resume) (*models.JobLead, error) {
	if strings.TrimSpace(lead.JobPosting) == "" || strings.TrimSpace(res.Content) == "" {
		return nil, fmt.Errorf("posting and resume must both have content: %w", app.ErrInvalidArgument)
	}

	match, err := r.analyzer.AnalyzeMatch(ctx, lead.JobPosting, res.Content)
	if err != nil {
		return nil, err
	}
	if err := database.UpdateLeadMatch(ctx, r.store.DB(), lead.ID, match.MatchPercentage, match.Reasoning); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "job lead ranked",
		slog.Int64("lead_id", lead.ID),
		slog.Int64("resume_id", res.ID),
		slog.Float64("match_percentage", match.MatchPercentage))

	return database.GetLead(ctx, r.store.DB(), lead.ID)
}

func (r *Ranker) resolveResume(ctx context.Context, resumeID *int64) (*models.Resume, error) {
	if resumeID != nil {
		return r.registry.Get(ctx, *resumeID)
	}
	return r.registry.GetActive(ctx)
}

func (r *Ranker) Lead(ctx context.Context, id int64) (*models.JobLead, error) {
	return database.GetLead(ctx, r.store.DB(), id)
}

func (r *Ranker) Leads(ctx context.Context, opts database.LeadListOptions) ([]*models.JobLead, error) {
	return database.ListLeads(ctx, r.store.DB(), opts)
}

// UpdateLead edits the captured fields of a lead. A changed posting clears the
// match result since it no longer describes the stored text.
func (r *Ranker) UpdateLead(ctx context.Context, id int64, upd models.LeadUpdate) (*models.JobLead, error) {
	var lead *models.JobLead
	err := r.store.WithTx(ctx, func(tx database.DBTX) error {
		var err error
		lead, err = database.GetLead(ctx, tx, id)
		if err != nil {
			return err
		}
		if upd.CompanyName != nil {
			lead.CompanyName = models.StringPtr(strings.TrimSpace(*upd.CompanyName))
		}
		if upd.RoleName != nil {
			lead.RoleName = models.StringPtr(strings.TrimSpace(*upd.RoleName))
		}
		if upd.URL != nil {
			lead.URL = models.StringPtr(strings.TrimSpace(*upd.URL))
		}
		if upd.JobPosting != nil {
			if strings.TrimSpace(*upd.JobPosting) == "" {
				return fmt.Errorf("job posting is required: %w", app.ErrInvalidArgument)
			}
			if *upd.JobPosting != lead.JobPosting {
				lead.MatchPercentage, lead.MatchReasoning = nil, nil
			}
			lead.JobPosting = *upd.JobPosting
		}
		lead.UpdatedAt = time.Now().UTC()
		return database.SaveLead(ctx, tx, lead)
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "job lead updated", slog.Int64("lead_id", id))
	return lead, nil
}

func (r *Ranker) LeadStats(ctx context.Context) (*database.LeadStats, error) {
	return database.GetLeadStats(ctx, r.store.DB())
}

// DeleteLead removes a lead. An application it was promoted into is kept.
func (r *Ranker) DeleteLead(ctx context.Context, id int64) error {
	if err := database.DeleteLead(ctx, r.store.DB(), id); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "job lead deleted", slog.Int64("lead_id", id))
	return nil
}
