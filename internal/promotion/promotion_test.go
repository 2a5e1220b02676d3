package promotion

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/khrees2412/prospector/internal/ai"
	"github.com/khrees2412/prospector/internal/app"
	"github.com/khrees2412/prospector/internal/database"
	"github.com/khrees2412/prospector/internal/tracker"
	"github.com/khrees2412/prospector/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	fields *ai.ExtractedFields
	err    error
	calls  int
}

func (f *fakeExtractor) ExtractFields(ctx context.Context, jobPosting string) (*ai.ExtractedFields, error) {
	f.calls++
	return f.fields, f.err
}

func setup(t *testing.T, ext FieldExtractor) (*Workflow, *database.Store) {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open test db")
	t.Cleanup(func() { store.Close() })
	return New(store, tracker.New(store, nil), ext, nil), store
}

func insertLead(t *testing.T, store *database.Store, company, role string) *models.JobLead {
	t.Helper()
	pct := 82.0
	lead := &models.JobLead{
		CompanyName:     models.StringPtr(company),
		RoleName:        models.StringPtr(role),
		JobPosting:      "We are hiring a backend engineer to build APIs in Go.",
		URL:             models.StringPtr("https://boards.greenhouse.io/acme/jobs/1"),
		MatchPercentage: &pct,
		MatchReasoning:  models.StringPtr("Strong Go background"),
	}
	require.NoError(t, database.InsertLead(context.Background(), store.DB(), lead))
	return lead
}

func TestPromoteMergesFields(t *testing.T) {
	tests := []struct {
		name        string
		leadCompany string
		leadRole    string
		extracted   *ai.ExtractedFields
		wantCompany string
		wantRole    string
	}{
		{
			name:        "lead fills unknown extraction",
			leadCompany: "Acme",
			leadRole:    "Backend Engineer",
			extracted:   &ai.ExtractedFields{CompanyName: ai.Unknown, RoleName: ai.Unknown},
			wantCompany: "Acme",
			wantRole:    "Backend Engineer",
		},
		{
			name:        "extraction wins when valid",
			leadCompany: "acme",
			leadRole:    "Engineer",
			extracted:   &ai.ExtractedFields{CompanyName: "Acme Corp", RoleName: "Senior Backend Engineer"},
			wantCompany: "Acme Corp",
			wantRole:    "Senior Backend Engineer",
		},
		{
			name:        "nothing known anywhere",
			extracted:   &ai.ExtractedFields{CompanyName: ai.Unknown, RoleName: ""},
			wantCompany: ai.Unknown,
			wantRole:    ai.Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf, store := setup(t, &fakeExtractor{fields: tt.extracted})
			lead := insertLead(t, store, tt.leadCompany, tt.leadRole)

			res, err := wf.Promote(context.Background(), lead.ID)
			require.NoError(t, err)
			assert.False(t, res.ExtractionFailed)
			assert.Equal(t, tt.wantCompany, res.Application.CompanyName)
			assert.Equal(t, tt.wantRole, res.Application.RoleName)
		})
	}
}

func TestPromoteCreatesApplication(t *testing.T) {
	ext := &fakeExtractor{fields: &ai.ExtractedFields{
		CompanyName:      "Acme",
		RoleName:         "Backend Engineer",
		ExtractedContent: "Build APIs in Go",
		AdditionalInfo:   map[string]any{"location": "Berlin"},
	}}
	wf, store := setup(t, ext)
	ctx := context.Background()
	lead := insertLead(t, store, "Acme", "")

	res, err := wf.Promote(ctx, lead.ID)
	require.NoError(t, err)

	got, err := database.GetApplication(ctx, store.DB(), res.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageNotStarted, got.Stage)
	assert.Equal(t, lead.JobPosting, models.Deref(got.JobAd))
	assert.Equal(t, "Promoted from job lead #1", models.Deref(got.Notes))
	require.NotNil(t, got.MatchPercentage)
	assert.Equal(t, 82.0, *got.MatchPercentage)
	assert.Equal(t, "Strong Go background", models.Deref(got.MatchReasoning))
	assert.Equal(t, "Berlin", got.AdditionalInfo["location"])
	assert.Equal(t, "Build APIs in Go", got.AdditionalInfo["extracted_content"])

	history, err := database.ListStageHistory(ctx, store.DB(), got.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].PreviousStage)
	assert.Equal(t, models.StageNotStarted, history[0].NewStage)

	promoted, err := database.GetLead(ctx, store.DB(), lead.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsPromoted)
	require.NotNil(t, promoted.PromotedToApplicationID)
	assert.Equal(t, got.ID, *promoted.PromotedToApplicationID)
	assert.Equal(t, promoted.PromotedToApplicationID, res.Lead.PromotedToApplicationID)
}

func TestPromoteFallsBackWhenExtractionFails(t *testing.T) {
	ext := &fakeExtractor{err: &ai.TransportError{Err: errors.New("connection refused")}}
	wf, store := setup(t, ext)
	lead := insertLead(t, store, "Acme", "Backend Engineer")

	res, err := wf.Promote(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.True(t, res.ExtractionFailed)
	assert.Equal(t, "Acme", res.Application.CompanyName)
	assert.Equal(t, "Backend Engineer", res.Application.RoleName)
	assert.Nil(t, res.Application.AdditionalInfo)
	assert.True(t, res.Lead.IsPromoted)
}

func TestPromoteMissingLead(t *testing.T) {
	ext := &fakeExtractor{}
	wf, _ := setup(t, ext)

	_, err := wf.Promote(context.Background(), 42)
	assert.ErrorIs(t, err, app.ErrNotFound)
	assert.Zero(t, ext.calls)
}

func TestPromoteTwice(t *testing.T) {
	ext := &fakeExtractor{fields: &ai.ExtractedFields{CompanyName: "Acme", RoleName: "SRE"}}
	wf, store := setup(t, ext)
	ctx := context.Background()
	lead := insertLead(t, store, "Acme", "SRE")

	_, err := wf.Promote(ctx, lead.ID)
	require.NoError(t, err)

	_, err = wf.Promote(ctx, lead.ID)
	assert.ErrorIs(t, err, app.ErrAlreadyPromoted)
	assert.Equal(t, 1, ext.calls)

	apps, err := database.ListApplications(ctx, store.DB(), database.ApplicationListOptions{})
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestMerge(t *testing.T) {
	assert.Equal(t, "Acme", merge("Acme", "Other"))
	assert.Equal(t, "Other", merge("unknown", "Other"))
	assert.Equal(t, "Other", merge("  ", " Other "))
	assert.Equal(t, ai.Unknown, merge("", ""))
}
