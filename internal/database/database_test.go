package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/khrees2412/prospector/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore creates a temporary test database
func createTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open test db")
	t.Cleanup(func() { store.Close() })
	return store
}

func newApplication(company string, stage models.Stage) *models.JobApplication {
	now := time.Now().UTC()
	return &models.JobApplication{
		CompanyName: company,
		RoleName:    "Backend Engineer",
		Stage:       stage,
		StageDate:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestResumeActivation(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	q := store.DB()

	_, err := GetActiveResume(ctx, q)
	assert.ErrorIs(t, err, ErrNotFound)

	first := &models.Resume{Content: "first", IsActive: true}
	second := &models.Resume{Content: "second", Filename: models.StringPtr("cv.txt")}
	require.NoError(t, InsertResume(ctx, q, first))
	require.NoError(t, InsertResume(ctx, q, second))

	active, err := GetActiveResume(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	now := time.Now().UTC()
	require.NoError(t, DeactivateAllResumes(ctx, q, now))
	require.NoError(t, ActivateResume(ctx, q, second.ID, now))

	active, err = GetActiveResume(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, "cv.txt", models.Deref(active.Filename))

	n, err := CountActiveResumes(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, ActivateResume(ctx, q, 9999, now), ErrNotFound)
}

func TestListLeadsSortByMatch(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	q := store.DB()

	low, high := 20.0, 90.0
	leads := []*models.JobLead{
		{JobPosting: "unranked"},
		{JobPosting: "low", MatchPercentage: &low},
		{JobPosting: "high", MatchPercentage: &high},
	}
	for _, l := range leads {
		require.NoError(t, InsertLead(ctx, q, l))
	}

	got, err := ListLeads(ctx, q, LeadListOptions{SortByMatch: true})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "high", got[0].JobPosting)
	assert.Equal(t, "low", got[1].JobPosting)
	assert.Equal(t, "unranked", got[2].JobPosting, "unranked leads sort last")
}

func TestMarkLeadPromotedOnce(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	q := store.DB()

	lead := &models.JobLead{JobPosting: "posting", CompanyName: models.StringPtr("Acme")}
	require.NoError(t, InsertLead(ctx, q, lead))
	app := newApplication("Acme", models.StageNotStarted)
	require.NoError(t, InsertApplication(ctx, q, app))

	now := time.Now().UTC()
	require.NoError(t, MarkLeadPromoted(ctx, q, lead.ID, app.ID, now))
	assert.ErrorIs(t, MarkLeadPromoted(ctx, q, lead.ID, app.ID, now), ErrNotFound)

	got, err := GetLead(ctx, q, lead.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPromoted)
	require.NotNil(t, got.PromotedToApplicationID)
	assert.Equal(t, app.ID, *got.PromotedToApplicationID)

	promoted := false
	open, err := ListLeads(ctx, q, LeadListOptions{Promoted: &promoted})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestApplicationRoundTrip(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	q := store.DB()

	app := newApplication("Acme Inc", models.StageApplied)
	app.AdditionalInfo = map[string]any{"location": "Remote"}
	app.Notes = models.StringPtr("referred by a friend")
	require.NoError(t, InsertApplication(ctx, q, app))

	got, err := GetApplication(ctx, q, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageApplied, got.Stage)
	assert.Equal(t, "Remote", got.AdditionalInfo["location"])
	assert.Equal(t, "referred by a friend", models.Deref(got.Notes))
	assert.Nil(t, got.CoverLetter)
	assert.True(t, app.StageDate.Equal(got.StageDate))

	stage := models.StageApplied
	list, err := ListApplications(ctx, q, ApplicationListOptions{Stage: &stage})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = GetApplication(ctx, q, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestDeleteApplicationCascade tests that history is deleted with its application
func TestDeleteApplicationCascade(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	q := store.DB()

	app := newApplication("Test Company", models.StageNotStarted)
	require.NoError(t, InsertApplication(ctx, q, app))
	require.NoError(t, InsertStageHistory(ctx, q, &models.StageHistoryEntry{
		ApplicationID: app.ID,
		NewStage:      models.StageNotStarted,
		ChangedAt:     app.CreatedAt,
	}))

	entries, err := ListStageHistory(ctx, q, app.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].PreviousStage)

	require.NoError(t, DeleteApplication(ctx, q, app.ID))

	entries, err = ListStageHistory(ctx, q, app.ID)
	require.NoError(t, err)
	assert.Empty(t, entries, "history should be deleted when the application is deleted")
}

// TestForeignKeyConstraint verifies foreign keys are enabled
func TestForeignKeyConstraint(t *testing.T) {
	store := createTestStore(t)

	_, err := store.DB().ExecContext(context.Background(), `
		INSERT INTO stage_history (job_application_id, new_stage, changed_at) VALUES (99999, 'applied', ?)
	`, time.Now().UTC())
	assert.Error(t, err, "should have failed due to foreign key constraint")
}

func TestWithTxRollsBack(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx DBTX) error {
		if err := InsertResume(ctx, tx, &models.Resume{Content: "doomed"}); err != nil {
			return err
		}
		return ErrNotFound
	})
	assert.ErrorIs(t, err, ErrNotFound)

	resumes, err := ListResumes(ctx, store.DB())
	require.NoError(t, err)
	assert.Empty(t, resumes)
}

// BenchmarkInsertLead benchmarks lead creation
func BenchmarkInsertLead(b *testing.B) {
	store, err := Open(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatalf("failed to open bench db: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		InsertLead(ctx, store.DB(), &models.JobLead{JobPosting: "Go developer wanted"})
	}
}

func TestLeadStats(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	q := store.DB()

	st, err := GetLeadStats(ctx, q)
	require.NoError(t, err)
	assert.Zero(t, st.Total)
	assert.Nil(t, st.AverageMatch)

	for _, posting := range []string{"a", "b", "c"} {
		require.NoError(t, InsertLead(ctx, q, &models.JobLead{JobPosting: posting}))
	}
	require.NoError(t, UpdateLeadMatch(ctx, q, 1, 80, "good"))
	require.NoError(t, UpdateLeadMatch(ctx, q, 2, 40, "weak"))

	app := newApplication("Acme", models.StageNotStarted)
	require.NoError(t, InsertApplication(ctx, q, app))
	require.NoError(t, MarkLeadPromoted(ctx, q, 1, app.ID, time.Now().UTC()))

	st, err = GetLeadStats(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Ranked)
	assert.Equal(t, 1, st.Promoted)
	require.NotNil(t, st.AverageMatch)
	assert.InDelta(t, 60.0, *st.AverageMatch, 0.001)
}
