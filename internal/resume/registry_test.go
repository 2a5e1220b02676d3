package resume

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/khrees2412/prospector/internal/app"
	"github.com/khrees2412/prospector/internal/database"
	"github.com/khrees2412/prospector/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *database.Store) {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open test db")
	t.Cleanup(func() { store.Close() })
	return NewRegistry(store, nil), store
}

func activeCount(t *testing.T, store *database.Store) int {
	t.Helper()
	n, err := database.CountActiveResumes(context.Background(), store.DB())
	require.NoError(t, err)
	return n
}

func TestGetActiveWithoutResumes(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.GetActive(context.Background())
	assert.ErrorIs(t, err, app.ErrNoActiveResume)
	assert.ErrorIs(t, err, app.ErrNotFound)
}

func TestCreateAsActiveSwitchesActive(t *testing.T) {
	reg, store := newTestRegistry(t)
	ctx := context.Background()

	first := &models.Resume{Content: "Go developer"}
	second := &models.Resume{Content: "Platform engineer", Filename: models.StringPtr("platform.txt")}
	third := &models.Resume{Content: "Data engineer"}

	require.NoError(t, reg.CreateAsActive(ctx, first))
	require.NoError(t, reg.CreateAsActive(ctx, second))
	require.NoError(t, reg.Create(ctx, third))

	active, err := reg.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, 1, activeCount(t, store))

	active, err = reg.SetActive(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)
	assert.True(t, active.IsActive)

	resumes, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, resumes, 3)
	for _, r := range resumes {
		assert.Equal(t, r.ID == first.ID, r.IsActive, "resume %d", r.ID)
	}
}

func TestSetActiveUnknownIDRollsBack(t *testing.T) {
	reg, store := newTestRegistry(t)
	ctx := context.Background()

	current := &models.Resume{Content: "Go developer"}
	require.NoError(t, reg.CreateAsActive(ctx, current))

	_, err := reg.SetActive(ctx, current.ID+100)
	assert.ErrorIs(t, err, app.ErrNotFound)

	active, err := reg.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, current.ID, active.ID)
	assert.Equal(t, 1, activeCount(t, store))
}

func TestSetActiveConcurrent(t *testing.T) {
	reg, store := newTestRegistry(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 4; i++ {
		r := &models.Resume{Content: "resume"}
		require.NoError(t, reg.Create(ctx, r))
		ids = append(ids, r.ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := reg.SetActive(ctx, id)
			errs <- err
		}(ids[i%len(ids)])
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, activeCount(t, store))
}

func TestCreateRejectsEmptyContent(t *testing.T) {
	reg, store := newTestRegistry(t)
	ctx := context.Background()

	assert.ErrorIs(t, reg.CreateAsActive(ctx, &models.Resume{Content: "   "}), app.ErrInvalidArgument)
	assert.ErrorIs(t, reg.Create(ctx, &models.Resume{}), app.ErrInvalidArgument)
	assert.Zero(t, activeCount(t, store))
}

func TestDeleteActiveLeavesNoneActive(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	r := &models.Resume{Content: "Go developer"}
	require.NoError(t, reg.CreateAsActive(ctx, r))
	require.NoError(t, reg.Delete(ctx, r.ID))

	_, err := reg.GetActive(ctx)
	assert.ErrorIs(t, err, app.ErrNoActiveResume)
	assert.ErrorIs(t, reg.Delete(ctx, r.ID), app.ErrNotFound)
}

func TestUpdateEditsContentAndActivates(t *testing.T) {
	reg, store := newTestRegistry(t)
	ctx := context.Background()

	first := &models.Resume{Content: "Go developer"}
	second := &models.Resume{Content: "SRE"}
	require.NoError(t, reg.CreateAsActive(ctx, first))
	require.NoError(t, reg.Create(ctx, second))

	content := "Senior SRE, Kubernetes"
	updated, err := reg.Update(ctx, second.ID, models.ResumeUpdate{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, content, updated.Content)
	assert.False(t, updated.IsActive)

	active := true
	updated, err = reg.Update(ctx, second.ID, models.ResumeUpdate{IsActive: &active})
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
	assert.Equal(t, 1, activeCount(t, store))

	got, err := reg.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	inactive := false
	updated, err = reg.Update(ctx, second.ID, models.ResumeUpdate{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 0, activeCount(t, store))
}

func TestUpdateRejectsEmptyContentAndRollsBack(t *testing.T) {
	reg, store := newTestRegistry(t)
	ctx := context.Background()

	first := &models.Resume{Content: "Go developer"}
	second := &models.Resume{Content: "SRE"}
	require.NoError(t, reg.CreateAsActive(ctx, first))
	require.NoError(t, reg.Create(ctx, second))

	empty, active := "  ", true
	_, err := reg.Update(ctx, second.ID, models.ResumeUpdate{Content: &empty, IsActive: &active})
	assert.ErrorIs(t, err, app.ErrInvalidArgument)

	got, err := reg.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 1, activeCount(t, store))

	_, err = reg.Update(ctx, 999, models.ResumeUpdate{IsActive: &active})
	assert.ErrorIs(t, err, app.ErrNotFound)
	assert.Equal(t, 1, activeCount(t, store))
}
