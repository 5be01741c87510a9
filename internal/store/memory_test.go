package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinas/repomatch/internal/domain"
)

func TestMemoryUpsertProjectKeyedOnURL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	first, err := m.UpsertProject(ctx, &domain.Project{
		RepoURL: "https://github.com/acme/widgets",
		Owner:   "acme",
		Name:    "widgets",
		Stars:   10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := m.UpsertProject(ctx, &domain.Project{
		RepoURL: "https://github.com/acme/widgets",
		Owner:   "acme",
		Name:    "widgets",
		Stars:   25,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, 25, second.Stars)

	projects, err := m.ListProjects(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	byURL, err := m.GetProjectByURL(ctx, "https://github.com/acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byURL.ID)
}

func TestMemoryCreateJobAlwaysInserts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	for range 2 {
		_, err := m.CreateJob(ctx, &domain.Job{
			Title: "Backend Engineer",
			URL:   "https://example.com/jobs/1",
		})
		require.NoError(t, err)
	}

	jobs, err := m.ListJobs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.NotEqual(t, jobs[0].ID, jobs[1].ID)
}

func TestMemoryUpsertMatchKeyedOnPair(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	first, err := m.UpsertMatch(ctx, &domain.MatchResult{
		Direction: domain.ProjectToJob,
		ProjectID: "p1",
		JobID:     "j1",
		Score:     40,
	})
	require.NoError(t, err)

	second, err := m.UpsertMatch(ctx, &domain.MatchResult{
		Direction: domain.ProjectToJob,
		ProjectID: "p1",
		JobID:     "j1",
		Score:     85,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 85.0, second.Score)

	matches, err := m.ListMatches(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMemoryDeleteCascadesToMatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	project, err := m.UpsertProject(ctx, &domain.Project{RepoURL: "https://github.com/acme/widgets"})
	require.NoError(t, err)

	job, err := m.CreateJob(ctx, &domain.Job{Title: "Backend Engineer"})
	require.NoError(t, err)

	otherJob, err := m.CreateJob(ctx, &domain.Job{Title: "Frontend Engineer"})
	require.NoError(t, err)

	for _, jobID := range []string{job.ID, otherJob.ID} {
		_, err = m.UpsertMatch(ctx, &domain.MatchResult{
			Direction: domain.ProjectToJob,
			ProjectID: project.ID,
			JobID:     jobID,
			Score:     50,
		})
		require.NoError(t, err)
	}

	require.NoError(t, m.DeleteJob(ctx, job.ID))

	matches, err := m.ListMatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, otherJob.ID, matches[0].JobID)

	require.NoError(t, m.DeleteProject(ctx, project.ID))

	matches, err = m.ListMatches(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryNotFoundKinds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetProject(ctx, "missing")
	assert.True(t, domain.IsKind(err, domain.NotFound))

	_, err = m.GetJob(ctx, "missing")
	assert.True(t, domain.IsKind(err, domain.NotFound))

	_, err = m.GetMatch(ctx, "missing")
	assert.True(t, domain.IsKind(err, domain.NotFound))

	_, err = m.UpdateJob(ctx, &domain.Job{ID: "missing"})
	assert.True(t, domain.IsKind(err, domain.NotFound))

	assert.True(t, domain.IsKind(m.DeleteProject(ctx, "missing"), domain.NotFound))
	assert.True(t, domain.IsKind(m.DeleteJob(ctx, "missing"), domain.NotFound))
}

func TestMemoryAuditAppendOnlyNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.AppendAudit(ctx, &domain.AuditEntry{URL: "https://a.example", Success: true}))
	require.NoError(t, m.AppendAudit(ctx, &domain.AuditEntry{URL: "https://b.example", Success: false, ErrorMessage: "bad status: 503"}))

	entries, err := m.ListAudit(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://b.example", entries[0].URL)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "https://a.example", entries[1].URL)

	limited, err := m.ListAudit(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
