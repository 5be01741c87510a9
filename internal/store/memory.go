package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avelinas/repomatch/internal/domain"
)

// Memory is an in-process Store with the same key semantics as Postgres.
// Listings are returned newest-first.
type Memory struct {
	mu sync.Mutex

	projects []*domain.Project
	jobs     []*domain.Job
	matches  []*domain.MatchResult
	audit    []*domain.AuditEntry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) UpsertProject(_ context.Context, project *domain.Project) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for _, existing := range m.projects {
		if existing.RepoURL == project.RepoURL {
			id, created := existing.ID, existing.CreatedAt
			*existing = *project
			existing.ID = id
			existing.CreatedAt = created
			existing.UpdatedAt = now
			copied := *existing
			return &copied, nil
		}
	}

	stored := *project
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.projects = append(m.projects, &stored)

	copied := stored
	return &copied, nil
}

func (m *Memory) GetProject(_ context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.projects {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, domain.Failf(domain.NotFound, "project %s does not exist", id)
}

func (m *Memory) GetProjectByURL(_ context.Context, repoURL string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.projects {
		if p.RepoURL == repoURL {
			copied := *p
			return &copied, nil
		}
	}
	return nil, domain.Failf(domain.NotFound, "project with url %s does not exist", repoURL)
}

func (m *Memory) ListProjects(_ context.Context, limit int) ([]*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Project, 0, len(m.projects))
	for i := len(m.projects) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		copied := *m.projects[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (m *Memory) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.projects {
		if p.ID == id {
			m.projects = append(m.projects[:i], m.projects[i+1:]...)
			m.dropMatches(func(match *domain.MatchResult) bool { return match.ProjectID == id })
			return nil
		}
	}
	return domain.Failf(domain.NotFound, "project %s does not exist", id)
}

func (m *Memory) CreateJob(_ context.Context, job *domain.Job) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	stored := *job
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.jobs = append(m.jobs, &stored)

	copied := stored
	return &copied, nil
}

func (m *Memory) UpdateJob(_ context.Context, job *domain.Job) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.jobs {
		if existing.ID == job.ID {
			created := existing.CreatedAt
			*existing = *job
			existing.CreatedAt = created
			existing.UpdatedAt = time.Now().UTC()
			copied := *existing
			return &copied, nil
		}
	}
	return nil, domain.Failf(domain.NotFound, "job %s does not exist", job.ID)
}

func (m *Memory) GetJob(_ context.Context, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, j := range m.jobs {
		if j.ID == id {
			copied := *j
			return &copied, nil
		}
	}
	return nil, domain.Failf(domain.NotFound, "job %s does not exist", id)
}

func (m *Memory) ListJobs(_ context.Context, limit int) ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Job, 0, len(m.jobs))
	for i := len(m.jobs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		copied := *m.jobs[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (m *Memory) DeleteJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, j := range m.jobs {
		if j.ID == id {
			m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
			m.dropMatches(func(match *domain.MatchResult) bool { return match.JobID == id })
			return nil
		}
	}
	return domain.Failf(domain.NotFound, "job %s does not exist", id)
}

func (m *Memory) UpsertMatch(_ context.Context, match *domain.MatchResult) (*domain.MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.matches {
		if existing.ProjectID == match.ProjectID && existing.JobID == match.JobID {
			id, created := existing.ID, existing.CreatedAt
			*existing = *match
			existing.ID = id
			existing.CreatedAt = created
			copied := *existing
			return &copied, nil
		}
	}

	stored := *match
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC()
	m.matches = append(m.matches, &stored)

	copied := stored
	return &copied, nil
}

func (m *Memory) GetMatch(_ context.Context, id string) (*domain.MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, match := range m.matches {
		if match.ID == id {
			copied := *match
			return &copied, nil
		}
	}
	return nil, domain.Failf(domain.NotFound, "match %s does not exist", id)
}

func (m *Memory) ListMatches(_ context.Context, limit int) ([]*domain.MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.MatchResult, 0, len(m.matches))
	for i := len(m.matches) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		copied := *m.matches[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (m *Memory) AppendAudit(_ context.Context, entry *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC()
	m.audit = append(m.audit, &stored)
	return nil
}

func (m *Memory) ListAudit(_ context.Context, limit int) ([]*domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.AuditEntry, 0, len(m.audit))
	for i := len(m.audit) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		copied := *m.audit[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (m *Memory) Close() {}

// dropMatches removes every match the predicate selects. Callers hold the lock.
func (m *Memory) dropMatches(selected func(*domain.MatchResult) bool) {
	kept := m.matches[:0]
	for _, match := range m.matches {
		if !selected(match) {
			kept = append(kept, match)
		}
	}
	m.matches = kept
}
