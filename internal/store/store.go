// Package store persists projects, jobs, match results and the scrape audit
// log. Two implementations exist: Postgres for real deployments and Memory
// for tests and dry runs.
package store

import (
	"context"

	"github.com/avelinas/repomatch/internal/domain"
)

// Store is the persistence contract of the matching pipeline.
//
// Uniqueness rules: projects upsert on repo URL, match results upsert on the
// (project, job) pair, jobs are plain inserts (re-scraping a URL creates a
// new record), audit entries are append-only. Deleting a project or a job
// removes its match results.
type Store interface {
	UpsertProject(ctx context.Context, project *domain.Project) (*domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	GetProjectByURL(ctx context.Context, repoURL string) (*domain.Project, error)
	ListProjects(ctx context.Context, limit int) ([]*domain.Project, error)
	DeleteProject(ctx context.Context, id string) error

	CreateJob(ctx context.Context, job *domain.Job) (*domain.Job, error)
	UpdateJob(ctx context.Context, job *domain.Job) (*domain.Job, error)
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*domain.Job, error)
	DeleteJob(ctx context.Context, id string) error

	UpsertMatch(ctx context.Context, match *domain.MatchResult) (*domain.MatchResult, error)
	GetMatch(ctx context.Context, id string) (*domain.MatchResult, error)
	ListMatches(ctx context.Context, limit int) ([]*domain.MatchResult, error)

	AppendAudit(ctx context.Context, entry *domain.AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]*domain.AuditEntry, error)

	Close()
}
