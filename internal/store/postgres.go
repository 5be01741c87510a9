package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelinas/repomatch/internal/domain"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS projects (
	id UUID PRIMARY KEY,
	repo_url TEXT NOT NULL UNIQUE,
	owner TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	languages JSONB NOT NULL DEFAULT '{}',
	topics JSONB NOT NULL DEFAULT '[]',
	readme_content TEXT NOT NULL DEFAULT '',
	file_structure JSONB NOT NULL DEFAULT '{}',
	dependencies JSONB NOT NULL DEFAULT '{}',
	stars INT NOT NULL DEFAULT 0,
	forks INT NOT NULL DEFAULT 0,
	last_commit TIMESTAMPTZ,
	skills JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS jobs (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT 'unknown',
	skills_required JSONB NOT NULL DEFAULT '[]',
	experience_level TEXT NOT NULL DEFAULT '',
	job_type TEXT NOT NULL DEFAULT '',
	posted_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS match_results (
	id UUID PRIMARY KEY,
	direction TEXT NOT NULL,
	project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	score DOUBLE PRECISION NOT NULL,
	key_matches JSONB NOT NULL DEFAULT '[]',
	missing_skills JSONB NOT NULL DEFAULT '[]',
	explanation TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (project_id, job_id)
);

CREATE TABLE IF NOT EXISTS scrape_audit_log (
	id UUID PRIMARY KEY,
	url TEXT NOT NULL,
	success BOOLEAN NOT NULL DEFAULT FALSE,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Postgres is the pgx-backed Store.
type Postgres struct {
	db *pgxpool.Pool
}

// ConnectPostgres opens a pgx pool and verifies the connection.
func ConnectPostgres(ctx context.Context, connString string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Connection poolers in transaction mode (PgBouncer and friends) do not
	// play well with the statement cache, so force plain exec mode.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Postgres{db: pool}, nil
}

// EnsureSchema creates the four tables when they do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	if p.db != nil {
		p.db.Close()
	}
}

func (p *Postgres) UpsertProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	query := `
		INSERT INTO projects (id, repo_url, owner, name, description, languages, topics, readme_content,
			file_structure, dependencies, stars, forks, last_commit, skills)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (repo_url)
		DO UPDATE SET owner = EXCLUDED.owner, name = EXCLUDED.name, description = EXCLUDED.description,
			languages = EXCLUDED.languages, topics = EXCLUDED.topics, readme_content = EXCLUDED.readme_content,
			file_structure = EXCLUDED.file_structure, dependencies = EXCLUDED.dependencies,
			stars = EXCLUDED.stars, forks = EXCLUDED.forks, last_commit = EXCLUDED.last_commit,
			skills = EXCLUDED.skills, updated_at = now()
		RETURNING id, created_at, updated_at`

	id := project.ID
	if id == "" {
		id = uuid.NewString()
	}

	saved := *project
	err := p.db.QueryRow(ctx, query, id, project.RepoURL, project.Owner, project.Name, project.Description,
		mustJSON(project.Languages, "{}"), mustJSON(project.Topics, "[]"), project.ReadmeContent,
		mustJSON(project.FileStructure, "{}"), mustJSON(project.Dependencies, "{}"),
		project.Stars, project.Forks, project.LastCommit, mustJSON(project.Skills, "[]")).
		Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert project: %w", err)
	}

	return &saved, nil
}

func (p *Postgres) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return p.getProject(ctx, "id = $1", id)
}

func (p *Postgres) GetProjectByURL(ctx context.Context, repoURL string) (*domain.Project, error) {
	return p.getProject(ctx, "repo_url = $1", repoURL)
}

func (p *Postgres) getProject(ctx context.Context, where string, arg any) (*domain.Project, error) {
	query := `SELECT id, repo_url, owner, name, description, languages, topics, readme_content,
		file_structure, dependencies, stars, forks, last_commit, skills, created_at, updated_at
		FROM projects WHERE ` + where

	row := p.db.QueryRow(ctx, query, arg)
	project, err := scanProject(row)
	if err == pgx.ErrNoRows {
		return nil, domain.Failf(domain.NotFound, "project %v does not exist", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (p *Postgres) ListProjects(ctx context.Context, limit int) ([]*domain.Project, error) {
	query := `SELECT id, repo_url, owner, name, description, languages, topics, readme_content,
		file_structure, dependencies, stars, forks, last_commit, skills, created_at, updated_at
		FROM projects ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (p *Postgres) DeleteProject(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Failf(domain.NotFound, "project %s does not exist", id)
	}
	return nil
}

func (p *Postgres) CreateJob(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	query := `
		INSERT INTO jobs (id, title, company, location, description, url, source, skills_required,
			experience_level, job_type, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	id := job.ID
	if id == "" {
		id = uuid.NewString()
	}

	saved := *job
	err := p.db.QueryRow(ctx, query, id, job.Title, job.Company, job.Location, job.Description,
		job.URL, job.Source, mustJSON(job.SkillsRequired, "[]"), string(job.ExperienceLevel),
		string(job.JobType), job.PostedAt).
		Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return &saved, nil
}

func (p *Postgres) UpdateJob(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	query := `
		UPDATE jobs SET title = $2, company = $3, location = $4, description = $5, url = $6,
			source = $7, skills_required = $8, experience_level = $9, job_type = $10,
			posted_at = $11, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`

	saved := *job
	err := p.db.QueryRow(ctx, query, job.ID, job.Title, job.Company, job.Location, job.Description,
		job.URL, job.Source, mustJSON(job.SkillsRequired, "[]"), string(job.ExperienceLevel),
		string(job.JobType), job.PostedAt).
		Scan(&saved.CreatedAt, &saved.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.Failf(domain.NotFound, "job %s does not exist", job.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	return &saved, nil
}

func (p *Postgres) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	query := `SELECT id, title, company, location, description, url, source, skills_required,
		experience_level, job_type, posted_at, created_at, updated_at FROM jobs WHERE id = $1`

	row := p.db.QueryRow(ctx, query, id)
	job, err := scanJob(row)
	if err == pgx.ErrNoRows {
		return nil, domain.Failf(domain.NotFound, "job %s does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (p *Postgres) ListJobs(ctx context.Context, limit int) ([]*domain.Job, error) {
	query := `SELECT id, title, company, location, description, url, source, skills_required,
		experience_level, job_type, posted_at, created_at, updated_at
		FROM jobs ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (p *Postgres) DeleteJob(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, "DELETE FROM jobs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Failf(domain.NotFound, "job %s does not exist", id)
	}
	return nil
}

func (p *Postgres) UpsertMatch(ctx context.Context, match *domain.MatchResult) (*domain.MatchResult, error) {
	query := `
		INSERT INTO match_results (id, direction, project_id, job_id, score, key_matches, missing_skills, explanation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (project_id, job_id)
		DO UPDATE SET direction = EXCLUDED.direction, score = EXCLUDED.score,
			key_matches = EXCLUDED.key_matches, missing_skills = EXCLUDED.missing_skills,
			explanation = EXCLUDED.explanation
		RETURNING id, created_at`

	id := match.ID
	if id == "" {
		id = uuid.NewString()
	}

	saved := *match
	err := p.db.QueryRow(ctx, query, id, string(match.Direction), match.ProjectID, match.JobID,
		match.Score, mustJSON(match.KeyMatches, "[]"), mustJSON(match.MissingSkills, "[]"), match.Explanation).
		Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert match: %w", err)
	}

	return &saved, nil
}

func (p *Postgres) GetMatch(ctx context.Context, id string) (*domain.MatchResult, error) {
	query := `SELECT id, direction, project_id, job_id, score, key_matches, missing_skills, explanation, created_at
		FROM match_results WHERE id = $1`

	row := p.db.QueryRow(ctx, query, id)
	match, err := scanMatch(row)
	if err == pgx.ErrNoRows {
		return nil, domain.Failf(domain.NotFound, "match %s does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

func (p *Postgres) ListMatches(ctx context.Context, limit int) ([]*domain.MatchResult, error) {
	query := `SELECT id, direction, project_id, job_id, score, key_matches, missing_skills, explanation, created_at
		FROM match_results ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []*domain.MatchResult
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (p *Postgres) AppendAudit(ctx context.Context, entry *domain.AuditEntry) error {
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := p.db.Exec(ctx,
		"INSERT INTO scrape_audit_log (id, url, success, error_message) VALUES ($1, $2, $3, $4)",
		id, entry.URL, entry.Success, entry.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (p *Postgres) ListAudit(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	query := "SELECT id, url, success, error_message, created_at FROM scrape_audit_log ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.URL, &entry.Success, &entry.ErrorMessage, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		project       domain.Project
		languages     []byte
		topics        []byte
		fileStructure []byte
		dependencies  []byte
		skillsRaw     []byte
	)

	err := row.Scan(&project.ID, &project.RepoURL, &project.Owner, &project.Name, &project.Description,
		&languages, &topics, &project.ReadmeContent, &fileStructure, &dependencies,
		&project.Stars, &project.Forks, &project.LastCommit, &skillsRaw,
		&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := unmarshalAll(map[string]any{
		"languages":      &project.Languages,
		"topics":         &project.Topics,
		"file_structure": &project.FileStructure,
		"dependencies":   &project.Dependencies,
		"skills":         &project.Skills,
	}, map[string][]byte{
		"languages":      languages,
		"topics":         topics,
		"file_structure": fileStructure,
		"dependencies":   dependencies,
		"skills":         skillsRaw,
	}); err != nil {
		return nil, err
	}

	return &project, nil
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job       domain.Job
		skillsRaw []byte
		level     string
		jobType   string
	)

	err := row.Scan(&job.ID, &job.Title, &job.Company, &job.Location, &job.Description,
		&job.URL, &job.Source, &skillsRaw, &level, &jobType, &job.PostedAt,
		&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	job.ExperienceLevel = domain.ExperienceLevel(level)
	job.JobType = domain.JobType(jobType)
	if err := json.Unmarshal(skillsRaw, &job.SkillsRequired); err != nil {
		return nil, fmt.Errorf("decode skills_required: %w", err)
	}

	return &job, nil
}

func scanMatch(row rowScanner) (*domain.MatchResult, error) {
	var (
		match         domain.MatchResult
		direction     string
		keyMatches    []byte
		missingSkills []byte
	)

	err := row.Scan(&match.ID, &direction, &match.ProjectID, &match.JobID, &match.Score,
		&keyMatches, &missingSkills, &match.Explanation, &match.CreatedAt)
	if err != nil {
		return nil, err
	}

	match.Direction = domain.Direction(direction)
	if err := json.Unmarshal(keyMatches, &match.KeyMatches); err != nil {
		return nil, fmt.Errorf("decode key_matches: %w", err)
	}
	if err := json.Unmarshal(missingSkills, &match.MissingSkills); err != nil {
		return nil, fmt.Errorf("decode missing_skills: %w", err)
	}

	return &match, nil
}

func unmarshalAll(targets map[string]any, raws map[string][]byte) error {
	for name, raw := range raws {
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, targets[name]); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return nil
}

// mustJSON marshals v for a JSONB column, substituting the given empty JSON
// value for nil maps and slices so NOT NULL columns stay satisfied.
func mustJSON(v any, empty string) []byte {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return []byte(empty)
	}
	return b
}
