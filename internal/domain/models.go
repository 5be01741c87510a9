// Package domain holds the records shared by the profiler, scraper, matcher
// and the persistence layer.
package domain

import "time"

// ExperienceLevel is the categorical seniority derived for a job posting.
type ExperienceLevel string

const (
	ExperienceEntry  ExperienceLevel = "entry"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
)

// JobType is the categorical employment kind derived for a job posting.
type JobType string

const (
	JobTypeFullTime JobType = "full-time"
	JobTypePartTime JobType = "part-time"
	JobTypeContract JobType = "contract"
)

// Direction describes which side of a match was the source.
type Direction string

const (
	ProjectToJob Direction = "project_to_job"
	JobToProject Direction = "job_to_project"
)

// FileEntry describes one item of a repository's top-level listing.
type FileEntry struct {
	Kind string `json:"kind"` // "file" or "dir"
	Size int    `json:"size"`
	Path string `json:"path"`
}

// Project is the normalized technology profile of one source-code repository.
// RepoURL is unique; re-profiling the same URL updates the existing record.
type Project struct {
	ID            string                       `json:"id"`
	RepoURL       string                       `json:"repo_url"`
	Owner         string                       `json:"owner"`
	Name          string                       `json:"name"`
	Description   string                       `json:"description"`
	Languages     map[string]int               `json:"languages"`
	Topics        []string                     `json:"topics"`
	ReadmeContent string                       `json:"readme_content"`
	FileStructure map[string]FileEntry         `json:"file_structure"`
	Dependencies  map[string]map[string]string `json:"dependencies"`
	Stars         int                          `json:"stars"`
	Forks         int                          `json:"forks"`
	LastCommit    *time.Time                   `json:"last_commit,omitempty"`
	Skills        []string                     `json:"skills"`
	CreatedAt     time.Time                    `json:"created_at"`
	UpdatedAt     time.Time                    `json:"updated_at"`
}

// FullName returns the owner/name pair used in logs and summaries.
func (p *Project) FullName() string {
	return p.Owner + "/" + p.Name
}

// Job is the normalized record of one job posting. A job may exist without a
// URL (pasted text); URLs are not unique across jobs.
type Job struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Company         string          `json:"company,omitempty"`
	Location        string          `json:"location,omitempty"`
	Description     string          `json:"description"`
	URL             string          `json:"url,omitempty"`
	Source          string          `json:"source"`
	SkillsRequired  []string        `json:"skills_required"`
	ExperienceLevel ExperienceLevel `json:"experience_level,omitempty"`
	JobType         JobType         `json:"job_type,omitempty"`
	PostedAt        *time.Time      `json:"posted_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MatchResult is a scored, explained pairing between one project and one job.
// At most one result exists per (project, job) pair; the matcher overwrites
// the previous result on recomputation. Deleting either side deletes the
// match.
type MatchResult struct {
	ID            string    `json:"id"`
	Direction     Direction `json:"direction"`
	ProjectID     string    `json:"project_id"`
	JobID         string    `json:"job_id"`
	Score         float64   `json:"score"`
	KeyMatches    []string  `json:"key_matches"`
	MissingSkills []string  `json:"missing_skills"`
	Explanation   string    `json:"explanation"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuditEntry records one external-fetch attempt. Entries are append-only.
type AuditEntry struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
