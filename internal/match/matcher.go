// Package match scores projects against jobs through an opaque
// text-generation scorer and persists the results.
package match

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/avelinas/repomatch/internal/domain"
	"github.com/avelinas/repomatch/internal/logger"
	"github.com/avelinas/repomatch/internal/store"
)

// Generator is the scorer boundary: one prompt in, raw text out. The
// production implementation wraps Gemini; tests plug in a stub.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

const defaultMaxLogLength = 200

// Matcher runs one scorer call per match request over the whole candidate
// batch, parses the structured response and upserts one MatchResult per
// resolved candidate. Parsing failures persist nothing.
type Matcher struct {
	generator Generator
	store     store.Store
	logger    *zap.Logger
	maxLogLen int
}

func New(generator Generator, st store.Store, log *zap.Logger, maxLogLength int) *Matcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Matcher{
		generator: generator,
		store:     st,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// candidate pairs the identifiers a scorer entry must resolve to with the
// summary the scorer sees.
type candidate struct {
	id        string
	projectID string
	jobID     string
	summary   string
}

// MatchProjectToJobs scores one project against the candidate jobs.
func (m *Matcher) MatchProjectToJobs(ctx context.Context, project *domain.Project, jobs []*domain.Job, topN int) ([]*domain.MatchResult, error) {
	if project == nil {
		return nil, fmt.Errorf("project is required")
	}

	candidates := make([]candidate, 0, len(jobs))
	for _, job := range jobs {
		candidates = append(candidates, candidate{
			id:        job.ID,
			projectID: project.ID,
			jobID:     job.ID,
			summary:   jobSummary(job),
		})
	}

	return m.match(ctx, domain.ProjectToJob, projectSummary(project), candidates, topN)
}

// MatchJobToProjects scores one job against the candidate projects.
func (m *Matcher) MatchJobToProjects(ctx context.Context, job *domain.Job, projects []*domain.Project, topN int) ([]*domain.MatchResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}

	candidates := make([]candidate, 0, len(projects))
	for _, project := range projects {
		candidates = append(candidates, candidate{
			id:        project.ID,
			projectID: project.ID,
			jobID:     job.ID,
			summary:   projectSummary(project),
		})
	}

	return m.match(ctx, domain.JobToProject, jobSummary(job), candidates, topN)
}

func (m *Matcher) match(ctx context.Context, direction domain.Direction, source string, candidates []candidate, topN int) ([]*domain.MatchResult, error) {
	if len(candidates) == 0 {
		return nil, domain.Failf(domain.NoCandidates, "no candidates available for matching")
	}

	prompt := buildMatchPrompt(direction, source, candidates)

	m.logger.Debug("scorer request",
		zap.String("direction", string(direction)),
		zap.Int("candidates", len(candidates)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, domain.NewFailure(domain.UpstreamUnavailable, "scorer call failed", err)
	}

	m.logger.Debug("scorer response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, m.maxLogLen)),
	)

	entries, err := parseScorerResponse(raw)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]candidate, len(candidates))
	order := make(map[string]int, len(candidates))
	for i, c := range candidates {
		byID[c.id] = c
		order[c.id] = i
	}

	results := make([]*domain.MatchResult, 0, len(entries))
	for _, entry := range entries {
		resolved, ok := byID[entry.CandidateID]
		if !ok {
			// The scorer occasionally invents or mangles ids; drop the entry
			// rather than fail the batch.
			m.logger.Warn("dropping unresolvable scorer entry", zap.String("candidate_id", entry.CandidateID))
			continue
		}

		result := &domain.MatchResult{
			Direction:     direction,
			ProjectID:     resolved.projectID,
			JobID:         resolved.jobID,
			Score:         clampScore(entry.MatchScore),
			KeyMatches:    entry.KeyMatches,
			MissingSkills: entry.MissingSkills,
			Explanation:   entry.Explanation,
		}

		saved, err := m.store.UpsertMatch(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("saving match for candidate %s: %w", entry.CandidateID, err)
		}
		results = append(results, saved)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		// Stable tie break on the original candidate order.
		return order[candidateID(results[i], direction)] < order[candidateID(results[j], direction)]
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}

	m.logger.Info("match request completed",
		zap.String("direction", string(direction)),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
	)

	return results, nil
}

func candidateID(result *domain.MatchResult, direction domain.Direction) string {
	if direction == domain.ProjectToJob {
		return result.JobID
	}
	return result.ProjectID
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
