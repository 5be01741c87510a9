package match

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/avelinas/repomatch/internal/domain"
	"github.com/avelinas/repomatch/internal/skills"
)

// AnalyzeJob re-derives the skill set and categorical fields of a stored job
// through the scorer and persists the refreshed record. When the scorer is
// unreachable or returns garbage the heuristic extraction runs instead, so
// the call degrades rather than fails.
func (m *Matcher) AnalyzeJob(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}

	analysis := m.scoreAnalysis(ctx, job)
	if analysis != nil {
		sort.Strings(analysis.SkillsRequired)
		job.SkillsRequired = analysis.SkillsRequired
		job.ExperienceLevel = domain.ExperienceLevel(analysis.ExperienceLevel)
		job.JobType = domain.JobType(analysis.JobType)
	} else {
		text := job.Title + "\n" + job.Description
		job.SkillsRequired = skills.Extract(text)
		job.ExperienceLevel = skills.ExperienceLevel(text)
		job.JobType = skills.JobType(text)
	}

	saved, err := m.store.UpdateJob(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("saving analyzed job %s: %w", job.ID, err)
	}

	m.logger.Info("analyzed job posting",
		zap.String("job_id", saved.ID),
		zap.Int("skills", len(saved.SkillsRequired)),
		zap.Bool("heuristic_fallback", analysis == nil),
	)
	return saved, nil
}

func (m *Matcher) scoreAnalysis(ctx context.Context, job *domain.Job) *jobAnalysis {
	raw, err := m.generator.GenerateContent(ctx, buildAnalyzePrompt(job))
	if err != nil {
		m.logger.Warn("scorer analysis call failed, using heuristics", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	analysis, err := parseAnalysisResponse(raw)
	if err != nil {
		m.logger.Warn("scorer analysis unparseable, using heuristics", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	return analysis
}
