package match

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/avelinas/repomatch/internal/domain"
)

//go:embed prompt.md
var promptTemplate string

//go:embed analyze_prompt.md
var analyzePromptTemplate string

func buildMatchPrompt(direction domain.Direction, sourceJSON string, candidates []candidate) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Direction: {{DIRECTION}}\n\nSource:\n{{SOURCE_JSON}}\n\nCandidates:\n{{CANDIDATES_JSON}}\n\nJSON Response:"
	}

	entries := make([]json.RawMessage, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, json.RawMessage(c.summary))
	}
	candidatesJSON, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		candidatesJSON = []byte("[]")
	}

	prompt := strings.ReplaceAll(template, "{{DIRECTION}}", directionLabel(direction))
	prompt = strings.ReplaceAll(prompt, "{{SOURCE_JSON}}", sourceJSON)
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATES_JSON}}", string(candidatesJSON))
	return prompt
}

func buildAnalyzePrompt(job *domain.Job) string {
	template := analyzePromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job:\n{{JOB_JSON}}\n\nJSON Response:"
	}
	return strings.ReplaceAll(template, "{{JOB_JSON}}", jobSummary(job))
}

func directionLabel(direction domain.Direction) string {
	if direction == domain.ProjectToJob {
		return "one project scored against many job postings"
	}
	return "one job posting scored against many projects"
}

// projectSummary renders the scorer-facing view of a project. Bulky fields
// like the file structure stay out; the README is capped to keep batch
// prompts within model limits.
func projectSummary(project *domain.Project) string {
	payload := map[string]any{
		"id":          project.ID,
		"repository":  project.FullName(),
		"description": project.Description,
		"languages":   project.Languages,
		"topics":      project.Topics,
		"skills":      project.Skills,
		"stars":       project.Stars,
		"readme":      capText(project.ReadmeContent, 2000),
	}
	return mustMarshal(payload)
}

func jobSummary(job *domain.Job) string {
	payload := map[string]any{
		"id":               job.ID,
		"title":            job.Title,
		"company":          job.Company,
		"location":         job.Location,
		"skills_required":  job.SkillsRequired,
		"experience_level": string(job.ExperienceLevel),
		"job_type":         string(job.JobType),
		"description":      capText(job.Description, 3000),
	}
	return mustMarshal(payload)
}

func mustMarshal(payload map[string]any) string {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}

func capText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
