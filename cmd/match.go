package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avelinas/repomatch/internal/domain"
	"github.com/avelinas/repomatch/internal/store"
)

// candidateListLimit caps how many stored records the interactive picker
// and the match batch load.
const candidateListLimit = 20

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score a project against stored jobs, or a job against stored projects",
	Long: "Score a project against stored jobs (--project), or a job against stored projects (--job).\n" +
		"Without flags an interactive prompt asks which stored item to start from.",
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("project", "", "project id to score against stored jobs")
	matchCmd.Flags().String("job", "", "job id to score against stored projects")
	matchCmd.Flags().IntP("top", "t", 0, "keep only the N best matches (0 keeps all)")

	matchCmd.MarkFlagsMutuallyExclusive("project", "job")
}

func runMatch(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st := newStore(ctx, config, logger)
	defer st.Close()

	projectID := cmd.Flag("project").Value.String()
	jobID := cmd.Flag("job").Value.String()
	topN, _ := cmd.Flags().GetInt("top")

	if projectID == "" && jobID == "" {
		projectID, jobID, err = pickMatchSource(ctx, st)
		if err != nil {
			logger.Fatal("selecting match source", zap.Error(err))
		}
	}

	matcher := newMatcher(ctx, config, st, logger)

	var results []*domain.MatchResult
	if projectID != "" {
		project, err := st.GetProject(ctx, projectID)
		if err != nil {
			logger.Fatal("loading project", zap.String("project_id", projectID), zap.Error(err))
		}

		jobs, err := st.ListJobs(ctx, candidateListLimit)
		if err != nil {
			logger.Fatal("listing jobs", zap.Error(err))
		}

		results, err = matcher.MatchProjectToJobs(ctx, project, jobs, topN)
		if err != nil {
			logger.Fatal("matching project to jobs", zap.String("project", project.FullName()), zap.Error(err))
		}
	} else {
		job, err := st.GetJob(ctx, jobID)
		if err != nil {
			logger.Fatal("loading job", zap.String("job_id", jobID), zap.Error(err))
		}

		projects, err := st.ListProjects(ctx, candidateListLimit)
		if err != nil {
			logger.Fatal("listing projects", zap.Error(err))
		}

		results, err = matcher.MatchJobToProjects(ctx, job, projects, topN)
		if err != nil {
			logger.Fatal("matching job to projects", zap.String("job", job.Title), zap.Error(err))
		}
	}

	pretty, _ := json.MarshalIndent(results, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}

// pickMatchSource asks which stored project or job to match from. The first
// prompt chooses the direction, the second the concrete record.
func pickMatchSource(ctx context.Context, st store.Store) (projectID, jobID string, err error) {
	const (
		fromProject = "Match a project against stored jobs"
		fromJob     = "Match a job against stored projects"
	)

	directionPrompt := promptui.Select{
		Label: "What do you want to match?",
		Items: []string{fromProject, fromJob},
	}

	_, direction, err := directionPrompt.Run()
	if err != nil {
		return "", "", err
	}

	if direction == fromProject {
		projects, err := st.ListProjects(ctx, candidateListLimit)
		if err != nil {
			return "", "", err
		}
		if len(projects) == 0 {
			return "", "", fmt.Errorf("no stored projects, run the profile command first")
		}

		labels := make([]string, 0, len(projects))
		for _, p := range projects {
			labels = append(labels, fmt.Sprintf("%s / %s", p.FullName(), p.Description))
		}

		idx, _, err := (&promptui.Select{Label: "Choose a project and press ENTER", Items: labels}).Run()
		if err != nil {
			return "", "", err
		}
		return projects[idx].ID, "", nil
	}

	jobs, err := st.ListJobs(ctx, candidateListLimit)
	if err != nil {
		return "", "", err
	}
	if len(jobs) == 0 {
		return "", "", fmt.Errorf("no stored jobs, run the scrape or add-job command first")
	}

	labels := make([]string, 0, len(jobs))
	for _, j := range jobs {
		labels = append(labels, fmt.Sprintf("%s / %s / %s", j.Title, j.Company, j.Source))
	}

	idx, _, err := (&promptui.Select{Label: "Choose a job and press ENTER", Items: labels}).Run()
	if err != nil {
		return "", "", err
	}
	return "", jobs[idx].ID, nil
}
