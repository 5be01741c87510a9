package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <job-id>",
	Short: "Re-derive the skills and categories of a stored job with the AI scorer",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func analyze(cmd *cobra.Command, jobID string) {
	ctx := context.Background()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st := newStore(ctx, config, logger)
	defer st.Close()

	job, err := st.GetJob(ctx, jobID)
	if err != nil {
		logger.Fatal("loading job", zap.String("job_id", jobID), zap.Error(err))
	}

	matcher := newMatcher(ctx, config, st, logger)

	analyzed, err := matcher.AnalyzeJob(ctx, job)
	if err != nil {
		logger.Fatal("analyzing job", zap.String("job_id", jobID), zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(analyzed, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}
