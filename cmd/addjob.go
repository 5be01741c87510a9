package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var addJobCmd = &cobra.Command{
	Use:   "add-job",
	Short: "Store a job posting from pasted text without fetching anything",
	Run: func(cmd *cobra.Command, _ []string) {
		addJob(cmd)
	},
}

func init() {
	rootCmd.AddCommand(addJobCmd)

	addJobCmd.Flags().String("title", "", "job title (required)")
	addJobCmd.Flags().String("description", "", "job description text (required)")
	addJobCmd.Flags().String("url", "", "original posting url, used for the source label")

	addJobCmd.MarkFlagRequired("title")
	addJobCmd.MarkFlagRequired("description")
}

func addJob(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st := newStore(ctx, config, logger)
	defer st.Close()

	scraper := newScraper(config, st, logger)

	job, err := scraper.BuildJob(ctx,
		cmd.Flag("title").Value.String(),
		cmd.Flag("description").Value.String(),
		cmd.Flag("url").Value.String(),
	)
	if err != nil {
		logger.Fatal("storing job posting", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(job, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}
