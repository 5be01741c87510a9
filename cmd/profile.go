package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var profileCmd = &cobra.Command{
	Use:   "profile <repository-url>",
	Short: "Fetch a GitHub repository and store its profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		profile(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func profile(cmd *cobra.Command, repoURL string) {
	ctx := context.Background()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st := newStore(ctx, config, logger)
	defer st.Close()

	profiler := newProfiler(config, st, logger)

	project, err := profiler.Profile(ctx, repoURL)
	if err != nil {
		logger.Fatal("profiling repository", zap.String("url", repoURL), zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(project, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}
