package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var matchesCmd = &cobra.Command{
	Use:   "matches [match-id]",
	Short: "Show stored match results, or one result by id",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		matches(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)

	matchesCmd.Flags().IntP("limit", "l", 50, "maximum number of results to list")
}

func matches(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st := newStore(ctx, config, logger)
	defer st.Close()

	var payload any
	if len(args) == 1 {
		result, err := st.GetMatch(ctx, args[0])
		if err != nil {
			logger.Fatal("loading match result", zap.String("match_id", args[0]), zap.Error(err))
		}
		payload = result
	} else {
		limit, _ := cmd.Flags().GetInt("limit")
		results, err := st.ListMatches(ctx, limit)
		if err != nil {
			logger.Fatal("listing match results", zap.Error(err))
		}
		payload = results
	}

	pretty, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}
