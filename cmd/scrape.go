package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avelinas/repomatch/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <job-url>",
	Short: "Scrape a job posting page and store the job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		scrapeJob(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().String("title", "", "override the scraped job title")
	scrapeCmd.Flags().String("company", "", "override the scraped company name")
	scrapeCmd.Flags().String("location", "", "override the scraped location")
	scrapeCmd.Flags().String("description", "", "override the scraped description")
}

func scrapeJob(cmd *cobra.Command, jobURL string) {
	ctx := context.Background()

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st := newStore(ctx, config, logger)
	defer st.Close()

	scraper := newScraper(config, st, logger)

	overrides := &scrape.Overrides{
		Title:       cmd.Flag("title").Value.String(),
		Company:     cmd.Flag("company").Value.String(),
		Location:    cmd.Flag("location").Value.String(),
		Description: cmd.Flag("description").Value.String(),
	}

	job, err := scraper.Scrape(ctx, jobURL, overrides)
	if err != nil {
		logger.Fatal("scraping job posting", zap.String("url", jobURL), zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(job, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}
