package cmd

import (
	"context"
	"errors"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/careerpilot/jobscout/internal/logger"
	"github.com/careerpilot/jobscout/internal/pipeline"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var prompt = promptui.Select{
	Label: "Run acquisition for all eligible profiles?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one acquisition pass: fetch postings, filter, score and persist matches",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("profile", "p", "", "run for a single profile id instead of all eligible profiles")
	runCmd.Flags().BoolP("recent", "r", false, "smaller, faster run that stops as soon as the limit is gathered")
	runCmd.Flags().IntP("limit", "l", 0, "cap on new postings for this run (0 uses the configured default)")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before an all-profiles run")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	cfg, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobscout", zap.String("version", version))

	profileID, _ := cmd.Flags().GetString("profile")
	recent, _ := cmd.Flags().GetBool("recent")
	limit, _ := cmd.Flags().GetInt("limit")
	autoApprove, _ := cmd.Flags().GetBool("auto-approve")

	if profileID == "" && !autoApprove {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	p, cleanup, err := setup(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("setting up dependencies", zap.Error(err))
	}
	defer cleanup()

	report, err := p.Run(ctx, pipeline.Request{
		ProfileID:  profileID,
		RecentOnly: recent,
		Limit:      limit,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrNoProfiles) {
			logger.Info("exiting", zap.String("reason", "no profiles with a desired role"))
			return
		}
		logger.Fatal("acquisition run failed", zap.Error(err))
	}

	logger.Info("acquisition run complete",
		zap.String("run_id", report.RunID),
		zap.Int("jobs_scraped", report.JobsScraped),
		zap.Int("profiles_processed", report.ProfilesProcessed),
		zap.Int("matches_created", report.MatchesCreated),
	)

	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			logger.Warn("profile finished with errors",
				zap.String("user_id", outcome.UserID),
				zap.Error(outcome.Err),
			)
		}
	}
}
