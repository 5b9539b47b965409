package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/logger"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Tailor a profile to a single job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		tailor(cmd)
	},
}

func init() {
	rootCmd.AddCommand(tailorCmd)

	tailorCmd.Flags().StringP("profile", "p", "", "profile JSON file")
	tailorCmd.Flags().StringP("job", "J", "", "job posting JSON file (a single object)")
}

func tailor(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	user, err := readProfile(cmd.Flag("profile").Value.String())
	if err != nil {
		logger.Fatal("reading the profile", zap.Error(err))
	}

	job, err := readPosting(cmd.Flag("job").Value.String())
	if err != nil {
		logger.Fatal("reading the job posting", zap.Error(err))
	}

	if err := tailorFor(ctx, newComponents(config, logger), logger, user, job); err != nil {
		logger.Fatal("tailoring", zap.Error(err))
	}
}

func readPosting(path string) (*jobs.Posting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse posting %s: %w", path, err)
	}

	postings, err := jobs.Decode([]map[string]any{raw})
	if err != nil {
		return nil, err
	}
	return postings.Items[0], nil
}
