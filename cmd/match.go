package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/profile"
	"github.com/spigell/jobmatch/internal/tailoring"
)

const (
	PromptBack                = "back"
	PromptReportByCompanies   = "Report by companies"
	PromptResultsToFile       = "Dump results to file"
	PromptAppendToExcludeFile = "Append all results to exclude file"

	orderScore = "score"
	orderDate  = "date"
)

var errExit = errors.New("exit requested")

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank job postings against a profile",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("profile", "p", "", "profile JSON file")
	matchCmd.Flags().StringP("jobs", "i", "", "job postings JSON file. When empty or missing, the jobs feed is queried.")
	matchCmd.Flags().IntP("top-k", "k", 0, "number of results (default from config, then 10)")
	matchCmd.Flags().StringP("strategy", "s", "", "ranking strategy: heuristic or semantic")
	matchCmd.Flags().StringP("order", "o", orderScore, "result order: score or date")
	matchCmd.Flags().BoolP("tailor", "t", false, "choose a result interactively and tailor the resume for it")
	matchCmd.Flags().StringP("exclude-file", "e", "", "special file with postings to exclude. Default is unset.")

	viper.BindPFlag("exclude.file", matchCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("matching.top-k", matchCmd.Flags().Lookup("top-k"))
}

func match(cmd *cobra.Command) {
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

	logger.Info("starting the jobmatch", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	order := strings.ToLower(cmd.Flag("order").Value.String())
	if order != orderScore && order != orderDate {
		logger.Fatal("invalid order", zap.String("order", order), zap.String("hint", "use score or date"))
	}

	user, err := readProfile(cmd.Flag("profile").Value.String())
	if err != nil {
		logger.Fatal("reading the profile", zap.Error(err))
	}

	c := newComponents(config, logger)

	engine, err := c.engine(ctx, cmd.Flag("strategy").Value.String())
	if err != nil {
		logger.Fatal("building the matching engine", zap.Error(err))
	}

	pool, err := readPool(cmd.Flag("jobs").Value.String())
	if err != nil {
		logger.Fatal("reading job postings", zap.Error(err))
	}

	if pool.Len() == 0 {
		logger.Info("job pool is empty, querying the jobs feed")
		pool, err = c.fetchPool(ctx)
		if err != nil {
			logger.Fatal("getting postings from the jobs feed", zap.Error(err))
		}
	}

	results, err := engine.Match(ctx, user, pool, viper.GetInt("matching.top-k"))
	if err != nil {
		logger.Fatal("matching", zap.Error(err))
	}

	if order == orderDate {
		jobs.SortByDatePosted(results, func(r matching.ScoredJob) string { return r.DatePosted }, time.Now())
	}

	if err := printJSON(results); err != nil {
		logger.Fatal("printing results", zap.Error(err))
	}

	if len(results) == 0 {
		logger.Info("exiting", zap.String("reason", "no matching postings"))
		return
	}

	if tailor, _ := cmd.Flags().GetBool("tailor"); !tailor {
		return
	}

	if err := chooseAndTailor(ctx, c, logger, user, results); err != nil && !errors.Is(err, errExit) {
		logger.Fatal("exiting", zap.Error(err))
	}
}

func chooseAndTailor(ctx context.Context, c *components, logger *zap.Logger, user *profile.Profile, results []matching.ScoredJob) error {
	postings := &jobs.Postings{}
	for _, r := range results {
		postings.Items = append(postings.Items, r.Posting)
	}

	for {
		items := make([]string, 0, len(results)+4)
		for _, r := range results {
			items = append(items, fmt.Sprintf("%s %s / %s / %d%%", r.ID, r.Title, r.Company, r.MatchPercentage))
		}

		excludeFile := c.config.Exclude.File
		if excludeFile != "" {
			items = append(items, PromptAppendToExcludeFile)
		}
		items = append(items, PromptReportByCompanies, PromptResultsToFile, PromptBack)

		selector := promptui.Select{
			Label: "Choose a posting to tailor the resume for and press ENTER",
			Items: items,
			Size:  12,
		}

		_, selected, err := selector.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return errExit
		case PromptReportByCompanies:
			pretty, _ := json.MarshalIndent(postings.ReportByCompany(), "", "  ")
			logger.Info(string(pretty), zap.Int("postings count", postings.Len()))
		case PromptResultsToFile:
			filename, err := postings.DumpToTmpFile()
			if err != nil {
				return fmt.Errorf("dump results to file: %w", err)
			}
			logger.Info("dumping result to file", zap.String("filename", filename))
		case PromptAppendToExcludeFile:
			excluded, err := jobs.GetExcludedFromFile(excludeFile)
			if err != nil {
				return err
			}

			excluded.Append(postings.ToExcluded(jobs.ExcludeActorUser, "excluded from results"))

			if err = excluded.ToFile(excludeFile); err != nil {
				return err
			}

			logger.Info("appended to exclude file", zap.String("filename", excludeFile))
		default:
			id := strings.Split(selected, " ")[0]
			job := postings.FindByID(id)
			if job == nil {
				return fmt.Errorf("there is no such posting id %s", id)
			}

			if err := tailorFor(ctx, c, logger, user, job); err != nil {
				return err
			}
		}
	}
}

func tailorFor(ctx context.Context, c *components, logger *zap.Logger, user *profile.Profile, job *jobs.Posting) error {
	generator, err := c.generator(ctx)
	if err != nil {
		return fmt.Errorf("building generator: %w", err)
	}

	encoder, err := c.encoder(ctx)
	if err != nil {
		return fmt.Errorf("building encoder: %w", err)
	}

	logger.Info("tailoring resume", zap.String("posting_id", job.ID), zap.String("title", job.Title))

	resume, err := tailoring.New(generator, encoder, c.config.Matching.Workers, logger).Tailor(ctx, user, job)
	if err != nil {
		return err
	}

	return printJSON(resume)
}

func readProfile(path string) (*profile.Profile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("--profile is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}

	return profile.Decode(raw)
}

func readPool(path string) (*jobs.Postings, error) {
	if strings.TrimSpace(path) == "" {
		return &jobs.Postings{}, nil
	}

	postings, err := jobs.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &jobs.Postings{}, nil
	}
	return postings, err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
