package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/jobmatch/internal/ai"
	"github.com/spigell/jobmatch/internal/ai/gemini"
	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/filtering"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/jobsource"
	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/secrets"
	"github.com/spigell/jobmatch/internal/skills"
)

const (
	embeddingProviderLocal  = "local"
	embeddingProviderGemini = "gemini"
)

// components builds the long lived collaborators of a command from config.
// The Gemini client is created on first use only.
type components struct {
	config *Config
	logger *zap.Logger

	client *genai.Client
}

func newComponents(config *Config, logger *zap.Logger) *components {
	return &components{config: config, logger: logger}
}

func (c *components) geminiClient(ctx context.Context) (*genai.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: c.config.Gemini.APIKey,
		File:  c.config.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	client, err := gemini.NewClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	c.client = client
	return client, nil
}

func (c *components) geminiOptions(model string) gemini.Options {
	return gemini.Options{
		Model:      model,
		MaxRetries: c.config.Gemini.MaxRetries,
		Logger:     c.logger,
	}
}

func (c *components) generator(ctx context.Context) (*gemini.Generator, error) {
	client, err := c.geminiClient(ctx)
	if err != nil {
		return nil, err
	}
	return gemini.NewGenerator(client, c.geminiOptions(c.config.Gemini.Model))
}

func (c *components) extractor() (*skills.Extractor, error) {
	ext, err := skills.Load(c.config.Skills.ModelFile)
	if err != nil {
		return nil, fmt.Errorf("loading skill model: %w", err)
	}
	return ext, nil
}

func (c *components) encoder(ctx context.Context) (embedding.Encoder, error) {
	cfg := c.config.Embedding

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", embeddingProviderLocal:
		if cfg.Dimension <= 0 || cfg.Dimension == embedding.DefaultDimension {
			return embedding.Shared(), nil
		}
		return embedding.NewHashing(cfg.Dimension), nil
	case embeddingProviderGemini:
		client, err := c.geminiClient(ctx)
		if err != nil {
			return nil, err
		}
		return gemini.NewEmbedder(client, c.geminiOptions(cfg.Model), cfg.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

func (c *components) reranker(ctx context.Context) (ai.Reranker, error) {
	if !c.config.Rerank.Enabled {
		return nil, nil
	}

	generator, err := c.generator(ctx)
	if err != nil {
		return nil, err
	}

	return gemini.NewReranker(generator, c.logger, c.config.Gemini.MaxLogLength), nil
}

func (c *components) poolFilters() *filtering.Filtering {
	f := filtering.New([]filtering.Filter{
		filtering.NewExcludedCompanies(c.config.Exclude.Companies),
		filtering.NewExcludeFile(c.config.Exclude.File),
	}, c.logger)

	if len(c.config.Exclude.Companies) == 0 {
		f.DisableByName(filtering.CompaniesName, "no companies configured")
	}
	if strings.TrimSpace(c.config.Exclude.File) == "" {
		f.DisableByName(filtering.ExcludeFileName, "exclude file is not set")
	}

	c.logger.Debug("pool filters", zap.Any("filters", f.Describe()))

	return f
}

// engine wires the matching engine. Model load failures are returned so the
// command can stop before any matching happens.
func (c *components) engine(ctx context.Context, strategyOverride string) (*matching.Engine, error) {
	ext, err := c.extractor()
	if err != nil {
		return nil, err
	}

	strategyName := c.config.Matching.Strategy
	if strategyOverride != "" {
		strategyName = strategyOverride
	}

	deps := &matching.StrategyDeps{Extractor: ext, Logger: c.logger}
	if !strings.EqualFold(strings.TrimSpace(strategyName), matching.StrategyHeuristic) {
		deps.Encoder, err = c.encoder(ctx)
		if err != nil {
			return nil, fmt.Errorf("building encoder: %w", err)
		}
	}

	strategy, err := matching.NewStrategy(strategyName, &matching.StrategyConfig{
		Workers:            c.config.Matching.Workers,
		RetrievalK:         c.config.Matching.RetrievalK,
		MinExtractedSkills: c.config.Matching.MinExtractedSkills,
		GatedExcludeFile:   c.gatedExcludeFile(),
	}, deps)
	if err != nil {
		return nil, err
	}

	reranker, err := c.reranker(ctx)
	if err != nil {
		c.logger.Warn("reranking disabled", zap.Error(err))
	}

	return matching.NewEngine(&matching.Config{
		TopK:          c.config.Matching.TopK,
		RerankEnabled: reranker != nil,
		RerankTimeout: c.config.Rerank.Timeout,
		RerankWindow:  c.config.Rerank.Window,
	}, &matching.Deps{
		Strategy: strategy,
		Reranker: reranker,
		Filters:  c.poolFilters(),
		Logger:   c.logger,
	})
}

// gatedExcludeFile is the exclude file when gated postings should be recorded.
func (c *components) gatedExcludeFile() string {
	if !c.config.Exclude.RecordGated {
		return ""
	}
	if strings.TrimSpace(c.config.Exclude.File) == "" {
		c.logger.Warn("exclude.record-gated is set without exclude.file, gated postings are not recorded")
		return ""
	}
	return c.config.Exclude.File
}

// fetchPool asks the configured jobs feed for postings. It is only used when
// the supplied pool is empty.
func (c *components) fetchPool(ctx context.Context) (*jobs.Postings, error) {
	src := c.config.Source
	if strings.TrimSpace(src.URL) == "" {
		return &jobs.Postings{}, nil
	}

	token := ""
	if strings.TrimSpace(src.TokenFile) != "" {
		var err error
		token, err = secrets.Load(secrets.Source{Name: "jobs feed token", File: src.TokenFile})
		if err != nil {
			return nil, err
		}
	}

	client := jobsource.New(src.URL, token, c.logger)
	if src.UserAgent != "" {
		client.UserAgent = src.UserAgent
	}

	postings, err := client.Search(ctx, src.Search)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	c.logger.Info("getting postings from jobs feed", zap.Int("count", postings.Len()))
	return postings, nil
}
