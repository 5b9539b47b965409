package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/jobmatch/internal/jobsource"
)

const (
	app = "jobmatch"
)

type Config struct {
	Matching  *MatchingConfig  `mapstructure:"matching"`
	Skills    *SkillsConfig    `mapstructure:"skills"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
	Rerank    *RerankConfig    `mapstructure:"rerank"`
	Gemini    *GeminiConfig    `mapstructure:"gemini"`
	Source    *SourceConfig    `mapstructure:"source"`
	Exclude   *ExcludeConfig   `mapstructure:"exclude"`
}

type MatchingConfig struct {
	Strategy           string `mapstructure:"strategy"`
	TopK               int    `mapstructure:"top-k"`
	RetrievalK         int    `mapstructure:"retrieval-k"`
	MinExtractedSkills int    `mapstructure:"min-extracted-skills"`
	Workers            int    `mapstructure:"workers"`
}

type SkillsConfig struct {
	ModelFile string `mapstructure:"model-file"`
}

type EmbeddingConfig struct {
	// Provider is "local" (feature hashing) or "gemini".
	Provider  string `mapstructure:"provider"`
	Dimension int    `mapstructure:"dimension"`
	Model     string `mapstructure:"model"`
}

type RerankConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
	Window  int           `mapstructure:"window"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type SourceConfig struct {
	URL       string                  `mapstructure:"url"`
	TokenFile string                  `mapstructure:"token-file"`
	UserAgent string                  `mapstructure:"user-agent"`
	Search    *jobsource.SearchParams `mapstructure:"search"`
}

type ExcludeConfig struct {
	Companies   []string `mapstructure:"companies"`
	File        string   `mapstructure:"file"`
	// RecordGated appends postings dropped by the skill gate to File.
	RecordGated bool     `mapstructure:"record-gated"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobmatch ranks job postings against a candidate profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for match and tailor commands.
	if matchCmd.CalledAs() == "" && tailorCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	// Without an explicit --config the file is optional and defaults apply.
	var notFound viper.ConfigFileNotFoundError
	if err != nil && (cfgFile != "" || !errors.As(err, &notFound)) {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	config.setDefaults()

	return config, nil
}

func (c *Config) setDefaults() {
	if c.Matching == nil {
		c.Matching = &MatchingConfig{}
	}
	if c.Skills == nil {
		c.Skills = &SkillsConfig{}
	}
	if c.Embedding == nil {
		c.Embedding = &EmbeddingConfig{}
	}
	if c.Rerank == nil {
		c.Rerank = &RerankConfig{}
	}
	if c.Gemini == nil {
		c.Gemini = &GeminiConfig{}
	}
	if c.Source == nil {
		c.Source = &SourceConfig{}
	}
	if c.Exclude == nil {
		c.Exclude = &ExcludeConfig{}
	}
}
