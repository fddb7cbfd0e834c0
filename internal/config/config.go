package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// PricingInfo holds cost details per token for a specific model.
type PricingInfo struct {
	InputPerToken  float64 `mapstructure:"input_per_token"`
	OutputPerToken float64 `mapstructure:"output_per_token"`
}

type Config struct {
	Model struct {
		Dir string `mapstructure:"dir"` // artifact directory
	} `mapstructure:"model"`

	Training struct {
		MaxSamples  int     `mapstructure:"max_samples"` // 0 uses every row
		Seed        uint64  `mapstructure:"seed"`
		TestSize    float64 `mapstructure:"test_size"`
		Trees       int     `mapstructure:"trees"`
		MaxDepth    int     `mapstructure:"max_depth"`
		MaxFeatures int     `mapstructure:"max_features"` // vectorizer vocabulary cap
		MinDF       int     `mapstructure:"min_df"`
	} `mapstructure:"training"`

	Dataset struct {
		Path           string `mapstructure:"path"`
		TextColumn     string `mapstructure:"text_column"`
		CategoryColumn string `mapstructure:"category_column"`
		HTML           bool   `mapstructure:"html"`
		Info           string `mapstructure:"info"` // dataset_info.json, overrides the fields above
	} `mapstructure:"dataset"`

	Database struct {
		DSN string `mapstructure:"dsn"` // postgres://... or a SQLite file path
	} `mapstructure:"database"`

	Redis struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Worker struct {
		Concurrency int            `mapstructure:"concurrency"`
		Queues      map[string]int `mapstructure:"queues"`
	} `mapstructure:"worker"`

	Server struct {
		Addr        string   `mapstructure:"addr"`
		Port        int      `mapstructure:"port"`
		CORSOrigins []string `mapstructure:"cors_origins"` // empty allows all
	} `mapstructure:"server"`

	Categorization struct {
		Type           string   `mapstructure:"type"`            // "forest" or "llm"
		Provider       string   `mapstructure:"provider"`        // "openai" or "gemini" when type is "llm"
		Model          string   `mapstructure:"model"`           // model name for the provider
		PromptTemplate string   `mapstructure:"prompt_template"` // prompt file; empty uses the built-in prompt
		Categories     []string `mapstructure:"categories"`      // used by "llm" when no model is loaded
		OpenaiApiKey   string   `mapstructure:"openai_api_key"`
		OpenaiBaseURL  string   `mapstructure:"openai_base_url"`
		GoogleApiKey   string   `mapstructure:"google_api_key"`
	} `mapstructure:"categorization"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// Pricing: map[provider][model] = struct{input_per_token, output_per_token}
	Pricing map[string]map[string]PricingInfo `mapstructure:"pricing"`
}

// ListenAddr is the listen address of the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Addr, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.dir", "models")
	v.SetDefault("training.max_samples", 0)
	v.SetDefault("training.seed", 42)
	v.SetDefault("training.test_size", 0.2)
	v.SetDefault("training.trees", 100)
	v.SetDefault("training.max_depth", 20)
	v.SetDefault("training.max_features", 5000)
	v.SetDefault("training.min_df", 2)
	v.SetDefault("dataset.path", "data/Resume/Resume.csv")
	v.SetDefault("dataset.text_column", "Resume_str")
	v.SetDefault("dataset.category_column", "Category")
	v.SetDefault("database.dsn", "resumeclf.db")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("worker.concurrency", 1)
	v.SetDefault("worker.queues", map[string]int{"training": 1})
	v.SetDefault("server.addr", "0.0.0.0")
	v.SetDefault("server.port", 5001)
	v.SetDefault("categorization.type", "forest")
	v.SetDefault("categorization.provider", "openai")
	v.SetDefault("categorization.model", "gpt-4o-mini")
	v.SetDefault("log.level", "info")
}

// LoadConfig reads file (or config.yaml from the working directory or
// ~/.config/resumeclf when file is empty), a .env file if present and
// RESUMECLF_* environment variables, in increasing order of precedence.
func LoadConfig(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("Failed to load .env file: %v", err)
	}
	return Load(viper.New(), file)
}

// Load fills a Config from v. A non-empty file is read instead of searching
// the default locations.
func Load(v *viper.Viper, file string) (*Config, error) {
	setDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/resumeclf")
		}
	}

	v.SetEnvPrefix("RESUMECLF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind the providers' conventional variables without the prefix.
	_ = v.BindEnv("categorization.openai_api_key", "RESUMECLF_CATEGORIZATION_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("categorization.google_api_key", "RESUMECLF_CATEGORIZATION_GOOGLE_API_KEY", "GEMINI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug("Config file not found, using defaults and environment")
	} else {
		log.Debugf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
