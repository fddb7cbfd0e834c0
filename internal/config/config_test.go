package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "models", cfg.Model.Dir)
	assert.EqualValues(t, 42, cfg.Training.Seed)
	assert.InDelta(t, 0.2, cfg.Training.TestSize, 1e-9)
	assert.Equal(t, 100, cfg.Training.Trees)
	assert.Equal(t, "Resume_str", cfg.Dataset.TextColumn)
	assert.Equal(t, "forest", cfg.Categorization.Type)
	assert.Equal(t, map[string]int{"training": 1}, cfg.Worker.Queues)
	assert.Equal(t, "0.0.0.0:5001", cfg.ListenAddr())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
model:
  dir: /var/lib/resumeclf
training:
  max_samples: 500
  trees: 10
categorization:
  type: llm
  provider: openai
  model: gpt-test
  categories: [Chef, Nurse]
pricing:
  openai:
    gpt-test:
      input_per_token: 0.000001
      output_per_token: 0.000002
`), 0o644))
	t.Setenv("RESUMECLF_SERVER_PORT", "8080")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(viper.New(), file)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/resumeclf", cfg.Model.Dir)
	assert.Equal(t, 500, cfg.Training.MaxSamples)
	assert.Equal(t, 10, cfg.Training.Trees)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.Categorization.OpenaiApiKey)
	assert.Equal(t, []string{"Chef", "Nurse"}, cfg.Categorization.Categories)
	assert.InDelta(t, 0.000002, cfg.Pricing["openai"]["gpt-test"].OutputPerToken, 1e-12)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load(viper.New(), "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "no model dir", mutate: func(c *Config) { c.Model.Dir = "" }, errMsg: "model.dir"},
		{name: "no dsn", mutate: func(c *Config) { c.Database.DSN = "" }, errMsg: "database.dsn"},
		{name: "test size", mutate: func(c *Config) { c.Training.TestSize = 1 }, errMsg: "test_size"},
		{name: "trees", mutate: func(c *Config) { c.Training.Trees = 0 }, errMsg: "training.trees"},
		{name: "columns", mutate: func(c *Config) { c.Dataset.TextColumn = "" }, errMsg: "text_column"},
		{name: "unknown type", mutate: func(c *Config) { c.Categorization.Type = "svm" }, errMsg: "not supported"},
		{name: "llm without key", mutate: func(c *Config) {
			c.Categorization.Type = "llm"
			c.Categorization.OpenaiApiKey = ""
		}, errMsg: "OPENAI_API_KEY"},
		{name: "gemini without key", mutate: func(c *Config) {
			c.Categorization.Type, c.Categorization.Provider = "llm", "gemini"
			c.Categorization.GoogleApiKey = ""
		}, errMsg: "GEMINI_API_KEY"},
		{name: "queue priority", mutate: func(c *Config) { c.Worker.Queues = map[string]int{"training": 0} }, errMsg: "priority"},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "loud" }, errMsg: "log.level"},
		{name: "negative price", mutate: func(c *Config) {
			c.Pricing = map[string]map[string]PricingInfo{"openai": {"m": {InputPerToken: -1}}}
		}, errMsg: "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadPromptContent(t *testing.T) {
	got, err := LoadPromptContent("")
	require.NoError(t, err)
	assert.Empty(t, got)

	file := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(file, []byte("Pick one of {{CATEGORIES}}"), 0o644))
	got, err = LoadPromptContent(file)
	require.NoError(t, err)
	assert.Equal(t, "Pick one of {{CATEGORIES}}", got)

	t.Setenv("HOME", t.TempDir())
	_, err = LoadPromptContent("missing-prompt.txt")
	assert.ErrorContains(t, err, "prompt file not found")
}
