package config

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

/*
Validate checks cross-field rules of the configuration:
- model directory and ledger DSN
- training parameters
- dataset columns (unless a dataset_info.json is given)
- categorization backend and its credentials
- worker queues
- pricing (if present)
*/
func (c *Config) Validate() error {
	if c.Model.Dir == "" {
		return errors.New("model.dir is required")
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}

	// Training config
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("training.test_size (%g) must be between 0 and 1", c.Training.TestSize)
	}
	if c.Training.Trees <= 0 {
		return errors.New("training.trees must be a positive integer")
	}
	if c.Training.MaxDepth < 0 || c.Training.MaxSamples < 0 || c.Training.MaxFeatures < 0 {
		return errors.New("training.max_depth, max_samples and max_features must not be negative")
	}
	if c.Training.MinDF < 1 {
		return errors.New("training.min_df must be at least 1")
	}

	// Dataset config
	if c.Dataset.Info == "" && (c.Dataset.TextColumn == "" || c.Dataset.CategoryColumn == "") {
		return errors.New("dataset.text_column and dataset.category_column are required when dataset.info is not set")
	}

	// Categorization config
	switch c.Categorization.Type {
	case "forest":
	case "llm":
		if c.Categorization.Model == "" {
			return errors.New("categorization.model is required when categorization.type is llm")
		}
		switch c.Categorization.Provider {
		case "openai":
			if c.Categorization.OpenaiApiKey == "" {
				return errors.New("categorization.openai_api_key (or OPENAI_API_KEY) is required for the openai provider")
			}
		case "gemini":
			if c.Categorization.GoogleApiKey == "" {
				return errors.New("categorization.google_api_key (or GEMINI_API_KEY) is required for the gemini provider")
			}
		default:
			return fmt.Errorf("categorization.provider '%s' is not supported (use openai or gemini)", c.Categorization.Provider)
		}
	default:
		return fmt.Errorf("categorization.type '%s' is not supported (use forest or llm)", c.Categorization.Type)
	}

	// Worker config
	if c.Worker.Concurrency <= 0 {
		return errors.New("worker.concurrency must be a positive integer")
	}
	for name, priority := range c.Worker.Queues {
		if name == "" {
			return errors.New("worker.queues contains an empty queue name")
		}
		if priority <= 0 {
			return fmt.Errorf("worker.queues priority for queue '%s' must be positive", name)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port (%d) is out of range", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	// Pricing config (optional, but if present, must be valid)
	for provider, models := range c.Pricing {
		if provider == "" {
			return errors.New("pricing contains an empty provider name")
		}
		for model, price := range models {
			if model == "" {
				return fmt.Errorf("pricing for provider '%s' contains an empty model name", provider)
			}
			if price.InputPerToken < 0 || price.OutputPerToken < 0 {
				return fmt.Errorf("pricing for provider '%s', model '%s' has negative token cost", provider, model)
			}
		}
	}

	return nil
}
