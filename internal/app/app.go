package app

import (
	"context"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"resumeclf/internal/config"
	"resumeclf/internal/costtracker"
	"resumeclf/internal/inference"
	"resumeclf/internal/ml/forest"
	"resumeclf/internal/ml/tfidf"
	"resumeclf/internal/pipeline"
	"resumeclf/internal/services"
	"resumeclf/internal/store"
	"resumeclf/internal/store/primary"
	"resumeclf/pkg/categorizer"
)

type App struct {
	Config *config.Config

	Ledger      *primary.StoreImpl
	Runs        store.TrainingRunStore
	Predictions store.PredictionLogStore
	CostStore   store.CostTrackingStore
	CostTracker costtracker.CostTracker
	JobClient   store.JobClient

	Model       *inference.Service
	Categorizer categorizer.ContentCategorizer

	// --- Initialized Services ---
	ClassificationService *services.ClassificationService
	TrainingService       *services.TrainingService
}

// ConfigureLogging applies the configured log level.
func ConfigureLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level '%s', using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// NewApp opens the ledger, loads the model if one was trained and wires the
// services. A missing model is not an error: the app starts without one.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	if err := app.initLedger(ctx); err != nil {
		return nil, err
	}
	app.initJobClient()
	app.initModel()
	if err := app.initCategorizer(ctx); err != nil {
		app.Close()
		return nil, err
	}
	app.initServices()

	log.Debug("Application initialization complete.")
	return app, nil
}

// --- Private Helper Methods ---

func (a *App) initLedger(ctx context.Context) error {
	ps, err := primary.NewPrimaryStore(ctx, a.Config.Database.DSN)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	a.Ledger = ps
	a.Runs = ps
	a.Predictions = ps
	a.CostStore = ps
	a.CostTracker = costtracker.New(ps, pricing(a.Config.Pricing))
	return nil
}

func (a *App) initJobClient() {
	opt := asynq.RedisClientOpt{
		Addr:     a.Config.Redis.Address,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	}
	jc, err := store.NewAsynqJobClient(opt, a.Runs)
	if err != nil {
		log.Warnf("Job queue unavailable: %v", err)
		return
	}
	a.JobClient = jc
}

func (a *App) initModel() {
	a.Model = inference.New(a.Config.Model.Dir)
	if err := a.Model.Load(); err != nil {
		log.Warnf("Could not load model: %v. Run 'resumeclf train' first.", err)
	}
}

func (a *App) initCategorizer(ctx context.Context) error {
	cfg := a.Config.Categorization
	if cfg.Type != "llm" {
		a.Categorizer = categorizer.NewForestCategorizer(a.Model)
		return nil
	}

	prompt, err := config.LoadPromptContent(cfg.PromptTemplate)
	if err != nil {
		log.Warnf("Failed to load categorization prompt: %v. Using the built-in prompt.", err)
		prompt = ""
	}
	switch cfg.Provider {
	case "openai":
		if cfg.OpenaiApiKey == "" {
			return fmt.Errorf("OpenAI API key is required for categorization but not set")
		}
		clientCfg := openai.DefaultConfig(cfg.OpenaiApiKey)
		if cfg.OpenaiBaseURL != "" {
			clientCfg.BaseURL = cfg.OpenaiBaseURL
		}
		a.Categorizer = categorizer.NewLLMCategorizer(openai.NewClientWithConfig(clientCfg), cfg.Model, prompt, a.CostTracker)
	case "gemini":
		g, err := categorizer.NewGeminiCategorizer(ctx, cfg.GoogleApiKey, cfg.Model, prompt, a.CostTracker)
		if err != nil {
			return fmt.Errorf("init gemini categorizer: %w", err)
		}
		a.Categorizer = g
	default:
		return fmt.Errorf("unsupported LLM categorization provider '%s'", cfg.Provider)
	}
	log.Infof("Using %s categorizer (provider %s, model %s)", a.Categorizer.Name(), cfg.Provider, cfg.Model)
	return nil
}

func (a *App) initServices() {
	var cats services.CategorySource = a.Model
	if a.Config.Categorization.Type == "llm" {
		cats = services.FallbackCategories{a.Model, services.StaticCategories(a.Config.Categorization.Categories)}
	}
	a.ClassificationService = services.NewClassificationService(a.Categorizer, cats, a.Predictions)
	a.TrainingService = services.NewTrainingService(a.Runs, a.Config.Model.Dir, PipelineOptions(a.Config), a.Model)
}

// PipelineOptions maps the training section of cfg onto pipeline options.
func PipelineOptions(cfg *config.Config) pipeline.Options {
	opts := pipeline.DefaultOptions()
	t := cfg.Training
	opts.MaxSamples = t.MaxSamples
	opts.Seed = t.Seed
	opts.TestSize = t.TestSize

	opts.Vectorizer = tfidf.DefaultParams()
	opts.Vectorizer.MaxFeatures = t.MaxFeatures
	opts.Vectorizer.MinDF = t.MinDF

	opts.Forest = forest.DefaultParams()
	opts.Forest.Trees = t.Trees
	opts.Forest.MaxDepth = t.MaxDepth
	return opts
}

func pricing(in map[string]map[string]config.PricingInfo) map[string]map[string]costtracker.Pricing {
	out := make(map[string]map[string]costtracker.Pricing, len(in))
	for provider, models := range in {
		out[provider] = make(map[string]costtracker.Pricing, len(models))
		for model, p := range models {
			out[provider][model] = costtracker.Pricing{InputPerToken: p.InputPerToken, OutputPerToken: p.OutputPerToken}
		}
	}
	return out
}

// Close releases the job client, the LLM client and the ledger.
func (a *App) Close() error {
	if a.JobClient != nil {
		if err := a.JobClient.Close(); err != nil {
			log.Warnf("Error closing job client: %v", err)
		}
	}
	if c, ok := a.Categorizer.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			log.Warnf("Error closing categorizer: %v", err)
		}
	}
	if a.Ledger != nil {
		return a.Ledger.Close()
	}
	return nil
}
