package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"resumeclf/internal/dataset"
	"resumeclf/internal/models"
	"resumeclf/internal/services"
	"resumeclf/internal/tasks"
)

var (
	trainData           string
	trainInfo           string
	trainTextColumn     string
	trainCategoryColumn string
	trainHTML           bool
	trainMaxSamples     int
	trainAsync          bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the classifier on a labelled CSV dataset",
	Long: `Loads the dataset, fits the TF-IDF vectorizer and the random forest, prints
the evaluation on the held-out split and saves the artifacts to the model
directory. With --async the run is enqueued for the worker instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return err
		}
		cfg := appInstance.Config

		src := dataset.Source{
			Path:           firstNonEmpty(trainData, cfg.Dataset.Path),
			TextColumn:     firstNonEmpty(trainTextColumn, cfg.Dataset.TextColumn),
			CategoryColumn: firstNonEmpty(trainCategoryColumn, cfg.Dataset.CategoryColumn),
		}
		info := trainInfo
		if info == "" && trainData == "" {
			info = cfg.Dataset.Info
		}
		html := trainHTML || cfg.Dataset.HTML
		maxSamples := trainMaxSamples
		if maxSamples == 0 {
			maxSamples = cfg.Training.MaxSamples
		}

		if trainAsync {
			if appInstance.JobClient == nil {
				return fmt.Errorf("job queue is not configured")
			}
			id, err := appInstance.JobClient.EnqueueTraining(ctx, tasks.TrainingPayload{
				DatasetPath:    src.Path,
				TextColumn:     src.TextColumn,
				CategoryColumn: src.CategoryColumn,
				InfoPath:       info,
				HTML:           html,
				MaxSamples:     maxSamples,
			})
			if err != nil {
				return fmt.Errorf("failed to enqueue training run: %w", err)
			}
			fmt.Fprintf(out, "Training run %s enqueued. Follow it with 'resumeclf runs show %s'.\n", id, id)
			return nil
		}

		run := &models.TrainingRun{
			Status:         models.RunStatusRunning,
			DatasetPath:    firstNonEmpty(info, src.Path),
			TextColumn:     src.TextColumn,
			CategoryColumn: src.CategoryColumn,
			MaxSamples:     maxSamples,
		}
		if err := appInstance.Runs.CreateRun(ctx, run); err != nil {
			return fmt.Errorf("failed to record training run: %w", err)
		}

		fmt.Fprintf(out, "Training run %s on %s\n", run.ID, run.DatasetPath)
		res, err := appInstance.TrainingService.Run(ctx, services.TrainRequest{
			RunID:      run.ID,
			Source:     src,
			InfoPath:   info,
			HTML:       html,
			MaxSamples: maxSamples,
		})
		if err != nil {
			return fmt.Errorf("training run %s failed: %w", run.ID, err)
		}

		fmt.Fprintf(out, "Samples: %d total, %d train, %d test\n", res.TotalSamples, res.TrainSamples, res.TestSamples)
		fmt.Fprintf(out, "Accuracy: %s\n\n", color.GreenString("%.4f", res.Accuracy))
		fmt.Fprintln(out, res.Report.String())
		fmt.Fprintf(out, "Model saved to %s in %s\n", cfg.Model.Dir, res.Duration.Round(time.Millisecond))
		return nil
	},
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// runID parses a run ID argument.
func runID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid run ID '%s': %w", arg, err)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVarP(&trainData, "data", "d", "", "Dataset CSV (default dataset.path)")
	trainCmd.Flags().StringVar(&trainInfo, "info", "", "dataset_info.json describing the dataset; overrides --data")
	trainCmd.Flags().StringVar(&trainTextColumn, "text-column", "", "Name of the resume text column")
	trainCmd.Flags().StringVar(&trainCategoryColumn, "category-column", "", "Name of the category column")
	trainCmd.Flags().BoolVar(&trainHTML, "html", false, "Convert HTML cells to text")
	trainCmd.Flags().IntVarP(&trainMaxSamples, "max-samples", "n", 0, "Train on at most this many rows (0 = all)")
	trainCmd.Flags().BoolVar(&trainAsync, "async", false, "Enqueue the run for the worker instead of training here")
}
