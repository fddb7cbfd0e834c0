package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"resumeclf/internal/clix"
	"resumeclf/internal/pipeline"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect training runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List training runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		pagination, err := clix.ParsePagination(cmd.Flags())
		if err != nil {
			return fmt.Errorf("invalid pagination flags: %w", err)
		}
		runs, err := appInstance.Runs.ListRuns(cmd.Context(), pagination.Limit, pagination.Offset)
		if err != nil {
			return fmt.Errorf("failed to list training runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No training runs found.")
			return nil
		}

		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"ID", "Status", "Dataset", "Samples", "Accuracy", "Created"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetAutoWrapText(false)
		for _, r := range runs {
			accuracy := "-"
			if r.Accuracy != nil {
				accuracy = fmt.Sprintf("%.4f", *r.Accuracy)
			}
			table.Append([]string{
				r.ID.String(),
				clix.StatusColor(r.Status),
				r.DatasetPath,
				strconv.Itoa(r.TotalSamples),
				accuracy,
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
			})
		}
		table.Render()
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a training run and its evaluation report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		id, err := runID(args[0])
		if err != nil {
			return err
		}
		run, err := appInstance.Runs.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run:       %s\n", run.ID)
		fmt.Fprintf(out, "Status:    %s\n", clix.StatusColor(run.Status))
		fmt.Fprintf(out, "Dataset:   %s (%s -> %s)\n", run.DatasetPath, run.TextColumn, run.CategoryColumn)
		fmt.Fprintf(out, "Created:   %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Updated:   %s\n", run.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		if run.Error != "" {
			fmt.Fprintf(out, "Error:     %s\n", run.Error)
		}
		if run.Accuracy == nil {
			return nil
		}
		fmt.Fprintf(out, "Samples:   %d total, %d train, %d test\n", run.TotalSamples, run.TrainSamples, run.TestSamples)
		fmt.Fprintf(out, "Accuracy:  %.4f\n", *run.Accuracy)

		var report pipeline.Report
		if len(run.ReportJSON) > 0 && json.Unmarshal(run.ReportJSON, &report) == nil {
			fmt.Fprintln(out)
			fmt.Fprintln(out, report.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsListCmd.Flags().IntP("limit", "l", 20, "Number of runs to display")
	runsListCmd.Flags().IntP("offset", "o", 0, "Number of runs to skip")
}
