package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"resumeclf/internal/clix"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently served predictions",
	Long:  `Lists the most recent entries of the prediction log. Resume text is never stored, only its length.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if historyLimit <= 0 {
			return fmt.Errorf("limit must be positive, got %d", historyLimit)
		}
		entries, err := appInstance.Predictions.ListPredictions(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list predictions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No predictions recorded yet.")
			return nil
		}

		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"ID", "Time", "Backend", "Category", "Confidence", "Chars"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, e := range entries {
			table.Append([]string{
				strconv.FormatInt(e.ID, 10),
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				e.Backend,
				e.PredictedCategory,
				clix.Percent(e.Confidence),
				strconv.Itoa(e.TextLength),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Number of predictions to display")
}
