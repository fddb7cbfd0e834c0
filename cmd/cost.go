package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"resumeclf/internal/clix"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "View LLM usage costs",
	Long:  `Lists the recorded LLM categorization calls and summarizes their token usage and cost.`,
}

var costListCmd = &cobra.Command{
	Use:   "list",
	Short: "List LLM usage logs",
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
		logs, err := appInstance.CostStore.ListUsage(cmd.Context(), pagination.Limit, pagination.Offset)
		if err != nil {
			return fmt.Errorf("failed to list cost logs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(logs) == 0 {
			fmt.Fprintln(out, "No cost logs found.")
			return nil
		}

		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"ID", "Timestamp", "Provider", "Service", "Model", "In Tokens", "Out Tokens", "Cost", "Run"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, l := range logs {
			run := "N/A"
			if l.RelatedRunID != nil {
				run = l.RelatedRunID.String()
			}
			table.Append([]string{
				strconv.FormatInt(l.ID, 10),
				l.Timestamp.Local().Format("2006-01-02 15:04:05"),
				l.ProviderName,
				l.ServiceType,
				l.ModelName,
				strconv.Itoa(l.InputTokens),
				strconv.Itoa(l.OutputTokens),
				fmt.Sprintf("%.8f", l.Cost),
				run,
			})
		}
		table.Render()

		fmt.Fprintf(out, "\nDisplayed %d logs.\n", len(logs))
		return nil
	},
}

var costSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show total LLM cost and token usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		s, err := appInstance.CostTracker.Summary(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get cost summary: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "LLM Usage Cost Summary:")
		fmt.Fprintln(out, "----------------------")
		fmt.Fprintf(out, "Total Cost:          $%.6f\n", s.TotalCost)
		fmt.Fprintf(out, "Total Input Tokens:  %d\n", s.TotalInputTokens)
		fmt.Fprintf(out, "Total Output Tokens: %d\n", s.TotalOutputTokens)
		fmt.Fprintln(out, "----------------------")
		return nil
	},
}

func init() {
	costCmd.AddCommand(costListCmd)
	costCmd.AddCommand(costSummaryCmd)

	costListCmd.Flags().IntP("limit", "l", 50, "Number of logs to display")
	costListCmd.Flags().IntP("offset", "o", 0, "Number of logs to skip")
}
