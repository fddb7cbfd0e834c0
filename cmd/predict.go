package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"resumeclf/internal/clix"
	"resumeclf/internal/inputprocessor"
	"resumeclf/pkg/categorizer"
)

var (
	predictDir  string
	predictJSON bool
)

type predictOutput struct {
	Source string                           `json:"source"`
	Result *categorizer.CategorizationResult `json:"result,omitempty"`
	Error  string                           `json:"error,omitempty"`
}

var predictCmd = &cobra.Command{
	Use:   "predict [file|url|-|text]...",
	Short: "Predict the category of one or more resumes",
	Long: `Classifies each input. An input is a file path, an http(s) URL, "-" for
stdin or the resume text itself. With --dir every .txt, .md and .html file
under the directory is classified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return err
		}
		if len(args) == 0 && predictDir == "" {
			return fmt.Errorf("no input given: pass a file, URL, '-' or text, or use --dir")
		}
		if !appInstance.ClassificationService.Ready() {
			return fmt.Errorf("no model loaded: run 'resumeclf train' first")
		}

		inputs := append([]string(nil), args...)
		if predictDir != "" {
			files, err := inputprocessor.Discover(ctx, predictDir)
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", predictDir, err)
			}
			inputs = append(inputs, files...)
		}

		proc := inputprocessor.New(cmd.InOrStdin())
		outputs := make([]predictOutput, 0, len(inputs))
		for _, input := range inputs {
			o := predictOutput{Source: label(input)}
			in, err := proc.Process(ctx, input)
			if err == nil {
				o.Result, err = appInstance.ClassificationService.Classify(ctx, in.Text)
			}
			if err != nil {
				o.Error = err.Error()
			}
			outputs = append(outputs, o)
		}

		out := cmd.OutOrStdout()
		if predictJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if len(outputs) == 1 {
				return enc.Encode(outputs[0])
			}
			return enc.Encode(outputs)
		}
		if len(outputs) == 1 {
			return printPrediction(out, outputs[0])
		}
		printPredictions(out, outputs)
		return nil
	},
}

func printPrediction(out io.Writer, o predictOutput) error {
	if o.Error != "" {
		return fmt.Errorf("%s: %s", o.Source, o.Error)
	}
	fmt.Fprintf(out, "Predicted category: %s (%s)\n\n", color.GreenString(o.Result.Category), clix.Percent(o.Result.Confidence))

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Rank", "Category", "Confidence"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, p := range o.Result.Top {
		table.Append([]string{fmt.Sprint(i + 1), p.Category, clix.Percent(p.Confidence)})
	}
	table.Render()
	return nil
}

func printPredictions(out io.Writer, outputs []predictOutput) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Source", "Category", "Confidence"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)

	failed := 0
	for _, o := range outputs {
		if o.Error != "" {
			failed++
			table.Append([]string{o.Source, color.RedString("ERROR"), o.Error})
			continue
		}
		table.Append([]string{o.Source, o.Result.Category, clix.Percent(o.Result.Confidence)})
	}
	table.Render()
	fmt.Fprintf(out, "\nClassified %d of %d inputs.\n", len(outputs)-failed, len(outputs))
}

// label shortens raw resume text so it fits in a table cell.
func label(input string) string {
	if input == "-" {
		return "stdin"
	}
	if _, err := os.Stat(input); err == nil || strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return input
	}
	flat := strings.Join(strings.Fields(input), " ")
	if r := []rune(flat); len(r) > 40 {
		return string(r[:37]) + "..."
	}
	return flat
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVar(&predictDir, "dir", "", "Classify every resume file under this directory")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "Print results as JSON")
}
