// Package clix holds small helpers shared by the CLI commands.
package clix

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"resumeclf/internal/models"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// ParsePagination reads the --limit and --offset flags. A non-positive
// limit falls back to 20.
func ParsePagination(flags *pflag.FlagSet) (PaginationParams, error) {
	limit, _ := flags.GetInt("limit")
	offset, _ := flags.GetInt("offset")
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		return PaginationParams{}, fmt.Errorf("offset must not be negative, got %d", offset)
	}
	return PaginationParams{Limit: limit, Offset: offset}, nil
}

// StatusColor renders a training run status for terminal output.
func StatusColor(status string) string {
	switch status {
	case models.RunStatusCompleted:
		return color.GreenString(status)
	case models.RunStatusFailed:
		return color.RedString(status)
	case models.RunStatusRunning:
		return color.CyanString(status)
	default:
		return color.YellowString(status)
	}
}

// Percent formats a confidence that is already on the 0-100 scale.
func Percent(confidence float64) string {
	return fmt.Sprintf("%.2f%%", confidence)
}
