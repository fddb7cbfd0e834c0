package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"resumeclf/internal/app"
	"resumeclf/internal/config"
)

// Version is set at build time with -ldflags "-X resumeclf/cmd.Version=...".
var Version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "resumeclf",
	Short: "Resume category classifier",
	Long: `resumeclf trains a TF-IDF + random forest model that assigns a job category
to resume text, and serves predictions from the CLI, an HTTP API, an MCP
server or a background worker.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipAppInit(cmd) {
			return nil
		}

		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		app.ConfigureLogging(cfg.Log.Level)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		appInstance, err := app.NewApp(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance, err := GetAppFromContext(cmd.Context()); err == nil {
			return appInstance.Close()
		}
		return nil
	},
}

func skipAppInit(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "version", "resumeclf", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return cmd.Parent() != nil && cmd.Parent().Name() == "completion"
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", color.RedString("Error"), err)
		os.Exit(1)
	}
}

type contextKey string

const appKey contextKey = "app"

// GetAppFromContext returns the app stored by the root command.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	if ctx == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./config.yaml or ~/.config/resumeclf/config.yaml)")

	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(costCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "resumeclf %s\n", Version)
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the ledger, the model and the categorizer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}

		fmt.Fprintln(out, "Checking ledger connectivity...")
		if err := appInstance.Ledger.Ping(ctx); err != nil {
			return fmt.Errorf("ledger ping failed: %w", err)
		}
		fmt.Fprintf(out, "  %s ledger %s\n", color.GreenString("OK"), appInstance.Config.Database.DSN)

		if cats, err := appInstance.Model.Categories(); err != nil {
			fmt.Fprintf(out, "  %s model in %s: %v\n", color.YellowString("WARN"), appInstance.Config.Model.Dir, err)
		} else {
			fmt.Fprintf(out, "  %s model in %s (%d categories)\n", color.GreenString("OK"), appInstance.Config.Model.Dir, len(cats))
		}

		fmt.Fprintf(out, "  %s categorizer %s\n", color.GreenString("OK"), appInstance.Categorizer.Name())
		if appInstance.JobClient == nil {
			fmt.Fprintf(out, "  %s job queue not configured\n", color.YellowString("WARN"))
		}
		log.Debug("doctor finished")
		return nil
	},
}
