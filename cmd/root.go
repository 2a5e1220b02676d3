package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/khrees2412/prospector/internal/app"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prospector",
	Short: "Track job leads, applications and resumes with AI match scoring",
	Long: `Prospector keeps your job search in one place.
Capture job leads, score them against your active resume with an LLM,
promote the good ones to tracked applications and follow every stage change.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		// Initialize app with all dependencies
		application, err := app.NewApp(cmd.Context(), configPath)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		cobra.OnFinalize(func() { application.Close() })

		// Store app in command context
		cmd.SetContext(app.WithApp(cmd.Context(), application))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// getApp returns the App stored by PersistentPreRunE
func getApp(cmd *cobra.Command) (*app.App, error) {
	return app.FromContext(cmd.Context())
}

// parseID parses a positive numeric id argument
func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: must be a positive number", what)
	}
	return id, nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ~/.prospector/config.yaml)")
}
