// Package cli provides the marginalia command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/loader"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired in by main.
var (
	analyzerService driving.DocumentAnalyzer
	locatorService  driving.LocationResolver
	settingsService driving.SettingsManager
	documentLoader  = loader.New()

	// envFile is where "settings llm" stores the API key.
	envFile string
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "marginalia",
	Short: "Annotate documents with located review comments",
	Long: `Marginalia runs a set of analysis plugins over a document (math, spelling,
fact-check, forecast and link checks) and anchors every finding to the exact
range of text it refers to.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Services holds the core services the commands drive.
type Services struct {
	Analyzer driving.DocumentAnalyzer
	Locator  driving.LocationResolver
	Settings driving.SettingsManager
	Loader   *loader.Loader

	// EnvFile is the .env path used to store credentials.
	EnvFile string
}

// SetServices injects the core services. Nil fields leave the current value.
func SetServices(s Services) {
	if s.Analyzer != nil {
		analyzerService = s.Analyzer
	}
	if s.Locator != nil {
		locatorService = s.Locator
	}
	if s.Settings != nil {
		settingsService = s.Settings
	}
	if s.Loader != nil {
		documentLoader = s.Loader
	}
	if s.EnvFile != "" {
		envFile = s.EnvFile
	}
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, or Background when run
// without ExecuteContext (as in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
