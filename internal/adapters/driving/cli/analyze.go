package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/loader"
)

var (
	analyzePlugins     []string
	analyzeJSON        bool
	analyzeTimeout     time.Duration
	analyzeNoIsolation bool
	analyzeNoSave      bool
	analyzeWatch       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Analyse a document",
	Long: `Runs the selected plugins over a document and prints every finding
anchored to its line. Use "-" to read from standard input.

A plugin that fails or times out is reported in the Errors section; the
other plugins' comments are still shown.

Examples:
  marginalia analyze report.md
  marginalia analyze --plugins math,fact-check --json report.md
  cat notes.txt | marginalia analyze -
  marginalia analyze --watch draft.md`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSliceVarP(&analyzePlugins, "plugins", "p", nil, "plugins to run (default: configured set)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the analysis record as JSON")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 0, "per-attempt plugin timeout (default: configured)")
	analyzeCmd.Flags().BoolVar(&analyzeNoIsolation, "no-isolation", false, "share plugin instances between analyses")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "do not store the analysis in history")
	analyzeCmd.Flags().BoolVarP(&analyzeWatch, "watch", "w", false, "re-analyse whenever the file changes")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzerService == nil {
		return errors.New("analyzer service not configured")
	}

	path := args[0]
	opts, err := analyzeOptions()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	if err := analyzeOnce(ctx, cmd, path, opts); err != nil {
		return err
	}
	if !analyzeWatch {
		return nil
	}
	if path == loader.StdinURI {
		return fmt.Errorf("%w: --watch needs a file path", domain.ErrInvalidInput)
	}

	cmd.Printf("\nWatching %s for changes (Ctrl+C to stop)\n", path)
	return watchFile(ctx, path, watchDebounce, func() error {
		cmd.Println()
		return analyzeOnce(ctx, cmd, path, opts)
	})
}

func analyzeOptions() (driving.AnalyzeOptions, error) {
	opts := driving.AnalyzeOptions{
		Timeout:     analyzeTimeout,
		SkipPersist: analyzeNoSave,
	}
	if analyzeNoIsolation {
		isolated := false
		opts.Isolation = &isolated
	}
	for _, name := range analyzePlugins {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, err := domain.ParsePluginID(name)
		if err != nil {
			return opts, err
		}
		opts.Plugins = append(opts.Plugins, id)
	}
	return opts, nil
}

func analyzeOnce(ctx context.Context, cmd *cobra.Command, path string, opts driving.AnalyzeOptions) error {
	doc, err := documentLoader.Load(path)
	if err != nil {
		return err
	}

	record, err := analyzerService.Analyze(ctx, doc, opts)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeJSON {
		return writeJSON(cmd.OutOrStdout(), record)
	}
	writeReport(cmd.OutOrStdout(), record)
	return nil
}
