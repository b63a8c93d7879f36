package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past analyses",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [analysis-id]",
	Short: "Show a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of analyses")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if analyzerService == nil {
		return errors.New("analyzer service not configured")
	}

	records, err := analyzerService.History(commandContext(cmd), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list analyses: %w", err)
	}
	if historyJSON {
		return writeJSON(cmd.OutOrStdout(), records)
	}

	if len(records) == 0 {
		cmd.Println("No analyses found.")
		return nil
	}

	st := newStyles(cmd.OutOrStdout())
	for i := range records {
		r := &records[i]
		findings, failed := 0, 0
		if r.Result != nil {
			findings = r.Result.Summary.TotalFindings
			failed = r.Result.Summary.Failed
		}
		cmd.Printf("  %s  %s\n", st.Title.Render(r.ID), r.CreatedAt.Local().Format(time.DateTime))
		line := fmt.Sprintf("      %s · %d findings", r.Title, findings)
		if failed > 0 {
			line += st.Error.Render(fmt.Sprintf(" · %d failed", failed))
		}
		cmd.Println(line)
	}
	cmd.Printf("\nTotal: %d analyses\n", len(records))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if analyzerService == nil {
		return errors.New("analyzer service not configured")
	}

	record, err := analyzerService.Get(commandContext(cmd), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("analysis %s not found", args[0])
		}
		return fmt.Errorf("failed to load analysis: %w", err)
	}
	if historyJSON {
		return writeJSON(cmd.OutOrStdout(), record)
	}
	writeReport(cmd.OutOrStdout(), record)
	return nil
}
