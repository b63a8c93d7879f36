package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var pluginsJSON bool

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List available analysis plugins",
	Args:  cobra.NoArgs,
	RunE:  runPlugins,
}

func init() {
	pluginsCmd.Flags().BoolVar(&pluginsJSON, "json", false, "output descriptors as JSON")
	rootCmd.AddCommand(pluginsCmd)
}

func runPlugins(cmd *cobra.Command, _ []string) error {
	if analyzerService == nil {
		return errors.New("analyzer service not configured")
	}

	descriptors := analyzerService.Plugins()
	if pluginsJSON {
		return writeJSON(cmd.OutOrStdout(), descriptors)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println("Plugins:")
	cmd.Println()
	for _, d := range descriptors {
		cmd.Printf("  %s %s\n", st.Title.Render(d.ID.String()), st.Muted.Render("("+d.DisplayName+")"))
		cmd.Printf("      %s\n", d.Description)
		var traits []string
		if d.RunUnconditionally {
			traits = append(traits, "runs on every chunk")
		} else if len(d.Relevance.Keywords) > 0 {
			traits = append(traits, "keywords: "+strings.Join(d.Relevance.Keywords, ", "))
		}
		if d.CaseInsensitiveLocate {
			traits = append(traits, "case-insensitive locate")
		}
		if len(traits) > 0 {
			cmd.Println(st.Muted.Render("      " + strings.Join(traits, "; ")))
		}
		cmd.Println()
	}
	return nil
}
