package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

var (
	locateContext         string
	locateCaseInsensitive bool
	locatePartial         bool
	locateFuzzy           bool
	locateExpand          string
	locateJSON            bool
)

var locateCmd = &cobra.Command{
	Use:   "locate [file|-] [quote]",
	Short: "Find where a quote appears in a document",
	Long: `Resolves a quote to an exact byte range of a document, tolerating curly
quotes, whitespace differences and, when enabled, case, truncation and
paraphrase.`,
	Args: cobra.ExactArgs(2),
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().StringVar(&locateContext, "context", "", "larger excerpt the quote is embedded in")
	locateCmd.Flags().BoolVarP(&locateCaseInsensitive, "case-insensitive", "i", false, "ignore case")
	locateCmd.Flags().BoolVar(&locatePartial, "partial", false, "allow matching a prefix of a long quote")
	locateCmd.Flags().BoolVar(&locateFuzzy, "fuzzy", false, "allow key-phrase matching")
	locateCmd.Flags().StringVar(&locateExpand, "expand", "", "grow partial matches to a boundary: sentence or paragraph")
	locateCmd.Flags().BoolVar(&locateJSON, "json", false, "output the match as JSON")
	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	if locatorService == nil {
		return errors.New("locator service not configured")
	}

	boundary := domain.Boundary(locateExpand)
	switch boundary {
	case domain.BoundaryNone, domain.BoundarySentence, domain.BoundaryParagraph:
	default:
		return fmt.Errorf("%w: --expand must be sentence or paragraph", domain.ErrInvalidInput)
	}

	doc, err := documentLoader.Load(args[0])
	if err != nil {
		return err
	}

	opts := domain.LocateOptions{
		CaseInsensitive: locateCaseInsensitive,
		Context:         locateContext,
		AllowPartial:    locatePartial,
		AllowFuzzy:      locateFuzzy,
		ExpandTo:        boundary,
	}
	match, ok := locatorService.Locate(args[1], doc.Content, opts)
	if !ok {
		if locateJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"found": false})
		}
		return fmt.Errorf("quote %w in %s", domain.ErrNotFound, args[0])
	}

	if locateJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"found": true, "match": match})
	}
	writeMatch(cmd.OutOrStdout(), match)
	return nil
}
