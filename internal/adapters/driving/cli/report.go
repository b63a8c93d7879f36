package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeReport renders an analysis record for a terminal.
func writeReport(w io.Writer, record *domain.AnalysisRecord) {
	st := newStyles(w)
	result := record.Result
	if result == nil {
		fmt.Fprintln(w, "No result recorded.")
		return
	}

	title := record.Title
	if title == "" {
		title = record.DocumentURI
	}
	fmt.Fprintln(w, st.Title.Render(title))
	fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf("analysis %s · %d chunks", record.ID, result.Summary.TotalChunks)))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Plugins:")
	for _, id := range record.Plugins {
		sec := result.Section(id)
		if sec == nil {
			continue
		}
		line := fmt.Sprintf("  %-20s %s", sec.DisplayName, st.Status(sec.Status).Render(fmt.Sprintf("%-9s", sec.Status)))
		switch sec.Status {
		case domain.SectionSucceeded:
			line += fmt.Sprintf("  %d comments", len(sec.Comments))
			if sec.Dropped > 0 {
				line += st.Muted.Render(fmt.Sprintf(" (%d unlocated)", sec.Dropped))
			}
		case domain.SectionSkipped:
			line += st.Muted.Render("  " + sec.Reason)
		case domain.SectionFailed:
			line += fmt.Sprintf("  after %d attempts", sec.Attempts)
		}
		fmt.Fprintln(w, line)
	}

	if len(result.Comments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Comments:")
		for i := range result.Comments {
			writeComment(w, st, result, &result.Comments[i])
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Errors:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s %s %s\n", e.DisplayName, st.Error.Render("("+string(e.ErrorClass)+")"), st.Clip(e.Message, 4+len(e.DisplayName)))
			if e.RecoveryHint != "" {
				fmt.Fprintln(w, st.Muted.Render("      hint: "+e.RecoveryHint))
			}
		}
	}

	s := result.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d findings · %d succeeded, %d failed, %d skipped · cost $%.4f · %s\n",
		s.TotalFindings, s.Succeeded, s.Failed, s.Skipped, s.TotalCost, s.Duration.Round(time.Millisecond))
}

func writeComment(w io.Writer, st styles, result *domain.AggregatedResult, c *domain.Comment) {
	name := string(c.PluginID)
	if sec := result.Section(c.PluginID); sec != nil && sec.DisplayName != "" {
		name = sec.DisplayName
	}
	sev := st.Severity(c.Severity).Render(fmt.Sprintf("[%s]", c.Severity))
	fmt.Fprintf(w, "  L%d %s %s: %s\n", c.Location.LineNumber, sev, name, st.Clip(c.Message, 8+len(name)))
	fmt.Fprintln(w, st.Muted.Render("      "+st.Clip(quoteLine(c.Location.MatchedText), 6)))
}

// writeMatch renders a location match for a terminal.
func writeMatch(w io.Writer, m domain.LocationMatch) {
	st := newStyles(w)
	fmt.Fprintf(w, "%s at line %d, bytes %d-%d\n", st.Success.Render("Found"), m.LineNumber, m.StartOffset, m.EndOffset)
	fmt.Fprintf(w, "  strategy:   %s (confidence %.2f)\n", m.Strategy, m.Confidence)
	fmt.Fprintf(w, "  matched:    %s\n", st.Clip(quoteLine(m.MatchedText), 14))
	fmt.Fprintf(w, "  line:       %s\n", st.Clip(m.LineText, 14))
}

// quoteLine quotes text on a single line.
func quoteLine(text string) string {
	return `"` + strings.Join(strings.Fields(text), " ") + `"`
}
