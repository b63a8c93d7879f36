package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// defaultWidth is used when the output is not a terminal.
const defaultWidth = 100

// Palette shared with the rest of the custodia tooling.
var (
	colourPrimary = lipgloss.Color("#7C3AED")
	colourMuted   = lipgloss.Color("#6C7086")
	colourSuccess = lipgloss.Color("#A6E3A1")
	colourWarning = lipgloss.Color("#F9E2AF")
	colourError   = lipgloss.Color("#F38BA8")
	colourInfo    = lipgloss.Color("#06B6D4")
)

// styles are bound to one output so colour is dropped for pipes and files.
type styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	width   int
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		Title:   r.NewStyle().Bold(true).Foreground(colourPrimary),
		Muted:   r.NewStyle().Foreground(colourMuted),
		Success: r.NewStyle().Foreground(colourSuccess),
		Warning: r.NewStyle().Foreground(colourWarning),
		Error:   r.NewStyle().Bold(true).Foreground(colourError),
		Info:    r.NewStyle().Foreground(colourInfo),
		width:   termWidth(w),
	}
}

// Severity returns the style for a comment severity.
func (s styles) Severity(sev domain.Severity) lipgloss.Style {
	switch sev {
	case domain.SeverityError:
		return s.Error
	case domain.SeverityWarning:
		return s.Warning
	default:
		return s.Info
	}
}

// Status returns the style for a section status.
func (s styles) Status(status domain.SectionStatus) lipgloss.Style {
	switch status {
	case domain.SectionSucceeded:
		return s.Success
	case domain.SectionFailed:
		return s.Error
	default:
		return s.Muted
	}
}

// Clip shortens text to fit the output width after indent columns.
func (s styles) Clip(text string, indent int) string {
	limit := s.width - indent
	if limit < 20 {
		limit = 20
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}

func termWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
