package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Width(14)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)
)

// Summary is the end-of-scan report printed to stderr.
type Summary struct {
	RunID       string
	Files       int
	Parsed      int
	ParseFailed int
	Errors      int
	CacheHits   int
	Imports     int
	Duration    time.Duration
}

func RenderSummary(s Summary) string {
	rows := []string{
		titleStyle.Render("pyimports scan " + s.RunID),
		row("files", okStyle.Render(fmt.Sprint(s.Files))),
		row("parsed", okStyle.Render(fmt.Sprint(s.Parsed))),
		row("parse failed", countStyle(s.ParseFailed, warnStyle).Render(fmt.Sprint(s.ParseFailed))),
		row("errors", countStyle(s.Errors, errStyle).Render(fmt.Sprint(s.Errors))),
		row("cache hits", fmt.Sprint(s.CacheHits)),
		row("imports", fmt.Sprint(s.Imports)),
		row("elapsed", s.Duration.Round(time.Millisecond).String()),
	}
	return boxStyle.Render(strings.Join(rows, "\n"))
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func countStyle(n int, nonZero lipgloss.Style) lipgloss.Style {
	if n == 0 {
		return okStyle
	}
	return nonZero
}
