// Package cli holds the terminal styling shared by the fxcorpus commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	fxcorpus "github.com/cbegin/fxcorpus-go"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#7D56F4")
	okColor      = lipgloss.Color("#00AA00")
	errorColor   = lipgloss.Color("#D70000")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	OKStyle    = lipgloss.NewStyle().Foreground(okColor)
	KeyStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	ValueStyle = lipgloss.NewStyle().Bold(true).Foreground(textColor)

	boxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor).Padding(0, 1)
)

func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("fxcorpus"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintKV prints one aligned key/value line.
func PrintKV(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(fmt.Sprintf("%-22s", key+":")), ValueStyle.Render(fmt.Sprint(value)))
}

// PrintBatchSummary renders the closing box of a batch run.
func PrintBatchSummary(w io.Writer, report *fxcorpus.BatchReport, elapsed time.Duration) {
	status := OKStyle.Render("✓ batch complete")
	if report.Failed > 0 {
		status = ErrorStyle.Render(fmt.Sprintf("✗ %d file(s) failed", report.Failed))
	}
	body := fmt.Sprintf("%s\n\n%s %d\n%s %d\n%s %s\n%s %s",
		status,
		KeyStyle.Render("Processed:"), report.Processed,
		KeyStyle.Render("Failed:   "), report.Failed,
		KeyStyle.Render("Corpus:   "), report.CorpusPath,
		KeyStyle.Render("Elapsed:  "), elapsed.Round(time.Millisecond),
	)
	fmt.Fprintln(w, boxStyle.Render(body))
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Fprintf(w, " %s %s: %v\n", ErrorStyle.Render("✗"), res.Filename, res.Err)
		}
	}
}

// PrintParams prints a parameter set one field per line.
func PrintParams(w io.Writer, ps fxcorpus.ParameterSet) {
	for _, f := range ps.Fields() {
		PrintKV(w, f.Key, fmt.Sprintf("%.4f", f.Value))
	}
}
