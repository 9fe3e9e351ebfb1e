package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	okIcon      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
	errIcon     = lipgloss.NewStyle().Foreground(lipgloss.Color("#D70000")).Render("✗")
	queuedIcon  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
	footerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#888888")).
			Padding(0, 1)
)

// maxListed bounds the file list so large batches fit the terminal.
const maxListed = 20

func renderProcessingView(m Model) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("fxcorpus - randomized effect chains"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Processing %d file(s) with %d worker(s)", m.TotalFiles, m.Workers)))
	b.WriteString("\n\n")
	b.WriteString(renderFileList(m))
	b.WriteString("\n")
	b.WriteString(renderOverallProgress(m))
	return b.String()
}

func renderFileList(m Model) string {
	var b strings.Builder
	start := 0
	if len(m.Files) > maxListed {
		// Keep the most recently finished files in view.
		done := m.CompletedFiles + m.FailedFiles
		start = min(max(done-maxListed/2, 0), len(m.Files)-maxListed)
	}
	end := min(start+maxListed, len(m.Files))
	if start > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  … %d earlier", start)))
		b.WriteString("\n")
	}
	for _, f := range m.Files[start:end] {
		b.WriteString(renderFileEntry(f))
		b.WriteString("\n")
	}
	if end < len(m.Files) {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  … %d more", len(m.Files)-end)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderFileEntry(f FileProgress) string {
	switch f.Status {
	case StatusComplete:
		return fmt.Sprintf(" %s %s  %s", okIcon, f.Name,
			mutedStyle.Render(fmt.Sprintf("room %.2f · drive %.1f dB · pitch %+.1f st · %s",
				f.Params.ReverbRoomSize, f.Params.DriveDB(), f.Params.PitchShiftSemitones,
				f.Duration.Round(time.Millisecond))))
	case StatusError:
		return fmt.Sprintf(" %s %s  %v", errIcon, f.Name, f.Error)
	default:
		return fmt.Sprintf(" %s %s", queuedIcon, f.Name)
	}
}

func renderProgressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	filled = min(max(filled, 0), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %d%%", bar, int(progress*100))
}

func renderOverallProgress(m Model) string {
	done := m.CompletedFiles + m.FailedFiles
	progress := 1.0
	if m.TotalFiles > 0 {
		progress = float64(done) / float64(m.TotalFiles)
	}
	content := fmt.Sprintf("%s\n%d/%d done · %d failed · %s elapsed",
		renderProgressBar(progress, 40), done, m.TotalFiles, m.FailedFiles,
		time.Since(m.StartTime).Round(time.Second))
	return footerStyle.Render(content)
}

func renderFinal(m Model) string {
	if m.Aborted && !m.Done {
		return mutedStyle.Render(fmt.Sprintf("Stopping after %d of %d file(s)…", m.CompletedFiles+m.FailedFiles, m.TotalFiles)) + "\n"
	}
	var b strings.Builder
	for _, f := range m.Files {
		if f.Status != StatusQueued {
			b.WriteString(renderFileEntry(f))
			b.WriteString("\n")
		}
	}
	return b.String()
}
