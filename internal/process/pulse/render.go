package pulse

import (
	"fmt"
	"strings"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
)

// RenderMarkdown renders a pulse note as the human-readable companion of the
// JSON artifact. The layout is stable so notes diff cleanly week over week.
func RenderMarkdown(note domain.PulseNote) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", note.Title))
	sb.WriteString(fmt.Sprintf("**Week:** %s to %s\n\n", note.WeekStart.String(), note.WeekEnd.String()))
	sb.WriteString(note.Overview)
	sb.WriteString("\n")

	if len(note.Themes) > 0 {
		sb.WriteString("\n## Themes\n")

		for _, theme := range note.Themes {
			sb.WriteString(fmt.Sprintf("\n### %s\n\n%s\n", theme.Name, theme.Summary))
		}
	}

	if len(note.Quotes) > 0 {
		sb.WriteString("\n## What users said\n\n")

		for _, quote := range note.Quotes {
			sb.WriteString(fmt.Sprintf("> %s\n\n", quote))
		}
	}

	if len(note.Actions) > 0 {
		sb.WriteString("## Action ideas\n\n")

		for _, action := range note.Actions {
			sb.WriteString(fmt.Sprintf("- %s\n", action))
		}
	}

	return sb.String()
}
