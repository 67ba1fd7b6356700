package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wellnessflow/internal/domain"
)

var (
	publishedBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("28")).Render("✓ Published")
	draftBadge     = lipgloss.NewStyle().Foreground(lipgloss.Color("178")).Render("📝 Draft")
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func statusBadge(status domain.Status) string {
	if status == domain.StatusPublished {
		return publishedBadge
	}
	return draftBadge
}

// RenderSessions formats a session collection for terminal output.
func RenderSessions(docs []domain.SessionDocument) string {
	if len(docs) == 0 {
		return dimStyle.Render("No sessions yet.") + "\n"
	}

	var b strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&b, "%4d  %-40s %s\n", d.ID, truncate(d.Title, 40), statusBadge(d.Status))
		if d.Description != "" {
			fmt.Fprintf(&b, "      %s\n", dimStyle.Render(truncate(d.Description, 70)))
		}
		if tags := domain.TagList(d.Tags); len(tags) > 0 {
			fmt.Fprintf(&b, "      %s\n", dimStyle.Render(strings.Join(tags, " · ")))
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
