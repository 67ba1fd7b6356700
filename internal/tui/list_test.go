package tui

import (
	"strings"
	"testing"

	"wellnessflow/internal/domain"
)

func TestRenderSessions_Empty(t *testing.T) {
	out := RenderSessions(nil)
	if !strings.Contains(out, "No sessions yet.") {
		t.Fatalf("unexpected empty-state output: %q", out)
	}
}

func TestRenderSessions_ShowsBadgeAndTags(t *testing.T) {
	out := RenderSessions([]domain.SessionDocument{
		{ID: 1, Title: "Morning Flow", Status: domain.StatusPublished, Tags: "yoga, morning"},
		{ID: 2, Title: "Scratchpad", Status: domain.StatusDraft, Description: "Not ready"},
	})

	for _, want := range []string{"Morning Flow", "Published", "yoga · morning", "Scratchpad", "Draft", "Not ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 40); got != "short" {
		t.Fatalf("short string modified: %q", got)
	}
	long := strings.Repeat("é", 50)
	got := truncate(long, 40)
	if r := []rune(got); len(r) != 40 || r[39] != '…' {
		t.Fatalf("truncation wrong: %q", got)
	}
}
