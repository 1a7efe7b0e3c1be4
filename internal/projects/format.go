package projects

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/crewgate/internal/specstore"
)

// formatProjectSummary renders one project as a one-line markdown bullet
// for project_list output.
func formatProjectSummary(p *specstore.Project) string {
	done, total, pct := projectProgress(p)
	return fmt.Sprintf("- **%s** (`%s`) — %s, %d/%d stories done (%d%%)",
		p.Name, p.ID, valueOr(p.Status, "unknown"), done, total, pct)
}

// formatProject renders the full project tree as markdown for
// project_get output.
func formatProject(p *specstore.Project) string {
	var b strings.Builder

	done, total, pct := projectProgress(p)
	fmt.Fprintf(&b, "# Project: %s\n\n", p.Name)
	fmt.Fprintf(&b, "**ID:** `%s`\n", p.ID)
	if p.Status != "" {
		fmt.Fprintf(&b, "**Status:** %s\n", p.Status)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Description)
	}
	fmt.Fprintf(&b, "\n**Progress:** %d/%d stories done (%d%%)\n\n", done, total, pct)

	for _, epic := range p.Epics {
		epicPct := progressPercentage(epic.CompletedStories, len(epic.Stories))
		fmt.Fprintf(&b, "## Epic: %s (`%s`)\n\n", epic.Title, epic.ID)
		fmt.Fprintf(&b, "Status: %s — %d/%d stories done (%d%%)\n\n",
			epic.Status, epic.CompletedStories, len(epic.Stories), epicPct)

		if len(epic.Stories) == 0 {
			b.WriteString("_No stories._\n\n")
			continue
		}

		b.WriteString("| Story | Status | Priority | Criteria |\n")
		b.WriteString("|-------|--------|----------|----------|\n")
		for _, s := range epic.Stories {
			completed := 0
			for _, c := range s.AcceptanceCriteria {
				if c.Completed {
					completed++
				}
			}
			fmt.Fprintf(&b, "| %s (`%s`) | %s | %s | %d/%d |\n",
				s.Title, s.ID, s.Status, valueOr(s.Priority, "—"),
				completed, len(s.AcceptanceCriteria))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// formatStory renders one story with criteria and comments for
// story_get output.
func formatStory(s *specstore.Story, epic *specstore.Epic) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Story: %s\n\n", s.Title)
	fmt.Fprintf(&b, "**ID:** `%s`\n", s.ID)
	fmt.Fprintf(&b, "**Epic:** %s (`%s`)\n", epic.Title, epic.ID)
	fmt.Fprintf(&b, "**Status:** %s\n", s.Status)
	if s.Priority != "" {
		fmt.Fprintf(&b, "**Priority:** %s\n", s.Priority)
	}
	if len(s.AssignedPersonas) > 0 {
		fmt.Fprintf(&b, "**Assigned personas:** %s\n", strings.Join(s.AssignedPersonas, ", "))
	}
	if len(s.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(s.Tags, ", "))
	}
	if s.StartedAt != "" {
		fmt.Fprintf(&b, "**Started:** %s\n", s.StartedAt)
	}
	if s.CompletedAt != "" {
		fmt.Fprintf(&b, "**Completed:** %s\n", s.CompletedAt)
	}
	if s.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", s.Description)
	}

	if len(s.AcceptanceCriteria) > 0 {
		b.WriteString("\n## Acceptance Criteria\n\n")
		for _, c := range s.AcceptanceCriteria {
			marker := "⬜"
			if c.Completed {
				marker = "✅"
			}
			fmt.Fprintf(&b, "- %s `%s` %s", marker, c.ID, c.Description)
			if c.IsBlocking {
				b.WriteString(" **(blocking)**")
			}
			if c.Completed && c.VerifiedBy != "" {
				fmt.Fprintf(&b, " — verified by %s at %s", c.VerifiedBy, c.VerifiedAt)
			}
			b.WriteString("\n")
		}
	}

	if len(s.Comments) > 0 {
		b.WriteString("\n## Comments\n\n")
		for _, c := range s.Comments {
			fmt.Fprintf(&b, "- [%s] **%s** (%s, %s): %s\n",
				c.CreatedAt, c.Author, c.AuthorType, c.Type, c.Content)
		}
	}

	return b.String()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
