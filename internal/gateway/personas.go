package gateway

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/crewgate/internal/catalog"
	"github.com/HendryAvila/crewgate/internal/specstore"
)

// handlePersonaList implements the persona discovery tool. The optional
// "tag" argument filters the list.
func (d *Dispatcher) handlePersonaList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := req.GetString("tag", "")

	personas, err := d.store.ListPersonas(ctx)
	if err != nil {
		return nil, err
	}

	type personaSummary struct {
		ID   string   `json:"id"`
		Name string   `json:"name"`
		Tags []string `json:"tags,omitempty"`
		Tool string   `json:"tool"`
	}

	var b strings.Builder
	b.WriteString("# Available Personas\n\n")
	summaries := make([]personaSummary, 0, len(personas))
	for _, p := range personas {
		if tag != "" && !slices.Contains(p.Tags, tag) {
			continue
		}
		summaries = append(summaries, personaSummary{
			ID: p.ID, Name: p.Name, Tags: p.Tags,
			Tool: catalog.PersonaToolName(p.ID),
		})
		fmt.Fprintf(&b, "- **%s** (`%s`)", p.Name, p.ID)
		if len(p.Tags) > 0 {
			fmt.Fprintf(&b, " — tags: %s", strings.Join(p.Tags, ", "))
		}
		fmt.Fprintf(&b, " — call `%s`\n", catalog.PersonaToolName(p.ID))
	}
	if len(summaries) == 0 {
		b.WriteString("_No personas found._\n")
	}

	result := mcp.NewToolResultText(b.String())
	result.StructuredContent = map[string]any{"personas": summaries}
	return result, nil
}

// handlePersonaSpec implements the per-persona get-specification tool.
func (d *Dispatcher) handlePersonaSpec(ctx context.Context, personaID string) (*mcp.CallToolResult, error) {
	persona, err := d.store.GetPersona(ctx, personaID)
	if err != nil {
		return nil, notFoundAs(err, "persona %q not found", personaID)
	}

	result := mcp.NewToolResultText(formatPersona(persona))
	result.StructuredContent = map[string]any{"persona": persona}
	return result, nil
}

func formatPersona(p *specstore.PersonaSpec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Persona: %s\n\n", p.Name)
	fmt.Fprintf(&b, "**ID:** `%s`\n", p.ID)
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(p.Tags, ", "))
	}
	if p.Metadata.WebSearchEnabled {
		b.WriteString("**Web search:** enabled\n")
	}

	spec := p.Specification
	if spec.Mission != "" {
		fmt.Fprintf(&b, "\n## Mission\n\n%s\n", spec.Mission)
	}
	writeSection(&b, "Inputs", spec.Inputs)
	writeSection(&b, "Workflow", spec.Workflow)
	writeSection(&b, "Success Criteria", spec.SuccessCriteria)
	writeSection(&b, "Constraints", spec.Constraints)
	writeSection(&b, "Handoff Expectations", spec.HandoffExpectations)

	return b.String()
}

func writeSection(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
