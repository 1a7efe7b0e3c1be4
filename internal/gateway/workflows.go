package gateway

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/crewgate/internal/guide"
	"github.com/HendryAvila/crewgate/internal/specstore"
)

// handleWorkflowGuide implements the per-workflow tool: it synthesizes
// the execution guide for the workflow against the current persona set.
func (d *Dispatcher) handleWorkflowGuide(ctx context.Context, workflowID string) (*mcp.CallToolResult, error) {
	wf, err := d.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, notFoundAs(err, "workflow %q not found", workflowID)
	}

	personas, err := d.store.ListPersonas(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]specstore.PersonaSpec, len(personas))
	for _, p := range personas {
		byID[p.ID] = p
	}

	text, structured := guide.Synthesize(wf, byID)

	result := mcp.NewToolResultText(text)
	result.StructuredContent = structured
	return result, nil
}
