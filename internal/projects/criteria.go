package projects

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/crewgate/internal/rpc"
)

// handleMarkCriteriaComplete implements story_mark_criteria_complete.
//
// Criteria completion is one-way through the gateway: no tool resets a
// completed criterion, and calling this tool on an already-completed
// criterion is rejected with the original verifier and timestamp — the
// first verifiedAt is never overwritten.
func (ts *ToolSet) handleMarkCriteriaComplete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, rerr := requireString(req, "projectId")
	if rerr != nil {
		return nil, rerr
	}
	storyID, rerr := requireString(req, "storyId")
	if rerr != nil {
		return nil, rerr
	}
	criteriaID, rerr := requireString(req, "criteriaId")
	if rerr != nil {
		return nil, rerr
	}
	verifiedBy, rerr := requireString(req, "verifiedBy")
	if rerr != nil {
		return nil, rerr
	}
	evidence := req.GetString("evidence", "")

	p, err := ts.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	story, _ := findStory(p, storyID)
	if story == nil {
		return nil, rpc.InvalidParams("story %q not found in project %q", storyID, projectID)
	}

	var criteriaIndex = -1
	for i := range story.AcceptanceCriteria {
		if story.AcceptanceCriteria[i].ID == criteriaID {
			criteriaIndex = i
			break
		}
	}
	if criteriaIndex < 0 {
		return nil, rpc.InvalidParams("criteria %q not found in story %q", criteriaID, storyID)
	}

	criteria := &story.AcceptanceCriteria[criteriaIndex]
	if criteria.Completed {
		return nil, rpc.InvalidParams(
			"criteria %q already verified by %s at %s",
			criteriaID, criteria.VerifiedBy, criteria.VerifiedAt,
		)
	}

	criteria.Completed = true
	criteria.VerifiedBy = verifiedBy
	criteria.VerifiedAt = ts.timestamp()
	if evidence != "" {
		criteria.Evidence = evidence
	}

	if _, err := ts.store.UpdateProject(ctx, p.ID, map[string]any{"epics": p.Epics}); err != nil {
		return nil, err
	}

	result := mcp.NewToolResultText(fmt.Sprintf(
		"Criteria `%s` on story `%s` verified by %s at %s.",
		criteriaID, storyID, verifiedBy, criteria.VerifiedAt,
	))
	result.StructuredContent = map[string]any{
		"projectId":  projectID,
		"storyId":    storyID,
		"criteriaId": criteriaID,
		"verifiedBy": verifiedBy,
		"verifiedAt": criteria.VerifiedAt,
		"evidence":   criteria.Evidence,
	}
	return result, nil
}
