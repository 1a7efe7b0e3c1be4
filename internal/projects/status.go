package projects

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/crewgate/internal/rpc"
	"github.com/HendryAvila/crewgate/internal/specstore"
)

// handleStoryUpdateStatus implements story_update_status.
//
// Besides setting the status it stamps startedAt on the first transition
// into in_progress and completedAt on the first transition into done
// (neither is ever overwritten once set), appends an automatic audit
// comment, and recomputes the owning epic's roll-up before forwarding
// the mutation to the store.
func (ts *ToolSet) handleStoryUpdateStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, rerr := requireString(req, "projectId")
	if rerr != nil {
		return nil, rerr
	}
	storyID, rerr := requireString(req, "storyId")
	if rerr != nil {
		return nil, rerr
	}
	status, rerr := requireString(req, "status")
	if rerr != nil {
		return nil, rerr
	}
	updatedBy, rerr := requireString(req, "updatedBy")
	if rerr != nil {
		return nil, rerr
	}
	if !specstore.ValidStoryStatus(status) {
		return nil, rpc.InvalidParams("invalid story status %q", status)
	}

	p, err := ts.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	story, epic := findStory(p, storyID)
	if story == nil {
		return nil, rpc.InvalidParams("story %q not found in project %q", storyID, projectID)
	}

	previous := story.Status
	now := ts.timestamp()

	story.Status = status
	if status == specstore.StoryInProgress && story.StartedAt == "" {
		story.StartedAt = now
	}
	if status == specstore.StoryDone && story.CompletedAt == "" {
		story.CompletedAt = now
	}

	story.Comments = append(story.Comments, specstore.Comment{
		ID:         ts.newID(),
		Content:    fmt.Sprintf("Status changed from %s to %s", previous, status),
		Author:     updatedBy,
		AuthorType: specstore.AuthorAgent,
		Type:       specstore.CommentUpdate,
		CreatedAt:  now,
	})

	recomputeProject(p)

	if _, err := ts.store.UpdateProject(ctx, p.ID, map[string]any{"epics": p.Epics}); err != nil {
		return nil, err
	}

	text := fmt.Sprintf(
		"Story `%s` moved from **%s** to **%s** by %s.\n\n"+
			"Epic `%s` is now %s (%d/%d stories done).",
		storyID, previous, status, updatedBy,
		epic.ID, epic.Status, epic.CompletedStories, len(epic.Stories),
	)

	result := mcp.NewToolResultText(text)
	result.StructuredContent = map[string]any{
		"projectId":      projectID,
		"storyId":        storyID,
		"previousStatus": previous,
		"status":         status,
		"startedAt":      story.StartedAt,
		"completedAt":    story.CompletedAt,
		"epic": map[string]any{
			"id":               epic.ID,
			"status":           epic.Status,
			"completedStories": epic.CompletedStories,
			"totalStories":     len(epic.Stories),
		},
	}
	return result, nil
}
