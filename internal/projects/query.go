package projects

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/crewgate/internal/rpc"
	"github.com/HendryAvila/crewgate/internal/specstore"
)

// handleProjectList implements project_list.
func (ts *ToolSet) handleProjectList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	statusFilter := req.GetString("status", "")

	all, err := ts.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	type projectSummary struct {
		ID                 string `json:"id"`
		Name               string `json:"name"`
		Status             string `json:"status,omitempty"`
		StoriesDone        int    `json:"storiesDone"`
		StoriesTotal       int    `json:"storiesTotal"`
		ProgressPercentage int    `json:"progressPercentage"`
	}

	var b strings.Builder
	b.WriteString("# Projects\n\n")
	summaries := make([]projectSummary, 0, len(all))
	for i := range all {
		p := &all[i]
		if statusFilter != "" && p.Status != statusFilter {
			continue
		}
		recomputeProject(p)
		done, total, pct := projectProgress(p)
		summaries = append(summaries, projectSummary{
			ID: p.ID, Name: p.Name, Status: p.Status,
			StoriesDone: done, StoriesTotal: total, ProgressPercentage: pct,
		})
		b.WriteString(formatProjectSummary(p) + "\n")
	}
	if len(summaries) == 0 {
		b.WriteString("_No projects found._\n")
	}

	result := mcp.NewToolResultText(b.String())
	result.StructuredContent = map[string]any{"projects": summaries}
	return result, nil
}

// handleProjectGet implements project_get.
func (ts *ToolSet) handleProjectGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, rerr := requireString(req, "projectId")
	if rerr != nil {
		return nil, rerr
	}

	p, err := ts.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	recomputeProject(p)
	done, total, pct := projectProgress(p)

	result := mcp.NewToolResultText(formatProject(p))
	result.StructuredContent = map[string]any{
		"project":            p,
		"storiesDone":        done,
		"storiesTotal":       total,
		"progressPercentage": pct,
	}
	return result, nil
}

// handleStoryGet implements story_get.
func (ts *ToolSet) handleStoryGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, rerr := requireString(req, "projectId")
	if rerr != nil {
		return nil, rerr
	}
	storyID, rerr := requireString(req, "storyId")
	if rerr != nil {
		return nil, rerr
	}

	p, err := ts.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	story, epic := findStory(p, storyID)
	if story == nil {
		return nil, rpc.InvalidParams("story %q not found in project %q", storyID, projectID)
	}

	result := mcp.NewToolResultText(formatStory(story, epic))
	result.StructuredContent = map[string]any{
		"projectId": projectID,
		"epicId":    epic.ID,
		"story":     story,
	}
	return result, nil
}

// handleStoryListByStatus implements story_list_by_status.
func (ts *ToolSet) handleStoryListByStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, rerr := requireString(req, "status")
	if rerr != nil {
		return nil, rerr
	}
	if !specstore.ValidStoryStatus(status) {
		return nil, rpc.InvalidParams("invalid story status %q", status)
	}
	projectID := req.GetString("projectId", "")

	var scope []specstore.Project
	if projectID != "" {
		p, err := ts.getProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		scope = []specstore.Project{*p}
	} else {
		all, err := ts.store.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		scope = all
	}

	type storyRef struct {
		ProjectID string `json:"projectId"`
		EpicID    string `json:"epicId"`
		StoryID   string `json:"storyId"`
		Title     string `json:"title"`
		Priority  string `json:"priority,omitempty"`
	}

	var refs []storyRef
	var b strings.Builder
	fmt.Fprintf(&b, "# Stories with status `%s`\n\n", status)
	for _, p := range scope {
		for _, epic := range p.Epics {
			for _, s := range epic.Stories {
				if s.Status != status {
					continue
				}
				refs = append(refs, storyRef{
					ProjectID: p.ID, EpicID: epic.ID, StoryID: s.ID,
					Title: s.Title, Priority: s.Priority,
				})
				fmt.Fprintf(&b, "- **%s** (`%s`) in project `%s`, epic `%s`\n",
					s.Title, s.ID, p.ID, epic.ID)
			}
		}
	}
	if len(refs) == 0 {
		b.WriteString("_No stories found._\n")
	}

	result := mcp.NewToolResultText(b.String())
	result.StructuredContent = map[string]any{"status": status, "stories": refs}
	return result, nil
}
