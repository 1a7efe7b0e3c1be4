package projects

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/crewgate/internal/rpc"
	"github.com/HendryAvila/crewgate/internal/specstore"
)

// handleStoryAddComment implements story_add_comment: a pure append that
// stamps createdAt. Comments are never edited or removed through the
// gateway.
func (ts *ToolSet) handleStoryAddComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, rerr := requireString(req, "projectId")
	if rerr != nil {
		return nil, rerr
	}
	storyID, rerr := requireString(req, "storyId")
	if rerr != nil {
		return nil, rerr
	}
	content, rerr := requireString(req, "content")
	if rerr != nil {
		return nil, rerr
	}
	author, rerr := requireString(req, "author")
	if rerr != nil {
		return nil, rerr
	}
	authorType, rerr := requireString(req, "authorType")
	if rerr != nil {
		return nil, rerr
	}
	if !specstore.ValidAuthorType(authorType) {
		return nil, rpc.InvalidParams("invalid authorType %q", authorType)
	}
	commentType := req.GetString("type", specstore.CommentUpdate)
	if !specstore.ValidCommentType(commentType) {
		return nil, rpc.InvalidParams("invalid comment type %q", commentType)
	}

	p, err := ts.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	story, _ := findStory(p, storyID)
	if story == nil {
		return nil, rpc.InvalidParams("story %q not found in project %q", storyID, projectID)
	}

	comment := specstore.Comment{
		ID:         ts.newID(),
		Content:    content,
		Author:     author,
		AuthorType: authorType,
		Type:       commentType,
		CreatedAt:  ts.timestamp(),
	}
	story.Comments = append(story.Comments, comment)

	if _, err := ts.store.UpdateProject(ctx, p.ID, map[string]any{"epics": p.Epics}); err != nil {
		return nil, err
	}

	result := mcp.NewToolResultText(fmt.Sprintf(
		"Comment added to story `%s` by %s (%s).", storyID, author, commentType,
	))
	result.StructuredContent = map[string]any{
		"projectId": projectID,
		"storyId":   storyID,
		"comment":   comment,
	}
	return result, nil
}
