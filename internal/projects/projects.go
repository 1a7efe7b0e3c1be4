// Package projects implements the project/story management tools.
//
// Each tool validates its declared required arguments before touching
// the store, then reads or mutates the Project → Epic → Story →
// AcceptanceCriteria tree. Mutations are forwarded to the store as
// partial updates; epic roll-ups are recomputed on every story mutation
// (see rollup.go) and never trusted as stored.
//
// Handlers follow the mcp-go CallToolRequest signature. Validation and
// not-found failures are returned as *rpc.Error so the dispatcher can
// shape the -32602 envelope.
package projects

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/crewgate/internal/catalog"
	"github.com/HendryAvila/crewgate/internal/rpc"
	"github.com/HendryAvila/crewgate/internal/specstore"
)

// Store is the slice of the specification store the tool set needs.
// *specstore.Client satisfies it.
type Store interface {
	ListProjects(ctx context.Context) ([]specstore.Project, error)
	GetProject(ctx context.Context, id string) (*specstore.Project, error)
	UpdateProject(ctx context.Context, id string, fields map[string]any) (*specstore.Project, error)
}

// Handler is a tool handler compatible with the dispatcher.
type Handler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolSet bundles the project/story tools around one store client.
type ToolSet struct {
	store Store

	// Injected for deterministic tests.
	now   func() time.Time
	newID func() string
}

// NewToolSet creates a ToolSet backed by the given store.
func NewToolSet(store Store) *ToolSet {
	return &ToolSet{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Handler returns the handler registered under the canonical tool name,
// or false when the name is not a project/story tool.
func (ts *ToolSet) Handler(name string) (Handler, bool) {
	switch name {
	case catalog.ToolProjectList:
		return ts.handleProjectList, true
	case catalog.ToolProjectGet:
		return ts.handleProjectGet, true
	case catalog.ToolStoryGet:
		return ts.handleStoryGet, true
	case catalog.ToolStoryListByStatus:
		return ts.handleStoryListByStatus, true
	case catalog.ToolStoryUpdateStatus:
		return ts.handleStoryUpdateStatus, true
	case catalog.ToolStoryAddComment:
		return ts.handleStoryAddComment, true
	case catalog.ToolStoryMarkCriteriaComplete:
		return ts.handleMarkCriteriaComplete, true
	}
	return nil, false
}

// Definitions returns the static tool descriptors for the project/story
// family. These are always present in the catalog regardless of store
// availability.
func (ts *ToolSet) Definitions() []mcp.Tool {
	storyStatuses := []string{
		specstore.StoryDraft, specstore.StoryReady, specstore.StoryInProgress,
		specstore.StoryReview, specstore.StoryBlocked, specstore.StoryDone,
	}

	return []mcp.Tool{
		mcp.NewTool(catalog.ToolProjectList,
			mcp.WithDescription(
				"List all projects with their status and progress percentage. "+
					"Optionally filter by project status.",
			),
			mcp.WithString("status",
				mcp.Description("Only list projects with this status."),
			),
		),
		mcp.NewTool(catalog.ToolProjectGet,
			mcp.WithDescription(
				"Get one project as a markdown summary: epics, stories, "+
					"roll-up progress percentages, and acceptance criteria counts.",
			),
			mcp.WithString("projectId",
				mcp.Required(),
				mcp.Description("Project id to fetch."),
			),
		),
		mcp.NewTool(catalog.ToolStoryGet,
			mcp.WithDescription(
				"Get one story with its acceptance criteria and comments.",
			),
			mcp.WithString("projectId",
				mcp.Required(),
				mcp.Description("Project the story belongs to."),
			),
			mcp.WithString("storyId",
				mcp.Required(),
				mcp.Description("Story id to fetch."),
			),
		),
		mcp.NewTool(catalog.ToolStoryListByStatus,
			mcp.WithDescription(
				"List stories in a given status, across all projects or "+
					"within one project.",
			),
			mcp.WithString("status",
				mcp.Required(),
				mcp.Description("Story status to filter on."),
				mcp.Enum(storyStatuses...),
			),
			mcp.WithString("projectId",
				mcp.Description("Restrict to this project. If omitted, searches all projects."),
			),
		),
		mcp.NewTool(catalog.ToolStoryUpdateStatus,
			mcp.WithDescription(
				"Change a story's status. Stamps startedAt on the first "+
					"transition into in_progress and completedAt on the first "+
					"transition into done, appends an audit comment, and "+
					"recomputes the owning epic's progress.",
			),
			mcp.WithString("projectId",
				mcp.Required(),
				mcp.Description("Project the story belongs to."),
			),
			mcp.WithString("storyId",
				mcp.Required(),
				mcp.Description("Story to update."),
			),
			mcp.WithString("status",
				mcp.Required(),
				mcp.Description("New story status."),
				mcp.Enum(storyStatuses...),
			),
			mcp.WithString("updatedBy",
				mcp.Required(),
				mcp.Description("Identity performing the change (recorded in the audit comment)."),
			),
		),
		mcp.NewTool(catalog.ToolStoryAddComment,
			mcp.WithDescription(
				"Append a comment to a story. Comments are append-only.",
			),
			mcp.WithString("projectId",
				mcp.Required(),
				mcp.Description("Project the story belongs to."),
			),
			mcp.WithString("storyId",
				mcp.Required(),
				mcp.Description("Story to comment on."),
			),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("Comment body."),
			),
			mcp.WithString("author",
				mcp.Required(),
				mcp.Description("Comment author identity."),
			),
			mcp.WithString("authorType",
				mcp.Required(),
				mcp.Description("Kind of author."),
				mcp.Enum(specstore.AuthorUser, specstore.AuthorPersona, specstore.AuthorAgent),
			),
			mcp.WithString("type",
				mcp.Description("Comment type."),
				mcp.DefaultString(specstore.CommentUpdate),
				mcp.Enum(specstore.CommentUpdate, specstore.CommentQuestion,
					specstore.CommentDecision, specstore.CommentBlocker, specstore.CommentNote),
			),
		),
		mcp.NewTool(catalog.ToolStoryMarkCriteriaComplete,
			mcp.WithDescription(
				"Mark one acceptance criterion as verified. This transition is "+
					"one-way: there is no tool to reset a completed criterion, and "+
					"re-verifying an already-completed criterion is rejected.",
			),
			mcp.WithString("projectId",
				mcp.Required(),
				mcp.Description("Project the story belongs to."),
			),
			mcp.WithString("storyId",
				mcp.Required(),
				mcp.Description("Story owning the criterion."),
			),
			mcp.WithString("criteriaId",
				mcp.Required(),
				mcp.Description("Criterion to mark complete."),
			),
			mcp.WithString("verifiedBy",
				mcp.Required(),
				mcp.Description("Identity that verified the criterion."),
			),
			mcp.WithString("evidence",
				mcp.Description("Optional evidence supporting the verification."),
			),
		),
	}
}

// requireString extracts a required string argument, or returns the
// -32602 validation error before any store access.
func requireString(req mcp.CallToolRequest, key string) (string, *rpc.Error) {
	v := req.GetString(key, "")
	if v == "" {
		return "", rpc.InvalidParams("missing required argument %q", key)
	}
	return v, nil
}

// timestamp renders the tool set's clock as RFC3339 UTC, the stamp
// format used across all store documents.
func (ts *ToolSet) timestamp() string {
	return ts.now().UTC().Format(time.RFC3339)
}

// getProject loads a project, translating a store miss into the -32602
// not-found error naming the id.
func (ts *ToolSet) getProject(ctx context.Context, projectID string) (*specstore.Project, error) {
	p, err := ts.store.GetProject(ctx, projectID)
	if err == specstore.ErrNotFound {
		return nil, rpc.InvalidParams("project %q not found", projectID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// findStory locates a story in the project tree, returning pointers into
// the tree so callers can mutate in place. The second return is the
// owning epic.
func findStory(p *specstore.Project, storyID string) (*specstore.Story, *specstore.Epic) {
	for ei := range p.Epics {
		epic := &p.Epics[ei]
		for si := range epic.Stories {
			if epic.Stories[si].ID == storyID {
				return &epic.Stories[si], epic
			}
		}
	}
	return nil, nil
}
