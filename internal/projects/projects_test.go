package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/crewgate/internal/rpc"
	"github.com/HendryAvila/crewgate/internal/specstore"
)

// --- Fixtures ---

// memStore keeps projects in memory and applies the partial updates the
// tool set sends, so mutations survive across calls in a test.
type memStore struct {
	projects map[string]*specstore.Project
}

func (m *memStore) ListProjects(ctx context.Context) ([]specstore.Project, error) {
	var out []specstore.Project
	for _, p := range m.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) GetProject(ctx context.Context, id string) (*specstore.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, specstore.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memStore) UpdateProject(ctx context.Context, id string, fields map[string]any) (*specstore.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, specstore.ErrNotFound
	}
	if epics, ok := fields["epics"].([]specstore.Epic); ok {
		p.Epics = epics
	}
	return p, nil
}

func testProject() *specstore.Project {
	return &specstore.Project{
		ID:     "proj1",
		Name:   "Gateway Rollout",
		Status: "active",
		Epics: []specstore.Epic{
			{
				ID:    "e1",
				Title: "Launch",
				Stories: []specstore.Story{
					{
						ID: "st1", Title: "Ship it", Status: specstore.StoryDone,
						StartedAt: "2026-01-01T00:00:00Z", CompletedAt: "2026-01-02T00:00:00Z",
					},
					{
						ID: "st2", Title: "Write docs", Status: specstore.StoryReady,
						AcceptanceCriteria: []specstore.AcceptanceCriteria{
							{ID: "ac1", Description: "README covers setup"},
							{
								ID: "ac2", Description: "API reference published",
								Completed: true, VerifiedBy: "alice", VerifiedAt: "2026-02-01T00:00:00Z",
							},
						},
					},
					{ID: "st3", Title: "Polish", Status: specstore.StoryReady},
				},
			},
		},
	}
}

func newTestEnv() (*ToolSet, *memStore) {
	store := &memStore{projects: map[string]*specstore.Project{"proj1": testProject()}}
	ts := NewToolSet(store)
	ts.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	counter := 0
	ts.newID = func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}
	return ts, store
}

func call(t *testing.T, ts *ToolSet, name string, args map[string]any) (*mcp.CallToolResult, error) {
	t.Helper()
	handler, ok := ts.Handler(name)
	if !ok {
		t.Fatalf("no handler for %q", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return handler(context.Background(), req)
}

func mustCall(t *testing.T, ts *ToolSet, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := call(t, ts, name, args)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return result
}

func wantInvalidParams(t *testing.T, err error, substr string) {
	t.Helper()
	rerr, ok := err.(*rpc.Error)
	if !ok {
		t.Fatalf("error is %T (%v), want *rpc.Error", err, err)
	}
	if rerr.Code != mcp.INVALID_PARAMS {
		t.Errorf("code = %d, want %d", rerr.Code, mcp.INVALID_PARAMS)
	}
	if !strings.Contains(rerr.Message, substr) {
		t.Errorf("message %q does not mention %q", rerr.Message, substr)
	}
}

func structured(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	sc, ok := result.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("structuredContent is %T, want map", result.StructuredContent)
	}
	return sc
}

// --- Validation ---

func TestRequiredArgumentsRejectedBeforeStoreAccess(t *testing.T) {
	ts, _ := newTestEnv()

	tests := []struct {
		tool    string
		args    map[string]any
		missing string
	}{
		{"project_get", nil, "projectId"},
		{"story_get", map[string]any{"projectId": "proj1"}, "storyId"},
		{"story_list_by_status", nil, "status"},
		{"story_update_status", map[string]any{"projectId": "proj1", "storyId": "st2", "status": "done"}, "updatedBy"},
		{"story_add_comment", map[string]any{"projectId": "proj1", "storyId": "st2", "content": "hi", "author": "bob"}, "authorType"},
		{"story_mark_criteria_complete", map[string]any{"projectId": "proj1", "storyId": "st2", "criteriaId": "ac1"}, "verifiedBy"},
	}

	for _, tt := range tests {
		_, err := call(t, ts, tt.tool, tt.args)
		if err == nil {
			t.Errorf("%s without %s: expected error", tt.tool, tt.missing)
			continue
		}
		wantInvalidParams(t, err, tt.missing)
	}
}

func TestInvalidEnumsRejected(t *testing.T) {
	ts, _ := newTestEnv()

	_, err := call(t, ts, "story_update_status", map[string]any{
		"projectId": "proj1", "storyId": "st2", "status": "finished", "updatedBy": "bob",
	})
	wantInvalidParams(t, err, "finished")

	_, err = call(t, ts, "story_list_by_status", map[string]any{"status": "nope"})
	wantInvalidParams(t, err, "nope")

	_, err = call(t, ts, "story_add_comment", map[string]any{
		"projectId": "proj1", "storyId": "st2", "content": "hi",
		"author": "bob", "authorType": "robot",
	})
	wantInvalidParams(t, err, "robot")
}

func TestUnknownProjectAndStory(t *testing.T) {
	ts, _ := newTestEnv()

	_, err := call(t, ts, "project_get", map[string]any{"projectId": "ghost"})
	wantInvalidParams(t, err, "ghost")

	_, err = call(t, ts, "story_get", map[string]any{"projectId": "proj1", "storyId": "ghost"})
	wantInvalidParams(t, err, "ghost")
}

// --- Queries ---

func TestProjectGet_Progress(t *testing.T) {
	ts, _ := newTestEnv()

	result := mustCall(t, ts, "project_get", map[string]any{"projectId": "proj1"})
	sc := structured(t, result)

	// 1 of 3 stories done rounds to 33.
	if sc["storiesDone"] != 1 || sc["storiesTotal"] != 3 {
		t.Errorf("done/total = %v/%v, want 1/3", sc["storiesDone"], sc["storiesTotal"])
	}
	if sc["progressPercentage"] != 33 {
		t.Errorf("progressPercentage = %v, want 33", sc["progressPercentage"])
	}
}

func TestProjectList_StatusFilter(t *testing.T) {
	ts, store := newTestEnv()
	store.projects["proj2"] = &specstore.Project{ID: "proj2", Name: "Archived", Status: "archived"}

	result := mustCall(t, ts, "project_list", map[string]any{"status": "active"})

	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var sc struct {
		Projects []struct {
			ID                 string `json:"id"`
			ProgressPercentage int    `json:"progressPercentage"`
		} `json:"projects"`
	}
	if err := json.Unmarshal(data, &sc); err != nil {
		t.Fatalf("decode structured content: %v", err)
	}

	if len(sc.Projects) != 1 || sc.Projects[0].ID != "proj1" {
		t.Fatalf("summaries = %+v, want just proj1", sc.Projects)
	}
	if sc.Projects[0].ProgressPercentage != 33 {
		t.Errorf("progressPercentage = %d, want 33", sc.Projects[0].ProgressPercentage)
	}
}

func TestStoryListByStatus(t *testing.T) {
	ts, _ := newTestEnv()

	result := mustCall(t, ts, "story_list_by_status", map[string]any{"status": "ready"})
	text := textOf(t, result)

	for _, want := range []string{"st2", "st3"} {
		if !strings.Contains(text, want) {
			t.Errorf("ready list missing %s:\n%s", want, text)
		}
	}
	if strings.Contains(text, "st1") {
		t.Errorf("done story st1 must not appear in ready list")
	}
}

func TestStoryListByStatus_EmptyScope(t *testing.T) {
	ts, _ := newTestEnv()

	result := mustCall(t, ts, "story_list_by_status", map[string]any{
		"status": "blocked", "projectId": "proj1",
	})
	if !strings.Contains(textOf(t, result), "No stories found") {
		t.Errorf("empty result should say so")
	}
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatalf("result has no text content")
	return ""
}

// --- Status updates ---

func TestStoryUpdateStatus_StampsAndAudit(t *testing.T) {
	ts, store := newTestEnv()

	mustCall(t, ts, "story_update_status", map[string]any{
		"projectId": "proj1", "storyId": "st2",
		"status": "in_progress", "updatedBy": "bob",
	})

	story, _ := findStory(store.projects["proj1"], "st2")
	if story.Status != specstore.StoryInProgress {
		t.Errorf("status = %s, want in_progress", story.Status)
	}
	if story.StartedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("startedAt = %q, want the clock stamp", story.StartedAt)
	}
	if story.CompletedAt != "" {
		t.Errorf("completedAt = %q, must stay empty", story.CompletedAt)
	}

	if len(story.Comments) != 1 {
		t.Fatalf("comments = %d, want 1 audit comment", len(story.Comments))
	}
	audit := story.Comments[0]
	if audit.Content != "Status changed from ready to in_progress" {
		t.Errorf("audit content = %q", audit.Content)
	}
	if audit.Author != "bob" || audit.AuthorType != specstore.AuthorAgent {
		t.Errorf("audit author = %s/%s, want bob/agent", audit.Author, audit.AuthorType)
	}
	if audit.Type != specstore.CommentUpdate {
		t.Errorf("audit type = %s, want update", audit.Type)
	}
}

func TestStoryUpdateStatus_TimestampsNeverOverwritten(t *testing.T) {
	ts, store := newTestEnv()

	// st1 already carries both stamps; cycle it out of done and back.
	mustCall(t, ts, "story_update_status", map[string]any{
		"projectId": "proj1", "storyId": "st1",
		"status": "in_progress", "updatedBy": "bob",
	})
	mustCall(t, ts, "story_update_status", map[string]any{
		"projectId": "proj1", "storyId": "st1",
		"status": "done", "updatedBy": "bob",
	})

	story, _ := findStory(store.projects["proj1"], "st1")
	if story.StartedAt != "2026-01-01T00:00:00Z" {
		t.Errorf("startedAt = %q, original stamp must survive", story.StartedAt)
	}
	if story.CompletedAt != "2026-01-02T00:00:00Z" {
		t.Errorf("completedAt = %q, original stamp must survive", story.CompletedAt)
	}
}

func TestStoryUpdateStatus_EpicRollup(t *testing.T) {
	ts, store := newTestEnv()

	result := mustCall(t, ts, "story_update_status", map[string]any{
		"projectId": "proj1", "storyId": "st2",
		"status": "done", "updatedBy": "bob",
	})

	epic := &store.projects["proj1"].Epics[0]
	if epic.CompletedStories != 2 {
		t.Errorf("completedStories = %d, want 2", epic.CompletedStories)
	}
	if epic.Status != specstore.EpicInProgress {
		t.Errorf("epic status = %s, want in_progress (2 of 3 done)", epic.Status)
	}

	sc := structured(t, result)
	epicOut := sc["epic"].(map[string]any)
	if epicOut["completedStories"] != 2 || epicOut["totalStories"] != 3 {
		t.Errorf("epic rollup in result = %v, want 2/3", epicOut)
	}

	// Completing the rest flips the epic to completed.
	mustCall(t, ts, "story_update_status", map[string]any{
		"projectId": "proj1", "storyId": "st3",
		"status": "done", "updatedBy": "bob",
	})
	if epic.Status != specstore.EpicCompleted {
		t.Errorf("epic status = %s, want completed", epic.Status)
	}
}

// --- Comments ---

func TestStoryAddComment_DefaultType(t *testing.T) {
	ts, store := newTestEnv()

	mustCall(t, ts, "story_add_comment", map[string]any{
		"projectId": "proj1", "storyId": "st2",
		"content": "Looks good so far", "author": "alice", "authorType": "user",
	})

	story, _ := findStory(store.projects["proj1"], "st2")
	if len(story.Comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(story.Comments))
	}
	c := story.Comments[0]
	if c.Type != specstore.CommentUpdate {
		t.Errorf("type = %s, want default update", c.Type)
	}
	if c.CreatedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("createdAt = %q, want the clock stamp", c.CreatedAt)
	}
	if c.ID != "id-1" {
		t.Errorf("id = %s, want generated id-1", c.ID)
	}
}

func TestStoryAddComment_AppendOnly(t *testing.T) {
	ts, store := newTestEnv()

	for i := 0; i < 3; i++ {
		mustCall(t, ts, "story_add_comment", map[string]any{
			"projectId": "proj1", "storyId": "st2",
			"content": fmt.Sprintf("note %d", i), "author": "alice",
			"authorType": "user", "type": "note",
		})
	}

	story, _ := findStory(store.projects["proj1"], "st2")
	if len(story.Comments) != 3 {
		t.Fatalf("comments = %d, want 3", len(story.Comments))
	}
	for i, c := range story.Comments {
		if c.Content != fmt.Sprintf("note %d", i) {
			t.Errorf("comments[%d] = %q, append order lost", i, c.Content)
		}
	}
}

// --- Acceptance criteria ---

func TestMarkCriteriaComplete(t *testing.T) {
	ts, store := newTestEnv()

	result := mustCall(t, ts, "story_mark_criteria_complete", map[string]any{
		"projectId": "proj1", "storyId": "st2",
		"criteriaId": "ac1", "verifiedBy": "carol", "evidence": "screenshot.png",
	})

	story, _ := findStory(store.projects["proj1"], "st2")
	ac := story.AcceptanceCriteria[0]
	if !ac.Completed || ac.VerifiedBy != "carol" {
		t.Errorf("criteria = %+v, want completed by carol", ac)
	}
	if ac.VerifiedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("verifiedAt = %q, want the clock stamp", ac.VerifiedAt)
	}
	if ac.Evidence != "screenshot.png" {
		t.Errorf("evidence = %q", ac.Evidence)
	}

	sc := structured(t, result)
	if sc["verifiedAt"] != "2026-03-01T12:00:00Z" {
		t.Errorf("result verifiedAt = %v", sc["verifiedAt"])
	}
}

func TestMarkCriteriaComplete_SecondCallRejected(t *testing.T) {
	ts, store := newTestEnv()

	// ac2 was verified by alice long before this tool set's clock.
	_, err := call(t, ts, "story_mark_criteria_complete", map[string]any{
		"projectId": "proj1", "storyId": "st2",
		"criteriaId": "ac2", "verifiedBy": "mallory",
	})
	wantInvalidParams(t, err, "alice")
	wantInvalidParams(t, err, "2026-02-01T00:00:00Z")

	// The original verification is untouched.
	story, _ := findStory(store.projects["proj1"], "st2")
	ac := story.AcceptanceCriteria[1]
	if ac.VerifiedBy != "alice" || ac.VerifiedAt != "2026-02-01T00:00:00Z" {
		t.Errorf("criteria mutated by rejected call: %+v", ac)
	}
}

func TestMarkCriteriaComplete_UnknownCriteria(t *testing.T) {
	ts, _ := newTestEnv()

	_, err := call(t, ts, "story_mark_criteria_complete", map[string]any{
		"projectId": "proj1", "storyId": "st2",
		"criteriaId": "ghost", "verifiedBy": "carol",
	})
	wantInvalidParams(t, err, "ghost")
}

// --- Roll-up helpers ---

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{3, 3, 100},
	}
	for _, tt := range tests {
		if got := progressPercentage(tt.done, tt.total); got != tt.want {
			t.Errorf("progressPercentage(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestRecomputeEpic(t *testing.T) {
	epic := &specstore.Epic{
		// Stale stored values that must be rederived.
		Status:           specstore.EpicCompleted,
		CompletedStories: 99,
		Stories: []specstore.Story{
			{ID: "a", Status: specstore.StoryDone},
			{ID: "b", Status: specstore.StoryReady},
		},
	}

	recomputeEpic(epic)

	if epic.CompletedStories != 1 {
		t.Errorf("completedStories = %d, want 1", epic.CompletedStories)
	}
	if epic.Status != specstore.EpicInProgress {
		t.Errorf("status = %s, want in_progress", epic.Status)
	}

	epic.Stories = nil
	recomputeEpic(epic)
	if epic.Status != specstore.EpicPending || epic.CompletedStories != 0 {
		t.Errorf("empty epic = %s/%d, want pending/0", epic.Status, epic.CompletedStories)
	}
}
