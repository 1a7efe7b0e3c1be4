// Package specstore implements the typed HTTP client for the external
// specification store — the system of record for personas, workflows,
// and projects.
//
// The gateway never originates or deletes these documents; it reads them
// and forwards validated mutation intents (project updates). All methods
// take a context and forward the caller's bearer credential when one is
// attached via WithToken.
package specstore

// PersonaSpec is a reusable declarative expert-role specification.
type PersonaSpec struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Tags          []string        `json:"tags,omitempty"`
	Specification PersonaDetails  `json:"specification"`
	Metadata      PersonaMetadata `json:"metadata,omitempty"`
}

// PersonaDetails holds the schema-validated free-form body of a persona.
type PersonaDetails struct {
	Mission             string   `json:"mission,omitempty"`
	Inputs              []string `json:"inputs,omitempty"`
	Workflow            []string `json:"workflow,omitempty"`
	SuccessCriteria     []string `json:"success_criteria,omitempty"`
	Constraints         []string `json:"constraints,omitempty"`
	HandoffExpectations []string `json:"handoff_expectations,omitempty"`
}

// PersonaMetadata carries capability flags owned by the store.
type PersonaMetadata struct {
	WebSearchEnabled bool `json:"web_search_enabled,omitempty"`
}

// WorkflowDefinition is an ordered orchestration of personas plus an
// optional structured execution pattern.
type WorkflowDefinition struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Steps         []WorkflowStep `json:"steps"`
	ExecutionSpec *ExecutionSpec `json:"execution_spec,omitempty"`
}

// WorkflowStep references one persona at one position in a workflow.
// PersonaID is a foreign key into the persona set but is not enforced
// at write time by the store.
type WorkflowStep struct {
	ID        string `json:"id"`
	PersonaID string `json:"persona_id"`
	Order     int    `json:"order"`
	Condition string `json:"condition,omitempty"`
}

// Flow patterns accepted in ExecutionSpec.FlowPattern.
const (
	FlowSequential  = "sequential"
	FlowCycle       = "cycle"
	FlowParallel    = "parallel"
	FlowConditional = "conditional"
	FlowMixed       = "mixed"
)

// Merge strategies accepted in ParallelDetails.MergeStrategy.
const (
	MergeAll      = "all"
	MergeAny      = "any"
	MergeMajority = "majority"
)

// DefaultMaxIterations applies when CycleDetails omits max_iterations.
const DefaultMaxIterations = 10

// ExecutionSpec describes how a workflow's steps are meant to be executed.
type ExecutionSpec struct {
	Description         string              `json:"description,omitempty"`
	FlowPattern         string              `json:"flow_pattern"`
	CycleDetails        *CycleDetails       `json:"cycle_details,omitempty"`
	ParallelDetails     *ParallelDetails    `json:"parallel_details,omitempty"`
	ConditionalBranches []ConditionalBranch `json:"conditional_branches,omitempty"`
	ExecutionGuidance   string              `json:"execution_guidance,omitempty"`
}

// CycleDetails configures a cycle flow pattern.
type CycleDetails struct {
	CycleSteps    []string `json:"cycle_steps,omitempty"`
	ExitCondition string   `json:"exit_condition,omitempty"`
	MaxIterations int      `json:"max_iterations,omitempty"`
}

// ParallelDetails configures a parallel flow pattern.
type ParallelDetails struct {
	ParallelSteps []string `json:"parallel_steps,omitempty"`
	MergeStrategy string   `json:"merge_strategy,omitempty"`
}

// ConditionalBranch routes execution to a target step when its condition
// holds.
type ConditionalBranch struct {
	Condition   string `json:"condition"`
	TargetStep  string `json:"target_step"`
	Description string `json:"description,omitempty"`
}

// Epic priorities and statuses.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

const (
	EpicPending    = "pending"
	EpicInProgress = "in_progress"
	EpicCompleted  = "completed"
)

// Story statuses.
const (
	StoryDraft      = "draft"
	StoryReady      = "ready"
	StoryInProgress = "in_progress"
	StoryReview     = "review"
	StoryBlocked    = "blocked"
	StoryDone       = "done"
)

// Project is the root of the Project → Epic → Story → Criteria tree.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Epics       []Epic `json:"epics"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Epic groups stories. CompletedStories and Status are derived from the
// stories and recomputed after every story mutation — they are never
// trusted as stored.
type Epic struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Description      string  `json:"description,omitempty"`
	Priority         string  `json:"priority,omitempty"`
	Status           string  `json:"status"`
	Stories          []Story `json:"stories"`
	CompletedStories int     `json:"completedStories"`
}

// Story is the unit of work agents operate on.
type Story struct {
	ID                 string               `json:"id"`
	Title              string               `json:"title"`
	Description        string               `json:"description,omitempty"`
	Status             string               `json:"status"`
	AssignedPersonas   []string             `json:"assignedPersonas,omitempty"`
	Priority           string               `json:"priority,omitempty"`
	Tags               []string             `json:"tags,omitempty"`
	AcceptanceCriteria []AcceptanceCriteria `json:"acceptanceCriteria,omitempty"`
	Comments           []Comment            `json:"comments,omitempty"`
	StartedAt          string               `json:"startedAt,omitempty"`
	CompletedAt        string               `json:"completedAt,omitempty"`
}

// AcceptanceCriteria completion is one-way through the gateway: once
// Completed is true no exposed tool resets it.
type AcceptanceCriteria struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	VerifiedBy  string `json:"verifiedBy,omitempty"`
	VerifiedAt  string `json:"verifiedAt,omitempty"`
	Evidence    string `json:"evidence,omitempty"`
	IsBlocking  bool   `json:"isBlocking,omitempty"`
}

// Comment author and type enumerations.
const (
	AuthorUser    = "user"
	AuthorPersona = "persona"
	AuthorAgent   = "agent"
)

const (
	CommentUpdate   = "update"
	CommentQuestion = "question"
	CommentDecision = "decision"
	CommentBlocker  = "blocker"
	CommentNote     = "note"
)

// Comment is an append-only annotation on a story.
type Comment struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Author     string `json:"author"`
	AuthorType string `json:"authorType"`
	Type       string `json:"type"`
	CreatedAt  string `json:"createdAt"`
}

// ValidStoryStatus reports whether s is one of the six story statuses.
func ValidStoryStatus(s string) bool {
	switch s {
	case StoryDraft, StoryReady, StoryInProgress, StoryReview, StoryBlocked, StoryDone:
		return true
	}
	return false
}

// ValidAuthorType reports whether s is a known comment author type.
func ValidAuthorType(s string) bool {
	switch s {
	case AuthorUser, AuthorPersona, AuthorAgent:
		return true
	}
	return false
}

// ValidCommentType reports whether s is a known comment type.
func ValidCommentType(s string) bool {
	switch s {
	case CommentUpdate, CommentQuestion, CommentDecision, CommentBlocker, CommentNote:
		return true
	}
	return false
}
