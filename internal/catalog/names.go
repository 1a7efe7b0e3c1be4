package catalog

// Canonical tool names are flat, underscore-separated identifiers. The
// dispatcher normalizes every accepted external spelling (hierarchical
// dotted names, client bridge prefixes) to this form before lookup, so
// the names below are the only keys handlers are registered under.

// DiscoveryToolName is the persona discovery tool.
const DiscoveryToolName = "persona_list"

// Project and story tool names, registered as exact matches.
const (
	ToolProjectList               = "project_list"
	ToolProjectGet                = "project_get"
	ToolStoryGet                  = "story_get"
	ToolStoryListByStatus         = "story_list_by_status"
	ToolStoryUpdateStatus         = "story_update_status"
	ToolStoryAddComment           = "story_add_comment"
	ToolStoryMarkCriteriaComplete = "story_mark_criteria_complete"
)

// PersonaToolName derives the canonical tool name for one persona's
// get-specification tool. The hierarchical spelling persona.<id>.spec
// normalizes to the same name.
func PersonaToolName(personaID string) string {
	return "persona_" + personaID + "_spec"
}

// WorkflowToolName derives the canonical tool name for one workflow.
// The hierarchical spelling workflow.<id> normalizes to the same name.
func WorkflowToolName(workflowID string) string {
	return "workflow_" + workflowID
}

// PersonaResourceURI derives the resource URI for one persona.
func PersonaResourceURI(personaID string) string {
	return "persona://" + personaID
}

// ProjectResourceURI derives the resource URI for one project.
func ProjectResourceURI(projectID string) string {
	return "project://" + projectID
}
