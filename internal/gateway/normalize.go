package gateway

import "strings"

// ServerName is the identity reported by initialize and the prefix
// stripped from bridged tool names.
const ServerName = "crewgate"

// Normalize maps any accepted external spelling of a tool name to its
// canonical flat key. Two naming grammars are accepted — hierarchical
// (persona.writer.spec) and flat (persona_writer_spec) — optionally
// wrapped in a client bridge prefix. Normalization is an ordered list of
// prefix-strip rules followed by a dot-to-underscore fold; routing then
// happens only on the canonical key, so no handler logic is duplicated
// per convention.
func Normalize(name string) string {
	s := strings.TrimSpace(name)

	// Bridging gateways prefix tools as mcp__<server>__<tool>.
	if rest, ok := strings.CutPrefix(s, "mcp__"); ok {
		if _, tool, found := strings.Cut(rest, "__"); found {
			s = tool
		}
	}

	// Aggregating clients prefix tools with the server name.
	for _, prefix := range []string{ServerName + ":", ServerName + ".", ServerName + "__"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			s = rest
			break
		}
	}

	// Hierarchical names fold onto the flat grammar.
	return strings.ReplaceAll(s, ".", "_")
}

// personaIDFromTool extracts the persona id from a canonical
// persona_<id>_spec tool name. Returns false when the name does not
// match the persona tool pattern.
func personaIDFromTool(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, "persona_")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "_spec")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// workflowIDFromTool extracts the workflow id from a canonical
// workflow_<id> tool name.
func workflowIDFromTool(name string) (string, bool) {
	id, ok := strings.CutPrefix(name, "workflow_")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
