// Package gateway implements the protocol-facing method dispatcher and
// its HTTP transport.
//
// The dispatcher is stateless: each RPC call is handled independently,
// the catalog is rebuilt from live store data on every list call, and
// all true state lives in the external specification store. Every
// failure is caught at the handler boundary and folded into a
// well-formed JSON-RPC error envelope — an error never escapes as a raw
// transport failure.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/crewgate/internal/catalog"
	"github.com/HendryAvila/crewgate/internal/projects"
	"github.com/HendryAvila/crewgate/internal/rpc"
	"github.com/HendryAvila/crewgate/internal/specstore"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Store is the full specification-store surface the dispatcher needs.
// *specstore.Client satisfies it.
type Store interface {
	catalog.Source
	projects.Store
	GetPersona(ctx context.Context, id string) (*specstore.PersonaSpec, error)
	GetWorkflow(ctx context.Context, id string) (*specstore.WorkflowDefinition, error)
}

// Dispatcher routes JSON-RPC envelopes to catalog lookups, guide
// synthesis, and the project tool set.
type Dispatcher struct {
	store Store
	tools *projects.ToolSet
}

// NewDispatcher wires a Dispatcher around one store client.
func NewDispatcher(store Store) *Dispatcher {
	return &Dispatcher{
		store: store,
		tools: projects.NewToolSet(store),
	}
}

// Dispatch handles one raw JSON-RPC request body and always returns a
// well-formed response envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) (resp rpc.Response) {
	var req rpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return rpc.NewErrorResponse(nil, rpc.ParseError(err))
	}

	// Unexpected panics become -32603, never a dead connection.
	defer func() {
		if r := recover(); r != nil {
			resp = rpc.NewErrorResponse(req.ID, rpc.Internal(fmt.Errorf("panic: %v", r)))
		}
	}()

	if req.JSONRPC != rpc.Version || req.Method == "" {
		return rpc.NewErrorResponse(req.ID, rpc.InvalidRequest("not a JSON-RPC 2.0 request"))
	}

	result, err := d.handle(ctx, &req)
	if err != nil {
		return rpc.NewErrorResponse(req.ID, asRPCError(err))
	}
	return rpc.NewResponse(req.ID, result)
}

func (d *Dispatcher) handle(ctx context.Context, req *rpc.Request) (any, error) {
	switch req.Method {
	case "initialize":
		return d.handleInitialize(), nil
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		cat := d.buildCatalog(ctx)
		return map[string]any{"tools": cat.Tools}, nil
	case "resources/list":
		cat := d.buildCatalog(ctx)
		return map[string]any{"resources": cat.Resources}, nil
	case "tools/call":
		return d.handleToolCall(ctx, req.Params)
	case "resources/read":
		return d.handleResourceRead(ctx, req.Params)
	}
	return nil, rpc.MethodNotFound("method %q not found", req.Method)
}

// handleInitialize reports protocol version, capability groups, and
// server identity. It always succeeds.
func (d *Dispatcher) handleInitialize() any {
	type serverInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	type capabilities struct {
		Tools     struct{} `json:"tools"`
		Resources struct{} `json:"resources"`
	}
	return struct {
		ProtocolVersion string       `json:"protocolVersion"`
		Capabilities    capabilities `json:"capabilities"`
		ServerInfo      serverInfo   `json:"serverInfo"`
	}{
		ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
		ServerInfo:      serverInfo{Name: ServerName, Version: Version},
	}
}

// buildCatalog rebuilds the capability catalog from live store data.
// Never cached: a stale catalog would advertise capabilities that no
// longer exist, or hide ones that do.
func (d *Dispatcher) buildCatalog(ctx context.Context) catalog.Catalog {
	cat := catalog.Build(ctx, d.store, d.tools.Definitions())
	if cat.Tools == nil {
		cat.Tools = []mcp.Tool{}
	}
	if cat.Resources == nil {
		cat.Resources = []mcp.Resource{}
	}
	return cat
}

// handleToolCall normalizes the tool name, routes it by precedence
// (discovery tool, persona pattern, workflow pattern, project tools),
// and executes the matched handler.
func (d *Dispatcher) handleToolCall(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, rpc.InvalidParams("malformed tools/call params: %v", err)
	}
	if p.Name == "" {
		return nil, rpc.InvalidParams("missing required argument %q", "name")
	}

	normalized := Normalize(p.Name)

	req := mcp.CallToolRequest{}
	req.Params.Name = normalized
	req.Params.Arguments = p.Arguments

	var result *mcp.CallToolResult
	var err error
	switch {
	case normalized == catalog.DiscoveryToolName:
		result, err = d.handlePersonaList(ctx, req)
	default:
		if personaID, ok := personaIDFromTool(normalized); ok {
			result, err = d.handlePersonaSpec(ctx, personaID)
			break
		}
		if workflowID, ok := workflowIDFromTool(normalized); ok {
			result, err = d.handleWorkflowGuide(ctx, workflowID)
			break
		}
		if handler, ok := d.tools.Handler(normalized); ok {
			result, err = handler(ctx, req)
			break
		}
		return nil, rpc.MethodNotFound("tool %q not found", p.Name).
			WithData(map[string]string{"name": p.Name, "normalized": normalized})
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// handleResourceRead dispatches on the URI scheme.
func (d *Dispatcher) handleResourceRead(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, rpc.InvalidParams("malformed resources/read params: %v", err)
	}
	if p.URI == "" {
		return nil, rpc.InvalidParams("missing required argument %q", "uri")
	}

	var doc any
	switch {
	case hasScheme(p.URI, "persona"):
		persona, err := d.store.GetPersona(ctx, p.URI[len("persona://"):])
		if err != nil {
			return nil, notFoundAs(err, "persona %q not found", p.URI)
		}
		doc = persona
	case hasScheme(p.URI, "project"):
		project, err := d.store.GetProject(ctx, p.URI[len("project://"):])
		if err != nil {
			return nil, notFoundAs(err, "project %q not found", p.URI)
		}
		doc = project
	default:
		return nil, rpc.InvalidParams("unknown resource scheme in %q", p.URI)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal resource %s: %w", p.URI, err)
	}
	return map[string]any{
		"contents": []mcp.TextResourceContents{{
			URI:      p.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func hasScheme(uri, scheme string) bool {
	return len(uri) > len(scheme)+3 && uri[:len(scheme)+3] == scheme+"://"
}

// notFoundAs maps a store miss to -32602 naming the id; other failures
// pass through to become -32603.
func notFoundAs(err error, format string, args ...any) error {
	if errors.Is(err, specstore.ErrNotFound) {
		return rpc.InvalidParams(format, args...)
	}
	return err
}

// asRPCError shapes any handler failure into a JSON-RPC error object.
// Typed errors keep their code; everything else is an internal error
// with the underlying message attached as data.
func asRPCError(err error) *rpc.Error {
	var rerr *rpc.Error
	if errors.As(err, &rerr) {
		return rerr
	}
	return rpc.Internal(err)
}
