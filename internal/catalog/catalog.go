// Package catalog derives the live tool and resource catalog from
// specification documents.
//
// Build is a read-only derivation: given the current persona, workflow,
// and project sets it produces a deterministic, duplicate-free list of
// descriptors. There is no cached catalog anywhere — the dispatcher
// rebuilds it from the store on every tools/list and resources/list,
// trading performance for always-current capabilities.
package catalog

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/crewgate/internal/specstore"
)

// Source lists the specification documents the catalog is derived from.
// *specstore.Client satisfies it.
type Source interface {
	ListPersonas(ctx context.Context) ([]specstore.PersonaSpec, error)
	ListWorkflows(ctx context.Context) ([]specstore.WorkflowDefinition, error)
	ListProjects(ctx context.Context) ([]specstore.Project, error)
}

// Catalog is one derivation of the current capability set.
type Catalog struct {
	Tools     []mcp.Tool
	Resources []mcp.Resource
}

// Build derives the catalog from live store data. A failed fetch for one
// document family degrades the catalog by omitting that family's tools
// and resources — it never fails the whole build, so workflow or project
// unavailability cannot hide persona tools. The discovery tool and the
// project/story tools are static and always present.
func Build(ctx context.Context, src Source, projectTools []mcp.Tool) Catalog {
	cat := Catalog{}
	seen := map[string]bool{}

	add := func(t mcp.Tool) {
		if seen[t.Name] {
			return
		}
		seen[t.Name] = true
		cat.Tools = append(cat.Tools, t)
	}

	add(discoveryTool())

	personas, err := src.ListPersonas(ctx)
	if err != nil {
		log.Printf("WARNING: catalog: persona family unavailable: %v", err)
	}
	for _, p := range personas {
		add(personaTool(p))
	}

	workflows, err := src.ListWorkflows(ctx)
	if err != nil {
		log.Printf("WARNING: catalog: workflow family unavailable: %v", err)
	}
	for _, wf := range workflows {
		add(workflowTool(wf))
	}

	for _, t := range projectTools {
		add(t)
	}

	seenURI := map[string]bool{}
	addRes := func(r mcp.Resource) {
		if seenURI[r.URI] {
			return
		}
		seenURI[r.URI] = true
		cat.Resources = append(cat.Resources, r)
	}

	for _, p := range personas {
		addRes(personaResource(p))
	}

	projects, err := src.ListProjects(ctx)
	if err != nil {
		log.Printf("WARNING: catalog: project family unavailable: %v", err)
	}
	for _, proj := range projects {
		addRes(projectResource(proj))
	}

	return cat
}

// discoveryTool is the persona discovery tool, always present.
func discoveryTool() mcp.Tool {
	return mcp.NewTool(DiscoveryToolName,
		mcp.WithDescription(
			"List all available expert personas with their tags. "+
				"Use this to discover which persona specification tools exist.",
		),
		mcp.WithString("tag",
			mcp.Description("Only list personas carrying this tag."),
		),
	)
}

func personaTool(p specstore.PersonaSpec) mcp.Tool {
	desc := fmt.Sprintf("Get the full specification for the %q persona", p.Name)
	if p.Specification.Mission != "" {
		desc += ": " + p.Specification.Mission
	}
	return mcp.NewTool(PersonaToolName(p.ID),
		mcp.WithDescription(desc),
	)
}

func workflowTool(wf specstore.WorkflowDefinition) mcp.Tool {
	return mcp.NewTool(WorkflowToolName(wf.ID),
		mcp.WithDescription(fmt.Sprintf(
			"Get the execution guide for the %q workflow (%d steps). "+
				"Returns step-by-step instructions and a structured step list.",
			wf.Name, len(wf.Steps),
		)),
	)
}

func personaResource(p specstore.PersonaSpec) mcp.Resource {
	return mcp.NewResource(
		PersonaResourceURI(p.ID),
		p.Name,
		mcp.WithResourceDescription(fmt.Sprintf("Specification document for persona %q", p.ID)),
		mcp.WithMIMEType("application/json"),
	)
}

func projectResource(proj specstore.Project) mcp.Resource {
	return mcp.NewResource(
		ProjectResourceURI(proj.ID),
		proj.Name,
		mcp.WithResourceDescription(fmt.Sprintf("Project document for %q with epics, stories, and acceptance criteria", proj.ID)),
		mcp.WithMIMEType("application/json"),
	)
}
