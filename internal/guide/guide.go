// Package guide synthesizes workflow execution guides.
//
// Synthesize is a pure transformation: one workflow definition plus the
// persona set in, a natural-language instruction document plus a parallel
// machine-readable representation out. The extraction stage (extract.go)
// computes structured data from the execution spec; the rendering stage
// in this file turns that data into ordered markdown sections. Tests
// assert on the structured output independent of prose wording.
package guide

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/crewgate/internal/catalog"
	"github.com/HendryAvila/crewgate/internal/specstore"
)

// Step is one entry in the structured guide, in execution order.
type Step struct {
	StepID      string `json:"step_id"`
	PersonaID   string `json:"persona_id"`
	PersonaName string `json:"persona_name,omitempty"`
	Tool        string `json:"tool"`
	Order       int    `json:"order"`
	Condition   string `json:"condition,omitempty"`
}

// Structured is the machine-readable counterpart of the guide text.
// ExecutionOrder lists step IDs in exactly the order the text renders
// the steps.
type Structured struct {
	WorkflowID     string   `json:"workflow_id"`
	WorkflowName   string   `json:"workflow_name,omitempty"`
	FlowPattern    string   `json:"flow_pattern,omitempty"`
	Steps          []Step   `json:"steps"`
	ExecutionOrder []string `json:"execution_order"`
}

// Synthesize converts a workflow definition and the persona set into a
// guide document and its structured representation. It touches no
// external state; missing personas degrade to id-only step entries.
func Synthesize(wf *specstore.WorkflowDefinition, personas map[string]specstore.PersonaSpec) (string, Structured) {
	ordered := sortedSteps(wf.Steps)

	structured := Structured{
		WorkflowID:     wf.ID,
		WorkflowName:   wf.Name,
		Steps:          make([]Step, 0, len(ordered)),
		ExecutionOrder: make([]string, 0, len(ordered)),
	}
	if wf.ExecutionSpec != nil {
		structured.FlowPattern = wf.ExecutionSpec.FlowPattern
	}
	for _, ws := range ordered {
		step := Step{
			StepID:    ws.ID,
			PersonaID: ws.PersonaID,
			Tool:      catalog.PersonaToolName(ws.PersonaID),
			Order:     ws.Order,
			Condition: ws.Condition,
		}
		if p, ok := personas[ws.PersonaID]; ok {
			step.PersonaName = p.Name
		}
		structured.Steps = append(structured.Steps, step)
		structured.ExecutionOrder = append(structured.ExecutionOrder, ws.ID)
	}

	var b strings.Builder
	renderTitle(&b, wf, len(ordered))
	renderFlow(&b, wf.ExecutionSpec)
	renderCycle(&b, wf.ExecutionSpec)
	renderParallel(&b, wf.ExecutionSpec)
	renderBranches(&b, wf.ExecutionSpec)
	renderSteps(&b, ordered, personas)
	renderClosing(&b)

	return b.String(), structured
}

func renderTitle(b *strings.Builder, wf *specstore.WorkflowDefinition, stepCount int) {
	title := wf.Name
	if title == "" {
		title = wf.ID
	}
	fmt.Fprintf(b, "# Execution Guide: %s\n\n", title)

	desc := ""
	if wf.ExecutionSpec != nil {
		desc = wf.ExecutionSpec.Description
	}
	if desc == "" {
		desc = fmt.Sprintf("This workflow orchestrates %d step(s) across its assigned personas.", stepCount)
	}
	fmt.Fprintf(b, "%s\n\n", desc)
}

func renderFlow(b *strings.Builder, es *specstore.ExecutionSpec) {
	b.WriteString("## Execution Flow\n\n")
	switch {
	case es != nil && es.ExecutionGuidance != "":
		fmt.Fprintf(b, "%s\n\n", es.ExecutionGuidance)
	case es != nil && es.Description != "":
		fmt.Fprintf(b, "%s\n\n", es.Description)
	default:
		b.WriteString("Execute the steps below in order, one at a time.\n\n")
	}
	if es != nil && es.FlowPattern != "" {
		fmt.Fprintf(b, "Flow pattern: **%s**\n\n", es.FlowPattern)
	}
}

func renderCycle(b *strings.Builder, es *specstore.ExecutionSpec) {
	if es == nil || es.CycleDetails == nil {
		return
	}
	cd := es.CycleDetails

	b.WriteString("## Cycle\n\n")
	if len(cd.CycleSteps) > 0 {
		fmt.Fprintf(b, "Repeat these steps: %s\n\n", strings.Join(cd.CycleSteps, " → "))
	}
	if cd.ExitCondition != "" {
		fmt.Fprintf(b, "- Exit condition: %s\n", cd.ExitCondition)
	}
	fmt.Fprintf(b, "- Maximum iterations: %d\n\n", EffectiveMaxIterations(cd))
}

func renderParallel(b *strings.Builder, es *specstore.ExecutionSpec) {
	if es == nil || es.ParallelDetails == nil {
		return
	}
	pd := es.ParallelDetails

	b.WriteString("## Parallel Execution\n\n")
	if len(pd.ParallelSteps) > 0 {
		fmt.Fprintf(b, "Run in parallel: %s\n\n", strings.Join(pd.ParallelSteps, ", "))
	}
	strategy := EffectiveMergeStrategy(pd)
	fmt.Fprintf(b, "- Merge strategy: **%s** — %s\n\n", strategy, mergeStrategyMeaning(strategy))
}

func renderBranches(b *strings.Builder, es *specstore.ExecutionSpec) {
	if es == nil || len(es.ConditionalBranches) == 0 {
		return
	}

	b.WriteString("## Conditional Branches\n\n")
	for _, br := range es.ConditionalBranches {
		fmt.Fprintf(b, "- If %s, go to step `%s`", br.Condition, br.TargetStep)
		if br.Description != "" {
			fmt.Fprintf(b, " (%s)", br.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func renderSteps(b *strings.Builder, steps []specstore.WorkflowStep, personas map[string]specstore.PersonaSpec) {
	if len(steps) == 0 {
		return
	}

	b.WriteString("## Steps\n\n")
	for i, ws := range steps {
		persona, known := personas[ws.PersonaID]

		heading := ws.PersonaID
		if known && persona.Name != "" {
			heading = fmt.Sprintf("%s (`%s`)", persona.Name, ws.PersonaID)
		}
		fmt.Fprintf(b, "### Step %d: %s\n\n", i+1, heading)
		fmt.Fprintf(b, "Call tool: `%s`\n\n", catalog.PersonaToolName(ws.PersonaID))

		if ws.Condition != "" {
			fmt.Fprintf(b, "⚠️ Conditional step — skipped unless: %s\n\n", ws.Condition)
		}

		if known {
			spec := persona.Specification
			if spec.Mission != "" {
				fmt.Fprintf(b, "**Mission:** %s\n\n", spec.Mission)
			}
			renderSublist(b, "Workflow", spec.Workflow)
			renderSublist(b, "Inputs", spec.Inputs)
			renderSublist(b, "Handoff expectations", spec.HandoffExpectations)
		}
	}
}

func renderSublist(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", label)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// renderClosing appends the fixed how-to-execute procedure. This text is
// template-constant — it never varies with the workflow.
func renderClosing(b *strings.Builder) {
	b.WriteString(`## How to Execute

1. Call each step's persona tool to retrieve its full specification.
2. Follow the persona's instructions for that step.
3. Collect handoff data according to the persona's handoff expectations.
4. Consult the execution flow above for branching, looping, and merging.
5. Map each step's outputs to the next step's inputs.
6. Return the final result once the flow completes.
`)
}

func mergeStrategyMeaning(strategy string) string {
	switch strategy {
	case specstore.MergeAny:
		return "proceed on the first successful branch"
	case specstore.MergeMajority:
		return "proceed when a majority of branches agree"
	default:
		return "wait for all branches to complete"
	}
}
