package agents

import (
	"context"
	"fmt"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/gemini"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/regulation"
)

// ===== REFINEMENT AGENT =====

// RefineInput carries the plan under revision together with everything
// the reviewer and validators found wrong with it.
type RefineInput struct {
	Config       plan.ProjectConfig
	Requirements plan.Requirements
	Profile      regulation.Profile
	Graph        plan.FloorPlanGraph
	Critique     plan.Critique
	Violations   []plan.Violation
	Iteration    int
}

// RefinementAgent revises a plan against its violations and critique.
// Each pass appends a refinement section to the design log carried over
// from the plan under revision, so the log accumulates the full history
// of decisions across iterations.
type RefinementAgent struct {
	deps Deps
}

func NewRefinementAgent(deps Deps) *RefinementAgent {
	return &RefinementAgent{deps: deps.normalized()}
}

func (a *RefinementAgent) Name() string { return string(gemini.RoleRefinement) }

// refinePassMarker opens each refinement section in the design log.
const refinePassMarker = "--- Refinement Pass ---"

func (a *RefinementAgent) Execute(ctx context.Context, in RefineInput) (plan.FloorPlanGraph, Metadata, error) {
	raw, meta, err := a.deps.generate(ctx, gemini.RoleRefinement, refineSystemPrompt, refinePrompt(in), refineSchema())
	if err != nil {
		return plan.FloorPlanGraph{}, meta, fmt.Errorf("refinement generation: %w", err)
	}

	var resp struct {
		plan.FloorPlanGraph
		ChangesApplied []string `json:"changesApplied"`
	}
	if err := decodeInto(raw, &resp, "refined floor plan"); err != nil {
		return plan.FloorPlanGraph{}, meta, err
	}
	g := resp.FloorPlanGraph
	if err := repairGraph(&g, in.Config); err != nil {
		return plan.FloorPlanGraph{}, meta, err
	}

	log := make([]string, 0, len(in.Graph.DesignLog)+1+len(resp.ChangesApplied))
	log = append(log, in.Graph.DesignLog...)
	log = append(log, refinePassMarker)
	log = append(log, resp.ChangesApplied...)
	g.DesignLog = log
	return g, meta, nil
}
