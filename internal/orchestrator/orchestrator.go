// Package orchestrator runs the multi-agent generation loop: expand the
// brief, generate a layout, validate and critique it, refine until the
// composite score converges or the iteration budget runs out, then
// assemble the deliverable plan.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/agents"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/gemini"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/geometry"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/progress"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/regulation"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/scoring"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/vastu"
)

// EmitFunc receives progress events during a run. A nil emit is valid
// and silences the run.
type EmitFunc func(progress.Event)

// Config bounds the refinement loop.
type Config struct {
	MaxIterations int `yaml:"max_iterations"`
}

// DefaultConfig allows an initial layout plus two refinements.
func DefaultConfig() Config {
	return Config{MaxIterations: 3}
}

// Narrow views of the agents, so tests can script the loop without a
// model behind it.
type inputAgent interface {
	Execute(ctx context.Context, cfg plan.ProjectConfig) (plan.Requirements, agents.Metadata, error)
}
type spatialAgent interface {
	Execute(ctx context.Context, in agents.SpatialInput) (plan.FloorPlanGraph, agents.Metadata, error)
}
type criticAgent interface {
	Execute(ctx context.Context, in agents.CriticInput) (plan.Critique, agents.Metadata, error)
}
type refinementAgent interface {
	Execute(ctx context.Context, in agents.RefineInput) (plan.FloorPlanGraph, agents.Metadata, error)
}
type costAgent interface {
	Execute(ctx context.Context, in agents.CostInput) (agents.CostEstimate, agents.Metadata, error)
}
type furnitureAgent interface {
	Execute(ctx context.Context, in agents.FurnitureInput) ([]plan.RoomFurniture, agents.Metadata, error)
}

// Orchestrator coordinates agents, validators and scoring for one
// generation pipeline. It is stateless across runs and safe for
// concurrent use.
type Orchestrator struct {
	cfg      Config
	router   *gemini.Router
	registry *regulation.Registry
	regV     *regulation.Validator
	vastuV   *vastu.Validator
	logger   *zap.Logger

	input     inputAgent
	spatial   spatialAgent
	critic    criticAgent
	refiner   refinementAgent
	cost      costAgent
	furniture furnitureAgent
}

// New wires an orchestrator from shared agent dependencies.
func New(cfg Config, deps agents.Deps, registry *regulation.Registry, logger *zap.Logger) *Orchestrator {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if deps.Router == nil {
		deps.Router = gemini.NewRouter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	if registry == nil {
		registry = regulation.NewRegistry()
	}
	return &Orchestrator{
		cfg:       cfg,
		router:    deps.Router,
		registry:  registry,
		regV:      regulation.NewValidator(registry),
		vastuV:    vastu.NewValidator(),
		logger:    logger.Named("orchestrator"),
		input:     agents.NewInputAgent(deps),
		spatial:   agents.NewSpatialAgent(deps),
		critic:    agents.NewCriticAgent(deps),
		refiner:   agents.NewRefinementAgent(deps),
		cost:      agents.NewCostAgent(deps),
		furniture: agents.NewFurnitureAgent(deps),
	}
}

// Run executes the full pipeline for one job and returns the assembled
// plan. Spatial, critic and refinement failures abort the run; cost and
// furniture failures only cost their sections of the deliverable. Each
// refinement pass revises the previous iteration's plan and the final
// deliverable is assembled from the last scored iteration. Cancellation
// is honored between agent calls and aborts with the context's error.
func (o *Orchestrator) Run(ctx context.Context, jobID string, cfg plan.ProjectConfig, emit EmitFunc) (*plan.GeneratedPlan, error) {
	if emit == nil {
		emit = func(progress.Event) {}
	}
	log := o.logger.With(zap.String("job_id", jobID))

	profile := o.registry.ProfileFor(cfg.Location.Authority)
	strictness := cfg.Strictness()

	o.emitRouting(emit, jobID, gemini.RoleInput)
	o.emitAgentStart(emit, jobID, gemini.RoleInput)
	req, inputMeta, err := o.input.Execute(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("input expansion: %w", err)
	}
	o.emitAgentComplete(emit, jobID, inputMeta)

	var last plan.IterationRecord
	completed := 0
	converged := false

	for i := 1; i <= o.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation canceled: %w", err)
		}
		emit(progress.Event{Type: progress.EventIterationStart, JobID: jobID, Data: map[string]any{
			"iteration":     i,
			"maxIterations": o.cfg.MaxIterations,
		}})

		var g plan.FloorPlanGraph
		if i == 1 {
			o.emitRouting(emit, jobID, gemini.RoleSpatial)
			o.emitAgentStart(emit, jobID, gemini.RoleSpatial)
			var meta agents.Metadata
			g, meta, err = o.spatial.Execute(ctx, agents.SpatialInput{
				Config:       cfg,
				Requirements: req,
				Profile:      profile,
			})
			if err != nil {
				return nil, fmt.Errorf("spatial agent: %w", err)
			}
			o.emitAgentComplete(emit, jobID, meta)
		} else {
			o.emitRouting(emit, jobID, gemini.RoleRefinement)
			o.emitAgentStart(emit, jobID, gemini.RoleRefinement)
			var meta agents.Metadata
			g, meta, err = o.refiner.Execute(ctx, agents.RefineInput{
				Config:       cfg,
				Requirements: req,
				Profile:      profile,
				Graph:        last.Plan,
				Critique:     derefCritique(last.Critique),
				Violations:   mergedViolations(last),
				Iteration:    i,
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("generation canceled: %w", ctx.Err())
				}
				return nil, fmt.Errorf("refinement agent: %w", err)
			}
			o.emitAgentComplete(emit, jobID, meta)
		}

		g = geometry.Normalize(g)
		enriched := geometry.Enrich(g)

		regReport := o.regV.Validate(g, enriched, cfg.Location.Authority, cfg.FloorCount())
		emit(progress.Event{Type: progress.EventViolationUpdate, JobID: jobID, Data: map[string]any{
			"iteration":            i,
			"regulatoryViolations": regReport.Violations,
			"regulatoryScore":      regReport.Score,
		}})
		vastuReport := o.vastuV.Validate(enriched, strictness)
		emit(progress.Event{Type: progress.EventViolationUpdate, JobID: jobID, Data: map[string]any{
			"iteration":       i,
			"vastuViolations": vastuReport.Violations,
			"vastuScore":      vastuReport.Score,
		}})

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation canceled: %w", err)
		}
		o.emitRouting(emit, jobID, gemini.RoleCritic)
		o.emitAgentStart(emit, jobID, gemini.RoleCritic)
		critique, criticMeta, err := o.critic.Execute(ctx, agents.CriticInput{
			Graph:      g,
			Regulatory: regReport,
			Vastu:      vastuReport,
			Iteration:  i,
		})
		if err != nil {
			return nil, fmt.Errorf("critic agent: %w", err)
		}
		o.emitAgentComplete(emit, jobID, criticMeta)

		spatialScore := scoring.SpatialScore(g, enriched, req)
		score := scoring.Compose(regReport.Score, vastuReport.Score, spatialScore, critique.OverallScore)
		emit(progress.Event{Type: progress.EventScoreUpdate, JobID: jobID, Data: map[string]any{
			"iteration":       i,
			"finalScore":      score.Final,
			"passesThreshold": score.PassesThreshold,
			"breakdown":       score,
		}})
		log.Info("iteration scored",
			zap.Int("iteration", i),
			zap.Float64("final", score.Final),
			zap.Bool("passes", score.PassesThreshold))

		last = plan.IterationRecord{
			Iteration:            i,
			Plan:                 g,
			Enriched:             enriched,
			RegulatoryViolations: regReport.Violations,
			VastuViolations:      vastuReport.Violations,
			RegulatoryItems:      regReport.Items,
			VastuItems:           vastuReport.Items,
			Critique:             &critique,
			Score:                score,
		}
		completed = i
		if score.PassesThreshold {
			converged = true
			break
		}
	}

	if completed == 0 {
		return nil, fmt.Errorf("no iteration produced a plan")
	}

	bom, totalCost, costNote := o.runCost(ctx, jobID, cfg, last.Plan, emit, log)
	var furnished []plan.RoomFurniture
	if cfg.IncludeFurniture {
		furnished = o.runFurniture(ctx, jobID, last.Plan, emit, log)
	}

	return assemble(cfg, last, bom, totalCost, costNote, furnished, completed, converged), nil
}

// runCost prices the final plan. Failure costs the estimate, never the
// job: the deliverable ships with an empty BOM and a WARN item flagging
// the gap.
func (o *Orchestrator) runCost(ctx context.Context, jobID string, cfg plan.ProjectConfig, g plan.FloorPlanGraph, emit EmitFunc, log *zap.Logger) ([]plan.BOMItem, plan.CostRange, *plan.ComplianceItem) {
	note := &plan.ComplianceItem{
		Rule:        "cost-estimate",
		Status:      plan.StatusWarn,
		Description: "Cost estimation unavailable; plan shipped without a bill of materials",
	}
	if ctx.Err() != nil {
		return nil, plan.CostRange{}, note
	}
	o.emitRouting(emit, jobID, gemini.RoleCost)
	o.emitAgentStart(emit, jobID, gemini.RoleCost)
	est, meta, err := o.cost.Execute(ctx, agents.CostInput{Config: cfg, Graph: g})
	if err != nil {
		log.Warn("cost estimation failed, shipping plan without BOM", zap.Error(err))
		return nil, plan.CostRange{}, note
	}
	o.emitAgentComplete(emit, jobID, meta)
	return est.BOM, est.Total, nil
}

// runFurniture furnishes the winning plan. Failure ships it unfurnished.
func (o *Orchestrator) runFurniture(ctx context.Context, jobID string, g plan.FloorPlanGraph, emit EmitFunc, log *zap.Logger) []plan.RoomFurniture {
	if ctx.Err() != nil {
		return nil
	}
	o.emitRouting(emit, jobID, gemini.RoleFurniture)
	o.emitAgentStart(emit, jobID, gemini.RoleFurniture)
	placed, meta, err := o.furniture.Execute(ctx, agents.FurnitureInput{Graph: g})
	if err != nil {
		log.Warn("furniture placement failed, shipping plan unfurnished", zap.Error(err))
		return nil
	}
	o.emitAgentComplete(emit, jobID, meta)
	return placed
}

// ===== EVENT HELPERS =====

func (o *Orchestrator) emitRouting(emit EmitFunc, jobID string, role gemini.AgentRole) {
	mc := o.router.Route(role)
	emit(progress.Event{Type: progress.EventMoERouting, JobID: jobID, Data: map[string]any{
		"agent": string(role),
		"model": mc.Model,
		"tier":  string(mc.Tier),
	}})
}

func (o *Orchestrator) emitAgentStart(emit EmitFunc, jobID string, role gemini.AgentRole) {
	emit(progress.Event{Type: progress.EventAgentStart, JobID: jobID, Data: map[string]any{
		"agent": string(role),
	}})
}

func (o *Orchestrator) emitAgentComplete(emit EmitFunc, jobID string, meta agents.Metadata) {
	emit(progress.Event{Type: progress.EventAgentComplete, JobID: jobID, Data: map[string]any{
		"agent":      meta.AgentName,
		"modelUsed":  meta.ModelUsed,
		"durationMs": meta.DurationMs,
		"tokenCount": meta.TokenCount,
		"fallback":   meta.Fallback,
	}})
}

func derefCritique(c *plan.Critique) plan.Critique {
	if c == nil {
		return plan.Critique{}
	}
	return *c
}

func mergedViolations(rec plan.IterationRecord) []plan.Violation {
	out := make([]plan.Violation, 0, len(rec.RegulatoryViolations)+len(rec.VastuViolations))
	out = append(out, rec.RegulatoryViolations...)
	out = append(out, rec.VastuViolations...)
	return out
}
