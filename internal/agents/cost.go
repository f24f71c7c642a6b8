package agents

import (
	"context"
	"fmt"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/gemini"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// ===== COST AGENT =====

// CostInput is the finished layout plus the project context that prices
// it.
type CostInput struct {
	Config plan.ProjectConfig
	Graph  plan.FloorPlanGraph
}

// CostEstimate is the cost agent's payload.
type CostEstimate struct {
	BOM   []plan.BOMItem `json:"bom"`
	Total plan.CostRange `json:"totalCostRange"`
}

// CostAgent estimates a bill of materials. Callers treat a failure as
// "no estimate available" and ship the plan without one.
type CostAgent struct {
	deps Deps
}

func NewCostAgent(deps Deps) *CostAgent {
	return &CostAgent{deps: deps.normalized()}
}

func (a *CostAgent) Name() string { return string(gemini.RoleCost) }

func (a *CostAgent) Execute(ctx context.Context, in CostInput) (CostEstimate, Metadata, error) {
	raw, meta, err := a.deps.generate(ctx, gemini.RoleCost, costSystemPrompt, costPrompt(in), costSchema())
	if err != nil {
		return CostEstimate{}, meta, fmt.Errorf("cost estimation: %w", err)
	}

	var est CostEstimate
	if err := decodeInto(raw, &est, "cost estimate"); err != nil {
		return CostEstimate{}, meta, err
	}
	return normalizeEstimate(est), meta, nil
}

// normalizeEstimate fills derivable gaps: a missing total is summed from
// the line items and the currency defaults to INR throughout.
func normalizeEstimate(est CostEstimate) CostEstimate {
	for i := range est.BOM {
		if est.BOM[i].UnitCostRange.Currency == "" {
			est.BOM[i].UnitCostRange.Currency = "INR"
		}
		if est.BOM[i].TotalCost.Currency == "" {
			est.BOM[i].TotalCost.Currency = "INR"
		}
	}
	if est.Total.Min == 0 && est.Total.Max == 0 {
		for _, item := range est.BOM {
			est.Total.Min += item.TotalCost.Min
			est.Total.Max += item.TotalCost.Max
		}
	}
	if est.Total.Currency == "" {
		est.Total.Currency = "INR"
	}
	return est
}
