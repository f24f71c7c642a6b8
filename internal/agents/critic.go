package agents

import (
	"context"
	"fmt"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/gemini"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// ===== CRITIC AGENT =====

// maxCritiqueItems caps each critique list; everything past the cap is
// noise the refiner would never act on.
const maxCritiqueItems = 5

// CriticInput is the reviewed plan plus the deterministic findings the
// reviewer should weigh.
type CriticInput struct {
	Graph      plan.FloorPlanGraph
	Regulatory plan.ValidationReport
	Vastu      plan.ValidationReport
	Iteration  int
}

// CriticAgent scores a candidate plan qualitatively. Failures are fatal
// to the iteration: without a critique the composite score would be
// built on a guess.
type CriticAgent struct {
	deps Deps
}

func NewCriticAgent(deps Deps) *CriticAgent {
	return &CriticAgent{deps: deps.normalized()}
}

func (a *CriticAgent) Name() string { return string(gemini.RoleCritic) }

func (a *CriticAgent) Execute(ctx context.Context, in CriticInput) (plan.Critique, Metadata, error) {
	raw, meta, err := a.deps.generate(ctx, gemini.RoleCritic, criticSystemPrompt, criticPrompt(in), critiqueSchema())
	if err != nil {
		return plan.Critique{}, meta, fmt.Errorf("critique generation: %w", err)
	}

	var c plan.Critique
	if err := decodeInto(raw, &c, "critique"); err != nil {
		return plan.Critique{}, meta, err
	}
	return normalizeCritique(c), meta, nil
}

// normalizeCritique bounds every score to [0, 1] and caps the lists.
// Models occasionally score on a 0-10 scale; values above 1 are pulled
// back to the unit range rather than guessed at.
func normalizeCritique(c plan.Critique) plan.Critique {
	c.OverallScore = clamp01(c.OverallScore)
	c.FunctionalityScore = clamp01(c.FunctionalityScore)
	c.AestheticsScore = clamp01(c.AestheticsScore)
	c.VastuScore = clamp01(c.VastuScore)
	c.EfficiencyScore = clamp01(c.EfficiencyScore)
	c.LightingScore = clamp01(c.LightingScore)
	c.Strengths = truncate(c.Strengths, maxCritiqueItems)
	c.Weaknesses = truncate(c.Weaknesses, maxCritiqueItems)
	c.Suggestions = truncate(c.Suggestions, maxCritiqueItems)
	return c
}
