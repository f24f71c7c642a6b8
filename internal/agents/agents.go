// Package agents implements the floor-plan pipeline agents: input
// expansion, spatial generation, critique, refinement, cost estimation
// and furniture placement. Every agent shares the same execution shape:
// route the role to a model, run one structured Gemini call, decode the
// typed payload and report call metadata alongside it.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/gemini"
)

// Metadata describes one agent execution for progress events and the
// final plan's iteration log.
type Metadata struct {
	AgentName  string `json:"agentName"`
	ModelUsed  string `json:"modelUsed"`
	DurationMs int64  `json:"durationMs"`
	TokenCount int    `json:"tokenCount,omitempty"`
	Fallback   bool   `json:"fallback,omitempty"`
}

// Deps carries the shared collaborators every agent needs.
type Deps struct {
	Client gemini.Generator
	Router *gemini.Router
	Logger *zap.Logger
}

func (d Deps) normalized() Deps {
	if d.Router == nil {
		d.Router = gemini.NewRouter()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// generate runs one structured call for a role and returns the raw
// sanitized JSON payload plus metadata. The duration covers the whole
// call including retries and fallbacks.
func (d Deps) generate(ctx context.Context, role gemini.AgentRole, system, prompt string, schema map[string]any) (json.RawMessage, Metadata, error) {
	start := time.Now()
	cfg := d.Router.Route(role)
	meta := Metadata{AgentName: string(role)}

	res, err := d.Client.GenerateStructured(ctx, gemini.Request{
		System: system,
		Prompt: prompt,
		Schema: schema,
		Config: cfg,
	})
	meta.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		return nil, meta, err
	}
	meta.ModelUsed = res.ModelUsed
	meta.Fallback = res.Fallback
	meta.TokenCount = res.Usage.TotalTokens
	return res.Raw, meta, nil
}

// decodeInto unmarshals an agent payload with a descriptive error.
func decodeInto(raw json.RawMessage, v any, what string) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", what, err)
	}
	return nil
}

// clamp01 bounds a model-reported score to [0, 1].
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// truncate caps a string list at n entries.
func truncate(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}
