package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/gemini"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// ===== FURNITURE AGENT =====

// FurnitureInput is the layout to furnish.
type FurnitureInput struct {
	Graph plan.FloorPlanGraph
}

// FurnitureAgent places furniture per room. Like the cost agent it is
// decorative to the pipeline: a failure means the plan ships unfurnished.
type FurnitureAgent struct {
	deps Deps
}

func NewFurnitureAgent(deps Deps) *FurnitureAgent {
	return &FurnitureAgent{deps: deps.normalized()}
}

func (a *FurnitureAgent) Name() string { return string(gemini.RoleFurniture) }

func (a *FurnitureAgent) Execute(ctx context.Context, in FurnitureInput) ([]plan.RoomFurniture, Metadata, error) {
	raw, meta, err := a.deps.generate(ctx, gemini.RoleFurniture, furnitureSystemPrompt, furniturePrompt(in), furnitureSchema())
	if err != nil {
		return nil, meta, fmt.Errorf("furniture placement: %w", err)
	}

	var parsed struct {
		Rooms []plan.RoomFurniture `json:"rooms"`
	}
	if err := decodeInto(raw, &parsed, "furniture placement"); err != nil {
		return nil, meta, err
	}
	return a.filterKnownRooms(parsed.Rooms, in.Graph), meta, nil
}

// filterKnownRooms drops placements that reference rooms the plan does
// not contain. Models sometimes invent a room id; shipping those would
// break renderers keyed on the graph.
func (a *FurnitureAgent) filterKnownRooms(placed []plan.RoomFurniture, g plan.FloorPlanGraph) []plan.RoomFurniture {
	known := make(map[string]bool, len(g.Rooms))
	for _, r := range g.Rooms {
		known[r.ID] = true
	}
	out := placed[:0]
	for _, rf := range placed {
		if !known[rf.RoomID] {
			a.deps.Logger.Warn("dropping furniture for unknown room", zap.String("room_id", rf.RoomID))
			continue
		}
		if len(rf.Items) == 0 {
			continue
		}
		out = append(out, rf)
	}
	return out
}
