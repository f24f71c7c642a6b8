package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/gemini"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/geometry"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/regulation"
)

// ===== SPATIAL AGENT =====

// ErrNoRooms means the model answered with an empty layout.
var ErrNoRooms = errors.New("agents: generated plan contains no rooms")

// SpatialInput is everything the generator needs for a first layout.
type SpatialInput struct {
	Config       plan.ProjectConfig
	Requirements plan.Requirements
	Profile      regulation.Profile
}

// SpatialAgent generates the initial floor-plan graph. Its failures are
// fatal to the run: without a layout there is nothing to validate or
// refine.
type SpatialAgent struct {
	deps Deps
}

func NewSpatialAgent(deps Deps) *SpatialAgent {
	return &SpatialAgent{deps: deps.normalized()}
}

func (a *SpatialAgent) Name() string { return string(gemini.RoleSpatial) }

func (a *SpatialAgent) Execute(ctx context.Context, in SpatialInput) (plan.FloorPlanGraph, Metadata, error) {
	raw, meta, err := a.deps.generate(ctx, gemini.RoleSpatial, spatialSystemPrompt, spatialPrompt(in), floorPlanSchema())
	if err != nil {
		return plan.FloorPlanGraph{}, meta, fmt.Errorf("spatial generation: %w", err)
	}

	var g plan.FloorPlanGraph
	if err := decodeInto(raw, &g, "floor plan"); err != nil {
		return plan.FloorPlanGraph{}, meta, err
	}
	if err := repairGraph(&g, in.Config); err != nil {
		return plan.FloorPlanGraph{}, meta, err
	}
	return g, meta, nil
}

// repairGraph applies deterministic fixups to a model-emitted graph:
// the plot envelope falls back to the project config, missing room IDs
// are assigned, and missing room types are inferred from the room name.
// An empty room list is unrecoverable.
func repairGraph(g *plan.FloorPlanGraph, cfg plan.ProjectConfig) error {
	if len(g.Rooms) == 0 {
		return ErrNoRooms
	}
	if g.Plot.Width <= 0 || g.Plot.Height <= 0 {
		g.Plot = plan.PlotSize{Width: cfg.PlotWidth, Height: cfg.PlotLength}
	}

	used := make(map[string]bool, len(g.Rooms))
	for _, r := range g.Rooms {
		if r.ID != "" {
			used[r.ID] = true
		}
	}
	next := 1
	for i := range g.Rooms {
		r := &g.Rooms[i]
		if r.ID == "" {
			for {
				id := fmt.Sprintf("r%d", next)
				next++
				if !used[id] {
					r.ID = id
					used[id] = true
					break
				}
			}
		}
		if !validRoomType(r.Type) {
			r.Type = inferRoomType(r.Name)
		}
		if r.Floor < 0 {
			r.Floor = 0
		}
	}
	return nil
}

func validRoomType(t plan.RoomType) bool {
	switch t {
	case plan.RoomTypeRoom, plan.RoomTypeService, plan.RoomTypeCirculation, plan.RoomTypeOutdoor, plan.RoomTypeSetback:
		return true
	}
	return false
}

// inferRoomType maps a room name to its area-accounting type when the
// model omitted one.
func inferRoomType(name string) plan.RoomType {
	switch geometry.Classify(name) {
	case plan.ClassCorridor, plan.ClassStaircase, plan.ClassEntrance:
		return plan.RoomTypeCirculation
	case plan.ClassBalcony, plan.ClassVeranda, plan.ClassGarden:
		return plan.RoomTypeOutdoor
	case plan.ClassBathroom, plan.ClassToilet, plan.ClassUtility, plan.ClassStorage, plan.ClassGarage:
		return plan.RoomTypeService
	default:
		return plan.RoomTypeRoom
	}
}
