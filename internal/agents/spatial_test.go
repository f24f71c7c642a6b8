package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

func spatialInput() SpatialInput {
	cfg := testConfig()
	return SpatialInput{
		Config:       cfg,
		Requirements: ExpandRequirements(cfg),
		Profile:      testProfile(),
	}
}

func TestSpatialExecuteRepairsGraph(t *testing.T) {
	gen := &fakeGenerator{}
	gen.push(fakeAnswer{raw: testGraphJSON()})

	agent := NewSpatialAgent(testDeps(gen))
	g, meta, err := agent.Execute(context.Background(), spatialInput())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if meta.AgentName != "spatial" || meta.ModelUsed != "gemini-3-pro-preview" {
		t.Fatalf("metadata = %+v", meta)
	}

	// Missing IDs were assigned, missing types inferred from names.
	for _, r := range g.Rooms {
		if r.ID == "" {
			t.Errorf("room %q left without an id", r.Name)
		}
	}
	byName := make(map[string]plan.Room)
	for _, r := range g.Rooms {
		byName[r.Name] = r
	}
	if got := byName["Kitchen"].Type; got != plan.RoomTypeRoom {
		t.Errorf("kitchen type = %q, want inferred room", got)
	}
	if got := byName["Corridor"].Type; got != plan.RoomTypeCirculation {
		t.Errorf("corridor type = %q, want inferred circulation", got)
	}
}

func TestSpatialExecutePlotFallsBackToConfig(t *testing.T) {
	gen := &fakeGenerator{}
	gen.push(fakeAnswer{raw: `{"rooms": [{"name": "Hall", "rect": {"x": 3, "y": 3, "width": 4, "height": 4}, "type": "room"}], "plot": {"width": 0, "height": 0}}`})

	agent := NewSpatialAgent(testDeps(gen))
	g, _, err := agent.Execute(context.Background(), spatialInput())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if g.Plot.Width != 12 || g.Plot.Height != 18 {
		t.Fatalf("plot = %+v, want config fallback 12x18", g.Plot)
	}
}

func TestSpatialExecuteEmptyPlanFatal(t *testing.T) {
	gen := &fakeGenerator{}
	gen.push(fakeAnswer{raw: `{"rooms": [], "plot": {"width": 12, "height": 18}}`})

	agent := NewSpatialAgent(testDeps(gen))
	_, _, err := agent.Execute(context.Background(), spatialInput())
	if !errors.Is(err, ErrNoRooms) {
		t.Fatalf("err = %v, want ErrNoRooms", err)
	}
}

func TestSpatialExecuteCallFailureFatal(t *testing.T) {
	gen := &fakeGenerator{}
	gen.push(fakeAnswer{err: errors.New("chain exhausted")})

	agent := NewSpatialAgent(testDeps(gen))
	_, _, err := agent.Execute(context.Background(), spatialInput())
	if err == nil {
		t.Fatal("spatial call failure must be fatal")
	}
}

func TestSpatialPromptCarriesConstraints(t *testing.T) {
	gen := &fakeGenerator{}
	gen.push(fakeAnswer{raw: testGraphJSON()})

	agent := NewSpatialAgent(testDeps(gen))
	if _, _, err := agent.Execute(context.Background(), spatialInput()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	req := gen.lastRequest()
	if req.System != spatialSystemPrompt {
		t.Error("system prompt not set")
	}
	if req.Schema == nil {
		t.Error("floor plan schema not attached")
	}
	for _, want := range []string{
		"north-west corner",
		"front (north) 3.0m",
		"Maximum FAR",
		"3x bedroom",
		"Vastu shastra placement (moderate",
		"Brahmasthan",
	} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestInferRoomType(t *testing.T) {
	tests := []struct {
		name string
		want plan.RoomType
	}{
		{"Hallway", plan.RoomTypeCirculation},
		{"Staircase", plan.RoomTypeCirculation},
		{"Balcony", plan.RoomTypeOutdoor},
		{"Garden", plan.RoomTypeOutdoor},
		{"Toilet", plan.RoomTypeService},
		{"Store Room", plan.RoomTypeService},
		{"Master Bedroom", plan.RoomTypeRoom},
		{"Kitchen", plan.RoomTypeRoom},
	}
	for _, tt := range tests {
		if got := inferRoomType(tt.name); got != tt.want {
			t.Errorf("inferRoomType(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
