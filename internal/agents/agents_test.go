package agents

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/gemini"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/regulation"
)

// fakeGenerator scripts structured-call answers in order and records
// every request for prompt assertions.
type fakeGenerator struct {
	mu       sync.Mutex
	queue    []fakeAnswer
	requests []gemini.Request
}

type fakeAnswer struct {
	raw   string
	model string
	err   error
}

func (f *fakeGenerator) push(answers ...fakeAnswer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, answers...)
}

func (f *fakeGenerator) GenerateStructured(_ context.Context, req gemini.Request) (*gemini.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	if len(f.queue) == 0 {
		return nil, gemini.ErrEmptyResponse
	}
	ans := f.queue[0]
	f.queue = f.queue[1:]
	if ans.err != nil {
		return nil, ans.err
	}
	model := ans.model
	if model == "" {
		model = req.Config.Model
	}
	return &gemini.Result{
		Raw:       json.RawMessage(ans.raw),
		ModelUsed: model,
		Fallback:  model != req.Config.Model,
		Usage:     gemini.Usage{PromptTokens: 100, OutputTokens: 40, TotalTokens: 140},
	}, nil
}

func (f *fakeGenerator) lastRequest() gemini.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func testDeps(gen gemini.Generator) Deps {
	return Deps{Client: gen}
}

func testConfig() plan.ProjectConfig {
	return plan.ProjectConfig{
		PlotWidth:       12,
		PlotLength:      18,
		Floors:          1,
		VastuStrictness: "moderate",
		Requirements:    []string{"3 bedrooms", "pooja room", "study"},
		Bathrooms:       2,
		Parking:         "one_car",
	}
}

func testProfile() regulation.Profile {
	return regulation.NewRegistry().ProfileFor("national")
}

func testGraphJSON() string {
	g := plan.FloorPlanGraph{
		Rooms: []plan.Room{
			{Name: "Living Room", Rect: plan.Rect{X: 2, Y: 4, Width: 5, Height: 4}, Type: plan.RoomTypeRoom},
			{Name: "Kitchen", Rect: plan.Rect{X: 7, Y: 12, Width: 3, Height: 2.5}},
			{Name: "Corridor", Rect: plan.Rect{X: 7, Y: 4, Width: 1.2, Height: 6}},
		},
		Plot:      plan.PlotSize{Width: 12, Height: 18},
		DesignLog: []string{"placed living room center-west"},
	}
	b, _ := json.Marshal(g)
	return string(b)
}
