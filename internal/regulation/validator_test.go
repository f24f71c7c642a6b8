package regulation

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/geometry"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// compliantGraph builds a 12x18 plot that passes every national check:
// envelope after setbacks is [1.5, 10.5] x [3.0, 16.0].
func compliantGraph() plan.FloorPlanGraph {
	return plan.FloorPlanGraph{
		Plot: plan.PlotSize{Width: 12, Height: 18},
		Rooms: []plan.Room{
			{ID: "r1", Name: "Master Bedroom", Type: plan.RoomTypeRoom,
				Rect:    plan.Rect{X: 2, Y: 11, Width: 4, Height: 3.6},
				Windows: []plan.WallFeature{{Wall: plan.WallWest, Offset: 1, Width: 1.5}}},
			{ID: "r2", Name: "Kitchen", Type: plan.RoomTypeService,
				Rect:    plan.Rect{X: 7, Y: 12, Width: 3, Height: 2.5},
				Windows: []plan.WallFeature{{Wall: plan.WallEast, Offset: 0.5, Width: 1.2}}},
			{ID: "r3", Name: "Living Room", Type: plan.RoomTypeRoom,
				Rect:    plan.Rect{X: 2, Y: 4, Width: 5, Height: 4},
				Windows: []plan.WallFeature{{Wall: plan.WallNorth, Offset: 1, Width: 2}}},
			{ID: "r4", Name: "Corridor", Type: plan.RoomTypeCirculation,
				Rect: plan.Rect{X: 7, Y: 4, Width: 1.2, Height: 6}},
			{ID: "r5", Name: "Toilet", Type: plan.RoomTypeService,
				Rect: plan.Rect{X: 8.5, Y: 4, Width: 1.4, Height: 1.2}},
		},
	}
}

func validate(t *testing.T, g plan.FloorPlanGraph, authority string, floors int) plan.ValidationReport {
	t.Helper()
	v := NewValidator(NewRegistry())
	return v.Validate(g, geometry.Enrich(g), authority, floors)
}

func countBySeverity(violations []plan.Violation, sev plan.Severity) int {
	n := 0
	for _, v := range violations {
		if v.Severity == sev {
			n++
		}
	}
	return n
}

func findRule(violations []plan.Violation, rule string) *plan.Violation {
	for i := range violations {
		if violations[i].Rule == rule {
			return &violations[i]
		}
	}
	return nil
}

func TestValidateCompliantPlan(t *testing.T) {
	rep := validate(t, compliantGraph(), "national", 1)
	if len(rep.Violations) != 0 {
		t.Fatalf("expected no violations, got %+v", rep.Violations)
	}
	if rep.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", rep.Score)
	}
	if len(rep.Items) == 0 {
		t.Error("expected compliance items for passing checks")
	}
	for _, item := range rep.Items {
		if item.Status == plan.StatusFail {
			t.Errorf("unexpected fail item: %+v", item)
		}
	}
}

func TestValidateSetbackIntrusion(t *testing.T) {
	g := compliantGraph()
	g.Rooms[0].Rect.X = 0.5 // left setback is 1.5 m
	rep := validate(t, g, "national", 1)

	v := findRule(rep.Violations, "setback")
	if v == nil {
		t.Fatal("expected a setback violation")
	}
	if v.Severity != plan.SeverityCritical {
		t.Errorf("setback severity = %s, want critical", v.Severity)
	}
	if v.RoomID != "r1" {
		t.Errorf("setback room = %s, want r1", v.RoomID)
	}
	if math.Abs(rep.Score-0.8) > 1e-9 {
		t.Errorf("score = %v, want 0.8 after one critical", rep.Score)
	}
}

func TestValidateSetbackTolerance(t *testing.T) {
	g := compliantGraph()
	g.Rooms[0].Rect.X = 1.45 // 5 cm inside the tolerance band
	rep := validate(t, g, "national", 1)
	if findRule(rep.Violations, "setback") != nil {
		t.Error("5 cm intrusion should be absorbed by the 0.1 m tolerance")
	}
}

func TestValidateOutdoorRoomsSkipSetbacks(t *testing.T) {
	g := compliantGraph()
	g.Rooms = append(g.Rooms, plan.Room{
		ID: "r6", Name: "Garden", Type: plan.RoomTypeOutdoor,
		Rect: plan.Rect{X: 0, Y: 0, Width: 12, Height: 2},
	})
	rep := validate(t, g, "national", 1)
	if findRule(rep.Violations, "setback") != nil {
		t.Error("outdoor rooms may occupy the setback zone")
	}
}

func TestValidateFAR(t *testing.T) {
	g := compliantGraph()
	// Four floors of the same layout: built-up 43.58 x 4 / 216 = 0.81 FAR,
	// fine; inflate with a big hall to push past 2.0.
	g.Rooms = append(g.Rooms, plan.Room{
		ID: "big", Name: "Hall", Type: plan.RoomTypeRoom,
		Rect: plan.Rect{X: 2, Y: 4, Width: 8, Height: 10},
	})
	rep := validate(t, g, "national", 4)
	v := findRule(rep.Violations, "far")
	if v == nil {
		t.Fatal("expected a FAR violation")
	}
	if v.Severity != plan.SeverityCritical {
		t.Errorf("FAR severity = %s, want critical", v.Severity)
	}
}

func TestValidateGroundCoverage(t *testing.T) {
	// 20x30 plot, envelope [1.5, 18.5] x [3, 28]. A single 17x24 hall
	// stays inside the envelope but covers 408/600 = 68% > 65%.
	g := plan.FloorPlanGraph{
		Plot: plan.PlotSize{Width: 20, Height: 30},
		Rooms: []plan.Room{{
			ID: "r1", Name: "Living Room", Type: plan.RoomTypeRoom,
			Rect:    plan.Rect{X: 1.5, Y: 3, Width: 17, Height: 24},
			Windows: []plan.WallFeature{{Wall: plan.WallNorth, Width: 3}},
		}},
	}
	rep := validate(t, g, "national", 1)
	if v := findRule(rep.Violations, "setback"); v != nil {
		t.Fatalf("setup broken, hall should fit the envelope: %+v", v)
	}
	v := findRule(rep.Violations, "ground-coverage")
	if v == nil {
		t.Fatal("expected a ground coverage violation (408/600)")
	}
	if v.Severity != plan.SeverityMajor {
		t.Errorf("coverage severity = %s, want major", v.Severity)
	}
}

func TestValidateMinRoomSize(t *testing.T) {
	g := compliantGraph()
	g.Rooms = append(g.Rooms, plan.Room{
		ID: "small", Name: "Bedroom 2", Type: plan.RoomTypeRoom,
		Rect:    plan.Rect{X: 8, Y: 8, Width: 2, Height: 3},
		Windows: []plan.WallFeature{{Wall: plan.WallEast, Width: 1}},
	})
	rep := validate(t, g, "national", 1)
	v := findRule(rep.Violations, "min-room-size")
	if v == nil {
		t.Fatal("expected a min-room-size violation (6 sqm bedroom)")
	}
	if v.Severity != plan.SeverityMajor {
		t.Errorf("min size severity = %s, want major", v.Severity)
	}
	if v.RoomID != "small" {
		t.Errorf("min size room = %s", v.RoomID)
	}
}

func TestValidateMinRoomSizeTolerance(t *testing.T) {
	g := compliantGraph()
	// 9.45 sqm bedroom vs 9.5 minimum: inside the 0.1 tolerance.
	g.Rooms = append(g.Rooms, plan.Room{
		ID: "edge", Name: "Bedroom 2", Type: plan.RoomTypeRoom,
		Rect:    plan.Rect{X: 7.5, Y: 8, Width: 2.7, Height: 3.5},
		Windows: []plan.WallFeature{{Wall: plan.WallEast, Width: 1.2}},
	})
	rep := validate(t, g, "national", 1)
	if v := findRule(rep.Violations, "min-room-size"); v != nil {
		t.Errorf("9.45 sqm bedroom should pass within tolerance, got %+v", v)
	}
}

func TestValidateCorridorWidth(t *testing.T) {
	g := compliantGraph()
	g.Rooms[3].Rect.Width = 0.8
	rep := validate(t, g, "national", 1)
	v := findRule(rep.Violations, "corridor-width")
	if v == nil {
		t.Fatal("expected a corridor-width violation (0.8 m)")
	}
	if v.Severity != plan.SeverityMajor {
		t.Errorf("corridor severity = %s, want major", v.Severity)
	}

	g.Rooms[3].Rect.Width = 0.96 // within the 0.05 tolerance of 1.0
	rep = validate(t, g, "national", 1)
	if findRule(rep.Violations, "corridor-width") != nil {
		t.Error("0.96 m corridor should pass within tolerance")
	}
}

func TestValidateVentilationWarnsOnly(t *testing.T) {
	g := compliantGraph()
	g.Rooms[0].Windows = nil // windowless master bedroom
	rep := validate(t, g, "national", 1)

	if findRule(rep.Violations, "ventilation") != nil {
		t.Error("ventilation must never produce a violation")
	}
	if rep.Score != 1.0 {
		t.Errorf("warnings must not penalize the score, got %v", rep.Score)
	}
	warned := false
	for _, item := range rep.Items {
		if item.Rule == "ventilation" && item.Status == plan.StatusWarn && item.RoomID == "r1" {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a ventilation WARN item for the windowless room")
	}
}

func TestValidateZeroAreaRoom(t *testing.T) {
	g := compliantGraph()
	g.Rooms = append(g.Rooms, plan.Room{
		ID: "z", Name: "Bedroom 3", Type: plan.RoomTypeRoom,
		Rect: plan.Rect{X: 5, Y: 5},
	})
	// Must not panic; zero-area room fails the size minimum but nothing
	// divides by zero.
	rep := validate(t, g, "national", 1)
	if v := findRule(rep.Violations, "min-room-size"); v == nil {
		t.Error("zero-area bedroom should fail the minimum size check")
	}
}

func TestValidateDegeneratePlot(t *testing.T) {
	g := compliantGraph()
	g.Plot = plan.PlotSize{}
	rep := validate(t, g, "national", 1)
	// Ratio checks are skipped; score still computed from the rest.
	if findRule(rep.Violations, "far") != nil || findRule(rep.Violations, "ground-coverage") != nil {
		t.Error("ratio checks must be skipped for degenerate plots")
	}
}

func TestValidateScoreFloor(t *testing.T) {
	g := plan.FloorPlanGraph{
		Plot: plan.PlotSize{Width: 10, Height: 10},
	}
	// Six setback-busting rooms: 6 criticals = 1.2 penalty, floored at 0.
	for i := 0; i < 6; i++ {
		g.Rooms = append(g.Rooms, plan.Room{
			ID: string(rune('a' + i)), Name: "Bedroom", Type: plan.RoomTypeRoom,
			Rect: plan.Rect{X: -1, Y: float64(i), Width: 12, Height: 1},
		})
	}
	rep := validate(t, g, "national", 1)
	if rep.Score != 0 {
		t.Errorf("score = %v, want 0 floor", rep.Score)
	}
}

func TestValidateDeterministic(t *testing.T) {
	g := compliantGraph()
	g.Rooms[0].Rect.X = 0.5
	a := validate(t, g, "national", 1)
	b := validate(t, g, "national", 1)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Validate not deterministic (-first +second):\n%s", diff)
	}
}

func TestUnknownAuthorityFallsBackToNational(t *testing.T) {
	reg := NewRegistry()
	p := reg.ProfileFor("atlantis-development-board")
	if p.Authority != NationalAuthority {
		t.Fatalf("fallback profile = %s, want national", p.Authority)
	}
	want := Setbacks{Front: 3.0, Left: 1.5, Right: 1.5, Rear: 2.0}
	if p.Setbacks != want {
		t.Errorf("national setbacks = %+v, want %+v", p.Setbacks, want)
	}
	if reg.Known("atlantis-development-board") {
		t.Error("unknown tag must not report as known")
	}
	if !reg.Known("BBMP") {
		t.Error("authority tags are case-insensitive")
	}
}
