package vastu

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

func room(id, name string, class plan.Classification, sector plan.Sector) plan.EnrichedRoom {
	return plan.EnrichedRoom{
		Room:           plan.Room{ID: id, Name: name, Type: plan.RoomTypeRoom},
		Classification: class,
		Sector:         sector,
	}
}

// idealHome places every classified room in its favoured sector.
func idealHome() []plan.EnrichedRoom {
	return []plan.EnrichedRoom{
		room("r1", "Master Bedroom", plan.ClassMasterBedroom, plan.SectorSW),
		room("r2", "Kitchen", plan.ClassKitchen, plan.SectorSE),
		room("r3", "Living Room", plan.ClassLivingRoom, plan.SectorNE),
		room("r4", "Pooja Room", plan.ClassPoojaRoom, plan.SectorNE),
		room("r5", "Toilet", plan.ClassToilet, plan.SectorNW),
		room("r6", "Entrance", plan.ClassEntrance, plan.SectorN),
		room("r7", "Dining Room", plan.ClassDiningRoom, plan.SectorW),
		room("r8", "Staircase", plan.ClassStaircase, plan.SectorS),
	}
}

func TestValidateIdealHome(t *testing.T) {
	rep := NewValidator().Validate(idealHome(), plan.StrictnessStrict)
	if len(rep.Violations) != 0 {
		t.Fatalf("ideal home should have no violations, got %+v", rep.Violations)
	}
	if rep.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", rep.Score)
	}
	for _, item := range rep.Items {
		if item.Status != plan.StatusPass {
			t.Errorf("unexpected non-pass item: %+v", item)
		}
	}
}

func TestValidateStrictnessNoneSkipsEvaluation(t *testing.T) {
	// Deliberately terrible layout; none must still score 1.0.
	rooms := []plan.EnrichedRoom{
		room("r1", "Kitchen", plan.ClassKitchen, plan.SectorCenter),
		room("r2", "Toilet", plan.ClassToilet, plan.SectorNE),
	}
	rep := NewValidator().Validate(rooms, plan.StrictnessNone)
	if rep.Score != 1.0 {
		t.Errorf("score = %v, want 1.0 when strictness is none", rep.Score)
	}
	if len(rep.Violations) != 0 {
		t.Errorf("no violations expected, got %+v", rep.Violations)
	}
	if len(rep.Items) != 1 || rep.Items[0].Status != plan.StatusPass {
		t.Errorf("want exactly one informational pass item, got %+v", rep.Items)
	}
}

func TestValidateBrahmasthan(t *testing.T) {
	rooms := []plan.EnrichedRoom{
		room("r1", "Kitchen", plan.ClassKitchen, plan.SectorCenter),
	}
	rep := NewValidator().Validate(rooms, plan.StrictnessModerate)

	var brahmasthan *plan.Violation
	for i := range rep.Violations {
		if rep.Violations[i].Rule == "brahmasthan" {
			brahmasthan = &rep.Violations[i]
		}
	}
	if brahmasthan == nil {
		t.Fatal("expected a brahmasthan violation for a kitchen in CENTER")
	}
	if brahmasthan.Severity != plan.SeverityCritical {
		t.Errorf("brahmasthan severity = %s, want critical", brahmasthan.Severity)
	}
	if brahmasthan.RoomID != "r1" {
		t.Errorf("brahmasthan room = %s, want r1", brahmasthan.RoomID)
	}

	// A centre kitchen also fails kitchen-se-nw (major):
	// 1 - 0.15x0.5 - 0.10x0.5 = 0.875.
	want := 1 - WeightCritical*0.5 - WeightMajor*0.5
	if math.Abs(rep.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", rep.Score, want)
	}
}

func TestValidateMasterBedroomPlacement(t *testing.T) {
	sw := []plan.EnrichedRoom{room("r1", "Master Bedroom", plan.ClassMasterBedroom, plan.SectorSW)}
	ne := []plan.EnrichedRoom{room("r1", "Master Bedroom", plan.ClassMasterBedroom, plan.SectorNE)}

	v := NewValidator()
	if rep := v.Validate(sw, plan.StrictnessStrict); rep.Score != 1.0 {
		t.Errorf("SW master score = %v, want 1.0", rep.Score)
	}
	rep := v.Validate(ne, plan.StrictnessStrict)
	if len(rep.Violations) != 1 || rep.Violations[0].Rule != "master-sw" {
		t.Fatalf("want a single master-sw violation, got %+v", rep.Violations)
	}
	if math.Abs(rep.Score-0.9) > 1e-9 {
		t.Errorf("NE master score = %v, want 0.9", rep.Score)
	}
}

// Two rooms failing the same rule produce two violations but a single
// penalty.
func TestValidateSinglePenaltyPerRule(t *testing.T) {
	rooms := []plan.EnrichedRoom{
		room("r1", "Toilet 1", plan.ClassToilet, plan.SectorNE),
		room("r2", "Toilet 2", plan.ClassToilet, plan.SectorNE),
	}
	rep := NewValidator().Validate(rooms, plan.StrictnessStrict)
	if len(rep.Violations) != 2 {
		t.Fatalf("want 2 violations, got %d", len(rep.Violations))
	}
	want := 1 - WeightCritical // one penalty, not two
	if math.Abs(rep.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", rep.Score, want)
	}
}

func TestValidateStrictnessScalesPenalty(t *testing.T) {
	rooms := []plan.EnrichedRoom{room("r1", "Kitchen", plan.ClassKitchen, plan.SectorNE)}
	v := NewValidator()

	// NE kitchen fails kitchen-not-ne (0.15) and kitchen-se-nw (0.10).
	basePenalty := WeightCritical + WeightMajor
	for _, tt := range []struct {
		strictness plan.Strictness
		coeff      float64
	}{
		{plan.StrictnessSlight, 0.25},
		{plan.StrictnessModerate, 0.5},
		{plan.StrictnessStrict, 1.0},
	} {
		rep := v.Validate(rooms, tt.strictness)
		want := 1 - basePenalty*tt.coeff
		if math.Abs(rep.Score-want) > 1e-9 {
			t.Errorf("%s score = %v, want %v", tt.strictness, rep.Score, want)
		}
	}
}

func TestValidateUnboundRoomsIgnored(t *testing.T) {
	rooms := []plan.EnrichedRoom{
		room("r1", "Garden", plan.ClassGarden, plan.SectorCenter),
		room("r2", "Veranda", plan.ClassVeranda, plan.SectorNE),
	}
	rep := NewValidator().Validate(rooms, plan.StrictnessStrict)
	if len(rep.Violations) != 0 || len(rep.Items) != 0 {
		t.Errorf("unbound classifications must be ignored, got %+v / %+v", rep.Violations, rep.Items)
	}
	if rep.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", rep.Score)
	}
}

// Every rule-room application gets its own checklist item, and minor
// failures report as WARN rather than FAIL.
func TestValidatePerRoomItems(t *testing.T) {
	rooms := []plan.EnrichedRoom{
		room("r1", "Dining Room", plan.ClassDiningRoom, plan.SectorS),
		room("r2", "Toilet 1", plan.ClassToilet, plan.SectorNE),
		room("r3", "Toilet 2", plan.ClassToilet, plan.SectorNE),
		room("r4", "Kitchen", plan.ClassKitchen, plan.SectorSE),
	}
	rep := NewValidator().Validate(rooms, plan.StrictnessStrict)

	byRoom := map[string][]plan.ComplianceItem{}
	for _, item := range rep.Items {
		if item.RoomID == "" {
			t.Errorf("item without a room id: %+v", item)
		}
		byRoom[item.RoomID] = append(byRoom[item.RoomID], item)
	}

	dining := byRoom["r1"]
	if len(dining) != 1 || dining[0].Status != plan.StatusWarn || dining[0].Rule != "dining-w" {
		t.Errorf("dining items = %+v, want one dining-w WARN", dining)
	}
	for _, id := range []string{"r2", "r3"} {
		for _, item := range byRoom[id] {
			if item.Status == plan.StatusWarn {
				t.Errorf("critical toilet failure downgraded to WARN: %+v", item)
			}
		}
		if len(byRoom[id]) == 0 {
			t.Errorf("no items for toilet %s", id)
		}
	}
	for _, item := range byRoom["r4"] {
		if item.Status != plan.StatusPass {
			t.Errorf("SE kitchen should pass every bound rule, got %+v", item)
		}
	}
	// Brahmasthan, placement and NE exclusion all bind kitchens, so the
	// SE kitchen carries three pass items.
	if len(byRoom["r4"]) != 3 {
		t.Errorf("kitchen items = %+v, want 3", byRoom["r4"])
	}
}

func TestValidateScoreFloor(t *testing.T) {
	rooms := []plan.EnrichedRoom{
		room("r1", "Kitchen", plan.ClassKitchen, plan.SectorCenter),
		room("r2", "Toilet", plan.ClassToilet, plan.SectorCenter),
		room("r3", "Bathroom", plan.ClassBathroom, plan.SectorNE),
		room("r4", "Staircase", plan.ClassStaircase, plan.SectorCenter),
		room("r5", "Store Room", plan.ClassStorage, plan.SectorCenter),
		room("r6", "Master Bedroom", plan.ClassMasterBedroom, plan.SectorNE),
		room("r7", "Pooja Room", plan.ClassPoojaRoom, plan.SectorSW),
		room("r8", "Entrance", plan.ClassEntrance, plan.SectorSW),
		room("r9", "Living Room", plan.ClassLivingRoom, plan.SectorSW),
		room("r10", "Dining Room", plan.ClassDiningRoom, plan.SectorSE),
		room("r11", "Bedroom 2", plan.ClassBedroom, plan.SectorSE),
		room("r12", "Guest Room", plan.ClassGuestBedroom, plan.SectorN),
		room("r13", "Study", plan.ClassStudy, plan.SectorS),
	}
	rep := NewValidator().Validate(rooms, plan.StrictnessStrict)
	if rep.Score != 0 {
		t.Errorf("score = %v, want 0 floor", rep.Score)
	}
}

func TestValidateDeterministic(t *testing.T) {
	rooms := idealHome()
	rooms[1].Sector = plan.SectorCenter
	v := NewValidator()
	a := v.Validate(rooms, plan.StrictnessModerate)
	b := v.Validate(rooms, plan.StrictnessModerate)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Validate not deterministic (-first +second):\n%s", diff)
	}
}
