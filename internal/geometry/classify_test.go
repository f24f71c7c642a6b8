package geometry

import (
	"testing"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want plan.Classification
	}{
		{"Master Bedroom", plan.ClassMasterBedroom},
		{"master bed", plan.ClassMasterBedroom},
		{"MasterBedroom 1", plan.ClassMasterBedroom},
		{"Bedroom 2", plan.ClassBedroom},
		{"Kids Room", plan.ClassChildrenBedroom},
		{"Children's Bedroom", plan.ClassChildrenBedroom},
		{"Guest Room", plan.ClassGuestBedroom},
		{"Kitchen", plan.ClassKitchen},
		{"Modular Kitchen", plan.ClassKitchen},
		{"Living Room", plan.ClassLivingRoom},
		{"Hall", plan.ClassLivingRoom},
		{"Drawing Room", plan.ClassLivingRoom},
		{"Dining Area", plan.ClassDiningRoom},
		{"Bathroom", plan.ClassBathroom},
		{"Master Bathroom", plan.ClassBathroom},
		{"Toilet", plan.ClassToilet},
		{"WC", plan.ClassToilet},
		{"Lavatory", plan.ClassToilet},
		{"Guest Toilet", plan.ClassToilet},
		{"Pooja Room", plan.ClassPoojaRoom},
		{"Puja", plan.ClassPoojaRoom},
		{"Prayer Room", plan.ClassPoojaRoom},
		{"Mandir", plan.ClassPoojaRoom},
		{"Study", plan.ClassStudy},
		{"Home Office", plan.ClassStudy},
		{"Staircase", plan.ClassStaircase},
		{"Stairs", plan.ClassStaircase},
		{"Balcony", plan.ClassBalcony},
		{"Store Room", plan.ClassStorage},
		{"Storage", plan.ClassStorage},
		{"Garage", plan.ClassGarage},
		{"Car Parking", plan.ClassGarage},
		{"Entrance Foyer", plan.ClassEntrance},
		{"Porch", plan.ClassEntrance},
		{"Corridor", plan.ClassCorridor},
		{"Hallway", plan.ClassCorridor},
		{"Passage", plan.ClassCorridor},
		{"Utility", plan.ClassUtility},
		{"Laundry", plan.ClassUtility},
		{"Veranda", plan.ClassVeranda},
		{"Garden", plan.ClassGarden},
		// Nothing matches: default is bedroom.
		{"Zen Den", plan.ClassBedroom},
		{"", plan.ClassBedroom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

// Priority cases: the specific pattern must win over the generic one it
// contains.
func TestClassifyPriority(t *testing.T) {
	if got := Classify("Master Bedroom"); got == plan.ClassBedroom {
		t.Error("master bed must match before generic bed")
	}
	if got := Classify("Guest Toilet"); got != plan.ClassToilet {
		t.Errorf("Guest Toilet = %s, toilet must match before guest", got)
	}
	if got := Classify("Hallway"); got != plan.ClassCorridor {
		t.Errorf("Hallway = %s, must not match hall/living", got)
	}
}

func TestIsHabitable(t *testing.T) {
	for _, c := range []plan.Classification{
		plan.ClassMasterBedroom, plan.ClassKitchen, plan.ClassLivingRoom, plan.ClassStudy,
	} {
		if !IsHabitable(c) {
			t.Errorf("%s should be habitable", c)
		}
	}
	for _, c := range []plan.Classification{
		plan.ClassBathroom, plan.ClassToilet, plan.ClassCorridor, plan.ClassStorage, plan.ClassGarage,
	} {
		if IsHabitable(c) {
			t.Errorf("%s should not be habitable", c)
		}
	}
}
