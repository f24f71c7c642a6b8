// Package vastu evaluates floor plans against vastu shastra placement
// rules. The rule set is a static table; how hard failures bite is
// controlled entirely by the client's strictness setting, and a
// strictness of none skips evaluation outright.
package vastu

import (
	"fmt"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// Default penalty weights per severity. A failed rule costs
// weight x strictness coefficient.
const (
	WeightCritical = 0.15
	WeightMajor    = 0.10
	WeightMinor    = 0.04
)

// Rule binds room classifications to the sectors they should or must not
// occupy. Exactly one of Allowed/Forbidden is set per rule: Allowed means
// a bound room fails outside the listed sectors, Forbidden means it fails
// inside them.
type Rule struct {
	ID        string
	Applies   []plan.Classification
	Allowed   []plan.Sector
	Forbidden []plan.Sector
	Severity  plan.Severity
	Weight    float64
	Summary   string
	Remedy    string
}

// Rules is the evaluation table, in evaluation order. Weights follow the
// severity defaults above.
var Rules = []Rule{
	{
		ID:        "brahmasthan",
		Applies:   []plan.Classification{plan.ClassKitchen, plan.ClassBathroom, plan.ClassToilet, plan.ClassStaircase, plan.ClassStorage},
		Forbidden: []plan.Sector{plan.SectorCenter},
		Severity:  plan.SeverityCritical,
		Weight:    WeightCritical,
		Summary:   "Brahmasthan (centre) must stay open",
		Remedy:    "Keep the central ninth of the plot free of kitchens, wet areas, stairs and storage",
	},
	{
		ID:       "master-sw",
		Applies:  []plan.Classification{plan.ClassMasterBedroom},
		Allowed:  []plan.Sector{plan.SectorSW},
		Severity: plan.SeverityMajor,
		Weight:   WeightMajor,
		Summary:  "Master bedroom belongs in the south-west",
		Remedy:   "Move the master bedroom to the south-west quadrant",
	},
	{
		ID:       "kitchen-se-nw",
		Applies:  []plan.Classification{plan.ClassKitchen},
		Allowed:  []plan.Sector{plan.SectorSE, plan.SectorNW},
		Severity: plan.SeverityMajor,
		Weight:   WeightMajor,
		Summary:  "Kitchen belongs in the south-east (or north-west)",
		Remedy:   "Place the kitchen in the south-east corner, north-west as the fallback",
	},
	{
		ID:        "kitchen-not-ne",
		Applies:   []plan.Classification{plan.ClassKitchen},
		Forbidden: []plan.Sector{plan.SectorNE},
		Severity:  plan.SeverityCritical,
		Weight:    WeightCritical,
		Summary:   "Kitchen must not occupy the north-east",
		Remedy:    "Move the kitchen out of the north-east corner",
	},
	{
		ID:       "living-ne-n-e",
		Applies:  []plan.Classification{plan.ClassLivingRoom},
		Allowed:  []plan.Sector{plan.SectorNE, plan.SectorN, plan.SectorE},
		Severity: plan.SeverityMinor,
		Weight:   WeightMinor,
		Summary:  "Living room favours the north-east, north or east",
		Remedy:   "Shift the living room toward the north or east face",
	},
	{
		ID:       "pooja-ne",
		Applies:  []plan.Classification{plan.ClassPoojaRoom},
		Allowed:  []plan.Sector{plan.SectorNE, plan.SectorE, plan.SectorN},
		Severity: plan.SeverityMajor,
		Weight:   WeightMajor,
		Summary:  "Pooja room belongs in the north-east",
		Remedy:   "Place the pooja room in the north-east, east or north",
	},
	{
		ID:        "toilet-not-ne-center",
		Applies:   []plan.Classification{plan.ClassToilet, plan.ClassBathroom},
		Forbidden: []plan.Sector{plan.SectorNE, plan.SectorCenter},
		Severity:  plan.SeverityCritical,
		Weight:    WeightCritical,
		Summary:   "Wet areas must avoid the north-east and centre",
		Remedy:    "Move toilets and bathrooms to the north-west or south of the plan",
	},
	{
		ID:       "entrance-n-e-ne",
		Applies:  []plan.Classification{plan.ClassEntrance},
		Allowed:  []plan.Sector{plan.SectorN, plan.SectorE, plan.SectorNE},
		Severity: plan.SeverityMajor,
		Weight:   WeightMajor,
		Summary:  "Main entrance favours the north or east",
		Remedy:   "Relocate the entrance to the north or east face",
	},
	{
		ID:        "staircase-not-ne-center",
		Applies:   []plan.Classification{plan.ClassStaircase},
		Forbidden: []plan.Sector{plan.SectorNE, plan.SectorCenter},
		Severity:  plan.SeverityMajor,
		Weight:    WeightMajor,
		Summary:   "Staircase must avoid the north-east and centre",
		Remedy:    "Move the staircase to the south or west",
	},
	{
		ID:       "dining-w",
		Applies:  []plan.Classification{plan.ClassDiningRoom},
		Allowed:  []plan.Sector{plan.SectorW, plan.SectorE, plan.SectorN},
		Severity: plan.SeverityMinor,
		Weight:   WeightMinor,
		Summary:  "Dining room favours the west",
		Remedy:   "Shift dining toward the west, east or north",
	},
	{
		ID:       "study-ne-e",
		Applies:  []plan.Classification{plan.ClassStudy},
		Allowed:  []plan.Sector{plan.SectorNE, plan.SectorE, plan.SectorN, plan.SectorW},
		Severity: plan.SeverityMinor,
		Weight:   WeightMinor,
		Summary:  "Study favours the east or north",
		Remedy:   "Move the study toward the east or north face",
	},
	{
		ID:       "storage-sw",
		Applies:  []plan.Classification{plan.ClassStorage},
		Allowed:  []plan.Sector{plan.SectorSW, plan.SectorS, plan.SectorW, plan.SectorNW},
		Severity: plan.SeverityMinor,
		Weight:   WeightMinor,
		Summary:  "Storage belongs in the heavy south-west",
		Remedy:   "Move storage to the south-west or west",
	},
	{
		ID:       "guest-nw",
		Applies:  []plan.Classification{plan.ClassGuestBedroom},
		Allowed:  []plan.Sector{plan.SectorNW, plan.SectorSE},
		Severity: plan.SeverityMinor,
		Weight:   WeightMinor,
		Summary:  "Guest bedroom favours the north-west",
		Remedy:   "Place guests in the north-west corner",
	},
	{
		ID:        "bedroom-not-se",
		Applies:   []plan.Classification{plan.ClassBedroom, plan.ClassChildrenBedroom},
		Forbidden: []plan.Sector{plan.SectorSE},
		Severity:  plan.SeverityMinor,
		Weight:    WeightMinor,
		Summary:   "Bedrooms should avoid the fiery south-east",
		Remedy:    "Swap the south-east bedroom with a kitchen or utility space",
	},
}

// Guidance renders the rule table as one advisory line per rule, used
// to brief the generation agents before a layout exists.
func Guidance() []string {
	lines := make([]string, 0, len(Rules))
	for _, r := range Rules {
		lines = append(lines, fmt.Sprintf("%s (%s)", r.Summary, r.Severity))
	}
	return lines
}

func sectorIn(s plan.Sector, set []plan.Sector) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

// roomPasses applies one rule to one room.
func (r Rule) roomPasses(sector plan.Sector) bool {
	if len(r.Forbidden) > 0 {
		return !sectorIn(sector, r.Forbidden)
	}
	return sectorIn(sector, r.Allowed)
}

// binds reports whether the rule applies to a classification.
func (r Rule) binds(c plan.Classification) bool {
	for _, a := range r.Applies {
		if a == c {
			return true
		}
	}
	return false
}
