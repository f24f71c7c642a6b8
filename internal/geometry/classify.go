package geometry

import (
	"regexp"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// classRule binds a name pattern to a classification. Rules are evaluated
// in order and the first match wins, so specific patterns (master bed,
// pooja, toilet) sit above the generic ones and plain "bed" is last.
type classRule struct {
	re    *regexp.Regexp
	class plan.Classification
}

var classRules = []classRule{
	{regexp.MustCompile(`(?i)master\s*bed`), plan.ClassMasterBedroom},
	{regexp.MustCompile(`(?i)pooja|puja|prayer|mandir|temple`), plan.ClassPoojaRoom},
	{regexp.MustCompile(`(?i)toilet|\bwc\b|lavatory|powder\s*room`), plan.ClassToilet},
	{regexp.MustCompile(`(?i)bath`), plan.ClassBathroom},
	{regexp.MustCompile(`(?i)kitchen|cook|pantry`), plan.ClassKitchen},
	{regexp.MustCompile(`(?i)\bkids?\b|child`), plan.ClassChildrenBedroom},
	{regexp.MustCompile(`(?i)guest`), plan.ClassGuestBedroom},
	{regexp.MustCompile(`(?i)living|lounge|\bhall\b|drawing|family\s*room`), plan.ClassLivingRoom},
	{regexp.MustCompile(`(?i)dining`), plan.ClassDiningRoom},
	{regexp.MustCompile(`(?i)study|office`), plan.ClassStudy},
	{regexp.MustCompile(`(?i)stair`), plan.ClassStaircase},
	{regexp.MustCompile(`(?i)balcon`), plan.ClassBalcony},
	{regexp.MustCompile(`(?i)stor(e\s*room|age)|\bstore\b`), plan.ClassStorage},
	{regexp.MustCompile(`(?i)garage|car\s*park|parking`), plan.ClassGarage},
	{regexp.MustCompile(`(?i)entrance|entry|foyer|porch|vestibule`), plan.ClassEntrance},
	{regexp.MustCompile(`(?i)corridor|passage|hallway`), plan.ClassCorridor},
	{regexp.MustCompile(`(?i)utility|laundry|wash\s*area`), plan.ClassUtility},
	{regexp.MustCompile(`(?i)veranda|patio|deck|sit\s*out`), plan.ClassVeranda},
	{regexp.MustCompile(`(?i)garden|lawn|yard`), plan.ClassGarden},
	{regexp.MustCompile(`(?i)bed`), plan.ClassBedroom},
}

// Classify maps a free-form room name to its canonical classification.
// Names nothing matches default to bedroom.
func Classify(name string) plan.Classification {
	for _, r := range classRules {
		if r.re.MatchString(name) {
			return r.class
		}
	}
	return plan.ClassBedroom
}

// habitable lists the classifications the ventilation check applies to.
var habitable = map[plan.Classification]bool{
	plan.ClassMasterBedroom:   true,
	plan.ClassBedroom:         true,
	plan.ClassChildrenBedroom: true,
	plan.ClassGuestBedroom:    true,
	plan.ClassKitchen:         true,
	plan.ClassLivingRoom:      true,
	plan.ClassDiningRoom:      true,
	plan.ClassStudy:           true,
}

// IsHabitable reports whether a classification requires natural
// ventilation under the building rules.
func IsHabitable(c plan.Classification) bool {
	return habitable[c]
}
