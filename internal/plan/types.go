// Package plan defines the shared data model for floor-plan generation:
// the project brief submitted by a client, the room geometry produced by
// the spatial agent, enrichment and validation artifacts, and the final
// assembled plan returned to the caller.
//
// Everything here is plain data. JSON tags follow the public API wire
// format (camelCase). Behavior lives in the geometry, regulation, vastu
// and scoring packages.
package plan

import (
	"fmt"
	"strings"
)

// =============================================================================
// ENUMS
// =============================================================================

// RoomType categorizes how a rectangle contributes to area accounting.
type RoomType string

const (
	RoomTypeRoom        RoomType = "room"        // habitable space, counts toward built-up
	RoomTypeService     RoomType = "service"     // kitchen/bath/utility, counts toward built-up
	RoomTypeCirculation RoomType = "circulation" // corridors, stairwells, lobbies
	RoomTypeOutdoor     RoomType = "outdoor"     // balconies, verandas, gardens
	RoomTypeSetback     RoomType = "setback"     // mandated open margin around the footprint
)

// Wall identifies which wall of a room a window or door sits on.
type Wall string

const (
	WallNorth Wall = "N"
	WallSouth Wall = "S"
	WallEast  Wall = "E"
	WallWest  Wall = "W"
)

// Severity ranks how badly a violation compromises the plan.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// ComplianceStatus is the outcome of a single evaluated check.
type ComplianceStatus string

const (
	StatusPass ComplianceStatus = "pass"
	StatusWarn ComplianceStatus = "warn"
	StatusFail ComplianceStatus = "fail"
)

// Sector is a cell of the 3x3 directional grid laid over the plot,
// oriented with north at the top:
//
//	NW N NE
//	W  C  E
//	SW S SE
type Sector string

const (
	SectorNW     Sector = "NW"
	SectorN      Sector = "N"
	SectorNE     Sector = "NE"
	SectorW      Sector = "W"
	SectorCenter Sector = "CENTER"
	SectorE      Sector = "E"
	SectorSW     Sector = "SW"
	SectorS      Sector = "S"
	SectorSE     Sector = "SE"
)

// Classification is the canonical room category derived from a room's
// free-form name. The set is closed; classifiers must map every name to
// one of these (bedroom is the fallback).
type Classification string

const (
	ClassMasterBedroom   Classification = "master_bedroom"
	ClassBedroom         Classification = "bedroom"
	ClassChildrenBedroom Classification = "children_bedroom"
	ClassGuestBedroom    Classification = "guest_bedroom"
	ClassKitchen         Classification = "kitchen"
	ClassLivingRoom      Classification = "living_room"
	ClassDiningRoom      Classification = "dining_room"
	ClassBathroom        Classification = "bathroom"
	ClassToilet          Classification = "toilet"
	ClassPoojaRoom       Classification = "pooja_room"
	ClassStudy           Classification = "study"
	ClassStaircase       Classification = "staircase"
	ClassBalcony         Classification = "balcony"
	ClassStorage         Classification = "storage"
	ClassGarage          Classification = "garage"
	ClassEntrance        Classification = "entrance"
	ClassCorridor        Classification = "corridor"
	ClassUtility         Classification = "utility"
	ClassVeranda         Classification = "veranda"
	ClassGarden          Classification = "garden"
)

// =============================================================================
// VASTU STRICTNESS
// =============================================================================

// Strictness expresses how much weight the client gives vastu compliance.
type Strictness string

const (
	StrictnessNone     Strictness = "none"
	StrictnessSlight   Strictness = "slight"
	StrictnessModerate Strictness = "moderate"
	StrictnessStrict   Strictness = "strict"
)

// Coefficient maps strictness to the multiplier applied to every vastu
// rule penalty. Unknown or empty values behave as none.
func (s Strictness) Coefficient() float64 {
	switch s {
	case StrictnessSlight:
		return 0.25
	case StrictnessModerate:
		return 0.5
	case StrictnessStrict:
		return 1.0
	default:
		return 0
	}
}

// ParseStrictness normalizes client-supplied strictness strings, accepting
// both the canonical tokens and the adverb forms older clients send
// ("Moderately", "Strictly"). Empty input means none.
func ParseStrictness(raw string) (Strictness, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none", "not at all", "no":
		return StrictnessNone, nil
	case "slight", "slightly", "low":
		return StrictnessSlight, nil
	case "moderate", "moderately", "medium":
		return StrictnessModerate, nil
	case "strict", "strictly", "high", "full":
		return StrictnessStrict, nil
	}
	return StrictnessNone, fmt.Errorf("unknown vastu strictness %q", raw)
}

// =============================================================================
// PROJECT BRIEF
// =============================================================================

// CostRange is a bounded money interval. Used for budgets, BOM line items
// and the final cost estimate.
type CostRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency,omitempty"`
}

// Location pins the project to a city and its regulating authority. The
// authority tag selects the municipal profile; unknown tags fall back to
// the national profile.
type Location struct {
	City      string `json:"city,omitempty"`
	Authority string `json:"authority,omitempty"`
}

// ProjectConfig is the client's brief: the plot, the program, the budget
// and the cultural preferences. It arrives as the POST /api/generate body.
type ProjectConfig struct {
	PlotWidth  float64 `json:"plotWidth" validate:"required,gt=0"`
	PlotLength float64 `json:"plotLength" validate:"required,gt=0"`
	Floors     int     `json:"floors,omitempty" validate:"omitempty,min=1,max=4"`

	Budget   CostRange `json:"budget,omitempty"`
	Location Location  `json:"location,omitempty"`

	// VastuStrictness accepts "none", "slight", "moderate", "strict" and
	// their adverb forms. Empty means none.
	VastuStrictness string `json:"vastuStrictness,omitempty"`

	// Requirements are free-form program lines ("3 bedrooms", "pooja room",
	// "home office"). The input agent expands them deterministically.
	Requirements []string `json:"requirements,omitempty"`

	Bathrooms int    `json:"bathrooms,omitempty" validate:"omitempty,min=0,max=8"`
	Parking   string `json:"parking,omitempty"` // "", "one_car", "two_car", "bike"
	Style     string `json:"style,omitempty"`

	IncludeFurniture bool `json:"includeFurniture,omitempty"`
}

// PlotArea returns the plot footprint in square metres.
func (c ProjectConfig) PlotArea() float64 {
	return c.PlotWidth * c.PlotLength
}

// FloorCount returns Floors with the single-storey default applied.
func (c ProjectConfig) FloorCount() int {
	if c.Floors < 1 {
		return 1
	}
	return c.Floors
}

// Strictness parses VastuStrictness, treating unknown values as none.
func (c ProjectConfig) Strictness() Strictness {
	s, err := ParseStrictness(c.VastuStrictness)
	if err != nil {
		return StrictnessNone
	}
	return s
}

// =============================================================================
// ROOM GEOMETRY
// =============================================================================

// Rect is an axis-aligned rectangle in plot coordinates. The origin is the
// plot's north-west corner; x grows east, y grows south. Units are metres.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the rectangle area; degenerate rectangles yield 0.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// WallFeature is a window or door: which wall it sits on, the offset from
// that wall's west/north end, and its width. All in metres.
type WallFeature struct {
	Wall   Wall    `json:"wall"`
	Offset float64 `json:"offset"`
	Width  float64 `json:"width"`
}

// Room is one rectangle of the plan as the spatial agent draws it.
type Room struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Floor   int           `json:"floor"`
	Rect    Rect          `json:"rect"`
	Type    RoomType      `json:"type"`
	Windows []WallFeature `json:"windows,omitempty"`
	Doors   []WallFeature `json:"doors,omitempty"`
}

// Adjacency records that two rooms share a wall or opening.
type Adjacency struct {
	A string `json:"a"`
	B string `json:"b"`
}

// PlotSize is the outer plot envelope in metres; Height is the
// north-south extent.
type PlotSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FloorPlanGraph is the layout the spatial and refinement agents emit:
// rooms plus the plot envelope and the agent's area bookkeeping.
type FloorPlanGraph struct {
	Rooms           []Room      `json:"rooms"`
	Adjacencies     []Adjacency `json:"adjacencies,omitempty"`
	Plot            PlotSize    `json:"plot"`
	SetbackArea     float64     `json:"setbackArea"`
	TotalBuiltUp    float64     `json:"totalBuiltUpArea"`
	CirculationArea float64     `json:"circulationArea"`
	DesignLog       []string    `json:"designLog,omitempty"`
}

// EnrichedRoom is a Room plus everything the deterministic geometry pass
// derives from it. Validators consume enriched rooms only.
type EnrichedRoom struct {
	Room
	CentroidX      float64        `json:"centroidX"`
	CentroidY      float64        `json:"centroidY"`
	AreaSqm        float64        `json:"areaSqm"`
	Sector         Sector         `json:"sector"`
	Classification Classification `json:"classification"`
}

// =============================================================================
// REQUIREMENTS (input agent output)
// =============================================================================

// RoomRequirement is one line of the expanded room program.
type RoomRequirement struct {
	Name           string         `json:"name"`
	Classification Classification `json:"classification"`
	Quantity       int            `json:"quantity"`
	MinAreaSqm     float64        `json:"minAreaSqm,omitempty"`
	Notes          string         `json:"notes,omitempty"`
}

// AdjacencyPreference is a soft constraint parsed from the client's
// free-form requirements ("kitchen next to dining").
type AdjacencyPreference struct {
	RoomA    string `json:"roomA"`
	RoomB    string `json:"roomB"`
	Relation string `json:"relation"` // "adjacent", "nearby" or "separated"
}

// Requirements is the input agent's full output: the deterministic room
// program plus LLM-parsed adjacency preferences.
type Requirements struct {
	Rooms       []RoomRequirement     `json:"rooms"`
	Adjacency   []AdjacencyPreference `json:"adjacency,omitempty"`
	TotalMinSqm float64               `json:"totalMinSqm"`
}

// =============================================================================
// VALIDATION ARTIFACTS
// =============================================================================

// Violation is a single broken rule with enough context to fix it.
type Violation struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Rule        string   `json:"rule"`
	Description string   `json:"description"`
	RoomID      string   `json:"roomId,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// ComplianceItem reports one evaluated check, pass or fail, so callers
// can render a full checklist rather than only the failures.
type ComplianceItem struct {
	Rule        string           `json:"rule"`
	Status      ComplianceStatus `json:"status"`
	Description string           `json:"description"`
	RoomID      string           `json:"roomId,omitempty"`
}

// ValidationReport is the common output shape of the regulatory and
// cultural validators: what broke, the full checklist, and a score in
// [0,1] after penalties.
type ValidationReport struct {
	Violations []Violation      `json:"violations"`
	Items      []ComplianceItem `json:"items"`
	Score      float64          `json:"score"`
}

// Critique is the critic agent's qualitative review. All scores are in
// [0,1]; the string lists are capped at five entries each.
type Critique struct {
	OverallScore       float64  `json:"overallScore"`
	FunctionalityScore float64  `json:"functionalityScore"`
	AestheticsScore    float64  `json:"aestheticsScore"`
	VastuScore         float64  `json:"vastuScore"`
	EfficiencyScore    float64  `json:"efficiencyScore"`
	LightingScore      float64  `json:"lightingScore"`
	Strengths          []string `json:"strengths,omitempty"`
	Weaknesses         []string `json:"weaknesses,omitempty"`
	Suggestions        []string `json:"suggestions,omitempty"`
}

// Score is the weighted composite that drives convergence.
type Score struct {
	Final           float64 `json:"final"`
	Regulatory      float64 `json:"regulatory"`
	Vastu           float64 `json:"vastu"`
	Spatial         float64 `json:"spatial"`
	Critic          float64 `json:"critic"`
	PassesThreshold bool    `json:"passesThreshold"`
}

// IterationRecord snapshots one orchestrator iteration so the best
// candidate can be recovered after the loop ends.
type IterationRecord struct {
	Iteration            int              `json:"iteration"`
	Plan                 FloorPlanGraph   `json:"plan"`
	Enriched             []EnrichedRoom   `json:"enriched,omitempty"`
	RegulatoryViolations []Violation      `json:"regulatoryViolations,omitempty"`
	VastuViolations      []Violation      `json:"vastuViolations,omitempty"`
	RegulatoryItems      []ComplianceItem `json:"regulatoryItems,omitempty"`
	VastuItems           []ComplianceItem `json:"vastuItems,omitempty"`
	Critique             *Critique        `json:"critique,omitempty"`
	Score                Score            `json:"score"`
}

// =============================================================================
// COST AND FURNITURE
// =============================================================================

// BOMItem is one bill-of-materials line.
type BOMItem struct {
	Material      string    `json:"material"`
	Quantity      float64   `json:"quantity"`
	Unit          string    `json:"unit"`
	UnitCostRange CostRange `json:"unitCostRange"`
	TotalCost     CostRange `json:"totalCostRange"`
}

// FurnitureItem is a placed furniture piece in room-local coordinates.
type FurnitureItem struct {
	Name     string  `json:"name"`
	Width    float64 `json:"width"`
	Depth    float64 `json:"depth"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation,omitempty"`
}

// RoomFurniture groups furniture placements by room.
type RoomFurniture struct {
	RoomID string          `json:"roomId"`
	Items  []FurnitureItem `json:"items"`
}

// =============================================================================
// FINAL PLAN
// =============================================================================

// ComplianceReport splits the checklist by rulebook.
type ComplianceReport struct {
	Regulatory []ComplianceItem `json:"regulatory"`
	Cultural   []ComplianceItem `json:"cultural"`
}

// FloorPlan is one storey of a multi-floor plan.
type FloorPlan struct {
	Level   int            `json:"level"`
	Label   string         `json:"label"`
	Rooms   []EnrichedRoom `json:"rooms"`
	AreaSqm float64        `json:"areaSqm"`
}

// GeneratedPlan is the final deliverable assembled by the orchestrator
// from the winning iteration plus the cost and furniture post-passes.
type GeneratedPlan struct {
	DesignLog         []string         `json:"designLog,omitempty"`
	Rooms             []EnrichedRoom   `json:"rooms"`
	TotalArea         float64          `json:"totalArea"`
	BuiltUpArea       float64          `json:"builtUpArea"`
	PlotCoverageRatio float64          `json:"plotCoverageRatio"`
	Compliance        ComplianceReport `json:"compliance"`
	BOM               []BOMItem        `json:"bom,omitempty"`
	TotalCostRange    CostRange        `json:"totalCostRange"`
	Furniture         []RoomFurniture  `json:"furniture,omitempty"`
	Floors            []FloorPlan      `json:"floors,omitempty"`
	Score             Score            `json:"score"`
	Iterations        int              `json:"iterations"`
	Converged         bool             `json:"converged"`
}
