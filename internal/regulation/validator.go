package regulation

import (
	"fmt"
	"math"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/geometry"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// Penalty per violation severity. Warnings carry no penalty.
const (
	PenaltyCritical = 0.20
	PenaltyMajor    = 0.10
	PenaltyMinor    = 0.03
)

// Check tolerances, metres. Agents draw with two-decimal precision, so
// sub-decimetre intrusions are treated as drawing noise, not violations.
const (
	setbackTolerance  = 0.1
	roomSizeTolerance = 0.1
	corridorTolerance = 0.05
	windowHeight      = 1.2 // assumed operable window height
)

// Validator checks plans against the bye-laws of a resolved authority.
type Validator struct {
	registry *Registry
}

// NewValidator returns a validator backed by the given profile registry.
func NewValidator(registry *Registry) *Validator {
	return &Validator{registry: registry}
}

// Registry exposes the backing profile registry.
func (v *Validator) Registry() *Registry { return v.registry }

// Validate runs every regulatory check in a fixed order and returns the
// violations, the full pass/warn/fail checklist and the penalty score.
// The result is a pure function of the inputs and the loaded profiles.
func (v *Validator) Validate(g plan.FloorPlanGraph, enriched []plan.EnrichedRoom, authority string, floors int) plan.ValidationReport {
	profile := v.registry.ProfileFor(authority)
	if floors < 1 {
		floors = 1
	}

	rep := &reportBuilder{}
	plotArea := g.Plot.Width * g.Plot.Height
	builtUp := geometry.BuiltUpArea(g.Rooms)

	v.checkSetbacks(rep, g, profile)
	v.checkFAR(rep, profile, builtUp, plotArea, floors)
	v.checkCoverage(rep, profile, builtUp, plotArea)
	v.checkRoomSizes(rep, enriched, profile)
	v.checkCorridors(rep, g, profile)
	v.checkVentilation(rep, enriched, profile)

	return rep.finish()
}

// checkSetbacks requires every enclosed room to lie inside the
// setback-adjusted envelope. Front is the north (y=0) edge.
func (v *Validator) checkSetbacks(rep *reportBuilder, g plan.FloorPlanGraph, p Profile) {
	s := p.Setbacks
	minX, maxX := s.Left, g.Plot.Width-s.Right
	minY, maxY := s.Front, g.Plot.Height-s.Rear

	bad := 0
	for _, rm := range g.Rooms {
		switch rm.Type {
		case plan.RoomTypeRoom, plan.RoomTypeService, plan.RoomTypeCirculation:
		default:
			continue
		}
		r := rm.Rect
		if r.X < minX-setbackTolerance || r.Y < minY-setbackTolerance ||
			r.X+r.Width > maxX+setbackTolerance || r.Y+r.Height > maxY+setbackTolerance {
			bad++
			rep.violation(plan.SeverityCritical, "setback", rm.ID,
				fmt.Sprintf("%s intrudes into the mandated setback (front %.1f, left %.1f, right %.1f, rear %.1f m)",
					rm.Name, s.Front, s.Left, s.Right, s.Rear),
				fmt.Sprintf("Move %s inside the envelope [%.1f, %.1f] x [%.1f, %.1f]", rm.Name, minX, maxX, minY, maxY))
		}
	}
	if bad == 0 {
		rep.pass("setback", fmt.Sprintf("All rooms respect setbacks front %.1f / left %.1f / right %.1f / rear %.1f m",
			s.Front, s.Left, s.Right, s.Rear))
	} else {
		rep.fail("setback", fmt.Sprintf("%d room(s) intrude into mandated setbacks", bad))
	}
}

func (v *Validator) checkFAR(rep *reportBuilder, p Profile, builtUp, plotArea float64, floors int) {
	if plotArea <= 0 {
		return
	}
	far := builtUp * float64(floors) / plotArea
	if far > p.MaxFAR {
		rep.violation(plan.SeverityCritical, "far", "",
			fmt.Sprintf("Floor area ratio %.2f exceeds the permitted %.2f", far, p.MaxFAR),
			fmt.Sprintf("Reduce total built-up area below %.1f sqm", p.MaxFAR*plotArea/float64(floors)))
		rep.fail("far", fmt.Sprintf("FAR %.2f > %.2f", far, p.MaxFAR))
		return
	}
	rep.pass("far", fmt.Sprintf("FAR %.2f within the permitted %.2f", far, p.MaxFAR))
}

func (v *Validator) checkCoverage(rep *reportBuilder, p Profile, builtUp, plotArea float64) {
	if plotArea <= 0 {
		return
	}
	coverage := builtUp / plotArea
	if coverage > p.MaxGroundCoverage {
		rep.violation(plan.SeverityMajor, "ground-coverage", "",
			fmt.Sprintf("Ground coverage %.0f%% exceeds the permitted %.0f%%", coverage*100, p.MaxGroundCoverage*100),
			"Shrink the footprint or move area to an upper floor")
		rep.fail("ground-coverage", fmt.Sprintf("coverage %.0f%% > %.0f%%", coverage*100, p.MaxGroundCoverage*100))
		return
	}
	rep.pass("ground-coverage", fmt.Sprintf("Ground coverage %.0f%% within the permitted %.0f%%", coverage*100, p.MaxGroundCoverage*100))
}

func (v *Validator) checkRoomSizes(rep *reportBuilder, enriched []plan.EnrichedRoom, p Profile) {
	bad := 0
	for _, rm := range enriched {
		min, ok := p.MinRoomSizes[rm.Classification]
		if !ok {
			continue
		}
		if rm.AreaSqm < min-roomSizeTolerance {
			bad++
			rep.violation(plan.SeverityMajor, "min-room-size", rm.ID,
				fmt.Sprintf("%s is %.1f sqm, below the %.1f sqm minimum for %s", rm.Name, rm.AreaSqm, min, rm.Classification),
				fmt.Sprintf("Enlarge %s to at least %.1f sqm", rm.Name, min))
		}
	}
	if bad == 0 {
		rep.pass("min-room-size", "All classified rooms meet minimum areas")
	} else {
		rep.fail("min-room-size", fmt.Sprintf("%d room(s) below minimum area", bad))
	}
}

func (v *Validator) checkCorridors(rep *reportBuilder, g plan.FloorPlanGraph, p Profile) {
	bad := 0
	for _, rm := range g.Rooms {
		if rm.Type != plan.RoomTypeCirculation {
			continue
		}
		width := math.Min(rm.Rect.Width, rm.Rect.Height)
		if width < p.MinCorridorWidth-corridorTolerance {
			bad++
			rep.violation(plan.SeverityMajor, "corridor-width", rm.ID,
				fmt.Sprintf("%s is %.2f m wide, below the %.2f m minimum", rm.Name, width, p.MinCorridorWidth),
				fmt.Sprintf("Widen %s to at least %.2f m", rm.Name, p.MinCorridorWidth))
		}
	}
	if bad == 0 {
		rep.pass("corridor-width", fmt.Sprintf("All circulation spaces at least %.2f m wide", p.MinCorridorWidth))
	} else {
		rep.fail("corridor-width", fmt.Sprintf("%d circulation space(s) too narrow", bad))
	}
}

// checkVentilation emits warnings only; poor ventilation never blocks a
// plan but always shows on the checklist.
func (v *Validator) checkVentilation(rep *reportBuilder, enriched []plan.EnrichedRoom, p Profile) {
	warned := 0
	for _, rm := range enriched {
		if !geometry.IsHabitable(rm.Classification) || rm.AreaSqm <= 0 {
			continue
		}
		if len(rm.Windows) == 0 {
			warned++
			rep.warn("ventilation", rm.ID, fmt.Sprintf("%s has no windows", rm.Name))
			continue
		}
		var windowArea float64
		for _, w := range rm.Windows {
			windowArea += w.Width * windowHeight
		}
		if ratio := windowArea / rm.AreaSqm; ratio < p.MinVentilationRatio {
			warned++
			rep.warn("ventilation", rm.ID,
				fmt.Sprintf("%s window area ratio %.2f below the recommended %.2f", rm.Name, ratio, p.MinVentilationRatio))
		}
	}
	if warned == 0 {
		rep.pass("ventilation", "All habitable rooms meet the ventilation ratio")
	}
}

// =============================================================================
// REPORT ASSEMBLY
// =============================================================================

type reportBuilder struct {
	violations []plan.Violation
	items      []plan.ComplianceItem
	seq        int
}

func (b *reportBuilder) violation(sev plan.Severity, rule, roomID, desc, suggestion string) {
	b.seq++
	b.violations = append(b.violations, plan.Violation{
		ID:          fmt.Sprintf("REG-%03d", b.seq),
		Severity:    sev,
		Rule:        rule,
		Description: desc,
		RoomID:      roomID,
		Suggestion:  suggestion,
	})
}

func (b *reportBuilder) pass(rule, desc string) {
	b.items = append(b.items, plan.ComplianceItem{Rule: rule, Status: plan.StatusPass, Description: desc})
}

func (b *reportBuilder) fail(rule, desc string) {
	b.items = append(b.items, plan.ComplianceItem{Rule: rule, Status: plan.StatusFail, Description: desc})
}

func (b *reportBuilder) warn(rule, roomID, desc string) {
	b.items = append(b.items, plan.ComplianceItem{Rule: rule, Status: plan.StatusWarn, Description: desc, RoomID: roomID})
}

func (b *reportBuilder) finish() plan.ValidationReport {
	score := 1.0
	for _, v := range b.violations {
		switch v.Severity {
		case plan.SeverityCritical:
			score -= PenaltyCritical
		case plan.SeverityMajor:
			score -= PenaltyMajor
		case plan.SeverityMinor:
			score -= PenaltyMinor
		}
	}
	return plan.ValidationReport{
		Violations: b.violations,
		Items:      b.items,
		Score:      math.Max(0, math.Round(score*1000)/1000),
	}
}
