package orchestrator

import (
	"math"
	"sort"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/geometry"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// assemble builds the deliverable from the final iteration plus the
// cost and furniture post-passes. A non-nil costNote records a failed
// estimate as a WARN on the compliance checklist. The per-floor
// partition is only emitted for multi-storey plans.
func assemble(cfg plan.ProjectConfig, rec plan.IterationRecord, bom []plan.BOMItem, totalCost plan.CostRange, costNote *plan.ComplianceItem, furniture []plan.RoomFurniture, iterations int, converged bool) *plan.GeneratedPlan {
	g := rec.Plan
	var totalArea float64
	for _, r := range rec.Enriched {
		totalArea += r.AreaSqm
	}
	regulatory := rec.RegulatoryItems
	if costNote != nil {
		regulatory = append(append([]plan.ComplianceItem{}, regulatory...), *costNote)
	}
	var floors []plan.FloorPlan
	if multiStorey(rec.Enriched, cfg.FloorCount()) {
		floors = partitionFloors(rec.Enriched, cfg.FloorCount())
	}
	return &plan.GeneratedPlan{
		DesignLog:         g.DesignLog,
		Rooms:             rec.Enriched,
		TotalArea:         round2(totalArea),
		BuiltUpArea:       g.TotalBuiltUp,
		PlotCoverageRatio: round4(geometry.CoverageRatio(g)),
		Compliance: plan.ComplianceReport{
			Regulatory: regulatory,
			Cultural:   rec.VastuItems,
		},
		BOM:            bom,
		TotalCostRange: totalCost,
		Furniture:      furniture,
		Floors:         floors,
		Score:          rec.Score,
		Iterations:     iterations,
		Converged:      converged,
	}
}

// multiStorey reports whether the plan spans more than one level, either
// by configuration or because a room was drawn above ground.
func multiStorey(rooms []plan.EnrichedRoom, count int) bool {
	if count > 1 {
		return true
	}
	for _, r := range rooms {
		if r.Floor > 0 {
			return true
		}
	}
	return false
}

// partitionFloors groups rooms by storey. Every configured storey gets
// an entry even when empty; a stray level the agent invented beyond the
// configured count keeps its own entry rather than being folded into
// another floor.
func partitionFloors(rooms []plan.EnrichedRoom, count int) []plan.FloorPlan {
	if count < 1 {
		count = 1
	}
	byLevel := make(map[int][]plan.EnrichedRoom)
	for _, r := range rooms {
		lvl := r.Floor
		if lvl < 0 {
			lvl = 0
		}
		byLevel[lvl] = append(byLevel[lvl], r)
	}
	strays := make([]int, 0)
	for lvl := range byLevel {
		if lvl >= count {
			strays = append(strays, lvl)
		}
	}
	sort.Ints(strays)
	out := make([]plan.FloorPlan, 0, count+len(strays))
	for lvl := 0; lvl < count; lvl++ {
		out = append(out, floorPlanFor(lvl, byLevel[lvl]))
	}
	for _, lvl := range strays {
		out = append(out, floorPlanFor(lvl, byLevel[lvl]))
	}
	return out
}

func floorPlanFor(level int, rooms []plan.EnrichedRoom) plan.FloorPlan {
	var area float64
	for _, r := range rooms {
		area += r.AreaSqm
	}
	return plan.FloorPlan{
		Level:   level,
		Label:   geometry.FloorLabel(level),
		Rooms:   rooms,
		AreaSqm: round2(area),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
