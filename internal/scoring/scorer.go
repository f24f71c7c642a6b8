// Package scoring folds the validator, spatial and critic signals into
// the single score that drives the refinement loop.
package scoring

import (
	"math"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/geometry"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// Component weights and the convergence bar. The weights sum to 1.
const (
	WeightRegulatory = 0.40
	WeightVastu      = 0.30
	WeightSpatial    = 0.20
	WeightCritic     = 0.10

	// ConvergenceThreshold is the final score at or above which the
	// orchestrator stops iterating.
	ConvergenceThreshold = 0.70

	// NeutralCriticScore stands in when no critique is available.
	NeutralCriticScore = 0.5
)

// Compose clamps each component to [0,1] and returns the weighted plan
// score. Passing is inclusive: exactly at the threshold converges.
func Compose(regulatory, vastu, spatial, critic float64) plan.Score {
	regulatory = clamp01(regulatory)
	vastu = clamp01(vastu)
	spatial = clamp01(spatial)
	critic = clamp01(critic)

	final := WeightRegulatory*regulatory +
		WeightVastu*vastu +
		WeightSpatial*spatial +
		WeightCritic*critic
	final = math.Round(final*10000) / 10000

	return plan.Score{
		Final:           final,
		Regulatory:      regulatory,
		Vastu:           vastu,
		Spatial:         spatial,
		Critic:          critic,
		PassesThreshold: final >= ConvergenceThreshold,
	}
}

// adjacencyTolerance treats rooms whose walls meet within 10 cm as
// touching, matching the drawing precision of the spatial agent.
// nearbyTolerance is the wall gap within which a "nearby" preference
// still holds.
const (
	adjacencyTolerance = 0.1
	nearbyTolerance    = 3.0
)

// SpatialScore measures layout quality without an LLM: how much of the
// plan stays inside the plot, how many adjacency preferences hold, and
// how completely the room program is realized. Equal thirds, each in
// [0,1], fully deterministic.
func SpatialScore(g plan.FloorPlanGraph, enriched []plan.EnrichedRoom, req plan.Requirements) float64 {
	containment := containmentScore(g)
	adjacency := adjacencyScore(g, enriched, req.Adjacency)
	program := programFitScore(enriched, req.Rooms)
	return math.Round((containment+adjacency+program)/3*10000) / 10000
}

// containmentScore is the fraction of enclosed rooms that lie fully
// inside the plot envelope. An empty plan scores zero.
func containmentScore(g plan.FloorPlanGraph) float64 {
	if len(g.Rooms) == 0 {
		return 0
	}
	inside := 0
	for _, rm := range g.Rooms {
		r := rm.Rect
		if r.X >= -adjacencyTolerance && r.Y >= -adjacencyTolerance &&
			r.X+r.Width <= g.Plot.Width+adjacencyTolerance &&
			r.Y+r.Height <= g.Plot.Height+adjacencyTolerance {
			inside++
		}
	}
	return float64(inside) / float64(len(g.Rooms))
}

// adjacencyScore is the satisfied fraction of the parsed adjacency
// preferences. No preferences means nothing to fail.
func adjacencyScore(g plan.FloorPlanGraph, enriched []plan.EnrichedRoom, prefs []plan.AdjacencyPreference) float64 {
	if len(prefs) == 0 {
		return 1.0
	}
	satisfied := 0
	for _, pref := range prefs {
		a := roomsMatching(enriched, pref.RoomA)
		b := roomsMatching(enriched, pref.RoomB)
		if len(a) == 0 || len(b) == 0 {
			// Preference mentions a room the plan doesn't have; counts
			// against the plan only through programFit, not here.
			satisfied++
			continue
		}
		switch pref.Relation {
		case "separated":
			if !anyTouching(a, b, adjacencyTolerance) {
				satisfied++
			}
		case "nearby":
			if anyNear(a, b, nearbyTolerance) {
				satisfied++
			}
		default: // adjacent
			if anyTouching(a, b, adjacencyTolerance) {
				satisfied++
			}
		}
	}
	return float64(satisfied) / float64(len(prefs))
}

// programFitScore is the fraction of requested room quantities the plan
// actually provides, capped per requirement.
func programFitScore(enriched []plan.EnrichedRoom, reqs []plan.RoomRequirement) float64 {
	var wanted, got float64
	counts := map[plan.Classification]int{}
	for _, rm := range enriched {
		counts[rm.Classification]++
	}
	for _, r := range reqs {
		qty := r.Quantity
		if qty < 1 {
			qty = 1
		}
		wanted += float64(qty)
		have := counts[r.Classification]
		if have > qty {
			have = qty
		}
		got += float64(have)
	}
	if wanted == 0 {
		return 1.0
	}
	return got / wanted
}

func roomsMatching(enriched []plan.EnrichedRoom, nameOrClass string) []plan.EnrichedRoom {
	class := geometry.Classify(nameOrClass)
	var out []plan.EnrichedRoom
	for _, rm := range enriched {
		if rm.Classification == class {
			out = append(out, rm)
		}
	}
	return out
}

func anyTouching(a, b []plan.EnrichedRoom, tol float64) bool {
	for _, ra := range a {
		for _, rb := range b {
			if ra.ID == rb.ID {
				continue
			}
			if geometry.Touching(ra.Rect, rb.Rect, tol) {
				return true
			}
		}
	}
	return false
}

// anyNear reports whether any pair of rooms sits within tol metres of
// each other on both axes. Touching rooms are trivially near.
func anyNear(a, b []plan.EnrichedRoom, tol float64) bool {
	for _, ra := range a {
		for _, rb := range b {
			if ra.ID == rb.ID {
				continue
			}
			if axisGap(ra.Rect.X, ra.Rect.Width, rb.Rect.X, rb.Rect.Width) <= tol &&
				axisGap(ra.Rect.Y, ra.Rect.Height, rb.Rect.Y, rb.Rect.Height) <= tol {
				return true
			}
		}
	}
	return false
}

// axisGap is the empty distance between two intervals, zero when they
// overlap.
func axisGap(a, aLen, b, bLen float64) float64 {
	if g := b - (a + aLen); g > 0 {
		return g
	}
	if g := a - (b + bLen); g > 0 {
		return g
	}
	return 0
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
