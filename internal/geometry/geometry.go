// Package geometry holds the deterministic spatial math: centroids, the
// 3x3 directional grid, name-based room classification, and the enrichment
// pass that turns raw rooms into validator-ready EnrichedRooms.
//
// Everything in this package is a pure function of its inputs. No LLM
// output is trusted here; callers recompute every derived number through
// these helpers.
package geometry

import (
	"fmt"
	"math"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// sectorGrid is row-major with north at the top; row is derived from the
// y coordinate (grows south), column from x (grows east).
var sectorGrid = [3][3]plan.Sector{
	{plan.SectorNW, plan.SectorN, plan.SectorNE},
	{plan.SectorW, plan.SectorCenter, plan.SectorE},
	{plan.SectorSW, plan.SectorS, plan.SectorSE},
}

// Centroid returns the centre of a rectangle in plot coordinates.
func Centroid(r plan.Rect) (cx, cy float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// SectorAt locates a point on the 3x3 grid over a plot of the given
// dimensions. Thirds are half-open: a point exactly on a gridline belongs
// to the band that starts there. Degenerate plots collapse to CENTER.
func SectorAt(cx, cy, plotW, plotH float64) plan.Sector {
	if plotW <= 0 || plotH <= 0 {
		return plan.SectorCenter
	}
	return sectorGrid[gridIndex(cy, plotH)][gridIndex(cx, plotW)]
}

func gridIndex(v, extent float64) int {
	third := extent / 3
	switch {
	case v < third:
		return 0
	case v < 2*third:
		return 1
	default:
		return 2
	}
}

// Enrich derives centroid, area, sector and classification for every room
// of a graph. Input order is preserved; enriching twice is a no-op beyond
// recomputation (all derivations are pure).
func Enrich(g plan.FloorPlanGraph) []plan.EnrichedRoom {
	out := make([]plan.EnrichedRoom, 0, len(g.Rooms))
	for _, rm := range g.Rooms {
		cx, cy := Centroid(rm.Rect)
		out = append(out, plan.EnrichedRoom{
			Room:           rm,
			CentroidX:      cx,
			CentroidY:      cy,
			AreaSqm:        rm.Rect.Area(),
			Sector:         SectorAt(cx, cy, g.Plot.Width, g.Plot.Height),
			Classification: Classify(rm.Name),
		})
	}
	return out
}

// =============================================================================
// AREA ACCOUNTING
// =============================================================================

// BuiltUpArea sums the areas of rooms that count toward built-up
// (type room and service).
func BuiltUpArea(rooms []plan.Room) float64 {
	var sum float64
	for _, r := range rooms {
		if r.Type == plan.RoomTypeRoom || r.Type == plan.RoomTypeService {
			sum += r.Rect.Area()
		}
	}
	return sum
}

// AreaOfType sums the areas of rooms of one type.
func AreaOfType(rooms []plan.Room, t plan.RoomType) float64 {
	var sum float64
	for _, r := range rooms {
		if r.Type == t {
			sum += r.Rect.Area()
		}
	}
	return sum
}

// Normalize recomputes every derived total of a graph from its rooms,
// discarding whatever the producing agent claimed. Setback area is the
// plot remainder after built-up, circulation and outdoor space, floored
// at zero, which keeps the four sums and the plot area in agreement.
func Normalize(g plan.FloorPlanGraph) plan.FloorPlanGraph {
	g.TotalBuiltUp = round2(BuiltUpArea(g.Rooms))
	g.CirculationArea = round2(AreaOfType(g.Rooms, plan.RoomTypeCirculation))
	outdoor := AreaOfType(g.Rooms, plan.RoomTypeOutdoor)
	plotArea := g.Plot.Width * g.Plot.Height
	g.SetbackArea = round2(math.Max(0, plotArea-g.TotalBuiltUp-g.CirculationArea-outdoor))
	return g
}

// CoverageRatio returns built-up divided by plot area, 0 for degenerate
// plots.
func CoverageRatio(g plan.FloorPlanGraph) float64 {
	plotArea := g.Plot.Width * g.Plot.Height
	if plotArea <= 0 {
		return 0
	}
	return BuiltUpArea(g.Rooms) / plotArea
}

// Touching reports whether two rectangles share a wall segment: their
// edges meet within tol on one axis while their extents overlap by more
// than tol on the other. Overlapping rectangles are not "touching".
func Touching(a, b plan.Rect, tol float64) bool {
	if math.Abs((a.X+a.Width)-b.X) <= tol || math.Abs((b.X+b.Width)-a.X) <= tol {
		return overlap1D(a.Y, a.Height, b.Y, b.Height) > tol
	}
	if math.Abs((a.Y+a.Height)-b.Y) <= tol || math.Abs((b.Y+b.Height)-a.Y) <= tol {
		return overlap1D(a.X, a.Width, b.X, b.Width) > tol
	}
	return false
}

func overlap1D(a, aLen, b, bLen float64) float64 {
	lo := math.Max(a, b)
	hi := math.Min(a+aLen, b+bLen)
	return hi - lo
}

// FloorLabel names a storey the way drawings do.
func FloorLabel(level int) string {
	switch level {
	case 0:
		return "Ground Floor"
	case 1:
		return "First Floor"
	case 2:
		return "Second Floor"
	case 3:
		return "Third Floor"
	default:
		return fmt.Sprintf("Floor %d", level)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
