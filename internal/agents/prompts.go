package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/regulation"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/vastu"
)

// ===== PROMPTS =====
//
// Prompt builders for each agent. Coordinate conventions repeated in
// every generation prompt: the origin is the plot's north-west corner,
// x grows east, y grows south, all dimensions in metres. The front
// boundary (road side) is the north edge at y=0.

const coordinateContract = `Coordinate system: origin at the plot's north-west corner, x grows east, y grows south, all dimensions in metres. The front boundary (road side) is the north edge at y = 0. Room rectangles must not overlap each other and must stay inside the plot.`

const inputSystemPrompt = `You are an architectural programmer. You translate a client brief into room adjacency preferences. Respond with JSON only.`

const spatialSystemPrompt = `You are an expert residential architect. You design single-family floor plans as precise room rectangles. You respect municipal setbacks, keep circulation workable and follow the client's cultural preferences. Respond with JSON only.`

const criticSystemPrompt = `You are a senior design reviewer. You assess residential floor plans for functionality, aesthetics, cultural alignment, efficiency and natural lighting. You are strict but constructive. Respond with JSON only.`

const refineSystemPrompt = `You are an expert residential architect revising your own design. You fix reported violations with minimal disruption to what already works. Respond with JSON only.`

const costSystemPrompt = `You are a construction cost estimator for Indian residential projects. You produce a bill of materials with realistic market-rate ranges in INR. Respond with JSON only.`

const furnitureSystemPrompt = `You are an interior planner. You place standard furniture in rooms using room-local coordinates with the origin at each room's north-west corner. Respond with JSON only.`

func adjacencyPrompt(cfg plan.ProjectConfig, req plan.Requirements) string {
	var b strings.Builder
	b.WriteString("Given this residential program, list adjacency preferences between rooms.\n\n")
	b.WriteString("Rooms:\n")
	for _, r := range req.Rooms {
		fmt.Fprintf(&b, "- %s (x%d)\n", r.Name, r.Quantity)
	}
	if len(cfg.Requirements) > 0 {
		b.WriteString("\nClient brief lines:\n")
		for _, line := range cfg.Requirements {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	b.WriteString("\nUse relation \"adjacent\" for rooms that should share a wall, \"nearby\" for rooms that should sit within a few metres, and \"separated\" for rooms that must not touch. Only include pairs the brief or common practice justifies.")
	return b.String()
}

func spatialPrompt(in SpatialInput) string {
	var b strings.Builder
	cfg := in.Config

	fmt.Fprintf(&b, "Design a floor plan for a %.1fm x %.1fm plot (%.1f sqm), %d floor(s).\n\n",
		cfg.PlotWidth, cfg.PlotLength, cfg.PlotArea(), cfg.FloorCount())
	b.WriteString(coordinateContract)
	b.WriteString("\n\n")

	writeRegulationBrief(&b, in.Profile, cfg)
	writeProgramBrief(&b, in.Requirements)
	writeVastuBrief(&b, cfg)

	if cfg.Style != "" {
		fmt.Fprintf(&b, "Style preference: %s.\n\n", cfg.Style)
	}
	if cfg.Budget.Max > 0 {
		fmt.Fprintf(&b, "Construction budget: %.0f-%.0f %s. Keep the built-up area affordable within it.\n\n",
			cfg.Budget.Min, cfg.Budget.Max, currencyOf(cfg.Budget))
	}

	b.WriteString("Include corridors or halls so every room is reachable. Report adjacencies for rooms that share a wall. Record your reasoning step by step in designLog.")
	return b.String()
}

func criticPrompt(in CriticInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review iteration %d of this floor plan.\n\nPlan:\n%s\n\n", in.Iteration, compactJSON(in.Graph))

	writeViolationBrief(&b, "Regulatory findings", in.Regulatory.Violations)
	writeViolationBrief(&b, "Vastu findings", in.Vastu.Violations)

	b.WriteString("Score each dimension from 0.0 (unacceptable) to 1.0 (excellent). List at most five strengths, five weaknesses and five concrete suggestions, ordered by impact.")
	return b.String()
}

func refinePrompt(in RefineInput) string {
	var b strings.Builder
	cfg := in.Config

	fmt.Fprintf(&b, "Revise this floor plan (iteration %d) for the %.1fm x %.1fm plot.\n\n", in.Iteration, cfg.PlotWidth, cfg.PlotLength)
	b.WriteString(coordinateContract)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Current plan:\n%s\n\n", compactJSON(in.Graph))

	writeViolationBrief(&b, "Violations to fix (critical first)", in.Violations)

	if len(in.Critique.Suggestions) > 0 {
		b.WriteString("Reviewer suggestions:\n")
		for _, s := range in.Critique.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	writeRegulationBrief(&b, in.Profile, cfg)
	writeProgramBrief(&b, in.Requirements)
	writeVastuBrief(&b, cfg)

	b.WriteString("Fix every critical violation. Keep rooms that have no violations where they are when possible. Return the complete revised plan, not a diff, and list each change you made as one entry in changesApplied.")
	return b.String()
}

func costPrompt(in CostInput) string {
	var b strings.Builder
	cfg := in.Config

	builtUp := in.Graph.TotalBuiltUp
	fmt.Fprintf(&b, "Estimate construction cost for a %d-floor house, built-up area %.1f sqm on a %.1f sqm plot",
		cfg.FloorCount(), builtUp, cfg.PlotArea())
	if cfg.Location.City != "" {
		fmt.Fprintf(&b, " in %s", cfg.Location.City)
	}
	b.WriteString(".\n\nRooms:\n")
	for _, r := range in.Graph.Rooms {
		fmt.Fprintf(&b, "- %s: %.1f sqm (floor %d)\n", r.Name, r.Rect.Area(), r.Floor)
	}
	if cfg.Budget.Max > 0 {
		fmt.Fprintf(&b, "\nClient budget: %.0f-%.0f %s.\n", cfg.Budget.Min, cfg.Budget.Max, currencyOf(cfg.Budget))
	}
	b.WriteString("\nProduce a bill of materials (structure, masonry, flooring, roofing, electrical, plumbing, finishes, labour) with quantity, unit and INR cost ranges, plus the total construction cost range.")
	return b.String()
}

func furniturePrompt(in FurnitureInput) string {
	var b strings.Builder
	b.WriteString("Place furniture in each room below. Use room-local coordinates: origin at the room's north-west corner, x east, y south, metres. Furniture must fit inside its room without overlapping other pieces, leaving at least 0.6m circulation.\n\nRooms:\n")
	for _, r := range in.Graph.Rooms {
		if r.Type != plan.RoomTypeRoom && r.Type != plan.RoomTypeService {
			continue
		}
		fmt.Fprintf(&b, "- %s (id %s): %.1fm x %.1fm\n", r.Name, r.ID, r.Rect.Width, r.Rect.Height)
	}
	b.WriteString("\nUse standard Indian furniture sizes. Skip rooms that need no furniture.")
	return b.String()
}

// ===== PROMPT SECTIONS =====

func writeRegulationBrief(b *strings.Builder, p regulation.Profile, cfg plan.ProjectConfig) {
	fmt.Fprintf(b, "Building rules (%s):\n", p.Name)
	fmt.Fprintf(b, "- Setbacks: front (north) %.1fm, rear %.1fm, left %.1fm, right %.1fm. No room may enter these strips.\n",
		p.Setbacks.Front, p.Setbacks.Rear, p.Setbacks.Left, p.Setbacks.Right)
	fmt.Fprintf(b, "- Maximum ground coverage: %.0f%% of the plot.\n", p.MaxGroundCoverage*100)
	fmt.Fprintf(b, "- Maximum FAR: %.2f (built-up x %d floors / %.1f sqm plot).\n", p.MaxFAR, cfg.FloorCount(), cfg.PlotArea())
	fmt.Fprintf(b, "- Minimum corridor width: %.1fm.\n", p.MinCorridorWidth)
	fmt.Fprintf(b, "- Every habitable room needs windows: total window width x 1.2m / room area >= %.2f.\n\n", p.MinVentilationRatio)
}

func writeProgramBrief(b *strings.Builder, req plan.Requirements) {
	if len(req.Rooms) == 0 {
		return
	}
	b.WriteString("Required rooms:\n")
	for _, r := range req.Rooms {
		fmt.Fprintf(b, "- %dx %s, at least %.1f sqm each\n", r.Quantity, r.Name, r.MinAreaSqm)
	}
	for _, a := range req.Adjacency {
		fmt.Fprintf(b, "- %s and %s should be %s\n", a.RoomA, a.RoomB, a.Relation)
	}
	b.WriteString("\n")
}

func writeVastuBrief(b *strings.Builder, cfg plan.ProjectConfig) {
	strictness := cfg.Strictness()
	if strictness == plan.StrictnessNone {
		return
	}
	fmt.Fprintf(b, "Vastu shastra placement (%s adherence):\n", strictness)
	for _, line := range vastu.Guidance() {
		fmt.Fprintf(b, "- %s\n", line)
	}
	b.WriteString("\n")
}

func writeViolationBrief(b *strings.Builder, title string, violations []plan.Violation) {
	if len(violations) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, v := range violations {
		fmt.Fprintf(b, "- [%s] %s", strings.ToUpper(string(v.Severity)), v.Description)
		if v.Suggestion != "" {
			fmt.Fprintf(b, " (fix: %s)", v.Suggestion)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func currencyOf(c plan.CostRange) string {
	if c.Currency != "" {
		return c.Currency
	}
	return "INR"
}
