package agents

// ===== RESPONSE SCHEMAS =====
//
// JSON Schemas attached to generation requests so the API constrains the
// response shape. Field names mirror the plan package's json tags
// exactly; a schema drift here surfaces as decode errors, not silent
// zero values.

func str() map[string]any     { return map[string]any{"type": "string"} }
func num() map[string]any     { return map[string]any{"type": "number"} }
func integer() map[string]any { return map[string]any{"type": "integer"} }

func strEnum(values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

func arr(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func obj(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func rectSchema() map[string]any {
	return obj(map[string]any{
		"x":      num(),
		"y":      num(),
		"width":  num(),
		"height": num(),
	}, "x", "y", "width", "height")
}

func wallFeatureSchema() map[string]any {
	return obj(map[string]any{
		"wall":   strEnum("N", "S", "E", "W"),
		"offset": num(),
		"width":  num(),
	}, "wall", "offset", "width")
}

func roomSchema() map[string]any {
	return obj(map[string]any{
		"id":      str(),
		"name":    str(),
		"floor":   integer(),
		"rect":    rectSchema(),
		"type":    strEnum("room", "service", "circulation", "outdoor"),
		"windows": arr(wallFeatureSchema()),
		"doors":   arr(wallFeatureSchema()),
	}, "name", "rect", "type")
}

func floorPlanSchema() map[string]any {
	return obj(map[string]any{
		"rooms": arr(roomSchema()),
		"adjacencies": arr(obj(map[string]any{
			"a": str(),
			"b": str(),
		}, "a", "b")),
		"plot": obj(map[string]any{
			"width":  num(),
			"height": num(),
		}, "width", "height"),
		"setbackArea":      num(),
		"totalBuiltUpArea": num(),
		"circulationArea":  num(),
		"designLog":        arr(str()),
	}, "rooms", "plot")
}

func refineSchema() map[string]any {
	s := floorPlanSchema()
	props := s["properties"].(map[string]any)
	props["changesApplied"] = arr(str())
	s["required"] = []string{"rooms", "plot", "changesApplied"}
	return s
}

func adjacencySchema() map[string]any {
	return obj(map[string]any{
		"adjacency": arr(obj(map[string]any{
			"roomA":    str(),
			"roomB":    str(),
			"relation": strEnum("adjacent", "nearby", "separated"),
		}, "roomA", "roomB", "relation")),
	}, "adjacency")
}

func critiqueSchema() map[string]any {
	return obj(map[string]any{
		"overallScore":       num(),
		"functionalityScore": num(),
		"aestheticsScore":    num(),
		"vastuScore":         num(),
		"efficiencyScore":    num(),
		"lightingScore":      num(),
		"strengths":          arr(str()),
		"weaknesses":         arr(str()),
		"suggestions":        arr(str()),
	}, "overallScore", "functionalityScore", "aestheticsScore", "vastuScore", "efficiencyScore", "lightingScore")
}

func costRangeSchema() map[string]any {
	return obj(map[string]any{
		"min":      num(),
		"max":      num(),
		"currency": str(),
	}, "min", "max")
}

func costSchema() map[string]any {
	return obj(map[string]any{
		"bom": arr(obj(map[string]any{
			"material":       str(),
			"quantity":       num(),
			"unit":           str(),
			"unitCostRange":  costRangeSchema(),
			"totalCostRange": costRangeSchema(),
		}, "material", "quantity", "unit", "totalCostRange")),
		"totalCostRange": costRangeSchema(),
	}, "bom", "totalCostRange")
}

func furnitureSchema() map[string]any {
	return obj(map[string]any{
		"rooms": arr(obj(map[string]any{
			"roomId": str(),
			"items": arr(obj(map[string]any{
				"name":     str(),
				"width":    num(),
				"depth":    num(),
				"x":        num(),
				"y":        num(),
				"rotation": num(),
			}, "name", "width", "depth", "x", "y")),
		}, "roomId", "items")),
	}, "rooms")
}
