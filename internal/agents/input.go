package agents

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/gemini"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/geometry"
	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// ===== INPUT AGENT =====

// InputAgent expands the client brief into a concrete room program. The
// expansion itself is deterministic; the only model call parses soft
// adjacency preferences out of the free-form brief, and a failure there
// is recovered by keeping the deterministic defaults.
type InputAgent struct {
	deps Deps
}

func NewInputAgent(deps Deps) *InputAgent {
	return &InputAgent{deps: deps.normalized()}
}

func (a *InputAgent) Name() string { return string(gemini.RoleInput) }

// Execute expands the brief. The returned requirements are always
// usable: when the adjacency call fails the metadata reports the model
// as "deterministic" and the defaults stand.
func (a *InputAgent) Execute(ctx context.Context, cfg plan.ProjectConfig) (plan.Requirements, Metadata, error) {
	req := ExpandRequirements(cfg)

	raw, meta, err := a.deps.generate(ctx, gemini.RoleInput, inputSystemPrompt, adjacencyPrompt(cfg, req), adjacencySchema())
	if err != nil {
		a.deps.Logger.Warn("adjacency parsing failed, keeping deterministic preferences", zap.Error(err))
		meta.ModelUsed = "deterministic"
		return req, meta, nil
	}

	var parsed struct {
		Adjacency []plan.AdjacencyPreference `json:"adjacency"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		a.deps.Logger.Warn("adjacency payload unreadable, keeping deterministic preferences", zap.Error(err))
		meta.ModelUsed = "deterministic"
		return req, meta, nil
	}

	req.Adjacency = mergePreferences(req.Adjacency, parsed.Adjacency)
	return req, meta, nil
}

// ===== DETERMINISTIC EXPANSION =====

// programMinAreas are comfortable design targets per classification, in
// square metres. These are briefs for the generator, deliberately above
// the legal minima the validator enforces.
var programMinAreas = map[plan.Classification]float64{
	plan.ClassMasterBedroom:   14.0,
	plan.ClassBedroom:         12.0,
	plan.ClassChildrenBedroom: 10.0,
	plan.ClassGuestBedroom:    10.0,
	plan.ClassKitchen:         8.0,
	plan.ClassLivingRoom:      16.0,
	plan.ClassDiningRoom:      9.0,
	plan.ClassBathroom:        4.5,
	plan.ClassToilet:          2.0,
	plan.ClassPoojaRoom:       4.0,
	plan.ClassStudy:           7.5,
	plan.ClassStaircase:       4.5,
	plan.ClassBalcony:         4.0,
	plan.ClassStorage:         4.0,
	plan.ClassGarage:          13.75,
	plan.ClassEntrance:        3.0,
	plan.ClassCorridor:        0,
	plan.ClassUtility:         3.0,
	plan.ClassVeranda:         6.0,
	plan.ClassGarden:          0,
}

// parkingPrograms maps the parking config enum to a requirement.
var parkingPrograms = map[string]plan.RoomRequirement{
	"one_car": {Name: "Car parking", Classification: plan.ClassGarage, Quantity: 1, MinAreaSqm: 13.75},
	"two_car": {Name: "Two-car parking", Classification: plan.ClassGarage, Quantity: 1, MinAreaSqm: 27.5},
	"bike":    {Name: "Bike parking", Classification: plan.ClassGarage, Quantity: 1, MinAreaSqm: 3.0},
}

var leadingCount = regexp.MustCompile(`^\s*(\d+)\s*(?:x\s*)?(.+)$`)

// ExpandRequirements turns the free-form brief into a deterministic room
// program: leading counts are parsed ("3 bedrooms"), names are
// classified, minimum areas come from the program table. A master
// bedroom, a kitchen, a living room, an entrance and the configured
// bathrooms are guaranteed present, plus a staircase on multi-storey
// projects. The first plain bedroom the brief asks for becomes the
// master; the rest stay ordinary bedrooms.
func ExpandRequirements(cfg plan.ProjectConfig) plan.Requirements {
	var rooms []plan.RoomRequirement
	seen := make(map[plan.Classification]bool)

	add := func(r plan.RoomRequirement) {
		rooms = append(rooms, r)
		seen[r.Classification] = true
	}

	for _, line := range cfg.Requirements {
		name, qty := parseRequirementLine(line)
		if name == "" {
			continue
		}
		class := geometry.Classify(name)
		if class == plan.ClassBedroom && !seen[plan.ClassMasterBedroom] {
			add(plan.RoomRequirement{Name: "Master bedroom", Classification: plan.ClassMasterBedroom, Quantity: 1, MinAreaSqm: programMinAreas[plan.ClassMasterBedroom]})
			if qty--; qty < 1 {
				continue
			}
		}
		add(plan.RoomRequirement{
			Name:           name,
			Classification: class,
			Quantity:       qty,
			MinAreaSqm:     programMinAreas[class],
		})
	}

	// Core program every dwelling gets even when the brief omits it.
	if !seen[plan.ClassMasterBedroom] {
		add(plan.RoomRequirement{Name: "Master bedroom", Classification: plan.ClassMasterBedroom, Quantity: 1, MinAreaSqm: programMinAreas[plan.ClassMasterBedroom]})
	}
	if !seen[plan.ClassKitchen] {
		add(plan.RoomRequirement{Name: "Kitchen", Classification: plan.ClassKitchen, Quantity: 1, MinAreaSqm: programMinAreas[plan.ClassKitchen]})
	}
	if !seen[plan.ClassLivingRoom] {
		add(plan.RoomRequirement{Name: "Living room", Classification: plan.ClassLivingRoom, Quantity: 1, MinAreaSqm: programMinAreas[plan.ClassLivingRoom]})
	}
	if !seen[plan.ClassEntrance] {
		add(plan.RoomRequirement{Name: "Entrance", Classification: plan.ClassEntrance, Quantity: 1, MinAreaSqm: programMinAreas[plan.ClassEntrance]})
	}
	if !seen[plan.ClassBathroom] && !seen[plan.ClassToilet] {
		qty := cfg.Bathrooms
		if qty <= 0 {
			qty = 2
		}
		add(plan.RoomRequirement{Name: "Bathroom", Classification: plan.ClassBathroom, Quantity: qty, MinAreaSqm: programMinAreas[plan.ClassBathroom]})
	}
	if cfg.FloorCount() > 1 && !seen[plan.ClassStaircase] {
		add(plan.RoomRequirement{Name: "Staircase", Classification: plan.ClassStaircase, Quantity: 1, MinAreaSqm: programMinAreas[plan.ClassStaircase]})
	}
	if p, ok := parkingPrograms[cfg.Parking]; ok && !seen[plan.ClassGarage] {
		add(p)
	}

	var total float64
	for _, r := range rooms {
		total += float64(r.Quantity) * r.MinAreaSqm
	}

	return plan.Requirements{
		Rooms:       rooms,
		Adjacency:   defaultPreferences(seen),
		TotalMinSqm: round2(total),
	}
}

// parseRequirementLine splits an optional leading count from a program
// line. "3 bedrooms" yields ("bedroom", 3); a plural trailing s is
// dropped when a count was given.
func parseRequirementLine(line string) (string, int) {
	name := strings.TrimSpace(line)
	if name == "" {
		return "", 0
	}
	qty := 1
	if m := leadingCount.FindStringSubmatch(name); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			qty = n
			name = strings.TrimSpace(m[2])
		}
	}
	if qty > 1 && strings.HasSuffix(strings.ToLower(name), "s") {
		name = name[:len(name)-1]
	}
	return name, qty
}

// defaultPreferences derives baseline adjacency preferences from which
// classifications the program contains.
func defaultPreferences(seen map[plan.Classification]bool) []plan.AdjacencyPreference {
	var prefs []plan.AdjacencyPreference
	pair := func(a, b plan.Classification, nameA, nameB, relation string) {
		if seen[a] && seen[b] {
			prefs = append(prefs, plan.AdjacencyPreference{RoomA: nameA, RoomB: nameB, Relation: relation})
		}
	}
	pair(plan.ClassKitchen, plan.ClassDiningRoom, "Kitchen", "Dining room", "adjacent")
	pair(plan.ClassDiningRoom, plan.ClassLivingRoom, "Dining room", "Living room", "adjacent")
	pair(plan.ClassMasterBedroom, plan.ClassBathroom, "Master bedroom", "Bathroom", "adjacent")
	pair(plan.ClassKitchen, plan.ClassToilet, "Kitchen", "Toilet", "separated")
	pair(plan.ClassPoojaRoom, plan.ClassToilet, "Pooja room", "Toilet", "separated")
	pair(plan.ClassPoojaRoom, plan.ClassBathroom, "Pooja room", "Bathroom", "separated")
	return prefs
}

// validRelations is the accepted preference vocabulary.
var validRelations = map[string]bool{
	"adjacent":  true,
	"nearby":    true,
	"separated": true,
}

// mergePreferences overlays model-parsed preferences onto the defaults.
// A parsed pair replaces the default for the same pair; unknown relations
// are dropped. Order stays deterministic: defaults first, new pairs in
// parse order.
func mergePreferences(defaults, parsed []plan.AdjacencyPreference) []plan.AdjacencyPreference {
	merged := make([]plan.AdjacencyPreference, len(defaults))
	copy(merged, defaults)

	index := make(map[string]int, len(merged))
	for i, p := range merged {
		index[pairKey(p.RoomA, p.RoomB)] = i
	}

	for _, p := range parsed {
		if !validRelations[p.Relation] {
			continue
		}
		if p.RoomA == "" || p.RoomB == "" {
			continue
		}
		key := pairKey(p.RoomA, p.RoomB)
		if i, ok := index[key]; ok {
			merged[i].Relation = p.Relation
			continue
		}
		index[key] = len(merged)
		merged = append(merged, p)
	}
	return merged
}

// pairKey normalizes an unordered room pair through classification so
// "Kitchen"/"the kitchen" collide.
func pairKey(a, b string) string {
	ka := string(geometry.Classify(a))
	kb := string(geometry.Classify(b))
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "|" + kb
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
