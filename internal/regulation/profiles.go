// Package regulation validates floor plans against municipal building
// bye-laws: setbacks, floor-area ratio, ground coverage, minimum room
// sizes, corridor widths and ventilation. Profiles for the known
// authorities ship as a static table; a YAML override file can adjust
// them at runtime.
package regulation

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

// Setbacks are the mandated clearances from the plot boundary, metres.
// Front is the road-facing (north) edge in plot coordinates.
type Setbacks struct {
	Front float64 `json:"front" yaml:"front"`
	Left  float64 `json:"left" yaml:"left"`
	Right float64 `json:"right" yaml:"right"`
	Rear  float64 `json:"rear" yaml:"rear"`
}

// Profile is one authority's rulebook.
type Profile struct {
	Authority           string                          `json:"authority" yaml:"authority"`
	Name                string                          `json:"name" yaml:"name"`
	MaxFAR              float64                         `json:"maxFar" yaml:"max_far"`
	MaxGroundCoverage   float64                         `json:"maxGroundCoverage" yaml:"max_ground_coverage"`
	MinCorridorWidth    float64                         `json:"minCorridorWidth" yaml:"min_corridor_width"`
	MinVentilationRatio float64                         `json:"minVentilationRatio" yaml:"min_ventilation_ratio"`
	Setbacks            Setbacks                        `json:"setbacks" yaml:"setbacks"`
	MinRoomSizes        map[plan.Classification]float64 `json:"minRoomSizes" yaml:"min_room_sizes"`
}

// NationalAuthority is the fallback profile tag for unknown authorities.
const NationalAuthority = "national"

func nationalRoomMinima() map[plan.Classification]float64 {
	// NBC-order minimum carpet areas, square metres.
	return map[plan.Classification]float64{
		plan.ClassMasterBedroom:   10.5,
		plan.ClassBedroom:         9.5,
		plan.ClassChildrenBedroom: 7.5,
		plan.ClassGuestBedroom:    7.5,
		plan.ClassKitchen:         5.0,
		plan.ClassLivingRoom:      9.5,
		plan.ClassDiningRoom:      7.5,
		plan.ClassBathroom:        1.8,
		plan.ClassToilet:          1.1,
		plan.ClassStudy:           5.5,
	}
}

// builtinProfiles is the closed authority set. Values follow the
// published bye-law orders of magnitude for each city; the override file
// can tune them without a rebuild.
func builtinProfiles() map[string]Profile {
	profiles := map[string]Profile{
		NationalAuthority: {
			Authority:           NationalAuthority,
			Name:                "National Building Code defaults",
			MaxFAR:              2.0,
			MaxGroundCoverage:   0.65,
			MinCorridorWidth:    1.0,
			MinVentilationRatio: 0.10,
			Setbacks:            Setbacks{Front: 3.0, Left: 1.5, Right: 1.5, Rear: 2.0},
		},
		"bbmp": {
			Authority:           "bbmp",
			Name:                "Bruhat Bengaluru Mahanagara Palike",
			MaxFAR:              1.75,
			MaxGroundCoverage:   0.65,
			MinCorridorWidth:    0.9,
			MinVentilationRatio: 0.10,
			Setbacks:            Setbacks{Front: 3.0, Left: 1.2, Right: 1.2, Rear: 2.4},
		},
		"mcgm": {
			Authority:           "mcgm",
			Name:                "Municipal Corporation of Greater Mumbai",
			MaxFAR:              1.33,
			MaxGroundCoverage:   0.60,
			MinCorridorWidth:    1.2,
			MinVentilationRatio: 0.125,
			Setbacks:            Setbacks{Front: 3.0, Left: 1.5, Right: 1.5, Rear: 3.0},
		},
		"dda": {
			Authority:           "dda",
			Name:                "Delhi Development Authority",
			MaxFAR:              1.8,
			MaxGroundCoverage:   0.66,
			MinCorridorWidth:    1.0,
			MinVentilationRatio: 0.10,
			Setbacks:            Setbacks{Front: 3.0, Left: 1.0, Right: 1.0, Rear: 3.0},
		},
		"cmda": {
			Authority:           "cmda",
			Name:                "Chennai Metropolitan Development Authority",
			MaxFAR:              1.5,
			MaxGroundCoverage:   0.65,
			MinCorridorWidth:    1.0,
			MinVentilationRatio: 0.10,
			Setbacks:            Setbacks{Front: 3.0, Left: 1.0, Right: 1.0, Rear: 1.5},
		},
		"ghmc": {
			Authority:           "ghmc",
			Name:                "Greater Hyderabad Municipal Corporation",
			MaxFAR:              1.75,
			MaxGroundCoverage:   0.60,
			MinCorridorWidth:    1.0,
			MinVentilationRatio: 0.10,
			Setbacks:            Setbacks{Front: 3.0, Left: 1.0, Right: 1.0, Rear: 2.0},
		},
		"pmc": {
			Authority:           "pmc",
			Name:                "Pune Municipal Corporation",
			MaxFAR:              1.5,
			MaxGroundCoverage:   0.60,
			MinCorridorWidth:    1.0,
			MinVentilationRatio: 0.10,
			Setbacks:            Setbacks{Front: 3.0, Left: 1.2, Right: 1.2, Rear: 2.0},
		},
	}
	for tag, p := range profiles {
		p.MinRoomSizes = nationalRoomMinima()
		profiles[tag] = p
	}
	// Mumbai plots run compact; the bye-laws allow smaller habitable rooms.
	mcgm := profiles["mcgm"]
	mcgm.MinRoomSizes[plan.ClassBedroom] = 9.0
	mcgm.MinRoomSizes[plan.ClassKitchen] = 4.5
	profiles["mcgm"] = mcgm
	return profiles
}

// Registry resolves authority tags to profiles, applying any loaded
// overrides on top of the builtin table. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewRegistry returns a registry holding the builtin profile table.
func NewRegistry() *Registry {
	return &Registry{profiles: builtinProfiles()}
}

// ProfileFor resolves an authority tag, case-insensitively. Unknown or
// empty tags fall back to the national profile.
func (r *Registry) ProfileFor(authority string) Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.profiles[strings.ToLower(strings.TrimSpace(authority))]; ok {
		return p
	}
	return r.profiles[NationalAuthority]
}

// Known reports whether a tag resolves without falling back.
func (r *Registry) Known(authority string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.profiles[strings.ToLower(strings.TrimSpace(authority))]
	return ok
}

// Authorities lists the known tags, sorted.
func (r *Registry) Authorities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.profiles))
	for tag := range r.profiles {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// overrideFile mirrors the YAML override document: a partial profile per
// authority tag. Zero-valued fields leave the builtin value untouched.
type overrideFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// LoadOverrides merges a YAML override file over the builtin table. The
// whole file is rejected on parse errors; a previous good state stays in
// effect.
func (r *Registry) LoadOverrides(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile overrides: %w", err)
	}
	var doc overrideFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse profile overrides: %w", err)
	}

	merged := builtinProfiles()
	for tag, ov := range doc.Profiles {
		tag = strings.ToLower(strings.TrimSpace(tag))
		base, ok := merged[tag]
		if !ok {
			// New authority: require a complete profile to be usable.
			base = merged[NationalAuthority]
			base.Authority = tag
		}
		merged[tag] = mergeProfile(base, ov)
	}

	r.mu.Lock()
	r.profiles = merged
	r.mu.Unlock()
	return nil
}

func mergeProfile(base, ov Profile) Profile {
	if ov.Name != "" {
		base.Name = ov.Name
	}
	if ov.MaxFAR > 0 {
		base.MaxFAR = ov.MaxFAR
	}
	if ov.MaxGroundCoverage > 0 {
		base.MaxGroundCoverage = ov.MaxGroundCoverage
	}
	if ov.MinCorridorWidth > 0 {
		base.MinCorridorWidth = ov.MinCorridorWidth
	}
	if ov.MinVentilationRatio > 0 {
		base.MinVentilationRatio = ov.MinVentilationRatio
	}
	if ov.Setbacks != (Setbacks{}) {
		base.Setbacks = ov.Setbacks
	}
	for class, min := range ov.MinRoomSizes {
		if base.MinRoomSizes == nil {
			base.MinRoomSizes = map[plan.Classification]float64{}
		}
		base.MinRoomSizes[class] = min
	}
	return base
}
