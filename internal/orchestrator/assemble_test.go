package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/plan"
)

func enrichedOn(floor int, name string, area float64) plan.EnrichedRoom {
	return plan.EnrichedRoom{
		Room:    plan.Room{ID: name, Name: name, Floor: floor},
		AreaSqm: area,
	}
}

func TestPartitionFloors(t *testing.T) {
	rooms := []plan.EnrichedRoom{
		enrichedOn(0, "Living Room", 25),
		enrichedOn(1, "Master Bedroom", 16),
		enrichedOn(0, "Kitchen", 9),
	}

	floors := partitionFloors(rooms, 2)
	require.Len(t, floors, 2)

	assert.Equal(t, 0, floors[0].Level)
	assert.Equal(t, "Ground Floor", floors[0].Label)
	assert.Len(t, floors[0].Rooms, 2)
	assert.InDelta(t, 34, floors[0].AreaSqm, 1e-9)

	assert.Equal(t, "First Floor", floors[1].Label)
	assert.Len(t, floors[1].Rooms, 1)
}

func TestPartitionFloors_EmptyStoreyKept(t *testing.T) {
	rooms := []plan.EnrichedRoom{enrichedOn(0, "Studio", 30)}

	floors := partitionFloors(rooms, 3)
	require.Len(t, floors, 3)
	assert.Empty(t, floors[1].Rooms)
	assert.Empty(t, floors[2].Rooms)
	assert.Zero(t, floors[2].AreaSqm)
}

func TestMultiStorey(t *testing.T) {
	ground := []plan.EnrichedRoom{enrichedOn(0, "Living Room", 25)}
	upstairs := []plan.EnrichedRoom{
		enrichedOn(0, "Living Room", 25),
		enrichedOn(1, "Master Bedroom", 16),
	}

	assert.False(t, multiStorey(ground, 1))
	assert.True(t, multiStorey(ground, 2), "configured storeys force the partition")
	assert.True(t, multiStorey(upstairs, 1), "a drawn upper-level room forces the partition")
}

func TestPartitionFloors_StrayLevel(t *testing.T) {
	// The agent drew a room on a storey beyond the configured count; it
	// keeps its own entry instead of being folded into another floor.
	rooms := []plan.EnrichedRoom{
		enrichedOn(0, "Living Room", 25),
		enrichedOn(5, "Terrace Room", 12),
		enrichedOn(-2, "Cellar", 8), // negative levels clamp to ground
	}

	floors := partitionFloors(rooms, 1)
	require.Len(t, floors, 2)
	assert.Len(t, floors[0].Rooms, 2)
	assert.Equal(t, 5, floors[1].Level)
	assert.Equal(t, "Floor 5", floors[1].Label)
}
