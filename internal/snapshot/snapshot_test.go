package snapshot

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelagent.ai/internal/agentstate"
	"voxelagent.ai/internal/perception"
	"voxelagent.ai/internal/world"
	"voxelagent.ai/internal/world/memworld"
)

type staticBlocks []perception.BlockSample

func (s staticBlocks) NearbyBlocks() []perception.BlockSample {
	return append([]perception.BlockSample(nil), s...)
}

type staticMemory struct{ m Memory }

func (s staticMemory) MemoryFragment() *Memory {
	m := s.m
	return &m
}

func fixture() *memworld.World {
	w := memworld.New(memworld.Config{AgentName: "Ada", Spawn: world.Vec3{X: 0.5, Y: 64, Z: 0.5}, Biome: "forest"})
	w.SetVitals(world.Vitals{Health: 17, MaxHealth: 20, Food: 12, Biome: "forest"})
	w.SetSlot(0, "minecraft:wooden_pickaxe", 1)
	w.SetSlot(9, "minecraft:oak_log", 12)
	w.SetSlot(37, "minecraft:iron_chestplate", 1)
	w.SetSlot(40, "minecraft:shield", 1)
	w.AddEntity(world.Entity{ID: "c1", Name: "cow", Type: "minecraft:cow", Pos: world.Vec3{X: 2, Y: 64}, Living: true})
	w.AddEntity(world.Entity{ID: "p1", Name: "Bob", Type: "minecraft:player", Pos: world.Vec3{X: 30, Y: 64}, Player: true, Living: true})
	w.AddEntity(world.Entity{ID: "z1", Name: "zombie", Type: "minecraft:zombie", Pos: world.Vec3{X: 5, Y: 64}, Living: true})
	w.AddEntity(world.Entity{ID: "p2", Name: "Cy", Type: "minecraft:player", Pos: world.Vec3{X: 10, Y: 64}, Player: true, Living: true})
	w.AddEntity(world.Entity{ID: "far", Name: "far", Type: "minecraft:pig", Pos: world.Vec3{X: 500, Y: 64}, Living: true})
	return w
}

var blocks = staticBlocks{
	{Type: "stone", Pos: world.BlockPos{X: 1, Y: 63}, Tool: world.ToolPickaxe, Tier: world.TierWood},
	{Type: "oak_log", Pos: world.BlockPos{X: 3, Y: 64}, Tool: world.ToolAxe},
}

func TestBuild_AssemblesState(t *testing.T) {
	w := fixture()
	b := NewBuilder(w, blocks, Limits{MaxEntities: 10, EntityRadius: 64})
	s := b.Build()

	assert.Equal(t, world.BlockPos{X: 0, Y: 64, Z: 0}, s.State.Block)
	assert.Equal(t, 17.0, s.State.Health)
	assert.Equal(t, 12, s.State.Food)
	assert.Equal(t, "forest", s.State.Biome)

	assert.Equal(t, []ItemEntry{{Type: "wooden_pickaxe", Count: 1, Slot: 0}}, s.Inventory.Hotbar)
	assert.Equal(t, []ItemEntry{{Type: "oak_log", Count: 12, Slot: 9}}, s.Inventory.Main)
	assert.Equal(t, []ItemEntry{{Type: "iron_chestplate", Count: 1, Slot: 37}}, s.Inventory.Armor)
	assert.Equal(t, []ItemEntry{{Type: "shield", Count: 1, Slot: 40}}, s.Inventory.OffHand)

	assert.Len(t, s.NearbyBlocks, 2)
	assert.Nil(t, s.Memory)
	assert.Nil(t, s.Navigation)
	assert.Nil(t, s.Action)
	assert.False(t, s.CapturedAt.IsZero())
}

func TestBuild_PlayersFirstThenDistance(t *testing.T) {
	s := NewBuilder(fixture(), nil, Limits{MaxEntities: 10, EntityRadius: 64}).Build()
	names := make([]string, len(s.NearbyEntities))
	for i, e := range s.NearbyEntities {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"Cy", "Bob", "cow", "zombie"}, names)

	seenNonPlayer := false
	for _, e := range s.NearbyEntities {
		if !e.IsPlayer {
			seenNonPlayer = true
			continue
		}
		assert.False(t, seenNonPlayer, "player %s after a non-player", e.Name)
	}
}

func TestBuild_EntityCap(t *testing.T) {
	b := NewBuilder(fixture(), nil, Limits{MaxEntities: 3, EntityRadius: 64})
	s := b.Build()
	require.Len(t, s.NearbyEntities, 3)
	assert.Equal(t, "cow", s.NearbyEntities[2].Name)

	b.SetLimits(Limits{MaxEntities: 0, EntityRadius: 64})
	assert.Empty(t, b.Build().NearbyEntities)
}

func TestBuild_Idempotent(t *testing.T) {
	w := fixture()
	nav := agentstate.NewNavigation(3)
	acts := agentstate.NewActions()
	acts.SetAction(agentstate.MiningData{BlockType: "stone", Count: 2})
	b := NewBuilder(w, blocks, DefaultLimits(), WithNavigation(nav), WithActions(acts))

	s1 := b.Build()
	time.Sleep(2 * time.Millisecond)
	s2 := b.Build()
	assert.Equal(t, s1.NearbyBlocks, s2.NearbyBlocks)
	assert.Equal(t, s1.NearbyEntities, s2.NearbyEntities)
	assert.Equal(t, s1.Digest(), s2.Digest())
	assert.NotEqual(t, s1.CapturedAt, s2.CapturedAt)

	w.SetVitals(world.Vitals{Health: 1, MaxHealth: 20, Food: 1})
	assert.NotEqual(t, s1.Digest(), b.Build().Digest())
}

func TestBuild_SnapshotsDoNotShareSlices(t *testing.T) {
	b := NewBuilder(fixture(), blocks, DefaultLimits())
	s1 := b.Build()
	s2 := b.Build()
	s1.NearbyBlocks[0].Type = "mutated"
	s1.NearbyEntities[0].Name = "mutated"
	assert.Equal(t, "stone", s2.NearbyBlocks[0].Type)
	assert.NotEqual(t, "mutated", s2.NearbyEntities[0].Name)
	assert.Equal(t, "stone", blocks[0].Type)
}

func TestEntitySample_EqualByName(t *testing.T) {
	a := EntitySample{ID: "1", Name: "zombie"}
	b := EntitySample{ID: "2", Name: "zombie"}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(EntitySample{ID: "1", Name: "husk"}))
}

func TestFormatPrompt_ValidatesAgainstSchema(t *testing.T) {
	schema, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "snapshot.schema.json"))
	require.NoError(t, err)

	nav := agentstate.NewNavigation(3)
	nav.SetTravelingTo(world.Vec3{X: 10, Y: 64})
	acts := agentstate.NewActions()
	acts.SetAction(agentstate.FishingData{})
	mem := staticMemory{m: Memory{
		Locations:  []Location{{Name: "home", Pos: world.BlockPos{X: 1, Y: 2, Z: 3}}},
		SharedBook: []Page{{Title: "iron", Content: "cave to the north", Author: "Bob"}},
	}}
	b := NewBuilder(fixture(), blocks, DefaultLimits(), WithNavigation(nav), WithActions(acts), WithMemory(mem))

	prompt, err := FormatPrompt("Decide the next action.", b.Build())
	require.NoError(t, err)
	assert.Contains(t, prompt, "Decide the next action.\n\n=== CONTEXT DATA (JSON) ===\n")
	assert.Contains(t, prompt, "\n=== END CONTEXT ===")

	body, ok := ExtractContext(prompt)
	require.True(t, ok)
	var doc any
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	require.NoError(t, schema.Validate(doc))

	m := doc.(map[string]any)
	assert.Equal(t, "TRAVELING", m["navigation"].(map[string]any)["state"])
	assert.Equal(t, "fishing", m["action_state"].(map[string]any)["description"])

	_, ok = ExtractContext("no markers")
	assert.False(t, ok)
}
