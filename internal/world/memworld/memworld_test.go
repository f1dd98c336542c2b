package memworld

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelagent.ai/internal/world"
)

func TestBlocksAndTiles(t *testing.T) {
	w := New(Config{AgentName: "Ada"})
	w.LoadTiles(world.BlockPos{}, 1)
	assert.True(t, w.IsTileLoaded(world.TileCoord{X: -1, Z: 1}))
	assert.False(t, w.IsTileLoaded(world.TileCoord{X: 2}))
	w.UnloadTile(world.TileCoord{})
	assert.False(t, w.IsTileLoaded(world.TileCoord{}))

	w.Fill(world.BlockPos{X: 1, Y: 1, Z: 1}, world.BlockPos{}, "minecraft:dirt")
	assert.False(t, w.IsEmpty(world.BlockPos{X: 1, Y: 0, Z: 1}))
	b := w.BlockAt(world.BlockPos{X: 1, Y: 1, Z: 0})
	assert.Equal(t, "minecraft:dirt", b.Type)
	assert.Equal(t, world.ToolShovel, b.Harvest.Tool)

	w.SetBlock(world.BlockPos{}, "minecraft:air")
	assert.True(t, w.IsEmpty(world.BlockPos{}))
	assert.Equal(t, "minecraft:air", w.BlockAt(world.BlockPos{}).Type)
	assert.Equal(t, 2, w.BlockReads())

	lo, hi := w.HeightBounds()
	assert.Equal(t, [2]int{0, 256}, [2]int{lo, hi})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	w := New(Config{AgentName: "Ada", Spawn: world.Vec3{X: 0.5, Y: 64, Z: 0.5}})

	assert.True(t, w.Execute(ctx, "/give Ada minecraft:dirt 3"))
	assert.True(t, w.Execute(ctx, "give @s oak_log"))
	assert.True(t, w.Execute(ctx, "give Ada minecraft:dirt 2"))
	assert.False(t, w.Execute(ctx, "give Ada dirt zero"))
	assert.Equal(t, []world.ItemStack{
		{Slot: 0, Item: "minecraft:dirt", Count: 5},
		{Slot: 1, Item: "minecraft:oak_log", Count: 1},
	}, w.Inventory())

	assert.True(t, w.Execute(ctx, "clear Ada dirt 5"))
	assert.False(t, w.Execute(ctx, "clear Ada dirt 1"))

	assert.True(t, w.Execute(ctx, "setblock ~1 ~-1 ~ minecraft:stone"))
	assert.Equal(t, "minecraft:stone", w.BlockAt(world.BlockPos{X: 1, Y: 63, Z: 0}).Type)
	assert.False(t, w.Execute(ctx, "setblock x 1 2 minecraft:stone"))

	assert.True(t, w.Execute(ctx, "tp Ada 10 70 -4"))
	assert.Equal(t, world.Vec3{X: 10, Y: 70, Z: -4}, w.Position())

	assert.True(t, w.Execute(ctx, "weather clear"), "unknown commands are accepted")
	w.RejectCommands("weather")
	assert.False(t, w.Execute(ctx, "weather rain"))
	assert.False(t, w.Execute(ctx, "   "))
	assert.Len(t, w.Commands(), 12)
}

func TestEffectors(t *testing.T) {
	w := New(Config{AgentName: "Ada"})
	w.AddEntity(world.Entity{ID: "b", Name: "Cow", Pos: world.Vec3{X: 3}})
	w.AddEntity(world.Entity{ID: "a", Name: "Zombie", Pos: world.Vec3{X: 1}})
	w.AddEntity(world.Entity{ID: "c", Name: "Far", Pos: world.Vec3{X: 100}})

	ents := w.EntitiesWithin(10)
	require.Len(t, ents, 2)
	assert.Equal(t, "a", ents[0].ID)

	assert.True(t, w.Attack("b"))
	assert.False(t, w.Attack("zz"))
	w.RemoveEntity("b")
	assert.False(t, w.Attack("b"))
	assert.Equal(t, []string{"b"}, w.Attacks())

	assert.False(t, w.UseItem("fishing_rod"))
	w.SetSlot(4, "minecraft:fishing_rod", 1)
	assert.True(t, w.UseItem("minecraft:fishing_rod"))
	assert.Equal(t, "minecraft:fishing_rod", w.Using())
	assert.True(t, w.StopUsing())
	assert.False(t, w.StopUsing())

	w.SetVitals(world.Vitals{Health: 5, MaxHealth: 20, Food: 3, Biome: "desert"})
	assert.Equal(t, 3, w.Vitals().Food)
}
