package perception

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"voxelagent.ai/internal/world"
	"voxelagent.ai/internal/world/memworld"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newWorld() *memworld.World {
	w := memworld.New(memworld.Config{MinY: 0, MaxY: 128, Spawn: world.Vec3{X: 8.5, Y: 65, Z: 8.5}})
	w.LoadTiles(world.BlockPos{X: 8, Y: 64, Z: 8}, 1)
	return w
}

func TestSample_ExposedOnlyAndSkipsUnloaded(t *testing.T) {
	w := newWorld()
	// solid 3x3x3 cube of stone: only the center block is buried
	w.Fill(world.BlockPos{X: 4, Y: 60, Z: 4}, world.BlockPos{X: 6, Y: 62, Z: 6}, "minecraft:stone")
	// inside the radius but in an unloaded tile
	w.SetBlock(world.BlockPos{X: 40, Y: 64, Z: 40}, "minecraft:diamond_ore")

	got, err := Sample(context.Background(), w, Region{Center: world.BlockPos{X: 8, Y: 64, Z: 8}, TileRadius: 4, VerticalRange: 8})
	require.NoError(t, err)
	assert.Len(t, got, 26)
	for _, s := range got {
		assert.NotEqual(t, world.BlockPos{X: 5, Y: 61, Z: 5}, s.Pos, "buried block must not be sampled")
		assert.Equal(t, "stone", s.Type)
		assert.Equal(t, world.ToolPickaxe, s.Tool)
		assert.Equal(t, world.TierWood, s.Tier)
	}
}

func TestSample_VerticalRangeClamped(t *testing.T) {
	w := newWorld()
	w.SetBlock(world.BlockPos{X: 1, Y: 0, Z: 1}, "minecraft:bedrock")
	w.SetBlock(world.BlockPos{X: 1, Y: 20, Z: 1}, "minecraft:dirt")

	got, err := Sample(context.Background(), w, Region{Center: world.BlockPos{X: 1, Y: 3, Z: 1}, TileRadius: 0, VerticalRange: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bedrock", got[0].Type)
}

func TestSample_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Sample(ctx, newWorld(), Region{TileRadius: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNearest_OnePerTypeSortedAndCapped(t *testing.T) {
	c := world.BlockPos{}
	samples := []BlockSample{
		{Type: "stone", Pos: world.BlockPos{X: 5}},
		{Type: "dirt", Pos: world.BlockPos{X: 2}},
		{Type: "stone", Pos: world.BlockPos{X: 1}},
		{Type: "log", Pos: world.BlockPos{X: 3}},
		{Type: "sand", Pos: world.BlockPos{X: 9}},
	}
	got := Nearest(samples, c, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"stone", "dirt", "log"}, []string{got[0].Type, got[1].Type, got[2].Type})
	assert.Equal(t, 1, got[0].Pos.X)

	for limit := 0; limit <= 6; limit++ {
		res := Nearest(samples, c, limit)
		assert.LessOrEqual(t, len(res), limit)
		seen := map[string]bool{}
		for _, s := range res {
			assert.False(t, seen[s.Type], "duplicate type %s", s.Type)
			seen[s.Type] = true
		}
	}
}

func TestNearest_TiesKeepEncounterOrder(t *testing.T) {
	samples := []BlockSample{
		{Type: "b", Pos: world.BlockPos{X: 2}},
		{Type: "a", Pos: world.BlockPos{X: -2}},
		{Type: "a", Pos: world.BlockPos{Z: 2}},
		{Type: "c", Pos: world.BlockPos{Y: 2}},
	}
	got := Nearest(samples, world.BlockPos{}, 10)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Type)
	assert.Equal(t, "a", got[1].Type)
	assert.Equal(t, -2, got[1].Pos.X, "first encountered sample of a tied type is kept")
	assert.Equal(t, "c", got[2].Type)
}

func fastConfig(interval time.Duration) CacheConfig {
	cfg := DefaultCacheConfig()
	cfg.TileRadius = 1
	cfg.RefreshInterval = interval
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func TestCache_RefreshAndRead(t *testing.T) {
	w := newWorld()
	w.SetBlock(world.BlockPos{X: 9, Y: 64, Z: 9}, "minecraft:oak_log")
	w.SetBlock(world.BlockPos{X: 12, Y: 64, Z: 9}, "minecraft:oak_log")
	w.SetBlock(world.BlockPos{X: 3, Y: 64, Z: 3}, "minecraft:iron_ore")

	c := NewCache(w, w, fastConfig(10*time.Millisecond), nil)
	assert.Empty(t, c.NearbyBlocks(), "cache starts empty")
	require.NoError(t, c.Start())
	defer c.Close()

	require.Eventually(t, func() bool { return c.Stats().Refreshes >= 1 }, time.Second, 5*time.Millisecond)
	nb := c.NearbyBlocks()
	require.Len(t, nb, 2)
	assert.Equal(t, "oak_log", nb[0].Type)
	assert.Equal(t, world.BlockPos{X: 9, Y: 64, Z: 9}, nb[0].Pos)

	logs := c.BlocksOfType("log", 5)
	assert.Len(t, logs, 2)
	assert.Equal(t, 9, logs[0].Pos.X)
	assert.Len(t, c.BlocksOfType("oak_log", 1), 1)
	assert.Empty(t, c.BlocksOfType("", 1))
}

func TestCache_BlocksOfTypeWarnsWhenShort(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := newWorld()
	w.SetBlock(world.BlockPos{X: 9, Y: 64, Z: 9}, "minecraft:coal_ore")
	c := NewCache(w, w, fastConfig(time.Hour), zap.New(core))
	require.NoError(t, c.Start())
	defer c.Close()
	require.Eventually(t, func() bool { return c.Stats().Refreshes >= 1 }, time.Second, 5*time.Millisecond)

	got := c.BlocksOfType("coal_ore", 3)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, logs.FilterMessage("fewer blocks than requested").Len())
}

func TestCache_ReadsNeverScan(t *testing.T) {
	w := newWorld()
	c := NewCache(w, w, fastConfig(time.Hour), nil)
	require.NoError(t, c.Start())
	defer c.Close()
	require.Eventually(t, func() bool { return c.Stats().Refreshes >= 1 }, time.Second, 5*time.Millisecond)

	before := w.BlockReads()
	for i := 0; i < 100; i++ {
		_ = c.NearbyBlocks()
		_ = c.BlocksOfType("stone", 1)
	}
	assert.Equal(t, before, w.BlockReads())
}

func TestCache_ReconfigureCancelsOldSchedule(t *testing.T) {
	w := newWorld()
	c := NewCache(w, w, fastConfig(10*time.Millisecond), nil)
	require.NoError(t, c.Start())
	defer c.Close()
	require.Eventually(t, func() bool { return c.Stats().Refreshes >= 3 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Reconfigure(fastConfig(time.Hour)))
	// the new schedule refreshes once immediately, then waits an hour
	time.Sleep(100 * time.Millisecond)
	settled := c.Stats().Refreshes
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, c.Stats().Refreshes)
	assert.Equal(t, time.Hour, c.Config().RefreshInterval)
}

func TestCache_ReconfigureAppliesCap(t *testing.T) {
	w := newWorld()
	for i, b := range []string{"stone", "dirt", "sand", "gravel"} {
		w.SetBlock(world.BlockPos{X: 9 + i, Y: 64, Z: 9}, "minecraft:"+b)
	}
	c := NewCache(w, w, fastConfig(time.Hour), nil)
	require.NoError(t, c.Start())
	defer c.Close()
	require.Eventually(t, func() bool { return len(c.NearbyBlocks()) == 4 }, time.Second, 5*time.Millisecond)

	cfg := fastConfig(time.Hour)
	cfg.MaxBlocks = 2
	require.NoError(t, c.Reconfigure(cfg))
	require.Eventually(t, func() bool { return len(c.NearbyBlocks()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestCache_StartErrors(t *testing.T) {
	w := newWorld()
	bad := fastConfig(0)
	c := NewCache(w, w, bad, nil)
	assert.Error(t, c.Start())

	c = NewCache(w, w, fastConfig(time.Hour), nil)
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Start(), ErrClosed)
	assert.ErrorIs(t, c.Reconfigure(fastConfig(time.Hour)), ErrClosed)
	assert.NoError(t, c.Close(), "close is idempotent")
}

type slowWorld struct {
	*memworld.World
	tiles atomic.Int64
}

func (s *slowWorld) IsTileLoaded(t world.TileCoord) bool {
	s.tiles.Add(1)
	time.Sleep(20 * time.Millisecond)
	return s.World.IsTileLoaded(t)
}

func TestCache_CloseForceCancelsLongScan(t *testing.T) {
	w := &slowWorld{World: newWorld()}
	cfg := fastConfig(time.Hour)
	cfg.TileRadius = 8 // 289 tiles at 20ms each
	cfg.ShutdownTimeout = 30 * time.Millisecond
	c := NewCache(w, w, cfg, nil)
	require.NoError(t, c.Start())
	require.Eventually(t, func() bool { return w.tiles.Load() > 0 }, time.Second, time.Millisecond)

	start := time.Now()
	require.NoError(t, c.Close())
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, c.Stats().Refreshes, "aborted scan must not replace the index")
}
