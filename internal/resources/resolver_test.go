package resources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Defaults(t *testing.T) {
	r := Default()
	assert.Equal(t, "minecraft:oak_log", r.Item("wood"))
	assert.Equal(t, "minecraft:oak_log", r.Item("WOOD"))
	assert.Equal(t, "minecraft:oak_planks", r.Block("wood"))
	assert.Equal(t, "minecraft:grass_block", r.Block("grass"))
	assert.Equal(t, "minecraft:zombie", r.Mob("Zombie"))

	// pass-through fallbacks
	assert.Equal(t, "minecraft:emerald", r.Item("emerald"))
	assert.Equal(t, "minecraft:red_wool", r.Block("red wool"))
	assert.Equal(t, "modded:thing", r.Item("modded:thing"))
	assert.Equal(t, "minecraft:warden", r.Mob("warden"))
}

func TestResolver_CraftItemHasNoFallback(t *testing.T) {
	r := Default()
	v, ok := r.CraftItem("iron pickaxe")
	require.True(t, ok)
	assert.Equal(t, "minecraft:iron_pickaxe", v)

	_, ok = r.CraftItem("spaceship")
	assert.False(t, ok)

	v, ok = r.CraftItem("minecraft:lantern")
	require.True(t, ok)
	assert.Equal(t, "minecraft:lantern", v)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "aliases.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
namespace: vc
items:
  wood: birch_log
  Ruby Gem: gem
craft:
  lamp: lantern
`), 0o644))

	r, err := LoadOverrides(p)
	require.NoError(t, err)
	assert.Equal(t, "vc", r.Namespace())
	assert.Equal(t, "vc:birch_log", r.Item("wood"))
	assert.Equal(t, "vc:gem", r.Item("ruby gem"))
	assert.Equal(t, "vc:stone", r.Item("stone"))
	v, ok := r.CraftItem("lamp")
	require.True(t, ok)
	assert.Equal(t, "vc:lantern", v)

	_, err = LoadOverrides(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	r, err = LoadOverrides("")
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace, r.Namespace())
}

func TestNew_RejectsBadNamespace(t *testing.T) {
	_, err := New(Aliases{Namespace: "a b"})
	assert.Error(t, err)
}
