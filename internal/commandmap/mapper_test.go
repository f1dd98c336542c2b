package commandmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	m := New(nil, nil)
	tests := []struct {
		in   string
		want string
	}{
		{"get wood 64", "give @s minecraft:oak_log 64"},
		{"get 16 cooked beef", "give @s minecraft:cooked_beef 16"},
		{"get diamond", "give @s minecraft:diamond 32"},
		{"  Get Food ", "give @s minecraft:cooked_beef 16"},
		{"walk forward 5", "tp @s ~5 ~ ~"},
		{"move back", "tp @s ~-1 ~ ~"},
		{"walk 3 left", "tp @s ~ ~ ~-3"},
		{"walk up 2", "tp @s ~ ~2 ~"},
		{"mine", "setblock ~ ~-1 ~ minecraft:air"},
		{"mine above", "setblock ~ ~1 ~ minecraft:air"},
		{"mine stone", "setblock ~ ~-1 ~ minecraft:stone"},
		{"craft pickaxe", "give @s minecraft:wooden_pickaxe 1"},
		{"kill", "kill @e[type=!player,limit=1,sort=nearest]"},
		{"kill nearest", "kill @e[type=!player,limit=1,sort=nearest]"},
		{"kill zombie", "kill @e[type=minecraft:zombie,limit=1,sort=nearest]"},
		{"spawn cow", "summon minecraft:cow ~ ~ ~"},
		{"clear mobs", "kill @e[type=#minecraft:hostile_entities,distance=..20]"},
		{"place stone", "setblock ~ ~-1 ~ minecraft:stone"},
		{"place stone front", "setblock ~1 ~ ~ minecraft:stone"},
		{"heal", "effect give @s minecraft:instant_health 1 1"},
		{"set noon", "time set noon"},
		{"clear weather", "weather clear"},
		{"tp 1 2 3", "tp @s 1 2 3"},
		{"tp bob", "tp @s bob"},
		{"gm c", "gamemode creative @s"},
		{"xp add 5 levels", "xp add 5L @s"},
		{"clear", "clear @s"},
		{"say hello there", "say hello there"},
		{"tell bob meet me", "msg bob meet me"},
		{"list", "list"},
		{"save location home description:near_spawn", "manageMemory:add:location|name:home|description:near_spawn"},
		{"forget location home", "manageMemory:remove:location|name:home"},
		{"add contact bob relationship:friend", "manageMemory:add:contact|name:bob|relationship:friend|notes:"},
		{"update contact bob", "manageMemory:update:contact|name:bob|relationship:neutral|notes:"},
		{"send mail bob hi content:iron_found", "sendMessage|recipient:bob|subject:hi|content:iron_found"},
		{"add book page ores content:deep", "manageBook:add|title:ores|content:deep"},
		{"remove book page ores", "manageBook:remove|title:ores"},
		{"save location", "manageMemory:add:location"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := m.Map(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMap_ClaimedButMalformedStopsTheChain(t *testing.T) {
	m := New(nil, nil)
	for _, in := range []string{
		"walk sideways",
		"walk forward 0",
		"craft unobtainium",
		"spawn",
		"set teatime",
		"forget place",
		"send mail bob",
		"add something",
		"tp",
	} {
		out, ok := m.Map(in)
		assert.False(t, ok, in)
		assert.Empty(t, out, in)
	}
}

func TestMap_ClearForms(t *testing.T) {
	m := New(nil, nil)
	tests := []struct {
		in   string
		want string
	}{
		{"clear", "clear @s"},
		{"clear dirt", "clear @s dirt"},
		{"clear dirt 5", "clear @s dirt 5"},
		{"clear mobs", clearMobs},
		{"Clear Mobs", clearMobs},
		{"clear mobs nearby", clearMobs},
		{"clear weather", "weather clear"},
		{"clear weather now", "weather clear"},
	}
	for _, tt := range tests {
		got, ok := m.Map(tt.in)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMap_FreeTextKeepsCase(t *testing.T) {
	m := New(nil, nil)
	tests := []struct {
		in   string
		want string
	}{
		{"say Meet me at Base, Bob!", "say Meet me at Base, Bob!"},
		{"SAY  Two  spaces", "say Two  spaces"},
		{`say "quoted" Words`, `say "quoted" Words`},
		{"tell Bob Iron at X=12", "msg Bob Iron at X=12"},
		{"title @a title Hello World", `title @a title {"text":"Hello World"}`},
		{"send mail bob hi Content:Iron_Found", "sendMessage|recipient:bob|subject:hi|content:Iron_Found"},
		{"save location Home description:Near_Spawn", "manageMemory:add:location|name:home|description:Near_Spawn"},
		{"add book page Ores content:Deep_Down", "manageBook:add|title:ores|content:Deep_Down"},
	}
	for _, tt := range tests {
		got, ok := m.Map(tt.in)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, ok := m.Map("say")
	assert.False(t, ok)
	_, ok = m.Map("tell bob")
	assert.False(t, ok)
}

func TestMap_PassThrough(t *testing.T) {
	m := New(nil, nil)
	out, ok := m.Map("flibber jabber")
	assert.True(t, ok)
	assert.Equal(t, "flibber jabber", out)

	_, ok = m.Map("   ")
	assert.False(t, ok)
}

func TestToolAction_RoundTripsEscapes(t *testing.T) {
	out := "manageBook:add|title:" + EscapeParam("a|b") + "|content:" + EscapeParam("x:y|z")
	require.True(t, IsToolAction(out))
	ta, err := ParseToolAction(out)
	require.NoError(t, err)
	assert.Equal(t, ToolBook, ta.Tool)
	assert.Equal(t, []string{"add"}, ta.Op)
	assert.Equal(t, "a|b", ta.Param("title"))
	assert.Equal(t, "x:y|z", ta.Param("content"))
}

func TestIsToolAction(t *testing.T) {
	assert.True(t, IsToolAction("sendMessage"))
	assert.True(t, IsToolAction("manageMemory:add:location"))
	assert.False(t, IsToolAction("give @s minecraft:stone 1"))
	assert.False(t, IsToolAction("sendMessages"))

	_, err := ParseToolAction("say hi")
	assert.Error(t, err)
}
