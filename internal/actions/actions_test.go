package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"voxelagent.ai/internal/agentstate"
	"voxelagent.ai/internal/perception"
	"voxelagent.ai/internal/world"
	"voxelagent.ai/internal/world/memworld"
)

type finder []perception.BlockSample

func (f finder) NearbyBlocks() []perception.BlockSample {
	return append([]perception.BlockSample(nil), f...)
}

func (f finder) BlocksOfType(blockType string, n int) []perception.BlockSample {
	var out []perception.BlockSample
	for _, s := range f {
		if matchName(s.Type, blockType) {
			out = append(out, s)
		}
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

type page struct {
	book           Book
	title, content string
}

type shelf struct {
	pages []page
	err   error
}

func (s *shelf) PutPage(_ context.Context, b Book, title, content string) error {
	if s.err != nil {
		return s.err
	}
	s.pages = append(s.pages, page{b, title, content})
	return nil
}

func (s *shelf) RemovePage(_ context.Context, b Book, title string) error {
	for i, p := range s.pages {
		if p.book == b && p.title == title {
			s.pages = append(s.pages[:i], s.pages[i+1:]...)
			return nil
		}
	}
	return errors.New("no such page")
}

type outbox struct{ sent [][2]string }

func (o *outbox) Send(_ context.Context, to, msg string) error {
	o.sent = append(o.sent, [2]string{to, msg})
	return nil
}

type rig struct {
	w      *memworld.World
	env    *Env
	router *Router
	books  *shelf
	mail   *outbox
	logs   *observer.ObservedLogs
}

func newRig(t *testing.T, blocks finder) *rig {
	t.Helper()
	w := memworld.New(memworld.Config{AgentName: "Ada", Spawn: world.Vec3{Y: 64}})
	core, logs := observer.New(zap.InfoLevel)
	r := &rig{w: w, books: &shelf{}, mail: &outbox{}, logs: logs}
	r.env = &Env{
		Agent:   w,
		World:   w,
		Cmd:     w,
		Blocks:  blocks,
		Actions: agentstate.NewActions(),
		Nav:     agentstate.NewNavigation(agentstate.DefaultArrivalThreshold),
		Books:   r.books,
		Mail:    r.mail,
		Log:     zap.New(core),
	}
	router, err := NewDefaultRouter(r.env)
	require.NoError(t, err)
	r.router = router
	return r
}

func (r *rig) route(phrase string) bool { return r.router.Route(context.Background(), phrase) }

type stub struct {
	name  string
	verbs []string
}

func (s stub) Name() string                      { return s.name }
func (s stub) Verbs() []string                   { return s.verbs }
func (s stub) Syntax() []string                  { return []string{s.name} }
func (s stub) Handle(context.Context, Call) bool { return true }

func TestNewRouter_RejectsDuplicateVerbs(t *testing.T) {
	_, err := NewRouter(nil, stub{"a", []string{"go"}}, stub{"b", []string{"GO"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claimed by both a and b")

	_, err = NewRouter(nil, stub{"a", []string{" "}})
	require.Error(t, err)
}

func TestRouter_VerbTable(t *testing.T) {
	r := newRig(t, nil)
	assert.Equal(t, []string{
		"attack", "build", "craft", "defend", "farm", "fish", "hunt",
		"mail", "mine", "place", "privatebook", "sharedbook", "travel",
	}, r.router.Verbs())
	assert.True(t, r.router.Handles("MINE"))
	assert.False(t, r.router.Handles("dance"))
	assert.Contains(t, r.router.Syntax(), "mine <block_type> [count]")
}

func TestRouter_UnknownVerbHasNoSideEffects(t *testing.T) {
	r := newRig(t, nil)
	assert.False(t, r.route("dance wildly"))
	assert.False(t, r.route("   "))
	assert.Empty(t, r.w.Commands())
	assert.True(t, r.env.Actions.IsIdle())
}

func TestMemory_AddAndRemovePages(t *testing.T) {
	r := newRig(t, nil)
	require.True(t, r.route(`sharedbook add iron 'cave   to the
north'`))
	require.True(t, r.route(`privatebook add plan "build a farm"`))
	assert.Equal(t, []page{
		{SharedBook, "iron", "cave to the north"},
		{PrivateBook, "plan", "build a farm"},
	}, r.books.pages)

	assert.True(t, r.route("sharedbook remove iron"))
	assert.False(t, r.route("sharedbook remove iron"))
	assert.Len(t, r.books.pages, 1)
}

func TestMemory_RejectsMalformed(t *testing.T) {
	r := newRig(t, nil)
	for _, in := range []string{
		"sharedbook add",
		"sharedbook add title unquoted",
		"sharedbook add title '   '",
		"sharedbook rename a b",
	} {
		assert.False(t, r.route(in), in)
	}
	assert.Empty(t, r.books.pages)
	assert.Equal(t, 4, r.logs.FilterMessage("action rejected").Len())

	r.books.err = errors.New("disk full")
	assert.False(t, r.route("sharedbook add t 'x'"))
}

func TestMail_Send(t *testing.T) {
	r := newRig(t, nil)
	assert.True(t, r.route(`mail send Bob 'meet at  spawn'`))
	assert.False(t, r.route(`mail send Bob hello`))
	assert.False(t, r.route(`mail Bob 'x'`))
	assert.Equal(t, [][2]string{{"Bob", "meet at spawn"}}, r.mail.sent)
}

func TestTravel_Coordinates(t *testing.T) {
	r := newRig(t, nil)
	require.True(t, r.route("travel to 10.7 64 -3.2"))
	assert.Equal(t, world.Vec3{X: 10, Y: 64, Z: -4}, r.w.Position())
	assert.Equal(t, agentstate.NavArrived, r.env.Nav.Current().Status)
	assert.True(t, r.env.Actions.IsIdle())

	assert.False(t, r.route("travel to 1 two 3"))
	assert.False(t, r.route("travel somewhere"))
}

func TestTravel_EntityAndBlock(t *testing.T) {
	r := newRig(t, finder{{Type: "oak_log", Pos: world.BlockPos{X: 5, Y: 64, Z: 5}}})
	r.w.AddEntity(world.Entity{ID: "p1", Name: "Bob", Pos: world.Vec3{X: 20, Y: 64}, Player: true, Living: true})

	require.True(t, r.route("travel to entity bob"))
	assert.Equal(t, world.Vec3{X: 20, Y: 64}, r.w.Position())

	require.True(t, r.route("travel to block oak log"))
	assert.Equal(t, world.Vec3{X: 5, Y: 65, Z: 5}, r.w.Position())

	assert.False(t, r.route("travel to entity Zed"))
	assert.False(t, r.route("travel to block diamond_ore"))
}

func TestTravel_Stop(t *testing.T) {
	r := newRig(t, nil)
	r.env.Actions.SetAction(agentstate.TravelingData{Destination: world.Vec3{X: 100}})
	r.env.Nav.SetTravelingTo(world.Vec3{X: 100})
	assert.True(t, r.route("travel stop"))
	assert.Equal(t, agentstate.NavIdle, r.env.Nav.Current().Status)
	assert.True(t, r.env.Actions.IsIdle())
}

func TestMine_ByTypeGivesDrops(t *testing.T) {
	blocks := finder{
		{Type: "stone", Pos: world.BlockPos{X: 1, Y: 63}, Tool: world.ToolPickaxe, Tier: world.TierWood},
		{Type: "stone", Pos: world.BlockPos{X: 2, Y: 63}, Tool: world.ToolPickaxe, Tier: world.TierWood},
	}
	r := newRig(t, blocks)
	r.w.SetSlot(0, "minecraft:wooden_pickaxe", 1)
	r.w.SetBlock(world.BlockPos{X: 1, Y: 63}, "minecraft:stone")
	r.w.SetBlock(world.BlockPos{X: 2, Y: 63}, "minecraft:stone")

	require.True(t, r.route("mine stone 2"))
	assert.Equal(t, []string{
		"setblock 1 63 0 air",
		"give Ada minecraft:stone 1",
		"setblock 2 63 0 air",
		"give Ada minecraft:stone 1",
	}, r.w.Commands())
	assert.True(t, r.w.IsEmpty(world.BlockPos{X: 1, Y: 63}))
	st, ok := world.FindItem(r.w.Inventory(), "stone")
	require.True(t, ok)
	assert.Equal(t, 2, st.Count)
	assert.True(t, r.env.Actions.IsIdle())
}

func TestMine_PartialStaysInProgress(t *testing.T) {
	r := newRig(t, finder{{Type: "oak_log", Pos: world.BlockPos{X: 3, Y: 64}, Tool: world.ToolAxe}})
	require.True(t, r.route("mine oak_log 5"))
	cur := r.env.Actions.Current()
	require.Equal(t, agentstate.Mining, cur.Kind)
	assert.Equal(t, agentstate.MiningData{BlockType: "oak_log", Count: 5, Mined: 1}, cur.Data)
	assert.Equal(t, "mining oak_log (1/5)", cur.Describe())
}

func TestMine_RejectsWithoutSideEffects(t *testing.T) {
	iron := finder{{Type: "iron_ore", Pos: world.BlockPos{X: 1, Y: 10}, Tool: world.ToolPickaxe, Tier: world.TierStone}}
	r := newRig(t, iron)
	r.w.SetSlot(0, "minecraft:wooden_pickaxe", 1)

	assert.False(t, r.route("mine iron_ore"))
	assert.False(t, r.route("mine gold_ore"))
	assert.False(t, r.route("mine stone 0"))
	assert.False(t, r.route("mine"))
	assert.Empty(t, r.w.Commands())
	assert.True(t, r.env.Actions.IsIdle())

	r.w.SetSlot(1, "minecraft:stone_pickaxe", 1)
	assert.True(t, r.route("mine iron ore"))
}

func TestMine_AtPosition(t *testing.T) {
	r := newRig(t, nil)
	r.w.SetBlock(world.BlockPos{X: 4, Y: 64, Z: 4}, "minecraft:dirt")
	require.True(t, r.route("mine at 4 64 4"))
	assert.True(t, r.w.IsEmpty(world.BlockPos{X: 4, Y: 64, Z: 4}))
	assert.True(t, world.HasItem(r.w.Inventory(), "dirt"))
	assert.False(t, r.route("mine at 4 64 4"))
}

func TestMine_CommandFailureReturnsToIdle(t *testing.T) {
	r := newRig(t, finder{{Type: "dirt", Pos: world.BlockPos{X: 1, Y: 63}}})
	r.w.RejectCommands("setblock")
	assert.False(t, r.route("mine dirt"))
	assert.True(t, r.env.Actions.IsIdle())
	assert.Equal(t, 1, r.logs.FilterMessage("command failed").Len())
}

func TestBuild_PlacesFromInventory(t *testing.T) {
	r := newRig(t, nil)
	r.w.SetSlot(0, "minecraft:oak_planks", 8)

	require.True(t, r.route("place oak planks at 1 64 2"))
	assert.Equal(t, "minecraft:oak_planks", r.w.BlockAt(world.BlockPos{X: 1, Y: 64, Z: 2}).Type)
	assert.True(t, r.env.Actions.IsIdle())

	assert.False(t, r.route("build oak_planks at 1 64 2"), "occupied")
	assert.False(t, r.route("build cobblestone at 0 64 0"), "not in inventory")
	assert.False(t, r.route("build oak_planks 1 64 2 now"), "missing at")
	assert.False(t, r.route("build oak_planks at 1 x 2"))
}

func TestCraft_GivesItem(t *testing.T) {
	r := newRig(t, nil)
	require.True(t, r.route("craft crafting table"))
	assert.Equal(t, []string{"give Ada minecraft:crafting_table 1"}, r.w.Commands())
	assert.True(t, r.env.Actions.IsIdle())
	assert.False(t, r.route("craft"))
}

func TestHunt_TargetsNearestMatchingMob(t *testing.T) {
	r := newRig(t, nil)
	r.w.AddEntity(world.Entity{ID: "z-far", Name: "zombie", Type: "minecraft:zombie", Pos: world.Vec3{X: 30, Y: 64}, Living: true})
	r.w.AddEntity(world.Entity{ID: "z-near", Name: "zombie", Type: "minecraft:zombie", Pos: world.Vec3{X: 3, Y: 64}, Living: true})
	r.w.AddEntity(world.Entity{ID: "p", Name: "zombie", Type: "minecraft:player", Pos: world.Vec3{X: 1, Y: 64}, Player: true, Living: true})
	r.w.AddEntity(world.Entity{ID: "item", Name: "zombie head", Type: "minecraft:item", Pos: world.Vec3{X: 1, Y: 64}})

	require.True(t, r.route("hunt zombie"))
	assert.Equal(t, []string{"z-near"}, r.w.Attacks())
	cur := r.env.Actions.Current()
	assert.Equal(t, agentstate.HuntingData{Target: "zombie", TargetID: "z-near"}, cur.Data)

	assert.False(t, r.route("hunt creeper"))
	assert.Equal(t, agentstate.Hunting, r.env.Actions.Current().Kind)
}

func TestCombat_AttackAndDefend(t *testing.T) {
	r := newRig(t, nil)
	r.w.AddEntity(world.Entity{ID: "p1", Name: "Bob", Pos: world.Vec3{X: 2, Y: 64}, Player: true, Living: true})
	require.True(t, r.route("attack Bob"))
	assert.Equal(t, "in combat with Bob", r.env.Actions.Describe())

	require.True(t, r.route("defend"))
	assert.Equal(t, agentstate.CombatData{Stance: "defensive"}, r.env.Actions.Current().Data)
	assert.False(t, r.route("attack"))
}

func TestFish_RequiresRod(t *testing.T) {
	r := newRig(t, nil)
	assert.False(t, r.route("fish"))
	assert.True(t, r.env.Actions.IsIdle())

	r.w.SetSlot(0, "minecraft:fishing_rod", 1)
	require.True(t, r.route("fish"))
	assert.Equal(t, agentstate.Fishing, r.env.Actions.Current().Kind)
	assert.Equal(t, "minecraft:fishing_rod", r.w.Using())

	require.True(t, r.route("fish stop"))
	assert.True(t, r.env.Actions.IsIdle())
	assert.Empty(t, r.w.Using())
	assert.False(t, r.route("fish harder"))
}

func TestFarm_PlantConsumesSeed(t *testing.T) {
	r := newRig(t, nil)
	r.w.SetBlock(world.BlockPos{X: 2, Y: 63, Z: 2}, "minecraft:farmland")
	assert.False(t, r.route("farm plant wheat at 2 63 2"), "no seeds")

	r.w.SetSlot(0, "minecraft:wheat_seeds", 2)
	require.True(t, r.route("farm plant wheat at 2 63 2"))
	assert.Equal(t, "minecraft:wheat", r.w.BlockAt(world.BlockPos{X: 2, Y: 64, Z: 2}).Type)
	st, _ := world.FindItem(r.w.Inventory(), "wheat_seeds")
	assert.Equal(t, 1, st.Count)
	assert.True(t, r.env.Actions.IsIdle())

	r.w.SetBlock(world.BlockPos{X: 5, Y: 64}, "minecraft:stone")
	assert.False(t, r.route("farm plant wheat at 5 64 0"))
}

func TestFarm_Harvest(t *testing.T) {
	ripe := world.BlockPos{X: 1, Y: 64, Z: 1}
	green := world.BlockPos{X: 2, Y: 64, Z: 1}
	r := newRig(t, finder{
		{Type: "carrots", Pos: green},
		{Type: "wheat", Pos: ripe},
	})
	r.w.PutBlock(green, world.Block{Type: "minecraft:carrots", Crop: true})
	r.w.PutBlock(ripe, world.Block{Type: "minecraft:wheat", Crop: true, Mature: true})

	assert.False(t, r.route("farm harvest at 2 64 1"), "not mature")
	require.True(t, r.route("farm harvest"))
	assert.True(t, r.w.IsEmpty(ripe))
	assert.True(t, world.HasItem(r.w.Inventory(), "wheat"))
	assert.True(t, r.env.Actions.IsIdle())

	assert.False(t, r.route("farm harvest"))
	assert.False(t, r.route("farm till"))
}

func TestHandlers_MissingTargetKeepsActionState(t *testing.T) {
	dirt := world.BlockPos{X: 1, Y: 63}
	cases := []string{
		"mine iron_ore",
		"mine at 4 64 4",
		"farm harvest",
		"farm harvest at 1 63 0",
		"farm plant wheat at 2 64 2",
		"hunt creeper",
		"attack Nobody",
		"fish",
		"build oak_planks at 1 63 0",
		"craft",
		"travel to entity Nobody",
		"travel to block diamond_ore",
	}
	for _, phrase := range cases {
		t.Run(phrase, func(t *testing.T) {
			r := newRig(t, finder{{Type: "dirt", Pos: dirt, Tool: world.ToolShovel}})
			r.w.SetBlock(dirt, "minecraft:dirt")
			r.w.SetSlot(0, "minecraft:oak_planks", 4)
			r.w.AddEntity(world.Entity{ID: "c1", Name: "Cow", Type: "minecraft:cow", Pos: world.Vec3{X: 2, Y: 64}, Living: true})
			r.env.Actions.SetAction(agentstate.FishingData{})
			before := r.env.Actions.Current()

			assert.False(t, r.route(phrase))
			after := r.env.Actions.Current()
			assert.Equal(t, before.Kind, after.Kind)
			assert.Equal(t, before.Data, after.Data)
			assert.True(t, before.StartedAt.Equal(after.StartedAt), "action clock restarted")
			assert.Empty(t, r.w.Commands())
			assert.Empty(t, r.w.Attacks())
		})
	}
}
