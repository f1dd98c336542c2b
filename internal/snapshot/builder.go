package snapshot

import (
	"sort"
	"strings"
	"sync"
	"time"

	"voxelagent.ai/internal/agentstate"
	"voxelagent.ai/internal/perception"
	"voxelagent.ai/internal/world"
)

// BlockSource serves the bounded nearest-per-type block list.
type BlockSource interface {
	NearbyBlocks() []perception.BlockSample
}

type MemorySource interface {
	MemoryFragment() *Memory
}

type NavigationSource interface {
	Current() agentstate.NavigationState
}

type ActionSource interface {
	Current() agentstate.ActionState
}

type Limits struct {
	MaxEntities  int
	EntityRadius float64
}

func DefaultLimits() Limits { return Limits{MaxEntities: 10, EntityRadius: 64} }

type Option func(*Builder)

func WithMemory(m MemorySource) Option         { return func(b *Builder) { b.memory = m } }
func WithNavigation(n NavigationSource) Option { return func(b *Builder) { b.nav = n } }
func WithActions(a ActionSource) Option        { return func(b *Builder) { b.action = a } }

// Builder assembles snapshots from live agent queries and the block cache.
type Builder struct {
	agent  world.Agent
	blocks BlockSource
	memory MemorySource
	nav    NavigationSource
	action ActionSource
	now    func() time.Time

	mu     sync.RWMutex
	limits Limits
}

func NewBuilder(agent world.Agent, blocks BlockSource, limits Limits, opts ...Option) *Builder {
	b := &Builder{agent: agent, blocks: blocks, now: time.Now}
	b.SetLimits(limits)
	for _, o := range opts {
		o(b)
	}
	return b
}

// SetLimits applies from the next Build.
func (b *Builder) SetLimits(l Limits) {
	if l.MaxEntities < 0 {
		l.MaxEntities = 0
	}
	if l.EntityRadius <= 0 {
		l.EntityRadius = DefaultLimits().EntityRadius
	}
	b.mu.Lock()
	b.limits = l
	b.mu.Unlock()
}

func (b *Builder) Limits() Limits {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.limits
}

func (b *Builder) Build() Snapshot {
	lim := b.Limits()
	pos := b.agent.Position()
	v := b.agent.Vitals()

	s := Snapshot{
		State: State{
			Position:  pos,
			Block:     pos.Block(),
			Health:    v.Health,
			MaxHealth: v.MaxHealth,
			Food:      v.Food,
			Biome:     v.Biome,
		},
		Inventory:      buildInventory(b.agent.Inventory()),
		NearbyBlocks:   []perception.BlockSample{},
		NearbyEntities: rankEntities(b.agent.EntitiesWithin(lim.EntityRadius), pos, lim.MaxEntities),
		CapturedAt:     b.now(),
	}
	if b.blocks != nil {
		s.NearbyBlocks = append(s.NearbyBlocks, b.blocks.NearbyBlocks()...)
	}
	if b.memory != nil {
		s.Memory = b.memory.MemoryFragment()
	}
	if b.nav != nil {
		n := b.nav.Current()
		s.Navigation = &Navigation{State: n.Status.String(), Description: n.Describe(), Destination: n.Destination}
	}
	if b.action != nil {
		a := b.action.Current()
		s.Action = &Action{Type: a.Kind.String(), Description: a.Describe(), Data: a.Data}
	}
	return s
}

func buildInventory(stacks []world.ItemStack) Inventory {
	inv := Inventory{Hotbar: []ItemEntry{}, Main: []ItemEntry{}, Armor: []ItemEntry{}, OffHand: []ItemEntry{}}
	sorted := append([]world.ItemStack(nil), stacks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Slot < sorted[j].Slot })
	for _, st := range sorted {
		if st.Count <= 0 || strings.TrimSpace(st.Item) == "" {
			continue
		}
		e := ItemEntry{Type: world.ItemPath(st.Item), Count: st.Count, Slot: st.Slot}
		switch {
		case st.Slot >= world.HotbarFirst && st.Slot <= world.HotbarLast:
			inv.Hotbar = append(inv.Hotbar, e)
		case st.Slot >= world.MainFirst && st.Slot <= world.MainLast:
			inv.Main = append(inv.Main, e)
		case st.Slot >= world.ArmorFirst && st.Slot <= world.ArmorLast:
			inv.Armor = append(inv.Armor, e)
		case st.Slot == world.OffHandSlot:
			inv.OffHand = append(inv.OffHand, e)
		}
	}
	return inv
}

// rankEntities orders players before everything else, then by squared
// distance within each group, and truncates to limit.
func rankEntities(ents []world.Entity, from world.Vec3, limit int) []EntitySample {
	sorted := append([]world.Entity(nil), ents...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Player != sorted[j].Player {
			return sorted[i].Player
		}
		return sorted[i].Pos.DistSq(from) < sorted[j].Pos.DistSq(from)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]EntitySample, len(sorted))
	for i, e := range sorted {
		name := e.Name
		if name == "" {
			name = world.ItemPath(e.Type)
		}
		out[i] = EntitySample{ID: e.ID, Name: name, IsPlayer: e.Player}
	}
	return out
}
