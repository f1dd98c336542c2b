// Package memworld is an in-memory voxel world with a single controlled agent.
// It backs the offline demo and the tests of every package that consumes the
// world contract.
package memworld

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"voxelagent.ai/internal/world"
)

type Config struct {
	AgentName string
	MinY      int
	MaxY      int
	Spawn     world.Vec3
	Biome     string
}

// World implements world.World, world.Agent and world.Commander.
type World struct {
	mu sync.RWMutex

	cfg     Config
	blocks  map[world.BlockPos]world.Block
	loaded  map[world.TileCoord]bool
	pos     world.Vec3
	vitals  world.Vitals
	inv     [world.InventorySize]world.ItemStack
	ents    map[string]world.Entity
	using   string
	cmds    []string
	reject  map[string]bool
	attacks []string

	blockReads int
}

func New(cfg Config) *World {
	if cfg.AgentName == "" {
		cfg.AgentName = "agent"
	}
	if cfg.MaxY <= cfg.MinY {
		cfg.MinY, cfg.MaxY = 0, 256
	}
	if cfg.Biome == "" {
		cfg.Biome = "plains"
	}
	return &World{
		cfg:    cfg,
		blocks: map[world.BlockPos]world.Block{},
		loaded: map[world.TileCoord]bool{},
		pos:    cfg.Spawn,
		vitals: world.Vitals{Health: 20, MaxHealth: 20, Food: 20, Biome: cfg.Biome},
		ents:   map[string]world.Entity{},
		reject: map[string]bool{},
	}
}

// LoadTiles marks every tile within radius tiles of the tile containing c as loaded.
func (w *World) LoadTiles(c world.BlockPos, radius int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t := c.Tile()
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			w.loaded[world.TileCoord{X: t.X + dx, Z: t.Z + dz}] = true
		}
	}
}

func (w *World) UnloadTile(t world.TileCoord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.loaded, t)
}

// SetBlock places a block; harvest requirements default from the name.
func (w *World) SetBlock(p world.BlockPos, blockType string) {
	w.PutBlock(p, world.Block{Type: blockType, Harvest: world.DefaultHarvest(blockType)})
}

func (w *World) PutBlock(p world.BlockPos, b world.Block) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b.Empty() {
		delete(w.blocks, p)
		return
	}
	w.blocks[p] = b
}

// Fill sets every block in the inclusive box.
func (w *World) Fill(from, to world.BlockPos, blockType string) {
	for x := min(from.X, to.X); x <= max(from.X, to.X); x++ {
		for y := min(from.Y, to.Y); y <= max(from.Y, to.Y); y++ {
			for z := min(from.Z, to.Z); z <= max(from.Z, to.Z); z++ {
				w.SetBlock(world.BlockPos{X: x, Y: y, Z: z}, blockType)
			}
		}
	}
}

func (w *World) SetPosition(p world.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pos = p
}

func (w *World) SetVitals(v world.Vitals) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.vitals = v
}

func (w *World) SetSlot(slot int, item string, count int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if slot < 0 || slot >= world.InventorySize {
		return
	}
	w.inv[slot] = world.ItemStack{Slot: slot, Item: item, Count: count}
}

func (w *World) AddEntity(e world.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ents[e.ID] = e
}

func (w *World) RemoveEntity(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.ents, id)
}

// RejectCommands makes Execute fail for commands starting with prefix.
func (w *World) RejectCommands(prefix string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reject[prefix] = true
}

// Commands returns every command passed to Execute, accepted or not.
func (w *World) Commands() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.cmds...)
}

func (w *World) Attacks() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.attacks...)
}

func (w *World) Using() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.using
}

// BlockReads counts BlockAt calls, for tests that assert a path never scans.
func (w *World) BlockReads() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.blockReads
}

// world.World

func (w *World) IsTileLoaded(t world.TileCoord) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loaded[t]
}

func (w *World) BlockAt(p world.BlockPos) world.Block {
	w.mu.Lock()
	w.blockReads++
	b, ok := w.blocks[p]
	w.mu.Unlock()
	if !ok {
		return world.Block{Type: "minecraft:air"}
	}
	return b
}

func (w *World) IsEmpty(p world.BlockPos) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.blocks[p]
	return !ok
}

func (w *World) HeightBounds() (int, int) { return w.cfg.MinY, w.cfg.MaxY }

// world.Agent

func (w *World) Name() string { return w.cfg.AgentName }

func (w *World) Position() world.Vec3 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pos
}

func (w *World) Vitals() world.Vitals {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.vitals
}

func (w *World) Inventory() []world.ItemStack {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]world.ItemStack, 0, len(w.inv))
	for _, st := range w.inv {
		if st.Count > 0 && st.Item != "" {
			out = append(out, st)
		}
	}
	return out
}

func (w *World) EntitiesWithin(radius float64) []world.Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r2 := radius * radius
	out := make([]world.Entity, 0, len(w.ents))
	for _, e := range w.ents {
		if e.Pos.DistSq(w.pos) <= r2 {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) Teleport(to world.Vec3) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pos = to
	return true
}

func (w *World) Attack(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.ents[id]; !ok {
		return false
	}
	w.attacks = append(w.attacks, id)
	return true
}

func (w *World) UseItem(item string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, st := range w.inv {
		if st.Count > 0 && strings.Contains(world.ItemPath(st.Item), world.ItemPath(item)) {
			w.using = st.Item
			return true
		}
	}
	return false
}

func (w *World) StopUsing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	was := w.using != ""
	w.using = ""
	return was
}

// world.Commander

// Execute applies the small command subset the agent core issues (setblock,
// give, clear, tp) and accepts anything else as a no-op.
func (w *World) Execute(_ context.Context, command string) bool {
	command = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(command), "/"))
	w.mu.Lock()
	w.cmds = append(w.cmds, command)
	for p := range w.reject {
		if strings.HasPrefix(command, p) {
			w.mu.Unlock()
			return false
		}
	}
	w.mu.Unlock()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return false
	}
	switch parts[0] {
	case "setblock":
		if len(parts) < 5 {
			return false
		}
		p, ok := w.resolvePos(parts[1:4])
		if !ok {
			return false
		}
		w.SetBlock(p.Block(), parts[4])
		return true
	case "give":
		if len(parts) < 3 {
			return false
		}
		n := 1
		if len(parts) > 3 {
			v, err := strconv.Atoi(parts[3])
			if err != nil || v <= 0 {
				return false
			}
			n = v
		}
		return w.give(parts[2], n)
	case "clear":
		if len(parts) < 3 {
			return false
		}
		n := 1
		if len(parts) > 3 {
			if v, err := strconv.Atoi(parts[3]); err == nil {
				n = v
			}
		}
		return w.take(parts[2], n)
	case "tp", "teleport":
		if len(parts) < 5 {
			return false
		}
		p, ok := w.resolvePos(parts[2:5])
		if !ok {
			return false
		}
		return w.Teleport(p)
	}
	return true
}

func (w *World) resolvePos(coords []string) (world.Vec3, bool) {
	cur := w.Position()
	base := [3]float64{cur.X, cur.Y, cur.Z}
	var out [3]float64
	for i, c := range coords {
		rel := strings.HasPrefix(c, "~")
		s := strings.TrimPrefix(c, "~")
		v := 0.0
		if s != "" {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(f) {
				return world.Vec3{}, false
			}
			v = f
		}
		if rel {
			v += base[i]
		}
		out[i] = v
	}
	return world.Vec3{X: out[0], Y: out[1], Z: out[2]}, true
}

func (w *World) give(item string, n int) bool {
	if !strings.Contains(item, ":") {
		item = "minecraft:" + item
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	free := -1
	for i, st := range w.inv {
		if st.Count > 0 && st.Item == item {
			w.inv[i].Count += n
			return true
		}
		if free < 0 && st.Count <= 0 && i <= world.MainLast {
			free = i
		}
	}
	if free < 0 {
		return false
	}
	w.inv[free] = world.ItemStack{Slot: free, Item: item, Count: n}
	return true
}

func (w *World) take(item string, n int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, st := range w.inv {
		if st.Count > 0 && world.ItemPath(st.Item) == world.ItemPath(item) {
			w.inv[i].Count -= n
			if w.inv[i].Count <= 0 {
				w.inv[i] = world.ItemStack{}
			}
			return true
		}
	}
	return false
}
