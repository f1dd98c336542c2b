package worldlink

import (
	"strings"

	"voxelagent.ai/internal/protocol"
	"voxelagent.ai/internal/world"
)

// mirror is the client-side copy of what the host last observed. It is
// guarded by Session.mu.
type mirror struct {
	params        protocol.WorldParams
	palette       []world.Block
	paletteDigest string
	tiles         map[world.TileCoord][]uint16

	observed bool
	tick     uint64
	self     protocol.SelfObs
	inv      []world.ItemStack
	ents     []world.Entity
}

func newMirror() mirror {
	return mirror{tiles: map[world.TileCoord][]uint16{}}
}

// reset drops every tile; a new session re-sends what is visible.
func (m *mirror) reset(p protocol.WorldParams) {
	if p.MaxY <= p.MinY {
		p.MinY, p.MaxY = 0, 256
	}
	m.params = p
	m.tiles = map[world.TileCoord][]uint16{}
	m.observed = false
}

func (m *mirror) volume() int {
	return world.TileSize * world.TileSize * (m.params.MaxY - m.params.MinY)
}

func (m *mirror) index(p world.BlockPos) int {
	lx := p.X - world.FloorDiv(p.X, world.TileSize)*world.TileSize
	lz := p.Z - world.FloorDiv(p.Z, world.TileSize)*world.TileSize
	return ((p.Y-m.params.MinY)*world.TileSize+lz)*world.TileSize + lx
}

func (m *mirror) setPalette(defs []protocol.BlockDef, digest string) {
	out := make([]world.Block, len(defs))
	for i, d := range defs {
		b := world.Block{Type: d.Name, Crop: d.Crop, Mature: d.Mature}
		tier, ok := world.ParseToolTier(d.Tier)
		if d.Tool == "" && (d.Tier == "" || !ok) {
			b.Harvest = world.DefaultHarvest(d.Name)
		} else {
			b.Harvest = world.Harvest{Tool: world.ToolType(strings.ToLower(d.Tool)), Tier: tier}
		}
		out[i] = b
	}
	m.palette = out
	m.paletteDigest = digest
}

// apply folds one observation into the mirror and returns the tiles whose
// data could not be decoded.
func (m *mirror) apply(o protocol.ObsMsg) []protocol.TileObs {
	m.observed = true
	m.tick = o.Tick
	m.self = o.Self

	for _, u := range o.Unloaded {
		delete(m.tiles, world.TileCoord{X: u[0], Z: u[1]})
	}
	var bad []protocol.TileObs
	vol := m.volume()
	for _, t := range o.Tiles {
		ids, err := protocol.DecodeRLE(t.Data, vol)
		if err != nil || len(ids) != vol {
			bad = append(bad, t)
			continue
		}
		m.tiles[world.TileCoord{X: t.X, Z: t.Z}] = ids
	}
	for _, op := range o.Ops {
		p := world.BlockPos{X: op.Pos[0], Y: op.Pos[1], Z: op.Pos[2]}
		ids, ok := m.tiles[p.Tile()]
		if !ok || p.Y < m.params.MinY || p.Y >= m.params.MaxY {
			continue
		}
		ids[m.index(p)] = op.B
	}

	m.inv = m.inv[:0]
	for _, st := range o.Inventory {
		if st.Count > 0 && st.Item != "" {
			m.inv = append(m.inv, world.ItemStack{Slot: st.Slot, Item: st.Item, Count: st.Count})
		}
	}
	m.ents = m.ents[:0]
	for _, e := range o.Entities {
		m.ents = append(m.ents, world.Entity{
			ID:     e.ID,
			Name:   e.Name,
			Type:   e.Type,
			Pos:    world.Vec3{X: e.Pos[0], Y: e.Pos[1], Z: e.Pos[2]},
			Player: e.Player,
			Living: e.Living,
		})
	}
	return bad
}

// block maps a palette id; ids past the palette read as an unknown solid.
func (m *mirror) block(id uint16) world.Block {
	if id == 0 {
		return world.Block{Type: "minecraft:air"}
	}
	if int(id) < len(m.palette) {
		return m.palette[id]
	}
	return world.Block{Type: "unknown"}
}

func (m *mirror) blockAt(p world.BlockPos) world.Block {
	ids, ok := m.tiles[p.Tile()]
	if !ok || p.Y < m.params.MinY || p.Y >= m.params.MaxY {
		return world.Block{Type: "minecraft:air"}
	}
	return m.block(ids[m.index(p)])
}

// world.World

func (s *Session) IsTileLoaded(t world.TileCoord) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.mirror.tiles[t]
	return ok
}

func (s *Session) BlockAt(p world.BlockPos) world.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mirror.blockAt(p)
}

func (s *Session) IsEmpty(p world.BlockPos) bool { return s.BlockAt(p).Empty() }

func (s *Session) HeightBounds() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mirror.params.MinY, s.mirror.params.MaxY
}

// world.Agent queries

func (s *Session) Name() string { return s.cfg.AgentName }

func (s *Session) Position() world.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.mirror.self.Pos
	return world.Vec3{X: p[0], Y: p[1], Z: p[2]}
}

func (s *Session) Vitals() world.Vitals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.mirror.self
	return world.Vitals{Health: v.Health, MaxHealth: v.MaxHealth, Food: v.Food, Biome: v.Biome}
}

func (s *Session) Inventory() []world.ItemStack {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]world.ItemStack(nil), s.mirror.inv...)
}

func (s *Session) EntitiesWithin(radius float64) []world.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.mirror.self.Pos
	center := world.Vec3{X: p[0], Y: p[1], Z: p[2]}
	r2 := radius * radius
	var out []world.Entity
	for _, e := range s.mirror.ents {
		if e.ID == s.agentID || (e.Player && strings.EqualFold(e.Name, s.cfg.AgentName)) {
			continue
		}
		if e.Pos.DistSq(center) <= r2 {
			out = append(out, e)
		}
	}
	return out
}
