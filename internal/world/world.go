// Package world defines the host-world contract consumed by the agent core:
// block and tile queries, agent vitals and effectors, and command execution.
package world

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// TileSize is the horizontal edge length of a tile (a loaded column of blocks).
const TileSize = 16

// Inventory slot layout.
const (
	HotbarFirst   = 0
	HotbarLast    = 8
	MainFirst     = 9
	MainLast      = 35
	ArmorFirst    = 36
	ArmorLast     = 39
	OffHandSlot   = 40
	InventorySize = 41
)

type BlockPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (p BlockPos) String() string { return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z) }

func (p BlockPos) Add(dx, dy, dz int) BlockPos { return BlockPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz} }

// DistSq is the squared euclidean distance between two block positions.
func (p BlockPos) DistSq(o BlockPos) int {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

func (p BlockPos) Vec() Vec3 { return Vec3{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)} }

func (p BlockPos) Tile() TileCoord {
	return TileCoord{X: FloorDiv(p.X, TileSize), Z: FloorDiv(p.Z, TileSize)}
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) String() string { return fmt.Sprintf("(%.1f, %.1f, %.1f)", v.X, v.Y, v.Z) }

func (v Vec3) DistSq(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

func (v Vec3) Dist(o Vec3) float64 { return math.Sqrt(v.DistSq(o)) }

// Block floors each component.
func (v Vec3) Block() BlockPos {
	return BlockPos{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y)), Z: int(math.Floor(v.Z))}
}

type TileCoord struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Block is what the world reports for one position.
type Block struct {
	Type    string
	Harvest Harvest
	Crop    bool
	Mature  bool
}

// Empty reports whether the block is air (or unknown).
func (b Block) Empty() bool { return IsAir(b.Type) }

func IsAir(blockType string) bool {
	switch strings.TrimPrefix(strings.ToLower(blockType), "minecraft:") {
	case "", "air", "cave_air", "void_air":
		return true
	}
	return false
}

type Vitals struct {
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"max_health"`
	Food      int     `json:"food"`
	Biome     string  `json:"biome"`
}

// ItemStack is one occupied inventory slot. Item is a namespaced id.
type ItemStack struct {
	Slot  int    `json:"slot"`
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type Entity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Pos    Vec3   `json:"pos"`
	Player bool   `json:"player"`
	Living bool   `json:"living"`
}

// World answers block queries. Implementations must be safe for concurrent use:
// the sampler calls it from the cache scheduler goroutine.
type World interface {
	IsTileLoaded(t TileCoord) bool
	BlockAt(p BlockPos) Block
	IsEmpty(p BlockPos) bool
	// HeightBounds returns the inclusive min and exclusive max build height.
	HeightBounds() (minY, maxY int)
}

// Agent is the controlled body: its vitals, inventory, surroundings, and the
// few effectors that are not plain commands.
type Agent interface {
	Name() string
	Position() Vec3
	Vitals() Vitals
	Inventory() []ItemStack
	// EntitiesWithin returns entities other than the agent itself.
	EntitiesWithin(radius float64) []Entity
	Teleport(to Vec3) bool
	Attack(entityID string) bool
	UseItem(item string) bool
	StopUsing() bool
}

// Commander executes one low-level engine command.
type Commander interface {
	Execute(ctx context.Context, command string) bool
}

// ItemPath strips the namespace from an item or block id.
func ItemPath(id string) string {
	if i := strings.LastIndexByte(id, ':'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// HasItem reports whether any inventory stack's path equals or contains name.
func HasItem(inv []ItemStack, name string) bool {
	_, ok := FindItem(inv, name)
	return ok
}

func FindItem(inv []ItemStack, name string) (ItemStack, bool) {
	name = strings.ToLower(ItemPath(name))
	if name == "" {
		return ItemStack{}, false
	}
	for _, st := range inv {
		if st.Count <= 0 {
			continue
		}
		p := strings.ToLower(ItemPath(st.Item))
		if p == name || strings.Contains(p, name) {
			return st, true
		}
	}
	return ItemStack{}, false
}
