// Package snapshot assembles the immutable view of agent and world state that
// is handed to the decision-maker.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"voxelagent.ai/internal/agentstate"
	"voxelagent.ai/internal/perception"
	"voxelagent.ai/internal/world"
)

type State struct {
	Position  world.Vec3     `json:"position"`
	Block     world.BlockPos `json:"block_position"`
	Health    float64        `json:"health"`
	MaxHealth float64        `json:"max_health"`
	Food      int            `json:"food"`
	Biome     string         `json:"biome"`
}

type ItemEntry struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Slot  int    `json:"slot"`
}

type Inventory struct {
	Hotbar  []ItemEntry `json:"hotbar"`
	Main    []ItemEntry `json:"main"`
	Armor   []ItemEntry `json:"armor"`
	OffHand []ItemEntry `json:"off_hand"`
}

// EntitySample is a nearby entity as seen by the decision-maker.
type EntitySample struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsPlayer bool   `json:"is_player"`
}

// Equal compares by name only: two entities sharing a display name are the
// same sample even when their ids differ.
func (e EntitySample) Equal(o EntitySample) bool { return e.Name == o.Name }

type Page struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author,omitempty"`
}

type Location struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Pos         world.BlockPos `json:"position"`
}

type Contact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Notes        string `json:"notes,omitempty"`
}

type Mail struct {
	From    string `json:"from"`
	Subject string `json:"subject,omitempty"`
	Content string `json:"content"`
}

// Memory is the optional recall fragment.
type Memory struct {
	Locations   []Location `json:"locations,omitempty"`
	Contacts    []Contact  `json:"contacts,omitempty"`
	SharedBook  []Page     `json:"shared_book,omitempty"`
	PrivateBook []Page     `json:"private_book,omitempty"`
	Inbox       []Mail     `json:"inbox,omitempty"`
}

type Navigation struct {
	State       string      `json:"state"`
	Description string      `json:"description"`
	Destination *world.Vec3 `json:"destination,omitempty"`
}

type Action struct {
	Type        string                `json:"type"`
	Description string                `json:"description"`
	Data        agentstate.ActionData `json:"data,omitempty"`
}

// Snapshot is one captured view. Nothing retains or mutates a snapshot after
// Build returns it; every build allocates its own slices.
type Snapshot struct {
	State          State                    `json:"state"`
	Inventory      Inventory                `json:"inventory"`
	NearbyBlocks   []perception.BlockSample `json:"nearby_blocks"`
	NearbyEntities []EntitySample           `json:"nearby_entities"`
	Memory         *Memory                  `json:"memory,omitempty"`
	Navigation     *Navigation              `json:"navigation,omitempty"`
	Action         *Action                  `json:"action_state,omitempty"`
	CapturedAt     time.Time                `json:"captured_at"`
}

// Digest hashes the snapshot content, ignoring the capture time.
func (s Snapshot) Digest() string {
	s.CapturedAt = time.Time{}
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
