// Package agentstate tracks what the agent is doing (its current action) and
// where it is going (its navigation status).
package agentstate

import (
	"fmt"
	"sync"
	"time"

	"voxelagent.ai/internal/world"
)

type ActionKind int

const (
	Idle ActionKind = iota
	Mining
	Building
	Crafting
	Hunting
	Farming
	Fishing
	Combat
	Traveling
)

var kindNames = [...]string{"IDLE", "MINING", "BUILDING", "CRAFTING", "HUNTING", "FARMING", "FISHING", "COMBAT", "TRAVELING"}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
	return kindNames[k]
}

func (k ActionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ActionData is the per-kind payload of an action. Each variant carries only
// its own fields.
type ActionData interface {
	Kind() ActionKind
	describe() string
}

type MiningData struct {
	BlockType string `json:"block_type"`
	Count     int    `json:"count"`
	Mined     int    `json:"mined"`
}

type BuildingData struct {
	BlockType string         `json:"block_type"`
	Pos       world.BlockPos `json:"position"`
}

type CraftingData struct {
	Item string `json:"item"`
}

type HuntingData struct {
	Target   string `json:"target"`
	TargetID string `json:"target_id"`
}

type FarmingData struct {
	Operation string          `json:"operation"`
	Crop      string          `json:"crop,omitempty"`
	Pos       *world.BlockPos `json:"position,omitempty"`
}

type FishingData struct{}

type CombatData struct {
	Target   string `json:"target,omitempty"`
	TargetID string `json:"target_id,omitempty"`
	Stance   string `json:"stance,omitempty"`
}

type TravelingData struct {
	Destination world.Vec3 `json:"destination"`
	Target      string     `json:"target,omitempty"`
}

func (MiningData) Kind() ActionKind    { return Mining }
func (BuildingData) Kind() ActionKind  { return Building }
func (CraftingData) Kind() ActionKind  { return Crafting }
func (HuntingData) Kind() ActionKind   { return Hunting }
func (FarmingData) Kind() ActionKind   { return Farming }
func (FishingData) Kind() ActionKind   { return Fishing }
func (CombatData) Kind() ActionKind    { return Combat }
func (TravelingData) Kind() ActionKind { return Traveling }

func (d MiningData) describe() string {
	return fmt.Sprintf("mining %s (%d/%d)", d.BlockType, d.Mined, d.Count)
}
func (d BuildingData) describe() string {
	return fmt.Sprintf("building %s at %s", d.BlockType, d.Pos)
}
func (d CraftingData) describe() string { return "crafting " + d.Item }
func (d HuntingData) describe() string  { return "hunting " + d.Target }
func (d FarmingData) describe() string {
	if d.Crop == "" {
		return "farming " + d.Operation
	}
	return fmt.Sprintf("farming %s %s", d.Operation, d.Crop)
}
func (FishingData) describe() string { return "fishing" }
func (d CombatData) describe() string {
	if d.Target == "" {
		return "defending"
	}
	return "in combat with " + d.Target
}
func (d TravelingData) describe() string { return "traveling to " + d.Destination.String() }

// IdleDescription is the fixed description of the idle state.
const IdleDescription = "idle"

// ActionState is a copy of the current action. Data is nil when Kind is Idle.
type ActionState struct {
	Kind      ActionKind `json:"type"`
	Data      ActionData `json:"data,omitempty"`
	StartedAt time.Time  `json:"started_at"`
}

func (s ActionState) Describe() string {
	if s.Data == nil {
		return IdleDescription
	}
	return s.Data.describe()
}

// Duration is how long the action has been running at now.
func (s ActionState) Duration(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// Actions is the action state machine. All mutation goes through SetAction,
// UpdateData and SetIdle.
type Actions struct {
	mu  sync.RWMutex
	cur ActionState
	now func() time.Time
}

func NewActions() *Actions {
	a := &Actions{now: time.Now}
	a.cur = ActionState{Kind: Idle, StartedAt: a.now()}
	return a
}

// SetAction replaces the current action and restarts its clock. A nil data
// is the same as SetIdle.
func (a *Actions) SetAction(data ActionData) {
	if data == nil {
		a.SetIdle()
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cur = ActionState{Kind: data.Kind(), Data: data, StartedAt: a.now()}
}

// UpdateData replaces the payload of the running action without touching
// StartedAt. It refuses data of a different kind.
func (a *Actions) UpdateData(data ActionData) bool {
	if data == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cur.Kind != data.Kind() {
		return false
	}
	a.cur.Data = data
	return true
}

func (a *Actions) SetIdle() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cur = ActionState{Kind: Idle, StartedAt: a.now()}
}

func (a *Actions) Current() ActionState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cur
}

func (a *Actions) IsIdle() bool { return a.Current().Kind == Idle }

func (a *Actions) Describe() string { return a.Current().Describe() }
