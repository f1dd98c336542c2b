package actions

import (
	"context"
	"strings"

	"voxelagent.ai/internal/agentstate"
	"voxelagent.ai/internal/world"
)

// huntingHandler attacks the nearest living non-player entity matching a mob
// name or type.
type huntingHandler struct{ env *Env }

func (h *huntingHandler) Name() string     { return "hunting" }
func (h *huntingHandler) Verbs() []string  { return []string{"hunt"} }
func (h *huntingHandler) Syntax() []string { return []string{"hunt <mob_type>"} }

func (h *huntingHandler) Handle(ctx context.Context, c Call) bool {
	e := h.env
	if len(c.Args) < 2 {
		return e.reject(h.Name(), c, "expected a mob type")
	}
	mob := strings.ToLower(strings.Join(c.Args[1:], " "))
	ent, ok := e.nearestEntity(func(ent world.Entity) bool {
		return !ent.Player && ent.Living && (matchName(ent.Name, mob) || matchName(ent.Type, mob))
	})
	if !ok {
		return e.reject(h.Name(), c, "no "+mob+" in range")
	}

	e.Actions.SetAction(agentstate.HuntingData{Target: mob, TargetID: ent.ID})
	if !e.Agent.Attack(ent.ID) {
		e.Actions.SetIdle()
		return false
	}
	return true
}

// combatHandler attacks a named entity or switches to a defensive stance.
type combatHandler struct{ env *Env }

func (h *combatHandler) Name() string     { return "combat" }
func (h *combatHandler) Verbs() []string  { return []string{"attack", "defend"} }
func (h *combatHandler) Syntax() []string { return []string{"attack <entity_name>", "defend"} }

func (h *combatHandler) Handle(ctx context.Context, c Call) bool {
	e := h.env
	if c.Arg(0) == "defend" {
		e.Actions.SetAction(agentstate.CombatData{Stance: "defensive"})
		return true
	}
	if len(c.Args) < 2 {
		return e.reject(h.Name(), c, "expected a target")
	}
	name := strings.Join(c.Args[1:], " ")
	ent, ok := e.nearestEntity(func(ent world.Entity) bool {
		return ent.Living && matchName(ent.Name, name)
	})
	if !ok {
		return e.reject(h.Name(), c, "no "+name+" in range")
	}

	e.Actions.SetAction(agentstate.CombatData{Target: ent.Name, TargetID: ent.ID, Stance: "aggressive"})
	if !e.Agent.Attack(ent.ID) {
		e.Actions.SetIdle()
		return false
	}
	return true
}

// fishingHandler casts or reels in a fishing rod.
type fishingHandler struct{ env *Env }

func (h *fishingHandler) Name() string     { return "fishing" }
func (h *fishingHandler) Verbs() []string  { return []string{"fish"} }
func (h *fishingHandler) Syntax() []string { return []string{"fish", "fish stop"} }

const fishingRod = "fishing_rod"

func (h *fishingHandler) Handle(ctx context.Context, c Call) bool {
	e := h.env
	switch {
	case len(c.Args) == 1:
		if !world.HasItem(e.Agent.Inventory(), fishingRod) {
			return e.reject(h.Name(), c, "no fishing rod")
		}
		e.Actions.SetAction(agentstate.FishingData{})
		if !e.Agent.UseItem(fishingRod) {
			e.Actions.SetIdle()
			return false
		}
		return true
	case c.Arg(1) == "stop":
		ok := e.Agent.StopUsing()
		if e.Actions.Current().Kind == agentstate.Fishing {
			e.Actions.SetIdle()
		}
		return ok
	}
	return e.reject(h.Name(), c, "expected: fish or fish stop")
}
