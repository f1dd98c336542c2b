package actions

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"voxelagent.ai/internal/agentstate"
	"voxelagent.ai/internal/world"
)

// navigationHandler teleports the agent toward coordinates, a named entity or
// the nearest cached block of a type.
type navigationHandler struct{ env *Env }

func (h *navigationHandler) Name() string    { return "navigation" }
func (h *navigationHandler) Verbs() []string { return []string{"travel"} }
func (h *navigationHandler) Syntax() []string {
	return []string{
		"travel to <x> <y> <z>",
		"travel to entity <name>",
		"travel to block <type>",
		"travel stop",
	}
}

func (h *navigationHandler) Handle(ctx context.Context, c Call) bool {
	e := h.env
	switch c.Arg(1) {
	case "stop":
		e.Nav.SetIdle()
		if e.Actions.Current().Kind == agentstate.Traveling {
			e.Actions.SetIdle()
		}
		return true
	case "to":
	default:
		return e.reject(h.Name(), c, "expected: travel to ... or travel stop")
	}

	dest, target, ok := h.destination(c)
	if !ok {
		return e.reject(h.Name(), c, "no destination")
	}

	e.Actions.SetAction(agentstate.TravelingData{Destination: dest, Target: target})
	e.Nav.SetTravelingTo(dest)
	if !e.Agent.Teleport(dest) {
		e.Nav.SetIdle()
		e.Actions.SetIdle()
		e.Log.Warn("teleport failed", zap.Stringer("destination", dest))
		return false
	}
	if e.Nav.Update(e.Agent.Position()) {
		e.Actions.SetIdle()
	}
	return true
}

func (h *navigationHandler) destination(c Call) (world.Vec3, string, bool) {
	e := h.env
	switch c.Arg(2) {
	case "entity":
		if len(c.Args) < 4 {
			return world.Vec3{}, "", false
		}
		name := strings.Join(c.Args[3:], " ")
		ent, ok := e.nearestEntity(func(ent world.Entity) bool {
			return matchName(ent.Name, name)
		})
		if !ok {
			return world.Vec3{}, "", false
		}
		return ent.Pos, ent.Name, true
	case "block":
		if len(c.Args) < 4 || e.Blocks == nil {
			return world.Vec3{}, "", false
		}
		want := slug(c.Args[3:])
		for _, s := range e.Blocks.NearbyBlocks() {
			if matchName(s.Type, want) {
				return s.Pos.Add(0, 1, 0).Vec(), s.Type, true
			}
		}
		return world.Vec3{}, "", false
	}
	v, ok := vecAt(c.Args, 2)
	return v, "", ok
}
