package actions

import (
	"context"

	"voxelagent.ai/internal/agentstate"
	"voxelagent.ai/internal/phrase"
	"voxelagent.ai/internal/world"
)

// buildingHandler places one block from the inventory.
type buildingHandler struct{ env *Env }

func (h *buildingHandler) Name() string    { return "building" }
func (h *buildingHandler) Verbs() []string { return []string{"build", "place"} }
func (h *buildingHandler) Syntax() []string {
	return []string{"build <block_type> at <x> <y> <z>", "place <block_type> at <x> <y> <z>"}
}

func (h *buildingHandler) Handle(ctx context.Context, c Call) bool {
	e := h.env
	if len(c.Args) < 6 {
		return e.reject(h.Name(), c, "expected: build <block_type> at <x> <y> <z>")
	}
	at := phrase.IndexFold(c.Args, 2, "at")
	if at < 0 {
		return e.reject(h.Name(), c, "missing 'at'")
	}
	blockType := slug(c.Args[1:at])
	p, ok := blockPosAt(c.Args, at+1)
	if !ok {
		return e.reject(h.Name(), c, "expected integer coordinates")
	}
	if !world.HasItem(e.Agent.Inventory(), blockType) {
		return e.reject(h.Name(), c, "no "+blockType+" in inventory")
	}
	if !e.World.IsEmpty(p) {
		return e.reject(h.Name(), c, p.String()+" is occupied")
	}

	e.Actions.SetAction(agentstate.BuildingData{BlockType: blockType, Pos: p})
	ok = e.setblock(ctx, p, e.Resources.Qualify(blockType))
	e.Actions.SetIdle()
	return ok
}

// craftingHandler grants one crafted item.
type craftingHandler struct{ env *Env }

func (h *craftingHandler) Name() string     { return "crafting" }
func (h *craftingHandler) Verbs() []string  { return []string{"craft"} }
func (h *craftingHandler) Syntax() []string { return []string{"craft <item_name>"} }

func (h *craftingHandler) Handle(ctx context.Context, c Call) bool {
	e := h.env
	if len(c.Args) < 2 {
		return e.reject(h.Name(), c, "expected an item name")
	}
	item := slug(c.Args[1:])
	id, ok := e.Resources.CraftItem(item)
	if !ok {
		id = e.Resources.Qualify(item)
	}

	e.Actions.SetAction(agentstate.CraftingData{Item: item})
	ok = e.give(ctx, id, 1)
	e.Actions.SetIdle()
	return ok
}
