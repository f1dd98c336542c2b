package actions

import (
	"context"

	"voxelagent.ai/internal/agentstate"
	"voxelagent.ai/internal/phrase"
	"voxelagent.ai/internal/world"
)

// seeds maps a crop block to the item consumed when planting it.
var seeds = map[string]string{
	"wheat":        "wheat_seeds",
	"carrots":      "carrot",
	"potatoes":     "potato",
	"beetroots":    "beetroot_seeds",
	"melon_stem":   "melon_seeds",
	"pumpkin_stem": "pumpkin_seeds",
}

// farmingHandler plants and harvests crops.
type farmingHandler struct{ env *Env }

func (h *farmingHandler) Name() string    { return "farming" }
func (h *farmingHandler) Verbs() []string { return []string{"farm"} }
func (h *farmingHandler) Syntax() []string {
	return []string{
		"farm plant <crop> at <x> <y> <z>",
		"farm harvest at <x> <y> <z>",
		"farm harvest",
	}
}

func (h *farmingHandler) Handle(ctx context.Context, c Call) bool {
	switch c.Arg(1) {
	case "plant":
		return h.plant(ctx, c)
	case "harvest":
		if len(c.Args) == 2 {
			return h.harvestNearby(ctx, c)
		}
		return h.harvestAt(ctx, c)
	}
	return h.env.reject(h.Name(), c, "expected: farm plant|harvest")
}

func (h *farmingHandler) plant(ctx context.Context, c Call) bool {
	e := h.env
	if len(c.Args) < 7 {
		return e.reject(h.Name(), c, "expected: farm plant <crop> at <x> <y> <z>")
	}
	at := phrase.IndexFold(c.Args, 3, "at")
	if at < 0 {
		return e.reject(h.Name(), c, "missing 'at'")
	}
	crop := slug(c.Args[2:at])
	p, ok := blockPosAt(c.Args, at+1)
	if !ok {
		return e.reject(h.Name(), c, "expected integer coordinates")
	}
	b := e.World.BlockAt(p)
	if world.ItemPath(b.Type) == "farmland" {
		p = p.Add(0, 1, 0)
		b = e.World.BlockAt(p)
	}
	if !b.Empty() {
		return e.reject(h.Name(), c, p.String()+" is not plantable")
	}
	seed := seeds[crop]
	if seed != "" && !world.HasItem(e.Agent.Inventory(), seed) {
		return e.reject(h.Name(), c, "no "+seed+" in inventory")
	}

	e.Actions.SetAction(agentstate.FarmingData{Operation: "plant", Crop: crop, Pos: &p})
	ok = e.setblock(ctx, p, e.Resources.Qualify(crop))
	if ok && seed != "" {
		e.clear(ctx, e.Resources.Qualify(seed), 1)
	}
	e.Actions.SetIdle()
	return ok
}

func (h *farmingHandler) harvestAt(ctx context.Context, c Call) bool {
	e := h.env
	if c.Arg(2) != "at" {
		return e.reject(h.Name(), c, "expected: farm harvest at <x> <y> <z>")
	}
	p, ok := blockPosAt(c.Args, 3)
	if !ok {
		return e.reject(h.Name(), c, "expected integer coordinates")
	}
	b := e.World.BlockAt(p)
	if !b.Crop || !b.Mature {
		return e.reject(h.Name(), c, "no mature crop at "+p.String())
	}
	crop := world.ItemPath(b.Type)
	e.Actions.SetAction(agentstate.FarmingData{Operation: "harvest", Crop: crop, Pos: &p})
	ok = h.reap(ctx, p, crop)
	e.Actions.SetIdle()
	return ok
}

// harvestNearby reaps the first mature crop among the cached nearby blocks.
// Action state is only touched once a mature crop has been found.
func (h *farmingHandler) harvestNearby(ctx context.Context, c Call) bool {
	e := h.env
	if e.Blocks == nil {
		return e.reject(h.Name(), c, "no block cache")
	}
	var ripe []world.BlockPos
	for _, s := range e.Blocks.NearbyBlocks() {
		if b := e.World.BlockAt(s.Pos); b.Crop && b.Mature {
			ripe = append(ripe, s.Pos)
		}
	}
	if len(ripe) == 0 {
		return e.reject(h.Name(), c, "no mature crops nearby")
	}

	defer e.Actions.SetIdle()
	for i, p := range ripe {
		crop := world.ItemPath(e.World.BlockAt(p).Type)
		data := agentstate.FarmingData{Operation: "harvest", Crop: crop, Pos: &ripe[i]}
		if i == 0 {
			e.Actions.SetAction(data)
		} else {
			e.Actions.UpdateData(data)
		}
		if h.reap(ctx, p, crop) {
			return true
		}
	}
	return e.reject(h.Name(), c, "could not harvest any nearby crop")
}

func (h *farmingHandler) reap(ctx context.Context, p world.BlockPos, crop string) bool {
	if !h.env.setblock(ctx, p, "air") {
		return false
	}
	h.env.give(ctx, h.env.Resources.Qualify(crop), 1)
	return true
}
