package actions

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"voxelagent.ai/internal/agentstate"
	"voxelagent.ai/internal/perception"
	"voxelagent.ai/internal/phrase"
	"voxelagent.ai/internal/world"
)

// miningHandler breaks cached blocks of a type, or one block by position, and
// credits the drop to the agent.
type miningHandler struct{ env *Env }

func (h *miningHandler) Name() string    { return "mining" }
func (h *miningHandler) Verbs() []string { return []string{"mine"} }
func (h *miningHandler) Syntax() []string {
	return []string{"mine <block_type> [count]", "mine at <x> <y> <z>"}
}

func (h *miningHandler) Handle(ctx context.Context, c Call) bool {
	if len(c.Args) < 2 {
		return h.env.reject(h.Name(), c, "expected a block type")
	}
	if c.Arg(1) == "at" {
		return h.mineAt(ctx, c)
	}
	return h.mineType(ctx, c)
}

func (h *miningHandler) mineAt(ctx context.Context, c Call) bool {
	e := h.env
	p, ok := blockPosAt(c.Args, 2)
	if !ok {
		return e.reject(h.Name(), c, "expected integer coordinates")
	}
	b := e.World.BlockAt(p)
	if b.Empty() {
		return e.reject(h.Name(), c, "nothing to mine at "+p.String())
	}
	if !h.canHarvest(b.Harvest) {
		return e.reject(h.Name(), c, "missing tool for "+world.ItemPath(b.Type))
	}
	blockType := world.ItemPath(b.Type)
	e.Actions.SetAction(agentstate.MiningData{BlockType: blockType, Count: 1})
	ok = h.mineOne(ctx, p, b.Type)
	if ok {
		e.Actions.UpdateData(agentstate.MiningData{BlockType: blockType, Count: 1, Mined: 1})
	}
	e.Actions.SetIdle()
	return ok
}

func (h *miningHandler) mineType(ctx context.Context, c Call) bool {
	e := h.env
	name, ok := phrase.ReconstructName(c.Args, 1)
	if !ok {
		return e.reject(h.Name(), c, "expected a block type")
	}
	blockType := normalizeType(name)
	count := 1
	if n, ok := phrase.FirstNumber(c.Args, 2); ok {
		count = n
	}
	if count < 1 {
		return e.reject(h.Name(), c, "count must be positive")
	}
	if e.Blocks == nil {
		return e.reject(h.Name(), c, "no block cache")
	}

	var targets []perception.BlockSample
	for _, s := range e.Blocks.BlocksOfType(blockType, count) {
		if h.canHarvest(s.Harvest()) {
			targets = append(targets, s)
		}
	}
	if len(targets) == 0 {
		return e.reject(h.Name(), c, "no reachable "+blockType+" nearby")
	}

	data := agentstate.MiningData{BlockType: blockType, Count: count}
	e.Actions.SetAction(data)
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			break
		}
		if !h.mineOne(ctx, t.Pos, e.Resources.Qualify(t.Type)) {
			continue
		}
		data.Mined++
		e.Actions.UpdateData(data)
	}
	if data.Mined == 0 {
		e.Actions.SetIdle()
		return false
	}
	if data.Mined >= data.Count {
		e.Actions.SetIdle()
	} else {
		e.Log.Info("mining partially done",
			zap.String("type", blockType), zap.Int("mined", data.Mined), zap.Int("count", data.Count))
	}
	return true
}

// mineOne clears p and gives the agent one of id.
func (h *miningHandler) mineOne(ctx context.Context, p world.BlockPos, id string) bool {
	if !h.env.setblock(ctx, p, "air") {
		return false
	}
	h.env.give(ctx, h.env.Resources.Qualify(world.ItemPath(id)), 1)
	return true
}

func (h *miningHandler) canHarvest(req world.Harvest) bool {
	if req.Tool == world.ToolNone || req.Tier == world.TierNone {
		return true
	}
	return world.BestTier(h.env.Agent.Inventory(), req.Tool) >= req.Tier
}

func normalizeType(name string) string {
	return slug(strings.Fields(name))
}
