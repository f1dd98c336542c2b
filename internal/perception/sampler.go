// Package perception samples the blocks around an agent on a background
// schedule and keeps a bounded nearest-per-type index for snapshot building.
package perception

import (
	"context"

	"voxelagent.ai/internal/world"
)

// BlockSample is one exposed block found by a scan. Immutable once built.
type BlockSample struct {
	Type string         `json:"type"`
	Pos  world.BlockPos `json:"position"`
	Tool world.ToolType `json:"required_tool,omitempty"`
	Tier world.ToolTier `json:"required_tier,omitempty"`
}

func (s BlockSample) Harvest() world.Harvest { return world.Harvest{Tool: s.Tool, Tier: s.Tier} }

// Region is the box scanned around a center: TileRadius tiles in each
// horizontal direction and VerticalRange blocks above and below.
type Region struct {
	Center        world.BlockPos
	TileRadius    int
	VerticalRange int
}

var faces = [6][3]int{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

// Sample scans every loaded tile of the region and returns the non-empty
// blocks that touch at least one empty neighbour. Unloaded tiles are skipped.
// The scan stops early with ctx.Err() when ctx is canceled.
func Sample(ctx context.Context, w world.World, r Region) ([]BlockSample, error) {
	minY, maxY := w.HeightBounds()
	y0 := max(r.Center.Y-r.VerticalRange, minY)
	y1 := min(r.Center.Y+r.VerticalRange, maxY-1)
	ct := r.Center.Tile()

	var out []BlockSample
	for tx := ct.X - r.TileRadius; tx <= ct.X+r.TileRadius; tx++ {
		for tz := ct.Z - r.TileRadius; tz <= ct.Z+r.TileRadius; tz++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tile := world.TileCoord{X: tx, Z: tz}
			if !w.IsTileLoaded(tile) {
				continue
			}
			out = sampleTile(w, tile, y0, y1, out)
		}
	}
	return out, nil
}

func sampleTile(w world.World, tile world.TileCoord, y0, y1 int, out []BlockSample) []BlockSample {
	bx, bz := tile.X*world.TileSize, tile.Z*world.TileSize
	for x := bx; x < bx+world.TileSize; x++ {
		for z := bz; z < bz+world.TileSize; z++ {
			for y := y0; y <= y1; y++ {
				p := world.BlockPos{X: x, Y: y, Z: z}
				b := w.BlockAt(p)
				if b.Empty() || !exposed(w, p) {
					continue
				}
				out = append(out, BlockSample{
					Type: world.ItemPath(b.Type),
					Pos:  p,
					Tool: b.Harvest.Tool,
					Tier: b.Harvest.Tier,
				})
			}
		}
	}
	return out
}

func exposed(w world.World, p world.BlockPos) bool {
	for _, f := range faces {
		if w.IsEmpty(p.Add(f[0], f[1], f[2])) {
			return true
		}
	}
	return false
}
