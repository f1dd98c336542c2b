package perception

import (
	"sort"

	"voxelagent.ai/internal/world"
)

// Nearest keeps the closest sample of each type, sorts the survivors by
// distance to center and truncates to limit. A sample only displaces the
// current holder of its type when strictly closer, and the sort is stable, so
// equal distances keep encounter order. limit <= 0 yields an empty list.
func Nearest(samples []BlockSample, center world.BlockPos, limit int) []BlockSample {
	if limit <= 0 || len(samples) == 0 {
		return []BlockSample{}
	}

	type best struct {
		s BlockSample
		d int
	}
	byType := make(map[string]int, 32)
	kept := make([]best, 0, 32)
	for _, s := range samples {
		d := s.Pos.DistSq(center)
		if i, ok := byType[s.Type]; ok {
			if d < kept[i].d {
				kept[i] = best{s: s, d: d}
			}
			continue
		}
		byType[s.Type] = len(kept)
		kept = append(kept, best{s: s, d: d})
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].d < kept[j].d })
	if len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]BlockSample, len(kept))
	for i, k := range kept {
		out[i] = k.s
	}
	return out
}
