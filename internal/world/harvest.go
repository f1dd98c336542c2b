package world

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ToolType string

const (
	ToolNone    ToolType = ""
	ToolPickaxe ToolType = "pickaxe"
	ToolAxe     ToolType = "axe"
	ToolShovel  ToolType = "shovel"
	ToolHoe     ToolType = "hoe"
	ToolShears  ToolType = "shears"
	ToolSword   ToolType = "sword"
)

type ToolTier int

const (
	TierNone ToolTier = iota
	TierWood
	TierStone
	TierIron
	TierDiamond
	TierNetherite
)

var tierNames = [...]string{"none", "wood", "stone", "iron", "diamond", "netherite"}

func (t ToolTier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

func (t ToolTier) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *ToolTier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return err
		}
		*t = ToolTier(n)
		return nil
	}
	v, ok := ParseToolTier(s)
	if !ok {
		return fmt.Errorf("unknown tool tier %q", s)
	}
	*t = v
	return nil
}

func ParseToolTier(s string) (ToolTier, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TierNone, true
	}
	for i, n := range tierNames {
		if n == s {
			return ToolTier(i), true
		}
	}
	return TierNone, false
}

// Harvest is the minimum tool needed to break a block and get its drop.
type Harvest struct {
	Tool ToolType `json:"tool,omitempty"`
	Tier ToolTier `json:"tier,omitempty"`
}

func (h Harvest) IsZero() bool { return h.Tool == ToolNone && h.Tier == TierNone }

// DefaultHarvest derives requirements from a block name when the host does not
// supply them. Ores follow the vanilla tier ladder; soft blocks want a shovel,
// wood wants an axe, everything else hard wants a pickaxe.
func DefaultHarvest(blockType string) Harvest {
	name := strings.ToLower(ItemPath(blockType))
	switch {
	case IsAir(name):
		return Harvest{}
	case name == "obsidian" || name == "crying_obsidian" || name == "ancient_debris":
		return Harvest{Tool: ToolPickaxe, Tier: TierDiamond}
	case strings.Contains(name, "diamond_ore"), strings.Contains(name, "emerald_ore"),
		strings.Contains(name, "gold_ore"), strings.Contains(name, "redstone_ore"):
		if strings.HasPrefix(name, "nether_gold") {
			return Harvest{Tool: ToolPickaxe, Tier: TierWood}
		}
		return Harvest{Tool: ToolPickaxe, Tier: TierIron}
	case strings.Contains(name, "iron_ore"), strings.Contains(name, "lapis_ore"),
		strings.Contains(name, "copper_ore"):
		return Harvest{Tool: ToolPickaxe, Tier: TierStone}
	case strings.HasSuffix(name, "_ore"), name == "stone", name == "cobblestone",
		name == "deepslate", name == "andesite", name == "diorite", name == "granite",
		name == "sandstone", name == "bricks", name == "furnace", strings.HasSuffix(name, "_stairs") && strings.Contains(name, "stone"):
		return Harvest{Tool: ToolPickaxe, Tier: TierWood}
	case name == "dirt", name == "grass_block", name == "sand", name == "gravel",
		name == "clay", name == "farmland", name == "soul_sand", name == "snow_block", name == "mud":
		return Harvest{Tool: ToolShovel}
	case strings.HasSuffix(name, "_log"), strings.HasSuffix(name, "_planks"),
		strings.HasSuffix(name, "_wood"), name == "chest", name == "crafting_table":
		return Harvest{Tool: ToolAxe}
	case strings.HasSuffix(name, "_leaves"), name == "cobweb":
		return Harvest{Tool: ToolShears}
	case name == "hay_block", strings.Contains(name, "wart_block"):
		return Harvest{Tool: ToolHoe}
	}
	return Harvest{}
}

// BestTier returns the highest tier of the given tool family found in inv.
func BestTier(inv []ItemStack, tool ToolType) ToolTier {
	if tool == ToolNone {
		return TierNone
	}
	best := TierNone
	for _, st := range inv {
		if st.Count <= 0 {
			continue
		}
		name := strings.ToLower(ItemPath(st.Item))
		if !strings.HasSuffix(name, "_"+string(tool)) {
			continue
		}
		var tier ToolTier
		switch strings.TrimSuffix(name, "_"+string(tool)) {
		case "wooden", "golden":
			tier = TierWood
		case "stone":
			tier = TierStone
		case "iron":
			tier = TierIron
		case "diamond":
			tier = TierDiamond
		case "netherite":
			tier = TierNetherite
		}
		if tier > best {
			best = tier
		}
	}
	return best
}
